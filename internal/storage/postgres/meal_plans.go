package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/mealplan-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const planColumns = `id, user_id, start_date, end_date, entries, status, created_at, updated_at`

// entryRecord is the JSONB wire form of a plan entry.
type entryRecord struct {
	Date     string `json:"date"`
	RecipeID string `json:"recipe_id"`
}

func (p *PostgresStorage) CreatePlan(ctx context.Context, plan *storage.MealPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	entries, err := marshalEntries(plan.Entries)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO meal_plans (id, user_id, start_date, end_date, entries, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = p.pool.QueryRow(ctx, query,
		plan.ID,
		plan.UserID,
		plan.StartDate,
		plan.EndDate,
		entries,
		plan.Status,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meal plan: %w", err)
	}

	return nil
}

func (p *PostgresStorage) GetPlan(ctx context.Context, id uuid.UUID) (*storage.MealPlan, error) {
	query := `SELECT ` + planColumns + ` FROM meal_plans WHERE id = $1`

	plan, err := scanPlan(p.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}

	return plan, nil
}

func (p *PostgresStorage) ListPlansByUser(ctx context.Context, userID string) ([]storage.MealPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM meal_plans
		WHERE user_id = $1
		ORDER BY start_date ASC
	`

	return p.queryPlans(ctx, query, userID)
}

func (p *PostgresStorage) ListActivePlansByUser(ctx context.Context, userID string) ([]storage.MealPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM meal_plans
		WHERE user_id = $1 AND status != $2
		ORDER BY start_date ASC
	`

	return p.queryPlans(ctx, query, userID, storage.PlanStatusCompleted)
}

func (p *PostgresStorage) ListPendingPlans(ctx context.Context) ([]storage.MealPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM meal_plans
		WHERE status = $1
		ORDER BY start_date ASC
	`

	return p.queryPlans(ctx, query, storage.PlanStatusPending)
}

func (p *PostgresStorage) ReplaceEntries(ctx context.Context, id uuid.UUID, entries []storage.MealPlanEntry, endDate time.Time) (*storage.MealPlan, error) {
	encoded, err := marshalEntries(entries)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE meal_plans
		SET entries = $2, end_date = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + planColumns

	plan, err := scanPlan(p.pool.QueryRow(ctx, query, id, encoded, endDate))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace meal plan entries: %w", err)
	}

	return plan, nil
}

func (p *PostgresStorage) UpdatePlanStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE meal_plans
		SET status = $2, updated_at = now()
		WHERE id = $1
	`

	tag, err := p.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update meal plan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrPlanNotFound
	}

	return nil
}

func (p *PostgresStorage) DeletePlan(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM meal_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrPlanNotFound
	}

	return nil
}

func (p *PostgresStorage) queryPlans(ctx context.Context, query string, args ...any) ([]storage.MealPlan, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal plans: %w", err)
	}
	defer rows.Close()

	plans := []storage.MealPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *plan)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating meal plans: %w", rows.Err())
	}

	return plans, nil
}

func scanPlan(row pgx.Row) (*storage.MealPlan, error) {
	var plan storage.MealPlan
	var entries []byte

	err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.StartDate,
		&plan.EndDate,
		&entries,
		&plan.Status,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.Entries, err = unmarshalEntries(entries)
	if err != nil {
		return nil, err
	}

	// DATE columns come back at UTC midnight already; normalize just in case.
	plan.StartDate = plan.StartDate.UTC()
	plan.EndDate = plan.EndDate.UTC()

	return &plan, nil
}

func marshalEntries(entries []storage.MealPlanEntry) ([]byte, error) {
	records := make([]entryRecord, len(entries))
	for i, e := range entries {
		records[i] = entryRecord{
			Date:     e.Date.UTC().Format("2006-01-02"),
			RecipeID: e.RecipeID,
		}
	}

	encoded, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meal plan entries: %w", err)
	}
	return encoded, nil
}

func unmarshalEntries(data []byte) ([]storage.MealPlanEntry, error) {
	var records []entryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode meal plan entries: %w", err)
	}

	entries := make([]storage.MealPlanEntry, len(records))
	for i, r := range records {
		date, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry date %q: %w", r.Date, err)
		}
		entries[i] = storage.MealPlanEntry{Date: date, RecipeID: r.RecipeID}
	}

	return entries, nil
}
