package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Статусы жизненного цикла плана питания.
const (
	PlanStatusPending   = "pending"
	PlanStatusCompleted = "completed"
)

// ErrPlanNotFound возвращается всеми реализациями, когда план не найден.
var ErrPlanNotFound = errors.New("meal plan not found")

// MealPlanEntry — одна запись плана: дата (точность — день, UTC midnight)
// и ссылка на рецепт. RecipeID непрозрачен для этого сервиса.
type MealPlanEntry struct {
	Date     time.Time
	RecipeID string
}

// MealPlan — недельный план питания пользователя.
// StartDate фиксируется при создании и больше не меняется; EndDate
// пересчитывается при замене записей.
type MealPlan struct {
	ID        uuid.UUID
	UserID    string
	StartDate time.Time
	EndDate   time.Time
	Entries   []MealPlanEntry
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the plan still occupies its window.
func (p *MealPlan) Active() bool {
	return p.Status != PlanStatusCompleted
}

// MealPlansStorage — интерфейс для работы с планами питания
type MealPlansStorage interface {
	// CreatePlan persists a new plan. ID/CreatedAt/UpdatedAt are assigned
	// by the implementation when zero.
	CreatePlan(ctx context.Context, plan *MealPlan) error

	// GetPlan возвращает план по ID
	GetPlan(ctx context.Context, id uuid.UUID) (*MealPlan, error)

	// ListPlansByUser returns every plan of a user ordered by start date ascending.
	ListPlansByUser(ctx context.Context, userID string) ([]MealPlan, error)

	// ListActivePlansByUser returns the user's plans with status != completed,
	// ordered by start date ascending.
	ListActivePlansByUser(ctx context.Context, userID string) ([]MealPlan, error)

	// ListPendingPlans returns all pending plans across users (expiry sweep input).
	ListPendingPlans(ctx context.Context) ([]MealPlan, error)

	// ReplaceEntries swaps a plan's entries and end date; start date and
	// status are left untouched. Returns the updated plan.
	ReplaceEntries(ctx context.Context, id uuid.UUID, entries []MealPlanEntry, endDate time.Time) (*MealPlan, error)

	// UpdatePlanStatus sets the plan's lifecycle status.
	UpdatePlanStatus(ctx context.Context, id uuid.UUID, status string) error

	// DeletePlan удаляет план
	DeletePlan(ctx context.Context, id uuid.UUID) error

	// Close закрывает соединение (для Postgres)
	Close() error
}
