package mealplans

import (
	"fmt"
	"time"

	"github.com/fdg312/mealplan-hub/internal/storage"
)

const dateLayout = "2006-01-02"

type MealPlanEntryDTO struct {
	Date     string `json:"date"`
	RecipeID string `json:"recipe_id"`
}

type MealPlanDTO struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date"`
	Entries   []MealPlanEntryDTO `json:"entries"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type ListMealPlansResponse struct {
	Plans []MealPlanDTO `json:"plans"`
}

type SweepResponse struct {
	Updated int `json:"updated"`
}

type CreateMealPlanRequest struct {
	StartDate string             `json:"start_date,omitempty"`
	Entries   []MealPlanEntryDTO `json:"entries"`
}

type UpdateMealPlanRequest struct {
	Entries []MealPlanEntryDTO `json:"entries"`
}

func (r *CreateMealPlanRequest) Validate() error {
	if r.StartDate != "" {
		if _, err := time.ParseInLocation(dateLayout, r.StartDate, time.UTC); err != nil {
			return fmt.Errorf("start_date must be YYYY-MM-DD")
		}
	}
	return validateEntries(r.Entries)
}

func (r *UpdateMealPlanRequest) Validate() error {
	return validateEntries(r.Entries)
}

func validateEntries(entries []MealPlanEntryDTO) error {
	if len(entries) == 0 {
		return fmt.Errorf("entries is required and must not be empty")
	}
	for i, e := range entries {
		if _, err := time.ParseInLocation(dateLayout, e.Date, time.UTC); err != nil {
			return fmt.Errorf("entry[%d]: date must be YYYY-MM-DD", i)
		}
		if e.RecipeID == "" {
			return fmt.Errorf("entry[%d]: recipe_id is required", i)
		}
	}
	return nil
}

// parseEntries converts validated request entries to storage form,
// normalizing every date to UTC midnight.
func parseEntries(entries []MealPlanEntryDTO) ([]storage.MealPlanEntry, error) {
	result := make([]storage.MealPlanEntry, len(entries))
	for i, e := range entries {
		date, err := time.ParseInLocation(dateLayout, e.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("entry[%d]: %w", i, err)
		}
		result[i] = storage.MealPlanEntry{Date: date, RecipeID: e.RecipeID}
	}
	return result, nil
}

func toDTO(plan *storage.MealPlan) *MealPlanDTO {
	entries := make([]MealPlanEntryDTO, len(plan.Entries))
	for i, e := range plan.Entries {
		entries[i] = MealPlanEntryDTO{
			Date:     e.Date.Format(dateLayout),
			RecipeID: e.RecipeID,
		}
	}

	return &MealPlanDTO{
		ID:        plan.ID.String(),
		UserID:    plan.UserID,
		StartDate: plan.StartDate.Format(dateLayout),
		EndDate:   plan.EndDate.Format(dateLayout),
		Entries:   entries,
		Status:    plan.Status,
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}
