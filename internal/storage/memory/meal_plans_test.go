package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fdg312/mealplan-hub/internal/storage"
	"github.com/google/uuid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPlan(userID string, start time.Time, status string) *storage.MealPlan {
	return &storage.MealPlan{
		UserID:    userID,
		StartDate: start,
		EndDate:   start,
		Entries:   []storage.MealPlanEntry{{Date: start, RecipeID: "r1"}},
		Status:    status,
	}
}

func TestCreateAndGetPlan(t *testing.T) {
	m := New()
	ctx := context.Background()

	plan := newPlan("user1", date(2024, 11, 1), storage.PlanStatusPending)
	if err := m.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if plan.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if plan.CreatedAt.IsZero() || plan.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := m.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.UserID != "user1" || !got.StartDate.Equal(date(2024, 11, 1)) {
		t.Errorf("unexpected plan: %+v", got)
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	m := New()

	_, err := m.GetPlan(context.Background(), uuid.New())
	if !errors.Is(err, storage.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestGetPlan_ReturnsCopy(t *testing.T) {
	m := New()
	ctx := context.Background()

	plan := newPlan("user1", date(2024, 11, 1), storage.PlanStatusPending)
	if err := m.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, _ := m.GetPlan(ctx, plan.ID)
	got.Entries[0].RecipeID = "mutated"
	got.Status = storage.PlanStatusCompleted

	again, _ := m.GetPlan(ctx, plan.ID)
	if again.Entries[0].RecipeID != "r1" {
		t.Error("mutating a returned plan leaked into the store")
	}
	if again.Status != storage.PlanStatusPending {
		t.Error("mutating a returned status leaked into the store")
	}
}

func TestListPlansByUser_SortedAndScoped(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.CreatePlan(ctx, newPlan("user1", date(2024, 3, 1), storage.PlanStatusPending))
	m.CreatePlan(ctx, newPlan("user1", date(2024, 1, 1), storage.PlanStatusCompleted))
	m.CreatePlan(ctx, newPlan("user2", date(2024, 2, 1), storage.PlanStatusPending))

	plans, err := m.ListPlansByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if !plans[0].StartDate.Equal(date(2024, 1, 1)) || !plans[1].StartDate.Equal(date(2024, 3, 1)) {
		t.Errorf("expected plans sorted by start date, got %s and %s",
			plans[0].StartDate, plans[1].StartDate)
	}
}

func TestListActivePlansByUser_SkipsCompleted(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.CreatePlan(ctx, newPlan("user1", date(2024, 1, 1), storage.PlanStatusCompleted))
	m.CreatePlan(ctx, newPlan("user1", date(2024, 2, 1), storage.PlanStatusPending))

	plans, err := m.ListActivePlansByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("expected 1 active plan, got %d", len(plans))
	}
	if plans[0].Status != storage.PlanStatusPending {
		t.Errorf("expected pending plan, got %s", plans[0].Status)
	}
}

func TestListPendingPlans_AcrossUsers(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.CreatePlan(ctx, newPlan("user1", date(2024, 1, 1), storage.PlanStatusPending))
	m.CreatePlan(ctx, newPlan("user2", date(2024, 2, 1), storage.PlanStatusPending))
	m.CreatePlan(ctx, newPlan("user3", date(2024, 3, 1), storage.PlanStatusCompleted))

	pending, err := m.ListPendingPlans(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending plans, got %d", len(pending))
	}
}

func TestReplaceEntries(t *testing.T) {
	m := New()
	ctx := context.Background()

	plan := newPlan("user1", date(2024, 11, 1), storage.PlanStatusPending)
	m.CreatePlan(ctx, plan)

	newEntries := []storage.MealPlanEntry{
		{Date: date(2024, 11, 3), RecipeID: "r2"},
		{Date: date(2024, 11, 5), RecipeID: "r3"},
	}
	updated, err := m.ReplaceEntries(ctx, plan.ID, newEntries, date(2024, 11, 5))
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if len(updated.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(updated.Entries))
	}
	if !updated.EndDate.Equal(date(2024, 11, 5)) {
		t.Errorf("expected end date moved to 2024-11-05, got %s", updated.EndDate)
	}
	if !updated.StartDate.Equal(date(2024, 11, 1)) {
		t.Errorf("start date must not move, got %s", updated.StartDate)
	}

	_, err = m.ReplaceEntries(ctx, uuid.New(), newEntries, date(2024, 11, 5))
	if !errors.Is(err, storage.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestUpdatePlanStatus(t *testing.T) {
	m := New()
	ctx := context.Background()

	plan := newPlan("user1", date(2024, 11, 1), storage.PlanStatusPending)
	m.CreatePlan(ctx, plan)

	if err := m.UpdatePlanStatus(ctx, plan.ID, storage.PlanStatusCompleted); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	got, _ := m.GetPlan(ctx, plan.ID)
	if got.Status != storage.PlanStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}

	if err := m.UpdatePlanStatus(ctx, uuid.New(), storage.PlanStatusCompleted); !errors.Is(err, storage.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestDeletePlan(t *testing.T) {
	m := New()
	ctx := context.Background()

	plan := newPlan("user1", date(2024, 11, 1), storage.PlanStatusPending)
	m.CreatePlan(ctx, plan)

	if err := m.DeletePlan(ctx, plan.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := m.GetPlan(ctx, plan.ID); !errors.Is(err, storage.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound after delete, got %v", err)
	}

	// Пользовательский индекс тоже очищается.
	plans, _ := m.ListPlansByUser(ctx, "user1")
	if len(plans) != 0 {
		t.Errorf("expected empty list after delete, got %d plans", len(plans))
	}

	if err := m.DeletePlan(ctx, plan.ID); !errors.Is(err, storage.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound on double delete, got %v", err)
	}
}
