package mealplans

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/mealplan-hub/internal/storage"
	"github.com/google/uuid"
)

// Service handles meal plan business logic: it is the only entry point
// that combines conflict validation with persistence, so no partial
// state is ever written.
type Service struct {
	storage   storage.MealPlansStorage
	validator Validator
	userLocks *userLockMap
}

// NewService creates a new meal plans service.
func NewService(st storage.MealPlansStorage, validator Validator) *Service {
	return &Service{
		storage:   st,
		validator: validator,
		userLocks: newUserLockMap(),
	}
}

// WindowDays returns the fixed plan window length in days.
func (s *Service) WindowDays() int {
	return s.validator.WindowDays
}

// Create validates a new plan request against the user's active plans and
// persists it with status pending. Duplicate calls create duplicate plans:
// each call is a new plan request.
//
// Create/Update for the same user are serialized on a per-user mutex, so
// two concurrent creates cannot both pass validation against a state that
// excludes the other's write.
func (s *Service) Create(ctx context.Context, userID string, req CreateMealPlanRequest) (*MealPlanDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	entries, err := parseEntries(req.Entries)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var startDate *time.Time
	if req.StartDate != "" {
		d, err := time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		startDate = &d
	}

	s.userLocks.Lock(userID)
	defer s.userLocks.Unlock(userID)

	existing, err := s.storage.ListActivePlansByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	anchor, endDate, err := s.validator.ValidateNewPlan(startDate, entries, existing)
	if err != nil {
		return nil, err
	}

	sortEntries(entries)

	plan := &storage.MealPlan{
		UserID:    userID,
		StartDate: anchor,
		EndDate:   endDate,
		Entries:   entries,
		Status:    storage.PlanStatusPending,
	}

	if err := s.storage.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	return toDTO(plan), nil
}

// Update replaces a plan's entries and recomputes its end date. The
// stored start date and status are left untouched. callerUserID, when
// non-empty, must match the plan owner.
func (s *Service) Update(ctx context.Context, planID uuid.UUID, callerUserID string, req UpdateMealPlanRequest) (*MealPlanDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	entries, err := parseEntries(req.Entries)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	plan, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if callerUserID != "" && callerUserID != plan.UserID {
		return nil, ErrForbidden
	}

	s.userLocks.Lock(plan.UserID)
	defer s.userLocks.Unlock(plan.UserID)

	others, err := s.listActiveExcluding(ctx, plan.UserID, planID)
	if err != nil {
		return nil, err
	}

	endDate, err := s.validator.ValidateUpdate(entries, plan, others)
	if err != nil {
		return nil, err
	}

	sortEntries(entries)

	updated, err := s.storage.ReplaceEntries(ctx, planID, entries, endDate)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return toDTO(updated), nil
}

// Delete removes a plan unconditionally; deletion is available at any
// lifecycle stage and is not time-gated.
func (s *Service) Delete(ctx context.Context, planID uuid.UUID) error {
	err := s.storage.DeletePlan(ctx, planID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		return ErrNotFound
	}
	return err
}

// ListByUser returns all plans of a user ordered by start date ascending.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]MealPlanDTO, error) {
	plans, err := s.storage.ListPlansByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]MealPlanDTO, len(plans))
	for i := range plans {
		result[i] = *toDTO(&plans[i])
	}
	return result, nil
}

// SweepExpired transitions every pending plan whose window ended before
// the given day to completed. A failure on one plan is logged and does
// not stop the sweep; the returned count covers successful transitions
// only. Safe to call at any time and any number of times.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.storage.ListPendingPlans(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending plans: %w", err)
	}

	today := day(now)
	updated := 0

	for i := range pending {
		p := &pending[i]
		expiry := day(p.StartDate).AddDate(0, 0, s.validator.WindowDays-1)
		if !expiry.Before(today) {
			continue
		}

		if err := s.storage.UpdatePlanStatus(ctx, p.ID, storage.PlanStatusCompleted); err != nil {
			log.Printf("WARN sweep: failed to complete plan %s (user=%s): %v", p.ID, p.UserID, err)
			continue
		}
		updated++
	}

	return updated, nil
}

// TriggerExpirySweep runs the expiry sweep against the current day.
// Exposed for administrative invocation next to the scheduled runs.
func (s *Service) TriggerExpirySweep(ctx context.Context) (int, error) {
	return s.SweepExpired(ctx, time.Now().UTC())
}

func (s *Service) listActiveExcluding(ctx context.Context, userID string, exclude uuid.UUID) ([]storage.MealPlan, error) {
	plans, err := s.storage.ListActivePlansByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	others := plans[:0]
	for _, p := range plans {
		if p.ID != exclude {
			others = append(others, p)
		}
	}
	return others, nil
}

func sortEntries(entries []storage.MealPlanEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}

// userLockMap serializes create/update operations per user.
type userLockMap struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

func newUserLockMap() *userLockMap {
	return &userLockMap{mutexes: make(map[string]*sync.Mutex)}
}

func (m *userLockMap) Lock(userID string) {
	m.getMutex(userID).Lock()
}

func (m *userLockMap) Unlock(userID string) {
	m.getMutex(userID).Unlock()
}

func (m *userLockMap) getMutex(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mu, ok := m.mutexes[userID]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	m.mutexes[userID] = mu
	return mu
}
