package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/mealplan-hub/internal/storage"
	"github.com/google/uuid"
)

// MemoryStorage — in-memory реализация MealPlansStorage
type MemoryStorage struct {
	mu     sync.RWMutex
	plans  map[uuid.UUID]*storage.MealPlan
	byUser map[string][]uuid.UUID // index for user lookups
}

// New создаёт новый MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		plans:  make(map[uuid.UUID]*storage.MealPlan),
		byUser: make(map[string][]uuid.UUID),
	}
}

func (m *MemoryStorage) CreatePlan(ctx context.Context, plan *storage.MealPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	stored := clonePlan(plan)
	m.plans[plan.ID] = stored
	m.byUser[plan.UserID] = append(m.byUser[plan.UserID], plan.ID)

	return nil
}

func (m *MemoryStorage) GetPlan(ctx context.Context, id uuid.UUID) (*storage.MealPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, storage.ErrPlanNotFound
	}

	return clonePlan(p), nil
}

func (m *MemoryStorage) ListPlansByUser(ctx context.Context, userID string) ([]storage.MealPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listByUserLocked(userID, false), nil
}

func (m *MemoryStorage) ListActivePlansByUser(ctx context.Context, userID string) ([]storage.MealPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listByUserLocked(userID, true), nil
}

func (m *MemoryStorage) ListPendingPlans(ctx context.Context) ([]storage.MealPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pending := make([]storage.MealPlan, 0)
	for _, p := range m.plans {
		if p.Status == storage.PlanStatusPending {
			pending = append(pending, *clonePlan(p))
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].StartDate.Before(pending[j].StartDate)
	})

	return pending, nil
}

func (m *MemoryStorage) ReplaceEntries(ctx context.Context, id uuid.UUID, entries []storage.MealPlanEntry, endDate time.Time) (*storage.MealPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, storage.ErrPlanNotFound
	}

	p.Entries = append([]storage.MealPlanEntry(nil), entries...)
	p.EndDate = endDate
	p.UpdatedAt = time.Now().UTC()

	return clonePlan(p), nil
}

func (m *MemoryStorage) UpdatePlanStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plans[id]
	if !ok {
		return storage.ErrPlanNotFound
	}

	p.Status = status
	p.UpdatedAt = time.Now().UTC()

	return nil
}

func (m *MemoryStorage) DeletePlan(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plans[id]
	if !ok {
		return storage.ErrPlanNotFound
	}

	delete(m.plans, id)

	ids := m.byUser[p.UserID]
	for i, planID := range ids {
		if planID == id {
			m.byUser[p.UserID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(m.byUser[p.UserID]) == 0 {
		delete(m.byUser, p.UserID)
	}

	return nil
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

// listByUserLocked must be called with the lock held.
func (m *MemoryStorage) listByUserLocked(userID string, activeOnly bool) []storage.MealPlan {
	result := make([]storage.MealPlan, 0)
	for _, id := range m.byUser[userID] {
		p, ok := m.plans[id]
		if !ok {
			continue
		}
		if activeOnly && !p.Active() {
			continue
		}
		result = append(result, *clonePlan(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})

	return result
}

func clonePlan(p *storage.MealPlan) *storage.MealPlan {
	cp := *p
	cp.Entries = append([]storage.MealPlanEntry(nil), p.Entries...)
	return &cp
}
