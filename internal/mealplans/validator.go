package mealplans

import (
	"fmt"
	"time"

	"github.com/fdg312/mealplan-hub/internal/storage"
)

// Defaults: each plan occupies a fixed 7-day window and a user may hold
// at most 3 non-completed plans.
const (
	DefaultWindowDays     = 7
	DefaultMaxActivePlans = 3
)

// Validator holds the conflict rules. Its methods are pure: they decide
// whether a candidate plan collides with a user's existing plans, given
// only date data. No I/O.
type Validator struct {
	WindowDays     int
	MaxActivePlans int
}

func NewValidator(windowDays, maxActivePlans int) Validator {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if maxActivePlans <= 0 {
		maxActivePlans = DefaultMaxActivePlans
	}
	return Validator{WindowDays: windowDays, MaxActivePlans: maxActivePlans}
}

// ValidateNewPlan checks a candidate plan against the user's existing
// plans and returns the normalized (startDate, endDate) to persist.
// startDate may be nil, in which case the earliest entry date becomes
// the anchor.
func (v Validator) ValidateNewPlan(startDate *time.Time, entries []storage.MealPlanEntry, existing []storage.MealPlan) (time.Time, time.Time, error) {
	if len(entries) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("plan has no entries")
	}

	minDate, maxDate := dateBounds(entries)

	anchor := minDate
	if startDate != nil {
		anchor = day(*startDate)
		if anchor.After(minDate) {
			return time.Time{}, time.Time{}, ErrInvalidAnchor
		}
	}

	active := activePlans(existing)
	if len(active) >= v.MaxActivePlans {
		return time.Time{}, time.Time{}, ErrTooManyActivePlans
	}

	if err := v.checkConflicts(anchor, entries, active); err != nil {
		return time.Time{}, time.Time{}, err
	}

	return anchor, maxDate, nil
}

// ValidateUpdate re-checks a plan's replacement entries against the
// user's other plans. The anchor is taken from the stored plan and never
// recomputed: an edit changes which dates are occupied without moving
// the window. Returns the recomputed end date.
func (v Validator) ValidateUpdate(entries []storage.MealPlanEntry, current *storage.MealPlan, others []storage.MealPlan) (time.Time, error) {
	if len(entries) == 0 {
		return time.Time{}, fmt.Errorf("plan has no entries")
	}

	_, maxDate := dateBounds(entries)

	if err := v.checkConflicts(day(current.StartDate), entries, activePlans(others)); err != nil {
		return time.Time{}, err
	}

	return maxDate, nil
}

// checkConflicts enforces invariants against active plans: no entry date
// may appear in another plan, and anchors must sit more than WindowDays-1
// days apart. The window test is symmetric — both windows have equal
// length, so |Δdays| <= WindowDays-1 captures overlap in either direction.
func (v Validator) checkConflicts(anchor time.Time, entries []storage.MealPlanEntry, active []storage.MealPlan) error {
	occupied := make(map[time.Time]bool, len(entries))
	for _, e := range entries {
		occupied[day(e.Date)] = true
	}

	for _, p := range active {
		for _, e := range p.Entries {
			if occupied[day(e.Date)] {
				return ErrDateCollision
			}
		}
	}

	for _, p := range active {
		delta := daysBetween(day(p.StartDate), anchor)
		if delta < 0 {
			delta = -delta
		}
		if delta <= v.WindowDays-1 {
			return ErrWindowConflict
		}
	}

	return nil
}

func activePlans(plans []storage.MealPlan) []storage.MealPlan {
	active := make([]storage.MealPlan, 0, len(plans))
	for _, p := range plans {
		if p.Active() {
			active = append(active, p)
		}
	}
	return active
}

func dateBounds(entries []storage.MealPlanEntry) (min, max time.Time) {
	min = day(entries[0].Date)
	max = min
	for _, e := range entries[1:] {
		d := day(e.Date)
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max
}

// day strips time-of-day once at the boundary so all comparisons are
// exact integer day arithmetic, independent of timezone drift.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns b - a in whole days. Both arguments must be
// day-normalized; UTC midnights make the division exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
