package mealplans

import "errors"

// Validation and lookup failures surfaced to callers. All of them are
// deterministic for a given store state and input — never retried.
var (
	ErrInvalidAnchor      = errors.New("start date is after the earliest entry date")
	ErrTooManyActivePlans = errors.New("active plan limit reached")
	ErrDateCollision      = errors.New("entry date already occupied by another active plan")
	ErrWindowConflict     = errors.New("plan window overlaps another active plan")
	ErrNotFound           = errors.New("meal plan not found")
	ErrForbidden          = errors.New("meal plan belongs to another user")
)
