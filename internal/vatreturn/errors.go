package vatreturn

import "errors"

var (
	// ErrMissingTenant is returned when no tenant identifier is given.
	ErrMissingTenant = errors.New("tenant ID is required")

	// ErrNothingSelected is returned when both revenue and expenses are excluded.
	ErrNothingSelected = errors.New("at least one of revenue or expenses must be included")
)
