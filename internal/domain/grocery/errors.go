package grocery

import "errors"

var (
	ErrListNotFound = errors.New("grocery list not found")
	ErrEmptyPlan    = errors.New("plan has no assigned meals")
	ErrEmptyItem    = errors.New("item name cannot be empty")
)
