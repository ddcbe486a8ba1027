package plan

import "errors"

// Domain errors for meal plan operations

var (
	// Entity validation errors
	ErrNameTooShort       = errors.New("plan name must be at least 3 characters")
	ErrNameTooLong        = errors.New("plan name must not exceed 200 characters")
	ErrInvalidDayCount    = errors.New("plan must have at least one day")
	ErrInvalidMealsPerDay = errors.New("meals per day must be greater than 0")

	// Grid invariant violations
	ErrDayNumbersNotContiguous = errors.New("day numbers must form a contiguous 1..N sequence")
	ErrDuplicateMealType       = errors.New("meal type assigned twice within the same day")
	ErrTooManyAssignments      = errors.New("assigned slots exceed days times meals per day")

	// Mutation precondition errors
	ErrDayOutOfRange       = errors.New("day number is out of range for this plan")
	ErrMealTypeNotFound    = errors.New("meal type does not exist on the given day")
	ErrRecipeMismatch      = errors.New("current assignment does not match the expected recipe")
	ErrInvalidPermutation  = errors.New("reorder must be a permutation of the plan's day numbers")
	ErrEmptyAssignment     = errors.New("source slot holds no assignment")

	// State transition errors
	ErrPlanMutating = errors.New("plan is already being mutated")
	ErrPlanNotFound = errors.New("meal plan not found")
)
