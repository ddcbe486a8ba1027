// Package errors provides structured error handling for the application
// Following enterprise patterns for error management and observability
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents an error code
type ErrorCode string

// Common error codes following RESTful API conventions
const (
	// Client errors (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Server errors (5xx)
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Business logic errors
	CodeRetrievalPartialFailure ErrorCode = "RETRIEVAL_PARTIAL_FAILURE"
	CodeRetrievalTotalFailure   ErrorCode = "RETRIEVAL_TOTAL_FAILURE"
	CodeGenerationMalformed     ErrorCode = "GENERATION_MALFORMED"
	CodeGenerationTimeout       ErrorCode = "GENERATION_TIMEOUT"
	CodeMutationConflict        ErrorCode = "MUTATION_CONFLICT"
	CodeInvariantViolation      ErrorCode = "INVARIANT_VIOLATION"
	CodePlanNotFound            ErrorCode = "PLAN_NOT_FOUND"
	CodeConversationNotFound    ErrorCode = "CONVERSATION_NOT_FOUND"
)

// AppError represents an application error with structured information
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed, CodeGenerationMalformed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodePlanNotFound, CodeConversationNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeMutationConflict:
		return http.StatusConflict
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeGenerationTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable, CodeRetrievalTotalFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Predefined error constructors for common scenarios

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "Access forbidden"
	}
	return NewAppError(CodeForbidden, message, "")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// Business domain specific errors

// NewPlanNotFoundError creates a plan not found error
func NewPlanNotFoundError(planID string) *AppError {
	return NewAppError(
		CodePlanNotFound,
		"Meal plan not found",
		fmt.Sprintf("Meal plan with ID %s does not exist", planID),
	).WithMetadata("plan_id", planID)
}

// NewConversationNotFoundError creates a conversation not found error
func NewConversationNotFoundError(conversationID string) *AppError {
	return NewAppError(
		CodeConversationNotFound,
		"Conversation not found",
		fmt.Sprintf("Conversation with ID %s does not exist", conversationID),
	).WithMetadata("conversation_id", conversationID)
}

// NewMutationConflictError signals a concurrent mutation on the same plan
func NewMutationConflictError(planID string) *AppError {
	return NewAppError(
		CodeMutationConflict,
		"Plan is being mutated",
		"Another mutation on this plan is in progress",
	).WithMetadata("plan_id", planID)
}

// NewInvariantViolationError signals a mutation that would corrupt a plan
func NewInvariantViolationError(details string, cause error) *AppError {
	return NewAppError(
		CodeInvariantViolation,
		"Mutation rejected",
		details,
	).WithCause(cause)
}

// NewRetrievalPartialFailureError reports collections that failed during retrieval
func NewRetrievalPartialFailureError(failed []string) *AppError {
	return NewAppError(
		CodeRetrievalPartialFailure,
		"Some recipe collections were unavailable",
		"",
	).WithMetadata("failed_collections", failed)
}

// NewRetrievalTotalFailureError reports that no collection could be searched
func NewRetrievalTotalFailureError(cause error) *AppError {
	return NewAppError(
		CodeRetrievalTotalFailure,
		"Recipe retrieval failed",
		"No recipe collection could be searched",
	).WithCause(cause)
}

// NewGenerationMalformedError reports an unusable model response after retry
func NewGenerationMalformedError(details string) *AppError {
	return NewAppError(
		CodeGenerationMalformed,
		"Plan generation produced an unusable response",
		details,
	)
}

// NewGenerationTimeoutError reports a model call that exceeded its deadline
func NewGenerationTimeoutError(cause error) *AppError {
	return NewAppError(
		CodeGenerationTimeout,
		"Plan generation timed out",
		"",
	).WithCause(cause)
}

// Utility functions

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:     err.Code,
			Message:  err.Message,
			Details:  err.Details,
			Metadata: err.Metadata,
		},
	}
}
