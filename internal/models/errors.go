package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes. The set is closed: every failure the domain layer surfaces to a
// caller carries exactly one of these.
const (
	CodeNotFound              = "NOT_FOUND"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeBusinessRuleViolation = "BUSINESS_RULE_VIOLATION"

	// CodeInternal is only produced at the HTTP boundary for infrastructure
	// failures; services never construct it.
	CodeInternal = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Resource string `json:"resource,omitempty"`
	ID       string `json:"id,omitempty"`
	Field    string `json:"field,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code     string
	Message  string
	Resource string
	ID       string
	Field    string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status the error maps to.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeBusinessRuleViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error constructors
func NewNotFoundError(resource string, id string) *AppError {
	return &AppError{
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("%s with ID %s not found", resource, id),
		Resource: resource,
		ID:       id,
	}
}

func NewInvalidInputError(field, message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Field:   field,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewUnauthorizedErrorWithCause keeps the underlying reason for logs; it is
// never rendered to the caller.
func NewUnauthorizedErrorWithCause(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Err:     err,
	}
}

// NewForbiddenError reports that the caller does not own the resource. The
// owner's identity is deliberately not part of the error.
func NewForbiddenError(resource string, id string, message string) *AppError {
	return &AppError{
		Code:     CodeForbidden,
		Message:  message,
		Resource: resource,
		ID:       id,
	}
}

func NewBusinessRuleError(field, message string) *AppError {
	return &AppError{
		Code:    CodeBusinessRuleViolation,
		Message: message,
		Field:   field,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// AsAppError extracts an *AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// RespondWithError renders err as a standardized error response. Taxonomy
// errors keep their status and message; anything else becomes a generic 500
// so driver or network details never reach the client.
func RespondWithError(c *fiber.Ctx, err error) error {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code == CodeInternal {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		})
	}

	return c.Status(appErr.Status()).JSON(ErrorResponse{
		Error:    appErr.Message,
		Code:     appErr.Code,
		Resource: appErr.Resource,
		ID:       appErr.ID,
		Field:    appErr.Field,
	})
}
