package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gitport/gitport/internal/services"
	"github.com/gitport/gitport/internal/storage"
)

// APIError represents a standardized API error response.
// It includes an HTTP status code, a machine-readable error code and a
// user-facing message.
type APIError struct {
	Status  int    `json:"-"`                 // HTTP status code
	Code    string `json:"code,omitempty"`    // Machine-readable error code
	Message string `json:"error"`             // User-facing error message
	Details string `json:"details,omitempty"` // Optional additional details
	Field   string `json:"field,omitempty"`   // Optional field name for validation errors
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e APIError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// WithDetails returns a copy of the error with additional details.
func (e APIError) WithDetails(details string) APIError {
	return APIError{
		Status:  e.Status,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Field:   e.Field,
	}
}

// WithField returns a copy of the error with a field name.
func (e APIError) WithField(field string) APIError {
	return APIError{
		Status:  e.Status,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Field:   field,
	}
}

// Common API errors - use these for consistent error responses
var (
	// 400 Bad Request errors
	ErrInvalidJSON = APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_json",
		Message: "Invalid JSON in request body",
	}
	ErrMissingField = APIError{
		Status:  http.StatusBadRequest,
		Code:    "missing_field",
		Message: "Required field is missing",
	}
	ErrInvalidField = APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_field",
		Message: "Invalid field value",
	}
	ErrInvalidURL = APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_url",
		Message: "Invalid repository URL",
	}
	ErrUnsupportedPlatform = APIError{
		Status:  http.StatusBadRequest,
		Code:    "unsupported_platform",
		Message: "Unsupported repository platform",
	}
	ErrSamePlatform = APIError{
		Status:  http.StatusBadRequest,
		Code:    "same_platform",
		Message: "Source and target platform must be different",
	}
	ErrPremiumRequired = APIError{
		Status:  http.StatusBadRequest,
		Code:    "premium_required",
		Message: "This migration type requires a premium account",
	}
	ErrEmailTaken = APIError{
		Status:  http.StatusBadRequest,
		Code:    "user_exists",
		Message: "User already exists",
	}

	// 401 Unauthorized errors
	ErrUnauthorized = APIError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "Unauthorized",
	}
	ErrInvalidCredentials = APIError{
		Status:  http.StatusUnauthorized,
		Code:    "invalid_credentials",
		Message: "Invalid email or password",
	}

	// 404 Not Found errors
	ErrNotFound = APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "Resource not found",
	}
	ErrMigrationNotFound = APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "Migration not found",
	}
	ErrRepositoryNotFound = APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "Repository not found",
	}

	// 409 Conflict errors
	ErrConflict = APIError{
		Status:  http.StatusConflict,
		Code:    "conflict",
		Message: "Resource was modified concurrently",
	}

	// 500 Internal Server Error
	ErrInternal = APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)

// mapDomainError translates service and storage errors to API errors.
// Anything unrecognized becomes a generic 500 with no internal detail.
func mapDomainError(err error) APIError {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, services.ErrInvalidURL):
		return ErrInvalidURL
	case errors.Is(err, services.ErrUnsupportedPlatform):
		return ErrUnsupportedPlatform
	case errors.Is(err, services.ErrSamePlatform):
		return ErrSamePlatform
	case errors.Is(err, services.ErrPremiumRequired):
		return ErrPremiumRequired
	case errors.Is(err, storage.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, storage.ErrVersionConflict):
		return ErrConflict
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	default:
		return ErrInternal
	}
}
