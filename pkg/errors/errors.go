package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInvalidRange indicates a malformed or retroactive date range
	ErrorTypeInvalidRange ErrorType = "INVALID_RANGE"

	// ErrorTypeRoomUnavailable indicates a room failed the exclusivity check
	ErrorTypeRoomUnavailable ErrorType = "ROOM_UNAVAILABLE"

	// ErrorTypeInvalidTransition indicates a booking status transition out of a terminal state
	ErrorTypeInvalidTransition ErrorType = "INVALID_STATE_TRANSITION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeTimeout indicates a persistence operation exceeded its latency budget
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// RoomConflict names a room that failed the exclusivity check and, where
// determinable, the booking already holding it.
type RoomConflict struct {
	RoomID    string `json:"room_id"`
	BookingID string `json:"booking_id,omitempty"`
}

// AppError represents an application error
type AppError struct {
	Type      ErrorType
	Message   string
	Conflicts []RoomConflict
	Err       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInvalidRangeError creates a new invalid date range error
func NewInvalidRangeError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidRange,
		Message: message,
	}
}

// NewRoomUnavailableError creates an exclusivity conflict error naming the
// conflicting rooms
func NewRoomUnavailableError(conflicts []RoomConflict) *AppError {
	ids := make([]string, len(conflicts))
	for i, c := range conflicts {
		ids[i] = c.RoomID
	}
	return &AppError{
		Type:      ErrorTypeRoomUnavailable,
		Message:   fmt.Sprintf("rooms unavailable for requested range: %s", strings.Join(ids, ", ")),
		Conflicts: conflicts,
	}
}

// NewInvalidTransitionError creates a new invalid booking status transition error
func NewInvalidTransitionError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTransition,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}
