package internal

import "errors"

// Sentinel errors shared across services and handlers.
var (
	// ErrInvalidTimeFormat marks an unparseable time-of-day string. Callers
	// recover locally by skipping the slot or sample; it is never a hard
	// failure for the user.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrNotFound covers direct lookups of schedules and dose instances.
	ErrNotFound = errors.New("not found")

	// ErrTimeNotFound is returned when an adaptation references a
	// current_time no longer present in the schedule's time-of-day list.
	ErrTimeNotFound = errors.New("time not found in schedule")
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}
