package service

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomNotFound is returned when a room id matches no room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrReservationNotFound is returned when a reservation id matches no
	// stored reservation.
	ErrReservationNotFound = errors.New("reservation not found")
)

// ValidationError reports a malformed or inconsistent reservation request.
// Field names the offending request field in its JSON spelling.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports that the requested slot overlaps an existing
// reservation of the same room on the same date.
type ConflictError struct {
	RoomID        string
	Date          string
	StartTime     string
	EndTime       string
	ConflictingID string
}

func (e *ConflictError) Error() string {
	return "room is not available for the requested time slot"
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
