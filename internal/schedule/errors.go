package schedule

import "fmt"

// Typed domain errors crossing the engine boundary. Handlers match them with
// errors.As and turn them into flash messages; anything else coming out of
// the engine is a storage failure and passes through unwrapped.

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a missing referenced entity (booking, instructor).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }

// ConflictError reports an overlapping booking for the target instructor.
type ConflictError struct {
	InstructorRUT  string
	InstructorName string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("instructor %s already has a class in that time range", e.InstructorName)
}

// InstructorUnavailableError reports a failed attendance gate: the instructor
// has no active attendance record for the date.
type InstructorUnavailableError struct {
	InstructorRUT  string
	InstructorName string
	Date           string
}

func (e *InstructorUnavailableError) Error() string {
	return fmt.Sprintf("instructor %s is not marked active on %s", e.InstructorName, e.Date)
}

// ReferentialIntegrityError reports an attempt to delete an instructor who
// still has bookings assigned.
type ReferentialIntegrityError struct {
	InstructorRUT string
	Bookings      int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("instructor %s still has %d booking(s) assigned", e.InstructorRUT, e.Bookings)
}
