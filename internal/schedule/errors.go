package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for an empty sequence or a negative duration.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidPrerequisite is returned when a prerequisite does not resolve
	// to a strictly earlier position.
	ErrInvalidPrerequisite = errors.New("invalid prerequisite")
)

// PrerequisiteError describes a malformed prerequisite reference.
type PrerequisiteError struct {
	StepID       int
	Position     int // 0-based position of the referencing step
	Prerequisite int
	Reason       string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("step %d (position %d): prerequisite %d %s", e.StepID, e.Position+1, e.Prerequisite, e.Reason)
}

func (e *PrerequisiteError) Unwrap() error { return ErrInvalidPrerequisite }
