package division

import (
	"errors"
	"fmt"
)

// Sentinel errors for assignment processing.
//
// Every error returned by Process and Diff wraps exactly one of these, so callers
// can branch with errors.Is and recover the offending identifier with errors.As
// on *AssignmentError.
var (
	// ErrClassNotFound is returned when a request references an unknown class id.
	ErrClassNotFound = errors.New("class not found")

	// ErrPupilNotFound is returned when a request references an unknown pupil id.
	ErrPupilNotFound = errors.New("pupil not found")

	// ErrDuplicateAssignment is returned when a pupil appears more than once in a request.
	ErrDuplicateAssignment = errors.New("duplicate assignment")

	// ErrIncompleteAssignment is returned when an unassigned pupil is left out of a request.
	ErrIncompleteAssignment = errors.New("incomplete assignment")

	// ErrClassCapacityExceeded is returned when an assignment would overfill a class.
	ErrClassCapacityExceeded = errors.New("class capacity exceeded")

	// ErrUnknownEntity is returned by Diff when the new state holds an id the old state lacks.
	ErrUnknownEntity = errors.New("unknown entity")
)

// AssignmentError identifies the entity that made an operation fail.
type AssignmentError struct {
	Kind      error
	PupilID   int
	ClassID   int
	ClassName string
}

func (e *AssignmentError) Error() string {
	switch e.Kind {
	case ErrClassNotFound:
		return fmt.Sprintf("class with id %d does not exist", e.ClassID)
	case ErrPupilNotFound:
		return fmt.Sprintf("pupil with id %d does not exist", e.PupilID)
	case ErrDuplicateAssignment:
		return fmt.Sprintf("pupil with id %d is assigned more than once", e.PupilID)
	case ErrIncompleteAssignment:
		return fmt.Sprintf("pupil with id %d is not assigned to a class", e.PupilID)
	case ErrClassCapacityExceeded:
		return fmt.Sprintf("class %s has too many pupils assigned", e.ClassName)
	case ErrUnknownEntity:
		if e.ClassID != 0 {
			return fmt.Sprintf("class with id %d is missing from the previous state", e.ClassID)
		}

		return fmt.Sprintf("pupil with id %d is missing from the previous state", e.PupilID)
	default:
		return "assignment failed"
	}
}

func (e *AssignmentError) Unwrap() error {
	return e.Kind
}

func classNotFound(id int) error {
	return &AssignmentError{Kind: ErrClassNotFound, ClassID: id}
}

func pupilNotFound(id int) error {
	return &AssignmentError{Kind: ErrPupilNotFound, PupilID: id}
}

func duplicateAssignment(pupilID int) error {
	return &AssignmentError{Kind: ErrDuplicateAssignment, PupilID: pupilID}
}

func incompleteAssignment(pupilID int) error {
	return &AssignmentError{Kind: ErrIncompleteAssignment, PupilID: pupilID}
}

func capacityExceeded(classID int, className string) error {
	return &AssignmentError{Kind: ErrClassCapacityExceeded, ClassID: classID, ClassName: className}
}
