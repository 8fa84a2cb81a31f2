package division

import (
	"errors"
	"fmt"

	"schoolmanager-server-go/models"
)

var (
	// ErrInvalidClass is returned by AddClass for a class without id or name, or with a negative capacity.
	ErrInvalidClass = errors.New("invalid class")

	// ErrClassExists is returned by AddClass when the id or name is already taken.
	ErrClassExists = errors.New("class already exists")
)

// AddClass returns a copy of state with class appended as an empty class.
// Whatever AmountOfPupils the caller passes is reset to zero.
func AddClass(state models.State, class models.Class) (models.State, error) {
	if class.ID <= 0 || class.ClassName == "" {
		return models.State{}, fmt.Errorf("%w: id and className are required", ErrInvalidClass)
	}
	if class.MaxAmountOfPupils < 0 {
		return models.State{}, fmt.Errorf("%w: maxAmountOfPupils must not be negative", ErrInvalidClass)
	}

	for _, c := range state.Classes {
		if c.ID == class.ID {
			return models.State{}, fmt.Errorf("%w: id %d", ErrClassExists, class.ID)
		}
		if c.ClassName == class.ClassName {
			return models.State{}, fmt.Errorf("%w: name %q", ErrClassExists, class.ClassName)
		}
	}

	class.AmountOfPupils = 0
	next := state.Clone()
	next.Classes = append(next.Classes, class)

	return next, nil
}
