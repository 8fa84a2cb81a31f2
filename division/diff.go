package division

import (
	"schoolmanager-server-go/models"
)

// Result is the outcome of a successful Reassign.
type Result struct {
	State          models.State
	UpdatedPupils  []models.UpdatedPupil
	UpdatedClasses []models.UpdatedClass
}

// Diff compares two snapshots of the same entities and returns the pupils
// whose class or follow-up number changed and the classes whose pupil count
// changed. Output follows the order of newState.
func Diff(oldState, newState models.State) ([]models.UpdatedPupil, []models.UpdatedClass, error) {
	oldPupils := make(map[int]models.Pupil, len(oldState.Pupils))
	for _, p := range oldState.Pupils {
		oldPupils[p.ID] = p
	}
	oldClasses := make(map[int]models.Class, len(oldState.Classes))
	for _, c := range oldState.Classes {
		oldClasses[c.ID] = c
	}

	updatedPupils := []models.UpdatedPupil{}
	for _, p := range newState.Pupils {
		prev, ok := oldPupils[p.ID]
		if !ok {
			return nil, nil, &AssignmentError{Kind: ErrUnknownEntity, PupilID: p.ID}
		}
		if prev.ClassName != p.ClassName || prev.FollowUpNumber != p.FollowUpNumber {
			updatedPupils = append(updatedPupils, models.UpdatedPupil{
				PupilID:        p.ID,
				ClassName:      p.ClassName,
				FollowUpNumber: p.FollowUpNumber,
			})
		}
	}

	updatedClasses := []models.UpdatedClass{}
	for _, c := range newState.Classes {
		prev, ok := oldClasses[c.ID]
		if !ok {
			return nil, nil, &AssignmentError{Kind: ErrUnknownEntity, ClassID: c.ID}
		}
		if prev.AmountOfPupils != c.AmountOfPupils {
			updatedClasses = append(updatedClasses, models.UpdatedClass{
				ClassID:        c.ID,
				AmountOfPupils: c.AmountOfPupils,
			})
		}
	}

	return updatedPupils, updatedClasses, nil
}

// Reassign processes request against state and diffs the result against state.
func Reassign(state models.State, request models.Request) (Result, error) {
	next, err := Process(state, request)
	if err != nil {
		return Result{}, err
	}

	pupils, classes, err := Diff(state, next)
	if err != nil {
		return Result{}, err
	}

	return Result{State: next, UpdatedPupils: pupils, UpdatedClasses: classes}, nil
}
