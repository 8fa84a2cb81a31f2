package division

import (
	"schoolmanager-server-go/models"
)

// arena addresses the entities of one working copy of a state by id.
//
// The slices inside state are owned by the arena; updates go through the
// index maps as explicit field writes, so no Pupil or Class is shared between
// the caller's state and the working copy.
type arena struct {
	state       models.State
	pupilIdx    map[int]int
	classIdx    map[int]int
	classByName map[string]int
}

func newArena(state models.State) *arena {
	a := &arena{
		state:       state.Clone(),
		pupilIdx:    make(map[int]int, len(state.Pupils)),
		classIdx:    make(map[int]int, len(state.Classes)),
		classByName: make(map[string]int, len(state.Classes)),
	}
	for i, p := range a.state.Pupils {
		a.pupilIdx[p.ID] = i
	}
	for i, c := range a.state.Classes {
		a.classIdx[c.ID] = i
		if _, ok := a.classByName[c.ClassName]; !ok {
			a.classByName[c.ClassName] = i
		}
	}

	return a
}

// pupilsIn returns the indexes of all pupils currently in the named class.
func (a *arena) pupilsIn(className string) []int {
	var out []int
	for i, p := range a.state.Pupils {
		if p.ClassName == className {
			out = append(out, i)
		}
	}

	return out
}

// Process validates request against state and applies it in order, returning
// the resulting state. The input state is never modified. On error no state is
// returned.
func Process(state models.State, request models.Request) (models.State, error) {
	a := newArena(state)

	if err := a.validate(request); err != nil {
		return models.State{}, err
	}

	for _, asg := range request.Assignments {
		if err := a.apply(asg); err != nil {
			return models.State{}, err
		}
	}

	return a.state, nil
}

func (a *arena) validate(request models.Request) error {
	for _, asg := range request.Assignments {
		if _, ok := a.classIdx[asg.ClassID]; !ok {
			return classNotFound(asg.ClassID)
		}
	}

	for _, asg := range request.Assignments {
		if _, ok := a.pupilIdx[asg.PupilID]; !ok {
			return pupilNotFound(asg.PupilID)
		}
	}

	counts := make(map[int]int, len(request.Assignments))
	for _, asg := range request.Assignments {
		counts[asg.PupilID]++
	}
	for _, asg := range request.Assignments {
		if counts[asg.PupilID] > 1 {
			return duplicateAssignment(asg.PupilID)
		}
	}

	for _, p := range a.state.Pupils {
		if !p.Assigned() && counts[p.ID] == 0 {
			return incompleteAssignment(p.ID)
		}
	}

	return nil
}

func (a *arena) apply(asg models.Assignment) error {
	ci := a.classIdx[asg.ClassID]
	pi := a.pupilIdx[asg.PupilID]
	target := a.state.Classes[ci]
	pupil := a.state.Pupils[pi]

	if pupil.ClassName == target.ClassName {
		return nil
	}

	if target.AmountOfPupils+1 > target.MaxAmountOfPupils {
		return capacityExceeded(target.ID, target.ClassName)
	}
	a.state.Classes[ci].AmountOfPupils++

	if oi, ok := a.classByName[pupil.ClassName]; ok && pupil.Assigned() {
		a.state.Classes[oi].AmountOfPupils--
		for _, i := range a.pupilsIn(pupil.ClassName) {
			if a.state.Pupils[i].FollowUpNumber > pupil.FollowUpNumber {
				a.state.Pupils[i].FollowUpNumber--
			}
		}
	}

	// Collected before the move so the moved pupil is not in the list.
	classmates := a.pupilsIn(target.ClassName)

	a.state.Pupils[pi].ClassName = target.ClassName
	a.state.Pupils[pi].FollowUpNumber = 1
	for _, i := range classmates {
		a.state.Pupils[i].FollowUpNumber++
	}

	return nil
}
