package division

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"schoolmanager-server-go/models"
)

func twoEmptyClasses() models.State {
	return models.State{
		Pupils: []models.Pupil{
			{ID: 1, Name: "Pupil One"},
			{ID: 2, Name: "Pupil Two"},
		},
		Classes: []models.Class{
			{ID: 10, ClassName: "A", TeacherName: "Teacher A", MaxAmountOfPupils: 2},
			{ID: 20, ClassName: "B", TeacherName: "Teacher B", MaxAmountOfPupils: 1},
		},
	}
}

// populatedState has A = [1, 2, 3] and B = [4] in follow-up order.
func populatedState() models.State {
	return models.State{
		Pupils: []models.Pupil{
			{ID: 1, Name: "One", ClassName: "A", FollowUpNumber: 1},
			{ID: 2, Name: "Two", ClassName: "A", FollowUpNumber: 2},
			{ID: 3, Name: "Three", ClassName: "A", FollowUpNumber: 3},
			{ID: 4, Name: "Four", ClassName: "B", FollowUpNumber: 1},
		},
		Classes: []models.Class{
			{ID: 10, ClassName: "A", MaxAmountOfPupils: 5, AmountOfPupils: 3},
			{ID: 20, ClassName: "B", MaxAmountOfPupils: 5, AmountOfPupils: 1},
		},
	}
}

func request(pairs ...[2]int) models.Request {
	req := models.Request{}
	for _, p := range pairs {
		req.Assignments = append(req.Assignments, models.Assignment{PupilID: p[0], ClassID: p[1]})
	}

	return req
}

func pupilByID(t *testing.T, state models.State, id int) models.Pupil {
	t.Helper()
	for _, p := range state.Pupils {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("pupil %d not found", id)

	return models.Pupil{}
}

func classByID(t *testing.T, state models.State, id int) models.Class {
	t.Helper()
	for _, c := range state.Classes {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("class %d not found", id)

	return models.Class{}
}

func requireKind(t *testing.T, err error, kind error) *AssignmentError {
	t.Helper()
	require.ErrorIs(t, err, kind)
	var ae *AssignmentError
	require.True(t, errors.As(err, &ae))

	return ae
}

func TestProcess_InitialAssignment(t *testing.T) {
	t.Run("inserts each new pupil at the front of the class", func(t *testing.T) {
		next, err := Process(twoEmptyClasses(), request([2]int{1, 10}, [2]int{2, 10}))

		require.NoError(t, err)
		require.Equal(t, 2, pupilByID(t, next, 1).FollowUpNumber)
		require.Equal(t, 1, pupilByID(t, next, 2).FollowUpNumber)
		require.Equal(t, "A", pupilByID(t, next, 1).ClassName)
		require.Equal(t, "A", pupilByID(t, next, 2).ClassName)
		require.Equal(t, 2, classByID(t, next, 10).AmountOfPupils)
		require.Equal(t, 0, classByID(t, next, 20).AmountOfPupils)
		require.NoError(t, Verify(next))
	})

	t.Run("spreads pupils over classes", func(t *testing.T) {
		next, err := Process(twoEmptyClasses(), request([2]int{1, 10}, [2]int{2, 20}))

		require.NoError(t, err)
		require.Equal(t, models.Pupil{ID: 1, Name: "Pupil One", ClassName: "A", FollowUpNumber: 1}, pupilByID(t, next, 1))
		require.Equal(t, models.Pupil{ID: 2, Name: "Pupil Two", ClassName: "B", FollowUpNumber: 1}, pupilByID(t, next, 2))
		require.NoError(t, Verify(next))
	})

	t.Run("keeps names and teachers untouched", func(t *testing.T) {
		next, err := Process(twoEmptyClasses(), request([2]int{1, 10}, [2]int{2, 20}))

		require.NoError(t, err)
		require.Equal(t, "Teacher A", classByID(t, next, 10).TeacherName)
		require.Equal(t, "Teacher B", classByID(t, next, 20).TeacherName)
	})
}

func TestProcess_Move(t *testing.T) {
	t.Run("closes the gap in the old class and pushes back the new class", func(t *testing.T) {
		next, err := Process(populatedState(), request([2]int{2, 20}))

		require.NoError(t, err)
		require.Equal(t, models.Pupil{ID: 1, Name: "One", ClassName: "A", FollowUpNumber: 1}, pupilByID(t, next, 1))
		require.Equal(t, models.Pupil{ID: 2, Name: "Two", ClassName: "B", FollowUpNumber: 1}, pupilByID(t, next, 2))
		require.Equal(t, models.Pupil{ID: 3, Name: "Three", ClassName: "A", FollowUpNumber: 2}, pupilByID(t, next, 3))
		require.Equal(t, models.Pupil{ID: 4, Name: "Four", ClassName: "B", FollowUpNumber: 2}, pupilByID(t, next, 4))
		require.Equal(t, 2, classByID(t, next, 10).AmountOfPupils)
		require.Equal(t, 2, classByID(t, next, 20).AmountOfPupils)
		require.NoError(t, Verify(next))
	})

	t.Run("moving the last pupil leaves earlier numbers alone", func(t *testing.T) {
		next, err := Process(populatedState(), request([2]int{3, 20}))

		require.NoError(t, err)
		require.Equal(t, 1, pupilByID(t, next, 1).FollowUpNumber)
		require.Equal(t, 2, pupilByID(t, next, 2).FollowUpNumber)
		require.NoError(t, Verify(next))
	})

	t.Run("request order changes intermediate numbering", func(t *testing.T) {
		first, err := Process(populatedState(), request([2]int{1, 20}, [2]int{3, 20}))
		require.NoError(t, err)
		second, err := Process(populatedState(), request([2]int{3, 20}, [2]int{1, 20}))
		require.NoError(t, err)

		require.Equal(t, 1, pupilByID(t, first, 3).FollowUpNumber)
		require.Equal(t, 2, pupilByID(t, first, 1).FollowUpNumber)
		require.Equal(t, 1, pupilByID(t, second, 1).FollowUpNumber)
		require.Equal(t, 2, pupilByID(t, second, 3).FollowUpNumber)
		require.NoError(t, Verify(first))
		require.NoError(t, Verify(second))
	})

	t.Run("already placed pupils need not appear in the request", func(t *testing.T) {
		next, err := Process(populatedState(), request([2]int{4, 10}))

		require.NoError(t, err)
		require.Equal(t, 4, classByID(t, next, 10).AmountOfPupils)
		require.Equal(t, 0, classByID(t, next, 20).AmountOfPupils)
		require.NoError(t, Verify(next))
	})
}

func TestProcess_NoOp(t *testing.T) {
	state := populatedState()

	next, err := Process(state, request([2]int{2, 10}))

	require.NoError(t, err)
	require.Equal(t, state, next)

	pupils, classes, err := Diff(state, next)
	require.NoError(t, err)
	require.Empty(t, pupils)
	require.Empty(t, classes)
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	state := populatedState()
	before := state.Clone()

	_, err := Process(state, request([2]int{2, 20}, [2]int{4, 10}))
	require.NoError(t, err)
	require.Equal(t, before, state)

	_, err = Process(state, request([2]int{4, 10}, [2]int{1, 20}, [2]int{2, 20}, [2]int{3, 20}))
	require.NoError(t, err)
	require.Equal(t, before, state)

	t.Run("classes without pupils", func(t *testing.T) {
		empty := models.State{Classes: []models.Class{{ID: 10, ClassName: "A", MaxAmountOfPupils: 2}}}
		snapshot := empty.Clone()

		_, err := Process(empty, request([2]int{1, 10}))

		requireKind(t, err, ErrPupilNotFound)
		require.Equal(t, snapshot, empty)
	})
}

func TestProcess_Validation(t *testing.T) {
	t.Run("unknown class", func(t *testing.T) {
		_, err := Process(twoEmptyClasses(), request([2]int{1, 10}, [2]int{2, 99}))

		ae := requireKind(t, err, ErrClassNotFound)
		require.Equal(t, 99, ae.ClassID)
		require.Contains(t, err.Error(), "99")
	})

	t.Run("unknown class is reported before unknown pupil", func(t *testing.T) {
		_, err := Process(twoEmptyClasses(), request([2]int{42, 10}, [2]int{2, 99}))

		requireKind(t, err, ErrClassNotFound)
	})

	t.Run("unknown pupil", func(t *testing.T) {
		_, err := Process(twoEmptyClasses(), request([2]int{1, 10}, [2]int{42, 10}))

		ae := requireKind(t, err, ErrPupilNotFound)
		require.Equal(t, 42, ae.PupilID)
	})

	t.Run("duplicate pupil", func(t *testing.T) {
		_, err := Process(twoEmptyClasses(), request([2]int{1, 10}, [2]int{2, 10}, [2]int{1, 20}))

		ae := requireKind(t, err, ErrDuplicateAssignment)
		require.Equal(t, 1, ae.PupilID)
	})

	t.Run("duplicate reports the pupil seen first", func(t *testing.T) {
		_, err := Process(twoEmptyClasses(), request([2]int{1, 10}, [2]int{2, 10}, [2]int{2, 10}, [2]int{1, 10}))

		ae := requireKind(t, err, ErrDuplicateAssignment)
		require.Equal(t, 1, ae.PupilID)
	})

	t.Run("unassigned pupil left out", func(t *testing.T) {
		_, err := Process(twoEmptyClasses(), request([2]int{1, 10}))

		ae := requireKind(t, err, ErrIncompleteAssignment)
		require.Equal(t, 2, ae.PupilID)
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		state := twoEmptyClasses()
		before := state.Clone()

		next, err := Process(state, request([2]int{1, 20}, [2]int{2, 20}))

		ae := requireKind(t, err, ErrClassCapacityExceeded)
		require.Equal(t, "B", ae.ClassName)
		require.Equal(t, 20, ae.ClassID)
		require.Equal(t, models.State{}, next)
		require.Equal(t, before, state)
	})

	t.Run("no-op does not count against capacity", func(t *testing.T) {
		state := populatedState()
		state.Classes[0].MaxAmountOfPupils = 3

		_, err := Process(state, request([2]int{1, 10}, [2]int{2, 10}, [2]int{3, 10}))

		require.NoError(t, err)
	})
}

// randomState builds a consistent state with up to 4 classes and 30 pupils.
func randomState(rng *rand.Rand) models.State {
	state := models.State{}
	classCount := 1 + rng.Intn(4)
	for i := 0; i < classCount; i++ {
		state.Classes = append(state.Classes, models.Class{
			ID:                i + 1,
			ClassName:         string(rune('A' + i)),
			MaxAmountOfPupils: rng.Intn(12),
		})
	}

	pupilCount := rng.Intn(30)
	for i := 0; i < pupilCount; i++ {
		p := models.Pupil{ID: 100 + i}
		ci := rng.Intn(classCount + 1)
		if ci < classCount && state.Classes[ci].AmountOfPupils < state.Classes[ci].MaxAmountOfPupils {
			state.Classes[ci].AmountOfPupils++
			p.ClassName = state.Classes[ci].ClassName
			p.FollowUpNumber = state.Classes[ci].AmountOfPupils
		}
		state.Pupils = append(state.Pupils, p)
	}

	return state
}

// randomRequest covers every unassigned pupil and a random subset of the rest.
func randomRequest(rng *rand.Rand, state models.State) models.Request {
	req := models.Request{}
	for _, i := range rng.Perm(len(state.Pupils)) {
		p := state.Pupils[i]
		if p.Assigned() && rng.Intn(2) == 0 {
			continue
		}
		class := state.Classes[rng.Intn(len(state.Classes))]
		req.Assignments = append(req.Assignments, models.Assignment{PupilID: p.ID, ClassID: class.ID})
	}

	return req
}

func TestProcess_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20240917))
	succeeded := 0

	for i := 0; i < 500; i++ {
		state := randomState(rng)
		require.NoError(t, Verify(state))
		before := state.Clone()
		req := randomRequest(rng, state)

		next, err := Process(state, req)

		require.Equal(t, before, state)
		if err != nil {
			require.ErrorIs(t, err, ErrClassCapacityExceeded)
			continue
		}
		succeeded++
		require.NoError(t, Verify(next), "iteration %d", i)
		require.Len(t, next.Pupils, len(state.Pupils))
		for _, asg := range req.Assignments {
			require.Equal(t, classByID(t, next, asg.ClassID).ClassName, pupilByID(t, next, asg.PupilID).ClassName)
		}
	}

	require.Positive(t, succeeded)
}
