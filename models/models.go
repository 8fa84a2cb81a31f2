package models

import (
	"cmp"
	"slices"
)

// Pupil represents a pupil
type Pupil struct {
	ID             int    `json:"id"`             // Unique pupil ID
	Name           string `json:"name"`           // Display name
	ClassName      string `json:"className"`      // Name of the class the pupil belongs to, empty when unassigned
	FollowUpNumber int    `json:"followUpNumber"` // 1-based position within the class
}

// Assigned reports whether the pupil currently belongs to a class.
func (p Pupil) Assigned() bool {
	return p.ClassName != ""
}

// Class represents a class
type Class struct {
	ID                int    `json:"id" binding:"required,gt=0"`        // Unique class ID
	ClassName         string `json:"className" binding:"required"`      // Unique class name, referenced by Pupil.ClassName
	TeacherName       string `json:"teacherName"`                       // Display only
	MaxAmountOfPupils int    `json:"maxAmountOfPupils" binding:"gte=0"` // Capacity
	AmountOfPupils    int    `json:"amountOfPupils"`                    // Number of pupils currently in the class
}

// State is the full snapshot of pupils and classes.
type State struct {
	Pupils  []Pupil `json:"pupils"`
	Classes []Class `json:"classes"`
}

// Clone returns a deep copy of the state. Nil slices stay nil.
func (s State) Clone() State {
	return State{
		Pupils:  slices.Clone(s.Pupils),
		Classes: slices.Clone(s.Classes),
	}
}

// ClassByID looks up a class by its ID.
func (s State) ClassByID(id int) (Class, bool) {
	for _, c := range s.Classes {
		if c.ID == id {
			return c, true
		}
	}
	return Class{}, false
}

// PupilsInClass returns the pupils of the named class ordered by follow-up number.
// The result is never nil.
func (s State) PupilsInClass(className string) []Pupil {
	pupils := make([]Pupil, 0)
	for _, p := range s.Pupils {
		if p.Assigned() && p.ClassName == className {
			pupils = append(pupils, p)
		}
	}
	slices.SortStableFunc(pupils, func(a, b Pupil) int {
		return cmp.Compare(a.FollowUpNumber, b.FollowUpNumber)
	})
	return pupils
}

// Assignment places one pupil into one class.
type Assignment struct {
	PupilID int `json:"pupilId" binding:"required"`
	ClassID int `json:"classId" binding:"required"`
}

// Request is an ordered batch of assignments.
type Request struct {
	Assignments []Assignment `json:"assignments" binding:"required,min=1,dive"`
}

// UpdatedPupil describes a pupil whose class or follow-up number changed.
type UpdatedPupil struct {
	PupilID        int    `json:"pupilId"`
	ClassName      string `json:"className"`
	FollowUpNumber int    `json:"followUpNumber"`
}

// UpdatedClass describes a class whose pupil count changed.
type UpdatedClass struct {
	ClassID        int `json:"classId"`
	AmountOfPupils int `json:"amountOfPupils"`
}
