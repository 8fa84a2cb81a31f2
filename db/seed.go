package db

import "schoolmanager-server-go/models"

// InitialState is the state seeded into an empty store: fifteen unassigned
// pupils and two empty classes.
func InitialState() models.State {
	names := []string{
		"Vermaercke Tim",
		"Portauw Pieter",
		"Maekelbergh Thibault",
		"Petrescu Adrian-Mihai",
		"De Vos Andres",
		"Demaecker Caro",
		"Goderis Jonas",
		"Huyghe Lowie",
		"Cornille Lukas",
		"Nanescu Maria",
		"Lasseel Siem",
		"Spanhove Stijn",
		"Verween Stijn",
		"Dekiere Thomas",
		"Akin Özgür",
	}

	state := models.State{
		Pupils: make([]models.Pupil, 0, len(names)),
		Classes: []models.Class{
			{ID: 1, ClassName: "First grade", TeacherName: "Mr. Lemaire Jeroen", MaxAmountOfPupils: 5},
			{ID: 2, ClassName: "Second grade", TeacherName: "Mr. Verbist Frank", MaxAmountOfPupils: 20},
		},
	}
	for i, name := range names {
		state.Pupils = append(state.Pupils, models.Pupil{ID: i + 1, Name: name})
	}

	return state
}
