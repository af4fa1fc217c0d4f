package fakeapi

// Answer is one choice of a catalog question.
type Answer struct {
	ID      int
	Text    string
	Correct bool
}

type Question struct {
	ID          int
	Text        string
	Explanation string
	Source      string
	Answers     []Answer
}

type Category struct {
	ID          int
	Name        string
	Description string
	Icon        string
	Questions   []Question
}

func (q Question) correct() Answer {
	for _, a := range q.Answers {
		if a.Correct {
			return a
		}
	}
	return Answer{}
}

// DefaultCatalog is a small fixed question bank. Question and answer ids are
// unique across categories.
func DefaultCatalog() []Category {
	return []Category{
		{
			ID:          1,
			Name:        "Radiation Safety",
			Description: "Dose limits, shielding and ALARA",
			Icon:        "shield",
			Questions: []Question{
				{
					ID:          101,
					Text:        "What does ALARA stand for?",
					Explanation: "Exposure is kept as low as reasonably achievable.",
					Source:      "10 CFR 20.1003",
					Answers: []Answer{
						{ID: 1011, Text: "As Low As Reasonably Achievable", Correct: true},
						{ID: 1012, Text: "Always Limit All Radiation Areas"},
						{ID: 1013, Text: "Annual Limit Above Regulatory Allowance"},
					},
				},
				{
					ID:          102,
					Text:        "Which material best shields against neutrons?",
					Explanation: "Hydrogen-rich materials slow neutrons by elastic scattering.",
					Answers: []Answer{
						{ID: 1021, Text: "Lead"},
						{ID: 1022, Text: "Polyethylene", Correct: true},
						{ID: 1023, Text: "Aluminium foil"},
					},
				},
				{
					ID:          103,
					Text:        "What is the annual occupational whole-body dose limit in the US?",
					Explanation: "The TEDE limit for radiation workers is 5 rem per year.",
					Source:      "10 CFR 20.1201",
					Answers: []Answer{
						{ID: 1031, Text: "0.1 rem"},
						{ID: 1032, Text: "5 rem", Correct: true},
						{ID: 1033, Text: "50 rem"},
					},
				},
			},
		},
		{
			ID:          2,
			Name:        "Reactor Theory",
			Description: "Criticality, reactivity and kinetics",
			Icon:        "atom",
			Questions: []Question{
				{
					ID:          201,
					Text:        "A reactor with k-effective equal to 1.0 is",
					Explanation: "Each generation produces exactly as many neutrons as the last.",
					Answers: []Answer{
						{ID: 2011, Text: "Subcritical"},
						{ID: 2012, Text: "Critical", Correct: true},
						{ID: 2013, Text: "Supercritical"},
					},
				},
				{
					ID:          202,
					Text:        "Which neutrons make reactor control possible?",
					Explanation: "Delayed neutrons lengthen the effective generation time.",
					Answers: []Answer{
						{ID: 2021, Text: "Prompt neutrons"},
						{ID: 2022, Text: "Delayed neutrons", Correct: true},
						{ID: 2023, Text: "Thermal neutrons"},
					},
				},
			},
		},
		{
			ID:   3,
			Name: "Empty Bank",
		},
	}
}
