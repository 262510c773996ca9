package models

// SeedActivities returns the example catalogue written into an empty store.
func SeedActivities() []Activity {
	return []Activity{
		{
			ID:              "activity_1",
			Title:           "Programa de Desenvolvimento Profissional",
			Description:     "Plano completo de mentoria focado em desenvolvimento de carreira, habilidades técnicas e comportamentais.",
			Type:            TypeMentoringPlan,
			Status:          StatusInProgress,
			Category:        "Desenvolvimento Profissional",
			StartDate:       "2024-01-15",
			EndDate:         "2024-04-15",
			Participants:    1,
			MaxParticipants: 5,
			MinParticipants: 1,
			EnrollmentOpen:  true,
			Owner:           "Ana Silva",
			Tags:            []string{"carreira", "habilidades", "profissional"},
		},
		{
			ID:              "activity_2",
			Title:           "Mentoria em Empreendedorismo",
			Description:     "Acompanhamento para jovens interessados em abrir o próprio negócio.",
			Type:            TypeMentoringPlan,
			Status:          StatusScheduled,
			Category:        "Empreendedorismo",
			StartDate:       "2024-03-01",
			EndDate:         "2024-06-01",
			Participants:    0,
			MaxParticipants: 3,
			MinParticipants: 1,
			EnrollmentOpen:  true,
			Owner:           "Carlos Mendes",
			Tags:            []string{"empreendedorismo", "negócios", "startup"},
		},
		{
			ID:              "activity_3",
			Title:           "Edital Jovens Empreendedores 2024",
			Description:     "Auxílio na construção de inscrições para o edital de apoio a jovens empreendedores.",
			Type:            TypeOpenActivity,
			Status:          StatusAvailable,
			Category:        "Editais e Concursos",
			StartDate:       "2024-02-01",
			EndDate:         "2024-02-28",
			Participants:    12,
			MaxParticipants: 25,
			MinParticipants: 5,
			EnrollmentOpen:  true,
			Owner:           "Maria Santos",
			Tags:            []string{"edital", "empreendedorismo", "financiamento"},
		},
		{
			ID:              "activity_4",
			Title:           "Workshop: Preparação para ENEM",
			Description:     "Atividade coletiva de preparação e orientação para o ENEM.",
			Type:            TypeOpenActivity,
			Status:          StatusInProgress,
			Category:        "Educação",
			StartDate:       "2024-01-20",
			EndDate:         "2024-11-30",
			Participants:    35,
			MaxParticipants: 40,
			MinParticipants: 10,
			EnrollmentOpen:  true,
			Owner:           "Pedro Costa",
			Tags:            []string{"educação", "enem", "vestibular"},
		},
		{
			ID:              "activity_5",
			Title:           "Trilha de Tecnologia - Programação Básica",
			Description:     "Programa de mentoria individual em programação e tecnologia.",
			Type:            TypeMentoringPlan,
			Status:          StatusCompleted,
			Category:        "Tecnologia",
			StartDate:       "2023-10-01",
			EndDate:         "2024-01-15",
			Participants:    2,
			MaxParticipants: 5,
			MinParticipants: 1,
			EnrollmentOpen:  false,
			Owner:           "João Silva",
			Tags:            []string{"tecnologia", "programação", "carreira-tech"},
		},
	}
}
