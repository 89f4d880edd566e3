package cli

import (
	"context"
	"errors"
	"log"

	"classquiz-engine/internal/config"
	"classquiz-engine/internal/domain"
	"github.com/spf13/cobra"
)

// NewSeedDemoCmd creates a demo teacher with a ready-to-start biology
// session, so a fresh deployment has something to click on.
func NewSeedDemoCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Seed a demo teacher and session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeedDemo(cmd.Context(), *configPath)
		},
	}
}

func runSeedDemo(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	const demoEmail = "demo.teacher@classquiz.local"
	teacher, err := eng.TeacherByEmail(ctx, demoEmail)
	if errors.Is(err, domain.ErrNotFound) {
		teacher, err = eng.CreateTeacher(ctx, demoEmail, "Demo Teacher")
	}
	if err != nil {
		return err
	}

	session, err := eng.CreateSession(ctx, teacher.ID, "Introduction to Biology")
	if err != nil {
		return err
	}

	if _, err := eng.AttachQuestions(ctx, session.ID, demoQuestions()); err != nil {
		return err
	}

	timeLimit := cfg.Quiz.DefaultTimeLimit
	if timeLimit <= 0 {
		timeLimit = 30
	}
	if _, err := eng.ConfigureQuiz(ctx, session.ID, "", timeLimit); err != nil {
		return err
	}

	log.Printf("seeded demo session %d with join code %s", session.ID, session.Code)
	return nil
}

func demoQuestions() []domain.QuestionDraft {
	return []domain.QuestionDraft{
		{
			Text:          "What is the basic unit of life?",
			Options:       []string{"Atom", "Cell", "Molecule", "Organ"},
			CorrectOption: 1,
			Topic:         "cells",
			Difficulty:    domain.DifficultyFoundation,
		},
		{
			Text:          "Which organelle is known as the powerhouse of the cell?",
			Options:       []string{"Nucleus", "Ribosome", "Mitochondrion", "Golgi apparatus"},
			CorrectOption: 2,
			Topic:         "cells",
			Difficulty:    domain.DifficultyFoundation,
		},
		{
			Text:          "A plant kept in the dark stops producing glucose. Which process has been interrupted?",
			Options:       []string{"Respiration", "Photosynthesis", "Transpiration", "Fermentation"},
			CorrectOption: 1,
			Topic:         "photosynthesis",
			Difficulty:    domain.DifficultyApplication,
		},
		{
			Text:          "During which phase of mitosis do chromosomes align at the cell equator?",
			Options:       []string{"Prophase", "Metaphase", "Anaphase", "Telophase"},
			CorrectOption: 1,
			Topic:         "cell division",
			Difficulty:    domain.DifficultyApplication,
		},
		{
			Text:          "Two organisms share 98% of their DNA but occupy very different niches. What best explains this?",
			Options:       []string{"Convergent evolution", "Genetic drift", "Divergent evolution", "Artificial selection"},
			CorrectOption: 2,
			Topic:         "evolution",
			Difficulty:    domain.DifficultyAnalysis,
		},
	}
}
