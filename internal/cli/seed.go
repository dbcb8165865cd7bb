package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kruglay/khsm/internal/config"
	"github.com/kruglay/khsm/internal/pkg/db"
	"github.com/kruglay/khsm/internal/repository"
	"github.com/kruglay/khsm/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a question-bank YAML file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/questions.yaml", "seed file with questions")
	return cmd
}

func runSeed(ctx context.Context, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	questions, err := seed.Load(file)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool.Pool); err != nil {
		return err
	}

	repo := repository.NewQuestionRepository(pool.Pool)
	created, skipped, err := seed.Apply(ctx, repo, questions)
	if err != nil {
		return err
	}

	levels, err := repo.CountLevels(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", file).
		Int("created", created).
		Int("skipped", skipped).
		Int("levels_covered", levels).
		Msg("Question bank seeded")
	return nil
}
