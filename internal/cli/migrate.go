package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kruglay/khsm/internal/config"
	"github.com/kruglay/khsm/internal/pkg/db"
	"github.com/kruglay/khsm/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	return repository.Migrate(ctx, pool.Pool)
}
