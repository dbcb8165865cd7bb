package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kruglay/khsm/internal/cache"
	"github.com/kruglay/khsm/internal/config"
	"github.com/kruglay/khsm/internal/pkg/db"
	"github.com/kruglay/khsm/internal/repository"
	"github.com/kruglay/khsm/internal/service"
)

func newTopCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the richest players",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of players to show")
	return cmd
}

func runTop(ctx context.Context, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool.Pool)

	var board *cache.Leaderboard
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, using database only")
		} else {
			board = cache.NewLeaderboard(client)
		}
	}

	ranking := service.NewRankingService(users, board)
	top, err := ranking.TopUsers(ctx, limit)
	if err != nil {
		return err
	}

	for i, u := range top {
		avg, ok, err := ranking.AveragePrize(ctx, u.ID)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%2d. %-20s %12d", i+1, u.Name, u.Balance)
		if ok {
			line += fmt.Sprintf("  (avg prize %d)", avg)
		}
		fmt.Println(line)
	}
	return nil
}
