package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/kruglay/khsm/internal/cache"
	"github.com/kruglay/khsm/internal/config"
	"github.com/kruglay/khsm/internal/game"
	"github.com/kruglay/khsm/internal/model"
	"github.com/kruglay/khsm/internal/pkg/db"
	"github.com/kruglay/khsm/internal/pkg/lock"
	"github.com/kruglay/khsm/internal/repository"
	"github.com/kruglay/khsm/internal/service"
)

func newPlayCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one game on the console (development driver)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), email, name)
		},
	}
	cmd.Flags().StringVar(&email, "email", "player@localhost", "player email")
	cmd.Flags().StringVar(&name, "name", "player", "player name")
	return cmd
}

func runPlay(ctx context.Context, email, name string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	table, err := cfg.Game.PrizeTable()
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

	users := repository.NewUserRepository(pool.Pool)
	questions := repository.NewQuestionRepository(pool.Pool)
	games := repository.NewGameRepository(pool.Pool)
	rules := game.NewRules(table, cfg.Game.TimeLimit)
	svc := service.NewGameService(users, questions, games, rules, lock.NewGameLock())

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		svc.SetLeaderboard(cache.NewLeaderboard(client))
	}

	user, err := users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = users.Create(ctx, name, email)
	}
	if err != nil {
		return err
	}

	// resume a running game if one exists, otherwise start fresh
	var g *model.Game
	existing, err := games.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, candidate := range existing {
		if !candidate.Finished() {
			g = candidate
			fmt.Printf("Resuming game %d at level %d.\n", g.ID, g.CurrentLevel+1)
			break
		}
	}
	if g == nil {
		g, err = svc.CreateGameForUser(ctx, user.ID)
		if err != nil {
			return err
		}
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		g, err = svc.GetGame(ctx, g.ID)
		if err != nil {
			return err
		}
		gq := rules.CurrentQuestion(g)
		if gq == nil {
			break
		}

		prize, _ := table.PrizeForLevel(g.CurrentLevel)
		fmt.Printf("\nLevel %d for %d:\n%s\n", g.CurrentLevel+1, prize, gq.Text)
		for _, key := range model.AnswerKeys() {
			text, _ := gq.AnswerText(key)
			fmt.Printf("  %s) %s\n", key, text)
		}
		fmt.Print("answer (a-d) or 'take': ")

		if !in.Scan() {
			return in.Err()
		}
		input := strings.ToLower(strings.TrimSpace(in.Text()))

		if input == "take" {
			prize, err := svc.TakeMoney(ctx, g.ID, user.ID)
			if err != nil {
				return err
			}
			fmt.Printf("You walk away with %d.\n", prize)
			break
		}

		correct, err := svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, input)
		if err != nil {
			return err
		}
		if correct {
			fmt.Println("Correct!")
			continue
		}
		break
	}

	g, err = svc.GetGame(ctx, g.ID)
	if err != nil {
		return err
	}
	user, err = users.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nGame over: %s, prize %d, balance %d\n", rules.Status(g), rules.Prize(g), user.Balance)
	return nil
}
