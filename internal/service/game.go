// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kruglay/khsm/internal/cache"
	"github.com/kruglay/khsm/internal/game"
	"github.com/kruglay/khsm/internal/model"
	"github.com/kruglay/khsm/internal/pkg/lock"
	"github.com/kruglay/khsm/internal/repository"
)

// Common errors for game operations.
var (
	// ErrInsufficientQuestions means the bank cannot supply a question for
	// every level on the ladder; no game is created.
	ErrInsufficientQuestions = errors.New("question bank cannot cover all levels")

	// ErrNotGameOwner means the acting user does not own the game.
	ErrNotGameOwner = errors.New("game belongs to another user")
)

// GameService orchestrates a single user's play-through: game creation,
// answer submissions and cash-outs. All terminal transitions persist the
// game row and the balance credit atomically through the repository.
type GameService struct {
	users     *repository.UserRepository
	questions *repository.QuestionRepository
	games     *repository.GameRepository
	rules     *game.Rules
	locks     *lock.GameLock
	board     *cache.Leaderboard
}

// NewGameService creates a new GameService instance.
func NewGameService(
	users *repository.UserRepository,
	questions *repository.QuestionRepository,
	games *repository.GameRepository,
	rules *game.Rules,
	locks *lock.GameLock,
) *GameService {
	return &GameService{
		users:     users,
		questions: questions,
		games:     games,
		rules:     rules,
		locks:     locks,
	}
}

// SetLeaderboard attaches an optional balance leaderboard. Updates to it
// are best-effort and never fail a game operation.
func (s *GameService) SetLeaderboard(board *cache.Leaderboard) {
	s.board = board
}

// Rules exposes the rule set the service runs on, for status and prize
// projections on loaded games.
func (s *GameService) Rules() *game.Rules {
	return s.rules
}

// CreateGameForUser starts a new game: one random unused question per level,
// snapshotted with a fresh answer shuffle, persisted together with the game
// row in one transaction. The question bank is not mutated and no balance
// changes.
func (s *GameService) CreateGameForUser(ctx context.Context, userID int64) (*model.Game, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.RandomPerLevel(ctx)
	if err != nil {
		return nil, err
	}

	want := s.rules.Table.MaxLevel() + 1
	if len(questions) < want {
		return nil, fmt.Errorf("%w: have %d of %d levels", ErrInsufficientQuestions, len(questions), want)
	}

	snapshots := make([]*model.GameQuestion, 0, want)
	for _, q := range questions[:want] {
		snapshots = append(snapshots, game.NewGameQuestion(q))
	}

	created, err := s.games.CreateWithQuestions(ctx, user.ID, snapshots)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("game_id", created.ID).
		Int64("user_id", user.ID).
		Int("questions", len(created.Questions)).
		Msg("Game created")

	return created, nil
}

// GetGame loads a game with its snapshots.
func (s *GameService) GetGame(ctx context.Context, gameID int64) (*model.Game, error) {
	return s.games.GetByID(ctx, gameID)
}

// AnswerCurrentQuestion applies one answer submission on behalf of the
// owning user. The returned bool is the state-machine sentinel: true means
// the answer was correct (the game may have just been won), false covers
// wrong answers, timeouts and calls on finished games. Callers distinguish
// those via the game status afterwards.
func (s *GameService) AnswerCurrentQuestion(ctx context.Context, gameID, userID int64, key string) (bool, error) {
	var cont bool
	err := s.locks.WithLock(gameID, func() error {
		g, err := s.games.GetByID(ctx, gameID)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrNotGameOwner
		}

		res := s.rules.AnswerCurrentQuestion(g, key, time.Now())
		cont = res.Continue()

		switch res.Outcome {
		case game.OutcomeAlreadyFinished:
			return nil
		case game.OutcomeAdvance:
			return s.games.SaveLevel(ctx, g)
		default:
			if err := s.games.FinishAndCredit(ctx, g, res.Prize); err != nil {
				return err
			}
			log.Info().
				Int64("game_id", g.ID).
				Int64("user_id", g.UserID).
				Str("status", string(s.rules.Status(g))).
				Int64("prize", res.Prize).
				Msg("Game finished")
			s.pushLeaderboard(ctx, g.UserID)
			return nil
		}
	})
	if err != nil {
		return false, err
	}
	return cont, nil
}

// TakeMoney cashes the owning user out of a running game and returns the
// credited prize. Calls on a finished game fail with
// game.ErrNoCurrentQuestion and change nothing.
func (s *GameService) TakeMoney(ctx context.Context, gameID, userID int64) (int64, error) {
	var prize int64
	err := s.locks.WithLock(gameID, func() error {
		g, err := s.games.GetByID(ctx, gameID)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrNotGameOwner
		}

		prize, err = s.rules.TakeMoney(g, time.Now())
		if err != nil {
			return err
		}

		if err := s.games.FinishAndCredit(ctx, g, prize); err != nil {
			return err
		}
		log.Info().
			Int64("game_id", g.ID).
			Int64("user_id", g.UserID).
			Int64("prize", prize).
			Msg("Player took the money")
		s.pushLeaderboard(ctx, g.UserID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return prize, nil
}

// pushLeaderboard refreshes the user's leaderboard entry after a credit.
// Failures are logged and swallowed; the ledger in PostgreSQL is the truth.
func (s *GameService) pushLeaderboard(ctx context.Context, userID int64) {
	if s.board == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Leaderboard refresh: user lookup failed")
		return
	}
	if err := s.board.Record(ctx, user.ID, user.Name, user.Balance); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Leaderboard refresh failed")
	}
}
