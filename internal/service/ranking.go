package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/kruglay/khsm/internal/cache"
	"github.com/kruglay/khsm/internal/model"
	"github.com/kruglay/khsm/internal/repository"
)

// RankingService serves the balance leaderboard and per-user statistics.
type RankingService struct {
	users *repository.UserRepository
	board *cache.Leaderboard
}

// NewRankingService creates a new RankingService instance. board may be nil
// when the redis cache is disabled; everything then comes from PostgreSQL.
func NewRankingService(users *repository.UserRepository, board *cache.Leaderboard) *RankingService {
	return &RankingService{users: users, board: board}
}

// TopUsers retrieves the top users by balance. The redis leaderboard is
// consulted first; on a miss the database answers and the cache is
// backfilled.
func (s *RankingService) TopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	if s.board != nil {
		entries, err := s.board.Top(ctx, limit)
		if err == nil && len(entries) > 0 {
			users := make([]*model.User, 0, len(entries))
			for _, e := range entries {
				users = append(users, &model.User{ID: e.UserID, Name: e.Name, Balance: e.Balance})
			}
			return users, nil
		}
		if err != nil {
			log.Warn().Err(err).Msg("Leaderboard read failed, falling back to database")
		}
	}

	users, err := s.users.Top(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.board != nil {
		for _, u := range users {
			if err := s.board.Record(ctx, u.ID, u.Name, u.Balance); err != nil {
				log.Warn().Err(err).Int64("user_id", u.ID).Msg("Leaderboard backfill failed")
				break
			}
		}
	}

	return users, nil
}

// AveragePrize returns the user's balance averaged over the games they
// played. ok is false for users who have not played yet.
func (s *RankingService) AveragePrize(ctx context.Context, userID int64) (avg int64, ok bool, err error) {
	return s.users.AveragePrize(ctx, userID)
}
