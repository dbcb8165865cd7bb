// Package cache provides the redis-backed balance leaderboard. It is a
// read-side convenience; the PostgreSQL ledger stays authoritative.
package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	balancesKey = "khsm:leaderboard:balances"
	namesKey    = "khsm:leaderboard:names"
)

// Entry is one leaderboard row.
type Entry struct {
	UserID  int64
	Name    string
	Balance int64
}

// Leaderboard keeps user balances in a sorted set keyed by user ID, with a
// companion hash for display names.
type Leaderboard struct {
	client *redis.Client
}

// NewLeaderboard creates a new Leaderboard instance.
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// Record upserts a user's leaderboard entry.
func (l *Leaderboard) Record(ctx context.Context, userID int64, name string, balance int64) error {
	member := strconv.FormatInt(userID, 10)

	pipe := l.client.Pipeline()
	pipe.ZAdd(ctx, balancesKey, redis.Z{Score: float64(balance), Member: member})
	pipe.HSet(ctx, namesKey, member, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record leaderboard entry: %w", err)
	}
	return nil
}

// Top returns the highest balances, richest first.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	zs, err := l.client.ZRevRangeWithScores(ctx, balancesKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(zs) == 0 {
		return nil, nil
	}

	names, err := l.client.HGetAll(ctx, namesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard names: %w", err)
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			UserID:  id,
			Name:    names[member],
			Balance: int64(z.Score),
		})
	}
	return entries, nil
}

// Remove drops a user from the leaderboard, e.g. after account deletion.
func (l *Leaderboard) Remove(ctx context.Context, userID int64) error {
	member := strconv.FormatInt(userID, 10)

	pipe := l.client.Pipeline()
	pipe.ZRem(ctx, balancesKey, member)
	pipe.HDel(ctx, namesKey, member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove leaderboard entry: %w", err)
	}
	return nil
}
