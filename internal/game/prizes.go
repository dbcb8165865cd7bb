// Package game implements the millionaire game rules: the prize ladder,
// status derivation and the answer/cash-out state machine. Everything here
// is pure; persistence and balance credits happen in the service layer.
package game

import (
	"errors"
	"fmt"
	"sort"
)

// Errors for prize table lookups and rule evaluation.
var (
	// ErrInvalidLevel means a prize lookup outside the ladder. Validated
	// data makes this unreachable in normal play.
	ErrInvalidLevel = errors.New("level outside prize table")

	// ErrNoCurrentQuestion means the game has no question to act on:
	// it is finished or the level ran past the ladder.
	ErrNoCurrentQuestion = errors.New("game has no current question")
)

// PrizeTable is the static level-to-prize ladder plus the set of fireproof
// levels that guarantee a minimum payout on failure.
type PrizeTable struct {
	Prizes    []int64
	Fireproof []int
}

// DefaultPrizeTable returns the classic 15-rung payout ladder with
// guaranteed sums at the 5th, 10th and 15th rungs.
func DefaultPrizeTable() PrizeTable {
	return PrizeTable{
		Prizes: []int64{
			100, 200, 300, 500, 1000,
			2000, 4000, 8000, 16000, 32000,
			64000, 125000, 250000, 500000, 1000000,
		},
		Fireproof: []int{4, 9, 14},
	}
}

// MaxLevel is the highest level index on the ladder.
func (t PrizeTable) MaxLevel() int {
	return len(t.Prizes) - 1
}

// PrizeForLevel returns the prize for a level index.
func (t PrizeTable) PrizeForLevel(level int) (int64, error) {
	if level < 0 || level >= len(t.Prizes) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return t.Prizes[level], nil
}

// FireproofPrizeBelow returns the prize of the highest fireproof level
// strictly below the given level, or 0 if the player failed before reaching
// the first guaranteed rung.
func (t PrizeTable) FireproofPrizeBelow(level int) int64 {
	best := -1
	for _, fp := range t.Fireproof {
		if fp < level && fp > best {
			best = fp
		}
	}
	if best < 0 {
		return 0
	}
	return t.Prizes[best]
}

// Validate checks that the ladder is non-empty, strictly increasing and
// that every fireproof level points at a real rung.
func (t PrizeTable) Validate() error {
	if len(t.Prizes) == 0 {
		return errors.New("prize table is empty")
	}
	for i := 1; i < len(t.Prizes); i++ {
		if t.Prizes[i] <= t.Prizes[i-1] {
			return fmt.Errorf("prizes must strictly increase: level %d (%d) <= level %d (%d)",
				i, t.Prizes[i], i-1, t.Prizes[i-1])
		}
	}
	if t.Prizes[0] <= 0 {
		return errors.New("prizes must be positive")
	}
	fps := append([]int(nil), t.Fireproof...)
	sort.Ints(fps)
	for i, fp := range fps {
		if fp < 0 || fp >= len(t.Prizes) {
			return fmt.Errorf("fireproof level %d outside ladder", fp)
		}
		if i > 0 && fps[i-1] == fp {
			return fmt.Errorf("duplicate fireproof level %d", fp)
		}
	}
	return nil
}
