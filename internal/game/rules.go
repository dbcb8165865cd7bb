package game

import (
	"time"

	"github.com/kruglay/khsm/internal/model"
)

// DefaultTimeLimit is how long a player has to finish a game before any
// further answer turns it into a timeout.
const DefaultTimeLimit = 35 * time.Minute

// Status is the derived state of a game. It is recomputed from stored
// fields on every read and never cached.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusFail       Status = "fail"
	StatusTimeout    Status = "timeout"
	StatusMoney      Status = "money"
)

// Terminal reports whether the status means the game is over.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// Outcome classifies what a call to AnswerCurrentQuestion did.
type Outcome int

const (
	// OutcomeAlreadyFinished: the game was over before the call; nothing changed.
	OutcomeAlreadyFinished Outcome = iota
	// OutcomeTimeout: the time limit had elapsed; the game is now failed and
	// the fireproof prize is due.
	OutcomeTimeout
	// OutcomeWrong: the submitted key was incorrect; the game is failed and
	// the fireproof prize is due.
	OutcomeWrong
	// OutcomeAdvance: correct answer below the top level; the game continues.
	OutcomeAdvance
	// OutcomeWon: correct answer on the top level; the top prize is due.
	OutcomeWon
)

// AnswerResult describes the state transition performed by an answer
// submission and what must be persisted.
type AnswerResult struct {
	Outcome Outcome
	// Prize is the amount to credit to the user's balance, 0 if none.
	Prize int64
	// Changed reports whether the game struct was mutated and needs saving.
	Changed bool
}

// Continue is the boolean callers check: true only when the submitted
// answer was correct. A false return with Changed set means the game just
// ended; a false return without it means the call was a no-op.
func (r AnswerResult) Continue() bool {
	return r.Outcome == OutcomeAdvance || r.Outcome == OutcomeWon
}

// Rules evaluates the game state machine against a prize table and time
// limit. Both are injected so tests can run with adjustable ladders and
// clocks.
type Rules struct {
	Table     PrizeTable
	TimeLimit time.Duration
}

// NewRules builds a Rules instance, falling back to the defaults for any
// zero value.
func NewRules(table PrizeTable, timeLimit time.Duration) *Rules {
	if len(table.Prizes) == 0 {
		table = DefaultPrizeTable()
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	return &Rules{Table: table, TimeLimit: timeLimit}
}

// TimedOut reports whether the allowed play time has elapsed.
func (r *Rules) TimedOut(g *model.Game, now time.Time) bool {
	return now.Sub(g.CreatedAt) > r.TimeLimit
}

// StatusAt derives the game status as of the given instant.
// Evaluation order matters: timeout is checked before generic fail because
// a timed-out game is also marked failed, and won is only reachable when
// the game is not failed. For finished games the timeout check compares
// finished_at against created_at, so the derived status never drifts as
// the clock moves on.
func (r *Rules) StatusAt(g *model.Game, now time.Time) Status {
	switch {
	case !g.Finished():
		return StatusInProgress
	case g.IsFailed && g.FinishedAt.Sub(g.CreatedAt) > r.TimeLimit:
		return StatusTimeout
	case g.IsFailed:
		return StatusFail
	case g.CurrentLevel > r.Table.MaxLevel():
		return StatusWon
	default:
		return StatusMoney
	}
}

// Status derives the game status as of now.
func (r *Rules) Status(g *model.Game) Status {
	return r.StatusAt(g, time.Now())
}

// CurrentQuestion returns the snapshot at the current level, or nil if the
// game is finished or the level ran past the ladder.
func (r *Rules) CurrentQuestion(g *model.Game) *model.GameQuestion {
	if g.Finished() {
		return nil
	}
	return questionAtLevel(g, g.CurrentLevel)
}

// PreviousQuestion returns the snapshot the player last cleared, or nil at
// level 0.
func (r *Rules) PreviousQuestion(g *model.Game) *model.GameQuestion {
	return questionAtLevel(g, g.CurrentLevel-1)
}

// PreviousLevel is the last level the player cleared; -1 before the first
// answer.
func (r *Rules) PreviousLevel(g *model.Game) int {
	return g.CurrentLevel - 1
}

func questionAtLevel(g *model.Game, level int) *model.GameQuestion {
	for _, gq := range g.Questions {
		if gq.Level == level {
			return gq
		}
	}
	return nil
}

// AnswerCurrentQuestion applies one answer submission to the game,
// mutating it in memory. The caller persists the game (and credits the
// prize) atomically afterwards.
func (r *Rules) AnswerCurrentQuestion(g *model.Game, key string, now time.Time) AnswerResult {
	if g.Finished() {
		return AnswerResult{Outcome: OutcomeAlreadyFinished}
	}

	if r.TimedOut(g, now) {
		prize := r.Table.FireproofPrizeBelow(g.CurrentLevel)
		r.finish(g, now, true)
		return AnswerResult{Outcome: OutcomeTimeout, Prize: prize, Changed: true}
	}

	gq := r.CurrentQuestion(g)
	if gq == nil {
		// current_level ran past the ladder without a terminal write;
		// validated data makes this unreachable.
		return AnswerResult{Outcome: OutcomeAlreadyFinished}
	}

	if key != gq.CorrectAnswerKey() {
		prize := r.Table.FireproofPrizeBelow(g.CurrentLevel)
		r.finish(g, now, true)
		return AnswerResult{Outcome: OutcomeWrong, Prize: prize, Changed: true}
	}

	if g.CurrentLevel == r.Table.MaxLevel() {
		g.CurrentLevel++
		prize := r.Table.Prizes[r.Table.MaxLevel()]
		r.finish(g, now, false)
		return AnswerResult{Outcome: OutcomeWon, Prize: prize, Changed: true}
	}

	g.CurrentLevel++
	g.UpdatedAt = now
	return AnswerResult{Outcome: OutcomeAdvance, Changed: true}
}

// TakeMoney cashes the player out. The game must still have a current
// question; otherwise ErrNoCurrentQuestion is returned and nothing changes.
// The prize is the one for the last level cleared, 0 when cashing out
// before the first correct answer.
func (r *Rules) TakeMoney(g *model.Game, now time.Time) (int64, error) {
	if r.CurrentQuestion(g) == nil {
		return 0, ErrNoCurrentQuestion
	}

	var prize int64
	if g.CurrentLevel > 0 {
		p, err := r.Table.PrizeForLevel(g.CurrentLevel - 1)
		if err != nil {
			return 0, err
		}
		prize = p
	}
	r.finish(g, now, false)
	return prize, nil
}

// Prize is the amount the game paid out, derived the same way it was
// computed at termination time. 0 for games still in progress.
func (r *Rules) Prize(g *model.Game) int64 {
	switch {
	case !g.Finished():
		return 0
	case g.IsFailed:
		return r.Table.FireproofPrizeBelow(g.CurrentLevel)
	case g.CurrentLevel > r.Table.MaxLevel():
		return r.Table.Prizes[r.Table.MaxLevel()]
	case g.CurrentLevel > 0:
		return r.Table.Prizes[g.CurrentLevel-1]
	default:
		return 0
	}
}

// finish stamps the terminal fields. finished_at is set exactly once.
func (r *Rules) finish(g *model.Game, now time.Time, failed bool) {
	g.IsFailed = failed
	g.FinishedAt = &now
	g.UpdatedAt = now
}
