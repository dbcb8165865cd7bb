// Package model defines the data models for the millionaire quiz game.
package model

import (
	"errors"
	"strings"
	"time"
)

// Answer keys under which shuffled answers are presented to the player.
const (
	KeyA = "a"
	KeyB = "b"
	KeyC = "c"
	KeyD = "d"
)

// AnswerKeys lists the presentation keys in canonical order.
func AnswerKeys() []string {
	return []string{KeyA, KeyB, KeyC, KeyD}
}

// MinLevel and MaxQuestionLevel bound the difficulty ladder.
const (
	MinLevel         = 0
	MaxQuestionLevel = 14
)

// Validation errors for questions.
var (
	ErrBlankQuestionText = errors.New("question text must not be blank")
	ErrBlankAnswer       = errors.New("all four answers must be present")
	ErrLevelOutOfRange   = errors.New("question level out of range")
)

// Question is a row in the question bank. Answer1 always holds the correct
// answer at rest; the shuffle happens per game when a snapshot is taken.
type Question struct {
	ID        int64     `db:"id"`
	Level     int       `db:"level"`
	Text      string    `db:"text"`
	Answer1   string    `db:"answer1"`
	Answer2   string    `db:"answer2"`
	Answer3   string    `db:"answer3"`
	Answer4   string    `db:"answer4"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Validate checks the bank-level invariants: level in range, non-blank text
// and all four answers populated. Text uniqueness is enforced by the database.
func (q *Question) Validate() error {
	if q.Level < MinLevel || q.Level > MaxQuestionLevel {
		return ErrLevelOutOfRange
	}
	if strings.TrimSpace(q.Text) == "" {
		return ErrBlankQuestionText
	}
	for _, a := range []string{q.Answer1, q.Answer2, q.Answer3, q.Answer4} {
		if strings.TrimSpace(a) == "" {
			return ErrBlankAnswer
		}
	}
	return nil
}

// GameQuestion is an immutable per-game snapshot of a question. The four
// answer texts are copied out of the bank into a freshly shuffled a/b/c/d
// assignment, so later edits to the bank never affect a game in progress.
type GameQuestion struct {
	ID         int64     `db:"id"`
	GameID     int64     `db:"game_id"`
	QuestionID int64     `db:"question_id"`
	Level      int       `db:"level"`
	Text       string    `db:"text"`
	AnswerA    string    `db:"answer_a"`
	AnswerB    string    `db:"answer_b"`
	AnswerC    string    `db:"answer_c"`
	AnswerD    string    `db:"answer_d"`
	CorrectKey string    `db:"correct_key"`
	CreatedAt  time.Time `db:"created_at"`
}

// AnswerText returns the answer bound to the given presentation key.
func (gq *GameQuestion) AnswerText(key string) (string, bool) {
	switch key {
	case KeyA:
		return gq.AnswerA, true
	case KeyB:
		return gq.AnswerB, true
	case KeyC:
		return gq.AnswerC, true
	case KeyD:
		return gq.AnswerD, true
	}
	return "", false
}

// Answers returns the four answer texts in a/b/c/d order.
func (gq *GameQuestion) Answers() []string {
	return []string{gq.AnswerA, gq.AnswerB, gq.AnswerC, gq.AnswerD}
}

// CorrectAnswerKey reports which presentation key the canonical correct
// answer landed on when the snapshot was shuffled. Stable for the life of
// the snapshot.
func (gq *GameQuestion) CorrectAnswerKey() string {
	return gq.CorrectKey
}

// Game is one user's play-through of the 15-question ladder.
// Status is never stored; it is derived from these fields at query time.
type Game struct {
	ID           int64      `db:"id"`
	UserID       int64      `db:"user_id"`
	CurrentLevel int        `db:"current_level"`
	IsFailed     bool       `db:"is_failed"`
	FinishedAt   *time.Time `db:"finished_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`

	// Questions holds the 15 snapshots ordered by level, loaded alongside
	// the game row.
	Questions []*GameQuestion `db:"-"`
}

// Finished reports whether the game reached a terminal state.
func (g *Game) Finished() bool {
	return g.FinishedAt != nil
}

// User is a player account. Balance is the ledger the engine credits when a
// game terminates. Credential fields are opaque to the core.
type User struct {
	ID                int64     `db:"id"`
	Name              string    `db:"name"`
	Email             string    `db:"email"`
	IsAdmin           bool      `db:"is_admin"`
	Balance           int64     `db:"balance"`
	EncryptedPassword string    `db:"encrypted_password"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}
