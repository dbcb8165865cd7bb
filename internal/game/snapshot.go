package game

import (
	"math/rand"

	"github.com/kruglay/khsm/internal/model"
)

// NewGameQuestion takes an immutable snapshot of a bank question for one
// game: the four answers are copied into a freshly shuffled a/b/c/d
// assignment and the key the correct answer landed on is recorded. The
// shuffle is performed per snapshot, never reused, so the correct key
// cannot be derived from ordering.
func NewGameQuestion(q *model.Question) *model.GameQuestion {
	answers := []string{q.Answer1, q.Answer2, q.Answer3, q.Answer4}
	keys := model.AnswerKeys()

	gq := &model.GameQuestion{
		QuestionID: q.ID,
		Level:      q.Level,
		Text:       q.Text,
	}

	byKey := make(map[string]string, len(keys))
	perm := rand.Perm(len(answers))
	for slot, i := range perm {
		byKey[keys[i]] = answers[slot]
		if slot == 0 {
			gq.CorrectKey = keys[i]
		}
	}
	gq.AnswerA = byKey[model.KeyA]
	gq.AnswerB = byKey[model.KeyB]
	gq.AnswerC = byKey[model.KeyC]
	gq.AnswerD = byKey[model.KeyD]

	return gq
}
