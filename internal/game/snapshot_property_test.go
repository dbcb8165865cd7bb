package game

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/kruglay/khsm/internal/model"
)

// TestSnapshotShuffleBijectionProperty checks that taking a snapshot of any
// valid question yields a bijection from the four stored answers to the four
// presentation keys, with the correct answer reachable via CorrectAnswerKey.
func TestSnapshotShuffleBijectionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		answerGen := rapid.StringMatching(`[a-z0-9]{1,12}`)
		q := &model.Question{
			ID:      rapid.Int64Range(1, 1000000).Draw(t, "id"),
			Level:   rapid.IntRange(model.MinLevel, model.MaxQuestionLevel).Draw(t, "level"),
			Text:    "text-" + answerGen.Draw(t, "text"),
			Answer1: "a1-" + answerGen.Draw(t, "answer1"),
			Answer2: "a2-" + answerGen.Draw(t, "answer2"),
			Answer3: "a3-" + answerGen.Draw(t, "answer3"),
			Answer4: "a4-" + answerGen.Draw(t, "answer4"),
		}

		gq := NewGameQuestion(q)

		if gq.QuestionID != q.ID || gq.Level != q.Level || gq.Text != q.Text {
			t.Fatalf("snapshot did not copy question identity: %+v", gq)
		}

		correct, ok := gq.AnswerText(gq.CorrectAnswerKey())
		if !ok {
			t.Fatalf("correct key %q is not a presentation key", gq.CorrectAnswerKey())
		}
		if correct != q.Answer1 {
			t.Fatalf("correct key %q maps to %q, want %q", gq.CorrectAnswerKey(), correct, q.Answer1)
		}

		// Every source answer appears exactly once across the four keys.
		seen := map[string]int{}
		for _, key := range model.AnswerKeys() {
			text, ok := gq.AnswerText(key)
			if !ok || text == "" {
				t.Fatalf("key %q has no answer bound", key)
			}
			seen[text]++
		}
		for _, want := range []string{q.Answer1, q.Answer2, q.Answer3, q.Answer4} {
			if seen[want] != 1 {
				t.Fatalf("answer %q bound %d times, want exactly once", want, seen[want])
			}
		}
	})
}

// TestSnapshotShuffleIndependenceProperty checks that repeated snapshots of
// the same question do not always land the correct answer on the same key.
func TestSnapshotShuffleIndependenceProperty(t *testing.T) {
	q := &model.Question{
		ID:      1,
		Level:   3,
		Text:    "which key is it under this time",
		Answer1: "right",
		Answer2: "wrong 1",
		Answer3: "wrong 2",
		Answer4: "wrong 3",
	}

	keys := map[string]bool{}
	for i := 0; i < 200; i++ {
		keys[NewGameQuestion(q).CorrectAnswerKey()] = true
	}

	// With 200 draws the chance of any key never appearing is negligible.
	if len(keys) != len(model.AnswerKeys()) {
		t.Fatalf("correct answer only ever landed on %v", keys)
	}
}
