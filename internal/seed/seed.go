// Package seed loads question-bank files into the database. A seed file is
// YAML of the form:
//
//	questions:
//	  - level: 0
//	    text: "What color is the sky?"
//	    answers: ["blue", "green", "red", "plaid"]
//
// The first answer is the correct one, matching how the bank stores it.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kruglay/khsm/internal/model"
	"github.com/kruglay/khsm/internal/repository"
)

// File is the top-level seed file layout.
type File struct {
	Questions []Entry `yaml:"questions"`
}

// Entry is one question in a seed file.
type Entry struct {
	Level   int      `yaml:"level"`
	Text    string   `yaml:"text"`
	Answers []string `yaml:"answers"`
}

// Load parses a seed file into bank questions, validating each entry.
func Load(path string) ([]*model.Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	questions := make([]*model.Question, 0, len(file.Questions))
	for i, e := range file.Questions {
		if len(e.Answers) != 4 {
			return nil, fmt.Errorf("question %d (%q): want 4 answers, have %d", i, e.Text, len(e.Answers))
		}
		q := &model.Question{
			Level:   e.Level,
			Text:    e.Text,
			Answer1: e.Answers[0],
			Answer2: e.Answers[1],
			Answer3: e.Answers[2],
			Answer4: e.Answers[3],
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d (%q): %w", i, e.Text, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// Apply stores the questions, skipping any whose text is already in the
// bank so seeding stays re-runnable.
func Apply(ctx context.Context, repo *repository.QuestionRepository, questions []*model.Question) (created, skipped int, err error) {
	for _, q := range questions {
		if _, err := repo.Create(ctx, q); err != nil {
			if errors.Is(err, repository.ErrDuplicateQuestion) {
				skipped++
				continue
			}
			return created, skipped, err
		}
		created++
	}
	return created, skipped, nil
}
