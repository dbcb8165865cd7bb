package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kruglay/khsm/internal/model"
)

// Errors for question bank operations.
var (
	ErrQuestionNotFound  = errors.New("question not found")
	ErrDuplicateQuestion = errors.New("question text already in the bank")
)

const questionColumns = `id, level, text, answer1, answer2, answer3, answer4, created_at, updated_at`

// QuestionRepository handles question bank persistence.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository instance.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var q model.Question
	err := row.Scan(
		&q.ID,
		&q.Level,
		&q.Text,
		&q.Answer1,
		&q.Answer2,
		&q.Answer3,
		&q.Answer4,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create validates and stores a new bank question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO questions (level, text, answer1, answer2, answer3, answer4, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + questionColumns

	created, err := scanQuestion(r.pool.QueryRow(ctx, query,
		q.Level, q.Text, q.Answer1, q.Answer2, q.Answer3, q.Answer4))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateQuestion
		}
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return created, nil
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`

	q, err := scanQuestion(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// RandomPerLevel picks one random question for every level the bank has,
// ordered by level. Levels without questions are simply absent from the
// result; the caller decides whether that is fatal.
func (r *QuestionRepository) RandomPerLevel(ctx context.Context) ([]*model.Question, error) {
	const query = `
		SELECT DISTINCT ON (level) ` + questionColumns + `
		FROM questions
		ORDER BY level, random()
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to pick questions: %w", err)
	}
	defer rows.Close()

	var questions []*model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// CountLevels returns how many distinct levels have at least one question.
func (r *QuestionRepository) CountLevels(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT level) FROM questions`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count levels: %w", err)
	}
	return count, nil
}

// Count returns the total number of questions in the bank.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM questions`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}
