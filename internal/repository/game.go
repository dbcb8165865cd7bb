package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kruglay/khsm/internal/model"
)

// Errors for game persistence operations.
var (
	ErrGameNotFound = errors.New("game not found")
)

const gameColumns = `id, user_id, current_level, is_failed, finished_at, created_at, updated_at`

const gameQuestionColumns = `id, game_id, question_id, level, text, answer_a, answer_b, answer_c, answer_d, correct_key, created_at`

// GameRepository handles game and snapshot persistence. Terminal state
// writes and the matching balance credit go through a single transaction:
// either both land or neither does.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

func scanGame(row pgx.Row) (*model.Game, error) {
	var g model.Game
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.CurrentLevel,
		&g.IsFailed,
		&g.FinishedAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGameQuestion(row pgx.Row) (*model.GameQuestion, error) {
	var gq model.GameQuestion
	err := row.Scan(
		&gq.ID,
		&gq.GameID,
		&gq.QuestionID,
		&gq.Level,
		&gq.Text,
		&gq.AnswerA,
		&gq.AnswerB,
		&gq.AnswerC,
		&gq.AnswerD,
		&gq.CorrectKey,
		&gq.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gq, nil
}

// CreateWithQuestions inserts a new game and all of its snapshots in one
// transaction. The returned game carries the persisted snapshots ordered by
// level.
func (r *GameRepository) CreateWithQuestions(ctx context.Context, userID int64, snapshots []*model.GameQuestion) (*model.Game, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertGame = `
		INSERT INTO games (user_id, current_level, is_failed, created_at, updated_at)
		VALUES ($1, 0, FALSE, NOW(), NOW())
		RETURNING ` + gameColumns

	game, err := scanGame(tx.QueryRow(ctx, insertGame, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	const insertSnapshot = `
		INSERT INTO game_questions
			(game_id, question_id, level, text, answer_a, answer_b, answer_c, answer_d, correct_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + gameQuestionColumns

	for _, snap := range snapshots {
		persisted, err := scanGameQuestion(tx.QueryRow(ctx, insertSnapshot,
			game.ID, snap.QuestionID, snap.Level, snap.Text,
			snap.AnswerA, snap.AnswerB, snap.AnswerC, snap.AnswerD, snap.CorrectKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot for level %d: %w", snap.Level, err)
		}
		game.Questions = append(game.Questions, persisted)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit game creation: %w", err)
	}

	return game, nil
}

// GetByID retrieves a game with its snapshots ordered by level.
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	const query = `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game, err := scanGame(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	const questionsQuery = `
		SELECT ` + gameQuestionColumns + `
		FROM game_questions
		WHERE game_id = $1
		ORDER BY level
	`

	rows, err := r.pool.Query(ctx, questionsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		gq, err := scanGameQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game question: %w", err)
		}
		game.Questions = append(game.Questions, gq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game questions: %w", err)
	}

	return game, nil
}

// ListByUser retrieves a user's games, newest first, without snapshots.
func (r *GameRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Game, error) {
	const query = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// SaveLevel persists a level advance on a game that is still running.
func (r *GameRepository) SaveLevel(ctx context.Context, game *model.Game) error {
	const query = `
		UPDATE games
		SET current_level = $2, updated_at = NOW()
		WHERE id = $1 AND finished_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, game.ID, game.CurrentLevel)
	if err != nil {
		return fmt.Errorf("failed to save level: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// FinishAndCredit writes the game's terminal fields and credits the owner's
// balance in one transaction. A zero prize still stamps the terminal state
// through the same path.
func (r *GameRepository) FinishAndCredit(ctx context.Context, game *model.Game, prize int64) error {
	if game.FinishedAt == nil {
		return fmt.Errorf("game %d has no terminal state to persist", game.ID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const finishGame = `
		UPDATE games
		SET current_level = $2, is_failed = $3, finished_at = $4, updated_at = NOW()
		WHERE id = $1 AND finished_at IS NULL
	`

	result, err := tx.Exec(ctx, finishGame, game.ID, game.CurrentLevel, game.IsFailed, *game.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}

	const creditUser = `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err = tx.Exec(ctx, creditUser, game.UserID, prize)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit game finish: %w", err)
	}

	return nil
}
