// Package repository provides data access layer implementations.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Migrate applies the database schema. Statements are idempotent so the
// migration can run on every start; the same code backs the CLI command and
// the integration tests.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	// users: the ledger the game engine credits. is_admin and balance are
	// NOT NULL without exception.
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			balance BIGINT NOT NULL DEFAULT 0,
			encrypted_password VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_balance ON users(balance DESC);
	`)
	if err != nil {
		return err
	}

	// questions: the bank. answer1 is canonically correct at rest.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS questions (
			id BIGSERIAL PRIMARY KEY,
			level INT NOT NULL CHECK (level >= 0 AND level <= 14),
			text TEXT NOT NULL UNIQUE,
			answer1 VARCHAR(255) NOT NULL,
			answer2 VARCHAR(255) NOT NULL,
			answer3 VARCHAR(255) NOT NULL,
			answer4 VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_questions_level ON questions(level);
	`)
	if err != nil {
		return err
	}

	// games: status is derived from these columns, never stored.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			current_level INT NOT NULL DEFAULT 0,
			is_failed BOOLEAN NOT NULL DEFAULT FALSE,
			finished_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_games_user ON games(user_id);
	`)
	if err != nil {
		return err
	}

	// game_questions: self-contained snapshots. question_id is kept for
	// traceability but carries no FK, so bank edits and deletes never
	// touch a game in progress.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_questions (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			question_id BIGINT NOT NULL,
			level INT NOT NULL,
			text TEXT NOT NULL,
			answer_a VARCHAR(255) NOT NULL,
			answer_b VARCHAR(255) NOT NULL,
			answer_c VARCHAR(255) NOT NULL,
			answer_d VARCHAR(255) NOT NULL,
			correct_key VARCHAR(1) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (game_id, level)
		);
	`)
	if err != nil {
		return err
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
