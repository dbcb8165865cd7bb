// Tests use testcontainers-go to spin up a PostgreSQL container.
package service

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kruglay/khsm/internal/cache"
	"github.com/kruglay/khsm/internal/game"
	"github.com/kruglay/khsm/internal/model"
	"github.com/kruglay/khsm/internal/pkg/lock"
	"github.com/kruglay/khsm/internal/repository"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

type testEnv struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	questions *repository.QuestionRepository
	games     *repository.GameRepository
	svc       *GameService
	rules     *game.Rules
}

// setupTestEnv starts a PostgreSQL container, applies the schema and wires
// a GameService on top. Skips the test if Docker is not available.
func setupTestEnv(t *testing.T, timeLimit time.Duration) *testEnv {
	t.Helper()

	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, repository.Migrate(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	users := repository.NewUserRepository(pool)
	questions := repository.NewQuestionRepository(pool)
	games := repository.NewGameRepository(pool)
	rules := game.NewRules(game.DefaultPrizeTable(), timeLimit)

	return &testEnv{
		pool:      pool,
		users:     users,
		questions: questions,
		games:     games,
		svc:       NewGameService(users, questions, games, rules, lock.NewGameLock()),
		rules:     rules,
	}
}

// seedBank stores one question per level. The correct answer text is always
// "right", so tests can find the correct key on any shuffled snapshot.
func (e *testEnv) seedBank(t *testing.T) {
	t.Helper()
	for level := 0; level <= model.MaxQuestionLevel; level++ {
		_, err := e.questions.Create(context.Background(), &model.Question{
			Level:   level,
			Text:    fmt.Sprintf("bank question at level %d", level),
			Answer1: "right",
			Answer2: "wrong 1",
			Answer3: "wrong 2",
			Answer4: "wrong 3",
		})
		require.NoError(t, err)
	}
}

func (e *testEnv) newUser(t *testing.T, name, email string) *model.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), name, email)
	require.NoError(t, err)
	return user
}

// correctKey finds the key the shuffle put the correct answer under.
func correctKey(t *testing.T, g *model.Game, level int) string {
	t.Helper()
	for _, gq := range g.Questions {
		if gq.Level != level {
			continue
		}
		for _, key := range model.AnswerKeys() {
			if text, ok := gq.AnswerText(key); ok && text == "right" {
				return key
			}
		}
	}
	t.Fatalf("no snapshot with a correct answer at level %d", level)
	return ""
}

// wrongKey finds a key that is not the correct one at the given level.
func wrongKey(t *testing.T, g *model.Game, level int) string {
	t.Helper()
	right := correctKey(t, g, level)
	for _, key := range model.AnswerKeys() {
		if key != right {
			return key
		}
	}
	t.Fatal("unreachable")
	return ""
}

func TestGameService_CreateGameForUser(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")

	bankBefore, err := env.questions.Count(ctx)
	require.NoError(t, err)

	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, g.Questions, model.MaxQuestionLevel+1)
	for level, gq := range g.Questions {
		assert.Equal(t, level, gq.Level, "one snapshot per level, in order")
		assert.NotEmpty(t, gq.Text)
		_, ok := gq.AnswerText(gq.CorrectKey)
		assert.True(t, ok)
	}
	assert.Equal(t, game.StatusInProgress, env.rules.Status(g))

	// snapshots are copies, the bank is untouched
	bankAfter, err := env.questions.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, bankBefore, bankAfter)

	// no balance change on game creation
	user, err = env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, user.Balance)
}

func TestGameService_CreateGameForUserInsufficientBank(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	// bank covers only one level
	_, err := env.questions.Create(ctx, &model.Question{
		Level: 0, Text: "the only question",
		Answer1: "right", Answer2: "w1", Answer3: "w2", Answer4: "w3",
	})
	require.NoError(t, err)

	user := env.newUser(t, "alice", "alice@example.com")

	_, err = env.svc.CreateGameForUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrInsufficientQuestions)

	var gameCount int
	require.NoError(t, env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM games`).Scan(&gameCount))
	assert.Zero(t, gameCount, "no partial game row")
}

func TestGameService_AnswerAdvances(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")
	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	correct, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, correctKey(t, g, 0))
	require.NoError(t, err)
	assert.True(t, correct)

	got, err := env.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentLevel)
	assert.Equal(t, game.StatusInProgress, env.rules.Status(got))
}

func TestGameService_WrongAnswerCreditsFireproof(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")
	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	// clear levels 0..4, then miss on level 5
	for level := 0; level < 5; level++ {
		correct, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, correctKey(t, g, level))
		require.NoError(t, err)
		require.True(t, correct)
	}
	correct, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, wrongKey(t, g, 5))
	require.NoError(t, err)
	assert.False(t, correct)

	got, err := env.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFail, env.rules.Status(got))
	assert.Equal(t, int64(1000), env.rules.Prize(got))

	user, err = env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), user.Balance, "fireproof prize credited")
}

func TestGameService_TakeMoney(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")
	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	for level := 0; level < 2; level++ {
		_, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, correctKey(t, g, level))
		require.NoError(t, err)
	}

	prize, err := env.svc.TakeMoney(ctx, g.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), prize, "prize for the last cleared level")

	got, err := env.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusMoney, env.rules.Status(got))
	assert.Equal(t, prize, env.rules.Prize(got))

	user, err = env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, prize, user.Balance)

	// a finished game cannot be cashed out again
	_, err = env.svc.TakeMoney(ctx, g.ID, user.ID)
	assert.ErrorIs(t, err, game.ErrNoCurrentQuestion)
}

func TestGameService_FullWin(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")
	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	for level := 0; level <= model.MaxQuestionLevel; level++ {
		correct, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, correctKey(t, g, level))
		require.NoError(t, err)
		require.True(t, correct, "level %d", level)
	}

	got, err := env.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusWon, env.rules.Status(got))
	assert.Equal(t, int64(1000000), env.rules.Prize(got))

	user, err = env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), user.Balance)
}

func TestGameService_AnswerOnFinishedGameIsNoop(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")
	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	_, err = env.svc.TakeMoney(ctx, g.ID, user.ID)
	require.NoError(t, err)

	correct, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, correctKey(t, g, 0))
	require.NoError(t, err)
	assert.False(t, correct)

	got, err := env.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusMoney, env.rules.Status(got))
	assert.Zero(t, got.CurrentLevel)

	user, err = env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, user.Balance, "no second credit")
}

func TestGameService_AnswerAfterTimeLimit(t *testing.T) {
	env := setupTestEnv(t, time.Nanosecond)
	ctx := context.Background()

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")
	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	correct, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, correctKey(t, g, 0))
	require.NoError(t, err)
	assert.False(t, correct, "late answers never count, even correct ones")

	got, err := env.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusTimeout, env.rules.Status(got))
	assert.Zero(t, env.rules.Prize(got), "no fireproof level cleared")
}

func TestGameService_OwnershipEnforced(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	env.seedBank(t)
	owner := env.newUser(t, "alice", "alice@example.com")
	intruder := env.newUser(t, "bob", "bob@example.com")

	g, err := env.svc.CreateGameForUser(ctx, owner.ID)
	require.NoError(t, err)

	_, err = env.svc.AnswerCurrentQuestion(ctx, g.ID, intruder.ID, correctKey(t, g, 0))
	assert.ErrorIs(t, err, ErrNotGameOwner)
	_, err = env.svc.TakeMoney(ctx, g.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrNotGameOwner)

	got, err := env.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentLevel)
	assert.False(t, got.Finished())
}

func TestGameService_LeaderboardRefreshOnFinish(t *testing.T) {
	env := setupTestEnv(t, game.DefaultTimeLimit)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	env.svc.SetLeaderboard(cache.NewLeaderboard(client))

	env.seedBank(t)
	user := env.newUser(t, "alice", "alice@example.com")
	g, err := env.svc.CreateGameForUser(ctx, user.ID)
	require.NoError(t, err)

	for level := 0; level < 3; level++ {
		_, err := env.svc.AnswerCurrentQuestion(ctx, g.ID, user.ID, correctKey(t, g, level))
		require.NoError(t, err)
	}
	prize, err := env.svc.TakeMoney(ctx, g.ID, user.ID)
	require.NoError(t, err)

	entries, err := cache.NewLeaderboard(client).Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, user.ID, entries[0].UserID)
	assert.Equal(t, "alice", entries[0].Name)
	assert.Equal(t, prize, entries[0].Balance)
}
