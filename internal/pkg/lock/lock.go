// Package lock provides per-game locking. Each game is mutated by its
// owner through sequential requests, so the lock only has to serialize the
// occasional double-submit, not sustained contention.
package lock

import "sync"

// gameMutex wraps a mutex so instances can be pooled.
type gameMutex struct {
	mu sync.Mutex
}

// GameLock hands out one mutex per game ID.
type GameLock struct {
	locks sync.Map // map[int64]*gameMutex
	pool  sync.Pool
}

// NewGameLock creates a new GameLock instance.
func NewGameLock() *GameLock {
	return &GameLock{
		pool: sync.Pool{
			New: func() any {
				return &gameMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for the given game ID.
func (gl *GameLock) getLock(gameID int64) *gameMutex {
	if v, ok := gl.locks.Load(gameID); ok {
		return v.(*gameMutex)
	}

	newLock := gl.pool.Get().(*gameMutex)
	actual, loaded := gl.locks.LoadOrStore(gameID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to the pool.
		gl.pool.Put(newLock)
	}
	return actual.(*gameMutex)
}

// Lock acquires the lock for a game.
func (gl *GameLock) Lock(gameID int64) {
	gl.getLock(gameID).mu.Lock()
}

// Unlock releases the lock for a game.
func (gl *GameLock) Unlock(gameID int64) {
	if v, ok := gl.locks.Load(gameID); ok {
		v.(*gameMutex).mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (gl *GameLock) TryLock(gameID int64) bool {
	return gl.getLock(gameID).mu.TryLock()
}

// WithLock executes fn while holding the game's lock.
func (gl *GameLock) WithLock(gameID int64, fn func() error) error {
	gl.Lock(gameID)
	defer gl.Unlock(gameID)
	return fn()
}
