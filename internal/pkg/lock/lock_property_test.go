package lock

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// TestGameLockMutualExclusionProperty checks that for any game ID and any
// number of concurrent writers, increments guarded by WithLock never race.
func TestGameLockMutualExclusionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gl := NewGameLock()
		gameID := rapid.Int64Range(1, 1000000).Draw(t, "gameID")
		writers := rapid.IntRange(2, 16).Draw(t, "writers")
		iterations := rapid.IntRange(1, 50).Draw(t, "iterations")

		var counter int
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					_ = gl.WithLock(gameID, func() error {
						counter++
						return nil
					})
				}
			}()
		}
		wg.Wait()

		if counter != writers*iterations {
			t.Fatalf("lost updates: got %d, want %d", counter, writers*iterations)
		}
	})
}

// TestGameLockIndependentGamesProperty checks that locks for different game
// IDs do not block each other.
func TestGameLockIndependentGamesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gl := NewGameLock()
		idA := rapid.Int64Range(1, 1000000).Draw(t, "idA")
		idB := idA + rapid.Int64Range(1, 1000).Draw(t, "offset")

		gl.Lock(idA)
		defer gl.Unlock(idA)

		if !gl.TryLock(idB) {
			t.Fatalf("lock for game %d blocked by lock for game %d", idB, idA)
		}
		gl.Unlock(idB)
	})
}

func TestGameLockTryLock(t *testing.T) {
	gl := NewGameLock()

	if !gl.TryLock(7) {
		t.Fatal("first TryLock should succeed")
	}
	if gl.TryLock(7) {
		t.Fatal("second TryLock on a held lock should fail")
	}
	gl.Unlock(7)
	if !gl.TryLock(7) {
		t.Fatal("TryLock after Unlock should succeed")
	}
	gl.Unlock(7)
}
