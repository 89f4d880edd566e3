package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLiveStoreSetsAndClearsLivenessKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLiveStore(newClient(mr), time.Minute)

	live := store.GetOrCreate(1)
	if live == nil {
		t.Fatal("expected live session")
	}
	if !mr.Exists("quiz:live:1") {
		t.Fatal("expected liveness key to be set")
	}

	// Repeated calls return the same session.
	if again := store.GetOrCreate(1); again != live {
		t.Fatal("expected the same live session instance")
	}
	if got, ok := store.Get(1); !ok || got != live {
		t.Fatal("expected Get to resolve the live session")
	}

	store.Delete(1)
	if mr.Exists("quiz:live:1") {
		t.Fatal("expected liveness key removed")
	}
	if _, ok := store.Get(1); ok {
		t.Fatal("expected live session removed")
	}
}
