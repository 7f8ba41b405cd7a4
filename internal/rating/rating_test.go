package rating

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func repos(t *testing.T) map[string]Repository {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rr, err := NewRedisRepository(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedisRepository: %v", err)
	}
	t.Cleanup(func() { _ = rr.Close() })
	return map[string]Repository{"memory": NewMemoryRepository(), "redis": rr}
}

func TestGetDefaultsWithoutCreating(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if r, err := repo.Get(ctx, "ghost"); err != nil || r != DefaultRating {
				t.Fatalf("Get(ghost) = %d, %v; want %d", r, err, DefaultRating)
			}
			// a second lookup still sees the default, not a created entry
			if r, _ := repo.Get(ctx, "ghost"); r != DefaultRating {
				t.Fatalf("lookup mutated the store: %d", r)
			}
		})
	}
}

func TestRegisterThenGet(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := repo.Register(ctx, "alice", 1700); err != nil {
				t.Fatalf("Register: %v", err)
			}
			if r, _ := repo.Get(ctx, "alice"); r != 1700 {
				t.Fatalf("Get(alice) = %d, want 1700", r)
			}
		})
	}
}

func TestApplyDecisive(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// both unseen: equal ratings, loser keeps theirs
			adj, err := repo.ApplyDecisive(ctx, "w1", "l1")
			if err != nil {
				t.Fatalf("ApplyDecisive: %v", err)
			}
			if adj.WinnerRating != DefaultRating+5 || adj.WinnerDelta != 5 {
				t.Fatalf("winner = %+v, want +5", adj)
			}
			if adj.LoserRating != DefaultRating || adj.LoserDelta != 0 {
				t.Fatalf("equal-rated loser penalized: %+v", adj)
			}

			// the favored side lost: drops 4
			_ = repo.Register(ctx, "fav", 1600)
			_ = repo.Register(ctx, "dog", 1500)
			adj, err = repo.ApplyDecisive(ctx, "dog", "fav")
			if err != nil {
				t.Fatalf("ApplyDecisive: %v", err)
			}
			if adj.LoserRating != 1596 || adj.LoserDelta != -4 {
				t.Fatalf("favored loser = %+v, want 1596", adj)
			}
			if adj.WinnerRating != 1505 {
				t.Fatalf("winner = %+v, want 1505", adj)
			}
		})
	}
}

func TestLoserNeverDropsBelowFloor(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = repo.Register(ctx, "low", 3)
			_ = repo.Register(ctx, "lower", 2)
			adj, err := repo.ApplyDecisive(ctx, "lower", "low")
			if err != nil {
				t.Fatalf("ApplyDecisive: %v", err)
			}
			if adj.LoserRating < Floor {
				t.Fatalf("loser rating %d below floor %d", adj.LoserRating, Floor)
			}
			if adj.LoserRating != Floor {
				t.Fatalf("loser rating = %d, want clamped to %d", adj.LoserRating, Floor)
			}
		})
	}
}
