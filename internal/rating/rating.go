package rating

import (
	"context"
	"sync"
)

const (
	// DefaultRating is assumed for identities never seen before.
	DefaultRating = 1500
	// Floor is the lowest rating an adjustment may leave behind.
	Floor = 1

	winnerGain  = 5
	loserPenalty = 4
)

// Adjustment reports the outcome of one decisive-game rating update.
type Adjustment struct {
	WinnerID     string
	LoserID      string
	WinnerRating int
	LoserRating  int
	WinnerDelta  int
	LoserDelta   int
}

// Repository maps identities to integer ratings. Lookups default unseen
// identities to DefaultRating without creating an entry; entries are
// written only by Register or ApplyDecisive and never removed.
type Repository interface {
	// Get returns the rating for id, DefaultRating when unseen.
	Get(ctx context.Context, id string) (int, error)
	// Register writes an explicit rating for id, used for join-time
	// rating hints on identities with no entry yet.
	Register(ctx context.Context, id string, rating int) error
	// ApplyDecisive adjusts both sides for a decisive outcome.
	ApplyDecisive(ctx context.Context, winnerID, loserID string) (Adjustment, error)
}

// adjust applies the house rule: the winner always gains 5; the loser
// drops 4 only when they were rated strictly above the winner before the
// game (the favored side lost), floored at Floor.
func adjust(winnerID, loserID string, winner, loser int) Adjustment {
	a := Adjustment{WinnerID: winnerID, LoserID: loserID}
	a.WinnerRating = winner + winnerGain
	a.WinnerDelta = winnerGain
	a.LoserRating = loser
	if loser > winner {
		a.LoserRating = loser - loserPenalty
		if a.LoserRating < Floor {
			a.LoserRating = Floor
		}
		a.LoserDelta = a.LoserRating - loser
	}
	return a
}

// MemoryRepository is the process-local default implementation.
type MemoryRepository struct {
	mu      sync.RWMutex
	ratings map[string]int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{ratings: make(map[string]int)}
}

func (m *MemoryRepository) Get(_ context.Context, id string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.ratings[id]; ok {
		return r, nil
	}
	return DefaultRating, nil
}

func (m *MemoryRepository) Register(_ context.Context, id string, rating int) error {
	m.mu.Lock()
	m.ratings[id] = rating
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) ApplyDecisive(_ context.Context, winnerID, loserID string) (Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	winner, ok := m.ratings[winnerID]
	if !ok {
		winner = DefaultRating
	}
	loser, ok := m.ratings[loserID]
	if !ok {
		loser = DefaultRating
	}
	a := adjust(winnerID, loserID, winner, loser)
	m.ratings[winnerID] = a.WinnerRating
	m.ratings[loserID] = a.LoserRating
	return a, nil
}
