package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/engine"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/game"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/rating"
)

func newTestManager(timeout time.Duration) *Manager {
	return NewManager(rating.NewMemoryRepository(), timeout)
}

func TestJoinWaitsWhenNoCandidate(t *testing.T) {
	m := newTestManager(time.Minute)
	st, err := m.Join(context.Background(), "alice", "Alice", 0)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if st.Matched {
		t.Fatalf("lone joiner reported matched")
	}
	if _, ok := m.queue["alice"]; !ok {
		t.Fatalf("joiner missing from queue")
	}

	// re-joining while waiting overwrites the entry in place
	first := m.queue["alice"].EnqueuedAt
	time.Sleep(2 * time.Millisecond)
	if _, err := m.Join(context.Background(), "alice", "Alice II", 0); err != nil {
		t.Fatalf("re-join: %v", err)
	}
	e := m.queue["alice"]
	if len(m.queue) != 1 || e.Name != "Alice II" || !e.EnqueuedAt.After(first) {
		t.Fatalf("re-join did not overwrite entry: %+v", e)
	}
}

func TestPairingPrefersClosestRating(t *testing.T) {
	m := newTestManager(time.Minute)
	now := time.Now()
	m.queue["near"] = &QueueEntry{ID: "near", Name: "Near", Rating: 1500, EnqueuedAt: now}
	m.queue["far"] = &QueueEntry{ID: "far", Name: "Far", Rating: 2000, EnqueuedAt: now.Add(-time.Minute)}

	st, err := m.Join(context.Background(), "joiner", "Joiner", 1510)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !st.Matched || st.Opponent.ID != "near" {
		t.Fatalf("state = %+v, want paired with near", st)
	}
	if _, ok := m.queue["far"]; !ok {
		t.Fatalf("unpaired entry removed from queue")
	}
	if len(m.queue) != 1 {
		t.Fatalf("queue size = %d, want 1", len(m.queue))
	}
}

func TestPairingTieBreaksOnEnqueueTime(t *testing.T) {
	m := newTestManager(time.Minute)
	now := time.Now()
	m.queue["old"] = &QueueEntry{ID: "old", Name: "Old", Rating: 1490, EnqueuedAt: now.Add(-time.Hour)}
	m.queue["new"] = &QueueEntry{ID: "new", Name: "New", Rating: 1510, EnqueuedAt: now}

	st, err := m.Join(context.Background(), "joiner", "Joiner", 1500)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !st.Matched || st.Opponent.ID != "old" {
		t.Fatalf("state = %+v, want tie broken toward earliest waiter", st)
	}
}

func TestJoinReturnsActiveGameInsteadOfRequeueing(t *testing.T) {
	m := newTestManager(time.Minute)
	ctx := context.Background()
	if _, err := m.Join(ctx, "a", "A", 0); err != nil {
		t.Fatalf("Join a: %v", err)
	}
	st, err := m.Join(ctx, "b", "B", 0)
	if err != nil || !st.Matched {
		t.Fatalf("Join b = %+v, %v; want match", st, err)
	}
	again, err := m.Join(ctx, "a", "A", 0)
	if err != nil {
		t.Fatalf("Join a again: %v", err)
	}
	if !again.Matched || again.SessionID != st.SessionID {
		t.Fatalf("second join = %+v, want existing session %s", again, st.SessionID)
	}
	if len(m.queue) != 0 {
		t.Fatalf("queue not empty after rejoin: %d", len(m.queue))
	}
}

// pairedGame joins two players and reports the session id plus the
// white and black player ids.
func pairedGame(t *testing.T, m *Manager) (sessionID, whiteID, blackID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := m.Join(ctx, "p1", "P1", 0); err != nil {
		t.Fatalf("Join p1: %v", err)
	}
	st, err := m.Join(ctx, "p2", "P2", 0)
	if err != nil || !st.Matched {
		t.Fatalf("Join p2 = %+v, %v", st, err)
	}
	if st.Color == engine.White {
		return st.SessionID, "p2", "p1"
	}
	return st.SessionID, "p1", "p2"
}

func move(t *testing.T, m *Manager, sid, player, text string) (*SessionView, error) {
	t.Helper()
	mv, err := engine.ParseMove(text)
	if err != nil {
		t.Fatalf("ParseMove(%s): %v", text, err)
	}
	return m.SubmitMove(context.Background(), sid, player, mv)
}

func TestCheckmateSettlesRatings(t *testing.T) {
	m := newTestManager(time.Minute)
	sid, white, black := pairedGame(t, m)

	seq := []struct{ player, text string }{
		{white, "f2f3"}, {black, "e7e5"}, {white, "g2g4"}, {black, "d8h4"},
	}
	var last *SessionView
	for _, st := range seq {
		v, err := move(t, m, sid, st.player, st.text)
		if err != nil {
			t.Fatalf("SubmitMove(%s, %s): %v", st.player, st.text, err)
		}
		last = v
	}
	if last.Snapshot.Status != game.StatusFinished || last.Snapshot.Result.Reason != game.ReasonCheckmate {
		t.Fatalf("final snapshot = %+v, want checkmate finish", last.Snapshot.Result)
	}
	if last.Snapshot.Result.Winner != black {
		t.Fatalf("winner = %s, want %s", last.Snapshot.Result.Winner, black)
	}

	ctx := context.Background()
	wr, _ := m.Rating(ctx, black)
	lr, _ := m.Rating(ctx, white)
	if wr != rating.DefaultRating+5 {
		t.Fatalf("winner rating = %d, want %d", wr, rating.DefaultRating+5)
	}
	if lr != rating.DefaultRating {
		t.Fatalf("equal-rated loser rating = %d, want unchanged", lr)
	}

	// a finished session stays pollable by id but is no longer "active"
	if v, err := m.Session(ctx, sid); err != nil || v.Snapshot.Status != game.StatusFinished {
		t.Fatalf("Session after finish = %+v, %v", v, err)
	}
	st, err := m.Poll(ctx, white)
	if err != nil || st.Matched {
		t.Fatalf("Poll after finish = %+v, %v; want unmatched", st, err)
	}
}

func TestSubmitMoveErrors(t *testing.T) {
	m := newTestManager(time.Minute)
	sid, white, _ := pairedGame(t, m)
	mv, _ := engine.ParseMove("e2e4")

	if _, err := m.SubmitMove(context.Background(), "nope", white, mv); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown session err = %v", err)
	}
	if _, err := m.SubmitMove(context.Background(), sid, "stranger", mv); !errors.Is(err, game.ErrNotParticipant) {
		t.Fatalf("stranger err = %v", err)
	}
	bad, _ := engine.ParseMove("e2e5")
	if _, err := m.SubmitMove(context.Background(), sid, white, bad); !errors.Is(err, game.ErrIllegalMove) {
		t.Fatalf("illegal err = %v", err)
	}
}

func TestTimeoutRecognizedOnPoll(t *testing.T) {
	m := newTestManager(30 * time.Millisecond)
	_, white, black := pairedGame(t, m)
	time.Sleep(50 * time.Millisecond)

	st, err := m.Poll(context.Background(), white)
	if err != nil || st.Matched {
		t.Fatalf("Poll = %+v, %v; want forfeited game gone from active set", st, err)
	}

	ctx := context.Background()
	br, _ := m.Rating(ctx, black)
	if br != rating.DefaultRating+5 {
		t.Fatalf("timeout winner rating = %d, want %d", br, rating.DefaultRating+5)
	}
}
