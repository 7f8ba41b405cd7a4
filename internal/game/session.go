package game

import (
	"errors"
	"sync"
	"time"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/engine"
)

// Status represents the session lifecycle state. Finished is terminal.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Reason explains why a session finished.
type Reason string

const (
	ReasonCheckmate Reason = "checkmate"
	ReasonStalemate Reason = "stalemate"
	ReasonTimeout   Reason = "timeout"
)

var (
	ErrNotParticipant = errors.New("player is not a participant of this game")
	ErrGameOver       = errors.New("game is already over")
	ErrOutOfTurn      = errors.New("not this player's turn")
	ErrIllegalMove    = errors.New("illegal move")
)

// Player is one seat of a session. Rating is the value observed at
// pairing time; live ratings are resolved by the orchestrator.
type Player struct {
	ID     string
	Name   string
	Rating int
}

// Result records the terminal outcome. Winner and Loser are empty for a
// stalemate.
type Result struct {
	Winner string
	Loser  string
	Reason Reason
}

// Decisive reports whether the result should adjust ratings.
func (r *Result) Decisive() bool {
	return r != nil && r.Reason != ReasonStalemate
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID         string
	White      Player
	Black      Player
	Position   string
	Turn       engine.Color
	Moves      []string
	Status     Status
	Result     *Result
	CreatedAt  time.Time
	LastMoveAt time.Time
}

// MoveOutcome reports what a move attempt did. Ended is non-nil exactly
// when this call transitioned the session to finished, whether by the
// move itself or by a forfeit deadline recognized before it.
type MoveOutcome struct {
	Applied engine.Move
	Ended   *Result
}

// Session is one active contest between two identities. All mutation
// runs under the session mutex; sessions are never destroyed so that
// finished games stay pollable.
type Session struct {
	mu sync.Mutex

	id         string
	white      Player
	black      Player
	eng        *engine.Engine
	status     Status
	result     *Result
	createdAt  time.Time
	lastMoveAt time.Time
}

func NewSession(id string, white, black Player, now time.Time) *Session {
	return &Session{
		id:         id,
		white:      white,
		black:      black,
		eng:        engine.New(),
		status:     StatusInProgress,
		createdAt:  now,
		lastMoveAt: now,
	}
}

func (s *Session) ID() string { return s.id }

// Participant reports whether id holds a seat.
func (s *Session) Participant(id string) bool {
	return id == s.white.ID || id == s.black.ID
}

func (s *Session) seatColor(id string) (engine.Color, bool) {
	switch id {
	case s.white.ID:
		return engine.White, true
	case s.black.ID:
		return engine.Black, true
	}
	return engine.White, false
}

// AttemptMove validates and applies one move for playerID. The forfeit
// deadline is re-checked first under the same lock, so a move arriving
// after the deadline consistently loses the race: the session finishes
// by timeout and the move is rejected with ErrGameOver (the returned
// outcome still carries the fresh timeout result so the caller can
// settle it). On any error the position is left exactly as it was.
func (s *Session) AttemptMove(playerID string, mv engine.Move, now time.Time, timeout time.Duration) (*MoveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.seatColor(playerID)
	if !ok {
		return nil, ErrNotParticipant
	}
	if fresh := s.expireLocked(now, timeout); fresh != nil {
		return &MoveOutcome{Ended: fresh}, ErrGameOver
	}
	if s.status == StatusFinished {
		return nil, ErrGameOver
	}
	if color != s.eng.Turn() {
		return nil, ErrOutOfTurn
	}

	applied, err := s.eng.Apply(mv)
	if err != nil {
		return nil, ErrIllegalMove
	}
	s.lastMoveAt = now

	out := &MoveOutcome{Applied: applied}
	switch {
	case s.eng.Checkmate():
		opponent := s.black
		mover := s.white
		if color == engine.Black {
			opponent, mover = s.white, s.black
		}
		out.Ended = s.finishLocked(&Result{Winner: mover.ID, Loser: opponent.ID, Reason: ReasonCheckmate})
	case s.eng.Stalemate():
		out.Ended = s.finishLocked(&Result{Reason: ReasonStalemate})
	}
	return out, nil
}

// CheckTimeout finishes the session as a forfeit when no move has
// arrived within timeout. The side on move loses. It returns the result
// only when this call performed the transition; calling again after
// termination is a no-op.
func (s *Session) CheckTimeout(now time.Time, timeout time.Duration) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked(now, timeout)
}

func (s *Session) expireLocked(now time.Time, timeout time.Duration) *Result {
	if s.status != StatusInProgress || timeout <= 0 {
		return nil
	}
	if now.Sub(s.lastMoveAt) <= timeout {
		return nil
	}
	forfeiting, winner := s.white, s.black
	if s.eng.Turn() == engine.Black {
		forfeiting, winner = s.black, s.white
	}
	return s.finishLocked(&Result{Winner: winner.ID, Loser: forfeiting.ID, Reason: ReasonTimeout})
}

func (s *Session) finishLocked(r *Result) *Result {
	s.status = StatusFinished
	s.result = r
	return r
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a consistent read-only view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist := s.eng.History()
	moves := make([]string, len(hist))
	for i, m := range hist {
		moves[i] = m.String()
	}
	var res *Result
	if s.result != nil {
		c := *s.result
		res = &c
	}
	return Snapshot{
		ID:         s.id,
		White:      s.white,
		Black:      s.black,
		Position:   s.eng.Serialize(),
		Turn:       s.eng.Turn(),
		Moves:      moves,
		Status:     s.status,
		Result:     res,
		CreatedAt:  s.createdAt,
		LastMoveAt: s.lastMoveAt,
	}
}
