package match

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/engine"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/game"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/obslog"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/rating"
)

var (
	ErrInvalidArgs     = errors.New("invalid arguments")
	ErrSessionNotFound = errors.New("session not found")
)

// Notifier delivers best-effort push messages to players. Failures are
// the notifier's problem; the manager never blocks or rolls back on
// them.
type Notifier interface {
	MatchFound(ctx context.Context, playerID, sessionID, color, opponentName string)
	GameFinished(ctx context.Context, playerID, sessionID string, result game.Result)
}

// MatchState is the answer to enqueue-and-match and poll-match.
type MatchState struct {
	Matched   bool
	SessionID string
	Color     engine.Color
	Opponent  game.Player
	Position  string
}

// SessionView is a session snapshot paired with live ratings.
type SessionView struct {
	Snapshot    game.Snapshot
	WhiteRating int
	BlackRating int
}

// Manager owns the waiting queue, the session map and the rating
// updates. One mutex guards queue and session-map mutation so a join
// plus pairing is atomic: no two concurrent joiners can both pair with
// the same third entry. Individual sessions carry their own lock, so
// games proceed fully in parallel. Sessions are never removed; finished
// games stay pollable for the life of the process.
type Manager struct {
	ratings     rating.Repository
	moveTimeout time.Duration
	notifier    Notifier
	repo        *Repository

	mu       sync.Mutex
	queue    map[string]*QueueEntry
	sessions map[string]*game.Session
}

func NewManager(ratings rating.Repository, moveTimeout time.Duration) *Manager {
	return &Manager{
		ratings:     ratings,
		moveTimeout: moveTimeout,
		queue:       make(map[string]*QueueEntry),
		sessions:    make(map[string]*game.Session),
	}
}

// AttachNotifier wires a push notifier for pairing and finish events.
func (m *Manager) AttachNotifier(n Notifier) {
	if m != nil {
		m.notifier = n
	}
}

// AttachRepository wires a database repository for archiving finished
// games.
func (m *Manager) AttachRepository(r *Repository) {
	if m != nil {
		m.repo = r
	}
}

// Join enqueues the player and attempts to pair them with the
// closest-rated waiting opponent. When the player already has a game in
// progress that game is returned instead of queueing a second one.
func (m *Manager) Join(ctx context.Context, playerID, displayName string, ratingHint int) (*MatchState, error) {
	playerID = strings.TrimSpace(playerID)
	displayName = strings.TrimSpace(displayName)
	if playerID == "" || displayName == "" {
		return nil, ErrInvalidArgs
	}

	r, err := m.ratings.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if ratingHint > 0 && r == rating.DefaultRating {
		// a hint on a never-adjusted identity counts as explicit registration
		if err := m.ratings.Register(ctx, playerID, ratingHint); err != nil {
			return nil, err
		}
		r = ratingHint
	}

	now := time.Now()
	m.mu.Lock()
	if s := m.activeSessionLocked(playerID); s != nil {
		m.mu.Unlock()
		return m.stateFor(s, playerID), nil
	}
	m.queue[playerID] = &QueueEntry{ID: playerID, Name: displayName, Rating: r, EnqueuedAt: now}
	opp := bestCandidate(m.queue, playerID, r)
	if opp == nil {
		m.mu.Unlock()
		obslog.L().Info("queue_wait", zap.String("player_id", playerID), zap.Int("rating", r))
		return &MatchState{}, nil
	}
	delete(m.queue, playerID)
	delete(m.queue, opp.ID)

	white := game.Player{ID: playerID, Name: displayName, Rating: r}
	black := game.Player{ID: opp.ID, Name: opp.Name, Rating: opp.Rating}
	if coinFlip() {
		white, black = black, white
	}
	s := game.NewSession(uuid.NewString(), white, black, now)
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	obslog.L().Info("match_created",
		zap.String("session_id", s.ID()),
		zap.String("white_id", white.ID),
		zap.String("black_id", black.ID),
		zap.Int("white_rating", white.Rating),
		zap.Int("black_rating", black.Rating),
	)
	if m.notifier != nil {
		go m.notifier.MatchFound(context.WithoutCancel(ctx), white.ID, s.ID(), engine.White.String(), black.Name)
		go m.notifier.MatchFound(context.WithoutCancel(ctx), black.ID, s.ID(), engine.Black.String(), white.Name)
	}
	return m.stateFor(s, playerID), nil
}

// Poll scans active, non-finished sessions for the player's membership,
// recognizing any pending forfeit first.
func (m *Manager) Poll(ctx context.Context, playerID string) (*MatchState, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrInvalidArgs
	}
	m.mu.Lock()
	candidates := make([]*game.Session, 0, 1)
	for _, s := range m.sessions {
		if s.Participant(playerID) {
			candidates = append(candidates, s)
		}
	}
	m.mu.Unlock()

	for _, s := range candidates {
		m.recognizeTimeout(ctx, s)
		if s.Status() == game.StatusInProgress {
			return m.stateFor(s, playerID), nil
		}
	}
	return &MatchState{}, nil
}

// Session returns the live view of one session, recognizing any pending
// forfeit first.
func (m *Manager) Session(ctx context.Context, sessionID string) (*SessionView, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	m.recognizeTimeout(ctx, s)
	return m.view(ctx, s), nil
}

// SubmitMove applies one parsed move on behalf of playerID. Sentinel
// errors from the game package pass through unchanged; the transport
// layer maps them to rejection codes.
func (m *Manager) SubmitMove(ctx context.Context, sessionID, playerID string, mv engine.Move) (*SessionView, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	out, moveErr := s.AttemptMove(strings.TrimSpace(playerID), mv, time.Now(), m.moveTimeout)
	if out != nil && out.Ended != nil {
		m.settle(ctx, s, out.Ended)
	}
	if moveErr != nil {
		return nil, moveErr
	}
	obslog.L().Info("move_applied",
		zap.String("session_id", sessionID),
		zap.String("player_id", playerID),
		zap.String("move", out.Applied.String()),
	)
	return m.view(ctx, s), nil
}

// Rating returns the live rating of an identity, default for unseen.
func (m *Manager) Rating(ctx context.Context, playerID string) (int, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return 0, ErrInvalidArgs
	}
	return m.ratings.Get(ctx, playerID)
}

func (m *Manager) lookup(sessionID string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[strings.TrimSpace(sessionID)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) activeSessionLocked(playerID string) *game.Session {
	for _, s := range m.sessions {
		if s.Participant(playerID) && s.Status() == game.StatusInProgress {
			return s
		}
	}
	return nil
}

// recognizeTimeout applies the passive forfeit check and settles the
// result when this call performed the transition.
func (m *Manager) recognizeTimeout(ctx context.Context, s *game.Session) {
	if res := s.CheckTimeout(time.Now(), m.moveTimeout); res != nil {
		m.settle(ctx, s, res)
	}
}

// settle runs exactly once per finished session, on whichever request
// performed the terminal transition: rating adjustment for decisive
// outcomes, archive write, push notifications.
func (m *Manager) settle(ctx context.Context, s *game.Session, res *game.Result) {
	snap := s.Snapshot()
	obslog.L().Info("game_finished",
		zap.String("session_id", snap.ID),
		zap.String("reason", string(res.Reason)),
		zap.String("winner", res.Winner),
		zap.String("loser", res.Loser),
	)
	if res.Decisive() {
		adj, err := m.ratings.ApplyDecisive(ctx, res.Winner, res.Loser)
		if err != nil {
			obslog.L().Error("rating_adjust_error", zap.String("session_id", snap.ID), zap.Error(err))
		} else {
			obslog.L().Info("rating_adjusted",
				zap.String("winner", adj.WinnerID), zap.Int("winner_rating", adj.WinnerRating),
				zap.String("loser", adj.LoserID), zap.Int("loser_rating", adj.LoserRating),
			)
		}
	}
	if m.repo != nil {
		go func() {
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := m.repo.SaveResult(actx, snap); err != nil {
				obslog.L().Error("game_archive_error", zap.String("session_id", snap.ID), zap.Error(err))
			}
		}()
	}
	if m.notifier != nil {
		nctx := context.WithoutCancel(ctx)
		go m.notifier.GameFinished(nctx, snap.White.ID, snap.ID, *res)
		go m.notifier.GameFinished(nctx, snap.Black.ID, snap.ID, *res)
	}
}

func (m *Manager) stateFor(s *game.Session, playerID string) *MatchState {
	snap := s.Snapshot()
	st := &MatchState{Matched: true, SessionID: snap.ID, Position: snap.Position}
	if snap.White.ID == playerID {
		st.Color, st.Opponent = engine.White, snap.Black
	} else {
		st.Color, st.Opponent = engine.Black, snap.White
	}
	return st
}

func (m *Manager) view(ctx context.Context, s *game.Session) *SessionView {
	snap := s.Snapshot()
	v := &SessionView{Snapshot: snap, WhiteRating: snap.White.Rating, BlackRating: snap.Black.Rating}
	if r, err := m.ratings.Get(ctx, snap.White.ID); err == nil {
		v.WhiteRating = r
	}
	if r, err := m.ratings.Get(ctx, snap.Black.ID); err == nil {
		v.BlackRating = r
	}
	return v
}

// coinFlip assigns colors without bias, crypto/rand backed.
func coinFlip() bool {
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	return err == nil && n.Int64() == 1
}
