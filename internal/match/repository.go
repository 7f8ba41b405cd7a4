package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/game"
)

// Repository archives finished games to Postgres. It is optional wiring:
// the orchestrator works without it and archive failures are logged,
// never surfaced to players.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts one finished game.
func (r *Repository) SaveResult(ctx context.Context, snap game.Snapshot) error {
	if r == nil || r.db == nil || snap.Result == nil {
		return nil
	}

	result := resultToken(snap)
	movesRaw, _ := json.Marshal(snap.Moves)
	duration := snap.LastMoveAt.Sub(snap.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO chess_games (
	    game_id, white_id, white_name, black_id, black_name,
	    result, reason, moves, record,
	    started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
	  ) ON CONFLICT (game_id) DO UPDATE SET
	    result=EXCLUDED.result,
	    reason=EXCLUDED.reason,
	    moves=EXCLUDED.moves,
	    record=EXCLUDED.record,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		snap.ID,
		snap.White.ID, snap.White.Name,
		snap.Black.ID, snap.Black.Name,
		result, string(snap.Result.Reason), string(movesRaw), buildRecord(snap, result),
		snap.CreatedAt, snap.LastMoveAt, duration,
	)
	if err != nil {
		return fmt.Errorf("insert chess game: %w", err)
	}
	return nil
}

func resultToken(snap game.Snapshot) string {
	switch {
	case snap.Result == nil:
		return ""
	case snap.Result.Winner == snap.White.ID:
		return "white"
	case snap.Result.Winner == snap.Black.ID:
		return "black"
	default:
		return "draw"
	}
}

func scoreToken(result string) string {
	switch result {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

// buildRecord renders a numbered move transcript from the stored move
// texts, ending with the conventional score token.
func buildRecord(snap game.Snapshot, result string) string {
	var b strings.Builder
	for i := 0; i < len(snap.Moves); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, snap.Moves[i])
		if i+1 < len(snap.Moves) {
			b.WriteString(" ")
			b.WriteString(snap.Moves[i+1])
		}
		b.WriteString(" ")
	}
	b.WriteString(scoreToken(result))
	return b.String()
}
