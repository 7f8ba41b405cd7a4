package httpapi

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/engine"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/game"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/match"
	"github.com/KOVXO3HNK/TelegramChess-Server/pkg/chessdto"
)

func (s *Server) handleJoin(ctx *fasthttp.RequestCtx) {
	var req chessdto.JoinRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, chessdto.DomainError{Code: chessdto.CodeMissingFields, Message: "malformed request body"})
		return
	}
	st, err := s.mgr.Join(ctx, req.PlayerID, req.Name, req.Rating)
	if err != nil {
		writeError(ctx, mapError(err))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toMatchResponse(st))
}

func (s *Server) handlePoll(ctx *fasthttp.RequestCtx) {
	playerID := string(ctx.QueryArgs().Peek("player_id"))
	st, err := s.mgr.Poll(ctx, playerID)
	if err != nil {
		writeError(ctx, mapError(err))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toMatchResponse(st))
}

func (s *Server) handleSession(ctx *fasthttp.RequestCtx, sessionID string) {
	v, err := s.mgr.Session(ctx, sessionID)
	if err != nil {
		writeError(ctx, mapError(err))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toSessionResponse(v))
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx, sessionID string) {
	var req chessdto.MoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, chessdto.DomainError{Code: chessdto.CodeMissingFields, Message: "malformed request body"})
		return
	}
	mv, err := engine.ParseMove(req.Move)
	if err != nil {
		writeError(ctx, chessdto.DomainError{Code: chessdto.CodeMissingFields, Message: "malformed move text"})
		return
	}
	v, err := s.mgr.SubmitMove(ctx, sessionID, req.PlayerID, mv)
	if err != nil {
		writeError(ctx, mapError(err))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toSessionResponse(v))
}

func (s *Server) handleRating(ctx *fasthttp.RequestCtx, playerID string) {
	r, err := s.mgr.Rating(ctx, playerID)
	if err != nil {
		writeError(ctx, mapError(err))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, chessdto.RatingResponse{PlayerID: playerID, Rating: r})
}

func mapError(err error) chessdto.DomainError {
	switch {
	case errors.Is(err, match.ErrSessionNotFound):
		return chessdto.DomainError{Code: chessdto.CodeNotFound, Message: "session not found"}
	case errors.Is(err, match.ErrInvalidArgs):
		return chessdto.DomainError{Code: chessdto.CodeMissingFields, Message: "missing or blank fields"}
	case errors.Is(err, game.ErrNotParticipant):
		return chessdto.DomainError{Code: chessdto.CodeNotParticipant, Message: "not a participant of this game"}
	case errors.Is(err, game.ErrOutOfTurn):
		return chessdto.DomainError{Code: chessdto.CodeOutOfTurn, Message: "not your turn"}
	case errors.Is(err, game.ErrGameOver):
		return chessdto.DomainError{Code: chessdto.CodeGameOver, Message: "the game is already over"}
	case errors.Is(err, game.ErrIllegalMove):
		return chessdto.DomainError{Code: chessdto.CodeIllegalMove, Message: "illegal move"}
	default:
		return chessdto.DomainError{Code: chessdto.CodeInternal, Message: "internal error"}
	}
}

func toMatchResponse(st *match.MatchState) chessdto.MatchResponse {
	if st == nil || !st.Matched {
		return chessdto.MatchResponse{}
	}
	return chessdto.MatchResponse{
		Matched:   true,
		SessionID: st.SessionID,
		Color:     st.Color.String(),
		Opponent:  &chessdto.PlayerInfo{ID: st.Opponent.ID, Name: st.Opponent.Name, Rating: st.Opponent.Rating},
		Position:  st.Position,
	}
}

func toSessionResponse(v *match.SessionView) chessdto.SessionResponse {
	snap := v.Snapshot
	resp := chessdto.SessionResponse{
		SessionID: snap.ID,
		White:     chessdto.PlayerInfo{ID: snap.White.ID, Name: snap.White.Name, Rating: v.WhiteRating},
		Black:     chessdto.PlayerInfo{ID: snap.Black.ID, Name: snap.Black.Name, Rating: v.BlackRating},
		Position:  snap.Position,
		Turn:      snap.Turn.String(),
		Moves:     snap.Moves,
		Status:    string(snap.Status),
	}
	if snap.Result != nil {
		resp.Result = &chessdto.ResultInfo{
			Winner: snap.Result.Winner,
			Loser:  snap.Result.Loser,
			Reason: string(snap.Result.Reason),
		}
	}
	return resp
}
