package httpapi

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/match"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/obslog"
	"github.com/KOVXO3HNK/TelegramChess-Server/pkg/chessdto"
)

// Server exposes the matchmaking and game operations over HTTP.
//
//	POST /api/match              enqueue and attempt pairing
//	GET  /api/match?player_id=X  poll for an active game
//	GET  /api/session/{id}       session state
//	POST /api/session/{id}/move  submit a move
//	GET  /api/rating/{id}        current rating
type Server struct {
	mgr *match.Manager
}

func NewServer(mgr *match.Manager) *Server {
	return &Server{mgr: mgr}
}

// Handler is the fasthttp entry point.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/healthz" && method == fasthttp.MethodGet:
		ctx.SetStatusCode(fasthttp.StatusOK)
	case path == "/api/match" && method == fasthttp.MethodPost:
		s.handleJoin(ctx)
	case path == "/api/match" && method == fasthttp.MethodGet:
		s.handlePoll(ctx)
	case strings.HasPrefix(path, "/api/session/"):
		s.routeSession(ctx, strings.TrimPrefix(path, "/api/session/"), method)
	case strings.HasPrefix(path, "/api/rating/") && method == fasthttp.MethodGet:
		s.handleRating(ctx, strings.TrimPrefix(path, "/api/rating/"))
	default:
		writeError(ctx, chessdto.DomainError{Code: chessdto.CodeNotFound, Message: "no such route"})
	}
}

func (s *Server) routeSession(ctx *fasthttp.RequestCtx, rest, method string) {
	switch {
	case method == fasthttp.MethodGet && !strings.Contains(rest, "/"):
		s.handleSession(ctx, rest)
	case method == fasthttp.MethodPost && strings.HasSuffix(rest, "/move"):
		s.handleMove(ctx, strings.TrimSuffix(rest, "/move"))
	default:
		writeError(ctx, chessdto.DomainError{Code: chessdto.CodeNotFound, Message: "no such route"})
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		obslog.L().Error("response_encode_error", zap.Error(err))
	}
}

func writeError(ctx *fasthttp.RequestCtx, derr chessdto.DomainError) {
	writeJSON(ctx, statusFor(derr.Code), chessdto.ErrorResponse{Error: derr})
}

func statusFor(code string) int {
	switch code {
	case chessdto.CodeNotFound:
		return fasthttp.StatusNotFound
	case chessdto.CodeMissingFields, chessdto.CodeIllegalMove:
		return fasthttp.StatusBadRequest
	case chessdto.CodeNotParticipant:
		return fasthttp.StatusForbidden
	case chessdto.CodeOutOfTurn, chessdto.CodeGameOver:
		return fasthttp.StatusConflict
	default:
		return fasthttp.StatusInternalServerError
	}
}
