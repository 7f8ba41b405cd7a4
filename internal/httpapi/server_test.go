package httpapi

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/match"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/rating"
	"github.com/KOVXO3HNK/TelegramChess-Server/pkg/chessdto"
)

func newTestServer() *Server {
	return NewServer(match.NewManager(rating.NewMemoryRepository(), time.Minute))
}

func do(t *testing.T, s *Server, method, uri, body string) *fasthttp.RequestCtx {
	t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	s.Handler(ctx)
	return ctx
}

func decode[T any](t *testing.T, ctx *fasthttp.RequestCtx) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(ctx.Response.Body(), &v); err != nil {
		t.Fatalf("decode %q: %v", ctx.Response.Body(), err)
	}
	return v
}

func errCode(t *testing.T, ctx *fasthttp.RequestCtx) string {
	t.Helper()
	return decode[chessdto.ErrorResponse](t, ctx).Error.Code
}

// pair joins two players and returns the session id plus each player's color.
func pair(t *testing.T, s *Server) (sessionID string, colors map[string]string) {
	t.Helper()
	ctx := do(t, s, "POST", "/api/match", `{"player_id":"p1","name":"P1"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("join p1 status = %d", ctx.Response.StatusCode())
	}
	if decode[chessdto.MatchResponse](t, ctx).Matched {
		t.Fatalf("first joiner matched immediately")
	}
	ctx = do(t, s, "POST", "/api/match", `{"player_id":"p2","name":"P2"}`)
	mr := decode[chessdto.MatchResponse](t, ctx)
	if !mr.Matched || mr.SessionID == "" || mr.Opponent == nil {
		t.Fatalf("second joiner = %+v", mr)
	}
	colors = map[string]string{"p2": mr.Color}
	if mr.Color == "white" {
		colors["p1"] = "black"
	} else {
		colors["p1"] = "white"
	}
	return mr.SessionID, colors
}

func whitePlayer(colors map[string]string) string {
	for id, c := range colors {
		if c == "white" {
			return id
		}
	}
	return ""
}

func TestJoinPollAndSessionFlow(t *testing.T) {
	s := newTestServer()
	sid, _ := pair(t, s)

	ctx := do(t, s, "GET", "/api/match?player_id=p1", "")
	mr := decode[chessdto.MatchResponse](t, ctx)
	if !mr.Matched || mr.SessionID != sid {
		t.Fatalf("poll = %+v, want session %s", mr, sid)
	}

	ctx = do(t, s, "GET", "/api/session/"+sid, "")
	sr := decode[chessdto.SessionResponse](t, ctx)
	if sr.SessionID != sid || sr.Turn != "white" || sr.Status != "in_progress" {
		t.Fatalf("session = %+v", sr)
	}
	if sr.White.Rating != rating.DefaultRating || sr.Black.Rating != rating.DefaultRating {
		t.Fatalf("ratings = %d/%d", sr.White.Rating, sr.Black.Rating)
	}
}

func TestSubmitMove(t *testing.T) {
	s := newTestServer()
	sid, colors := pair(t, s)
	white := whitePlayer(colors)

	body := fmt.Sprintf(`{"player_id":%q,"move":"e2e4"}`, white)
	ctx := do(t, s, "POST", "/api/session/"+sid+"/move", body)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("move status = %d body = %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	sr := decode[chessdto.SessionResponse](t, ctx)
	if len(sr.Moves) != 1 || sr.Moves[0] != "e2e4" || sr.Turn != "black" {
		t.Fatalf("session after move = %+v", sr)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer()
	sid, colors := pair(t, s)
	white := whitePlayer(colors)
	black := otherPlayer(colors, white)

	cases := []struct {
		name   string
		method string
		uri    string
		body   string
		status int
		code   string
	}{
		{"unknown session", "GET", "/api/session/nope", "", 404, chessdto.CodeNotFound},
		{"unknown route", "GET", "/api/nope", "", 404, chessdto.CodeNotFound},
		{"blank join", "POST", "/api/match", `{"player_id":" ","name":""}`, 400, chessdto.CodeMissingFields},
		{"bad json", "POST", "/api/match", `{`, 400, chessdto.CodeMissingFields},
		{"bad move text", "POST", "/api/session/" + sid + "/move",
			fmt.Sprintf(`{"player_id":%q,"move":"knight takes"}`, white), 400, chessdto.CodeMissingFields},
		{"illegal move", "POST", "/api/session/" + sid + "/move",
			fmt.Sprintf(`{"player_id":%q,"move":"e2e5"}`, white), 400, chessdto.CodeIllegalMove},
		{"stranger move", "POST", "/api/session/" + sid + "/move",
			`{"player_id":"ghost","move":"e2e4"}`, 403, chessdto.CodeNotParticipant},
		{"out of turn", "POST", "/api/session/" + sid + "/move",
			fmt.Sprintf(`{"player_id":%q,"move":"e7e5"}`, black), 409, chessdto.CodeOutOfTurn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := do(t, s, tc.method, tc.uri, tc.body)
			if got := ctx.Response.StatusCode(); got != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", got, tc.status, ctx.Response.Body())
			}
			if got := errCode(t, ctx); got != tc.code {
				t.Fatalf("code = %q, want %q", got, tc.code)
			}
		})
	}
}

func otherPlayer(colors map[string]string, not string) string {
	for id := range colors {
		if id != not {
			return id
		}
	}
	return ""
}

func TestRatingEndpoint(t *testing.T) {
	s := newTestServer()
	ctx := do(t, s, "GET", "/api/rating/ghost", "")
	rr := decode[chessdto.RatingResponse](t, ctx)
	if rr.PlayerID != "ghost" || rr.Rating != rating.DefaultRating {
		t.Fatalf("rating = %+v", rr)
	}
}
