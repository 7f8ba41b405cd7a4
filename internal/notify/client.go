package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/game"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/msgcat"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/obslog"
)

// Event is one push message to the bot gateway's /notify endpoint.
type Event struct {
	PlayerID  string `json:"player_id"`
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
}

// Client delivers push notifications to the bot gateway. Delivery is
// best effort: every failure is logged and swallowed, game state never
// depends on it.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	cat     *msgcat.Catalog
	egress  *Egress

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithEgress wires a websocket egress tried before the HTTP fallback.
func WithEgress(e *Egress) Option {
	return func(c *Client) { c.egress = e }
}

func NewClient(baseURL string, cat *msgcat.Catalog, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		cat:            cat,
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MatchFound tells one player their game is ready.
func (c *Client) MatchFound(ctx context.Context, playerID, sessionID, color, opponentName string) {
	text := c.render("match.found", map[string]any{
		"Color": color, "Opponent": opponentName, "SessionID": sessionID,
	})
	c.deliver(ctx, Event{PlayerID: playerID, SessionID: sessionID, Kind: "match_found", Text: text})
}

// GameFinished tells one player how their game ended.
func (c *Client) GameFinished(ctx context.Context, playerID, sessionID string, result game.Result) {
	var key string
	switch {
	case result.Reason == game.ReasonStalemate:
		key = "game.stalemate"
	case result.Winner == playerID:
		key = fmt.Sprintf("game.%s.win", result.Reason)
	default:
		key = fmt.Sprintf("game.%s.loss", result.Reason)
	}
	c.deliver(ctx, Event{PlayerID: playerID, SessionID: sessionID, Kind: "game_finished", Text: c.render(key, nil)})
}

func (c *Client) render(key string, data any) string {
	if c.cat == nil {
		return key
	}
	text, err := c.cat.Render(key, data)
	if err != nil {
		obslog.L().Warn("notify_render_error", zap.String("key", key), zap.Error(err))
		return key
	}
	return text
}

func (c *Client) deliver(ctx context.Context, ev Event) {
	if c.egress != nil {
		err := c.egress.Send(ctx, ev)
		if err == nil {
			return
		}
		obslog.L().Warn("notify_ws_error",
			zap.String("player_id", ev.PlayerID), zap.String("kind", ev.Kind), zap.Error(err))
	}
	if c.baseURL == "" {
		return
	}
	if err := c.post(ctx, "/notify", ev); err != nil {
		obslog.L().Warn("notify_http_error",
			zap.String("player_id", ev.PlayerID), zap.String("kind", ev.Kind), zap.Error(err))
	}
}

func (c *Client) post(ctx context.Context, path string, in any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req.SetBody(payload)

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return nil
			}
			lastErr = fmt.Errorf("gateway error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return lastErr
			}
		}
		if attempt < attempts {
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
