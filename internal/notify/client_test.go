package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KOVXO3HNK/TelegramChess-Server/internal/game"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/msgcat"
)

func gatewayServer(t *testing.T) (*httptest.Server, chan Event) {
	t.Helper()
	events := make(chan Event, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notify" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		events <- ev
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, events
}

func catalog(t *testing.T) *msgcat.Catalog {
	t.Helper()
	c, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return c
}

func TestMatchFoundPostsRenderedEvent(t *testing.T) {
	srv, events := gatewayServer(t)
	c := NewClient(srv.URL, catalog(t))

	c.MatchFound(context.Background(), "alice", "sess-1", "white", "Bob")

	select {
	case ev := <-events:
		if ev.PlayerID != "alice" || ev.Kind != "match_found" || ev.SessionID != "sess-1" {
			t.Fatalf("event = %+v", ev)
		}
		if !strings.Contains(ev.Text, "white") || !strings.Contains(ev.Text, "Bob") {
			t.Fatalf("text not rendered: %q", ev.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
	}
}

func TestGameFinishedPicksSideSpecificText(t *testing.T) {
	srv, events := gatewayServer(t)
	c := NewClient(srv.URL, catalog(t))
	res := game.Result{Winner: "alice", Loser: "bob", Reason: game.ReasonTimeout}

	c.GameFinished(context.Background(), "alice", "sess-1", res)
	c.GameFinished(context.Background(), "bob", "sess-1", res)

	got := map[string]string{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			got[ev.PlayerID] = ev.Text
		case <-time.After(2 * time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
	if !strings.Contains(got["alice"], "win") {
		t.Fatalf("winner text = %q", got["alice"])
	}
	if !strings.Contains(got["bob"], "forfeit") {
		t.Fatalf("loser text = %q", got["bob"])
	}
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	// nothing listening on the target; deliver must not panic or block
	c := NewClient("http://127.0.0.1:1", catalog(t), WithRetry(1), WithTimeout(200*time.Millisecond))
	done := make(chan struct{})
	go func() {
		c.MatchFound(context.Background(), "alice", "sess-1", "white", "Bob")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("delivery blocked")
	}
}
