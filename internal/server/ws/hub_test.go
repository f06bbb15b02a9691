package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/optjournal/internal/cache/local"
	"github.com/alanyoungcy/optjournal/internal/domain"
)

func TestHubRelaysDayEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := local.NewBus()
	hub := NewHub(bus, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello envelope
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Channel != "hello" {
		t.Fatalf("first frame channel = %q, want hello", hello.Channel)
	}

	payload := []byte(`{"event":"day_recomputed","date":"2026-02-05"}`)
	if err := bus.Publish(ctx, domain.ChannelDays, payload); err != nil {
		t.Fatal(err)
	}

	var got envelope
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if got.Channel != domain.ChannelDays {
		t.Errorf("channel = %q", got.Channel)
	}
	var evt map[string]string
	if err := json.Unmarshal(got.Data, &evt); err != nil {
		t.Fatal(err)
	}
	if evt["date"] != "2026-02-05" {
		t.Errorf("event = %v", evt)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://journal.example.com"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://journal.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}
}
