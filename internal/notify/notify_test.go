package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

type recordSender struct {
	name   string
	err    error
	titles []string
}

func (r *recordSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordSender) Name() string { return r.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersEvents(t *testing.T) {
	s := &recordSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{EventImportCompleted, " "}, quietLogger())

	if err := n.Notify(context.Background(), EventExportCompleted, "export", ""); err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(context.Background(), EventImportCompleted, "import", ""); err != nil {
		t.Fatal(err)
	}
	if len(s.titles) != 1 || s.titles[0] != "import" {
		t.Fatalf("delivered = %v, want [import]", s.titles)
	}
}

func TestNotifyKeepsGoingAfterSenderFailure(t *testing.T) {
	bad := &recordSender{name: "bad", err: errors.New("boom")}
	good := &recordSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, quietLogger())

	err := n.Notify(context.Background(), EventImportCompleted, "t", "m")
	if err == nil || !strings.Contains(err.Error(), "bad: boom") {
		t.Fatalf("err = %v", err)
	}
	if len(good.titles) != 1 {
		t.Fatalf("second sender not called")
	}
}

func TestNilNotifierIsDisabled(t *testing.T) {
	var n *Notifier
	if n.Enabled() {
		t.Fatal("nil notifier reports enabled")
	}
	if err := n.Notify(context.Background(), EventImportCompleted, "t", "m"); err != nil {
		t.Fatal(err)
	}
}

func TestImportMessage(t *testing.T) {
	day := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	res := domain.ImportResult{
		Inserted:   7,
		Duplicates: 2,
		Invalid:    1,
		Days: []domain.DayResult{
			{Date: day, Summary: &domain.DailySummary{
				TotalTrades: 3,
				NetPnL:      decimal.RequireFromString("143.5"),
				WinRate:     decimal.RequireFromString("66.6667"),
			}},
			{Date: day.AddDate(0, 0, 1)},
		},
	}
	title, msg := ImportMessage("txns.csv", res)
	if title != "Import completed: txns.csv" {
		t.Errorf("title = %q", title)
	}
	want := "7 inserted, 2 duplicate, 1 invalid, 0 non-option\n" +
		"2026-02-05: 3 trades, net 143.50, win rate 66.7%\n" +
		"2026-02-06: no round trips"
	if msg != want {
		t.Errorf("message =\n%s\nwant\n%s", msg, want)
	}
}

func TestTelegramSender(t *testing.T) {
	var gotPath string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "42")
	s.baseURL = srv.URL
	if err := s.Send(context.Background(), "Title", "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/bottok/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if got["chat_id"] != "42" || got["text"] != "*Title*\nbody" {
		t.Errorf("payload = %v", got)
	}
}

func TestDiscordSenderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	if err == nil || !strings.Contains(err.Error(), "unexpected status 429") {
		t.Fatalf("err = %v", err)
	}
}
