package server

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

	"github.com/alanyoungcy/optjournal/internal/cache/local"
	"github.com/alanyoungcy/optjournal/internal/domain"
	"github.com/alanyoungcy/optjournal/internal/server/handler"
	"github.com/alanyoungcy/optjournal/internal/service"
	"github.com/alanyoungcy/optjournal/internal/store/sqlite"
)

const uploadCSV = `TransactionDate,TransactionType,SecurityType,Symbol,Quantity,Amount,Price,Commission,Description
02/05/26,Bought,OPTN,QQQ---260205C00609000,2,-201.30,1.00,1.30,CALL QQQ
02/05/26,Sold,OPTN,QQQ---260205C00609000,-2,298.70,1.50,1.30,CALL QQQ
02/05/26,Sold Short,OPTN,SPY---260213P00600000,-1,299.35,3.00,0.65,PUT SPY
02/05/26,Bought To Cover,OPTN,SPY---260213P00600000,1,-400.65,4.00,0.65,PUT SPY
`

func newTestHandler(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	journal := service.NewJournalService(
		sqlite.NewExecutionStore(db),
		sqlite.NewDayStore(db),
		sqlite.NewAuditStore(db),
		local.NewLockManager(),
		nil, nil,
		service.JournalConfig{},
		logger,
	)
	importer := service.NewImportService(journal, nil, nil, service.ImportConfig{}, logger)

	handlers := Handlers{
		Health:  handler.NewHealthHandler(map[string]handler.Check{"sqlite": db.Ping}, logger),
		Status:  &handler.StatusHandler{Version: "test", Storage: "sqlite", Cache: "local"},
		Journal: handler.NewJournalHandler(journal, logger),
		Imports: handler.NewImportHandler(importer, logger),
	}
	return NewHandler(Config{APIKey: apiKey}, handlers, nil, local.NewRateLimiter(), logger)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("X-API-Key", "k")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestImportThenRead(t *testing.T) {
	h := newTestHandler(t, "k")

	w := do(t, h, http.MethodPost, "/api/imports?name=txns.csv", uploadCSV)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d body=%s", w.Code, w.Body)
	}
	res := decode[domain.ImportResult](t, w)
	if res.Inserted != 4 || res.Source != "txns.csv" {
		t.Errorf("import result = %+v", res)
	}

	w = do(t, h, http.MethodGet, "/api/days/2026-02-05", "")
	if w.Code != http.StatusOK {
		t.Fatalf("day status = %d", w.Code)
	}
	day := decode[domain.DailySummary](t, w)
	if day.TotalTrades != 2 || day.Winners != 1 || day.Losers != 1 {
		t.Errorf("summary = %+v", day)
	}
	// 97.40 long, -101.30 short
	if got := day.NetPnL.StringFixed(2); got != "-3.90" {
		t.Errorf("net = %s, want -3.90", got)
	}

	w = do(t, h, http.MethodGet, "/api/days/2026-02-05/trades", "")
	trips := decode[[]domain.RoundTrip](t, w)
	if len(trips) != 2 || trips[0].Direction != domain.DirectionLong || trips[1].Direction != domain.DirectionShort {
		t.Errorf("trips = %+v", trips)
	}

	w = do(t, h, http.MethodGet, "/api/stats?start=2026-02-01&end=2026-02-28", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	window := decode[domain.WindowSummary](t, w)
	if window.DaysTraded != 1 || window.TotalTrades != 2 {
		t.Errorf("window = %+v", window)
	}

	w = do(t, h, http.MethodPost, "/api/days/2026-02-05/recompute", "")
	if w.Code != http.StatusOK {
		t.Fatalf("recompute status = %d", w.Code)
	}
	dr := decode[domain.DayResult](t, w)
	if dr.RoundTrips != 2 || dr.Executions != 4 {
		t.Errorf("recompute = %+v", dr)
	}
}

func TestErrorStatuses(t *testing.T) {
	h := newTestHandler(t, "k")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"absent day", http.MethodGet, "/api/days/2026-03-02", "", http.StatusNotFound},
		{"idle day trades", http.MethodGet, "/api/days/2026-03-02/trades", "", http.StatusOK},
		{"bad date", http.MethodGet, "/api/days/03-02-2026", "", http.StatusBadRequest},
		{"inverted window", http.MethodGet, "/api/stats?start=2026-02-10&end=2026-02-01", "", http.StatusBadRequest},
		{"bad days", http.MethodGet, "/api/stats?days=-3", "", http.StatusBadRequest},
		{"not an export", http.MethodPost, "/api/imports", "a,b\n1,2\n", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.target, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
		})
	}
}

func TestHealthIsPublic(t *testing.T) {
	h := newTestHandler(t, "k")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", w.Code)
	}
}

func TestHealthReportsFailedCheck(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hh := handler.NewHealthHandler(map[string]handler.Check{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, logger)

	w := httptest.NewRecorder()
	hh.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}
