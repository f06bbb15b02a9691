package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// Journal is the read and recompute surface of the engine.
type Journal interface {
	RecomputeDay(ctx context.Context, date time.Time) (domain.DayResult, error)
	GetDailySummary(ctx context.Context, date time.Time) (domain.DailySummary, error)
	GetRoundTrips(ctx context.Context, date time.Time) ([]domain.RoundTrip, error)
	GetWindowSummary(ctx context.Context, start, end time.Time) (domain.WindowSummary, error)
	RecentDays(ctx context.Context, n int) (domain.WindowSummary, error)
	Today() time.Time
}

// Importer imports one broker export file.
type Importer interface {
	ImportFile(ctx context.Context, name string, r io.Reader) (domain.ImportResult, error)
}

// defaultStatsDays is the window used by /api/stats without parameters.
const defaultStatsDays = 30

// JournalHandler serves days, trades, stats and recomputes.
type JournalHandler struct {
	journal Journal
	logger  *slog.Logger
}

func NewJournalHandler(journal Journal, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: journal, logger: logHandler(logger, "journal")}
}

// GetDay returns the daily summary.
// GET /api/days/{date}
func (h *JournalHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDay(pathParam(r, "date"), h.journal.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.journal.GetDailySummary(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetTrades returns the day's round trips; an idle day is an empty list.
// GET /api/days/{date}/trades
func (h *JournalHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	date, err := parseDay(pathParam(r, "date"), h.journal.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	trips, err := h.journal.GetRoundTrips(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if trips == nil {
		trips = []domain.RoundTrip{}
	}
	writeJSON(w, http.StatusOK, trips)
}

// Recompute rebuilds one day from its stored executions.
// POST /api/days/{date}/recompute
func (h *JournalHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	date, err := parseDay(pathParam(r, "date"), h.journal.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.journal.RecomputeDay(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetStats aggregates a window: ?start=&end= or ?days=N (default 30).
// GET /api/stats
func (h *JournalHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")

	var (
		window domain.WindowSummary
		err    error
	)
	if start != "" || end != "" {
		today := h.journal.Today()
		s, perr := parseDay(start, today)
		if start == "" || perr != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		e := today
		if end != "" {
			if e, perr = parseDay(end, today); perr != nil {
				writeError(w, http.StatusBadRequest, perr.Error())
				return
			}
		}
		window, err = h.journal.GetWindowSummary(r.Context(), s, e)
	} else {
		days := defaultStatsDays
		if v := q.Get("days"); v != "" {
			n, perr := strconv.Atoi(v)
			if perr != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "days must be a positive integer")
				return
			}
			days = n
		}
		window, err = h.journal.RecentDays(r.Context(), days)
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}
