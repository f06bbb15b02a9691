package journal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ratioPlaces is the precision of averages and ratios in summaries.
const ratioPlaces = 4

var (
	// scratchBand is the currency deadband around zero within which a trip is
	// neither a winner nor a loser.
	scratchBand = decimal.NewFromInt(1)
	// lossFloor keeps the profit factor finite on days without losses.
	lossFloor = decimal.RequireFromString("0.01")
)

// Summarize reduces one day's round trips into a summary. It reports false
// when there are no trips; callers must not store a zero-filled row.
func Summarize(date time.Time, trips []domain.RoundTrip) (domain.DailySummary, bool) {
	if len(trips) == 0 {
		return domain.DailySummary{}, false
	}

	s := domain.DailySummary{
		Date:        date,
		TotalTrades: len(trips),
		LargestWin:  trips[0].NetPnL,
		LargestLoss: trips[0].NetPnL,
	}
	var (
		winSum, lossSum decimal.Decimal
		winN, lossN     int64
	)
	for _, t := range trips {
		switch {
		case t.NetPnL.GreaterThan(scratchBand):
			s.Winners++
		case t.NetPnL.LessThan(scratchBand.Neg()):
			s.Losers++
		default:
			s.Scratches++
		}
		if t.NetPnL.IsPositive() {
			winSum = winSum.Add(t.NetPnL)
			winN++
		} else if t.NetPnL.IsNegative() {
			lossSum = lossSum.Add(t.NetPnL)
			lossN++
		}

		s.GrossPnL = s.GrossPnL.Add(t.GrossPnL)
		s.Commissions = s.Commissions.Add(t.Commission)
		s.NetPnL = s.NetPnL.Add(t.NetPnL)
		if t.NetPnL.GreaterThan(s.LargestWin) {
			s.LargestWin = t.NetPnL
		}
		if t.NetPnL.LessThan(s.LargestLoss) {
			s.LargestLoss = t.NetPnL
		}
	}

	total := decimal.NewFromInt(int64(s.TotalTrades))
	s.WinRate = percent(s.Winners, s.TotalTrades)
	s.AvgTrade = s.NetPnL.DivRound(total, ratioPlaces)
	if winN > 0 {
		s.AvgWinner = winSum.DivRound(decimal.NewFromInt(winN), ratioPlaces)
	}
	if lossN > 0 {
		s.AvgLoser = lossSum.DivRound(decimal.NewFromInt(lossN), ratioPlaces)
	}
	s.GrossWins = winSum
	s.GrossLosses = lossSum.Abs()
	s.ProfitFactor = profitFactor(s.GrossWins, s.GrossLosses)
	return s, true
}

// SummarizeWindow reduces the daily summaries falling inside [start, end]
// into window statistics and an equity curve ordered by date.
func SummarizeWindow(start, end time.Time, days []domain.DailySummary) domain.WindowSummary {
	w := domain.WindowSummary{
		Start:       start,
		End:         end,
		EquityCurve: []domain.EquityPoint{},
		Days:        []domain.DailySummary{},
	}
	for _, d := range days {
		if d.Date.Before(start) || d.Date.After(end) {
			continue
		}
		w.Days = append(w.Days, d)
	}
	sort.SliceStable(w.Days, func(i, j int) bool { return w.Days[i].Date.Before(w.Days[j].Date) })

	var cumulative decimal.Decimal
	for _, d := range w.Days {
		w.DaysTraded++
		w.TotalTrades += d.TotalTrades
		w.Winners += d.Winners
		w.Losers += d.Losers
		w.Scratches += d.Scratches
		w.GrossPnL = w.GrossPnL.Add(d.GrossPnL)
		w.Commissions = w.Commissions.Add(d.Commissions)
		w.NetPnL = w.NetPnL.Add(d.NetPnL)
		w.GrossWins = w.GrossWins.Add(d.GrossWins)
		w.GrossLosses = w.GrossLosses.Add(d.GrossLosses)

		if w.BestDay == nil || d.NetPnL.GreaterThan(w.BestDay.NetPnL) {
			w.BestDay = &domain.DayPnL{Date: d.Date, NetPnL: d.NetPnL}
		}
		if w.WorstDay == nil || d.NetPnL.LessThan(w.WorstDay.NetPnL) {
			w.WorstDay = &domain.DayPnL{Date: d.Date, NetPnL: d.NetPnL}
		}

		cumulative = cumulative.Add(d.NetPnL)
		w.EquityCurve = append(w.EquityCurve, domain.EquityPoint{
			Date:       d.Date,
			NetPnL:     d.NetPnL,
			Cumulative: cumulative,
		})
	}
	if w.DaysTraded == 0 {
		return w
	}

	w.WinRate = percent(w.Winners, w.TotalTrades)
	w.AvgDaily = w.NetPnL.DivRound(decimal.NewFromInt(int64(w.DaysTraded)), ratioPlaces)
	w.ProfitFactor = profitFactor(w.GrossWins, w.GrossLosses)
	return w
}

func percent(n, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n) * 100).DivRound(decimal.NewFromInt(int64(total)), ratioPlaces)
}

func profitFactor(wins, losses decimal.Decimal) decimal.Decimal {
	den := losses
	if den.LessThan(lossFloor) {
		den = lossFloor
	}
	return wins.DivRound(den, ratioPlaces)
}
