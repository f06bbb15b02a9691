package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary is the derived performance row for one trade date. Only Notes
// is ever edited by hand; everything else is recomputed from round trips.
type DailySummary struct {
	Date         time.Time       `json:"date"`
	TotalTrades  int             `json:"total_trades"`
	Winners      int             `json:"winners"`
	Losers       int             `json:"losers"`
	Scratches    int             `json:"scratches"`
	WinRate      decimal.Decimal `json:"win_rate"`
	GrossPnL     decimal.Decimal `json:"gross_pnl"`
	Commissions  decimal.Decimal `json:"commissions"`
	NetPnL       decimal.Decimal `json:"net_pnl"`
	LargestWin   decimal.Decimal `json:"largest_win"`
	LargestLoss  decimal.Decimal `json:"largest_loss"`
	AvgWinner    decimal.Decimal `json:"avg_winner"`
	AvgLoser     decimal.Decimal `json:"avg_loser"`
	AvgTrade     decimal.Decimal `json:"avg_trade"`
	GrossWins    decimal.Decimal `json:"gross_wins"`
	GrossLosses  decimal.Decimal `json:"gross_losses"`
	ProfitFactor decimal.Decimal `json:"profit_factor"`
	Notes        string          `json:"notes,omitempty"`
}

// DayPnL pairs a date with its net result.
type DayPnL struct {
	Date   time.Time       `json:"date"`
	NetPnL decimal.Decimal `json:"net_pnl"`
}

// EquityPoint is one step of the cumulative net P/L curve.
type EquityPoint struct {
	Date       time.Time       `json:"date"`
	NetPnL     decimal.Decimal `json:"net_pnl"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// WindowSummary aggregates daily summaries over an inclusive date range.
type WindowSummary struct {
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	DaysTraded   int             `json:"days_traded"`
	TotalTrades  int             `json:"total_trades"`
	Winners      int             `json:"winners"`
	Losers       int             `json:"losers"`
	Scratches    int             `json:"scratches"`
	WinRate      decimal.Decimal `json:"win_rate"`
	GrossPnL     decimal.Decimal `json:"gross_pnl"`
	Commissions  decimal.Decimal `json:"commissions"`
	NetPnL       decimal.Decimal `json:"net_pnl"`
	GrossWins    decimal.Decimal `json:"gross_wins"`
	GrossLosses  decimal.Decimal `json:"gross_losses"`
	ProfitFactor decimal.Decimal `json:"profit_factor"`
	AvgDaily     decimal.Decimal `json:"avg_daily"`
	BestDay      *DayPnL         `json:"best_day,omitempty"`
	WorstDay     *DayPnL         `json:"worst_day,omitempty"`
	EquityCurve  []EquityPoint   `json:"equity_curve"`
	Days         []DailySummary  `json:"days"`
}
