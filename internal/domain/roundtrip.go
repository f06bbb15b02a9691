package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a round trip: Long opens with a buy, Short opens
// with a sell.
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// RoundTrip is a matched entry/exit slice for one contract on one day,
// identified by (TradeDate, Seq).
//
// EntryProceeds and ExitProceeds are signed broker cash amounts allocated to
// the slice, commissions included: negative for the buy leg (cash paid),
// positive for the sell leg (cash received). A Long trip has a negative
// EntryProceeds, a Short trip a positive one, and NetPnL is always
// EntryProceeds + ExitProceeds. Take the absolute value for the cost basis.
type RoundTrip struct {
	Seq           int              `json:"seq"`
	TradeDate     time.Time        `json:"trade_date"`
	Contract      ContractIdentity `json:"contract"`
	Direction     Direction        `json:"direction"`
	Quantity      int              `json:"quantity"`
	EntryPrice    decimal.Decimal  `json:"entry_price"`
	ExitPrice     decimal.Decimal  `json:"exit_price"`
	EntryProceeds decimal.Decimal  `json:"entry_proceeds"` // signed, see above
	ExitProceeds  decimal.Decimal  `json:"exit_proceeds"`  // signed, see above
	GrossPnL      decimal.Decimal  `json:"gross_pnl"`
	NetPnL        decimal.Decimal  `json:"net_pnl"`
	Commission    decimal.Decimal  `json:"commission"`
	PnLPercent    decimal.Decimal  `json:"pnl_percent"`
	SetupType     string           `json:"setup_type,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// Leftover records quantity a matcher run could not pair for one direction.
// A non-zero value usually means a position carried across days or an
// incomplete import.
type Leftover struct {
	Contract  ContractIdentity `json:"contract"`
	Direction Direction        `json:"direction"`
	OpenQty   int              `json:"open_qty"`
	CloseQty  int              `json:"close_qty"`
}
