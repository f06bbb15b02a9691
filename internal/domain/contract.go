package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionType distinguishes calls from puts.
type OptionType string

const (
	OptionCall OptionType = "Call"
	OptionPut  OptionType = "Put"
)

// DateLayout is the canonical calendar-date layout used for keys, storage and
// API paths.
const DateLayout = "2006-01-02"

// ContractMultiplier is the number of shares one option contract controls.
const ContractMultiplier = 100

// ContractIdentity identifies a single listed option. Two executions refer to
// the same contract iff all four fields are equal.
type ContractIdentity struct {
	Underlying string          `json:"underlying"`
	Expiration time.Time       `json:"expiration"`
	Strike     decimal.Decimal `json:"strike"`
	Type       OptionType      `json:"option_type"`
}

// Key returns a stable string form suitable for map keys and ordering.
func (c ContractIdentity) Key() string {
	return c.Underlying + "|" + c.Expiration.Format(DateLayout) + "|" + c.Strike.String() + "|" + string(c.Type)
}

// Equal reports whether c and o identify the same contract.
func (c ContractIdentity) Equal(o ContractIdentity) bool {
	return c.Underlying == o.Underlying &&
		c.Expiration.Equal(o.Expiration) &&
		c.Strike.Equal(o.Strike) &&
		c.Type == o.Type
}

// String renders the contract as "QQQ 2026-02-05 609.00 Call".
func (c ContractIdentity) String() string {
	return c.Underlying + " " + c.Expiration.Format(DateLayout) + " " + c.Strike.StringFixed(2) + " " + string(c.Type)
}

// TradeDate truncates t to a UTC calendar date.
func TradeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
