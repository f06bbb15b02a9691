// Package journal holds the pure trade-journal engine: contract resolution,
// execution normalization, FIFO round-trip matching and daily aggregation.
// Nothing in this package performs I/O.
package journal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// occPattern matches OCC-style option symbols such as QQQ---260205C00609000:
// underlying letters, optional dash padding, YYMMDD, C|P, strike x1000.
var occPattern = regexp.MustCompile(`^([A-Z]+)-*(\d{2})(\d{2})(\d{2})([CP])(\d{8})$`)

// occPadding is the width the underlying is padded to when encoding.
const occPadding = 6

// ParseOCC resolves an option symbol into its contract identity. It reports
// false for anything that is not a well-formed option symbol, including
// equity tickers and impossible expiration dates.
func ParseOCC(symbol string) (domain.ContractIdentity, bool) {
	m := occPattern.FindStringSubmatch(strings.TrimSpace(symbol))
	if m == nil {
		return domain.ContractIdentity{}, false
	}

	yy, _ := strconv.Atoi(m[2])
	mm, _ := strconv.Atoi(m[3])
	dd, _ := strconv.Atoi(m[4])
	exp, ok := calendarDate(2000+yy, mm, dd)
	if !ok {
		return domain.ContractIdentity{}, false
	}

	raw, err := strconv.ParseInt(m[6], 10, 64)
	if err != nil {
		return domain.ContractIdentity{}, false
	}

	typ := domain.OptionCall
	if m[5] == "P" {
		typ = domain.OptionPut
	}

	return domain.ContractIdentity{
		Underlying: m[1],
		Expiration: exp,
		Strike:     decimal.New(raw, -3),
		Type:       typ,
	}, true
}

// FormatOCC encodes a contract back into its OCC symbol.
func FormatOCC(c domain.ContractIdentity) string {
	under := c.Underlying
	if len(under) < occPadding {
		under += strings.Repeat("-", occPadding-len(under))
	}
	cp := "C"
	if c.Type == domain.OptionPut {
		cp = "P"
	}
	strike := c.Strike.Shift(3).Round(0).IntPart()
	return fmt.Sprintf("%s%s%s%08d", under, c.Expiration.Format("060102"), cp, strike)
}

// calendarDate builds a UTC date and rejects values time.Date would
// normalize, such as month 13 or February 30.
func calendarDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
