package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// kindLabels maps broker transaction labels (lower-cased) to canonical kinds.
// E*TRADE reports plain "Bought"/"Sold" for the common long-option flow.
var kindLabels = map[string]domain.TransactionKind{
	"bought":          domain.KindOpenBuy,
	"bought to open":  domain.KindOpenBuy,
	"buy to open":     domain.KindOpenBuy,
	"sold":            domain.KindCloseSell,
	"sold to close":   domain.KindCloseSell,
	"sell to close":   domain.KindCloseSell,
	"sold short":      domain.KindOpenSell,
	"sold to open":    domain.KindOpenSell,
	"sell to open":    domain.KindOpenSell,
	"bought to cover": domain.KindCloseBuy,
	"bought to close": domain.KindCloseBuy,
	"buy to close":    domain.KindCloseBuy,
}

// CanonicalKind resolves a broker label to a transaction kind.
func CanonicalKind(label string) (domain.TransactionKind, bool) {
	k, ok := kindLabels[strings.ToLower(strings.Join(strings.Fields(label), " "))]
	return k, ok
}

// Normalize converts one raw broker row into an Execution. The returned error
// wraps domain.ErrBlankRecord, domain.ErrNotOption or domain.ErrInvalidRecord
// so callers can count skips by reason.
func Normalize(rec domain.RawRecord) (domain.Execution, error) {
	if strings.TrimSpace(rec.TransactionDate) == "" {
		return domain.Execution{}, domain.ErrBlankRecord
	}
	date, err := ParseTradeDate(rec.TransactionDate)
	if err != nil {
		return domain.Execution{}, err
	}

	symbol := strings.TrimSpace(rec.Symbol)
	contract, ok := ParseOCC(symbol)
	if !ok {
		return domain.Execution{}, fmt.Errorf("%w: %q", domain.ErrNotOption, symbol)
	}

	kind, ok := CanonicalKind(rec.TransactionType)
	if !ok {
		return domain.Execution{}, fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidRecord, rec.TransactionType)
	}

	qty, err := parseQuantity(rec.Quantity)
	if err != nil {
		return domain.Execution{}, err
	}
	price, err := parseAmount("price", rec.Price, false)
	if err != nil {
		return domain.Execution{}, err
	}
	if price.IsNegative() {
		return domain.Execution{}, fmt.Errorf("%w: negative price %s", domain.ErrInvalidRecord, price)
	}
	amount, err := parseAmount("amount", rec.Amount, false)
	if err != nil {
		return domain.Execution{}, err
	}
	if (kind.IsBuy() && amount.IsPositive()) || (!kind.IsBuy() && amount.IsNegative()) {
		return domain.Execution{}, fmt.Errorf("%w: amount %s disagrees with %s", domain.ErrInvalidRecord, amount, kind)
	}
	commission, err := parseAmount("commission", rec.Commission, true)
	if err != nil {
		return domain.Execution{}, err
	}
	commission = commission.Abs()

	exec := domain.Execution{
		TradeDate:   date,
		Kind:        kind,
		Label:       strings.TrimSpace(rec.TransactionType),
		Symbol:      symbol,
		Contract:    contract,
		Quantity:    qty,
		Price:       price,
		Amount:      amount,
		Commission:  commission,
		Description: strings.TrimSpace(rec.Description),
	}
	exec.NaturalKey = NaturalKey(exec)
	return exec, nil
}

// NaturalKey derives the deduplication key of an execution from every
// normalized field that identifies the fill.
func NaturalKey(e domain.Execution) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s|%s|%s",
		e.TradeDate.Format(domain.DateLayout),
		e.Kind,
		e.Symbol,
		e.Quantity,
		e.Price.String(),
		e.Amount.String(),
		e.Commission.String(),
	)
	return hex.EncodeToString(h.Sum(nil))
}

// ParseTradeDate parses the broker's MM/DD/YY (or MM/DD/YYYY) date.
func ParseTradeDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidRecord, s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidRecord, s)
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]
	if year < 100 {
		year += 2000
	}
	t, ok := calendarDate(year, month, day)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidRecord, s)
	}
	return t, nil
}

func parseQuantity(s string) (int, error) {
	d, err := parseAmount("quantity", s, false)
	if err != nil {
		return 0, err
	}
	d = d.Abs()
	if !d.Equal(d.Truncate(0)) || !d.IsPositive() {
		return 0, fmt.Errorf("%w: quantity %q", domain.ErrInvalidRecord, s)
	}
	return int(d.IntPart()), nil
}

// parseAmount parses a broker number, tolerating currency symbols, thousands
// separators and accounting-style parentheses for negatives.
func parseAmount(field, s string, blankIsZero bool) (decimal.Decimal, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		if blankIsZero {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%w: missing %s", domain.ErrInvalidRecord, field)
	}
	neg := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		neg = true
		clean = clean[1 : len(clean)-1]
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", domain.ErrInvalidRecord, field, s)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// RecordError ties a skipped row to the reason it was skipped.
type RecordError struct {
	Row int
	Err error
}

// BatchResult is the outcome of normalizing a batch of rows.
type BatchResult struct {
	Executions []domain.Execution
	Blank      int
	Invalid    int
	NonOption  int
	Errors     []RecordError
}

// NormalizeBatch normalizes every row, collecting skips instead of stopping
// at the first bad one. Blank rows are counted but not reported as errors.
func NormalizeBatch(records []domain.RawRecord) BatchResult {
	var res BatchResult
	for i, rec := range records {
		exec, err := Normalize(rec)
		switch {
		case err == nil:
			res.Executions = append(res.Executions, exec)
		case errors.Is(err, domain.ErrBlankRecord):
			res.Blank++
		case errors.Is(err, domain.ErrNotOption):
			res.NonOption++
			res.Errors = append(res.Errors, RecordError{Row: i + 1, Err: err})
		default:
			res.Invalid++
			res.Errors = append(res.Errors, RecordError{Row: i + 1, Err: err})
		}
	}
	return res
}
