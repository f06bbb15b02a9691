package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// proceedsPlaces is the precision of allocated proceeds and commissions.
const proceedsPlaces = 4

var (
	multiplier = decimal.NewFromInt(domain.ContractMultiplier)
	hundred    = decimal.NewFromInt(100)
)

// directionRule selects which kinds open and close a round trip and the sign
// applied to price-based P/L.
type directionRule struct {
	direction domain.Direction
	entry     domain.TransactionKind
	exit      domain.TransactionKind
	sign      decimal.Decimal
}

var directionRules = []directionRule{
	{domain.DirectionLong, domain.KindOpenBuy, domain.KindCloseSell, decimal.NewFromInt(1)},
	{domain.DirectionShort, domain.KindOpenSell, domain.KindCloseBuy, decimal.NewFromInt(-1)},
}

// MatchResult is the output of one matcher run for a (date, contract) group.
type MatchResult struct {
	Trips     []domain.RoundTrip
	Leftovers []domain.Leftover
}

// Match pairs entries against exits FIFO, in slice order, for every
// direction. Executions for other contracts are ignored. Long trips come
// first, then short trips, numbered by Seq from 1. Quantity that cannot be
// paired is not emitted as a trip; it is reported in Leftovers.
func Match(date time.Time, contract domain.ContractIdentity, execs []domain.Execution) MatchResult {
	var res MatchResult
	for _, rule := range directionRules {
		var entries, exits []domain.Execution
		for _, e := range execs {
			if !e.Contract.Equal(contract) {
				continue
			}
			switch e.Kind {
			case rule.entry:
				entries = append(entries, e)
			case rule.exit:
				exits = append(exits, e)
			}
		}
		trips, openLeft, closeLeft := matchFIFO(date, contract, rule, entries, exits)
		res.Trips = append(res.Trips, trips...)
		if openLeft > 0 || closeLeft > 0 {
			res.Leftovers = append(res.Leftovers, domain.Leftover{
				Contract:  contract,
				Direction: rule.direction,
				OpenQty:   openLeft,
				CloseQty:  closeLeft,
			})
		}
	}
	for i := range res.Trips {
		res.Trips[i].Seq = i + 1
	}
	return res
}

// matchFIFO walks exits in order, consuming entries from a cursor. It returns
// the trips plus unconsumed entry and exit quantity.
func matchFIFO(date time.Time, contract domain.ContractIdentity, rule directionRule, entries, exits []domain.Execution) ([]domain.RoundTrip, int, int) {
	var (
		trips     []domain.RoundTrip
		cursor    int
		entryLeft int
		closeLeft int
	)
	if len(entries) > 0 {
		entryLeft = entries[0].Quantity
	}

	for _, exit := range exits {
		remaining := exit.Quantity
		for remaining > 0 && cursor < len(entries) {
			matched := min(remaining, entryLeft)
			if matched > 0 {
				trips = append(trips, buildTrip(date, contract, rule, entries[cursor], exit, matched))
			}
			remaining -= matched
			entryLeft -= matched
			if entryLeft <= 0 {
				cursor++
				if cursor < len(entries) {
					entryLeft = entries[cursor].Quantity
				}
			}
		}
		closeLeft += remaining
	}

	openLeft := 0
	if cursor < len(entries) {
		openLeft = entryLeft
		for _, e := range entries[cursor+1:] {
			openLeft += e.Quantity
		}
	}
	return trips, openLeft, closeLeft
}

func buildTrip(date time.Time, contract domain.ContractIdentity, rule directionRule, entry, exit domain.Execution, matched int) domain.RoundTrip {
	q := decimal.NewFromInt(int64(matched))

	entryProceeds := allocate(entry.Amount, matched, entry.Quantity)
	exitProceeds := allocate(exit.Amount, matched, exit.Quantity)
	commission := allocate(entry.Commission, matched, entry.Quantity).
		Add(allocate(exit.Commission, matched, exit.Quantity))

	gross := exit.Price.Sub(entry.Price).Mul(q).Mul(multiplier).Mul(rule.sign)

	pct := decimal.Zero
	if !entry.Price.IsZero() {
		pct = exit.Price.DivRound(entry.Price, 10).
			Sub(decimal.NewFromInt(1)).
			Mul(hundred).
			Mul(rule.sign).
			Round(proceedsPlaces)
	}

	return domain.RoundTrip{
		TradeDate:     date,
		Contract:      contract,
		Direction:     rule.direction,
		Quantity:      matched,
		EntryPrice:    entry.Price,
		ExitPrice:     exit.Price,
		EntryProceeds: entryProceeds,
		ExitProceeds:  exitProceeds,
		GrossPnL:      gross,
		NetPnL:        entryProceeds.Add(exitProceeds),
		Commission:    commission,
		PnLPercent:    pct,
	}
}

// allocate returns the share of total attributable to matched out of qty
// units. Multiplying first keeps whole-fill allocations exact.
func allocate(total decimal.Decimal, matched, qty int) decimal.Decimal {
	if qty <= 0 {
		return decimal.Zero
	}
	return total.Mul(decimal.NewFromInt(int64(matched))).
		DivRound(decimal.NewFromInt(int64(qty)), proceedsPlaces)
}
