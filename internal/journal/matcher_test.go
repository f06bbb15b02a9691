package journal

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

var (
	testDate     = time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	testContract = mustContract("QQQ---260205C00609000")
)

func mustContract(symbol string) domain.ContractIdentity {
	c, ok := ParseOCC(symbol)
	if !ok {
		panic("bad symbol " + symbol)
	}
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fill(id int64, kind domain.TransactionKind, qty int, price, amount, commission string) domain.Execution {
	return domain.Execution{
		ID:         id,
		TradeDate:  testDate,
		Kind:       kind,
		Contract:   testContract,
		Quantity:   qty,
		Price:      dec(price),
		Amount:     dec(amount),
		Commission: dec(commission),
	}
}

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestMatchFIFOOrder(t *testing.T) {
	execs := []domain.Execution{
		fill(1, domain.KindOpenBuy, 2, "1.00", "-201.30", "1.30"),
		fill(2, domain.KindOpenBuy, 3, "1.20", "-361.95", "1.95"),
		fill(3, domain.KindCloseSell, 4, "1.50", "597.40", "2.60"),
	}
	res := Match(testDate, testContract, execs)
	if len(res.Trips) != 2 {
		t.Fatalf("trips = %d, want 2", len(res.Trips))
	}

	first, second := res.Trips[0], res.Trips[1]
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("Seq = %d, %d; want 1, 2", first.Seq, second.Seq)
	}
	if first.Quantity != 2 || second.Quantity != 2 {
		t.Errorf("Quantity = %d, %d; want 2, 2", first.Quantity, second.Quantity)
	}
	assertDec(t, "first.EntryPrice", first.EntryPrice, "1.00")
	assertDec(t, "first.ExitPrice", first.ExitPrice, "1.50")
	assertDec(t, "first.GrossPnL", first.GrossPnL, "100")
	assertDec(t, "first.EntryProceeds", first.EntryProceeds, "-201.30")
	assertDec(t, "first.ExitProceeds", first.ExitProceeds, "298.70")
	assertDec(t, "first.NetPnL", first.NetPnL, "97.40")
	assertDec(t, "first.Commission", first.Commission, "2.60")
	assertDec(t, "first.PnLPercent", first.PnLPercent, "50")

	assertDec(t, "second.EntryPrice", second.EntryPrice, "1.20")
	assertDec(t, "second.GrossPnL", second.GrossPnL, "60")
	assertDec(t, "second.EntryProceeds", second.EntryProceeds, "-241.30")
	assertDec(t, "second.NetPnL", second.NetPnL, "57.40")
	assertDec(t, "second.Commission", second.Commission, "2.60")
	assertDec(t, "second.PnLPercent", second.PnLPercent, "25")

	want := []domain.Leftover{{Contract: testContract, Direction: domain.DirectionLong, OpenQty: 1}}
	if !reflect.DeepEqual(res.Leftovers, want) {
		t.Errorf("Leftovers = %+v, want %+v", res.Leftovers, want)
	}
}

func TestMatchSplitsClosesAcrossOpens(t *testing.T) {
	execs := []domain.Execution{
		fill(1, domain.KindOpenBuy, 5, "2.00", "-1003.25", "3.25"),
		fill(2, domain.KindCloseSell, 1, "2.50", "249.35", "0.65"),
		fill(3, domain.KindCloseSell, 4, "1.80", "718.60", "1.40"),
	}
	res := Match(testDate, testContract, execs)
	if len(res.Trips) != 2 {
		t.Fatalf("trips = %d, want 2", len(res.Trips))
	}
	assertDec(t, "trip1.EntryProceeds", res.Trips[0].EntryProceeds, "-200.65")
	assertDec(t, "trip1.NetPnL", res.Trips[0].NetPnL, "48.70")
	assertDec(t, "trip2.EntryProceeds", res.Trips[1].EntryProceeds, "-802.60")
	assertDec(t, "trip2.GrossPnL", res.Trips[1].GrossPnL, "-80")
	assertDec(t, "trip2.NetPnL", res.Trips[1].NetPnL, "-84")
	assertDec(t, "trip2.Commission", res.Trips[1].Commission, "4.00")
	if len(res.Leftovers) != 0 {
		t.Errorf("Leftovers = %+v, want none", res.Leftovers)
	}
}

func TestMatchShort(t *testing.T) {
	execs := []domain.Execution{
		fill(1, domain.KindOpenSell, 1, "2.00", "199.35", "0.65"),
		fill(2, domain.KindCloseBuy, 1, "1.50", "-150.65", "0.65"),
	}
	res := Match(testDate, testContract, execs)
	if len(res.Trips) != 1 {
		t.Fatalf("trips = %d, want 1", len(res.Trips))
	}
	trip := res.Trips[0]
	if trip.Direction != domain.DirectionShort {
		t.Errorf("Direction = %s, want Short", trip.Direction)
	}
	assertDec(t, "GrossPnL", trip.GrossPnL, "50")
	assertDec(t, "NetPnL", trip.NetPnL, "48.70")
	assertDec(t, "PnLPercent", trip.PnLPercent, "25")
	assertDec(t, "EntryProceeds", trip.EntryProceeds, "199.35")
	assertDec(t, "ExitProceeds", trip.ExitProceeds, "-150.65")
}

func TestMatchProceedsSign(t *testing.T) {
	execs := []domain.Execution{
		fill(1, domain.KindOpenBuy, 2, "1.00", "-201.30", "1.30"),
		fill(2, domain.KindOpenSell, 1, "3.00", "299.35", "0.65"),
		fill(3, domain.KindCloseSell, 2, "1.50", "298.70", "1.30"),
		fill(4, domain.KindCloseBuy, 1, "4.00", "-400.65", "0.65"),
	}
	res := Match(testDate, testContract, execs)
	if len(res.Trips) != 2 {
		t.Fatalf("trips = %d, want 2", len(res.Trips))
	}
	for _, trip := range res.Trips {
		if sum := trip.EntryProceeds.Add(trip.ExitProceeds); !sum.Equal(trip.NetPnL) {
			t.Errorf("%s: EntryProceeds + ExitProceeds = %s, NetPnL = %s", trip.Direction, sum, trip.NetPnL)
		}
		entryPaid := trip.EntryProceeds.IsNegative()
		if wantPaid := trip.Direction == domain.DirectionLong; entryPaid != wantPaid {
			t.Errorf("%s: EntryProceeds = %s, want negative=%v", trip.Direction, trip.EntryProceeds, wantPaid)
		}
	}
}

func TestMatchLongBeforeShort(t *testing.T) {
	execs := []domain.Execution{
		fill(1, domain.KindOpenSell, 1, "2.00", "200", "0"),
		fill(2, domain.KindOpenBuy, 1, "1.00", "-100", "0"),
		fill(3, domain.KindCloseBuy, 1, "1.00", "-100", "0"),
		fill(4, domain.KindCloseSell, 1, "1.10", "110", "0"),
	}
	res := Match(testDate, testContract, execs)
	if len(res.Trips) != 2 {
		t.Fatalf("trips = %d, want 2", len(res.Trips))
	}
	if res.Trips[0].Direction != domain.DirectionLong || res.Trips[1].Direction != domain.DirectionShort {
		t.Errorf("directions = %s, %s; want Long, Short", res.Trips[0].Direction, res.Trips[1].Direction)
	}
}

func TestMatchZeroEntryPrice(t *testing.T) {
	execs := []domain.Execution{
		fill(1, domain.KindOpenBuy, 1, "0", "0", "0"),
		fill(2, domain.KindCloseSell, 1, "0.05", "5", "0"),
	}
	res := Match(testDate, testContract, execs)
	if len(res.Trips) != 1 {
		t.Fatalf("trips = %d, want 1", len(res.Trips))
	}
	assertDec(t, "PnLPercent", res.Trips[0].PnLPercent, "0")
}

func TestMatchQuantityConservation(t *testing.T) {
	tests := []struct {
		name   string
		opens  []int
		closes []int
	}{
		{"balanced", []int{2, 3}, []int{4, 1}},
		{"excess opens", []int{5, 5}, []int{3}},
		{"excess closes", []int{1}, []int{2, 2}},
		{"no closes", []int{3}, nil},
		{"no opens", nil, []int{3}},
		{"many small", []int{1, 1, 1, 1, 1, 1}, []int{2, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var execs []domain.Execution
			var id int64
			sumOpen, sumClose := 0, 0
			for _, q := range tt.opens {
				id++
				sumOpen += q
				execs = append(execs, fill(id, domain.KindOpenBuy, q, "1", "-100", "0.65"))
			}
			for _, q := range tt.closes {
				id++
				sumClose += q
				execs = append(execs, fill(id, domain.KindCloseSell, q, "1.1", "110", "0.65"))
			}

			res := Match(testDate, testContract, execs)
			matched := 0
			for _, trip := range res.Trips {
				if trip.Quantity <= 0 {
					t.Errorf("trip with quantity %d", trip.Quantity)
				}
				matched += trip.Quantity
			}
			if want := min(sumOpen, sumClose); matched != want {
				t.Errorf("matched = %d, want %d", matched, want)
			}
			openLeft, closeLeft := 0, 0
			for _, l := range res.Leftovers {
				openLeft += l.OpenQty
				closeLeft += l.CloseQty
			}
			if openLeft != sumOpen-matched || closeLeft != sumClose-matched {
				t.Errorf("leftover = %d open, %d close; want %d, %d", openLeft, closeLeft, sumOpen-matched, sumClose-matched)
			}
		})
	}
}

func TestMatchDeterministic(t *testing.T) {
	execs := []domain.Execution{
		fill(1, domain.KindOpenBuy, 3, "1.17", "-352.95", "1.95"),
		fill(2, domain.KindCloseSell, 2, "1.31", "260.70", "1.30"),
		fill(3, domain.KindCloseSell, 1, "1.09", "108.35", "0.65"),
	}
	a := Match(testDate, testContract, execs)
	b := Match(testDate, testContract, execs)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated Match differs:\n%+v\n%+v", a, b)
	}
}

func TestMatchDayGroupsByContract(t *testing.T) {
	put := mustContract("QQQ---260205P00600000")
	execs := []domain.Execution{
		fill(1, domain.KindOpenBuy, 1, "1.00", "-100", "0"),
		{ID: 2, TradeDate: testDate, Kind: domain.KindOpenBuy, Contract: put, Quantity: 1, Price: dec("2"), Amount: dec("-200"), Commission: dec("0")},
		{ID: 3, TradeDate: testDate, Kind: domain.KindCloseSell, Contract: put, Quantity: 1, Price: dec("2.5"), Amount: dec("250"), Commission: dec("0")},
		fill(4, domain.KindCloseSell, 1, "0.90", "90", "0"),
	}
	res := MatchDay(testDate, execs)
	if len(res.Trips) != 2 {
		t.Fatalf("trips = %d, want 2", len(res.Trips))
	}
	if !res.Trips[0].Contract.Equal(testContract) || !res.Trips[1].Contract.Equal(put) {
		t.Errorf("trip contracts = %v, %v; want call first", res.Trips[0].Contract, res.Trips[1].Contract)
	}
	if res.Trips[0].Seq != 1 || res.Trips[1].Seq != 2 {
		t.Errorf("Seq = %d, %d; want 1, 2", res.Trips[0].Seq, res.Trips[1].Seq)
	}
}
