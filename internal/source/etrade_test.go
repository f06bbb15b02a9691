package source

import (
	"errors"
	"strings"
	"testing"
)

const sampleExport = `For Account:,####1234

Transaction Summary
TransactionDate,TransactionType,SecurityType,Symbol,Quantity,Amount,Price,Commission,Description
02/05/26,Bought,OPTN,QQQ---260205C00609000,2,-201.30,1.00,1.30,CALL QQQ 02/05/26 609.000
02/05/26,Sold,OPTN,QQQ---260205C00609000,-2,"298.70",1.50,1.30,"CALL QQQ 02/05/26 609.000, closing"
02/05/26,Bought,EQ,AAPL,10,-1800.00,180.00,0,APPLE INC

All transactions are subject to review.,,,
`

func TestParseETrade(t *testing.T) {
	records, err := ParseETrade(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("ParseETrade: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	first := records[0]
	if first.TransactionDate != "02/05/26" || first.TransactionType != "Bought" {
		t.Errorf("first record = %+v", first)
	}
	if first.Symbol != "QQQ---260205C00609000" || first.Quantity != "2" || first.Amount != "-201.30" {
		t.Errorf("first record fields = %q %q %q", first.Symbol, first.Quantity, first.Amount)
	}
	if got := records[1].Description; got != "CALL QQQ 02/05/26 609.000, closing" {
		t.Errorf("quoted description = %q", got)
	}
	if records[2].SecurityType != "EQ" {
		t.Errorf("SecurityType = %q, want EQ", records[2].SecurityType)
	}
}

func TestParseETradeNoHeader(t *testing.T) {
	_, err := ParseETrade(strings.NewReader("Date,Action,Symbol\n02/05/26,Buy,QQQ\n"))
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("error = %v, want %v", err, ErrNoHeader)
	}
}
