package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the canonical direction and intent of a fill.
type TransactionKind string

const (
	KindOpenBuy   TransactionKind = "Open-Buy"
	KindOpenSell  TransactionKind = "Open-Sell"
	KindCloseBuy  TransactionKind = "Close-Buy"
	KindCloseSell TransactionKind = "Close-Sell"
)

// IsBuy reports whether the kind debits cash.
func (k TransactionKind) IsBuy() bool {
	return k == KindOpenBuy || k == KindCloseBuy
}

// Valid reports whether k is one of the four canonical kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindOpenBuy, KindOpenSell, KindCloseBuy, KindCloseSell:
		return true
	}
	return false
}

// Execution is one reported fill. Quantity is always a positive magnitude;
// direction is carried by Kind. Amount is signed cash (negative for buys) and
// already includes costs.
type Execution struct {
	ID          int64            `json:"id"`
	TradeDate   time.Time        `json:"trade_date"`
	Kind        TransactionKind  `json:"kind"`
	Label       string           `json:"label"`
	Symbol      string           `json:"symbol"`
	Contract    ContractIdentity `json:"contract"`
	Quantity    int              `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Amount      decimal.Decimal  `json:"amount"`
	Commission  decimal.Decimal  `json:"commission"`
	Description string           `json:"description,omitempty"`
	NaturalKey  string           `json:"natural_key"`
}

// RawRecord is one row from a broker export with every field still a string.
type RawRecord struct {
	TransactionDate string `csv:"TransactionDate" json:"transaction_date"`
	TransactionType string `csv:"TransactionType" json:"transaction_type"`
	SecurityType    string `csv:"SecurityType" json:"security_type"`
	Symbol          string `csv:"Symbol" json:"symbol"`
	Quantity        string `csv:"Quantity" json:"quantity"`
	Amount          string `csv:"Amount" json:"amount"`
	Price           string `csv:"Price" json:"price"`
	Commission      string `csv:"Commission" json:"commission"`
	Description     string `csv:"Description" json:"description"`
}
