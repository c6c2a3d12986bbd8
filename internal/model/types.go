package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "Buy"
	Sell Side = "Sell"
)

// ParseSide maps exchange side strings ("BUY", "sell", "Buy") to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return "", fmt.Errorf("unknown order side %q", s)
}

// MarketType selects which exchange endpoint family an account label refers to.
type MarketType string

const (
	Spot    MarketType = "Spot"
	Margin  MarketType = "Margin"
	Futures MarketType = "Futures"
)

// ParseMarketType returns the market type named by s, or false if s is not one.
func ParseMarketType(s string) (MarketType, bool) {
	switch MarketType(s) {
	case Spot, Margin, Futures:
		return MarketType(s), true
	}
	return "", false
}

// Leveraged reports whether the market is served by the leverage endpoints.
func (m MarketType) Leveraged() bool {
	return m == Margin || m == Futures
}

// Order is the canonical order record every exchange adapter produces.
type Order struct {
	OrderID          string          // Exchange-assigned, unique within exchange+market
	Timestamp        time.Time       // Last update time reported by the exchange
	Symbol           string          // Canonical "BASE/QUOTE"
	Side             Side            // Buy or Sell
	AveragePrice     decimal.Decimal // >= 0
	ExecutedQuantity decimal.Decimal // >= 0, base asset
	Fee              *Fee            // nil when the exchange does not report fees
}

// Fee is the fee charged for an order. Amount and Currency are always set together.
type Fee struct {
	Amount   decimal.Decimal
	Currency string
}

// NewFee returns a fee, or nil if currency is blank.
func NewFee(amount decimal.Decimal, currency string) *Fee {
	if strings.TrimSpace(currency) == "" {
		return nil
	}
	return &Fee{Amount: amount, Currency: currency}
}

// CanonicalSymbol converts "btc/usdt", "BTC_USDT" or "BTC-USDT" to "BTC/USDT".
// Concatenated forms like "BTCUSDT" are returned upper-cased and unchanged.
func CanonicalSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("_", "/", "-", "/").Replace(s)
}

// -----------------------------------------------------------------------------
// Journal
// -----------------------------------------------------------------------------

// JournalEntry is a journal document awaiting order reconciliation.
type JournalEntry struct {
	ID         string   // Document store id
	References []string // Order references, trimmed, blanks dropped
	TableID    string   // Previously generated table artifact, empty if none
	Tags       TagSet   // Action tags
}

// SplitReferences splits a comma-joined reference field.
func SplitReferences(field string) []string {
	var refs []string
	for _, r := range strings.Split(field, ",") {
		if r = strings.TrimSpace(r); r != "" {
			refs = append(refs, r)
		}
	}
	return refs
}
