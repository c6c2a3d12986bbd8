package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rtpsquire/squire/internal/model"
)

var (
	// ErrUnsupported is returned when an exchange cannot enumerate orders for
	// a market without a symbol filter.
	ErrUnsupported = errors.New("listing orders is not supported for this market without a symbol")

	// ErrUnknownMarket is returned for market types an adapter does not serve.
	ErrUnknownMarket = errors.New("unknown market type")
)

// Adapter is implemented by every exchange.
type Adapter interface {
	// Name returns the configured account name, e.g. "Binance Main".
	Name() string

	// QueryOrder fetches a single order by its exchange reference. found is
	// false when the exchange has no such order or the order never executed.
	QueryOrder(ctx context.Context, market model.MarketType, symbol, reference string) (order model.Order, found bool, err error)

	// ListOrdersSince returns executed orders updated at or after since.
	// symbol may be empty; markets that require one return ErrUnsupported.
	ListOrdersSince(ctx context.Context, market model.MarketType, symbol string, since time.Time) ([]model.Order, error)
}

// Resolve maps an account label ("<exchange-name> <market-type>") to its adapter.
//
// Exactly one configured name must be a prefix of label; otherwise the
// adapter is nil. The market type is the first token after the matched name
// and is empty when that token is not a known market type.
func Resolve(label string, adapters map[string]Adapter) (Adapter, model.MarketType) {
	var (
		match   Adapter
		name    string
		matches int
	)
	for n, a := range adapters {
		if n != "" && strings.HasPrefix(label, n) {
			match, name = a, n
			matches++
		}
	}
	if matches != 1 {
		return nil, ""
	}

	rest := strings.Fields(strings.TrimPrefix(label, name))
	if len(rest) == 0 {
		return match, ""
	}
	market, _ := model.ParseMarketType(rest[0])
	return match, market
}
