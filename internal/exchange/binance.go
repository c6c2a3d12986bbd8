package exchange

import (
	"context"
	"log/slog"
	"time"

	"github.com/rtpsquire/squire/internal/api"
	"github.com/rtpsquire/squire/internal/auth"
	"github.com/rtpsquire/squire/internal/model"
)

// DefaultBinanceURL is the Binance REST endpoint.
const DefaultBinanceURL = "https://api.binance.com"

const (
	binanceSpotOrder      = "/api/v3/order"
	binanceSpotAllOrders  = "/api/v3/allOrders"
	binanceMarginOrder    = "/sapi/v1/margin/order"
	binanceMarginAllOrder = "/sapi/v1/margin/allOrders"
)

// Binance serves spot and margin accounts. Futures labels are routed to the
// margin endpoints.
type Binance struct {
	name string
	v3   spotV3
}

// NewBinance creates a Binance adapter for one account.
func NewBinance(creds *auth.Credentials, client *api.Client, logger *slog.Logger) *Binance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binance{
		name: creds.Account,
		v3: spotV3{
			client:    client,
			creds:     creds,
			clock:     auth.NewClock(),
			keyHeader: "X-MBX-APIKEY",
			executed: map[string]bool{
				"FILLED":           true,
				"PARTIALLY_FILLED": true,
				"CANCELED":         true,
			},
			logger: logger.With("exchange", "binance"),
		},
	}
}

// Name returns the configured account name.
func (b *Binance) Name() string {
	return b.name
}

// QueryOrder fetches a spot or margin order.
func (b *Binance) QueryOrder(ctx context.Context, market model.MarketType, symbol, reference string) (model.Order, bool, error) {
	b.v3.logger.Info("querying order",
		"account", b.name,
		"market", market,
		"symbol", symbol,
		"reference", reference,
	)

	switch {
	case market == model.Spot:
		return b.v3.queryOrder(ctx, binanceSpotOrder, symbol, reference)
	case market.Leveraged():
		return b.v3.queryOrder(ctx, binanceMarginOrder, symbol, reference)
	}
	return model.Order{}, false, ErrUnknownMarket
}

// ListOrdersSince requires a symbol on every Binance market.
func (b *Binance) ListOrdersSince(ctx context.Context, market model.MarketType, symbol string, since time.Time) ([]model.Order, error) {
	switch {
	case market == model.Spot:
		return b.v3.listSince(ctx, binanceSpotAllOrders, symbol, since)
	case market.Leveraged():
		return b.v3.listSince(ctx, binanceMarginAllOrder, symbol, since)
	}
	return nil, ErrUnknownMarket
}
