package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rtpsquire/squire/internal/api"
	"github.com/rtpsquire/squire/internal/auth"
	"github.com/rtpsquire/squire/internal/model"
)

// Default Mexc endpoints.
const (
	DefaultMexcSpotURL    = "https://api.mexc.com"
	DefaultMexcFuturesURL = "https://contract.mexc.com"
)

const (
	mexcSpotOrder        = "/api/v3/order"
	mexcSpotAllOrders    = "/api/v3/allOrders"
	mexcFuturesOrderPath = "/api/v1/private/order/get/"
	mexcFuturesHistory   = "/api/v1/private/order/list/history_orders"
	mexcFuturesPageSize  = 100
	mexcFuturesMaxPages  = 50
)

// Futures order states.
const (
	mexcStateUninformed  = 1
	mexcStateUncompleted = 2
	mexcStateCompleted   = 3
	mexcStateCancelled   = 4
	mexcStateInvalid     = 5
)

// Mexc serves spot accounts through the v3 API and futures (and margin
// labels) through the contract API.
type Mexc struct {
	name    string
	creds   *auth.Credentials
	clock   *auth.Clock
	spot    spotV3
	futures *api.Client
	logger  *slog.Logger
}

// NewMexc creates a Mexc adapter for one account.
func NewMexc(creds *auth.Credentials, spot, futures *api.Client, logger *slog.Logger) *Mexc {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("exchange", "mexc")
	clock := auth.NewClock()

	return &Mexc{
		name:  creds.Account,
		creds: creds,
		clock: clock,
		spot: spotV3{
			client:    spot,
			creds:     creds,
			clock:     clock,
			keyHeader: "X-MEXC-APIKEY",
			executed: map[string]bool{
				"FILLED":             true,
				"PARTIALLY_FILLED":   true,
				"CANCELED":           true,
				"PARTIALLY_CANCELED": true,
			},
			logger: logger,
		},
		futures: futures,
		logger:  logger,
	}
}

// Name returns the configured account name.
func (m *Mexc) Name() string {
	return m.name
}

// QueryOrder fetches a spot or futures order.
func (m *Mexc) QueryOrder(ctx context.Context, market model.MarketType, symbol, reference string) (model.Order, bool, error) {
	m.logger.Info("querying order",
		"account", m.name,
		"market", market,
		"symbol", symbol,
		"reference", reference,
	)

	switch {
	case market == model.Spot:
		return m.spot.queryOrder(ctx, mexcSpotOrder, symbol, reference)
	case market.Leveraged():
		return m.queryFuturesOrder(ctx, reference)
	}
	return model.Order{}, false, ErrUnknownMarket
}

// ListOrdersSince lists futures orders across all symbols. Spot listing
// needs a symbol.
func (m *Mexc) ListOrdersSince(ctx context.Context, market model.MarketType, symbol string, since time.Time) ([]model.Order, error) {
	switch {
	case market == model.Spot:
		return m.spot.listSince(ctx, mexcSpotAllOrders, symbol, since)
	case market.Leveraged():
		return m.listFuturesOrders(ctx, symbol, since)
	}
	return nil, ErrUnknownMarket
}

// -----------------------------------------------------------------------------
// Futures (contract API)
// -----------------------------------------------------------------------------

type mexcEnvelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// mexcAPIError is a non-zero code in a contract API envelope.
type mexcAPIError struct {
	Service string
	Code    int
	Message string
}

func (e *mexcAPIError) Error() string {
	return fmt.Sprintf("%s api error: code %d: %s", e.Service, e.Code, e.Message)
}

// orderNotExist reports whether the error says the order is unknown. The
// contract API reuses codes across endpoints, so the message decides.
func (e *mexcAPIError) orderNotExist() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "not exist") || strings.Contains(msg, "not found")
}

type mexcFuturesOrder struct {
	OrderID      flexID          `json:"orderId"`
	Symbol       string          `json:"symbol"`
	Side         int             `json:"side"`
	State        int             `json:"state"`
	DealAvgPrice decimal.Decimal `json:"dealAvgPrice"`
	DealVol      decimal.Decimal `json:"dealVol"`
	TakerFee     decimal.Decimal `json:"takerFee"`
	MakerFee     decimal.Decimal `json:"makerFee"`
	FeeCurrency  string          `json:"feeCurrency"`
	UpdateTime   int64           `json:"updateTime"`
}

// signedFutures signs apiKey + timestamp + sorted query with HMAC-SHA256 and
// sends the result in headers.
func (m *Mexc) signedFutures(path string, params auth.Params) api.RequestFunc {
	return func() (api.Request, error) {
		ts := strconv.FormatInt(m.clock.TimestampMs(), 10)
		query := params.Sorted().Encode()

		return api.Request{
			Method: http.MethodGet,
			Path:   path,
			Query:  query,
			Header: map[string]string{
				"ApiKey":       m.creds.APIKey,
				"Request-Time": ts,
				"Signature":    m.creds.Sign(m.creds.APIKey + ts + query),
				"Content-Type": "application/json",
			},
		}, nil
	}
}

func (m *Mexc) getFutures(ctx context.Context, path string, params auth.Params) (json.RawMessage, error) {
	var env mexcEnvelope
	if err := m.futures.Do(ctx, m.signedFutures(path, params), &env); err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &mexcAPIError{Service: m.futures.Service(), Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

func (m *Mexc) queryFuturesOrder(ctx context.Context, reference string) (model.Order, bool, error) {
	data, err := m.getFutures(ctx, mexcFuturesOrderPath+url.PathEscape(reference), nil)
	var apiErr *mexcAPIError
	if errors.As(err, &apiErr) && apiErr.orderNotExist() {
		m.logger.Warn("order does not exist",
			"account", m.name,
			"reference", reference,
			"code", apiErr.Code,
		)
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	if isNull(data) {
		m.logger.Warn("order does not exist", "account", m.name, "reference", reference)
		return model.Order{}, false, nil
	}

	var o mexcFuturesOrder
	if err := json.Unmarshal(data, &o); err != nil {
		return model.Order{}, false, fmt.Errorf("decode futures order: %w", err)
	}
	return m.normalizeFutures(o)
}

func (m *Mexc) listFuturesOrders(ctx context.Context, symbol string, since time.Time) ([]model.Order, error) {
	m.logger.Info("listing futures orders",
		"account", m.name,
		"symbol", symbol,
		"since", since,
	)

	var orders []model.Order
	for page := 1; ; page++ {
		params := auth.Params{}.
			Add("page_num", strconv.Itoa(page)).
			Add("page_size", strconv.Itoa(mexcFuturesPageSize)).
			Add("start_time", strconv.FormatInt(since.UnixMilli(), 10))
		if symbol != "" {
			params = params.Add("symbol", underscoreSymbol(symbol))
		}

		data, err := m.getFutures(ctx, mexcFuturesHistory, params)
		if err != nil {
			return nil, err
		}
		raw, totalPage, err := decodeFuturesPage(data)
		if err != nil {
			return nil, err
		}

		for _, o := range raw {
			order, found, err := m.normalizeFutures(o)
			if err != nil {
				return nil, err
			}
			if found {
				orders = append(orders, order)
			}
		}

		if len(raw) < mexcFuturesPageSize || (totalPage > 0 && page >= totalPage) {
			break
		}
		if page >= mexcFuturesMaxPages {
			return nil, fmt.Errorf("futures history since %s exceeds %d pages", since.Format(time.RFC3339), mexcFuturesMaxPages)
		}
	}

	m.logger.Info("listed futures orders", "account", m.name, "count", len(orders))
	return orders, nil
}

// decodeFuturesPage accepts both a bare array and the {"resultList": [...]}
// wrapper the history endpoint has used. totalPage is 0 when unknown.
func decodeFuturesPage(data json.RawMessage) (orders []mexcFuturesOrder, totalPage int, err error) {
	if isNull(data) {
		return nil, 0, nil
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		if err := json.Unmarshal(data, &orders); err != nil {
			return nil, 0, fmt.Errorf("decode futures orders: %w", err)
		}
		return orders, 0, nil
	}
	var wrapped struct {
		ResultList []mexcFuturesOrder `json:"resultList"`
		TotalPage  int                `json:"totalPage"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, 0, fmt.Errorf("decode futures orders: %w", err)
	}
	return wrapped.ResultList, wrapped.TotalPage, nil
}

// normalizeFutures converts a contract order. Side codes 1 (open long) and
// 2 (close short) are buys; 3 (open short) and 4 (close long) are sells.
// Fee is the sum of the taker and maker components.
func (m *Mexc) normalizeFutures(o mexcFuturesOrder) (model.Order, bool, error) {
	switch o.State {
	case mexcStateUninformed, mexcStateInvalid:
		m.logger.Warn("order state not accepted, skipping",
			"account", m.name,
			"reference", string(o.OrderID),
			"state", o.State,
		)
		return model.Order{}, false, nil
	case mexcStateUncompleted, mexcStateCompleted, mexcStateCancelled:
	default:
		return model.Order{}, false, fmt.Errorf("order %s: unknown state %d", o.OrderID, o.State)
	}
	if !o.DealVol.IsPositive() {
		m.logger.Warn("order has no executed quantity, skipping",
			"account", m.name,
			"reference", string(o.OrderID),
			"state", o.State,
		)
		return model.Order{}, false, nil
	}

	var side model.Side
	switch o.Side {
	case 1, 2:
		side = model.Buy
	case 3, 4:
		side = model.Sell
	default:
		return model.Order{}, false, fmt.Errorf("order %s: unknown side code %d", o.OrderID, o.Side)
	}

	return model.Order{
		OrderID:          string(o.OrderID),
		Timestamp:        time.UnixMilli(o.UpdateTime),
		Symbol:           model.CanonicalSymbol(o.Symbol),
		Side:             side,
		AveragePrice:     o.DealAvgPrice,
		ExecutedQuantity: o.DealVol,
		Fee:              model.NewFee(o.TakerFee.Add(o.MakerFee), o.FeeCurrency),
	}, true, nil
}

func isNull(data json.RawMessage) bool {
	d := bytes.TrimSpace(data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}
