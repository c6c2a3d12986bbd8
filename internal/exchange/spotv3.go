package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rtpsquire/squire/internal/api"
	"github.com/rtpsquire/squire/internal/auth"
	"github.com/rtpsquire/squire/internal/model"
)

// codeOrderNotExist is the spot v3 error code for an unknown order id.
const codeOrderNotExist = -2013

// spotV3 speaks the signed query-string protocol shared by Binance and the
// Mexc spot v3 API: HMAC-SHA256 over the encoded query in insertion order,
// sent as the trailing signature parameter, API key in a header.
type spotV3 struct {
	client    *api.Client
	creds     *auth.Credentials
	clock     *auth.Clock
	keyHeader string
	executed  map[string]bool // Statuses whose orders may carry executions
	logger    *slog.Logger
}

type spotOrder struct {
	Code                int             `json:"code"`
	Msg                 string          `json:"msg"`
	Symbol              string          `json:"symbol"`
	OrderID             flexID          `json:"orderId"`
	Status              string          `json:"status"`
	Side                string          `json:"side"`
	ExecutedQty         decimal.Decimal `json:"executedQty"`
	CummulativeQuoteQty decimal.Decimal `json:"cummulativeQuoteQty"`
	UpdateTime          int64           `json:"updateTime"`
}

type spotError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (s *spotV3) signed(path string, params auth.Params) api.RequestFunc {
	return func() (api.Request, error) {
		p := append(auth.Params{}, params...).
			Add("timestamp", strconv.FormatInt(s.clock.TimestampMs(), 10))
		query := p.Encode()
		query += "&signature=" + s.creds.Sign(query)

		return api.Request{
			Method: http.MethodGet,
			Path:   path,
			Query:  query,
			Header: map[string]string{s.keyHeader: s.creds.APIKey},
		}, nil
	}
}

func (s *spotV3) queryOrder(ctx context.Context, path, symbol, reference string) (model.Order, bool, error) {
	params := auth.Params{}.
		Add("symbol", compactSymbol(symbol)).
		Add("orderId", reference)

	var o spotOrder
	if err := s.client.Do(ctx, s.signed(path, params), &o); err != nil {
		if code, ok := s.errorCode(err); ok && code.Code == codeOrderNotExist {
			s.logger.Warn("order does not exist",
				"account", s.creds.Account,
				"symbol", symbol,
				"reference", reference,
			)
			return model.Order{}, false, nil
		}
		return model.Order{}, false, s.describe(err)
	}
	if o.Code != 0 {
		return model.Order{}, false, fmt.Errorf("%s api error: code %d: %s", s.client.Service(), o.Code, o.Msg)
	}

	return s.normalize(o, symbol)
}

func (s *spotV3) listSince(ctx context.Context, path, symbol string, since time.Time) ([]model.Order, error) {
	if symbol == "" {
		return nil, ErrUnsupported
	}

	params := auth.Params{}.
		Add("symbol", compactSymbol(symbol)).
		Add("startTime", strconv.FormatInt(since.UnixMilli(), 10)).
		Add("limit", "1000")

	var raw []spotOrder
	if err := s.client.Do(ctx, s.signed(path, params), &raw); err != nil {
		return nil, s.describe(err)
	}

	orders := make([]model.Order, 0, len(raw))
	for _, o := range raw {
		order, found, err := s.normalize(o, symbol)
		if err != nil {
			return nil, err
		}
		if found {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// normalize converts a spot v3 order. Average price is derived from the
// cumulative quote amount because the API does not report it directly.
func (s *spotV3) normalize(o spotOrder, symbol string) (model.Order, bool, error) {
	if !s.executed[o.Status] {
		s.logger.Warn("order status not accepted, skipping",
			"account", s.creds.Account,
			"reference", string(o.OrderID),
			"status", o.Status,
		)
		return model.Order{}, false, nil
	}
	if !o.ExecutedQty.IsPositive() {
		s.logger.Warn("order has no executed quantity, skipping",
			"account", s.creds.Account,
			"reference", string(o.OrderID),
			"status", o.Status,
		)
		return model.Order{}, false, nil
	}

	side, err := model.ParseSide(o.Side)
	if err != nil {
		return model.Order{}, false, fmt.Errorf("order %s: %w", o.OrderID, err)
	}

	return model.Order{
		OrderID:          string(o.OrderID),
		Timestamp:        time.UnixMilli(o.UpdateTime),
		Symbol:           model.CanonicalSymbol(symbol),
		Side:             side,
		AveragePrice:     o.CummulativeQuoteQty.Div(o.ExecutedQty),
		ExecutedQuantity: o.ExecutedQty,
	}, true, nil
}

func (s *spotV3) errorCode(err error) (spotError, bool) {
	apiErr, ok := api.AsAPIError(err)
	if !ok {
		return spotError{}, false
	}
	var e spotError
	if json.Unmarshal(apiErr.Body, &e) != nil || e.Code == 0 {
		return spotError{}, false
	}
	return e, true
}

// describe appends the exchange's own error code and message when present.
func (s *spotV3) describe(err error) error {
	if e, ok := s.errorCode(err); ok {
		return fmt.Errorf("%w (code %d: %s)", err, e.Code, e.Msg)
	}
	return err
}
