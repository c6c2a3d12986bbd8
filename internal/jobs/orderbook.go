package jobs

import (
	"context"
	"fmt"

	"github.com/rtpsquire/squire/internal/exchange"
	"github.com/rtpsquire/squire/internal/model"
	"github.com/rtpsquire/squire/internal/sheets"
)

// NameOrderBook is the order book job's name.
const NameOrderBook = "order-book"

// OrderBookStore is the part of the tabular store the order book job uses.
type OrderBookStore interface {
	PendingRows(ctx context.Context) ([]sheets.PendingRow, error)
	UpdateRow(ctx context.Context, number int, values map[sheets.Column]string) error
	RefreshCache(ctx context.Context) error
}

// OrderBook fills pending order book rows from the exchanges.
type OrderBook struct {
	store    OrderBookStore
	adapters map[string]exchange.Adapter
	options
}

// NewOrderBook creates the order book job. adapters is keyed by account name.
func NewOrderBook(store OrderBookStore, adapters map[string]exchange.Adapter, opts ...Option) *OrderBook {
	return &OrderBook{
		store:    store,
		adapters: adapters,
		options:  newOptions(opts),
	}
}

// Name returns the job name.
func (j *OrderBook) Name() string {
	return NameOrderBook
}

// Run reconciles every pending row. A row that fails is marked
// "FAILED - <reason>" and the next row is processed.
func (j *OrderBook) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	rows, err := j.store.PendingRows(ctx)
	if err != nil {
		return sum, fmt.Errorf("read pending rows: %w", err)
	}
	j.logger.Info("processing order book rows", "rows", len(rows))

	for _, row := range rows {
		values, err := j.processRow(ctx, row)
		if err != nil {
			j.logger.Error("failed to process row",
				"row", row.Number,
				"account", row.Account,
				"reference", row.Reference,
				"error", err,
			)
			values = map[sheets.Column]string{sheets.ColRefresh: sheets.RefreshFailed + err.Error()}
		}
		if values == nil {
			sum.Skipped++
			continue
		}

		if uerr := j.store.UpdateRow(ctx, row.Number, values); uerr != nil {
			j.logger.Error("failed to update row", "row", row.Number, "error", uerr)
			sum.Failed++
			continue
		}
		if err != nil {
			sum.Failed++
		} else {
			sum.Completed++
		}
	}

	if err := j.store.RefreshCache(ctx); err != nil {
		j.logger.Warn("failed to refresh sheet cache", "error", err)
	}
	return sum, nil
}

// processRow returns the cells to write, or nil when the exchange has no
// executed order for the reference.
func (j *OrderBook) processRow(ctx context.Context, row sheets.PendingRow) (map[sheets.Column]string, error) {
	if row.Account == "" || row.Pair == "" || row.Reference == "" {
		return nil, fmt.Errorf("invalid row with account %q, pair %q, reference %q", row.Account, row.Pair, row.Reference)
	}

	adapter, market := exchange.Resolve(row.Account, j.adapters)
	if adapter == nil {
		return nil, fmt.Errorf("no exchange resolved for account %q", row.Account)
	}
	if market == "" {
		return nil, fmt.Errorf("no market type in account %q", row.Account)
	}

	j.logger.Info("processing row",
		"row", row.Number,
		"account", row.Account,
		"pair", row.Pair,
		"reference", row.Reference,
	)

	order, found, err := adapter.QueryOrder(ctx, market, row.Pair, row.Reference)
	if err != nil {
		return nil, err
	}
	if !found {
		j.logger.Info("order not found, leaving row unchanged", "row", row.Number, "reference", row.Reference)
		return nil, nil
	}
	j.save(ctx, NameOrderBook, row.Account, []model.Order{order})

	values := map[sheets.Column]string{
		sheets.ColDate:     order.Timestamp.In(j.location).Format(sheets.DateFormat),
		sheets.ColSide:     string(order.Side),
		sheets.ColAverage:  order.AveragePrice.String(),
		sheets.ColExecuted: order.ExecutedQuantity.String(),
		sheets.ColRefresh:  sheets.RefreshCompleted,
	}
	if order.Fee != nil {
		values[sheets.ColFees] = order.Fee.Amount.String()
		values[sheets.ColFeeCurrency] = order.Fee.Currency
	}
	return values, nil
}
