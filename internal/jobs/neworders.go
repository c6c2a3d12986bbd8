package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rtpsquire/squire/internal/exchange"
	"github.com/rtpsquire/squire/internal/model"
	"github.com/rtpsquire/squire/internal/sheets"
)

// NameNewOrders is the new orders job's name.
const NameNewOrders = "new-orders"

// checkpointStep is the granularity of the default start time.
const checkpointStep = 15 * time.Minute

// NewOrdersStore is the part of the tabular store the new orders job uses.
type NewOrdersStore interface {
	Checkpoints(ctx context.Context) ([]sheets.Checkpoint, error)
	SetCheckpoint(ctx context.Context, account string, at time.Time) error
	ReplaceNewOrders(ctx context.Context, accounts []sheets.AccountOrders) error
}

// NewOrders lists each account's orders since its checkpoint into the new
// orders sheet.
type NewOrders struct {
	store    NewOrdersStore
	adapters map[string]exchange.Adapter
	options
}

// NewNewOrders creates the new orders job. adapters is keyed by account name.
func NewNewOrders(store NewOrdersStore, adapters map[string]exchange.Adapter, opts ...Option) *NewOrders {
	return &NewOrders{
		store:    store,
		adapters: adapters,
		options:  newOptions(opts),
	}
}

// Name returns the job name.
func (j *NewOrders) Name() string {
	return NameNewOrders
}

// DefaultStart is the start time for accounts without a checkpoint: the
// last quarter-hour boundary before now, minus one quarter-hour, so
// consecutive first runs overlap instead of leaving a gap.
func DefaultStart(now time.Time) time.Time {
	return now.Truncate(checkpointStep).Add(-checkpointStep)
}

// Run fetches every account. An account that fails keeps its checkpoint and
// does not stop the others. The orders region is only rewritten when at
// least one account returned orders. Accounts without a checkpoint that
// were fetched successfully get the default start time as checkpoint.
// Existing checkpoints are never moved.
func (j *NewOrders) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	checkpoints, err := j.store.Checkpoints(ctx)
	if err != nil {
		return sum, fmt.Errorf("read checkpoints: %w", err)
	}
	if len(checkpoints) == 0 {
		j.logger.Warn("no accounts in the new orders sheet")
		return sum, nil
	}

	defaultStart := DefaultStart(j.now())
	j.logger.Info("default start for accounts without checkpoint", "start", defaultStart)

	var (
		found   []sheets.AccountOrders
		advance []string
	)
	for _, cp := range checkpoints {
		orders, err := j.fetch(ctx, cp, defaultStart)
		switch {
		case errors.Is(err, exchange.ErrUnsupported):
			j.logger.Warn("listing orders not supported, skipping account", "account", cp.Account)
			sum.Skipped++
			continue
		case err != nil:
			j.logger.Error("failed to fetch new orders, skipping account",
				"account", cp.Account,
				"error", err,
			)
			sum.Failed++
			continue
		}

		sum.Completed++
		if !cp.Present {
			advance = append(advance, cp.Account)
		}
		if len(orders) == 0 {
			j.logger.Info("no new orders", "account", cp.Account)
			continue
		}
		j.logger.Info("found new orders", "account", cp.Account, "orders", len(orders))
		found = append(found, sheets.AccountOrders{Account: cp.Account, Orders: orders})
		j.save(ctx, NameNewOrders, cp.Account, orders)
	}

	if len(found) > 0 {
		if err := j.store.ReplaceNewOrders(ctx, found); err != nil {
			j.logger.Error("failed to write new orders", "error", err)
		}
	}

	for _, account := range advance {
		if err := j.store.SetCheckpoint(ctx, account, defaultStart); err != nil {
			j.logger.Error("failed to set checkpoint", "account", account, "error", err)
		}
	}
	return sum, nil
}

func (j *NewOrders) fetch(ctx context.Context, cp sheets.Checkpoint, defaultStart time.Time) ([]model.Order, error) {
	if cp.Err != nil {
		return nil, cp.Err
	}

	start := defaultStart
	if cp.Present {
		start = cp.At
	}

	adapter, market := exchange.Resolve(cp.Account, j.adapters)
	if adapter == nil {
		return nil, fmt.Errorf("no exchange resolved for account %q", cp.Account)
	}
	if market == "" {
		return nil, fmt.Errorf("no market type in account %q", cp.Account)
	}

	j.logger.Info("listing orders", "account", cp.Account, "since", start)
	return adapter.ListOrdersSince(ctx, market, "", start)
}
