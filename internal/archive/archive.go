package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rtpsquire/squire/internal/model"
)

// Schema creates the archive table.
const Schema = `
CREATE TABLE IF NOT EXISTS order_archive (
	account      TEXT        NOT NULL,
	order_id     TEXT        NOT NULL,
	run_id       UUID        NOT NULL,
	job          TEXT        NOT NULL,
	order_ts     TIMESTAMPTZ NOT NULL,
	symbol       TEXT        NOT NULL,
	side         TEXT        NOT NULL,
	average      NUMERIC     NOT NULL,
	executed     NUMERIC     NOT NULL,
	fee          NUMERIC,
	fee_currency TEXT,
	archived_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (account, symbol, order_id)
)`

const upsertOrder = `
INSERT INTO order_archive (account, order_id, run_id, job, order_ts, symbol, side, average, executed, fee, fee_currency, archived_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (account, symbol, order_id) DO UPDATE SET
	run_id       = EXCLUDED.run_id,
	job          = EXCLUDED.job,
	order_ts     = EXCLUDED.order_ts,
	side         = EXCLUDED.side,
	average      = EXCLUDED.average,
	executed     = EXCLUDED.executed,
	fee          = EXCLUDED.fee,
	fee_currency = EXCLUDED.fee_currency,
	archived_at  = EXCLUDED.archived_at`

// DB is the subset of *pgxpool.Pool the archive uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Stats counts archive activity for one process.
type Stats struct {
	Orders  int64
	Batches int64
	Errors  int64
}

// Archive upserts orders into order_archive. It implements jobs.OrderSink.
type Archive struct {
	db     DB
	runID  uuid.UUID
	now    func() time.Time
	logger *slog.Logger
	stats  Stats
}

// New creates an archive with a fresh run id.
func New(db DB, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		db:     db,
		runID:  uuid.New(),
		now:    time.Now,
		logger: logger,
	}
}

// RunID identifies the rows written by this process.
func (a *Archive) RunID() uuid.UUID {
	return a.runID
}

// Stats returns current counters.
func (a *Archive) Stats() Stats {
	return a.stats
}

// EnsureSchema creates the archive table if it does not exist.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create order_archive: %w", err)
	}
	return nil
}

// SaveOrders upserts the orders fetched by job for account in one batch.
func (a *Archive) SaveOrders(ctx context.Context, job, account string, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	start := a.now()
	batch := a.batch(job, account, orders, start)

	results := a.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, o := range orders {
		if _, err := results.Exec(); err != nil {
			a.stats.Errors++
			return fmt.Errorf("archive order %s/%s/%s: %w", account, o.Symbol, o.OrderID, err)
		}
	}

	a.stats.Orders += int64(len(orders))
	a.stats.Batches++

	a.logger.Debug("archived orders",
		"run_id", a.runID,
		"job", job,
		"account", account,
		"count", len(orders),
		"duration", a.now().Sub(start),
	)
	return nil
}

func (a *Archive) batch(job, account string, orders []model.Order, at time.Time) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, o := range orders {
		r := transform(a.runID, job, account, o, at)
		batch.Queue(upsertOrder,
			r.Account, r.OrderID, r.RunID, r.Job, r.OrderTs, r.Symbol, r.Side,
			r.Average, r.Executed, r.Fee, r.FeeCurrency, r.ArchivedAt,
		)
	}
	return batch
}

// orderRow is one order_archive row. Decimals are sent as text so NUMERIC
// keeps full precision.
type orderRow struct {
	Account     string
	OrderID     string
	RunID       uuid.UUID
	Job         string
	OrderTs     time.Time
	Symbol      string
	Side        string
	Average     string
	Executed    string
	Fee         *string
	FeeCurrency *string
	ArchivedAt  time.Time
}

func transform(runID uuid.UUID, job, account string, o model.Order, at time.Time) orderRow {
	r := orderRow{
		Account:    account,
		OrderID:    o.OrderID,
		RunID:      runID,
		Job:        job,
		OrderTs:    o.Timestamp.UTC(),
		Symbol:     o.Symbol,
		Side:       string(o.Side),
		Average:    o.AveragePrice.String(),
		Executed:   o.ExecutedQuantity.String(),
		ArchivedAt: at.UTC(),
	}
	if o.Fee != nil {
		fee := o.Fee.Amount.String()
		currency := o.Fee.Currency
		r.Fee = &fee
		r.FeeCurrency = &currency
	}
	return r
}
