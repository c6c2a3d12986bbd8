package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/rtpsquire/squire/internal/model"
)

type fakeResults struct {
	execs  int
	failAt int // 1-based; 0 never fails
	closed bool
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	r.execs++
	if r.failAt != 0 && r.execs == r.failAt {
		return pgconn.CommandTag{}, errors.New("duplicate key")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeResults) QueryRow() pgx.Row { return nil }
func (r *fakeResults) Close() error {
	r.closed = true
	return nil
}

type fakeDB struct {
	execSQL []string
	execErr error
	batches []*pgx.Batch
	results *fakeResults
}

func (db *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	db.execSQL = append(db.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), db.execErr
}

func (db *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	db.batches = append(db.batches, b)
	if db.results == nil {
		db.results = &fakeResults{}
	}
	return db.results
}

func testOrders() []model.Order {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	return []model.Order{
		{
			OrderID:          "1001",
			Timestamp:        ts,
			Symbol:           "BTC/USDT",
			Side:             model.Buy,
			AveragePrice:     decimal.RequireFromString("42000.125"),
			ExecutedQuantity: decimal.RequireFromString("0.5"),
			Fee:              model.NewFee(decimal.RequireFromString("0.0005"), "BNB"),
		},
		{
			OrderID:          "1002",
			Timestamp:        ts,
			Symbol:           "ETH/USDT",
			Side:             model.Sell,
			AveragePrice:     decimal.RequireFromString("3000"),
			ExecutedQuantity: decimal.RequireFromString("2"),
		},
	}
}

func TestTransform(t *testing.T) {
	a := New(&fakeDB{}, nil)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := testOrders()

	r := transform(a.RunID(), "order-book", "Acme", orders[0], at)
	if r.Account != "Acme" || r.OrderID != "1001" || r.Job != "order-book" {
		t.Errorf("identity = %s/%s/%s", r.Account, r.OrderID, r.Job)
	}
	if r.RunID != a.RunID() {
		t.Errorf("RunID = %s, want %s", r.RunID, a.RunID())
	}
	if !r.OrderTs.Equal(orders[0].Timestamp) || r.OrderTs.Location() != time.UTC {
		t.Errorf("OrderTs = %v, want %v in UTC", r.OrderTs, orders[0].Timestamp)
	}
	if r.Side != "Buy" {
		t.Errorf("Side = %s, want Buy", r.Side)
	}
	if r.Average != "42000.125" || r.Executed != "0.5" {
		t.Errorf("Average/Executed = %s/%s", r.Average, r.Executed)
	}
	if r.Fee == nil || *r.Fee != "0.0005" || r.FeeCurrency == nil || *r.FeeCurrency != "BNB" {
		t.Errorf("Fee = %v %v, want 0.0005 BNB", r.Fee, r.FeeCurrency)
	}

	r = transform(a.RunID(), "new-orders", "Acme", orders[1], at)
	if r.Fee != nil || r.FeeCurrency != nil {
		t.Errorf("Fee = %v %v, want nil", r.Fee, r.FeeCurrency)
	}
}

func TestSaveOrders(t *testing.T) {
	db := &fakeDB{}
	a := New(db, nil)

	if err := a.SaveOrders(context.Background(), "new-orders", "Acme", testOrders()); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	if len(db.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(db.batches))
	}
	b := db.batches[0]
	if b.Len() != 2 {
		t.Fatalf("queued = %d, want 2", b.Len())
	}
	q := b.QueuedQueries[1]
	if !strings.Contains(q.SQL, "ON CONFLICT (account, symbol, order_id) DO UPDATE") {
		t.Errorf("SQL is not an upsert keyed by symbol: %s", q.SQL)
	}
	if len(q.Arguments) != 12 {
		t.Fatalf("arguments = %d, want 12", len(q.Arguments))
	}
	if q.Arguments[1] != "1002" || q.Arguments[3] != "new-orders" {
		t.Errorf("arguments = %v", q.Arguments)
	}
	if !db.results.closed {
		t.Error("batch results not closed")
	}

	stats := a.Stats()
	if stats.Orders != 2 || stats.Batches != 1 || stats.Errors != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestSaveOrders_Empty(t *testing.T) {
	db := &fakeDB{}
	a := New(db, nil)

	if err := a.SaveOrders(context.Background(), "order-book", "Acme", nil); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}
	if len(db.batches) != 0 {
		t.Errorf("batches = %d, want 0", len(db.batches))
	}
}

func TestSaveOrders_ExecError(t *testing.T) {
	db := &fakeDB{results: &fakeResults{failAt: 2}}
	a := New(db, nil)

	err := a.SaveOrders(context.Background(), "order-book", "Acme", testOrders())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Acme/ETH/USDT/1002") {
		t.Errorf("error = %v, want order identity", err)
	}
	if !db.results.closed {
		t.Error("batch results not closed")
	}
	if stats := a.Stats(); stats.Errors != 1 || stats.Orders != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	a := New(db, nil)

	if err := a.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS order_archive") {
		t.Errorf("exec = %v", db.execSQL)
	}

	db.execErr = errors.New("permission denied")
	if err := a.EnsureSchema(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestNew_UniqueRunIDs(t *testing.T) {
	a, b := New(&fakeDB{}, nil), New(&fakeDB{}, nil)
	if a.RunID() == b.RunID() {
		t.Errorf("run ids collide: %s", a.RunID())
	}
}

func TestSaveOrders_SameIDAcrossSymbols(t *testing.T) {
	db := &fakeDB{}
	a := New(db, nil)

	orders := testOrders()
	orders[1].OrderID = orders[0].OrderID
	if err := a.SaveOrders(context.Background(), "order-book", "Binance Main Spot", orders); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	if !strings.Contains(Schema, "PRIMARY KEY (account, symbol, order_id)") {
		t.Errorf("schema key does not include symbol: %s", Schema)
	}

	keys := make(map[[3]any]bool)
	for _, q := range db.batches[0].QueuedQueries {
		// account, order_id, symbol
		keys[[3]any{q.Arguments[0], q.Arguments[1], q.Arguments[5]}] = true
	}
	if len(keys) != 2 {
		t.Errorf("distinct conflict keys = %d, want 2", len(keys))
	}
}
