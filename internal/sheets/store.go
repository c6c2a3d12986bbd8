package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Date formats written to and read from the sheets.
const (
	DateFormat       = "02/01/2006"
	CheckpointFormat = "02/01/2006 15:04:05"
)

// Column is a zero-based order book column.
type Column int

// Order book columns, in sheet order.
const (
	ColDate Column = iota
	ColAccount
	ColPair
	ColSide
	ColAverage
	ColExecuted
	ColEffect
	ColTotal // Total including fees
	ColFees
	ColFeeCurrency
	ColFeesUSDT
	ColReference
	ColNotes
	ColRefresh
	NumColumns int = iota
)

// Letter returns the column's A1 letter.
func (c Column) Letter() string {
	return string(rune('A' + int(c)))
}

// Refresh column values.
const (
	RefreshPending   = "TRUE"
	RefreshCompleted = "COMPLETED"
	RefreshFailed    = "FAILED - "
)

// Config names the sheets a Store works on.
type Config struct {
	OrderBookSheet string
	NewOrdersSheet string
	Breaker        string         // First cell of the row separating checkpoints from orders
	Location       *time.Location // Time zone of dates written to and read from the sheets
}

// Store is the Google Sheets tabular store.
type Store struct {
	values Values
	cfg    Config
	logger *slog.Logger

	cache map[string][][]string // Sheet name -> rows as last read
}

// NewStore creates a store over values.
func NewStore(values Values, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Store{
		values: values,
		cfg:    cfg,
		logger: logger,
		cache:  make(map[string][][]string),
	}
}

// sheet returns the cached rows of a sheet, reading it on first access.
func (s *Store) sheet(ctx context.Context, name string) ([][]string, error) {
	if rows, ok := s.cache[name]; ok {
		return rows, nil
	}
	return s.load(ctx, name)
}

func (s *Store) load(ctx context.Context, name string) ([][]string, error) {
	s.logger.Info("populating sheet cache", "sheet", name)

	rows, err := s.values.Get(ctx, quoteSheet(name))
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	s.cache[name] = rows

	s.logger.Info("populated sheet cache", "sheet", name, "rows", len(rows))
	return rows, nil
}

// RefreshCache re-reads every cached sheet, and the order book if nothing
// is cached yet.
func (s *Store) RefreshCache(ctx context.Context) error {
	names := []string{s.cfg.OrderBookSheet}
	for name := range s.cache {
		if name != s.cfg.OrderBookSheet {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if _, err := s.load(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops the cached copy of a sheet, or of every sheet when name
// is empty.
func (s *Store) Invalidate(name string) {
	if name == "" {
		s.cache = make(map[string][][]string)
		return
	}
	delete(s.cache, name)
}

// quoteSheet formats a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// cellA1 addresses one cell, row numbers starting at 1.
func cellA1(sheet string, col Column, row int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), col.Letter(), row)
}

// cell returns row[i], or "" when the row is shorter.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// pad returns a copy of row with exactly n cells.
func pad(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}
