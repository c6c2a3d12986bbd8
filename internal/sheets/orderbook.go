package sheets

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Row is one order book row padded to NumColumns cells.
type Row struct {
	Number      int // 1-based sheet row; 0 for placeholders
	Cells       []string
	Placeholder bool // No row carries this reference
}

// Get returns the value of a column.
func (r Row) Get(c Column) string {
	return cell(r.Cells, int(c))
}

// PendingRow is an order book row awaiting reconciliation.
type PendingRow struct {
	Number    int
	Account   string
	Pair      string
	Reference string
}

// RowsByReference returns the order book header and every row whose
// reference is in refs, in sheet order. References with no row get a blank
// placeholder carrying only the reference, appended in refs order.
func (s *Store) RowsByReference(ctx context.Context, refs []string) (header []string, rows []Row, err error) {
	sheet, err := s.sheet(ctx, s.cfg.OrderBookSheet)
	if err != nil {
		return nil, nil, err
	}
	if len(sheet) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", s.cfg.OrderBookSheet)
	}

	s.logger.Info("getting rows by reference", "references", len(refs))

	header = pad(sheet[0], NumColumns)
	matched := make(map[string]bool, len(refs))
	for i, r := range sheet[1:] {
		ref := strings.TrimSpace(cell(r, int(ColReference)))
		if ref == "" || !slices.Contains(refs, ref) {
			continue
		}
		matched[ref] = true
		rows = append(rows, Row{Number: i + 2, Cells: pad(r, NumColumns)})
	}

	for _, ref := range refs {
		if matched[ref] {
			continue
		}
		s.logger.Warn("order reference not in order book", "reference", ref)
		placeholder := make([]string, NumColumns)
		placeholder[ColReference] = ref
		rows = append(rows, Row{Cells: placeholder, Placeholder: true})
		matched[ref] = true
	}

	return header, rows, nil
}

// PendingRows returns the rows whose refresh column is TRUE.
func (s *Store) PendingRows(ctx context.Context) ([]PendingRow, error) {
	sheet, err := s.sheet(ctx, s.cfg.OrderBookSheet)
	if err != nil {
		return nil, err
	}

	var pending []PendingRow
	for i, r := range sheet {
		if i == 0 {
			continue // header
		}
		if !strings.EqualFold(strings.TrimSpace(cell(r, int(ColRefresh))), RefreshPending) {
			continue
		}
		pending = append(pending, PendingRow{
			Number:    i + 1,
			Account:   strings.TrimSpace(cell(r, int(ColAccount))),
			Pair:      strings.TrimSpace(cell(r, int(ColPair))),
			Reference: strings.TrimSpace(cell(r, int(ColReference))),
		})
	}

	s.logger.Info("found rows pending refresh", "rows", len(pending))
	return pending, nil
}

// UpdateRow writes the given columns of one order book row. Other columns
// are left as they are.
func (s *Store) UpdateRow(ctx context.Context, number int, values map[Column]string) error {
	if number < 2 {
		return fmt.Errorf("row %d is not an order book data row", number)
	}
	if len(values) == 0 {
		return errors.New("no values to update")
	}

	cols := make([]Column, 0, len(values))
	for c := range values {
		if c < 0 || int(c) >= NumColumns {
			return fmt.Errorf("column %d out of range", c)
		}
		cols = append(cols, c)
	}
	slices.Sort(cols)

	ranges := make([]Range, len(cols))
	for i, c := range cols {
		ranges[i] = Range{
			A1:     cellA1(s.cfg.OrderBookSheet, c, number),
			Values: [][]string{{values[c]}},
		}
	}

	if err := s.values.BatchUpdate(ctx, ranges); err != nil {
		return fmt.Errorf("update row %d: %w", number, err)
	}

	s.logger.Info("updated order book row", "row", number, "columns", len(cols))
	return nil
}
