package sheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// fakeValues is an in-memory spreadsheet addressed with the A1 subset the
// store emits: 'sheet', 'sheet'!B5 and 'sheet'!A5:Z.
type fakeValues struct {
	grids   map[string][][]string
	gets    int
	updates []Range
	clears  []string
	failGet error
}

func newFakeValues() *fakeValues {
	return &fakeValues{grids: make(map[string][][]string)}
}

func (f *fakeValues) Get(_ context.Context, a1 string) ([][]string, error) {
	f.gets++
	if f.failGet != nil {
		return nil, f.failGet
	}
	sheet, _, _ := parseA1(a1)
	grid := f.grids[sheet]
	out := make([][]string, len(grid))
	for i, r := range grid {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (f *fakeValues) Update(_ context.Context, a1 string, values [][]string) error {
	f.updates = append(f.updates, Range{A1: a1, Values: values})
	sheet, col, row := parseA1(a1)
	grid := f.grids[sheet]
	for i, vr := range values {
		r := row - 1 + i
		for len(grid) <= r {
			grid = append(grid, nil)
		}
		for j, v := range vr {
			c := col + j
			for len(grid[r]) <= c {
				grid[r] = append(grid[r], "")
			}
			grid[r][c] = v
		}
	}
	f.grids[sheet] = grid
	return nil
}

func (f *fakeValues) BatchUpdate(ctx context.Context, ranges []Range) error {
	for _, r := range ranges {
		if err := f.Update(ctx, r.A1, r.Values); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeValues) Clear(_ context.Context, a1 string) error {
	f.clears = append(f.clears, a1)
	sheet, _, row := parseA1(a1)
	if grid := f.grids[sheet]; len(grid) >= row {
		f.grids[sheet] = grid[:row-1]
	}
	return nil
}

// parseA1 returns the sheet, zero-based column and 1-based row of the
// top-left cell. A bare sheet name is row 1, column 0.
func parseA1(a1 string) (sheet string, col, row int) {
	name, ref, _ := strings.Cut(a1, "!")
	name = strings.TrimSuffix(strings.TrimPrefix(name, "'"), "'")
	sheet = strings.ReplaceAll(name, "''", "'")
	if ref == "" {
		return sheet, 0, 1
	}
	ref, _, _ = strings.Cut(ref, ":")
	i := strings.IndexFunc(ref, func(r rune) bool { return r >= '0' && r <= '9' })
	col = int(ref[0] - 'A')
	row, err := strconv.Atoi(ref[i:])
	if err != nil {
		panic(fmt.Sprintf("bad A1 %q", a1))
	}
	return sheet, col, row
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		OrderBookSheet: "Order Book",
		NewOrdersSheet: "New Orders",
		Breaker:        "*=*=*=*=*",
		Location:       time.UTC,
	}
}

// obRow builds a 14 column order book row from column values.
func obRow(values map[Column]string) []string {
	row := make([]string, NumColumns)
	for c, v := range values {
		row[c] = v
	}
	return row
}

var obHeader = []string{
	"Date", "Account", "Pair", "BUY_SELL", "Average", "Executed", "Effect",
	"Total (inc. Fees)", "Fees", "Fee Currency", "Fees USDT", "Reference", "Notes", "RTPS_Refresh",
}
