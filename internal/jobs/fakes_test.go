package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/rtpsquire/squire/internal/exchange"
	"github.com/rtpsquire/squire/internal/model"
	"github.com/rtpsquire/squire/internal/sheets"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAdapter answers from maps keyed by reference or market.
type fakeAdapter struct {
	name    string
	orders  map[string]model.Order // by reference
	errs    map[string]error       // by reference
	lists   map[model.MarketType][]model.Order
	listErr map[model.MarketType]error

	queries []string
	since   []time.Time
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) QueryOrder(_ context.Context, market model.MarketType, symbol, reference string) (model.Order, bool, error) {
	f.queries = append(f.queries, string(market)+"|"+symbol+"|"+reference)
	if err := f.errs[reference]; err != nil {
		return model.Order{}, false, err
	}
	o, ok := f.orders[reference]
	return o, ok, nil
}

func (f *fakeAdapter) ListOrdersSince(_ context.Context, market model.MarketType, _ string, since time.Time) ([]model.Order, error) {
	f.since = append(f.since, since)
	if err := f.listErr[market]; err != nil {
		return nil, err
	}
	return f.lists[market], nil
}

func adapters(as ...*fakeAdapter) map[string]exchange.Adapter {
	m := make(map[string]exchange.Adapter, len(as))
	for _, a := range as {
		m[a.name] = a
	}
	return m
}

// gridStore is an order book keyed by row number.
type gridStore struct {
	rows       map[int][]string
	updates    map[int]map[sheets.Column]string
	refreshes  int
	pendingErr error
	updateErr  map[int]error
}

func newGridStore() *gridStore {
	return &gridStore{
		rows:    make(map[int][]string),
		updates: make(map[int]map[sheets.Column]string),
	}
}

func (g *gridStore) addPending(number int, account, pair, ref string) {
	row := make([]string, sheets.NumColumns)
	row[sheets.ColAccount] = account
	row[sheets.ColPair] = pair
	row[sheets.ColReference] = ref
	row[sheets.ColRefresh] = sheets.RefreshPending
	g.rows[number] = row
}

func (g *gridStore) PendingRows(context.Context) ([]sheets.PendingRow, error) {
	if g.pendingErr != nil {
		return nil, g.pendingErr
	}
	numbers := make([]int, 0, len(g.rows))
	for n := range g.rows {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var out []sheets.PendingRow
	for _, n := range numbers {
		r := g.rows[n]
		if r[sheets.ColRefresh] != sheets.RefreshPending {
			continue
		}
		out = append(out, sheets.PendingRow{
			Number:    n,
			Account:   r[sheets.ColAccount],
			Pair:      r[sheets.ColPair],
			Reference: r[sheets.ColReference],
		})
	}
	return out, nil
}

func (g *gridStore) UpdateRow(_ context.Context, number int, values map[sheets.Column]string) error {
	if err := g.updateErr[number]; err != nil {
		return err
	}
	g.updates[number] = values
	row, ok := g.rows[number]
	if !ok {
		row = make([]string, sheets.NumColumns)
		g.rows[number] = row
	}
	for c, v := range values {
		row[c] = v
	}
	return nil
}

func (g *gridStore) RefreshCache(context.Context) error {
	g.refreshes++
	return nil
}

// checkpointStore records new orders writes.
type checkpointStore struct {
	checkpoints []sheets.Checkpoint
	readErr     error
	replaced    [][]sheets.AccountOrders
	set         map[string]time.Time
}

func (c *checkpointStore) Checkpoints(context.Context) ([]sheets.Checkpoint, error) {
	return c.checkpoints, c.readErr
}

func (c *checkpointStore) SetCheckpoint(_ context.Context, account string, at time.Time) error {
	if c.set == nil {
		c.set = make(map[string]time.Time)
	}
	c.set[account] = at
	return nil
}

func (c *checkpointStore) ReplaceNewOrders(_ context.Context, accounts []sheets.AccountOrders) error {
	c.replaced = append(c.replaced, accounts)
	return nil
}

// docStore is an in-memory journal.
type docStore struct {
	entries   []model.JournalEntry
	queryErr  error
	tables    map[string][][]string // table id -> rows
	deleted   []string
	deleteErr error
	createErr map[string]error // by entry id
	refErr    map[string]error // by entry id
	refs      map[string]string
	tags      map[string]model.TagSet
	nextID    int
}

func newDocStore(entries ...model.JournalEntry) *docStore {
	return &docStore{
		entries:   entries,
		tables:    make(map[string][][]string),
		createErr: make(map[string]error),
		refErr:    make(map[string]error),
		refs:      make(map[string]string),
		tags:      make(map[string]model.TagSet),
	}
}

func (d *docStore) QueryEntriesByTag(_ context.Context, tag model.Tag) ([]model.JournalEntry, error) {
	if d.queryErr != nil {
		return nil, d.queryErr
	}
	var out []model.JournalEntry
	for _, e := range d.entries {
		if e.Tags.Has(tag) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *docStore) ReplaceTableArtifact(_ context.Context, entryID string, rows [][]string) (string, error) {
	if err := d.createErr[entryID]; err != nil {
		return "", err
	}
	d.nextID++
	id := "table-" + strconv.Itoa(d.nextID)
	d.tables[id] = rows
	return id, nil
}

func (d *docStore) DeleteArtifact(_ context.Context, tableID string) error {
	d.deleted = append(d.deleted, tableID)
	if d.deleteErr != nil {
		return d.deleteErr
	}
	delete(d.tables, tableID)
	return nil
}

func (d *docStore) SetTableReference(_ context.Context, entryID, tableID string) error {
	if err := d.refErr[entryID]; err != nil {
		return err
	}
	d.refs[entryID] = tableID
	return nil
}

func (d *docStore) SetTags(_ context.Context, entryID string, tags model.TagSet) error {
	d.tags[entryID] = tags
	return nil
}

// rowSource serves fixed order book rows by reference.
type rowSource struct {
	header []string
	rows   []sheets.Row
	err    error
}

func (r *rowSource) RowsByReference(_ context.Context, refs []string) ([]string, []sheets.Row, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	var out []sheets.Row
	matched := make(map[string]bool)
	for _, row := range r.rows {
		for _, ref := range refs {
			if row.Get(sheets.ColReference) == ref {
				out = append(out, row)
				matched[ref] = true
			}
		}
	}
	for _, ref := range refs {
		if !matched[ref] {
			cells := make([]string, sheets.NumColumns)
			cells[sheets.ColReference] = ref
			out = append(out, sheets.Row{Cells: cells, Placeholder: true})
		}
	}
	return r.header, out, nil
}

func bookRow(number int, ref, effect, total string) sheets.Row {
	cells := make([]string, sheets.NumColumns)
	cells[sheets.ColReference] = ref
	cells[sheets.ColEffect] = effect
	cells[sheets.ColTotal] = total
	cells[sheets.ColRefresh] = sheets.RefreshCompleted
	return sheets.Row{Number: number, Cells: cells}
}

var errExchange = errors.New("exchange unavailable")
