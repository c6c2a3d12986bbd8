package jobs

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rtpsquire/squire/internal/model"
	"github.com/rtpsquire/squire/internal/sheets"
)

// NameJournal is the journal job's name.
const NameJournal = "journal-orders"

// tableColumns is the width of the journal table: every order book column
// except the refresh flag.
const tableColumns = int(sheets.ColRefresh)

// RowSource looks up order book rows by reference.
type RowSource interface {
	RowsByReference(ctx context.Context, refs []string) (header []string, rows []sheets.Row, err error)
}

// DocumentStore holds the journal entries.
type DocumentStore interface {
	QueryEntriesByTag(ctx context.Context, tag model.Tag) ([]model.JournalEntry, error)
	ReplaceTableArtifact(ctx context.Context, entryID string, rows [][]string) (string, error)
	DeleteArtifact(ctx context.Context, tableID string) error
	SetTableReference(ctx context.Context, entryID, tableID string) error
	SetTags(ctx context.Context, entryID string, tags model.TagSet) error
}

// Journal rebuilds the orders table of every journal entry tagged
// refresh-orders.
type Journal struct {
	docs DocumentStore
	rows RowSource
	options
}

// NewJournal creates the journal job.
func NewJournal(docs DocumentStore, rows RowSource, opts ...Option) *Journal {
	return &Journal{
		docs:    docs,
		rows:    rows,
		options: newOptions(opts),
	}
}

// Name returns the job name.
func (j *Journal) Name() string {
	return NameJournal
}

// Run processes each tagged entry. An entry that fails is tagged
// processing-failed and keeps refresh-orders so the next run retries it.
func (j *Journal) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	entries, err := j.docs.QueryEntriesByTag(ctx, model.TagRefreshOrders)
	if err != nil {
		return sum, fmt.Errorf("query journal entries: %w", err)
	}
	j.logger.Info("processing journal entries", "entries", len(entries))

	for _, entry := range entries {
		if len(entry.References) == 0 {
			j.logger.Warn("entry has no order references, skipping", "entry", entry.ID)
			sum.Skipped++
			continue
		}

		if err := j.processEntry(ctx, entry); err != nil {
			j.logger.Error("failed to process entry, continuing",
				"entry", entry.ID,
				"error", err,
			)
			sum.Failed++

			tags := entry.Tags.Add(model.TagProcessingFailed)
			if err := j.docs.SetTags(ctx, entry.ID, tags); err != nil {
				j.logger.Error("failed to tag entry as failed", "entry", entry.ID, "error", err)
			}
			continue
		}
		sum.Completed++
	}
	return sum, nil
}

func (j *Journal) processEntry(ctx context.Context, entry model.JournalEntry) error {
	j.logger.Info("processing entry", "entry", entry.ID, "references", len(entry.References))

	header, rows, err := j.rows.RowsByReference(ctx, entry.References)
	if err != nil {
		return fmt.Errorf("get order rows: %w", err)
	}

	// Build the whole table before touching the previous one, so bad amounts
	// leave the entry as it was.
	net, err := NetSummary(rows)
	if err != nil {
		return err
	}

	table := make([][]string, 0, len(rows)+2)
	table = append(table, tableRow(header))
	for _, r := range rows {
		table = append(table, tableRow(r.Cells))
	}
	table = append(table, net.Row())

	if entry.TableID != "" {
		if err := j.docs.DeleteArtifact(ctx, entry.TableID); err != nil {
			j.logger.Warn("failed to delete previous table, creating a new one",
				"entry", entry.ID,
				"table", entry.TableID,
				"error", err,
			)
		}
	}

	tableID, err := j.docs.ReplaceTableArtifact(ctx, entry.ID, table)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if err := j.docs.SetTableReference(ctx, entry.ID, tableID); err != nil {
		// The entry cannot point at the new table, so do not leave it behind.
		if derr := j.docs.DeleteArtifact(ctx, tableID); derr != nil {
			j.logger.Warn("failed to delete unreferenced table",
				"entry", entry.ID,
				"table", tableID,
				"error", derr,
			)
		}
		return fmt.Errorf("store table reference: %w", err)
	}

	tags := entry.Tags.
		Remove(model.TagRefreshOrders).
		Remove(model.TagProcessingFailed).
		Set(model.TagMissingOrders, net.Missing)
	if err := j.docs.SetTags(ctx, entry.ID, tags); err != nil {
		return fmt.Errorf("update tags: %w", err)
	}

	j.logger.Info("processed entry",
		"entry", entry.ID,
		"table", tableID,
		"rows", len(rows),
		"missing", net.Missing,
	)
	return nil
}

// Net is the summary of an entry's orders.
type Net struct {
	Effect  decimal.Decimal
	Total   decimal.Decimal
	Missing bool // A reference was unmatched or a row lacked an amount
}

// NetSummary sums Effect and Total over rows. Rows missing either amount
// are left out of both sums and mark the result Missing. An amount that is
// not a number is an error.
func NetSummary(rows []sheets.Row) (Net, error) {
	var net Net
	for _, r := range rows {
		if r.Placeholder {
			net.Missing = true
			continue
		}

		effect, effectOK, err := model.ParseOptionalDecimal(r.Get(sheets.ColEffect))
		if err != nil {
			return Net{}, fmt.Errorf("row %d effect: %w", r.Number, err)
		}
		total, totalOK, err := model.ParseOptionalDecimal(r.Get(sheets.ColTotal))
		if err != nil {
			return Net{}, fmt.Errorf("row %d total: %w", r.Number, err)
		}

		if !effectOK || !totalOK {
			net.Missing = true
			continue
		}
		net.Effect = net.Effect.Add(effect)
		net.Total = net.Total.Add(total)
	}
	return net, nil
}

// Row renders the summary as a table row with sums to two decimal places.
func (n Net) Row() []string {
	row := make([]string, tableColumns)
	row[sheets.ColExecuted] = "Net:"
	row[sheets.ColEffect] = n.Effect.StringFixed(2)
	row[sheets.ColTotal] = n.Total.StringFixed(2)
	return row
}

func tableRow(cells []string) []string {
	row := make([]string, tableColumns)
	copy(row, cells)
	return row
}
