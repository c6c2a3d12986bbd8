package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rtpsquire/squire/internal/api"
	"github.com/rtpsquire/squire/internal/model"
)

const queryPageSize = 100

// Store is the Notion document store for one journal database.
type Store struct {
	client     *api.Client
	databaseID string
	logger     *slog.Logger
}

// NewClient returns an API client authenticated for Notion.
func NewClient(baseURL, token, version string, opts ...api.ClientOption) *api.Client {
	opts = append([]api.ClientOption{
		api.WithHeader("Authorization", "Bearer "+token),
		api.WithHeader("Notion-Version", version),
		api.WithHeader("Content-Type", "application/json"),
	}, opts...)
	return api.NewClient("notion", baseURL, opts...)
}

// NewStore creates a store over the journal database.
func NewStore(client *api.Client, databaseID string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client:     client,
		databaseID: databaseID,
		logger:     logger,
	}
}

// QueryEntriesByTag returns every entry carrying tag, following pagination.
func (s *Store) QueryEntriesByTag(ctx context.Context, tag model.Tag) ([]model.JournalEntry, error) {
	s.logger.Info("querying journal entries", "tag", tag)

	path := "/v1/databases/" + url.PathEscape(s.databaseID) + "/query"
	req := queryRequest{
		Filter: queryFilter{
			Property:    propActions,
			MultiSelect: multiSelectContains{Contains: string(tag)},
		},
		PageSize: queryPageSize,
	}

	var entries []model.JournalEntry
	for {
		var resp queryResponse
		if err := s.client.Send(ctx, http.MethodPost, path, req, &resp); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		for _, p := range resp.Results {
			entries = append(entries, toEntry(p))
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}

	s.logger.Info("queried journal entries", "tag", tag, "entries", len(entries))
	return entries, nil
}

func toEntry(p page) model.JournalEntry {
	tags := make([]model.Tag, 0, len(p.Properties[propActions].MultiSelect))
	for _, opt := range p.Properties[propActions].MultiSelect {
		tags = append(tags, model.Tag(opt.Name))
	}
	return model.JournalEntry{
		ID:         p.ID,
		References: model.SplitReferences(plainText(p.Properties[propOrderReferences].RichText)),
		TableID:    strings.TrimSpace(plainText(p.Properties[propTableID].RichText)),
		Tags:       model.NewTagSet(tags...),
	}
}

// plainText joins rich text segments; Notion splits long or styled text.
func plainText(rt []richText) string {
	var b strings.Builder
	for _, r := range rt {
		if r.PlainText != "" {
			b.WriteString(r.PlainText)
		} else if r.Text != nil {
			b.WriteString(r.Text.Content)
		}
	}
	return b.String()
}

// ReplaceTableArtifact appends a table block built from rows to the entry's
// page and returns the new block id. The first row is the column header.
func (s *Store) ReplaceTableArtifact(ctx context.Context, entryID string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", errors.New("table needs at least a header row")
	}
	width := len(rows[0])
	children := make([]block, len(rows))
	for i, r := range rows {
		if len(r) != width {
			return "", fmt.Errorf("table row %d has %d cells, want %d", i, len(r), width)
		}
		cells := make([][]richText, width)
		for j, c := range r {
			cells[j] = text(c)
		}
		children[i] = block{Type: "table_row", TableRow: &tableRow{Cells: cells}}
	}

	req := appendRequest{Children: []block{{
		Object: "block",
		Type:   "table",
		Table: &table{
			TableWidth:      width,
			HasColumnHeader: true,
			Children:        children,
		},
	}}}

	var resp appendResponse
	path := "/v1/blocks/" + url.PathEscape(entryID) + "/children"
	if err := s.client.Send(ctx, http.MethodPatch, path, req, &resp); err != nil {
		return "", fmt.Errorf("append table to %s: %w", entryID, err)
	}
	if len(resp.Results) == 0 || resp.Results[0].ID == "" {
		return "", fmt.Errorf("append table to %s: no block id in response", entryID)
	}

	s.logger.Info("created table block", "entry", entryID, "block", resp.Results[0].ID, "rows", len(rows))
	return resp.Results[0].ID, nil
}

// DeleteArtifact archives a block.
func (s *Store) DeleteArtifact(ctx context.Context, blockID string) error {
	path := "/v1/blocks/" + url.PathEscape(blockID)
	if err := s.client.Send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete block %s: %w", blockID, err)
	}
	s.logger.Info("deleted table block", "block", blockID)
	return nil
}

// SetTableReference stores the table block id on the entry. An empty id
// clears the property.
func (s *Store) SetTableReference(ctx context.Context, entryID, blockID string) error {
	value := []richText{}
	if blockID != "" {
		value = text(blockID)
	}
	return s.updateProperties(ctx, entryID, map[string]any{
		propTableID: map[string]any{"rich_text": value},
	})
}

// SetTags replaces the entry's action tags.
func (s *Store) SetTags(ctx context.Context, entryID string, tags model.TagSet) error {
	opts := make([]selectOption, 0, tags.Len())
	for _, t := range tags.Tags() {
		opts = append(opts, selectOption{Name: string(t)})
	}
	return s.updateProperties(ctx, entryID, map[string]any{
		propActions: map[string]any{"multi_select": opts},
	})
}

func (s *Store) updateProperties(ctx context.Context, entryID string, props map[string]any) error {
	path := "/v1/pages/" + url.PathEscape(entryID)
	if err := s.client.Send(ctx, http.MethodPatch, path, propertyUpdate{Properties: props}, nil); err != nil {
		return fmt.Errorf("update entry %s: %w", entryID, err)
	}
	return nil
}
