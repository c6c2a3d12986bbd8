package notion

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rtpsquire/squire/internal/api"
	"github.com/rtpsquire/squire/internal/model"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "secret_token", "2022-06-28", api.WithRetries(0, time.Millisecond))
	return NewStore(client, "db-1", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	return body
}

func TestQueryEntriesByTag(t *testing.T) {
	calls := 0
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/v1/databases/db-1/query" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret_token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Errorf("Notion-Version = %q", got)
		}

		body := decodeBody(t, r)
		filter, _ := body["filter"].(map[string]any)
		if filter["property"] != "RTPS-Actions" {
			t.Errorf("filter property = %v", filter["property"])
		}
		if ms, _ := filter["multi_select"].(map[string]any); ms["contains"] != "refresh-orders" {
			t.Errorf("filter multi_select = %v", filter["multi_select"])
		}

		if calls == 1 {
			if _, ok := body["start_cursor"]; ok {
				t.Error("first page should not send start_cursor")
			}
			w.Write([]byte(`{
				"results": [{
					"id": "page-1",
					"properties": {
						"Order References": {"rich_text": [{"plain_text": " 111, 222 ,"}, {"plain_text": "333"}]},
						"RTPS-OrdersTable-Id": {"rich_text": [{"plain_text": "block-9"}]},
						"RTPS-Actions": {"multi_select": [{"name": "refresh-orders"}, {"name": "missing-orders"}]}
					}
				}],
				"has_more": true,
				"next_cursor": "cursor-2"
			}`))
			return
		}

		if body["start_cursor"] != "cursor-2" {
			t.Errorf("start_cursor = %v, want cursor-2", body["start_cursor"])
		}
		w.Write([]byte(`{
			"results": [{
				"id": "page-2",
				"properties": {
					"Order References": {"rich_text": []},
					"RTPS-OrdersTable-Id": {"rich_text": []},
					"RTPS-Actions": {"multi_select": [{"name": "refresh-orders"}]}
				}
			}],
			"has_more": false,
			"next_cursor": null
		}`))
	})

	entries, err := store.QueryEntriesByTag(context.Background(), model.TagRefreshOrders)
	if err != nil {
		t.Fatalf("QueryEntriesByTag() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	e := entries[0]
	if e.ID != "page-1" || e.TableID != "block-9" {
		t.Errorf("entry = %+v", e)
	}
	if strings.Join(e.References, "|") != "111|222|333" {
		t.Errorf("References = %q, want [111 222 333]", e.References)
	}
	if !e.Tags.Has(model.TagRefreshOrders) || !e.Tags.Has(model.TagMissingOrders) || e.Tags.Len() != 2 {
		t.Errorf("Tags = %v", e.Tags.Tags())
	}

	if len(entries[1].References) != 0 || entries[1].TableID != "" {
		t.Errorf("entries[1] = %+v, want no references and no table", entries[1])
	}
}

func TestReplaceTableArtifact(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/blocks/page-1/children" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}

		var req appendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Children) != 1 || req.Children[0].Type != "table" || req.Children[0].Table == nil {
			t.Errorf("children = %+v", req.Children)
			return
		}
		tbl := req.Children[0].Table
		if tbl.TableWidth != 3 || !tbl.HasColumnHeader || tbl.HasRowHeader {
			t.Errorf("table = %+v", tbl)
		}
		if len(tbl.Children) != 2 {
			t.Errorf("rows = %d, want 2", len(tbl.Children))
			return
		}
		cell := tbl.Children[1].TableRow.Cells[2]
		if len(cell) != 1 || cell[0].Type != "text" || cell[0].Text.Content != "5.00" {
			t.Errorf("cell = %+v", cell)
		}

		w.Write([]byte(`{"results":[{"id":"block-new","type":"table"}]}`))
	})

	id, err := store.ReplaceTableArtifact(context.Background(), "page-1", [][]string{
		{"Date", "Account", "Effect"},
		{"", "Net:", "5.00"},
	})
	if err != nil {
		t.Fatalf("ReplaceTableArtifact() error = %v", err)
	}
	if id != "block-new" {
		t.Errorf("id = %q, want block-new", id)
	}
}

func TestReplaceTableArtifact_Invalid(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	ctx := context.Background()

	if _, err := store.ReplaceTableArtifact(ctx, "p", nil); err == nil {
		t.Error("error = nil for empty table")
	}
	if _, err := store.ReplaceTableArtifact(ctx, "p", [][]string{{"a", "b"}, {"c"}}); err == nil {
		t.Error("error = nil for ragged table")
	}
}

func TestDeleteArtifact(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/v1/blocks/block-9" {
				t.Errorf("request = %s %s", r.Method, r.URL.Path)
			}
			w.Write([]byte(`{"id":"block-9","archived":true}`))
		})
		if err := store.DeleteArtifact(context.Background(), "block-9"); err != nil {
			t.Errorf("DeleteArtifact() error = %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found"}`))
		})
		err := store.DeleteArtifact(context.Background(), "gone")
		apiErr, ok := api.AsAPIError(err)
		if !ok || apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("error = %v, want 404 APIError", err)
		}
	})
}

func TestSetTableReference(t *testing.T) {
	tests := []struct {
		name    string
		blockID string
		want    string
	}{
		{"set", "block-1", `{"properties":{"RTPS-OrdersTable-Id":{"rich_text":[{"type":"text","text":{"content":"block-1"}}]}}}`},
		{"clear", "", `{"properties":{"RTPS-OrdersTable-Id":{"rich_text":[]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPatch || r.URL.Path != "/v1/pages/page-1" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				body, _ := io.ReadAll(r.Body)
				if strings.TrimSpace(string(body)) != tt.want {
					t.Errorf("body = %s, want %s", body, tt.want)
				}
				w.Write([]byte(`{}`))
			})
			if err := store.SetTableReference(context.Background(), "page-1", tt.blockID); err != nil {
				t.Errorf("SetTableReference() error = %v", err)
			}
		})
	}
}

func TestSetTags(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		want := `{"properties":{"RTPS-Actions":{"multi_select":[{"name":"missing-orders"}]}}}`
		if strings.TrimSpace(string(body)) != want {
			t.Errorf("body = %s, want %s", body, want)
		}
		w.Write([]byte(`{}`))
	})

	tags := model.NewTagSet(model.TagRefreshOrders, model.TagMissingOrders).Remove(model.TagRefreshOrders)
	if err := store.SetTags(context.Background(), "page-1", tags); err != nil {
		t.Errorf("SetTags() error = %v", err)
	}

	t.Run("empty set clears tags", func(t *testing.T) {
		store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			want := `{"properties":{"RTPS-Actions":{"multi_select":[]}}}`
			if strings.TrimSpace(string(body)) != want {
				t.Errorf("body = %s, want %s", body, want)
			}
			w.Write([]byte(`{}`))
		})
		if err := store.SetTags(context.Background(), "page-1", model.NewTagSet()); err != nil {
			t.Errorf("SetTags() error = %v", err)
		}
	})
}
