package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL, Token: "test-token"}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestQueryDecodesRecords(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/query" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{
				{
					"key":    "p-1",
					"name":   "Jane Doe",
					"type":   "person",
					"fields": map[string]any{"title": "Engineer"},
				},
			},
		})
	})

	records, err := c.Query(context.Background(), contractx.TraversalQuery{
		Name:   "person_by_name",
		Params: map[string]any{"name": "Jane Doe"},
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("missing bearer token, got %q", gotAuth)
	}
	if gotBody["query"] != "person_by_name" {
		t.Fatalf("traversal name not sent: %v", gotBody)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Key != "p-1" || rec.Name != "Jane Doe" || rec.Category != contractx.CategoryPerson {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Fields["title"] != "Engineer" {
		t.Fatalf("fields not decoded: %v", rec.Fields)
	}
}

func TestQueryNotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Query(context.Background(), contractx.TraversalQuery{Name: "person_by_name"})
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryServerErrorIsUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Query(context.Background(), contractx.TraversalQuery{Name: "person_by_name"})
	if !errors.Is(err, contractx.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestQueryStoreErrorField(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "traversal limit exceeded"})
	})

	_, err := c.Query(context.Background(), contractx.TraversalQuery{Name: "person_by_name"})
	if !errors.Is(err, contractx.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestQueryRequiresTraversalName(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Query(context.Background(), contractx.TraversalQuery{Name: "  "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{URL: "", Token: "t"}); err == nil {
		t.Fatalf("expected error for missing url")
	}
	if _, err := New(Config{URL: "http://store.test", Token: " "}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}
