package tool

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	names   map[contractx.Category]map[string]string
	getErr  error

	gets     int
	getManys int
	sets     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: map[string][]byte{},
		names:   map[contractx.Category]map[string]string{},
	}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	raw, ok := f.entries[key]
	return raw, ok, nil
}

func (f *fakeCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getManys++
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := map[string][]byte{}
	for _, k := range keys {
		if raw, ok := f.entries[k]; ok {
			out[k] = raw
		}
	}
	return out, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, category contractx.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.entries[key] = value
	return nil
}

func (f *fakeCache) IndexName(ctx context.Context, category contractx.Category, name, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.names[category] == nil {
		f.names[category] = map[string]string{}
	}
	f.names[category][strings.ToLower(name)] = key
	return nil
}

func (f *fakeCache) Names(ctx context.Context, category contractx.Category) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for n, k := range f.names[category] {
		out[n] = k
	}
	return out, nil
}

func (f *fakeCache) seed(t *testing.T, key string, records []contractx.EntityRecord) {
	t.Helper()
	raw, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("seed marshal: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = raw
}

type fakeKnowledge struct {
	mu      sync.Mutex
	records map[string][]contractx.EntityRecord // by traversal name
	err     error
	calls   int
	queries []contractx.TraversalQuery
}

func (f *fakeKnowledge) Query(ctx context.Context, q contractx.TraversalQuery) ([]contractx.EntityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.records[q.Name], nil
}

type fakeCRM struct {
	mu     sync.Mutex
	record contractx.EntityRecord
	err    error
	calls  int
}

func (f *fakeCRM) Lookup(ctx context.Context, category contractx.Category, key string) (contractx.EntityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return contractx.EntityRecord{}, f.err
	}
	return f.record, nil
}

func newTestGateway(t *testing.T, cache *fakeCache, graph *fakeKnowledge, crm *fakeCRM) *Gateway {
	t.Helper()
	g, err := NewGateway(cache, graph, crm, Config{})
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	return g
}

func TestInvokeUnknownOperation(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, newFakeCache(), &fakeKnowledge{}, &fakeCRM{})

	res := g.Invoke(context.Background(), contractx.ToolRequest{Op: "divine_the_future"})
	if !res.NotFound {
		t.Fatalf("expected not-found for unknown op")
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a warning naming the unknown op")
	}
}

func TestWarmCacheSkipsUpstream(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	graph := &fakeKnowledge{records: map[string][]contractx.EntityRecord{
		"project_by_name": {{Key: "proj-1", Name: "Phoenix", Category: contractx.CategoryProject}},
	}}
	crm := &fakeCRM{err: contractx.ErrNotFound}
	g := newTestGateway(t, cache, graph, crm)

	req := contractx.ToolRequest{Op: OpGetProjectDetails, Params: map[string]any{"name": "Phoenix"}}

	first := g.Invoke(context.Background(), req)
	if first.Source != contractx.SourceKnowledge {
		t.Fatalf("first call source = %s, want knowledge_store", first.Source)
	}
	if graph.calls != 1 {
		t.Fatalf("knowledge calls = %d, want 1", graph.calls)
	}

	second := g.Invoke(context.Background(), req)
	if second.Source != contractx.SourceCache {
		t.Fatalf("second call source = %s, want cache", second.Source)
	}
	if graph.calls != 1 {
		t.Fatalf("warm cache still hit the knowledge store: calls = %d", graph.calls)
	}
	if len(second.Records) != 1 || second.Records[0].Key != "proj-1" {
		t.Fatalf("unexpected cached records: %+v", second.Records)
	}
}

func TestCacheKeyCaseInsensitive(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	graph := &fakeKnowledge{records: map[string][]contractx.EntityRecord{
		"organization_by_name": {{Key: "org-1", Name: "Acme Corp", Category: contractx.CategoryOrganization}},
	}}
	g := newTestGateway(t, cache, graph, &fakeCRM{err: contractx.ErrNotFound})

	g.Invoke(context.Background(), contractx.ToolRequest{
		Op: OpGetOrganizationDetails, Params: map[string]any{"name": "Acme Corp"},
	})
	res := g.Invoke(context.Background(), contractx.ToolRequest{
		Op: OpGetOrganizationDetails, Params: map[string]any{"name": "acme corp"},
	})

	if res.Source != contractx.SourceCache {
		t.Fatalf("case-variant lookup missed the cache: source = %s", res.Source)
	}
	if graph.calls != 1 {
		t.Fatalf("knowledge calls = %d, want 1", graph.calls)
	}
}

func TestHybridMergePrefersLiveAndHistory(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	graph := &fakeKnowledge{records: map[string][]contractx.EntityRecord{
		"person_by_name": {{
			Key: "p-1", Name: "Jane Doe", Category: contractx.CategoryPerson,
			Fields: map[string]any{
				"status":         "stale",
				"collaborations": []any{"Phoenix", "Atlas"},
				"title":          "Engineer",
			},
		}},
	}}
	crm := &fakeCRM{record: contractx.EntityRecord{
		Key: "p-1", Name: "Jane Doe", Category: contractx.CategoryPerson,
		Fields: map[string]any{
			"status":         "active",
			"email":          "jane@acme.test",
			"collaborations": []any{"should lose"},
		},
	}}
	g := newTestGateway(t, cache, graph, crm)

	res := g.Invoke(context.Background(), contractx.ToolRequest{
		Op: OpGetPersonDetails, Params: map[string]any{"name": "Jane Doe"},
	})

	if res.Source != contractx.SourceHybrid {
		t.Fatalf("source = %s, want hybrid", res.Source)
	}
	fields := res.Records[0].Fields
	if fields["status"] != "active" {
		t.Fatalf("live field must win: status = %v", fields["status"])
	}
	if fields["email"] != "jane@acme.test" {
		t.Fatalf("live-only field missing: %v", fields["email"])
	}
	got, ok := fields["collaborations"].([]any)
	if !ok || len(got) != 2 {
		t.Fatalf("history field must win: collaborations = %v", fields["collaborations"])
	}
	if fields["title"] != "Engineer" {
		t.Fatalf("knowledge-only field missing: %v", fields["title"])
	}
}

func TestFullOutageResolvesToNotFound(t *testing.T) {
	t.Parallel()

	graph := &fakeKnowledge{err: contractx.ErrUpstreamUnavailable}
	crm := &fakeCRM{err: contractx.ErrUpstreamUnavailable}
	g := newTestGateway(t, newFakeCache(), graph, crm)

	res := g.Invoke(context.Background(), contractx.ToolRequest{
		Op: OpGetPersonDetails, Params: map[string]any{"name": "Jane Doe"},
	})

	if !res.NotFound {
		t.Fatalf("expected structured not-found, got %+v", res)
	}
	joined := strings.Join(res.Warnings, "\n")
	if !strings.Contains(joined, "knowledge store") {
		t.Fatalf("warnings must name the knowledge rung: %v", res.Warnings)
	}
	if !strings.Contains(joined, "relationship service") {
		t.Fatalf("warnings must name the relationship rung: %v", res.Warnings)
	}
}

func TestFuzzyFallbackServesCachedNeighbor(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	graph := &fakeKnowledge{records: map[string][]contractx.EntityRecord{
		"person_by_name": {{
			Key: "p-1", Name: "Jane Doe", Category: contractx.CategoryPerson,
			Fields: map[string]any{"title": "Engineer"},
		}},
	}}
	crm := &fakeCRM{err: contractx.ErrNotFound}
	g := newTestGateway(t, cache, graph, crm)

	// Warm the cache and the name index under the exact name.
	g.Invoke(context.Background(), contractx.ToolRequest{
		Op: OpGetPersonDetails, Params: map[string]any{"name": "Jane Doe"},
	})

	// Now both stores go dark and the name arrives slightly wrong.
	graph.mu.Lock()
	graph.err = contractx.ErrUpstreamUnavailable
	graph.mu.Unlock()

	res := g.Invoke(context.Background(), contractx.ToolRequest{
		Op: OpGetPersonDetails, Params: map[string]any{"name": "Jane Do"},
	})

	if res.Source != contractx.SourceFuzzy {
		t.Fatalf("source = %s, want fuzzy_cache", res.Source)
	}
	if len(res.Records) != 1 || res.Records[0].Key != "p-1" {
		t.Fatalf("unexpected fuzzy records: %+v", res.Records)
	}
	joined := strings.Join(res.Warnings, "\n")
	if !strings.Contains(joined, "fuzzy match") && !strings.Contains(joined, "served fuzzy match") {
		t.Fatalf("fuzzy result must carry an explanatory warning: %v", res.Warnings)
	}
}

func TestBatchPartialResolution(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	graph := &fakeKnowledge{records: map[string][]contractx.EntityRecord{
		"people_by_names": {{
			Key: "p-1", Name: "Jane Doe", Category: contractx.CategoryPerson,
		}},
	}}
	g := newTestGateway(t, cache, graph, &fakeCRM{err: contractx.ErrNotFound})

	res := g.Invoke(context.Background(), contractx.ToolRequest{
		Op:     OpGetPeopleBatch,
		Params: map[string]any{"names": []any{"Jane Doe", "Nobody Real", 42}},
	})

	if res.NotFound {
		t.Fatalf("one resolved entity must keep the batch alive: %+v", res)
	}
	if len(res.Records) != 1 || res.Records[0].Name != "Jane Doe" {
		t.Fatalf("unexpected batch records: %+v", res.Records)
	}
	joined := strings.Join(res.Warnings, "\n")
	if !strings.Contains(joined, "Nobody Real: not found") {
		t.Fatalf("missing per-name not-found warning: %v", res.Warnings)
	}
	if !strings.Contains(joined, "malformed batch entry") {
		t.Fatalf("missing malformed-entry warning: %v", res.Warnings)
	}
	if graph.calls != 1 {
		t.Fatalf("batch must use one knowledge query, got %d", graph.calls)
	}
}

func TestBatchWarmsSingleLookups(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	graph := &fakeKnowledge{records: map[string][]contractx.EntityRecord{
		"people_by_names": {
			{Key: "p-1", Name: "Jane Doe", Category: contractx.CategoryPerson},
			{Key: "p-2", Name: "John Roe", Category: contractx.CategoryPerson},
		},
	}}
	g := newTestGateway(t, cache, graph, &fakeCRM{err: contractx.ErrNotFound})

	g.Invoke(context.Background(), contractx.ToolRequest{
		Op:     OpGetPeopleBatch,
		Params: map[string]any{"names": []any{"Jane Doe", "John Roe"}},
	})

	res := g.Invoke(context.Background(), contractx.ToolRequest{
		Op: OpGetPersonDetails, Params: map[string]any{"name": "Jane Doe"},
	})
	if res.Source != contractx.SourceCache {
		t.Fatalf("single lookup after batch should hit cache, got %s", res.Source)
	}
	if graph.calls != 1 {
		t.Fatalf("knowledge calls = %d, want 1", graph.calls)
	}
}

func TestListQueryHasNoCRMRung(t *testing.T) {
	t.Parallel()

	graph := &fakeKnowledge{err: contractx.ErrUpstreamUnavailable}
	crm := &fakeCRM{}
	g := newTestGateway(t, newFakeCache(), graph, crm)

	res := g.Invoke(context.Background(), contractx.ToolRequest{Op: OpListRecentDeals})
	if !res.NotFound {
		t.Fatalf("expected not-found on knowledge outage, got %+v", res)
	}
	if crm.calls != 0 {
		t.Fatalf("list queries must not reach the relationship service, calls = %d", crm.calls)
	}
}
