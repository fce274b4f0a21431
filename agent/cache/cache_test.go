package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFromClient(client), srv
}

func TestTTLFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		category contractx.Category
		want     time.Duration
	}{
		{contractx.CategoryPerson, 5 * time.Minute},
		{contractx.CategoryProject, 5 * time.Minute},
		{contractx.CategoryOrganization, 10 * time.Minute},
		{contractx.CategoryConcept, 10 * time.Minute},
		{contractx.CategoryDocument, 30 * time.Minute},
		{contractx.Category("unknown"), 5 * time.Minute},
	}
	for _, tc := range cases {
		if got := TTLFor(tc.category); got != tc.want {
			t.Fatalf("TTLFor(%s) = %s, want %s", tc.category, got, tc.want)
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k1", []byte(`[{"key":"p-1"}]`), contractx.CategoryPerson); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	raw, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatalf("expected hit")
	}
	if string(raw) != `[{"key":"p-1"}]` {
		t.Fatalf("unexpected value: %s", raw)
	}
}

func TestGetMiss(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)

	_, ok, err := c.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("a miss is not an error, got %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestEntryExpiresByCategoryTTL(t *testing.T) {
	t.Parallel()

	c, srv := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "person", []byte("x"), contractx.CategoryPerson); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "document", []byte("y"), contractx.CategoryDocument); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	srv.FastForward(5*time.Minute + time.Second)

	if _, ok, _ := c.Get(ctx, "person"); ok {
		t.Fatalf("person entry must expire after 5m")
	}
	if _, ok, _ := c.Get(ctx, "document"); !ok {
		t.Fatalf("document entry must survive past 5m")
	}

	srv.FastForward(25 * time.Minute)
	if _, ok, _ := c.Get(ctx, "document"); ok {
		t.Fatalf("document entry must expire after 30m")
	}
}

func TestGetManyPartial(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "a", []byte("1"), contractx.CategoryPerson); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "c", []byte("3"), contractx.CategoryPerson); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	out, err := c.GetMany(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(out))
	}
	if string(out["a"]) != "1" || string(out["c"]) != "3" {
		t.Fatalf("unexpected values: %v", out)
	}
	if _, ok := out["b"]; ok {
		t.Fatalf("miss must be absent from result")
	}
}

func TestNameIndex(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.IndexName(ctx, contractx.CategoryPerson, "Jane Doe", "key-1"); err != nil {
		t.Fatalf("IndexName() error = %v", err)
	}
	if err := c.IndexName(ctx, contractx.CategoryPerson, "  ", "ignored"); err != nil {
		t.Fatalf("blank name must be a no-op, got %v", err)
	}
	if err := c.IndexName(ctx, contractx.CategoryOrganization, "Acme", "key-2"); err != nil {
		t.Fatalf("IndexName() error = %v", err)
	}

	names, err := c.Names(ctx, contractx.CategoryPerson)
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if len(names) != 1 || names["jane doe"] != "key-1" {
		t.Fatalf("unexpected person index: %v", names)
	}

	orgs, err := c.Names(ctx, contractx.CategoryOrganization)
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if orgs["acme"] != "key-2" {
		t.Fatalf("categories must not share an index: %v", orgs)
	}
}
