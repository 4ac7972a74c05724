package tiles

import (
	"context"
	"testing"
)

func TestMemoryCache_PutGetDrop(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	tile := Tile{
		Key:      Key{Matrix: "m1", Page: 0},
		Entities: []string{"doc-1", "doc-2"},
		Payload:  []byte(`{"rows":[]}`),
	}
	if err := c.Put(ctx, tile); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	got, ok, err := c.Get(ctx, tile.Key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got.Payload) != string(tile.Payload) {
		t.Fatalf("unexpected payload: %q", got.Payload)
	}

	if err := c.Drop(ctx, tile.Key); err != nil {
		t.Fatalf("unexpected drop error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, tile.Key); ok {
		t.Fatalf("expected miss after drop")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d tiles", c.Len())
	}
}

func TestMemoryCache_InvalidateEntitiesDropsOnlyAffectedPages(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_ = c.Put(ctx, Tile{Key: Key{Matrix: "m1", Page: 0}, Entities: []string{"doc-1", "doc-2"}})
	_ = c.Put(ctx, Tile{Key: Key{Matrix: "m1", Page: 1}, Entities: []string{"doc-3"}})
	_ = c.Put(ctx, Tile{Key: Key{Matrix: "m2", Page: 0}, Entities: []string{"doc-2"}})

	dropped, err := c.InvalidateEntities(ctx, "doc-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped tiles, got %v", dropped)
	}
	// ordem determinística (por chave) para os consumidores logarem/refetcharem.
	if dropped[0].String() != "m1:0" || dropped[1].String() != "m2:0" {
		t.Fatalf("unexpected dropped keys: %v", dropped)
	}

	if _, ok, _ := c.Get(ctx, Key{Matrix: "m1", Page: 1}); !ok {
		t.Fatalf("page without the entity must survive the invalidation")
	}
}

func TestMemoryCache_PutReplacesIndexEntries(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{Matrix: "m1", Page: 0}

	_ = c.Put(ctx, Tile{Key: key, Entities: []string{"doc-1"}})
	// a página foi refeita e não referencia mais doc-1.
	_ = c.Put(ctx, Tile{Key: key, Entities: []string{"doc-9"}})

	dropped, _ := c.InvalidateEntities(ctx, "doc-1")
	if len(dropped) != 0 {
		t.Fatalf("stale index entry: invalidation dropped %v", dropped)
	}
	dropped, _ = c.InvalidateEntities(ctx, "doc-9")
	if len(dropped) != 1 || dropped[0] != key {
		t.Fatalf("expected the replaced tile to be indexed by doc-9, got %v", dropped)
	}
}

func TestParseKey_RoundTrip(t *testing.T) {
	orig := Key{Matrix: "workspace:alpha", Page: 7}

	got, ok := ParseKey(orig.String())
	if !ok || got != orig {
		t.Fatalf("expected %v, got %v (ok=%v)", orig, got, ok)
	}

	if _, ok := ParseKey("sem-pagina"); ok {
		t.Fatalf("expected parse failure without a page suffix")
	}
}
