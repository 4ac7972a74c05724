package tiles

import (
	"context"
	"sort"
	"sync"
)

// MemoryCache é uma implementação simples em memória, com o índice
// entidade→tiles mantido em Put/Drop.
//
// Não faz expiração; a invalidação por mutação é o mecanismo de descarte.
type MemoryCache struct {
	mu       sync.Mutex
	tiles    map[Key]Tile
	byEntity map[string]map[Key]struct{}
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		tiles:    make(map[Key]Tile),
		byEntity: make(map[string]map[Key]struct{}),
	}
}

func (c *MemoryCache) Get(_ context.Context, key Key) (Tile, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tiles[key]
	return t, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, tile Tile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// substituição: tira do índice as entidades da versão anterior.
	if old, ok := c.tiles[tile.Key]; ok {
		c.unindexLocked(old)
	}

	c.tiles[tile.Key] = tile
	for _, e := range tile.Entities {
		set, ok := c.byEntity[e]
		if !ok {
			set = make(map[Key]struct{})
			c.byEntity[e] = set
		}
		set[tile.Key] = struct{}{}
	}
	return nil
}

func (c *MemoryCache) Drop(_ context.Context, keys ...Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.dropLocked(k)
	}
	return nil
}

func (c *MemoryCache) InvalidateEntities(_ context.Context, entities ...string) ([]Key, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	affected := make(map[Key]struct{})
	for _, e := range entities {
		for k := range c.byEntity[e] {
			affected[k] = struct{}{}
		}
	}

	keys := make([]Key, 0, len(affected))
	for k := range affected {
		c.dropLocked(k)
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

// Len devolve o número de tiles cacheados (introspecção/testes).
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tiles)
}

func (c *MemoryCache) dropLocked(k Key) {
	t, ok := c.tiles[k]
	if !ok {
		return
	}
	c.unindexLocked(t)
	delete(c.tiles, k)
}

func (c *MemoryCache) unindexLocked(t Tile) {
	for _, e := range t.Entities {
		set := c.byEntity[e]
		delete(set, t.Key)
		if len(set) == 0 {
			delete(c.byEntity, e)
		}
	}
}
