package symbols

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
)

const DefaultSearchLimit = 5

// Loader lists the base coins currently tradable against USDT.
type Loader interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// Cache is the shared symbol set. EnsureLoaded populates it at most once; Refresh always reloads.
type Cache struct {
	store  Store
	loader Loader

	mu     sync.Mutex
	loaded bool
}

func NewCache(store Store, loader Loader) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{store: store, loader: loader}
}

func (c *Cache) EnsureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	return c.refreshLocked(ctx)
}

func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	if c.loader == nil {
		return fmt.Errorf("symbol cache has no loader")
	}
	raw, err := c.loader.ListSymbols(ctx)
	if err != nil {
		return fmt.Errorf("load symbols: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		sym := strings.ToUpper(strings.TrimSpace(r))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	if len(out) == 0 {
		return fmt.Errorf("load symbols: exchange returned no USDT pairs")
	}
	if err := c.store.Replace(ctx, out); err != nil {
		return err
	}
	c.loaded = true
	log.Printf("symbol cache loaded %d USDT pairs", len(out))
	return nil
}

func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Contains reports whether symbol is tradable. Store errors count as unknown.
func (c *Cache) Contains(ctx context.Context, symbol string) bool {
	ok, err := c.store.Has(ctx, Normalize(symbol))
	if err != nil {
		log.Printf("symbol lookup failed for %s: %v", symbol, err)
		return false
	}
	return ok
}

// Search returns the exact match first, then the sorted substring matches, at most limit entries.
func (c *Cache) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}
	members, err := c.store.Members(ctx)
	if err != nil {
		return nil, err
	}

	var exact bool
	partial := make([]string, 0)
	for _, sym := range members {
		switch {
		case sym == q:
			exact = true
		case strings.Contains(sym, q):
			partial = append(partial, sym)
		}
	}
	slices.Sort(partial)

	out := make([]string, 0, limit)
	if exact {
		out = append(out, q)
	}
	for _, sym := range partial {
		if len(out) == limit {
			break
		}
		out = append(out, sym)
	}
	return out, nil
}

func (c *Cache) Len(ctx context.Context) int {
	members, err := c.store.Members(ctx)
	if err != nil {
		return 0
	}
	return len(members)
}

// List returns every cached symbol in sorted order.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	return c.store.Members(ctx)
}
