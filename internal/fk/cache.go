// Package fk resolves foreign-key values into human-readable labels by
// sampling the referenced table and applying per-table display rules.
package fk

import (
	"sync"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// DefaultSampleSize bounds how many referenced rows are fetched per column.
const DefaultSampleSize = 100

// Key identifies a foreign-key column.
type Key struct {
	Table  string
	Column string
}

// Resolution holds the sampled rows of the table a column references.
type Resolution struct {
	RefTable   string
	RefColumn  string
	Sample     []schema.Row
	SampleSize int  // the bound used when sampling
	Failed     bool // the sample fetch failed; Sample is empty
}

// Find returns the sample row whose referenced column loosely equals value.
// An unset referenced column means id.
func (r Resolution) Find(value any) (schema.Row, bool) {
	if schema.IsEmptyValue(value) {
		return nil, false
	}
	col := r.RefColumn
	if col == "" {
		col = "id"
	}
	for _, row := range r.Sample {
		if schema.LooseEqual(row[col], value) {
			return row, true
		}
	}
	return nil, false
}

// Cache stores resolutions keyed by (table, column). It is safe for
// concurrent use; writes are last-wins per key.
type Cache struct {
	mu   sync.RWMutex
	data map[Key]Resolution
}

func NewCache() *Cache {
	return &Cache{data: make(map[Key]Resolution)}
}

// Get returns the resolution for (table, column).
func (c *Cache) Get(table, column string) (Resolution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.data[Key{table, column}]
	return r, ok
}

// Has reports whether a resolution exists for (table, column).
func (c *Cache) Has(table, column string) bool {
	_, ok := c.Get(table, column)
	return ok
}

// Put stores r for (table, column), replacing any previous entry.
func (c *Cache) Put(table, column string, r Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[Key{table, column}] = r
}

// Replace drops every entry of table and stores the given resolutions in
// their place. Entries are never merged.
func (c *Cache) Replace(table string, resolutions map[string]Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(table)
	for col, r := range resolutions {
		c.data[Key{table, col}] = r
	}
}

// Invalidate removes every entry of table.
func (c *Cache) Invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(table)
}

func (c *Cache) invalidateLocked(table string) {
	for k := range c.data {
		if k.Table == table {
			delete(c.data, k)
		}
	}
}

// Table returns a copy of the resolutions stored for table, keyed by column.
func (c *Cache) Table(table string) map[string]Resolution {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Resolution)
	for k, r := range c.data {
		if k.Table == table {
			out[k.Column] = r
		}
	}
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
