package fk

import (
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// NotAvailable is shown for empty foreign-key values.
const NotAvailable = "N/A"

// Option is one choice of a foreign-key select.
type Option struct {
	Value any
	Label string
}

// Labeler turns foreign-key values into display labels using the cached
// samples and the registry.
type Labeler struct {
	cache    *Cache
	registry *Registry
}

func NewLabeler(cache *Cache, registry *Registry) *Labeler {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Labeler{cache: cache, registry: registry}
}

// LabelFor labels value of table.column. Without a resolution, or when the
// value is not in the sample, the raw value is returned ("N/A" if empty).
func (l *Labeler) LabelFor(table, column string, value any) string {
	res, ok := l.cache.Get(table, column)
	if !ok {
		return raw(value)
	}
	row, ok := res.Find(value)
	if !ok {
		return raw(value)
	}
	return l.registry.Format(res.RefTable, res.RefColumn, row)
}

// Options returns one option per sampled row, in sample order.
func (l *Labeler) Options(table, column string) []Option {
	res, ok := l.cache.Get(table, column)
	if !ok {
		return nil
	}
	opts := make([]Option, 0, len(res.Sample))
	for _, row := range res.Sample {
		opts = append(opts, Option{
			Value: row[res.RefColumn],
			Label: l.registry.Format(res.RefTable, res.RefColumn, row),
		})
	}
	return opts
}

// Cache returns the cache the labeler reads from.
func (l *Labeler) Cache() *Cache {
	return l.cache
}

func raw(value any) string {
	if schema.IsEmptyValue(value) {
		return NotAvailable
	}
	return schema.FormatValue(value)
}
