package fk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// maxConcurrentSamples caps in-flight sample requests per Resolve call.
const maxConcurrentSamples = 8

// StructureSource supplies table structures.
type StructureSource interface {
	Structure(ctx context.Context, table string) (schema.Structure, error)
}

// PageSource supplies row pages; *rows.Fetcher satisfies it.
type PageSource interface {
	Page(ctx context.Context, table string, limit, offset int) (schema.Page, error)
}

// Resolver samples the tables referenced by a table's foreign keys.
type Resolver struct {
	structures StructureSource
	pages      PageSource
	sampleSize int
	log        *slog.Logger
}

// NewResolver returns a Resolver. A non-positive sampleSize uses
// DefaultSampleSize.
func NewResolver(structures StructureSource, pages PageSource, sampleSize int, log *slog.Logger) *Resolver {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{structures: structures, pages: pages, sampleSize: sampleSize, log: log}
}

// SampleSize returns the per-column sample bound.
func (r *Resolver) SampleSize() int {
	return r.sampleSize
}

// Resolve fetches table's structure and samples every foreign key it
// declares. It does not write to any cache; the caller decides whether the
// result is still wanted.
func (r *Resolver) Resolve(ctx context.Context, table string) (map[string]Resolution, error) {
	s, err := r.structures.Structure(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", table, err)
	}
	return r.ResolveStructure(ctx, table, s)
}

// ResolveStructure samples the foreign keys of an already loaded structure.
// Columns are sampled concurrently and in isolation: a failed column gets
// an empty sample and is listed in the returned *apperr.PartialError, while
// the other columns still resolve.
//
// Columns referencing the same table share one request within a call.
// Separate calls never share requests, so cancelling one selection cannot
// fail the samples of another.
func (r *Resolver) ResolveStructure(ctx context.Context, table string, s schema.Structure) (map[string]Resolution, error) {
	out := make(map[string]Resolution, len(s.ForeignKeys))
	failed := make(map[string]error)
	var (
		mu    sync.Mutex
		group singleflight.Group
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentSamples)
	for _, key := range s.ForeignKeys {
		g.Go(func() error {
			res := Resolution{RefTable: key.RefTable, RefColumn: key.RefColumn, SampleSize: r.sampleSize}
			sample, err := r.sample(ctx, &group, key.RefTable)
			if err != nil {
				res.Failed = true
				res.Sample = []schema.Row{}
			} else {
				res.Sample = sample
			}

			mu.Lock()
			defer mu.Unlock()
			out[key.Column] = res
			if err != nil {
				failed[key.Column] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		r.log.Warn("foreign key sampling incomplete", "table", table, "failed", len(failed), "total", len(s.ForeignKeys))
		return out, &apperr.PartialError{Table: table, Columns: failed}
	}
	return out, nil
}

// sample fetches the first sampleSize rows of refTable. Concurrent calls on
// the same group share one request.
func (r *Resolver) sample(ctx context.Context, group *singleflight.Group, refTable string) ([]schema.Row, error) {
	v, err, _ := group.Do(refTable, func() (any, error) {
		p, err := r.pages.Page(ctx, refTable, r.sampleSize, 0)
		if err != nil {
			return nil, err
		}
		return p.Rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]schema.Row), nil
}
