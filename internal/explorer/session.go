// Package explorer holds the per-table editing session: which table is
// selected, what has been loaded for it, and the create/edit/save state
// machine. Loads are split into a fetch half (pure I/O, safe to run in a
// goroutine) and an apply half that drops results of a superseded selection.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/audit"
	"github.com/elarabyomar/PFA-sub000/internal/backend"
	"github.com/elarabyomar/PFA-sub000/internal/catalog"
	"github.com/elarabyomar/PFA-sub000/internal/fk"
	"github.com/elarabyomar/PFA-sub000/internal/rows"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// DefaultPageSize is the grid page size when none is configured.
const DefaultPageSize = 50

var (
	// ErrNoTable means no table is selected.
	ErrNoTable = errors.New("no table selected")
	// ErrNoStructure means the selected table's structure has not loaded.
	ErrNoStructure = errors.New("table structure not loaded")
	// ErrStale means a result belongs to a superseded selection.
	ErrStale = errors.New("stale selection")
)

// Options configures a Session.
type Options struct {
	PageSize   int
	SampleSize int
	Registry   *fk.Registry
	Logger     *slog.Logger
	Audit      *audit.Logger
	BackendURL string // recorded in audit entries, sanitized
}

// Selection identifies one table selection. Ctx is cancelled when another
// table is selected.
type Selection struct {
	Table string
	Gen   uint64
	Ctx   context.Context
}

// Session is safe for concurrent use.
type Session struct {
	be       backend.Backend
	catalog  *catalog.Catalog
	meta     *catalog.Metadata
	rows     *rows.Fetcher
	resolver *fk.Resolver
	cache    *fk.Cache
	labeler  *fk.Labeler
	log      *slog.Logger
	audit    *audit.Logger
	auditURL string
	pageSize int

	mu           sync.Mutex
	table        string
	gen          uint64
	ctx          context.Context
	cancel       context.CancelFunc
	structure    schema.Structure
	hasStructure bool
	labels       map[string]string
	descriptions map[string]string
	page         schema.Page
	offset       int
	state        State
	form         *Form
}

// New returns a Session over be.
func New(be backend.Backend, opts Options) *Session {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Registry == nil {
		opts.Registry = fk.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cat := catalog.New(be, opts.Logger)
	fetcher := rows.New(be)
	cache := fk.NewCache()
	return &Session{
		be:       be,
		catalog:  cat,
		meta:     catalog.NewMetadata(be, opts.Logger),
		rows:     fetcher,
		resolver: fk.NewResolver(cat, fetcher, opts.SampleSize, opts.Logger),
		cache:    cache,
		labeler:  fk.NewLabeler(cache, opts.Registry),
		log:      opts.Logger,
		audit:    opts.Audit,
		auditURL: audit.SanitizeURL(opts.BackendURL),
		pageSize: opts.PageSize,
		state:    StateBrowsing,
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (s *Session) Catalog() *catalog.Catalog { return s.catalog }
func (s *Session) Labeler() *fk.Labeler      { return s.labeler }
func (s *Session) Rows() *rows.Fetcher       { return s.rows }
func (s *Session) PageSize() int             { return s.pageSize }

// Table returns the selected table and its generation.
func (s *Session) Table() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table, s.gen
}

// Structure returns the loaded structure of the selected table, with IsFK
// also set for columns that have a cached resolution.
func (s *Session) Structure() (schema.Structure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasStructure {
		return schema.Structure{}, false
	}
	table := s.table
	return s.structure.DeriveKeys(func(c string) bool { return s.cache.Has(table, c) }), true
}

// Labels returns a display label for every column of the loaded structure.
func (s *Session) Labels() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.FillLabels(s.structure.ColumnNames(), s.labels)
}

// Descriptions returns a description for every column of the loaded
// structure.
func (s *Session) Descriptions() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.FillDescriptions(s.structure.ColumnNames(), s.descriptions)
}

// Page returns the current row page.
func (s *Session) Page() schema.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Offset returns the current page offset.
func (s *Session) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// LabelFor labels a foreign-key value of the selected table.
func (s *Session) LabelFor(column string, value any) string {
	table, _ := s.Table()
	return s.labeler.LabelFor(table, column, value)
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// Select makes table the current selection. In-flight requests of the
// previous selection are cancelled, its results will be dropped, and the
// FK resolutions of table are invalidated so they are fetched again.
func (s *Session) Select(table string) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx, s.cancel = ctx, cancel
	s.gen++
	s.table = table
	s.structure = schema.Structure{}
	s.hasStructure = false
	s.labels = nil
	s.descriptions = nil
	s.page = schema.Page{}
	s.offset = 0
	s.state = StateBrowsing
	s.form = nil
	s.cache.Invalidate(table)

	return Selection{Table: table, Gen: s.gen, Ctx: ctx}
}

// Current returns the live selection, or ok=false when nothing is selected.
func (s *Session) Current() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == "" {
		return Selection{}, false
	}
	return Selection{Table: s.table, Gen: s.gen, Ctx: s.ctx}, true
}

// IsCurrent reports whether gen is the live selection.
func (s *Session) IsCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

// Close cancels any in-flight requests.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// ---------------------------------------------------------------------------
// Fetch half: no session state is touched
// ---------------------------------------------------------------------------

// ListTables returns the catalog. On failure the list is empty.
func (s *Session) ListTables(ctx context.Context) ([]schema.Table, error) {
	return s.catalog.ListTables(ctx)
}

func (s *Session) FetchStructure(sel Selection) (schema.Structure, error) {
	return s.catalog.Structure(sel.Ctx, sel.Table)
}

// FetchMetadata returns the raw labels and descriptions known to the
// backend. Fallbacks are applied when they are read.
func (s *Session) FetchMetadata(sel Selection) (labels, descriptions map[string]string) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		labels = s.meta.Labels(sel.Ctx, sel.Table, nil)
	}()
	go func() {
		defer wg.Done()
		descriptions = s.meta.Descriptions(sel.Ctx, sel.Table, nil)
	}()
	wg.Wait()
	return labels, descriptions
}

// FetchResolutions samples every foreign key of the selected table. It
// never writes to the cache; see ApplyResolutions.
func (s *Session) FetchResolutions(sel Selection) (map[string]fk.Resolution, error) {
	return s.resolver.Resolve(sel.Ctx, sel.Table)
}

func (s *Session) FetchPage(sel Selection, offset int) (schema.Page, error) {
	return s.rows.Page(sel.Ctx, sel.Table, s.pageSize, offset)
}

// ---------------------------------------------------------------------------
// Apply half: results of a superseded selection are dropped
// ---------------------------------------------------------------------------

// ApplyStructure stores a fetched structure. It returns false when gen is
// stale.
func (s *Session) ApplyStructure(gen uint64, st schema.Structure) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.structure = st.DeriveKeys(nil)
	s.hasStructure = true
	return true
}

func (s *Session) ApplyMetadata(gen uint64, labels, descriptions map[string]string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.labels, s.descriptions = labels, descriptions
	return true
}

// ApplyResolutions replaces the cached resolutions of the selected table.
// Results of a superseded selection never reach the cache.
func (s *Session) ApplyResolutions(gen uint64, res map[string]fk.Resolution) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.cache.Replace(s.table, res)
	return true
}

func (s *Session) ApplyPage(gen uint64, p schema.Page) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.page = p
	s.offset = p.Offset
	return true
}

// ---------------------------------------------------------------------------
// Blocking helpers
// ---------------------------------------------------------------------------

// Open selects table and loads it: structure, metadata and FK resolutions
// concurrently, then the first page once the structure is in. Degraded
// parts (metadata, FK samples) do not fail Open; a missing structure does.
//
// Open blocks until everything is applied. It is a convenience for callers
// without an event loop; the TUI issues the Fetch* commands and feeds their
// results to the Apply* methods instead.
func (s *Session) Open(ctx context.Context, table string) error {
	sel := s.Select(table)
	selCtx, cancel := context.WithCancel(sel.Ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	sel.Ctx = selCtx

	var (
		structure schema.Structure
		structErr error
	)
	g, gctx := errgroup.WithContext(sel.Ctx)
	g.Go(func() error {
		structure, structErr = s.FetchStructure(Selection{Table: table, Gen: sel.Gen, Ctx: gctx})
		if structErr != nil {
			return structErr
		}
		if !s.ApplyStructure(sel.Gen, structure) {
			return ErrStale
		}
		p, err := s.FetchPage(Selection{Table: table, Gen: sel.Gen, Ctx: gctx}, 0)
		if err != nil {
			return err
		}
		if !s.ApplyPage(sel.Gen, p) {
			return ErrStale
		}
		return nil
	})
	g.Go(func() error {
		labels, descriptions := s.FetchMetadata(Selection{Table: table, Gen: sel.Gen, Ctx: gctx})
		s.ApplyMetadata(sel.Gen, labels, descriptions)
		return nil
	})
	g.Go(func() error {
		res, err := s.FetchResolutions(Selection{Table: table, Gen: sel.Gen, Ctx: gctx})
		if err != nil && !errors.Is(err, apperr.ErrResolutionPartial) {
			s.log.Warn("foreign key resolution failed", "table", table, "err", err)
		}
		if res != nil {
			s.ApplyResolutions(sel.Gen, res)
		}
		return nil
	})
	return g.Wait()
}

// GoTo loads the page at offset for the selected table.
func (s *Session) GoTo(ctx context.Context, offset int) error {
	sel, ok := s.Current()
	if !ok {
		return ErrNoTable
	}
	pageCtx, cancel := context.WithCancel(sel.Ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	sel.Ctx = pageCtx
	p, err := s.FetchPage(sel, offset)
	if err != nil {
		return err
	}
	if !s.ApplyPage(sel.Gen, p) {
		return ErrStale
	}
	return nil
}

// Refresh reloads the current page at the current offset.
func (s *Session) Refresh(ctx context.Context) error {
	return s.GoTo(ctx, s.Offset())
}

func since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

func describe(op, table, id string) string {
	if id == "" {
		return fmt.Sprintf("%s %s", op, table)
	}
	return fmt.Sprintf("%s %s/%s", op, table, id)
}
