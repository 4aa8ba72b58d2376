package catalog

import (
	"context"
	"log/slog"
	"strings"
)

// MetadataSource is the subset of backend.Backend the metadata resolver needs.
type MetadataSource interface {
	Labels(ctx context.Context, table string) (map[string]string, error)
	Descriptions(ctx context.Context, table string) (map[string]string, error)
}

// Metadata resolves human-facing column labels and descriptions. It never
// fails: missing or unreachable metadata falls back per column.
type Metadata struct {
	src MetadataSource
	log *slog.Logger
}

func NewMetadata(src MetadataSource, log *slog.Logger) *Metadata {
	if log == nil {
		log = slog.Default()
	}
	return &Metadata{src: src, log: log}
}

// Labels returns a label for every column in columns. Columns the backend
// does not label keep their own name.
func (m *Metadata) Labels(ctx context.Context, table string, columns []string) map[string]string {
	remote, err := m.src.Labels(ctx, table)
	if err != nil {
		m.log.Warn("fetching labels failed, using column names", "table", table, "err", err)
		remote = nil
	}
	return fill(columns, remote, func(c string) string { return c })
}

// Descriptions returns a description for every column in columns, falling
// back to "Column <name>".
func (m *Metadata) Descriptions(ctx context.Context, table string, columns []string) map[string]string {
	remote, err := m.src.Descriptions(ctx, table)
	if err != nil {
		m.log.Warn("fetching descriptions failed, using defaults", "table", table, "err", err)
		remote = nil
	}
	return fill(columns, remote, DefaultDescription)
}

// DefaultDescription is the description used when none is known.
func DefaultDescription(column string) string {
	return "Column " + column
}

// fill resolves every column through remote, then fallback. With nil
// columns it returns the non-blank remote entries only, for callers that
// fetch metadata before the column list is known.
func fill(columns []string, remote map[string]string, fallback func(string) string) map[string]string {
	if columns == nil {
		out := make(map[string]string, len(remote))
		for c, v := range remote {
			if v = strings.TrimSpace(v); v != "" {
				out[c] = v
			}
		}
		return out
	}
	out := make(map[string]string, len(columns))
	for _, c := range columns {
		if v := strings.TrimSpace(remote[c]); v != "" {
			out[c] = v
			continue
		}
		out[c] = fallback(c)
	}
	return out
}

// FillLabels completes a partial label map for columns with the identity
// fallback.
func FillLabels(columns []string, known map[string]string) map[string]string {
	if columns == nil {
		columns = []string{}
	}
	return fill(columns, known, func(c string) string { return c })
}

// FillDescriptions completes a partial description map for columns.
func FillDescriptions(columns []string, known map[string]string) map[string]string {
	if columns == nil {
		columns = []string{}
	}
	return fill(columns, known, DefaultDescription)
}
