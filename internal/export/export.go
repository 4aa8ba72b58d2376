// Package export writes every row of a table to CSV or JSON, one page at a
// time, so large tables are never held in memory.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Format is an export file format.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "csv"
}

// FormatFromPath picks the format from the file extension. Anything but
// .json is CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// ParseFormat parses "csv" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatCSV, fmt.Errorf("unknown export format %q (want csv or json)", s)
	}
}

// Source walks a table page by page; rows.Fetcher satisfies it.
type Source interface {
	All(ctx context.Context, table string, pageSize int, fn func(schema.Page) error) error
}

// Request describes one export.
type Request struct {
	Table    string
	Columns  []string // header order; taken from the first page when empty
	PageSize int
	Format   Format
}

// File writes req to path and returns the number of rows written. A failed
// export leaves the partial file in place.
func File(ctx context.Context, path string, src Source, req Request) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := Write(ctx, f, src, req)
	if err != nil {
		return n, fmt.Errorf("export %s to %s: %w", req.Table, path, err)
	}
	return n, f.Close()
}

// Write streams req to w.
func Write(ctx context.Context, w io.Writer, src Source, req Request) (int64, error) {
	if req.Format == FormatJSON {
		return writeJSON(ctx, w, src, req)
	}
	return writeCSV(ctx, w, src, req)
}

// writeCSV renders NULL as an empty field.
func writeCSV(ctx context.Context, w io.Writer, src Source, req Request) (int64, error) {
	cw := csv.NewWriter(w)
	cols := req.Columns
	headerDone := false
	writeHeader := func() error {
		headerDone = true
		if len(cols) == 0 {
			return nil
		}
		return cw.Write(cols)
	}

	var count int64
	err := src.All(ctx, req.Table, req.PageSize, func(p schema.Page) error {
		if !headerDone {
			if len(cols) == 0 {
				cols = p.Columns
			}
			if err := writeHeader(); err != nil {
				return err
			}
		}
		record := make([]string, len(cols))
		for _, row := range p.Rows {
			for i, c := range cols {
				record[i] = schema.FormatValue(row[c])
			}
			if err := cw.Write(record); err != nil {
				return err
			}
			count++
		}
		// flush per page to keep memory flat
		cw.Flush()
		return cw.Error()
	})
	if err == nil && !headerDone {
		err = writeHeader()
	}
	cw.Flush()
	if err != nil {
		return count, err
	}
	return count, cw.Error()
}

// writeJSON writes an array of objects. Values keep their JSON type and
// NULL stays null.
func writeJSON(ctx context.Context, w io.Writer, src Source, req Request) (int64, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return 0, err
	}

	var count int64
	err := src.All(ctx, req.Table, req.PageSize, func(p schema.Page) error {
		cols := req.Columns
		if len(cols) == 0 {
			cols = p.Columns
		}
		for _, row := range p.Rows {
			obj := make(map[string]any, len(cols))
			for _, c := range cols {
				obj[c] = row[c]
			}
			data, err := json.MarshalIndent(obj, "  ", "  ")
			if err != nil {
				return err
			}
			sep := ",\n  "
			if count == 0 {
				sep = "\n  "
			}
			if _, err := io.WriteString(w, sep); err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
			count++
		}
		return nil
	})

	closing := "\n]\n"
	if count == 0 {
		closing = "]\n"
	}
	if _, werr := io.WriteString(w, closing); err == nil {
		err = werr
	}
	return count, err
}
