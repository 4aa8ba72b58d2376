package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/elarabyomar/PFA-sub000/internal/backend"
)

const defaultPageSize = 50

func (s *Server) listTables(c *gin.Context) {
	names, err := s.store.Tables(c.Request.Context())
	if err != nil {
		FailErr(c, err, false)
		return
	}
	resp := backend.TablesResponse{Tables: make([]backend.TableJSON, 0, len(names))}
	for _, name := range names {
		resp.Tables = append(resp.Tables, backend.TableJSON{
			Name: name,
			Type: Classify(name, s.opts.Classifications).String(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) structure(c *gin.Context) {
	st, err := s.store.Structure(c.Request.Context(), c.Param("name"))
	if err != nil {
		FailErr(c, err, false)
		return
	}
	c.JSON(http.StatusOK, backend.FromStructure(st))
}

func (s *Server) labels(c *gin.Context) {
	labels, ok := s.opts.Labels[c.Param("name")]
	if !ok || len(labels) == 0 {
		Fail(c, http.StatusNotFound, "no labels configured for "+c.Param("name"))
		return
	}
	c.JSON(http.StatusOK, backend.LabelsResponse{Labels: labels})
}

// descriptions merges column comments from the database with configured
// descriptions; configured text wins.
func (s *Server) descriptions(c *gin.Context) {
	table := c.Param("name")
	comments, err := s.store.Comments(c.Request.Context(), table)
	if err != nil {
		FailErr(c, err, false)
		return
	}
	out := make(map[string]string, len(comments))
	for col, text := range comments {
		out[col] = text
	}
	for col, text := range s.opts.Descriptions[table] {
		out[col] = text
	}
	if len(out) == 0 {
		Fail(c, http.StatusNotFound, "no descriptions for "+table)
		return
	}
	c.JSON(http.StatusOK, backend.DescriptionsResponse{Descriptions: out})
}

func (s *Server) data(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultPageSize)
	if err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if limit < 0 || offset < 0 {
		Fail(c, http.StatusBadRequest, "limit and offset must not be negative")
		return
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}

	page, err := s.store.Page(c.Request.Context(), c.Param("name"), limit, offset)
	if err != nil {
		FailErr(c, err, false)
		return
	}

	resp := backend.PageResponse{
		Columns: page.Columns,
		Data:    make([]map[string]any, len(page.Rows)),
		Pagination: backend.Pagination{
			TotalRows:  page.TotalCount,
			TotalPages: totalPages(page.TotalCount, limit),
			Limit:      limit,
			Offset:     offset,
		},
	}
	for i, r := range page.Rows {
		resp.Data[i] = r
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createRow(c *gin.Context) {
	values, err := decodeValues(c.Request.Body)
	if err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	row, err := s.store.Insert(c.Request.Context(), c.Param("name"), values)
	if err != nil {
		FailErr(c, err, true)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (s *Server) updateRow(c *gin.Context) {
	values, err := decodeValues(c.Request.Body)
	if err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	row, err := s.store.Update(c.Request.Context(), c.Param("name"), c.Param("id"), values)
	if err != nil {
		FailErr(c, err, true)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) deleteRow(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("name"), c.Param("id")); err != nil {
		FailErr(c, err, true)
		return
	}
	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func totalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// decodeValues reads a JSON object of column values. Numbers keep their
// integer form so primary and foreign keys bind as integers.
func decodeValues(r io.Reader) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	values := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return values, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	for k, v := range values {
		switch val := v.(type) {
		case json.Number:
			if i, err := val.Int64(); err == nil {
				values[k] = i
			} else if f, err := val.Float64(); err == nil {
				values[k] = f
			} else {
				values[k] = val.String()
			}
		case map[string]any, []any:
			return nil, fmt.Errorf("column %s: nested values are not supported", k)
		}
	}
	return values, nil
}
