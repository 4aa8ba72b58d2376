// Package backend talks to the table API: catalog, structure, display
// metadata, row pages and row persistence.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Backend is the set of remote operations the explorer depends on.
type Backend interface {
	ListTables(ctx context.Context) ([]schema.Table, error)
	Structure(ctx context.Context, table string) (schema.Structure, error)
	Labels(ctx context.Context, table string) (map[string]string, error)
	Descriptions(ctx context.Context, table string) (map[string]string, error)
	Page(ctx context.Context, table string, limit, offset int) (schema.Page, error)
	Create(ctx context.Context, table string, payload map[string]any) (schema.Row, error)
	Update(ctx context.Context, table, id string, payload map[string]any) (schema.Row, error)
	Delete(ctx context.Context, table, id string) error
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration     // zero means no client-side timeout
	Headers map[string]string // sent with every request
	HTTP    *http.Client      // overrides the default client when set
}

// Client is the HTTP implementation of Backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	headers map[string]string
}

// NewClient returns a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("backend url is empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{base: u, http: hc, headers: opts.Headers}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) ListTables(ctx context.Context) ([]schema.Table, error) {
	var resp TablesResponse
	if err := c.do(ctx, http.MethodGet, "/tables", nil, nil, &resp); err != nil {
		return nil, err
	}
	tables := make([]schema.Table, 0, len(resp.Tables))
	for _, t := range resp.Tables {
		tables = append(tables, schema.Table{Name: t.Name, Classification: schema.ParseClassification(t.Type)})
	}
	return tables, nil
}

func (c *Client) Structure(ctx context.Context, table string) (schema.Structure, error) {
	var resp StructureResponse
	if err := c.do(ctx, http.MethodGet, tablePath(table, "structure"), nil, nil, &resp); err != nil {
		return schema.Structure{}, err
	}
	return resp.ToStructure(), nil
}

func (c *Client) Labels(ctx context.Context, table string) (map[string]string, error) {
	var resp LabelsResponse
	if err := c.do(ctx, http.MethodGet, tablePath(table, "labels"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

func (c *Client) Descriptions(ctx context.Context, table string) (map[string]string, error) {
	var resp DescriptionsResponse
	if err := c.do(ctx, http.MethodGet, tablePath(table, "descriptions"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Descriptions, nil
}

func (c *Client) Page(ctx context.Context, table string, limit, offset int) (schema.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var resp PageResponse
	if err := c.do(ctx, http.MethodGet, tablePath(table, "data"), q, nil, &resp); err != nil {
		return schema.Page{}, err
	}
	page := schema.Page{
		Columns:    resp.Columns,
		Rows:       make([]schema.Row, 0, len(resp.Data)),
		TotalCount: resp.Pagination.TotalRows,
		Limit:      limit,
		Offset:     offset,
	}
	for _, r := range resp.Data {
		page.Rows = append(page.Rows, normalizeRow(r))
	}
	return page, nil
}

func (c *Client) Create(ctx context.Context, table string, payload map[string]any) (schema.Row, error) {
	var row map[string]any
	if err := c.do(ctx, http.MethodPost, tablePath(table, "rows"), nil, payload, &row); err != nil {
		return nil, err
	}
	return normalizeRow(row), nil
}

func (c *Client) Update(ctx context.Context, table, id string, payload map[string]any) (schema.Row, error) {
	var row map[string]any
	if err := c.do(ctx, http.MethodPut, tablePath(table, "rows", id), nil, payload, &row); err != nil {
		return nil, err
	}
	return normalizeRow(row), nil
}

func (c *Client) Delete(ctx context.Context, table, id string) error {
	return c.do(ctx, http.MethodDelete, tablePath(table, "rows", id), nil, nil, nil)
}

func tablePath(table string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/tables/")
	b.WriteString(url.PathEscape(table))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// do performs one request. A nil out discards the body; non-2xx responses
// become *apperr.StatusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.base.String() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	se := &apperr.StatusError{Method: method, Path: path, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body ErrorResponse
	if json.Unmarshal(raw, &body) == nil {
		se.Message = body.Error
		if se.Message == "" {
			se.Message = body.Message
		}
	}
	if se.Message == "" {
		se.Message = strings.TrimSpace(string(raw))
	}
	return se
}
