// Package server is a reference implementation of the table API the
// explorer consumes, served with gin over a store.Store.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/elarabyomar/PFA-sub000/internal/store"
)

// DefaultPrefix is the path the API is mounted under.
const DefaultPrefix = "/api"

// Options configures a Server.
type Options struct {
	Prefix          string
	CORSOrigins     []string
	Classifications map[string]string            // table -> MASTER|REFERENCE|TRANSACTIONAL|OTHER
	Labels          map[string]map[string]string // table -> column -> label
	Descriptions    map[string]map[string]string // table -> column -> description
	MaxPageSize     int
}

// Server serves the table API.
type Server struct {
	store  *store.Store
	opts   Options
	router *gin.Engine
}

// New builds the router over st.
func New(st *store.Store, opts Options) *Server {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 1000
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog())
	if len(opts.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = opts.CORSOrigins
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", RequestIDHeader)
		cfg.ExposeHeaders = []string{RequestIDHeader}
		router.Use(cors.New(cfg))
	}

	s := &Server{store: st, opts: opts, router: router}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// HTTPServer wraps the handler in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := s.HTTPServer(addr)
	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- fmt.Errorf("http server: %w", err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			Fail(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "driver": s.store.Driver()})
	})

	api := s.router.Group(s.opts.Prefix)
	{
		api.GET("/tables", s.listTables)

		table := api.Group("/tables/:name")
		table.GET("/structure", s.structure)
		table.GET("/labels", s.labels)
		table.GET("/descriptions", s.descriptions)
		table.GET("/data", s.data)
		table.POST("/rows", s.createRow)
		table.PUT("/rows/:id", s.updateRow)
		table.DELETE("/rows/:id", s.deleteRow)
	}
}
