// Package server hosts the community package index over HTTP. It
// regenerates the index document from a srcpkgs template tree, serves
// it alongside the raw templates, and optionally publishes the
// rendered document to a shared cache so several instances stay in
// step.
package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vup-linux/vuru/pkg/cache"
	"github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/repoindex"
)

// DefaultDebounce is the quiet period after a template tree change
// before the index is rebuilt, so one checkout update triggers one
// rebuild instead of hundreds.
const DefaultDebounce = 500 * time.Millisecond

// indexCacheKey locates the rendered index document in a shared cache.
const indexCacheKey = "server:index.json"

// Options configure an index server.
type Options struct {
	// SrcpkgsDir is the template tree the index is generated from.
	SrcpkgsDir string

	// BaseURL prefixes repository URLs in the generated index.
	BaseURL string

	// SupportedArchs is the fallback architecture set for templates
	// without an archs list.
	SupportedArchs []string

	// Cache optionally shares the rendered index between instances.
	Cache cache.Cache

	// CacheTTL bounds how long a shared copy is served without a
	// rebuild. Zero stores it without expiry.
	CacheTTL time.Duration

	// Debounce overrides DefaultDebounce for watch-triggered rebuilds.
	Debounce time.Duration

	// Logger defaults to the package default.
	Logger *log.Logger
}

// Server serves the community package index and raw templates.
type Server struct {
	gen      *repoindex.Generator
	srcpkgs  string
	shared   cache.Cache
	ttl      time.Duration
	debounce time.Duration
	logger   *log.Logger

	mu  sync.RWMutex
	doc []byte
}

// New builds a Server and generates the initial index document. It
// fails when the template tree cannot be indexed at all; individual
// broken templates are skipped with a warning instead.
func New(ctx context.Context, opts Options) (*Server, error) {
	gen, err := repoindex.NewGenerator(repoindex.Options{
		SrcpkgsDir:     opts.SrcpkgsDir,
		BaseURL:        opts.BaseURL,
		SupportedArchs: opts.SupportedArchs,
	}, opts.Logger)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	s := &Server{
		gen:      gen,
		srcpkgs:  opts.SrcpkgsDir,
		shared:   opts.Cache,
		ttl:      opts.CacheTTL,
		debounce: debounce,
		logger:   logger,
	}
	if err := s.Rebuild(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild regenerates the index from the template tree and swaps it
// in. Requests keep seeing the previous document until the swap, and
// on failure the previous document stays up.
func (s *Server) Rebuild(ctx context.Context) error {
	doc, err := s.gen.Generate()
	if err != nil {
		return err
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = data
	s.mu.Unlock()

	if s.shared != nil {
		if err := s.shared.Set(ctx, indexCacheKey, data, s.ttl); err != nil {
			s.logger.Warn("shared index cache unavailable", "error", err)
		}
	}
	return nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/index.json", s.handleIndex)
	r.Get("/srcpkgs/{category}/{name}/template", s.handleTemplate)

	return r
}

// Run serves the handler on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("index server listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeInternal, err, "index server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "index server shutdown")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.indexDocument(r.Context())

	etag := `"` + cache.Hash(data)[:16] + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	name := chi.URLParam(r, "name")
	if errors.ValidateCategory(category) != nil || errors.ValidatePackageName(name) != nil {
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.srcpkgs, category, name, "template"))
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("template read failed", "category", category, "package", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

// indexDocument prefers the shared cache so a rebuild on any instance
// reaches all of them. Cache trouble falls back to the local copy.
func (s *Server) indexDocument(ctx context.Context) []byte {
	if s.shared != nil {
		data, ok, err := s.shared.Get(ctx, indexCacheKey)
		switch {
		case err != nil:
			s.logger.Warn("shared index cache unavailable", "error", err)
		case ok:
			return data
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// requestLogger logs one line per request after it completes.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
				"remote", r.RemoteAddr)
		})
	}
}
