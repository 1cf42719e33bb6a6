// Package server exposes the catalog and the mirrored files over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"buildmirror/src/catalog"
	"buildmirror/src/contracts"
	"buildmirror/src/logger"
)

// Options locates the files the server reads.
type Options struct {
	CacheDir  string
	StaticDir string
	IndexFile string
}

// Server serves the build list, the run cache, static assets and the index page.
type Server struct {
	opts   Options
	builds catalog.Source
	cache  *fileHandler
	static *fileHandler
	logger logger.Logger
}

// New creates a server reading builds from src.
func New(opts Options, src catalog.Source, log logger.Logger) *Server {
	return &Server{
		opts:   opts,
		builds: src,
		cache: &fileHandler{
			root:       opts.CacheDir,
			immutable:  true,
			extensions: []string{".apk", ".json"},
		},
		static: &fileHandler{root: opts.StaticDir},
		logger: logger.WithPrefix(log, "Server"),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	r.Get("/builds", s.listBuilds)
	r.Get("/builds/{run_id}", s.getBuild)
	r.Get("/cache/*", s.cache.ServeHTTP)
	r.Get("/static/*", s.static.ServeHTTP)
	r.Get("/", s.index)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) listBuilds(w http.ResponseWriter, r *http.Request) {
	builds := s.builds.Builds()
	if builds == nil {
		builds = []contracts.RunMetadata{}
	}
	if branch := r.URL.Query().Get("branch"); branch != "" {
		builds = catalog.FilterBranch(builds, branch)
	}
	writeJSON(w, http.StatusOK, builds)
}

func (s *Server) getBuild(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "run_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}
	meta, ok := catalog.Find(s.builds, id)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.opts.IndexFile)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d %dB %v", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start).Round(time.Microsecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
