// Package server renders showcase pages over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/site"
)

// Server wires the page builder, the resolver and the static share/ tree
// into an HTTP handler.
type Server struct {
	pages    *site.Builder
	policy   resolve.Policy
	shareDir string
	recorder site.Recorder
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithShareDir serves files under dir at /share/.
func WithShareDir(dir string) Option {
	return func(s *Server) { s.shareDir = dir }
}

// WithRecorder records every page render.
func WithRecorder(r site.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithLogger sets the request and render logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server. Pages are resolved with policy; the builder should
// link with the same policy.
func New(pages *site.Builder, policy resolve.Policy, opts ...Option) *Server {
	s := &Server{
		pages:  pages,
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.listProjects)
		r.Get("/projects/{title}", s.getProject)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	if s.shareDir != "" {
		fileServer := http.FileServer(http.Dir(s.shareDir))
		r.Handle("/share/*", http.StripPrefix("/share", fileServer))
	}

	r.Get("/*", s.renderPage)

	return r
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request) {
	target := s.policy.Resolve(r.URL)
	start := time.Now()
	page, err := s.pages.Render(r.Context(), target)
	site.Record(context.WithoutCancel(r.Context()), s.recorder, s.logger,
		site.NewRenderRecord(r.URL.RequestURI(), target, page, err, time.Since(start)))

	if err != nil {
		status := s.logFailure(r, "render page", err)
		http.Error(w, clientMessage(err, status), status)
		return
	}
	if page.DocErr != nil {
		s.logger.Warn("documentation unavailable", "title", page.Title, "error", page.DocErr)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.logger.Error("serialize page", "url", r.URL.RequestURI(), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// --- API ---

type projectOut struct {
	Title       string `json:"title"`
	Repository  string `json:"repository"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Link        string `json:"link"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.pages.Loader().Load(r.Context())
	if err != nil {
		status := s.logFailure(r, "load manifest", err)
		writeError(w, status, clientMessage(err, status))
		return
	}

	sorted := site.SortByTitle(projects)
	out := make([]projectOut, len(sorted))
	for i, p := range sorted {
		out[i] = projectOut{
			Title:       p.Title,
			Repository:  p.Repository,
			Description: p.Description,
			Version:     p.Version,
			Link:        s.pages.Links().Link(p.Title),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")

	projects, err := s.pages.Loader().Load(r.Context())
	if err != nil {
		status := s.logFailure(r, "load manifest", err)
		writeError(w, status, clientMessage(err, status))
		return
	}
	p, err := site.Select(projects, title)
	if err != nil {
		status := errorStatus(err)
		writeError(w, status, clientMessage(err, status))
		return
	}
	writeJSON(w, http.StatusOK, projectOut{
		Title:       p.Title,
		Repository:  p.Repository,
		Description: p.Description,
		Version:     p.Version,
		Link:        s.pages.Links().Link(p.Title),
	})
}

// errorStatus maps render errors to HTTP status codes.
func errorStatus(err error) int {
	var (
		loadErr     *site.LoadError
		notFoundErr *site.NotFoundError
	)
	switch {
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &loadErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage is the error text sent in a response. Only a not-found
// error, which names nothing but the requested title, is passed through;
// everything else is reduced to the status text and left to the log.
func clientMessage(err error, status int) string {
	var notFoundErr *site.NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr.Error()
	}
	return http.StatusText(status)
}

// logFailure logs err with the request and returns its HTTP status.
func (s *Server) logFailure(r *http.Request, msg string, err error) int {
	status := errorStatus(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	if status != http.StatusNotFound {
		s.logger.Log(r.Context(), level, msg,
			"url", r.URL.RequestURI(),
			"status", status,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
