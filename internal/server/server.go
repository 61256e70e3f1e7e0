// Package server exposes the editor over HTTP.
//
// Every request is translated into one editor operation, so the HTTP API
// obeys the same rules as the terminal editor: one workspace, one selection
// per document, at most one AI request at a time. Images travel as data URLs
// in JSON bodies; exports are returned as raw image bytes.
//
// Errors are JSON objects {"error": "...", "code": "NO_SELECTION"} with the
// HTTP status derived from the code.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/session"
)

const (
	// DefaultMaxBodySize bounds request bodies. Two base64 photos for a
	// merge must fit.
	DefaultMaxBodySize = 64 << 20

	shutdownTimeout = 10 * time.Second
)

// Server serves the editor API.
type Server struct {
	ed       *editor.Editor
	sessions session.Store
	logger   *log.Logger
	maxBody  int64
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithSessions enables the /sessions endpoints.
func WithSessions(s session.Store) Option {
	return func(srv *Server) { srv.sessions = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(srv *Server) { srv.maxBody = n }
}

// New creates a server for ed.
func New(ed *editor.Editor, opts ...Option) *Server {
	s := &Server{
		ed:      ed,
		logger:  log.New(io.Discard),
		maxBody: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.CleanPath)
	r.Use(s.requestLogger)
	r.Use(s.limitBody)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/presets", s.getPresets)
	r.Get("/bitmaps/{ref}", s.getBitmap)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.listDocuments)
		r.Post("/", s.createDocument)
		r.Route("/{docID}", func(r chi.Router) {
			r.Get("/", s.getDocument)
			r.Patch("/", s.renameDocument)
			r.Delete("/", s.closeDocument)
			r.Post("/activate", s.activateDocument)
			r.Post("/select", s.selectLayer)
			r.Post("/click", s.click)
			r.Post("/layers", s.uploadLayer)
			r.Route("/layers/{layerID}", func(r chi.Router) {
				r.Patch("/", s.patchLayer)
				r.Delete("/", s.deleteLayer)
				r.Post("/order", s.reorderLayer)
				r.Post("/drag", s.dragLayer)
				r.Post("/transform", s.transformLayer)
			})
		})
	})

	r.Get("/ui", s.getUI)
	r.Put("/ui/tool", s.setTool)

	r.Post("/ai/{mode}", s.runAI)
	r.Put("/merge/slots/{slot}", s.setMergeSlot)
	r.Delete("/merge/slots/{slot}", s.clearMergeSlot)
	r.Post("/merge", s.merge)

	r.Get("/export", s.export)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/{sessionID}", s.saveSession)
		r.Post("/{sessionID}/restore", s.restoreSession)
	})

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		}
		next.ServeHTTP(w, r)
	})
}
