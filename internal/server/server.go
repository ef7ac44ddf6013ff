package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matheuskafuri/quill/internal/post"
	"github.com/matheuskafuri/quill/internal/store"
)

// Store is the subset of the post store the API reads and writes.
type Store interface {
	Posts(opts store.QueryOpts) ([]post.Post, error)
	PostBySlug(slug string) (post.Post, error)
	IncrementViews(id string) (int, error)
	Categories() ([]post.Category, error)
	Tags() ([]post.Tag, error)
	Comments(q store.CommentQuery) ([]post.Comment, error)
	AddComment(c post.Comment) (post.Comment, error)
}

type Options struct {
	Store        Store
	Logger       *slog.Logger
	PageSize     int
	RelatedCount int
	CORSOrigins  []string
	Version      string
	// Now overrides the clock used for recency scoring.
	Now func() time.Time
}

// Server serves the public JSON API.
type Server struct {
	store        Store
	logger       *slog.Logger
	pageSize     int
	relatedCount int
	origins      []string
	version      string
	now          func() time.Time
	router       *mux.Router
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	s := &Server{
		store:        opts.Store,
		logger:       opts.Logger,
		pageSize:     opts.PageSize,
		relatedCount: opts.RelatedCount,
		origins:      opts.CORSOrigins,
		version:      opts.Version,
		now:          opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.relatedCount <= 0 {
		s.relatedCount = 3
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.corsMiddleware)

	api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	api.HandleFunc("/posts", s.listPostsHandler).Methods(http.MethodGet)
	api.HandleFunc("/posts/{slug}", s.getPostHandler).Methods(http.MethodGet)
	api.HandleFunc("/posts/{slug}/related", s.relatedHandler).Methods(http.MethodGet)
	api.HandleFunc("/posts/{slug}/comments", s.listCommentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/posts/{slug}/comments", s.createCommentHandler).Methods(http.MethodPost)

	api.HandleFunc("/sidebar", s.sidebarHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.categoriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/tags", s.tagsHandler).Methods(http.MethodGet)

	// Preflight requests for any API path.
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
