package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"

	"github.com/GeoBile/monad/internal/metrics"
	"github.com/GeoBile/monad/internal/traveltime"
)

// Options configures HTTP server
type Options struct {
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Logger         *slog.Logger
}

// Server exposes travel time queries over HTTP
type Server struct {
	service *traveltime.Service
	router  chi.Router
	opts    Options
	logger  *slog.Logger
}

// New creates server and registers routes
func New(service *traveltime.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	srv := &Server{
		service: service,
		opts:    opts,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", srv.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/travel-time", srv.travelTime)
		r.Get("/stops", srv.stops)
		r.Get("/stops/travel-time", srv.stopTravelTime)
		r.Get("/path", srv.path)
		r.Get("/network", srv.network)
	})

	srv.router = r
	return srv
}

// Handler returns root HTTP handler
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// ListenAndServe serves HTTP until context is canceled, then shuts server down gracefully
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  srv.opts.ReadTimeout,
		WriteTimeout: srv.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("API server starting", "addr", addr, "strategy", srv.service.Strategy())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "Server failed")
	case <-ctx.Done():
		srv.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
