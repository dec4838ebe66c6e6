package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hpungsan/internmap/internal/geo"
	"github.com/hpungsan/internmap/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures NewServer.
type Options struct {
	Version string
	Bind    string
	Port    int
	// Geo backs /api/geo/search. Nil disables the endpoint.
	Geo    *geo.Service
	Logger *slog.Logger
}

// NewServer creates and configures the HTTP server for the internmap web UI and API.
func NewServer(session *ops.Session, opts Options) *http.Server {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("failed to create template sub-FS: %v", err))
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static sub-FS: %v", err))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	h := &Handlers{
		session:  session,
		renderer: NewRenderer(templateSub, opts.Version, logger),
		logger:   logger,
	}
	if opts.Geo != nil {
		h.searches = newSearchSessions(opts.Geo, DefaultSearchSessions, SearchSessionTTL)
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/profiles", http.StatusFound)
	})
	mux.HandleFunc("GET /profiles", h.HandleList)
	mux.HandleFunc("GET /profiles/{id}", h.HandleDetail)

	mux.HandleFunc("GET /api/profiles", h.HandleAPIList)
	mux.HandleFunc("GET /api/profiles/{id}", h.HandleAPIGet)
	mux.HandleFunc("POST /api/profiles", h.HandleAPISubmit)
	mux.HandleFunc("DELETE /api/profiles/{id}", h.HandleAPIDelete)
	mux.HandleFunc("POST /api/profiles/import", h.HandleAPIImport)
	mux.HandleFunc("GET /api/geo/search", h.HandleGeoSearch)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler:           metricsMiddleware(securityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("internmap UI running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
