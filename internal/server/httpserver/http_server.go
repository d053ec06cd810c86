// Package httpserver wires the sectiond HTTP endpoints: the public
// resolution API and the admin surface (health, metrics).
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sectiond/internal/config"
	"git.home.luguber.info/inful/sectiond/internal/metrics"
	"git.home.luguber.info/inful/sectiond/internal/server/handlers"
	smw "git.home.luguber.info/inful/sectiond/internal/server/middleware"
)

const shutdownGrace = 5 * time.Second

// Options carries the handler modules and optional metrics registry.
type Options struct {
	Sections *handlers.SectionHandlers
	Health   *handlers.HealthHandlers
	Registry *prom.Registry
}

// Server manages the API and admin HTTP servers.
type Server struct {
	cfg       *config.ServerConfig
	opts      Options
	apiServer *http.Server
	admServer *http.Server
	mchain    func(http.Handler) http.Handler
}

// New constructs the HTTP server wiring.
func New(cfg *config.ServerConfig, opts Options) *Server {
	return &Server{
		cfg:    cfg,
		opts:   opts,
		mchain: smw.Chain(slog.Default()),
	}
}

// Start binds both ports and begins serving. Ports are pre-bound so a
// conflict fails fast with one aggregate error instead of partial startup.
func (s *Server) Start(ctx context.Context) error {
	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{
		{name: "api", port: s.cfg.Port},
		{name: "admin", port: s.cfg.AdminPort},
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", binds[i].port))
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("bind %s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return errors.Join(bindErrs...)
	}

	s.apiServer = &http.Server{
		Handler:           s.mchain(s.apiMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.admServer = &http.Server{
		Handler:           s.mchain(s.adminMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.serve("api", s.apiServer, binds[0].ln)
	go s.serve("admin", s.admServer, binds[1].ln)

	slog.Info("HTTP servers started", "api_port", s.cfg.Port, "admin_port", s.cfg.AdminPort)
	return nil
}

func (s *Server) serve(name string, srv *http.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server stopped unexpectedly", "server", name, "error", err)
	}
}

// Shutdown drains both servers within the grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	var errs []error
	for _, srv := range []*http.Server{s.apiServer, s.admServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) apiMux() *http.ServeMux {
	mux := http.NewServeMux()
	h := s.opts.Sections

	mux.HandleFunc("GET /api/sections/{page}", h.HandleGetSections)
	mux.Handle("PUT /api/sections/{page}/{id}",
		smw.Protect(s.cfg.AuthToken, http.HandlerFunc(h.HandleUpsertSection)))
	mux.Handle("POST /api/sections/{page}/refresh",
		smw.Protect(s.cfg.AuthToken, http.HandlerFunc(h.HandleRefreshPage)))
	mux.Handle("DELETE /api/sections/{page}/{id}",
		smw.Protect(s.cfg.AuthToken, http.HandlerFunc(h.HandleDeleteSection)))

	return mux
}

func (s *Server) adminMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.opts.Health.HandleHealth)
	if s.opts.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	return mux
}
