// Package httpapi is the master's HTTP surface: job intake, the worker
// pull/submit/heartbeat protocol, client polling, and a live websocket
// grid stream. Grounded on concurrentapigateway.go's setupServer/Start/
// Stop shape (http.ServeMux + ordered middleware + ListenAndServe/
// Shutdown(ctx)).
package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/aggregator"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/dispatcher"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

// Server is the master's HTTP process: intake, dispatch, and query
// handlers wired to a shared Registry/Dispatcher/Aggregator.
type Server struct {
	cfg  Config
	reg  *registry.Registry
	disp *dispatcher.Dispatcher
	agg  *aggregator.Aggregator

	server *http.Server

	wsUpgrader  websocket.Upgrader
	connMu      sync.Mutex
	connections map[string]map[*websocket.Conn]bool

	stopSweep   func()
	stopCombine func()
}

// New wires a Server to the given registry, dispatcher, and aggregator.
func New(cfg Config, reg *registry.Registry, disp *dispatcher.Dispatcher, agg *aggregator.Aggregator) *Server {
	s := &Server{
		cfg:  cfg,
		reg:  reg,
		disp: disp,
		agg:  agg,
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connections: make(map[string]map[*websocket.Conn]bool),
	}
	s.setupServer()
	return s
}

func (s *Server) setupServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /solve", s.handleSolve)
	mux.HandleFunc("GET /queue", s.handleQueue)
	mux.HandleFunc("POST /result", s.handleResult)
	mux.HandleFunc("POST /heartbeat", s.handleHeartbeat)
	mux.HandleFunc("GET /grid/{jobId}", s.handleGrid)
	mux.HandleFunc("GET /result/{jobId}", s.handleResultByID)
	mux.HandleFunc("GET /FinalsolvedResults", s.handleFinalSolvedResults)
	mux.HandleFunc("GET /totalJobs", s.handleTotalJobs)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /ws/grid/{jobId}", s.handleGridWebSocket)

	var handler http.Handler = mux
	handler = s.withLogging(handler)
	handler = s.withRecover(handler)

	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}

// Start runs the sweep/combine background loops and blocks serving
// HTTP until Stop is called.
func (s *Server) Start() error {
	s.stopSweep = s.disp.StartSweep(s.cfg.SweepInterval)
	s.stopCombine = s.agg.StartCombineLoop(s.cfg.CombineInterval)

	go s.startResultSweep()

	log.Printf("[httpapi] master listening on %s", s.cfg.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down and stops the dead-worker sweep
// and combine loops. The result-cache sweep goroutine started by Start
// has no stop signal and keeps running.
func (s *Server) Stop(ctx context.Context) error {
	if s.stopSweep != nil {
		s.stopSweep()
	}
	if s.stopCombine != nil {
		s.stopCombine()
	}
	return s.server.Shutdown(ctx)
}

// startResultSweep periodically evicts terminal jobs past the
// result-cache TTL (spec.md §5).
func (s *Server) startResultSweep() {
	ticker := time.NewTicker(s.cfg.ResultTTL / 4)
	defer ticker.Stop()
	for range ticker.C {
		if n := s.reg.SweepExpiredResults(s.cfg.ResultTTL); n > 0 {
			log.Printf("[httpapi] result-cache sweep evicted %d job(s)", n)
		}
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[httpapi] %s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[httpapi] panic handling %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
