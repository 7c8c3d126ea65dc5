package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"relaychain/api/handlers"
)

// Server represents the HTTP API server
type Server struct {
	node handlers.Node
	mux  *http.ServeMux
	srv  *http.Server
	log  *logrus.Entry
}

// NewServer creates an API server for node. Metrics from gatherer are
// served on /metrics when it is not nil.
func NewServer(node handlers.Node, gatherer prometheus.Gatherer, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	server := &Server{
		node: node,
		mux:  http.NewServeMux(),
		log:  log.WithField("component", "api"),
	}
	server.setupRoutes(gatherer)
	return server
}

// setupRoutes configures all HTTP endpoints
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.mux.HandleFunc("/api/chain", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleChain(w, r, s.node)
	})
	s.mux.HandleFunc("/api/chain/height", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleChainHeight(w, r, s.node)
	})
	s.mux.HandleFunc("/api/chain/head", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleChainHead(w, r, s.node)
	})
	s.mux.HandleFunc("/api/blocks/", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleBlock(w, r, s.node)
	})

	s.mux.HandleFunc("/api/balance", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleBalance(w, r, s.node)
	})
	s.mux.HandleFunc("/api/balance/", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleBalance(w, r, s.node)
	})

	s.mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleTransactions(w, r, s.node)
	})
	s.mux.HandleFunc("/api/pending", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.HandleTransactions(w, r, s.node)
	})

	if gatherer != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

// ServeHTTP lets the server be mounted or tested without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve accepts connections on l until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	s.log.Infof("Starting HTTP API server on %s", l.Addr())
	err := s.srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}
