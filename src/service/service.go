// Package service implements the optional HTTP side service of a node.
//
// The service is read-only. It exposes:
//
//  /stats    JSON snapshot of the node and its agent
//  /metrics  prometheus metrics of the engine
package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

// StatsProvider is implemented by *node.Node.
type StatsProvider interface {
	Stats() map[string]string
}

// Service serves the side API on its own ServeMux, so several nodes in one
// process do not collide.
type Service struct {
	sync.Mutex

	bindAddress string
	stats       StatsProvider
	metrics     http.Handler
	mux         *http.ServeMux
	server      *http.Server
	logger      *logrus.Entry
}

// NewService creates a Service. metrics may be nil, in which case /metrics is
// not registered.
func NewService(bindAddress string, stats StatsProvider, metrics http.Handler, logger *logrus.Entry) *Service {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	service := Service{
		bindAddress: bindAddress,
		stats:       stats,
		metrics:     metrics,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	service.server = &http.Server{
		Addr:    bindAddress,
		Handler: service.mux,
	}

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the ServeMux of the service.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call. It returns nil once
// Close has been called, including when Close ran first.
func (s *Service) Serve() error {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	if err != nil {
		s.logger.WithError(err).Error("Serving API")
	}
	return err
}

// Close stops the server. A later call to Serve returns immediately.
func (s *Service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// GetStats writes the node stats as a JSON object.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.stats.Stats()

	w.Header().Set("Content-Type", "application/json")

	jh := new(codec.JsonHandle)
	jh.Canonical = true

	if err := codec.NewEncoder(w, jh).Encode(stats); err != nil {
		s.logger.WithError(err).Error("Encoding stats")
	}
}
