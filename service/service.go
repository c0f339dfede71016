// Package service hosts the side-car HTTP servers: health checks,
// Prometheus metrics and the read-only live progress endpoint.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/uiledger/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"

	ProgressHost = "0.0.0.0"
	ProgressPort = "8090"
)

type Service struct {
	Healthz  *HealthzServer
	Metrics  *MetricsServer
	Progress *ProgressServer
}

// New creates the side-car service. processPath and recordsPath are the
// ledger's document paths, served read-only by the progress endpoint.
func New(processPath, recordsPath string) *Service {
	s := &Service{
		Healthz:  &HealthzServer{},
		Metrics:  &MetricsServer{},
		Progress: NewProgressServer(processPath, recordsPath),
	}
	return s
}

func (s *Service) Start(ctx context.Context) {
	log.Info("service starting")

	go func() {
		addr := net.JoinHostPort(HealthzHost, HealthzPort)
		log.Info("starting healthz server", "addr", addr)
		if err := s.Healthz.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting healthz server", "err", err)
			metrics.RecordError("error starting healthz server")
		}
	}()

	go func() {
		addr := net.JoinHostPort(MetricsHost, MetricsPort)
		log.Info("starting metrics server", "addr", addr)
		if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting metrics server", "err", err)
			metrics.RecordError("error starting metrics server")
		}
	}()

	go func() {
		addr := net.JoinHostPort(ProgressHost, ProgressPort)
		log.Info("starting progress server", "addr", addr)
		if err := s.Progress.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting progress server", "err", err)
			metrics.RecordError("error starting progress server")
		}
	}()

	log.Info("service started")
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	log.Info("metrics stopped")

	_ = s.Progress.Shutdown()
	log.Info("progress stopped")

	log.Info("service stopped")
}
