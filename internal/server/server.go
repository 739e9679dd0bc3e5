// Package server wires the Store service, health checking and the metrics
// endpoint into runnable listeners.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/monitoring-tools/thanos/config"
	"github.com/monitoring-tools/thanos/internal/grpchealth"
	"github.com/monitoring-tools/thanos/internal/logging"
	"github.com/monitoring-tools/thanos/internal/metrics"
	"github.com/monitoring-tools/thanos/internal/store"
	"github.com/monitoring-tools/thanos/internal/store/storepb"
)

// Server runs the gRPC listener and, when enabled, the metrics HTTP listener.
type Server struct {
	cfg config.Config

	grpcServer *grpc.Server
	httpServer *http.Server

	ready func() bool
}

// New assembles a Server from an already populated store service.
func New(cfg config.Config, storeSrv *store.Server, m *metrics.Metrics, ready func() bool) *Server {
	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.Server.KeepaliveTime,
			Timeout: cfg.Server.KeepaliveTimeout,
		}),
		grpc.ChainUnaryInterceptor(unaryLogging, unaryRecovery),
		grpc.ChainStreamInterceptor(streamLogging, streamRecovery),
	)

	storepb.RegisterStoreServer(grpcServer, storeSrv)
	grpchealth.Register(grpcServer, ready)

	s := &Server{
		cfg:        cfg,
		grpcServer: grpcServer,
		ready:      ready,
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.HandleFunc("/-/ready", s.readyHandler)
		mux.HandleFunc("/-/healthy", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		s.httpServer = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return s
}

func (s *Server) readyHandler(w http.ResponseWriter, _ *http.Request) {
	if s.ready() {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Error(w, "store not ready", http.StatusServiceUnavailable)
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured grace period.
func (s *Server) Run(ctx context.Context) error {
	grpcLis, err := net.Listen("tcp", s.cfg.Server.GRPCAddress)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("gRPC server listening", zap.String("address", grpcLis.Addr().String()))
		return s.grpcServer.Serve(grpcLis)
	})

	if s.httpServer != nil {
		g.Go(func() error {
			logging.Info("metrics server listening", zap.String("address", s.httpServer.Addr))
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.shutdown()
		return nil
	})

	if err := g.Wait(); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func (s *Server) shutdown() {
	logging.Info("shutting down", zap.Duration("grace_period", s.cfg.Server.GracePeriod))

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.cfg.Server.GracePeriod):
		logging.Warn("grace period exceeded, forcing stop")
		s.grpcServer.Stop()
	}

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}
}
