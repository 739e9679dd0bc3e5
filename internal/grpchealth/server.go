// Package grpchealth serves grpc.health.v1.Health for the store.
package grpchealth

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Service implements the standard gRPC health protocol. Readiness is
// delegated to a callback so the store decides what "serving" means
// (typically: block loading finished).
type Service struct {
	grpc_health_v1.UnimplementedHealthServer

	getStatus func() bool
	interval  time.Duration
}

// Register adds the health service to an existing gRPC server. The
// getStatus function is called on each Check or Watch tick to determine
// whether the store is healthy (SERVING) or not (NOT_SERVING).
func Register(s grpc.ServiceRegistrar, getStatus func() bool) *Service {
	svc := &Service{
		getStatus: getStatus,
		interval:  5 * time.Second,
	}
	grpc_health_v1.RegisterHealthServer(s, svc)
	return svc
}

// Check implements grpc_health_v1.HealthServer.
func (s *Service) Check(_ context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: s.currentStatus()}, nil
}

// Watch implements grpc_health_v1.HealthServer. It sends the current
// status immediately and then streams every status change.
func (s *Service) Watch(_ *grpc_health_v1.HealthCheckRequest, stream grpc.ServerStreamingServer[grpc_health_v1.HealthCheckResponse]) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	current := s.currentStatus()
	if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: current}); err != nil {
		return err
	}
	lastStatus := current

	for {
		select {
		case <-ticker.C:
			current = s.currentStatus()
			if current != lastStatus {
				if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: current}); err != nil {
					return err
				}
				lastStatus = current
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

func (s *Service) currentStatus() grpc_health_v1.HealthCheckResponse_ServingStatus {
	if s.getStatus() {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}
