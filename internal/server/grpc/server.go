// Package grpc serves the process health over gRPC. The store is probed
// periodically and its state is published through the standard health
// service, both for the whole server and for the "gophstore.Store" service.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const StoreService = "gophstore.Store"

// Probe checks that the store is reachable.
type Probe func(ctx context.Context) error

type GRPCServer struct {
	address    string
	logger     logging.Logger
	probe      Probe
	probeEvery time.Duration
	health     *health.Server
}

func NewGRPCServer(address string, l logging.Logger, probe Probe) *GRPCServer {
	return &GRPCServer{
		address:    address,
		logger:     l.With("module", "grpc_server"),
		probe:      probe,
		probeEvery: 10 * time.Second,
		health:     health.NewServer(),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.probeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gPRC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

// refresh runs the probe and publishes the result.
func (s *GRPCServer) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	probeCtx, cancel := context.WithTimeout(ctx, s.probeEvery)
	defer cancel()
	if err := s.probe(probeCtx); err != nil {
		s.logger.Warn(ctx, "store probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(StoreService, status)
}
