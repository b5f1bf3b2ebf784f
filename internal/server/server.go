package server

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer builds a server with the estate service, health checks and
// reflection registered. The health server is returned so callers can flip
// it to NOT_SERVING during shutdown.
func NewGRPCServer(svc EstateServiceServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryInterceptor(logger))}, opts...)
	grpcServer := grpc.NewServer(opts...)

	RegisterEstateServiceServer(grpcServer, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	// Set the service as serving (empty string means overall server health)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Reflection for grpcurl
	reflection.Register(grpcServer)
	return grpcServer, hs
}
