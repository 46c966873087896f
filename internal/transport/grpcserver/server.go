// grpcserver поднимает служебный gRPC-сервер со стандартным health-сервисом.
// Бизнес-методы доступны только через REST.
package grpcserver

import (
	"log/slog"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server — gRPC-сервер и его health-сервис.
type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
}

// New собирает сервер с цепочкой Recover -> Logging -> Prometheus.
// reflection регистрируется только при withReflection.
func New(log *slog.Logger, reg prometheus.Registerer, withReflection bool) *Server {
	m := grpc_prometheus.NewServerMetrics()
	m.EnableHandlingTimeHistogram()
	if reg != nil {
		reg.MustRegister(m)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			UnaryRecover(log),
			UnaryLogging(log),
			m.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			m.StreamServerInterceptor(),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	if withReflection {
		reflection.Register(srv)
	}

	m.InitializeMetrics(srv)

	return &Server{GRPC: srv, Health: hs}
}

// SetServing переключает общий статус health-сервиса.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}

	s.Health.SetServingStatus("", st)
}
