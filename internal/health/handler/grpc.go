// Package handler implements the standard grpc.health.v1 Health service with readiness checks.
package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const checkTimeout = 2 * time.Second

// Pinger reports database reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker reports whether the re-issue policy still evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server answers Check for the overall server ("") and for each registered service name.
// Any failed dependency reports NOT_SERVING rather than an RPC error.
type Server struct {
	healthpb.UnimplementedHealthServer
	pinger   Pinger
	policy   PolicyChecker
	services map[string]bool
	log      logrus.FieldLogger
}

// NewServer returns a Health server. pinger and policy may be nil, in which case that check is skipped.
func NewServer(pinger Pinger, policy PolicyChecker, log logrus.FieldLogger, services ...string) *Server {
	known := map[string]bool{"": true}
	for _, s := range services {
		known[s] = true
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{pinger: pinger, policy: policy, services: known, log: log}
}

func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if !s.services[req.GetService()] {
		return nil, status.Error(codes.NotFound, "unknown service")
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			s.log.WithError(err).Warn("health: database ping failed")
			return notServing(), nil
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			s.log.WithError(err).Warn("health: policy check failed")
			return notServing(), nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func notServing() *healthpb.HealthCheckResponse {
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
}
