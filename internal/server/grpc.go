package server

import (
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	verificationv1 "agrovision-auth/internal/api/verification/v1"
	"agrovision-auth/internal/events"
	healthhandler "agrovision-auth/internal/health/handler"
	"agrovision-auth/internal/server/interceptors"
	verificationhandler "agrovision-auth/internal/verification/handler"
	"agrovision-auth/internal/verification/service"
)

// Deps holds optional service dependencies for gRPC handlers.
type Deps struct {
	// Verification is the signup/login/OTP service. If nil, VerificationService RPCs return Unimplemented.
	Verification *service.VerificationService
	// Tokens issues access tokens after login and verification. If nil, responses carry no token.
	Tokens verificationhandler.TokenIssuer
	// HealthPinger is used by the health service for readiness (e.g. *sql.DB). If nil, Check skips the DB ping.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (the re-issue policy). If nil, Check skips it.
	HealthPolicyChecker healthhandler.PolicyChecker
	// DevOTPHandler is the dev-only DevService (GetOTP). If nil, DevService is not registered.
	DevOTPHandler verificationv1.DevServiceServer
	// Log is used by the health service. Defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// RegisterServices registers every gRPC service with the given server.
//
// Service → handler mapping:
//   - otpauth.verification.v1.VerificationService → internal/verification/handler
//   - otpauth.verification.v1.DevService          → internal/devotp/handler (dev only)
//   - grpc.health.v1.Health                       → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	verificationv1.RegisterVerificationServiceServer(s, verificationhandler.NewServer(deps.Verification, deps.Tokens))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker, deps.Log,
		verificationv1.VerificationServiceName))
	if deps.DevOTPHandler != nil {
		verificationv1.RegisterDevServiceServer(s, deps.DevOTPHandler)
	}
}

// PublicMethods returns the full method names callable without a bearer token.
func PublicMethods() map[string]bool {
	return map[string]bool{
		verificationv1.VerificationService_Signup_FullMethodName:    true,
		verificationv1.VerificationService_Login_FullMethodName:     true,
		verificationv1.VerificationService_VerifyOTP_FullMethodName: true,
		verificationv1.VerificationService_ResendOTP_FullMethodName: true,
		verificationv1.DevService_GetOTP_FullMethodName:             true,
		healthpb.Health_Check_FullMethodName:                        true,
		healthpb.Health_Watch_FullMethodName:                        true,
	}
}

// QuietMethods are excluded from access logs and rpc.request events.
func QuietMethods() map[string]bool {
	return map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
		healthpb.Health_Watch_FullMethodName: true,
	}
}

// UnaryInterceptors returns the server's interceptor chain. The access log is outermost so rejected calls are logged too.
func UnaryInterceptors(tokens interceptors.AccessValidator, pub events.Publisher, log logrus.FieldLogger) []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		interceptors.LoggingUnary(log, QuietMethods()),
		interceptors.AuthUnary(tokens, PublicMethods()),
		interceptors.TelemetryUnary(pub, log, QuietMethods()),
	}
}
