package interceptors

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor that writes one access log line per RPC.
// Server-side failures (Internal, Unavailable, Unknown) log at error level; everything else at info.
func LoggingUnary(log logrus.FieldLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		entry := log.WithFields(logrus.Fields{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   ClientIP(ctx),
		})
		if accountID, ok := GetAccountID(ctx); ok {
			entry = entry.WithField("account_id", accountID)
		}
		switch code {
		case codes.Internal, codes.Unavailable, codes.Unknown:
			entry.WithError(err).Error("rpc failed")
		default:
			entry.Info("rpc")
		}
		return resp, err
	}
}
