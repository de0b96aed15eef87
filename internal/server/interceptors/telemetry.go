package interceptors

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"agrovision-auth/internal/events"
)

// TelemetryUnary returns a unary server interceptor that publishes an rpc.request event after each RPC.
// Best-effort: publish failures are logged and do not fail the RPC. A nil publisher disables it.
// skipMethods is the set of full method names to not emit (e.g. health checks).
func TelemetryUnary(pub events.Publisher, log logrus.FieldLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if pub == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		accountID, _ := GetAccountID(ctx)
		phone, _ := GetPhone(ctx)
		e := events.New(events.TypeRPCRequest).
			WithAccount(accountID, phone).
			WithAttr("full_method", info.FullMethod).
			WithAttr("status_code", code.String()).
			WithAttr("duration_ms", strconv.FormatInt(time.Since(start).Milliseconds(), 10)).
			WithAttr("client_ip", ClientIP(ctx))
		e.Outcome = code.String()
		events.PublishAsync(pub, log, e)
		return resp, err
	}
}
