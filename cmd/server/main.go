// server runs the phone verification gRPC API.
package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	accountrepo "agrovision-auth/internal/account/repository"
	"agrovision-auth/internal/config"
	"agrovision-auth/internal/credential"
	"agrovision-auth/internal/db"
	"agrovision-auth/internal/devotp"
	devotphandler "agrovision-auth/internal/devotp/handler"
	"agrovision-auth/internal/events"
	"agrovision-auth/internal/logging"
	"agrovision-auth/internal/notify"
	"agrovision-auth/internal/otp"
	otprepo "agrovision-auth/internal/otp/repository"
	"agrovision-auth/internal/policy"
	"agrovision-auth/internal/security"
	"agrovision-auth/internal/server"
	telemetryotel "agrovision-auth/internal/telemetry/otel"
	"agrovision-auth/internal/verification/service"
)

// redisRetention keeps an expired challenge readable long enough to report it as expired.
const redisRetention = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: logging.Service,
		Insecure:    cfg.OTLPInsecure,
		Log:         log,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer shutdownWithTimeout(log, "otel", providers.Shutdown)

	var sqlDB *sql.DB
	if cfg.StoreDriver == config.DriverPostgres || cfg.OTPStoreDriver == config.DriverPostgres {
		if sqlDB, err = db.Open(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer sqlDB.Close()
	}
	var rdb *redis.Client
	if cfg.OTPStoreDriver == config.DriverRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	accounts, credentials := accountStores(cfg, sqlDB)
	otps := otp.NewStore(challengeRepo(cfg, sqlDB, rdb), cfg.OTPLifetime())

	notifier, devStore := buildNotifier(cfg, log)
	reissue, err := policy.NewReissuePolicy(ctx, cfg.OTPReissuePolicy)
	if err != nil {
		return fmt.Errorf("reissue policy: %w", err)
	}
	pub, err := buildPublisher(cfg, providers)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	defer func() {
		time.Sleep(events.ShutdownDrainDuration)
		if err := pub.Close(); err != nil {
			log.WithError(err).Warn("events close")
		}
	}()
	tokens, err := tokenProvider(cfg, log)
	if err != nil {
		return fmt.Errorf("jwt keys: %w", err)
	}

	svc := service.NewVerificationService(accounts, credentials, credential.NewHasher(cfg.BcryptCost), otps, notifier,
		service.WithReissuePolicy(reissue),
		service.WithPublisher(pub),
		service.WithLogger(log.WithField("component", "verification")),
	)

	deps := server.Deps{
		Verification:        svc,
		Tokens:              tokens,
		HealthPolicyChecker: reissue,
		Log:                 log,
	}
	switch {
	case sqlDB != nil:
		deps.HealthPinger = sqlDB
	case rdb != nil:
		deps.HealthPinger = redisPinger{rdb}
	}
	if devStore != nil {
		deps.DevOTPHandler = devotphandler.NewServer(devStore)
		log.Warn("dev OTP mode enabled: codes are readable through DevService.GetOTP")
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(server.UnaryInterceptors(tokens, pub, log)...),
	)
	server.RegisterServices(s, deps)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":      cfg.GRPCAddr,
			"store":     cfg.StoreDriver,
			"otp_store": cfg.OTPStoreDriver,
			"notifier":  cfg.Notifier,
			"events":    cfg.EventsDriver,
			"reissue":   reissue.Name(),
		}).Info("gRPC server listening")
		errc <- s.Serve(lis)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down gRPC server")
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		log.Warn("graceful stop timed out, forcing")
		s.Stop()
	}
	log.Info("gRPC server stopped")
	return nil
}

func accountStores(cfg *config.Config, sqlDB *sql.DB) (service.AccountRepo, service.CredentialRepo) {
	if cfg.StoreDriver == config.DriverPostgres {
		return accountrepo.NewPostgresRepository(sqlDB), credential.NewPostgresRepository(sqlDB)
	}
	return accountrepo.NewMemoryRepository(), credential.NewMemoryRepository()
}

func challengeRepo(cfg *config.Config, sqlDB *sql.DB, rdb *redis.Client) otprepo.Repository {
	switch cfg.OTPStoreDriver {
	case config.DriverPostgres:
		return otprepo.NewPostgresRepository(sqlDB)
	case config.DriverRedis:
		return otprepo.NewRedisRepository(rdb, redisRetention)
	default:
		return otprepo.NewMemoryRepository()
	}
}

// buildNotifier returns the SMS notifier, wrapped so codes are also kept for DevService when
// dev OTP mode is on. The dev store is nil otherwise.
func buildNotifier(cfg *config.Config, log logrus.FieldLogger) (notify.Notifier, devotp.Store) {
	var n notify.Notifier
	if cfg.Notifier == config.NotifierSMSLocal {
		n = notify.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	} else {
		n = notify.NewLogNotifier(log.WithField("component", "notifier"))
	}
	if !cfg.DevOTPEnabled {
		return n, nil
	}
	store := devotp.NewMemoryStore()
	return notify.NewDevOTPNotifier(n, store, cfg.OTPLifetime()), store
}

func buildPublisher(cfg *config.Config, providers *telemetryotel.Providers) (events.Publisher, error) {
	fan := events.Fanout{events.NewOTelPublisher(providers.LoggerProvider)}
	switch cfg.EventsDriver {
	case config.EventsKafka:
		fan = append(fan, events.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.EventsKafkaTopic))
	case config.EventsNSQ:
		p, err := events.NewNSQPublisher(cfg.NSQDAddr, cfg.EventsNSQTopic)
		if err != nil {
			return nil, err
		}
		fan = append(fan, p)
	}
	return fan, nil
}

// tokenProvider loads the configured signing key. Outside production a missing key is replaced
// by a fresh P-256 key, so tokens do not survive a restart.
func tokenProvider(cfg *config.Config, log logrus.FieldLogger) (*security.TokenProvider, error) {
	if cfg.JWTPrivateKey == "" {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		log.Warn("JWT_PRIVATE_KEY not set; using an ephemeral signing key")
		return security.NewTokenProvider(key, key.Public(), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()), nil
	}
	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return nil, err
	}
	return security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()), nil
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.c.Ping(ctx).Err() }

func shutdownWithTimeout(log logrus.FieldLogger, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.WithError(err).Warnf("%s shutdown", what)
	}
}
