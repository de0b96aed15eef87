// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Notifiers and event drivers.
const (
	NotifierLog      = "log"
	NotifierSMSLocal = "smslocal"

	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsNSQ   = "nsq"
)

// EnvProduction is the APP_ENV value that disables development-only features.
const EnvProduction = "production"

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// DatabaseURL is the Postgres DSN. Required when either store driver is postgres, and by cmd/migrate.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// StoreDriver selects the account and credential store: memory or postgres.
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	// OTPStoreDriver selects the challenge store: memory, postgres, or redis.
	OTPStoreDriver string `mapstructure:"OTP_STORE_DRIVER"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`

	// OTPTTL is the challenge lifetime (e.g. "5m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// OTPReissuePolicy is "always", "when_expired", or a path to a .rego file.
	OTPReissuePolicy string `mapstructure:"OTP_REISSUE_POLICY"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; derived from the private key when empty.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "1h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`

	// Notifier selects OTP delivery: log (development only) or smslocal.
	Notifier        string `mapstructure:"NOTIFIER"`
	SMSLocalAPIKey  string `mapstructure:"SMS_LOCAL_API_KEY"`
	SMSLocalSender  string `mapstructure:"SMS_LOCAL_SENDER"`
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// DevOTPEnabled keeps the last code per phone in memory and registers DevService.GetOTP. Refused in production.
	DevOTPEnabled bool `mapstructure:"DEV_OTP_ENABLED"`

	// OTLPEndpoint enables OpenTelemetry export when set (e.g. localhost:4317).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// EventsDriver selects the event bus: none, kafka, or nsq.
	EventsDriver     string `mapstructure:"EVENTS_DRIVER"`
	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	NSQDAddr         string `mapstructure:"NSQD_ADDR"`
	EventsNSQTopic   string `mapstructure:"EVENTS_NSQ_TOPIC"`

	// Worker-only: Loki URL the event worker pushes to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("OTP_STORE_DRIVER", DriverMemory)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_REISSUE_POLICY", "always")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "agrovision-auth")
	v.SetDefault("JWT_AUDIENCE", "agrovision-app")
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("NOTIFIER", NotifierLog)
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://app.smslocal.in/api/smsapi")
	v.SetDefault("DEV_OTP_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("EVENTS_DRIVER", EventsNone)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "otpauth-events")
	v.SetDefault("NSQD_ADDR", "")
	v.SetDefault("EVENTS_NSQ_TOPIC", "otpauth-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "otpauth-event-worker")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.OTPStoreDriver = strings.ToLower(strings.TrimSpace(c.OTPStoreDriver))
	c.Notifier = strings.ToLower(strings.TrimSpace(c.Notifier))
	c.EventsDriver = strings.ToLower(strings.TrimSpace(c.EventsDriver))
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
}

// Validate rejects unknown drivers, drivers without an address, and development-only features in production.
func (c *Config) Validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	switch c.StoreDriver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("config: STORE_DRIVER %q must be memory or postgres", c.StoreDriver)
	}
	switch c.OTPStoreDriver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("config: OTP_STORE_DRIVER %q must be memory, postgres, or redis", c.OTPStoreDriver)
	}
	if (c.StoreDriver == DriverPostgres || c.OTPStoreDriver == DriverPostgres) && c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set for the postgres driver")
	}
	if c.OTPStoreDriver == DriverRedis && c.RedisAddr == "" {
		return errors.New("config: REDIS_ADDR must be set for the redis OTP store")
	}

	switch c.Notifier {
	case NotifierLog:
		if c.IsProduction() {
			return errors.New("config: NOTIFIER=log must not be used when APP_ENV=production")
		}
	case NotifierSMSLocal:
		if c.SMSLocalAPIKey == "" {
			return errors.New("config: SMS_LOCAL_API_KEY must be set for NOTIFIER=smslocal")
		}
	default:
		return fmt.Errorf("config: NOTIFIER %q must be log or smslocal", c.Notifier)
	}
	if c.DevOTPEnabled && c.IsProduction() {
		return errors.New("config: DEV_OTP_ENABLED must not be true when APP_ENV=production")
	}

	switch c.EventsDriver {
	case EventsNone:
	case EventsKafka:
		if len(c.KafkaBrokersList()) == 0 {
			return errors.New("config: KAFKA_BROKERS must be set for EVENTS_DRIVER=kafka")
		}
	case EventsNSQ:
		if c.NSQDAddr == "" {
			return errors.New("config: NSQD_ADDR must be set for EVENTS_DRIVER=nsq")
		}
	default:
		return fmt.Errorf("config: EVENTS_DRIVER %q must be none, kafka, or nsq", c.EventsDriver)
	}

	if _, err := time.ParseDuration(c.OTPTTL); err != nil {
		return fmt.Errorf("config: OTP_TTL: %w", err)
	}
	if c.IsProduction() && c.JWTPrivateKey == "" {
		return errors.New("config: JWT_PRIVATE_KEY must be set when APP_ENV=production")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// OTPLifetime parses OTPTTL. Returns 5m if unset or invalid.
func (c *Config) OTPLifetime() time.Duration {
	d, err := time.ParseDuration(c.OTPTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
