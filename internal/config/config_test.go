package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		GRPCAddr:       ":8080",
		Env:            "development",
		StoreDriver:    DriverMemory,
		OTPStoreDriver: DriverMemory,
		OTPTTL:         "5m",
		BcryptCost:     12,
		Notifier:       NotifierLog,
		EventsDriver:   EventsNone,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GRPC_ADDR", ":8080")
	t.Setenv("APP_ENV", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("OTP_STORE_DRIVER", "")
	t.Setenv("NOTIFIER", "")
	t.Setenv("EVENTS_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.OTPLifetime() != 5*time.Minute {
		t.Errorf("OTPLifetime = %v, want 5m", cfg.OTPLifetime())
	}
	if cfg.OTPReissuePolicy != "always" {
		t.Errorf("OTPReissuePolicy = %q, want always", cfg.OTPReissuePolicy)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.JWTIssuer != "agrovision-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "agrovision-auth")
	}
	if cfg.DevOTPEnabled {
		t.Error("DevOTPEnabled should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	t.Setenv("GRPC_ADDR", ":9090")
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("OTP_STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("NOTIFIER", "log")
	t.Setenv("EVENTS_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", " broker-1:9092, ,broker-2:9092")
	t.Setenv("OTP_REISSUE_POLICY", "when_expired")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("OTP_TTL", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.OTPStoreDriver != DriverRedis || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("otp store = %q at %q", cfg.OTPStoreDriver, cfg.RedisAddr)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.OTPLifetime() != 2*time.Minute {
		t.Errorf("OTPLifetime = %v, want 2m", cfg.OTPLifetime())
	}
	brokers := cfg.KafkaBrokersList()
	if len(brokers) != 2 || brokers[0] != "broker-1:9092" || brokers[1] != "broker-2:9092" {
		t.Errorf("KafkaBrokersList = %v", brokers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty addr", func(c *Config) { c.GRPCAddr = "" }, "GRPC_ADDR"},
		{"bcrypt too low", func(c *Config) { c.BcryptCost = 3 }, "BCRYPT_COST"},
		{"bcrypt too high", func(c *Config) { c.BcryptCost = 32 }, "BCRYPT_COST"},
		{"unknown store", func(c *Config) { c.StoreDriver = "mongo" }, "STORE_DRIVER"},
		{"unknown otp store", func(c *Config) { c.OTPStoreDriver = "etcd" }, "OTP_STORE_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = DriverPostgres }, "DATABASE_URL"},
		{"postgres otp without dsn", func(c *Config) { c.OTPStoreDriver = DriverPostgres }, "DATABASE_URL"},
		{"postgres with dsn", func(c *Config) {
			c.StoreDriver = DriverPostgres
			c.DatabaseURL = "postgres://localhost/otpauth"
		}, ""},
		{"redis without addr", func(c *Config) { c.OTPStoreDriver = DriverRedis }, "REDIS_ADDR"},
		{"log notifier in production", func(c *Config) {
			c.Env = EnvProduction
			c.JWTPrivateKey = "key.pem"
		}, "NOTIFIER=log"},
		{"smslocal without key", func(c *Config) { c.Notifier = NotifierSMSLocal }, "SMS_LOCAL_API_KEY"},
		{"unknown notifier", func(c *Config) { c.Notifier = "pigeon" }, "NOTIFIER"},
		{"dev otp in production", func(c *Config) {
			c.Env = EnvProduction
			c.Notifier = NotifierSMSLocal
			c.SMSLocalAPIKey = "k"
			c.JWTPrivateKey = "key.pem"
			c.DevOTPEnabled = true
		}, "DEV_OTP_ENABLED"},
		{"production without jwt key", func(c *Config) {
			c.Env = EnvProduction
			c.Notifier = NotifierSMSLocal
			c.SMSLocalAPIKey = "k"
		}, "JWT_PRIVATE_KEY"},
		{"kafka without brokers", func(c *Config) { c.EventsDriver = EventsKafka }, "KAFKA_BROKERS"},
		{"nsq without addr", func(c *Config) { c.EventsDriver = EventsNSQ }, "NSQD_ADDR"},
		{"unknown events", func(c *Config) { c.EventsDriver = "sqs" }, "EVENTS_DRIVER"},
		{"bad otp ttl", func(c *Config) { c.OTPTTL = "five minutes" }, "OTP_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate: expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAccessTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"", time.Hour},
		{"bogus", time.Hour},
		{"-1m", time.Hour},
	}
	for _, tt := range tests {
		c := &Config{JWTAccessTTL: tt.in}
		if got := c.AccessTTL(); got != tt.want {
			t.Errorf("AccessTTL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKafkaBrokersList_Nil(t *testing.T) {
	var c *Config
	if got := c.KafkaBrokersList(); got != nil {
		t.Errorf("nil config brokers = %v, want nil", got)
	}
}
