package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
)

type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver                string `env:"STORE_DRIVER" envDefault:"firestore"`
	SeedFile                   string `env:"SEED_FILE"`
	FirebaseProject            string `env:"FIREBASE_PROJECT_ID"`
	FirebaseServiceAccountJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`
	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`

	AuthProvider string        `env:"AUTH_PROVIDER" envDefault:"firebase"`
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"your-secret-key"`
	JWTExpiry    time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	RedisURL         string   `env:"REDIS_URL"`
	WSAllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	ChatSendRatePerMinute int `env:"CHAT_SEND_RATE_PER_MINUTE" envDefault:"30"`
	ChatSendBurst         int `env:"CHAT_SEND_BURST" envDefault:"10"`
	HTTPRatePerMinute     int `env:"HTTP_RATE_PER_MINUTE" envDefault:"600"`
	HTTPBurst             int `env:"HTTP_BURST" envDefault:"100"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreFirestore:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when STORE_DRIVER=%s", StoreFirestore)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.AuthProvider {
	case AuthFirebase:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when AUTH_PROVIDER=%s", AuthFirebase)
		}
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=%s", AuthJWT)
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.ChatSendRatePerMinute < 0 || c.ChatSendBurst < 0 || c.HTTPRatePerMinute < 0 || c.HTTPBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.ChatSendRatePerMinute > 0 && c.ChatSendBurst < 1 {
		return fmt.Errorf("CHAT_SEND_BURST must be at least 1 when CHAT_SEND_RATE_PER_MINUTE is set")
	}
	if c.HTTPRatePerMinute > 0 && c.HTTPBurst < 1 {
		return fmt.Errorf("HTTP_BURST must be at least 1 when HTTP_RATE_PER_MINUTE is set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UsesFirebase reports whether a Firebase app has to be initialised at startup.
func (c *Config) UsesFirebase() bool {
	return c.StoreDriver == StoreFirestore || c.AuthProvider == AuthFirebase
}
