package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the backend's runtime configuration.
type Config struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	DefaultCurrency string        `env:"CURRENCY_CODE" envDefault:"IDR"`
	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"12h"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimit       int           `env:"HTTP_RATE_LIMIT" envDefault:"200"`

	// Receipt printing.
	ReceiptTemplate string `env:"RECEIPT_TEMPLATE"`
	PrinterDevice   string `env:"PRINTER_DEVICE"`
	StoreName       string `env:"STORE_NAME" envDefault:"My Store"`
	StoreAddress    string `env:"STORE_ADDRESS"`

	// SeedDefaults inserts the default users, register and sample products.
	SeedDefaults bool `env:"SEED_DEFAULTS" envDefault:"true"`
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// Till configures the terminal front-end.
type Till struct {
	BackendURL     string        `env:"TILL_BACKEND_URL" envDefault:"http://localhost:8080"`
	SessionFile    string        `env:"TILL_SESSION_FILE" envDefault:".till/session.json"`
	StoreName      string        `env:"TILL_STORE_NAME" envDefault:"My Store"`
	StoreAddress   string        `env:"TILL_STORE_ADDRESS"`
	RequestTimeout time.Duration `env:"TILL_REQUEST_TIMEOUT" envDefault:"10s"`
}

func LoadTill() (Till, error) {
	_ = godotenv.Load()

	var cfg Till
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
