// Package config loads the environment-driven application configuration.
// Every component receives its slice of the aggregate Config built once
// in main; nothing reads the environment after startup.
package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/pick3app/pick3/pkg/httpserver"
	"github.com/pick3app/pick3/pkg/logger"
	"github.com/pick3app/pick3/pkg/pg"
)

var ErrParsing = errors.New("failed to parse configuration")

// App holds the application-level settings.
type App struct {
	SecretKey string `env:"SECRET_KEY,required"`                  // SecretKey signs session cookies and magic-link tokens.
	BaseURL   string `env:"BASE_URL" envDefault:"http://localhost:8080"` // BaseURL is the externally reachable origin used in links.
}

// Stripe holds payment-processor credentials and price mapping.
type Stripe struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY,required"`
	PublishableKey string `env:"STRIPE_PUBLISHABLE_KEY"`

	PriceIDFree       string `env:"STRIPE_PRICE_ID_FREE"`
	PriceIDVIPMonthly string `env:"STRIPE_PRICE_ID_VIP_MONTHLY"`
	PriceIDVIPYearly  string `env:"STRIPE_PRICE_ID_VIP_YEARLY"`

	// WebhookSecret may be empty in development; the webhook route then
	// acknowledges events without verifying them.
	WebhookSecret   string `env:"STRIPE_WEBHOOK_SECRET"`
	PortalReturnURL string `env:"STRIPE_PORTAL_RETURN_URL"`
}

// Mailer holds the transactional email settings.
type Mailer struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	FromEmail            string `env:"MAIL_FROM,required"`
}

// Redis holds the optional shared rate-limit backend. An empty URL
// falls back to the in-process limiter store.
type Redis struct {
	URL string `env:"REDIS_URL"`
}

// Ratelimit tunes the login throttle.
type Ratelimit struct {
	LoginLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	LoginWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
}

// Config aggregates every component configuration.
type Config struct {
	App       App
	HTTP      httpserver.Config
	PG        pg.Config
	Stripe    Stripe
	Mailer    Mailer
	Redis     Redis
	Ratelimit Ratelimit
	Logger    logger.Config
}

var loadDotenv sync.Once

// Load parses the environment into the aggregate Config. A .env file in
// the working directory is merged in first when present.
func Load() (*Config, error) {
	loadDotenv.Do(func() {
		// Missing .env is fine; the environment may be set directly.
		_ = godotenv.Load()
	})

	cfg := &Config{}
	if err := parse(&cfg.App, &cfg.HTTP, &cfg.PG, &cfg.Stripe, &cfg.Mailer, &cfg.Redis, &cfg.Ratelimit, &cfg.Logger); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics on configuration errors so a misconfigured process
// refuses to start.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func parse(targets ...any) error {
	for _, target := range targets {
		if err := env.Parse(target); err != nil {
			return errors.Join(ErrParsing, err)
		}
	}
	return nil
}
