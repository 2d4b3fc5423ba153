package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/pick3app/pick3/internal/auth"
	"github.com/pick3app/pick3/internal/billing"
	"github.com/pick3app/pick3/internal/config"
	"github.com/pick3app/pick3/internal/handler"
	"github.com/pick3app/pick3/internal/mailer"
	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/cookie"
	"github.com/pick3app/pick3/pkg/httpserver"
	"github.com/pick3app/pick3/pkg/logger"
	"github.com/pick3app/pick3/pkg/pg"
	"github.com/pick3app/pick3/pkg/ratelimit"
)

func main() {
	cfg := config.MustLoad()
	log := logger.NewFromConfig(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	store := user.NewPGStore(pool)

	sender, err := buildSender(cfg.Mailer, log)
	if err != nil {
		return err
	}

	cookies, err := cookie.New([]string{cfg.App.SecretKey})
	if err != nil {
		return err
	}

	prices := billing.NewPriceTable(cfg.Stripe)
	gateway := billing.NewStripeGateway(cfg.Stripe, prices, cfg.App.BaseURL)
	reconciler := billing.NewReconciler(store, gateway, prices, log)
	webhooks := billing.NewWebhookParser(cfg.Stripe.WebhookSecret)

	authSvc := auth.NewService(cfg.App.SecretKey, cfg.App.BaseURL, sender, auth.WithLogger(log))

	rdb, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	probes := []func(context.Context) error{pg.Healthcheck(pool)}
	if rdb != nil {
		defer rdb.Close()
		probes = append(probes, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	loginLimit, err := buildLoginLimit(cfg.Ratelimit, rdb)
	if err != nil {
		return err
	}

	h := handler.New(handler.Deps{
		Store:          store,
		Gateway:        gateway,
		Reconciler:     reconciler,
		Webhooks:       webhooks,
		Auth:           authSvc,
		Cookies:        cookies,
		PublishableKey: cfg.Stripe.PublishableKey,
		Health:         httpserver.HealthHandler(log, probes...),
		LoginLimit:     loginLimit,
		Log:            log,
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, h.Routes())
}

// buildSender picks Postmark when a server token is configured and the
// log-only sender otherwise, so local development needs no email account.
func buildSender(cfg config.Mailer, log *slog.Logger) (mailer.Sender, error) {
	if cfg.PostmarkServerToken == "" {
		log.Warn("no Postmark token configured, magic links are logged instead of emailed")
		return mailer.NewDevSender(log), nil
	}
	return mailer.NewPostmarkSender(cfg)
}

// connectRedis returns nil without error when no REDIS_URL is set.
func connectRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// buildLoginLimit wires the login throttle. With Redis available the
// counter is shared across replicas; otherwise it is per process.
func buildLoginLimit(cfg config.Ratelimit, rdb *redis.Client) (func(http.Handler) http.Handler, error) {
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if rdb != nil {
		store = ratelimit.NewRedisStore(rdb, "login")
	}

	limiter, err := ratelimit.New(store, cfg.LoginLimit, cfg.LoginWindow)
	if err != nil {
		return nil, err
	}
	return ratelimit.Middleware(limiter, ratelimit.ByClientIP), nil
}
