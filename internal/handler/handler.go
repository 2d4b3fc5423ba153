package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pick3app/pick3/internal/auth"
	"github.com/pick3app/pick3/internal/billing"
	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/cookie"
	"github.com/pick3app/pick3/pkg/logger"
)

// Deps carries everything the route layer delegates to.
type Deps struct {
	Store      user.Store
	Gateway    billing.Gateway
	Reconciler *billing.Reconciler
	Webhooks   *billing.WebhookParser
	Auth       *auth.Service
	Cookies    *cookie.Manager

	// PublishableKey is exposed to the landing page for the processor's
	// browser SDK.
	PublishableKey string

	// Health serves GET /health. Optional; a static "ok" handler is
	// used when nil.
	Health http.HandlerFunc

	// LoginLimit throttles POST /login. Optional.
	LoginLimit func(http.Handler) http.Handler

	Log *slog.Logger
}

// Handler holds the route implementations. Construct with New, mount
// with Routes.
type Handler struct {
	store      user.Store
	gateway    billing.Gateway
	reconciler *billing.Reconciler
	webhooks   *billing.WebhookParser
	auth       *auth.Service
	cookies    *cookie.Manager

	publishableKey string
	health         http.HandlerFunc
	loginLimit     func(http.Handler) http.Handler
	log            *slog.Logger
}

// New creates the route layer. A nil logger is replaced with a discard
// logger.
func New(deps Deps) *Handler {
	log := deps.Log
	if log == nil {
		log = logger.NewDiscard()
	}
	health := deps.Health
	if health == nil {
		health = func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}
	}
	return &Handler{
		store:          deps.Store,
		gateway:        deps.Gateway,
		reconciler:     deps.Reconciler,
		webhooks:       deps.Webhooks,
		auth:           deps.Auth,
		cookies:        deps.Cookies,
		publishableKey: deps.PublishableKey,
		health:         health,
		loginLimit:     deps.LoginLimit,
		log:            log,
	}
}

// Routes builds the chi router with all application routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", h.health)
	r.Get("/", h.indexPage)

	r.Post("/create-checkout-session/{plan}", h.createCheckoutSession)
	r.Get("/success", h.checkoutSuccess)
	r.Get("/cancel", h.checkoutCancel)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSessionRedirect)
		r.Get("/account", h.accountPage)
	})
	r.Post("/create-portal-session", h.createPortalSession)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSessionRedirect)
		r.Use(h.requireVIP)
		r.Get("/api/v1/smartscore", h.smartScore)
	})

	r.Get("/login", h.loginPage)
	if h.loginLimit != nil {
		r.With(h.loginLimit).Post("/login", h.loginSubmit)
	} else {
		r.Post("/login", h.loginSubmit)
	}
	r.Get("/auth/verify", h.verifyMagicLink)
	r.Get("/logout", h.logout)

	r.Post("/webhook", h.webhook)

	return r
}
