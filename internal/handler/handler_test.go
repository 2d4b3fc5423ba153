package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/pick3app/pick3/internal/auth"
	"github.com/pick3app/pick3/internal/billing"
	"github.com/pick3app/pick3/internal/config"
	"github.com/pick3app/pick3/internal/handler"
	"github.com/pick3app/pick3/internal/mailer"
	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/cookie"
	"github.com/pick3app/pick3/pkg/ratelimit"
)

const (
	testSecret        = "test-secret-key"
	testWebhookSecret = "whsec_handler_test"
)

type fakeGateway struct {
	sessions       map[string]*billing.CheckoutResult
	subscriptions  map[string]*billing.SubscriptionInfo
	customerEmails map[string]string
	checkoutErr    error
	portalErr      error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions:       map[string]*billing.CheckoutResult{},
		subscriptions:  map[string]*billing.SubscriptionInfo{},
		customerEmails: map[string]string{},
	}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, plan user.Plan) (string, error) {
	if g.checkoutErr != nil {
		return "", g.checkoutErr
	}
	switch plan {
	case user.PlanFree, user.PlanVIPMonthly, user.PlanVIPYearly:
		return "cs_" + string(plan), nil
	}
	return "", fmt.Errorf("%w: %q", billing.ErrInvalidPlan, plan)
}

func (g *fakeGateway) RetrieveCheckoutSession(_ context.Context, id string) (*billing.CheckoutResult, error) {
	if s, ok := g.sessions[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: session %s not found", billing.ErrGateway, id)
}

func (g *fakeGateway) RetrieveSubscription(_ context.Context, id string) (*billing.SubscriptionInfo, error) {
	if s, ok := g.subscriptions[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: subscription %s not found", billing.ErrGateway, id)
}

func (g *fakeGateway) CustomerEmail(_ context.Context, id string) (string, error) {
	return g.customerEmails[id], nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, customerID string) (string, error) {
	if g.portalErr != nil {
		return "", g.portalErr
	}
	if customerID == "" {
		return "", billing.ErrNoCustomer
	}
	return "https://billing.example.com/p/" + customerID, nil
}

type capturingSender struct {
	messages []mailer.Message
	err      error
}

func (s *capturingSender) Send(_ context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

type testApp struct {
	router  http.Handler
	store   *user.MemoryStore
	gateway *fakeGateway
	sender  *capturingSender
	cookies *cookie.Manager
	auth    *auth.Service
}

func newTestApp(t *testing.T, opts ...func(*handler.Deps)) *testApp {
	t.Helper()

	store := user.NewMemoryStore()
	gateway := newFakeGateway()
	sender := &capturingSender{}

	cookies, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	prices := billing.NewPriceTable(config.Stripe{
		PriceIDFree:       "price_free",
		PriceIDVIPMonthly: "price_monthly",
		PriceIDVIPYearly:  "price_yearly",
	})

	authSvc := auth.NewService(testSecret, "http://app.test", sender)

	deps := handler.Deps{
		Store:          store,
		Gateway:        gateway,
		Reconciler:     billing.NewReconciler(store, gateway, prices, nil),
		Webhooks:       billing.NewWebhookParser(testWebhookSecret),
		Auth:           authSvc,
		Cookies:        cookies,
		PublishableKey: "pk_test_123",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testApp{
		router:  handler.New(deps).Routes(),
		store:   store,
		gateway: gateway,
		sender:  sender,
		cookies: cookies,
		auth:    authSvc,
	}
}

func (a *testApp) sessionCookie(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	a.cookies.SetSigned(rec, "user_email", email)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func seedVIP(t *testing.T, store *user.MemoryStore, email string) {
	t.Helper()
	plan := user.PlanVIPMonthly
	status := user.StatusActive
	customerID := "cus_vip"
	require.NoError(t, store.Upsert(context.Background(), email, user.Update{
		StripeCustomerID: &customerID,
		Plan:             &plan,
		Status:           &status,
	}))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	rec := app.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndexPage(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Sign in")
		assert.Contains(t, rec.Body.String(), "pk_test_123")
	})

	t.Run("logged in", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(app.sessionCookie(t, "alice@example.com"))
		rec := app.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alice@example.com")
	})

	t.Run("tampered cookie treated as anonymous", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "user_email", Value: "bm90LXNpZ25lZA.bm9wZQ"})
		rec := app.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Sign in")
	})
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	t.Run("known plan", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodPost, "/create-checkout-session/vip_monthly", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"cs_vip_monthly"}`, rec.Body.String())
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodPost, "/create-checkout-session/platinum", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "error")
	})

	t.Run("gateway failure", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.gateway.checkoutErr = fmt.Errorf("%w: api down", billing.ErrGateway)
		rec := app.do(httptest.NewRequest(http.MethodPost, "/create-checkout-session/free", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	t.Run("missing session_id", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/success", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/success?session_id=cs_missing", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reconciles and sets session", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.gateway.sessions["cs_1"] = &billing.CheckoutResult{
			Email:          "buyer@example.com",
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
		}
		app.gateway.subscriptions["sub_1"] = &billing.SubscriptionInfo{
			Status:           user.StatusActive,
			CurrentPeriodEnd: 1900000000,
			PriceID:          "price_yearly",
		}

		rec := app.do(httptest.NewRequest(http.MethodGet, "/success?session_id=cs_1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "user_email", cookies[0].Name)

		stored, err := app.store.Get(context.Background(), "buyer@example.com")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.IsVIP())
	})
}

func TestCancelPage(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	rec := app.do(httptest.NewRequest(http.MethodGet, "/cancel", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Checkout canceled")
}

func TestAccountPage(t *testing.T) {
	t.Parallel()

	t.Run("anonymous redirected", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/account", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("shows record", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		seedVIP(t, app.store, "vip@example.com")

		req := httptest.NewRequest(http.MethodGet, "/account", nil)
		req.AddCookie(app.sessionCookie(t, "vip@example.com"))
		rec := app.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "vip@example.com")
		assert.Contains(t, rec.Body.String(), "vip_monthly")
		assert.Contains(t, rec.Body.String(), "Manage billing")
	})
}

func TestCreatePortalSession(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodPost, "/create-portal-session", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no customer", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		require.NoError(t, app.store.Upsert(context.Background(), "new@example.com", user.Update{}))

		req := httptest.NewRequest(http.MethodPost, "/create-portal-session", nil)
		req.AddCookie(app.sessionCookie(t, "new@example.com"))
		rec := app.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No payment customer")
	})

	t.Run("returns portal url", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		seedVIP(t, app.store, "vip@example.com")

		req := httptest.NewRequest(http.MethodPost, "/create-portal-session", nil)
		req.AddCookie(app.sessionCookie(t, "vip@example.com"))
		rec := app.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"url":"https://billing.example.com/p/cus_vip"}`, rec.Body.String())
	})
}

func TestSmartScore(t *testing.T) {
	t.Parallel()

	t.Run("anonymous redirected", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/api/v1/smartscore", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("free user rejected", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		plan := user.PlanFree
		status := user.StatusActive
		require.NoError(t, app.store.Upsert(context.Background(), "free@example.com", user.Update{
			Plan: &plan, Status: &status,
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/smartscore", nil)
		req.AddCookie(app.sessionCookie(t, "free@example.com"))
		rec := app.do(req)

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("canceled vip rejected", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		plan := user.PlanVIPYearly
		status := user.StatusCanceled
		require.NoError(t, app.store.Upsert(context.Background(), "lapsed@example.com", user.Update{
			Plan: &plan, Status: &status,
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/smartscore", nil)
		req.AddCookie(app.sessionCookie(t, "lapsed@example.com"))
		rec := app.do(req)

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("vip gets picks", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		seedVIP(t, app.store, "vip@example.com")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/smartscore", nil)
		req.AddCookie(app.sessionCookie(t, "vip@example.com"))
		rec := app.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "picks")
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	postLogin := func(app *testApp, email string) *httptest.ResponseRecorder {
		form := url.Values{}
		if email != "" {
			form.Set("email", email)
		}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return app.do(req)
	}

	t.Run("page renders", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "form")
	})

	t.Run("missing email", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := postLogin(app, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sends magic link", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := postLogin(app, "Alice@Example.com")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Check your email")

		require.Len(t, app.sender.messages, 1)
		msg := app.sender.messages[0]
		assert.Equal(t, "alice@example.com", msg.To)
		assert.Contains(t, msg.TextBody, "/auth/verify?token=")
	})

	t.Run("send failure", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.sender.err = errors.New("smtp down")
		rec := postLogin(app, "alice@example.com")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("throttled", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), 2, time.Minute)
		require.NoError(t, err)
		app := newTestApp(t, func(d *handler.Deps) {
			d.LoginLimit = ratelimit.Middleware(limiter, ratelimit.ByClientIP)
		})

		postLogin(app, "a@example.com")
		postLogin(app, "a@example.com")
		rec := postLogin(app, "a@example.com")

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestVerifyMagicLink(t *testing.T) {
	t.Parallel()

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/auth/verify", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/auth/verify?token=garbage", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid token creates user and session", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		tok, err := app.auth.IssueToken("new@example.com")
		require.NoError(t, err)

		rec := app.do(httptest.NewRequest(http.MethodGet, "/auth/verify?token="+url.QueryEscape(tok), nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "user_email", cookies[0].Name)

		stored, err := app.store.Get(context.Background(), "new@example.com")
		require.NoError(t, err)
		require.NotNil(t, stored)
	})

	t.Run("vip lands on account", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		seedVIP(t, app.store, "vip@example.com")

		tok, err := app.auth.IssueToken("vip@example.com")
		require.NoError(t, err)

		rec := app.do(httptest.NewRequest(http.MethodGet, "/auth/verify?token="+url.QueryEscape(tok), nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/account", rec.Header().Get("Location"))
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		sender := &capturingSender{}
		past := time.Now().Add(-time.Hour)
		expiredAuth := auth.NewService(testSecret, "http://app.test", sender,
			auth.WithClock(func() time.Time { return past }))
		tok, err := expiredAuth.IssueToken("old@example.com")
		require.NoError(t, err)

		app := newTestApp(t)
		rec := app.do(httptest.NewRequest(http.MethodGet, "/auth/verify?token="+url.QueryEscape(tok), nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "expired")
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(app.sessionCookie(t, "alice@example.com"))
	rec := app.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "user_email", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestWebhook(t *testing.T) {
	t.Parallel()

	signedRequest := func(payload string) *http.Request {
		now := time.Now()
		sig := webhook.ComputeSignature(now, []byte(payload), testWebhookSecret)
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
		req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig))
		return req
	}

	t.Run("not configured bypass", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, func(d *handler.Deps) {
			d.Webhooks = billing.NewWebhookParser("")
		})
		rec := app.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}")))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "not configured")
	})

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		rec := app.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("subscription event reconciled", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.gateway.customerEmails["cus_9"] = "hook@example.com"

		payload := `{
			"id": "evt_1",
			"type": "customer.subscription.updated",
			"data": {
				"object": {
					"customer": {"id": "cus_9"},
					"status": "active",
					"items": {
						"data": [
							{"current_period_end": 1900000000, "price": {"id": "price_monthly"}}
						]
					}
				}
			}
		}`

		rec := app.do(signedRequest(payload))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())

		stored, err := app.store.Get(context.Background(), "hook@example.com")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.IsVIP())
	})

	t.Run("ignored event acknowledged", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		payload := `{"id": "evt_2", "type": "charge.refunded", "data": {"object": {}}}`
		rec := app.do(signedRequest(payload))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})
}
