package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pick3app/pick3/internal/billing"
	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/logger"
)

// webhookBodyLimit bounds the raw payload read for signature checks.
const webhookBodyLimit = 1 << 20

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	plan := user.Plan(chi.URLParam(r, "plan"))

	sessionID, err := h.gateway.CreateCheckoutSession(r.Context(), plan)
	if err != nil {
		h.log.ErrorContext(r.Context(), "create checkout session",
			slog.String("plan", string(plan)), logger.Error(err), logger.Component("handler"))
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": sessionID})
}

func (h *Handler) checkoutSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondText(w, http.StatusBadRequest, "Missing session_id")
		return
	}

	email, err := h.reconciler.ApplyCheckoutSession(r.Context(), sessionID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "reconcile checkout session",
			logger.Error(err), logger.Component("handler"))
		respondText(w, http.StatusBadRequest, "Could not verify checkout session")
		return
	}

	if email != "" {
		h.setSession(w, email)
	}

	h.renderPage(w, "success", pageData{})
}

func (h *Handler) createPortalSession(w http.ResponseWriter, r *http.Request) {
	email, rec, err := h.sessionUser(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if rec == nil || rec.StripeCustomerID == nil || *rec.StripeCustomerID == "" {
		respondError(w, http.StatusBadRequest, "No payment customer")
		return
	}

	url, err := h.gateway.CreatePortalSession(r.Context(), *rec.StripeCustomerID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "create portal session",
			logger.Email(email), logger.Error(err), logger.Component("handler"))
		respondError(w, http.StatusBadRequest, "Could not create portal session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respondText(w, http.StatusBadRequest, "Could not read payload")
		return
	}

	event, err := h.webhooks.Parse(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrWebhookNotConfigured) {
			// Deliberate bypass: a missing secret must not make the
			// sender retry forever.
			respondText(w, http.StatusOK, "Webhook not configured")
			return
		}
		h.log.WarnContext(r.Context(), "webhook rejected",
			logger.Error(err), logger.Component("handler"))
		respondText(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if err := h.reconciler.ApplyEvent(r.Context(), event); err != nil {
		h.log.ErrorContext(r.Context(), "apply webhook event",
			logger.EventType(event.Kind()), logger.Error(err), logger.Component("handler"))
		respondText(w, http.StatusInternalServerError, "Processing failed")
		return
	}

	respondText(w, http.StatusOK, "ok")
}
