package handler

import (
	"net/http"

	"github.com/pick3app/pick3/pkg/logger"
)

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	email, rec, err := h.sessionUser(r)
	if err != nil {
		h.log.ErrorContext(r.Context(), "load user for landing page",
			logger.Email(email), logger.Error(err), logger.Component("handler"))
	}

	pu := newPageUser(rec)
	if pu == nil && email != "" {
		// Session names a user with no stored row yet; still greet them.
		pu = &pageUser{Email: email}
	}

	h.renderPage(w, "index", pageData{User: pu, PublishableKey: h.publishableKey})
}

func (h *Handler) accountPage(w http.ResponseWriter, r *http.Request) {
	email, rec, err := h.sessionUser(r)
	if err != nil {
		respondText(w, http.StatusInternalServerError, "Internal error")
		return
	}

	pu := newPageUser(rec)
	if pu == nil {
		pu = &pageUser{Email: email}
	}

	h.renderPage(w, "account", pageData{User: pu})
}

func (h *Handler) checkoutCancel(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "cancel", pageData{})
}
