package handler

import (
	"errors"
	"net/http"

	"github.com/pick3app/pick3/internal/auth"
	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/logger"
)

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if h.sessionEmail(r) != "" {
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	}
	h.renderPage(w, "login", pageData{})
}

func (h *Handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "Invalid form")
		return
	}

	email := user.NormalizeEmail(r.PostFormValue("email"))
	if email == "" {
		respondText(w, http.StatusBadRequest, "Email required")
		return
	}

	if err := h.auth.SendMagicLink(r.Context(), email); err != nil {
		if errors.Is(err, auth.ErrEmailRequired) {
			respondText(w, http.StatusBadRequest, "Email required")
			return
		}
		respondText(w, http.StatusInternalServerError, "Could not send sign-in email")
		return
	}

	h.renderPage(w, "check_email", pageData{Email: email})
}

func (h *Handler) verifyMagicLink(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		respondText(w, http.StatusBadRequest, "Missing token")
		return
	}

	email, err := h.auth.Verify(tok)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredLink) {
			respondText(w, http.StatusBadRequest, "This link has expired. Please request a new one.")
			return
		}
		respondText(w, http.StatusBadRequest, "Invalid sign-in link")
		return
	}

	// First login creates the row; later fields arrive via billing.
	if err := h.store.Upsert(r.Context(), email, user.Update{}); err != nil {
		h.log.ErrorContext(r.Context(), "create user on login",
			logger.Email(email), logger.Error(err), logger.Component("handler"))
		respondText(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.setSession(w, email)

	rec, err := h.store.Get(r.Context(), email)
	if err != nil {
		h.log.ErrorContext(r.Context(), "load user after login",
			logger.Email(email), logger.Error(err), logger.Component("handler"))
	}
	if rec.IsVIP() {
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
