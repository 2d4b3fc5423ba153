package handler

import (
	"net/http"

	"github.com/pick3app/pick3/internal/user"
)

// sessionCookie names the signed cookie carrying the user's email.
const sessionCookie = "user_email"

func (h *Handler) setSession(w http.ResponseWriter, email string) {
	h.cookies.SetSigned(w, sessionCookie, email)
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	h.cookies.Delete(w, sessionCookie)
}

// sessionEmail returns the verified email from the session cookie, or
// empty when the cookie is absent, unsigned, or tampered.
func (h *Handler) sessionEmail(r *http.Request) string {
	email, err := h.cookies.GetSigned(r, sessionCookie)
	if err != nil {
		return ""
	}
	return user.NormalizeEmail(email)
}

// sessionUser loads the record for the current session. The record may
// be nil when the cookie names an email with no stored row.
func (h *Handler) sessionUser(r *http.Request) (string, *user.Record, error) {
	email := h.sessionEmail(r)
	if email == "" {
		return "", nil, nil
	}
	rec, err := h.store.Get(r.Context(), email)
	return email, rec, err
}
