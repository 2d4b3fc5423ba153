package handler

import (
	"net/http"

	"github.com/pick3app/pick3/pkg/logger"
)

// requireSessionRedirect sends anonymous visitors back to the landing
// page. Routes that need a JSON 401 instead check the session inline.
func (h *Handler) requireSessionRedirect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.sessionEmail(r) == "" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireVIP gates a route on VIP entitlement. The user record is
// loaded fresh on every request; the cookie only names the user, it
// never asserts a plan.
func (h *Handler) requireVIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, rec, err := h.sessionUser(r)
		if err != nil {
			h.log.ErrorContext(r.Context(), "load user for entitlement check",
				logger.Email(email), logger.Error(err), logger.Component("handler"))
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if !rec.IsVIP() {
			respondError(w, http.StatusPaymentRequired, "VIP subscription required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
