package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pick3app/pick3/pkg/logger"
)

// HealthHandler returns a handler replying {"status":"ok"} when every
// dependency probe succeeds, and 500 {"status":"unavailable"} otherwise.
// With no probes it is a plain liveness endpoint.
func HealthHandler(log *slog.Logger, probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "health probe failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
