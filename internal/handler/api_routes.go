package handler

import (
	"net/http"
	"time"
)

// smartScore serves the VIP-only picks feed. The payload here is a
// fixed sample; the real model runs out of process and this route only
// fronts its latest output.
func (h *Handler) smartScore(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"picks": []map[string]any{
			{"numbers": []int{3, 1, 7}, "score": 0.92},
			{"numbers": []int{8, 0, 4}, "score": 0.87},
			{"numbers": []int{5, 5, 2}, "score": 0.81},
		},
	})
}
