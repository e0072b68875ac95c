package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Sweeper is the minimal interface needed to run an expiration sweep.
type Sweeper interface {
	ExpireDue(ctx context.Context, orgID string) (int, error)
}

// HandleRunSweep returns an HTTP handler that sweeps one organization's
// stale holds on demand, for external invokers that do not rely on the
// in-process scheduler.
func HandleRunSweep(svc Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expired, err := svc.ExpireDue(r.Context(), chi.URLParam(r, "orgID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sweepResponse{ExpiredCount: expired})
	}
}

type sweepResponse struct {
	ExpiredCount int `json:"expired_count"`
}
