package api

import (
	"net/http"

	"github.com/ayusman/navarasa/internal/assess"
	"github.com/ayusman/navarasa/internal/store"
)

// StatusHandler serves the persisted conclusion and recommendation, the
// record widgets and dashboards poll.
type StatusHandler struct {
	store *store.Store
}

// NewStatusHandler creates a StatusHandler. With a nil store it always
// reports the defaults.
func NewStatusHandler(s *store.Store) *StatusHandler {
	return &StatusHandler{store: s}
}

// ServeHTTP handles GET /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.store == nil {
		writeJSON(w, http.StatusOK, assess.Record{
			Conclusion:     store.DefaultConclusion,
			Recommendation: store.DefaultRecommendation,
		})
		return
	}

	rec, err := h.store.Status().GetOrDefault(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read status")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
