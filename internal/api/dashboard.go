package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/sparetrack/internal/store"
)

// DashboardHandler serves the overview.
type DashboardHandler struct {
	DB *sql.DB
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := store.GetDashboard(r.Context(), h.DB, ActorFrom(r.Context()))
	if err != nil {
		storeError(w, r, err, "load dashboard")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}
