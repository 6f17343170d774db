package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/sparetrack/internal/model"
	"github.com/erazemk/sparetrack/internal/store"
)

// UsageHandler handles the usage ledger endpoints.
type UsageHandler struct {
	DB *sql.DB
}

// List handles GET /api/usage. The user_id filter is only honoured for
// administrators.
func (h *UsageHandler) List(w http.ResponseWriter, r *http.Request) {
	f := model.UsageFilter{
		SparePartID: queryInt(r, "spare_part_id"),
		Page:        int(queryInt(r, "page")),
	}
	if actor := ActorFrom(r.Context()); actor.IsAdmin() {
		f.UserID = queryInt(r, "user_id")
	}

	var v model.ValidationError
	f.DateFrom = parseDay(r, "date_from", &v)
	f.DateTo = parseDay(r, "date_to", &v)
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		v.Add("date_to", "date_to must not be before date_from")
	}
	if err := v.Err(); err != nil {
		storeError(w, r, err, "list usage")
		return
	}

	page, err := store.ListUsage(r.Context(), h.DB, f)
	if err != nil {
		storeError(w, r, err, "list usage")
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// parseDay reads an optional YYYY-MM-DD query parameter.
func parseDay(r *http.Request, key string, v *model.ValidationError) *time.Time {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		v.Add(key, "expected a date formatted YYYY-MM-DD")
		return nil
	}
	return &d
}

// Create handles POST /api/usage.
func (h *UsageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.UsageInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := ActorFrom(r.Context())
	entry, err := store.RecordUsage(r.Context(), h.DB, actor, in)
	if err != nil {
		storeError(w, r, err, "record usage")
		return
	}

	slog.Info("usage recorded",
		"user", actor.Username,
		"part_id", entry.SparePartID,
		"quantity_used", entry.QuantityUsed,
		"quantity_after", entry.QuantityAfter,
	)
	jsonResponse(w, http.StatusCreated, entry)
}

// Get handles GET /api/usage/{id}.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid usage id")
		return
	}

	entry, err := store.GetUsage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "get usage")
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}
