package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/sparetrack/internal/imaging"
	"github.com/erazemk/sparetrack/internal/model"
	"github.com/erazemk/sparetrack/internal/store"
)

// PartsHandler handles spare part endpoints.
type PartsHandler struct {
	DB *sql.DB
}

type restockRequest struct {
	Amount int `json:"amount"`
}

type partDetail struct {
	Part        *model.SparePart     `json:"part"`
	RecentUsage []model.UsageHistory `json:"recent_usage"`
}

// List handles GET /api/parts.
func (h *PartsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := store.ListSpareParts(r.Context(), h.DB, model.SparePartFilter{
		Search:      q.Get("search"),
		Category:    q.Get("category"),
		StockStatus: q.Get("stock_status"),
		Page:        int(queryInt(r, "page")),
	})
	if err != nil {
		storeError(w, r, err, "list parts")
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// LowStock handles GET /api/parts/low-stock.
func (h *PartsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	page, err := store.ListLowStock(r.Context(), h.DB, int(queryInt(r, "page")))
	if err != nil {
		storeError(w, r, err, "list low stock parts")
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Options handles GET /api/parts/options. With available=true only parts
// with stock left are listed.
func (h *PartsHandler) Options(w http.ResponseWriter, r *http.Request) {
	availableOnly, _ := strconv.ParseBool(r.URL.Query().Get("available"))
	options, err := store.ListPartOptions(r.Context(), h.DB, availableOnly)
	if err != nil {
		storeError(w, r, err, "list part options")
		return
	}
	jsonResponse(w, http.StatusOK, options)
}

// Categories handles GET /api/parts/categories.
func (h *PartsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err, "list categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /api/parts.
func (h *PartsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.SparePartInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := ActorFrom(r.Context())
	part, err := store.CreateSparePart(r.Context(), h.DB, actor, in)
	if err != nil {
		storeError(w, r, err, "create part")
		return
	}

	slog.Info("part created", "user", actor.Username, "part_id", part.ID, "code", part.Code, "quantity", part.Quantity)
	jsonResponse(w, http.StatusCreated, part)
}

// Get handles GET /api/parts/{id}. The response includes the latest usage.
func (h *PartsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	part, err := store.GetSparePart(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "get part")
		return
	}

	recent, err := store.RecentUsage(r.Context(), h.DB, id, model.PartRecentUsage)
	if err != nil {
		storeError(w, r, err, "get part usage")
		return
	}
	if recent == nil {
		recent = []model.UsageHistory{}
	}

	jsonResponse(w, http.StatusOK, partDetail{Part: part, RecentUsage: recent})
}

// Update handles PUT /api/parts/{id}. Quantity and code are not editable.
func (h *PartsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	var in model.SparePartInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := ActorFrom(r.Context())
	part, err := store.UpdateSparePart(r.Context(), h.DB, actor, id, in)
	if err != nil {
		storeError(w, r, err, "update part")
		return
	}

	slog.Info("part updated", "user", actor.Username, "part_id", part.ID)
	jsonResponse(w, http.StatusOK, part)
}

// Delete handles DELETE /api/parts/{id}. The part's ledger goes with it.
func (h *PartsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	actor := ActorFrom(r.Context())
	if err := store.DeleteSparePart(r.Context(), h.DB, actor, id); err != nil {
		storeError(w, r, err, "delete part")
		return
	}

	slog.Info("part deleted", "user", actor.Username, "part_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "part deleted"})
}

// Restock handles POST /api/parts/{id}/restock.
func (h *PartsHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := ActorFrom(r.Context())
	part, err := store.RestockSparePart(r.Context(), h.DB, actor, id, req.Amount)
	if err != nil {
		storeError(w, r, err, "restock part")
		return
	}

	slog.Info("part restocked", "user", actor.Username, "part_id", id, "amount", req.Amount, "quantity", part.Quantity)
	jsonResponse(w, http.StatusOK, part)
}

// UploadImage handles PUT /api/parts/{id}/image.
func (h *PartsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	photo, err := imaging.NormalizePhoto(raw)
	if err != nil {
		storeError(w, r, err, "process image")
		return
	}

	actor := ActorFrom(r.Context())
	if err := store.SetSparePartImage(r.Context(), h.DB, actor, id, photo, imaging.StoredMIME); err != nil {
		storeError(w, r, err, "save image")
		return
	}

	slog.Info("part image uploaded", "user", actor.Username, "part_id", id, "bytes", len(photo))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/parts/{id}/image.
func (h *PartsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid part id")
		return
	}

	data, mime, err := store.GetSparePartImage(r.Context(), h.DB, id)
	if errors.Is(err, model.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}
	if err != nil {
		storeError(w, r, err, "get image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
