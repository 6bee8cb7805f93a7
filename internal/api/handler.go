package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gauge-analytics/influence/internal/domain"
	"github.com/gauge-analytics/influence/internal/export"
	"github.com/gauge-analytics/influence/internal/view"
)

// exportTTL bounds how long a rendered export stays cached. Entries are
// keyed by state version, so the TTL only limits memory, never freshness.
const exportTTL = 5 * time.Minute

// Handler holds dependencies for API handlers.
type Handler struct {
	state   *view.State
	cache   domain.Cache
	bus     domain.EventBus
	source  domain.DataSource
	version string
}

// NewHandler creates a new API handler.
func NewHandler(state *view.State, cache domain.Cache, bus domain.EventBus, source domain.DataSource, version string) *Handler {
	return &Handler{
		state:   state,
		cache:   cache,
		bus:     bus,
		source:  source,
		version: version,
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// Ready handles GET /ready: the service is ready once its collaborators
// respond, whatever the dataset state — empty collections are legal.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.source != nil {
		if err := h.source.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "source unreachable",
			})
			return
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "cache unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"totalUsers":        h.state.TotalUsers(),
		"totalInteractions": h.state.TotalInteractions(),
	})
}

// GetView handles GET /view: the full view-model snapshot.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// ListBrands handles GET /brands.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands := h.state.Brands()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(brands),
		"brands": brands,
	})
}

// ListTypes handles GET /types.
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types := h.state.Types()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(types),
		"types": types,
	})
}

// ListInfluentialUsers handles GET /users/influential.
func (h *Handler) ListInfluentialUsers(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalUsers":        snap.TotalUsers,
		"totalInteractions": snap.TotalInteractions,
		"sort":              snap.Sort,
		"users":             snap.InfluentialUsers,
	})
}

// ListFilteredUsers handles GET /users/filtered.
func (h *Handler) ListFilteredUsers(w http.ResponseWriter, r *http.Request) {
	users := h.state.FilteredUsers()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}

// ListFilteredInteractions handles GET /interactions/filtered.
func (h *Handler) ListFilteredInteractions(w http.ResponseWriter, r *http.Request) {
	interactions := h.state.FilteredInteractions()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":        len(interactions),
		"interactions": interactions,
	})
}

// ToggleFilter handles POST /filters/{category}/{value}/toggle.
func (h *Handler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	value := chi.URLParam(r, "value")

	if err := h.state.ToggleFilter(category, value); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.publishChange(r, domain.TopicFiltersChanged, map[string]string{
		"kind":     "filter",
		"category": category,
		"value":    value,
	})
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// ToggleBrand handles POST /brands/{id}/toggle.
func (h *Handler) ToggleBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.state.ToggleBrand(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	h.publishChange(r, domain.TopicFiltersChanged, map[string]string{
		"kind": "brand",
		"id":   id,
	})
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// ToggleType handles POST /types/{id}/toggle.
func (h *Handler) ToggleType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.state.ToggleType(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	h.publishChange(r, domain.TopicFiltersChanged, map[string]string{
		"kind": "type",
		"id":   id,
	})
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// SortRequest is the request body for PUT /sort.
type SortRequest struct {
	OrderBy string `json:"orderBy"`
	Order   string `json:"order"`
}

// UpdateSort handles PUT /sort.
func (h *Handler) UpdateSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}

	if err := h.state.SortUsersBy(req.OrderBy, req.Order); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.publishChange(r, domain.TopicSortChanged, map[string]string{
		"orderBy": req.OrderBy,
		"order":   req.Order,
	})
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// SegmentRequest is the request body for PUT /segment.
type SegmentRequest struct {
	Expression string `json:"expression"`
}

// UpdateSegment handles PUT /segment. An empty expression clears the
// segment; an invalid one is rejected without touching the active segment.
func (h *Handler) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}

	if err := h.state.SetSegment(strings.TrimSpace(req.Expression)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.publishChange(r, domain.TopicFiltersChanged, map[string]string{
		"kind":       "segment",
		"expression": req.Expression,
	})
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// ExportCSV handles GET /export/csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", export.CSV)
}

// ExportJSON handles GET /export/json.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "json", export.JSON)
}

// ExportXLSX handles GET /export/xlsx.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", export.XLSX)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format string, render func([]domain.User) (export.Delivery, error)) {
	ctx := r.Context()
	key := fmt.Sprintf("export:%s:v%d", format, h.state.Version())

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, key); err == nil && cached != nil {
			var del export.Delivery
			if err := json.Unmarshal(cached, &del); err == nil {
				writeDelivery(w, del)
				return
			}
		}
	}

	del, err := render(h.state.InfluentialUsers())
	if err != nil {
		slog.Error("export failed", "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}

	if h.cache != nil {
		if encoded, err := json.Marshal(del); err == nil {
			_ = h.cache.Set(ctx, key, encoded, exportTTL)
		}
	}

	writeDelivery(w, del)
}

func (h *Handler) publishChange(r *http.Request, topic string, fields map[string]string) {
	if h.bus == nil {
		return
	}
	payload, _ := json.Marshal(fields)
	if err := h.bus.Publish(r.Context(), topic, payload); err != nil {
		slog.Warn("publish failed", "topic", topic, "error", err)
	}
}

func writeDelivery(w http.ResponseWriter, del export.Delivery) {
	w.Header().Set("Content-Type", del.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", del.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(del.Content)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
