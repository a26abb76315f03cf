package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/models/dtos"
	"forage-map/orchard/internal/models/entities"
	"forage-map/orchard/internal/services"

	"github.com/go-chi/chi/v5"
)

// ListPointsHandler handles GET /api/v1/points
func (h *Handlers) ListPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		points, err := h.deps.Services.Points.ListActive(r.Context())
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		shown := services.FilterPoints(points, filterFromQuery(r))
		resp := dtos.PointListResponse{
			Points: shown,
			Stats:  services.CountByCategory(shown),
			Shown:  len(shown),
			Active: len(points),
		}

		RespondSuccess(w, initTime, constants.MsgPointsFound, resp)
	}
}

// AddPointHandler handles POST /api/v1/points
func (h *Handlers) AddPointHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.AddPointReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondError(w, initTime, err, fmt.Sprintf("%s: %v", constants.MsgInvalidBody, err), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			RespondError(w, initTime, nil, constants.MsgMissingName, http.StatusBadRequest)
			return
		}
		if req.Lat == nil || req.Lon == nil {
			RespondError(w, initTime, nil, constants.GetErrorMessage(constants.ErrCodeInvalidCoordinate), http.StatusBadRequest)
			return
		}

		point, err := h.deps.Services.Points.Add(r.Context(), entities.NewPoint{
			Name:    req.Name,
			Lat:     float64(*req.Lat),
			Lon:     float64(*req.Lon),
			Seasons: req.Seasons,
		})
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		RespondSuccess(w, initTime, constants.MsgPointAdded, point, http.StatusCreated)
	}
}

// DeletePointHandler handles DELETE /api/v1/points/{id}
func (h *Handlers) DeletePointHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			RespondError(w, initTime, nil, constants.MsgMissingPointID, http.StatusBadRequest)
			return
		}

		if err := h.deps.Services.Points.SoftDelete(r.Context(), id); err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// RefreshPointsHandler handles POST /api/v1/points/refresh
func (h *Handlers) RefreshPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		h.deps.Services.Points.InvalidateCache(r.Context())
		logging.Info("Snapshot invalidated on request", "remote_addr", r.RemoteAddr)
		RespondSuccess(w, initTime, constants.MsgCacheRefreshed, nil)
	}
}

// ExportPointsHandler handles GET /api/v1/points/export.csv
func (h *Handlers) ExportPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		// Render first so a table failure can still become a JSON error.
		var buf strings.Builder
		if err := h.deps.Services.Export.WriteCSV(r.Context(), &buf, filterFromQuery(r)); err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFileName))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(buf.String()))
	}
}

// CatalogHandler handles GET /api/v1/catalog
func (h *Handlers) CatalogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		entries := make([]dtos.CatalogEntry, 0, len(constants.Catalog))
		for _, name := range constants.Catalog {
			entries = append(entries, dtos.CatalogEntry{Name: name, Kind: constants.KindOf(name)})
		}

		RespondSuccess(w, initTime, constants.MsgCatalog, dtos.CatalogResponse{
			Categories: entries,
			Seasons:    constants.Seasons,
		})
	}
}

// filterFromQuery reads repeated or comma-separated category and season
// query parameters.
func filterFromQuery(r *http.Request) entities.PointFilter {
	q := r.URL.Query()
	return entities.PointFilter{
		Categories: splitParams(q["category"]),
		Seasons:    splitParams(q["season"]),
	}
}

func splitParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
