package api

import (
	"encoding/json"
	"net/http"
	"time"

	"forage-map/orchard/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck. The table is read through
// the snapshot so health checks do not hammer the backend.
func (h *Handlers) HealthCheckHandler(upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]entities.ServiceStatus)

		tableStatus := "ok"
		tableDetails := "Points table reachable"
		if _, err := h.deps.Services.Snapshot.Get(r.Context()); err != nil {
			tableStatus = "down"
			tableDetails = err.Error()
		}
		services["table"] = entities.ServiceStatus{
			Status:  tableStatus,
			Details: tableDetails,
		}
		services["cache"] = entities.ServiceStatus{
			Status:  "ok",
			Details: h.deps.Cache.Name(),
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Backend:  h.deps.Table.GetProviderType(),
			UpSince:  upSince.UTC(),
			Uptime:   uptime,
		}

		code := http.StatusOK
		if overallStatus != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
