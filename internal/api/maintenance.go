package api

import (
	"net/http"

	"github.com/erazemk/izposoja/internal/engine"
	"github.com/erazemk/izposoja/internal/model"
)

// MaintenanceHandler handles the maintenance pool endpoints (admin only).
type MaintenanceHandler struct {
	Engine *engine.Engine
}

// List handles GET /api/maintenance.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Engine.ListMaintenanceItems(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	if records == nil {
		records = []model.MaintenanceRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// Restore handles POST /api/maintenance/{itemId}/restore.
func (h *MaintenanceHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.RestoreItemAvailability(r.Context(), r.PathValue("itemId")); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item restored"})
}
