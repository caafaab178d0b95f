package api

import (
	"net/http"

	"github.com/erazemk/izposoja/internal/engine"
	"github.com/erazemk/izposoja/internal/model"
)

// HistoryHandler handles past reservation endpoints.
type HistoryHandler struct {
	Engine *engine.Engine
}

// List handles GET /api/history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	pasts, err := h.Engine.ListPastReservations(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	if pasts == nil {
		pasts = []model.PastReservation{}
	}
	jsonResponse(w, http.StatusOK, pasts)
}

// Get handles GET /api/history/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	past, err := h.Engine.GetPastReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, past)
}
