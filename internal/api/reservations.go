package api

import (
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/engine"
	"github.com/erazemk/izposoja/internal/model"
)

// ReservationsHandler handles reservation lifecycle endpoints.
type ReservationsHandler struct {
	Engine *engine.Engine
}

const dateFormat = "2006-01-02"

type createReservationRequest struct {
	Name      string   `json:"name"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	ItemIDs   []string `json:"item_ids"`
}

type itemIDsRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type bulkReturnRequest struct {
	ReservationIDs []string `json:"reservation_ids"`
}

type maintenanceRequest struct {
	ItemIDs []string `json:"item_ids"`
	Info    string   `json:"info"`
}

// List handles GET /api/reservations. All authenticated users see every
// active reservation; ?owner=me narrows to the caller's own.
func (h *ReservationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := ""
	if r.URL.Query().Get("owner") == "me" {
		ownerID = GetClaims(r.Context()).UserID
	}

	reservations, err := h.Engine.ListReservations(r.Context(), ownerID)
	if err != nil {
		engineError(w, err)
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// Get handles GET /api/reservations/{id}.
func (h *ReservationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.GetReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Create handles POST /api/reservations.
func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse(dateFormat, req.StartDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateFormat, req.EndDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid end date, expected YYYY-MM-DD")
		return
	}

	claims := GetClaims(r.Context())
	res, err := h.Engine.CreateReservation(r.Context(), req.Name, claims.UserID, start, end, req.ItemIDs)
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, res)
}

// AddItems handles POST /api/reservations/{id}/items.
func (h *ReservationsHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.canManage(w, r, id) {
		return
	}

	var req itemIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Engine.AddItemsToReservation(r.Context(), id, req.ItemIDs); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "items added"})
}

// ReturnItems handles POST /api/reservations/{id}/return.
func (h *ReservationsHandler) ReturnItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.canManage(w, r, id) {
		return
	}

	var req itemIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Engine.ReturnItems(r.Context(), id, req.ItemIDs); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "items returned"})
}

// BulkReturn handles POST /api/reservations/return. Admin only: whole
// reservations are deleted without leaving history.
func (h *ReservationsHandler) BulkReturn(w http.ResponseWriter, r *http.Request) {
	var req bulkReturnRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Engine.ReturnReservations(r.Context(), req.ReservationIDs); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reservations returned"})
}

// SendToMaintenance handles POST /api/reservations/{id}/maintenance.
func (h *ReservationsHandler) SendToMaintenance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.canManage(w, r, id) {
		return
	}

	var req maintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Engine.SendItemsToMaintenance(r.Context(), id, req.ItemIDs, req.Info); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "items sent to maintenance"})
}

// canManage checks that the caller owns the reservation or is an admin.
// Writes the error response itself and reports whether to continue.
func (h *ReservationsHandler) canManage(w http.ResponseWriter, r *http.Request, reservationID string) bool {
	claims := GetClaims(r.Context())
	if model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		return true
	}

	res, err := h.Engine.GetReservation(r.Context(), reservationID)
	if err != nil {
		engineError(w, err)
		return false
	}
	if res.OwnerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not the reservation owner")
		return false
	}
	return true
}
