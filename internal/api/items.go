package api

import (
	"net/http"

	"github.com/erazemk/izposoja/internal/engine"
	"github.com/erazemk/izposoja/internal/model"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Engine *engine.Engine
}

type createItemRequest struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	ManufacturerURL string `json:"manufacturer_url"`
	Info            string `json:"info"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Engine.ListItems(r.Context(), q.Get("status"), q.Get("category"), q.Get("search"))
	if err != nil {
		engineError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Engine.CreateItem(r.Context(), req.Name, req.Category, req.ManufacturerURL, req.Info)
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Engine.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	id := r.PathValue("id")
	if err := h.Engine.UpdateItem(r.Context(), id, req.Name, req.Category, req.ManufacturerURL, req.Info); err != nil {
		engineError(w, err)
		return
	}

	item, err := h.Engine.GetItem(r.Context(), id)
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}
