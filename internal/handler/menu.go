package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/hotel-delivery/internal/domain/menu"
)

type menuItemRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Veg         bool
	Available   *bool
	Image       string
	Rating      decimal.Decimal
}

func (req *menuItemRequest) item(id string) *menu.Item {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return &menu.Item{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Veg:         req.Veg,
		Available:   available,
		Image:       req.Image,
		Rating:      req.Rating,
	}
}

// listMenu serves GET /api/menu?category=&all=true. Unavailable items are
// hidden unless all is set.
func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all, _ := strconv.ParseBool(q.Get("all"))

	items, err := h.svc.Menu.List(r.Context(), q.Get("category"), !all)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, items, h.encodeMenuItem)
	})
}

// popularMenu serves GET /api/menu/popular?limit=, the most ordered
// available items first.
func (h *Handler) popularMenu(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, badRequest("invalid limit %q", v))
			return
		}
		limit = n
	}

	items, err := h.svc.Menu.Popular(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, items, h.encodeMenuItem)
	})
}

func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Menu.Get(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeMenuItem(e, item)
	})
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	item := req.item("")
	if err := h.svc.Menu.Create(r.Context(), item); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		h.encodeMenuItem(e, item)
	})
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	item := req.item(chi.URLParam(r, "itemID"))
	if err := h.svc.Menu.Update(r.Context(), item); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeMenuItem(e, item)
	})
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Menu.Delete(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
