package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/hotel-delivery/internal/domain/checkout"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
)

type addItemRequest struct {
	ItemID   string
	Quantity int
}

type quantityRequest struct {
	Quantity int
}

type applyOfferRequest struct {
	Code string
}

type checkoutRequest struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func writeQuote(w http.ResponseWriter, status int, q *checkout.Quote) {
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeQuote(e, q)
	})
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Checkout.NewCart(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeQuote(w, http.StatusCreated, q)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Checkout.Quote(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeQuote(w, http.StatusOK, q)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.ItemID == "" {
		respondError(w, r, badRequest("item_id is required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	q, err := h.svc.Checkout.AddItem(r.Context(), chi.URLParam(r, "cartID"), req.ItemID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeQuote(w, http.StatusOK, q)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	q, err := h.svc.Checkout.UpdateQuantity(r.Context(),
		chi.URLParam(r, "cartID"), chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeQuote(w, http.StatusOK, q)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Checkout.RemoveItem(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeQuote(w, http.StatusOK, q)
}

func (h *Handler) eligibleOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.Checkout.EligibleOffers(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, offers, encodeOffer)
	})
}

func (h *Handler) applyOffer(w http.ResponseWriter, r *http.Request) {
	var req applyOfferRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	q, err := h.svc.Checkout.ApplyOffer(r.Context(), chi.URLParam(r, "cartID"), req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeQuote(w, http.StatusOK, q)
}

func (h *Handler) removeOffer(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Checkout.RemoveOffer(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeQuote(w, http.StatusOK, q)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	o, err := h.svc.Checkout.PlaceOrder(r.Context(), chi.URLParam(r, "cartID"), customer.Details{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// listActiveOffers serves GET /api/offers: offers currently redeemable.
func (h *Handler) listActiveOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.Offers.ListActive(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, offers, encodeOffer)
	})
}

// ordersByPhone serves GET /api/orders?phone=, a customer's order history.
func (h *Handler) ordersByPhone(w http.ResponseWriter, r *http.Request) {
	phone := customer.NormalizePhone(r.URL.Query().Get("phone"))
	if phone == "" {
		respondError(w, r, badRequest("phone is required"))
		return
	}
	orders, err := h.svc.Orders.List(r.Context(), order.Filter{Phone: phone})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, orders, encodeOrder)
	})
}
