package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
)

type statusRequest struct {
	Status order.Status
}

// listOrders serves GET /api/admin/orders?status=&phone=&limit=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.Filter{
		Status: order.Status(q.Get("status")),
		Phone:  customer.NormalizePhone(q.Get("phone")),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, r, badRequest("invalid limit %q", v))
			return
		}
		f.Limit = limit
	}

	orders, err := h.svc.Orders.List(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, orders, encodeOrder)
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	o, err := h.svc.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Customers.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, customers, encodeCustomer)
	})
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.Get(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCustomer(e, c)
	})
}

// stats serves the back-office dashboard counters. The lookups are
// independent and run concurrently.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	var (
		orders           order.Stats
		customers, items int
		activeOffers     int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		orders, err = h.svc.Orders.Stats(ctx)
		return err
	})
	g.Go(func() error {
		list, err := h.svc.Customers.List(ctx)
		customers = len(list)
		return err
	})
	g.Go(func() error {
		list, err := h.svc.Menu.List(ctx, "", false)
		items = len(list)
		return err
	})
	g.Go(func() error {
		list, err := h.svc.Offers.ListActive(ctx)
		activeOffers = len(list)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		e.Int(orders.Orders)
		money(e, "revenue", orders.Revenue)
		e.FieldStart("customers")
		e.Int(customers)
		e.FieldStart("menu_items")
		e.Int(items)
		e.FieldStart("active_offers")
		e.Int(activeOffers)
		e.ObjEnd()
	})
}
