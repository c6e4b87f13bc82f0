package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/hotel-delivery/internal/domain/offer"
)

type offerRequest struct {
	Name            string
	Code            string
	Description     string
	DiscountType    offer.DiscountType
	DiscountValue   decimal.Decimal
	MinOrderValue   decimal.Decimal
	MaxDiscount     decimal.Decimal
	ApplicableItems *offer.Applicability
	StartDate       time.Time
	EndDate         time.Time
	Active          *bool
}

func (req *offerRequest) offer(id string) *offer.Offer {
	o := &offer.Offer{
		ID:            id,
		Name:          req.Name,
		Code:          req.Code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrderValue: req.MinOrderValue,
		MaxDiscount:   req.MaxDiscount,
		Applicability: offer.AllItems(),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Active:        true,
	}
	if req.ApplicableItems != nil {
		o.Applicability = *req.ApplicableItems
	}
	if req.Active != nil {
		o.Active = *req.Active
	}
	return o
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.Offers.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, offers, encodeOffer)
	})
}

func (h *Handler) getOffer(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Offers.Get(r.Context(), chi.URLParam(r, "offerID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOffer(e, o)
	})
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	o := req.offer("")
	if err := h.svc.Offers.Create(r.Context(), o); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOffer(e, o)
	})
}

func (h *Handler) updateOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	o := req.offer(chi.URLParam(r, "offerID"))
	if err := h.svc.Offers.Update(r.Context(), o); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOffer(e, o)
	})
}

func (h *Handler) deleteOffer(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Offers.Delete(r.Context(), chi.URLParam(r, "offerID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
