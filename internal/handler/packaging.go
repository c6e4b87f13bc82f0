package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/hotel-delivery/internal/domain/packaging"
)

type ruleRequest struct {
	Name           string
	ApplicableType packaging.ApplicableType
	ApplicableTo   *packaging.Scope
	ChargeType     packaging.ChargeType
	ChargeValue    decimal.Decimal
	Active         *bool
}

func (req *ruleRequest) rule(id string) *packaging.Rule {
	r := &packaging.Rule{
		ID:             id,
		Name:           req.Name,
		ApplicableType: req.ApplicableType,
		ChargeType:     req.ChargeType,
		ChargeValue:    req.ChargeValue,
		Active:         true,
	}
	switch {
	case req.ApplicableTo != nil:
		r.ApplicableTo = *req.ApplicableTo
	case req.ApplicableType == packaging.ApplyAll:
		r.ApplicableTo = packaging.Everything()
	}
	if req.Active != nil {
		r.Active = *req.Active
	}
	return r
}

type bulkRequest struct {
	ItemIDs []string
	Charge  decimal.Decimal
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Packaging.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeArr(e, rules, encodeRule)
	})
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.svc.Packaging.Get(r.Context(), chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeRule(e, rule)
	})
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	rule := req.rule("")
	if err := h.svc.Packaging.Create(r.Context(), rule); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeRule(e, rule)
	})
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	rule := req.rule(chi.URLParam(r, "ruleID"))
	if err := h.svc.Packaging.Update(r.Context(), rule); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeRule(e, rule)
	})
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Packaging.Delete(r.Context(), chi.URLParam(r, "ruleID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bulkPackaging sets one fixed charge on a list of items, bypassing rules.
func (h *Handler) bulkPackaging(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.ItemIDs) == 0 {
		respondError(w, r, badRequest("item_ids must not be empty"))
		return
	}
	if err := h.svc.Packaging.ApplyBulk(r.Context(), req.ItemIDs, req.Charge); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recomputePackaging(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Packaging.Recompute(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
