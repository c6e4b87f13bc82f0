package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/domain/cart"
	"github.com/xenking/hotel-delivery/internal/domain/checkout"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/menu"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
	"github.com/xenking/hotel-delivery/internal/domain/packaging"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

// writeJSON encodes a response body with enc and writes it with status.
func writeJSON(w http.ResponseWriter, status int, enc func(e *jx.Encoder)) {
	var e jx.Encoder
	enc(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the {"code":..,"message":..} error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

// respondError maps domain errors to HTTP statuses. Anything unrecognized is
// logged and reported as 500 without details.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		itemNotFound    *checkout.ItemNotFoundError
		lineNotFound    *cart.LineNotFoundError
		itemUnavailable *checkout.ItemUnavailableError
		transition      *order.TransitionError
		offerConfig     *offer.ConfigError
		ruleConfig      *packaging.ConfigError
		invalidItem     *menu.InvalidItemError
	)

	switch {
	case errors.Is(err, menu.ErrNotFound),
		errors.Is(err, offer.ErrNotFound),
		errors.Is(err, packaging.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.As(err, &itemNotFound),
		errors.As(err, &lineNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, offer.ErrDuplicateCode),
		errors.Is(err, cart.ErrOfferTransition),
		errors.As(err, &transition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, offer.ErrInvalidOffer),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.As(err, &itemUnavailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errBadRequest),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, customer.ErrInvalidDetails),
		errors.Is(err, order.ErrUnknownStatus),
		errors.As(err, &offerConfig),
		errors.As(err, &ruleConfig),
		errors.As(err, &invalidItem):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func money(e *jx.Encoder, field string, d decimal.Decimal) {
	e.FieldStart(field)
	e.Num(jx.Num(d.StringFixed(2)))
}
