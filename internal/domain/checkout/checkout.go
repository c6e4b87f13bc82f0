package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/hotel-delivery/internal/domain/cart"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/pricing"
)

// ErrEmptyCart is returned when placing an order from a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// ItemNotFoundError indicates a requested menu item does not exist.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.ItemID)
}

// ItemUnavailableError indicates a menu item is temporarily off the menu.
type ItemUnavailableError struct {
	ItemID string
	Name   string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("%s (%s) is currently unavailable", e.Name, e.ItemID)
}

// Offers is the offer store as seen by checkout.
type Offers interface {
	offer.Lookup
	ListActive(ctx context.Context, now time.Time) ([]offer.Offer, error)
}

// Customers resolves the customer placing an order.
type Customers interface {
	FindOrCreate(ctx context.Context, d customer.Details) (*customer.Customer, error)
}

// Quote is a priced cart.
type Quote struct {
	Cart      *cart.Session
	Breakdown pricing.Breakdown
	// Offer is the applied offer, nil when none.
	Offer *offer.Offer
	// OfferRemoved explains why a previously applied offer no longer
	// applies. Empty when nothing was removed.
	OfferRemoved string
}

// isOfferRejection reports whether err means the code cannot be applied, as
// opposed to an infrastructure failure.
func isOfferRejection(err error) bool {
	var cfgErr *offer.ConfigError
	return errors.Is(err, offer.ErrInvalidOffer) || errors.As(err, &cfgErr)
}
