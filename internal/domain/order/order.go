package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the delivery lifecycle of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPreparing Status = "Preparing"
	StatusOnTheWay  Status = "On the way"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusOnTheWay, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrUnknownStatus is returned for a status outside the lifecycle.
	ErrUnknownStatus = errors.New("unknown order status")
)

// TransitionError reports a status change that the lifecycle forbids.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %q to %q", e.From, e.To)
}

// Customer is the delivery snapshot taken at placement.
type Customer struct {
	ID      string
	Name    string
	Phone   string
	Email   string
	Address string
}

// Item is a priced line of a placed order.
type Item struct {
	MenuItemID      string
	Name            string
	Quantity        int
	Price           decimal.Decimal
	PackagingCharge decimal.Decimal
}

// Order is an immutable record of what the customer paid. Only Status and
// UpdatedAt change after creation.
type Order struct {
	ID             string
	Customer       Customer
	Items          []Item
	Subtotal       decimal.Decimal
	PackagingTotal decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	OfferCode      string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filter narrows List. Zero values mean no restriction.
type Filter struct {
	Status Status
	Phone  string
	Limit  int
}

// Stats aggregates placed orders.
type Stats struct {
	Orders  int
	Revenue decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores the order and, in the same transaction, counts one use
	// of its offer and adds the order to the customer's history.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	Stats(ctx context.Context) (Stats, error)
}
