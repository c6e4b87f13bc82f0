package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item is a dish on the menu. PackagingCharge is the per-unit charge
// materialized from packaging rules.
type Item struct {
	ID              string
	Name            string
	Description     string
	Price           decimal.Decimal
	Category        string
	Veg             bool
	Available       bool
	Image           string
	Rating          decimal.Decimal
	OrderCount      int
	PackagingCharge decimal.Decimal
}

// Reader defines read operations for the menu.
type Reader interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
}

// Repository defines menu persistence.
type Repository interface {
	Reader
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
	SetPackagingCharges(ctx context.Context, charges map[string]decimal.Decimal) error
}
