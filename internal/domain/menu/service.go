package menu

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPopularLimit is the number of items Popular returns when the caller
// does not ask for a size.
const DefaultPopularLimit = 10

// InvalidItemError describes a menu item rejected by the back-office.
type InvalidItemError struct {
	Field  string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid menu item %s: %s", e.Field, e.Reason)
}

// Repricer recomputes the packaging charges of the whole menu from the
// active packaging rules.
type Repricer interface {
	Recompute(ctx context.Context) error
}

// Service validates back-office writes to the menu.
type Service struct {
	repo     Repository
	repricer Repricer
}

// Option configures a Service.
type Option func(*Service)

// WithRepricer refreshes packaging charges after every item write, so a new
// item or a changed price is charged by the rules already in force.
func WithRepricer(r Repricer) Option {
	return func(s *Service) { s.repricer = r }
}

// NewService creates a menu Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns the full menu. When availableOnly is set, items that are
// currently off the menu are skipped. A non-empty category filters further.
func (s *Service) List(ctx context.Context, category string, availableOnly bool) ([]Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if availableOnly && !it.Available {
			continue
		}
		if category != "" && !strings.EqualFold(it.Category, category) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Popular returns the available items ordered by how many times they were
// ordered, ties broken by name. A non-positive limit means DefaultPopularLimit.
func (s *Service) Popular(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	items, err := s.List(ctx, "", true)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := cmp.Compare(b.OrderCount, a.OrderCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and stores a new item. Packaging charges are owned by
// packaging rules: the item starts at zero and is then repriced.
func (s *Service) Create(ctx context.Context, item *Item) error {
	if err := check(item); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.OrderCount = 0
	item.PackagingCharge = decimal.Zero
	if err := s.repo.Create(ctx, item); err != nil {
		return errors.Wrap(err, "create menu item")
	}
	return s.reprice(ctx, item)
}

// Update replaces an item's descriptive fields and price. The stored
// packaging charge is kept until the repricer recomputes it; a category
// change drops it since category rules no longer match.
func (s *Service) Update(ctx context.Context, item *Item) error {
	if err := check(item); err != nil {
		return err
	}
	current, err := s.repo.GetByID(ctx, item.ID)
	if err != nil {
		return err
	}
	item.OrderCount = current.OrderCount
	item.PackagingCharge = current.PackagingCharge
	if !strings.EqualFold(item.Category, current.Category) {
		item.PackagingCharge = decimal.Zero
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return errors.Wrap(err, "update menu item")
	}
	return s.reprice(ctx, item)
}

// reprice refreshes charges after a write and reloads item so callers see
// the charge that was stored.
func (s *Service) reprice(ctx context.Context, item *Item) error {
	if s.repricer == nil {
		return nil
	}
	if err := s.repricer.Recompute(ctx); err != nil {
		return errors.Wrapf(err, "reprice menu item %q", item.ID)
	}
	fresh, err := s.repo.GetByID(ctx, item.ID)
	if err != nil {
		return errors.Wrapf(err, "reload menu item %q", item.ID)
	}
	*item = *fresh
	return nil
}

// Delete removes an item. Past orders keep their snapshot.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func check(item *Item) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	switch {
	case item.Name == "":
		return &InvalidItemError{Field: "name", Reason: "must not be empty"}
	case item.Category == "":
		return &InvalidItemError{Field: "category", Reason: "must not be empty"}
	case item.Price.IsNegative():
		return &InvalidItemError{Field: "price", Reason: "must not be negative"}
	case item.PackagingCharge.IsNegative():
		return &InvalidItemError{Field: "packaging_charge", Reason: "must not be negative"}
	}
	item.Price = item.Price.Round(2)
	return nil
}
