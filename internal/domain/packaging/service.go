package packaging

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/domain/menu"
)

// Catalog is the part of the menu store the recomputation writes to.
type Catalog interface {
	List(ctx context.Context) ([]menu.Item, error)
	// SetPackagingCharges writes every charge in one atomic step.
	SetPackagingCharges(ctx context.Context, charges map[string]decimal.Decimal) error
}

// Service is the administrator workflow around rules. Every rule change is
// followed by a recomputation of the affected item charges.
type Service struct {
	rules   Repository
	catalog Catalog
	now     func() time.Time
}

// NewService creates a packaging Service.
func NewService(rules Repository, catalog Catalog) *Service {
	return &Service{rules: rules, catalog: catalog, now: time.Now}
}

// List returns all rules in creation order.
func (s *Service) List(ctx context.Context) ([]Rule, error) {
	return s.rules.List(ctx)
}

// Get returns a single rule.
func (s *Service) Get(ctx context.Context, id string) (*Rule, error) {
	return s.rules.Get(ctx, id)
}

// Create stores r and applies it to the catalog.
func (s *Service) Create(ctx context.Context, r *Rule) error {
	if err := CheckConfig(r); err != nil {
		return err
	}
	r.ID = uuid.New().String()
	r.CreatedAt = s.now()
	if err := s.rules.Create(ctx, r); err != nil {
		return errors.Wrap(err, "create rule")
	}
	return s.recompute(ctx, nil)
}

// Update replaces the rule definition. Items covered only by the old
// definition lose their charge.
func (s *Service) Update(ctx context.Context, r *Rule) error {
	if err := CheckConfig(r); err != nil {
		return err
	}
	old, err := s.rules.Get(ctx, r.ID)
	if err != nil {
		return err
	}
	r.CreatedAt = old.CreatedAt
	if err := s.rules.Update(ctx, r); err != nil {
		return errors.Wrap(err, "update rule")
	}
	return s.recompute(ctx, produced(old))
}

// Delete removes the rule and resets the charges it produced.
func (s *Service) Delete(ctx context.Context, id string) error {
	old, err := s.rules.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete rule")
	}
	return s.recompute(ctx, produced(old))
}

// produced returns r when it may have set charges on the catalog. An
// inactive rule never did, so bulk charges under it are left alone.
func produced(r *Rule) *Rule {
	if !r.Active {
		return nil
	}
	return r
}

// ApplyBulk sets a fixed charge on the given items directly. The charge
// stays until a rule change covers those items.
func (s *Service) ApplyBulk(ctx context.Context, itemIDs []string, charge decimal.Decimal) error {
	if charge.IsNegative() {
		return &ConfigError{Field: "charge", Reason: "must not be negative"}
	}
	if len(itemIDs) == 0 {
		return nil
	}
	charges := ApplyFixedChargeToItemSet(itemIDs, charge)
	if err := s.catalog.SetPackagingCharges(ctx, charges); err != nil {
		return errors.Wrap(err, "set packaging charges")
	}
	return nil
}

// Recompute rebuilds every rule-driven charge from the active rules.
func (s *Service) Recompute(ctx context.Context) error {
	return s.recompute(ctx, nil)
}

// recompute zeroes the items covered by removed (the previous definition of
// a changed rule) and overlays the charges of all active rules. Nothing is
// written if reading the catalog or the rules fails.
func (s *Service) recompute(ctx context.Context, removed *Rule) error {
	menuItems, err := s.catalog.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list menu")
	}
	rules, err := s.rules.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list rules")
	}

	items := make([]Item, len(menuItems))
	for i, mi := range menuItems {
		items[i] = Item{ID: mi.ID, Category: mi.Category, Price: mi.Price}
	}

	charges := make(map[string]decimal.Decimal)
	if removed != nil {
		for id, c := range RemoveChargesForRule(removed, items) {
			charges[id] = c
		}
	}
	materialized, err := Materialize(rules, items)
	if err != nil {
		return err
	}
	for id, c := range materialized {
		charges[id] = c
	}

	if len(charges) == 0 {
		return nil
	}
	if err := s.catalog.SetPackagingCharges(ctx, charges); err != nil {
		return errors.Wrap(err, "set packaging charges")
	}

	zctx.From(ctx).Info("Packaging charges recomputed",
		zap.Int("rules", len(rules)),
		zap.Int("items", len(charges)),
	)
	return nil
}
