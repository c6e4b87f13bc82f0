package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const defaultListLimit = 50

// Service exposes order history and status management.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// List returns the most recent orders matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	return s.orders.List(ctx, f)
}

// Stats returns order count and revenue.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.orders.Stats(ctx)
}

// UpdateStatus moves an order through its lifecycle. Delivered and
// cancelled orders are final.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrUnknownStatus
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if o.Status.Terminal() {
		return nil, &TransitionError{From: o.Status, To: status}
	}

	now := s.now()
	if err := s.orders.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, errors.Wrap(err, "update status")
	}

	zctx.From(ctx).Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(status)),
	)
	o.Status = status
	o.UpdatedAt = now
	return o, nil
}
