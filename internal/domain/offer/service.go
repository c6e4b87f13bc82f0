package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service manages offer definitions for the back-office.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an offer Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns every offer.
func (s *Service) List(ctx context.Context) ([]Offer, error) {
	return s.repo.List(ctx)
}

// ListActive returns offers valid right now.
func (s *Service) ListActive(ctx context.Context) ([]Offer, error) {
	return s.repo.ListActive(ctx, s.now())
}

// Get returns the offer with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*Offer, error) {
	return s.repo.Get(ctx, id)
}

// Create normalizes and stores a new offer. Codes must be unique.
func (s *Service) Create(ctx context.Context, o *Offer) error {
	o.Code = NormalizeCode(o.Code)
	if err := CheckConfig(o); err != nil {
		return err
	}
	if err := s.ensureCodeFree(ctx, o.Code, ""); err != nil {
		return err
	}

	o.ID = uuid.New().String()
	o.UsageCount = 0
	o.CreatedAt = s.now()
	if err := s.repo.Create(ctx, o); err != nil {
		return errors.Wrap(err, "create offer")
	}
	return nil
}

// Update replaces the definition of an existing offer. The usage counter is
// carried over from the stored offer.
func (s *Service) Update(ctx context.Context, o *Offer) error {
	o.Code = NormalizeCode(o.Code)
	if err := CheckConfig(o); err != nil {
		return err
	}

	current, err := s.repo.Get(ctx, o.ID)
	if err != nil {
		return err
	}
	if current.Code != o.Code {
		if err := s.ensureCodeFree(ctx, o.Code, o.ID); err != nil {
			return err
		}
	}

	o.UsageCount = current.UsageCount
	o.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, o); err != nil {
		return errors.Wrap(err, "update offer")
	}
	return nil
}

// Delete removes an offer. Orders keep the code they were placed with.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ensureCodeFree(ctx context.Context, code, selfID string) error {
	existing, err := s.repo.FindByCode(ctx, code)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return errors.Wrap(err, "lookup offer")
	case existing.ID == selfID:
		return nil
	default:
		return ErrDuplicateCode
	}
}
