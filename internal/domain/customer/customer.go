package customer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no customer matches.
	ErrNotFound = errors.New("customer not found")
	// ErrInvalidDetails is returned when delivery details are incomplete.
	ErrInvalidDetails = errors.New("invalid customer details")
)

// Customer is a person who has ordered at least once. Orders, TotalSpent
// and LastOrder are maintained by order placement.
type Customer struct {
	ID         string
	Name       string
	Phone      string
	Email      string
	Address    string
	Orders     int
	TotalSpent decimal.Decimal
	LastOrder  *time.Time
	CreatedAt  time.Time
}

// Details are the delivery details entered at checkout.
type Details struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// Repository provides customer persistence.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, c *Customer) error
}

var nonDigits = regexp.MustCompile(`[^0-9+]`)

// NormalizePhone strips formatting so the same number always matches.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(strings.TrimSpace(phone), "")
}

// Normalize trims d and checks the fields required for delivery.
func (d Details) Normalize() (Details, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = NormalizePhone(d.Phone)
	d.Email = strings.TrimSpace(d.Email)
	d.Address = strings.TrimSpace(d.Address)

	switch {
	case d.Name == "":
		return d, errors.Wrap(ErrInvalidDetails, "name is required")
	case len(strings.TrimPrefix(d.Phone, "+")) < 7:
		return d, errors.Wrap(ErrInvalidDetails, "phone is required")
	case d.Address == "":
		return d, errors.Wrap(ErrInvalidDetails, "address is required")
	}
	return d, nil
}

// Service finds customers for checkout and the back-office.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a customer Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns every customer.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.repo.List(ctx)
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// FindOrCreate returns the customer registered with the phone number in d,
// creating one from d when none exists. Existing records are not modified;
// the order carries the delivery details actually used.
func (s *Service) FindOrCreate(ctx context.Context, d Details) (*Customer, error) {
	d, err := d.Normalize()
	if err != nil {
		return nil, err
	}

	c, err := s.repo.FindByPhone(ctx, d.Phone)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "find customer")
	}

	c = &Customer{
		ID:         uuid.New().String(),
		Name:       d.Name,
		Phone:      d.Phone,
		Email:      d.Email,
		Address:    d.Address,
		TotalSpent: decimal.Zero,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	return c, nil
}
