package offer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage of the subtotal, optionally capped by MaxDiscount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount, never more than the subtotal.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned by a Repository when no offer matches.
	ErrNotFound = errors.New("offer not found")
	// ErrDuplicateCode is returned when creating an offer whose code is taken.
	ErrDuplicateCode = errors.New("offer code already exists")
	// ErrInvalidOffer matches every ValidationError via errors.Is.
	ErrInvalidOffer = errors.New("invalid offer")
)

// ValidationError is a recoverable, user-facing reason why a code cannot be
// applied to the current cart.
type ValidationError struct {
	reason string
}

func (e *ValidationError) Error() string { return e.reason }

// Is reports whether target is ErrInvalidOffer.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidOffer }

var (
	ErrEmptyCode    = &ValidationError{reason: "offer code is empty"}
	ErrUnknownCode  = &ValidationError{reason: "offer code does not exist"}
	ErrInactive     = &ValidationError{reason: "offer is not active"}
	ErrNotStarted   = &ValidationError{reason: "offer is not valid yet"}
	ErrExpired      = &ValidationError{reason: "offer has expired"}
	ErrBelowMinimum = &ValidationError{reason: "order value is below the offer minimum"}
)

// ConfigError reports an offer definition that can never be applied, such
// as a percentage above 100 or an end date before the start date.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid offer %s: %s", e.Field, e.Reason)
}

// Offer is a discount code definition.
type Offer struct {
	ID            string
	Name          string
	Code          string
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinOrderValue decimal.Decimal
	// MaxDiscount caps percentage discounts. Zero means unlimited.
	MaxDiscount   decimal.Decimal
	Applicability Applicability
	StartDate     time.Time
	EndDate       time.Time
	Active        bool
	UsageCount    int
	CreatedAt     time.Time
}

// ValidAt reports whether the offer is active and now lies within
// [StartDate, EndDate], bounds inclusive.
func (o *Offer) ValidAt(now time.Time) bool {
	return o.Active && !now.Before(o.StartDate) && !now.After(o.EndDate)
}

// NormalizeCode trims and upper-cases a code. Codes compare case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup resolves codes to offers. Implementations return ErrNotFound when
// the code is unknown, whatever the offer's state.
type Lookup interface {
	FindByCode(ctx context.Context, code string) (*Offer, error)
}

// Repository provides offer persistence.
type Repository interface {
	Lookup
	// ListActive returns offers valid at now, oldest first.
	ListActive(ctx context.Context, now time.Time) ([]Offer, error)
	List(ctx context.Context) ([]Offer, error)
	Get(ctx context.Context, id string) (*Offer, error)
	Create(ctx context.Context, o *Offer) error
	Update(ctx context.Context, o *Offer) error
	Delete(ctx context.Context, id string) error
}

var hundred = decimal.NewFromInt(100)

// CheckConfig rejects offer definitions that cannot produce a sane discount.
func CheckConfig(o *Offer) error {
	if NormalizeCode(o.Code) == "" {
		return &ConfigError{Field: "code", Reason: "must not be empty"}
	}
	switch o.DiscountType {
	case DiscountPercentage:
		if !o.DiscountValue.IsPositive() || o.DiscountValue.GreaterThan(hundred) {
			return &ConfigError{Field: "discount_value", Reason: "percentage must be in (0, 100]"}
		}
	case DiscountFixed:
		if !o.DiscountValue.IsPositive() {
			return &ConfigError{Field: "discount_value", Reason: "fixed amount must be positive"}
		}
	default:
		return &ConfigError{Field: "discount_type", Reason: fmt.Sprintf("unsupported type %q", o.DiscountType)}
	}
	if o.MinOrderValue.IsNegative() {
		return &ConfigError{Field: "min_order_value", Reason: "must not be negative"}
	}
	if o.MaxDiscount.IsNegative() {
		return &ConfigError{Field: "max_discount", Reason: "must not be negative"}
	}
	if o.StartDate.After(o.EndDate) {
		return &ConfigError{Field: "end_date", Reason: "must not be before start_date"}
	}
	return o.Applicability.check()
}
