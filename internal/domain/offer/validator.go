package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validate resolves code and checks it against subtotal at now.
//
// It returns a ValidationError when the code is empty, unknown, inactive,
// outside its date window or the subtotal is below the minimum, and a
// ConfigError when the stored definition is unusable. Usage counters are
// never touched.
func Validate(ctx context.Context, lookup Lookup, code string, subtotal decimal.Decimal, now time.Time) (*Offer, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrEmptyCode
	}

	o, err := lookup.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownCode
		}
		return nil, errors.Wrap(err, "lookup offer")
	}

	if err := CheckConfig(o); err != nil {
		return nil, err
	}

	switch {
	case !o.Active:
		return nil, ErrInactive
	case now.Before(o.StartDate):
		return nil, ErrNotStarted
	case now.After(o.EndDate):
		return nil, ErrExpired
	case subtotal.LessThan(o.MinOrderValue):
		return nil, errors.Wrapf(ErrBelowMinimum, "minimum is %s", o.MinOrderValue.StringFixed(2))
	}

	return o, nil
}

// Validator validates codes against a Lookup using its own clock.
type Validator struct {
	lookup Lookup
	now    func() time.Time
}

// NewValidator creates a Validator backed by lookup.
func NewValidator(lookup Lookup) *Validator {
	return &Validator{lookup: lookup, now: time.Now}
}

// Validate is Validate with the validator's lookup and current time.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Offer, error) {
	return Validate(ctx, v.lookup, code, subtotal, v.now())
}
