// Package packaging resolves per-item packaging charges from administrator
// rules.
//
// Rules are the source of truth. The charge stored on each menu item is a
// materialized view, rebuilt from all active rules by Service whenever a
// rule changes.
package packaging

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ApplicableType selects what a rule's scope refers to.
type ApplicableType string

const (
	ApplyAll      ApplicableType = "all"
	ApplyCategory ApplicableType = "category"
	ApplyItem     ApplicableType = "item"
)

// ChargeType selects how ChargeValue turns into an amount.
type ChargeType string

const (
	// ChargeFixed charges ChargeValue per unit.
	ChargeFixed ChargeType = "fixed"
	// ChargePercentage charges ChargeValue percent of the item price per unit.
	ChargePercentage ChargeType = "percentage"
)

// ErrNotFound is returned when a rule does not exist.
var ErrNotFound = errors.New("packaging rule not found")

// ConfigError reports a rule that cannot be applied.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid packaging rule %s: %s", e.Field, e.Reason)
}

// Scope is either every item ("all") or a list of categories or item IDs,
// depending on the rule's ApplicableType.
type Scope struct {
	All    bool
	Values []string
}

// Everything is the scope covering every item.
func Everything() Scope {
	return Scope{All: true}
}

// Only returns a scope limited to values.
func Only(values ...string) Scope {
	return Scope{Values: values}
}

// Contains reports whether v is in the scope.
func (s Scope) Contains(v string) bool {
	return s.All || slices.Contains(s.Values, v)
}

// Encode writes the scope as "all" or an array of strings.
func (s Scope) Encode(e *jx.Encoder) {
	if s.All {
		e.Str(string(ApplyAll))
		return
	}
	e.ArrStart()
	for _, v := range s.Values {
		e.Str(v)
	}
	e.ArrEnd()
}

// Decode reads a scope written by Encode. A single string other than "all"
// is read as a one-element list.
func (s *Scope) Decode(d *jx.Decoder) error {
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return err
		}
		if v == string(ApplyAll) {
			*s = Everything()
		} else {
			*s = Only(v)
		}
		return nil
	case jx.Array:
		values := []string{}
		if err := d.Arr(func(d *jx.Decoder) error {
			v, err := d.Str()
			if err != nil {
				return err
			}
			values = append(values, v)
			return nil
		}); err != nil {
			return err
		}
		*s = Only(values...)
		return nil
	default:
		return errors.Errorf("applicable_to: unexpected %v", d.Next())
	}
}

// MarshalJSON implements json.Marshaler.
func (s Scope) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scope) UnmarshalJSON(data []byte) error {
	return s.Decode(jx.DecodeBytes(data))
}

// Rule is an administrator-defined packaging charge.
type Rule struct {
	ID             string
	Name           string
	ApplicableType ApplicableType
	ApplicableTo   Scope
	ChargeType     ChargeType
	ChargeValue    decimal.Decimal
	Active         bool
	CreatedAt      time.Time
}

// Item is the catalog view the resolver needs.
type Item struct {
	ID       string
	Category string
	Price    decimal.Decimal
}

// Repository persists rules.
type Repository interface {
	// List returns every rule in creation order.
	List(ctx context.Context) ([]Rule, error)
	Get(ctx context.Context, id string) (*Rule, error)
	Create(ctx context.Context, r *Rule) error
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id string) error
}

var hundred = decimal.NewFromInt(100)

// CheckConfig rejects rules with impossible values.
func CheckConfig(r *Rule) error {
	if r.Name == "" {
		return &ConfigError{Field: "name", Reason: "must not be empty"}
	}
	switch r.ApplicableType {
	case ApplyAll:
	case ApplyCategory, ApplyItem:
		if !r.ApplicableTo.All && len(r.ApplicableTo.Values) == 0 {
			return &ConfigError{Field: "applicable_to", Reason: "must list at least one value"}
		}
	default:
		return &ConfigError{Field: "applicable_type", Reason: fmt.Sprintf("unsupported type %q", r.ApplicableType)}
	}
	if r.ChargeValue.IsNegative() {
		return &ConfigError{Field: "charge_value", Reason: "must not be negative"}
	}
	switch r.ChargeType {
	case ChargeFixed:
	case ChargePercentage:
		if r.ChargeValue.GreaterThan(hundred) {
			return &ConfigError{Field: "charge_value", Reason: "percentage must not exceed 100"}
		}
	default:
		return &ConfigError{Field: "charge_type", Reason: fmt.Sprintf("unsupported type %q", r.ChargeType)}
	}
	return nil
}
