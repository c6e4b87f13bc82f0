package offer

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/hotel-delivery/internal/domain/cart"
)

// ApplicabilityKind selects which carts an offer is advertised for.
type ApplicabilityKind string

const (
	ApplyAll      ApplicabilityKind = "all"
	ApplyCategory ApplicabilityKind = "category"
	ApplyItems    ApplicabilityKind = "items"
)

// Applicability restricts an offer to carts containing a category or one of
// a set of items.
//
// On the wire it is "all", a single category name, or an array of item IDs.
type Applicability struct {
	Kind     ApplicabilityKind
	Category string
	ItemIDs  []string
}

// AllItems is the applicability of an unrestricted offer.
func AllItems() Applicability {
	return Applicability{Kind: ApplyAll}
}

// Matches reports whether any cart line satisfies the restriction.
func (a Applicability) Matches(lines []cart.Line) bool {
	switch a.Kind {
	case ApplyAll:
		return true
	case ApplyCategory:
		return slices.ContainsFunc(lines, func(l cart.Line) bool {
			return l.Category == a.Category
		})
	case ApplyItems:
		return slices.ContainsFunc(lines, func(l cart.Line) bool {
			return slices.Contains(a.ItemIDs, l.ItemID)
		})
	default:
		return false
	}
}

func (a Applicability) check() error {
	switch a.Kind {
	case ApplyAll:
		return nil
	case ApplyCategory:
		if a.Category == "" {
			return &ConfigError{Field: "applicable_items", Reason: "category must not be empty"}
		}
	case ApplyItems:
		if len(a.ItemIDs) == 0 {
			return &ConfigError{Field: "applicable_items", Reason: "item list must not be empty"}
		}
	default:
		return &ConfigError{Field: "applicable_items", Reason: "unknown applicability"}
	}
	return nil
}

// Encode writes a in its wire form.
func (a Applicability) Encode(e *jx.Encoder) {
	switch a.Kind {
	case ApplyCategory:
		e.Str(a.Category)
	case ApplyItems:
		e.ArrStart()
		for _, id := range a.ItemIDs {
			e.Str(id)
		}
		e.ArrEnd()
	default:
		e.Str(string(ApplyAll))
	}
}

// Decode reads a from its wire form.
func (a *Applicability) Decode(d *jx.Decoder) error {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		if s == string(ApplyAll) {
			*a = AllItems()
			return nil
		}
		*a = Applicability{Kind: ApplyCategory, Category: s}
		return nil
	case jx.Array:
		ids := []string{}
		if err := d.Arr(func(d *jx.Decoder) error {
			id, err := d.Str()
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		}); err != nil {
			return err
		}
		*a = Applicability{Kind: ApplyItems, ItemIDs: ids}
		return nil
	case jx.Null:
		*a = AllItems()
		return d.Null()
	default:
		return errors.Errorf("applicable_items: unexpected %v", d.Next())
	}
}

// MarshalJSON implements json.Marshaler.
func (a Applicability) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	a.Encode(&e)
	return e.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Applicability) UnmarshalJSON(data []byte) error {
	return a.Decode(jx.DecodeBytes(data))
}
