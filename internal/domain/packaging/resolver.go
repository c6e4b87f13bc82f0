package packaging

import (
	"github.com/shopspring/decimal"
)

// Matches reports whether the rule covers item, ignoring Active.
func (r *Rule) Matches(item Item) bool {
	if r.ApplicableType == ApplyAll || r.ApplicableTo.All {
		return true
	}
	switch r.ApplicableType {
	case ApplyCategory:
		return r.ApplicableTo.Contains(item.Category)
	case ApplyItem:
		return r.ApplicableTo.Contains(item.ID)
	default:
		return false
	}
}

// specificity ranks rules for overlap resolution: item > category > all.
func (r *Rule) specificity() int {
	if r.ApplicableTo.All {
		return 0
	}
	switch r.ApplicableType {
	case ApplyItem:
		return 2
	case ApplyCategory:
		return 1
	default:
		return 0
	}
}

// Charge returns the per-unit packaging charge the rule puts on item.
func (r *Rule) Charge(item Item) decimal.Decimal {
	if r.ChargeType == ChargePercentage {
		return item.Price.Mul(r.ChargeValue).Div(hundred).Round(2)
	}
	return r.ChargeValue.Round(2)
}

// ResolveChargesForRule returns the charge of every item the rule covers.
// Inactive rules resolve to an empty map.
func ResolveChargesForRule(r *Rule, items []Item) (map[string]decimal.Decimal, error) {
	if err := CheckConfig(r); err != nil {
		return nil, err
	}
	charges := make(map[string]decimal.Decimal)
	if !r.Active {
		return charges, nil
	}
	for _, item := range items {
		if r.Matches(item) {
			charges[item.ID] = r.Charge(item)
		}
	}
	return charges, nil
}

// RemoveChargesForRule maps every item the rule covers to zero.
func RemoveChargesForRule(r *Rule, items []Item) map[string]decimal.Decimal {
	charges := make(map[string]decimal.Decimal)
	for _, item := range items {
		if r.Matches(item) {
			charges[item.ID] = decimal.Zero
		}
	}
	return charges
}

// ApplyFixedChargeToItemSet maps each ID to charge without consulting rules.
func ApplyFixedChargeToItemSet(itemIDs []string, charge decimal.Decimal) map[string]decimal.Decimal {
	charges := make(map[string]decimal.Decimal, len(itemIDs))
	for _, id := range itemIDs {
		charges[id] = charge.Round(2)
	}
	return charges
}

// Materialize resolves the charge of every item covered by at least one
// active rule. rules must be in creation order.
//
// When several rules cover an item the most specific wins (item, then
// category, then all); among equally specific rules the latest one wins.
// Items no rule covers are absent from the result.
func Materialize(rules []Rule, items []Item) (map[string]decimal.Decimal, error) {
	active := make([]*Rule, 0, len(rules))
	for i := range rules {
		if err := CheckConfig(&rules[i]); err != nil {
			return nil, err
		}
		if rules[i].Active {
			active = append(active, &rules[i])
		}
	}

	charges := make(map[string]decimal.Decimal)
	for _, item := range items {
		var winner *Rule
		for _, r := range active {
			if !r.Matches(item) {
				continue
			}
			if winner == nil || r.specificity() >= winner.specificity() {
				winner = r
			}
		}
		if winner != nil {
			charges[item.ID] = winner.Charge(item)
		}
	}
	return charges, nil
}
