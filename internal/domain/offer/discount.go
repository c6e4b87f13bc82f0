package offer

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/hotel-delivery/internal/domain/cart"
)

var zero = decimal.Zero

// ComputeDiscount returns the amount o takes off subtotal, rounded to 2
// decimal places. Percentage discounts respect MaxDiscount when it is
// positive; fixed discounts never exceed the subtotal.
func ComputeDiscount(o *Offer, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if err := CheckConfig(o); err != nil {
		return zero, err
	}

	var amount decimal.Decimal
	switch o.DiscountType {
	case DiscountPercentage:
		amount = subtotal.Mul(o.DiscountValue).Div(hundred)
		if o.MaxDiscount.IsPositive() {
			amount = decimal.Min(amount, o.MaxDiscount)
		}
	case DiscountFixed:
		amount = decimal.Min(o.DiscountValue, subtotal)
	}

	return floorAtZero(amount).Round(2), nil
}

// FilterEligible returns the candidates worth showing for a cart: the
// subtotal meets the minimum and the applicability matches some line.
// Order is preserved and duplicates are kept.
func FilterEligible(candidates []Offer, lines []cart.Line, subtotal decimal.Decimal) []Offer {
	eligible := make([]Offer, 0, len(candidates))
	for _, o := range candidates {
		if subtotal.LessThan(o.MinOrderValue) {
			continue
		}
		if !o.Applicability.Matches(lines) {
			continue
		}
		eligible = append(eligible, o)
	}
	return eligible
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
