// Package pricing composes the totals of a cart: subtotal, packaging,
// discount and the amount payable.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/hotel-delivery/internal/domain/cart"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
)

var zero = decimal.Zero

// Breakdown is the priced view of a cart. All amounts have 2 decimal places.
type Breakdown struct {
	Subtotal       decimal.Decimal
	PackagingTotal decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// Subtotal is the sum of unit price times quantity.
func Subtotal(lines []cart.Line) decimal.Decimal {
	sum := zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2)
}

// PackagingTotal is the sum of the per-unit packaging charge times quantity.
func PackagingTotal(lines []cart.Line) decimal.Decimal {
	sum := zero
	for _, l := range lines {
		sum = sum.Add(l.PackagingCharge.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2)
}

// Compose prices lines with an optional applied offer. The offer must have
// been validated by the caller; Compose only computes its discount.
//
// Total is subtotal plus packaging minus discount, never below zero.
func Compose(lines []cart.Line, applied *offer.Offer) (Breakdown, error) {
	b := Breakdown{
		Subtotal:       Subtotal(lines),
		PackagingTotal: PackagingTotal(lines),
		DiscountAmount: zero,
	}

	if applied != nil {
		discount, err := offer.ComputeDiscount(applied, b.Subtotal)
		if err != nil {
			return Breakdown{}, err
		}
		b.DiscountAmount = discount
	}

	total := b.Subtotal.Add(b.PackagingTotal).Sub(b.DiscountAmount)
	if total.IsNegative() {
		total = zero
	}
	b.Total = total.Round(2)
	return b, nil
}
