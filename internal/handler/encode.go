package handler

import (
	"strings"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/hotel-delivery/internal/domain/checkout"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/menu"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
	"github.com/xenking/hotel-delivery/internal/domain/packaging"
)

func str(e *jx.Encoder, field, v string) {
	e.FieldStart(field)
	e.Str(v)
}

func timestamp(e *jx.Encoder, field string, t time.Time) {
	e.FieldStart(field)
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeArr[T any](e *jx.Encoder, items []T, enc func(*jx.Encoder, *T)) {
	e.ArrStart()
	for i := range items {
		enc(e, &items[i])
	}
	e.ArrEnd()
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) encodeMenuItem(e *jx.Encoder, it *menu.Item) {
	e.ObjStart()
	str(e, "id", it.ID)
	str(e, "name", it.Name)
	str(e, "description", it.Description)
	money(e, "price", it.Price)
	str(e, "category", it.Category)
	e.FieldStart("veg")
	e.Bool(it.Veg)
	e.FieldStart("available")
	e.Bool(it.Available)
	str(e, "image", h.imageURL(it.Image))
	e.FieldStart("rating")
	e.Num(jx.Num(it.Rating.StringFixed(1)))
	e.FieldStart("order_count")
	e.Int(it.OrderCount)
	money(e, "packaging_charge", it.PackagingCharge)
	e.ObjEnd()
}

func encodeOffer(e *jx.Encoder, o *offer.Offer) {
	e.ObjStart()
	str(e, "id", o.ID)
	str(e, "name", o.Name)
	str(e, "code", o.Code)
	str(e, "description", o.Description)
	str(e, "discount_type", string(o.DiscountType))
	money(e, "discount_value", o.DiscountValue)
	money(e, "min_order_value", o.MinOrderValue)
	money(e, "max_discount", o.MaxDiscount)
	e.FieldStart("applicable_items")
	o.Applicability.Encode(e)
	timestamp(e, "start_date", o.StartDate)
	timestamp(e, "end_date", o.EndDate)
	e.FieldStart("active")
	e.Bool(o.Active)
	e.FieldStart("usage_count")
	e.Int(o.UsageCount)
	e.ObjEnd()
}

func encodeRule(e *jx.Encoder, r *packaging.Rule) {
	e.ObjStart()
	str(e, "id", r.ID)
	str(e, "name", r.Name)
	str(e, "applicable_type", string(r.ApplicableType))
	e.FieldStart("applicable_to")
	r.ApplicableTo.Encode(e)
	str(e, "charge_type", string(r.ChargeType))
	money(e, "charge_value", r.ChargeValue)
	e.FieldStart("active")
	e.Bool(r.Active)
	timestamp(e, "created_at", r.CreatedAt)
	e.ObjEnd()
}

func encodeQuote(e *jx.Encoder, q *checkout.Quote) {
	e.ObjStart()
	str(e, "id", q.Cart.ID)
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range q.Cart.Lines {
		e.ObjStart()
		str(e, "item_id", l.ItemID)
		str(e, "name", l.Name)
		str(e, "category", l.Category)
		money(e, "unit_price", l.UnitPrice)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		money(e, "packaging_charge", l.PackagingCharge)
		e.ObjEnd()
	}
	e.ArrEnd()
	str(e, "offer_state", string(q.Cart.OfferState))
	e.FieldStart("offer")
	if q.Offer != nil {
		encodeOffer(e, q.Offer)
	} else {
		e.Null()
	}
	if q.OfferRemoved != "" {
		str(e, "offer_removed", q.OfferRemoved)
	}
	money(e, "subtotal", q.Breakdown.Subtotal)
	money(e, "packaging_total", q.Breakdown.PackagingTotal)
	money(e, "discount_amount", q.Breakdown.DiscountAmount)
	money(e, "total", q.Breakdown.Total)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	str(e, "id", o.ID)
	e.FieldStart("customer")
	e.ObjStart()
	str(e, "id", o.Customer.ID)
	str(e, "name", o.Customer.Name)
	str(e, "phone", o.Customer.Phone)
	str(e, "email", o.Customer.Email)
	str(e, "address", o.Customer.Address)
	e.ObjEnd()
	e.FieldStart("items")
	encodeArr(e, o.Items, func(e *jx.Encoder, it *order.Item) {
		e.ObjStart()
		str(e, "menu_item_id", it.MenuItemID)
		str(e, "name", it.Name)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		money(e, "price", it.Price)
		money(e, "packaging_charge", it.PackagingCharge)
		e.ObjEnd()
	})
	money(e, "subtotal", o.Subtotal)
	money(e, "packaging_total", o.PackagingTotal)
	money(e, "discount_amount", o.DiscountAmount)
	money(e, "total", o.Total)
	if o.OfferCode != "" {
		str(e, "offer_code", o.OfferCode)
	}
	str(e, "status", string(o.Status))
	timestamp(e, "created_at", o.CreatedAt)
	timestamp(e, "updated_at", o.UpdatedAt)
	e.ObjEnd()
}

func encodeCustomer(e *jx.Encoder, c *customer.Customer) {
	e.ObjStart()
	str(e, "id", c.ID)
	str(e, "name", c.Name)
	str(e, "phone", c.Phone)
	str(e, "email", c.Email)
	str(e, "address", c.Address)
	e.FieldStart("orders")
	e.Int(c.Orders)
	money(e, "total_spent", c.TotalSpent)
	if c.LastOrder != nil {
		timestamp(e, "last_order", *c.LastOrder)
	}
	timestamp(e, "created_at", c.CreatedAt)
	e.ObjEnd()
}
