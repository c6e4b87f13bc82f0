package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
	"github.com/xenking/hotel-delivery/internal/domain/packaging"
)

// requestBody is a request DTO that reads itself from JSON. Unknown fields
// are skipped.
type requestBody interface {
	Decode(d *jx.Decoder) error
}

// decodeBody reads a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst requestBody) error {
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), 4096)
	if err := dst.Decode(d); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// decodeString reads a string, treating null as empty.
func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeDecimal accepts a JSON number or a numeric string. Null is zero.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Decimal{}, errors.Errorf("expected number, got %v", d.Next())
	}
}

// decodeOptBool returns nil for null so callers can apply their default.
func decodeOptBool(d *jx.Decoder) (*bool, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Bool()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeTime reads an RFC 3339 timestamp. Null is the zero time.
func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeString(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

func fieldErr(field string, err error) error {
	if err != nil {
		return errors.Wrap(err, field)
	}
	return nil
}

func (req *addItemRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		switch string(key) {
		case "item_id":
			req.ItemID, err = decodeString(d)
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return fieldErr(string(key), err)
	})
}

func (req *quantityRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		if string(key) != "quantity" {
			return d.Skip()
		}
		req.Quantity, err = d.Int()
		return fieldErr("quantity", err)
	})
}

func (req *applyOfferRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		if string(key) != "code" {
			return d.Skip()
		}
		req.Code, err = decodeString(d)
		return fieldErr("code", err)
	})
}

func (req *checkoutRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		switch string(key) {
		case "name":
			req.Name, err = decodeString(d)
		case "phone":
			req.Phone, err = decodeString(d)
		case "email":
			req.Email, err = decodeString(d)
		case "address":
			req.Address, err = decodeString(d)
		default:
			return d.Skip()
		}
		return fieldErr(string(key), err)
	})
}

func (req *statusRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "status" {
			return d.Skip()
		}
		s, err := decodeString(d)
		req.Status = order.Status(s)
		return fieldErr("status", err)
	})
}

func (req *menuItemRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		switch string(key) {
		case "name":
			req.Name, err = decodeString(d)
		case "description":
			req.Description, err = decodeString(d)
		case "price":
			req.Price, err = decodeDecimal(d)
		case "category":
			req.Category, err = decodeString(d)
		case "veg":
			req.Veg, err = d.Bool()
		case "available":
			req.Available, err = decodeOptBool(d)
		case "image":
			req.Image, err = decodeString(d)
		case "rating":
			req.Rating, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		return fieldErr(string(key), err)
	})
}

func (req *offerRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		switch string(key) {
		case "name":
			req.Name, err = decodeString(d)
		case "code":
			req.Code, err = decodeString(d)
		case "description":
			req.Description, err = decodeString(d)
		case "discount_type":
			var s string
			s, err = decodeString(d)
			req.DiscountType = offer.DiscountType(s)
		case "discount_value":
			req.DiscountValue, err = decodeDecimal(d)
		case "min_order_value":
			req.MinOrderValue, err = decodeDecimal(d)
		case "max_discount":
			req.MaxDiscount, err = decodeDecimal(d)
		case "applicable_items":
			if d.Next() == jx.Null {
				return d.Null()
			}
			req.ApplicableItems = &offer.Applicability{}
			err = req.ApplicableItems.Decode(d)
		case "start_date":
			req.StartDate, err = decodeTime(d)
		case "end_date":
			req.EndDate, err = decodeTime(d)
		case "active":
			req.Active, err = decodeOptBool(d)
		default:
			return d.Skip()
		}
		return fieldErr(string(key), err)
	})
}

func (req *ruleRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		switch string(key) {
		case "name":
			req.Name, err = decodeString(d)
		case "applicable_type":
			var s string
			s, err = decodeString(d)
			req.ApplicableType = packaging.ApplicableType(s)
		case "applicable_to":
			if d.Next() == jx.Null {
				return d.Null()
			}
			req.ApplicableTo = &packaging.Scope{}
			err = req.ApplicableTo.Decode(d)
		case "charge_type":
			var s string
			s, err = decodeString(d)
			req.ChargeType = packaging.ChargeType(s)
		case "charge_value":
			req.ChargeValue, err = decodeDecimal(d)
		case "active":
			req.Active, err = decodeOptBool(d)
		default:
			return d.Skip()
		}
		return fieldErr(string(key), err)
	})
}

func (req *bulkRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) (err error) {
		switch string(key) {
		case "item_ids":
			if d.Next() == jx.Null {
				return d.Null()
			}
			req.ItemIDs = []string{}
			err = d.Arr(func(d *jx.Decoder) error {
				id, err := d.Str()
				if err != nil {
					return err
				}
				req.ItemIDs = append(req.ItemIDs, id)
				return nil
			})
		case "charge":
			req.Charge, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		return fieldErr(string(key), err)
	})
}
