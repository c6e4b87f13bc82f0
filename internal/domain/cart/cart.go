// Package cart holds the customer's cart lines and the offer state machine
// that guards when a discount code counts as applied.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by a Store when the session does not exist or expired.
	ErrNotFound = errors.New("cart not found")
	// ErrInvalidQuantity is returned when a line is added with a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrOfferTransition is returned when an offer transition is requested
	// from a state that does not allow it.
	ErrOfferTransition = errors.New("invalid offer state transition")
)

// LineNotFoundError indicates the cart has no line for the given menu item.
type LineNotFoundError struct {
	ItemID string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("item %s is not in the cart", e.ItemID)
}

// Line is one menu item in the cart. UnitPrice and PackagingCharge are
// per-unit amounts snapshotted from the catalog when the line was added.
type Line struct {
	ItemID          string          `json:"item_id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	PackagingCharge decimal.Decimal `json:"packaging_charge"`
}

// OfferState is the state of the discount code attached to a session.
type OfferState string

const (
	OfferNone       OfferState = "no_offer"
	OfferValidating OfferState = "validating"
	OfferApplied    OfferState = "applied"
)

// Session is a cart being built by a customer.
//
// Any change to Lines drops the applied offer: a discount is only valid for
// the exact lines it was validated against.
type Session struct {
	ID         string     `json:"id"`
	Lines      []Line     `json:"lines"`
	OfferState OfferState `json:"offer_state"`
	OfferCode  string     `json:"offer_code,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewSession returns an empty session with no offer.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		Lines:      []Line{},
		OfferState: OfferNone,
		UpdatedAt:  now,
	}
}

// Store persists sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// IsEmpty reports whether the session has no lines.
func (s *Session) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Line returns the line for itemID.
func (s *Session) Line(itemID string) (Line, bool) {
	if i := s.index(itemID); i >= 0 {
		return s.Lines[i], true
	}
	return Line{}, false
}

// AddItem adds l to the cart, merging quantities when the item is already present.
// The price snapshot of an existing line is refreshed from l.
func (s *Session) AddItem(l Line) error {
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i := s.index(l.ItemID); i >= 0 {
		l.Quantity += s.Lines[i].Quantity
		s.Lines[i] = l
	} else {
		s.Lines = append(s.Lines, l)
	}
	s.invalidateOffer()
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line.
func (s *Session) UpdateQuantity(itemID string, qty int) error {
	i := s.index(itemID)
	if i < 0 {
		return &LineNotFoundError{ItemID: itemID}
	}
	if qty <= 0 {
		s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
	} else {
		s.Lines[i].Quantity = qty
	}
	s.invalidateOffer()
	return nil
}

// RemoveItem drops the line for itemID.
func (s *Session) RemoveItem(itemID string) error {
	return s.UpdateQuantity(itemID, 0)
}

// ReplaceLines swaps in refreshed lines, e.g. after re-reading catalog prices.
func (s *Session) ReplaceLines(lines []Line) {
	s.Lines = lines
	s.invalidateOffer()
}

// Clear removes every line.
func (s *Session) Clear() {
	s.Lines = []Line{}
	s.invalidateOffer()
}

// BeginOfferValidation marks code as being validated. Allowed from any state;
// a previously applied code is replaced.
func (s *Session) BeginOfferValidation(code string) {
	s.OfferState = OfferValidating
	s.OfferCode = code
}

// ConfirmOffer completes a validation started for the same code.
func (s *Session) ConfirmOffer(code string) error {
	if s.OfferState != OfferValidating || s.OfferCode != code {
		return errors.Wrapf(ErrOfferTransition, "confirm %q from %s", code, s.OfferState)
	}
	s.OfferState = OfferApplied
	return nil
}

// RejectOffer abandons a validation in progress.
func (s *Session) RejectOffer() error {
	if s.OfferState != OfferValidating {
		return errors.Wrapf(ErrOfferTransition, "reject from %s", s.OfferState)
	}
	s.invalidateOffer()
	return nil
}

// RemoveOffer drops any offer.
func (s *Session) RemoveOffer() {
	s.invalidateOffer()
}

// AppliedCode returns the applied code, or "" when no offer is applied.
func (s *Session) AppliedCode() string {
	if s.OfferState != OfferApplied {
		return ""
	}
	return s.OfferCode
}

func (s *Session) invalidateOffer() {
	s.OfferState = OfferNone
	s.OfferCode = ""
}

func (s *Session) index(itemID string) int {
	for i := range s.Lines {
		if s.Lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}
