package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/domain/cart"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/menu"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
	"github.com/xenking/hotel-delivery/internal/domain/pricing"
)

const instrumentationName = "github.com/xenking/hotel-delivery/internal/domain/checkout"

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the tracer provider for checkout spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the meter provider for checkout counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// Service runs the customer-facing checkout flow: building a cart,
// applying a code and placing the order.
type Service struct {
	carts     cart.Store
	menu      menu.Reader
	offers    Offers
	orders    order.Repository
	customers Customers
	now       func() time.Time

	tracer trace.Tracer
	meter  metric.Meter

	ordersPlaced    metric.Int64Counter
	offersRejected  metric.Int64Counter
	discountGranted metric.Float64Counter
}

// NewService creates a checkout Service.
func NewService(
	carts cart.Store,
	menuReader menu.Reader,
	offers Offers,
	orders order.Repository,
	customers Customers,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		carts:     carts,
		menu:      menuReader,
		offers:    offers,
		orders:    orders,
		customers: customers,
		now:       time.Now,
		tracer:    tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:     metricnoop.NewMeterProvider().Meter(instrumentationName),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.ordersPlaced, err = s.meter.Int64Counter("checkout.orders.placed",
		metric.WithDescription("Orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	if s.offersRejected, err = s.meter.Int64Counter("checkout.offers.rejected",
		metric.WithDescription("Offer codes rejected during validation"),
	); err != nil {
		return nil, errors.Wrap(err, "rejections counter")
	}
	if s.discountGranted, err = s.meter.Float64Counter("checkout.discount.granted",
		metric.WithDescription("Discount granted on placed orders"),
	); err != nil {
		return nil, errors.Wrap(err, "discount counter")
	}
	return s, nil
}

// NewCart starts an empty cart.
func (s *Service) NewCart(ctx context.Context) (*Quote, error) {
	sess := cart.NewSession(uuid.New().String(), s.now())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return s.quote(ctx, sess)
}

// Quote prices the cart as it stands. An applied offer that stopped
// validating (expired, subtotal dropped below the minimum) is removed.
func (s *Service) Quote(ctx context.Context, cartID string) (*Quote, error) {
	sess, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, sess)
}

// AddItem adds qty units of a menu item to the cart.
func (s *Service) AddItem(ctx context.Context, cartID, itemID string, qty int) (*Quote, error) {
	if qty <= 0 {
		return nil, cart.ErrInvalidQuantity
	}
	sess, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	item, err := s.menu.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			return nil, &ItemNotFoundError{ItemID: itemID}
		}
		return nil, errors.Wrap(err, "get menu item")
	}
	if !item.Available {
		return nil, &ItemUnavailableError{ItemID: item.ID, Name: item.Name}
	}

	if err := sess.AddItem(lineFor(item, qty)); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return s.quote(ctx, sess)
}

// UpdateQuantity changes a line's quantity; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, itemID string, qty int) (*Quote, error) {
	return s.mutate(ctx, cartID, func(sess *cart.Session) error {
		return sess.UpdateQuantity(itemID, qty)
	})
}

// RemoveItem drops a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*Quote, error) {
	return s.mutate(ctx, cartID, func(sess *cart.Session) error {
		return sess.RemoveItem(itemID)
	})
}

// RemoveOffer detaches the applied offer.
func (s *Service) RemoveOffer(ctx context.Context, cartID string) (*Quote, error) {
	return s.mutate(ctx, cartID, func(sess *cart.Session) error {
		sess.RemoveOffer()
		return nil
	})
}

// ApplyOffer validates code against the cart and attaches it on success.
// A rejected code leaves the cart without an offer.
func (s *Service) ApplyOffer(ctx context.Context, cartID, code string) (*Quote, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.ApplyOffer")
	defer span.End()

	sess, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	code = offer.NormalizeCode(code)
	span.SetAttributes(attribute.String("offer.code", code))
	sess.BeginOfferValidation(code)

	subtotal := pricing.Subtotal(sess.Lines)
	if _, err := offer.Validate(ctx, s.offers, code, subtotal, s.now()); err != nil {
		if !isOfferRejection(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validate offer")
			return nil, err
		}
		s.offersRejected.Add(ctx, 1)
		if rejectErr := sess.RejectOffer(); rejectErr != nil {
			return nil, rejectErr
		}
		if saveErr := s.save(ctx, sess); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}

	if err := sess.ConfirmOffer(code); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return s.quote(ctx, sess)
}

// EligibleOffers lists the currently valid offers worth suggesting for the cart.
func (s *Service) EligibleOffers(ctx context.Context, cartID string) ([]offer.Offer, error) {
	sess, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.offers.ListActive(ctx, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "list active offers")
	}
	return offer.FilterEligible(candidates, sess.Lines, pricing.Subtotal(sess.Lines)), nil
}

// PlaceOrder turns the cart into an order.
//
// Lines are re-priced from the current menu and the applied offer is
// validated once more before the totals are frozen into the order. Offer
// usage is counted by the order repository as part of persisting the order.
func (s *Service) PlaceOrder(ctx context.Context, cartID string, details customer.Details) (*order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()

	o, err := s.placeOrder(ctx, cartID, details)
	if err != nil {
		if !isOfferRejection(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "place order")
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("offer.code", o.OfferCode),
	)
	return o, nil
}

func (s *Service) placeOrder(ctx context.Context, cartID string, details customer.Details) (*order.Order, error) {
	details, err := details.Normalize()
	if err != nil {
		return nil, err
	}
	sess, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if sess.IsEmpty() {
		return nil, ErrEmptyCart
	}

	lines, err := s.refreshLines(ctx, sess.Lines)
	if err != nil {
		return nil, err
	}

	var applied *offer.Offer
	if code := sess.AppliedCode(); code != "" {
		applied, err = offer.Validate(ctx, s.offers, code, pricing.Subtotal(lines), s.now())
		if err != nil {
			if isOfferRejection(err) {
				s.offersRejected.Add(ctx, 1)
				sess.RemoveOffer()
				if saveErr := s.save(ctx, sess); saveErr != nil {
					return nil, saveErr
				}
			}
			return nil, err
		}
	}

	b, err := pricing.Compose(lines, applied)
	if err != nil {
		return nil, err
	}

	cust, err := s.customers.FindOrCreate(ctx, details)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &order.Order{
		ID: uuid.New().String(),
		Customer: order.Customer{
			ID:      cust.ID,
			Name:    details.Name,
			Phone:   details.Phone,
			Email:   details.Email,
			Address: details.Address,
		},
		Items:          orderItems(lines),
		Subtotal:       b.Subtotal,
		PackagingTotal: b.PackagingTotal,
		DiscountAmount: b.DiscountAmount,
		Total:          b.Total,
		Status:         order.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if applied != nil {
		o.OfferCode = applied.Code
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	lg := zctx.From(ctx)
	if err := s.carts.Delete(ctx, sess.ID); err != nil {
		lg.Warn("Failed to delete cart after order", zap.String("cart_id", sess.ID), zap.Error(err))
	}

	s.ordersPlaced.Add(ctx, 1)
	if b.DiscountAmount.IsPositive() {
		s.discountGranted.Add(ctx, b.DiscountAmount.InexactFloat64(),
			metric.WithAttributes(attribute.String("offer.code", o.OfferCode)),
		)
	}
	lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("customer_id", cust.ID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("offer_code", o.OfferCode),
	)
	return o, nil
}

func (s *Service) mutate(ctx context.Context, cartID string, fn func(*cart.Session) error) (*Quote, error) {
	sess, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return s.quote(ctx, sess)
}

func (s *Service) quote(ctx context.Context, sess *cart.Session) (*Quote, error) {
	q := &Quote{Cart: sess}

	if code := sess.AppliedCode(); code != "" {
		o, err := offer.Validate(ctx, s.offers, code, pricing.Subtotal(sess.Lines), s.now())
		switch {
		case err == nil:
			q.Offer = o
		case isOfferRejection(err):
			sess.RemoveOffer()
			q.OfferRemoved = err.Error()
			if err := s.save(ctx, sess); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	b, err := pricing.Compose(sess.Lines, q.Offer)
	if err != nil {
		return nil, err
	}
	q.Breakdown = b
	return q, nil
}

// refreshLines re-reads every line from the menu so the order is priced
// with current prices and packaging charges.
func (s *Service) refreshLines(ctx context.Context, lines []cart.Line) ([]cart.Line, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ItemID
	}
	items, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get menu items")
	}
	byID := make(map[string]*menu.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	refreshed := make([]cart.Line, len(lines))
	for i, l := range lines {
		item, ok := byID[l.ItemID]
		if !ok {
			return nil, &ItemNotFoundError{ItemID: l.ItemID}
		}
		if !item.Available {
			return nil, &ItemUnavailableError{ItemID: item.ID, Name: item.Name}
		}
		refreshed[i] = lineFor(item, l.Quantity)
	}
	return refreshed, nil
}

func (s *Service) save(ctx context.Context, sess *cart.Session) error {
	sess.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, sess); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

func lineFor(item *menu.Item, qty int) cart.Line {
	return cart.Line{
		ItemID:          item.ID,
		Name:            item.Name,
		Category:        item.Category,
		UnitPrice:       item.Price,
		Quantity:        qty,
		PackagingCharge: item.PackagingCharge,
	}
}

func orderItems(lines []cart.Line) []order.Item {
	items := make([]order.Item, len(lines))
	for i, l := range lines {
		items[i] = order.Item{
			MenuItemID:      l.ItemID,
			Name:            l.Name,
			Quantity:        l.Quantity,
			Price:           l.UnitPrice,
			PackagingCharge: l.PackagingCharge,
		}
	}
	return items
}
