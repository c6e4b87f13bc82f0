package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/hotel-delivery/internal/domain/checkout"
	"github.com/xenking/hotel-delivery/internal/domain/customer"
	"github.com/xenking/hotel-delivery/internal/domain/menu"
	"github.com/xenking/hotel-delivery/internal/domain/offer"
	"github.com/xenking/hotel-delivery/internal/domain/order"
	"github.com/xenking/hotel-delivery/internal/domain/packaging"
	"github.com/xenking/hotel-delivery/pkg/httpmiddleware"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in menu responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Services are the domain services the HTTP API delegates to.
type Services struct {
	Menu      *menu.Service
	Offers    *offer.Service
	Packaging *packaging.Service
	Checkout  *checkout.Service
	Orders    *order.Service
	Customers *customer.Service
}

// Handler serves the public ordering API and the back-office API.
type Handler struct {
	svc          Services
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain services.
func NewHandler(cfg HandlerConfig, svc Services) *Handler {
	return &Handler{svc: svc, imageBaseURL: cfg.ImageBaseURL}
}

// Guards are the access controls installed on parts of the route tree.
type Guards struct {
	// Admin protects /api/admin. Required.
	Admin httpmiddleware.Middleware
	// OfferAttempts throttles applying offer codes to a cart. Optional.
	OfferAttempts httpmiddleware.Middleware
}

// Routes builds the API router. routeMiddlewares run inside chi so they can
// see the matched route pattern.
func (h *Handler) Routes(g Guards, routeMiddlewares ...httpmiddleware.Middleware) http.Handler {
	offerGuard := g.OfferAttempts
	if offerGuard == nil {
		offerGuard = func(next http.Handler) http.Handler { return next }
	}
	r := chi.NewRouter()
	for _, m := range routeMiddlewares {
		r.Use(m)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.listMenu)
		r.Get("/menu/popular", h.popularMenu)
		r.Get("/menu/{itemID}", h.getMenuItem)
		r.Get("/offers", h.listActiveOffers)
		r.Get("/orders", h.ordersByPhone)

		r.Post("/carts", h.createCart)
		r.Route("/carts/{cartID}", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Post("/items", h.addCartItem)
			r.Patch("/items/{itemID}", h.updateCartItem)
			r.Delete("/items/{itemID}", h.removeCartItem)
			r.Get("/offers", h.eligibleOffers)
			r.With(offerGuard).Put("/offer", h.applyOffer)
			r.Delete("/offer", h.removeOffer)
			r.Post("/checkout", h.checkout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(g.Admin)

			r.Post("/menu", h.createMenuItem)
			r.Put("/menu/{itemID}", h.updateMenuItem)
			r.Delete("/menu/{itemID}", h.deleteMenuItem)

			r.Get("/offers", h.listOffers)
			r.Post("/offers", h.createOffer)
			r.Get("/offers/{offerID}", h.getOffer)
			r.Put("/offers/{offerID}", h.updateOffer)
			r.Delete("/offers/{offerID}", h.deleteOffer)

			r.Get("/packaging", h.listRules)
			r.Post("/packaging", h.createRule)
			r.Post("/packaging/bulk", h.bulkPackaging)
			r.Post("/packaging/recompute", h.recomputePackaging)
			r.Get("/packaging/{ruleID}", h.getRule)
			r.Put("/packaging/{ruleID}", h.updateRule)
			r.Delete("/packaging/{ruleID}", h.deleteRule)

			r.Get("/orders", h.listOrders)
			r.Get("/orders/{orderID}", h.getOrder)
			r.Patch("/orders/{orderID}/status", h.updateOrderStatus)

			r.Get("/customers", h.listCustomers)
			r.Get("/customers/{customerID}", h.getCustomer)

			r.Get("/stats", h.stats)
		})
	})
	return r
}
