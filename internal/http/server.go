// Package http is the storefront gateway's JSON API. Every request belongs to
// a session named by the X-Session-ID header.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/checkout"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/events"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/storage"
)

// Backend is the part of the storefront REST API the handlers call directly.
type Backend interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Products(ctx context.Context, subcategory string) ([]domain.Product, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
	Order(ctx context.Context, id string) (*domain.Order, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
}

type Carts interface {
	Load(ctx context.Context, session string) (cart.Snapshot, error)
	Add(ctx context.Context, session string, item domain.CartItem) (cart.Snapshot, error)
	UpdateQuantity(ctx context.Context, session, itemID string, quantity int) (cart.Snapshot, error)
	Remove(ctx context.Context, session, itemID string) (cart.Snapshot, error)
	Clear(ctx context.Context, session string) (cart.Snapshot, error)
	Login(ctx context.Context, session string, user domain.User) (cart.Snapshot, error)
	Logout(ctx context.Context, session string) error
}

type Coupons interface {
	Current(ctx context.Context, session string) (*domain.Coupon, error)
	Apply(ctx context.Context, session, code string, subtotal domain.Money) (*domain.Coupon, error)
	Remove(ctx context.Context, session string) error
	Refresh(ctx context.Context, session string, subtotal domain.Money) (*domain.Coupon, error)
}

type Checkout interface {
	Submit(ctx context.Context, session string, req checkout.Request) (*checkout.Result, error)
	Regions(ctx context.Context) ([]domain.ShippingRegion, error)
	LastOrder(ctx context.Context, session string) (*domain.Order, error)
}

type Sessions interface {
	Resolve(id string) (string, bool)
	Touch(id string)
}

type Subscriber interface {
	Subscribe(session string, h events.Handler) func()
}

type Deps struct {
	Store     storage.Store
	Backend   Backend
	Carts     Carts
	Coupons   Coupons
	Checkouts Checkout
	Sessions  Sessions
	Bus       Subscriber

	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// Heartbeat is the SSE keep-alive interval.
	Heartbeat time.Duration
}

type Server struct {
	Deps
	prefsMu sync.Mutex
}

func NewServer(d Deps) *Server {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = 1 << 20
	}
	if d.Heartbeat <= 0 {
		d.Heartbeat = 25 * time.Second
	}
	return &Server{Deps: d}
}

// Routes builds the gateway router. The event stream sits outside the request
// timeout and compression.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(s.Sessions))

		r.Get("/events", s.Events)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.RequestTimeout))
			r.Use(middleware.RequestSize(s.MaxBodyBytes))
			r.Use(middleware.Compress(5))

			r.Get("/categories", s.Categories)
			r.Get("/products", s.Products)
			r.Get("/products/{id}", s.Product)
			r.Get("/shipping/regions", s.ShippingRegions)

			r.Route("/session", func(r chi.Router) {
				r.Post("/login", s.Login)
				r.Post("/register", s.Register)
				r.Post("/logout", s.Logout)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", s.GetCart)
				r.Delete("/", s.ClearCart)
				r.Post("/items", s.AddItem)
				r.Put("/items/{item_id}", s.UpdateQuantity)
				r.Delete("/items/{item_id}", s.RemoveItem)
				r.Get("/totals", s.Totals)
				r.Post("/coupon", s.ApplyCoupon)
				r.Delete("/coupon", s.RemoveCoupon)
			})

			r.Post("/checkout", s.Checkout)
			r.Get("/orders/last", s.LastOrder)
			r.Get("/orders/{id}", s.Order)

			r.Get("/wishlist", s.Wishlist)
			r.Put("/wishlist/{product_id}", s.ToggleWishlist)
			r.Get("/preferences/currency", s.Currency)
			r.Put("/preferences/currency", s.SetCurrency)
		})
	})

	return r
}

func (s *Server) local(r *http.Request) *storage.Local {
	return storage.NewLocal(s.Store, SessionID(r.Context()))
}
