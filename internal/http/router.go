package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/middleware"
)

type Deps struct {
	Checkout Checkout
	Metrics  http.Handler
	Logger   *zap.Logger

	CORSAllowOrigins []string
	CORSMaxAge       time.Duration
	RequestTimeout   time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowOrigins: d.CORSAllowOrigins,
		MaxAge:       d.CORSMaxAge,
	}))

	h := NewHandler(d.Checkout)

	r.Get("/health", h.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireIdentity)
		r.Use(chimw.Timeout(d.RequestTimeout))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/selection/toggle", h.ToggleSelection)
			r.Post("/selection/toggle-all", h.ToggleAll)
			r.Post("/items/{itemId}/quantity", h.ChangeQuantity)
			r.Delete("/items/{itemId}", h.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Put("/draft", h.SaveDraft)
			r.Get("/draft", h.GetDraft)
			r.Delete("/draft", h.AbandonDraft)
			r.Get("/summary", h.Summary)
			r.Post("/orders", h.PlaceOrder)
		})

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderId}", h.GetOrder)
	})

	return r
}
