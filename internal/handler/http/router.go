package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unseen32online/UNSEEN.IL/internal/service"
	"github.com/unseen32online/UNSEEN.IL/pkg/health"
	"github.com/unseen32online/UNSEEN.IL/pkg/middleware"
)

const serviceName = "storefront"

// Services are the application services the router exposes.
type Services struct {
	Products  *service.ProductService
	Carts     *service.CartService
	Checkout  *service.CheckoutService
	Orders    *service.OrderService
	Analytics *service.AnalyticsService
}

// RouterConfig carries the HTTP-facing settings.
type RouterConfig struct {
	AdminToken     string
	OrdersListMax  int
	RequestTimeout time.Duration
	PprofCIDRs     []string
	CORS           middleware.CORSConfig

	// Per-client limit on requests that charge a card. Zero disables it.
	ChargeRateRPS   float64
	ChargeRateBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.NotFound(notFound)

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	products := NewProductHandler(svc.Products, logger)
	carts := NewCartHandler(svc.Carts, logger)
	checkout := NewCheckoutHandler(svc.Checkout, logger)
	orders := NewOrderHandler(svc.Orders, cfg.OrdersListMax, logger)
	analytics := NewAnalyticsHandler(svc.Analytics, logger)
	operatorOnly := middleware.BearerAuth(middleware.StaticToken(cfg.AdminToken, middleware.RoleOperator))
	chargeLimit := middleware.RateLimit(cfg.ChargeRateRPS, cfg.ChargeRateBurst, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.CacheControl(60))
			r.Get("/", products.ListProducts)
			r.Get("/{id}", products.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items", carts.SetQuantity)
			r.Delete("/items", carts.RemoveItem)
		})

		r.With(middleware.NoStore, chargeLimit).Post("/checkout", checkout.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.NoStore)

			// Shopper-facing: the confirmation page and payment retry.
			r.Get("/number/{orderNumber}", orders.GetOrderByNumber)
			r.With(chargeLimit).Post("/{id}/payment", checkout.RetryPayment)

			r.Group(func(r chi.Router) {
				r.Use(operatorOnly)
				r.Get("/", orders.ListOrders)
				r.Get("/{id}", orders.GetOrder)
				r.Patch("/{id}", orders.UpdateOrder)
			})
		})

		r.With(operatorOnly, middleware.NoStore).Get("/analytics", analytics.GetSummary)
	})

	return r
}
