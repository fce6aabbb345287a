package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/service"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/health"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/middleware"
)

// RouterConfig holds the edge settings of the public API.
type RouterConfig struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered. ctx
// bounds the background cleanup of the rate limiter.
func NewRouter(
	ctx context.Context,
	cartService *service.CartService,
	storefrontService *service.StorefrontService,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins...)))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Tracing)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cartService, logger)
	storefrontHandler := NewStorefrontHandler(storefrontService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.OptionalAuth(validateToken))
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(Session)
		r.Use(middleware.RequestLogger(logger))

		r.Get("/products", storefrontHandler.ListProducts)
		r.Get("/products/categories", storefrontHandler.Categories)
		r.Get("/products/{productId}", storefrontHandler.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)

			r.Post("/merge", cartHandler.Merge)
			r.Get("/validate", cartHandler.Validate)

			r.With(RequireUser).Post("/sync", cartHandler.Sync)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Post("/checkout", cartHandler.Checkout)
			r.Get("/orders", storefrontHandler.ListOrders)
			r.Get("/orders/{orderId}", storefrontHandler.GetOrder)
		})
	})

	return r
}
