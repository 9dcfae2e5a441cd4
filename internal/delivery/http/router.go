package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ovenbird/cakeshop-reviews/internal/config"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/handler"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/middleware"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/response"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	reviewHandler *handler.ReviewHandler
	ratingHandler *handler.RatingHandler
	billHandler   *handler.BillHandler
	registry      *prometheus.Registry
	logger        *logger.Logger
	cfg           *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	reviewHandler *handler.ReviewHandler,
	ratingHandler *handler.RatingHandler,
	billHandler *handler.BillHandler,
	registry *prometheus.Registry,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		reviewHandler: reviewHandler,
		ratingHandler: ratingHandler,
		billHandler:   billHandler,
		registry:      registry,
		logger:        log,
		cfg:           cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/{id}/rating", rt.reviewHandler.GetRating)
			r.Get("/{id}/reviews", rt.reviewHandler.GetByProductID)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", rt.reviewHandler.Create)
		})

		r.Route("/ratings", func(r chi.Router) {
			r.Post("/batch", rt.ratingHandler.Batch)
		})

		r.Route("/bills", func(r chi.Router) {
			r.Get("/{id}/review-status", rt.billHandler.GetBillStatus)
			r.Get("/{id}/products/{productId}/review-status", rt.billHandler.GetProductStatus)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Post("/clear", rt.reviewHandler.ClearCache)
			r.Post("/refresh", rt.reviewHandler.RefreshCache)
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
