/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/products/*      Catalog, stock movements, thresholds, history
  /api/orders/*        Order lifecycle commands
  /api/transactions    The full movement log
  /api/alerts          Collected threshold alerts

SECURITY NOTE:
  No authentication middleware. The consumer is a trusted local UI.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.AddProduct)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", h.GetProduct)
				r.Get("/transactions", h.ProductHistory)
				r.Post("/stock-in", h.StockIn)
				r.Post("/stock-out", h.StockOut)
				r.Post("/adjust", h.AdjustStock)
				r.Post("/reorder-point", h.SetReorderPoint)
				r.Post("/max-stock", h.SetMaxStock)
				r.Post("/allocatable", h.SetAllocatable)
			})
		})

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Route("/{trans}/{seq}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Post("/allocate", h.AllocateOrder)
				r.Post("/ship", h.ShipOrder)
				r.Post("/cancel", h.CancelOrder)
				r.Post("/produce", h.ProduceForOrder)
			})
		})

		// Audit routes
		r.Get("/transactions", h.ListTransactions)
		r.Get("/alerts", h.ListAlerts)
	})

	return r
}
