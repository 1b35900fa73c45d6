/**
 * @description
 * This file sets up the HTTP router for the custody service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CustodyRoutes creates and returns a new router for the custody service.
func CustodyRoutes(h *CustodyHandlers, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(jwksURL))

		// Inbound webhooks from the order system (service credential).
		r.Post("/webhooks/orders", h.IngestOrderHandler)
		r.Post("/webhooks/rider-events", h.IngestRiderEventHandler)

		// Rider bundle endpoints
		r.Post("/bundles", h.CreateBundleHandler)
		r.Get("/bundles", h.ListBundlesHandler)
		r.Get("/bundles/{bundleID}", h.GetBundleHandler)
		r.Get("/bundles/{bundleID}/orders", h.GetBundleOrdersHandler)
		r.Post("/bundles/{bundleID}/seal", h.SealBundleHandler)
		r.Post("/bundles/{bundleID}/decision", h.DecideBundleHandler)

		// ASM superbundle endpoints
		r.Post("/superbundles", h.CreateSuperBundleHandler)
		r.Get("/superbundles", h.ListSuperBundlesHandler)
		r.Get("/superbundles/{superbundleID}", h.GetSuperBundleHandler)
		r.Post("/superbundles/{superbundleID}/seal", h.SealSuperBundleHandler)
		r.Post("/superbundles/{superbundleID}/handover", h.HandoverSuperBundleHandler)
		r.Get("/handover", h.HandoverSummaryHandler)

		// Deposit endpoints
		r.Post("/deposits", h.CreateDepositHandler)
		r.Post("/deposits/legacy", h.CreateLegacyDepositHandler)
		r.Get("/deposits/{depositID}", h.GetDepositHandler)
		r.Get("/deposits/{depositID}/orders", h.GetDepositOrdersHandler)

		// Collection status endpoints
		r.Patch("/orders/{orderNumber}/collection-status", h.UpdateCollectionStatusHandler)
		r.Post("/orders/collection-status", h.BulkUpdateCollectionStatusHandler)

		// Simulator flag endpoints
		r.Get("/simulator/flags", h.GetSimulatorFlagsHandler)
		r.Put("/simulator/flags", h.UpdateSimulatorFlagsHandler)
	})

	return r
}
