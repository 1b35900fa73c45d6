/**
 * @description
 * HTTP handlers for rider bundle endpoints: creation, sealing, the ASM
 * accept/reject decision, and reads.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// CreateBundleHandler handles POST /bundles.
func (h *CustodyHandlers) CreateBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var req domain.CreateBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_bundle outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bundle, err := h.service.CreateBundle(r.Context(), principal, req)
	if err != nil {
		h.handleServiceError(w, "create_bundle", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, bundle)
}

// SealBundleHandler handles POST /bundles/{bundleID}/seal.
func (h *CustodyHandlers) SealBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	bundleID, ok := h.parseIDParam(w, r, "bundleID")
	if !ok {
		return
	}

	bundle, err := h.service.SealBundle(r.Context(), principal, bundleID)
	if err != nil {
		h.handleServiceError(w, "seal_bundle", err)
		return
	}
	h.writeJSON(w, http.StatusOK, bundle)
}

// DecideBundleHandler handles POST /bundles/{bundleID}/decision.
func (h *CustodyHandlers) DecideBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	bundleID, ok := h.parseIDParam(w, r, "bundleID")
	if !ok {
		return
	}

	var req domain.BundleDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=decide_bundle outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bundle, err := h.service.DecideBundle(r.Context(), principal, bundleID, req)
	if err != nil {
		h.handleServiceError(w, "decide_bundle", err)
		return
	}
	h.writeJSON(w, http.StatusOK, bundle)
}

// GetBundleHandler handles GET /bundles/{bundleID}.
func (h *CustodyHandlers) GetBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	bundleID, ok := h.parseIDParam(w, r, "bundleID")
	if !ok {
		return
	}

	bundle, err := h.service.GetBundle(r.Context(), principal, bundleID)
	if err != nil {
		h.handleServiceError(w, "get_bundle", err)
		return
	}
	h.writeJSON(w, http.StatusOK, bundle)
}

// GetBundleOrdersHandler handles GET /bundles/{bundleID}/orders.
func (h *CustodyHandlers) GetBundleOrdersHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	bundleID, ok := h.parseIDParam(w, r, "bundleID")
	if !ok {
		return
	}

	orders, err := h.service.GetBundleOrders(r.Context(), principal, bundleID)
	if err != nil {
		h.handleServiceError(w, "get_bundle_orders", err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// ListBundlesHandler handles GET /bundles.
func (h *CustodyHandlers) ListBundlesHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	limit, offset := listWindow(r)
	opts := domain.BundleListOptions{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}

	bundles, err := h.service.ListBundles(r.Context(), principal, opts)
	if err != nil {
		h.handleServiceError(w, "list_bundles", err)
		return
	}
	if bundles == nil {
		bundles = []domain.RiderBundle{}
	}
	h.writeJSON(w, http.StatusOK, bundles)
}
