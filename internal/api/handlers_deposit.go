/**
 * @description
 * HTTP handlers for deposit endpoints (superbundle-backed and legacy direct)
 * and for order collection-status updates.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// CreateDepositHandler handles POST /deposits.
func (h *CustodyHandlers) CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var req domain.CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_deposit outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deposit, err := h.service.CreateDepositFromSuperBundles(r.Context(), principal, req)
	if err != nil {
		h.handleServiceError(w, "create_deposit", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, deposit)
}

// CreateLegacyDepositHandler handles POST /deposits/legacy.
func (h *CustodyHandlers) CreateLegacyDepositHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var req domain.CreateLegacyDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_legacy_deposit outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deposit, err := h.service.CreateLegacyDeposit(r.Context(), principal, req)
	if err != nil {
		h.handleServiceError(w, "create_legacy_deposit", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, deposit)
}

// GetDepositHandler handles GET /deposits/{depositID}.
func (h *CustodyHandlers) GetDepositHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, "depositID")
	if !ok {
		return
	}

	deposit, err := h.service.GetDeposit(r.Context(), principal, id)
	if err != nil {
		h.handleServiceError(w, "get_deposit", err)
		return
	}
	h.writeJSON(w, http.StatusOK, deposit)
}

// GetDepositOrdersHandler handles GET /deposits/{depositID}/orders.
func (h *CustodyHandlers) GetDepositOrdersHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, "depositID")
	if !ok {
		return
	}

	orders, err := h.service.GetDepositOrders(r.Context(), principal, id)
	if err != nil {
		h.handleServiceError(w, "get_deposit_orders", err)
		return
	}
	if orders == nil {
		orders = []domain.DepositOrder{}
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// UpdateCollectionStatusHandler handles PATCH /orders/{orderNumber}/collection-status.
func (h *CustodyHandlers) UpdateCollectionStatusHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid orderNumber")
		return
	}

	var upd domain.OrderCollectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		log.Printf("level=warn component=api endpoint=update_collection_status outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	upd.OrderNumber = orderNumber

	if err := h.service.UpdateCollectionStatus(r.Context(), principal, upd); err != nil {
		h.handleServiceError(w, "update_collection_status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// BulkUpdateCollectionStatusHandler handles POST /orders/collection-status.
// Per-order failures are reported alongside the successes; the call itself
// succeeds when at least the payload was well-formed.
func (h *CustodyHandlers) BulkUpdateCollectionStatusHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var req struct {
		Updates []domain.OrderCollectionUpdate `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=bulk_collection_status outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Updates) == 0 {
		h.writeError(w, http.StatusBadRequest, "At least one update is required")
		return
	}

	failures := h.service.UpdateCollectionStatusBulk(r.Context(), principal, req.Updates)
	failed := make(map[string]string, len(failures))
	for orderNumber, err := range failures {
		failed[orderNumber] = err.Error()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated": len(req.Updates) - len(failures),
		"failed":  failed,
	})
}
