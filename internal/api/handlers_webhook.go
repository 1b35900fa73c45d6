/**
 * @description
 * Webhook handlers for inbound order and rider-event ingestion. These are
 * machine-to-machine endpoints: the upstream order system authenticates with a
 * service credential, so no principal is resolved.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// IngestOrderHandler handles POST /webhooks/orders. Replays of the same
// order_number are acknowledged with the existing order and a 200 instead of
// a 201.
func (h *CustodyHandlers) IngestOrderHandler(w http.ResponseWriter, r *http.Request) {
	var hook domain.OrderWebhook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		log.Printf("level=warn component=api endpoint=ingest_order outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, created, err := h.service.IngestOrder(r.Context(), hook)
	if err != nil {
		h.handleServiceError(w, "ingest_order", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, order)
}

// IngestRiderEventHandler handles POST /webhooks/rider-events.
func (h *CustodyHandlers) IngestRiderEventHandler(w http.ResponseWriter, r *http.Request) {
	var hook domain.RiderEventWebhook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		log.Printf("level=warn component=api endpoint=ingest_rider_event outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if hook.OrderNumber == "" {
		h.writeError(w, http.StatusBadRequest, "order_number is required")
		return
	}

	order, err := h.service.IngestRiderEvent(r.Context(), hook)
	if err != nil {
		h.handleServiceError(w, "ingest_rider_event", err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}
