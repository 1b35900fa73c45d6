/**
 * @description
 * HTTP handlers for the simulator feature flags. Updates are compare-and-set:
 * the caller submits the version it read and loses with a 409 if someone else
 * wrote first.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// GetSimulatorFlagsHandler handles GET /simulator/flags.
func (h *CustodyHandlers) GetSimulatorFlagsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	flags, err := h.service.GetSimulatorFlags(r.Context(), principal)
	if err != nil {
		h.handleServiceError(w, "get_simulator_flags", err)
		return
	}
	h.writeJSON(w, http.StatusOK, flags)
}

// UpdateSimulatorFlagsHandler handles PUT /simulator/flags.
func (h *CustodyHandlers) UpdateSimulatorFlagsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var req domain.UpdateSimulatorFlagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=update_simulator_flags outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flags, err := h.service.UpdateSimulatorFlags(r.Context(), principal, req)
	if err != nil {
		h.handleServiceError(w, "update_simulator_flags", err)
		return
	}
	h.writeJSON(w, http.StatusOK, flags)
}
