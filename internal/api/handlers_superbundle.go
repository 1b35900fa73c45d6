/**
 * @description
 * HTTP handlers for ASM superbundle endpoints: aggregation of accepted
 * bundles, sealing, handover to an SM, reads, and the per-ASM handover
 * summary.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// CreateSuperBundleHandler handles POST /superbundles.
func (h *CustodyHandlers) CreateSuperBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var req domain.CreateSuperBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_superbundle outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sb, err := h.service.CreateSuperBundle(r.Context(), principal, req)
	if err != nil {
		h.handleServiceError(w, "create_superbundle", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sb)
}

// SealSuperBundleHandler handles POST /superbundles/{superbundleID}/seal.
func (h *CustodyHandlers) SealSuperBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, "superbundleID")
	if !ok {
		return
	}

	sb, err := h.service.SealSuperBundle(r.Context(), principal, id)
	if err != nil {
		h.handleServiceError(w, "seal_superbundle", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sb)
}

// HandoverSuperBundleHandler handles POST /superbundles/{superbundleID}/handover.
func (h *CustodyHandlers) HandoverSuperBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, "superbundleID")
	if !ok {
		return
	}

	var req domain.HandoverSuperBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=handover_superbundle outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SMID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, "sm_id is required")
		return
	}

	sb, err := h.service.HandoverSuperBundle(r.Context(), principal, id, req)
	if err != nil {
		h.handleServiceError(w, "handover_superbundle", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sb)
}

// GetSuperBundleHandler handles GET /superbundles/{superbundleID}.
func (h *CustodyHandlers) GetSuperBundleHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, "superbundleID")
	if !ok {
		return
	}

	sb, err := h.service.GetSuperBundle(r.Context(), principal, id)
	if err != nil {
		h.handleServiceError(w, "get_superbundle", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sb)
}

// ListSuperBundlesHandler handles GET /superbundles.
func (h *CustodyHandlers) ListSuperBundlesHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	limit, offset := listWindow(r)
	opts := domain.SuperBundleListOptions{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}

	sbs, err := h.service.ListSuperBundles(r.Context(), principal, opts)
	if err != nil {
		h.handleServiceError(w, "list_superbundles", err)
		return
	}
	if sbs == nil {
		sbs = []domain.ASMSuperBundle{}
	}
	h.writeJSON(w, http.StatusOK, sbs)
}

// HandoverSummaryHandler handles GET /handover. ASMs get their own summary;
// admins and SMs may pass ?asm_id= to inspect any ASM.
func (h *CustodyHandlers) HandoverSummaryHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var asmID uuid.UUID
	if raw := r.URL.Query().Get("asm_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid asm_id")
			return
		}
		asmID = parsed
	} else if principal.ASMID != nil {
		asmID = *principal.ASMID
	} else {
		h.writeError(w, http.StatusBadRequest, "asm_id is required")
		return
	}

	summary, err := h.service.GetHandoverSummary(r.Context(), principal, asmID)
	if err != nil {
		h.handleServiceError(w, "handover_summary", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}
