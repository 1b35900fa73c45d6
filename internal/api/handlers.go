/**
 * @description
 * This file contains the shared plumbing for the custody service's HTTP
 * handlers: the handler struct, principal resolution, the service-error to
 * HTTP-status mapping, and JSON response helpers. Handlers are responsible for
 * parsing incoming requests, calling the appropriate methods on the
 * application service, and writing the HTTP response. They act as the bridge
 * between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/app"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/store"
)

// CustodyHandlers holds the application service that handlers will use.
type CustodyHandlers struct {
	service *app.Service
}

// NewCustodyHandlers creates a new instance of CustodyHandlers.
func NewCustodyHandlers(service *app.Service) *CustodyHandlers {
	return &CustodyHandlers{service: service}
}

// resolvePrincipal turns the verified bearer subject on the request into the
// acting principal, writing the error response itself on failure.
func (h *CustodyHandlers) resolvePrincipal(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	subject, ok := GetAuthSubject(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get subject from context")
		return nil, false
	}

	principal, err := h.service.ResolvePrincipal(r.Context(), subject)
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			log.Printf("level=warn component=api outcome=reject reason=unknown_principal subject=%s", subject)
			h.writeError(w, http.StatusForbidden, "No custody profile for this credential")
			return nil, false
		}
		log.Printf("level=error component=api msg=\"principal resolution failed\" subject=%s err=%v", subject, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to resolve acting user")
		return nil, false
	}
	return principal, true
}

// parseIDParam parses the named chi URL parameter as a UUID, writing the error
// response itself on failure.
func (h *CustodyHandlers) parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service and store errors onto HTTP statuses:
// validation failures are 400, scope violations 403, missing entities 404,
// concurrent-write losers 409, ingestion pause 503. The error text carries the
// expected-vs-actual detail the service composed.
func (h *CustodyHandlers) handleServiceError(w http.ResponseWriter, endpoint string, err error) {
	var rateErr *app.RateLimitExceededError
	switch {
	case errors.Is(err, app.ErrInvalidBreakdown),
		errors.Is(err, app.ErrDenominationMismatch),
		errors.Is(err, app.ErrEmptyOrderSet),
		errors.Is(err, app.ErrEmptyBundleSet),
		errors.Is(err, app.ErrEmptySuperBundleSet),
		errors.Is(err, app.ErrSignoffRequired),
		errors.Is(err, app.ErrRejectionReasonMissing),
		errors.Is(err, app.ErrInvalidDecision),
		errors.Is(err, app.ErrInvalidEventType),
		errors.Is(err, app.ErrDepositNumberMissing),
		errors.Is(err, app.ErrOrdersNotEligible),
		errors.Is(err, app.ErrBundlesNotEligible),
		errors.Is(err, app.ErrSuperBundlesNotEligible),
		errors.Is(err, app.ErrStateConflict),
		errors.Is(err, store.ErrStateConflict):
		h.writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, app.ErrForbidden), errors.Is(err, store.ErrNotOwned):
		h.writeError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrBundleNotFound),
		errors.Is(err, store.ErrSuperBundleNotFound),
		errors.Is(err, store.ErrDepositNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, store.ErrOrderAlreadyBundled),
		errors.Is(err, store.ErrBundleAlreadyIncluded),
		errors.Is(err, store.ErrDuplicateDepositNumber),
		errors.Is(err, store.ErrFlagsVersionConflict):
		h.writeError(w, http.StatusConflict, err.Error())

	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
		h.writeError(w, http.StatusTooManyRequests, err.Error())

	case errors.Is(err, app.ErrIngestPaused):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())

	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled service error\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// maxListLimit matches the repository-level cap, so the window a handler
// grants is the window the store serves.
const maxListLimit = 100

// listWindow parses limit/offset query parameters with clamping.
func listWindow(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// writeJSON is a helper for writing JSON responses.
func (h *CustodyHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *CustodyHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
