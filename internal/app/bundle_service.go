/**
 * @description
 * Rider-bundle operations: creation, sealing, and reads. Creation is
 * all-or-nothing: every referenced order must be a hard/QR COD order owned by
 * the acting rider, in COLLECTED_BY_RIDER, and unbundled; the denomination
 * breakdown must match the summed custody amount; the rider must sign off.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// CreateBundle groups the rider's collected orders into a new bundle in status
// CREATED and moves every member order to BUNDLED. Failure modes each name the
// offending orders; partial success is disallowed. Creation is strictly the
// rider's own act: the signoff attests to a physical cash count, so not even
// admins create bundles on a rider's behalf.
func (s *Service) CreateBundle(ctx context.Context, principal *domain.Principal, req domain.CreateBundleRequest) (*domain.RiderBundle, error) {
	if principal.Role != domain.RoleRider || principal.RiderID == nil {
		return nil, ErrForbidden
	}
	riderID := principal.RiderID
	if len(req.OrderIDs) == 0 {
		return nil, ErrEmptyOrderSet
	}
	if !req.DigitalSignoff {
		return nil, ErrSignoffRequired
	}

	orders, err := s.repo.FindOrdersByIDs(ctx, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(req.OrderIDs) {
		return nil, fmt.Errorf("%w: %d of %d orders not found",
			ErrOrdersNotEligible, len(req.OrderIDs)-len(orders), len(req.OrderIDs))
	}

	var expected int64
	var ineligible []string
	for i := range orders {
		o := &orders[i]
		if !o.BundleEligible(*riderID) {
			ineligible = append(ineligible, o.OrderNumber)
			continue
		}
		expected += o.CustodyAmount()
	}
	if len(ineligible) > 0 {
		return nil, fmt.Errorf("%w for bundling: %s", ErrOrdersNotEligible, strings.Join(ineligible, ", "))
	}

	if err := ValidateBreakdown(req.Breakdown, expected); err != nil {
		return nil, err
	}

	bundle := &domain.RiderBundle{
		ID:             uuid.New(),
		RiderID:        *riderID,
		RiderName:      principal.Name,
		ASMID:          req.ASMID,
		ExpectedAmount: expected,
		Breakdown:      req.Breakdown,
		PhotoProofs:    req.PhotoProofs,
		DigitalSignoff: req.DigitalSignoff,
		Status:         domain.BundleCreated,
		TestTag:        req.TestTag,
	}

	if err := s.repo.CreateBundleWithOrders(ctx, bundle, req.OrderIDs); err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=create_bundle bundle_id=%s rider_id=%s orders=%d expected_amount=%s",
		bundle.ID, bundle.RiderID, len(req.OrderIDs), FormatPaise(expected))
	s.publishCustodyEvent(ctx, "bundle.created", "bundle", bundle.ID, string(bundle.Status), expected, principal.UserID)

	return bundle, nil
}

// SealBundle transitions CREATED -> READY_FOR_HANDOVER and stamps sealed_at.
// From this point the bundle's breakdown, photos, and membership are
// immutable.
func (s *Service) SealBundle(ctx context.Context, principal *domain.Principal, bundleID uuid.UUID) (*domain.RiderBundle, error) {
	if principal.Role != domain.RoleRider && !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	bundle, err := s.repo.SealBundle(ctx, bundleID, principal.ScopedRiderID())
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=seal_bundle bundle_id=%s rider_id=%s", bundle.ID, bundle.RiderID)
	s.publishCustodyEvent(ctx, "bundle.sealed", "bundle", bundle.ID, string(bundle.Status), bundle.ExpectedAmount, principal.UserID)

	return bundle, nil
}

// GetBundle retrieves a bundle visible to the acting principal.
func (s *Service) GetBundle(ctx context.Context, principal *domain.Principal, bundleID uuid.UUID) (*domain.RiderBundle, error) {
	bundle, err := s.repo.FindBundleByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	if !s.bundleVisible(principal, bundle) {
		return nil, ErrForbidden
	}
	return bundle, nil
}

// GetBundleOrders retrieves the member orders of a visible bundle.
func (s *Service) GetBundleOrders(ctx context.Context, principal *domain.Principal, bundleID uuid.UUID) ([]domain.Order, error) {
	bundle, err := s.repo.FindBundleByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	if !s.bundleVisible(principal, bundle) {
		return nil, ErrForbidden
	}
	return s.repo.FindBundleOrders(ctx, bundleID)
}

// ListBundles returns the bundles visible to the acting principal.
func (s *Service) ListBundles(ctx context.Context, principal *domain.Principal, opts domain.BundleListOptions) ([]domain.RiderBundle, error) {
	switch principal.Role {
	case domain.RoleRider:
		return s.repo.ListBundles(ctx, principal.RiderID, nil, opts)
	case domain.RoleASM:
		return s.repo.ListBundles(ctx, nil, principal.ASMID, opts)
	case domain.RoleAdmin, domain.RoleSM:
		return s.repo.ListBundles(ctx, nil, nil, opts)
	}
	return nil, ErrForbidden
}

func (s *Service) bundleVisible(principal *domain.Principal, bundle *domain.RiderBundle) bool {
	switch principal.Role {
	case domain.RoleAdmin, domain.RoleSM:
		return true
	case domain.RoleRider:
		return principal.RiderID != nil && bundle.RiderID == *principal.RiderID
	case domain.RoleASM:
		// Unassigned sealed bundles are visible so an ASM can claim them.
		return bundle.ASMID == nil || (principal.ASMID != nil && *bundle.ASMID == *principal.ASMID)
	}
	return false
}
