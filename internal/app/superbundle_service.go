/**
 * @description
 * ASM superbundle operations: aggregation of accepted rider bundles, sealing,
 * handover to an SM, and the per-ASM handover summary. The expected amount is
 * the sum of member bundles' validated-or-expected amounts; the breakdown must
 * match it through the shared validator.
 */

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// CreateSuperBundle aggregates the ASM's accepted bundles into a new
// superbundle in status CREATED. Every referenced bundle must exist, be
// HANDEDOVER_TO_ASM, and belong to the acting ASM. If any membership write
// fails, the creation rolls back wholly. Like bundle creation, this attests
// to a physical count, so only the owning ASM may create one.
func (s *Service) CreateSuperBundle(ctx context.Context, principal *domain.Principal, req domain.CreateSuperBundleRequest) (*domain.ASMSuperBundle, error) {
	if principal.Role != domain.RoleASM || principal.ASMID == nil {
		return nil, ErrForbidden
	}
	asmID := principal.ASMID
	if len(req.BundleIDs) == 0 {
		return nil, ErrEmptyBundleSet
	}
	if !req.DigitalSignoff {
		return nil, ErrSignoffRequired
	}

	bundles, err := s.repo.FindBundlesByIDs(ctx, req.BundleIDs)
	if err != nil {
		return nil, err
	}
	if len(bundles) != len(req.BundleIDs) {
		return nil, fmt.Errorf("%w: %d of %d bundles not found",
			ErrBundlesNotEligible, len(req.BundleIDs)-len(bundles), len(req.BundleIDs))
	}

	var expected int64
	for i := range bundles {
		b := &bundles[i]
		if b.Status != domain.BundleHandedOverToASM {
			return nil, fmt.Errorf("%w: bundle %s is %s, expected %s",
				ErrBundlesNotEligible, b.ID, b.Status, domain.BundleHandedOverToASM)
		}
		if b.ASMID == nil || *b.ASMID != *asmID {
			return nil, fmt.Errorf("%w: bundle %s is not assigned to the acting ASM",
				ErrBundlesNotEligible, b.ID)
		}
		expected += b.CustodyAmount()
	}

	if err := ValidateBreakdown(req.Breakdown, expected); err != nil {
		return nil, err
	}

	sb := &domain.ASMSuperBundle{
		ID:             uuid.New(),
		ASMID:          *asmID,
		ASMName:        principal.Name,
		SMID:           req.SMID,
		ExpectedAmount: expected,
		Breakdown:      req.Breakdown,
		DigitalSignoff: req.DigitalSignoff,
		Status:         domain.SuperBundleCreated,
		TestTag:        req.TestTag,
	}

	if err := s.repo.CreateSuperBundleWithBundles(ctx, sb, req.BundleIDs); err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=create_superbundle superbundle_id=%s asm_id=%s bundles=%d expected_amount=%s",
		sb.ID, sb.ASMID, len(req.BundleIDs), FormatPaise(expected))
	s.publishCustodyEvent(ctx, "superbundle.created", "superbundle", sb.ID, string(sb.Status), expected, principal.UserID)

	return sb, nil
}

// SealSuperBundle transitions CREATED -> READY_FOR_HANDOVER.
func (s *Service) SealSuperBundle(ctx context.Context, principal *domain.Principal, id uuid.UUID) (*domain.ASMSuperBundle, error) {
	if principal.Role != domain.RoleASM && !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	sb, err := s.repo.SealSuperBundle(ctx, id, principal.ScopedASMID())
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=seal_superbundle superbundle_id=%s asm_id=%s", sb.ID, sb.ASMID)
	s.publishCustodyEvent(ctx, "superbundle.sealed", "superbundle", sb.ID, string(sb.Status), sb.ExpectedAmount, principal.UserID)

	return sb, nil
}

// HandoverSuperBundle transitions READY_FOR_HANDOVER -> HANDEDOVER_TO_SM and
// assigns the receiving SM. This is the ASM handover summary submission.
func (s *Service) HandoverSuperBundle(ctx context.Context, principal *domain.Principal, id uuid.UUID, req domain.HandoverSuperBundleRequest) (*domain.ASMSuperBundle, error) {
	if principal.Role != domain.RoleASM && !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	sb, err := s.repo.HandoverSuperBundle(ctx, id, principal.ScopedASMID(), req.SMID)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=handover_superbundle superbundle_id=%s asm_id=%s sm_id=%s", sb.ID, sb.ASMID, req.SMID)
	s.publishCustodyEvent(ctx, "superbundle.handedover", "superbundle", sb.ID, string(sb.Status), sb.ExpectedAmount, principal.UserID)

	return sb, nil
}

// GetSuperBundle retrieves a superbundle visible to the acting principal.
func (s *Service) GetSuperBundle(ctx context.Context, principal *domain.Principal, id uuid.UUID) (*domain.ASMSuperBundle, error) {
	sb, err := s.repo.FindSuperBundleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.superBundleVisible(principal, sb) {
		return nil, ErrForbidden
	}
	return sb, nil
}

// ListSuperBundles returns the superbundles visible to the acting principal.
// SMs see unassigned superbundles plus those assigned to them.
func (s *Service) ListSuperBundles(ctx context.Context, principal *domain.Principal, opts domain.SuperBundleListOptions) ([]domain.ASMSuperBundle, error) {
	switch principal.Role {
	case domain.RoleASM:
		return s.repo.ListSuperBundles(ctx, principal.ASMID, nil, opts)
	case domain.RoleSM:
		return s.repo.ListSuperBundles(ctx, nil, principal.SMID, opts)
	case domain.RoleAdmin:
		return s.repo.ListSuperBundles(ctx, nil, nil, opts)
	}
	return nil, ErrForbidden
}

// GetHandoverSummary assembles the handover view for an ASM. Non-admin actors
// may only fetch their own summary.
func (s *Service) GetHandoverSummary(ctx context.Context, principal *domain.Principal, asmID uuid.UUID) (*domain.HandoverSummary, error) {
	if !principal.IsAdmin() && principal.Role != domain.RoleSM {
		if principal.Role != domain.RoleASM || principal.ASMID == nil || *principal.ASMID != asmID {
			return nil, ErrForbidden
		}
	}
	return s.repo.HandoverSummary(ctx, asmID)
}

func (s *Service) superBundleVisible(principal *domain.Principal, sb *domain.ASMSuperBundle) bool {
	switch principal.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleASM:
		return principal.ASMID != nil && sb.ASMID == *principal.ASMID
	case domain.RoleSM:
		// SMs see unassigned superbundles plus those assigned to them.
		return sb.SMID == nil || (principal.SMID != nil && *sb.SMID == *principal.SMID)
	}
	return false
}
