/**
 * @description
 * ASM acceptance and rejection of sealed rider bundles. Acceptance recomputes
 * the validated amount from the ASM's physical recount when one is supplied;
 * rejection requires a reason and reverts member orders to rider custody.
 */

package app

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// DecideBundle applies an ASM's accept/reject verdict to a bundle in
// READY_FOR_HANDOVER. Non-admin actors must be the bundle's assigned ASM (or
// claim an unassigned one). The status check and the write happen in one
// guarded update, so two concurrent decisions cannot both succeed.
func (s *Service) DecideBundle(ctx context.Context, principal *domain.Principal, bundleID uuid.UUID, req domain.BundleDecisionRequest) (*domain.RiderBundle, error) {
	if principal.Role != domain.RoleASM && !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if principal.ASMID == nil && !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	switch req.Decision {
	case domain.DecisionAccept:
		return s.acceptBundle(ctx, principal, bundleID, req.ActualBreakdown)
	case domain.DecisionReject:
		reason := ""
		if req.Comments != nil {
			reason = strings.TrimSpace(*req.Comments)
		}
		if reason == "" {
			return nil, ErrRejectionReasonMissing
		}
		return s.rejectBundle(ctx, principal, bundleID, reason)
	}
	return nil, ErrInvalidDecision
}

func (s *Service) acceptBundle(ctx context.Context, principal *domain.Principal, bundleID uuid.UUID, actualBreakdown domain.Breakdown) (*domain.RiderBundle, error) {
	bundle, err := s.repo.FindBundleByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	// The validated amount defaults to the expected amount; a recount replaces
	// it after passing the shared breakdown validation.
	validated := bundle.ExpectedAmount
	if actualBreakdown != nil {
		total, err := BreakdownTotal(actualBreakdown)
		if err != nil {
			return nil, err
		}
		if err := ValidateBreakdown(actualBreakdown, bundle.ExpectedAmount); err != nil {
			return nil, err
		}
		validated = total
	}

	// The scoped ASM both guards ownership and claims an unassigned bundle;
	// the principal's user id only stamps the audit trail.
	accepted, err := s.repo.AcceptBundle(ctx, bundleID, principal.ScopedASMID(), principal.UserID, validated, actualBreakdown)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=accept_bundle bundle_id=%s asm_id=%v validated_amount=%s",
		accepted.ID, accepted.ASMID, FormatPaise(validated))
	s.publishCustodyEvent(ctx, "bundle.accepted", "bundle", accepted.ID, string(accepted.Status), validated, principal.UserID)

	return accepted, nil
}

func (s *Service) rejectBundle(ctx context.Context, principal *domain.Principal, bundleID uuid.UUID, reason string) (*domain.RiderBundle, error) {
	rejected, err := s.repo.RejectBundle(ctx, bundleID, principal.ScopedASMID(), reason)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=reject_bundle bundle_id=%s reason=%q", rejected.ID, reason)
	s.publishCustodyEvent(ctx, "bundle.rejected", "bundle", rejected.ID, string(rejected.Status), rejected.ExpectedAmount, principal.UserID)

	return rejected, nil
}
