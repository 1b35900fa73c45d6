package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

func sealedBundle(riderID uuid.UUID, expectedPaise int64) *domain.RiderBundle {
	return &domain.RiderBundle{
		ID:             uuid.New(),
		RiderID:        riderID,
		ExpectedAmount: expectedPaise,
		Status:         domain.BundleReadyForHandover,
		DigitalSignoff: true,
	}
}

func TestDecideBundle_AcceptWithRecount(t *testing.T) {
	asmID := uuid.New()
	bundle := sealedBundle(uuid.New(), 1000000)

	var gotValidated int64
	var gotBreakdown domain.Breakdown
	repo := &stubRepository{
		findBundleByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.RiderBundle, error) {
			return bundle, nil
		},
		acceptBundleFn: func(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ uuid.UUID, validated int64, breakdown domain.Breakdown) (*domain.RiderBundle, error) {
			gotValidated = validated
			gotBreakdown = breakdown
			accepted := *bundle
			accepted.Status = domain.BundleHandedOverToASM
			accepted.ValidatedAmount = &validated
			return &accepted, nil
		},
	}
	svc := newTestService(repo)

	accepted, err := svc.DecideBundle(context.Background(), asmPrincipal(asmID), bundle.ID, domain.BundleDecisionRequest{
		Decision:        domain.DecisionAccept,
		ActualBreakdown: domain.Breakdown{"2000": 5},
	})
	if err != nil {
		t.Fatalf("DecideBundle returned error: %v", err)
	}
	if gotValidated != 1000000 {
		t.Fatalf("expected validated amount 1000000, got %d", gotValidated)
	}
	if gotBreakdown == nil {
		t.Fatal("expected the recount breakdown to be persisted")
	}
	if accepted.Status != domain.BundleHandedOverToASM {
		t.Fatalf("expected status HANDEDOVER_TO_ASM, got %s", accepted.Status)
	}
}

func TestDecideBundle_AcceptWithoutRecountUsesExpected(t *testing.T) {
	bundle := sealedBundle(uuid.New(), 750000)

	var gotValidated int64
	repo := &stubRepository{
		findBundleByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.RiderBundle, error) {
			return bundle, nil
		},
		acceptBundleFn: func(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ uuid.UUID, validated int64, _ domain.Breakdown) (*domain.RiderBundle, error) {
			gotValidated = validated
			accepted := *bundle
			accepted.Status = domain.BundleHandedOverToASM
			return &accepted, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.DecideBundle(context.Background(), asmPrincipal(uuid.New()), bundle.ID, domain.BundleDecisionRequest{
		Decision: domain.DecisionAccept,
	}); err != nil {
		t.Fatalf("DecideBundle returned error: %v", err)
	}
	if gotValidated != 750000 {
		t.Fatalf("expected validated amount to default to expected 750000, got %d", gotValidated)
	}
}

func TestDecideBundle_RecountMismatchBlocksAcceptance(t *testing.T) {
	bundle := sealedBundle(uuid.New(), 1000000)

	accepted := false
	repo := &stubRepository{
		findBundleByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.RiderBundle, error) {
			return bundle, nil
		},
		acceptBundleFn: func(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ uuid.UUID, _ int64, _ domain.Breakdown) (*domain.RiderBundle, error) {
			accepted = true
			return bundle, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.DecideBundle(context.Background(), asmPrincipal(uuid.New()), bundle.ID, domain.BundleDecisionRequest{
		Decision:        domain.DecisionAccept,
		ActualBreakdown: domain.Breakdown{"2000": 4},
	})
	if !errors.Is(err, ErrDenominationMismatch) {
		t.Fatalf("expected ErrDenominationMismatch, got %v", err)
	}
	if accepted {
		t.Fatal("bundle must not be accepted when the recount mismatches")
	}
}

func TestDecideBundle_AcceptPassesActingScopeNotUserID(t *testing.T) {
	bundle := sealedBundle(uuid.New(), 1000000)

	var gotASM *uuid.UUID
	var gotAcceptedBy uuid.UUID
	repo := &stubRepository{
		findBundleByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.RiderBundle, error) {
			return bundle, nil
		},
		acceptBundleFn: func(_ context.Context, _ uuid.UUID, asmID *uuid.UUID, acceptedBy uuid.UUID, _ int64, _ domain.Breakdown) (*domain.RiderBundle, error) {
			gotASM = asmID
			gotAcceptedBy = acceptedBy
			accepted := *bundle
			accepted.Status = domain.BundleHandedOverToASM
			return &accepted, nil
		},
	}
	svc := newTestService(repo)

	asm := asmPrincipal(uuid.New())
	if _, err := svc.DecideBundle(context.Background(), asm, bundle.ID, domain.BundleDecisionRequest{
		Decision: domain.DecisionAccept,
	}); err != nil {
		t.Fatalf("DecideBundle returned error: %v", err)
	}
	if gotASM == nil || *gotASM != *asm.ASMID {
		t.Fatalf("expected the acting ASM id %s as the claim scope, got %v", *asm.ASMID, gotASM)
	}
	if gotAcceptedBy != asm.UserID {
		t.Fatalf("expected the principal's user id %s for the audit trail, got %s", asm.UserID, gotAcceptedBy)
	}

	admin := adminPrincipal()
	if _, err := svc.DecideBundle(context.Background(), admin, bundle.ID, domain.BundleDecisionRequest{
		Decision: domain.DecisionAccept,
	}); err != nil {
		t.Fatalf("DecideBundle returned error: %v", err)
	}
	if gotASM != nil {
		t.Fatalf("an admin must not claim ASM scope, got %v", gotASM)
	}
	if gotAcceptedBy != admin.UserID {
		t.Fatalf("expected the admin's user id for the audit trail, got %s", gotAcceptedBy)
	}
}

func TestDecideBundle_RejectRequiresReason(t *testing.T) {
	svc := newTestService(&stubRepository{})

	empty := "   "
	cases := []*string{nil, &empty}
	for _, comments := range cases {
		_, err := svc.DecideBundle(context.Background(), asmPrincipal(uuid.New()), uuid.New(), domain.BundleDecisionRequest{
			Decision: domain.DecisionReject,
			Comments: comments,
		})
		if !errors.Is(err, ErrRejectionReasonMissing) {
			t.Fatalf("expected ErrRejectionReasonMissing, got %v", err)
		}
	}
}

func TestDecideBundle_RejectPassesReason(t *testing.T) {
	bundle := sealedBundle(uuid.New(), 500000)

	var gotReason string
	repo := &stubRepository{
		rejectBundleFn: func(_ context.Context, _ uuid.UUID, _ *uuid.UUID, reason string) (*domain.RiderBundle, error) {
			gotReason = reason
			rejected := *bundle
			rejected.Status = domain.BundleRejected
			rejected.RejectionReason = &reason
			return &rejected, nil
		},
	}
	svc := newTestService(repo)

	reason := "cash count short by two notes"
	rejected, err := svc.DecideBundle(context.Background(), asmPrincipal(uuid.New()), bundle.ID, domain.BundleDecisionRequest{
		Decision: domain.DecisionReject,
		Comments: &reason,
	})
	if err != nil {
		t.Fatalf("DecideBundle returned error: %v", err)
	}
	if gotReason != reason {
		t.Fatalf("expected reason %q, got %q", reason, gotReason)
	}
	if rejected.Status != domain.BundleRejected {
		t.Fatalf("expected status REJECTED, got %s", rejected.Status)
	}
}

func TestDecideBundle_InvalidDecision(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.DecideBundle(context.Background(), asmPrincipal(uuid.New()), uuid.New(), domain.BundleDecisionRequest{
		Decision: "MAYBE",
	})
	if !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestDecideBundle_ForbiddenForRider(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.DecideBundle(context.Background(), riderPrincipal(uuid.New()), uuid.New(), domain.BundleDecisionRequest{
		Decision: domain.DecisionAccept,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
