package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

func acceptedBundle(asmID uuid.UUID, amountPaise int64) domain.RiderBundle {
	return domain.RiderBundle{
		ID:             uuid.New(),
		RiderID:        uuid.New(),
		ASMID:          &asmID,
		ExpectedAmount: amountPaise,
		Status:         domain.BundleHandedOverToASM,
	}
}

func TestCreateSuperBundle_Success(t *testing.T) {
	asmID := uuid.New()
	bundles := []domain.RiderBundle{
		acceptedBundle(asmID, 1000000),
		acceptedBundle(asmID, 500000),
	}

	var persisted *domain.ASMSuperBundle
	repo := &stubRepository{
		findBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.RiderBundle, error) {
			return bundles, nil
		},
		createSuperBundleFn: func(_ context.Context, sb *domain.ASMSuperBundle, bundleIDs []uuid.UUID) error {
			persisted = sb
			if len(bundleIDs) != 2 {
				t.Fatalf("expected 2 member bundles, got %d", len(bundleIDs))
			}
			return nil
		},
	}
	svc := newTestService(repo)

	sb, err := svc.CreateSuperBundle(context.Background(), asmPrincipal(asmID), domain.CreateSuperBundleRequest{
		BundleIDs:      []uuid.UUID{bundles[0].ID, bundles[1].ID},
		Breakdown:      domain.Breakdown{"2000": 7, "500": 2}, // 15000 rupees
		DigitalSignoff: true,
	})
	if err != nil {
		t.Fatalf("CreateSuperBundle returned error: %v", err)
	}
	if persisted == nil {
		t.Fatal("expected superbundle to be persisted")
	}
	if sb.ExpectedAmount != 1500000 {
		t.Fatalf("expected amount 1500000 paise, got %d", sb.ExpectedAmount)
	}
	if sb.Status != domain.SuperBundleCreated {
		t.Fatalf("expected status CREATED, got %s", sb.Status)
	}
	if sb.ASMID != asmID {
		t.Fatalf("expected asm %s, got %s", asmID, sb.ASMID)
	}
}

func TestCreateSuperBundle_UsesValidatedAmount(t *testing.T) {
	asmID := uuid.New()
	bundle := acceptedBundle(asmID, 1000000)
	validated := int64(980000)
	bundle.ValidatedAmount = &validated

	repo := &stubRepository{
		findBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.RiderBundle, error) {
			return []domain.RiderBundle{bundle}, nil
		},
		createSuperBundleFn: func(_ context.Context, _ *domain.ASMSuperBundle, _ []uuid.UUID) error {
			return nil
		},
	}
	svc := newTestService(repo)

	sb, err := svc.CreateSuperBundle(context.Background(), asmPrincipal(asmID), domain.CreateSuperBundleRequest{
		BundleIDs:      []uuid.UUID{bundle.ID},
		Breakdown:      domain.Breakdown{"2000": 4, "500": 3, "100": 3}, // 9800 rupees
		DigitalSignoff: true,
	})
	if err != nil {
		t.Fatalf("CreateSuperBundle returned error: %v", err)
	}
	if sb.ExpectedAmount != 980000 {
		t.Fatalf("expected validated custody amount 980000, got %d", sb.ExpectedAmount)
	}
}

func TestCreateSuperBundle_RejectsUndecidedBundle(t *testing.T) {
	asmID := uuid.New()
	bundle := acceptedBundle(asmID, 1000000)
	bundle.Status = domain.BundleReadyForHandover

	repo := &stubRepository{
		findBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.RiderBundle, error) {
			return []domain.RiderBundle{bundle}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateSuperBundle(context.Background(), asmPrincipal(asmID), domain.CreateSuperBundleRequest{
		BundleIDs:      []uuid.UUID{bundle.ID},
		Breakdown:      domain.Breakdown{"2000": 5},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrBundlesNotEligible) {
		t.Fatalf("expected ErrBundlesNotEligible, got %v", err)
	}
}

func TestCreateSuperBundle_RejectsOtherASMsBundle(t *testing.T) {
	asmID := uuid.New()
	bundle := acceptedBundle(uuid.New(), 1000000)

	repo := &stubRepository{
		findBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.RiderBundle, error) {
			return []domain.RiderBundle{bundle}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateSuperBundle(context.Background(), asmPrincipal(asmID), domain.CreateSuperBundleRequest{
		BundleIDs:      []uuid.UUID{bundle.ID},
		Breakdown:      domain.Breakdown{"2000": 5},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrBundlesNotEligible) {
		t.Fatalf("expected ErrBundlesNotEligible, got %v", err)
	}
}

func TestCreateSuperBundle_RequiresBundles(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateSuperBundle(context.Background(), asmPrincipal(uuid.New()), domain.CreateSuperBundleRequest{
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrEmptyBundleSet) {
		t.Fatalf("expected ErrEmptyBundleSet, got %v", err)
	}
}

func TestListSuperBundles_ScopesByRole(t *testing.T) {
	var gotASM, gotSM *uuid.UUID
	repo := &stubRepository{
		listSuperBundlesFn: func(_ context.Context, asmID, smID *uuid.UUID, _ domain.SuperBundleListOptions) ([]domain.ASMSuperBundle, error) {
			gotASM, gotSM = asmID, smID
			return nil, nil
		},
	}
	svc := newTestService(repo)

	asm := asmPrincipal(uuid.New())
	if _, err := svc.ListSuperBundles(context.Background(), asm, domain.SuperBundleListOptions{}); err != nil {
		t.Fatalf("ListSuperBundles returned error: %v", err)
	}
	if gotASM == nil || *gotASM != *asm.ASMID || gotSM != nil {
		t.Fatalf("expected ASM filter %s with no SM filter, got asm=%v sm=%v", *asm.ASMID, gotASM, gotSM)
	}

	sm := smPrincipal(uuid.New())
	if _, err := svc.ListSuperBundles(context.Background(), sm, domain.SuperBundleListOptions{}); err != nil {
		t.Fatalf("ListSuperBundles returned error: %v", err)
	}
	if gotASM != nil || gotSM == nil || *gotSM != *sm.SMID {
		t.Fatalf("expected SM filter %s with no ASM filter, got asm=%v sm=%v", *sm.SMID, gotASM, gotSM)
	}

	if _, err := svc.ListSuperBundles(context.Background(), adminPrincipal(), domain.SuperBundleListOptions{}); err != nil {
		t.Fatalf("ListSuperBundles returned error: %v", err)
	}
	if gotASM != nil || gotSM != nil {
		t.Fatalf("expected no filters for admin, got asm=%v sm=%v", gotASM, gotSM)
	}
}

func TestCreateSuperBundle_ForbiddenForRider(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateSuperBundle(context.Background(), riderPrincipal(uuid.New()), domain.CreateSuperBundleRequest{
		BundleIDs:      []uuid.UUID{uuid.New()},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateSuperBundle_ForbiddenForAdmin(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateSuperBundle(context.Background(), adminPrincipal(), domain.CreateSuperBundleRequest{
		BundleIDs:      []uuid.UUID{uuid.New()},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin creation, got %v", err)
	}
}
