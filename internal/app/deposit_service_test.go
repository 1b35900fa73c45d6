package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/store"
)

func readySuperBundle(asmID uuid.UUID, amountPaise int64) domain.ASMSuperBundle {
	return domain.ASMSuperBundle{
		ID:             uuid.New(),
		ASMID:          asmID,
		ExpectedAmount: amountPaise,
		Status:         domain.SuperBundleReadyForHandover,
		DigitalSignoff: true,
	}
}

func TestCreateDeposit_MismatchStillCreated(t *testing.T) {
	sb := readySuperBundle(uuid.New(), 1500000) // 15000.00

	var persisted *domain.Deposit
	repo := &stubRepository{
		findSuperBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.ASMSuperBundle, error) {
			return []domain.ASMSuperBundle{sb}, nil
		},
		createDepositFn: func(_ context.Context, dep *domain.Deposit, _ []uuid.UUID) error {
			persisted = dep
			return nil
		},
	}
	svc := newTestService(repo)

	actual := int64(1500002) // 15000.02 received
	deposit, err := svc.CreateDepositFromSuperBundles(context.Background(), smPrincipal(uuid.New()), domain.CreateDepositRequest{
		SuperBundleIDs: []uuid.UUID{sb.ID},
		DepositNumber:  "DEP-1001",
		ActualAmount:   &actual,
	})
	if err != nil {
		t.Fatalf("CreateDepositFromSuperBundles returned error: %v", err)
	}
	if persisted == nil {
		t.Fatal("mismatched deposit must still be created")
	}
	if deposit.ValidationStatus != domain.ValidationMismatch {
		t.Fatalf("expected MISMATCH, got %s", deposit.ValidationStatus)
	}
	if deposit.ExpectedAmount != 1500000 {
		t.Fatalf("expected amount 1500000, got %d", deposit.ExpectedAmount)
	}
}

func TestCreateDeposit_WithinToleranceValidated(t *testing.T) {
	sb := readySuperBundle(uuid.New(), 1500000)

	repo := &stubRepository{
		findSuperBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.ASMSuperBundle, error) {
			return []domain.ASMSuperBundle{sb}, nil
		},
		createDepositFn: func(_ context.Context, _ *domain.Deposit, _ []uuid.UUID) error {
			return nil
		},
	}
	svc := newTestService(repo)

	actual := int64(1500001)
	deposit, err := svc.CreateDepositFromSuperBundles(context.Background(), smPrincipal(uuid.New()), domain.CreateDepositRequest{
		SuperBundleIDs: []uuid.UUID{sb.ID},
		DepositNumber:  "DEP-1002",
		ActualAmount:   &actual,
	})
	if err != nil {
		t.Fatalf("CreateDepositFromSuperBundles returned error: %v", err)
	}
	if deposit.ValidationStatus != domain.ValidationValidated {
		t.Fatalf("expected VALIDATED, got %s", deposit.ValidationStatus)
	}
}

func TestCreateDeposit_NoActualAmountPending(t *testing.T) {
	sb := readySuperBundle(uuid.New(), 1500000)

	repo := &stubRepository{
		findSuperBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.ASMSuperBundle, error) {
			return []domain.ASMSuperBundle{sb}, nil
		},
		createDepositFn: func(_ context.Context, _ *domain.Deposit, _ []uuid.UUID) error {
			return nil
		},
	}
	svc := newTestService(repo)

	deposit, err := svc.CreateDepositFromSuperBundles(context.Background(), smPrincipal(uuid.New()), domain.CreateDepositRequest{
		SuperBundleIDs: []uuid.UUID{sb.ID},
		DepositNumber:  "DEP-1003",
	})
	if err != nil {
		t.Fatalf("CreateDepositFromSuperBundles returned error: %v", err)
	}
	if deposit.ValidationStatus != domain.ValidationPending {
		t.Fatalf("expected PENDING, got %s", deposit.ValidationStatus)
	}
}

func TestCreateDeposit_RequiresDepositNumber(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateDepositFromSuperBundles(context.Background(), smPrincipal(uuid.New()), domain.CreateDepositRequest{
		SuperBundleIDs: []uuid.UUID{uuid.New()},
		DepositNumber:  "   ",
	})
	if !errors.Is(err, ErrDepositNumberMissing) {
		t.Fatalf("expected ErrDepositNumberMissing, got %v", err)
	}
}

func TestCreateDeposit_DuplicateNumberSurfaced(t *testing.T) {
	sb := readySuperBundle(uuid.New(), 1500000)

	repo := &stubRepository{
		findSuperBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.ASMSuperBundle, error) {
			return []domain.ASMSuperBundle{sb}, nil
		},
		createDepositFn: func(_ context.Context, _ *domain.Deposit, _ []uuid.UUID) error {
			return store.ErrDuplicateDepositNumber
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateDepositFromSuperBundles(context.Background(), smPrincipal(uuid.New()), domain.CreateDepositRequest{
		SuperBundleIDs: []uuid.UUID{sb.ID},
		DepositNumber:  "DEP-1001",
	})
	if !errors.Is(err, store.ErrDuplicateDepositNumber) {
		t.Fatalf("expected ErrDuplicateDepositNumber, got %v", err)
	}
}

func TestCreateDeposit_ForbiddenForRider(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateDepositFromSuperBundles(context.Background(), riderPrincipal(uuid.New()), domain.CreateDepositRequest{
		SuperBundleIDs: []uuid.UUID{uuid.New()},
		DepositNumber:  "DEP-1",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateDeposit_OtherSMsSuperBundleRejected(t *testing.T) {
	sb := readySuperBundle(uuid.New(), 1500000)
	otherSM := uuid.New()
	sb.SMID = &otherSM

	repo := &stubRepository{
		findSuperBundlesByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.ASMSuperBundle, error) {
			return []domain.ASMSuperBundle{sb}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateDepositFromSuperBundles(context.Background(), smPrincipal(uuid.New()), domain.CreateDepositRequest{
		SuperBundleIDs: []uuid.UUID{sb.ID},
		DepositNumber:  "DEP-1004",
	})
	if !errors.Is(err, ErrSuperBundlesNotEligible) {
		t.Fatalf("expected ErrSuperBundlesNotEligible, got %v", err)
	}
}

func TestCreateLegacyDeposit_OnlyCollectedOrdersCount(t *testing.T) {
	collected := collectedOrder(uuid.New(), 300000)
	missed := collectedOrder(uuid.New(), 200000)

	var gotDeposit *domain.Deposit
	var gotItems []store.LegacyDepositOrderParams
	repo := &stubRepository{
		findOrdersByNumbersFn: func(_ context.Context, _ []string) ([]domain.Order, error) {
			return []domain.Order{collected, missed}, nil
		},
		createLegacyDepositFn: func(_ context.Context, dep *domain.Deposit, items []store.LegacyDepositOrderParams) error {
			gotDeposit = dep
			gotItems = items
			return nil
		},
	}
	svc := newTestService(repo)

	reason := "customer unavailable"
	_, err := svc.CreateLegacyDeposit(context.Background(), smPrincipal(uuid.New()), domain.CreateLegacyDepositRequest{
		DepositNumber: "DEP-2001",
		Orders: []domain.LegacyDepositItem{
			{OrderNumber: collected.OrderNumber, Status: domain.CollectionCollected},
			{OrderNumber: missed.OrderNumber, Status: domain.CollectionNotCollected, Reason: &reason},
		},
	})
	if err != nil {
		t.Fatalf("CreateLegacyDeposit returned error: %v", err)
	}
	if gotDeposit.ExpectedAmount != 300000 {
		t.Fatalf("expected only collected amount 300000, got %d", gotDeposit.ExpectedAmount)
	}
	if len(gotItems) != 2 {
		t.Fatalf("both orders must be recorded in the deposit, got %d", len(gotItems))
	}
}

func TestCreateLegacyDeposit_NotCollectedRequiresReason(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateLegacyDeposit(context.Background(), smPrincipal(uuid.New()), domain.CreateLegacyDepositRequest{
		DepositNumber: "DEP-2002",
		Orders: []domain.LegacyDepositItem{
			{OrderNumber: "ORD-1", Status: domain.CollectionNotCollected},
		},
	})
	if !errors.Is(err, ErrOrdersNotEligible) {
		t.Fatalf("expected ErrOrdersNotEligible, got %v", err)
	}
}

func TestCreateLegacyDeposit_BundledOrderRejected(t *testing.T) {
	order := collectedOrder(uuid.New(), 300000)
	bundleID := uuid.New()
	order.BundleID = &bundleID

	repo := &stubRepository{
		findOrdersByNumbersFn: func(_ context.Context, _ []string) ([]domain.Order, error) {
			return []domain.Order{order}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateLegacyDeposit(context.Background(), smPrincipal(uuid.New()), domain.CreateLegacyDepositRequest{
		DepositNumber: "DEP-2003",
		Orders: []domain.LegacyDepositItem{
			{OrderNumber: order.OrderNumber, Status: domain.CollectionCollected},
		},
	})
	if !errors.Is(err, ErrOrdersNotEligible) {
		t.Fatalf("expected ErrOrdersNotEligible for bundled order, got %v", err)
	}
}
