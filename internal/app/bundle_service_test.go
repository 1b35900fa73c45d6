package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

func TestCreateBundle_Success(t *testing.T) {
	riderID := uuid.New()
	orders := []domain.Order{
		collectedOrder(riderID, 500000),
		collectedOrder(riderID, 500000),
	}

	var persisted *domain.RiderBundle
	repo := &stubRepository{
		findOrdersByIDsFn: func(_ context.Context, ids []uuid.UUID) ([]domain.Order, error) {
			return orders, nil
		},
		createBundleFn: func(_ context.Context, b *domain.RiderBundle, orderIDs []uuid.UUID) error {
			persisted = b
			if len(orderIDs) != 2 {
				t.Fatalf("expected 2 member orders, got %d", len(orderIDs))
			}
			return nil
		},
	}
	svc := newTestService(repo)

	bundle, err := svc.CreateBundle(context.Background(), riderPrincipal(riderID), domain.CreateBundleRequest{
		OrderIDs:       []uuid.UUID{orders[0].ID, orders[1].ID},
		Breakdown:      domain.Breakdown{"2000": 5}, // 10000 rupees
		DigitalSignoff: true,
	})
	if err != nil {
		t.Fatalf("CreateBundle returned error: %v", err)
	}
	if persisted == nil {
		t.Fatal("expected bundle to be persisted")
	}
	if bundle.ExpectedAmount != 1000000 {
		t.Fatalf("expected amount 1000000 paise, got %d", bundle.ExpectedAmount)
	}
	if bundle.Status != domain.BundleCreated {
		t.Fatalf("expected status CREATED, got %s", bundle.Status)
	}
	if bundle.RiderID != riderID {
		t.Fatalf("expected rider %s, got %s", riderID, bundle.RiderID)
	}
}

func TestCreateBundle_IneligibleOrderNamed(t *testing.T) {
	riderID := uuid.New()
	good := collectedOrder(riderID, 500000)
	bad := collectedOrder(riderID, 500000)
	bad.MoneyState = domain.MoneyStateUncollected

	persisted := false
	repo := &stubRepository{
		findOrdersByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.Order, error) {
			return []domain.Order{good, bad}, nil
		},
		createBundleFn: func(_ context.Context, _ *domain.RiderBundle, _ []uuid.UUID) error {
			persisted = true
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateBundle(context.Background(), riderPrincipal(riderID), domain.CreateBundleRequest{
		OrderIDs:       []uuid.UUID{good.ID, bad.ID},
		Breakdown:      domain.Breakdown{"2000": 5},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrOrdersNotEligible) {
		t.Fatalf("expected ErrOrdersNotEligible, got %v", err)
	}
	if persisted {
		t.Fatal("no bundle should be persisted when any order is ineligible")
	}
}

func TestCreateBundle_OtherRidersOrderRejected(t *testing.T) {
	riderID := uuid.New()
	foreign := collectedOrder(uuid.New(), 500000)

	repo := &stubRepository{
		findOrdersByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.Order, error) {
			return []domain.Order{foreign}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateBundle(context.Background(), riderPrincipal(riderID), domain.CreateBundleRequest{
		OrderIDs:       []uuid.UUID{foreign.ID},
		Breakdown:      domain.Breakdown{"2000": 2, "500": 2},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrOrdersNotEligible) {
		t.Fatalf("expected ErrOrdersNotEligible, got %v", err)
	}
}

func TestCreateBundle_RequiresSignoff(t *testing.T) {
	riderID := uuid.New()
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateBundle(context.Background(), riderPrincipal(riderID), domain.CreateBundleRequest{
		OrderIDs:  []uuid.UUID{uuid.New()},
		Breakdown: domain.Breakdown{"2000": 5},
	})
	if !errors.Is(err, ErrSignoffRequired) {
		t.Fatalf("expected ErrSignoffRequired, got %v", err)
	}
}

func TestCreateBundle_RequiresOrders(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateBundle(context.Background(), riderPrincipal(uuid.New()), domain.CreateBundleRequest{
		DigitalSignoff: true,
		Breakdown:      domain.Breakdown{},
	})
	if !errors.Is(err, ErrEmptyOrderSet) {
		t.Fatalf("expected ErrEmptyOrderSet, got %v", err)
	}
}

func TestCreateBundle_BreakdownMismatchBlocksPersist(t *testing.T) {
	riderID := uuid.New()
	order := collectedOrder(riderID, 1000000)

	persisted := false
	repo := &stubRepository{
		findOrdersByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]domain.Order, error) {
			return []domain.Order{order}, nil
		},
		createBundleFn: func(_ context.Context, _ *domain.RiderBundle, _ []uuid.UUID) error {
			persisted = true
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.CreateBundle(context.Background(), riderPrincipal(riderID), domain.CreateBundleRequest{
		OrderIDs:       []uuid.UUID{order.ID},
		Breakdown:      domain.Breakdown{"2000": 4}, // 8000 vs 10000 expected
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrDenominationMismatch) {
		t.Fatalf("expected ErrDenominationMismatch, got %v", err)
	}
	if persisted {
		t.Fatal("no bundle should be persisted on a denomination mismatch")
	}
}

func TestCreateBundle_ForbiddenForASM(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateBundle(context.Background(), asmPrincipal(uuid.New()), domain.CreateBundleRequest{
		OrderIDs:       []uuid.UUID{uuid.New()},
		Breakdown:      domain.Breakdown{"2000": 1},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateBundle_ForbiddenForAdmin(t *testing.T) {
	svc := newTestService(&stubRepository{})

	_, err := svc.CreateBundle(context.Background(), adminPrincipal(), domain.CreateBundleRequest{
		OrderIDs:       []uuid.UUID{uuid.New()},
		Breakdown:      domain.Breakdown{"2000": 1},
		DigitalSignoff: true,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin creation, got %v", err)
	}
}
