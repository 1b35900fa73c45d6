package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/store"
)

// stubRepository overrides only the repository methods a test exercises; any
// unexpected call panics through the embedded nil interface.
type stubRepository struct {
	store.Repository

	upsertOrderFn            func(ctx context.Context, o *domain.Order) (*domain.Order, bool, error)
	findOrderByNumberFn      func(ctx context.Context, orderNumber string) (*domain.Order, error)
	findOrdersByIDsFn        func(ctx context.Context, ids []uuid.UUID) ([]domain.Order, error)
	findOrdersByNumbersFn    func(ctx context.Context, numbers []string) ([]domain.Order, error)
	applyRiderEventFn        func(ctx context.Context, ev *domain.RiderEvent, riderName *string, to domain.MoneyState) (*domain.Order, error)
	createBundleFn           func(ctx context.Context, b *domain.RiderBundle, orderIDs []uuid.UUID) error
	findBundleByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.RiderBundle, error)
	findBundlesByIDsFn       func(ctx context.Context, ids []uuid.UUID) ([]domain.RiderBundle, error)
	acceptBundleFn           func(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, acceptedBy uuid.UUID, validatedAmount int64, actualBreakdown domain.Breakdown) (*domain.RiderBundle, error)
	rejectBundleFn           func(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, reason string) (*domain.RiderBundle, error)
	createSuperBundleFn      func(ctx context.Context, sb *domain.ASMSuperBundle, bundleIDs []uuid.UUID) error
	findSuperBundlesByIDsFn  func(ctx context.Context, ids []uuid.UUID) ([]domain.ASMSuperBundle, error)
	listSuperBundlesFn       func(ctx context.Context, asmID, smID *uuid.UUID, opts domain.SuperBundleListOptions) ([]domain.ASMSuperBundle, error)
	createDepositFn          func(ctx context.Context, dep *domain.Deposit, superbundleIDs []uuid.UUID) error
	createLegacyDepositFn    func(ctx context.Context, dep *domain.Deposit, items []store.LegacyDepositOrderParams) error
	getSimulatorFlagsFn      func(ctx context.Context) (*domain.SimulatorFlags, error)
	updateSimulatorFlagsFn   func(ctx context.Context, req domain.UpdateSimulatorFlagsRequest) (*domain.SimulatorFlags, error)
}

func (s *stubRepository) UpsertOrder(ctx context.Context, o *domain.Order) (*domain.Order, bool, error) {
	return s.upsertOrderFn(ctx, o)
}

func (s *stubRepository) FindOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.findOrderByNumberFn(ctx, orderNumber)
}

func (s *stubRepository) FindOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Order, error) {
	return s.findOrdersByIDsFn(ctx, ids)
}

func (s *stubRepository) FindOrdersByNumbers(ctx context.Context, numbers []string) ([]domain.Order, error) {
	return s.findOrdersByNumbersFn(ctx, numbers)
}

func (s *stubRepository) ApplyRiderEvent(ctx context.Context, ev *domain.RiderEvent, riderName *string, to domain.MoneyState) (*domain.Order, error) {
	return s.applyRiderEventFn(ctx, ev, riderName, to)
}

func (s *stubRepository) CreateBundleWithOrders(ctx context.Context, b *domain.RiderBundle, orderIDs []uuid.UUID) error {
	return s.createBundleFn(ctx, b, orderIDs)
}

func (s *stubRepository) FindBundleByID(ctx context.Context, id uuid.UUID) (*domain.RiderBundle, error) {
	return s.findBundleByIDFn(ctx, id)
}

func (s *stubRepository) FindBundlesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.RiderBundle, error) {
	return s.findBundlesByIDsFn(ctx, ids)
}

func (s *stubRepository) AcceptBundle(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, acceptedBy uuid.UUID, validatedAmount int64, actualBreakdown domain.Breakdown) (*domain.RiderBundle, error) {
	return s.acceptBundleFn(ctx, bundleID, asmID, acceptedBy, validatedAmount, actualBreakdown)
}

func (s *stubRepository) RejectBundle(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, reason string) (*domain.RiderBundle, error) {
	return s.rejectBundleFn(ctx, bundleID, asmID, reason)
}

func (s *stubRepository) CreateSuperBundleWithBundles(ctx context.Context, sb *domain.ASMSuperBundle, bundleIDs []uuid.UUID) error {
	return s.createSuperBundleFn(ctx, sb, bundleIDs)
}

func (s *stubRepository) FindSuperBundlesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ASMSuperBundle, error) {
	return s.findSuperBundlesByIDsFn(ctx, ids)
}

func (s *stubRepository) ListSuperBundles(ctx context.Context, asmID, smID *uuid.UUID, opts domain.SuperBundleListOptions) ([]domain.ASMSuperBundle, error) {
	return s.listSuperBundlesFn(ctx, asmID, smID, opts)
}

func (s *stubRepository) CreateDepositFromSuperBundles(ctx context.Context, dep *domain.Deposit, superbundleIDs []uuid.UUID) error {
	return s.createDepositFn(ctx, dep, superbundleIDs)
}

func (s *stubRepository) CreateLegacyDeposit(ctx context.Context, dep *domain.Deposit, items []store.LegacyDepositOrderParams) error {
	return s.createLegacyDepositFn(ctx, dep, items)
}

func (s *stubRepository) GetSimulatorFlags(ctx context.Context) (*domain.SimulatorFlags, error) {
	return s.getSimulatorFlagsFn(ctx)
}

func (s *stubRepository) UpdateSimulatorFlags(ctx context.Context, req domain.UpdateSimulatorFlagsRequest) (*domain.SimulatorFlags, error) {
	return s.updateSimulatorFlagsFn(ctx, req)
}

func newTestService(repo store.Repository) *Service {
	return NewService(repo, nil, nil)
}

func riderPrincipal(riderID uuid.UUID) *domain.Principal {
	return &domain.Principal{
		UserID:  uuid.New(),
		Role:    domain.RoleRider,
		RiderID: &riderID,
	}
}

func asmPrincipal(asmID uuid.UUID) *domain.Principal {
	return &domain.Principal{
		UserID: uuid.New(),
		Role:   domain.RoleASM,
		ASMID:  &asmID,
	}
}

func smPrincipal(smID uuid.UUID) *domain.Principal {
	return &domain.Principal{
		UserID: uuid.New(),
		Role:   domain.RoleSM,
		SMID:   &smID,
	}
}

func adminPrincipal() *domain.Principal {
	return &domain.Principal{
		UserID: uuid.New(),
		Role:   domain.RoleAdmin,
	}
}

func collectedOrder(riderID uuid.UUID, amountPaise int64) domain.Order {
	codType := domain.CODHard
	return domain.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-" + uuid.NewString()[:8],
		PaymentType: domain.PaymentCOD,
		CODType:     &codType,
		CODAmount:   amountPaise,
		MoneyState:  domain.MoneyStateCollectedByRider,
		RiderID:     &riderID,
	}
}
