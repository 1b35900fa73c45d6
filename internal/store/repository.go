/**
 * @description
 * This file defines the `Repository` interface: the contract for all data
 * access required by the cash-custody service. The interface decouples the
 * business logic from the PostgreSQL implementation and lets tests substitute
 * stubs for individual methods.
 *
 * @notes
 * - Mutating methods take the acting principal's scope filters (nil = admin
 *   bypass) so ownership is re-checked atomically with the write, not only at
 *   read time.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Principal methods
	FindPrincipalByAuthSubject(ctx context.Context, subject string) (*domain.Principal, error)
	UpsertPrincipal(ctx context.Context, p *domain.Principal) error

	// Order methods
	// UpsertOrder inserts the order or returns the existing row for the same
	// order_number; the bool reports whether a new row was created.
	UpsertOrder(ctx context.Context, o *domain.Order) (*domain.Order, bool, error)
	FindOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	FindOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Order, error)
	FindOrdersByNumbers(ctx context.Context, numbers []string) ([]domain.Order, error)
	// ApplyRiderEvent appends the audit event and applies the guarded
	// money-state transition in one transaction.
	ApplyRiderEvent(ctx context.Context, ev *domain.RiderEvent, riderName *string, to domain.MoneyState) (*domain.Order, error)
	UpdateOrderCollectionStatus(ctx context.Context, upd domain.OrderCollectionUpdate, asmID *uuid.UUID) error

	// Rider bundle methods
	// CreateBundleWithOrders inserts the bundle and its membership rows and
	// moves every member order to BUNDLED, all-or-nothing.
	CreateBundleWithOrders(ctx context.Context, b *domain.RiderBundle, orderIDs []uuid.UUID) error
	FindBundleByID(ctx context.Context, id uuid.UUID) (*domain.RiderBundle, error)
	FindBundlesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.RiderBundle, error)
	FindBundleOrders(ctx context.Context, bundleID uuid.UUID) ([]domain.Order, error)
	ListBundles(ctx context.Context, riderID, asmID *uuid.UUID, opts domain.BundleListOptions) ([]domain.RiderBundle, error)
	SealBundle(ctx context.Context, bundleID uuid.UUID, riderID *uuid.UUID) (*domain.RiderBundle, error)
	AcceptBundle(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, acceptedBy uuid.UUID, validatedAmount int64, actualBreakdown domain.Breakdown) (*domain.RiderBundle, error)
	RejectBundle(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, reason string) (*domain.RiderBundle, error)

	// Superbundle methods
	CreateSuperBundleWithBundles(ctx context.Context, sb *domain.ASMSuperBundle, bundleIDs []uuid.UUID) error
	FindSuperBundleByID(ctx context.Context, id uuid.UUID) (*domain.ASMSuperBundle, error)
	FindSuperBundlesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ASMSuperBundle, error)
	// ListSuperBundles scopes by ASM when asmID is set; an smID filter keeps
	// SMs to unassigned superbundles plus those assigned to them.
	ListSuperBundles(ctx context.Context, asmID, smID *uuid.UUID, opts domain.SuperBundleListOptions) ([]domain.ASMSuperBundle, error)
	SealSuperBundle(ctx context.Context, id uuid.UUID, asmID *uuid.UUID) (*domain.ASMSuperBundle, error)
	HandoverSuperBundle(ctx context.Context, id uuid.UUID, asmID *uuid.UUID, smID uuid.UUID) (*domain.ASMSuperBundle, error)
	HandoverSummary(ctx context.Context, asmID uuid.UUID) (*domain.HandoverSummary, error)

	// Deposit methods
	// CreateDepositFromSuperBundles inserts the deposit, links every
	// descendant order, advances superbundles and orders, and appends
	// DEPOSITED audit events, in one transaction.
	CreateDepositFromSuperBundles(ctx context.Context, dep *domain.Deposit, superbundleIDs []uuid.UUID) error
	CreateLegacyDeposit(ctx context.Context, dep *domain.Deposit, items []LegacyDepositOrderParams) error
	FindDepositByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error)
	FindDepositOrders(ctx context.Context, depositID uuid.UUID) ([]domain.DepositOrder, error)

	// Simulator flag methods
	GetSimulatorFlags(ctx context.Context) (*domain.SimulatorFlags, error)
	// UpdateSimulatorFlags performs a compare-and-set keyed on the version the
	// caller read; a stale version yields ErrFlagsVersionConflict.
	UpdateSimulatorFlags(ctx context.Context, req domain.UpdateSimulatorFlagsRequest) (*domain.SimulatorFlags, error)
}

// LegacyDepositOrderParams fixes one order's inclusion in a legacy deposit,
// carrying the per-order collection outcome. Only collected orders advance to
// DEPOSITED; the rest keep their reason in the join row.
type LegacyDepositOrderParams struct {
	OrderID              uuid.UUID
	OrderNumber          string
	Amount               int64
	Status               domain.CollectionStatus
	Reason               *string
	FutureCollectionDate *time.Time
}
