/**
 * @description
 * This file defines the Order model and its money-state lifecycle. An order is a
 * COD or prepaid shipment; the money-state tracks collected cash from rider
 * custody through ASM handover, aggregation, and bank deposit.
 *
 * @notes
 * - Amounts are stored as `int64` in paise (the smallest currency unit) to
 *   avoid floating-point inaccuracies with financial data.
 * - The money-state is derived from custody events, never trusted from the
 *   client; every transition is guarded by its expected predecessor state.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentType distinguishes cash-on-delivery shipments from prepaid ones.
type PaymentType string

const (
	PaymentCOD     PaymentType = "COD"
	PaymentPrepaid PaymentType = "PREPAID"
)

// CODType is the collection mechanism for a COD order.
type CODType string

const (
	CODHard CODType = "HARD"
	CODQR   CODType = "QR"
	CODRTO  CODType = "RTO"
)

// MoneyState is the custody state of an order's collected cash.
type MoneyState string

const (
	MoneyStateUncollected          MoneyState = "UNCOLLECTED"
	MoneyStateCollectedByRider     MoneyState = "COLLECTED_BY_RIDER"
	MoneyStateBundled              MoneyState = "BUNDLED"
	MoneyStateReadyForHandover     MoneyState = "READY_FOR_HANDOVER"
	MoneyStateHandoverToASM        MoneyState = "HANDOVER_TO_ASM"
	MoneyStateInSuperBundle        MoneyState = "INCLUDED_IN_SUPERBUNDLE"
	MoneyStateInDeposit            MoneyState = "INCLUDED_IN_DEPOSIT"
	MoneyStateDeposited            MoneyState = "DEPOSITED"
	MoneyStateReconciled           MoneyState = "RECONCILED"
	MoneyStateReconcileException   MoneyState = "RECONCILIATION_EXCEPTION"
	MoneyStateNotApplicable        MoneyState = "NOT_APPLICABLE"
	MoneyStateCancelled            MoneyState = "CANCELLED"
	MoneyStateRefunded             MoneyState = "REFUNDED"
)

// Terminal reports whether no further custody transition is allowed from s.
func (s MoneyState) Terminal() bool {
	switch s {
	case MoneyStateReconciled, MoneyStateReconcileException, MoneyStateNotApplicable,
		MoneyStateCancelled, MoneyStateRefunded:
		return true
	}
	return false
}

// Order represents a shipment and the custody ledger for its collected cash.
// This struct maps directly to the `orders` table in the database.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	OrderNumber     string     `json:"order_number"`
	StoreID         string     `json:"store_id"`
	PaymentType     PaymentType `json:"payment_type"`
	CODType         *CODType   `json:"cod_type,omitempty"`
	OrderAmount     int64      `json:"order_amount"`     // in paise
	CODAmount       int64      `json:"cod_amount"`       // in paise
	CollectedAmount int64      `json:"collected_amount"` // in paise
	MoneyState      MoneyState `json:"money_state"`
	RiderID         *uuid.UUID `json:"rider_id,omitempty"`
	RiderName       *string    `json:"rider_name,omitempty"`
	ASMID           *uuid.UUID `json:"asm_id,omitempty"`
	ASMName         *string    `json:"asm_name,omitempty"`
	BundleID        *uuid.UUID `json:"bundle_id,omitempty"`
	CollectedAt     *time.Time `json:"collected_at,omitempty"`
	HandoverToASMAt *time.Time `json:"handover_to_asm_at,omitempty"`
	DepositedAt     *time.Time `json:"deposited_at,omitempty"`
	ReconciledAt    *time.Time `json:"reconciled_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	RTOAt           *time.Time `json:"rto_at,omitempty"`
	TestTag         *string    `json:"test_tag,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CustodyAmount is the amount the rider is accountable for on this order:
// the collected amount when recorded, otherwise the COD amount.
func (o *Order) CustodyAmount() int64 {
	if o.CollectedAmount > 0 {
		return o.CollectedAmount
	}
	return o.CODAmount
}

// BundleEligible reports whether the order can be placed into a rider bundle.
func (o *Order) BundleEligible(riderID uuid.UUID) bool {
	if o.PaymentType != PaymentCOD || o.CODType == nil {
		return false
	}
	if *o.CODType != CODHard && *o.CODType != CODQR {
		return false
	}
	if o.MoneyState != MoneyStateCollectedByRider || o.BundleID != nil {
		return false
	}
	return o.RiderID != nil && *o.RiderID == riderID
}

// CollectionStatus is the extended per-order payload for the legacy direct
// order-to-deposit path.
type CollectionStatus string

const (
	CollectionCollected    CollectionStatus = "COLLECTED"
	CollectionNotCollected CollectionStatus = "NOT_COLLECTED"
)

// OrderCollectionUpdate carries a non-collection reason for a single order.
type OrderCollectionUpdate struct {
	OrderNumber          string           `json:"order_number"`
	Status               CollectionStatus `json:"status"`
	Reason               *string          `json:"reason,omitempty"`
	FutureCollectionDate *time.Time       `json:"future_collection_date,omitempty"`
}
