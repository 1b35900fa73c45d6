/**
 * @description
 * This file defines the RiderBundle model: an immutable-once-sealed aggregation
 * of one rider's collected cash across a set of orders, together with the join
 * entity fixing bundle membership and the request/response DTOs for the bundle
 * API endpoints.
 *
 * @notes
 * - A bundle's breakdown, photos, and membership are frozen once it reaches
 *   READY_FOR_HANDOVER; only status-forward fields change after that.
 * - An order belongs to at most one active bundle at a time, enforced by a
 *   partial unique index on rider_bundle_orders.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// BundleStatus is the lifecycle state of a rider bundle.
type BundleStatus string

const (
	BundleCreated          BundleStatus = "CREATED"
	BundleReadyForHandover BundleStatus = "READY_FOR_HANDOVER"
	BundleHandedOverToASM  BundleStatus = "HANDEDOVER_TO_ASM"
	BundleRejected         BundleStatus = "REJECTED"
	BundleInSuperBundle    BundleStatus = "INCLUDED_IN_SUPERBUNDLE"
)

// Breakdown is a physical cash count: currency note value in whole rupees
// mapped to the number of notes counted.
type Breakdown map[string]int64

// RiderBundle aggregates a rider's collected cash for a fixed set of orders.
type RiderBundle struct {
	ID              uuid.UUID    `json:"id"`
	RiderID         uuid.UUID    `json:"rider_id"`
	RiderName       *string      `json:"rider_name,omitempty"`
	ASMID           *uuid.UUID   `json:"asm_id,omitempty"`
	ExpectedAmount  int64        `json:"expected_amount"` // in paise
	Breakdown       Breakdown    `json:"breakdown"`
	PhotoProofs     []string     `json:"photo_proofs,omitempty"`
	DigitalSignoff  bool         `json:"digital_signoff"`
	Status          BundleStatus `json:"status"`
	ValidatedAmount *int64       `json:"validated_amount,omitempty"` // in paise, set on acceptance
	RejectionReason *string      `json:"rejection_reason,omitempty"`
	OrderCount      int          `json:"order_count,omitempty"`
	SealedAt        *time.Time   `json:"sealed_at,omitempty"`
	HandedOverAt    *time.Time   `json:"handedover_at,omitempty"`
	RejectedAt      *time.Time   `json:"rejected_at,omitempty"`
	TestTag         *string      `json:"test_tag,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// CustodyAmount is the amount the ASM is accountable for once the bundle is
// accepted: the validated amount when a recount was recorded, otherwise the
// expected amount.
func (b *RiderBundle) CustodyAmount() int64 {
	if b.ValidatedAmount != nil {
		return *b.ValidatedAmount
	}
	return b.ExpectedAmount
}

// RiderBundleOrder fixes one order's membership in a bundle at creation time.
// Rows are immutable; rejection deactivates them instead of deleting.
type RiderBundleOrder struct {
	ID        uuid.UUID `json:"id"`
	BundleID  uuid.UUID `json:"bundle_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Amount    int64     `json:"amount"` // custody amount frozen at creation, in paise
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBundleRequest is the DTO for the bundle creation endpoint.
type CreateBundleRequest struct {
	OrderIDs       []uuid.UUID `json:"order_ids"`
	Breakdown      Breakdown   `json:"breakdown"`
	PhotoProofs    []string    `json:"photo_proofs,omitempty"`
	DigitalSignoff bool        `json:"digital_signoff"`
	ASMID          *uuid.UUID  `json:"asm_id,omitempty"`
	TestTag        *string     `json:"test_tag,omitempty"`
}

// BundleDecision is an ASM's verdict on a sealed bundle.
type BundleDecision string

const (
	DecisionAccept BundleDecision = "ACCEPT"
	DecisionReject BundleDecision = "REJECT"
)

// BundleDecisionRequest is the DTO for the accept/reject endpoint. The actual
// breakdown, when supplied on acceptance, records the ASM's physical recount.
type BundleDecisionRequest struct {
	Decision        BundleDecision `json:"decision"`
	ActualBreakdown Breakdown      `json:"actual_breakdown,omitempty"`
	Comments        *string        `json:"comments,omitempty"`
}

// BundleListOptions controls pagination for bundle listings.
type BundleListOptions struct {
	Status string
	Limit  int
	Offset int
}
