/**
 * @description
 * This file defines the ASMSuperBundle model: an ASM's aggregation of one or
 * more accepted rider bundles, the join entity fixing bundle membership, and
 * the DTOs for the superbundle endpoints.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// SuperBundleStatus is the lifecycle state of an ASM superbundle.
type SuperBundleStatus string

const (
	SuperBundleCreated          SuperBundleStatus = "CREATED"
	SuperBundleReadyForHandover SuperBundleStatus = "READY_FOR_HANDOVER"
	SuperBundleHandedOverToSM   SuperBundleStatus = "HANDEDOVER_TO_SM"
	SuperBundleInDeposit        SuperBundleStatus = "INCLUDED_IN_DEPOSIT"
)

// ASMSuperBundle aggregates accepted rider bundles belonging to one ASM.
type ASMSuperBundle struct {
	ID             uuid.UUID         `json:"id"`
	ASMID          uuid.UUID         `json:"asm_id"`
	ASMName        *string           `json:"asm_name,omitempty"`
	SMID           *uuid.UUID        `json:"sm_id,omitempty"`
	ExpectedAmount int64             `json:"expected_amount"` // in paise
	Breakdown      Breakdown         `json:"breakdown"`
	DigitalSignoff bool              `json:"digital_signoff"`
	Status         SuperBundleStatus `json:"status"`
	DepositID      *uuid.UUID        `json:"deposit_id,omitempty"`
	BundleCount    int               `json:"bundle_count,omitempty"`
	SealedAt       *time.Time        `json:"sealed_at,omitempty"`
	HandedOverAt   *time.Time        `json:"handedover_at,omitempty"`
	TestTag        *string           `json:"test_tag,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// SuperBundleBundle fixes one bundle's membership in a superbundle. A bundle
// may appear in at most one superbundle, enforced by a unique index.
type SuperBundleBundle struct {
	ID            uuid.UUID `json:"id"`
	SuperBundleID uuid.UUID `json:"superbundle_id"`
	BundleID      uuid.UUID `json:"bundle_id"`
	Amount        int64     `json:"amount"` // custody amount frozen at inclusion, in paise
	CreatedAt     time.Time `json:"created_at"`
}

// CreateSuperBundleRequest is the DTO for the superbundle creation endpoint.
type CreateSuperBundleRequest struct {
	BundleIDs      []uuid.UUID `json:"bundle_ids"`
	Breakdown      Breakdown   `json:"breakdown"`
	DigitalSignoff bool        `json:"digital_signoff"`
	SMID           *uuid.UUID  `json:"sm_id,omitempty"`
	TestTag        *string     `json:"test_tag,omitempty"`
}

// HandoverSuperBundleRequest assigns the receiving SM when the ASM hands a
// sealed superbundle onward.
type HandoverSuperBundleRequest struct {
	SMID uuid.UUID `json:"sm_id"`
}

// HandoverSummary is the per-ASM view of cash awaiting handover: sealed rider
// bundles not yet decided, and superbundles not yet deposited.
type HandoverSummary struct {
	ASMID              uuid.UUID        `json:"asm_id"`
	PendingBundles     []RiderBundle    `json:"pending_bundles"`
	OpenSuperBundles   []ASMSuperBundle `json:"open_superbundles"`
	PendingAmount      int64            `json:"pending_amount"`       // in paise
	CustodyAmount      int64            `json:"custody_amount"`       // in paise
}

// SuperBundleListOptions controls pagination for superbundle listings.
type SuperBundleListOptions struct {
	Status string
	Limit  int
	Offset int
}
