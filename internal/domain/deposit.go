/**
 * @description
 * This file defines the Deposit model: a bank-deposit record reconciling one or
 * more superbundles (or, on the legacy path, raw orders) against a physical
 * deposit event, together with the deposit-order join entity and DTOs.
 *
 * @notes
 * - Deposit numbers are unique; re-submitting one fails rather than creating a
 *   duplicate financial record.
 * - An amount mismatch flags the deposit for manual reconciliation; it does not
 *   block creation.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DepositStatus is the lifecycle state of a deposit record.
type DepositStatus string

const (
	DepositCreated    DepositStatus = "CREATED"
	DepositReconciled DepositStatus = "RECONCILED"
)

// DepositValidation is the outcome of comparing the counted amount against the
// aggregated custody amount.
type DepositValidation string

const (
	ValidationPending   DepositValidation = "PENDING"
	ValidationValidated DepositValidation = "VALIDATED"
	ValidationMismatch  DepositValidation = "MISMATCH"
)

// Deposit reconciles aggregated cash custody to a bank deposit.
type Deposit struct {
	ID               uuid.UUID         `json:"id"`
	DepositNumber    string            `json:"deposit_number"`
	ASMID            *uuid.UUID        `json:"asm_id,omitempty"`
	ASMName          *string           `json:"asm_name,omitempty"`
	DepositedByID    uuid.UUID         `json:"deposited_by_id"`
	ExpectedAmount   int64             `json:"expected_amount"` // in paise
	ActualAmount     *int64            `json:"actual_amount,omitempty"`
	ValidationStatus DepositValidation `json:"validation_status"`
	SlipRef          *string           `json:"slip_ref,omitempty"`
	BankAccount      *string           `json:"bank_account,omitempty"`
	Status           DepositStatus     `json:"status"`
	DepositDate      time.Time         `json:"deposit_date"`
	OrderCount       int               `json:"order_count,omitempty"`
	TestTag          *string           `json:"test_tag,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// DepositOrder links a descendant order into a deposit. On the legacy path it
// additionally records the per-order collection outcome; non-collected orders
// keep their reason here and do not advance to DEPOSITED.
type DepositOrder struct {
	ID                   uuid.UUID        `json:"id"`
	DepositID            uuid.UUID        `json:"deposit_id"`
	OrderID              uuid.UUID        `json:"order_id"`
	Amount               int64            `json:"amount"` // in paise
	CollectionStatus     CollectionStatus `json:"collection_status"`
	NonCollectionReason  *string          `json:"non_collection_reason,omitempty"`
	FutureCollectionDate *time.Time       `json:"future_collection_date,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// CreateDepositRequest is the DTO for creating a deposit from superbundles.
type CreateDepositRequest struct {
	SuperBundleIDs []uuid.UUID `json:"superbundle_ids"`
	DepositNumber  string      `json:"deposit_number"`
	DepositDate    time.Time   `json:"deposit_date"`
	SlipRef        *string     `json:"slip_ref,omitempty"`
	BankAccount    *string     `json:"bank_account,omitempty"`
	ActualAmount   *int64      `json:"actual_amount,omitempty"` // in paise
	TestTag        *string     `json:"test_tag,omitempty"`
}

// LegacyDepositItem is the extended per-order collection-status payload for
// the direct order-to-deposit path.
type LegacyDepositItem struct {
	OrderNumber          string           `json:"order_number"`
	Status               CollectionStatus `json:"status"`
	Reason               *string          `json:"reason,omitempty"`
	FutureCollectionDate *time.Time       `json:"future_collection_date,omitempty"`
}

// CreateLegacyDepositRequest is the DTO for creating a deposit directly from
// orders that were never bundled.
type CreateLegacyDepositRequest struct {
	Orders        []LegacyDepositItem `json:"orders"`
	DepositNumber string              `json:"deposit_number"`
	DepositDate   time.Time           `json:"deposit_date"`
	SlipRef       *string             `json:"slip_ref,omitempty"`
	BankAccount   *string             `json:"bank_account,omitempty"`
	ActualAmount  *int64              `json:"actual_amount,omitempty"` // in paise
	TestTag       *string             `json:"test_tag,omitempty"`
}
