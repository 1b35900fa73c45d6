/**
 * @description
 * This file defines the append-only custody audit events (rider and ASM
 * events), the webhook DTOs that feed them, and the payloads published to the
 * message broker on custody transitions.
 *
 * @notes
 * - The order ledger derives money-state from events, never from
 *   client-supplied state; event tables are append-only and safe for
 *   concurrent insert.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// RiderEventType classifies custody events originating from rider activity.
type RiderEventType string

const (
	RiderEventCollected  RiderEventType = "COLLECTED"
	RiderEventDispatched RiderEventType = "DISPATCHED"
	RiderEventCancelled  RiderEventType = "CANCELLED"
	RiderEventRTO        RiderEventType = "RTO"
)

// RiderEvent is one append-only custody audit record tied to a rider action.
type RiderEvent struct {
	ID        uuid.UUID      `json:"id"`
	OrderID   uuid.UUID      `json:"order_id"`
	RiderID   uuid.UUID      `json:"rider_id"`
	EventType RiderEventType `json:"event_type"`
	Amount    *int64         `json:"amount,omitempty"` // in paise
	CreatedAt time.Time      `json:"created_at"`
}

// ASMEventType classifies custody events recorded during ASM/SM handling.
type ASMEventType string

const (
	ASMEventHandoverToASM ASMEventType = "HANDOVER_TO_ASM"
	ASMEventDeposited     ASMEventType = "DEPOSITED"
)

// ASMEvent is one append-only custody audit record tied to an ASM/SM action.
type ASMEvent struct {
	ID        uuid.UUID    `json:"id"`
	OrderID   uuid.UUID    `json:"order_id"`
	ASMID     *uuid.UUID   `json:"asm_id,omitempty"`
	EventType ASMEventType `json:"event_type"`
	Amount    *int64       `json:"amount,omitempty"` // in paise
	CreatedAt time.Time    `json:"created_at"`
}

// OrderWebhook is the inbound order-ingestion payload. Inserts are idempotent,
// keyed on order_number.
type OrderWebhook struct {
	OrderNumber string  `json:"order_number"`
	StoreID     string  `json:"store_id"`
	PaymentType string  `json:"payment_type"`
	CODType     *string `json:"cod_type,omitempty"`
	OrderAmount int64   `json:"order_amount"` // in paise
	CODAmount   *int64  `json:"cod_amount,omitempty"`
	TestTag     *string `json:"test_tag,omitempty"`
}

// RiderEventWebhook is the inbound rider-event payload.
type RiderEventWebhook struct {
	OrderNumber string    `json:"order_number"`
	RiderID     uuid.UUID `json:"rider_id"`
	RiderName   *string   `json:"rider_name,omitempty"`
	EventType   string    `json:"event_type"`
	Amount      *int64    `json:"amount,omitempty"` // in paise
}

// CustodyEventPayload is published to the message broker on every custody
// transition so downstream consumers (reconciliation jobs, dashboards) can
// follow the cash trail without polling.
type CustodyEventPayload struct {
	EntityType string    `json:"entity_type"` // order | bundle | superbundle | deposit
	EntityID   uuid.UUID `json:"entity_id"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"` // in paise
	ActorID    uuid.UUID `json:"actor_id"`
	Timestamp  time.Time `json:"timestamp"`
}
