/**
 * @description
 * This file defines the Principal: the typed capability object produced by the
 * authorization scope guard. It is resolved once per request from the verified
 * bearer subject and consumed uniformly by every operation, replacing
 * per-handler role-string checks.
 */

package domain

import "github.com/google/uuid"

// Role is the acting principal's role in the cash-custody hierarchy.
type Role string

const (
	RoleRider Role = "rider"
	RoleASM   Role = "asm"
	RoleSM    Role = "sm"
	RoleAdmin Role = "admin"
)

// Principal carries the verified identity and role-scoped identifiers of the
// actor behind a request. Scoped ids are nil unless the role carries them;
// admin bypasses all scoping.
type Principal struct {
	UserID      uuid.UUID  `json:"user_id"`
	AuthSubject string     `json:"auth_subject"`
	Role        Role       `json:"role"`
	RiderID     *uuid.UUID `json:"rider_id,omitempty"`
	ASMID       *uuid.UUID `json:"asm_id,omitempty"`
	SMID        *uuid.UUID `json:"sm_id,omitempty"`
	Name        *string    `json:"name,omitempty"`
}

// IsAdmin reports whether the principal bypasses role scoping.
func (p *Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// ScopedRiderID returns the rider scope filter for store reads/writes:
// nil for admin (no filter), the principal's rider id otherwise.
func (p *Principal) ScopedRiderID() *uuid.UUID {
	if p.IsAdmin() {
		return nil
	}
	return p.RiderID
}

// ScopedASMID returns the ASM scope filter for store reads/writes.
func (p *Principal) ScopedASMID() *uuid.UUID {
	if p.IsAdmin() {
		return nil
	}
	return p.ASMID
}

// ScopedSMID returns the SM scope filter for store reads/writes.
func (p *Principal) ScopedSMID() *uuid.UUID {
	if p.IsAdmin() {
		return nil
	}
	return p.SMID
}
