/**
 * @description
 * This file implements the precondition checks for the order money-state
 * machine. Every custody transition names its expected predecessor states; an
 * order in any other state yields a conflict, never a silent overwrite. The
 * transition table itself lives in the domain package, shared with the store
 * layer's guarded SQL updates.
 */

package app

import (
	"fmt"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// CanTransition reports whether an order may move from its current money-state
// to the target state.
func CanTransition(from, to domain.MoneyState) bool {
	for _, allowed := range domain.MoneyStatePredecessors(to) {
		if allowed == from {
			return true
		}
	}
	return false
}

// CheckTransition returns a descriptive conflict error when the move is not
// allowed, naming the current and required states.
func CheckTransition(orderNumber string, from, to domain.MoneyState) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: order %s is %s, cannot move to %s",
		ErrStateConflict, orderNumber, from, to)
}
