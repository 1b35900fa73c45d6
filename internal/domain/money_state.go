/**
 * @description
 * This file defines the money-state transition table: for each reachable
 * custody state, the states an event may move an order from. Both the
 * application-level precondition checks and the store's guarded SQL updates
 * read this one table, so they cannot disagree.
 */

package domain

var moneyStatePredecessors = map[MoneyState][]MoneyState{
	MoneyStateCollectedByRider: {MoneyStateUncollected},
	MoneyStateBundled:          {MoneyStateCollectedByRider},
	MoneyStateReadyForHandover: {MoneyStateBundled},
	MoneyStateHandoverToASM:    {MoneyStateReadyForHandover},
	MoneyStateInSuperBundle:    {MoneyStateHandoverToASM},
	MoneyStateInDeposit:        {MoneyStateInSuperBundle},
	MoneyStateDeposited: {
		MoneyStateInSuperBundle,
		MoneyStateInDeposit,
		// Legacy direct-deposit path: orders never bundled.
		MoneyStateCollectedByRider,
	},
	MoneyStateReconciled:         {MoneyStateDeposited},
	MoneyStateReconcileException: {MoneyStateDeposited},
	// Once cash is bundled it is frozen custody; cancelling a bundled order
	// requires the ASM to reject the bundle first, which reverts its members
	// to COLLECTED_BY_RIDER.
	MoneyStateCancelled: {
		MoneyStateUncollected,
		MoneyStateCollectedByRider,
	},
	MoneyStateRefunded: {
		MoneyStateCollectedByRider,
		MoneyStateDeposited,
	},
}

// MoneyStatePredecessors returns the states an order may move to the target
// state from. An unknown target has no predecessors and admits no transition.
func MoneyStatePredecessors(to MoneyState) []MoneyState {
	return moneyStatePredecessors[to]
}
