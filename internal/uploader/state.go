package uploader

import "fmt"

// State is the client-local lifecycle state of one tracked item.
type State string

const (
	StatePending         State = "pending"
	StateTargetRequested State = "target_requested"
	StateTransferring    State = "transferring"
	StateTransferred     State = "transferred"
	StateFinalized       State = "finalized"
	StateCanceled        State = "canceled"
	StateFailed          State = "failed"
)

type stateTransition struct {
	From State
	To   State
}

// validTransitions lists every allowed state transition.
// Cancellation is only possible while bytes are in flight.
var validTransitions = map[stateTransition]bool{
	{StatePending, StateTargetRequested}:      true,
	{StateTargetRequested, StateTransferring}: true,
	{StateTargetRequested, StateFailed}:       true,
	{StateTransferring, StateTransferred}:     true,
	{StateTransferring, StateCanceled}:        true,
	{StateTransferring, StateFailed}:          true,
	{StateTransferred, StateFinalized}:        true,
}

// ValidateTransition reports whether moving from one state to another
// is allowed, returning a descriptive error when it is not.
func ValidateTransition(from, to State) error {
	if !validTransitions[stateTransition{From: from, To: to}] {
		return fmt.Errorf("invalid state transition from %s to %s", from, to)
	}
	return nil
}

// CanTransitionTo reports whether the transition is allowed.
func CanTransitionTo(from, to State) bool {
	return validTransitions[stateTransition{From: from, To: to}]
}

// IsTerminal reports whether no further transitions exist from s.
func IsTerminal(s State) bool {
	return s == StateFinalized || s == StateCanceled || s == StateFailed
}
