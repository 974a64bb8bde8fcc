package enums

// ResolutionState is a step of the payment-source resolution state machine.
type ResolutionState string

const (
	ResolutionAwaitingMethod  ResolutionState = "AWAITING_METHOD"
	ResolutionValidatingFunds ResolutionState = "VALIDATING_FUNDS"
	ResolutionBuildingPayload ResolutionState = "BUILDING_PAYLOAD"
	ResolutionSubmitted       ResolutionState = "SUBMITTED"
	ResolutionConfirmed       ResolutionState = "CONFIRMED"
	ResolutionRedirected      ResolutionState = "REDIRECTED"
	ResolutionRejected        ResolutionState = "REJECTED"
)

// String implements fmt.Stringer.
func (s ResolutionState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can follow the state.
func (s ResolutionState) IsTerminal() bool {
	switch s {
	case ResolutionConfirmed, ResolutionRedirected, ResolutionRejected:
		return true
	}
	return false
}
