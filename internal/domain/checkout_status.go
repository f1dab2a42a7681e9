package domain

type CheckoutStatus string

const (
	CheckoutStatusEditing    CheckoutStatus = "EDITING"
	CheckoutStatusValidating CheckoutStatus = "VALIDATING"
	CheckoutStatusSubmitting CheckoutStatus = "SUBMITTING"
	CheckoutStatusSuccess    CheckoutStatus = "SUCCESS"
	CheckoutStatusFailure    CheckoutStatus = "FAILURE"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusEditing:    {CheckoutStatusValidating},
	CheckoutStatusValidating: {CheckoutStatusSubmitting, CheckoutStatusEditing},
	CheckoutStatusSubmitting: {CheckoutStatusSuccess, CheckoutStatusFailure, CheckoutStatusEditing},
	CheckoutStatusFailure:    {CheckoutStatusEditing},
}

// CanTransitionTo reports whether a checkout attempt may move from one status to another.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSuccess
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
