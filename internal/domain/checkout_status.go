package domain

type CheckoutStatus string

const (
	CheckoutStatusEmpty           CheckoutStatus = "EMPTY"
	CheckoutStatusUnauthenticated CheckoutStatus = "UNAUTHENTICATED"
	CheckoutStatusInitializing    CheckoutStatus = "INITIALIZING"
	CheckoutStatusReady           CheckoutStatus = "READY"
	CheckoutStatusSubmitting      CheckoutStatus = "SUBMITTING"
	CheckoutStatusFailed          CheckoutStatus = "FAILED"
	CheckoutStatusSucceeded       CheckoutStatus = "SUCCEEDED"
)

// validTransitions encodes the checkout flow: a failed payment confirmation
// stays resubmittable, success is terminal.
var validTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitializing: {CheckoutStatusReady, CheckoutStatusFailed},
	CheckoutStatusReady:        {CheckoutStatusSubmitting},
	CheckoutStatusSubmitting:   {CheckoutStatusSucceeded, CheckoutStatusFailed},
	CheckoutStatusFailed:       {CheckoutStatusSubmitting},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded || s == CheckoutStatusEmpty || s == CheckoutStatusUnauthenticated
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
