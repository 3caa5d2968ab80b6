package checkout

import "errors"

var (
	ErrNoItems = errors.New("no items to check out")
	// ErrItemMismatch means the request referenced a package that is not in
	// the buyer's stored cart.
	ErrItemMismatch = errors.New("cart contents do not match request")
	// ErrIllegalTransition guards the checkout state machine.
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
)
