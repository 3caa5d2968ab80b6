package payments

import (
	"context"
	"errors"

	"github.com/creatorhub/storefront/internal/domain"
)

// Event types the fulfillment flow cares about.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
)

var ErrInvalidSignature = errors.New("webhook signature verification failed")

type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	Shipping    *domain.ShippingInfo
}

// Intent carries the client secret the buyer's browser needs to complete
// payment. The processor secret key never leaves the server.
type Intent struct {
	ID           string
	ClientSecret string
}

type SessionLineItem struct {
	Name            string
	Description     string
	UnitAmountMinor int64
	Quantity        int64
}

type SessionRequest struct {
	LineItems     []SessionLineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type HostedSession struct {
	ID  string
	URL string
}

// Gateway is the payment processor as seen by the checkout flow.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req *IntentRequest) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*HostedSession, error)
}

// WebhookEvent is a verified processor event, reduced to the fields
// fulfillment needs.
type WebhookEvent struct {
	ID               string
	Type             string
	Metadata         map[string]string
	AmountTotalMinor int64
}

// DeclineError is a card or validation failure the buyer can act on; its
// message is safe to show inline on the payment form.
type DeclineError struct {
	Kind    string // "card_error" or "validation_error"
	Message string
}

func (e *DeclineError) Error() string {
	return e.Message
}
