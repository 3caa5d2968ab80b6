package payments

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeVerifier checks webhook signatures against the shared endpoint
// secret. Nothing is treated as paid without passing this check.
type StripeVerifier struct {
	endpointSecret string
}

func NewStripeVerifier(endpointSecret string) *StripeVerifier {
	return &StripeVerifier{endpointSecret: endpointSecret}
}

func (v *StripeVerifier) Verify(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, v.endpointSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// Only the metadata and amount are needed downstream; both session and
	// payment intent objects carry them under the same keys.
	var obj struct {
		Metadata    map[string]string `json:"metadata"`
		AmountTotal int64             `json:"amount_total"`
		Amount      int64             `json:"amount"`
	}
	if len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode event object: %w", err)
		}
	}

	amount := obj.AmountTotal
	if amount == 0 {
		amount = obj.Amount
	}

	return &WebhookEvent{
		ID:               event.ID,
		Type:             string(event.Type),
		Metadata:         obj.Metadata,
		AmountTotalMinor: amount,
	}, nil
}
