package httpapi

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/creatorhub/storefront/internal/fulfillment"
	"github.com/creatorhub/storefront/internal/payments"
)

// WebhookProcessor verifies and fulfills one raw webhook delivery.
type WebhookProcessor interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type WebhookHandler struct {
	processor   WebhookProcessor
	maxBodySize int64
	timeout     time.Duration
}

func NewWebhookHandler(processor WebhookProcessor, maxBodySize int64, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{
		processor:   processor,
		maxBodySize: maxBodySize,
		timeout:     timeout,
	}
}

// HandleEvent is the fulfillment entry point for the payment processor. The
// raw body is needed for signature verification, so it is read before any
// parsing.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		respondError(w, http.StatusBadRequest, "missing_signature", "missing stripe signature")
		return
	}

	if err := h.processor.HandleEvent(ctx, payload, sigHeader); err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidSignature):
			log.Printf("webhook signature verification failed: %v", err)
			respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		case errors.Is(err, fulfillment.ErrMissingMetadata):
			respondError(w, http.StatusBadRequest, "missing_metadata", "missing metadata")
		default:
			log.Printf("webhook processing error: %v", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
