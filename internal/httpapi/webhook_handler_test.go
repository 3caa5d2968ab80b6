package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub/storefront/internal/domain"
	"github.com/creatorhub/storefront/internal/fulfillment"
	"github.com/creatorhub/storefront/internal/orders/repository"
	"github.com/creatorhub/storefront/internal/payments"
)

const testEndpointSecret = "whsec_test_secret"

type webhookStore struct {
	mu       sync.Mutex
	packages map[string]*domain.CreatorPackage
	orders   []*domain.Order
}

func (s *webhookStore) GetPackageByCreatorID(_ context.Context, creatorID string) (*domain.CreatorPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg, ok := s.packages[creatorID]
	if !ok {
		return nil, repository.ErrPackageNotFound
	}
	return pkg, nil
}

func (s *webhookStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	return nil
}

func newWebhookTest() (*WebhookHandler, *webhookStore) {
	store := &webhookStore{packages: map[string]*domain.CreatorPackage{
		"creator-1": {ID: "pkg-1", CreatorID: "creator-1"},
	}}
	verifier := payments.NewStripeVerifier(testEndpointSecret)
	processor := fulfillment.NewService(store, verifier, nil)
	return NewWebhookHandler(processor, 1<<20, 5*time.Second), store
}

// signPayload builds a Stripe-Signature header the verifier accepts:
// v1 = HMAC-SHA256(secret, "<timestamp>.<payload>").
func signPayload(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func sessionCompletedPayload() []byte {
	return []byte(`{
		"id": "evt_test_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"metadata": {"user_id": "user-1", "creator_ids": "[\"creator-1\"]"},
				"amount_total": 2139
			}
		}
	}`)
}

func TestWebhook_ValidSignatureCreatesOrder(t *testing.T) {
	handler, store := newWebhookTest()
	payload := sessionCompletedPayload()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload(testEndpointSecret, payload))
	rec := httptest.NewRecorder()

	handler.HandleEvent(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received": true}`, rec.Body.String())
	require.Len(t, store.orders, 1)
	assert.Equal(t, "user-1", store.orders[0].UserID)
	assert.Equal(t, "pkg-1", store.orders[0].CreatorPackageID)
	assert.Equal(t, 21.39, store.orders[0].Amount)
}

func TestWebhook_TamperedPayloadRejected(t *testing.T) {
	handler, store := newWebhookTest()
	payload := sessionCompletedPayload()
	sig := signPayload(testEndpointSecret, payload)
	tampered := bytes.Replace(payload, []byte(`"user-1"`), []byte(`"attacker"`), 1)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(tampered))
	req.Header.Set("Stripe-Signature", sig)
	rec := httptest.NewRecorder()

	handler.HandleEvent(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_signature")
	assert.Empty(t, store.orders)
}

func TestWebhook_WrongSecretRejected(t *testing.T) {
	handler, store := newWebhookTest()
	payload := sessionCompletedPayload()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload("whsec_other", payload))
	rec := httptest.NewRecorder()

	handler.HandleEvent(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.orders)
}

func TestWebhook_MissingSignatureHeader(t *testing.T) {
	handler, store := newWebhookTest()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(sessionCompletedPayload()))
	rec := httptest.NewRecorder()

	handler.HandleEvent(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_signature")
	assert.Empty(t, store.orders)
}

func TestWebhook_MissingMetadata(t *testing.T) {
	handler, store := newWebhookTest()
	payload := []byte(`{
		"id": "evt_test_2",
		"type": "checkout.session.completed",
		"data": {"object": {"metadata": {}, "amount_total": 2139}}
	}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload(testEndpointSecret, payload))
	rec := httptest.NewRecorder()

	handler.HandleEvent(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_metadata")
	assert.Empty(t, store.orders)
}

func TestWebhook_UnhandledEventTypeAcknowledged(t *testing.T) {
	handler, store := newWebhookTest()
	payload := []byte(`{
		"id": "evt_test_3",
		"type": "charge.refunded",
		"data": {"object": {}}
	}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload(testEndpointSecret, payload))
	rec := httptest.NewRecorder()

	handler.HandleEvent(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.orders)
}
