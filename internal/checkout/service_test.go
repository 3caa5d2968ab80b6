package checkout

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub/storefront/internal/domain"
	"github.com/creatorhub/storefront/internal/payments"
)

type mockGateway struct {
	mu          sync.Mutex
	intentReq   *payments.IntentRequest
	sessionReq  *payments.SessionRequest
	intentErr   error
	sessionErr  error
	intentID    string
	sessionsURL string
}

func (m *mockGateway) CreatePaymentIntent(_ context.Context, req *payments.IntentRequest) (*payments.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intentReq = req
	if m.intentErr != nil {
		return nil, m.intentErr
	}
	return &payments.Intent{ID: m.intentID, ClientSecret: m.intentID + "_secret"}, nil
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, req *payments.SessionRequest) (*payments.HostedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionReq = req
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	return &payments.HostedSession{ID: "cs_test", URL: m.sessionsURL}, nil
}

type mockDirectory struct {
	creators []domain.Creator
	err      error
}

func (m *mockDirectory) GetCreatorsByIDs(_ context.Context, _ []string) ([]domain.Creator, error) {
	return m.creators, m.err
}

type mockCarts struct {
	cart *domain.Cart
	err  error
}

func (m *mockCarts) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func storedItems() []domain.CartItem {
	return []domain.CartItem{
		{PackageID: "pkg-1", CreatorID: "creator-1", CreatorName: "Ada", UnitPrice: 10, Quantity: 2},
		{PackageID: "pkg-2", CreatorID: "creator-2", CreatorName: "Grace", UnitPrice: 5, Quantity: 1},
	}
}

func storedCart() *mockCarts {
	return &mockCarts{cart: &domain.Cart{UserID: "user-1", Items: storedItems()}}
}

func TestInitiateIntent_AmountComputedServerSide(t *testing.T) {
	gw := &mockGateway{intentID: "pi_test"}
	svc := NewService(gw, &mockDirectory{}, storedCart())

	result, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", storedItems(), nil)

	require.NoError(t, err)
	// 25.00 subtotal + 7% tax = 26.75 charged as 2675 cents
	assert.Equal(t, int64(2675), gw.intentReq.AmountMinor)
	assert.Equal(t, "usd", gw.intentReq.Currency)
	assert.Equal(t, 26.75, result.Amount)
	assert.Equal(t, "pi_test_secret", result.ClientSecret)
	assert.Equal(t, domain.CheckoutStatusReady, result.Status)
}

func TestInitiateIntent_ClientPriceIgnored(t *testing.T) {
	gw := &mockGateway{intentID: "pi_test"}
	svc := NewService(gw, &mockDirectory{}, storedCart())

	forged := []domain.CartItem{
		{PackageID: "pkg-1", CreatorID: "creator-1", UnitPrice: 0.01, Quantity: 1},
		{PackageID: "pkg-2", CreatorID: "creator-2", UnitPrice: 0.01, Quantity: 1},
	}
	result, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", forged, nil)

	require.NoError(t, err)
	// Stored prices win: 25.00 + 7% tax, not the forged 0.02.
	assert.Equal(t, int64(2675), gw.intentReq.AmountMinor)
	assert.Equal(t, 26.75, result.Amount)
}

func TestInitiateIntent_UnknownPackageRejected(t *testing.T) {
	svc := NewService(&mockGateway{}, &mockDirectory{}, storedCart())

	request := []domain.CartItem{{PackageID: "pkg-ghost", CreatorID: "creator-9", UnitPrice: 1, Quantity: 1}}
	_, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", request, nil)

	assert.ErrorIs(t, err, ErrItemMismatch)
}

func TestInitiateIntent_EmptyRequestItems(t *testing.T) {
	svc := NewService(&mockGateway{}, &mockDirectory{}, storedCart())

	_, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", nil, nil)

	assert.ErrorIs(t, err, ErrNoItems)
}

func TestInitiateIntent_EmptyStoredCart(t *testing.T) {
	carts := &mockCarts{cart: &domain.Cart{UserID: "user-1"}}
	svc := NewService(&mockGateway{}, &mockDirectory{}, carts)

	_, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", storedItems(), nil)

	assert.ErrorIs(t, err, ErrNoItems)
}

func TestInitiateIntent_MetadataCarriesStoredSnapshots(t *testing.T) {
	gw := &mockGateway{intentID: "pi_test"}
	svc := NewService(gw, &mockDirectory{}, storedCart())
	shipping := &domain.ShippingInfo{Name: "Ada Lovelace", Email: "ship@example.com"}

	_, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", storedItems(), shipping)

	require.NoError(t, err)
	md := gw.intentReq.Metadata
	assert.Equal(t, "user-1", md["user_id"])
	assert.Equal(t, "2", md["items_count"])
	assert.Equal(t, "Ada Lovelace", md["shipping_name"])
	assert.Equal(t, "ship@example.com", md["shipping_email"])

	var snapshots []itemSnapshot
	require.NoError(t, json.Unmarshal([]byte(md["items_json"]), &snapshots))
	require.Len(t, snapshots, 2)
	assert.Equal(t, "pkg-1", snapshots[0].ID)
	assert.Equal(t, "creator-1", snapshots[0].CreatorID)
	assert.Equal(t, 10.0, snapshots[0].Price)
	assert.Equal(t, 2, snapshots[0].Quantity)
}

func TestInitiateIntent_ShippingEmailFallsBackToAccount(t *testing.T) {
	gw := &mockGateway{intentID: "pi_test"}
	svc := NewService(gw, &mockDirectory{}, storedCart())

	_, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", storedItems(), nil)

	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", gw.intentReq.Metadata["shipping_email"])
}

func TestInitiateIntent_CardDecline(t *testing.T) {
	decline := &payments.DeclineError{Kind: "card_error", Message: "Your card was declined."}
	gw := &mockGateway{intentErr: decline}
	svc := NewService(gw, &mockDirectory{}, storedCart())

	result, err := svc.InitiateIntent(context.Background(), "user-1", "buyer@example.com", storedItems(), nil)

	require.Error(t, err)
	var got *payments.DeclineError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "card_error", got.Kind)
	require.NotNil(t, result)
	assert.Equal(t, domain.CheckoutStatusFailed, result.Status)
}

func TestInitiateHostedSession_OneLineItemPerEntry(t *testing.T) {
	gw := &mockGateway{sessionsURL: "https://checkout.example.com/cs_test"}
	svc := NewService(gw, &mockDirectory{creators: []domain.Creator{{ID: "creator-1", Name: "Ada"}, {ID: "creator-2", Name: "Grace"}}}, storedCart())

	result, err := svc.InitiateHostedSession(context.Background(), "user-1", "buyer@example.com", "https://shop.example.com", storedItems())

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/cs_test", result.URL)
	assert.Equal(t, domain.CheckoutStatusReady, result.Status)

	req := gw.sessionReq
	require.Len(t, req.LineItems, 2)
	for _, li := range req.LineItems {
		assert.Equal(t, "Creator Content Package", li.Name)
		assert.Equal(t, int64(1), li.Quantity)
	}
	assert.Equal(t, int64(1000), req.LineItems[0].UnitAmountMinor)
	assert.Equal(t, int64(500), req.LineItems[1].UnitAmountMinor)
	assert.Equal(t, "https://shop.example.com/checkout-success", req.SuccessURL)
	assert.Equal(t, "https://shop.example.com/cart", req.CancelURL)
	assert.Equal(t, "buyer@example.com", req.CustomerEmail)
}

func TestInitiateHostedSession_ClientPriceIgnored(t *testing.T) {
	gw := &mockGateway{sessionsURL: "https://checkout.example.com/cs_test"}
	svc := NewService(gw, &mockDirectory{}, storedCart())

	forged := []domain.CartItem{{PackageID: "pkg-1", CreatorID: "creator-1", UnitPrice: 0.01, Quantity: 1}}
	_, err := svc.InitiateHostedSession(context.Background(), "user-1", "buyer@example.com", "https://shop.example.com", forged)

	require.NoError(t, err)
	require.Len(t, gw.sessionReq.LineItems, 1)
	assert.Equal(t, int64(1000), gw.sessionReq.LineItems[0].UnitAmountMinor)
}

func TestInitiateHostedSession_MetadataCarriesCreatorIDs(t *testing.T) {
	gw := &mockGateway{sessionsURL: "https://checkout.example.com/cs_test"}
	svc := NewService(gw, &mockDirectory{creators: []domain.Creator{{ID: "creator-1", Name: "Ada"}}}, storedCart())

	_, err := svc.InitiateHostedSession(context.Background(), "user-1", "buyer@example.com", "https://shop.example.com", storedItems())

	require.NoError(t, err)
	md := gw.sessionReq.Metadata
	assert.Equal(t, "user-1", md["user_id"])

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(md["creator_ids"]), &ids))
	assert.Equal(t, []string{"creator-1", "creator-2"}, ids)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(md["creator_names"]), &names))
	assert.Equal(t, []string{"Ada"}, names)
}

func TestInitiateHostedSession_DirectoryFailureDoesNotBlock(t *testing.T) {
	gw := &mockGateway{sessionsURL: "https://checkout.example.com/cs_test"}
	svc := NewService(gw, &mockDirectory{err: assert.AnError}, storedCart())

	result, err := svc.InitiateHostedSession(context.Background(), "user-1", "buyer@example.com", "https://shop.example.com", storedItems())

	require.NoError(t, err)
	assert.NotEmpty(t, result.URL)
	assert.Equal(t, "[]", gw.sessionReq.Metadata["creator_names"])
}

func TestInitiateHostedSession_EmptyRequestItems(t *testing.T) {
	svc := NewService(&mockGateway{}, &mockDirectory{}, storedCart())

	_, err := svc.InitiateHostedSession(context.Background(), "user-1", "buyer@example.com", "https://shop.example.com", nil)

	assert.ErrorIs(t, err, ErrNoItems)
}
