package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/creatorhub/storefront/internal/checkout"
	"github.com/creatorhub/storefront/internal/domain"
	"github.com/creatorhub/storefront/internal/payments"
)

// CheckoutService is the orchestrator as seen by the HTTP layer.
type CheckoutService interface {
	InitiateIntent(ctx context.Context, userID, email string, items []domain.CartItem, shipping *domain.ShippingInfo) (*checkout.IntentResult, error)
	InitiateHostedSession(ctx context.Context, userID, email, origin string, items []domain.CartItem) (*checkout.SessionResult, error)
}

type CheckoutHandler struct {
	svc CheckoutService
	// defaultOrigin backs the hosted-session redirect URLs when the
	// request carries no Origin header.
	defaultOrigin string
	timeout       time.Duration
}

func NewCheckoutHandler(svc CheckoutService, defaultOrigin string, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		svc:           svc,
		defaultOrigin: defaultOrigin,
		timeout:       timeout,
	}
}

// checkoutItemDTO matches the storefront client's cart line shape.
type checkoutItemDTO struct {
	ID          string  `json:"id"`
	CreatorID   string  `json:"creatorId"`
	CreatorName string  `json:"creatorName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type shippingInfoDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address struct {
		Line1      string `json:"line1"`
		Line2      string `json:"line2,omitempty"`
		City       string `json:"city"`
		State      string `json:"state"`
		PostalCode string `json:"postalCode"`
		Country    string `json:"country"`
	} `json:"address"`
}

type PaymentIntentRequestDTO struct {
	Items        []checkoutItemDTO `json:"items"`
	ShippingInfo *shippingInfoDTO  `json:"shippingInfo"`
}

type PaymentIntentResponseDTO struct {
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
}

type CheckoutSessionRequestDTO struct {
	Items []checkoutItemDTO `json:"items"`
}

type CheckoutSessionResponseDTO struct {
	URL string `json:"url"`
}

// CreatePaymentIntent backs the embedded-payment-element flow. The charge
// is priced from the buyer's stored cart; forged client prices or totals
// have no effect on the authorized amount.
func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PaymentIntentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items, ok := toCartItems(req.Items)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_items", "invalid items in request")
		return
	}

	result, err := h.svc.InitiateIntent(ctx, identity.UserID, identity.Email, items, toShippingInfo(req.ShippingInfo))
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, PaymentIntentResponseDTO{
		ClientSecret: result.ClientSecret,
		Amount:       result.Amount,
	})
}

// CreateCheckoutSession backs the hosted-redirect flow.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items, ok := toCartItems(req.Items)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_items", "invalid items in request")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = h.defaultOrigin
	}

	result, err := h.svc.InitiateHostedSession(ctx, identity.UserID, identity.Email, origin, items)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutSessionResponseDTO{URL: result.URL})
}

func toCartItems(dtos []checkoutItemDTO) ([]domain.CartItem, bool) {
	if len(dtos) == 0 {
		return nil, false
	}

	items := make([]domain.CartItem, 0, len(dtos))
	for _, dto := range dtos {
		if dto.ID == "" || dto.CreatorID == "" || dto.Price < 0 || dto.Quantity < 1 {
			return nil, false
		}
		items = append(items, domain.CartItem{
			PackageID:   dto.ID,
			CreatorID:   dto.CreatorID,
			CreatorName: dto.CreatorName,
			UnitPrice:   dto.Price,
			Quantity:    dto.Quantity,
		})
	}
	return items, true
}

func toShippingInfo(dto *shippingInfoDTO) *domain.ShippingInfo {
	if dto == nil {
		return nil
	}
	return &domain.ShippingInfo{
		Name:  dto.Name,
		Email: dto.Email,
		Address: domain.Address{
			Line1:      dto.Address.Line1,
			Line2:      dto.Address.Line2,
			City:       dto.Address.City,
			State:      dto.Address.State,
			PostalCode: dto.Address.PostalCode,
			Country:    dto.Address.Country,
		},
	}
}

func respondCheckoutError(w http.ResponseWriter, err error) {
	if errors.Is(err, checkout.ErrNoItems) {
		respondError(w, http.StatusBadRequest, "invalid_items", "invalid items in request")
		return
	}

	if errors.Is(err, checkout.ErrItemMismatch) {
		respondError(w, http.StatusBadRequest, "cart_mismatch", "requested items do not match the cart")
		return
	}

	var decline *payments.DeclineError
	if errors.As(err, &decline) {
		// Card and validation failures are buyer-actionable; show them.
		respondError(w, http.StatusBadRequest, decline.Kind, decline.Message)
		return
	}

	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
