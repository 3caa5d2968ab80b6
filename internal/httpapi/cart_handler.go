package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/creatorhub/storefront/internal/cart/repository"
	"github.com/creatorhub/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CartService is the slice of the cart store the HTTP layer needs.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	RemoveItem(ctx context.Context, userID string, packageID string) error
	UpdateQuantity(ctx context.Context, userID string, packageID string, quantity int) error
	ClearCart(ctx context.Context, userID string) error
	UpdateShippingInfo(ctx context.Context, userID string, info domain.ShippingInfo) error
}

type CartHandler struct {
	svc     CartService
	timeout time.Duration
}

func NewCartHandler(svc CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	PackageID   string  `json:"id"`
	CreatorID   string  `json:"creator_id"`
	CreatorName string  `json:"creator_name"`
	Price       float64 `json:"price"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ShippingInfoDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address struct {
		Line1      string `json:"line1"`
		Line2      string `json:"line2,omitempty"`
		City       string `json:"city"`
		State      string `json:"state"`
		PostalCode string `json:"postal_code"`
		Country    string `json:"country"`
	} `json:"address"`
}

type CartResponseDTO struct {
	Items        []domain.CartItem    `json:"items"`
	ShippingInfo *domain.ShippingInfo `json:"shipping_info,omitempty"`
	Subtotal     float64              `json:"subtotal"`
	Tax          float64              `json:"tax"`
	Total        float64              `json:"total"`
	ItemsCount   int                  `json:"items_count"`
}

func cartResponse(cart *domain.Cart) CartResponseDTO {
	totals := domain.CalculateTotals(cart.Items)
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponseDTO{
		Items:        items,
		ShippingInfo: cart.ShippingInfo,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		ItemsCount:   totals.ItemsCount,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.svc.GetCart(ctx, identity.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.PackageID == "" || req.CreatorID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "id and creator_id are required")
		return
	}
	if req.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	item := domain.CartItem{
		PackageID:   req.PackageID,
		CreatorID:   req.CreatorID,
		CreatorName: req.CreatorName,
		UnitPrice:   req.Price,
	}
	if err := h.svc.AddItem(ctx, identity.UserID, item); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	cart, err := h.svc.GetCart(ctx, identity.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(cart))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	packageID := chi.URLParam(r, "package_id")
	if packageID == "" {
		respondError(w, http.StatusBadRequest, "invalid_package_id", "package id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// A quantity below 1 removes the item; the cap keeps carts sane.
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not exceed 99")
		return
	}

	if err := h.svc.UpdateQuantity(ctx, identity.UserID, packageID, req.Quantity); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update quantity")
		return
	}

	cart, err := h.svc.GetCart(ctx, identity.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	packageID := chi.URLParam(r, "package_id")
	if packageID == "" {
		respondError(w, http.StatusBadRequest, "invalid_package_id", "package id is required")
		return
	}

	if err := h.svc.RemoveItem(ctx, identity.UserID, packageID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item")
		return
	}

	cart, err := h.svc.GetCart(ctx, identity.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.svc.ClearCart(ctx, identity.UserID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (h *CartHandler) UpdateShippingInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ShippingInfoDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Address.Line1 == "" || req.Address.City == "" ||
		req.Address.State == "" || req.Address.PostalCode == "" || req.Address.Country == "" {
		respondError(w, http.StatusBadRequest, "invalid_shipping_info", "all shipping fields except line2 are required")
		return
	}

	info := domain.ShippingInfo{
		Name:  req.Name,
		Email: req.Email,
		Address: domain.Address{
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
	}

	if err := h.svc.UpdateShippingInfo(ctx, identity.UserID, info); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update shipping info")
		return
	}

	respondJSON(w, http.StatusOK, info)
}
