package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/creatorhub/storefront/internal/domain"
)

// OrderLister exposes a buyer's purchase history.
type OrderLister interface {
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderLister
	timeout time.Duration
}

func NewOrdersHandler(orders OrderLister, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderDTO struct {
	ID               string    `json:"id"`
	CreatorPackageID string    `json:"creator_package_id"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListOrders returns the authenticated buyer's own orders, newest first.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := identityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrdersByUserID(ctx, identity.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, OrderDTO{
			ID:               order.ID.String(),
			CreatorPackageID: order.CreatorPackageID,
			Amount:           order.Amount,
			Status:           string(order.Status),
			CreatedAt:        order.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, dtos)
}
