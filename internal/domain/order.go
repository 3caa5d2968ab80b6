package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Order grants a buyer permanent access to one creator package. Rows are
// created only by the fulfillment webhook after the payment processor has
// confirmed the charge.
type Order struct {
	ID               uuid.UUID
	UserID           string
	CreatorPackageID string
	// EventID is the payment processor's event id; together with the
	// package id it deduplicates redelivered webhook events.
	EventID   string
	Amount    float64
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
