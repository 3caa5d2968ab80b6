package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/creatorhub/storefront/internal/domain"
	"github.com/creatorhub/storefront/internal/orders/repository"
	"github.com/creatorhub/storefront/internal/payments"
	"github.com/google/uuid"
)

// DefaultPackagePrice is charged to the order row when the processor omits
// the session total.
const DefaultPackagePrice = 19.99

var ErrMissingMetadata = errors.New("missing user id or creator ids in event metadata")

// EventVerifier authenticates a raw webhook payload. Consumers define this
// interface, not the Stripe implementation.
type EventVerifier interface {
	Verify(payload []byte, sigHeader string) (*payments.WebhookEvent, error)
}

// OrderStore is the slice of the orders repository fulfillment needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetPackageByCreatorID(ctx context.Context, creatorID string) (*domain.CreatorPackage, error)
}

// CompletedEvent is published once a payment event has been fulfilled, so
// downstream consumers (cart clearing) can react.
type CompletedEvent struct {
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	OrdersCreated int       `json:"orders_created"`
	CompletedAt   time.Time `json:"completed_at"`
}

type Publisher interface {
	PublishFulfillment(ctx context.Context, event CompletedEvent) error
}

// Service turns verified payment events into order rows. Signature
// verification is the trust boundary: no row is written before it passes.
type Service struct {
	store     OrderStore
	verifier  EventVerifier
	publisher Publisher
}

func NewService(store OrderStore, verifier EventVerifier, publisher Publisher) *Service {
	return &Service{
		store:     store,
		verifier:  verifier,
		publisher: publisher,
	}
}

// HandleEvent verifies and fulfills one webhook delivery. Per-creator
// failures are logged and skipped; the event as a whole still succeeds so
// the processor does not redeliver it forever.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.verifier.Verify(payload, sigHeader)
	if err != nil {
		return err
	}

	switch event.Type {
	case payments.EventCheckoutSessionCompleted:
		return s.fulfillSession(ctx, event)
	case payments.EventPaymentIntentSucceeded:
		return s.fulfillIntent(ctx, event)
	default:
		log.Printf("ignoring event %s of type %s", event.ID, event.Type)
		return nil
	}
}

func (s *Service) fulfillSession(ctx context.Context, event *payments.WebhookEvent) error {
	userID := event.Metadata["user_id"]

	var creatorIDs []string
	if raw := event.Metadata["creator_ids"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &creatorIDs); err != nil {
			return fmt.Errorf("%w: undecodable creator_ids", ErrMissingMetadata)
		}
	}

	if userID == "" || len(creatorIDs) == 0 {
		return ErrMissingMetadata
	}

	amount := amountOrDefault(event.AmountTotalMinor)
	created := s.createOrders(ctx, event.ID, userID, creatorIDs, amount)
	s.publishCompleted(ctx, event.ID, userID, created)
	return nil
}

// itemSnapshot mirrors the per-item metadata written at intent creation.
type itemSnapshot struct {
	ID        string  `json:"id"`
	CreatorID string  `json:"creator_id"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (s *Service) fulfillIntent(ctx context.Context, event *payments.WebhookEvent) error {
	userID := event.Metadata["user_id"]

	var items []itemSnapshot
	if raw := event.Metadata["items_json"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return fmt.Errorf("%w: undecodable items_json", ErrMissingMetadata)
		}
	}

	if userID == "" || len(items) == 0 {
		return ErrMissingMetadata
	}

	creatorIDs := make([]string, 0, len(items))
	seen := make(map[string]bool)
	for _, item := range items {
		if item.CreatorID == "" || seen[item.CreatorID] {
			continue
		}
		seen[item.CreatorID] = true
		creatorIDs = append(creatorIDs, item.CreatorID)
	}
	if len(creatorIDs) == 0 {
		return ErrMissingMetadata
	}

	amount := amountOrDefault(event.AmountTotalMinor)
	created := s.createOrders(ctx, event.ID, userID, creatorIDs, amount)
	s.publishCompleted(ctx, event.ID, userID, created)
	return nil
}

// createOrders inserts one order per creator. Each insert stands alone: a
// missing package or a duplicate (redelivered event) skips that creator
// without aborting the rest.
func (s *Service) createOrders(ctx context.Context, eventID, userID string, creatorIDs []string, amount float64) int {
	created := 0
	for _, creatorID := range creatorIDs {
		pkg, err := s.store.GetPackageByCreatorID(ctx, creatorID)
		if err != nil {
			log.Printf("no package found for creator %s: %v", creatorID, err)
			continue
		}

		order := &domain.Order{
			ID:               uuid.New(),
			UserID:           userID,
			CreatorPackageID: pkg.ID,
			EventID:          eventID,
			Amount:           amount,
			Status:           domain.OrderStatusCompleted,
		}

		if err := s.store.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, repository.ErrDuplicateFulfillment) {
				log.Printf("event %s already fulfilled for package %s", eventID, pkg.ID)
			} else {
				log.Printf("failed to create order for user %s, package %s: %v", userID, pkg.ID, err)
			}
			continue
		}

		created++
		log.Printf("order created for user %s, package %s", userID, pkg.ID)
	}
	return created
}

func (s *Service) publishCompleted(ctx context.Context, eventID, userID string, created int) {
	if s.publisher == nil {
		return
	}

	completed := CompletedEvent{
		EventID:       eventID,
		UserID:        userID,
		OrdersCreated: created,
		CompletedAt:   time.Now(),
	}
	if err := s.publisher.PublishFulfillment(ctx, completed); err != nil {
		log.Printf("failed to publish fulfillment event %s: %v", eventID, err)
	}
}

func amountOrDefault(minor int64) float64 {
	if minor <= 0 {
		return DefaultPackagePrice
	}
	return float64(minor) / 100
}
