package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	c "github.com/creatorhub/storefront/internal/cart/cache"
	r "github.com/creatorhub/storefront/internal/cart/repository"
	"github.com/segmentio/kafka-go"
)

// fulfillmentEvent is the payload published by the fulfillment service.
type fulfillmentEvent struct {
	EventID       string `json:"event_id"`
	UserID        string `json:"user_id"`
	OrdersCreated int    `json:"orders_created"`
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller clears a buyer's cart once their payment has been fulfilled. The
// clear is idempotent, so a redelivered event or an already-cleared cart is
// harmless.
type Poller struct {
	repo   r.CartRepository
	cache  c.CartCache
	reader messageReader
	// readBackoff throttles the loop when the broker keeps failing.
	readBackoff time.Duration
}

func NewPoller(repo r.CartRepository, cache c.CartCache, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "fulfillment-events",
		GroupID:  "cart-clearing",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{
		repo:        repo,
		cache:       cache,
		reader:      reader,
		readBackoff: time.Second,
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.clearFulfilledCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("error closing fulfillment reader: %v", err)
	}
}

func (p *Poller) clearFulfilledCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading fulfillment message: %v", err)
		p.waitBeforeRetry(ctx)
		return
	}

	var event fulfillmentEvent
	if errUnmarshal := json.Unmarshal(m.Value, &event); errUnmarshal != nil {
		log.Printf("error parsing fulfillment message: %v", errUnmarshal)
		return
	}
	if event.UserID == "" {
		log.Println("fulfillment message missing user_id")
		return
	}

	errDelete := p.repo.DeleteCart(ctx, event.UserID)
	if errDelete != nil && !errors.Is(errDelete, r.ErrCartNotFound) {
		log.Printf("failed to clear cart for user %s: %v", event.UserID, errDelete)
		return
	}

	if errCache := p.cache.Delete(ctx, event.UserID); errCache != nil {
		log.Printf("failed to invalidate cart cache for user %s: %v", event.UserID, errCache)
	}
}

// waitBeforeRetry keeps an unreachable broker from turning Run into a hot
// loop.
func (p *Poller) waitBeforeRetry(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.readBackoff):
	}
}
