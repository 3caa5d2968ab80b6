package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/creatorhub/storefront/internal/domain"
	"github.com/creatorhub/storefront/internal/payments"
)

// CreatorDirectory resolves creator names for session metadata.
type CreatorDirectory interface {
	GetCreatorsByIDs(ctx context.Context, ids []string) ([]domain.Creator, error)
}

// CartLoader exposes the stored cart the charge is priced from.
type CartLoader interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
}

// Service is the checkout orchestrator: it prices the cart server-side and
// asks the payment gateway for a handle the buyer completes payment with.
// The client never dictates the charge amount.
type Service struct {
	gateway  payments.Gateway
	creators CreatorDirectory
	carts    CartLoader
}

func NewService(gateway payments.Gateway, creators CreatorDirectory, carts CartLoader) *Service {
	return &Service{
		gateway:  gateway,
		creators: creators,
		carts:    carts,
	}
}

type IntentResult struct {
	ClientSecret string
	Amount       float64
	Status       domain.CheckoutStatus
}

type SessionResult struct {
	URL    string
	Status domain.CheckoutStatus
}

// InitiateIntent creates an embedded-flow payment intent for the given cart
// contents. The charge is priced from the stored cart, not from the request:
// client-supplied prices and quantities have no effect on the authorized
// amount.
func (s *Service) InitiateIntent(ctx context.Context, userID, email string, items []domain.CartItem, shipping *domain.ShippingInfo) (*IntentResult, error) {
	priced, err := s.pricedItems(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	status := domain.CheckoutStatusInitializing
	totals := domain.CalculateTotals(priced)

	metadata, err := buildIntentMetadata(userID, priced, shipping, email)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, &payments.IntentRequest{
		AmountMinor: domain.MinorUnits(totals.Total),
		Currency:    "usd",
		Metadata:    metadata,
		Shipping:    shipping,
	})
	if err != nil {
		var decline *payments.DeclineError
		if errors.As(err, &decline) {
			return &IntentResult{Status: transition(status, domain.CheckoutStatusFailed)}, err
		}
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	log.Printf("payment intent %s created for user %s, amount %.2f", intent.ID, userID, totals.Total)

	return &IntentResult{
		ClientSecret: intent.ClientSecret,
		Amount:       totals.Total,
		Status:       transition(status, domain.CheckoutStatusReady),
	}, nil
}

// InitiateHostedSession creates the redirect-based alternative: one line
// item per cart entry at its stored unit price, quantity 1.
func (s *Service) InitiateHostedSession(ctx context.Context, userID, email, origin string, items []domain.CartItem) (*SessionResult, error) {
	priced, err := s.pricedItems(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	status := domain.CheckoutStatusInitializing

	lineItems := make([]payments.SessionLineItem, 0, len(priced))
	creatorIDs := make([]string, 0, len(priced))
	for _, item := range priced {
		lineItems = append(lineItems, payments.SessionLineItem{
			Name:            "Creator Content Package",
			Description:     fmt.Sprintf("Content package from creator ID: %s", item.CreatorID),
			UnitAmountMinor: domain.MinorUnits(item.UnitPrice),
			Quantity:        1,
		})
		creatorIDs = append(creatorIDs, item.CreatorID)
	}

	creatorNames := s.lookupCreatorNames(ctx, creatorIDs)

	metadata, err := buildSessionMetadata(userID, creatorIDs, creatorNames)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &payments.SessionRequest{
		LineItems:     lineItems,
		CustomerEmail: email,
		SuccessURL:    origin + "/checkout-success",
		CancelURL:     origin + "/cart",
		Metadata:      metadata,
	})
	if err != nil {
		var decline *payments.DeclineError
		if errors.As(err, &decline) {
			return &SessionResult{Status: transition(status, domain.CheckoutStatusFailed)}, err
		}
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	log.Printf("checkout session %s created for user %s", session.ID, userID)

	return &SessionResult{
		URL:    session.URL,
		Status: transition(status, domain.CheckoutStatusReady),
	}, nil
}

// pricedItems re-validates the requested items against the stored cart and
// returns the stored entries, so prices and quantities always come from the
// server side. A request naming a package the cart does not hold is rejected.
func (s *Service) pricedItems(ctx context.Context, userID string, requested []domain.CartItem) ([]domain.CartItem, error) {
	if len(requested) == 0 {
		return nil, ErrNoItems
	}

	stored, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(stored.Items) == 0 {
		return nil, ErrNoItems
	}

	byPackage := make(map[string]domain.CartItem, len(stored.Items))
	for _, item := range stored.Items {
		byPackage[item.PackageID] = item
	}

	priced := make([]domain.CartItem, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, req := range requested {
		item, ok := byPackage[req.PackageID]
		if !ok {
			return nil, fmt.Errorf("%w: package %s not in cart", ErrItemMismatch, req.PackageID)
		}
		if seen[req.PackageID] {
			continue
		}
		seen[req.PackageID] = true
		priced = append(priced, item)
	}

	return priced, nil
}

// lookupCreatorNames is best-effort: missing names never block checkout.
func (s *Service) lookupCreatorNames(ctx context.Context, creatorIDs []string) []string {
	creators, err := s.creators.GetCreatorsByIDs(ctx, creatorIDs)
	if err != nil {
		log.Printf("error fetching creators: %v", err)
		return []string{}
	}

	names := make([]string, 0, len(creators))
	for _, c := range creators {
		names = append(names, c.Name)
	}
	return names
}

func transition(from, to domain.CheckoutStatus) domain.CheckoutStatus {
	if !domain.CanTransitionTo(from, to) {
		log.Printf("%v: %s -> %s", ErrIllegalTransition, from, to)
		return from
	}
	return to
}
