package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/creatorhub/storefront/internal/cart/cache"
	"github.com/creatorhub/storefront/internal/cart/repository"
	"github.com/creatorhub/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Service is the single source of truth for a buyer's selected items and
// shipping details. Derived amounts are recomputed on every read.
type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// GetCart never fails on a missing or corrupt cart: both load as an empty
// cart so a bad stored blob cannot break the storefront.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		loaded, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrCartNotFound) || errors.Is(errGet, repository.ErrCartCorrupt) {
				if errors.Is(errGet, repository.ErrCartCorrupt) {
					log.Printf("discarding corrupt cart for user %s: %v", userID, errGet)
				}
				return emptyCart(userID), nil
			}
			return nil, errGet
		}

		// set cache
		go func() {
			if errSet := s.cache.Set(context.Background(), userID, loaded); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return loaded, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// Totals recomputes the derived amounts for the user's current cart.
func (s *Service) Totals(ctx context.Context, userID string) (domain.Totals, error) {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.CalculateTotals(c.Items), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	if errAdd := s.repo.AddItem(ctx, userID, item); errAdd != nil {
		log.Printf("repo add item error: %v", errAdd)
		return errAdd
	}

	s.invalidateCache(userID)
	return nil
}

// RemoveItem deletes the package from the cart. Removing something that is
// not there is a no-op, not an error.
func (s *Service) RemoveItem(ctx context.Context, userID string, packageID string) error {
	errRemove := s.repo.RemoveItem(ctx, userID, packageID)
	if errRemove != nil {
		if errors.Is(errRemove, repository.ErrCartNotFound) || errors.Is(errRemove, repository.ErrItemNotFound) {
			return nil
		}
		log.Printf("repo remove item error: %v", errRemove)
		return errRemove
	}

	s.invalidateCache(userID)
	return nil
}

// UpdateQuantity sets the quantity for a package already in the cart. A
// quantity below 1 removes the item, so present items always hold qty >= 1.
func (s *Service) UpdateQuantity(ctx context.Context, userID string, packageID string, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, packageID)
	}

	errUpdate := s.repo.UpdateItemQuantity(ctx, userID, packageID, quantity)
	if errUpdate != nil {
		if errors.Is(errUpdate, repository.ErrItemNotFound) {
			return errUpdate
		}
		log.Printf("repo update item quantity error: %v", errUpdate)
		return errUpdate
	}

	s.invalidateCache(userID)
	return nil
}

// ClearCart is idempotent: clearing an already-empty cart succeeds.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", errDelete)
		return errDelete
	}

	s.invalidateCache(userID)
	return nil
}

// UpdateShippingInfo replaces the contact/shipping block wholesale.
func (s *Service) UpdateShippingInfo(ctx context.Context, userID string, info domain.ShippingInfo) error {
	if errUpdate := s.repo.UpdateShippingInfo(ctx, userID, info); errUpdate != nil {
		log.Printf("repo update shipping info error: %v", errUpdate)
		return errUpdate
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func emptyCart(userID string) *domain.Cart {
	now := time.Now()
	return &domain.Cart{
		UserID:    userID,
		Items:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
