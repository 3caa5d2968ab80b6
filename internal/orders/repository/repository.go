package repository

import (
	"context"
	"errors"

	"github.com/creatorhub/storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPackageNotFound = errors.New("no package found for creator")
	// ErrDuplicateFulfillment means this webhook event already produced an
	// order for this package. Redelivered events hit this, not a second row.
	ErrDuplicateFulfillment = errors.New("order for this event and package already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetPackageByCreatorID(ctx context.Context, creatorID string) (*domain.CreatorPackage, error)
	GetCreatorsByIDs(ctx context.Context, ids []string) ([]domain.Creator, error)
	RunMigrations(*Credentials) error
	Close() error
}
