package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// Identity is the authenticated buyer resolved from a bearer token.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenVerifier resolves a bearer credential to a buyer identity.
// Consumers define this interface, not the Redis implementation.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// RedisVerifier looks up session tokens written by the sign-in flow.
type RedisVerifier struct {
	client *redis.Client
}

func NewRedisVerifier(client *redis.Client) *RedisVerifier {
	return &RedisVerifier{client: client}
}

func (v *RedisVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	data, err := v.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("redis session lookup failed: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, ErrInvalidToken
	}
	if identity.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &identity, nil
}

// StoreSession writes a session token for an identity. Used by the sign-in
// service and by tests.
func (v *RedisVerifier) StoreSession(ctx context.Context, token string, identity Identity, ttl time.Duration) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity failed: %w", err)
	}
	if err := v.client.Set(ctx, sessionKey(token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis session store failed: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
