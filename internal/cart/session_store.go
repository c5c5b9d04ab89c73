package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/crypto"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/cache"
)

// SessionStore persists one sealed cart per user in the cache. Carts never reach the
// document store before checkout.
type SessionStore struct {
	cache  cache.Cache
	sealer *crypto.Sealer
	ttl    time.Duration
	logger *zap.Logger

	locks sync.Map // user id -> *sync.Mutex
}

// NewSessionStore builds a SessionStore. A zero ttl keeps carts until they are cleared.
func NewSessionStore(c cache.Cache, sealer *crypto.Sealer, ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{cache: c, sealer: sealer, ttl: ttl, logger: logger}
}

func key(userID string) string {
	return "cart:" + userID
}

func (s *SessionStore) lock(userID string) func() {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Load returns the stored cart of userID. A missing, expired or unreadable cart yields an
// empty cart; unreadable ones are logged.
func (s *SessionStore) Load(ctx context.Context, userID string) *Cart {
	sealed, err := s.cache.Get(ctx, key(userID))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Failed to read cart, starting empty", zap.String("user", userID), zap.Error(err))
		}
		return New()
	}
	raw, err := s.sealer.Open(sealed, []byte(userID))
	if err != nil {
		s.logger.Warn("Discarding unreadable cart", zap.String("user", userID), zap.Error(err))
		return New()
	}
	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("Discarding undecodable cart", zap.String("user", userID), zap.Error(err))
		return New()
	}
	return New(items...)
}

// Save seals and stores c for userID.
func (s *SessionStore) Save(ctx context.Context, userID string, c *Cart) error {
	raw, err := json.Marshal(c.Items())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	sealed, err := s.sealer.Seal(raw, []byte(userID))
	if err != nil {
		return fmt.Errorf("seal cart: %w", err)
	}
	if err := s.cache.Set(ctx, key(userID), sealed, s.ttl); err != nil {
		return fmt.Errorf("store cart: %w", err)
	}
	return nil
}

// Clear removes the stored cart of userID.
func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	unlock := s.lock(userID)
	defer unlock()
	return s.cache.Delete(ctx, key(userID))
}

// Update loads the cart of userID, applies fn and saves the result when fn succeeds.
// Updates for the same user are serialized within this process.
func (s *SessionStore) Update(ctx context.Context, userID string, fn func(c *Cart) error) (*Cart, error) {
	unlock := s.lock(userID)
	defer unlock()

	c := s.Load(ctx, userID)
	if err := fn(c); err != nil {
		return c, err
	}
	if err := s.Save(ctx, userID, c); err != nil {
		return c, err
	}
	return c, nil
}
