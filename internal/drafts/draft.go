// Package drafts keeps the checkout draft: the typed hand-off between the
// cart, shipping and payment steps. A draft is created when the shopper enters
// the shipping step and removed when the order is placed or the checkout is
// abandoned (explicitly, or by TTL expiry).
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("checkout draft not found")

const DefaultCountry = "Sri Lanka"

type ShippingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

type Draft struct {
	UserID          string       `json:"userId"`
	SelectedItemIDs []string     `json:"selectedItemIds"`
	Shipping        ShippingInfo `json:"shipping"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// redisClient is the subset of *redis.Client the store needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisStore(client redisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(userID string) string {
	return "checkout:draft:" + userID
}

// Save writes the draft and restarts its TTL.
func (s *RedisStore) Save(ctx context.Context, d Draft) error {
	if d.UserID == "" {
		return errors.New("draft user id is required")
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, key(d.UserID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (Draft, error) {
	raw, err := s.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// Delete is idempotent; deleting a missing draft is not an error.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
