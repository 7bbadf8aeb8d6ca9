package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stayops/stayops-api/internal/models"
)

// ReservationCache is a TTL-bounded snapshot cache for reservation
// reads. It is an explicit component, not ambient state: every write in
// the transition engine invalidates the affected key synchronously, and
// entries expire on their own after the configured TTL regardless.
type ReservationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReservationCache connects a cache to the given redis instance.
// Returns an error if redis is unreachable so startup fails loudly
// rather than serving half-working reads.
func NewReservationCache(addr, password string, db int, ttl time.Duration) (*ReservationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ReservationCache{client: client, ttl: ttl}, nil
}

func key(reservationID uint) string {
	return fmt.Sprintf("reservation:%d", reservationID)
}

// Get returns the cached snapshot, or nil on miss
func (c *ReservationCache) Get(ctx context.Context, reservationID uint) (*models.ReservationResponse, error) {
	raw, err := c.client.Get(ctx, key(reservationID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot models.ReservationResponse
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Set stores a snapshot under the bounded TTL
func (c *ReservationCache) Set(ctx context.Context, snapshot models.ReservationResponse) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(snapshot.ID), raw, c.ttl).Err()
}

// Invalidate drops the snapshot for a reservation. Called by the
// transition engine after every committed status change.
func (c *ReservationCache) Invalidate(ctx context.Context, reservationID uint) error {
	return c.client.Del(ctx, key(reservationID)).Err()
}

// Close releases the underlying redis connection
func (c *ReservationCache) Close() error {
	return c.client.Close()
}
