package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ticket-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for the service's three side concerns: the immutable
// ticket cache behind the public verify lookup, idempotency mappings for
// purchase retries, and the per-day sales counters maintained by the
// analytics worker. None of them participate in capacity decisions; Postgres
// stays the single arbiter.
type Client struct {
	rdb            *redis.Client
	ticketTTL      time.Duration
	idempotencyTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, ticketTTL, idempotencyTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:            rdb,
		ticketTTL:      ticketTTL,
		idempotencyTTL: idempotencyTTL,
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func ticketKey(code string) string {
	return fmt.Sprintf("ticket:%s", code)
}

// GetCachedTicket returns a cached ticket, or nil on a miss.
func (c *Client) GetCachedTicket(ctx context.Context, code string) (*models.Ticket, error) {
	raw, err := c.rdb.Get(ctx, ticketKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ticket models.Ticket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil, fmt.Errorf("corrupt cached ticket %s: %w", code, err)
	}
	return &ticket, nil
}

// CacheTicket stores a ticket under its code. Tickets are immutable once
// issued, so cached entries can never go stale; the TTL only bounds memory.
func (c *Client) CacheTicket(ctx context.Context, ticket *models.Ticket) error {
	raw, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, ticketKey(ticket.Code), raw, c.ticketTTL).Err()
}

// GetIdempotentReference returns the payment reference code stored for a
// client idempotency key, or "" if none.
func (c *Client) GetIdempotentReference(ctx context.Context, key string) (string, error) {
	ref, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return ref, err
}

// SetIdempotentReference maps a client idempotency key to the reference code
// of the purchase it completed. SetNX keeps the first completed purchase
// authoritative if two retries ever race.
func (c *Client) SetIdempotentReference(ctx context.Context, key, refCode string) error {
	return c.rdb.SetNX(ctx, fmt.Sprintf("idempotency:%s", key), refCode, c.idempotencyTTL).Err()
}

// IncrDailySales adds quantity to the per-event sales counter for the given
// day (YYYY-MM-DD). Derived presentation data only: the database row count
// remains the source of truth for every capacity decision.
func (c *Client) IncrDailySales(ctx context.Context, eventID int64, day string, quantity int) error {
	key := fmt.Sprintf("sales:%d:%s", eventID, day)

	pipe := c.rdb.TxPipeline()
	pipe.IncrBy(ctx, key, int64(quantity))
	pipe.Expire(ctx, key, 90*24*time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}

// GetDailySales returns the counter for one event and day, 0 if absent.
func (c *Client) GetDailySales(ctx context.Context, eventID int64, day string) (int, error) {
	count, err := c.rdb.Get(ctx, fmt.Sprintf("sales:%d:%s", eventID, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}
