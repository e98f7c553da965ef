package redis

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const guestKeyPrefix = "cart:guest:"

// GuestCartRepository implements repository.GuestCartStore using Redis. One
// hash per guest, product id to quantity, with a sliding TTL on the key.
// Communication failures are logged and treated as no-ops: guest carts are
// best-effort, not durable.
type GuestCartRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewGuestCartRepository creates a new Redis-backed guest cart store.
func NewGuestCartRepository(client *redis.Client, ttl time.Duration, logger *slog.Logger) *GuestCartRepository {
	return &GuestCartRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func guestKey(guestID string) string {
	return guestKeyPrefix + guestID
}

// Add atomically increments the product quantity and refreshes the TTL.
// The increment never reads-then-writes, so concurrent adds for the same
// guest cannot lose updates.
func (r *GuestCartRepository) Add(ctx context.Context, guestID, productID string, qty int) {
	key := guestKey(guestID)

	if err := r.client.HIncrBy(ctx, key, productID, int64(qty)).Err(); err != nil {
		r.logDropped(ctx, "add", guestID, productID, err)
		return
	}

	r.refreshTTL(ctx, key, guestID)
}

// Remove decrements the product quantity by qty, deleting the field when the
// result would be zero or less. A qty <= 0 deletes the field outright.
func (r *GuestCartRepository) Remove(ctx context.Context, guestID, productID string, qty int) {
	key := guestKey(guestID)

	if qty <= 0 {
		if err := r.client.HDel(ctx, key, productID).Err(); err != nil {
			r.logDropped(ctx, "remove", guestID, productID, err)
			return
		}
		r.refreshTTL(ctx, key, guestID)
		return
	}

	current, err := r.client.HGet(ctx, key, productID).Int()
	if err != nil {
		if err != redis.Nil {
			r.logDropped(ctx, "remove", guestID, productID, err)
		}
		// Field absent: nothing to remove.
		return
	}

	if current-qty <= 0 {
		err = r.client.HDel(ctx, key, productID).Err()
	} else {
		err = r.client.HIncrBy(ctx, key, productID, int64(-qty)).Err()
	}
	if err != nil {
		r.logDropped(ctx, "remove", guestID, productID, err)
		return
	}

	r.refreshTTL(ctx, key, guestID)
}

// Snapshot returns the cart contents. An unreachable store yields an empty
// map rather than an error.
func (r *GuestCartRepository) Snapshot(ctx context.Context, guestID string) map[string]int {
	values, err := r.client.HGetAll(ctx, guestKey(guestID)).Result()
	if err != nil {
		r.logDropped(ctx, "snapshot", guestID, "", err)
		return map[string]int{}
	}

	items := make(map[string]int, len(values))
	for productID, raw := range values {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 1 {
			continue
		}
		items[productID] = qty
	}

	return items
}

// Clear deletes the whole cart key. The error is returned so the merge path
// can log it; it is still safe to ignore.
func (r *GuestCartRepository) Clear(ctx context.Context, guestID string) error {
	if err := r.client.Del(ctx, guestKey(guestID)).Err(); err != nil {
		r.logger.WarnContext(ctx, "guest cart clear failed",
			slog.String("guest_id", guestID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (r *GuestCartRepository) refreshTTL(ctx context.Context, key, guestID string) {
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "guest cart TTL refresh failed",
			slog.String("guest_id", guestID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *GuestCartRepository) logDropped(ctx context.Context, op, guestID, productID string, err error) {
	r.logger.WarnContext(ctx, "guest cart operation dropped",
		slog.String("op", op),
		slog.String("guest_id", guestID),
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
}
