package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
)

// TransactionCacheRepository marks recently accepted transaction ids in Redis
// so duplicate webhook deliveries can be answered without a database round
// trip. The cache is advisory: idempotency is guaranteed by the transactions
// primary key, this only shields PostgreSQL from duplicate storms.
type TransactionCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration for seen markers
}

// NewTransactionCacheRepository creates a new repository instance with the given TTL
func NewTransactionCacheRepository(client *redis.Client, expiration time.Duration) *TransactionCacheRepository {
	return &TransactionCacheRepository{
		client: client,
		exp:    expiration,
	}
}

// Seen reports whether the transaction id was accepted recently. A cache miss
// or any Redis error reports false so the caller falls through to the store.
func (r *TransactionCacheRepository) Seen(ctx context.Context, transactionID string) (bool, error) {
	key := fmt.Sprintf("webhook:txn:%s", transactionID)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		logger.Log.Infow(
			"key", key,
			"result", val,
			"error", err,
		)
		return false, err
	}

	logger.Log.Infow(
		"key", key,
		"result", val,
		"error", nil,
	)

	return val == "1", nil
}

// MarkSeen records the transaction id with the configured expiration.
func (r *TransactionCacheRepository) MarkSeen(ctx context.Context, transactionID string) error {
	key := fmt.Sprintf("webhook:txn:%s", transactionID)
	err := r.client.Set(ctx, key, "1", r.exp).Err()

	logger.Log.Infow(
		"key", key,
		"result", "ok",
		"error", err,
	)

	return err
}
