package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestTransactionCacheRepository(t *testing.T) {
	ctx := context.Background()

	// Start Redis container
	req := testcontainers.ContainerRequest{
		Image:        "redis:7.0-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	assert.NoError(t, err)
	defer redisC.Terminate(ctx)

	// Get container host and port
	host, err := redisC.Host(ctx)
	assert.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	assert.NoError(t, err)

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	defer rdb.Close()

	// Ping to ensure connection
	err = rdb.Ping(ctx).Err()
	assert.NoError(t, err)

	repo := NewTransactionCacheRepository(rdb, 2*time.Second)

	t.Run("Unseen id reports false", func(t *testing.T) {
		seen, err := repo.Seen(ctx, "txn_unknown")
		assert.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("MarkSeen then Seen", func(t *testing.T) {
		err := repo.MarkSeen(ctx, "txn_1")
		assert.NoError(t, err)

		seen, err := repo.Seen(ctx, "txn_1")
		assert.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("Marker expires", func(t *testing.T) {
		err := repo.MarkSeen(ctx, "txn_expiring")
		assert.NoError(t, err)

		// Wait for expiration (2s)
		time.Sleep(3 * time.Second)

		seen, err := repo.Seen(ctx, "txn_expiring")
		assert.NoError(t, err)
		assert.False(t, seen)
	})
}
