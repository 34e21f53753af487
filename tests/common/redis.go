package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce      sync.Once
	redisContainer *RedisContainer
	redisError     error
)

// RedisContainer wraps a testcontainers Redis instance.
type RedisContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

// StartRedis starts one Redis container per test process. Tests are skipped
// in -short mode.
func StartRedis(t *testing.T) *RedisContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	redisOnce.Do(func() {
		ctx := context.Background()
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			redisError = fmt.Errorf("start Redis container: %w", err)
			return
		}
		host, port, err := endpoint(ctx, container, "6379/tcp")
		if err != nil {
			redisError = err
			return
		}
		redisContainer = &RedisContainer{container: container, host: host, port: port}
	})

	if redisError != nil {
		t.Fatalf("Redis container failed: %v", redisError)
	}
	return redisContainer
}

// Address returns host:port for go-redis.
func (c *RedisContainer) Address() string {
	return c.host + ":" + c.port
}

// Cleanup terminates the container.
func (c *RedisContainer) Cleanup() {
	if c != nil && c.container != nil {
		c.container.Terminate(context.Background())
	}
}
