//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		require.NoError(t, container.Terminate(terminateCtx))
	})
	return container
}

func endpoint(ctx context.Context, t *testing.T, c testcontainers.Container, port string) (string, string) {
	t.Helper()

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, mapped.Port()
}

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	c := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "checkout"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(ctx, t, c, "5432/tcp")
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/checkout?sslmode=disable", host, port)
}

func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()

	c := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	})
	host, port := endpoint(ctx, t, c, "6379/tcp")
	return host + ":" + port
}

func startRabbitMQ(ctx context.Context, t *testing.T) string {
	t.Helper()

	c := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp", "15672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(ctx, t, c, "5672/tcp")
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port)
}
