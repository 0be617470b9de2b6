//go:build e2e

// Package framework provides container fixtures shared across e2e tests.
package framework

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DockerDaemonHelper manages a docker:dind container so the real
// dockerdriver.Driver can be exercised against an isolated daemon instead of
// the host's own Docker socket.
type DockerDaemonHelper struct {
	T         *testing.T
	Container testcontainers.Container
	Host      string // e.g. tcp://127.0.0.1:32771, suitable for client.WithHost
}

var sharedDockerDaemonHelper *DockerDaemonHelper

// NewDockerDaemonHelper starts (or reuses) a shared docker:dind container.
func NewDockerDaemonHelper(t *testing.T) *DockerDaemonHelper {
	t.Helper()

	if sharedDockerDaemonHelper != nil {
		return sharedDockerDaemonHelper
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "docker:27-dind",
		ExposedPorts: []string{"2375/tcp"},
		Env: map[string]string{
			"DOCKER_TLS_CERTDIR": "", // disable TLS for the test daemon
		},
		Privileged: true,
		WaitingFor: wait.ForListeningPort("2375/tcp").WithStartupTimeout(3 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start docker:dind container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "2375")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container port: %v", err)
	}

	helper := &DockerDaemonHelper{
		T:         t,
		Container: container,
		Host:      fmt.Sprintf("tcp://%s:%s", host, port.Port()),
	}
	sharedDockerDaemonHelper = helper
	return helper
}

// Terminate stops the shared daemon container. Called from TestMain.
func (h *DockerDaemonHelper) Terminate(ctx context.Context) {
	if h.Container != nil {
		_ = h.Container.Terminate(ctx)
	}
}
