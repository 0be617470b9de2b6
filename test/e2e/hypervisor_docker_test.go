//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/nfio-go/nfiofs/pkg/hypervisor/dockerdriver"
	"github.com/nfio-go/nfiofs/test/e2e/framework"
)

// TestDockerDriverDeployStartDestroy exercises the real dockerdriver.Driver
// against an isolated docker:dind daemon: deploy, start, execute_in_guest,
// guest_status, destroy, matching the deploy+start+teardown sequence the
// lifecycle coordinator drives in production.
func TestDockerDriverDeployStartDestroy(t *testing.T) {
	daemon := framework.NewDockerDaemonHelper(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	driver := dockerdriver.New()
	const fullname = "e2e-fw-a"

	id, err := driver.Deploy(ctx, daemon.Host, "e2e-user", "busybox:latest", fullname, false)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if id == "" {
		t.Fatal("Deploy returned an empty container id")
	}

	if err := driver.Start(ctx, daemon.Host, "e2e-user", fullname, false); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status, err := driver.GuestStatus(ctx, daemon.Host, "e2e-user", fullname)
	if err != nil {
		t.Fatalf("GuestStatus failed: %v", err)
	}
	if status == "" {
		t.Error("GuestStatus returned an empty string for a running container")
	}

	out, err := driver.ExecuteInGuest(ctx, daemon.Host, "e2e-user", fullname, "echo hello")
	if err != nil {
		t.Fatalf("ExecuteInGuest failed: %v", err)
	}
	if len(out) == 0 {
		t.Error("ExecuteInGuest returned no output")
	}

	if err := driver.Destroy(ctx, daemon.Host, "e2e-user", fullname, false); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
}
