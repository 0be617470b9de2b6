package libvirtdriver

import (
	"context"
	"testing"

	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

func TestLifecycleHappyPath(t *testing.T) {
	ctx := context.Background()
	d := New()

	id, err := d.Deploy(ctx, "10.0.0.7", "alice", "firewall:latest", "alice-fw-a", false)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if id == "" {
		t.Fatal("Deploy returned empty id")
	}

	if err := d.Start(ctx, "10.0.0.7", "alice", "alice-fw-a", false); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status, err := d.GuestStatus(ctx, "10.0.0.7", "alice", "alice-fw-a")
	if err != nil {
		t.Fatalf("GuestStatus failed: %v", err)
	}
	if status != "running" {
		t.Errorf("status = %q, want running", status)
	}

	ip, err := d.GetIP(ctx, "10.0.0.7", "alice", "alice-fw-a")
	if err != nil {
		t.Fatalf("GetIP failed: %v", err)
	}
	if ip == "" {
		t.Error("expected a non-empty IP after start")
	}

	if err := d.Stop(ctx, "10.0.0.7", "alice", "alice-fw-a"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := d.Destroy(ctx, "10.0.0.7", "alice", "alice-fw-a", false); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	if _, err := d.GuestStatus(ctx, "10.0.0.7", "alice", "alice-fw-a"); err == nil {
		t.Fatal("expected NotFound after destroy")
	}
}

func TestDeployRequiresImage(t *testing.T) {
	d := New()
	if _, err := d.Deploy(context.Background(), "10.0.0.7", "alice", "", "alice-fw-a", false); err != nfioerrors.ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestStartOnUnknownInstanceSurfacesVNFStartError(t *testing.T) {
	d := New()
	err := d.Start(context.Background(), "10.0.0.7", "alice", "alice-ghost", false)
	if err == nil {
		t.Fatal("expected an error")
	}
	code, ok := nfioerrors.CodeOf(err)
	if !ok || code != nfioerrors.VNFStart {
		t.Fatalf("code = %v, ok = %v, want VNFStart", code, ok)
	}
}

func TestExecuteInGuestRequiresRunning(t *testing.T) {
	ctx := context.Background()
	d := New()
	if _, err := d.Deploy(ctx, "10.0.0.7", "alice", "img", "alice-fw-a", false); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if _, err := d.ExecuteInGuest(ctx, "10.0.0.7", "alice", "alice-fw-a", "echo hi"); err != nfioerrors.ErrNotRunning {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}
