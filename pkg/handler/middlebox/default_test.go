package middlebox

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nfio-go/nfiofs/pkg/lifecycle"
)

type stubDriver struct {
	execOut    []byte
	status     string
	ip         string
	deployErr  error
	startErr   error
	deployed   int
	started    int
}

func (s *stubDriver) Backend() string { return "stub" }
func (s *stubDriver) Deploy(context.Context, string, string, string, string, bool) (string, error) {
	s.deployed++
	return "id", s.deployErr
}
func (s *stubDriver) Start(context.Context, string, string, string, bool) error {
	s.started++
	return s.startErr
}
func (s *stubDriver) Stop(context.Context, string, string, string) error    { return nil }
func (s *stubDriver) Restart(context.Context, string, string, string) error { return nil }
func (s *stubDriver) Pause(context.Context, string, string, string) error   { return nil }
func (s *stubDriver) Unpause(context.Context, string, string, string) error { return nil }
func (s *stubDriver) Destroy(context.Context, string, string, string, bool) error {
	return nil
}
func (s *stubDriver) ExecuteInGuest(context.Context, string, string, string, string) ([]byte, error) {
	return s.execOut, nil
}
func (s *stubDriver) GuestStatus(context.Context, string, string, string) (string, error) {
	return s.status, nil
}
func (s *stubDriver) GetID(context.Context, string, string, string) (string, error) { return "id", nil }
func (s *stubDriver) GetIP(context.Context, string, string, string) (string, error) {
	return s.ip, nil
}

func newTestInstance(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	instancePath := filepath.Join(root, "nf-types", "firewall", "fw-a")
	if err := os.MkdirAll(filepath.Dir(instancePath), 0755); err != nil {
		t.Fatal(err)
	}
	d := NewDefault(&stubDriver{}, lifecycle.New(&stubDriver{}))
	if err := d.OnMkdir(root, "/nf-types/firewall/fw-a", 0755); err != nil {
		t.Fatalf("OnMkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(instancePath, "machine", "ip"), []byte("10.0.0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(instancePath, "machine", "vm.image"), []byte("fw:latest\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestDefaultOnMkdirCreatesSkeleton(t *testing.T) {
	root := newTestInstance(t)
	if _, err := os.Stat(filepath.Join(root, "nf-types", "firewall", "fw-a", "status")); err != nil {
		t.Fatalf("status file missing: %v", err)
	}
}

func TestDefaultOnGetattrOverridesSpecialFileSize(t *testing.T) {
	root := newTestInstance(t)
	driver := &stubDriver{}
	d := NewDefault(driver, lifecycle.New(driver))

	attr, err := d.OnGetattr(root, "/nf-types/firewall/fw-a/status", 0)
	if err != nil {
		t.Fatalf("OnGetattr failed: %v", err)
	}
	if attr.StSize != 1000 {
		t.Errorf("StSize = %d, want 1000", attr.StSize)
	}
}

func TestDefaultOnReadStatsDispatchesToDriver(t *testing.T) {
	root := newTestInstance(t)
	driver := &stubDriver{execOut: []byte("4096")}
	d := NewDefault(driver, lifecycle.New(driver))

	data, err := d.OnRead(root, "/nf-types/firewall/fw-a/rx_bytes", 4096, 0, 0)
	if err != nil {
		t.Fatalf("OnRead failed: %v", err)
	}
	if string(data) != "4096" {
		t.Errorf("data = %q, want %q", data, "4096")
	}
}

func TestDefaultOnReadStatusAndVMIP(t *testing.T) {
	root := newTestInstance(t)
	driver := &stubDriver{status: "running", ip: "10.0.0.9"}
	d := NewDefault(driver, lifecycle.New(driver))

	status, err := d.OnRead(root, "/nf-types/firewall/fw-a/status", 1000, 0, 0)
	if err != nil || string(status) != "running" {
		t.Fatalf("status read = %q, err = %v", status, err)
	}

	ip, err := d.OnRead(root, "/nf-types/firewall/fw-a/vm.ip", 1000, 0, 0)
	if err != nil || string(ip) != "10.0.0.9" {
		t.Fatalf("vm.ip read = %q, err = %v", ip, err)
	}
}

func TestDefaultOnWriteActivateDeploysAndStarts(t *testing.T) {
	root := newTestInstance(t)
	driver := &stubDriver{}
	d := NewDefault(driver, lifecycle.New(driver))

	n, err := d.OnWrite(root, "/nf-types/firewall/fw-a/action", []byte("activate\n"), 0, 0)
	if err != nil {
		t.Fatalf("OnWrite failed: %v", err)
	}
	if n == 0 {
		t.Error("expected a nonzero byte count")
	}
	if driver.deployed != 1 || driver.started != 1 {
		t.Errorf("deployed=%d started=%d, want 1,1", driver.deployed, driver.started)
	}

	got, err := os.ReadFile(filepath.Join(root, "nf-types", "firewall", "fw-a", "action"))
	if err != nil {
		t.Fatalf("reading mirrored action file: %v", err)
	}
	if string(got) != "activate\n" {
		t.Errorf("mirrored action = %q, want %q", got, "activate\n")
	}
}

func TestDefaultOnWriteUnknownKeywordStillMirrors(t *testing.T) {
	root := newTestInstance(t)
	driver := &stubDriver{}
	d := NewDefault(driver, lifecycle.New(driver))

	if _, err := d.OnWrite(root, "/nf-types/firewall/fw-a/action", []byte("reboot\n"), 0, 0); err != nil {
		t.Fatalf("OnWrite failed: %v", err)
	}
	if driver.deployed != 0 || driver.started != 0 {
		t.Error("unknown keyword must not trigger any driver call")
	}
	got, err := os.ReadFile(filepath.Join(root, "nf-types", "firewall", "fw-a", "action"))
	if err != nil {
		t.Fatalf("reading mirrored action file: %v", err)
	}
	if string(got) != "reboot\n" {
		t.Errorf("mirrored action = %q, want %q", got, "reboot\n")
	}
}
