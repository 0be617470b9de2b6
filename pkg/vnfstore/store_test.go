package vnfstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateInstanceSkeleton(t *testing.T) {
	root := t.TempDir()
	instPath := filepath.Join(root, "fw-a")

	if err := CreateInstance(instPath, 0755); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	wantFiles := []string{
		"status", "action",
		"config/boot.conf", "config/privileged",
		"machine/ip", "machine/vm.vcpu", "machine/vm.memory", "machine/vm.image", "machine/vm.ip", "machine/vm.id",
		"stats/rx_bytes", "stats/tx_bytes", "stats/pkt_drops",
	}
	for _, f := range wantFiles {
		if _, err := os.Stat(filepath.Join(instPath, f)); err != nil {
			t.Errorf("expected %s to exist: %v", f, err)
		}
	}
}

func TestCreateInstanceFailsIfExists(t *testing.T) {
	root := t.TempDir()
	instPath := filepath.Join(root, "fw-a")

	if err := CreateInstance(instPath, 0755); err != nil {
		t.Fatalf("first CreateInstance failed: %v", err)
	}
	if err := CreateInstance(instPath, 0755); err == nil {
		t.Fatal("expected an error creating the same instance twice")
	}
}

func TestReadInstanceConfig(t *testing.T) {
	root := t.TempDir()
	instPath := filepath.Join(root, "nf-types", "firewall", "fw-a")

	if err := os.MkdirAll(filepath.Dir(instPath), 0755); err != nil {
		t.Fatalf("mkdir parent failed: %v", err)
	}
	if err := CreateInstance(instPath, 0755); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(instPath, "machine", "ip"), []byte("10.0.0.7\n"), 0644); err != nil {
		t.Fatalf("write ip failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(instPath, "machine", "vm.image"), []byte("firewall:latest\n"), 0644); err != nil {
		t.Fatalf("write vm.image failed: %v", err)
	}

	cfg, err := ReadInstanceConfig(instPath)
	if err != nil {
		t.Fatalf("ReadInstanceConfig failed: %v", err)
	}

	if cfg.InstanceName != "fw-a" {
		t.Errorf("InstanceName = %q, want fw-a", cfg.InstanceName)
	}
	if cfg.NFType != "firewall" {
		t.Errorf("NFType = %q, want firewall", cfg.NFType)
	}
	if cfg.Host != "10.0.0.7" {
		t.Errorf("Host = %q, want 10.0.0.7", cfg.Host)
	}
	if cfg.Image != "firewall:latest" {
		t.Errorf("Image = %q, want firewall:latest", cfg.Image)
	}
	if cfg.Privileged {
		t.Errorf("Privileged = true, want false for an untouched config/privileged file")
	}
}

func TestReadInstanceConfigPrivileged(t *testing.T) {
	root := t.TempDir()
	instPath := filepath.Join(root, "nf-types", "firewall", "fw-b")

	if err := os.MkdirAll(filepath.Dir(instPath), 0755); err != nil {
		t.Fatalf("mkdir parent failed: %v", err)
	}
	if err := CreateInstance(instPath, 0755); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(instPath, "config", "privileged"), []byte("true\n"), 0644); err != nil {
		t.Fatalf("write privileged failed: %v", err)
	}

	cfg, err := ReadInstanceConfig(instPath)
	if err != nil {
		t.Fatalf("ReadInstanceConfig failed: %v", err)
	}
	if !cfg.Privileged {
		t.Errorf("Privileged = false, want true")
	}
}
