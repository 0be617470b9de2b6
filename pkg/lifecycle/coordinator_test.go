package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

type fakeDriver struct {
	startErr   error
	destroyErr error

	destroyCalls int
	deployCalls  int
	startCalls   int
}

func (f *fakeDriver) Backend() string { return "fake" }
func (f *fakeDriver) Deploy(context.Context, string, string, string, string, bool) (string, error) {
	f.deployCalls++
	return "id", nil
}
func (f *fakeDriver) Start(context.Context, string, string, string, bool) error {
	f.startCalls++
	return f.startErr
}
func (f *fakeDriver) Stop(context.Context, string, string, string) error { return nil }
func (f *fakeDriver) Restart(context.Context, string, string, string) error { return nil }
func (f *fakeDriver) Pause(context.Context, string, string, string) error   { return nil }
func (f *fakeDriver) Unpause(context.Context, string, string, string) error { return nil }
func (f *fakeDriver) Destroy(context.Context, string, string, string, bool) error {
	f.destroyCalls++
	return f.destroyErr
}
func (f *fakeDriver) ExecuteInGuest(context.Context, string, string, string, string) ([]byte, error) {
	return nil, nil
}
func (f *fakeDriver) GuestStatus(context.Context, string, string, string) (string, error) {
	return "", nil
}
func (f *fakeDriver) GetID(context.Context, string, string, string) (string, error) { return "", nil }
func (f *fakeDriver) GetIP(context.Context, string, string, string) (string, error) { return "", nil }

func TestParseKeyword(t *testing.T) {
	tests := []struct {
		raw     string
		want    Keyword
		wantOk  bool
	}{
		{"activate", Activate, true},
		{"activate\n", Activate, true},
		{"start", Start, true},
		{"stop", Stop, true},
		{"destroy", Destroy, true},
		{"Activate", "", false},
		{"reboot", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseKeyword(tt.raw)
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("ParseKeyword(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestActivateHappyPath(t *testing.T) {
	fd := &fakeDriver{}
	c := New(fd)

	err := c.Dispatch(context.Background(), Activate, Identity{Host: "10.0.0.7", User: "alice", Fullname: "alice-fw-a", Image: "fw:latest"})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if fd.deployCalls != 1 || fd.startCalls != 1 || fd.destroyCalls != 0 {
		t.Errorf("deploy=%d start=%d destroy=%d, want 1,1,0", fd.deployCalls, fd.startCalls, fd.destroyCalls)
	}
}

func TestActivateCompensatesOnStartFailure(t *testing.T) {
	fd := &fakeDriver{startErr: errors.New("boom")}
	c := New(fd)

	err := c.Dispatch(context.Background(), Activate, Identity{Host: "10.0.0.7", User: "alice", Fullname: "alice-fw-a", Image: "fw:latest"})
	if err == nil {
		t.Fatal("expected an error")
	}
	code, ok := nfioerrors.CodeOf(err)
	if !ok || code != nfioerrors.VNFDeploy {
		t.Fatalf("code = %v ok=%v, want VNFDeploy", code, ok)
	}
	if fd.destroyCalls != 1 {
		t.Errorf("destroyCalls = %d, want exactly 1", fd.destroyCalls)
	}
}

func TestActivateInconsistentStateWhenCompensationFails(t *testing.T) {
	fd := &fakeDriver{startErr: errors.New("boom"), destroyErr: errors.New("also boom")}
	c := New(fd)

	err := c.Dispatch(context.Background(), Activate, Identity{Host: "10.0.0.7", User: "alice", Fullname: "alice-fw-a", Image: "fw:latest"})
	if err == nil {
		t.Fatal("expected an error")
	}
	code, ok := nfioerrors.CodeOf(err)
	if !ok || code != nfioerrors.VNFDeployErrorWithInconsistentState {
		t.Fatalf("code = %v ok=%v, want VNFDeployErrorWithInconsistentState", code, ok)
	}
	if fd.destroyCalls != 1 {
		t.Errorf("destroyCalls = %d, want exactly 1", fd.destroyCalls)
	}
}

func TestStartDispatch(t *testing.T) {
	fd := &fakeDriver{startErr: errors.New("boom")}
	c := New(fd)

	err := c.Dispatch(context.Background(), Start, Identity{Host: "10.0.0.7", User: "alice", Fullname: "alice-fw-a"})
	code, ok := nfioerrors.CodeOf(err)
	if !ok || code != nfioerrors.VNFStart {
		t.Fatalf("code = %v ok=%v, want VNFStart", code, ok)
	}
}
