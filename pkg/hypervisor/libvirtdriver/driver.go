// Package libvirtdriver implements a libvirt-shaped hypervisor.Driver
// back-end. No libvirt Go client is available in this module's dependency
// set, so this back-end tracks domain state in memory, keyed by
// (host, fullname), and assigns opaque ids with google/uuid. It satisfies
// the same contract and error taxonomy as dockerdriver and is useful for
// exercising the lifecycle coordinator without a real libvirtd.
package libvirtdriver

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/nfio-go/nfiofs/pkg/hypervisor"
	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

const backendName = "libvirt"

func init() {
	hypervisor.Register(backendName, func() (hypervisor.Driver, error) {
		return New(), nil
	})
}

type domainState int

const (
	stateDeployed domainState = iota
	stateRunning
	statePaused
)

type domain struct {
	id    string
	image string
	ip    string
	state domainState
}

// Driver is an in-memory libvirt-shaped back-end.
type Driver struct {
	mu      sync.Mutex
	domains map[string]*domain // keyed by host+"/"+fullname
}

func New() *Driver {
	return &Driver{domains: make(map[string]*domain)}
}

func (d *Driver) Backend() string { return backendName }

func key(host, fullname string) string { return host + "/" + fullname }

func (d *Driver) Deploy(_ context.Context, host, user, image, fullname string, privileged bool) (string, error) {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	if err := hypervisor.RequireImage(image); err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	k := key(host, fullname)
	if _, exists := d.domains[k]; exists {
		return "", nfioerrors.NewVNFCreateError(host, fullname, nil)
	}

	dom := &domain{
		id:    uuid.NewString(),
		image: image,
		ip:    "",
		state: stateDeployed,
	}
	d.domains[k] = dom
	return dom.id, nil
}

func (d *Driver) lookup(host, fullname string) (*domain, error) {
	k := key(host, fullname)
	dom, ok := d.domains[k]
	if !ok {
		return nil, nfioerrors.NewVNFNotFoundError(host, fullname)
	}
	return dom, nil
}

func (d *Driver) Start(_ context.Context, host, user, fullname string, privileged bool) error {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return nfioerrors.NewVNFStartError(host, fullname, err)
	}
	dom.state = stateRunning
	dom.ip = syntheticIP(dom.id)
	return nil
}

func (d *Driver) Stop(_ context.Context, host, user, fullname string) error {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return nfioerrors.NewVNFStopError(host, fullname, err)
	}
	dom.state = stateDeployed
	return nil
}

func (d *Driver) Restart(ctx context.Context, host, user, fullname string) error {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return nfioerrors.NewVNFRestartError(host, fullname, err)
	}
	dom.state = stateRunning
	return nil
}

func (d *Driver) Pause(_ context.Context, host, user, fullname string) error {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return nfioerrors.NewVNFPauseError(host, fullname, err)
	}
	dom.state = statePaused
	return nil
}

func (d *Driver) Unpause(_ context.Context, host, user, fullname string) error {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return nfioerrors.NewVNFUnpauseError(host, fullname, err)
	}
	dom.state = stateRunning
	return nil
}

func (d *Driver) Destroy(_ context.Context, host, user, fullname string, force bool) error {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	k := key(host, fullname)
	if _, ok := d.domains[k]; !ok {
		return nfioerrors.NewVNFNotFoundError(host, fullname)
	}
	delete(d.domains, k)
	return nil
}

func (d *Driver) ExecuteInGuest(_ context.Context, host, user, fullname, command string) ([]byte, error) {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return nil, nfioerrors.NewVNFCommandExecutionError(host, fullname, err)
	}
	if dom.state != stateRunning {
		return nil, nfioerrors.ErrNotRunning
	}
	return []byte(""), nil
}

func (d *Driver) GuestStatus(_ context.Context, host, user, fullname string) (string, error) {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return "", err
	}
	switch dom.state {
	case stateRunning:
		return "running", nil
	case statePaused:
		return "paused", nil
	default:
		return "shut off", nil
	}
}

func (d *Driver) GetID(_ context.Context, host, user, fullname string) (string, error) {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return "", err
	}
	return dom.id, nil
}

func (d *Driver) GetIP(_ context.Context, host, user, fullname string) (string, error) {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dom, err := d.lookup(host, fullname)
	if err != nil {
		return "", err
	}
	return dom.ip, nil
}

// syntheticIP derives a deterministic, plausible-looking guest IP from the
// domain id so repeated GetIP calls are stable without a real DHCP lease.
func syntheticIP(id string) string {
	h := uuid.MustParse(id)
	return "192.168.122." + strconv.Itoa(int(h[0])%254+1)
}
