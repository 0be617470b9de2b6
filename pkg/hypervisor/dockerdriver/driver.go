// Package dockerdriver implements the hypervisor.Driver contract against
// a Docker daemon, reached over the connection named by host.
// Containers are named by fullname so repeated calls for the same VNF
// instance address the same container.
package dockerdriver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/nfio-go/nfiofs/internal/logger"
	"github.com/nfio-go/nfiofs/internal/telemetry"
	"github.com/nfio-go/nfiofs/pkg/hypervisor"
	"github.com/nfio-go/nfiofs/pkg/metrics"
	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

const backendName = "docker"

func init() {
	hypervisor.Register(backendName, func() (hypervisor.Driver, error) {
		return New(), nil
	})
}

// Driver talks to one Docker daemon per host via a cached client keyed by
// the host string. A real deployment typically names a single Docker host,
// but the interface allows per-call host selection so a fleet of Docker
// hosts can be addressed from one process.
type Driver struct {
	mu      sync.Mutex
	clients map[string]*client.Client
	metrics metrics.Hypervisor
}

// New returns a Docker-backed driver with no open connections yet; clients
// are created lazily per host on first use.
func New() *Driver {
	return &Driver{clients: make(map[string]*client.Client)}
}

// WithMetrics attaches a metrics.Hypervisor recorder. A nil recorder (the
// zero value) disables recording at no cost.
func (d *Driver) WithMetrics(m metrics.Hypervisor) *Driver {
	d.metrics = m
	return d
}

func (d *Driver) record(op, host string, err error, start time.Time) {
	if d.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	d.metrics.RecordCall(op, host, result, time.Since(start))
}

func (d *Driver) Backend() string { return backendName }

func (d *Driver) clientFor(host string) (*client.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.clients[host]; ok {
		return c, nil
	}

	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, nfioerrors.NewHypervisorConnectionError(host, err)
	}
	d.clients[host] = c
	return c, nil
}

func (d *Driver) Deploy(ctx context.Context, host, user, img, fullname string, privileged bool) (id string, err error) {
	start := time.Now()
	defer func() { d.record("deploy", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "deploy", host, fullname, telemetry.Image(img), telemetry.User(user))
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	if err := hypervisor.RequireImage(img); err != nil {
		return "", err
	}

	c, err := d.clientFor(host)
	if err != nil {
		return "", err
	}

	if _, _, err := c.ImageInspectWithRaw(ctx, img); err != nil {
		pullResp, pullErr := c.ImagePull(ctx, img, image.PullOptions{})
		if pullErr != nil {
			return "", nfioerrors.NewVNFCreateError(host, fullname, pullErr)
		}
		_, _ = io.Copy(io.Discard, pullResp)
		_ = pullResp.Close()
	}

	resp, err := c.ContainerCreate(ctx,
		&container.Config{Image: img, Labels: map[string]string{"nfio.user": user}},
		&container.HostConfig{Privileged: privileged},
		nil, nil, fullname)
	if err != nil {
		logger.ErrorCtx(ctx, "docker deploy failed", logger.Host(host), logger.Fullname(fullname), logger.Err(err))
		return "", nfioerrors.NewVNFDeployError(host, fullname, err)
	}

	return resp.ID, nil
}

func (d *Driver) Start(ctx context.Context, host, user, fullname string, privileged bool) (err error) {
	start := time.Now()
	defer func() { d.record("start", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "start", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return err
	}
	if err := c.ContainerStart(ctx, fullname, container.StartOptions{}); err != nil {
		if client.IsErrNotFound(err) {
			return nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return nfioerrors.NewVNFStartError(host, fullname, err)
	}
	return nil
}

func (d *Driver) Stop(ctx context.Context, host, user, fullname string) (err error) {
	start := time.Now()
	defer func() { d.record("stop", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "stop", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return err
	}
	if err := c.ContainerStop(ctx, fullname, container.StopOptions{}); err != nil {
		if client.IsErrNotFound(err) {
			return nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return nfioerrors.NewVNFStopError(host, fullname, err)
	}
	return nil
}

func (d *Driver) Restart(ctx context.Context, host, user, fullname string) (err error) {
	start := time.Now()
	defer func() { d.record("restart", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "restart", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return err
	}
	if err := c.ContainerRestart(ctx, fullname, container.StopOptions{}); err != nil {
		if client.IsErrNotFound(err) {
			return nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return nfioerrors.NewVNFRestartError(host, fullname, err)
	}
	return nil
}

func (d *Driver) Pause(ctx context.Context, host, user, fullname string) (err error) {
	start := time.Now()
	defer func() { d.record("pause", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "pause", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return err
	}
	if err := c.ContainerPause(ctx, fullname); err != nil {
		if client.IsErrNotFound(err) {
			return nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return nfioerrors.NewVNFPauseError(host, fullname, err)
	}
	return nil
}

func (d *Driver) Unpause(ctx context.Context, host, user, fullname string) (err error) {
	start := time.Now()
	defer func() { d.record("unpause", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "unpause", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return err
	}
	if err := c.ContainerUnpause(ctx, fullname); err != nil {
		if client.IsErrNotFound(err) {
			return nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return nfioerrors.NewVNFUnpauseError(host, fullname, err)
	}
	return nil
}

func (d *Driver) Destroy(ctx context.Context, host, user, fullname string, force bool) (err error) {
	start := time.Now()
	defer func() { d.record("destroy", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "destroy", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return err
	}
	if err := c.ContainerRemove(ctx, fullname, container.RemoveOptions{Force: force}); err != nil {
		if client.IsErrNotFound(err) {
			return nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return nfioerrors.NewVNFDestroyError(host, fullname, err)
	}
	return nil
}

func (d *Driver) ExecuteInGuest(ctx context.Context, host, user, fullname, command string) (out []byte, err error) {
	start := time.Now()
	defer func() { d.record("execute_in_guest", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "execute_in_guest", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return nil, err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return nil, err
	}

	inspect, err := c.ContainerInspect(ctx, fullname)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return nil, nfioerrors.NewVNFCommandExecutionError(host, fullname, err)
	}
	if inspect.State == nil || !inspect.State.Running {
		return nil, nfioerrors.ErrNotRunning
	}

	execResp, err := c.ContainerExecCreate(ctx, fullname, container.ExecOptions{
		Cmd:          []string{"sh", "-c", command},
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, nfioerrors.NewVNFCommandExecutionError(host, fullname, err)
	}

	attach, err := c.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, nfioerrors.NewVNFCommandExecutionError(host, fullname, err)
	}
	defer attach.Close()

	var stdout bytes.Buffer
	if _, err := io.Copy(&stdout, attach.Reader); err != nil {
		return nil, nfioerrors.NewVNFCommandExecutionError(host, fullname, err)
	}

	return stdout.Bytes(), nil
}

func (d *Driver) GuestStatus(ctx context.Context, host, user, fullname string) (status string, err error) {
	start := time.Now()
	defer func() { d.record("guest_status", host, err, start) }()

	ctx, span := telemetry.StartHypervisorSpan(ctx, "guest_status", host, fullname)
	defer span.End()

	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return "", err
	}
	inspect, err := c.ContainerInspect(ctx, fullname)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return "", fmt.Errorf("inspect %s: %w", fullname, err)
	}
	if inspect.State == nil {
		return "unknown", nil
	}
	return inspect.State.Status, nil
}

func (d *Driver) GetID(ctx context.Context, host, user, fullname string) (string, error) {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return "", err
	}
	inspect, err := c.ContainerInspect(ctx, fullname)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return "", fmt.Errorf("inspect %s: %w", fullname, err)
	}
	return inspect.ID, nil
}

func (d *Driver) GetIP(ctx context.Context, host, user, fullname string) (string, error) {
	if err := hypervisor.ValidateIdentity(host, fullname); err != nil {
		return "", err
	}
	c, err := d.clientFor(host)
	if err != nil {
		return "", err
	}
	inspect, err := c.ContainerInspect(ctx, fullname)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", nfioerrors.NewVNFNotFoundError(host, fullname)
		}
		return "", fmt.Errorf("inspect %s: %w", fullname, err)
	}
	if inspect.NetworkSettings == nil {
		return "", nil
	}
	return inspect.NetworkSettings.IPAddress, nil
}
