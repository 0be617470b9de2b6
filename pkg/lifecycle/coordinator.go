// Package lifecycle composes hypervisor-driver calls into the multi-step
// protocols triggered by writes to an instance's action file, including
// the deploy+start compensating transaction behind the activate keyword.
package lifecycle

import (
	"context"
	"strings"

	"github.com/nfio-go/nfiofs/internal/logger"
	"github.com/nfio-go/nfiofs/internal/telemetry"
	"github.com/nfio-go/nfiofs/pkg/hypervisor"
	"github.com/nfio-go/nfiofs/pkg/metrics"
	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

// Keyword identifies a recognized action-file command.
type Keyword string

const (
	Activate Keyword = "activate"
	Start    Keyword = "start"
	Stop     Keyword = "stop"
	Destroy  Keyword = "destroy"
)

// ParseKeyword trims a single trailing newline and compares case-sensitively
// against the recognized keywords. The second return is false for anything
// else — at the coordinator level an unknown keyword is a no-op, though the
// dispatcher still mirrors the raw bytes to the backing action file.
func ParseKeyword(raw string) (Keyword, bool) {
	trimmed := strings.TrimSuffix(raw, "\n")
	switch Keyword(trimmed) {
	case Activate, Start, Stop, Destroy:
		return Keyword(trimmed), true
	default:
		return "", false
	}
}

// Identity is the VNF identity and placement the coordinator needs to issue
// driver calls: the (host, fullname) pair plus the image for deploy.
type Identity struct {
	Host       string
	User       string
	Fullname   string
	Image      string
	Privileged bool
}

// ImageResolver resolves a vm.image value into the reference the
// hypervisor driver should actually deploy — for example downloading an
// s3://bucket/key reference into a local file (pkg/imagefetch). Images
// that need no resolution are returned unchanged.
type ImageResolver interface {
	Resolve(ctx context.Context, image string) (string, error)
}

// Coordinator composes Driver calls into the multi-step action protocols.
type Coordinator struct {
	driver   hypervisor.Driver
	metrics  metrics.Lifecycle
	resolver ImageResolver
}

// New returns a Coordinator issuing calls against driver.
func New(driver hypervisor.Driver) *Coordinator {
	return &Coordinator{driver: driver}
}

// WithImageResolver attaches an ImageResolver that runs on id.Image before
// every activate. A nil resolver (the zero value) leaves images untouched.
func (c *Coordinator) WithImageResolver(r ImageResolver) *Coordinator {
	c.resolver = r
	return c
}

// WithMetrics attaches a metrics.Lifecycle recorder. Passing nil (the
// zero value) disables recording at no cost.
func (c *Coordinator) WithMetrics(m metrics.Lifecycle) *Coordinator {
	c.metrics = m
	return c
}

func (c *Coordinator) record(keyword Keyword, err error) {
	if c.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	c.metrics.RecordTransition(string(keyword), result)
}

// Dispatch applies keyword against id, returning the error the dispatcher
// should surface on the write to action. An unrecognized keyword is handled
// by the caller before Dispatch is invoked; Dispatch only ever receives the
// four recognized keywords.
func (c *Coordinator) Dispatch(ctx context.Context, keyword Keyword, id Identity) error {
	ctx, span := telemetry.StartLifecycleSpan(ctx, string(keyword), "", id.Fullname, telemetry.Host(id.Host))
	defer span.End()

	err := c.dispatch(ctx, keyword, id)
	c.record(keyword, err)
	return err
}

func (c *Coordinator) dispatch(ctx context.Context, keyword Keyword, id Identity) error {
	switch keyword {
	case Activate:
		return c.activate(ctx, id)
	case Start:
		if err := c.driver.Start(ctx, id.Host, id.User, id.Fullname, id.Privileged); err != nil {
			return nfioerrors.NewVNFStartError(id.Host, id.Fullname, err)
		}
		return nil
	case Stop:
		if err := c.driver.Stop(ctx, id.Host, id.User, id.Fullname); err != nil {
			return nfioerrors.NewVNFStopError(id.Host, id.Fullname, err)
		}
		return nil
	case Destroy:
		if err := c.driver.Destroy(ctx, id.Host, id.User, id.Fullname, false); err != nil {
			return nfioerrors.NewVNFDestroyError(id.Host, id.Fullname, err)
		}
		return nil
	default:
		return nil
	}
}

// activate runs the two-step deploy-then-start protocol with compensating
// destroy on a failed start.
func (c *Coordinator) activate(ctx context.Context, id Identity) error {
	image := id.Image
	if c.resolver != nil {
		resolved, err := c.resolver.Resolve(ctx, image)
		if err != nil {
			logger.ErrorCtx(ctx, "activate: image resolution failed", logger.Fullname(id.Fullname), logger.Err(err))
			return nfioerrors.NewVNFDeployError(id.Host, id.Fullname, err)
		}
		image = resolved
	}

	if _, err := c.driver.Deploy(ctx, id.Host, id.User, image, id.Fullname, id.Privileged); err != nil {
		logger.ErrorCtx(ctx, "activate: deploy failed", logger.Host(id.Host), logger.Fullname(id.Fullname), logger.Err(err))
		return nfioerrors.NewVNFDeployError(id.Host, id.Fullname, err)
	}

	if err := c.driver.Start(ctx, id.Host, id.User, id.Fullname, id.Privileged); err != nil {
		logger.WarnCtx(ctx, "activate: start failed, compensating with destroy", logger.Host(id.Host), logger.Fullname(id.Fullname), logger.Err(err))

		if destroyErr := c.driver.Destroy(ctx, id.Host, id.User, id.Fullname, true); destroyErr != nil {
			logger.ErrorCtx(ctx, "activate: compensating destroy also failed, remote state unknown",
				logger.Host(id.Host), logger.Fullname(id.Fullname), logger.Err(destroyErr))
			return nfioerrors.NewVNFDeployErrorWithInconsistentState(id.Host, id.Fullname, err)
		}

		return nfioerrors.NewVNFDeployError(id.Host, id.Fullname, err)
	}

	return nil
}
