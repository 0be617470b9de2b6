package middlebox

import (
	"context"
	"os"

	"github.com/nfio-go/nfiofs/internal/logger"
	"github.com/nfio-go/nfiofs/pkg/hypervisor"
	"github.com/nfio-go/nfiofs/pkg/lifecycle"
	"github.com/nfio-go/nfiofs/pkg/vnfstore"
)

// Nginx is the type handler registered for nf_type "nginx". Beyond the
// Default special-file set it adds upstream and server_name, plain
// passthrough config files consulted the next time run-nginx is issued, and
// recognizes two debugging commands on action, ifconfig and run-nginx, both
// issued directly through execute_in_guest rather than the lifecycle
// coordinator.
type Nginx struct {
	*Default
}

// NewNginx returns an Nginx handler wired to driver and coordinator.
func NewNginx(driver hypervisor.Driver, coordinator *lifecycle.Coordinator) *Nginx {
	n := &Nginx{Default: NewDefault(driver, coordinator)}
	n.registerWrite("action", func(ctx context.Context, _ *Default, instancePath string, buf []byte, off int64) (int, error) {
		return n.writeAction(ctx, instancePath, buf, off)
	})
	for _, leaf := range []string{"upstream", "server_name"} {
		leaf := leaf
		n.registerRead(leaf, func(ctx context.Context, _ *Default, instancePath string, off int64) ([]byte, error) {
			return os.ReadFile(instancePath + "/" + leaf)
		})
		n.registerWrite(leaf, func(ctx context.Context, _ *Default, instancePath string, buf []byte, off int64) (int, error) {
			return passthroughWrite(instancePath+"/"+leaf, buf, off)
		})
	}
	return n
}

// writeAction extends the Default action-write behavior with the two
// debugging commands. Anything it doesn't recognize falls through to the
// lifecycle-keyword handling.
func (n *Nginx) writeAction(ctx context.Context, instancePath string, buf []byte, off int64) (int, error) {
	data := trimTrailingNewline(string(buf))

	switch data {
	case "ifconfig":
		return n.runDebugCommand(ctx, instancePath, buf, off, "ifconfig")
	case "run-nginx":
		return n.runDebugCommand(ctx, instancePath, buf, off, "cd /usr/bin; nginx")
	default:
		return n.Default.writeAction(ctx, instancePath, buf, off)
	}
}

func (n *Nginx) runDebugCommand(ctx context.Context, instancePath string, buf []byte, off int64, command string) (int, error) {
	written, mirrorErr := passthroughWrite(instancePath+"/action", buf, off)

	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return written, err
	}

	if _, err := n.Driver.ExecuteInGuest(ctx, cfg.Host, callerUser(), fullnameOf(instancePath), command); err != nil {
		logger.ErrorCtx(ctx, "nginx debug command failed", logger.Host(cfg.Host), logger.Err(err))
	}
	return written, mirrorErr
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}
