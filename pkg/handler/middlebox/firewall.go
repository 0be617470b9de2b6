package middlebox

import (
	"context"

	"github.com/nfio-go/nfiofs/internal/logger"
	"github.com/nfio-go/nfiofs/pkg/hypervisor"
	"github.com/nfio-go/nfiofs/pkg/lifecycle"
	"github.com/nfio-go/nfiofs/pkg/vnfstore"
)

// Firewall is the type handler registered for nf_type "firewall". Beyond the
// Default special-file set (rx_bytes, tx_bytes, pkt_drops, status, vm.ip,
// vm.id, ip, action) it adds a write-only rules file: newline-delimited firewall rule
// text applied directly via execute_in_guest rather than a lifecycle
// keyword.
type Firewall struct {
	*Default
}

// NewFirewall returns a Firewall handler wired to driver and coordinator.
func NewFirewall(driver hypervisor.Driver, coordinator *lifecycle.Coordinator) *Firewall {
	f := &Firewall{Default: NewDefault(driver, coordinator)}
	f.registerWrite("rules", func(ctx context.Context, _ *Default, instancePath string, buf []byte, off int64) (int, error) {
		return f.writeRules(ctx, instancePath, buf, off)
	})
	return f
}

func (f *Firewall) writeRules(ctx context.Context, instancePath string, buf []byte, off int64) (int, error) {
	n, mirrorErr := passthroughWrite(instancePath+"/rules", buf, off)

	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return n, err
	}

	command := "nfio-fw-load <<'NFIO_RULES'\n" + string(buf) + "\nNFIO_RULES"
	if _, err := f.Driver.ExecuteInGuest(ctx, cfg.Host, callerUser(), fullnameOf(instancePath), command); err != nil {
		logger.ErrorCtx(ctx, "firewall rule load failed", logger.Host(cfg.Host), logger.Err(err))
		return n, err
	}
	return n, mirrorErr
}
