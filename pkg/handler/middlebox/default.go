// Package middlebox provides the reference type-handler implementation
// plus the Minimal, Nginx, and Firewall variants.
package middlebox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nfio-go/nfiofs/internal/logger"
	"github.com/nfio-go/nfiofs/pkg/handler"
	"github.com/nfio-go/nfiofs/pkg/hypervisor"
	"github.com/nfio-go/nfiofs/pkg/lifecycle"
	"github.com/nfio-go/nfiofs/pkg/vnfstore"
)

// readFunc services a read of a declared special file, given the instance
// path derived from the full mount-relative path. Found by convention as
// "<name>_read".
type readFunc func(ctx context.Context, d *Default, instancePath string, off int64) ([]byte, error)

// writeFunc services a write of a declared special file. Found by
// convention as "<name>_write".
type writeFunc func(ctx context.Context, d *Default, instancePath string, buf []byte, off int64) (int, error)

// Default is the reference handler, covering the common statistics/action
// files shared by every VNF type: rx_bytes,
// tx_bytes, pkt_drops, status, vm.ip, vm.id, machine/ip, and action. The
// Firewall and Nginx handlers embed Default and only add or override entries
// in its dispatch tables; Minimal does not embed it.
type Default struct {
	Driver       hypervisor.Driver
	Lifecycle    *lifecycle.Coordinator
	readTable    map[string]readFunc
	writeTable   map[string]writeFunc
	extraSpecial map[string]bool
}

// NewDefault returns the reference handler wired to driver for stats/status
// reads and coordinator for action writes.
func NewDefault(driver hypervisor.Driver, coordinator *lifecycle.Coordinator) *Default {
	d := &Default{Driver: driver, Lifecycle: coordinator}
	d.readTable = map[string]readFunc{
		"rx_bytes":  func(ctx context.Context, rd *Default, instancePath string, off int64) ([]byte, error) { return rd.readRxBytes(ctx, instancePath, off) },
		"tx_bytes":  func(ctx context.Context, rd *Default, instancePath string, off int64) ([]byte, error) { return rd.readTxBytes(ctx, instancePath, off) },
		"pkt_drops": func(ctx context.Context, rd *Default, instancePath string, off int64) ([]byte, error) { return rd.readPktDrops(ctx, instancePath, off) },
		"status":    func(ctx context.Context, rd *Default, instancePath string, off int64) ([]byte, error) { return rd.readStatus(ctx, instancePath, off) },
		"vm.ip":     func(ctx context.Context, rd *Default, instancePath string, off int64) ([]byte, error) { return rd.readVMIP(ctx, instancePath, off) },
		"vm.id":     func(ctx context.Context, rd *Default, instancePath string, off int64) ([]byte, error) { return rd.readVMID(ctx, instancePath, off) },
		"ip":        func(ctx context.Context, rd *Default, instancePath string, off int64) ([]byte, error) { return rd.readMachineIP(ctx, instancePath, off) },
	}
	d.writeTable = map[string]writeFunc{
		"action": func(ctx context.Context, wd *Default, instancePath string, buf []byte, off int64) (int, error) {
			return wd.writeAction(ctx, instancePath, buf, off)
		},
	}
	return d
}

// SpecialFiles returns the set of leaf names this handler intercepts.
func (d *Default) SpecialFiles() map[string]bool {
	names := map[string]bool{
		"rx_bytes": true, "tx_bytes": true, "pkt_drops": true,
		"status": true, "vm.ip": true, "vm.id": true, "ip": true, "action": true,
	}
	for n := range d.extraSpecial {
		names[n] = true
	}
	return names
}

// OnMkdir lays down the instance skeleton via the VNF Store.
func (d *Default) OnMkdir(root, path string, mode os.FileMode) error {
	instancePath := backingPath(root, path)
	return vnfstore.CreateInstance(instancePath, mode)
}

// OnGetattr returns the backing lstat attributes, overriding StSize to
// handler.SpecialFileSize for declared special files.
func (d *Default) OnGetattr(root, path string, fh uintptr) (handler.Attr, error) {
	fullPath := backingPath(root, path)
	var st syscall.Stat_t
	if err := syscall.Lstat(fullPath, &st); err != nil {
		return handler.Attr{}, err
	}

	attr := handler.Attr{
		StSize:  st.Size,
		StMode:  os.FileMode(st.Mode),
		StNlink: uint32(st.Nlink),
		StUid:   st.Uid,
		StGid:   st.Gid,
	}

	leaf := filepath.Base(path)
	if d.SpecialFiles()[leaf] {
		attr.StSize = handler.SpecialFileSize
	}
	return attr, nil
}

// OnRead dispatches to the read table by leaf name, falling through to plain
// pread when no entry matches.
func (d *Default) OnRead(root, path string, length int, off int64, fh uintptr) ([]byte, error) {
	leaf := filepath.Base(path)
	if rf, ok := d.readTable[leaf]; ok {
		instancePath := instanceDirOf(root, path)
		data, err := rf(context.Background(), d, instancePath, off)
		if err != nil {
			return nil, err
		}
		if off >= int64(len(data)) {
			return nil, nil
		}
		end := off + int64(length)
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		return data[off:end], nil
	}
	return passthroughRead(backingPath(root, path), length, off)
}

// OnWrite dispatches to the write table by leaf name, falling through to
// plain pwrite otherwise.
func (d *Default) OnWrite(root, path string, buf []byte, off int64, fh uintptr) (int, error) {
	leaf := filepath.Base(path)
	if wf, ok := d.writeTable[leaf]; ok {
		instancePath := instanceDirOf(root, path)
		return wf(context.Background(), d, instancePath, buf, off)
	}
	return passthroughWrite(backingPath(root, path), buf, off)
}

// registerRead lets a handler that embeds Default (Firewall, Nginx) add or
// override a special-file read entry.
func (d *Default) registerRead(name string, fn readFunc) {
	if d.readTable == nil {
		d.readTable = make(map[string]readFunc)
	}
	d.readTable[name] = fn
	d.markSpecial(name)
}

// registerWrite lets a derived handler add or override a write entry.
func (d *Default) registerWrite(name string, fn writeFunc) {
	if d.writeTable == nil {
		d.writeTable = make(map[string]writeFunc)
	}
	d.writeTable[name] = fn
	d.markSpecial(name)
}

func (d *Default) markSpecial(name string) {
	if d.extraSpecial == nil {
		d.extraSpecial = make(map[string]bool)
	}
	d.extraSpecial[name] = true
}

func (d *Default) readRxBytes(ctx context.Context, instancePath string, off int64) ([]byte, error) {
	return d.readCounterStat(ctx, instancePath, "rx")
}

func (d *Default) readTxBytes(ctx context.Context, instancePath string, off int64) ([]byte, error) {
	return d.readCounterStat(ctx, instancePath, "tx")
}

func (d *Default) readPktDrops(ctx context.Context, instancePath string, off int64) ([]byte, error) {
	return d.readCounterStat(ctx, instancePath, "drops")
}

// readCounterStat asks the guest to report a counter via execute_in_guest.
// If the driver is unreachable it returns empty bytes rather than an errno,
// so line-oriented readers keep working against a partially down back-end;
// the failure is still logged.
func (d *Default) readCounterStat(ctx context.Context, instancePath, counter string) ([]byte, error) {
	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return nil, err
	}
	out, err := d.Driver.ExecuteInGuest(ctx, cfg.Host, callerUser(), fullnameOf(instancePath), counterCommand(counter))
	if err != nil {
		logger.ErrorCtx(ctx, "stats read failed, returning empty bytes", logger.Host(cfg.Host), logger.Err(err))
		return nil, nil
	}
	return out, nil
}

func (d *Default) readStatus(ctx context.Context, instancePath string, off int64) ([]byte, error) {
	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return nil, err
	}
	status, err := d.Driver.GuestStatus(ctx, cfg.Host, callerUser(), fullnameOf(instancePath))
	if err != nil {
		logger.ErrorCtx(ctx, "status read failed, returning empty bytes", logger.Host(cfg.Host), logger.Err(err))
		return nil, nil
	}
	return []byte(status), nil
}

func (d *Default) readVMIP(ctx context.Context, instancePath string, off int64) ([]byte, error) {
	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return nil, err
	}
	ip, err := d.Driver.GetIP(ctx, cfg.Host, callerUser(), fullnameOf(instancePath))
	if err != nil {
		logger.ErrorCtx(ctx, "vm.ip read failed, returning empty bytes", logger.Host(cfg.Host), logger.Err(err))
		return nil, nil
	}
	return []byte(ip), nil
}

// readVMID reports the driver-assigned identifier (container id or domain
// uuid) for the running VNF, falling back to empty bytes before deploy.
func (d *Default) readVMID(ctx context.Context, instancePath string, off int64) ([]byte, error) {
	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return nil, err
	}
	id, err := d.Driver.GetID(ctx, cfg.Host, callerUser(), fullnameOf(instancePath))
	if err != nil {
		logger.ErrorCtx(ctx, "vm.id read failed, returning empty bytes", logger.Host(cfg.Host), logger.Err(err))
		return nil, nil
	}
	return []byte(id), nil
}

// readMachineIP serves machine/ip: the static deploy-time host while the
// instance is not running, and a read-through to the driver's GetIP once
// guest status reports running.
func (d *Default) readMachineIP(ctx context.Context, instancePath string, off int64) ([]byte, error) {
	static, err := passthroughRead(filepath.Join(instancePath, "machine", "ip"), handler.SpecialFileSize, 0)
	if err != nil {
		return nil, err
	}

	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return static, nil
	}

	status, err := d.Driver.GuestStatus(ctx, cfg.Host, callerUser(), fullnameOf(instancePath))
	if err != nil || status != "running" {
		return static, nil
	}

	ip, err := d.Driver.GetIP(ctx, cfg.Host, callerUser(), fullnameOf(instancePath))
	if err != nil || ip == "" {
		return static, nil
	}
	return []byte(ip), nil
}

// writeAction parses the written keyword, dispatches to the lifecycle
// coordinator, and mirrors the raw bytes into the backing action file
// regardless of outcome.
func (d *Default) writeAction(ctx context.Context, instancePath string, buf []byte, off int64) (int, error) {
	n, mirrorErr := passthroughWrite(filepath.Join(instancePath, "action"), buf, off)

	kw, ok := lifecycle.ParseKeyword(string(buf))
	if !ok {
		return n, mirrorErr
	}

	cfg, err := vnfstore.ReadInstanceConfig(instancePath)
	if err != nil {
		return n, err
	}

	id := lifecycle.Identity{
		Host:       cfg.Host,
		User:       callerUser(),
		Fullname:   fullnameOf(instancePath),
		Image:      cfg.Image,
		Privileged: cfg.Privileged,
	}

	if err := d.Lifecycle.Dispatch(ctx, kw, id); err != nil {
		return n, err
	}
	return n, mirrorErr
}

func counterCommand(counter string) string {
	return "nfio-stat " + counter
}

func fullnameOf(instancePath string) string {
	return callerUser() + "-" + filepath.Base(instancePath)
}

// callerUser reports the ambient process user embedded into the fullname
// used on the wire to the hypervisor driver.
func callerUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "nfio"
}

// backingPath joins root with the mount-relative path, stripping a leading
// slash.
func backingPath(root, path string) string {
	return filepath.Join(root, strings.TrimPrefix(path, "/"))
}

// instanceDirOf walks up from a special-file path to its owning instance
// directory: nf-types/<type>/<instance>/....
func instanceDirOf(root, path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	segments := strings.Split(trimmed, "/")
	for i, s := range segments {
		if s == "nf-types" && i+2 < len(segments) {
			return filepath.Join(root, filepath.Join(segments[:i+3]...))
		}
	}
	return backingPath(root, path)
}

func passthroughRead(fullPath string, length int, off int64) ([]byte, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, off)
	if err != nil && n == 0 {
		return nil, nil
	}
	return buf[:n], nil
}

func passthroughWrite(fullPath string, buf []byte, off int64) (int, error) {
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.WriteAt(buf, off)
}
