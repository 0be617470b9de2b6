// Package dispatcher implements the operation dispatcher: a FUSE
// filesystem, bound through go-fuse's path-based pathfs.FileSystem contract,
// that routes every POSIX-style call for an NF-opcode path to the registered
// type handler and everything else to plain passthrough against the backing
// root.
package dispatcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"

	"github.com/nfio-go/nfiofs/internal/logger"
	"github.com/nfio-go/nfiofs/pkg/classify"
	"github.com/nfio-go/nfiofs/pkg/handler"
	"github.com/nfio-go/nfiofs/pkg/metrics"
	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

// Dispatcher implements pathfs.FileSystem. NF-opcode paths
// (nf-types/<type>/<instance>/...) are routed to the type handler registered
// for <type>; every other path is served straight off Root.
type Dispatcher struct {
	pathfs.FileSystem

	Root     string
	Handlers *handler.Registry

	// MountPoint is the path the filesystem is exposed at. Readlink rewrites
	// a link target under Root to appear under MountPoint instead, so a link
	// created inside the mount never leaks the backing root path to a
	// reader. Left empty, Readlink returns the raw backing target.
	MountPoint string

	mu      sync.Mutex
	nodeFs  *pathfs.PathNodeFs
	metrics metrics.Dispatcher
}

// New returns a Dispatcher serving root, resolving nf_type handlers through
// registry.
func New(root string, registry *handler.Registry) *Dispatcher {
	return &Dispatcher{
		FileSystem: pathfs.NewDefaultFileSystem(),
		Root:       root,
		Handlers:   registry,
	}
}

// WithMountPoint sets the mount point used to rewrite readlink targets.
func (d *Dispatcher) WithMountPoint(mountPoint string) *Dispatcher {
	d.MountPoint = mountPoint
	return d
}

// OnMount records the owning PathNodeFs so handler hooks can trigger kernel
// cache invalidation if they need to.
func (d *Dispatcher) OnMount(nodeFs *pathfs.PathNodeFs) {
	d.mu.Lock()
	d.nodeFs = nodeFs
	d.mu.Unlock()
}

func (d *Dispatcher) full(name string) string {
	return filepath.Join(d.Root, name)
}

// WithMetrics attaches a metrics.Dispatcher recorder. A nil recorder (the
// zero value) disables recording at no cost.
func (d *Dispatcher) WithMetrics(m metrics.Dispatcher) *Dispatcher {
	d.metrics = m
	return d
}

func (d *Dispatcher) record(op string, status fuse.Status) {
	if d.metrics == nil {
		return
	}
	result := "success"
	if status != fuse.OK {
		result = "error"
	}
	d.metrics.RecordOperation(op, result)
}

// resolve classifies name and, for an NF-opcode path naming an instance
// (directory or leaf inside one), returns the handler bound to its
// nf_type. Everything else (Opcode Undefined, or a bare type directory) has
// no handler and is served by passthrough.
func (d *Dispatcher) resolve(name string) (classify.Path, handler.Handler, error) {
	p := classify.Classify("/" + name)
	if p.Opcode != classify.NF || p.InstanceName == "" {
		return p, nil, nil
	}
	h, err := d.Handlers.Resolve(p.NFType)
	if err != nil {
		return p, nil, err
	}
	return p, h, nil
}

// GetAttr implements "stat". Special files belonging to a handler's
// declared set get their size fixed via the handler's OnGetattr hook;
// everything else is a plain lstat.
func (d *Dispatcher) GetAttr(name string, ctx *fuse.Context) (attr *fuse.Attr, status fuse.Status) {
	defer func() { d.record("getattr", status) }()

	// An unregistered nf_type degrades to plain lstat here so the tree stays
	// listable; only operations that need the handler surface ENOSYS.
	_, h, err := d.resolve(name)
	if err != nil && !errors.Is(err, nfioerrors.ErrMissingTypeModule) {
		return nil, errnoToStatus(nfioerrors.ToErrno(err))
	}

	if h != nil {
		a, err := h.OnGetattr(d.Root, "/"+name, 0)
		if err != nil {
			return nil, errnoToStatus(nfioerrors.ToErrno(err))
		}
		return toFuseAttr(a), fuse.OK
	}

	var st syscall.Stat_t
	if err := syscall.Lstat(d.full(name), &st); err != nil {
		return nil, fuse.ToStatus(err)
	}
	out := &fuse.Attr{}
	out.FromStat(&st)
	return out, fuse.OK
}

// Mkdir implements instance creation. When name names a new instance
// under a known nf_type, the handler's OnMkdir hook lays down the
// type-specific skeleton; otherwise it is a plain mkdir.
func (d *Dispatcher) Mkdir(name string, mode uint32, ctx *fuse.Context) (status fuse.Status) {
	defer func() { d.record("mkdir", status) }()

	p := classify.Classify("/" + name)

	if p.Opcode == classify.Undefined {
		return errnoToStatus(nfioerrors.ToErrno(nfioerrors.ErrPermissionDenied))
	}

	if p.Opcode == classify.NF && classify.IsInstanceDir("/"+name) {
		h, err := d.Handlers.Resolve(p.NFType)
		if err != nil {
			logger.Error("mkdir for unregistered nf_type", logger.Path(name), logger.NFType(p.NFType), logger.Err(err))
			return errnoToStatus(nfioerrors.ToErrno(err))
		}
		logger.Debug("creating VNF instance", logger.Path(name), logger.NFType(p.NFType), logger.Instance(p.InstanceName))
		if err := h.OnMkdir(d.Root, "/"+name, os.FileMode(mode)); err != nil {
			return fuse.ToStatus(err)
		}
		return fuse.OK
	}

	if err := os.Mkdir(d.full(name), os.FileMode(mode)); err != nil {
		return fuse.ToStatus(err)
	}
	return fuse.OK
}

// OpenDir implements "readdir" by listing the backing directory regardless
// of classification; handlers never intercept directory listing.
func (d *Dispatcher) OpenDir(name string, ctx *fuse.Context) ([]fuse.DirEntry, fuse.Status) {
	entries, err := os.ReadDir(d.full(name))
	if err != nil {
		return nil, fuse.ToStatus(err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := uint32(fuse.S_IFREG)
		if e.IsDir() {
			mode = fuse.S_IFDIR
		}
		out = append(out, fuse.DirEntry{Name: e.Name(), Mode: mode})
	}
	return out, fuse.OK
}

// Unlink implements plain file removal. Special files are never unlinked
// through this path in practice (the backing skeleton is removed with its
// owning instance directory), so this is always passthrough.
func (d *Dispatcher) Unlink(name string, ctx *fuse.Context) fuse.Status {
	if err := os.Remove(d.full(name)); err != nil {
		return fuse.ToStatus(err)
	}
	return fuse.OK
}

// Rmdir removes an instance or intermediate directory. Handlers have no
// teardown hook: destroying the live VNF before removing its directory is
// the operator's responsibility via action.
func (d *Dispatcher) Rmdir(name string, ctx *fuse.Context) fuse.Status {
	if err := os.Remove(d.full(name)); err != nil {
		return fuse.ToStatus(err)
	}
	return fuse.OK
}

// Rename implements plain rename; instance renaming is not routed through
// handlers, so the remote identity stays pinned to the name the instance
// was deployed under.
func (d *Dispatcher) Rename(oldName, newName string, ctx *fuse.Context) fuse.Status {
	if err := os.Rename(d.full(oldName), d.full(newName)); err != nil {
		return fuse.ToStatus(err)
	}
	return fuse.OK
}

// Truncate implements plain truncate against the backing file. Handlers do
// not intercept truncate: writes to special files always go through
// OnWrite regardless of prior truncation.
func (d *Dispatcher) Truncate(name string, size uint64, ctx *fuse.Context) fuse.Status {
	if err := os.Truncate(d.full(name), int64(size)); err != nil {
		return fuse.ToStatus(err)
	}
	return fuse.OK
}

// Chmod, Chown, Utimens, Access, Readlink, Symlink, Link, and StatFs are
// plain passthrough: no VNF type needs to intercept them.

func (d *Dispatcher) Chmod(name string, mode uint32, ctx *fuse.Context) fuse.Status {
	return fuse.ToStatus(os.Chmod(d.full(name), os.FileMode(mode)))
}

func (d *Dispatcher) Chown(name string, uid, gid uint32, ctx *fuse.Context) fuse.Status {
	return fuse.ToStatus(os.Lchown(d.full(name), int(uid), int(gid)))
}

func (d *Dispatcher) Utimens(name string, aTime, mTime *time.Time, ctx *fuse.Context) fuse.Status {
	var a, m time.Time
	if aTime != nil {
		a = *aTime
	}
	if mTime != nil {
		m = *mTime
	}
	return fuse.ToStatus(os.Chtimes(d.full(name), a, m))
}

func (d *Dispatcher) Access(name string, mode uint32, ctx *fuse.Context) fuse.Status {
	return fuse.ToStatus(syscall.Access(d.full(name), mode))
}

func (d *Dispatcher) Readlink(name string, ctx *fuse.Context) (string, fuse.Status) {
	target, err := os.Readlink(d.full(name))
	if err != nil {
		return "", fuse.ToStatus(err)
	}
	if d.MountPoint != "" {
		if rest, ok := strings.CutPrefix(target, d.Root); ok {
			target = filepath.Join(d.MountPoint, rest)
		}
	}
	return target, fuse.OK
}

func (d *Dispatcher) Symlink(value, linkName string, ctx *fuse.Context) fuse.Status {
	return fuse.ToStatus(os.Symlink(value, d.full(linkName)))
}

func (d *Dispatcher) Link(oldName, newName string, ctx *fuse.Context) fuse.Status {
	return fuse.ToStatus(os.Link(d.full(oldName), d.full(newName)))
}

func (d *Dispatcher) StatFs(name string) *fuse.StatfsOut {
	var st syscall.Statfs_t
	if err := syscall.Statfs(d.full(name), &st); err != nil {
		return nil
	}
	out := &fuse.StatfsOut{}
	out.FromStatfsT(&st)
	return out
}

// Open returns a File bound to the resolved handler (if any) so reads and
// writes against it dispatch through OnRead/OnWrite. Files with no handler
// get a plain os.File passthrough.
func (d *Dispatcher) Open(name string, flags uint32, ctx *fuse.Context) (nodefs.File, fuse.Status) {
	_, h, err := d.resolve(name)
	if err != nil {
		return nil, errnoToStatus(nfioerrors.ToErrno(err))
	}

	f, err := os.OpenFile(d.full(name), int(flags), 0644)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}
	return newHandlerFile(f, d.Root, "/"+name, h), fuse.OK
}

// Create implements open-with-O_CREAT, the path a new special file is
// opened through immediately after the owning handler's OnMkdir ran.
func (d *Dispatcher) Create(name string, flags uint32, mode uint32, ctx *fuse.Context) (nodefs.File, fuse.Status) {
	_, h, err := d.resolve(name)
	if err != nil {
		return nil, errnoToStatus(nfioerrors.ToErrno(err))
	}

	f, err := os.OpenFile(d.full(name), int(flags)|os.O_CREATE, os.FileMode(mode))
	if err != nil {
		return nil, fuse.ToStatus(err)
	}
	return newHandlerFile(f, d.Root, "/"+name, h), fuse.OK
}

func toFuseAttr(a handler.Attr) *fuse.Attr {
	out := &fuse.Attr{
		Size:  uint64(a.StSize),
		Mode:  uint32(a.StMode),
		Nlink: a.StNlink,
		Owner: fuse.Owner{Uid: a.StUid, Gid: a.StGid},
	}
	if !a.StAtime.IsZero() {
		out.SetTimes(&a.StAtime, &a.StMtime, &a.StCtime)
	}
	return out
}

func errnoToStatus(errno syscall.Errno) fuse.Status {
	if errno == 0 {
		return fuse.OK
	}
	return fuse.Status(errno)
}
