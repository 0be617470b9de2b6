package dispatcher

import (
	"os"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"

	"github.com/nfio-go/nfiofs/pkg/handler"
	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

// handlerFile implements nodefs.File for a single open descriptor. When h
// is non-nil, Read and Write dispatch through the handler's hooks;
// Flush, Release, Truncate, and the mode/owner ops act on the underlying
// backing descriptor, since handlers never intercept those calls. GetAttr
// is left unimplemented on purpose — see the note below.
type handlerFile struct {
	nodefs.File

	f    *os.File
	root string
	path string
	h    handler.Handler
}

func newHandlerFile(f *os.File, root, path string, h handler.Handler) nodefs.File {
	return &handlerFile{
		File: nodefs.NewDefaultFile(),
		f:    f,
		root: root,
		path: path,
		h:    h,
	}
}

func (hf *handlerFile) InnerFile() nodefs.File {
	return nil
}

func (hf *handlerFile) SetInode(*nodefs.Inode) {}

func (hf *handlerFile) String() string {
	return "handlerFile(" + hf.path + ")"
}

// Read services a pread. A handler-owned special file is serviced by the
// handler's OnRead hook; an off past the returned length reports EOF via an
// empty result.
func (hf *handlerFile) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	if hf.h == nil {
		n, err := hf.f.ReadAt(dest, off)
		if err != nil && n == 0 {
			return fuse.ReadResultData(dest[:0]), fuse.OK
		}
		return fuse.ReadResultData(dest[:n]), fuse.OK
	}

	data, err := hf.h.OnRead(hf.root, hf.path, len(dest), off, hf.f.Fd())
	if err != nil {
		return nil, errnoToStatus(nfioerrors.ToErrno(err))
	}
	return fuse.ReadResultData(data), fuse.OK
}

// Write services a pwrite, dispatching through the handler's OnWrite hook
// (which, for the action file, also invokes the lifecycle coordinator).
func (hf *handlerFile) Write(data []byte, off int64) (uint32, fuse.Status) {
	if hf.h == nil {
		n, err := hf.f.WriteAt(data, off)
		if err != nil {
			return uint32(n), fuse.ToStatus(err)
		}
		return uint32(n), fuse.OK
	}

	n, err := hf.h.OnWrite(hf.root, hf.path, data, off, hf.f.Fd())
	if err != nil {
		return uint32(n), errnoToStatus(nfioerrors.ToErrno(err))
	}
	return uint32(n), fuse.OK
}

func (hf *handlerFile) Flush() fuse.Status {
	fd, err := syscall.Dup(int(hf.f.Fd()))
	if err != nil {
		return fuse.ToStatus(err)
	}
	return fuse.ToStatus(syscall.Close(fd))
}

func (hf *handlerFile) Release() {
	hf.f.Close()
}

func (hf *handlerFile) Fsync(flags int) fuse.Status {
	return fuse.ToStatus(hf.f.Sync())
}

func (hf *handlerFile) Truncate(size uint64) fuse.Status {
	return fuse.ToStatus(hf.f.Truncate(int64(size)))
}

// GetAttr is deliberately not implemented: the embedded default file
// returns ENOSYS so pathfs falls back to the path-based Dispatcher.GetAttr,
// which applies the handler's special-file size override. Answering here
// from the raw descriptor would leak the on-disk size of a special file to
// any client holding it open.

func (hf *handlerFile) Chown(uid, gid uint32) fuse.Status {
	return fuse.ToStatus(hf.f.Chown(int(uid), int(gid)))
}

func (hf *handlerFile) Chmod(perms uint32) fuse.Status {
	return fuse.ToStatus(hf.f.Chmod(os.FileMode(perms)))
}

func (hf *handlerFile) Utimens(atime, mtime *time.Time) fuse.Status {
	var a, m time.Time
	if atime != nil {
		a = *atime
	}
	if mtime != nil {
		m = *mtime
	}
	return fuse.ToStatus(os.Chtimes(hf.f.Name(), a, m))
}

func (hf *handlerFile) Allocate(off, size uint64, mode uint32) fuse.Status {
	return fuse.ENOSYS
}
