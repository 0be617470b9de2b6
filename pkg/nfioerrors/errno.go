package nfioerrors

import (
	"errors"
	"io/fs"
	"syscall"
)

// ToErrno maps any error surfaced by a type handler or hypervisor driver to
// the POSIX errno the dispatcher returns to the kernel bridge. The
// dispatcher never panics: any error it does not recognize becomes EIO.
func ToErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	if code, ok := CodeOf(err); ok {
		switch code {
		case VNFNotFound:
			return syscall.ENOENT
		case HypervisorConnection:
			return syscall.EHOSTUNREACH
		case VNFDeployErrorWithInconsistentState:
			return syscall.EIO
		default:
			return syscall.EIO
		}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrNotRunning):
		return syscall.EIO
	case errors.Is(err, ErrPermissionDenied):
		return syscall.EPERM
	case errors.Is(err, ErrMissingTypeModule):
		return syscall.ENOSYS
	case errors.Is(err, ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, ErrIsADirectory):
		return syscall.EISDIR
	case errors.Is(err, ErrInvalidArgument):
		return syscall.EINVAL
	}

	// Raw OS errors from passthrough I/O (Lstat, Open, ReadAt) carry the
	// errno already; surface it rather than collapsing to EIO.
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, fs.ErrPermission):
		return syscall.EACCES
	}

	return syscall.EIO
}
