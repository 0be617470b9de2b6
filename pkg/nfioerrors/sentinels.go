package nfioerrors

import "errors"

// Sentinel errors for dispatcher-level failures that are not hypervisor
// errors. Handlers and the classifier return these directly;
// HypervisorError values are produced only by the driver layer and the
// lifecycle coordinator.
var (
	// ErrNotFound indicates the backing path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotRunning indicates an operation required a running instance.
	ErrNotRunning = errors.New("instance not running")

	// ErrPermissionDenied indicates the operation is not permitted, e.g. a
	// mkdir under an UNDEFINED path or a backing-filesystem access check.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrMissingTypeModule indicates the classified nf_type has no
	// registered handler.
	ErrMissingTypeModule = errors.New("no handler registered for nf_type")

	// ErrNotADirectory indicates a directory operation was attempted on a file.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIsADirectory indicates a file operation was attempted on a directory.
	ErrIsADirectory = errors.New("is a directory")

	// ErrInvalidArgument indicates malformed operation parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)
