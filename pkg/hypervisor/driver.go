// Package hypervisor defines the abstract contract for remote VNF lifecycle
// management on a named host, and a process-wide factory that enforces the
// single-backend policy.
package hypervisor

import "context"

// Driver is the abstract capability the dispatcher and lifecycle coordinator
// require. Concrete back-ends (Docker, libvirt, ...) satisfy this interface;
// callers never depend on a concrete type.
type Driver interface {
	// Deploy creates a new instance of image on host under fullname and
	// returns the back-end's opaque instance id. Does not start it.
	Deploy(ctx context.Context, host, user, image, fullname string, privileged bool) (string, error)

	// Start brings a deployed instance to the running state.
	Start(ctx context.Context, host, user, fullname string, privileged bool) error

	// Stop brings a running instance to the stopped state.
	Stop(ctx context.Context, host, user, fullname string) error

	// Restart stops then starts an instance.
	Restart(ctx context.Context, host, user, fullname string) error

	// Pause suspends a running instance without stopping it.
	Pause(ctx context.Context, host, user, fullname string) error

	// Unpause resumes a paused instance.
	Unpause(ctx context.Context, host, user, fullname string) error

	// Destroy removes an instance entirely. If force is true the back-end
	// SHOULD remove it even if running.
	Destroy(ctx context.Context, host, user, fullname string, force bool) error

	// ExecuteInGuest runs command inside the instance and returns its
	// captured stdout.
	ExecuteInGuest(ctx context.Context, host, user, fullname, command string) ([]byte, error)

	// GuestStatus returns a back-end-defined status string for the instance.
	GuestStatus(ctx context.Context, host, user, fullname string) (string, error)

	// GetID returns the back-end's opaque instance id for an existing
	// instance.
	GetID(ctx context.Context, host, user, fullname string) (string, error)

	// GetIP returns the instance's reachable IP address.
	GetIP(ctx context.Context, host, user, fullname string) (string, error)

	// Backend names the concrete back-end, e.g. "docker" or "libvirt". Used
	// by the factory to detect a conflicting second construction.
	Backend() string
}
