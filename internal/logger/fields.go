package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying across the dispatcher, lifecycle coordinator, and hypervisor
// drivers.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Dispatcher operations
	// ========================================================================
	KeyOp       = "op"        // Dispatcher operation name: getattr, readdir, mkdir, read, write, ...
	KeyOpcode   = "opcode"    // Classifier opcode: NF or UNDEFINED
	KeyPath     = "path"      // Mount-relative path
	KeyLeaf     = "leaf"      // Basename of the path
	KeyOffset   = "offset"    // I/O offset
	KeyLength   = "length"    // Byte count requested
	KeyBytes    = "bytes"     // Actual bytes returned/consumed
	KeyMode     = "mode"      // File mode/permissions (Unix-style)
	KeySize     = "size"      // Reported st_size

	// ========================================================================
	// VNF identity
	// ========================================================================
	KeyNFType   = "nf_type"       // VNF type token (firewall, nginx, ...)
	KeyInstance = "instance_name" // VNF instance directory name
	KeyFullname = "fullname"      // "<user>-<instance_name>" used on the wire to the driver
	KeyUser     = "user"          // Ambient process user
	KeyHost     = "host"          // Target host for a hypervisor call
	KeyImage    = "image"         // vm.image value
	KeyUID      = "uid"           // Calling process UID
	KeyGID      = "gid"           // Calling process GID

	// ========================================================================
	// Lifecycle coordinator
	// ========================================================================
	KeyKeyword = "keyword" // Action keyword written to the action file
	KeyState   = "state"   // Lifecycle state (ABSENT, DEPLOYED, RUNNING, STOPPED)

	// ========================================================================
	// Hypervisor driver
	// ========================================================================
	KeyHypervisorOp = "hypervisor_op" // deploy, start, stop, destroy, ...
	KeyBackend      = "backend"       // Docker, Libvirt

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code" // nfioerrors numeric code
	KeyErrno      = "errno"      // mapped POSIX errno name
)

// ----------------------------------------------------------------------------
// Dispatcher operations
// ----------------------------------------------------------------------------

// Op returns a slog.Attr for the dispatcher operation name.
func Op(name string) slog.Attr {
	return slog.String(KeyOp, name)
}

// Opcode returns a slog.Attr for the classifier opcode.
func Opcode(opcode string) slog.Attr {
	return slog.String(KeyOpcode, opcode)
}

// Path returns a slog.Attr for a mount-relative path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Leaf returns a slog.Attr for the basename of a path.
func Leaf(name string) slog.Attr {
	return slog.String(KeyLeaf, name)
}

// Offset returns a slog.Attr for an I/O offset.
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Length returns a slog.Attr for a byte count requested.
func Length(n int) slog.Attr {
	return slog.Int(KeyLength, n)
}

// Bytes returns a slog.Attr for the actual number of bytes returned/consumed.
func Bytes(n int) slog.Attr {
	return slog.Int(KeyBytes, n)
}

// Mode returns a slog.Attr for a file mode.
func Mode(m uint32) slog.Attr {
	return slog.Any(KeyMode, m)
}

// Size returns a slog.Attr for a reported file size.
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// ----------------------------------------------------------------------------
// VNF identity
// ----------------------------------------------------------------------------

// NFType returns a slog.Attr for the VNF type token.
func NFType(t string) slog.Attr {
	return slog.String(KeyNFType, t)
}

// Instance returns a slog.Attr for the VNF instance name.
func Instance(name string) slog.Attr {
	return slog.String(KeyInstance, name)
}

// Fullname returns a slog.Attr for the "<user>-<instance>" remote identity.
func Fullname(name string) slog.Attr {
	return slog.String(KeyFullname, name)
}

// User returns a slog.Attr for the ambient process user.
func User(name string) slog.Attr {
	return slog.String(KeyUser, name)
}

// Host returns a slog.Attr for the target host of a hypervisor call.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, host)
}

// Image returns a slog.Attr for a vm.image value.
func Image(image string) slog.Attr {
	return slog.String(KeyImage, image)
}

// ----------------------------------------------------------------------------
// Lifecycle coordinator
// ----------------------------------------------------------------------------

// Keyword returns a slog.Attr for an action keyword.
func Keyword(kw string) slog.Attr {
	return slog.String(KeyKeyword, kw)
}

// State returns a slog.Attr for a lifecycle state.
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// ----------------------------------------------------------------------------
// Hypervisor driver
// ----------------------------------------------------------------------------

// HypervisorOp returns a slog.Attr for the hypervisor operation name.
func HypervisorOp(op string) slog.Attr {
	return slog.String(KeyHypervisorOp, op)
}

// Backend returns a slog.Attr for the hypervisor backend name.
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for the numeric nfioerrors code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Errno returns a slog.Attr for the mapped POSIX errno name.
func Errno(name string) slog.Attr {
	return slog.String(KeyErrno, name)
}

// HandleHex returns a slog.Attr for an opaque identifier formatted as hex.
func HandleHex(h []byte) slog.Attr {
	return slog.String("handle", fmt.Sprintf("%x", h))
}
