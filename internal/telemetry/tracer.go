package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for dispatcher and hypervisor-driver operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Dispatcher attributes
	// ========================================================================
	AttrDispatcherOp = "dispatcher.operation" // getattr, readdir, mkdir, read, write, ...
	AttrPath         = "nfio.path"            // mount-relative path
	AttrOpcode       = "nfio.opcode"          // NF or UNDEFINED

	// ========================================================================
	// VNF identity attributes
	// ========================================================================
	AttrNFType    = "nfio.nf_type"
	AttrInstance  = "nfio.instance_name"
	AttrFullname  = "nfio.fullname"
	AttrLeaf      = "nfio.leaf_name"
	AttrKeyword   = "nfio.action_keyword"

	// ========================================================================
	// Hypervisor-driver attributes
	// ========================================================================
	AttrHypervisorOp = "hypervisor.operation"
	AttrHost         = "hypervisor.host"
	AttrUser         = "hypervisor.user"
	AttrImage        = "hypervisor.image"
	AttrBackend      = "hypervisor.backend"

	// ========================================================================
	// Result attributes
	// ========================================================================
	AttrErrorCode = "nfio.error_code"
	AttrErrno     = "nfio.errno"
)

func DispatcherOp(op string) attribute.KeyValue { return attribute.String(AttrDispatcherOp, op) }

func Path(path string) attribute.KeyValue { return attribute.String(AttrPath, path) }

func Opcode(opcode string) attribute.KeyValue { return attribute.String(AttrOpcode, opcode) }

func NFType(t string) attribute.KeyValue { return attribute.String(AttrNFType, t) }

func Instance(name string) attribute.KeyValue { return attribute.String(AttrInstance, name) }

func Fullname(name string) attribute.KeyValue { return attribute.String(AttrFullname, name) }

func Leaf(name string) attribute.KeyValue { return attribute.String(AttrLeaf, name) }

func Keyword(kw string) attribute.KeyValue { return attribute.String(AttrKeyword, kw) }

func HypervisorOp(op string) attribute.KeyValue { return attribute.String(AttrHypervisorOp, op) }

func Host(host string) attribute.KeyValue { return attribute.String(AttrHost, host) }

func User(user string) attribute.KeyValue { return attribute.String(AttrUser, user) }

func Image(image string) attribute.KeyValue { return attribute.String(AttrImage, image) }

func Backend(name string) attribute.KeyValue { return attribute.String(AttrBackend, name) }

func ErrorCode(code int) attribute.KeyValue { return attribute.Int(AttrErrorCode, code) }

func Errno(errno string) attribute.KeyValue { return attribute.String(AttrErrno, errno) }

// StartDispatcherSpan starts a span for a single dispatcher operation.
func StartDispatcherSpan(ctx context.Context, op, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{DispatcherOp(op), Path(path)}, attrs...)
	return StartSpan(ctx, "dispatcher."+op, trace.WithAttributes(all...))
}

// StartHypervisorSpan starts a span around a single blocking
// hypervisor-driver call — the one point an operation can stall on network
// or remote I/O.
func StartHypervisorSpan(ctx context.Context, op, host, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{HypervisorOp(op), Host(host), Fullname(name)}, attrs...)
	return StartSpan(ctx, "hypervisor."+op, trace.WithAttributes(all...))
}

// StartLifecycleSpan starts a span for a single lifecycle-coordinator protocol
//, e.g. the whole "activate" compensating transaction.
func StartLifecycleSpan(ctx context.Context, keyword, nfType, instance string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Keyword(keyword), NFType(nfType), Instance(instance)}, attrs...)
	return StartSpan(ctx, "lifecycle."+keyword, trace.WithAttributes(all...))
}
