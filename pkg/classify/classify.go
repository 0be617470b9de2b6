// Package classify implements the path classifier: a pure, side-effect-free
// function that decomposes a mount-relative path into the opcode and VNF
// identity the dispatcher needs to route a filesystem call.
package classify

import "strings"

// Opcode identifies how a path should be routed by the dispatcher.
type Opcode int

const (
	// Undefined means the path falls outside nf-types/ entirely; the
	// dispatcher treats it as plain passthrough, and mkdir under it fails
	// with EPERM.
	Undefined Opcode = iota

	// NF means the path is under nf-types/ and carries VNF identity.
	NF
)

func (o Opcode) String() string {
	if o == NF {
		return "NF"
	}
	return "UNDEFINED"
}

// typeSegment is the fixed directory name marking the start of the VNF tree.
const typeSegment = "nf-types"

// Path is the result of classifying a mount-relative path.
type Path struct {
	Opcode       Opcode
	NFType       string // empty if absent
	InstanceName string // empty if absent
	LeafName     string // basename of the path; empty for the root
}

// Classify decomposes path into an opcode and VNF identity. path is expected
// to use forward slashes and be relative to the mount root (a leading slash
// is tolerated and ignored). Classify touches no disk state and always
// terminates.
func Classify(path string) Path {
	segments := splitSegments(path)

	leaf := ""
	if len(segments) > 0 {
		leaf = segments[len(segments)-1]
	}

	idx := indexOf(segments, typeSegment)
	if idx < 0 {
		return Path{Opcode: Undefined, LeafName: leaf}
	}

	p := Path{Opcode: NF, LeafName: leaf}
	if idx+1 < len(segments) {
		p.NFType = segments[idx+1]
	}
	if idx+2 < len(segments) {
		p.InstanceName = segments[idx+2]
	}
	return p
}

// IsInstanceDir reports whether path names the VNF instance directory
// itself — i.e. its parent segment is the nf_type directory — as opposed to
// a file beneath it. Used by the dispatcher's mkdir rule to distinguish
// "create an instance" from "create the type directory" or "mkdir inside an
// existing instance" (which the dispatcher never routes to the handler's
// on_mkdir hook).
func IsInstanceDir(path string) bool {
	segments := splitSegments(path)
	idx := indexOf(segments, typeSegment)
	if idx < 0 {
		return false
	}
	// nf-types/<nf_type>/<instance_name> has exactly idx+3 segments.
	return len(segments) == idx+3
}

// IsTypeDir reports whether path names the nf_type directory itself, the
// direct child of nf-types.
func IsTypeDir(path string) bool {
	segments := splitSegments(path)
	idx := indexOf(segments, typeSegment)
	if idx < 0 {
		return false
	}
	return len(segments) == idx+2
}

func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func indexOf(segments []string, target string) int {
	for i, s := range segments {
		if s == target {
			return i
		}
	}
	return -1
}
