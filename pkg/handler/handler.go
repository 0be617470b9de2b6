// Package handler defines the type-handler plug-in contract and the
// registry that resolves an nf_type token to a handler instance.
package handler

import (
	"os"
	"sync"
	"time"

	"github.com/nfio-go/nfiofs/pkg/nfioerrors"
)

// Attr is the attribute dictionary a handler's OnGetattr hook returns. It
// mirrors the backing lstat result, with StSize overridable for special
// files: their reported size is fixed at 1000 bytes so line-oriented
// readers don't truncate on stale stat.
type Attr struct {
	StSize  int64
	StMode  os.FileMode
	StNlink uint32
	StUid   uint32
	StGid   uint32
	StAtime time.Time
	StMtime time.Time
	StCtime time.Time
}

// SpecialFileSize is the fixed st_size reported for declared special files.
const SpecialFileSize = 1000

// Handler implements the four hooks a VNF type plug-in must satisfy.
// root is the backing filesystem root; path is mount-relative.
type Handler interface {
	// OnMkdir is called when an instance directory is created under this
	// handler's nf_type.
	OnMkdir(root, path string, mode os.FileMode) error

	// OnGetattr returns the attribute dictionary for path, overriding StSize
	// for declared special files.
	OnGetattr(root, path string, fh uintptr) (Attr, error)

	// OnRead returns the bytes to deliver for this read. The handler decides
	// whether path names a special file or falls through to plain pread.
	OnRead(root, path string, length int, off int64, fh uintptr) ([]byte, error)

	// OnWrite applies the write, optionally triggering a lifecycle action,
	// and returns the number of bytes conceptually consumed.
	OnWrite(root, path string, buf []byte, off int64, fh uintptr) (int, error)

	// SpecialFiles returns the set of leaf names this handler intercepts.
	SpecialFiles() map[string]bool
}

// Registry resolves an nf_type string to a Handler by convention: the type
// name names the handler registered for it. Resolution failure surfaces
// ENOSYS at the dispatcher.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds nfType to handler. A later call with the same nfType
// replaces the previous binding.
func (r *Registry) Register(nfType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[nfType] = h
}

// Resolve looks up the handler bound to nfType. It returns
// nfioerrors.ErrMissingTypeModule if none is registered.
func (r *Registry) Resolve(nfType string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[nfType]
	if !ok {
		return nil, nfioerrors.ErrMissingTypeModule
	}
	return h, nil
}

// Types returns the nf_type tokens currently registered.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}
