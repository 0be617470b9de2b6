package middlebox

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/nfio-go/nfiofs/pkg/handler"
)

// minimalSkeletonFiles are the placeholder leaves created under every
// Minimal instance directory.
var minimalSkeletonFiles = []string{"alpha", "beta", "gamma", "kappa", "omega", "theta"}

// Minimal is the bare-bones type handler used for VNF types with no
// special files at all: mkdir lays down a fixed set of placeholder leaves
// and every read/write is a plain passthrough.
type Minimal struct{}

// NewMinimal returns a Minimal handler. It needs no hypervisor driver or
// lifecycle coordinator since it never intercepts action or stats files.
func NewMinimal() *Minimal {
	return &Minimal{}
}

// SpecialFiles is empty: Minimal intercepts nothing.
func (m *Minimal) SpecialFiles() map[string]bool {
	return map[string]bool{}
}

// OnMkdir creates the instance directory and its fixed placeholder leaves.
func (m *Minimal) OnMkdir(root, path string, mode os.FileMode) error {
	fullPath := backingPath(root, path)
	if err := os.Mkdir(fullPath, mode); err != nil {
		return err
	}
	for _, name := range minimalSkeletonFiles {
		f, err := os.OpenFile(filepath.Join(fullPath, name), os.O_WRONLY|os.O_CREATE, mode)
		if err != nil {
			return err
		}
		f.Close()
	}
	return nil
}

// OnGetattr returns the plain backing lstat attributes, unmodified.
func (m *Minimal) OnGetattr(root, path string, fh uintptr) (handler.Attr, error) {
	var st syscall.Stat_t
	if err := syscall.Lstat(backingPath(root, path), &st); err != nil {
		return handler.Attr{}, err
	}
	return handler.Attr{
		StSize:  st.Size,
		StMode:  os.FileMode(st.Mode),
		StNlink: uint32(st.Nlink),
		StUid:   st.Uid,
		StGid:   st.Gid,
	}, nil
}

// OnRead always falls through to a plain pread.
func (m *Minimal) OnRead(root, path string, length int, off int64, fh uintptr) ([]byte, error) {
	return passthroughRead(backingPath(root, path), length, off)
}

// OnWrite always falls through to a plain pwrite.
func (m *Minimal) OnWrite(root, path string, buf []byte, off int64, fh uintptr) (int, error) {
	return passthroughWrite(backingPath(root, path), buf, off)
}
