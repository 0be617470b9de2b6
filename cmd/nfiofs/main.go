// Command nfiofs mounts the NFV-orchestration filesystem: a FUSE tree
// under which creating directories, reading stat files, and writing action
// keywords drives VNF lifecycle on a remote hypervisor back-end.
package main

import (
	"fmt"
	"os"

	"github.com/nfio-go/nfiofs/cmd/nfiofs/commands"

	// Registers the docker and libvirt hypervisor.Driver constructors via
	// their init() funcs.
	_ "github.com/nfio-go/nfiofs/pkg/hypervisor/dockerdriver"
	_ "github.com/nfio-go/nfiofs/pkg/hypervisor/libvirtdriver"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
