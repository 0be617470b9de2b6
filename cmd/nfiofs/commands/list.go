package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nfio-go/nfiofs/internal/cliout"
	"github.com/nfio-go/nfiofs/internal/config"
	"github.com/nfio-go/nfiofs/pkg/vnfstore"
)

var listRoot string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List VNF instances under a backing root",
	Long: `Walk nf-types/*/* under the backing root and print a table of the
VNF instances found there: name, type, host, and image.

This reads the backing directory tree directly; it does not require the
filesystem to be mounted.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listRoot, "nfio_root", "", "Backing root directory (default: from config file)")
}

func runList(cmd *cobra.Command, args []string) error {
	root := listRoot
	if root == "" {
		cfg, err := config.Load(GetConfigFile())
		if err != nil {
			return fmt.Errorf("resolve nfio_root: %w", err)
		}
		root = cfg.NfioRoot
	}

	typesRoot := filepath.Join(root, "nf-types")
	typeDirs, err := os.ReadDir(typesRoot)
	if err != nil {
		if os.IsNotExist(err) {
			cliout.PrintTable(cmd.OutOrStdout(), []string{"NAME", "TYPE", "HOST", "IMAGE"}, nil)
			return nil
		}
		return fmt.Errorf("read %s: %w", typesRoot, err)
	}

	var rows [][]string
	for _, typeDir := range typeDirs {
		if !typeDir.IsDir() {
			continue
		}
		typePath := filepath.Join(typesRoot, typeDir.Name())

		instanceDirs, err := os.ReadDir(typePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", typePath, err)
		}

		for _, instanceDir := range instanceDirs {
			if !instanceDir.IsDir() {
				continue
			}
			instancePath := filepath.Join(typePath, instanceDir.Name())

			cfg, err := vnfstore.ReadInstanceConfig(instancePath)
			if err != nil {
				rows = append(rows, []string{instanceDir.Name(), typeDir.Name(), "?", "?"})
				continue
			}
			rows = append(rows, []string{cfg.InstanceName, cfg.NFType, cfg.Host, cfg.Image})
		}
	}

	cliout.PrintTable(cmd.OutOrStdout(), []string{"NAME", "TYPE", "HOST", "IMAGE"}, rows)
	return nil
}
