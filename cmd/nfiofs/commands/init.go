package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfio-go/nfiofs/internal/cliprompt"
	"github.com/nfio-go/nfiofs/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively scaffold a configuration file",
	Long: `Walk through the settings a new nfiofs mount needs and write them to
a YAML configuration file.

By default the file is created at $XDG_CONFIG_HOME/nfiofs/config.yaml.
Use --config to specify a custom path.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			overwrite, err := cliprompt.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false)
			if err != nil {
				if errors.Is(err, cliprompt.ErrAborted) {
					return nil
				}
				return err
			}
			if !overwrite {
				return nil
			}
		}
	}

	cfg := config.Default()

	root, err := cliprompt.InputRequired("Backing root directory (--nfio_root)")
	if err != nil {
		return abortOrErr(err)
	}
	cfg.NfioRoot = root

	mount, err := cliprompt.InputRequired("Mount point (--nfio_mount)")
	if err != nil {
		return abortOrErr(err)
	}
	cfg.NfioMount = mount

	hypervisor, err := cliprompt.Select("Hypervisor back-end", []string{"docker", "libvirt"})
	if err != nil {
		return abortOrErr(err)
	}
	cfg.Hypervisor = hypervisor

	logLevel, err := cliprompt.Select("Log level", []string{"debug", "info", "warning", "error", "critical"})
	if err != nil {
		return abortOrErr(err)
	}
	cfg.LogLevel = logLevel

	enableMetrics, err := cliprompt.Confirm("Enable the /metrics and /healthz HTTP server?", false)
	if err != nil {
		return abortOrErr(err)
	}
	if enableMetrics {
		addr, err := cliprompt.Input("Metrics listen address", ":9090")
		if err != nil {
			return abortOrErr(err)
		}
		cfg.Metrics.Addr = addr
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Printf("  2. Mount the filesystem with: nfiofs mount --config %s\n", path)

	return nil
}

func abortOrErr(err error) error {
	if errors.Is(err, cliprompt.ErrAborted) {
		return nil
	}
	return err
}
