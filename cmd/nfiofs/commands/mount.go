package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"
	"github.com/spf13/cobra"

	"github.com/nfio-go/nfiofs/internal/config"
	"github.com/nfio-go/nfiofs/internal/httpapi"
	"github.com/nfio-go/nfiofs/internal/logger"
	"github.com/nfio-go/nfiofs/internal/telemetry"
	"github.com/nfio-go/nfiofs/pkg/dispatcher"
	"github.com/nfio-go/nfiofs/pkg/handler"
	"github.com/nfio-go/nfiofs/pkg/handler/middlebox"
	"github.com/nfio-go/nfiofs/pkg/hypervisor"
	"github.com/nfio-go/nfiofs/pkg/hypervisor/dockerdriver"
	"github.com/nfio-go/nfiofs/pkg/imagefetch"
	"github.com/nfio-go/nfiofs/pkg/lifecycle"
	"github.com/nfio-go/nfiofs/pkg/metrics"
	"github.com/nfio-go/nfiofs/pkg/metrics/prometheus"
)

var (
	mountNfioRoot            string
	mountNfioMount           string
	mountHypervisor          string
	mountMiddleboxModuleRoot string
	mountLogLevel            string
	mountMetricsAddr         string
	mountForeground          bool
)

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Mount the nfiofs filesystem",
	Long: `Mount nfio_root at nfio_mount and serve VNF lifecycle management as
POSIX operations until interrupted (SIGINT/SIGTERM).

Flags override the configuration file, which overrides built-in defaults.`,
	RunE: runMount,
}

func init() {
	mountCmd.Flags().StringVar(&mountNfioRoot, "nfio_root", "", "Backing root directory")
	mountCmd.Flags().StringVar(&mountNfioMount, "nfio_mount", "", "Mount point")
	mountCmd.Flags().StringVar(&mountHypervisor, "hypervisor", "", "Hypervisor back-end: docker or libvirt")
	mountCmd.Flags().StringVar(&mountMiddleboxModuleRoot, "middlebox_module_root", "", "Additional type-handler plug-in root")
	mountCmd.Flags().StringVar(&mountLogLevel, "log_level", "", "Log level: debug|info|warning|error|critical")
	mountCmd.Flags().StringVar(&mountMetricsAddr, "metrics_addr", "", "Listen address for /metrics and /healthz (default: disabled)")
	mountCmd.Flags().BoolVar(&mountForeground, "foreground", true, "Run in the foreground (always true; flag kept for fuse-mount-compatible invocations)")
}

func runMount(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	applyMountOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: "text", Output: "stderr"}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "nfiofs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "nfiofs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("init profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown failed", logger.Err(err))
		}
	}()

	driver, err := hypervisor.Get(cfg.Hypervisor)
	if err != nil {
		return fmt.Errorf("init hypervisor driver: %w", err)
	}

	var collector *prometheus.Collector
	if cfg.Metrics.Addr != "" {
		metrics.Enable()
		collector = prometheus.New()
		if dd, ok := driver.(*dockerdriver.Driver); ok {
			dd.WithMetrics(collector)
		}
	}

	coordinator := lifecycle.New(driver)
	if collector != nil {
		coordinator = coordinator.WithMetrics(collector)
	}
	if cfg.ImageFetch.Enabled {
		resolver, err := imagefetch.New(ctx, cfg.ImageFetch.Region, cfg.ImageFetch.CacheDir)
		if err != nil {
			return fmt.Errorf("init image fetch resolver: %w", err)
		}
		coordinator = coordinator.WithImageResolver(resolver)
	}

	registry := buildRegistry(driver, coordinator, cfg.MiddleboxModuleRoot)

	fs := dispatcher.New(cfg.NfioRoot, registry).WithMountPoint(cfg.NfioMount)
	if collector != nil {
		fs = fs.WithMetrics(collector)
	}

	nodeFs := pathfs.NewPathNodeFs(fs, nil)
	server, _, err := nodefs.MountRoot(cfg.NfioMount, nodeFs.Root(), &nodefs.Options{
		EntryTimeout:    0,
		AttrTimeout:     0,
		NegativeTimeout: 0,
	})
	if err != nil {
		return fmt.Errorf("mount %s: %w", cfg.NfioMount, err)
	}

	logger.Info("mounted nfiofs",
		logger.Path(cfg.NfioMount),
		logger.Backend(cfg.Hypervisor),
	)

	var httpServer *httpapi.Server
	if collector != nil {
		httpServer = httpapi.New(cfg.Metrics.Addr, prometheus.Registry())
		go func() {
			if err := httpServer.Serve(ctx); err != nil {
				logger.Error("metrics server stopped", logger.Err(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("received shutdown signal, unmounting")
		server.Unmount()
	}()

	server.Serve()

	cancel()
	logger.Info("nfiofs unmounted cleanly")
	return nil
}

func applyMountOverrides(cfg *config.Config) {
	if mountNfioRoot != "" {
		cfg.NfioRoot = mountNfioRoot
	}
	if mountNfioMount != "" {
		cfg.NfioMount = mountNfioMount
	}
	if mountHypervisor != "" {
		// The documented flag values are Docker|Libvirt; backend names in the
		// factory registry are lowercase.
		cfg.Hypervisor = strings.ToLower(mountHypervisor)
	}
	if mountMiddleboxModuleRoot != "" {
		cfg.MiddleboxModuleRoot = mountMiddleboxModuleRoot
	}
	if mountLogLevel != "" {
		cfg.LogLevel = mountLogLevel
	}
	if mountMetricsAddr != "" {
		cfg.Metrics.Addr = mountMetricsAddr
	}
}

// buildRegistry wires the built-in middlebox type handlers, then scans
// moduleRoot for additional types: each subdirectory's name declares an
// nf_type served by the reference handler.
func buildRegistry(driver hypervisor.Driver, coordinator *lifecycle.Coordinator, moduleRoot string) *handler.Registry {
	registry := handler.NewRegistry()
	registry.Register("firewall", middlebox.NewFirewall(driver, coordinator))
	registry.Register("nginx", middlebox.NewNginx(driver, coordinator))
	registry.Register("random", middlebox.NewMinimal())
	registry.Register("default", middlebox.NewDefault(driver, coordinator))

	if moduleRoot == "" {
		return registry
	}
	entries, err := os.ReadDir(moduleRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot scan middlebox module root", logger.Path(moduleRoot), logger.Err(err))
		}
		return registry
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := registry.Resolve(e.Name()); err != nil {
			registry.Register(e.Name(), middlebox.NewDefault(driver, coordinator))
		}
	}
	return registry
}
