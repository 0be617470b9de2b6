// Package vnfstore creates and reads the on-disk skeleton that represents
// a VNF instance.
package vnfstore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfio-go/nfiofs/internal/logger"
)

// statFile is a file created under an instance directory, with its mode.
type statFile struct {
	name string
	mode os.FileMode
}

var (
	topLevelFiles = []statFile{
		{"status", 0644},
		{"action", 0644},
	}
	configFiles = []statFile{
		{"boot.conf", 0644},
		{"privileged", 0644},
	}
	machineFiles = []statFile{
		{"ip", 0644},
		{"vm.vcpu", 0644},
		{"vm.memory", 0644},
		{"vm.image", 0644},
		{"vm.ip", 0644},
		{"vm.id", 0444},
	}
	statsFiles = []statFile{
		{"rx_bytes", 0444},
		{"tx_bytes", 0444},
		{"pkt_drops", 0444},
	}
)

// CreateInstance lays down the skeleton for a new VNF instance at
// instancePath, using mode for directories the caller controls (config/,
// machine/, stats/). Creation is best-effort and not transactional: if a
// later step fails, the caller observes a half-built skeleton rather than
// a rollback. Returns the error of the first failing step, or of the
// top-level mkdir.
func CreateInstance(instancePath string, mode os.FileMode) error {
	if err := os.Mkdir(instancePath, mode); err != nil {
		return err
	}

	for _, f := range topLevelFiles {
		if err := touch(filepath.Join(instancePath, f.name), f.mode); err != nil {
			logger.Error("failed to create instance skeleton file", logger.Path(instancePath), logger.Err(err))
			return err
		}
	}

	if err := createSubdir(instancePath, "config", mode, configFiles); err != nil {
		return err
	}
	if err := createSubdir(instancePath, "machine", mode, machineFiles); err != nil {
		return err
	}
	if err := createSubdir(instancePath, "stats", mode, statsFiles); err != nil {
		return err
	}

	return nil
}

func createSubdir(instancePath, name string, mode os.FileMode, files []statFile) error {
	dir := filepath.Join(instancePath, name)
	if err := os.Mkdir(dir, mode); err != nil {
		return err
	}
	for _, f := range files {
		if err := touch(filepath.Join(dir, f.name), f.mode); err != nil {
			return err
		}
	}
	return nil
}

func touch(path string, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	return f.Close()
}

// InstanceConfig is the minimal information the lifecycle coordinator and
// hypervisor driver need to act on an instance, read back from its skeleton.
type InstanceConfig struct {
	InstanceName string
	NFType       string
	Host         string
	Image        string
	Privileged   bool
}

// ReadInstanceConfig reads the first line of machine/ip as Host and of
// machine/vm.image as Image, and derives InstanceName and NFType from
// instancePath's own segments. config/privileged is read as a boolean
// flag: only a first line of "true" (case-insensitive) requests a
// privileged deploy, anything else (including missing or empty) does not.
func ReadInstanceConfig(instancePath string) (InstanceConfig, error) {
	cfg := InstanceConfig{
		InstanceName: filepath.Base(instancePath),
		NFType:       filepath.Base(filepath.Dir(instancePath)),
	}

	host, err := readFirstLine(filepath.Join(instancePath, "machine", "ip"))
	if err != nil {
		return cfg, err
	}
	cfg.Host = host

	image, err := readFirstLine(filepath.Join(instancePath, "machine", "vm.image"))
	if err != nil {
		return cfg, err
	}
	cfg.Image = image

	privileged, err := readFirstLine(filepath.Join(instancePath, "config", "privileged"))
	if err != nil {
		return cfg, err
	}
	cfg.Privileged = strings.EqualFold(privileged, "true")

	return cfg, nil
}

func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r\n"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", nil
}
