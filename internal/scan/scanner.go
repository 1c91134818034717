// Package scan discovers the storage devices a grading run will cover.
package scan

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"drive-health-grader/internal/config"
	"drive-health-grader/internal/utils"
	"drive-health-grader/pkg/types"
)

// nvme list reports namespaces; smartctl scans controllers. Namespace paths
// collapse onto their controller so one physical device is graded once.
var nvmeNamespace = regexp.MustCompile(`^(/dev/nvme\d+)n\d+$`)

// Scanner discovers grading candidates with smartctl and nvme-cli.
type Scanner struct {
	cfg     config.Scan
	include []glob.Glob
	exclude []glob.Glob
}

// NewScanner creates a Scanner, compiling the configured path patterns
func NewScanner(cfg config.Scan) (*Scanner, error) {
	s := &Scanner{cfg: cfg}

	for _, pattern := range cfg.Include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, &config.ConfigurationError{Field: "scan.include", Reason: fmt.Sprintf("cannot compile pattern %q", pattern)}
		}
		s.include = append(s.include, g)
	}
	for _, pattern := range cfg.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, &config.ConfigurationError{Field: "scan.exclude", Reason: fmt.Sprintf("cannot compile pattern %q", pattern)}
		}
		s.exclude = append(s.exclude, g)
	}

	return s, nil
}

// Scan lists candidate devices in a stable path order. An empty result is
// not an error here; the caller decides whether zero devices is fatal.
func (s *Scanner) Scan(ctx context.Context) ([]types.DiscoveredDevice, error) {
	seen := make(map[string]bool)
	var devices []types.DiscoveredDevice
	var scanErrs []error

	if utils.CommandExists("smartctl") {
		found, err := s.scanSmartctl(ctx)
		if err != nil {
			scanErrs = append(scanErrs, err)
			log.WithError(err).Warn("smartctl scan failed")
		}
		for _, dev := range found {
			if !seen[dev.Path] {
				seen[dev.Path] = true
				devices = append(devices, dev)
			}
		}
	}

	if utils.CommandExists("nvme") {
		found, err := s.scanNvmeList(ctx)
		if err != nil {
			scanErrs = append(scanErrs, err)
			log.WithError(err).Warn("nvme list scan failed")
		}
		for _, dev := range found {
			if !seen[dev.Path] {
				seen[dev.Path] = true
				devices = append(devices, dev)
			}
		}
	}

	// Only give up when every attempted tool failed outright.
	if len(devices) == 0 && len(scanErrs) > 0 {
		return nil, fmt.Errorf("scan: all discovery tools failed: %v", scanErrs[0])
	}

	devices = s.filter(devices)
	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })

	log.WithField("devices", len(devices)).Info("Device discovery complete")
	return devices, nil
}

// scanSmartctl runs smartctl --scan -j and maps its device list
func (s *Scanner) scanSmartctl(ctx context.Context) ([]types.DiscoveredDevice, error) {
	output, err := utils.RunCommand(ctx, "smartctl", "--scan", "-j")
	if err != nil {
		return nil, fmt.Errorf("smartctl --scan: %w", err)
	}
	return parseSmartctlScan(output), nil
}

// scanNvmeList runs nvme list -o json and maps its device list
func (s *Scanner) scanNvmeList(ctx context.Context) ([]types.DiscoveredDevice, error) {
	output, err := utils.RunCommand(ctx, "nvme", "list", "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("nvme list: %w", err)
	}
	return parseNvmeList(output), nil
}

func parseSmartctlScan(output []byte) []types.DiscoveredDevice {
	var devices []types.DiscoveredDevice
	for _, entry := range gjson.GetBytes(output, "devices").Array() {
		path := entry.Get("name").String()
		if path == "" {
			continue
		}

		// A plain type is left to smartctl autodetection; composite types
		// (behind RAID controllers, "sat,auto" style) must be passed back.
		hint := ""
		if devType := entry.Get("type").String(); strings.Contains(devType, ",") {
			hint = devType
		}

		devices = append(devices, types.DiscoveredDevice{
			Path:     normalizePath(path),
			TypeHint: hint,
			Protocol: types.ParseProtocol(entry.Get("protocol").String()),
		})
	}
	return devices
}

func parseNvmeList(output []byte) []types.DiscoveredDevice {
	var devices []types.DiscoveredDevice
	for _, entry := range gjson.GetBytes(output, "Devices").Array() {
		path := entry.Get("DevicePath").String()
		if path == "" {
			continue
		}
		devices = append(devices, types.DiscoveredDevice{
			Path:     normalizePath(path),
			Protocol: types.ProtocolNVMe,
		})
	}
	return devices
}

// filter applies the include/exclude patterns and protocol switches
func (s *Scanner) filter(devices []types.DiscoveredDevice) []types.DiscoveredDevice {
	kept := devices[:0]
	for _, dev := range devices {
		if s.ignored(dev.Protocol) {
			log.WithField("device", dev.Path).Debug("Skipping device, protocol ignored")
			continue
		}
		if len(s.include) > 0 && !matchAny(s.include, dev.Path) {
			log.WithField("device", dev.Path).Debug("Skipping device, no include pattern matches")
			continue
		}
		if matchAny(s.exclude, dev.Path) {
			log.WithField("device", dev.Path).Debug("Skipping device, exclude pattern matches")
			continue
		}
		kept = append(kept, dev)
	}
	return kept
}

func (s *Scanner) ignored(protocol types.Protocol) bool {
	switch protocol {
	case types.ProtocolSATA:
		return s.cfg.IgnoreSATA
	case types.ProtocolSAS:
		return s.cfg.IgnoreSAS
	case types.ProtocolNVMe:
		return s.cfg.IgnoreNVMe
	default:
		return false
	}
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	if m := nvmeNamespace.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return path
}
