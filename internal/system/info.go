package system

import (
	"os"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"

	"drive-health-grader/internal/utils"
)

// SystemInfo holds detected system information
type SystemInfo struct {
	OS            string
	HasSmartctl   bool
	SmartctlPath  string
	SmartctlVer   string
	HasNvmeCLI    bool
	NvmeCLIPath   string
	NvmeCLIVer    string
	RunningAsRoot bool
	Platform      Platform
}

// Platform represents the detected platform type
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
	PlatformUnknown Platform = "unknown"
)

// Detector handles system detection
type Detector struct {
	info *SystemInfo
}

// New creates a new system detector
func New() *Detector {
	return &Detector{}
}

// Detect performs one-time system detection
func (d *Detector) Detect() *SystemInfo {
	if d.info != nil {
		return d.info // Return cached info if already detected
	}

	log.Debug("Performing one-time system detection...")

	info := &SystemInfo{
		OS:            runtime.GOOS,
		RunningAsRoot: os.Geteuid() == 0,
	}

	// Determine platform
	switch info.OS {
	case "linux":
		info.Platform = PlatformLinux
	case "darwin":
		info.Platform = PlatformMacOS
	default:
		info.Platform = PlatformUnknown
	}

	info.detectSmartctl()
	info.detectNvmeCLI()

	d.logDetectedCapabilities(info)

	// Cache the info
	d.info = info
	return info
}

// detectSmartctl detects smartctl availability
func (info *SystemInfo) detectSmartctl() {
	path, err := exec.LookPath("smartctl")
	if err != nil {
		info.HasSmartctl = false
		log.Warn("smartctl not found")
		return
	}

	info.HasSmartctl = true
	info.SmartctlPath = path
	if ver, err := utils.GetToolVersion("smartctl", "--version"); err == nil {
		info.SmartctlVer = ver
	}
	log.WithFields(log.Fields{"path": path, "version": info.SmartctlVer}).Debug("smartctl found")
}

// detectNvmeCLI detects nvme-cli availability
func (info *SystemInfo) detectNvmeCLI() {
	path, err := exec.LookPath("nvme")
	if err != nil {
		info.HasNvmeCLI = false
		log.Debug("nvme-cli not found (NVMe fallback collection disabled)")
		return
	}

	info.HasNvmeCLI = true
	info.NvmeCLIPath = path
	if ver, err := utils.GetToolVersion("nvme", "version"); err == nil {
		info.NvmeCLIVer = ver
	}
	log.WithFields(log.Fields{"path": path, "version": info.NvmeCLIVer}).Debug("nvme-cli found")
}

// logDetectedCapabilities logs the detected system capabilities
func (d *Detector) logDetectedCapabilities(info *SystemInfo) {
	log.WithFields(log.Fields{
		"platform": info.Platform,
		"smartctl": info.HasSmartctl,
		"nvmeCLI":  info.HasNvmeCLI,
		"root":     info.RunningAsRoot,
	}).Info("System detection complete")

	if !info.RunningAsRoot {
		log.Warn("Not running as root, device access will likely fail")
	}
}

// IsLinux returns true if running on Linux
func (info *SystemInfo) IsLinux() bool {
	return info.Platform == PlatformLinux
}

// CanCollect returns true if at least one collection tool is available
func (info *SystemInfo) CanCollect() bool {
	return info.HasSmartctl || info.HasNvmeCLI
}
