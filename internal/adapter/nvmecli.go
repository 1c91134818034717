package adapter

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"drive-health-grader/internal/utils"
	"drive-health-grader/pkg/types"
)

// NvmeCLIAdapter collects NVMe attributes with nvme-cli, used when smartctl
// cannot read the controller.
type NvmeCLIAdapter struct{}

// NewNvmeCLIAdapter creates a new NvmeCLIAdapter instance
func NewNvmeCLIAdapter() *NvmeCLIAdapter {
	return &NvmeCLIAdapter{}
}

// Name returns the tool name
func (n *NvmeCLIAdapter) Name() string {
	return "nvme-cli"
}

// Collect reads the SMART / Health Information log plus controller identity
// and self-test log. Only the health log is mandatory; the other pages
// degrade into unreadable fields downstream.
func (n *NvmeCLIAdapter) Collect(ctx context.Context, device types.DiscoveredDevice) (*types.RawAttributeBag, error) {
	output, err := utils.RunCommand(ctx, "nvme", "smart-log", device.Path, "-o", "json")
	if err != nil {
		reason := "nvme smart-log failed"
		if code := utils.ExitCode(err); code > 0 {
			reason = fmt.Sprintf("nvme smart-log failed with status %d", code)
		}
		return nil, &AdapterError{Device: device.Path, Reason: reason, Err: err}
	}

	bag, err := n.parseSmartLog(device, output)
	if err != nil {
		return nil, err
	}

	if idOut, err := utils.RunCommand(ctx, "nvme", "id-ctrl", device.Path, "-o", "json"); err == nil {
		n.parseIDCtrl(bag, idOut)
	} else {
		log.WithError(err).WithField("device", device.Path).Debug("nvme id-ctrl failed")
	}

	// When the self-test page cannot be read its key stays absent, so the
	// history counts as unreadable rather than empty.
	if stOut, err := utils.RunCommand(ctx, "nvme", "self-test-log", device.Path, "-o", "json"); err == nil {
		n.parseSelfTestLog(bag, stOut)
	} else {
		log.WithError(err).WithField("device", device.Path).Debug("nvme self-test-log failed")
	}

	return bag, nil
}

// parseSmartLog turns one nvme smart-log output into a raw attribute bag.
func (n *NvmeCLIAdapter) parseSmartLog(device types.DiscoveredDevice, output []byte) (*types.RawAttributeBag, error) {
	if !gjson.ValidBytes(output) {
		return nil, &AdapterError{Device: device.Path, Reason: "nvme smart-log output is not valid JSON"}
	}

	bag := types.NewRawAttributeBag(device.Path, types.ProtocolNVMe)

	const src = "nvme-cli:smart-log"
	parsed := gjson.ParseBytes(output)
	put := func(key, path string) {
		if v := parsed.Get(path); v.Exists() {
			bag.PutNumber(key, v.Int(), src)
		}
	}

	// nvme-cli reports the composite temperature in kelvin
	put("temperature_kelvin", "temperature")
	put("nvme_critical_warning", "critical_warning")
	put("nvme_available_spare", "avail_spare")
	put("nvme_percentage_used", "percent_used")
	put("nvme_data_units_read", "data_units_read")
	put("nvme_data_units_written", "data_units_written")
	put("nvme_media_errors", "media_errors")
	put("power_on_hours", "power_on_hours")
	put("power_cycle_count", "power_cycles")
	put("nvme_warning_temp_time", "warning_temp_time")
	put("nvme_critical_comp_time", "critical_comp_time")

	return bag, nil
}

// parseIDCtrl extracts controller identity from nvme id-ctrl output. The
// string fields come back space-padded.
func (n *NvmeCLIAdapter) parseIDCtrl(bag *types.RawAttributeBag, output []byte) {
	const src = "nvme-cli:id-ctrl"

	ctrl := gjson.ParseBytes(output)
	if v := strings.TrimSpace(ctrl.Get("sn").String()); v != "" {
		bag.PutText("serial_number", v, src)
	}
	if v := strings.TrimSpace(ctrl.Get("mn").String()); v != "" {
		bag.PutText("model_name", v, src)
	}
	if v := strings.TrimSpace(ctrl.Get("fr").String()); v != "" {
		bag.PutText("firmware_version", v, src)
	}
	if v := ctrl.Get("tnvmcap"); v.Exists() && v.Int() > 0 {
		bag.PutNumber("capacity_bytes", v.Int(), src)
	}
}

// parseSelfTestLog extracts the device self-test log entries.
func (n *NvmeCLIAdapter) parseSelfTestLog(bag *types.RawAttributeBag, output []byte) {
	const src = "nvme-cli:self-test-log"

	entries := []types.RawLogEntry{}
	for _, row := range gjson.GetBytes(output, "List of Valid Reports").Array() {
		result := row.Get("Self test result").Int()
		if result == 0xf { // unused log slot
			continue
		}
		entries = append(entries, types.RawLogEntry{
			Hours:  row.Get("Power on hours").Int(),
			Status: selfTestResultString(result),
		})
	}

	bag.PutEntries("self_test_log", entries, src)
}

// selfTestResultString decodes the numeric self-test result field of the
// NVMe device self-test log.
func selfTestResultString(result int64) string {
	switch result {
	case 0:
		return "Completed without error"
	case 1, 2, 3, 4, 8:
		return "Aborted"
	case 5, 6, 7:
		return "Failed"
	default:
		return "Unknown"
	}
}
