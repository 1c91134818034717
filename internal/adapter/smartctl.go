package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"drive-health-grader/internal/utils"
	"drive-health-grader/pkg/types"
)

// SmartctlAdapter collects device attributes with smartctl.
type SmartctlAdapter struct{}

// NewSmartctlAdapter creates a new SmartctlAdapter instance
func NewSmartctlAdapter() *SmartctlAdapter {
	return &SmartctlAdapter{}
}

// Name returns the tool name
func (s *SmartctlAdapter) Name() string {
	return "smartctl"
}

// Collect runs smartctl -x against the device and extracts every attribute
// the pipeline knows how to normalize.
func (s *SmartctlAdapter) Collect(ctx context.Context, device types.DiscoveredDevice) (*types.RawAttributeBag, error) {
	args := []string{"-x", "-j"}
	if device.TypeHint != "" && device.TypeHint != "auto" {
		args = append(args, "-d", device.TypeHint)
	}
	args = append(args, device.Path)

	output, err := utils.RunCommand(ctx, "smartctl", args...)
	if len(output) == 0 {
		if err == nil {
			err = fmt.Errorf("empty output")
		}
		return nil, &AdapterError{Device: device.Path, Reason: "smartctl produced no output", Err: err}
	}

	return s.parse(device, output)
}

// parse turns one smartctl -x -j output into a raw attribute bag.
func (s *SmartctlAdapter) parse(device types.DiscoveredDevice, output []byte) (*types.RawAttributeBag, error) {
	var data types.SmartCtlOutput
	if err := json.Unmarshal(output, &data); err != nil {
		return nil, &AdapterError{Device: device.Path, Reason: "smartctl output is not valid JSON", Err: err}
	}

	// The process exit code mirrors the JSON exit_status; the JSON copy is
	// authoritative because high bits describe device condition, not tool
	// failure, and smartctl still emits usable output alongside them.
	if err := exitStatusUsable(int64(data.Smartctl.ExitStatus)); err != nil {
		return nil, &AdapterError{Device: device.Path, Reason: "smartctl could not read the device", Err: err}
	}

	bag := types.NewRawAttributeBag(device.Path, data.RecordProtocol())
	s.fillIdentity(bag, &data)
	s.fillCommon(bag, &data)

	switch bag.Protocol {
	case types.ProtocolNVMe:
		s.fillNVMe(bag, &data)
	case types.ProtocolSAS:
		s.fillSCSI(bag, output)
	default:
		s.fillATA(bag, &data)
		s.fillATAStatistics(bag, output)
	}

	s.fillSelfTests(bag, &data, output)
	return bag, nil
}

// exitStatusUsable interprets the smartctl exit bitmask. The low three bits
// mean the tool never got a full answer from the device; higher bits report
// the device's own condition and leave the output usable.
func exitStatusUsable(code int64) error {
	if code&1 != 0 {
		return fmt.Errorf("command line did not parse")
	}
	if code&(1<<1) != 0 {
		return fmt.Errorf("device open failed")
	}
	if code&(1<<2) != 0 {
		return fmt.Errorf("a SMART or ATA command to the device failed")
	}
	return nil
}

// fillIdentity extracts vendor, model, serial, firmware and capacity
func (s *SmartctlAdapter) fillIdentity(bag *types.RawAttributeBag, data *types.SmartCtlOutput) {
	const src = "smartctl:identity"

	if data.SerialNumber != "" {
		bag.PutText("serial_number", data.SerialNumber, src)
	}
	if data.ModelName != "" {
		bag.PutText("model_name", data.ModelName, src)
	}
	if data.ModelFamily != "" {
		bag.PutText("model_family", data.ModelFamily, src)
	}
	if data.Vendor != "" {
		bag.PutText("vendor", data.Vendor, src)
	}
	if data.Product != "" {
		bag.PutText("product", data.Product, src)
	}
	if data.FirmwareVersion != "" {
		bag.PutText("firmware_version", data.FirmwareVersion, src)
	}
	if data.Revision != "" {
		bag.PutText("revision", data.Revision, src)
	}
	if data.UserCapacity.Bytes > 0 {
		bag.PutNumber("capacity_bytes", data.UserCapacity.Bytes, src)
	} else if data.NvmeTotalCapacity > 0 {
		bag.PutNumber("capacity_bytes", data.NvmeTotalCapacity, src)
	}
	if data.LogicalBlockSize > 0 {
		bag.PutNumber("logical_block_size", int64(data.LogicalBlockSize), src)
	}
	if data.RotationRate != nil {
		bag.PutNumber("rotation_rate", int64(*data.RotationRate), src)
	}
}

// fillCommon extracts the protocol-independent summary sections
func (s *SmartctlAdapter) fillCommon(bag *types.RawAttributeBag, data *types.SmartCtlOutput) {
	const src = "smartctl:summary"

	if data.Temperature != nil && data.Temperature.Current > 0 {
		bag.PutNumber("temperature_current", int64(data.Temperature.Current), src)
	}
	if data.Temperature != nil && data.Temperature.LifetimeMax > 0 {
		bag.PutNumber("temperature_lifetime_max", int64(data.Temperature.LifetimeMax), src)
	}
	if data.PowerOnTime != nil {
		bag.PutNumber("power_on_hours", data.PowerOnTime.Hours, src)
	}
	if data.PowerCycleCount > 0 {
		bag.PutNumber("power_cycle_count", data.PowerCycleCount, src)
	}
}

// fillATA extracts the SMART attributes the canonical record consumes
func (s *SmartctlAdapter) fillATA(bag *types.RawAttributeBag, data *types.SmartCtlOutput) {
	const src = "smartctl:ata_smart_attributes"

	for _, attr := range data.AtaSmartAttributes.Table {
		switch attr.ID {
		case 5: // Reallocated Sector Count
			bag.PutNumber("ata_attr_5", attr.Raw.Value, src)
		case 9: // Power-On Hours
			bag.PutNumber("ata_attr_9", attr.Raw.Value, src)
		case 12: // Power Cycle Count
			bag.PutNumber("ata_attr_12", attr.Raw.Value, src)
		case 197: // Current Pending Sector Count
			bag.PutNumber("ata_attr_197", attr.Raw.Value, src)
		case 231, 233: // SSD Life Left / Media Wearout Indicator, normalized value
			bag.PutNumber("ata_attr_"+strconv.Itoa(attr.ID)+"_norm", int64(attr.Value), src)
		case 241: // Total LBAs Written
			bag.PutNumber("ata_attr_241", attr.Raw.Value, src)
		case 242: // Total LBAs Read
			bag.PutNumber("ata_attr_242", attr.Raw.Value, src)
		}
	}
}

// fillATAStatistics reads the temperature page of the device statistics log,
// which smartctl only exposes as free-form name/value rows.
func (s *SmartctlAdapter) fillATAStatistics(bag *types.RawAttributeBag, raw []byte) {
	const src = "smartctl:ata_device_statistics"

	pages := gjson.GetBytes(raw, "ata_device_statistics.pages")
	if !pages.Exists() {
		return
	}
	for _, page := range pages.Array() {
		if page.Get("name").String() != "Temperature Statistics" {
			continue
		}
		for _, row := range page.Get("table").Array() {
			value := row.Get("value").Int()
			switch row.Get("name").String() {
			case "Average Long Term Temperature":
				bag.PutNumber("ata_stat_avg_long_term_temp", value, src)
			case "Highest Temperature":
				bag.PutNumber("ata_stat_highest_temp", value, src)
			case "Current Temperature":
				if !bag.Has("temperature_current") {
					bag.PutNumber("temperature_current", value, src)
				}
			}
		}
	}
}

// fillNVMe extracts the SMART / Health Information log page
func (s *SmartctlAdapter) fillNVMe(bag *types.RawAttributeBag, data *types.SmartCtlOutput) {
	nvme := data.NvmeSmartHealthInformationLog
	if nvme == nil {
		return
	}
	const src = "smartctl:nvme_smart_health_information_log"

	bag.PutNumber("nvme_critical_warning", int64(nvme.CriticalWarning), src)
	bag.PutNumber("nvme_percentage_used", int64(nvme.PercentageUsed), src)
	bag.PutNumber("nvme_available_spare", int64(nvme.AvailableSpare), src)
	bag.PutNumber("nvme_media_errors", nvme.MediaErrors, src)
	bag.PutNumber("nvme_data_units_read", nvme.DataUnitsRead, src)
	bag.PutNumber("nvme_data_units_written", nvme.DataUnitsWritten, src)
	bag.PutNumber("nvme_warning_temp_time", nvme.WarningTempTime, src)
	bag.PutNumber("nvme_critical_comp_time", nvme.CriticalCompTime, src)

	if !bag.Has("power_on_hours") {
		bag.PutNumber("power_on_hours", nvme.PowerOnHours, src)
	}
	if nvme.PowerCycles > 0 && !bag.Has("power_cycle_count") {
		bag.PutNumber("power_cycle_count", nvme.PowerCycles, src)
	}
	if nvme.Temperature > 0 && !bag.Has("temperature_current") {
		bag.PutNumber("temperature_current", int64(nvme.Temperature), src)
	}
}

// fillSCSI extracts the SCSI log pages, which smartctl emits as top-level
// keys of varying shape rather than a stable section.
func (s *SmartctlAdapter) fillSCSI(bag *types.RawAttributeBag, raw []byte) {
	const src = "smartctl:scsi_logs"

	if v := gjson.GetBytes(raw, "scsi_grown_defect_list"); v.Exists() {
		bag.PutNumber("scsi_grown_defect_list", v.Int(), src)
	}
	if v := gjson.GetBytes(raw, "scsi_percentage_used_endurance_indicator"); v.Exists() {
		bag.PutNumber("scsi_percentage_used", v.Int(), src)
	}

	// gigabytes_processed values come back as decimal strings
	if v := gjson.GetBytes(raw, "scsi_error_counter_log.read.gigabytes_processed"); v.Exists() {
		if gb, err := strconv.ParseFloat(v.String(), 64); err == nil {
			bag.PutNumber("scsi_gigabytes_read", int64(gb), src)
		}
	}
	if v := gjson.GetBytes(raw, "scsi_error_counter_log.write.gigabytes_processed"); v.Exists() {
		if gb, err := strconv.ParseFloat(v.String(), 64); err == nil {
			bag.PutNumber("scsi_gigabytes_written", int64(gb), src)
		}
	}
	if v := gjson.GetBytes(raw, "scsi_error_counter_log.read.total_uncorrected_errors"); v.Exists() {
		bag.PutNumber("scsi_read_uncorrected", v.Int(), src)
	}
	if v := gjson.GetBytes(raw, "scsi_error_counter_log.write.total_uncorrected_errors"); v.Exists() {
		bag.PutNumber("scsi_write_uncorrected", v.Int(), src)
	}
	if v := gjson.GetBytes(raw, "scsi_start_stop_cycle_counter.accumulated_start_stop_cycles"); v.Exists() {
		if !bag.Has("power_cycle_count") {
			bag.PutNumber("power_cycle_count", v.Int(), src)
		}
	}
}

// fillSelfTests collects the self-test history in whichever shape the
// protocol provides. The key is always written on a successful collection;
// a device that never ran a self-test carries an empty history, which is
// different from a history that could not be read.
func (s *SmartctlAdapter) fillSelfTests(bag *types.RawAttributeBag, data *types.SmartCtlOutput, raw []byte) {
	const src = "smartctl:self_test_log"
	entries := []types.RawLogEntry{}

	switch bag.Protocol {
	case types.ProtocolNVMe:
		for _, row := range data.NvmeSelfTestLog.Table {
			entries = append(entries, types.RawLogEntry{
				Hours:  row.PowerOnHours,
				Status: row.SelfTestResult.String,
			})
		}
	case types.ProtocolSAS:
		// scsi_self_test_0 .. scsi_self_test_19, most recent first
		for i := 0; i < 20; i++ {
			row := gjson.GetBytes(raw, fmt.Sprintf("scsi_self_test_%d", i))
			if !row.Exists() {
				break
			}
			entries = append(entries, types.RawLogEntry{
				Hours:  row.Get("power_on_time.hours").Int(),
				Status: row.Get("result.string").String(),
			})
		}
	default:
		table := data.AtaSmartSelfTestLog.Standard.Table
		if len(table) == 0 {
			table = data.AtaSmartSelfTestLog.Extended.Table
		}
		for _, row := range table {
			entries = append(entries, types.RawLogEntry{
				Hours:  row.LifetimeHours,
				Status: row.Status.String,
			})
		}
	}

	bag.PutEntries("self_test_log", entries, src)
}
