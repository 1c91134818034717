package types

// AtaSelfTestEntry represents one row of the ATA self-test log
type AtaSelfTestEntry struct {
	Type struct {
		Value  int    `json:"value"`
		String string `json:"string"`
	} `json:"type"`
	Status struct {
		Value  int    `json:"value"`
		String string `json:"string"`
		Passed bool   `json:"passed"`
	} `json:"status"`
	LifetimeHours int64 `json:"lifetime_hours"`
}

// AtaSelfTestLog represents one ATA self-test log page (standard or extended)
type AtaSelfTestLog struct {
	Revision int                `json:"revision"`
	Table    []AtaSelfTestEntry `json:"table"`
	Count    int                `json:"count"`
}

// NvmeSelfTestEntry represents one row of the NVMe device self-test log
type NvmeSelfTestEntry struct {
	SelfTestCode struct {
		Value  int    `json:"value"`
		String string `json:"string"`
	} `json:"self_test_code"`
	SelfTestResult struct {
		Value  int    `json:"value"`
		String string `json:"string"`
	} `json:"self_test_result"`
	PowerOnHours int64 `json:"power_on_hours"`
}

// DeviceTemperature represents the smartctl temperature summary section
type DeviceTemperature struct {
	Current     int `json:"current"`
	LifetimeMin int `json:"lifetime_min"`
	LifetimeMax int `json:"lifetime_max"`
}

// PowerOnTime represents the smartctl power-on time section
type PowerOnTime struct {
	Hours int64 `json:"hours"`
}

// NvmeHealthLog represents the NVMe SMART / Health Information log page
type NvmeHealthLog struct {
	CriticalWarning         int   `json:"critical_warning"`
	Temperature             int   `json:"temperature"`
	AvailableSpare          int   `json:"available_spare"`
	AvailableSpareThreshold int   `json:"available_spare_threshold"`
	PercentageUsed          int   `json:"percentage_used"`
	DataUnitsRead           int64 `json:"data_units_read"`
	DataUnitsWritten        int64 `json:"data_units_written"`
	HostReadCommands        int64 `json:"host_read_commands"`
	HostWriteCommands       int64 `json:"host_write_commands"`
	ControllerBusyTime      int64 `json:"controller_busy_time"`
	PowerCycles             int64 `json:"power_cycles"`
	PowerOnHours            int64 `json:"power_on_hours"`
	UnsafeShutdowns         int64 `json:"unsafe_shutdowns"`
	MediaErrors             int64 `json:"media_errors"`
	NumErrLogEntries        int64 `json:"num_err_log_entries"`
	WarningTempTime         int64 `json:"warning_temp_time"`
	CriticalCompTime        int64 `json:"critical_comp_time"`
}

// SmartCtlOutput represents the smartctl -j JSON output structure, reduced to
// the sections the grading pipeline consumes. Dynamic sections (ATA device
// statistics, SCSI log pages) are extracted separately from the raw JSON.
// Sections whose zero values are meaningful are pointers so an absent section
// is distinguishable from a zero reading.
type SmartCtlOutput struct {
	Smartctl struct {
		Version    []int `json:"version"`
		ExitStatus int   `json:"exit_status"`
	} `json:"smartctl"`
	Device struct {
		Name     string `json:"name"`
		InfoName string `json:"info_name"`
		Type     string `json:"type"`
		Protocol string `json:"protocol"`
	} `json:"device"`
	SerialNumber    string `json:"serial_number"`
	ModelName       string `json:"model_name"`
	ModelFamily     string `json:"model_family"`
	Vendor          string `json:"vendor"`
	Product         string `json:"product"`
	Revision        string `json:"revision"`
	FirmwareVersion string `json:"firmware_version"`
	UserCapacity    struct {
		Blocks int64 `json:"blocks"`
		Bytes  int64 `json:"bytes"`
	} `json:"user_capacity"`
	NvmeTotalCapacity int64 `json:"nvme_total_capacity"`
	LogicalBlockSize  int   `json:"logical_block_size"`
	RotationRate      *int  `json:"rotation_rate"`
	SmartStatus       struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`
	SmartSupport struct {
		Available bool `json:"available"`
		Enabled   bool `json:"enabled"`
	} `json:"smart_support"`
	Temperature     *DeviceTemperature `json:"temperature"`
	PowerOnTime     *PowerOnTime       `json:"power_on_time"`
	PowerCycleCount int64              `json:"power_cycle_count"`
	AtaSmartAttributes struct {
		Table []struct {
			ID         int    `json:"id"`
			Name       string `json:"name"`
			Value      int    `json:"value"`
			Worst      int    `json:"worst"`
			Thresh     int    `json:"thresh"`
			WhenFailed string `json:"when_failed"`
			Raw        struct {
				Value  int64  `json:"value"`
				String string `json:"string"`
			} `json:"raw"`
		} `json:"table"`
	} `json:"ata_smart_attributes"`
	AtaSmartSelfTestLog struct {
		Standard AtaSelfTestLog `json:"standard"`
		Extended AtaSelfTestLog `json:"extended"`
	} `json:"ata_smart_self_test_log"`
	NvmeSmartHealthInformationLog *NvmeHealthLog `json:"nvme_smart_health_information_log"`
	NvmeSelfTestLog struct {
		Table []NvmeSelfTestEntry `json:"table"`
	} `json:"nvme_self_test_log"`
}

// ParseProtocol maps a smartctl protocol string to a wire protocol
func ParseProtocol(s string) Protocol {
	switch s {
	case "ATA":
		return ProtocolSATA
	case "SCSI":
		return ProtocolSAS
	case "NVMe":
		return ProtocolNVMe
	default:
		return ProtocolUnknown
	}
}

// RecordProtocol maps the smartctl device protocol string to a wire protocol
func (o *SmartCtlOutput) RecordProtocol() Protocol {
	return ParseProtocol(o.Device.Protocol)
}
