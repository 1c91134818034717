package adapter

import (
	"context"
	"errors"
	"testing"

	"drive-health-grader/pkg/types"
)

const sataFixture = `{
  "smartctl": {"version": [7, 3], "exit_status": 0},
  "device": {"name": "/dev/sda", "info_name": "/dev/sda [SAT]", "type": "sat", "protocol": "ATA"},
  "model_family": "Seagate Constellation ES.3",
  "model_name": "ST4000NM0033-9ZM170",
  "serial_number": "Z1Z0ABCD",
  "firmware_version": "SN04",
  "user_capacity": {"blocks": 7814037168, "bytes": 4000787030016},
  "logical_block_size": 512,
  "rotation_rate": 7200,
  "smart_status": {"passed": true},
  "power_on_time": {"hours": 17520},
  "power_cycle_count": 42,
  "temperature": {"current": 31, "lifetime_min": 18, "lifetime_max": 45},
  "ata_smart_attributes": {
    "table": [
      {"id": 5, "name": "Reallocated_Sector_Ct", "value": 100, "worst": 100, "thresh": 10, "when_failed": "", "raw": {"value": 4, "string": "4"}},
      {"id": 9, "name": "Power_On_Hours", "value": 80, "worst": 80, "thresh": 0, "when_failed": "", "raw": {"value": 17520, "string": "17520"}},
      {"id": 197, "name": "Current_Pending_Sector", "value": 100, "worst": 100, "thresh": 0, "when_failed": "", "raw": {"value": 2, "string": "2"}},
      {"id": 241, "name": "Total_LBAs_Written", "value": 100, "worst": 100, "thresh": 0, "when_failed": "", "raw": {"value": 585937500, "string": "585937500"}},
      {"id": 242, "name": "Total_LBAs_Read", "value": 100, "worst": 100, "thresh": 0, "when_failed": "", "raw": {"value": 785937500, "string": "785937500"}}
    ]
  },
  "ata_smart_self_test_log": {
    "standard": {
      "revision": 1,
      "table": [
        {"type": {"value": 2, "string": "Extended offline"}, "status": {"value": 0, "string": "Completed without error", "passed": true}, "lifetime_hours": 17000},
        {"type": {"value": 1, "string": "Short offline"}, "status": {"value": 116, "string": "Completed: read failure", "passed": false}, "lifetime_hours": 9000}
      ],
      "count": 2
    }
  },
  "ata_device_statistics": {
    "pages": [
      {"number": 5, "name": "Temperature Statistics", "table": [
        {"offset": 8, "name": "Current Temperature", "value": 31},
        {"offset": 16, "name": "Average Short Term Temperature", "value": 33},
        {"offset": 24, "name": "Average Long Term Temperature", "value": 32},
        {"offset": 40, "name": "Highest Temperature", "value": 45}
      ]}
    ]
  }
}`

const nvmeFixture = `{
  "smartctl": {"version": [7, 3], "exit_status": 0},
  "device": {"name": "/dev/nvme0", "info_name": "/dev/nvme0", "type": "nvme", "protocol": "NVMe"},
  "model_name": "Samsung SSD 980 PRO 1TB",
  "serial_number": "S5GXNX0T123456",
  "firmware_version": "5B2QGXA7",
  "user_capacity": {"blocks": 1953525168, "bytes": 1000204886016},
  "logical_block_size": 512,
  "smart_status": {"passed": true},
  "power_on_time": {"hours": 3000},
  "power_cycle_count": 120,
  "temperature": {"current": 38},
  "nvme_smart_health_information_log": {
    "critical_warning": 0,
    "temperature": 38,
    "available_spare": 100,
    "available_spare_threshold": 10,
    "percentage_used": 3,
    "data_units_read": 40000000,
    "data_units_written": 35000000,
    "host_read_commands": 500000000,
    "host_write_commands": 400000000,
    "controller_busy_time": 1000,
    "power_cycles": 120,
    "power_on_hours": 3000,
    "unsafe_shutdowns": 5,
    "media_errors": 0,
    "num_err_log_entries": 10,
    "warning_temp_time": 0,
    "critical_comp_time": 0
  },
  "nvme_self_test_log": {
    "table": [
      {"self_test_code": {"value": 1, "string": "Short"}, "self_test_result": {"value": 0, "string": "Completed without error"}, "power_on_hours": 2500}
    ]
  }
}`

const sasFixture = `{
  "smartctl": {"version": [7, 3], "exit_status": 0},
  "device": {"name": "/dev/sdb", "info_name": "/dev/sdb", "type": "scsi", "protocol": "SCSI"},
  "vendor": "HGST",
  "product": "HUH721212AL5200",
  "revision": "A925",
  "serial_number": "8HJ123AB",
  "user_capacity": {"blocks": 23437770752, "bytes": 12000138625024},
  "logical_block_size": 512,
  "rotation_rate": 7200,
  "smart_status": {"passed": true},
  "power_on_time": {"hours": 30000},
  "temperature": {"current": 34},
  "scsi_grown_defect_list": 7,
  "scsi_start_stop_cycle_counter": {"specified_cycle_count_over_device_lifetime": 50000, "accumulated_start_stop_cycles": 88},
  "scsi_error_counter_log": {
    "read": {"total_uncorrected_errors": 0, "gigabytes_processed": "310571.305"},
    "write": {"total_uncorrected_errors": 1, "gigabytes_processed": "215884.209"}
  },
  "scsi_self_test_0": {"code": {"value": 1, "string": "Background short"}, "result": {"value": 0, "string": "Completed"}, "power_on_time": {"hours": 29000}},
  "scsi_self_test_1": {"code": {"value": 2, "string": "Background long"}, "result": {"value": 3, "string": "Failed in segment"}, "power_on_time": {"hours": 15000}}
}`

func mustNumber(t *testing.T, bag *types.RawAttributeBag, key string) int64 {
	t.Helper()
	v, ok := bag.Number(key)
	if !ok {
		t.Fatalf("Expected numeric key %q in bag", key)
	}
	return v
}

func mustText(t *testing.T, bag *types.RawAttributeBag, key string) string {
	t.Helper()
	v, ok := bag.Text(key)
	if !ok {
		t.Fatalf("Expected text key %q in bag", key)
	}
	return v
}

func TestSmartctlParseSATA(t *testing.T) {
	adapter := NewSmartctlAdapter()
	bag, err := adapter.parse(types.DiscoveredDevice{Path: "/dev/sda"}, []byte(sataFixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if bag.Protocol != types.ProtocolSATA {
		t.Errorf("Expected protocol SATA, got %s", bag.Protocol)
	}
	if got := mustText(t, bag, "serial_number"); got != "Z1Z0ABCD" {
		t.Errorf("Expected serial Z1Z0ABCD, got %s", got)
	}
	if got := mustNumber(t, bag, "capacity_bytes"); got != 4000787030016 {
		t.Errorf("Expected capacity 4000787030016, got %d", got)
	}
	if got := mustNumber(t, bag, "rotation_rate"); got != 7200 {
		t.Errorf("Expected rotation rate 7200, got %d", got)
	}
	if got := mustNumber(t, bag, "ata_attr_5"); got != 4 {
		t.Errorf("Expected 4 reallocated sectors, got %d", got)
	}
	if got := mustNumber(t, bag, "ata_attr_197"); got != 2 {
		t.Errorf("Expected 2 pending sectors, got %d", got)
	}
	if got := mustNumber(t, bag, "power_on_hours"); got != 17520 {
		t.Errorf("Expected 17520 power-on hours, got %d", got)
	}
	if got := mustNumber(t, bag, "ata_stat_avg_long_term_temp"); got != 32 {
		t.Errorf("Expected average temperature 32, got %d", got)
	}
	if got := mustNumber(t, bag, "ata_stat_highest_temp"); got != 45 {
		t.Errorf("Expected highest temperature 45, got %d", got)
	}

	entries, ok := bag.Entries("self_test_log")
	if !ok {
		t.Fatal("Expected self_test_log entries in bag")
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 self-test entries, got %d", len(entries))
	}
	if entries[1].Status != "Completed: read failure" || entries[1].Hours != 9000 {
		t.Errorf("Unexpected second self-test entry: %+v", entries[1])
	}
}

func TestSmartctlParseNVMe(t *testing.T) {
	adapter := NewSmartctlAdapter()
	bag, err := adapter.parse(types.DiscoveredDevice{Path: "/dev/nvme0"}, []byte(nvmeFixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if bag.Protocol != types.ProtocolNVMe {
		t.Errorf("Expected protocol NVMe, got %s", bag.Protocol)
	}

	// zero readings are still applied values, the keys must exist
	if got := mustNumber(t, bag, "nvme_media_errors"); got != 0 {
		t.Errorf("Expected 0 media errors, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_warning_temp_time"); got != 0 {
		t.Errorf("Expected 0 warning temp minutes, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_available_spare"); got != 100 {
		t.Errorf("Expected 100 available spare, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_percentage_used"); got != 3 {
		t.Errorf("Expected 3 percent used, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_data_units_read"); got != 40000000 {
		t.Errorf("Expected 40000000 data units read, got %d", got)
	}
	if bag.Has("rotation_rate") {
		t.Error("NVMe bag should not carry rotation_rate")
	}

	entries, ok := bag.Entries("self_test_log")
	if !ok || len(entries) != 1 {
		t.Fatalf("Expected 1 self-test entry, got %v (%v)", entries, ok)
	}
	if entries[0].Status != "Completed without error" {
		t.Errorf("Unexpected self-test status: %s", entries[0].Status)
	}
}

func TestSmartctlParseSAS(t *testing.T) {
	adapter := NewSmartctlAdapter()
	bag, err := adapter.parse(types.DiscoveredDevice{Path: "/dev/sdb"}, []byte(sasFixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if bag.Protocol != types.ProtocolSAS {
		t.Errorf("Expected protocol SAS, got %s", bag.Protocol)
	}
	if got := mustText(t, bag, "vendor"); got != "HGST" {
		t.Errorf("Expected vendor HGST, got %s", got)
	}
	if got := mustNumber(t, bag, "scsi_grown_defect_list"); got != 7 {
		t.Errorf("Expected 7 grown defects, got %d", got)
	}
	if got := mustNumber(t, bag, "scsi_gigabytes_read"); got != 310571 {
		t.Errorf("Expected 310571 GB read, got %d", got)
	}
	if got := mustNumber(t, bag, "scsi_gigabytes_written"); got != 215884 {
		t.Errorf("Expected 215884 GB written, got %d", got)
	}
	if got := mustNumber(t, bag, "scsi_write_uncorrected"); got != 1 {
		t.Errorf("Expected 1 uncorrected write error, got %d", got)
	}
	if got := mustNumber(t, bag, "power_cycle_count"); got != 88 {
		t.Errorf("Expected 88 start-stop cycles, got %d", got)
	}

	entries, ok := bag.Entries("self_test_log")
	if !ok || len(entries) != 2 {
		t.Fatalf("Expected 2 self-test entries, got %v (%v)", entries, ok)
	}
	if entries[1].Status != "Failed in segment" || entries[1].Hours != 15000 {
		t.Errorf("Unexpected second self-test entry: %+v", entries[1])
	}
}

func TestSmartctlParseEmptySelfTestLog(t *testing.T) {
	fixture := `{
	  "smartctl": {"version": [7, 3], "exit_status": 0},
	  "device": {"name": "/dev/sda", "type": "sat", "protocol": "ATA"},
	  "serial_number": "NOTESTS",
	  "user_capacity": {"bytes": 1000000000}
	}`

	adapter := NewSmartctlAdapter()
	bag, err := adapter.parse(types.DiscoveredDevice{Path: "/dev/sda"}, []byte(fixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	entries, ok := bag.Entries("self_test_log")
	if !ok {
		t.Fatal("A successful collection must always carry the self_test_log key")
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty self-test history, got %d entries", len(entries))
	}
}

func TestSmartctlExitStatus(t *testing.T) {
	tests := []struct {
		name   string
		code   int64
		usable bool
	}{
		{"clean run", 0, true},
		{"command line did not parse", 1, false},
		{"device open failed", 2, false},
		{"command to device failed", 4, false},
		{"disk failing bit", 8, true},
		{"prefail and error log bits", 192, true},
		{"open failed with device bits", 2 | 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitStatusUsable(tt.code)
			if tt.usable && err != nil {
				t.Errorf("Expected exit status %d to be usable, got %v", tt.code, err)
			}
			if !tt.usable && err == nil {
				t.Errorf("Expected exit status %d to be fatal", tt.code)
			}
		})
	}
}

func TestSmartctlParseBadJSON(t *testing.T) {
	adapter := NewSmartctlAdapter()
	_, err := adapter.parse(types.DiscoveredDevice{Path: "/dev/sda"}, []byte("not json"))

	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError, got %T: %v", err, err)
	}
	if adapterErr.Device != "/dev/sda" {
		t.Errorf("Expected device /dev/sda in error, got %s", adapterErr.Device)
	}
}

func TestSmartctlParseFatalExitStatus(t *testing.T) {
	fixture := `{
	  "smartctl": {"version": [7, 3], "exit_status": 2},
	  "device": {"name": "/dev/sdc", "type": "sat", "protocol": "ATA"}
	}`

	adapter := NewSmartctlAdapter()
	_, err := adapter.parse(types.DiscoveredDevice{Path: "/dev/sdc"}, []byte(fixture))

	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError, got %T: %v", err, err)
	}
}

func TestNvmeCLIParseSmartLog(t *testing.T) {
	fixture := `{
	  "critical_warning": 0,
	  "temperature": 312,
	  "avail_spare": 99,
	  "spare_thresh": 10,
	  "percent_used": 15,
	  "data_units_read": 120000000,
	  "data_units_written": 90000000,
	  "power_cycles": 55,
	  "power_on_hours": 8000,
	  "unsafe_shutdowns": 3,
	  "media_errors": 12,
	  "num_err_log_entries": 44,
	  "warning_temp_time": 75,
	  "critical_comp_time": 2
	}`

	adapter := NewNvmeCLIAdapter()
	bag, err := adapter.parseSmartLog(types.DiscoveredDevice{Path: "/dev/nvme1"}, []byte(fixture))
	if err != nil {
		t.Fatalf("parseSmartLog failed: %v", err)
	}

	if got := mustNumber(t, bag, "temperature_kelvin"); got != 312 {
		t.Errorf("Expected 312 kelvin, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_available_spare"); got != 99 {
		t.Errorf("Expected 99 available spare, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_percentage_used"); got != 15 {
		t.Errorf("Expected 15 percent used, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_media_errors"); got != 12 {
		t.Errorf("Expected 12 media errors, got %d", got)
	}
	if got := mustNumber(t, bag, "nvme_warning_temp_time"); got != 75 {
		t.Errorf("Expected 75 warning temp minutes, got %d", got)
	}
	if bag.Has("self_test_log") {
		t.Error("smart-log alone must not claim a self-test history")
	}
}

func TestNvmeCLIParseSmartLogBadJSON(t *testing.T) {
	adapter := NewNvmeCLIAdapter()
	_, err := adapter.parseSmartLog(types.DiscoveredDevice{Path: "/dev/nvme1"}, []byte("NVMe error: oops"))

	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError, got %T: %v", err, err)
	}
}

func TestNvmeCLIParseIDCtrl(t *testing.T) {
	fixture := `{
	  "vid": 5197,
	  "sn": "S5GXNX0T999999      ",
	  "mn": "Samsung SSD 970 EVO 500GB               ",
	  "fr": "2B2QEXE7",
	  "tnvmcap": 500107862016
	}`

	adapter := NewNvmeCLIAdapter()
	bag := types.NewRawAttributeBag("/dev/nvme1", types.ProtocolNVMe)
	adapter.parseIDCtrl(bag, []byte(fixture))

	if got := mustText(t, bag, "serial_number"); got != "S5GXNX0T999999" {
		t.Errorf("Expected padded serial to be trimmed, got %q", got)
	}
	if got := mustText(t, bag, "model_name"); got != "Samsung SSD 970 EVO 500GB" {
		t.Errorf("Expected padded model to be trimmed, got %q", got)
	}
	if got := mustNumber(t, bag, "capacity_bytes"); got != 500107862016 {
		t.Errorf("Expected capacity 500107862016, got %d", got)
	}
}

func TestNvmeCLIParseSelfTestLog(t *testing.T) {
	fixture := `{
	  "Current Device Self-Test Operation": 0,
	  "Current Device Self-Test Completion": 0,
	  "List of Valid Reports": [
	    {"Self test result": 0, "Self test code": 2, "Power on hours": 7000},
	    {"Self test result": 7, "Self test code": 1, "Power on hours": 5000},
	    {"Self test result": 15, "Self test code": 0, "Power on hours": 0}
	  ]
	}`

	adapter := NewNvmeCLIAdapter()
	bag := types.NewRawAttributeBag("/dev/nvme1", types.ProtocolNVMe)
	adapter.parseSelfTestLog(bag, []byte(fixture))

	entries, ok := bag.Entries("self_test_log")
	if !ok {
		t.Fatal("Expected self_test_log entries in bag")
	}
	if len(entries) != 2 {
		t.Fatalf("Expected unused slots to be skipped, got %d entries", len(entries))
	}
	if entries[0].Status != "Completed without error" || entries[0].Hours != 7000 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Status != "Failed" {
		t.Errorf("Expected result 7 to decode as Failed, got %s", entries[1].Status)
	}
}

func TestSelfTestResultString(t *testing.T) {
	tests := []struct {
		result   int64
		expected string
	}{
		{0, "Completed without error"},
		{1, "Aborted"},
		{4, "Aborted"},
		{5, "Failed"},
		{7, "Failed"},
		{8, "Aborted"},
		{9, "Unknown"},
	}

	for _, tt := range tests {
		if got := selfTestResultString(tt.result); got != tt.expected {
			t.Errorf("selfTestResultString(%d) = %s, expected %s", tt.result, got, tt.expected)
		}
	}
}

type stubAdapter struct {
	name  string
	bag   *types.RawAttributeBag
	err   error
	calls int
}

func (s *stubAdapter) Name() string {
	return s.name
}

func (s *stubAdapter) Collect(ctx context.Context, device types.DiscoveredDevice) (*types.RawAttributeBag, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bag, nil
}

func TestFallbackAdapter(t *testing.T) {
	nvmeDev := types.DiscoveredDevice{Path: "/dev/nvme0", Protocol: types.ProtocolNVMe}
	sataDev := types.DiscoveredDevice{Path: "/dev/sda", Protocol: types.ProtocolSATA}
	goodBag := types.NewRawAttributeBag("/dev/nvme0", types.ProtocolNVMe)
	readErr := &AdapterError{Device: "/dev/nvme0", Reason: "device open failed"}

	t.Run("primary success skips fallback", func(t *testing.T) {
		secondary := &stubAdapter{name: "nvme-cli"}
		fa := NewFallbackAdapter(&stubAdapter{name: "smartctl", bag: goodBag}, secondary)

		bag, err := fa.Collect(context.Background(), nvmeDev)
		if err != nil || bag != goodBag {
			t.Fatalf("Expected primary bag, got %v, %v", bag, err)
		}
		if secondary.calls != 0 {
			t.Errorf("Fallback should not run, got %d calls", secondary.calls)
		}
	})

	t.Run("nvme failure uses fallback", func(t *testing.T) {
		secondary := &stubAdapter{name: "nvme-cli", bag: goodBag}
		fa := NewFallbackAdapter(&stubAdapter{name: "smartctl", err: readErr}, secondary)

		bag, err := fa.Collect(context.Background(), nvmeDev)
		if err != nil || bag != goodBag {
			t.Fatalf("Expected fallback bag, got %v, %v", bag, err)
		}
		if secondary.calls != 1 {
			t.Errorf("Expected 1 fallback call, got %d", secondary.calls)
		}
	})

	t.Run("non-nvme failure does not fall back", func(t *testing.T) {
		secondary := &stubAdapter{name: "nvme-cli", bag: goodBag}
		fa := NewFallbackAdapter(&stubAdapter{name: "smartctl", err: readErr}, secondary)

		_, err := fa.Collect(context.Background(), sataDev)
		if err == nil {
			t.Fatal("Expected the primary error to propagate")
		}
		if secondary.calls != 0 {
			t.Errorf("Fallback should not run for SATA, got %d calls", secondary.calls)
		}
	})

	t.Run("both failing keeps primary error", func(t *testing.T) {
		fallbackErr := &AdapterError{Device: "/dev/nvme0", Reason: "nvme smart-log failed"}
		fa := NewFallbackAdapter(
			&stubAdapter{name: "smartctl", err: readErr},
			&stubAdapter{name: "nvme-cli", err: fallbackErr},
		)

		_, err := fa.Collect(context.Background(), nvmeDev)
		var adapterErr *AdapterError
		if !errors.As(err, &adapterErr) || adapterErr.Reason != "device open failed" {
			t.Fatalf("Expected the primary error, got %v", err)
		}
	})
}

func TestAdapterError(t *testing.T) {
	inner := errors.New("exit status 2")
	err := &AdapterError{Device: "/dev/sda", Reason: "smartctl could not read the device", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Expected AdapterError to unwrap to the inner error")
	}
	expected := "adapter: /dev/sda: smartctl could not read the device: exit status 2"
	if err.Error() != expected {
		t.Errorf("Unexpected error string: %s", err.Error())
	}

	bare := &AdapterError{Device: "/dev/sdb", Reason: "no output"}
	if bare.Error() != "adapter: /dev/sdb: no output" {
		t.Errorf("Unexpected bare error string: %s", bare.Error())
	}
}
