package normalize

import (
	"fmt"

	"drive-health-grader/pkg/types"
)

// candidate is one raw bag key that can supply a canonical field, paired
// with the conversion that takes its raw value to canonical units.
type candidate struct {
	key     string
	convert func(bag *types.RawAttributeBag, v int64) (int64, error)
}

// fieldRule maps one canonical field to its raw candidates. An empty
// protocol or class list means the field applies everywhere. Candidates are
// tried in order; the first key present in the bag wins.
type fieldRule struct {
	field      types.Field
	protocols  []types.Protocol
	classes    []types.DeviceClass
	candidates []candidate
	assign     func(rec *types.HealthRecord, v int64)
}

func (r fieldRule) appliesTo(p types.Protocol, c types.DeviceClass) bool {
	if len(r.protocols) > 0 && !containsProtocol(r.protocols, p) {
		return false
	}
	if len(r.classes) > 0 && !containsClass(r.classes, c) {
		return false
	}
	return true
}

func containsProtocol(list []types.Protocol, p types.Protocol) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}

func containsClass(list []types.DeviceClass, c types.DeviceClass) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// direct keeps the raw value unchanged.
func direct(_ *types.RawAttributeBag, v int64) (int64, error) {
	return v, nil
}

// nvmeDataUnits converts NVMe data units to bytes. One unit is a thousand
// 512-byte blocks, 512000 bytes.
func nvmeDataUnits(_ *types.RawAttributeBag, v int64) (int64, error) {
	return v * 512000, nil
}

// ataLBAs converts an LBA count to bytes using the reported logical block
// size, defaulting to 512-byte sectors.
func ataLBAs(bag *types.RawAttributeBag, v int64) (int64, error) {
	bs, ok := bag.Number("logical_block_size")
	if !ok || bs <= 0 {
		bs = 512
	}
	return v * bs, nil
}

// scsiGigabytes converts the error-counter-log gigabytes to bytes.
func scsiGigabytes(_ *types.RawAttributeBag, v int64) (int64, error) {
	return v * 1000000000, nil
}

// lifeLeftToUsed converts a normalized life-left percentage to percent used.
func lifeLeftToUsed(_ *types.RawAttributeBag, v int64) (int64, error) {
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("life-left value %d out of range", v)
	}
	return 100 - v, nil
}

// kelvinToCelsius converts a kelvin reading to celsius. A reading at or
// below zero means the sensor is absent.
func kelvinToCelsius(_ *types.RawAttributeBag, v int64) (int64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("kelvin reading %d out of range", v)
	}
	return v - 273, nil
}

// fieldTable is the static mapping from canonical numeric fields to raw bag
// keys. Raw keys are protocol-specific and never collide, so each field
// carries one candidate list for all three protocols; the protocol and class
// predicates decide where the field applies at all. Identity strings and the
// self-test history are resolved separately.
var fieldTable = []fieldRule{
	{
		field:   types.FieldReallocated,
		classes: []types.DeviceClass{types.ClassHDD},
		candidates: []candidate{
			{key: "ata_attr_5", convert: direct},
			{key: "scsi_grown_defect_list", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.ReallocatedSectors = v },
	},
	{
		field:     types.FieldPending,
		protocols: []types.Protocol{types.ProtocolSATA},
		classes:   []types.DeviceClass{types.ClassHDD},
		candidates: []candidate{
			{key: "ata_attr_197", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.PendingSectors = v },
	},
	{
		field:   types.FieldPercentUsed,
		classes: []types.DeviceClass{types.ClassSSD},
		candidates: []candidate{
			{key: "nvme_percentage_used", convert: direct},
			{key: "scsi_percentage_used", convert: direct},
			{key: "ata_attr_231_norm", convert: lifeLeftToUsed},
			{key: "ata_attr_233_norm", convert: lifeLeftToUsed},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.PercentageUsed = v },
	},
	{
		field:     types.FieldSpare,
		protocols: []types.Protocol{types.ProtocolNVMe},
		classes:   []types.DeviceClass{types.ClassSSD},
		candidates: []candidate{
			{key: "nvme_available_spare", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.AvailableSpare = v },
	},
	{
		field:     types.FieldMediaErrors,
		protocols: []types.Protocol{types.ProtocolNVMe},
		candidates: []candidate{
			{key: "nvme_media_errors", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.MediaErrors = v },
	},
	{
		field: types.FieldPowerOn,
		candidates: []candidate{
			{key: "power_on_hours", convert: direct},
			{key: "ata_attr_9", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.PowerOnHours = v },
	},
	{
		field: types.FieldHostRead,
		candidates: []candidate{
			{key: "nvme_data_units_read", convert: nvmeDataUnits},
			{key: "ata_attr_242", convert: ataLBAs},
			{key: "scsi_gigabytes_read", convert: scsiGigabytes},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.HostBytesRead = v },
	},
	{
		field: types.FieldHostWritten,
		candidates: []candidate{
			{key: "nvme_data_units_written", convert: nvmeDataUnits},
			{key: "ata_attr_241", convert: ataLBAs},
			{key: "scsi_gigabytes_written", convert: scsiGigabytes},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.HostBytesWritten = v },
	},
	{
		field: types.FieldPowerCycles,
		candidates: []candidate{
			{key: "power_cycle_count", convert: direct},
			{key: "ata_attr_12", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.PowerCycles = v },
	},
	{
		field: types.FieldAvgTemp,
		candidates: []candidate{
			{key: "ata_stat_avg_long_term_temp", convert: direct},
			{key: "temperature_current", convert: direct},
			{key: "temperature_kelvin", convert: kelvinToCelsius},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.AverageTempC = v },
	},
	{
		field: types.FieldMaxTemp,
		candidates: []candidate{
			{key: "temperature_lifetime_max", convert: direct},
			{key: "ata_stat_highest_temp", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.MaximumTempC = v },
	},
	{
		field:     types.FieldWarnTempMin,
		protocols: []types.Protocol{types.ProtocolNVMe},
		candidates: []candidate{
			{key: "nvme_warning_temp_time", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.WarningTempMinutes = v },
	},
	{
		field:     types.FieldCritTempMin,
		protocols: []types.Protocol{types.ProtocolNVMe},
		candidates: []candidate{
			{key: "nvme_critical_comp_time", convert: direct},
		},
		assign: func(rec *types.HealthRecord, v int64) { rec.CriticalTempMinutes = v },
	},
}
