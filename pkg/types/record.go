package types

import (
	"errors"
	"sort"
)

// Protocol represents the wire protocol a device speaks
type Protocol string

const (
	ProtocolSATA    Protocol = "SATA"
	ProtocolSAS     Protocol = "SAS"
	ProtocolNVMe    Protocol = "NVMe"
	ProtocolUnknown Protocol = "Unknown"
)

// DeviceClass represents the media class of a device
type DeviceClass string

const (
	ClassHDD DeviceClass = "HDD"
	ClassSSD DeviceClass = "SSD"
)

// Status represents the grading outcome of a device
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFlagged Status = "FLAGGED"
	StatusFail    Status = "FAIL"
	StatusError   Status = "ERROR"
)

// Field names a canonical health record field
type Field string

// Canonical field names. Wear fields are class/protocol-conditional and land
// in the NotApplicable set where the protocol has no concept of them.
const (
	FieldVendor      Field = "vendor"
	FieldModel       Field = "model"
	FieldSerial      Field = "serialNumber"
	FieldFirmware    Field = "firmwareVersion"
	FieldCapacity    Field = "capacityBytes"
	FieldProtocol    Field = "protocol"
	FieldReallocated Field = "reallocatedSectorCount"
	FieldPending     Field = "pendingSectorCount"
	FieldPercentUsed Field = "percentageUsed"
	FieldSpare       Field = "availableSparePercent"
	FieldMediaErrors Field = "mediaErrorCount"
	FieldPowerOn     Field = "powerOnHours"
	FieldHostRead    Field = "hostBytesRead"
	FieldHostWritten Field = "hostBytesWritten"
	FieldPowerCycles Field = "powerCycleCount"
	FieldAvgTemp     Field = "averageTemperatureC"
	FieldMaxTemp     Field = "maximumTemperatureC"
	FieldWarnTempMin Field = "warningCompositeTempMinutes"
	FieldCritTempMin Field = "criticalCompositeTempMinutes"
	FieldSelfTests   Field = "selfTestHistory"
	FieldWorkload    Field = "workloadTBPerYear"
)

// FieldSet is a set of canonical field names
type FieldSet map[Field]struct{}

// NewFieldSet creates a field set from the given fields
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Add inserts a field into the set
func (s FieldSet) Add(f Field) {
	s[f] = struct{}{}
}

// Has reports whether the field is in the set
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Names returns the sorted field names in the set
func (s FieldSet) Names() []string {
	names := make([]string, 0, len(s))
	for f := range s {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// SelfTestOutcome represents the normalized outcome of one logged self-test
type SelfTestOutcome string

const (
	SelfTestPassed  SelfTestOutcome = "Passed"
	SelfTestFailed  SelfTestOutcome = "Failed"
	SelfTestAborted SelfTestOutcome = "Aborted"
	SelfTestUnknown SelfTestOutcome = "Unknown"
)

// SelfTestResult represents one entry of a device's self-test history
type SelfTestResult struct {
	LifetimeHours int64 // power-on hours at which the test ran
	Outcome       SelfTestOutcome
	Detail        string // raw status text as reported by the device
}

// ErrAlreadyClassified is returned when a classification is set twice
var ErrAlreadyClassified = errors.New("health record already classified")

// HealthRecord is the canonical, protocol-independent snapshot of one
// device's diagnostic state. It is created by the normalizer, extended by the
// derived-metrics calculator, and sealed by the classifier.
type HealthRecord struct {
	// Identity
	Device        string // device handle, e.g. /dev/sda
	Vendor        string
	Model         string
	Serial        string
	Firmware      string
	CapacityBytes int64
	Protocol      Protocol
	Class         DeviceClass

	// Wear indicators
	ReallocatedSectors int64
	PendingSectors     int64
	PercentageUsed     int64
	AvailableSpare     int64
	MediaErrors        int64

	// Usage indicators
	PowerOnHours     int64
	HostBytesRead    int64
	HostBytesWritten int64
	PowerCycles      int64

	// Thermal indicators
	AverageTempC        int64
	MaximumTempC        int64
	WarningTempMinutes  int64
	CriticalTempMinutes int64

	// History
	SelfTests []SelfTestResult

	// Derived
	WorkloadTBPerYear float64
	PowerOnReadable   string

	// Field tracking. A field is in exactly one of the three sets once the
	// normalizer has run; NotApplicable and Unreadable are always disjoint.
	Applied       FieldSet
	NotApplicable FieldSet
	Unreadable    FieldSet

	// Classification, write-once
	Status      Status
	ReasonCodes []string
	FlagCodes   []string
	Notes       []string

	classified bool
}

// NewHealthRecord creates an empty record for a device
func NewHealthRecord(device string, protocol Protocol) *HealthRecord {
	return &HealthRecord{
		Device:        device,
		Protocol:      protocol,
		Applied:       NewFieldSet(),
		NotApplicable: NewFieldSet(),
		Unreadable:    NewFieldSet(),
	}
}

// MarkApplied records that a field was populated from raw data
func (r *HealthRecord) MarkApplied(f Field) {
	delete(r.NotApplicable, f)
	delete(r.Unreadable, f)
	r.Applied.Add(f)
}

// MarkNotApplicable records that the protocol/class has no concept of a field
func (r *HealthRecord) MarkNotApplicable(f Field) {
	delete(r.Applied, f)
	delete(r.Unreadable, f)
	r.NotApplicable.Add(f)
}

// MarkUnreadable records that a field was attempted but could not be read
func (r *HealthRecord) MarkUnreadable(f Field) {
	delete(r.Applied, f)
	delete(r.NotApplicable, f)
	r.Unreadable.Add(f)
}

// SetClassification seals the record with its final status, reason codes,
// flag codes and evaluation notes. A record can only be classified once.
func (r *HealthRecord) SetClassification(status Status, reasons, flags, notes []string) error {
	if r.classified {
		return ErrAlreadyClassified
	}
	r.Status = status
	r.ReasonCodes = reasons
	r.FlagCodes = flags
	r.Notes = notes
	r.classified = true
	return nil
}

// Classified reports whether the record has been sealed
func (r *HealthRecord) Classified() bool {
	return r.classified
}

// DisplayStatus returns the status for report surfaces: a passing record
// that carries flags is shown as FLAGGED.
func (r *HealthRecord) DisplayStatus() Status {
	if r.Status == StatusPass && len(r.FlagCodes) > 0 {
		return StatusFlagged
	}
	return r.Status
}
