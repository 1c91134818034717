// Package normalize turns raw attribute bags into canonical health records.
package normalize

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"drive-health-grader/pkg/types"
)

// NormalizationError reports that a device's identity could not be resolved.
// Anything short of that degrades into the record's unreadable field set.
type NormalizationError struct {
	Device string
	Field  types.Field
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize: %s: %s: %s", e.Device, e.Field, e.Reason)
}

// Normalize maps one raw attribute bag onto a canonical health record.
// Normalizing the same bag twice yields identical records.
func Normalize(bag *types.RawAttributeBag) (*types.HealthRecord, error) {
	if bag.Protocol != types.ProtocolSATA && bag.Protocol != types.ProtocolSAS && bag.Protocol != types.ProtocolNVMe {
		return nil, &NormalizationError{Device: bag.Device, Field: types.FieldProtocol, Reason: "wire protocol could not be determined"}
	}

	rec := types.NewHealthRecord(bag.Device, bag.Protocol)
	if err := resolveIdentity(rec, bag); err != nil {
		return nil, err
	}
	resolveClass(rec, bag)

	for _, rule := range fieldTable {
		applyFieldRule(rec, bag, rule)
	}
	resolveSelfTests(rec, bag)

	return rec, nil
}

// resolveIdentity fills the identity fields. Serial number and capacity are
// the two fields worth failing a device over: without them the record cannot
// be attributed or sanity-checked.
func resolveIdentity(rec *types.HealthRecord, bag *types.RawAttributeBag) error {
	serial, ok := bag.Text("serial_number")
	if !ok || serial == "" {
		return &NormalizationError{Device: bag.Device, Field: types.FieldSerial, Reason: "serial number missing from raw data"}
	}
	rec.Serial = serial
	rec.MarkApplied(types.FieldSerial)

	capacity, ok := bag.Number("capacity_bytes")
	if !ok || capacity <= 0 {
		return &NormalizationError{Device: bag.Device, Field: types.FieldCapacity, Reason: "capacity missing or not positive"}
	}
	rec.CapacityBytes = capacity
	rec.MarkApplied(types.FieldCapacity)

	if model, ok := bag.Text("model_name"); ok {
		rec.Model = model
		rec.MarkApplied(types.FieldModel)
	} else if product, ok := bag.Text("product"); ok {
		rec.Model = product
		rec.MarkApplied(types.FieldModel)
	} else {
		rec.MarkUnreadable(types.FieldModel)
	}

	if fw, ok := bag.Text("firmware_version"); ok {
		rec.Firmware = fw
		rec.MarkApplied(types.FieldFirmware)
	} else if rev, ok := bag.Text("revision"); ok {
		rec.Firmware = rev
		rec.MarkApplied(types.FieldFirmware)
	} else {
		rec.MarkUnreadable(types.FieldFirmware)
	}

	rec.Vendor = resolveVendor(bag)
	if rec.Vendor != "" {
		rec.MarkApplied(types.FieldVendor)
	} else {
		rec.MarkUnreadable(types.FieldVendor)
	}

	return nil
}

// resolveVendor falls back to the first word of the model family or model
// name, which is usually the manufacturer.
func resolveVendor(bag *types.RawAttributeBag) string {
	if v, ok := bag.Text("vendor"); ok {
		return v
	}
	for _, key := range []string{"model_family", "model_name"} {
		if v, ok := bag.Text(key); ok {
			if fields := strings.Fields(v); len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return ""
}

// resolveClass fixes the device class. NVMe devices are always solid-state;
// for the other protocols a reported rotation rate of zero means SSD and a
// missing one is treated as rotating media.
func resolveClass(rec *types.HealthRecord, bag *types.RawAttributeBag) {
	if rec.Protocol == types.ProtocolNVMe {
		rec.Class = types.ClassSSD
		return
	}
	if rate, ok := bag.Number("rotation_rate"); ok && rate == 0 {
		rec.Class = types.ClassSSD
		return
	}
	rec.Class = types.ClassHDD
}

// applyFieldRule resolves one canonical numeric field from the bag. Fields
// outside the record's protocol/class land in the not-applicable set; fields
// inside it that no candidate can supply land in the unreadable set.
func applyFieldRule(rec *types.HealthRecord, bag *types.RawAttributeBag, rule fieldRule) {
	if !rule.appliesTo(rec.Protocol, rec.Class) {
		rec.MarkNotApplicable(rule.field)
		return
	}

	for _, cand := range rule.candidates {
		raw, ok := bag.Number(cand.key)
		if !ok {
			continue
		}
		value, err := cand.convert(bag, raw)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"device": bag.Device,
				"key":    cand.key,
			}).Debug("Conversion failed, trying next candidate")
			continue
		}
		rule.assign(rec, value)
		rec.MarkApplied(rule.field)
		return
	}

	rec.MarkUnreadable(rule.field)
}

// resolveSelfTests normalizes the self-test history. A bag without the log
// key had its read attempt fail; a bag with an empty log belongs to a device
// that never ran a self-test, which is an applied, empty history.
func resolveSelfTests(rec *types.HealthRecord, bag *types.RawAttributeBag) {
	entries, ok := bag.Entries("self_test_log")
	if !ok {
		rec.MarkUnreadable(types.FieldSelfTests)
		return
	}

	for _, entry := range entries {
		rec.SelfTests = append(rec.SelfTests, types.SelfTestResult{
			LifetimeHours: entry.Hours,
			Outcome:       parseOutcome(entry.Status),
			Detail:        entry.Status,
		})
	}
	rec.MarkApplied(types.FieldSelfTests)
}

// parseOutcome maps a raw self-test status string to an outcome. Unrecognized
// statuses map to Unknown, never dropped. The aborted check runs before the
// failed check so "aborted" statuses with failure wording stay aborted.
func parseOutcome(status string) types.SelfTestOutcome {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "abort"), strings.Contains(s, "interrupt"):
		return types.SelfTestAborted
	case strings.Contains(s, "in progress"):
		return types.SelfTestUnknown
	case strings.Contains(s, "without error"), s == "completed":
		return types.SelfTestPassed
	case strings.Contains(s, "fail"), strings.Contains(s, "fatal"):
		return types.SelfTestFailed
	default:
		return types.SelfTestUnknown
	}
}
