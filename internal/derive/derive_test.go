package derive

import (
	"testing"

	"drive-health-grader/pkg/types"
)

func fullRecord() *types.HealthRecord {
	rec := types.NewHealthRecord("/dev/sda", types.ProtocolSATA)
	rec.PowerOnHours = 17520
	rec.HostBytesRead = 3_000_000_000_000
	rec.HostBytesWritten = 2_000_000_000_000
	rec.MarkApplied(types.FieldPowerOn)
	rec.MarkApplied(types.FieldHostRead)
	rec.MarkApplied(types.FieldHostWritten)
	return rec
}

func TestDeriveWorkload(t *testing.T) {
	rec := fullRecord()
	Apply(rec)

	// 5 TB transferred over exactly 2 years of power-on time
	if rec.WorkloadTBPerYear != 2.5 {
		t.Errorf("Expected 2.5 TB/year, got %g", rec.WorkloadTBPerYear)
	}
	if !rec.Applied.Has(types.FieldWorkload) {
		t.Error("Expected workload field to be applied")
	}
	if rec.PowerOnReadable != "2y 0d 0h" {
		t.Errorf("Expected readable power-on time, got %q", rec.PowerOnReadable)
	}
}

func TestDeriveWorkloadUnreadable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.HealthRecord)
	}{
		{"zero power-on hours", func(r *types.HealthRecord) { r.PowerOnHours = 0 }},
		{"unreadable power-on hours", func(r *types.HealthRecord) { r.MarkUnreadable(types.FieldPowerOn) }},
		{"unreadable bytes read", func(r *types.HealthRecord) { r.MarkUnreadable(types.FieldHostRead) }},
		{"unreadable bytes written", func(r *types.HealthRecord) { r.MarkUnreadable(types.FieldHostWritten) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fullRecord()
			tt.mutate(rec)
			Apply(rec)

			if !rec.Unreadable.Has(types.FieldWorkload) {
				t.Error("Expected workload field to be unreadable")
			}
			if rec.WorkloadTBPerYear != 0 {
				t.Errorf("Expected zero workload value, got %g", rec.WorkloadTBPerYear)
			}
		})
	}
}

func TestDerivePowerOnReadableFormat(t *testing.T) {
	rec := fullRecord()
	rec.PowerOnHours = 18000
	Apply(rec)

	if rec.PowerOnReadable != "2y 20d 0h" {
		t.Errorf("Expected 18000 hours as 2y 20d 0h, got %q", rec.PowerOnReadable)
	}
}

func TestDerivePowerOnUnreadableLeavesBlank(t *testing.T) {
	rec := fullRecord()
	rec.MarkUnreadable(types.FieldPowerOn)
	Apply(rec)

	if rec.PowerOnReadable != "" {
		t.Errorf("Expected no readable power-on time, got %q", rec.PowerOnReadable)
	}
}

func TestDeriveHeavyWorkload(t *testing.T) {
	rec := fullRecord()
	rec.PowerOnHours = 8760
	rec.HostBytesRead = 400_000_000_000_000
	rec.HostBytesWritten = 200_000_000_000_000
	Apply(rec)

	if rec.WorkloadTBPerYear != 600 {
		t.Errorf("Expected 600 TB/year, got %g", rec.WorkloadTBPerYear)
	}
}
