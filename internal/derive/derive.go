// Package derive computes secondary metrics from a normalized health
// record. All derivations are pure and deterministic.
package derive

import (
	"drive-health-grader/internal/utils"
	"drive-health-grader/pkg/types"
)

const hoursPerYear = 8760

// Apply fills the derived fields of a record in place. It never fails:
// inputs that cannot support a derivation leave the derived field
// unreadable instead.
func Apply(rec *types.HealthRecord) {
	deriveWorkload(rec)
	derivePowerOnReadable(rec)
}

// deriveWorkload computes the annualized host transfer rate in TB/year.
// Both byte counters and a non-zero power-on time are required.
func deriveWorkload(rec *types.HealthRecord) {
	if !rec.Applied.Has(types.FieldPowerOn) || rec.PowerOnHours == 0 ||
		!rec.Applied.Has(types.FieldHostRead) || !rec.Applied.Has(types.FieldHostWritten) {
		rec.MarkUnreadable(types.FieldWorkload)
		return
	}

	totalTB := float64(rec.HostBytesRead+rec.HostBytesWritten) / 1e12
	years := float64(rec.PowerOnHours) / hoursPerYear
	rec.WorkloadTBPerYear = totalTB / years
	rec.MarkApplied(types.FieldWorkload)
}

func derivePowerOnReadable(rec *types.HealthRecord) {
	if rec.Applied.Has(types.FieldPowerOn) {
		rec.PowerOnReadable = utils.FormatHours(rec.PowerOnHours)
	}
}
