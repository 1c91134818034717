package grade

import "drive-health-grader/pkg/types"

// Reason codes carried on graded records. The rule codes appear in
// rule-table order; the remaining three mark evaluation problems rather
// than triggered rules.
const (
	ReasonFailedSelfTest = "FAILED_SELFTEST_HISTORY"
	ReasonPendingSectors = "PENDING_SECTORS_HIGH"
	ReasonReallocated    = "REALLOCATED_HIGH"
	ReasonPercentUsed    = "PERCENT_USED_EXCEEDED"
	ReasonSpareLow       = "SPARE_LOW"
	ReasonMediaErrors    = "MEDIA_ERRORS_HIGH"
	ReasonCriticalTemp   = "CRITICAL_TEMP_TIME"
	ReasonHeavyUse       = "HEAVY_USE"
	ReasonTempWarning    = "TEMP_WARNING_HISTORY"

	ReasonDataReadError      = "DATA_READ_ERROR"
	ReasonIdentityUnresolved = "IDENTITY_UNRESOLVED"
	ReasonInsufficientData   = "INSUFFICIENT_DATA"
)

// Classify converts an evaluation into a final status with its reason and
// flag codes. Precedence: a record that could not be fully evaluated is an
// error, a record with any triggered fail rule fails, anything else passes
// (flags ride along without changing the status).
func Classify(ev Evaluation) (types.Status, []string, []string) {
	switch {
	case ev.Insufficient:
		reasons := make([]string, 0, len(ev.FailReasons)+1)
		reasons = append(reasons, ev.FailReasons...)
		reasons = append(reasons, ReasonInsufficientData)
		return types.StatusError, reasons, ev.FlagReasons
	case len(ev.FailReasons) > 0:
		return types.StatusFail, ev.FailReasons, ev.FlagReasons
	default:
		return types.StatusPass, nil, ev.FlagReasons
	}
}
