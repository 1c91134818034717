package utils

import (
	"fmt"

	"drive-health-grader/pkg/types"
)

// StatusCode converts a grading status to a numeric value for metrics
// (0=pass, 1=flagged, 2=fail, 3=error)
func StatusCode(status types.Status) int {
	switch status {
	case types.StatusPass:
		return 0
	case types.StatusFlagged:
		return 1
	case types.StatusFail:
		return 2
	case types.StatusError:
		return 3
	default:
		return 3
	}
}

// BytesToGB converts a byte count to whole gibibytes
func BytesToGB(bytes int64) int64 {
	return bytes / (1 << 30)
}

// FormatHours converts an hour count into a composite duration string of
// whole years, remaining whole days and remaining whole hours, using a fixed
// 365-day year (8760 hours) with no leap adjustment: 18000 -> "2y 20d 0h".
func FormatHours(hours int64) string {
	if hours < 0 {
		hours = 0
	}
	years := hours / 8760
	days := (hours % 8760) / 24
	rem := hours % 24
	return fmt.Sprintf("%dy %dd %dh", years, days, rem)
}
