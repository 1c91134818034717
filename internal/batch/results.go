package batch

import (
	"time"

	"github.com/google/uuid"

	"drive-health-grader/pkg/types"
)

// ResultSet is the outcome of one grading batch.
type ResultSet struct {
	BatchID  uuid.UUID
	Started  time.Time
	Finished time.Time
	Records  []*types.HealthRecord
}

// NewResultSet creates an empty result set stamped with a fresh batch id
func NewResultSet() *ResultSet {
	return &ResultSet{
		BatchID: uuid.New(),
		Started: time.Now(),
	}
}

// Duration returns the wall-clock time the batch took
func (rs *ResultSet) Duration() time.Duration {
	return rs.Finished.Sub(rs.Started)
}

// Counts returns the number of records per display status
func (rs *ResultSet) Counts() map[types.Status]int {
	counts := make(map[types.Status]int, 4)
	for _, rec := range rs.Records {
		counts[rec.DisplayStatus()]++
	}
	return counts
}

// HasErrors reports whether any device could not be graded
func (rs *ResultSet) HasErrors() bool {
	for _, rec := range rs.Records {
		if rec.Status == types.StatusError {
			return true
		}
	}
	return false
}

// HasFailures reports whether any device failed grading
func (rs *ResultSet) HasFailures() bool {
	for _, rec := range rs.Records {
		if rec.Status == types.StatusFail {
			return true
		}
	}
	return false
}

// HasFlags reports whether any device passed with flags raised
func (rs *ResultSet) HasFlags() bool {
	for _, rec := range rs.Records {
		if rec.DisplayStatus() == types.StatusFlagged {
			return true
		}
	}
	return false
}
