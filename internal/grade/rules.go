// Package grade evaluates normalized health records against the ordered
// grading rule table and classifies the outcome.
package grade

import (
	"fmt"
	"strings"

	"drive-health-grader/internal/config"
	"drive-health-grader/pkg/types"
)

// Kind separates rules that fail a device from rules that only flag it.
type Kind int

const (
	KindFail Kind = iota
	KindFlag
)

// Fixed rule thresholds. The remaining thresholds are configurable and
// come from config.Thresholds.
const (
	pendingSectorsMax = 10
	reallocatedMax    = 10
	percentUsedMax    = 100
	spareMinPercent   = 97
)

// Rule is one row of the grading table. Empty Protocols or Classes means
// the rule applies to every protocol or class.
type Rule struct {
	Code      string
	Kind      Kind
	Protocols []types.Protocol
	Classes   []types.DeviceClass
	Requires  []types.Field
	Triggered func(*types.HealthRecord, config.Thresholds) bool
}

func (r Rule) appliesTo(rec *types.HealthRecord) bool {
	if len(r.Protocols) > 0 && !containsProtocol(r.Protocols, rec.Protocol) {
		return false
	}
	if len(r.Classes) > 0 && !containsClass(r.Classes, rec.Class) {
		return false
	}
	return true
}

func containsProtocol(list []types.Protocol, p types.Protocol) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func containsClass(list []types.DeviceClass, c types.DeviceClass) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

// rules is the grading table. Declaration order is report order: every
// applicable rule is evaluated and every triggered code is collected, so
// a device reports all of its problems in one pass.
var rules = []Rule{
	{
		Code:     ReasonFailedSelfTest,
		Kind:     KindFail,
		Requires: []types.Field{types.FieldSelfTests},
		Triggered: func(rec *types.HealthRecord, _ config.Thresholds) bool {
			for _, st := range rec.SelfTests {
				if st.Outcome == types.SelfTestFailed {
					return true
				}
			}
			return false
		},
	},
	{
		Code:     ReasonPendingSectors,
		Kind:     KindFail,
		Classes:  []types.DeviceClass{types.ClassHDD},
		Requires: []types.Field{types.FieldPending},
		Triggered: func(rec *types.HealthRecord, _ config.Thresholds) bool {
			return rec.PendingSectors > pendingSectorsMax
		},
	},
	{
		Code:     ReasonReallocated,
		Kind:     KindFail,
		Classes:  []types.DeviceClass{types.ClassHDD},
		Requires: []types.Field{types.FieldReallocated},
		Triggered: func(rec *types.HealthRecord, _ config.Thresholds) bool {
			return rec.ReallocatedSectors > reallocatedMax
		},
	},
	{
		Code:     ReasonPercentUsed,
		Kind:     KindFail,
		Classes:  []types.DeviceClass{types.ClassSSD},
		Requires: []types.Field{types.FieldPercentUsed},
		Triggered: func(rec *types.HealthRecord, _ config.Thresholds) bool {
			return rec.PercentageUsed > percentUsedMax
		},
	},
	{
		Code:     ReasonSpareLow,
		Kind:     KindFail,
		Classes:  []types.DeviceClass{types.ClassSSD},
		Requires: []types.Field{types.FieldSpare},
		Triggered: func(rec *types.HealthRecord, _ config.Thresholds) bool {
			return rec.AvailableSpare <= spareMinPercent
		},
	},
	{
		Code:      ReasonMediaErrors,
		Kind:      KindFail,
		Protocols: []types.Protocol{types.ProtocolNVMe},
		Requires:  []types.Field{types.FieldMediaErrors},
		Triggered: func(rec *types.HealthRecord, cfg config.Thresholds) bool {
			return rec.MediaErrors > cfg.MediaErrors
		},
	},
	{
		Code:      ReasonCriticalTemp,
		Kind:      KindFail,
		Protocols: []types.Protocol{types.ProtocolNVMe},
		Requires:  []types.Field{types.FieldCritTempMin},
		Triggered: func(rec *types.HealthRecord, cfg config.Thresholds) bool {
			return rec.CriticalTempMinutes > cfg.CriticalTempMinutes
		},
	},
	{
		Code:     ReasonHeavyUse,
		Kind:     KindFlag,
		Classes:  []types.DeviceClass{types.ClassHDD},
		Requires: []types.Field{types.FieldWorkload},
		Triggered: func(rec *types.HealthRecord, cfg config.Thresholds) bool {
			return rec.WorkloadTBPerYear > cfg.HeavyUseTBPerYear
		},
	},
	{
		Code:      ReasonTempWarning,
		Kind:      KindFlag,
		Protocols: []types.Protocol{types.ProtocolNVMe},
		Requires:  []types.Field{types.FieldWarnTempMin},
		Triggered: func(rec *types.HealthRecord, cfg config.Thresholds) bool {
			return rec.WarningTempMinutes > cfg.WarningTempMinutes
		},
	},
}

// Evaluation is the collected outcome of one pass over the rule table.
type Evaluation struct {
	FailReasons []string
	FlagReasons []string
	Notes       []string
	// Insufficient is raised when a fail-kind rule could not be evaluated
	// because a field it requires was unreadable. A device that cannot be
	// proven healthy must not pass.
	Insufficient bool
}

// Engine evaluates records against the rule table with configured thresholds.
type Engine struct {
	thresholds config.Thresholds
}

// NewEngine creates a rule engine using the given thresholds
func NewEngine(thresholds config.Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Evaluate runs every applicable rule against the record. Rules whose
// required fields are not applicable to the device are skipped silently;
// rules blocked by unreadable fields record a note and, for fail-kind
// rules, raise the insufficiency signal.
func (e *Engine) Evaluate(rec *types.HealthRecord) Evaluation {
	var ev Evaluation

	for _, rule := range rules {
		if !rule.appliesTo(rec) {
			continue
		}
		if anyNotApplicable(rec, rule.Requires) {
			continue
		}
		if blocked := unreadableOf(rec, rule.Requires); len(blocked) > 0 {
			ev.Notes = append(ev.Notes, fmt.Sprintf("%s skipped: %s unreadable",
				rule.Code, strings.Join(blocked, ", ")))
			if rule.Kind == KindFail {
				ev.Insufficient = true
			}
			continue
		}
		if !rule.Triggered(rec, e.thresholds) {
			continue
		}

		switch rule.Kind {
		case KindFail:
			ev.FailReasons = append(ev.FailReasons, rule.Code)
		case KindFlag:
			ev.FlagReasons = append(ev.FlagReasons, rule.Code)
		}
	}

	return ev
}

func anyNotApplicable(rec *types.HealthRecord, fields []types.Field) bool {
	for _, f := range fields {
		if rec.NotApplicable.Has(f) {
			return true
		}
	}
	return false
}

func unreadableOf(rec *types.HealthRecord, fields []types.Field) []string {
	var blocked []string
	for _, f := range fields {
		if rec.Unreadable.Has(f) {
			blocked = append(blocked, string(f))
		}
	}
	return blocked
}
