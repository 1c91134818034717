// Package report renders graded result sets as CSV, JSON or table files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"

	"drive-health-grader/internal/batch"
	"drive-health-grader/internal/config"
	"drive-health-grader/internal/utils"
	"drive-health-grader/pkg/types"
)

// Report file names, one per format.
const (
	CSVFileName   = "device_grades.csv"
	JSONFileName  = "device_grades.json"
	TableFileName = "device_grades.txt"
)

// csvHeader is the exact column set of the CSV report. Cells for fields the
// device class has no concept of, or that could not be read, stay empty.
var csvHeader = []string{
	"SerialNumber",
	"Model",
	"Firmware",
	"Capacity(GB)",
	"Protocol",
	"Status",
	"Reasons",
	"Flags",
	"POH_Readable",
	"POH_Hours",
	"ReallocatedSectors (HDD)",
	"PendingSectors (HDD)",
	"PercentUsed (SSD)",
	"AvailableSpare% (SSD)",
	"MediaErrors (NVMe)",
	"HostReads(GB)",
	"HostWrites(GB)",
	"MaxTemp",
	"AvgTemp",
	"WarningTempTime(min)",
	"CriticalTempTime(min)",
}

// Renderer writes grading reports into an output directory.
type Renderer struct {
	cfg    config.Report
	stdout io.Writer
	logger *log.Entry
}

// NewRenderer creates a renderer for the given report settings
func NewRenderer(cfg config.Report) *Renderer {
	return &Renderer{
		cfg:    cfg,
		stdout: os.Stdout,
		logger: log.WithField("component", "report"),
	}
}

// Write renders the result set in the configured format
func (r *Renderer) Write(set *batch.ResultSet) error {
	if err := os.MkdirAll(r.cfg.Directory, 0755); err != nil {
		return fmt.Errorf("report: create output directory: %w", err)
	}

	switch r.cfg.Format {
	case "csv":
		return r.writeCSV(set)
	case "json":
		return r.writeJSON(set)
	case "table":
		return r.writeTable(set)
	default:
		return fmt.Errorf("report: unsupported format %q", r.cfg.Format)
	}
}

func (r *Renderer) writeCSV(set *batch.ResultSet) error {
	path := filepath.Join(r.cfg.Directory, CSVFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for _, rec := range set.Records {
		if err := w.Write(csvRow(rec)); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	r.logger.WithField("path", path).Info("CSV report written")
	return nil
}

func csvRow(rec *types.HealthRecord) []string {
	return []string{
		rec.Serial,
		rec.Model,
		rec.Firmware,
		numCell(rec, types.FieldCapacity, utils.BytesToGB(rec.CapacityBytes)),
		string(rec.Protocol),
		string(rec.DisplayStatus()),
		strings.Join(rec.ReasonCodes, ";"),
		strings.Join(rec.FlagCodes, ";"),
		rec.PowerOnReadable,
		numCell(rec, types.FieldPowerOn, rec.PowerOnHours),
		numCell(rec, types.FieldReallocated, rec.ReallocatedSectors),
		numCell(rec, types.FieldPending, rec.PendingSectors),
		numCell(rec, types.FieldPercentUsed, rec.PercentageUsed),
		numCell(rec, types.FieldSpare, rec.AvailableSpare),
		numCell(rec, types.FieldMediaErrors, rec.MediaErrors),
		numCell(rec, types.FieldHostRead, utils.BytesToGB(rec.HostBytesRead)),
		numCell(rec, types.FieldHostWritten, utils.BytesToGB(rec.HostBytesWritten)),
		numCell(rec, types.FieldMaxTemp, rec.MaximumTempC),
		numCell(rec, types.FieldAvgTemp, rec.AverageTempC),
		numCell(rec, types.FieldWarnTempMin, rec.WarningTempMinutes),
		numCell(rec, types.FieldCritTempMin, rec.CriticalTempMinutes),
	}
}

// numCell renders a numeric cell, empty unless the field was actually read
func numCell(rec *types.HealthRecord, f types.Field, v int64) string {
	if !rec.Applied.Has(f) {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

type powerOnJSON struct {
	Readable string `json:"readable"`
	Hours    *int64 `json:"hours"`
}

type recordJSON struct {
	Device              string      `json:"device"`
	SerialNumber        string      `json:"serial_number"`
	Vendor              string      `json:"vendor,omitempty"`
	Model               string      `json:"model"`
	Firmware            string      `json:"firmware"`
	CapacityGB          int64       `json:"capacity_gb"`
	Protocol            string      `json:"protocol"`
	Class               string      `json:"class,omitempty"`
	Status              string      `json:"status"`
	Reasons             []string    `json:"reasons"`
	Flags               []string    `json:"flags"`
	Notes               []string    `json:"notes,omitempty"`
	PowerOn             powerOnJSON `json:"power_on_hours"`
	WorkloadTBPerYear   *float64    `json:"workload_tb_per_year"`
	AppliedFields       []string    `json:"applied_fields"`
	NotApplicableFields []string    `json:"not_applicable_fields"`
	UnreadableFields    []string    `json:"unreadable_fields"`
}

func (r *Renderer) writeJSON(set *batch.ResultSet) error {
	report := make([]recordJSON, len(set.Records))
	for i, rec := range set.Records {
		out := recordJSON{
			Device:              rec.Device,
			SerialNumber:        rec.Serial,
			Vendor:              rec.Vendor,
			Model:               rec.Model,
			Firmware:            rec.Firmware,
			CapacityGB:          utils.BytesToGB(rec.CapacityBytes),
			Protocol:            string(rec.Protocol),
			Class:               string(rec.Class),
			Status:              string(rec.DisplayStatus()),
			Reasons:             rec.ReasonCodes,
			Flags:               rec.FlagCodes,
			Notes:               rec.Notes,
			PowerOn:             powerOnJSON{Readable: rec.PowerOnReadable},
			AppliedFields:       rec.Applied.Names(),
			NotApplicableFields: rec.NotApplicable.Names(),
			UnreadableFields:    rec.Unreadable.Names(),
		}
		if rec.Applied.Has(types.FieldPowerOn) {
			hours := rec.PowerOnHours
			out.PowerOn.Hours = &hours
		}
		if rec.Applied.Has(types.FieldWorkload) {
			workload := rec.WorkloadTBPerYear
			out.WorkloadTBPerYear = &workload
		}
		report[i] = out
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	path := filepath.Join(r.cfg.Directory, JSONFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	r.logger.WithField("path", path).Info("JSON report written")
	return nil
}

func (r *Renderer) writeTable(set *batch.ResultSet) error {
	path := filepath.Join(r.cfg.Directory, TableFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	out := io.MultiWriter(r.stdout, f)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Device", "Serial", "Model", "Protocol", "Class", "Status", "Reasons", "Flags", "PowerOn"})
	for _, rec := range set.Records {
		t.AppendRow(table.Row{
			rec.Device,
			rec.Serial,
			rec.Model,
			rec.Protocol,
			rec.Class,
			rec.DisplayStatus(),
			strings.Join(rec.ReasonCodes, ", "),
			strings.Join(rec.FlagCodes, ", "),
			rec.PowerOnReadable,
		})
	}
	t.Render()

	fmt.Fprintln(out, Summary(set))

	r.logger.WithField("path", path).Info("Table report written")
	return nil
}

// Summary renders the one-line per-status tally shown under the table
func Summary(set *batch.ResultSet) string {
	counts := set.Counts()
	return fmt.Sprintf("%d devices: %d passed, %d flagged, %d failed, %d errors",
		len(set.Records),
		counts[types.StatusPass],
		counts[types.StatusFlagged],
		counts[types.StatusFail],
		counts[types.StatusError])
}
