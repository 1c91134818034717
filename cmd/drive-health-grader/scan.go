package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"drive-health-grader/internal/adapter"
	"drive-health-grader/internal/batch"
	"drive-health-grader/internal/config"
	"drive-health-grader/internal/grade"
	"drive-health-grader/internal/metrics"
	"drive-health-grader/internal/report"
	"drive-health-grader/internal/scan"
	"drive-health-grader/internal/system"
)

var scanFlags struct {
	configPath    string
	output        string
	format        string
	workers       int
	deviceTimeout time.Duration
	include       []string
	exclude       []string
	ignoreSATA    bool
	ignoreSAS     bool
	ignoreNVMe    bool
	metricsFile   string
	debug         bool
	quiet         bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover, grade and report on attached storage devices",
	Args:  cobra.ExactArgs(0),
	RunE:  runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanFlags.configPath, "config", "", "Path to the YAML configuration file")
	f.StringVarP(&scanFlags.output, "output", "o", "", "Report output directory")
	f.StringVarP(&scanFlags.format, "format", "f", "", "Report format: csv, json or table")
	f.IntVar(&scanFlags.workers, "workers", 0, "Maximum number of devices graded in parallel")
	f.DurationVar(&scanFlags.deviceTimeout, "device-timeout", 0, "Per-device collection timeout")
	f.StringSliceVar(&scanFlags.include, "include", nil, "Device path globs to include")
	f.StringSliceVar(&scanFlags.exclude, "exclude", nil, "Device path globs to exclude")
	f.BoolVar(&scanFlags.ignoreSATA, "ignore-sata", false, "Skip SATA devices")
	f.BoolVar(&scanFlags.ignoreSAS, "ignore-sas", false, "Skip SAS devices")
	f.BoolVar(&scanFlags.ignoreNVMe, "ignore-nvme", false, "Skip NVMe devices")
	f.StringVar(&scanFlags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	f.BoolVar(&scanFlags.debug, "debug", false, "Enable debug logging")
	f.BoolVar(&scanFlags.quiet, "quiet", false, "Log errors only")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(scanFlags.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	info := system.New().Detect()
	if !info.CanCollect() {
		return fmt.Errorf("no collection tool found, install smartmontools or nvme-cli")
	}
	if !info.IsLinux() {
		log.WithField("platform", info.Platform).Warn("Device discovery may be incomplete on this platform")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner, err := scan.NewScanner(cfg.Scan)
	if err != nil {
		return err
	}
	devices, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices to grade")
	}

	coord := batch.New(buildAdapter(info), grade.NewEngine(cfg.Thresholds), cfg.Batch)
	set := coord.Run(ctx, devices)

	if err := report.NewRenderer(cfg.Report).Write(set); err != nil {
		return err
	}
	if cfg.Report.Format != "table" {
		fmt.Println(report.Summary(set))
	}

	if cfg.Report.MetricsFile != "" {
		m := metrics.New()
		m.Record(set, len(devices))
		if err := m.WriteFile(cfg.Report.MetricsFile); err != nil {
			return err
		}
	}

	exitCode = statusExitCode(set)
	return nil
}

// applyFlagOverrides lays explicitly set flags over the loaded configuration
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Report.Directory = scanFlags.output
	}
	if flags.Changed("format") {
		cfg.Report.Format = scanFlags.format
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = scanFlags.workers
	}
	if flags.Changed("device-timeout") {
		cfg.Batch.DeviceTimeout = config.Duration(scanFlags.deviceTimeout)
	}
	if flags.Changed("include") {
		cfg.Scan.Include = scanFlags.include
	}
	if flags.Changed("exclude") {
		cfg.Scan.Exclude = scanFlags.exclude
	}
	if flags.Changed("ignore-sata") {
		cfg.Scan.IgnoreSATA = scanFlags.ignoreSATA
	}
	if flags.Changed("ignore-sas") {
		cfg.Scan.IgnoreSAS = scanFlags.ignoreSAS
	}
	if flags.Changed("ignore-nvme") {
		cfg.Scan.IgnoreNVMe = scanFlags.ignoreNVMe
	}
	if flags.Changed("metrics-file") {
		cfg.Report.MetricsFile = scanFlags.metricsFile
	}
}

func setupLogging(level string) {
	switch {
	case scanFlags.debug:
		log.SetLevel(log.DebugLevel)
	case scanFlags.quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		parsed, err := log.ParseLevel(level)
		if err != nil {
			parsed = log.InfoLevel
		}
		log.SetLevel(parsed)
	}
}

// buildAdapter picks the collection path from the detected tools: smartctl
// with an nvme-cli fallback when both exist, otherwise whichever is present.
func buildAdapter(info *system.SystemInfo) adapter.Adapter {
	smartctl := adapter.NewSmartctlAdapter()
	nvme := adapter.NewNvmeCLIAdapter()
	switch {
	case info.HasSmartctl && info.HasNvmeCLI:
		return adapter.NewFallbackAdapter(smartctl, nvme)
	case info.HasNvmeCLI:
		return nvme
	default:
		return smartctl
	}
}

// statusExitCode maps a finished batch onto the process exit code. Errors
// outrank failures; flagged devices still count as passing.
func statusExitCode(set *batch.ResultSet) int {
	switch {
	case set.HasErrors():
		return 3
	case set.HasFailures():
		return 2
	default:
		return 0
	}
}
