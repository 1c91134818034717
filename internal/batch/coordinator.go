// Package batch fans the grading pipeline out across discovered devices
// with bounded parallelism and per-device fault isolation.
package batch

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"drive-health-grader/internal/adapter"
	"drive-health-grader/internal/config"
	"drive-health-grader/internal/derive"
	"drive-health-grader/internal/grade"
	"drive-health-grader/internal/normalize"
	"drive-health-grader/pkg/types"
)

// Coordinator runs the fetch, normalize, derive and grade stages for a set
// of devices. Failures stay scoped to their device: every started device
// yields either a graded record or an ERROR record, never a batch failure.
type Coordinator struct {
	adapter adapter.Adapter
	engine  *grade.Engine
	workers int
	timeout time.Duration
	logger  *log.Entry
}

// New creates a coordinator with the given collection adapter and rule engine
func New(a adapter.Adapter, engine *grade.Engine, cfg config.Batch) *Coordinator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		adapter: a,
		engine:  engine,
		workers: workers,
		timeout: time.Duration(cfg.DeviceTimeout),
		logger:  log.WithField("component", "batch"),
	}
}

// Run grades every device and returns the results in input order
// regardless of completion order. Devices not yet started when the context
// is cancelled are dropped from the result set; devices already in flight
// surface as ERROR records when their commands are killed.
func (c *Coordinator) Run(ctx context.Context, devices []types.DiscoveredDevice) *ResultSet {
	set := NewResultSet()

	c.logger.WithFields(log.Fields{
		"batchID": set.BatchID,
		"devices": len(devices),
		"workers": c.workers,
	}).Info("Starting grading batch")

	results := make([]*types.HealthRecord, len(devices))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)

	for i, dev := range devices {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return nil
			}
			results[i] = c.gradeDevice(egCtx, dev)
			return nil
		})
	}
	// workers never return errors, every failure lands in a record
	_ = eg.Wait()

	set.Finished = time.Now()
	for _, rec := range results {
		if rec != nil {
			set.Records = append(set.Records, rec)
		}
	}

	c.logger.WithFields(log.Fields{
		"batchID":  set.BatchID,
		"graded":   len(set.Records),
		"duration": set.Duration().Round(time.Millisecond).String(),
	}).Info("Grading batch complete")

	return set
}

// gradeDevice runs the full pipeline for one device. The configured
// per-device timeout covers only the collection stage; the remaining
// stages are pure and never block.
func (c *Coordinator) gradeDevice(ctx context.Context, dev types.DiscoveredDevice) *types.HealthRecord {
	logCtx := c.logger.WithField("device", dev.Path)

	collectCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bag, err := c.adapter.Collect(collectCtx, dev)
	if err != nil {
		logCtx.WithError(err).Error("Device data collection failed")
		return errorRecord(dev, grade.ReasonDataReadError, err)
	}

	rec, err := normalize.Normalize(bag)
	if err != nil {
		logCtx.WithError(err).Error("Device identity could not be resolved")
		return errorRecord(dev, grade.ReasonIdentityUnresolved, err)
	}

	derive.Apply(rec)

	ev := c.engine.Evaluate(rec)
	status, reasons, flags := grade.Classify(ev)
	if err := rec.SetClassification(status, reasons, flags, ev.Notes); err != nil {
		logCtx.WithError(err).Error("Record rejected its classification")
	}

	logCtx.WithFields(log.Fields{
		"serial": rec.Serial,
		"status": rec.DisplayStatus(),
	}).Debug("Device graded")
	return rec
}

// errorRecord builds the ERROR record for a device that never reached
// grading. The cause is preserved as an evaluation note.
func errorRecord(dev types.DiscoveredDevice, code string, cause error) *types.HealthRecord {
	rec := types.NewHealthRecord(dev.Path, dev.Protocol)
	// a fresh record always accepts its first classification
	_ = rec.SetClassification(types.StatusError, []string{code}, nil, []string{cause.Error()})
	return rec
}
