// Package adapter retrieves raw diagnostic attributes from storage devices.
// Each adapter wraps one collection tool and turns its output into a
// RawAttributeBag; the rest of the pipeline never talks to hardware.
package adapter

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"drive-health-grader/pkg/types"
)

// Adapter collects the raw attribute bag for one device.
type Adapter interface {
	Name() string
	Collect(ctx context.Context, device types.DiscoveredDevice) (*types.RawAttributeBag, error)
}

// AdapterError reports a failed collection attempt for one device.
type AdapterError struct {
	Device string
	Reason string
	Err    error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adapter: %s: %s: %v", e.Device, e.Reason, e.Err)
	}
	return fmt.Sprintf("adapter: %s: %s", e.Device, e.Reason)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// FallbackAdapter tries a primary adapter and, for NVMe devices, retries
// with a secondary one before giving up.
type FallbackAdapter struct {
	Primary   Adapter
	Secondary Adapter
}

// NewFallbackAdapter creates a FallbackAdapter from a primary and secondary adapter
func NewFallbackAdapter(primary, secondary Adapter) *FallbackAdapter {
	return &FallbackAdapter{Primary: primary, Secondary: secondary}
}

// Name returns the primary adapter name
func (f *FallbackAdapter) Name() string {
	return f.Primary.Name()
}

// Collect collects via the primary adapter, falling back for NVMe devices
func (f *FallbackAdapter) Collect(ctx context.Context, device types.DiscoveredDevice) (*types.RawAttributeBag, error) {
	bag, err := f.Primary.Collect(ctx, device)
	if err == nil {
		return bag, nil
	}
	if f.Secondary == nil || device.Protocol != types.ProtocolNVMe || ctx.Err() != nil {
		return nil, err
	}

	log.WithError(err).WithFields(log.Fields{
		"device":   device.Path,
		"fallback": f.Secondary.Name(),
	}).Debug("Primary adapter failed, trying fallback")

	bag, ferr := f.Secondary.Collect(ctx, device)
	if ferr != nil {
		// the primary error describes the first failure, keep it
		return nil, err
	}
	return bag, nil
}
