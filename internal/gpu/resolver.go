// Package gpu resolves GPU telemetry from an ordered chain of mutually
// exclusive backends: AMD sysfs, the NVML bindings, and an external
// helper binary. Absence of a GPU is a normal outcome, never an error.
package gpu

import "hostprobe/internal/sensor"

// Backend is one acquisition strategy. Probe returns the full dynamic
// reading set; ProbeStatic returns only identity facts (name,
// vram_total). ok reports whether the backend detected a device at all.
type Backend interface {
	Name() string
	Probe() (sensor.Family, bool)
	ProbeStatic() (sensor.Family, bool)
}

type cacheClearer interface {
	ClearCache()
}

// Resolver tries backends in declared order and stops at the first one
// that detects a device.
type Resolver struct {
	backends []Backend
}

// NewResolver builds the default chain. helperDir locates the external
// helper binary; empty disables that backend's lookup.
func NewResolver(helperDir string) *Resolver {
	return &Resolver{backends: []Backend{
		&SysfsBackend{Root: drmRoot},
		newNVMLBackend(),
		NewHelperBackend(helperDir),
	}}
}

// NewResolverWith builds a chain over explicit backends, in order.
func NewResolverWith(backends ...Backend) *Resolver {
	return &Resolver{backends: backends}
}

// Collect returns the dynamic reading set of the first backend that
// detects a device, or an empty family when none does.
func (r *Resolver) Collect() sensor.Family {
	for _, b := range r.backends {
		if fam, ok := b.Probe(); ok {
			return fam
		}
	}
	return sensor.Family{}
}

// CollectStatic mirrors Collect over the static-only probes.
func (r *Resolver) CollectStatic() sensor.Family {
	for _, b := range r.backends {
		if fam, ok := b.ProbeStatic(); ok {
			return fam
		}
	}
	return sensor.Family{}
}

// ClearCache drops any per-backend caches (the helper's static
// sub-query result). Safe to call at any time.
func (r *Resolver) ClearCache() {
	for _, b := range r.backends {
		if c, ok := b.(cacheClearer); ok {
			c.ClearCache()
		}
	}
}

// vramPercent derives the usage ratio when both operands are present
// and the total is meaningful.
func vramPercent(fam sensor.Family, source string) {
	used, uok := sensor.Float(fam["vram_used"])
	total, tok := sensor.Float(fam["vram_total"])
	if !uok || !tok || total <= 0 {
		return
	}
	fam["vram_usage_percent"] = sensor.Make(
		sensor.Round1(used/total*100), "%", "gpu_vram_usage_percent",
		"vram_used / vram_total", source)
}
