//go:build !linux || !cgo

package gpu

import "hostprobe/internal/sensor"

// NVML is linux-only; elsewhere the backend reports no device.
type nvmlBackend struct{}

func newNVMLBackend() Backend { return nvmlBackend{} }

func (nvmlBackend) Name() string { return "nvml" }

func (nvmlBackend) Probe() (sensor.Family, bool) { return nil, false }

func (nvmlBackend) ProbeStatic() (sensor.Family, bool) { return nil, false }
