//go:build linux && cgo

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"hostprobe/internal/sensor"
)

// nvmlBackend queries the first NVIDIA device through the NVML
// bindings. Init failure means no driver; every Return code other than
// SUCCESS is treated as "backend unavailable" and never propagated.
type nvmlBackend struct{}

func newNVMLBackend() Backend { return nvmlBackend{} }

func (nvmlBackend) Name() string { return "nvml" }

func (nvmlBackend) Probe() (sensor.Family, bool) {
	dev, shutdown, ok := firstDevice()
	if !ok {
		return nil, false
	}
	defer shutdown()

	fam := sensor.Family{}
	if name, ret := dev.GetName(); ret == nvml.SUCCESS {
		fam["name"] = sensor.Make(name, "text", "gpu_name", "nvml: DeviceGetName", sensor.SourceNVML)
	}
	if util, ret := dev.GetUtilizationRates(); ret == nvml.SUCCESS {
		fam["usage"] = sensor.Make(sensor.Round1(float64(util.Gpu)), "%", "gpu_usage", "nvml: UtilizationRates.Gpu", sensor.SourceNVML)
	}
	if temp, ret := dev.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		fam["temperature"] = sensor.Make(sensor.Round1(float64(temp)), "°C", "gpu_temperature", "nvml: DeviceGetTemperature", sensor.SourceNVML)
	}
	if mem, ret := dev.GetMemoryInfo(); ret == nvml.SUCCESS {
		fam["vram_used"] = sensor.Make(sensor.Round1(float64(mem.Used)/1024/1024), "MB", "gpu_vram_used", "nvml: MemoryInfo.Used", sensor.SourceNVML)
		fam["vram_total"] = sensor.Make(sensor.Round1(float64(mem.Total)/1024/1024), "MB", "gpu_vram_total", "nvml: MemoryInfo.Total", sensor.SourceNVML)
		vramPercent(fam, sensor.SourceNVML)
	}
	if len(fam) == 0 {
		return nil, false
	}
	return fam, true
}

func (nvmlBackend) ProbeStatic() (sensor.Family, bool) {
	dev, shutdown, ok := firstDevice()
	if !ok {
		return nil, false
	}
	defer shutdown()

	fam := sensor.Family{}
	if name, ret := dev.GetName(); ret == nvml.SUCCESS {
		fam["name"] = sensor.Make(name, "text", "gpu_name", "nvml: DeviceGetName", sensor.SourceNVML)
	}
	if mem, ret := dev.GetMemoryInfo(); ret == nvml.SUCCESS {
		fam["vram_total"] = sensor.Make(sensor.Round1(float64(mem.Total)/1024/1024), "MB", "gpu_vram_total", "nvml: MemoryInfo.Total", sensor.SourceNVML)
	}
	if len(fam) == 0 {
		return nil, false
	}
	return fam, true
}

func firstDevice() (nvml.Device, func(), bool) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, nil, false
	}
	shutdown := func() { _ = nvml.Shutdown() }
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS || count == 0 {
		shutdown()
		return nil, nil, false
	}
	dev, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		shutdown()
		return nil, nil, false
	}
	return dev, shutdown, true
}
