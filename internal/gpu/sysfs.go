package gpu

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"hostprobe/internal/sensor"
)

const drmRoot = "/sys/class/drm"

// SysfsBackend reads AMD telemetry from the drm device class. Detection
// is the presence of gpu_busy_percent under a card's device directory;
// every field past detection is independently best-effort.
type SysfsBackend struct {
	Root string
}

func (b *SysfsBackend) Name() string { return "sysfs" }

// device locates the first card exposing gpu_busy_percent and its hwmon
// directory, if any.
func (b *SysfsBackend) device() (device, hwmon string, ok bool) {
	entries, err := os.ReadDir(b.Root)
	if err != nil {
		return "", "", false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		// cardN only; cardN-DP-1 etc. are connectors.
		if !strings.HasPrefix(name, "card") || strings.Contains(name, "-") {
			continue
		}
		dev := filepath.Join(b.Root, name, "device")
		if _, err := os.Stat(filepath.Join(dev, "gpu_busy_percent")); err != nil {
			continue
		}
		hwmonDir := filepath.Join(dev, "hwmon")
		if subs, err := os.ReadDir(hwmonDir); err == nil && len(subs) > 0 {
			hwmon = filepath.Join(hwmonDir, subs[0].Name())
		}
		return dev, hwmon, true
	}
	return "", "", false
}

func (b *SysfsBackend) Probe() (sensor.Family, bool) {
	dev, hwmon, ok := b.device()
	if !ok {
		return nil, false
	}
	fam := sensor.Family{}
	fam["name"] = b.nameReading(dev)

	if busy, err := readInt(filepath.Join(dev, "gpu_busy_percent")); err == nil {
		fam["usage"] = sensor.Make(busy, "%", "gpu_usage", "sysfs: gpu_busy_percent", sensor.SourceSysfs)
	}
	var used, total int64
	if v, err := readInt(filepath.Join(dev, "mem_info_vram_used")); err == nil {
		used = v / (1024 * 1024)
		fam["vram_used"] = sensor.Make(used, "MB", "gpu_vram_used", "sysfs: mem_info_vram_used", sensor.SourceSysfs)
	}
	if v, err := readInt(filepath.Join(dev, "mem_info_vram_total")); err == nil {
		total = v / (1024 * 1024)
		fam["vram_total"] = sensor.Make(total, "MB", "gpu_vram_total", "sysfs: mem_info_vram_total", sensor.SourceSysfs)
	}
	if used > 0 && total > 0 {
		vramPercent(fam, sensor.SourceSysfs)
	}

	if hwmon != "" {
		if v, err := readInt(filepath.Join(hwmon, "temp1_input")); err == nil {
			fam["temperature"] = sensor.Make(v/1000, "°C", "gpu_temperature", "sysfs: hwmon/temp1_input", sensor.SourceSysfs)
		}
		if v, err := readInt(filepath.Join(hwmon, "power1_average")); err == nil {
			fam["power_draw"] = sensor.Make(v/1000000, "W", "gpu_power_draw", "sysfs: hwmon/power1_average", sensor.SourceSysfs)
		}
		if rpm, err := readInt(filepath.Join(hwmon, "fan1_input")); err == nil {
			pct := int64(0)
			if fanMax, err := readInt(filepath.Join(hwmon, "fan1_max")); err == nil && fanMax > 0 {
				pct = int64(float64(rpm)/float64(fanMax)*100 + 0.5)
			}
			fam["fan_speed_percent"] = sensor.Make(pct, "%", "gpu_fan_speed_percent", "sysfs: hwmon/fan1_input", sensor.SourceSysfs)
		}
		if v, err := readInt(filepath.Join(hwmon, "freq1_input")); err == nil {
			fam["frequency"] = sensor.Make(v/1000000, "MHz", "gpu_frequency", "sysfs: hwmon/freq1_input", sensor.SourceSysfs)
		}
	}
	return fam, true
}

func (b *SysfsBackend) ProbeStatic() (sensor.Family, bool) {
	dev, _, ok := b.device()
	if !ok {
		return nil, false
	}
	fam := sensor.Family{"name": b.nameReading(dev)}
	if v, err := readInt(filepath.Join(dev, "mem_info_vram_total")); err == nil {
		fam["vram_total"] = sensor.Make(v/(1024*1024), "MB", "gpu_vram_total", "sysfs: mem_info_vram_total", sensor.SourceSysfs)
	}
	return fam, true
}

func (b *SysfsBackend) nameReading(dev string) sensor.Reading {
	if name, err := readString(filepath.Join(dev, "product_name")); err == nil && name != "" {
		return sensor.Make(name, "text", "gpu_name", "sysfs: product_name", sensor.SourceSysfs)
	}
	return sensor.Make("AMD GPU", "text", "gpu_name", "sysfs: AMD GPU (default)", sensor.SourceSysfs)
}

func readString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readInt(path string) (int64, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
