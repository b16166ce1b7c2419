package collect

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/distatus/battery"

	"hostprobe/internal/sensor"
)

// Every reading below is best-effort: a failing acquisition omits that
// reading only and never fails the family.

func (c *Collector) systemFamily() sensor.Family {
	fam := sensor.Family{}
	if name, err := c.provider.Hostname(); err == nil {
		fam["hostname"] = sensor.Make(name, "text", "system_hostname", "os.Hostname()", sensor.SourceGopsutil)
	}
	fam["platform"] = platformReading()
	if r, ok := c.uptimeReading(); ok {
		fam["uptime"] = r
	}
	return fam
}

func platformReading() sensor.Reading {
	return sensor.Make(runtime.GOOS, "text", "system_platform", "runtime.GOOS", sensor.SourceGopsutil)
}

func (c *Collector) uptimeReading() (sensor.Reading, bool) {
	boot, err := c.provider.BootTime()
	if err != nil {
		return sensor.Reading{}, false
	}
	return sensor.Make(boot, "seconds", "system_uptime", "host.BootTime()", sensor.SourceGopsutil), true
}

func (c *Collector) cpuDynamic() sensor.Family {
	fam := sensor.Family{}
	if pcts, err := c.provider.CPUPercent(false); err == nil && len(pcts) > 0 {
		fam["usage_total"] = sensor.Make(sensor.Round1(pcts[0]), "%", "cpu_usage_total", "cpu.Percent(0, false)", sensor.SourceGopsutil)
	}
	if info, err := c.provider.CPUInfo(); err == nil && len(info) > 0 && info[0].Mhz > 0 {
		fam["frequency"] = sensor.Make(sensor.Round1(info[0].Mhz), "MHz", "cpu_frequency", "cpu.Info()[0].Mhz", sensor.SourceGopsutil)
	}
	if r, ok := c.cpuTemperature(); ok {
		fam["temperature"] = r
	}
	return fam
}

// cpuTemperature averages the per-core coretemp sensors when present,
// falling back to the single combined cpu_thermal sensor.
func (c *Collector) cpuTemperature() (sensor.Reading, bool) {
	temps, err := c.provider.SensorsTemperatures()
	if err != nil || len(temps) == 0 {
		return sensor.Reading{}, false
	}
	var sum float64
	var n int
	for _, t := range temps {
		if _, ok := coretempIndex(t.SensorKey); ok {
			sum += t.Temperature
			n++
		}
	}
	if n > 0 {
		return sensor.Make(sensor.Round1(sum/float64(n)), "°C", "cpu_temperature",
			"sensors: mean of coretemp cores", sensor.SourceGopsutil), true
	}
	for _, t := range temps {
		k := strings.ToLower(t.SensorKey)
		if strings.Contains(k, "cpu_thermal") || strings.Contains(k, "cpu-thermal") {
			return sensor.Make(sensor.Round1(t.Temperature), "°C", "cpu_temperature",
				"sensors: "+t.SensorKey, sensor.SourceGopsutil), true
		}
	}
	return sensor.Reading{}, false
}

func (c *Collector) memoryDynamic() sensor.Family {
	fam := sensor.Family{}
	if vm, err := c.provider.VirtualMemory(); err == nil {
		fam["used"] = mbReading(vm.Used, "memory_used", "mem.VirtualMemory().Used")
		fam["available"] = mbReading(vm.Available, "memory_available", "mem.VirtualMemory().Available")
		fam["usage_percent"] = sensor.Make(sensor.Round1(vm.UsedPercent), "%", "memory_usage_percent", "mem.VirtualMemory().UsedPercent", sensor.SourceGopsutil)
	}
	if sw, err := c.provider.SwapMemory(); err == nil {
		fam["swap_used"] = mbReading(sw.Used, "memory_swap_used", "mem.SwapMemory().Used")
	}
	return fam
}

func (c *Collector) diskDynamic() sensor.Family {
	fam := sensor.Family{}
	if du, err := c.provider.DiskUsage(c.diskPath); err == nil {
		fam["used"] = gbReading(du.Used, "disk_used", "disk.Usage().Used")
		fam["free"] = gbReading(du.Free, "disk_free", "disk.Usage().Free")
		fam["usage_percent"] = sensor.Make(sensor.Round1(du.UsedPercent), "%", "disk_usage_percent", "disk.Usage().UsedPercent", sensor.SourceGopsutil)
	}
	// Rates deliberately stay zero: delta tracking across calls belongs
	// to the consumer, which also gets the raw counters.
	if io, err := c.provider.DiskIOCounters(); err == nil && len(io) > 0 {
		fam["read_speed"] = sensor.Make(0, "MB/s", "disk_read_speed", "delta(bytes_read) / time", sensor.SourceCalculated)
		fam["write_speed"] = sensor.Make(0, "MB/s", "disk_write_speed", "delta(bytes_written) / time", sensor.SourceCalculated)
	}
	return fam
}

func (c *Collector) networkFamily() sensor.Family {
	counters, err := c.provider.NetIOCounters()
	if err != nil || len(counters) == 0 {
		return sensor.Family{
			"download_speed": sensor.Make(0, "MB/s", "network_download_speed", "net.IOCounters() (unavailable)", sensor.SourceCalculated),
			"upload_speed":   sensor.Make(0, "MB/s", "network_upload_speed", "net.IOCounters() (unavailable)", sensor.SourceCalculated),
			"bytes_sent":     sensor.Make(uint64(0), "bytes", "network_bytes_sent", "net.IOCounters() (unavailable)", sensor.SourceGopsutil),
			"bytes_received": sensor.Make(uint64(0), "bytes", "network_bytes_received", "net.IOCounters() (unavailable)", sensor.SourceGopsutil),
		}
	}
	n := counters[0]
	return sensor.Family{
		"download_speed": sensor.Make(0, "MB/s", "network_download_speed", "delta(bytes_recv) / time", sensor.SourceCalculated),
		"upload_speed":   sensor.Make(0, "MB/s", "network_upload_speed", "delta(bytes_sent) / time", sensor.SourceCalculated),
		"bytes_sent":     sensor.Make(n.BytesSent, "bytes", "network_bytes_sent", "net.IOCounters().BytesSent", sensor.SourceGopsutil),
		"bytes_received": sensor.Make(n.BytesRecv, "bytes", "network_bytes_received", "net.IOCounters().BytesRecv", sensor.SourceGopsutil),
	}
}

// batteryFamily resolves to an empty family on desktops; absence is a
// normal outcome.
func (c *Collector) batteryFamily() sensor.Family {
	if c.disableBattery {
		return sensor.Family{}
	}
	bats, err := c.provider.Batteries()
	if err != nil || len(bats) == 0 || bats[0] == nil || bats[0].Full <= 0 {
		return sensor.Family{}
	}
	b := bats[0]
	pct := sensor.Round1(b.Current / b.Full * 100)
	plugged := b.State == battery.Charging || b.State == battery.Full
	remaining := int64(-1)
	if b.State == battery.Discharging && b.ChargeRate > 0 {
		remaining = int64(b.Current / b.ChargeRate * 3600)
	}
	return sensor.Family{
		"percent":        sensor.Make(pct, "%", "battery_percent", "battery.GetAll()[0] charge ratio", sensor.SourceBattery),
		"is_charging":    sensor.Make(plugged && pct < 100, "boolean", "battery_is_charging", "battery.GetAll()[0].State", sensor.SourceBattery),
		"is_plugged_in":  sensor.Make(plugged, "boolean", "battery_is_plugged_in", "battery.GetAll()[0].State", sensor.SourceBattery),
		"time_remaining": sensor.Make(remaining, "seconds", "battery_time_remaining", "battery.GetAll()[0] current/rate", sensor.SourceBattery),
	}
}

func (c *Collector) coresFamily() sensor.Family {
	fam := sensor.Family{}
	if pcts, err := c.provider.CPUPercent(true); err == nil {
		for i, usage := range pcts {
			// readings past the cap are silently dropped
			if i >= maxCores {
				break
			}
			fam[strconv.Itoa(i)+"_usage"] = sensor.Make(sensor.Round1(usage), "%",
				fmt.Sprintf("cpu_core_%d_usage", i),
				fmt.Sprintf("cpu.Percent(0, true)[%d]", i), sensor.SourceGopsutil)
		}
	}
	if temps, err := c.provider.SensorsTemperatures(); err == nil {
		for _, t := range temps {
			if idx, ok := coretempIndex(t.SensorKey); ok && idx < maxCores {
				fam[strconv.Itoa(idx)+"_temp"] = sensor.Make(sensor.Round1(t.Temperature), "°C",
					fmt.Sprintf("cpu_core_%d_temp", idx),
					"sensors: "+t.SensorKey, sensor.SourceGopsutil)
			}
		}
	}
	return fam
}

// coretempIndex extracts the core number from a coretemp sensor key,
// tolerating the label normalizations seen in the wild
// ("coretemp_core_0", "coretemp_core0", "coretemp Core 0").
func coretempIndex(key string) (int, bool) {
	k := strings.ToLower(key)
	if !strings.HasPrefix(k, "coretemp") {
		return 0, false
	}
	rest := k[len("coretemp"):]
	if !strings.Contains(rest, "core") || strings.Contains(rest, "package") {
		return 0, false
	}
	i := len(k)
	for i > 0 && k[i-1] >= '0' && k[i-1] <= '9' {
		i--
	}
	if i == len(k) {
		return 0, false
	}
	n, err := strconv.Atoi(k[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func mbReading(bytes uint64, tag, label string) sensor.Reading {
	return sensor.Make(sensor.Round1(float64(bytes)/1024/1024), "MB", tag, label, sensor.SourceGopsutil)
}

func gbReading(bytes uint64, tag, label string) sensor.Reading {
	return sensor.Make(sensor.Round1(float64(bytes)/1024/1024/1024), "GB", tag, label, sensor.SourceGopsutil)
}
