package collect

import (
	"runtime"
	"strings"

	"hostprobe/internal/gpu"
	"hostprobe/internal/sensor"
)

// maxCores caps the cores family; indices past it are dropped, not an
// error.
const maxCores = 64

// Options tunes a Collector; the zero value is usable.
type Options struct {
	DiskPath       string
	DisableGPU     bool
	DisableBattery bool
}

// Collector owns the static fact cache and assembles snapshots from the
// platform provider and the GPU resolver. It is driven from a single
// sequential context, so the cache needs no locking.
type Collector struct {
	provider       Provider
	gpus           *gpu.Resolver
	diskPath       string
	disableGPU     bool
	disableBattery bool
	static         staticCache
}

func New(p Provider, gpus *gpu.Resolver, opts Options) *Collector {
	diskPath := opts.DiskPath
	if diskPath == "" {
		diskPath = "/"
		if runtime.GOOS == "windows" {
			diskPath = `C:\`
		}
	}
	return &Collector{
		provider:       p,
		gpus:           gpus,
		diskPath:       diskPath,
		disableGPU:     opts.DisableGPU,
		disableBattery: opts.DisableBattery,
	}
}

// Prime seeds the provider's since-last-call CPU state so the first
// snapshot reports meaningful usage numbers.
func (c *Collector) Prime() error {
	_, err := c.provider.CPUPercent(true)
	return err
}

// StaticFacts returns the cached static partial, populating it on first
// call. Identical content is returned until ClearCache.
func (c *Collector) StaticFacts() sensor.Snapshot {
	return c.static.get(c.populateStatic)
}

// ClearCache discards the static facts and the GPU helper's static
// sub-cache; both repopulate on next demand.
func (c *Collector) ClearCache() {
	c.static.clear()
	c.gpus.ClearCache()
}

// Collect returns the merged snapshot: cached static facts overlaid
// with fresh dynamic readings. Dynamic wins on collision except GPU
// identity facts (name, vram_total), which stay pinned to the static
// source.
func (c *Collector) Collect() sensor.Snapshot {
	static := c.StaticFacts()

	system := sensor.Merge(static["system"], nil)
	if r, ok := c.uptimeReading(); ok {
		system["uptime"] = r
	}

	gpuFam := sensor.Merge(nil, c.gpuDynamic())
	if r, ok := static["gpu"]["name"]; ok {
		gpuFam["name"] = r
	}
	if r, ok := static["gpu"]["vram_total"]; ok {
		gpuFam["vram_total"] = r
	}

	return sensor.Snapshot{
		"system":  system,
		"cpu":     sensor.Merge(static["cpu"], c.cpuDynamic()),
		"gpu":     gpuFam,
		"memory":  sensor.Merge(static["memory"], c.memoryDynamic()),
		"disk":    sensor.Merge(static["disk"], c.diskDynamic()),
		"network": c.networkFamily(),
		"battery": c.batteryFamily(),
		"cores":   c.coresFamily(),
	}
}

// CollectRaw invokes every acquisition fresh, bypassing the static
// cache in both directions. Diagnostic "show everything" path.
func (c *Collector) CollectRaw() sensor.Snapshot {
	return sensor.Snapshot{
		"system":  c.systemFamily(),
		"cpu":     c.cpuFamilyRaw(),
		"gpu":     c.gpuDynamic(),
		"memory":  c.memoryFamilyRaw(),
		"disk":    c.diskFamilyRaw(),
		"network": c.networkFamily(),
		"battery": c.batteryFamily(),
		"cores":   c.coresFamily(),
	}
}

func (c *Collector) gpuDynamic() sensor.Family {
	if c.disableGPU {
		return sensor.Family{}
	}
	return c.gpus.Collect()
}

func (c *Collector) populateStatic() sensor.Snapshot {
	snap := sensor.Snapshot{}

	system := sensor.Family{}
	if name, err := c.provider.Hostname(); err == nil {
		system["hostname"] = sensor.Make(name, "text", "system_hostname", "os.Hostname()", sensor.SourceGopsutil)
	}
	system["platform"] = platformReading()
	snap["system"] = system

	cpuFam := sensor.Family{"name": c.cpuName()}
	for k, r := range c.cpuCounts() {
		cpuFam[k] = r
	}
	snap["cpu"] = cpuFam

	if c.disableGPU {
		snap["gpu"] = sensor.Family{}
	} else {
		snap["gpu"] = c.gpus.CollectStatic()
	}

	memFam := sensor.Family{}
	if vm, err := c.provider.VirtualMemory(); err == nil {
		memFam["total"] = mbReading(vm.Total, "memory_total", "mem.VirtualMemory().Total")
	}
	if sw, err := c.provider.SwapMemory(); err == nil {
		memFam["swap_total"] = mbReading(sw.Total, "memory_swap_total", "mem.SwapMemory().Total")
	}
	snap["memory"] = memFam

	diskFam := sensor.Family{}
	if du, err := c.provider.DiskUsage(c.diskPath); err == nil {
		diskFam["total"] = gbReading(du.Total, "disk_total", "disk.Usage().Total")
	}
	snap["disk"] = diskFam

	return snap
}

func (c *Collector) cpuName() sensor.Reading {
	if info, err := c.provider.CPUInfo(); err == nil && len(info) > 0 {
		if name := strings.TrimSpace(info[0].ModelName); name != "" {
			return sensor.Make(name, "text", "cpu_name", "cpu.Info()[0].ModelName", sensor.SourceGopsutil)
		}
	}
	return sensor.Make("CPU", "text", "cpu_name", "cpu.Info() (fallback)", sensor.SourceGopsutil)
}

func (c *Collector) cpuCounts() sensor.Family {
	fam := sensor.Family{}
	physical, perr := c.provider.CPUCounts(false)
	logical, lerr := c.provider.CPUCounts(true)
	if perr != nil || physical == 0 {
		physical = logical
	}
	if physical > 0 {
		fam["core_count"] = sensor.Make(physical, "cores", "cpu_core_count", "cpu.Counts(false)", sensor.SourceGopsutil)
	}
	if lerr == nil && logical > 0 {
		fam["thread_count"] = sensor.Make(logical, "threads", "cpu_thread_count", "cpu.Counts(true)", sensor.SourceGopsutil)
	}
	return fam
}

func (c *Collector) cpuFamilyRaw() sensor.Family {
	fam := sensor.Family{"name": c.cpuName()}
	for k, r := range c.cpuCounts() {
		fam[k] = r
	}
	for k, r := range c.cpuDynamic() {
		fam[k] = r
	}
	return fam
}

func (c *Collector) memoryFamilyRaw() sensor.Family {
	fam := c.memoryDynamic()
	if vm, err := c.provider.VirtualMemory(); err == nil {
		fam["total"] = mbReading(vm.Total, "memory_total", "mem.VirtualMemory().Total")
	}
	if sw, err := c.provider.SwapMemory(); err == nil {
		fam["swap_total"] = mbReading(sw.Total, "memory_swap_total", "mem.SwapMemory().Total")
	}
	return fam
}

func (c *Collector) diskFamilyRaw() sensor.Family {
	fam := c.diskDynamic()
	if du, err := c.provider.DiskUsage(c.diskPath); err == nil {
		fam["total"] = gbReading(du.Total, "disk_total", "disk.Usage().Total")
	}
	return fam
}
