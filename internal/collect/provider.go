// Package collect assembles sensor snapshots from the platform metrics
// provider and the GPU resolver, splitting static from dynamic facts.
package collect

import (
	"os"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Provider abstracts the platform metrics source so the aggregator can
// run against fixtures. Every method is independently failable; a
// failing method costs only the readings derived from it.
type Provider interface {
	Hostname() (string, error)
	BootTime() (uint64, error)
	CPUInfo() ([]cpu.InfoStat, error)
	CPUCounts(logical bool) (int, error)
	CPUPercent(percpu bool) ([]float64, error)
	SensorsTemperatures() ([]host.TemperatureStat, error)
	VirtualMemory() (*mem.VirtualMemoryStat, error)
	SwapMemory() (*mem.SwapMemoryStat, error)
	DiskUsage(path string) (*disk.UsageStat, error)
	DiskIOCounters() (map[string]disk.IOCountersStat, error)
	NetIOCounters() ([]net.IOCountersStat, error)
	Batteries() ([]*battery.Battery, error)
}

// SystemProvider reads the live host through gopsutil and the battery
// library.
type SystemProvider struct{}

func (SystemProvider) Hostname() (string, error) { return os.Hostname() }

func (SystemProvider) BootTime() (uint64, error) { return host.BootTime() }

func (SystemProvider) CPUInfo() ([]cpu.InfoStat, error) { return cpu.Info() }

func (SystemProvider) CPUCounts(logical bool) (int, error) { return cpu.Counts(logical) }

// CPUPercent with a zero interval reports usage since the previous
// call; the daemon primes this state once at startup.
func (SystemProvider) CPUPercent(percpu bool) ([]float64, error) {
	return cpu.Percent(0, percpu)
}

func (SystemProvider) SensorsTemperatures() ([]host.TemperatureStat, error) {
	return host.SensorsTemperatures()
}

func (SystemProvider) VirtualMemory() (*mem.VirtualMemoryStat, error) { return mem.VirtualMemory() }

func (SystemProvider) SwapMemory() (*mem.SwapMemoryStat, error) { return mem.SwapMemory() }

func (SystemProvider) DiskUsage(path string) (*disk.UsageStat, error) { return disk.Usage(path) }

func (SystemProvider) DiskIOCounters() (map[string]disk.IOCountersStat, error) {
	return disk.IOCounters()
}

func (SystemProvider) NetIOCounters() ([]net.IOCountersStat, error) { return net.IOCounters(false) }

func (SystemProvider) Batteries() ([]*battery.Battery, error) { return battery.GetAll() }
