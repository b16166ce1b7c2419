package config

import (
	"flag"
	"os"
	"runtime"
	"time"
)

// Config carries runtime options for hostprobe.
type Config struct {
	Interval      time.Duration
	DiskPath      string
	Watch         bool
	Once          bool
	EnableGPU     bool
	EnableBattery bool
	HelperDir     string
}

func Default() Config {
	diskPath := "/"
	if runtime.GOOS == "windows" {
		diskPath = `C:\`
	}
	return Config{
		Interval:      time.Second,
		DiskPath:      diskPath,
		EnableGPU:     true,
		EnableBattery: true,
	}
}

// FromFlags parses flags and environment overrides.
func FromFlags(args []string) Config {
	cfg := Default()
	fs := flag.NewFlagSet("hostprobe", flag.ContinueOnError)
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "refresh interval for watch mode")
	fs.StringVar(&cfg.DiskPath, "disk", cfg.DiskPath, "mount point sampled for the disk family")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "render live snapshots in a terminal view")
	fs.BoolVar(&cfg.Once, "once", cfg.Once, "emit one merged snapshot as JSON and exit")
	fs.BoolVar(&cfg.EnableGPU, "gpu", cfg.EnableGPU, "enable GPU sampling")
	fs.BoolVar(&cfg.EnableBattery, "battery", cfg.EnableBattery, "enable battery sampling")
	_ = fs.Parse(args)

	if v := os.Getenv("HOSTPROBE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	if v := os.Getenv("HOSTPROBE_DISK"); v != "" {
		cfg.DiskPath = v
	}
	if v := os.Getenv("HOSTPROBE_GPU"); v == "0" {
		cfg.EnableGPU = false
	}
	if v := os.Getenv("HOSTPROBE_BATTERY"); v == "0" {
		cfg.EnableBattery = false
	}
	// The parent process hands down the helper binary location.
	cfg.HelperDir = os.Getenv("PLUGIN_BINARIES_PATH")
	return cfg
}
