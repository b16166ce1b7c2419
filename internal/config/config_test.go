package config

import (
	"testing"
	"time"
)

func TestFromFlags(t *testing.T) {
	cfg := FromFlags([]string{"-interval", "2s", "-disk", "/data", "-gpu=false"})
	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", cfg.Interval)
	}
	if cfg.DiskPath != "/data" {
		t.Errorf("DiskPath = %q, want /data", cfg.DiskPath)
	}
	if cfg.EnableGPU {
		t.Error("EnableGPU = true, want false")
	}
	if !cfg.EnableBattery {
		t.Error("EnableBattery = false, want true")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOSTPROBE_INTERVAL", "5")
	t.Setenv("HOSTPROBE_BATTERY", "0")
	t.Setenv("PLUGIN_BINARIES_PATH", "/opt/bin")
	cfg := FromFlags(nil)
	if cfg.Interval != 5*time.Second {
		t.Errorf("Interval = %v, want 5s", cfg.Interval)
	}
	if cfg.EnableBattery {
		t.Error("EnableBattery = true, want false")
	}
	if cfg.HelperDir != "/opt/bin" {
		t.Errorf("HelperDir = %q, want /opt/bin", cfg.HelperDir)
	}
}
