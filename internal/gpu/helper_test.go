package gpu

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// helperFixture creates a directory holding a gpu-reader binary stub so
// the backend's lookup succeeds; the runner is injected, never exec'd.
func helperFixture(t *testing.T, run runFunc) *HelperBackend {
	t.Helper()
	dir := t.TempDir()
	name := "gpu-reader"
	if runtime.GOOS == "windows" {
		name = "gpu-reader.exe"
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	b := NewHelperBackend(dir)
	b.run = run
	return b
}

func scripted(responses map[string]string) runFunc {
	return func(_ context.Context, _, mode string) ([]byte, error) {
		out, ok := responses[mode]
		if !ok {
			return nil, errors.New("exit status 1")
		}
		return []byte(out), nil
	}
}

func TestHelperMergesStaticAndDynamic(t *testing.T) {
	b := helperFixture(t, scripted(map[string]string{
		"--static":  `{"success":true,"static":{"gpu_name":"Intel Arc A380","gpu_vram_total_bytes":8589934592}}`,
		"--dynamic": `{"success":true,"dynamic":{"gpu_usage_percent":12.34,"gpu_vram_used_bytes":2147483648}}`,
	}))

	fam, ok := b.Probe()
	if !ok {
		t.Fatal("Probe reported no data")
	}
	if fam["name"].Value != "Intel Arc A380" {
		t.Errorf("name = %v", fam["name"].Value)
	}
	if fam["vram_total"].Value != 8192.0 {
		t.Errorf("vram_total = %v, want 8192 MB", fam["vram_total"].Value)
	}
	if fam["usage"].Value != 12.3 {
		t.Errorf("usage = %v, want 12.3", fam["usage"].Value)
	}
	if fam["vram_used"].Value != 2048.0 {
		t.Errorf("vram_used = %v, want 2048 MB", fam["vram_used"].Value)
	}
	if fam["vram_usage_percent"].Value != 25.0 {
		t.Errorf("vram_usage_percent = %v, want 25.0", fam["vram_usage_percent"].Value)
	}
}

func TestHelperStaticCache(t *testing.T) {
	staticCalls := 0
	dynamicCalls := 0
	b := helperFixture(t, func(_ context.Context, _, mode string) ([]byte, error) {
		switch mode {
		case "--static":
			staticCalls++
			return []byte(`{"success":true,"static":{"gpu_name":"iGPU"}}`), nil
		default:
			dynamicCalls++
			return []byte(`{"success":true,"dynamic":{"gpu_usage_percent":5}}`), nil
		}
	})

	b.Probe()
	b.Probe()
	if staticCalls != 1 {
		t.Errorf("static invocations = %d, want 1 (cached)", staticCalls)
	}
	if dynamicCalls != 2 {
		t.Errorf("dynamic invocations = %d, want 2 (fresh per poll)", dynamicCalls)
	}

	b.ClearCache()
	b.Probe()
	if staticCalls != 2 {
		t.Errorf("static invocations after clear = %d, want 2", staticCalls)
	}
}

func TestHelperFailedStaticNotCached(t *testing.T) {
	staticCalls := 0
	b := helperFixture(t, func(_ context.Context, _, mode string) ([]byte, error) {
		if mode == "--static" {
			staticCalls++
			return nil, errors.New("exit status 1")
		}
		return []byte(`{"success":true,"dynamic":{"gpu_usage_percent":5}}`), nil
	})

	b.Probe()
	b.Probe()
	if staticCalls != 2 {
		t.Errorf("static invocations = %d, want 2 (failures are retried)", staticCalls)
	}
}

func TestHelperSoftFailures(t *testing.T) {
	cases := []struct {
		name string
		run  runFunc
	}{
		{"non-zero exit", func(context.Context, string, string) ([]byte, error) {
			return nil, errors.New("exit status 2")
		}},
		{"timeout", func(context.Context, string, string) ([]byte, error) {
			return nil, context.DeadlineExceeded
		}},
		{"malformed json", func(context.Context, string, string) ([]byte, error) {
			return []byte("not json"), nil
		}},
		{"success false", func(context.Context, string, string) ([]byte, error) {
			return []byte(`{"success":false}`), nil
		}},
		{"empty payload", func(context.Context, string, string) ([]byte, error) {
			return []byte(`{"success":true}`), nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := helperFixture(t, tc.run)
			if _, ok := b.Probe(); ok {
				t.Error("Probe reported data, want unavailable")
			}
		})
	}
}

func TestHelperMissingBinary(t *testing.T) {
	b := NewHelperBackend(t.TempDir())
	called := false
	b.run = func(context.Context, string, string) ([]byte, error) {
		called = true
		return nil, nil
	}
	if _, ok := b.Probe(); ok {
		t.Error("Probe reported data without a binary")
	}
	if called {
		t.Error("runner invoked despite missing binary")
	}
}

func TestHelperEmptyDir(t *testing.T) {
	b := NewHelperBackend("")
	if _, ok := b.Probe(); ok {
		t.Error("Probe reported data without a configured directory")
	}
}
