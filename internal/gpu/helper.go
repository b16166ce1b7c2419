package gpu

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	jsoniter "github.com/json-iterator/go"

	"hostprobe/internal/sensor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// helperTimeout bounds one helper invocation; a hung helper must not
// stall the sampling cycle.
const helperTimeout = 5 * time.Second

// runFunc executes the helper binary and returns its stdout.
type runFunc func(ctx context.Context, path, mode string) ([]byte, error)

// HelperBackend shells out to gpu-reader, which answers --static and
// --dynamic queries with one JSON object. Missing binary, non-zero
// exit, timeout, and malformed output are all just "no data".
type HelperBackend struct {
	Dir string

	run runFunc

	// staticFacts caches the --static answer for the process lifetime;
	// it shares the clear trigger with the general static cache but is
	// sourced by a separate invocation.
	staticFacts sensor.Family
}

func NewHelperBackend(dir string) *HelperBackend {
	return &HelperBackend{Dir: dir, run: runHelper}
}

func (b *HelperBackend) Name() string { return "helper" }

// ClearCache drops the cached static facts so the next probe re-invokes
// the helper.
func (b *HelperBackend) ClearCache() { b.staticFacts = nil }

func (b *HelperBackend) Probe() (sensor.Family, bool) {
	fam := sensor.Merge(b.static(), b.dynamic())
	if len(fam) == 0 {
		return nil, false
	}
	vramPercent(fam, sensor.SourceHelper)
	return fam, true
}

func (b *HelperBackend) ProbeStatic() (sensor.Family, bool) {
	fam := b.static()
	if len(fam) == 0 {
		return nil, false
	}
	return fam, true
}

type helperPayload struct {
	Success bool               `json:"success"`
	Static  map[string]any     `json:"static"`
	Dynamic map[string]float64 `json:"dynamic"`
}

func (b *HelperBackend) static() sensor.Family {
	if b.staticFacts != nil {
		return b.staticFacts
	}
	data, ok := b.call("--static")
	if !ok {
		return nil
	}
	fam := sensor.Family{}
	if name, _ := data.Static["gpu_name"].(string); name != "" {
		fam["name"] = sensor.Make(name, "text", "gpu_name", "gpu-reader: static.gpu_name", sensor.SourceHelper)
	}
	if bytes, _ := data.Static["gpu_vram_total_bytes"].(float64); bytes > 0 {
		fam["vram_total"] = sensor.Make(sensor.Round1(bytes/1024/1024), "MB", "gpu_vram_total", "gpu-reader: static.gpu_vram_total_bytes", sensor.SourceHelper)
	}
	if len(fam) == 0 {
		return nil
	}
	b.staticFacts = fam
	return fam
}

func (b *HelperBackend) dynamic() sensor.Family {
	data, ok := b.call("--dynamic")
	if !ok {
		return nil
	}
	fam := sensor.Family{}
	if usage, present := data.Dynamic["gpu_usage_percent"]; present {
		fam["usage"] = sensor.Make(sensor.Round1(usage), "%", "gpu_usage", "gpu-reader: dynamic.gpu_usage_percent", sensor.SourceHelper)
	}
	if bytes := data.Dynamic["gpu_vram_used_bytes"]; bytes > 0 {
		fam["vram_used"] = sensor.Make(sensor.Round1(bytes/1024/1024), "MB", "gpu_vram_used", "gpu-reader: dynamic.gpu_vram_used_bytes", sensor.SourceHelper)
	}
	return fam
}

func (b *HelperBackend) call(mode string) (*helperPayload, bool) {
	path, ok := b.binary()
	if !ok {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), helperTimeout)
	defer cancel()
	out, err := b.run(ctx, path, mode)
	if err != nil {
		return nil, false
	}
	var payload helperPayload
	if err := json.Unmarshal(out, &payload); err != nil || !payload.Success {
		return nil, false
	}
	return &payload, true
}

func (b *HelperBackend) binary() (string, bool) {
	if b.Dir == "" {
		return "", false
	}
	name := "gpu-reader"
	if runtime.GOOS == "windows" {
		name = "gpu-reader.exe"
	}
	path := filepath.Join(b.Dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func runHelper(ctx context.Context, path, mode string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, path, mode).Output()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return out, err
}
