package sensor

import "math"

// Reading is one tagged value with unit and provenance metadata.
type Reading struct {
	Value  any    `json:"value"`
	Unit   string `json:"unit"`
	Tag    string `json:"sensorTag"`
	Source string `json:"pollerSource"`
	Label  string `json:"rawLabel"`
}

// Family groups related readings under short keys ("usage_total", "name").
type Family map[string]Reading

// Snapshot is the full per-call output, one Family per metric group.
type Snapshot map[string]Family

// Well-known acquisition sources.
const (
	SourceGopsutil   = "gopsutil"
	SourceBattery    = "battery"
	SourceSysfs      = "sysfs"
	SourceNVML       = "nvml"
	SourceHelper     = "gpu-reader"
	SourceCalculated = "calculated"
)

// Make builds a Reading. label describes the exact API or file the value
// came from, for diagnostics.
func Make(value any, unit, tag, label, source string) Reading {
	return Reading{Value: value, Unit: unit, Tag: tag, Source: source, Label: label}
}

// Round1 rounds to one decimal place, the precision every numeric
// reading is emitted with.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Merge returns a copy of base overlaid with over; over wins on
// key collision. Either argument may be nil.
func Merge(base, over Family) Family {
	out := make(Family, len(base)+len(over))
	for k, r := range base {
		out[k] = r
	}
	for k, r := range over {
		out[k] = r
	}
	return out
}

// Float extracts a numeric reading value, tolerating the integer types
// the backends produce. ok is false for non-numeric values.
func Float(r Reading) (float64, bool) {
	switch v := r.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	}
	return 0, false
}
