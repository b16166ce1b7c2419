// Package daemon runs the line-oriented command loop: one single-word
// command per stdin line, one JSON object per stdout line.
package daemon

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"hostprobe/internal/sensor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshotter is the collector surface the command loop drives.
type Snapshotter interface {
	Prime() error
	Collect() sensor.Snapshot
	CollectRaw() sensor.Snapshot
	ClearCache()
}

// Daemon processes one command at a time and produces exactly one
// output line per recognized command before reading the next.
type Daemon struct {
	col Snapshotter
	in  io.Reader
	out io.Writer
}

func New(col Snapshotter, in io.Reader, out io.Writer) *Daemon {
	return &Daemon{col: col, in: in, out: out}
}

// Run primes the provider, signals readiness, then serves commands
// until "exit" or EOF. A prime failure is the only fatal error.
func (d *Daemon) Run() error {
	if err := d.col.Prime(); err != nil {
		return fmt.Errorf("prime cpu counters: %w", err)
	}
	w := bufio.NewWriter(d.out)
	if err := writeLine(w, statusLine("ready")); err != nil {
		return err
	}

	sc := bufio.NewScanner(d.in)
	for sc.Scan() {
		var line []byte
		switch strings.TrimSpace(sc.Text()) {
		case "collect":
			line = snapshotLine(d.col.Collect)
		case "collect_all_raw":
			line = snapshotLine(d.col.CollectRaw)
		case "clear_cache":
			d.col.ClearCache()
			line = statusLine("cache_cleared")
		case "exit":
			return nil
		default:
			// empty and unknown lines are no-ops
			continue
		}
		if err := writeLine(w, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// snapshotLine serializes one snapshot, converting any panic or
// marshal failure into a structured error line so the loop survives.
func snapshotLine(collect func() sensor.Snapshot) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			out = errorLine(fmt.Sprint(r))
		}
	}()
	b, err := json.Marshal(collect())
	if err != nil {
		return errorLine(err.Error())
	}
	return b
}

func statusLine(status string) []byte {
	b, _ := json.Marshal(map[string]string{"status": status})
	return b
}

func errorLine(msg string) []byte {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}

func writeLine(w *bufio.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
