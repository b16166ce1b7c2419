package collect

import "hostprobe/internal/sensor"

// staticCache memoizes facts assumed constant for the process lifetime.
// Absent at startup, populated in full on first demand, retained until
// cleared. Only ever touched from the single command-loop goroutine.
type staticCache struct {
	snap sensor.Snapshot
}

func (c *staticCache) get(populate func() sensor.Snapshot) sensor.Snapshot {
	if c.snap == nil {
		c.snap = populate()
	}
	return c.snap
}

// clear is idempotent; the next get recomputes from the platform.
func (c *staticCache) clear() {
	c.snap = nil
}
