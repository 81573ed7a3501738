// Package stats aggregates session counters for the capture pipeline
// and reports them periodically and on shutdown.
package stats

import (
	"sync/atomic"
	"time"
)

// Collector holds the Session Statistics counters from the data model:
// total packets seen, heartbeats filtered, per-type counts, and
// sequencing anomaly counts. All fields are updated with atomics so the
// periodic reporter can read them from a different goroutine than the
// dispatch loop that mutates them.
type Collector struct {
	startTime time.Time

	total              atomic.Uint64
	invalid            atomic.Uint64
	heartbeatsSkipped  atomic.Uint64
	data               atomic.Uint64
	admin              atomic.Uint64
	unsequenced        atomic.Uint64
	outOfOrder         atomic.Uint64
	duplicates         atomic.Uint64
}

// New creates a Collector with its start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) IncrementTotal()             { c.total.Add(1) }
func (c *Collector) IncrementInvalid()           { c.invalid.Add(1) }
func (c *Collector) IncrementHeartbeatsSkipped() { c.heartbeatsSkipped.Add(1) }
func (c *Collector) IncrementData()              { c.data.Add(1) }
func (c *Collector) IncrementAdmin()             { c.admin.Add(1) }
func (c *Collector) IncrementUnsequenced()       { c.unsequenced.Add(1) }
func (c *Collector) IncrementOutOfOrder()        { c.outOfOrder.Add(1) }
func (c *Collector) IncrementDuplicate()         { c.duplicates.Add(1) }

// Total returns the running total packet count, including invalid and
// filtered packets.
func (c *Collector) Total() uint64 { return c.total.Load() }

// Snapshot is an immutable point-in-time copy of the counters, safe to
// pass around and format without further synchronization.
type Snapshot struct {
	Elapsed           time.Duration
	Total             uint64
	Invalid           uint64
	HeartbeatsSkipped uint64
	Data              uint64
	Admin             uint64
	Unsequenced       uint64
	OutOfOrder        uint64
	Duplicates        uint64
}

// Snapshot takes a consistent-enough snapshot of all counters for
// reporting. Counters may be updated individually out of lockstep with
// each other since they're independent atomics; this is acceptable for
// a diagnostic report.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Elapsed:           time.Since(c.startTime),
		Total:             c.total.Load(),
		Invalid:           c.invalid.Load(),
		HeartbeatsSkipped: c.heartbeatsSkipped.Load(),
		Data:              c.data.Load(),
		Admin:             c.admin.Load(),
		Unsequenced:       c.unsequenced.Load(),
		OutOfOrder:        c.outOfOrder.Load(),
		Duplicates:        c.duplicates.Load(),
	}
}

// PacketsPerSecond returns the throughput implied by this snapshot.
func (s Snapshot) PacketsPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Total) / secs
}
