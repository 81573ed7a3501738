// Package tracker implements the per-channel sequence tracking state
// machine: for every (port, unit) pair it classifies each sequenced
// packet as first, in-order, early, late, or duplicate, and advances a
// confirmed high-watermark as gaps fill.
package tracker

import "pitch-capture/internal/pitch"

type channelKey struct {
	port uint16
	unit uint8
}

// ChannelState is the per-(port,unit) sequencing state. last_confirmed_seq
// is the highest sequence for which this and all prior sequences have
// been delivered; highest_seen_seq is the highest sequence ever observed;
// pending holds sequences received out of order, strictly greater than
// last_confirmed_seq+1, awaiting gap fill.
type ChannelState struct {
	LastConfirmed uint32
	HighestSeen   uint32
	Pending       map[uint32]struct{}
}

// Tracker owns the sequencing state for every (port, unit) channel seen
// so far. It is not safe for concurrent use: the pipeline driver is its
// sole caller, invoked synchronously on the ingress thread's logical
// successor (the dispatch goroutine).
type Tracker struct {
	channels map[channelKey]*ChannelState
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{channels: make(map[channelKey]*ChannelState)}
}

// Classify determines the order status of a sequenced packet on channel
// (port, unit), updating that channel's state as a side effect. seq == 0
// denotes an unsequenced packet and leaves state untouched. A gap-filling
// sequence at or below the previously-seen high-watermark is LATE; one
// beyond it is EARLY, since it is the first sighting of that ground.
func (t *Tracker) Classify(seq uint32, count uint8, port uint16, unit uint8) pitch.OrderStatus {
	if seq == 0 {
		return pitch.StatusUnsequenced
	}

	key := channelKey{port: port, unit: unit}
	ch, ok := t.channels[key]
	if !ok {
		ch = &ChannelState{Pending: make(map[uint32]struct{})}
		t.channels[key] = ch
	}

	n := uint32(1)
	if count > 0 {
		n = uint32(count)
	}

	// Overflow guard: if s + n - 1 would wrap past uint32 max, treat the
	// packet as covering only its own sequence. Computed in 64 bits to
	// avoid the wraparound we are trying to detect.
	if uint64(seq) > uint64(^uint32(0))-uint64(n)+1 {
		n = 1
	}

	// First packet for this channel.
	if ch.LastConfirmed == 0 && ch.HighestSeen == 0 {
		ch.LastConfirmed = seq + n - 1
		ch.HighestSeen = seq + n - 1
		return pitch.StatusFirst
	}

	expected := ch.LastConfirmed + 1

	switch {
	case seq == expected:
		ch.LastConfirmed = seq + n - 1
		for i := uint32(0); i < n; i++ {
			delete(ch.Pending, seq+i)
		}
		absorb(ch)
		if ch.LastConfirmed > ch.HighestSeen {
			ch.HighestSeen = ch.LastConfirmed
		}
		return pitch.StatusInOrder

	case seq < expected:
		// expected == LastConfirmed+1, so seq < expected always means
		// seq <= LastConfirmed: already confirmed, hence a replay.
		return pitch.StatusDuplicate

	default: // seq > expected: a gap exists before this sequence.
		prevHighest := ch.HighestSeen
		for i := uint32(0); i < n; i++ {
			ch.Pending[seq+i] = struct{}{}
		}
		if end := seq + n - 1; end > ch.HighestSeen {
			ch.HighestSeen = end
		}
		// Within the window already seen, this is a gap fill arriving
		// late; beyond it, this is the first sighting of new ground.
		if seq <= prevHighest {
			return pitch.StatusLate
		}
		return pitch.StatusEarly
	}
}

// absorb repeatedly checks whether last_confirmed+1 is pending; if so it
// scans forward through pending to the largest contiguous run starting
// there, advances last_confirmed to the run's end, and removes the run.
func absorb(ch *ChannelState) {
	for {
		next := ch.LastConfirmed + 1
		if _, ok := ch.Pending[next]; !ok {
			return
		}
		end := next
		for {
			if _, ok := ch.Pending[end+1]; !ok {
				break
			}
			end++
		}
		for s := next; s <= end; s++ {
			delete(ch.Pending, s)
		}
		ch.LastConfirmed = end
	}
}

// Snapshot returns a copy of the current state for (port, unit), if the
// channel has been seen.
func (t *Tracker) Snapshot(port uint16, unit uint8) (ChannelState, bool) {
	ch, ok := t.channels[channelKey{port: port, unit: unit}]
	if !ok {
		return ChannelState{}, false
	}
	pending := make(map[uint32]struct{}, len(ch.Pending))
	for s := range ch.Pending {
		pending[s] = struct{}{}
	}
	return ChannelState{LastConfirmed: ch.LastConfirmed, HighestSeen: ch.HighestSeen, Pending: pending}, true
}

// Reset discards all tracked channel state.
func (t *Tracker) Reset() {
	t.channels = make(map[channelKey]*ChannelState)
}

// Count returns the number of distinct (port, unit) channels tracked.
func (t *Tracker) Count() int {
	return len(t.channels)
}
