// Package pipeline wires ingress, classification, sequence tracking,
// and journaling into the five-step per-packet sequence: receive,
// validate, classify, track, journal.
package pipeline

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"pitch-capture/internal/ingress"
	"pitch-capture/internal/journal"
	"pitch-capture/internal/pitch"
	"pitch-capture/internal/stats"
	"pitch-capture/internal/tracker"
	"pitch-capture/pkg/types"
)

// Config controls the driver's per-packet policy and reporting cadence.
type Config struct {
	MaxBuf         int
	SkipHeartbeats bool
	StatsInterval  uint64 // log a report every N total packets, 0 disables
	FlushInterval  uint64 // drain the journal every N total packets, 0 disables
}

// Driver pulls datagrams from a PacketSource and runs each one through
// validation, classification, sequence tracking, and journaling.
type Driver struct {
	cfg       Config
	source    ingress.PacketSource
	journal   *journal.Journal
	tracker   *tracker.Tracker
	collector *stats.Collector
	reporter  *stats.Reporter
}

// New assembles a Driver from its already-constructed components.
func New(cfg Config, source ingress.PacketSource, j *journal.Journal, collector *stats.Collector, reporter *stats.Reporter) *Driver {
	if cfg.MaxBuf <= 0 {
		cfg.MaxBuf = 2048
	}
	return &Driver{
		cfg:       cfg,
		source:    source,
		journal:   j,
		tracker:   tracker.New(),
		collector: collector,
		reporter:  reporter,
	}
}

// Run consumes datagrams until ctx is cancelled or the journal reports a
// fatal writer error, whichever comes first. It returns the error that
// ended the loop, or nil on a clean context cancellation.
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-d.journal.Errors():
			if ok {
				log.WithError(err).Error("pipeline: journal writer failed, stopping capture")
				return err
			}

		case dg, ok := <-d.source.Packets():
			if !ok {
				return nil
			}
			d.process(dg)
		}
	}
}

// process runs a single datagram through validate, classify, track, and
// journal, in that order, updating statistics as it goes.
func (d *Driver) process(dg types.Datagram) {
	d.collector.IncrementTotal()

	h, err := pitch.ParseHeader(dg.Data)
	if err != nil || !pitch.Validate(h, len(dg.Data), d.cfg.MaxBuf) {
		d.collector.IncrementInvalid()
		log.WithFields(log.Fields{
			"packet_id": dg.PacketID,
			"port":      dg.Port,
			"length":    len(dg.Data),
		}).Warn("pipeline: invalid packet dropped")
		return
	}

	ptype := pitch.Classify(h, len(dg.Data))
	if ptype == pitch.Heartbeat && d.cfg.SkipHeartbeats {
		d.collector.IncrementHeartbeatsSkipped()
		return
	}

	status := d.tracker.Classify(h.Sequence, h.Count, dg.Port, h.Unit)

	switch ptype {
	case pitch.Data:
		d.collector.IncrementData()
	case pitch.Admin:
		d.collector.IncrementAdmin()
	case pitch.Unsequenced:
		d.collector.IncrementUnsequenced()
	}
	switch status {
	case pitch.StatusLate, pitch.StatusEarly:
		d.collector.IncrementOutOfOrder()
	case pitch.StatusDuplicate:
		d.collector.IncrementDuplicate()
	}

	header := pitch.RecordHeader{
		TimestampNs: uint64(time.Now().UnixNano()),
		PacketID:    dg.PacketID,
		Sequence:    h.Sequence,
		SrcIP:       pitch.IPToUint32(dg.SrcIP),
		Port:        dg.Port,
		Length:      uint16(len(dg.Data)),
		Count:       h.Count,
		Unit:        h.Unit,
		PacketType:  ptype,
		OrderStatus: status,
	}
	d.journal.Submit(header, dg.Data)

	total := d.collector.Total()
	if d.cfg.StatsInterval > 0 && total%d.cfg.StatsInterval == 0 {
		d.reporter.Report()
	}
	if d.cfg.FlushInterval > 0 && total%d.cfg.FlushInterval == 0 {
		d.journal.Drain()
	}
}
