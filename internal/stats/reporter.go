package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// lowThroughputWarningPackets is the packet count beyond which a
// sustained rate below lowThroughputPPS is worth flagging; matches the
// original capture tool's 100K-packet warm-up before it judges
// throughput.
const lowThroughputWarningPackets = 100_000

// lowThroughputPPS is the target sustained rate below which the report
// appends a warning.
const lowThroughputPPS = 50_000

// Reporter formats Collector snapshots for periodic console reports and
// the final shutdown summary, and can export the final snapshot as JSON.
type Reporter struct {
	collector  *Collector
	exportFile string
}

// NewReporter creates a Reporter over collector. exportFile may be empty
// to disable JSON export.
func NewReporter(collector *Collector, exportFile string) *Reporter {
	return &Reporter{collector: collector, exportFile: exportFile}
}

// StartPeriodicReport logs a performance report every interval until ctx
// is cancelled. A non-positive interval disables periodic reporting.
func (r *Reporter) StartPeriodicReport(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Info(r.FormatReport())
			}
		}
	}()
}

// Report logs a single performance report immediately.
func (r *Reporter) Report() {
	log.Info(r.FormatReport())
}

// PrintFinalReport logs the final statistics summary on shutdown.
func (r *Reporter) PrintFinalReport() {
	log.Info(r.FormatReport())
}

// FormatReport builds the human-readable performance line, matching the
// "PERFORMANCE: N packets, R pps, Es elapsed[, ...]" shape of the
// original capture tool's report.
func (r *Reporter) FormatReport() string {
	s := r.collector.Snapshot()
	pps := s.PacketsPerSecond()

	msg := fmt.Sprintf("PERFORMANCE: %d packets, %.0f pps, %.1fs elapsed", s.Total, pps, s.Elapsed.Seconds())

	if s.HeartbeatsSkipped > 0 {
		msg += fmt.Sprintf(", %d heartbeats skipped", s.HeartbeatsSkipped)
	}
	if s.OutOfOrder > 0 || s.Duplicates > 0 {
		msg += fmt.Sprintf(", %d OOO, %d dups", s.OutOfOrder, s.Duplicates)
	}
	if s.Invalid > 0 {
		msg += fmt.Sprintf(", %d invalid", s.Invalid)
	}
	if pps < lowThroughputPPS && s.Total > lowThroughputWarningPackets {
		msg += " [WARNING: below 50K pps target]"
	}
	return msg
}

// ExportJSON writes the final snapshot to the configured export file.
// A no-op if no export file was configured.
func (r *Reporter) ExportJSON() error {
	if r.exportFile == "" {
		return nil
	}

	s := r.collector.Snapshot()
	export := map[string]interface{}{
		"elapsed_sec":        s.Elapsed.Seconds(),
		"total":              s.Total,
		"invalid":            s.Invalid,
		"heartbeats_skipped": s.HeartbeatsSkipped,
		"data":               s.Data,
		"admin":              s.Admin,
		"unsequenced":        s.Unsequenced,
		"out_of_order":       s.OutOfOrder,
		"duplicates":         s.Duplicates,
		"packets_per_second": s.PacketsPerSecond(),
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: failed to marshal statistics: %w", err)
	}
	if err := os.WriteFile(r.exportFile, data, 0o644); err != nil {
		return fmt.Errorf("stats: failed to write statistics file %s: %w", r.exportFile, err)
	}
	log.WithField("file", r.exportFile).Info("statistics exported to JSON")
	return nil
}
