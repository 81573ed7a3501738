// Package journal implements the bounded asynchronous binary journal:
// a single-producer/multi-consumer queue of serialized packet records
// drained by a fixed pool of writer goroutines into rotating,
// size-capped files. The producer blocks rather than drops when the
// queue saturates.
package journal

import (
	"fmt"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"pitch-capture/internal/pitch"
)

// Config controls queue capacity, writer concurrency, and file rotation.
type Config struct {
	Dir         string // directory containing the active and rotated files
	FilePrefix  string // e.g. "packets_binary.log"
	MaxFileSize int64  // rotation threshold in bytes
	Retention   int    // number of rotated files to keep beyond the active one
	QueueSize   int    // bounded channel capacity
	Writers     int    // size of the writer pool
}

// Journal is the bounded producer/consumer binary log pipeline described
// in the component design: Submit serializes and enqueues, never
// failing on the caller; a pool of writers drains the queue into a
// size-rotated file sequence.
type Journal struct {
	cfg Config
	fs  afero.Fs

	queue chan []byte
	wg    sync.WaitGroup

	fileMu      sync.Mutex
	file        afero.File
	curSize     int64
	activePath  string

	pending atomic.Int64
	failed  atomic.Bool
	errCh   chan error
	closeOnce sync.Once
}

// New creates a Journal backed by fs (afero.NewOsFs() in production,
// afero.NewMemMapFs() in tests) and starts its writer pool.
func New(cfg Config, fs afero.Fs) (*Journal, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1 << 20
	}
	if cfg.Writers <= 0 {
		cfg.Writers = 4
	}
	if err := fs.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: failed to create log directory %s: %w", cfg.Dir, err)
	}

	j := &Journal{
		cfg:        cfg,
		fs:         fs,
		queue:      make(chan []byte, cfg.QueueSize),
		activePath: cfg.Dir + "/" + cfg.FilePrefix,
		errCh:      make(chan error, cfg.Writers),
	}

	for i := 0; i < cfg.Writers; i++ {
		j.wg.Add(1)
		go j.writeLoop()
	}
	return j, nil
}

// Errors returns a channel on which fatal writer errors are reported.
// The pipeline driver selects on this alongside its main loop.
func (j *Journal) Errors() <-chan error {
	return j.errCh
}

// Submit serializes header+payload into a single journal entry and
// enqueues it, blocking until a queue slot is free. It never fails on
// the caller; backpressure is deliberate.
func (j *Journal) Submit(header pitch.RecordHeader, payload []byte) {
	entry := pitch.EncodeRecord(header, payload)
	j.pending.Add(1)
	j.queue <- entry
}

func (j *Journal) writeLoop() {
	defer j.wg.Done()
	for entry := range j.queue {
		if j.failed.Load() {
			j.pending.Add(-1)
			continue
		}
		if err := j.write(entry); err != nil {
			j.failed.Store(true)
			select {
			case j.errCh <- err:
			default:
			}
			log.WithError(err).Error("journal: writer failed, no retry")
		}
		j.pending.Add(-1)
	}
}

func (j *Journal) write(entry []byte) error {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	if j.file == nil {
		if err := j.openActiveLocked(); err != nil {
			return err
		}
	}

	n, err := j.file.Write(entry)
	if err != nil {
		return fmt.Errorf("journal: write failed: %w", err)
	}
	j.curSize += int64(n)

	if j.curSize >= j.cfg.MaxFileSize {
		if err := j.rotateLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) openActiveLocked() error {
	f, err := j.fs.OpenFile(j.activePath, activeFileFlags, 0o644)
	if err != nil {
		return fmt.Errorf("journal: failed to open active file %s: %w", j.activePath, err)
	}
	info, err := f.Stat()
	if err == nil {
		j.curSize = info.Size()
	}
	j.file = f
	return nil
}

// rotateLocked closes the active file, shifts the numbered backlog
// (prefix.1 -> prefix.2, ...) like a conventional rotating file sink,
// unlinking the slot beyond retention before the shift, then opens a
// fresh active file. Called with fileMu held.
func (j *Journal) rotateLocked() error {
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("journal: failed to close active file for rotation: %w", err)
	}
	j.file = nil
	j.curSize = 0

	retention := j.cfg.Retention
	if retention < 1 {
		retention = 1
	}

	oldest := fmt.Sprintf("%s.%d", j.activePath, retention)
	_ = j.fs.Remove(oldest)

	for i := retention - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", j.activePath, i)
		dst := fmt.Sprintf("%s.%d", j.activePath, i+1)
		if exists, _ := afero.Exists(j.fs, src); exists {
			if err := j.fs.Rename(src, dst); err != nil {
				return fmt.Errorf("journal: failed to shift rotated file %s: %w", src, err)
			}
		}
	}

	dst := fmt.Sprintf("%s.1", j.activePath)
	if err := j.fs.Rename(j.activePath, dst); err != nil {
		return fmt.Errorf("journal: failed to rotate active file: %w", err)
	}
	if j.cfg.Retention < 1 {
		_ = j.fs.Remove(dst)
	}

	return j.openActiveLocked()
}

// Drain blocks until every previously-submitted entry has been written
// and syncs the active file. It must not be called concurrently with
// Submit from a different goroutine than the driver's own submit loop.
func (j *Journal) Drain() {
	for j.pending.Load() > 0 {
		runtimeGosched()
	}
	j.fileMu.Lock()
	if j.file != nil {
		_ = j.file.Sync()
	}
	j.fileMu.Unlock()
}

// Close stops accepting new work, waits for the writer pool to drain
// the queue, and closes the active file.
func (j *Journal) Close() error {
	j.closeOnce.Do(func() {
		close(j.queue)
	})
	j.wg.Wait()

	j.fileMu.Lock()
	defer j.fileMu.Unlock()
	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}
