package journal

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-capture/internal/pitch"
)

func newTestJournal(t *testing.T, cfg Config) (*Journal, afero.Fs) {
	fs := afero.NewMemMapFs()
	if cfg.Dir == "" {
		cfg.Dir = "/logs"
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = "packets_binary.log"
	}
	j, err := New(cfg, fs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, fs
}

func TestJournal_SubmitThenDrainWritesRecord(t *testing.T) {
	j, fs := newTestJournal(t, Config{MaxFileSize: 1 << 20, Writers: 1, QueueSize: 16})

	header := pitch.RecordHeader{PacketID: 1, Sequence: 10}
	payload := []byte("hello")
	j.Submit(header, payload)
	j.Drain()

	data, err := afero.ReadFile(fs, "/logs/packets_binary.log")
	require.NoError(t, err)
	assert.Len(t, data, pitch.RecordHeaderSize+len(payload))

	decoded, err := pitch.DecodeRecordHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), decoded.PacketID)
	assert.Equal(t, uint32(10), decoded.Sequence)
	assert.Equal(t, payload, data[pitch.RecordHeaderSize:])
}

func TestJournal_RecordsConcatenateWithoutSeparator(t *testing.T) {
	j, fs := newTestJournal(t, Config{MaxFileSize: 1 << 20, Writers: 1, QueueSize: 16})

	j.Submit(pitch.RecordHeader{PacketID: 1}, []byte("aa"))
	j.Submit(pitch.RecordHeader{PacketID: 2}, []byte("bbb"))
	j.Drain()

	data, err := afero.ReadFile(fs, "/logs/packets_binary.log")
	require.NoError(t, err)
	assert.Len(t, data, 2*pitch.RecordHeaderSize+2+3)
}

func TestJournal_RotatesWhenSizeThresholdExceeded(t *testing.T) {
	entrySize := int64(pitch.RecordHeaderSize + 10)
	j, fs := newTestJournal(t, Config{MaxFileSize: entrySize, Retention: 3, Writers: 1, QueueSize: 16})

	for i := 0; i < 3; i++ {
		j.Submit(pitch.RecordHeader{PacketID: uint32(i)}, make([]byte, 10))
		j.Drain()
	}

	exists, err := afero.Exists(fs, "/logs/packets_binary.log.1")
	require.NoError(t, err)
	assert.True(t, exists, "expected a rotated file after reaching the size threshold")
}

func TestJournal_RetentionUnlinksOldestSlot(t *testing.T) {
	entrySize := int64(pitch.RecordHeaderSize)
	j, fs := newTestJournal(t, Config{MaxFileSize: entrySize, Retention: 2, Writers: 1, QueueSize: 64})

	// Each submit reaches the threshold, forcing a rotation per record.
	for i := 0; i < 6; i++ {
		j.Submit(pitch.RecordHeader{PacketID: uint32(i)}, nil)
		j.Drain()
	}

	existsBeyondRetention, err := afero.Exists(fs, fmt.Sprintf("/logs/packets_binary.log.%d", 3))
	require.NoError(t, err)
	assert.False(t, existsBeyondRetention, "files beyond the retention count must be unlinked")

	existsWithinRetention, err := afero.Exists(fs, "/logs/packets_binary.log.1")
	require.NoError(t, err)
	assert.True(t, existsWithinRetention)
}

func TestJournal_SubmitNeverBlocksForeverUnderBackpressure(t *testing.T) {
	j, fs := newTestJournal(t, Config{MaxFileSize: 1 << 20, Writers: 1, QueueSize: 2})

	for i := 0; i < 50; i++ {
		j.Submit(pitch.RecordHeader{PacketID: uint32(i)}, []byte("x"))
	}
	j.Drain()

	data, err := afero.ReadFile(fs, "/logs/packets_binary.log")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), int64(50*(pitch.RecordHeaderSize+1)))
}
