package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_HeartbeatRequiresShortLength(t *testing.T) {
	h := Header{Sequence: 0, Count: 0}
	assert.Equal(t, Heartbeat, Classify(h, 8))
	assert.Equal(t, Heartbeat, Classify(h, heartbeatMaxLength))
}

func TestClassify_AdminWhenLongerThanHeartbeatThreshold(t *testing.T) {
	h := Header{Sequence: 0, Count: 0}
	assert.Equal(t, Admin, Classify(h, heartbeatMaxLength+1))
}

func TestClassify_UnsequencedWhenCountNonZero(t *testing.T) {
	h := Header{Sequence: 0, Count: 3}
	assert.Equal(t, Unsequenced, Classify(h, 40))
}

func TestClassify_DataWhenSequenceNonZero(t *testing.T) {
	h := Header{Sequence: 1, Count: 1}
	assert.Equal(t, Data, Classify(h, 40))
}

func TestValidate_RejectsShortPacket(t *testing.T) {
	assert.False(t, Validate(Header{Length: 8}, 4, 2048))
}

func TestValidate_RejectsZeroHeaderLength(t *testing.T) {
	assert.False(t, Validate(Header{Length: 0}, 100, 2048))
}

func TestValidate_RejectsHeaderLengthAboveMaxBuf(t *testing.T) {
	assert.False(t, Validate(Header{Length: 4096}, 100, 2048))
}

func TestValidate_AppliesHundredByteTolerance(t *testing.T) {
	assert.True(t, Validate(Header{Length: 150}, 50, 2048))
	assert.False(t, Validate(Header{Length: 151}, 50, 2048))
}

func TestValidate_AcceptsWellFormedPacket(t *testing.T) {
	assert.True(t, Validate(Header{Length: 40}, 40, 2048))
}
