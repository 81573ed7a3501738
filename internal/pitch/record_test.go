package pitch

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecord_RoundTrip(t *testing.T) {
	header := RecordHeader{
		TimestampNs: 1700000000000000000,
		PacketID:    42,
		Sequence:    100,
		SrcIP:       IPToUint32(net.ParseIP("10.0.0.5")),
		Port:        30501,
		Length:      64,
		Count:       1,
		Unit:        3,
		PacketType:  Data,
		OrderStatus: StatusInOrder,
	}
	payload := []byte("some market data payload bytes")

	entry := EncodeRecord(header, payload)
	require.Len(t, entry, RecordHeaderSize+len(payload))

	decoded, err := DecodeRecordHeader(entry)
	require.NoError(t, err)

	assert.Equal(t, header.TimestampNs, decoded.TimestampNs)
	assert.Equal(t, header.PacketID, decoded.PacketID)
	assert.Equal(t, header.Sequence, decoded.Sequence)
	assert.Equal(t, header.SrcIP, decoded.SrcIP)
	assert.Equal(t, header.Port, decoded.Port)
	assert.Equal(t, header.Length, decoded.Length)
	assert.Equal(t, header.Count, decoded.Count)
	assert.Equal(t, header.Unit, decoded.Unit)
	assert.Equal(t, header.PacketType, decoded.PacketType)
	assert.Equal(t, header.OrderStatus, decoded.OrderStatus)
	assert.Equal(t, uint16(len(payload)), decoded.PayloadLength)
	assert.Equal(t, payload, entry[RecordHeaderSize:])
}

func TestEncodeRecord_TruncatesPayloadAt256Bytes(t *testing.T) {
	payload := make([]byte, 400)
	for i := range payload {
		payload[i] = byte(i)
	}

	entry := EncodeRecord(RecordHeader{}, payload)
	decoded, err := DecodeRecordHeader(entry)
	require.NoError(t, err)

	assert.Equal(t, uint16(MaxStoredPayload), decoded.PayloadLength)
	assert.Len(t, entry, RecordHeaderSize+MaxStoredPayload)
	assert.Equal(t, payload[:MaxStoredPayload], entry[RecordHeaderSize:])
}

func TestIPToUint32_RoundTripsThroughBigEndianBytes(t *testing.T) {
	ip := net.ParseIP("192.168.1.10")
	entry := EncodeRecord(RecordHeader{SrcIP: IPToUint32(ip)}, nil)
	decoded, err := DecodeRecordHeader(entry)
	require.NoError(t, err)

	reconstructed := net.IPv4(
		byte(decoded.SrcIP>>24),
		byte(decoded.SrcIP>>16),
		byte(decoded.SrcIP>>8),
		byte(decoded.SrcIP),
	)
	assert.True(t, ip.Equal(reconstructed))
}

func TestParseHeader_RejectsShortBuffer(t *testing.T) {
	_, err := ParseHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestLookupMessageType_KnownAndUnknown(t *testing.T) {
	info, ok := LookupMessageType(0x37)
	require.True(t, ok)
	assert.Equal(t, "ADD_ORDER", info.Name)

	_, ok = LookupMessageType(0xFF)
	assert.False(t, ok)
}
