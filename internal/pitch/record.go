package pitch

import (
	"encoding/binary"
	"fmt"
)

// OrderStatus is the Sequence Tracker's verdict for a sequenced packet.
type OrderStatus uint8

const (
	StatusUnsequenced OrderStatus = iota
	StatusFirst
	StatusInOrder
	StatusLate
	StatusEarly
	StatusDuplicate
)

func (s OrderStatus) String() string {
	switch s {
	case StatusUnsequenced:
		return "UNSEQUENCED"
	case StatusFirst:
		return "FIRST"
	case StatusInOrder:
		return "IN_ORDER"
	case StatusLate:
		return "LATE"
	case StatusEarly:
		return "EARLY"
	case StatusDuplicate:
		return "DUPLICATE"
	default:
		return "UNKNOWN"
	}
}

// RecordHeaderSize is the fixed size in bytes of a binary log record
// header, not including the variable-length payload that follows it.
const RecordHeaderSize = 30

// MaxStoredPayload is the maximum number of payload bytes retained per
// journal record.
const MaxStoredPayload = 256

// RecordHeader is the fixed 30-byte header prefixed to every journal
// entry. Fields are packed with no padding and little-endian, except
// SrcIP, which is stored as its network-byte-order address bytes; this
// matches the wire layout of the original capture tool's BinaryLogRecord.
type RecordHeader struct {
	TimestampNs   uint64 // wall-clock capture time, nanoseconds since epoch
	PacketID      uint32 // monotonic counter assigned by Ingress
	Sequence      uint32 // copied from header
	SrcIP         uint32 // source IPv4, network byte order
	Port          uint16 // receiving port
	Length        uint16 // original packet length
	Count         uint8  // header message count
	Unit          uint8  // header unit
	PacketType    PacketType
	OrderStatus   OrderStatus
	PayloadLength uint16 // number of payload bytes stored, <= MaxStoredPayload
}

// Encode writes the 30-byte header into buf, which must have length
// at least RecordHeaderSize.
func (h RecordHeader) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.TimestampNs)
	binary.LittleEndian.PutUint32(buf[8:12], h.PacketID)
	binary.LittleEndian.PutUint32(buf[12:16], h.Sequence)
	// src_ip is stored as the raw network-byte-order address bytes, not
	// as a little-endian integer, so it round-trips through IPToUint32
	// unchanged regardless of host endianness.
	binary.BigEndian.PutUint32(buf[16:20], h.SrcIP)
	binary.LittleEndian.PutUint16(buf[20:22], h.Port)
	binary.LittleEndian.PutUint16(buf[22:24], h.Length)
	buf[24] = h.Count
	buf[25] = h.Unit
	buf[26] = byte(h.PacketType)
	buf[27] = byte(h.OrderStatus)
	binary.LittleEndian.PutUint16(buf[28:30], h.PayloadLength)
}

// DecodeRecordHeader parses a 30-byte record header from the front of buf.
func DecodeRecordHeader(buf []byte) (RecordHeader, error) {
	if len(buf) < RecordHeaderSize {
		return RecordHeader{}, fmt.Errorf("pitch: record too short for header: %d bytes", len(buf))
	}
	return RecordHeader{
		TimestampNs:   binary.LittleEndian.Uint64(buf[0:8]),
		PacketID:      binary.LittleEndian.Uint32(buf[8:12]),
		Sequence:      binary.LittleEndian.Uint32(buf[12:16]),
		SrcIP:         binary.BigEndian.Uint32(buf[16:20]),
		Port:          binary.LittleEndian.Uint16(buf[20:22]),
		Length:        binary.LittleEndian.Uint16(buf[22:24]),
		Count:         buf[24],
		Unit:          buf[25],
		PacketType:    PacketType(buf[26]),
		OrderStatus:   OrderStatus(buf[27]),
		PayloadLength: binary.LittleEndian.Uint16(buf[28:30]),
	}, nil
}

// EncodeRecord builds a full journal entry: the 30-byte header followed
// by min(len(payload), MaxStoredPayload) bytes of payload. header.Length
// is written as given; header.PayloadLength is overwritten with the
// number of payload bytes actually stored.
func EncodeRecord(header RecordHeader, payload []byte) []byte {
	n := len(payload)
	if n > MaxStoredPayload {
		n = MaxStoredPayload
	}
	header.PayloadLength = uint16(n)

	entry := make([]byte, RecordHeaderSize+n)
	header.Encode(entry[:RecordHeaderSize])
	copy(entry[RecordHeaderSize:], payload[:n])
	return entry
}
