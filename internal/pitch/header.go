// Package pitch implements the CBOE PITCH sequenced-unit framing: the
// 8-byte wire header, packet classification, and the 30-byte binary log
// record format. It interprets only message framing, never message
// bodies.
package pitch

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the length in bytes of the sequenced-unit header.
const HeaderSize = 8

// Header is the CBOE sequenced-unit header prefix of every packet.
type Header struct {
	Length   uint16 // hdr_length: total packet length as declared by sender
	Count    uint8  // hdr_count: number of messages in the packet
	Unit     uint8  // hdr_unit: channel identifier within the port
	Sequence uint32 // hdr_sequence: 1-based sequence, 0 for unsequenced
}

// ParseHeader reads the 8-byte sequenced-unit header from the front of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("pitch: packet too short for header: %d bytes", len(buf))
	}
	return Header{
		Length:   binary.LittleEndian.Uint16(buf[0:2]),
		Count:    buf[2],
		Unit:     buf[3],
		Sequence: binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}
