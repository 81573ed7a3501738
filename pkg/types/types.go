package types

import "net"

// Datagram is a single received unit handed from Ingress to the pipeline
// driver: a monotonic packet_id, the receiving port, the raw payload, and
// the sender's address. It is borrowed, not copied, until the journal
// serializes it.
type Datagram struct {
	PacketID uint32
	Port     uint16
	Data     []byte
	SrcIP    net.IP
}
