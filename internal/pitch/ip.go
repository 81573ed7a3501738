package pitch

import "net"

// IPToUint32 packs an IPv4 address into its network-byte-order uint32
// representation for compact storage in a record header. Non-IPv4
// addresses encode as 0.
func IPToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}
