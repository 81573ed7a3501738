//go:build ignore

// This program generates a sample PITCH-over-multicast-UDP pcap file for
// testing the capture pipeline against a real network trace.
package main

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func main() {
	filename := "test/testdata/sample.pcap"
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}

	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		panic(err)
	}

	srcIP := net.ParseIP("192.168.1.10")
	groupIP := net.ParseIP("233.218.133.80")
	srcMAC, _ := net.ParseMAC("00:11:22:33:44:55")
	dstMAC, _ := net.ParseMAC("01:00:5e:5a:85:50")
	ts := time.Now()

	writePacket := func(port uint16, hdr []byte, timestamp time.Time) {
		eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
		ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: srcIP, DstIP: groupIP}
		udp := &layers.UDP{SrcPort: 30000, DstPort: layers.UDPPort(port)}
		udp.SetNetworkLayerForChecksum(ip)

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		payload := gopacket.Payload(hdr)
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, payload); err != nil {
			panic(fmt.Sprintf("failed to serialize: %v", err))
		}

		ci := gopacket.CaptureInfo{Timestamp: timestamp, CaptureLength: len(buf.Bytes()), Length: len(buf.Bytes())}
		if err := w.WritePacket(ci, buf.Bytes()); err != nil {
			panic(fmt.Sprintf("failed to write packet: %v", err))
		}
	}

	// sequencedUnit builds an 8-byte CBOE sequenced-unit header plus a
	// small filler payload of the requested total length.
	sequencedUnit := func(length uint16, count, unit uint8, seq uint32) []byte {
		buf := make([]byte, length)
		binary.LittleEndian.PutUint16(buf[0:2], length)
		buf[2] = count
		buf[3] = unit
		binary.LittleEndian.PutUint32(buf[4:8], seq)
		return buf
	}

	const port1, port2 uint16 = 30501, 30502

	// Heartbeat: unsequenced, zero count, short.
	writePacket(port1, sequencedUnit(8, 0, 1, 0), ts)
	ts = ts.Add(time.Millisecond)

	// First data packet on unit 1, sequence 1, two messages.
	writePacket(port1, sequencedUnit(40, 2, 1, 1), ts)
	ts = ts.Add(time.Millisecond)

	// In-order continuation.
	writePacket(port1, sequencedUnit(30, 1, 1, 3), ts)
	ts = ts.Add(time.Millisecond)

	// Out-of-order: skips ahead, creating a gap the tracker should mark early.
	writePacket(port1, sequencedUnit(30, 1, 1, 6), ts)
	ts = ts.Add(time.Millisecond)

	// Gap fill: 4 and 5 arrive in order, after which the pending 6 is
	// absorbed.
	writePacket(port1, sequencedUnit(20, 1, 1, 4), ts)
	ts = ts.Add(time.Millisecond)
	writePacket(port1, sequencedUnit(20, 1, 1, 5), ts)
	ts = ts.Add(time.Millisecond)

	// Duplicate of an already-confirmed sequence.
	writePacket(port1, sequencedUnit(30, 1, 1, 1), ts)
	ts = ts.Add(time.Millisecond)

	// Second port, independent unit, first packet.
	writePacket(port2, sequencedUnit(40, 1, 2, 1), ts)
	ts = ts.Add(time.Millisecond)

	// Admin packet: unsequenced, zero count, long.
	writePacket(port2, sequencedUnit(64, 0, 2, 0), ts)

	fmt.Printf("Generated %s with PITCH sequenced-unit packets:\n", filename)
	fmt.Println("  1x heartbeat")
	fmt.Println("  6x data (port1/unit1): first, in-order, early, two gap-fills, duplicate")
	fmt.Println("  1x data (port2/unit2): first")
	fmt.Println("  1x admin (port2/unit2)")
	fmt.Printf("  Total: 9 packets\n")
}
