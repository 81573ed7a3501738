// Package ingress owns the two multicast UDP endpoints that feed the
// capture pipeline. Each received datagram is assigned a monotonic
// packet_id and delivered, in receive order per socket, to a shared
// channel consumed by exactly one dispatcher.
package ingress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"pitch-capture/pkg/types"
)

// readinessWait is the bounded timeout on each socket read, standing in
// for the original poll()-based readiness wait: a stop signal is
// observed within roughly this interval.
const readinessWait = 100 * time.Millisecond

// minRecvBuffer is the mandatory receive buffer floor per socket.
const minRecvBuffer = 64 * 1024 * 1024

// PacketSource is the interface the pipeline driver consumes. An
// alternate transport (e.g. a message-queue-backed bridge) may
// substitute for Receiver as long as it delivers the same
// (packet_id, port, bytes, source_ip) tuple shape; the driver does not
// care which.
type PacketSource interface {
	Packets() <-chan types.Datagram
	Close() error
}

// Config describes the two multicast endpoints Receiver joins.
type Config struct {
	MulticastGroup string
	Port1          uint16
	Port2          uint16
	MaxBuf         int
}

// Receiver is the default PacketSource: two UDP sockets joined to a
// multicast group, each read by its own goroutine, feeding one shared
// channel so that downstream dispatch happens on a single goroutine.
type Receiver struct {
	cfg   Config
	conns []*net.UDPConn
	ports []uint16

	out    chan types.Datagram
	nextID atomic.Uint32

	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New binds and joins both configured multicast ports. Bind or join
// failure is a fatal initialization error.
func New(cfg Config) (*Receiver, error) {
	if cfg.MaxBuf <= 0 {
		cfg.MaxBuf = 2048
	}

	ports := []uint16{cfg.Port1, cfg.Port2}
	conns := make([]*net.UDPConn, 0, len(ports))
	for _, port := range ports {
		conn, err := joinMulticast(cfg.MulticastGroup, port)
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return nil, err
		}
		conns = append(conns, conn)
	}

	return &Receiver{
		cfg:   cfg,
		conns: conns,
		ports: ports,
		out:   make(chan types.Datagram, 4096),
	}, nil
}

func joinMulticast(group string, port uint16) (*net.UDPConn, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(group), Port: int(port)}
	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("ingress: failed to join multicast group %s on port %d: %w", group, port, err)
	}
	if err := conn.SetReadBuffer(minRecvBuffer); err != nil {
		log.WithError(err).WithField("port", port).Warn("ingress: kernel refused requested receive buffer size")
	}
	return conn, nil
}

// Start launches one reader goroutine per socket. It returns
// immediately; received datagrams arrive on Packets().
func (r *Receiver) Start(ctx context.Context) {
	for i, conn := range r.conns {
		r.wg.Add(1)
		go r.readLoop(ctx, conn, r.ports[i])
	}
	go func() {
		<-ctx.Done()
		r.stopped.Store(true)
		for _, c := range r.conns {
			_ = c.SetReadDeadline(time.Now())
		}
	}()
}

// Packets returns the shared channel of received datagrams across both
// ports, in the order each socket produced them.
func (r *Receiver) Packets() <-chan types.Datagram {
	return r.out
}

func (r *Receiver) readLoop(ctx context.Context, conn *net.UDPConn, port uint16) {
	defer r.wg.Done()

	buf := make([]byte, r.cfg.MaxBuf)
	for {
		if ctx.Err() != nil || r.stopped.Load() {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readinessWait))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if r.stopped.Load() || ctx.Err() != nil {
				return
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue // timeout, re-check stop flag
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			log.WithError(err).WithField("port", port).Warn("ingress: socket error, terminating reader")
			return
		}

		id := r.nextID.Add(1)
		data := make([]byte, n)
		copy(data, buf[:n])

		dg := types.Datagram{PacketID: id, Port: port, Data: data, SrcIP: addr.IP}
		select {
		case r.out <- dg:
		case <-ctx.Done():
			return
		}
	}
}

// Close stops both readers and releases both sockets. Sockets are
// released only after the read loops have exited.
func (r *Receiver) Close() error {
	r.stopped.Store(true)
	for _, c := range r.conns {
		_ = c.SetReadDeadline(time.Now())
	}
	r.wg.Wait()

	var firstErr error
	for _, c := range r.conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	close(r.out)
	return firstErr
}
