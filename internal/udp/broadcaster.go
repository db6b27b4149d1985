package udp

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)

type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

// Broadcaster writes datagrams to one destination, typically a subnet
// broadcast address listened on by chart plotters.
type Broadcaster struct {
	dest string
	conn udpConn
}

func NewBroadcaster(dest string) (*Broadcaster, error) {
	return newBroadcaster(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		// DialUDP selects a suitable local address automatically.
		return net.DialUDP(network, laddr, raddr)
	})
}

func newBroadcaster(dest string, resolve resolveFunc, dial dialFunc) (*Broadcaster, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	return &Broadcaster{dest: dest, conn: conn}, nil
}

func (b *Broadcaster) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := b.conn.Write(payload)
	return err
}

// Stream sends every frame returned by next, once per interval, until ctx is
// done. Send errors are logged and do not stop the stream.
func (b *Broadcaster) Stream(ctx context.Context, interval time.Duration, next func() [][]byte, logger *zap.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("udp interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var failures uint64
	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for _, frame := range next() {
			if err := b.Send(frame); err != nil {
				failures++
				// Avoid flooding logs when the network is down.
				if failures == 1 || failures%100 == 0 {
					logger.Warn("udp send failed", zap.String("dest", b.dest), zap.Uint64("failures", failures), zap.Error(err))
				}
			}
		}
	}
}

func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
