package engine

import (
	"context"
	"errors"
	"net"

	"dhtcrawl/internal/arena"
)

// maxPacketSize is a 64 KiB receive buffer, large enough for any UDP
// datagram, so no KRPC message is ever truncated on read.
const maxPacketSize = 64 * 1024

// receive runs the crawler's single UDP read loop. Buffers come from a
// small arena instead of a fresh allocation per packet, since this
// loop is the hottest path in the whole crawler and churns through
// far more packets per second than the Go scheduler can afford to let
// the allocator see.
func (e *Engine) receive(ctx context.Context) {
	a := arena.New(maxPacketSize, e.cfg.Fetch.Workers+64)

	go func() {
		<-ctx.Done()
		e.conn.Close()
	}()

	for {
		buf := a.Pop()
		n, raddr, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			a.Push(buf)
			if ctx.Err() != nil {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			continue
		}
		e.processPacket(buf[:n], raddr)
		a.Push(buf)
	}
}
