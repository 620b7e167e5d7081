// Package scan pkg/scan/icmp.go
package scan

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/time/rate"

	"github.com/netpulse/netpulse/pkg/models"
)

const (
	listenReadDeadline = 100 * time.Millisecond
	replyBufferSize    = 1500
)

// ICMPProber answers host reachability probes with raw-socket echo
// requests. Construction fails without raw socket privileges; callers
// fall back to ExecPinger in that case.
type ICMPProber struct {
	timeout   time.Duration
	limiter   *rate.Limiter
	rawSocket int
	conn      *icmp.PacketConn
	template  []byte
	done      chan struct{}
	mu        sync.Mutex
	pending   map[string]chan time.Time
}

// NewICMPProber opens the raw send socket and the reply listener.
// packetsPerSecond bounds the echo send rate across all callers.
func NewICMPProber(timeout time.Duration, packetsPerSecond int) (*ICMPProber, error) {
	if packetsPerSecond <= 0 {
		packetsPerSecond = 100
	}

	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_ICMP)
	if err != nil {
		return nil, fmt.Errorf("failed to create raw socket: %w", err)
	}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("failed to start ICMP listener: %w", err)
	}

	p := &ICMPProber{
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(packetsPerSecond), packetsPerSecond),
		rawSocket: fd,
		conn:      conn,
		done:      make(chan struct{}),
		pending:   make(map[string]chan time.Time),
	}

	p.buildTemplate()

	go p.listenForReplies()

	return p, nil
}

// Probe sends one echo request and waits for the matching reply.
func (p *ICMPProber) Probe(ctx context.Context, host string) models.ProbeOutcome {
	outcome := models.ProbeOutcome{Host: host}

	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		outcome.State = models.ProbeUnreachable
		return outcome
	}

	reply := make(chan time.Time, 1)

	p.mu.Lock()
	p.pending[host] = reply
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, host)
		p.mu.Unlock()
	}()

	if err := p.limiter.Wait(ctx); err != nil {
		outcome.State = models.ProbeTimeout
		return outcome
	}

	start := time.Now()

	if err := p.sendEcho(ip); err != nil {
		outcome.State = models.ProbeUnreachable
		return outcome
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case received := <-reply:
		outcome.State = models.ProbeReachable
		outcome.Latency = received.Sub(start)
	case <-timer.C:
		outcome.State = models.ProbeTimeout
	case <-ctx.Done():
		outcome.State = models.ProbeTimeout
	case <-p.done:
		outcome.State = models.ProbeTimeout
	}

	return outcome
}

// Stop closes the listener and the raw socket.
func (p *ICMPProber) Stop() error {
	close(p.done)

	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("failed to close ICMP listener: %w", err)
	}

	if p.rawSocket != 0 {
		if err := syscall.Close(p.rawSocket); err != nil {
			return fmt.Errorf("failed to close raw socket: %w", err)
		}
	}

	return nil
}

func (p *ICMPProber) buildTemplate() {
	p.template = make([]byte, 8)
	p.template[0] = 8 // Echo Request
	p.template[1] = 0 // Code 0

	id := uint16(os.Getpid() & 0xffff)
	binary.BigEndian.PutUint16(p.template[4:], id)

	binary.BigEndian.PutUint16(p.template[2:], checksum(p.template))
}

func checksum(data []byte) uint16 {
	var sum uint32
	for i := 0; i < len(data); i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}

	sum = (sum >> 16) + (sum & 0xffff)

	return ^uint16(sum)
}

func (p *ICMPProber) sendEcho(ip net.IP) error {
	var addr [4]byte
	copy(addr[:], ip.To4())

	dest := syscall.SockaddrInet4{Addr: addr}

	return syscall.Sendto(p.rawSocket, p.template, 0, &dest)
}

func (p *ICMPProber) listenForReplies() {
	packet := make([]byte, replyBufferSize)

	for {
		select {
		case <-p.done:
			return
		default:
			if err := p.conn.SetReadDeadline(time.Now().Add(listenReadDeadline)); err != nil {
				continue
			}

			n, peer, err := p.conn.ReadFrom(packet)
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}

				// Closed socket during Stop
				return
			}

			msg, err := icmp.ParseMessage(1, packet[:n])
			if err != nil {
				continue
			}

			if msg.Type != ipv4.ICMPTypeEchoReply {
				continue
			}

			p.mu.Lock()
			if reply, exists := p.pending[peer.String()]; exists {
				select {
				case reply <- time.Now():
				default:
				}
			}
			p.mu.Unlock()
		}
	}
}
