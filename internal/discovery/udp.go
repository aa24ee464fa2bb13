package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/extago/extalife/internal/logging"
	"github.com/extago/extalife/internal/protocol"
)

const (
	// MulticastGroup is the group the controller announces itself on.
	MulticastGroup = "225.0.0.1"

	// MulticastPort is the UDP port of the announcement datagrams.
	MulticastPort = 20401

	// DefaultTimeout bounds a single discovery attempt. Announcements
	// arrive every couple of seconds from a healthy controller.
	DefaultTimeout = 3 * time.Second

	datagramBufferSize = 1024
)

// Listener waits for controller announcement datagrams.
type Listener struct {
	// Timeout is the maximum time to wait for an announcement.
	Timeout time.Duration
}

// NewListener creates a listener with the default timeout.
func NewListener() *Listener {
	return &Listener{Timeout: DefaultTimeout}
}

// Discover waits for one controller announcement and returns the sender's
// IP address.
func (l *Listener) Discover() (string, error) {
	return l.DiscoverWithContext(context.Background())
}

// DiscoverWithContext waits for one controller announcement, honoring ctx
// cancellation in addition to the listener timeout.
func (l *Listener) DiscoverWithContext(ctx context.Context) (string, error) {
	group := &net.UDPAddr{IP: net.ParseIP(MulticastGroup), Port: MulticastPort}

	conn, err := net.ListenMulticastUDP("udp4", nil, group)
	if err != nil {
		return "", fmt.Errorf("failed to join multicast group %s:%d: %w", MulticastGroup, MulticastPort, err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(l.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("failed to arm discovery deadline: %w", err)
	}

	// unblock the read when the context is canceled early
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	buf := make([]byte, datagramBufferSize)
	for {
		n, sender, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("no controller announcement received: %w", err)
		}

		logging.Debug("discovery datagram",
			zap.String("sender", sender.IP.String()),
			zap.Int("length", n))

		if ip, ok := senderIfAnnouncement(buf[:n], sender); ok {
			return ip, nil
		}
		// unrelated multicast traffic, keep listening until the deadline
	}
}

// senderIfAnnouncement checks whether a datagram is a controller
// announcement and returns the sender IP if so.
func senderIfAnnouncement(datagram []byte, sender *net.UDPAddr) (string, bool) {
	response, err := protocol.Decode(datagram)
	if err != nil {
		logging.Debug("ignoring undecodable discovery datagram", zap.Error(err))
		return "", false
	}
	if response.Command != protocol.CmdNoop || response.Status != protocol.StatusBroadcast {
		return "", false
	}
	return sender.IP.String(), true
}

// Discover is a convenience wrapper using the default timeout.
func Discover(timeout time.Duration) (string, error) {
	listener := NewListener()
	if timeout > 0 {
		listener.Timeout = timeout
	}
	return listener.Discover()
}
