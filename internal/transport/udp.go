// Package transport hands finished datagrams to the network. Lighting
// protocols are send-and-forget: there is no acknowledgment and no retry,
// the next periodic frame corrects any loss.
package transport

import (
	"fmt"
	"net"
)

// Sender is the capability the universe driver writes frames through.
type Sender interface {
	Send(pkt []byte) error
	Close() error
}

// UDP is a connected fire-and-forget UDP sender.
type UDP struct {
	conn *net.UDPConn
	addr string
}

// NewUDP resolves the gateway address and opens the socket.
func NewUDP(host string, port int) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve gateway address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}
	return &UDP{conn: conn, addr: addr.String()}, nil
}

// Addr returns the resolved gateway address.
func (u *UDP) Addr() string { return u.addr }

// Send writes one datagram. A UDP write only blocks for the time it takes
// to hand the packet to the network stack.
func (u *UDP) Send(pkt []byte) error {
	if _, err := u.conn.Write(pkt); err != nil {
		return fmt.Errorf("udp send to %s: %w", u.addr, err)
	}
	return nil
}

func (u *UDP) Close() error {
	return u.conn.Close()
}
