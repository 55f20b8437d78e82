package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	// Port is the well-known ECHONET Lite UDP port, used for both unicast
	// listen and the multicast group.
	Port = 3610

	// MulticastGroup is the ECHONET Lite multicast group address.
	MulticastGroup = "224.0.23.0"
)

// UDPConnection owns the bound multicast-joined receive socket. One
// instance per node; the engine is the sole reader.
type UDPConnection struct {
	conn      *net.UDPConn
	pconn     *ipv4.PacketConn // wraps conn, used only to pin the egress interface
	localIPs  []net.IP
	localAddr *net.UDPAddr
	mu        sync.RWMutex
}

// Open binds (0.0.0.0, 3610), joins 224.0.23.0 on egressIface (or on the
// system-assigned multicast interface when egressIface is nil), and pins
// egressIface (if non-nil) as the outbound interface
// for multicast sends via IP_MULTICAST_IF — net.UDPConn exposes no portable
// way to set this option itself, hence the golang.org/x/net/ipv4 wrapper.
func Open(egressIface *net.Interface) (*UDPConnection, error) {
	group := net.ParseIP(MulticastGroup)

	conn, err := net.ListenMulticastUDP("udp4", egressIface, &net.UDPAddr{IP: group, Port: Port})
	if err != nil {
		return nil, fmt.Errorf("network: bind 0.0.0.0:%d group %s: %w", Port, MulticastGroup, err)
	}

	pconn := ipv4.NewPacketConn(conn)
	if egressIface != nil {
		if err := pconn.SetMulticastInterface(egressIface); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("network: SetMulticastInterface: %w", err)
		}
	}

	localIPs, err := GetLocalIPv4s()
	if err != nil {
		localIPs = nil
	}

	return &UDPConnection{
		conn:      conn,
		pconn:     pconn,
		localIPs:  localIPs,
		localAddr: conn.LocalAddr().(*net.UDPAddr),
	}, nil
}

// Close releases the receive socket.
func (c *UDPConnection) Close() error {
	return c.conn.Close()
}

// bufferPool holds reusable 1500-byte receive buffers — the ECHONET Lite
// maximum datagram size.
var bufferPool = sync.Pool{
	New: func() interface{} { return make([]byte, 1500) },
}

func (c *UDPConnection) isSelfPacket(src *net.UDPAddr) bool {
	if src == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ip := range c.localIPs {
		if src.IP.Equal(ip) {
			return true
		}
	}
	return false
}

// Receive blocks for up to 1 second waiting for a datagram, to permit
// cooperative shutdown via ctx. A read timeout is reported as (nil, nil,
// nil) so the caller's loop can re-check ctx.Done() without treating the
// timeout as a socket error.
func (c *UDPConnection) Receive(ctx context.Context) ([]byte, *net.UDPAddr, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
		return nil, nil, fmt.Errorf("network: SetReadDeadline: %w", err)
	}

	buf := bufferPool.Get().([]byte)
	defer bufferPool.Put(buf)

	n, addr, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("network: receive: %w", err)
	}
	if c.isSelfPacket(addr) {
		return nil, nil, nil
	}

	data := make([]byte, n)
	copy(data, buf[:n])
	return data, addr, nil
}

// SendUnicast opens a transient UDP socket, sends once, and closes it — the
// spec's send_unicast primitive.
func SendUnicast(ip net.IP, data []byte) error {
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: ip, Port: Port})
	if err != nil {
		return fmt.Errorf("network: SendUnicast dial: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("network: SendUnicast write: %w", err)
	}
	return nil
}

// SendMulticast sends data to (224.0.23.0, 3610) via this connection's
// pinned egress interface — the spec's send_multicast primitive.
func (c *UDPConnection) SendMulticast(data []byte) error {
	dst := &net.UDPAddr{IP: net.ParseIP(MulticastGroup), Port: Port}
	if _, err := c.conn.WriteToUDP(data, dst); err != nil {
		return fmt.Errorf("network: SendMulticast: %w", err)
	}
	return nil
}

// LocalAddr returns the address the receive socket is bound to.
func (c *UDPConnection) LocalAddr() *net.UDPAddr {
	return c.localAddr
}

// IsLocalIP reports whether ip matches one of this host's own addresses.
func (c *UDPConnection) IsLocalIP(ip net.IP) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, local := range c.localIPs {
		if ip.Equal(local) {
			return true
		}
	}
	return false
}
