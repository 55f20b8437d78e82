package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopbackInterface(t *testing.T) *net.Interface {
	ifaces, err := net.Interfaces()
	require.NoError(t, err)
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 && iface.Flags&net.FlagMulticast != 0 {
			return &iface
		}
	}
	t.Skip("no multicast-capable loopback interface available")
	return nil
}

// TestUDPConnection_ReceiveMulticast verifies that a connection opened on
// the multicast group receives a datagram sent to that group.
func TestUDPConnection_ReceiveMulticast(t *testing.T) {
	iface := loopbackInterface(t)

	receiver, err := Open(iface)
	require.NoError(t, err)
	defer receiver.Close()

	payload := []byte("multicast test")
	errCh := make(chan error, 1)
	go func() {
		time.Sleep(50 * time.Millisecond)
		errCh <- receiver.SendMulticast(payload)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var data []byte
	var src *net.UDPAddr
	for {
		data, src, err = receiver.Receive(ctx)
		require.NoError(t, err)
		if data != nil {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for multicast datagram")
		}
	}

	assert.NoError(t, <-errCh)
	assert.Equal(t, payload, data)
	assert.NotNil(t, src)
}

// TestUDPConnection_IsLocalIP verifies that self-address detection does not
// treat a foreign address as one of this host's own.
func TestUDPConnection_IsLocalIP(t *testing.T) {
	iface := loopbackInterface(t)

	conn, err := Open(iface)
	require.NoError(t, err)
	defer conn.Close()

	assert.False(t, conn.IsLocalIP(net.ParseIP("203.0.113.1")))
}
