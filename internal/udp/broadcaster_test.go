package udp

import (
	"errors"
	"net"
	"testing"
	"time"
)

// recConn records datagrams instead of sending them.
type recConn struct {
	sent     []string
	failWith error
	closed   int
}

func (c *recConn) Write(p []byte) (int, error) {
	if c.failWith != nil {
		return 0, c.failWith
	}
	c.sent = append(c.sent, string(p))
	return len(p), nil
}

func (c *recConn) Close() error {
	c.closed++
	return nil
}

func TestNewBroadcaster_BroadcastDest(t *testing.T) {
	rc := &recConn{}
	var dialed *net.UDPAddr
	b, err := newBroadcaster("192.168.4.255:10110", net.ResolveUDPAddr,
		func(network string, _, raddr *net.UDPAddr) (udpConn, error) {
			if network != "udp" {
				t.Fatalf("network=%q", network)
			}
			dialed = raddr
			return rc, nil
		})
	if err != nil {
		t.Fatalf("newBroadcaster() error: %v", err)
	}
	if dialed == nil || dialed.Port != 10110 || !dialed.IP.Equal(net.IPv4(192, 168, 4, 255)) {
		t.Fatalf("dialed=%v", dialed)
	}
	if b.Dest() != "192.168.4.255:10110" {
		t.Fatalf("dest=%q", b.Dest())
	}
	if err := b.Close(); err != nil || rc.closed != 1 {
		t.Fatalf("Close() err=%v closed=%d", err, rc.closed)
	}
}

func TestNewBroadcaster_Errors(t *testing.T) {
	boom := errors.New("boom")
	okResolve := func(network, address string) (*net.UDPAddr, error) { return &net.UDPAddr{Port: 1}, nil }
	okDial := func(string, *net.UDPAddr, *net.UDPAddr) (udpConn, error) { return &recConn{}, nil }

	tests := []struct {
		name    string
		resolve resolveFunc
		dial    dialFunc
	}{
		{"resolve", func(string, string) (*net.UDPAddr, error) { return nil, boom }, okDial},
		{"dial", okResolve, func(string, *net.UDPAddr, *net.UDPAddr) (udpConn, error) { return nil, boom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newBroadcaster("x:1", tt.resolve, tt.dial); !errors.Is(err, boom) {
				t.Fatalf("err=%v want %v", err, boom)
			}
		})
	}
}

func TestBroadcaster_SendLine(t *testing.T) {
	rc := &recConn{}
	b := &Broadcaster{dest: "x", conn: rc}

	for _, line := range []string{"$GPHDT,238.5,T*1B", "", "!AIVDM,1,1,,A,13aG?P0P00PD;88MD5MT?wvl0<0,0*4C"} {
		if err := b.SendLine(line); err != nil {
			t.Fatalf("SendLine(%q) error: %v", line, err)
		}
	}
	// Empty lines are skipped; no terminator is added.
	if len(rc.sent) != 2 || rc.sent[0] != "$GPHDT,238.5,T*1B" || rc.sent[1][0] != '!' {
		t.Fatalf("sent=%q", rc.sent)
	}

	rc.failWith = errors.New("network unreachable")
	if err := b.SendLine("$IIMTW,18.0,C*12"); !errors.Is(err, rc.failWith) {
		t.Fatalf("err=%v", err)
	}
}

func TestBroadcaster_CloseWithoutConn(t *testing.T) {
	var b Broadcaster
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestNewBroadcaster_LoopbackDatagram(t *testing.T) {
	ln, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error: %v", err)
	}
	defer ln.Close()

	b, err := NewBroadcaster(ln.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewBroadcaster() error: %v", err)
	}
	defer b.Close()

	if err := b.SendLine("$IIMTW,18.0,C*12"); err != nil {
		t.Fatalf("SendLine() error: %v", err)
	}
	_ = ln.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 128)
	n, _, err := ln.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP() error: %v", err)
	}
	if string(buf[:n]) != "$IIMTW,18.0,C*12" {
		t.Fatalf("got %q", buf[:n])
	}
}
