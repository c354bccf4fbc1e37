package io

import (
	"context"
	"net"

	"golang.org/x/net/ipv4"

	"github.com/eluv-io/errors-go"
	"github.com/eluv-io/utc-go"
)

// MulticastOptions are optional settings of a multicast source.
type MulticastOptions struct {
	// BindGroup binds the socket to the multicast group instead of the bind address. On Linux, a socket bound to
	// an interface address receives no multicast traffic unless the kernel delivers it to the wildcard socket, and a
	// socket bound to the wildcard address receives the traffic of all groups joined on that port.
	BindGroup bool
	// ReadBuffer sets the socket receive buffer size in bytes if > 0.
	ReadBuffer int
}

// NewMulticastSource creates a packet source that binds a UDP socket to the endpoint's bind address and port and joins
// the endpoint's multicast group on the interface that owns the bind address.
func NewMulticastSource(ep *Endpoint, opts ...MulticastOptions) PacketSource {
	s := &udpSource{ep: ep, name: ep.String()}
	if len(opts) > 0 {
		s.opts = opts[0]
	}
	return s
}

type udpSource struct {
	ep   *Endpoint
	name string
	opts MulticastOptions
}

func (s *udpSource) Name() string {
	return s.name
}

func (s *udpSource) Open() (Receiver, error) {
	e := errors.Template("udpSource.Open", errors.K.IO, "url", s.name)

	iface, err := interfaceByIP(s.ep.Bind)
	if err != nil {
		return nil, e(err, "reason", "invalid bind address")
	}

	bindAddr := s.ep.BindAddr(s.opts.BindGroup)
	lc := net.ListenConfig{Control: controlSocket}
	pc, err := lc.ListenPacket(context.Background(), "udp4", bindAddr.String())
	if err != nil {
		return nil, e(err, "reason", "failed to bind", "addr", bindAddr)
	}
	conn := pc.(*net.UDPConn)

	if s.opts.ReadBuffer > 0 {
		if err = conn.SetReadBuffer(s.opts.ReadBuffer); err != nil {
			errors.Log(conn.Close, log.Warn)
			return nil, e(err, "reason", "failed to set read buffer", "size", s.opts.ReadBuffer)
		}
	}

	p := ipv4.NewPacketConn(conn)
	if err = p.JoinGroup(iface, &net.UDPAddr{IP: s.ep.Group}); err != nil {
		errors.Log(conn.Close, log.Warn)
		return nil, e(err, "reason", "failed to join multicast group", "group", s.ep.Group, "interface", ifaceName(iface))
	}
	log.Debug("listening on UDP multicast",
		"group", s.ep.Group,
		"bind", bindAddr,
		"interface", ifaceName(iface))

	return &udpReceiver{conn: conn}, nil
}

func ifaceName(iface *net.Interface) string {
	if iface == nil {
		return "default"
	}
	return iface.Name
}

type udpReceiver struct {
	conn *net.UDPConn
}

func (r *udpReceiver) Receive(buf []byte) (Datagram, error) {
	n, src, err := r.conn.ReadFromUDP(buf)
	if err != nil {
		return Datagram{}, errors.NoTrace("udpReceiver.Receive", errors.K.IO, err)
	}
	return Datagram{
		Src:      src,
		Data:     buf,
		N:        n,
		Received: utc.Now(),
	}, nil
}

func (r *udpReceiver) Close() error {
	return r.conn.Close()
}
