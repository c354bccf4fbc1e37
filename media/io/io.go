package io

import (
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/afero"

	"github.com/eluv-io/errors-go"
	elog "github.com/eluv-io/log-go"
	"github.com/eluv-io/utc-go"
)

var log = elog.Get("/eluvio/rtpsniff/io")

// Datagram is a single datagram delivered by a Receiver.
type Datagram struct {
	Src      net.Addr // the sender address
	Data     []byte   // the receive buffer passed to Receive
	N        int      // the number of valid bytes in Data
	Received utc.UTC  // the time the datagram was received (or captured, for replayed datagrams)
}

// Bytes returns the valid bytes of the datagram.
func (d *Datagram) Bytes() []byte {
	return d.Data[:d.N]
}

// PacketSource is a source of datagrams, e.g. a multicast group or a capture file.
type PacketSource interface {
	Name() string
	Open() (Receiver, error)
}

// Receiver receives datagrams from an opened PacketSource.
type Receiver interface {
	// Receive blocks until the next datagram is available and reads it into buf. The returned Datagram refers to buf,
	// which must therefore not be reused until the caller is finished with the datagram. Datagrams larger than buf
	// are truncated to len(buf). Returns io.EOF if the source is exhausted.
	Receive(buf []byte) (Datagram, error)

	// Close releases the underlying resources and unblocks a pending Receive call.
	io.Closer
}

// ---------------------------------------------------------------------------------------------------------------------

// CreatePacketSource creates a packet source for the given URL:
//
//	udp://239.1.1.1:5004?localaddr=10.0.0.5    multicast group 239.1.1.1, port 5004 joined on 10.0.0.5
//	rtp://239.1.1.1:5004                       same as udp
//	file:///tmp/capture.pcapng?group=239.1.1.1&port=5004
//	pcap:capture.pcap                          all UDP datagrams of the capture
func CreatePacketSource(fs afero.Fs, sourceUrl string) (packetSource PacketSource, err error) {
	e := errors.Template("createPacketSource", errors.K.Invalid, "source", sourceUrl)

	u, err := url.Parse(sourceUrl)
	if err != nil {
		return nil, e(err)
	}
	switch {
	case u.Scheme == "rtp", u.Scheme == "udp":
		ep, err := ParseEndpointUrl(u)
		if err != nil {
			return nil, e(err)
		}
		packetSource = NewMulticastSource(ep)
	case u.Scheme == "pcap", strings.HasPrefix(u.Scheme, "file"):
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		filter, err := parseFilter(u.Query())
		if err != nil {
			return nil, e(err)
		}
		packetSource = NewPcapSource(fs, path, filter)
	default:
		err = e("reason", "unsupported protocol, expecting udp|rtp|pcap|file")
	}
	return packetSource, err
}
