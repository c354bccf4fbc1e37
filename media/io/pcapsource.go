package io

import (
	"bytes"
	"io"
	"net"
	"net/url"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/afero"

	"github.com/eluv-io/errors-go"
	"github.com/eluv-io/utc-go"
)

// PcapFilter selects the UDP datagrams of a capture file. Zero values match any destination.
type PcapFilter struct {
	Group net.IP // destination IPv4 address
	Port  int    // destination UDP port
}

func (f PcapFilter) match(dst net.IP, port int) bool {
	if f.Group != nil && !f.Group.Equal(dst) {
		return false
	}
	if f.Port != 0 && f.Port != port {
		return false
	}
	return true
}

func parseFilter(q url.Values) (PcapFilter, error) {
	var f PcapFilter
	if g := q.Get("group"); g != "" {
		ip, err := parseIPv4(g)
		if err != nil {
			return f, err
		}
		f.Group = ip
	}
	if p := q.Get("port"); p != "" {
		port, err := parsePort(p)
		if err != nil {
			return f, err
		}
		f.Port = port
	}
	return f, nil
}

// NewPcapSource creates a packet source that replays the UDP datagrams of a pcap or pcapng capture file. Only IPv4
// datagrams matching the filter are returned, in capture order and without pacing. Each datagram's receive time is
// its capture timestamp.
func NewPcapSource(fs afero.Fs, path string, filter PcapFilter) PacketSource {
	return &pcapSource{
		fs:     fs,
		path:   path,
		filter: filter,
		name:   (&url.URL{Scheme: "pcap", Opaque: path}).String(),
	}
}

type pcapSource struct {
	fs     afero.Fs
	path   string
	filter PcapFilter
	name   string
}

func (s *pcapSource) Name() string {
	return s.name
}

// pcapng files start with a section header block
var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

type packetDataSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func (s *pcapSource) Open() (Receiver, error) {
	e := errors.Template("pcapSource.Open", errors.K.IO, "path", s.path)

	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, e(err)
	}

	magic := make([]byte, 4)
	if _, err = io.ReadFull(f, magic); err != nil {
		errors.Log(f.Close, log.Warn)
		return nil, e(errors.K.Invalid, err, "reason", "not a capture file")
	}
	r := io.MultiReader(bytes.NewReader(magic), f)

	var src packetDataSource
	if bytes.Equal(magic, pcapngMagic) {
		src, err = pcapgo.NewNgReader(r, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(r)
	}
	if err != nil {
		errors.Log(f.Close, log.Warn)
		return nil, e(errors.K.Invalid, err, "reason", "not a capture file")
	}

	log.Debug("replaying capture", "path", s.path, "link_type", src.LinkType())
	return &pcapReceiver{
		f:      f,
		src:    src,
		filter: s.filter,
	}, nil
}

// pcapReceiver replays the datagrams of a capture file. Close may be called concurrently with Receive: the mutex
// guards the file and the reader state, so a close never interrupts a read in flight.
type pcapReceiver struct {
	f       afero.File
	src     packetDataSource
	filter  PcapFilter
	mutex   sync.Mutex
	closed  bool
	skipped int
}

func (r *pcapReceiver) Receive(buf []byte) (Datagram, error) {
	for {
		dg, ok, err := r.next(buf)
		if ok || err != nil {
			return dg, err
		}
	}
}

// next reads the next packet of the capture. Returns false without error if the packet was skipped by the filter.
func (r *pcapReceiver) next(buf []byte) (Datagram, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return Datagram{}, false, errors.NoTrace("pcapReceiver.Receive", errors.K.IO, net.ErrClosed)
	}
	data, ci, err := r.src.ReadPacketData()
	if err == io.EOF {
		return Datagram{}, false, io.EOF
	}
	if err != nil {
		return Datagram{}, false, errors.NoTrace("pcapReceiver.Receive", errors.K.IO, err)
	}

	packet := gopacket.NewPacket(data, r.src.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	ip, _ := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	udp, _ := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if ip == nil || udp == nil || !r.filter.match(ip.DstIP, int(udp.DstPort)) {
		r.skipped++
		return Datagram{}, false, nil
	}

	return Datagram{
		Src:      &net.UDPAddr{IP: ip.SrcIP, Port: int(udp.SrcPort)},
		Data:     buf,
		N:        copy(buf, udp.Payload),
		Received: utc.New(ci.Timestamp),
	}, true, nil
}

func (r *pcapReceiver) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.skipped > 0 {
		log.Debug("capture packets skipped", "count", r.skipped)
	}
	return r.f.Close()
}
