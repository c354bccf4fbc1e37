package rtp

// Header is an owned copy of a fixed RTP header, created with HeaderView.Copy. Unlike a HeaderView, it does not
// reference the receive buffer and may be retained across datagrams or handed to other goroutines.
type Header struct {
	raw    [HeaderSize]byte
	length int
}

func (h Header) view() HeaderView {
	return HeaderView{buf: h.raw[:], length: h.length}
}

// Length returns the declared length of the datagram the header was copied from.
func (h Header) Length() int { return h.length }

func (h Header) Version() uint8         { return h.view().Version() }
func (h Header) Padding() bool          { return h.view().Padding() }
func (h Header) Extension() bool        { return h.view().Extension() }
func (h Header) CSRCCount() uint8       { return h.view().CSRCCount() }
func (h Header) Marker() bool           { return h.view().Marker() }
func (h Header) PayloadType() uint8     { return h.view().PayloadType() }
func (h Header) SequenceNumber() uint16 { return h.view().SequenceNumber() }
func (h Header) Timestamp() uint32      { return h.view().Timestamp() }
func (h Header) SSRC() uint32           { return h.view().SSRC() }

// Fields is the accessor set shared by HeaderView and Header.
type Fields interface {
	Length() int
	Version() uint8
	Padding() bool
	Extension() bool
	CSRCCount() uint8
	Marker() bool
	PayloadType() uint8
	SequenceNumber() uint16
	Timestamp() uint32
	SSRC() uint32
}

var (
	_ Fields = HeaderView{}
	_ Fields = Header{}
)
