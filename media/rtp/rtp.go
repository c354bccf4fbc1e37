package rtp

import (
	"github.com/eluv-io/errors-go"
)

// HeaderSize is the size of the fixed RTP header in bytes, without CSRC list and header extension.
const HeaderSize = 12

var (
	// ErrEmptyBuffer is the cause of the error returned by NewHeaderView for an empty buffer.
	ErrEmptyBuffer = errors.Str("empty buffer")
	// ErrTruncatedHeader is the cause of the error returned by NewHeaderView if the declared length does not cover
	// the fixed RTP header or exceeds the buffer.
	ErrTruncatedHeader = errors.Str("truncated RTP header")
)

// HeaderView is a read-only view of the fixed RTP header (RFC 3550, section 5.1) at the start of a datagram:
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|V=2|P|X|  CC   |M|     PT      |       sequence number         |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                           timestamp                           |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|           synchronization source (SSRC) identifier            |
//	+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
//
// The view borrows the buffer it was created from: it neither copies nor modifies it. The caller must not overwrite
// the buffer (e.g. with the next received datagram) while the view is in use. Use Copy to retain a header beyond
// that.
//
// The zero value is not a valid view. Create views with NewHeaderView.
type HeaderView struct {
	buf    []byte // the valid bytes, buf[:length] of the original buffer
	length int    // the declared length
}

// NewHeaderView creates a view of the RTP header at the start of buf. length is the number of valid bytes in buf as
// reported by the transport. Returns an error if buf is empty, if length is smaller than the fixed header size or if
// length exceeds the size of buf.
//
// The version field is not validated: a buffer that does not hold an RTP packet still yields a view, just with
// meaningless field values.
func NewHeaderView(buf []byte, length int) (HeaderView, error) {
	if len(buf) == 0 {
		return HeaderView{}, errors.NoTrace("rtp.NewHeaderView", errors.K.Invalid, ErrEmptyBuffer)
	}
	if length < HeaderSize || length > len(buf) {
		return HeaderView{}, errors.NoTrace("rtp.NewHeaderView", errors.K.Invalid, ErrTruncatedHeader,
			"len", length,
			"min", HeaderSize,
			"buf_len", len(buf))
	}
	return HeaderView{buf: buf[:length], length: length}, nil
}

// IsEmpty returns true if the given error was caused by an empty buffer.
func IsEmpty(err error) bool {
	return errors.Is(err, ErrEmptyBuffer)
}

// IsTruncated returns true if the given error was caused by a buffer too short to hold the fixed RTP header.
func IsTruncated(err error) bool {
	return errors.Is(err, ErrTruncatedHeader)
}

// Length returns the declared length of the datagram.
func (v HeaderView) Length() int {
	return v.length
}

// Version returns the 2-bit RTP version. RTP as defined in RFC 3550 uses version 2.
func (v HeaderView) Version() uint8 {
	return v.buf[0] >> 6
}

// Padding returns true if the packet contains padding octets at the end of the payload.
func (v HeaderView) Padding() bool {
	return v.buf[0]&0x20 != 0
}

// Extension returns true if a header extension follows the CSRC list.
func (v HeaderView) Extension() bool {
	return v.buf[0]&0x10 != 0
}

// CSRCCount returns the number of CSRC identifiers following the fixed header (0-15).
func (v HeaderView) CSRCCount() uint8 {
	return v.buf[0] & 0x0f
}

// Marker returns the marker bit. Its meaning is defined by the payload profile, e.g. the last packet of a video frame.
func (v HeaderView) Marker() bool {
	return v.buf[1]&0x80 != 0
}

// PayloadType returns the 7-bit payload type.
func (v HeaderView) PayloadType() uint8 {
	return v.buf[1] & 0x7f
}

// SequenceNumber returns the 16-bit sequence number.
func (v HeaderView) SequenceNumber() uint16 {
	return uint16(v.buf[2])<<8 | uint16(v.buf[3])
}

// Timestamp returns the 32-bit RTP timestamp.
func (v HeaderView) Timestamp() uint32 {
	return uint32(v.buf[4])<<24 | uint32(v.buf[5])<<16 | uint32(v.buf[6])<<8 | uint32(v.buf[7])
}

// SSRC returns the 32-bit synchronization source identifier.
func (v HeaderView) SSRC() uint32 {
	return uint32(v.buf[8])<<24 | uint32(v.buf[9])<<16 | uint32(v.buf[10])<<8 | uint32(v.buf[11])
}

// Bytes returns the fixed header bytes. The returned slice shares the underlying buffer and must not be modified.
func (v HeaderView) Bytes() []byte {
	return v.buf[:HeaderSize:HeaderSize]
}

// Copy returns an owned copy of the fixed header that stays valid after the underlying buffer is reused.
func (v HeaderView) Copy() Header {
	h := Header{length: v.length}
	copy(h.raw[:], v.buf[:HeaderSize])
	return h
}
