package rtp

import (
	"fmt"
	"testing"

	pionrtp "github.com/pion/rtp"
	"github.com/stretchr/testify/require"

	"github.com/eluv-io/errors-go"
)

func header(b0, b1 byte) []byte {
	return []byte{b0, b1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
}

func TestHeaderViewFirstByte(t *testing.T) {
	tests := []struct {
		b0        byte
		version   uint8
		padding   bool
		extension bool
		csrcCount uint8
	}{
		{0x80, 2, false, false, 0},
		{0x3F, 0, true, true, 15},
		{0xA0, 2, true, false, 0},
		{0x90, 2, false, true, 0},
		{0x83, 2, false, false, 3},
		{0xC0, 3, false, false, 0},
		{0x40, 1, false, false, 0},
		{0x00, 0, false, false, 0},
		{0xFF, 3, true, true, 15},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("0x%02X", tt.b0), func(t *testing.T) {
			v, err := NewHeaderView(header(tt.b0, 0), HeaderSize)
			require.NoError(t, err)
			require.Equal(t, tt.version, v.Version())
			require.Equal(t, tt.padding, v.Padding())
			require.Equal(t, tt.extension, v.Extension())
			require.Equal(t, tt.csrcCount, v.CSRCCount())
		})
	}
}

func TestHeaderViewSecondByte(t *testing.T) {
	tests := []struct {
		b1          byte
		marker      bool
		payloadType uint8
	}{
		{0x80, true, 0},
		{0x7F, false, 127},
		{0xE0, true, 96},
		{0x21, false, 33},
		{0xFF, true, 127},
		{0x00, false, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("0x%02X", tt.b1), func(t *testing.T) {
			v, err := NewHeaderView(header(0x80, tt.b1), HeaderSize)
			require.NoError(t, err)
			require.Equal(t, tt.marker, v.Marker())
			require.Equal(t, tt.payloadType, v.PayloadType())
		})
	}
}

func TestHeaderViewBigEndian(t *testing.T) {
	buf := header(0x80, 0)
	copy(buf[2:], []byte{0x00, 0x01})
	copy(buf[4:], []byte{0x00, 0x00, 0x00, 0xFF})
	copy(buf[8:], []byte{0x12, 0x34, 0x56, 0x78})

	v, err := NewHeaderView(buf, len(buf))
	require.NoError(t, err)
	require.Equal(t, uint16(1), v.SequenceNumber())
	require.Equal(t, uint32(255), v.Timestamp())
	require.Equal(t, uint32(0x12345678), v.SSRC())

	copy(buf[2:], []byte{0xAB, 0xCD})
	copy(buf[4:], []byte{0xFF, 0xFF, 0xFF, 0xFE})
	require.Equal(t, uint16(0xABCD), v.SequenceNumber())
	require.Equal(t, uint32(0xFFFFFFFE), v.Timestamp())
}

func TestHeaderViewMinimalPacket(t *testing.T) {
	buf := []byte{0x80, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03}

	v, err := NewHeaderView(buf, 12)
	require.NoError(t, err)
	require.Equal(t, 12, v.Length())
	require.Equal(t, uint8(2), v.Version())
	require.False(t, v.Padding())
	require.False(t, v.Extension())
	require.Equal(t, uint8(0), v.CSRCCount())
	require.False(t, v.Marker())
	require.Equal(t, uint8(0), v.PayloadType())
	require.Equal(t, uint16(1), v.SequenceNumber())
	require.Equal(t, uint32(2), v.Timestamp())
	require.Equal(t, uint32(3), v.SSRC())
}

func TestHeaderViewFieldRanges(t *testing.T) {
	buf := make([]byte, HeaderSize)
	for b := 0; b < 256; b++ {
		buf[0] = byte(b)
		buf[1] = byte(b)
		v, err := NewHeaderView(buf, len(buf))
		require.NoError(t, err)
		require.LessOrEqual(t, v.Version(), uint8(3))
		require.LessOrEqual(t, v.CSRCCount(), uint8(15))
		require.LessOrEqual(t, v.PayloadType(), uint8(127))
	}
}

func TestHeaderViewLength(t *testing.T) {
	buf := make([]byte, 1500)
	buf[0] = 0x80

	v, err := NewHeaderView(buf, 1316+HeaderSize)
	require.NoError(t, err)
	require.Equal(t, 1328, v.Length())
	require.Len(t, v.Bytes(), HeaderSize)
}

func TestHeaderViewErrors(t *testing.T) {
	tests := []struct {
		name      string
		buf       []byte
		length    int
		empty     bool
		truncated bool
	}{
		{"nil", nil, 12, true, false},
		{"empty", []byte{}, 0, true, false},
		{"short_buffer", []byte{0x80, 0, 0, 1, 0}, 5, false, true},
		{"short_length_large_buffer", make([]byte, 1500), 5, false, true},
		{"zero_length", make([]byte, 1500), 0, false, true},
		{"negative_length", make([]byte, 1500), -1, false, true},
		{"length_exceeds_buffer", make([]byte, 12), 13, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHeaderView(tt.buf, tt.length)
			require.Error(t, err)
			require.True(t, errors.IsKind(errors.K.Invalid, err))
			require.Equal(t, tt.empty, IsEmpty(err))
			require.Equal(t, tt.truncated, IsTruncated(err))
		})
	}
}

func TestHeaderViewDoesNotModifyBuffer(t *testing.T) {
	buf := []byte{0xBF, 0xE0, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x11, 0x22, 0x33}
	orig := append([]byte(nil), buf...)

	v, err := NewHeaderView(buf, len(buf))
	require.NoError(t, err)
	_ = v.Copy()
	_, _, _, _ = v.Version(), v.Padding(), v.Extension(), v.CSRCCount()
	_, _, _ = v.Marker(), v.PayloadType(), v.SequenceNumber()
	_, _ = v.Timestamp(), v.SSRC()

	require.Equal(t, orig, buf)
	require.Equal(t, orig[:HeaderSize], v.Bytes())
}

func TestHeaderCopy(t *testing.T) {
	buf := []byte{0xB5, 0xE0, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x11, 0x22, 0x33, 0x44}
	v, err := NewHeaderView(buf, len(buf))
	require.NoError(t, err)

	h := v.Copy()
	requireSameFields(t, v, h)

	for i := range buf {
		buf[i] = 0
	}
	require.Equal(t, 14, h.Length())
	require.Equal(t, uint8(2), h.Version())
	require.True(t, h.Padding())
	require.True(t, h.Extension())
	require.Equal(t, uint8(5), h.CSRCCount())
	require.True(t, h.Marker())
	require.Equal(t, uint8(96), h.PayloadType())
	require.Equal(t, uint16(0x1234), h.SequenceNumber())
	require.Equal(t, uint32(0x56789ABC), h.Timestamp())
	require.Equal(t, uint32(0xDEF01122), h.SSRC())

	// the view sees the overwritten buffer
	require.Equal(t, uint8(0), v.Version())
}

func TestHeaderViewCompareWithPion(t *testing.T) {
	tests := []struct {
		name string
		hdr  pionrtp.Header
	}{
		{"basic", pionrtp.Header{Version: 2, PayloadType: 96}},
		{"marker", pionrtp.Header{Version: 2, Marker: true, PayloadType: 33, SequenceNumber: 65535, Timestamp: 4294967295, SSRC: 0xFFFFFFFF}},
		{"max_payload_type", pionrtp.Header{Version: 2, PayloadType: 127, SequenceNumber: 12345, Timestamp: 987654321, SSRC: 12345}},
		{"csrc", pionrtp.Header{Version: 2, PayloadType: 0, SequenceNumber: 32768, Timestamp: 2147483648, SSRC: 1, CSRC: []uint32{1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt := &pionrtp.Packet{
				Header:  tt.hdr,
				Payload: make([]byte, 100),
			}
			bts, err := pkt.Marshal()
			require.NoError(t, err)

			v, err := NewHeaderView(bts, len(bts))
			require.NoError(t, err)

			var full pionrtp.Packet
			require.NoError(t, full.Unmarshal(bts))

			require.Equal(t, len(bts), v.Length())
			require.Equal(t, full.Version, v.Version())
			require.Equal(t, full.Padding, v.Padding())
			require.Equal(t, full.Extension, v.Extension())
			require.Equal(t, len(full.CSRC), int(v.CSRCCount()))
			require.Equal(t, full.Marker, v.Marker())
			require.Equal(t, full.PayloadType, v.PayloadType())
			require.Equal(t, full.SequenceNumber, v.SequenceNumber())
			require.Equal(t, full.Timestamp, v.Timestamp())
			require.Equal(t, full.SSRC, v.SSRC())
		})
	}
}

func requireSameFields(t *testing.T, expected, actual Fields) {
	require.Equal(t, expected.Length(), actual.Length())
	require.Equal(t, expected.Version(), actual.Version())
	require.Equal(t, expected.Padding(), actual.Padding())
	require.Equal(t, expected.Extension(), actual.Extension())
	require.Equal(t, expected.CSRCCount(), actual.CSRCCount())
	require.Equal(t, expected.Marker(), actual.Marker())
	require.Equal(t, expected.PayloadType(), actual.PayloadType())
	require.Equal(t, expected.SequenceNumber(), actual.SequenceNumber())
	require.Equal(t, expected.Timestamp(), actual.Timestamp())
	require.Equal(t, expected.SSRC(), actual.SSRC())
}
