package sniffer

import (
	"fmt"
	"io"

	"github.com/eluv-io/rtpsniff-go/media/rtp"
)

// AppendLine appends the one-line representation of the given header to dst, terminated by a newline:
//
//	len:1328 ver:2 p:false  e:false cc:0 M:true PT:33 seq:00ff timestamp:90000 ssrc:12345678
func AppendLine(dst []byte, h rtp.Fields) []byte {
	return fmt.Appendf(dst, "len:%d ver:%d p:%t  e:%t cc:%d M:%t PT:%d seq:%04x timestamp:%d ssrc:%x\n",
		h.Length(),
		h.Version(),
		h.Padding(),
		h.Extension(),
		h.CSRCCount(),
		h.Marker(),
		h.PayloadType(),
		h.SequenceNumber(),
		h.Timestamp(),
		h.SSRC())
}

// Renderer writes the decoded headers to a writer, one line per header. Each line is written with a single Write
// call.
type Renderer struct {
	w   io.Writer
	buf []byte
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, buf: make([]byte, 0, 128)}
}

// Render writes the line for the given header.
func (r *Renderer) Render(h rtp.Fields) error {
	r.buf = AppendLine(r.buf[:0], h)
	_, err := r.w.Write(r.buf)
	return err
}
