package sniffer

import (
	"context"
	stdio "io"
	"sync"
	"time"

	"github.com/eluv-io/errors-go"
	elog "github.com/eluv-io/log-go"

	"github.com/eluv-io/rtpsniff-go/media/io"
	"github.com/eluv-io/rtpsniff-go/media/rtp"
)

var log = elog.Get("/eluvio/rtpsniff/sniffer")

// Stats are the counters of a sniffer run.
type Stats struct {
	Received uint64 `json:"received"` // datagrams received
	Decoded  uint64 `json:"decoded"`  // datagrams decoded and rendered
	Skipped  uint64 `json:"skipped"`  // datagrams too short for an RTP header
	Retries  uint64 `json:"retries"`  // receive calls retried after a transient error
}

// Sniffer receives datagrams from a packet source, decodes their RTP header and renders one line per datagram.
type Sniffer struct {
	cfg      *Config
	source   io.PacketSource
	renderer *Renderer
}

// New creates a sniffer reading from the given source and rendering to out. Only the receive settings of cfg are
// used (buffer size and retry policy).
func New(cfg *Config, source io.PacketSource, out stdio.Writer) *Sniffer {
	return &Sniffer{
		cfg:      cfg,
		source:   source,
		renderer: NewRenderer(out),
	}
}

// Run opens the packet source and processes datagrams until the context is cancelled, the source is exhausted or a
// persistent receive error occurs. Datagrams that are too short for an RTP header are logged and skipped. Transient
// receive errors are retried up to the configured number of consecutive times.
//
// Cancelling the context closes the source, which unblocks a pending receive, and Run returns without error. The
// source is closed on every return path.
func (s *Sniffer) Run(ctx context.Context) (stats Stats, err error) {
	e := errors.Template("Sniffer.Run", errors.K.IO, "source", s.source.Name())

	rcv, err := s.source.Open()
	if err != nil {
		return stats, e(err)
	}

	var closeOnce sync.Once
	closeReceiver := func() {
		closeOnce.Do(func() {
			errors.Log(rcv.Close, log.Warn)
		})
	}
	stop := context.AfterFunc(ctx, closeReceiver)
	defer func() {
		stop()
		closeReceiver()
		log.Info("sniffer stopped",
			"source", s.source.Name(),
			"received", stats.Received,
			"decoded", stats.Decoded,
			"skipped", stats.Skipped,
			"retries", stats.Retries)
	}()

	log.Info("sniffer started", "source", s.source.Name(), "buffer_size", s.cfg.BufferSize)

	buf := make([]byte, s.cfg.BufferSize)
	retries := 0
	for {
		dg, err := rcv.Receive(buf)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return stats, nil
			case err == stdio.EOF:
				return stats, nil
			case io.IsTransient(err) && retries < s.cfg.MaxRetries:
				retries++
				stats.Retries++
				log.Warn("transient receive error - retrying", "error", err, "attempt", retries)
				if !s.wait(ctx) {
					return stats, nil
				}
				continue
			}
			return stats, e(err, "reason", "receive failed", "retries", retries)
		}
		retries = 0
		stats.Received++

		view, err := rtp.NewHeaderView(dg.Data, dg.N)
		if err != nil {
			stats.Skipped++
			log.Warn("skipping datagram", "error", err, "src", dg.Src, "len", dg.N)
			continue
		}
		if log.IsTrace() {
			log.Trace("datagram received", "src", dg.Src, "len", dg.N, "received", dg.Received)
		}

		err = s.renderer.Render(view)
		if err != nil {
			return stats, e(err, "reason", "failed to write output")
		}
		stats.Decoded++
	}
}

// wait waits for the retry delay. Returns false if the context was cancelled.
func (s *Sniffer) wait(ctx context.Context) bool {
	delay := s.cfg.RetryDelay.Duration()
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
