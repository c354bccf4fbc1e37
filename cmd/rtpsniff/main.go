// Command rtpsniff joins an IPv4 multicast group and prints the fixed RTP header of every received datagram.
//
// Usage:
//
//	rtpsniff [flags] <bind_address> <group_address> <port>
//
// Example:
//
//	rtpsniff 192.168.1.10 239.1.1.1 5004
//	len:1328 ver:2 p:false  e:false cc:0 M:false PT:33 seq:6a1c timestamp:3870105338 ssrc:5e2bd9a1
//
// The sniffer runs until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	elog "github.com/eluv-io/log-go"

	"github.com/eluv-io/rtpsniff-go/sniffer"
)

var log = elog.Get("/eluvio/rtpsniff")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, fs afero.Fs, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("rtpsniff", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "Usage: rtpsniff [flags] <bind_address> <group_address> <port>")
		_, _ = fmt.Fprintln(stderr, "       rtpsniff [flags] -pcap <file> [<bind_address> <group_address> <port>]")
		_, _ = fmt.Fprintln(stderr, "Flags:")
		flags.PrintDefaults()
	}

	defaults := sniffer.NewConfig()
	configFile := flags.String("config", "", "YAML or JSON config `file`, overridden by flags and arguments")
	logLevel := flags.String("log-level", defaults.Log.Level, "log `level`: trace, debug, info, warn, error")
	logHandler := flags.String("log-handler", defaults.Log.Handler, "log `format`: text, json, console")
	bindGroup := flags.Bool("bind-group", defaults.BindGroup, "bind the socket to the multicast group instead of the bind address")
	bufferSize := flags.Int("buffer", defaults.BufferSize, "receive buffer size in `bytes`")
	readBuffer := flags.Int("read-buffer", defaults.ReadBuffer, "socket receive buffer size in `bytes`, 0 for the system default")
	retries := flags.Int("retries", defaults.MaxRetries, "max consecutive transient receive errors")
	pcap := flags.String("pcap", "", "replay the UDP datagrams of a pcap or pcapng `file` instead of joining the group")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg := sniffer.NewConfig()
	if *configFile != "" {
		if err := cfg.LoadConfig(fs, *configFile); err != nil {
			return fail(stderr, err)
		}
	}

	// explicitly set flags override the config file
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-handler":
			cfg.Log.Handler = *logHandler
		case "bind-group":
			cfg.BindGroup = *bindGroup
		case "buffer":
			cfg.BufferSize = *bufferSize
		case "read-buffer":
			cfg.ReadBuffer = *readBuffer
		case "retries":
			cfg.MaxRetries = *retries
		case "pcap":
			cfg.Pcap = *pcap
		}
	})

	switch {
	case flags.NArg() > 0:
		if err := cfg.SetArgs(flags.Args()); err != nil {
			flags.Usage()
			return fail(stderr, err)
		}
	case cfg.Pcap == "" && *configFile == "":
		flags.Usage()
		return 2
	}

	elog.SetDefault(cfg.Log.ElogConfig())
	log.Info("rtpsniff", "args", args, "group", cfg.Group, "port", cfg.Port, "bind", cfg.Bind)

	source, err := cfg.Source(fs)
	if err != nil {
		return fail(stderr, err)
	}

	_, err = sniffer.New(cfg, source, stdout).Run(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	return 0
}

func fail(stderr io.Writer, err error) int {
	_, _ = fmt.Fprintln(stderr, "rtpsniff:", err)
	return 1
}
