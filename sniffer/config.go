package sniffer

import (
	"net"
	"strconv"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/eluv-io/errors-go"
	elog "github.com/eluv-io/log-go"

	"github.com/eluv-io/rtpsniff-go/media/io"
	"github.com/eluv-io/rtpsniff-go/media/rtp"
)

// Config is the configuration of a sniffer. It is usually created with NewConfig, optionally overlaid with a config
// file (LoadConfig) and finally with command line arguments.
type Config struct {
	Bind       string    `json:"bind"`        // local interface address
	Group      string    `json:"group"`       // multicast group
	Port       int       `json:"port"`        // UDP port
	BindGroup  bool      `json:"bind_group"`  // bind the socket to the group instead of the bind address
	BufferSize int       `json:"buffer_size"` // receive buffer size, larger datagrams are truncated
	ReadBuffer int       `json:"read_buffer"` // socket receive buffer size, 0 for the system default
	MaxRetries int       `json:"max_retries"` // max consecutive transient receive errors
	RetryDelay Duration  `json:"retry_delay"` // wait time before retrying a failed receive
	Pcap       string    `json:"pcap"`        // replay the given capture file instead of joining the group
	Log        LogConfig `json:"log"`
}

// LogConfig configures the default logger.
type LogConfig struct {
	Level   string `json:"level"`   // trace, debug, info, warn, error
	Handler string `json:"handler"` // text, json, console
}

// ElogConfig returns the log-go configuration.
func (c LogConfig) ElogConfig() *elog.Config {
	return &elog.Config{
		Level:   c.Level,
		Handler: c.Handler,
	}
}

// NewConfig returns a config with default values.
func NewConfig() *Config {
	return &Config{
		Bind:       net.IPv4zero.String(),
		BufferSize: 1500,
		MaxRetries: 10,
		RetryDelay: Duration(10 * time.Millisecond),
		Log: LogConfig{
			Level:   "info",
			Handler: "text",
		},
	}
}

// LoadConfig reads the YAML or JSON config file at the given path and overlays it onto c.
func (c *Config) LoadConfig(fs afero.Fs, path string) error {
	e := errors.Template("Config.LoadConfig", errors.K.Invalid, "path", path)

	bts, err := afero.ReadFile(fs, path)
	if err != nil {
		return e(errors.K.IO, err)
	}
	if err = yaml.Unmarshal(bts, c); err != nil {
		return e(err)
	}
	return nil
}

// SetArgs sets bind address, multicast group and port from the positional command line arguments.
func (c *Config) SetArgs(args []string) error {
	e := errors.Template("Config.SetArgs", errors.K.Invalid)

	if len(args) != 3 {
		return e("reason", "expected arguments <bind_address> <group_address> <port>", "args", args)
	}
	port, err := strconv.ParseUint(args[2], 10, 16)
	if err != nil {
		return e(err, "reason", "invalid port", "port", args[2])
	}
	c.Bind = args[0]
	c.Group = args[1]
	c.Port = int(port)
	return nil
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	e := errors.Template("Config.Validate", errors.K.Invalid)

	switch {
	case c.BufferSize < rtp.HeaderSize:
		return e("reason", "buffer size smaller than RTP header", "buffer_size", c.BufferSize)
	case c.ReadBuffer < 0:
		return e("reason", "negative read buffer size", "read_buffer", c.ReadBuffer)
	case c.MaxRetries < 0:
		return e("reason", "negative max retries", "max_retries", c.MaxRetries)
	case c.RetryDelay < 0:
		return e("reason", "negative retry delay", "retry_delay", c.RetryDelay)
	}
	if c.Pcap != "" {
		_, err := c.pcapFilter()
		return e.IfNotNil(err)
	}
	_, err := c.Endpoint()
	return e.IfNotNil(err)
}

// Endpoint returns the multicast endpoint.
func (c *Config) Endpoint() (*io.Endpoint, error) {
	return io.ParseEndpoint(c.Bind, c.Group, strconv.Itoa(c.Port))
}

func (c *Config) pcapFilter() (io.PcapFilter, error) {
	var filter io.PcapFilter
	if c.Group != "" {
		ep, err := c.Endpoint()
		if err != nil {
			return filter, err
		}
		filter.Group = ep.Group
	}
	filter.Port = c.Port
	return filter, nil
}

// Source creates the packet source: a replay of the capture file if configured, the multicast endpoint otherwise.
func (c *Config) Source(fs afero.Fs) (io.PacketSource, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Pcap != "" {
		filter, _ := c.pcapFilter()
		return io.NewPcapSource(fs, c.Pcap, filter), nil
	}
	ep, _ := c.Endpoint()
	return io.NewMulticastSource(ep, io.MulticastOptions{
		BindGroup:  c.BindGroup,
		ReadBuffer: c.ReadBuffer,
	}), nil
}

// ---------------------------------------------------------------------------------------------------------------------

// Duration is a time.Duration marshaled in its string form, e.g. 10ms or 1m30s.
type Duration time.Duration

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the string form, e.g. 10ms.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements custom marshaling using the string representation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements custom unmarshaling from the string representation.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.E("unmarshal duration", errors.K.Invalid, err)
	}
	*d = Duration(parsed)
	return nil
}
