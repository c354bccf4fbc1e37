package io

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/eluv-io/errors-go"
)

// Endpoint is the multicast subscription of a sniffer: the UDP port, the IPv4 multicast group and the address of
// the local interface on which the group is joined.
type Endpoint struct {
	Bind  net.IP // local interface address, 0.0.0.0 for the default interface
	Group net.IP // IPv4 multicast group
	Port  int
}

// String returns the endpoint in URL form, see ParseEndpointUrl.
func (ep *Endpoint) String() string {
	if ep == nil {
		return ""
	}
	u := url.URL{
		Scheme: "udp",
		Host:   net.JoinHostPort(ep.Group.String(), strconv.Itoa(ep.Port)),
	}
	if ep.Bind != nil && !ep.Bind.IsUnspecified() {
		u.RawQuery = "localaddr=" + ep.Bind.String()
	}
	return u.String()
}

// BindAddr returns the local address the endpoint's socket is bound to: the bind address or, if group is true, the
// multicast group.
func (ep *Endpoint) BindAddr(group bool) *net.UDPAddr {
	if group {
		return &net.UDPAddr{IP: ep.Group, Port: ep.Port}
	}
	return &net.UDPAddr{IP: ep.Bind, Port: ep.Port}
}

// ParseEndpoint parses the bind address, multicast group and port given in dotted-decimal IPv4 and decimal notation.
func ParseEndpoint(bind, group, port string) (*Endpoint, error) {
	e := errors.Template("ParseEndpoint", errors.K.Invalid)

	bindIP, err := parseIPv4(bind)
	if err != nil {
		return nil, e(err, "reason", "invalid bind address")
	}
	groupIP, err := parseIPv4(group)
	if err != nil {
		return nil, e(err, "reason", "invalid group address")
	}
	if !groupIP.IsMulticast() {
		return nil, e("reason", "not a multicast address", "group", group)
	}
	p, err := parsePort(port)
	if err != nil {
		return nil, e(err)
	}
	return &Endpoint{Bind: bindIP, Group: groupIP, Port: p}, nil
}

// ParseEndpointUrlString parses the given string with ParseEndpointUrl.
func ParseEndpointUrlString(urlStr string) (*Endpoint, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.E("ParseEndpointUrl", errors.K.Invalid, err, "url", urlStr)
	}
	return ParseEndpointUrl(u)
}

// ParseEndpointUrl parses an endpoint given in live stream URL syntax. The host must be an IPv4 multicast address,
// the optional query param 'localaddr' specifies the bind address. Example:
//
//	udp://239.1.2.3:5004?localaddr=172.16.1.10
func ParseEndpointUrl(u *url.URL) (*Endpoint, error) {
	e := errors.Template("ParseEndpointUrl", errors.K.Invalid, "url", u)

	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return nil, e(err, "reason", "invalid host:port")
	}
	bind := u.Query().Get("localaddr")
	if bind == "" {
		bind = net.IPv4zero.String()
	}
	ep, err := ParseEndpoint(bind, host, portStr)
	if err != nil {
		return nil, e(err)
	}
	return ep, nil
}

func parseIPv4(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("not an IP address: %q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %s", s)
	}
	return ip4, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return int(p), nil
}

// interfaceByIP returns the network interface that owns the given IP address. Returns nil for a nil or unspecified
// address, which selects the system's default multicast interface.
func interfaceByIP(ip net.IP) (*net.Interface, error) {
	if ip == nil || ip.IsUnspecified() {
		return nil, nil
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("unable to list interfaces: %w", err)
	}
	for i := range ifaces {
		iface := &ifaces[i]
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ifaceIP net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ifaceIP = v.IP
			case *net.IPAddr:
				ifaceIP = v.IP
			}
			if ifaceIP != nil && ifaceIP.Equal(ip) {
				return iface, nil
			}
		}
	}
	return nil, fmt.Errorf("no interface found with IP %s", ip)
}
