package testutil

import (
	"net"
)

// UdpListener returns a UDP connection bound to the given port on 127.0.0.1.
// If port is 0, a random free port will be used.
func UdpListener(targetPort int) (conn *net.UDPConn, actualPort int, err error) {
	conn, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: targetPort})
	if err != nil {
		return nil, 0, err
	}
	return conn, conn.LocalAddr().(*net.UDPAddr).Port, nil
}

// FreeUdpPort returns a free UDP port
func FreeUdpPort() (int, error) {
	conn, port, err := UdpListener(0)
	if err == nil {
		err = conn.Close()
	}
	if err != nil {
		return 0, err
	}
	return port, nil
}
