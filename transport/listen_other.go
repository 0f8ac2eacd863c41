//go:build !unix

package transport

import "net"

// listen falls back to the runtime's listener. The backlog can't be controlled here,
// the system default is used instead.
func listen(addr *net.TCPAddr, _ int) (*net.TCPListener, error) {
	return net.ListenTCP("tcp4", addr)
}
