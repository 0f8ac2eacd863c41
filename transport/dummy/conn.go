package dummy

import (
	"io"
	"net"
	"time"
)

var _ net.Conn = new(Conn)

// Conn is an in-memory connection. Reads are served from the Input once, writes are
// accumulated in Data. Every Write call is additionally recorded in Writes.
type Conn struct {
	Input  []byte
	Data   []byte
	Writes [][]byte
	// ReadErr is returned by Read along with the input.
	ReadErr error
	// WriteLimit makes the connection accept at most that many bytes in total. Zero
	// means unlimited.
	WriteLimit int
	Closed     bool
	read       bool
}

func NewConn(input string) *Conn {
	return &Conn{Input: []byte(input)}
}

func (c *Conn) Read(b []byte) (n int, err error) {
	if c.read {
		return 0, io.EOF
	}

	c.read = true
	n = copy(b, c.Input)
	if c.ReadErr != nil {
		return n, c.ReadErr
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

func (c *Conn) Write(b []byte) (n int, err error) {
	if c.WriteLimit > 0 && len(c.Data)+len(b) > c.WriteLimit {
		n = max(c.WriteLimit-len(c.Data), 0)
		c.record(b[:n])

		return n, io.ErrShortWrite
	}

	c.record(b)

	return len(b), nil
}

func (c *Conn) record(b []byte) {
	c.Data = append(c.Data, b...)
	c.Writes = append(c.Writes, append([]byte(nil), b...))
}

func (c *Conn) Close() error {
	c.Closed = true
	return nil
}

func (c *Conn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}

func (c *Conn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func (c *Conn) SetDeadline(time.Time) error {
	return nil
}

func (c *Conn) SetReadDeadline(time.Time) error {
	return nil
}

func (c *Conn) SetWriteDeadline(time.Time) error {
	return nil
}

