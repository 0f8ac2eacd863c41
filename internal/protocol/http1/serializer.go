package http1

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/indigo-web/oneshot/http/status"
)

var ErrShortWrite = errors.New("short write")

const (
	protocol = "HTTP/1.1"
	crlf     = "\r\n"
)

// Serializer renders responses. The headers block and the body are transmitted by two
// separate writes. Nothing is retried: a failed or short write is just reported.
type Serializer struct {
	buff []byte
}

func NewSerializer(buff []byte) *Serializer {
	return &Serializer{buff: buff[:0]}
}

func (s *Serializer) Write(w io.Writer, response Response) error {
	headers := s.Headers(response)
	if err := write(w, "headers", headers); err != nil {
		return err
	}

	if len(response.Body) == 0 {
		return nil
	}

	return write(w, "body", response.Body)
}

// Headers renders the status line and the headers block, including the terminating
// empty line. The result is valid until the next call.
func (s *Serializer) Headers(response Response) []byte {
	s.buff = s.buff[:0]
	s.appendStatusLine(response)

	if len(response.ContentType) > 0 {
		s.appendKnownHeader("Content-Type: ", response.ContentType)
	}

	connection := "keep-alive"
	if response.Close {
		connection = "close"
	}

	s.appendKnownHeader("Connection: ", connection)
	s.appendContentLength(len(response.Body))
	s.crlf()

	return s.buff
}

func write(w io.Writer, part string, data []byte) error {
	n, err := w.Write(data)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %s: sent %d out of %d bytes: %w", ErrShortWrite, part, n, len(data), err)
	case n < len(data):
		return fmt.Errorf("%w: %s: sent %d out of %d bytes", ErrShortWrite, part, n, len(data))
	}

	return nil
}

func (s *Serializer) appendStatusLine(response Response) {
	s.buff = append(s.buff, protocol...)
	s.sp()
	s.buff = append(s.buff, status.StringCode(response.Code)...)
	s.sp()

	statusText := response.Status
	if len(statusText) == 0 {
		statusText = status.Text(response.Code)
	}

	s.buff = append(s.buff, statusText...)
	s.crlf()
}

// appendKnownHeader expects the key to already have a colon and a space included.
func (s *Serializer) appendKnownHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, value...)
	s.crlf()
}

func (s *Serializer) appendContentLength(value int) {
	s.buff = append(s.buff, "Content-Length: "...)
	s.buff = strconv.AppendUint(s.buff, uint64(value), 10)
	s.crlf()
}

func (s *Serializer) sp() {
	s.buff = append(s.buff, ' ')
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}
