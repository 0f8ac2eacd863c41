package http1

import (
	"github.com/indigo-web/oneshot/http/mime"
	"github.com/indigo-web/oneshot/http/status"
)

type Response struct {
	Code status.Code
	// Status is the reason phrase. If empty, the standard one for the Code is used.
	Status      status.Status
	ContentType mime.MIME
	Body        []byte
	// Close defines the Connection header value. The server never keeps connections
	// alive, so it always sets this.
	Close bool
}

// NewResponse returns a 200 OK response with the given body, closing the connection.
func NewResponse(contentType mime.MIME, body []byte) Response {
	return Response{
		Code:        status.OK,
		ContentType: contentType,
		Body:        body,
		Close:       true,
	}
}

// Error returns a response with the status text as a plain text body.
func Error(code status.Code) Response {
	return Response{
		Code:        code,
		ContentType: mime.Plain,
		Body:        []byte(status.Text(code)),
		Close:       true,
	}
}
