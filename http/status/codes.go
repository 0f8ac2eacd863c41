package status

import "strconv"

type (
	Code   uint16
	Status = string
)

// Codes the server is able to respond with. See RFC 9110, section 15.
const (
	OK                  Code = 200 // RFC 9110, 15.3.1
	Forbidden           Code = 403 // RFC 9110, 15.5.4
	NotFound            Code = 404 // RFC 9110, 15.5.5
	RequestTimeout      Code = 408 // RFC 9110, 15.5.9
	InternalServerError Code = 500 // RFC 9110, 15.6.1
)

var knownCodes = []Code{OK, Forbidden, NotFound, RequestTimeout, InternalServerError}

// Text returns a text for the HTTP status code. It returns the empty
// string if the code is unknown.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case Forbidden:
		return "Forbidden"
	case NotFound:
		return "Not Found"
	case RequestTimeout:
		return "Request Timeout"
	case InternalServerError:
		return "Internal Server Error"
	default:
		return ""
	}
}

var stringCodes = func() map[Code]string {
	m := make(map[Code]string, len(knownCodes))
	for _, code := range knownCodes {
		m[code] = strconv.Itoa(int(code))
	}

	return m
}()

// StringCode returns the code as a decimal string. Known codes are precomputed,
// so no allocation happens for them.
func StringCode(code Code) string {
	if str, ok := stringCodes[code]; ok {
		return str
	}

	return strconv.Itoa(int(code))
}
