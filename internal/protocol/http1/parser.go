package http1

import (
	"bytes"

	"github.com/indigo-web/oneshot/config"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
)

// Request is the only information ever taken from the client: the request line. Headers
// and body are never looked at.
type Request struct {
	Method string
	Path   string
	Proto  string
}

// Parser extracts the request line tokens. Every token is bounded by its own limit,
// exceeding bytes are truncated and skipped till the next whitespace.
type Parser struct {
	startLine *buffer.Buffer
	limits    [3]int
}

func NewParser(cfg config.URI) *Parser {
	total := cfg.MethodLength + cfg.PathLength + cfg.ProtoLength

	return &Parser{
		startLine: buffer.New(total, total),
		limits:    [3]int{cfg.MethodLength, cfg.PathLength, cfg.ProtoLength},
	}
}

// Parse never fails: absent tokens are left empty, so an empty or garbage input results
// in an empty request. The method and protocol aren't validated either. Tokens are taken
// only from the first line. Strings of the returned request are backed by the parser's
// memory and are valid until the next call.
func (p *Parser) Parse(data []byte) Request {
	p.startLine.Clear()

	if lf := bytes.IndexByte(data, '\n'); lf != -1 {
		data = data[:lf]
	}

	var tokens [3]string

	for i, limit := range p.limits {
		var token []byte
		token, data = nextToken(data)
		if len(token) > limit {
			token = token[:limit]
		}

		p.startLine.Append(token...)
		tokens[i] = uf.B2S(p.startLine.Finish())
	}

	return Request{
		Method: tokens[0],
		Path:   tokens[1],
		Proto:  tokens[2],
	}
}

func nextToken(data []byte) (token, rest []byte) {
	start := 0
	for start < len(data) && isSpace(data[start]) {
		start++
	}

	end := start
	for end < len(data) && !isSpace(data[end]) {
		end++
	}

	return data[start:end], data[end:]
}

func isSpace(char byte) bool {
	switch char {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}
