package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

type (
	NET struct {
		// Port is the TCP port the server listens on. The listener is always bound on all
		// local IPv4 addresses.
		Port uint16
		// Backlog is the maximal number of pending, not yet accepted connections the
		// operating system queues for the listening socket.
		Backlog int
		// ReadBufferSize limits the request. Exactly one read of at most this many bytes is
		// made per connection, the rest of the request (if any) is never looked at.
		ReadBufferSize int
		// ReadTimeout is the deadline for the single request read. Zero disables it, so a
		// silent client can hold its worker forever.
		ReadTimeout time.Duration `test:"nullable"`
		// WriteTimeout is the deadline for sending the whole response. Zero disables it.
		WriteTimeout time.Duration `test:"nullable"`
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration
		// TolerateAcceptErrors makes the accept loop log failed accepts and continue instead
		// of bringing the whole server down.
		TolerateAcceptErrors bool `test:"nullable"`
	}

	URI struct {
		// MethodLength, PathLength and ProtoLength bound the request line tokens. Longer
		// tokens are truncated.
		MethodLength int
		PathLength   int
		ProtoLength  int
	}

	Files struct {
		// Root is the directory the requested paths are resolved against.
		Root string
		// Index is served for the "/" path.
		Index string
		// Confine rejects every path resolving outside the Root, including `..` segments
		// and symlinks pointing elsewhere.
		Confine bool `test:"nullable"`
	}

	HTTP struct {
		// ErrorResponses enables crafted 403, 404 and 500 responses. When disabled, a failed
		// request is answered by closing the connection without sending anything.
		ErrorResponses bool `test:"nullable"`
	}
)

// Config holds settings used across the server.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because zero values aren't valid for most of the fields.
type Config struct {
	NET   NET
	URI   URI
	Files Files
	HTTP  HTTP
}

// Default returns default config.
func Default() *Config {
	return &Config{
		NET: NET{
			Port:                      8080,
			Backlog:                   10,
			ReadBufferSize:            4096,
			AcceptLoopInterruptPeriod: 5 * time.Second,
		},
		URI: URI{
			MethodLength: 7,
			PathLength:   255,
			ProtoLength:  15,
		},
		Files: Files{
			Root:    ".",
			Index:   "index.html",
			Confine: true,
		},
	}
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads a JSON file and overlays it on top of defaults. Durations are given in
// nanoseconds, as encoding/json does.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filename, err)
	}

	return cfg, cfg.Validate()
}

var (
	ErrBadBacklog      = errors.New("config: backlog must be positive")
	ErrBadBufferSize   = errors.New("config: read buffer size must be positive")
	ErrBadTokenLength  = errors.New("config: request line token lengths must be positive")
	ErrBadInterrupt    = errors.New("config: accept loop interrupt period must be positive")
	ErrNoIndexDocument = errors.New("config: index document must be set")
	ErrBadTimeout      = errors.New("config: timeouts must not be negative")
)

// Validate reports the first found invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.NET.Backlog <= 0:
		return ErrBadBacklog
	case c.NET.ReadBufferSize <= 0:
		return ErrBadBufferSize
	case c.NET.AcceptLoopInterruptPeriod <= 0:
		return ErrBadInterrupt
	case c.NET.ReadTimeout < 0, c.NET.WriteTimeout < 0:
		return ErrBadTimeout
	case c.URI.MethodLength <= 0, c.URI.PathLength <= 0, c.URI.ProtoLength <= 0:
		return ErrBadTokenLength
	case len(c.Files.Index) == 0:
		return ErrNoIndexDocument
	}

	return nil
}
