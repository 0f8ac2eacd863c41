// Package serve implements the per-connection request pipeline: read the request line,
// resolve the file, load it and respond.
package serve

import (
	"errors"
	"io/fs"
	"net"
	"os"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/oneshot/config"
	"github.com/indigo-web/oneshot/http/mime"
	"github.com/indigo-web/oneshot/http/status"
	"github.com/indigo-web/oneshot/internal/fileload"
	"github.com/indigo-web/oneshot/internal/pathlib"
	"github.com/indigo-web/oneshot/internal/protocol/http1"
	"github.com/indigo-web/oneshot/transport"
	"github.com/rs/zerolog"
)

const connIDLength = 8

type Loader interface {
	Load(name string) (fileload.File, error)
}

type Server struct {
	cfg    *config.Config
	loader Loader
	log    zerolog.Logger
}

func New(cfg *config.Config, loader Loader, log zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		loader: loader,
		log:    log,
	}
}

// HTTP1 serves exactly one request. The connection isn't closed, the caller owns it.
func (s *Server) HTTP1(conn net.Conn) {
	client := transport.NewClient(conn, s.cfg.NET, make([]byte, s.cfg.NET.ReadBufferSize))
	log := s.log.With().
		Str("conn", uniuri.NewLen(connIDLength)).
		Stringer("remote", client.Remote()).
		Logger()
	_ = s.Serve(client, log)
}

// Serve runs the pipeline over the client. The returned error is already logged.
func (s *Server) Serve(client transport.Client, log zerolog.Logger) error {
	serializer := http1.NewSerializer(nil)

	data, err := client.Read()
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(data)).Msg("recv")

		if len(data) == 0 && s.cfg.HTTP.ErrorResponses && errors.Is(err, os.ErrDeadlineExceeded) {
			respondError(serializer, client, log, err)
			return err
		}

		// otherwise the request is not vetoed: whatever was read (possibly nothing) is processed
	}

	request := http1.NewParser(s.cfg.URI).Parse(data)
	log.Info().
		Str("method", request.Method).
		Str("path", request.Path).
		Str("proto", request.Proto).
		Int("bytes", len(data)).
		Msg("request received")
	log.Debug().Bytes("raw", data).Msg("request dump")

	filename := pathlib.Resolve(request.Path, s.cfg.Files.Index)

	file, err := s.loader.Load(filename)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("cannot load file")

		if s.cfg.HTTP.ErrorResponses {
			respondError(serializer, client, log, err)
		}

		return err
	}

	response := http1.NewResponse(mime.FromFilename(file.Name), file.Data)
	if err = serializer.Write(client, response); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("send")
		return err
	}

	log.Info().Str("file", filename).Int("bytes", file.Len()).Msg("served")

	return nil
}

func respondError(
	serializer *http1.Serializer, client transport.Client, log zerolog.Logger, err error,
) {
	if werr := serializer.Write(client, http1.Error(Code(err))); werr != nil {
		log.Error().Err(werr).Msg("send")
	}
}

// Code maps an error, occurred while reading the request or loading the file, to the
// response status code.
func Code(err error) status.Code {
	var httpErr status.HTTPError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, fs.ErrNotExist):
		return status.NotFound
	case errors.Is(err, fs.ErrPermission):
		return status.Forbidden
	case errors.Is(err, os.ErrDeadlineExceeded):
		return status.RequestTimeout
	default:
		return status.InternalServerError
	}
}
