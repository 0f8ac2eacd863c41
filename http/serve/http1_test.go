package serve

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/indigo-web/oneshot/config"
	"github.com/indigo-web/oneshot/http/status"
	"github.com/indigo-web/oneshot/internal/fileload"
	"github.com/indigo-web/oneshot/transport"
	"github.com/indigo-web/oneshot/transport/dummy"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, cfg *config.Config) (*Server, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range map[string]string{
		"index.html":     "<h1>index</h1>",
		"file.html":      "0123456789",
		"img/logo.png":   "\x89PNG\r\n\x1a\n",
		"notes.unknown1": "???",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	loader, err := fileload.New(dir, cfg.Files.Confine)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = loader.Close()
	})

	logs := new(bytes.Buffer)

	return New(cfg, loader, zerolog.New(logs)), logs
}

func serve(t *testing.T, server *Server, conn *dummy.Conn) error {
	t.Helper()
	client := transport.NewClient(conn, server.cfg.NET, make([]byte, server.cfg.NET.ReadBufferSize))

	return server.Serve(client, server.log)
}

func parseResponse(t *testing.T, data []byte) (*stdhttp.Response, string) {
	t.Helper()

	resp, err := stdhttp.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestServe(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		server, logs := newServer(t, config.Default())
		conn := dummy.NewConn("GET /file.html HTTP/1.1\r\nHost: localhost\r\n\r\n")
		require.NoError(t, serve(t, server, conn))

		resp, body := parseResponse(t, conn.Data)
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "text/html", resp.Header.Get("Content-Type"))
		require.Equal(t, int64(10), resp.ContentLength)
		require.Equal(t, "0123456789", body)
		require.Contains(t, logs.String(), `"message":"served"`)
	})

	t.Run("index", func(t *testing.T) {
		server, _ := newServer(t, config.Default())
		conn := dummy.NewConn("GET / HTTP/1.1\r\n\r\n")
		require.NoError(t, serve(t, server, conn))

		_, body := parseResponse(t, conn.Data)
		require.Equal(t, "<h1>index</h1>", body)
	})

	t.Run("method is ignored", func(t *testing.T) {
		for _, method := range []string{"POST", "DELETE", "GARBAGE"} {
			server, _ := newServer(t, config.Default())
			conn := dummy.NewConn(method + " /img/logo.png HTTP/1.1\r\n\r\n")
			require.NoError(t, serve(t, server, conn))

			resp, body := parseResponse(t, conn.Data)
			require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
			require.Equal(t, "\x89PNG\r\n\x1a\n", body)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		server, _ := newServer(t, config.Default())
		conn := dummy.NewConn("GET /notes.unknown1 HTTP/1.1\r\n\r\n")
		require.NoError(t, serve(t, server, conn))

		resp, _ := parseResponse(t, conn.Data)
		require.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	})

	t.Run("nonexistent file", func(t *testing.T) {
		server, logs := newServer(t, config.Default())
		conn := dummy.NewConn("GET /nope.html HTTP/1.1\r\n\r\n")
		require.ErrorIs(t, serve(t, server, conn), os.ErrNotExist)
		require.Empty(t, conn.Data)
		require.Contains(t, logs.String(), "cannot load file")
	})

	t.Run("empty request", func(t *testing.T) {
		server, logs := newServer(t, config.Default())
		conn := dummy.NewConn("")
		require.Error(t, serve(t, server, conn))
		require.Empty(t, conn.Data)
		require.Contains(t, logs.String(), `"message":"recv"`)
	})

	t.Run("read error with data", func(t *testing.T) {
		server, _ := newServer(t, config.Default())
		conn := dummy.NewConn("GET /file.html HTTP/1.1\r\n")
		conn.ReadErr = errors.New("connection reset by peer")
		require.NoError(t, serve(t, server, conn))

		_, body := parseResponse(t, conn.Data)
		require.Equal(t, "0123456789", body)
	})

	t.Run("traversal", func(t *testing.T) {
		server, _ := newServer(t, config.Default())
		conn := dummy.NewConn("GET /../../etc/passwd HTTP/1.1\r\n\r\n")
		require.ErrorIs(t, serve(t, server, conn), fileload.ErrOutsideRoot)
		require.Empty(t, conn.Data)
	})

	t.Run("error responses", func(t *testing.T) {
		cfg := config.Default()
		cfg.HTTP.ErrorResponses = true

		for path, code := range map[string]int{
			"/nope.html":      404,
			"/../secret.html": 403,
			"/img":            403,
		} {
			server, _ := newServer(t, cfg)
			conn := dummy.NewConn("GET " + path + " HTTP/1.1\r\n\r\n")
			require.Error(t, serve(t, server, conn))

			resp, body := parseResponse(t, conn.Data)
			require.Equal(t, code, resp.StatusCode, path)
			require.Equal(t, stdhttp.StatusText(code), body)
			require.True(t, resp.Close)
		}
	})

	t.Run("read timeout", func(t *testing.T) {
		server, _ := newServer(t, config.Default())
		conn := dummy.NewConn("")
		conn.ReadErr = os.ErrDeadlineExceeded
		require.Error(t, serve(t, server, conn))
		require.Empty(t, conn.Data)
	})

	t.Run("read timeout with error responses", func(t *testing.T) {
		cfg := config.Default()
		cfg.HTTP.ErrorResponses = true
		server, logs := newServer(t, cfg)
		conn := dummy.NewConn("")
		conn.ReadErr = os.ErrDeadlineExceeded
		require.ErrorIs(t, serve(t, server, conn), os.ErrDeadlineExceeded)

		resp, body := parseResponse(t, conn.Data)
		require.Equal(t, 408, resp.StatusCode)
		require.Equal(t, stdhttp.StatusText(408), body)
		require.True(t, resp.Close)
		require.NotContains(t, logs.String(), "cannot load file")
	})

	t.Run("partial request before timeout", func(t *testing.T) {
		cfg := config.Default()
		cfg.HTTP.ErrorResponses = true
		server, _ := newServer(t, cfg)
		conn := dummy.NewConn("GET /file.html HTTP/1.1\r\n")
		conn.ReadErr = os.ErrDeadlineExceeded
		require.NoError(t, serve(t, server, conn))

		resp, body := parseResponse(t, conn.Data)
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "0123456789", body)
	})

	t.Run("short write", func(t *testing.T) {
		server, logs := newServer(t, config.Default())
		conn := dummy.NewConn("GET /file.html HTTP/1.1\r\n\r\n")
		conn.WriteLimit = 20
		require.Error(t, serve(t, server, conn))
		require.Contains(t, logs.String(), `"message":"send"`)
	})

	t.Run("connection id", func(t *testing.T) {
		server, logs := newServer(t, config.Default())
		conn := dummy.NewConn("GET /file.html HTTP/1.1\r\n\r\n")
		server.HTTP1(conn)

		require.NotEmpty(t, conn.Data)
		require.Contains(t, logs.String(), `"conn":"`)
		require.Contains(t, logs.String(), `"remote":"127.0.0.1:40000"`)
		require.False(t, conn.Closed, "the connection is closed by the transport")
	})
}

func TestCode(t *testing.T) {
	require.Equal(t, status.NotFound, Code(os.ErrNotExist))
	require.Equal(t, status.Forbidden, Code(os.ErrPermission))
	require.Equal(t, status.Forbidden, Code(fileload.ErrOutsideRoot))
	require.Equal(t, status.InternalServerError, Code(fileload.ErrShortRead))
	require.Equal(t, status.RequestTimeout, Code(fmt.Errorf("read: %w", os.ErrDeadlineExceeded)))
	require.Equal(t, status.InternalServerError, Code(errors.New("disk on fire")))
}
