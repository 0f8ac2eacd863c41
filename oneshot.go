package oneshot

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/indigo-web/oneshot/config"
	"github.com/indigo-web/oneshot/http/serve"
	"github.com/indigo-web/oneshot/internal/fileload"
	"github.com/indigo-web/oneshot/transport"
	"github.com/rs/zerolog"
)

// App is a static files server. Every accepted connection is served by its own goroutine,
// which reads a single request, responds with the requested file and closes the connection.
type App struct {
	cfg   *config.Config
	log   zerolog.Logger
	hooks hooks
	sup   *transport.Supervisor
	tcp   *transport.TCP
	addr  net.Addr
}

// New returns a new App instance. Nil config is replaced by defaults.
func New(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}

	return &App{
		cfg: cfg,
		log: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger(),
		sup: transport.NewSupervisor(),
	}
}

// Logger replaces the default console logger.
func (a *App) Logger(log zerolog.Logger) *App {
	a.log = log
	return a
}

// NotifyOnStart calls the callback at the moment, when the listener is bound and the accept
// loop is about to start.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when the server is down. It's guaranteed,
// that at the moment the callback is called, no new connections are accepted and all the
// in-flight ones are done.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Addr returns the bound address. It's available only since the OnStart hook.
func (a *App) Addr() net.Addr {
	return a.addr
}

// Active returns the number of connections being served at the moment. It's available
// only since the OnStart hook.
func (a *App) Active() int64 {
	return a.tcp.Active()
}

// Serve binds the listener and serves until Stop is called or the accept loop fails.
// Bind errors are returned immediately.
func (a *App) Serve() error {
	if err := a.cfg.Validate(); err != nil {
		a.sup.Cancel()
		return err
	}

	loader, err := fileload.New(a.cfg.Files.Root, a.cfg.Files.Confine)
	if err != nil {
		a.sup.Cancel()
		return fmt.Errorf("root directory: %w", err)
	}

	defer loader.Close()

	server := serve.New(a.cfg, loader, a.log)
	a.tcp = transport.NewTCP(a.log)
	if err = a.sup.Add(a.cfg.NET, a.tcp, server.HTTP1); err != nil {
		return fmt.Errorf("listen on port %d: %w", a.cfg.NET.Port, err)
	}

	a.addr = a.tcp.Addr()
	a.log.Info().
		Stringer("addr", a.addr).
		Str("root", a.cfg.Files.Root).
		Bool("confined", a.cfg.Files.Confine).
		Msg("waiting for connections")

	callIfNotNil(a.hooks.OnStart)
	err = a.sup.Run(a.cfg.NET)
	callIfNotNil(a.hooks.OnStop)

	return err
}

// Stop stops accepting new connections and blocks until the in-flight ones are done.
// If Serve has already failed, Stop returns immediately.
func (a *App) Stop() {
	a.sup.Stop()
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
