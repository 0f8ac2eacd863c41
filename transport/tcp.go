package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/oneshot/config"
	"github.com/rs/zerolog"
)

type listener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// TCP owns the listening socket and runs the accept loop. Every accepted connection is
// served by its own goroutine, which exclusively owns the connection and closes it when
// done. Terminated workers are reclaimed by the runtime, the TCP only keeps track of how
// many of them are still running, so Wait can drain them.
type TCP struct {
	l      listener
	log    zerolog.Logger
	wg     *sync.WaitGroup
	active *atomic.Int64
	stop   *atomic.Bool
}

func NewTCP(log zerolog.Logger) *TCP {
	return &TCP{
		log:    log,
		wg:     new(sync.WaitGroup),
		active: new(atomic.Int64),
		stop:   new(atomic.Bool),
	}
}

// Resolve returns the IPv4 wildcard address with the configured port.
func Resolve(cfg config.NET) (*net.TCPAddr, error) {
	return net.ResolveTCPAddr("tcp4", net.JoinHostPort("", strconv.Itoa(int(cfg.Port))))
}

func (t *TCP) Bind(cfg config.NET) error {
	addr, err := Resolve(cfg)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	l, err := listen(addr, cfg.Backlog)
	if err != nil {
		return err
	}

	t.l = l

	return nil
}

// Addr returns the actually bound address. Useful when binding the port 0.
func (t *TCP) Addr() net.Addr {
	return t.l.Addr()
}

func (t *TCP) Listen(cfg config.NET, cb func(conn net.Conn)) error {
	var backoff time.Duration

	for !t.stop.Load() {
		err := t.l.SetDeadline(time.Now().Add(cfg.AcceptLoopInterruptPeriod))
		if err != nil {
			if t.stop.Load() {
				return nil
			}

			return err
		}

		conn, err := t.l.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			if t.stop.Load() {
				return nil
			}

			if !cfg.TolerateAcceptErrors {
				return err
			}

			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			t.log.Error().Err(err).Dur("retry_in", backoff).Msg("accept")
			time.Sleep(backoff)
			continue
		}

		backoff = 0
		t.log.Info().Stringer("remote", conn.RemoteAddr()).Msg("got connection")
		t.wg.Add(1)
		t.active.Add(1)
		go t.serve(conn, cb)
	}

	return nil
}

func (t *TCP) serve(conn net.Conn, cb func(conn net.Conn)) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Stringer("remote", conn.RemoteAddr()).Msg("worker crashed")
		}

		_ = conn.Close()
		t.active.Add(-1)
		t.wg.Done()
	}()

	cb(conn)
}

// Active returns the number of connections being currently served.
func (t *TCP) Active() int64 {
	return t.active.Load()
}

func (t *TCP) Stop() {
	t.stop.Store(true)
}

func (t *TCP) Close() {
	if t.l != nil {
		_ = t.l.Close()
	}
}

func (t *TCP) Wait() {
	t.wg.Wait()
}
