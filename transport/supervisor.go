package transport

import (
	"net"
	"sync"

	"github.com/indigo-web/oneshot/config"
)

type Transport interface {
	Bind(cfg config.NET) error
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	Stop()
	Close()
	Wait()
}

// Supervisor runs bound transports and brings all of them down as soon as any of them
// fails or Stop is called.
type Supervisor struct {
	ts     []boundTransport
	stopch chan struct{}
	done   chan struct{}
	once   *sync.Once
}

func NewSupervisor() *Supervisor {
	return &Supervisor{
		stopch: make(chan struct{}),
		done:   make(chan struct{}),
		once:   new(sync.Once),
	}
}

func (s *Supervisor) Add(cfg config.NET, transport Transport, cb func(net.Conn)) error {
	err := transport.Bind(cfg)
	if err != nil {
		s.Cancel()
		return err
	}

	s.ts = append(s.ts, boundTransport{
		cb: cb,
		t:  transport,
	})

	return nil
}

// Run blocks until either a transport returns or Stop is called. In both cases, all the
// transports are stopped and their in-flight connections are waited for.
func (s *Supervisor) Run(cfg config.NET) error {
	defer s.finish()

	if len(s.ts) == 0 {
		return nil
	}

	errch := make(chan error)

	for _, t := range s.ts {
		go func(t boundTransport) {
			errch <- t.t.Listen(cfg, t.cb)
		}(t)
	}

	select {
	case err := <-errch:
		s.shutdown()
		drain(errch, len(s.ts)-1)
		s.wait()

		return err
	case <-s.stopch:
		s.shutdown()
		drain(errch, len(s.ts))
		s.wait()

		return nil
	}
}

// Cancel closes all the already bound transports and marks the supervisor as done
// without running it. Pending and future Stop calls return immediately.
func (s *Supervisor) Cancel() {
	s.close()
	s.finish()
}

// Stop stops the running supervisor and blocks until it is done. Called before Run,
// it waits for Run to pick the signal up, unless the supervisor was cancelled.
func (s *Supervisor) Stop() {
	select {
	case s.stopch <- struct{}{}:
		<-s.done
	case <-s.done:
	}
}

// shutdown stops accepting new connections. Closing the listeners interrupts pending
// Accept calls immediately, not waiting for the accept loop interrupt period.
func (s *Supervisor) shutdown() {
	for _, t := range s.ts {
		t.t.Stop()
	}

	s.close()
}

func (s *Supervisor) finish() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *Supervisor) wait() {
	for _, t := range s.ts {
		t.t.Wait()
	}
}

func (s *Supervisor) close() {
	for _, t := range s.ts {
		t.t.Close()
	}
}

type boundTransport struct {
	cb func(conn net.Conn)
	t  Transport
}

func drain(ch <-chan error, n int) {
	for range n {
		<-ch
	}
}
