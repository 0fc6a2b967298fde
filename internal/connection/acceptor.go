package connection

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sonho/adt-gateway/internal/dispatch"
	"github.com/sonho/adt-gateway/internal/kafka"
)

// Acceptor binds a TCP listener and spawns a fresh Handler per accepted
// connection, per spec §4.6/C8. It also implements the graceful-shutdown
// supplement from SPEC_FULL §C.1: on Stop, it stops accepting and waits
// for in-flight handlers to finish their current frame.
type Acceptor struct {
	listener   net.Listener
	dispatcher *dispatch.Dispatcher
	producer   *kafka.Producer
	log        zerolog.Logger

	wg   sync.WaitGroup
	done chan struct{}
}

// NewAcceptor binds host:port and returns a ready-to-run Acceptor.
// Bind failure is fatal, per spec §6's "process exits on bind failure".
func NewAcceptor(host string, port int, d *dispatch.Dispatcher, p *kafka.Producer, log zerolog.Logger) (*Acceptor, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connection: bind %s: %w", addr, err)
	}
	return &Acceptor{
		listener:   ln,
		dispatcher: d,
		producer:   p,
		log:        log,
		done:       make(chan struct{}),
	}, nil
}

// Addr returns the bound local address, useful for tests that bind to
// an ephemeral port.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Run accepts connections until the context is cancelled or Stop is
// called.
func (a *Acceptor) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.Stop()
	}()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			select {
			case <-a.done:
				a.wg.Wait()
				return nil
			default:
				return fmt.Errorf("connection: accept: %w", err)
			}
		}

		connID := uuid.NewString()
		a.log.Info().Str("conn_id", connID).Str("remote", conn.RemoteAddr().String()).Msg("accepted connection")

		handler := NewHandler(conn, a.dispatcher, a.producer, a.log, connID)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			handler.Run(ctx)
		}()
	}
}

// Stop closes the listener, unblocking Run's Accept call. It does not
// forcibly close in-flight connections; Run waits for their handlers to
// finish.
func (a *Acceptor) Stop() {
	select {
	case <-a.done:
		return
	default:
		close(a.done)
	}
	_ = a.listener.Close()
}
