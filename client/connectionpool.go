package client

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrPoolClosed is returned once the client has been closed
var ErrPoolClosed = errors.New("connection pool has been drained, client is dead")

// connectionPool keeps up to size connections to one server. Callers wait up
// to waitTimeout for a free connection.
type connectionPool struct {
	address     string
	waitTimeout time.Duration
	dialer      net.Dialer
	slots       chan struct{}
	idle        chan net.Conn
	mu          sync.Mutex
	closed      bool
	done        chan struct{}
}

func newConnectionPool(address string, size int, waitTimeout time.Duration) *connectionPool {
	if size < 1 {
		size = 1
	}
	return &connectionPool{
		address:     address,
		waitTimeout: waitTimeout,
		slots:       make(chan struct{}, size),
		idle:        make(chan net.Conn, size),
		done:        make(chan struct{}),
	}
}

func (p *connectionPool) get(ctx context.Context) (net.Conn, error) {
	if p.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.waitTimeout)
		defer cancel()
	}
	// prefer idle connections over dialing new ones
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	case conn := <-p.idle:
		return conn, nil
	default:
	}
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	case conn := <-p.idle:
		return conn, nil
	case p.slots <- struct{}{}:
		conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
		if err != nil {
			<-p.slots
			return nil, errors.Wrap(err, "could not get a connection")
		}
		return conn, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "could not get a connection")
	}
}

// put returns conn to the pool, a non nil err discards it
func (p *connectionPool) put(conn net.Conn, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil && !p.closed {
		select {
		case p.idle <- conn:
			return
		default:
		}
	}
	_ = conn.Close()
	<-p.slots
}

func (p *connectionPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
	for {
		select {
		case conn := <-p.idle:
			_ = conn.Close()
			<-p.slots
		default:
			return
		}
	}
}
