package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/monitoring"
)

// ErrClosed is returned by a Conn after Close.
var ErrClosed = errors.New("bridge: connection closed")

// Conn is one side of a bridge. Messages are delivered in send order.
// Send may be called concurrently; Receive by a single reader.
type Conn interface {
	Send(ctx context.Context, m Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// queue is an unbounded FIFO. Senders never block, which keeps two event
// loops that both send and receive from deadlocking each other.
type queue struct {
	mu     sync.Mutex
	items  []Message
	notify chan struct{}
	closed bool
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(m Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, m)
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

func (q *queue) pop(ctx context.Context) (Message, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			m := q.items[0]
			q.items[0] = Message{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return m, nil
		}
		if q.closed {
			q.mu.Unlock()
			return Message{}, ErrClosed
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.notify)
}

type pipeEnd struct {
	in, out *queue
	seq     atomic.Uint64
}

// Pipe returns two connected in-process ends. Closing either closes both;
// messages already queued are still delivered.
func Pipe() (Conn, Conn) {
	a, b := newQueue(), newQueue()
	return &pipeEnd{in: a, out: b}, &pipeEnd{in: b, out: a}
}

func (p *pipeEnd) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Seq == 0 {
		m.Seq = p.seq.Add(1)
	}
	return p.out.push(m)
}

func (p *pipeEnd) Receive(ctx context.Context) (Message, error) {
	return p.in.pop(ctx)
}

func (p *pipeEnd) Close() error {
	p.in.close()
	p.out.close()
	return nil
}

type instrumented struct {
	Conn
	metrics *monitoring.Metrics
}

// Instrument counts messages passing through c.
func Instrument(c Conn, metrics *monitoring.Metrics) Conn {
	if metrics == nil {
		return c
	}
	return &instrumented{Conn: c, metrics: metrics}
}

func (c *instrumented) Send(ctx context.Context, m Message) error {
	err := c.Conn.Send(ctx, m)
	if err == nil {
		c.metrics.RecordBridgeMessage("out", string(m.Kind))
	}
	return err
}

func (c *instrumented) Receive(ctx context.Context) (Message, error) {
	m, err := c.Conn.Receive(ctx)
	if err == nil {
		c.metrics.RecordBridgeMessage("in", string(m.Kind))
	}
	return m, err
}
