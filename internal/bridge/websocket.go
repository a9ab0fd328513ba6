package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8 << 20
)

type inbound struct {
	msg Message
	err error
}

// WebSocketConn carries bridge messages as JSON text frames. A read loop
// runs for the lifetime of the connection; writes are serialised.
type WebSocketConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	seq     atomic.Uint64

	incoming  chan inbound
	closing   chan struct{}
	closeOnce sync.Once
}

// NewWebSocketConn wraps an established websocket connection.
func NewWebSocketConn(ws *websocket.Conn) *WebSocketConn {
	c := &WebSocketConn{
		ws:       ws,
		incoming: make(chan inbound, 16),
		closing:  make(chan struct{}),
	}
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readLoop()
	go c.pingLoop()
	return c
}

// Dial connects to a bridge endpoint such as ws://host/facade/ws.
func Dial(ctx context.Context, url string, header http.Header) (*WebSocketConn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge: dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("bridge: dial %s: %w", url, err)
	}
	return NewWebSocketConn(ws), nil
}

func (c *WebSocketConn) readLoop() {
	defer close(c.incoming)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = ErrClosed
			}
			c.deliver(inbound{err: err})
			return
		}
		msg, err := Decode(data)
		if !c.deliver(inbound{msg: msg, err: err}) {
			return
		}
	}
}

func (c *WebSocketConn) deliver(in inbound) bool {
	select {
	case c.incoming <- in:
		return true
	case <-c.closing:
		return false
	}
}

func (c *WebSocketConn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.closing:
			return
		}
	}
}

// Send writes m as one text frame.
func (c *WebSocketConn) Send(ctx context.Context, m Message) error {
	select {
	case <-c.closing:
		return ErrClosed
	default:
	}
	if m.Seq == 0 {
		m.Seq = c.seq.Add(1)
	}
	data, err := Encode(m)
	if err != nil {
		return fmt.Errorf("bridge: encode %s: %w", m.Kind, err)
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("bridge: write %s: %w", m.Kind, err)
	}
	return nil
}

// Receive returns the next message. A malformed frame is reported as an
// error without closing the connection.
func (c *WebSocketConn) Receive(ctx context.Context) (Message, error) {
	select {
	case in, ok := <-c.incoming:
		if !ok {
			return Message{}, ErrClosed
		}
		return in.msg, in.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close sends a close frame and releases the connection.
func (c *WebSocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
