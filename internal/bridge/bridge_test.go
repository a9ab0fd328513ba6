package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctxTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestKindDirections(t *testing.T) {
	for _, k := range []Kind{KindReady, KindNavigate, KindResize, KindRender, KindError} {
		assert.True(t, k.FromFrame(), k)
		assert.False(t, k.FromHost(), k)
	}
	for _, k := range []Kind{KindInit, KindHashChange, KindLoad, KindClick} {
		assert.True(t, k.FromHost(), k)
		assert.False(t, k.FromFrame(), k)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown kind", `{"kind":"teleport"}`},
		{"init without basket", `{"kind":"init","owner":"alice"}`},
		{"negative height", `{"kind":"resize","height":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	m, err := Decode([]byte(`{"kind":"navigate","seq":3}`))
	require.NoError(t, err)
	assert.Equal(t, Navigate(""), Message{Kind: m.Kind, Path: m.Path})
}

func TestPipeOrder(t *testing.T) {
	ctx := ctxTimeout(t)
	a, b := Pipe()
	defer a.Close()

	for i := 1; i <= 100; i++ {
		require.NoError(t, a.Send(ctx, Resize(i)))
	}
	for i := 1; i <= 100; i++ {
		m, err := b.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, m.Height)
		assert.Equal(t, uint64(i), m.Seq)
	}
}

func TestPipeBothDirectionsWithoutReader(t *testing.T) {
	ctx := ctxTimeout(t)
	a, b := Pipe()
	for i := 0; i < 1000; i++ {
		require.NoError(t, a.Send(ctx, Load()))
		require.NoError(t, b.Send(ctx, Resize(i)))
	}
	require.NoError(t, a.Close())

	// Queued messages survive close.
	m, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindLoad, m.Kind)

	assert.ErrorIs(t, a.Send(ctx, Load()), ErrClosed)
}

func TestPipeReceiveHonoursContext(t *testing.T) {
	a, _ := Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := a.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipeCloseWakesReceiver(t *testing.T) {
	a, b := Pipe()
	errs := make(chan error, 1)
	go func() {
		_, err := b.Receive(context.Background())
		errs <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, a.Close())
	assert.ErrorIs(t, <-errs, ErrClosed)
}

func newWSPair(t *testing.T) (client, server *WebSocketConn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverConns := make(chan *WebSocketConn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverConns <- NewWebSocketConn(ws)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(ctxTimeout(t), url, nil)
	require.NoError(t, err)
	s := <-serverConns
	t.Cleanup(func() {
		_ = c.Close()
		_ = s.Close()
	})
	return c, s
}

func TestWebSocketRoundTrip(t *testing.T) {
	ctx := ctxTimeout(t)
	client, server := newWSPair(t)

	require.NoError(t, server.Send(ctx, Ready("FacadeModule")))
	m, err := client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindReady, m.Kind)
	assert.Equal(t, "FacadeModule", m.Facade)
	assert.Equal(t, uint64(1), m.Seq)

	require.NoError(t, client.Send(ctx, Init("alice", "notes")))
	m, err = server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", m.Owner)
	assert.Equal(t, "notes", m.Basket)
}

func TestWebSocketConcurrentSend(t *testing.T) {
	ctx := ctxTimeout(t)
	client, server := newWSPair(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, server.Send(ctx, Resize(i)))
		}(i)
	}
	wg.Wait()

	seen := map[uint64]bool{}
	for i := 0; i < 50; i++ {
		m, err := client.Receive(ctx)
		require.NoError(t, err)
		seen[m.Seq] = true
	}
	assert.Len(t, seen, 50)
}

func TestWebSocketMalformedFrameKeepsConnection(t *testing.T) {
	ctx := ctxTimeout(t)
	client, server := newWSPair(t)

	client.writeMu.Lock()
	require.NoError(t, client.ws.WriteMessage(websocket.TextMessage, []byte(`{"kind":"bogus"}`)))
	client.writeMu.Unlock()
	require.NoError(t, client.Send(ctx, Load()))

	_, err := server.Receive(ctx)
	assert.ErrorIs(t, err, ErrMalformed)
	m, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindLoad, m.Kind)
}

func TestWebSocketPeerClose(t *testing.T) {
	ctx := ctxTimeout(t)
	client, server := newWSPair(t)

	require.NoError(t, client.Close())
	_, err := server.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, client.Send(ctx, Load()), ErrClosed)
}
