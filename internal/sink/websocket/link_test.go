package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snar-ar/overlay/pkg/core"
	"github.com/snar-ar/overlay/pkg/streaming"
)

func TestWithSecret(t *testing.T) {
	u, err := withSecret("ws://host/overlay?x=1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", u.Query().Get("secret"))
	assert.Equal(t, "1", u.Query().Get("x"))

	u, err = withSecret("ws://host/overlay", "")
	require.NoError(t, err)
	assert.Empty(t, u.RawQuery)
}

func TestLink_CloseWithoutOpen(t *testing.T) {
	l := newLink(slog.Default())
	assert.NoError(t, l.close())
	assert.NoError(t, l.close())
	assert.ErrorIs(t, l.request([]byte("{}"), "x", time.Second), errLinkClosed)
}

// The first connection is dropped by the server right after the session
// is acknowledged; the sink must redial and replay its live widgets.
func TestSink_ReconnectReplaysState(t *testing.T) {
	var conns atomic.Int32
	var mu sync.Mutex
	var second []streaming.Envelope

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		n := conns.Add(1)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env streaming.Envelope
			if json.Unmarshal(msg, &env) != nil {
				continue
			}
			if n > 1 {
				mu.Lock()
				second = append(second, env)
				mu.Unlock()
			}
			if env.Type == streaming.TypeSessionStart || env.Type == streaming.TypeSessionEnd {
				data, _ := json.Marshal(streaming.AckMessage{Type: "ack", For: env.Type})
				_ = c.WriteMessage(ws.TextMessage, data)
			}
			if n == 1 && env.Type == streaming.TypeAnnotationCreate {
				return
			}
		}
	}))
	defer srv.Close()

	s := New(Config{URL: wsURL(srv)}, slog.Default())
	require.NoError(t, s.Start(core.Viewport{Width: 100, Height: 100}))
	s.Create(7, 10, 20, "Tower", 16)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(second) >= 2
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, streaming.TypeSessionStart, second[0].Type)
	assert.Equal(t, streaming.TypeAnnotationCreate, second[1].Type)
	var p streaming.AnnotationPayload
	require.NoError(t, json.Unmarshal(second[1].Payload, &p))
	mu.Unlock()
	assert.EqualValues(t, 7, p.PointID)
	assert.Equal(t, "Tower", p.Text)

	assert.NoError(t, s.Close())
}

func TestLink_Drain(t *testing.T) {
	l := newLink(slog.Default())
	require.True(t, l.send([]byte("a")))
	require.True(t, l.send([]byte("b")))
	assert.Equal(t, 2, l.drain())
	assert.Zero(t, l.drain())
}

// renderer applies envelopes the way a renderer does: session_start clears
// every widget, the rest maintain widgets by handle.
type renderer map[core.AnnotationHandle]streaming.AnnotationPayload

func (r renderer) apply(t *testing.T, msg []byte) {
	t.Helper()
	var env streaming.Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	if env.Type == streaming.TypeSessionStart {
		clear(r)
		return
	}
	var p streaming.AnnotationPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	switch env.Type {
	case streaming.TypeAnnotationCreate:
		r[p.Handle] = p
	case streaming.TypeAnnotationUpdate:
		_, ok := r[p.Handle]
		assert.True(t, ok, "update for unknown handle %s", p.Handle)
		r[p.Handle] = p
	case streaming.TypeAnnotationRetire:
		delete(r, p.Handle)
	}
}

func (r renderer) flush(t *testing.T, l *link) {
	t.Helper()
	for {
		select {
		case msg := <-l.outbox:
			r.apply(t, msg)
		default:
			return
		}
	}
}

func TestSink_FullOutboxResyncsRenderer(t *testing.T) {
	s := New(Config{URL: "ws://unused"}, slog.Default())
	s.link.outbox = make(chan []byte, 4)
	screen := renderer{}

	a := s.Create(1, 10, 10, "A", 16)
	b := s.Create(2, 20, 20, "B", 16)
	screen.flush(t, s.link)
	require.Len(t, screen, 2)

	for i := 0; i < 4; i++ {
		s.Update(b, float64(30+i), 20, "B", 16)
	}
	s.Retire(a)

	assert.EqualValues(t, 1, s.Dropped())
	assert.EqualValues(t, 1, s.Resyncs())

	s.Update(b, 99, 20, "B", 12)
	screen.flush(t, s.link)

	require.Len(t, screen, 1)
	_, hasA := screen[a]
	assert.False(t, hasA, "retired widget must not survive on the renderer")
	assert.Equal(t, 99.0, screen[b].ScreenX)
	assert.Equal(t, 12.0, screen[b].TextScale)
}

func TestSink_ResyncTooLargeStaysDirty(t *testing.T) {
	s := New(Config{URL: "ws://unused"}, slog.Default())
	s.link.outbox = make(chan []byte, 2)

	s.Create(1, 1, 1, "A", 16)
	s.Create(2, 2, 2, "B", 16)
	s.Create(3, 3, 3, "C", 16)

	assert.EqualValues(t, 1, s.Dropped())
	assert.Zero(t, s.Resyncs())
	s.mu.Lock()
	assert.True(t, s.dirty)
	s.mu.Unlock()
}
