package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/snar-ar/overlay/pkg/streaming"
)

const (
	outboxSize   = 4096
	ackBoxSize   = 16
	maxRedials   = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 5 * time.Second
	pingInterval = 20 * time.Second
	ackTimeout   = 10 * time.Second
)

var errLinkClosed = errors.New("renderer link closed")

// link owns one renderer connection at a time. A supervisor goroutine is
// the only writer; it redials with backoff when the connection fails and
// replays renderer state before resuming the outbox.
type link struct {
	target *url.URL
	dialer *ws.Dialer
	logger *slog.Logger

	outbox chan []byte
	acks   chan streaming.AckMessage

	// replay yields the messages that rebuild renderer state on a fresh
	// connection.
	replay func() [][]byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	conn *ws.Conn
}

func newLink(logger *slog.Logger) *link {
	ctx, cancel := context.WithCancel(context.Background())
	return &link{
		dialer: &ws.Dialer{HandshakeTimeout: writeWait},
		logger: logger,
		outbox: make(chan []byte, outboxSize),
		acks:   make(chan streaming.AckMessage, ackBoxSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// withSecret appends the shared secret as a query parameter.
func withSecret(rawURL, secret string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// open dials once and starts the supervisor.
func (l *link) open(rawURL, secret string) error {
	u, err := withSecret(rawURL, secret)
	if err != nil {
		return err
	}
	l.target = u

	conn, err := l.dial()
	if err != nil {
		return err
	}

	l.wg.Add(1)
	go l.supervise(conn)
	return nil
}

func (l *link) dial() (*ws.Conn, error) {
	conn, _, err := l.dialer.DialContext(l.ctx, l.target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	})
	_ = conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	return conn, nil
}

func (l *link) supervise(conn *ws.Conn) {
	defer l.wg.Done()
	for conn != nil {
		l.setConn(conn)
		err := l.serve(conn)
		l.setConn(nil)
		_ = conn.Close()
		if err == nil || l.ctx.Err() != nil {
			return
		}
		l.logger.Warn("Renderer connection lost", "error", err)
		conn = l.redial()
	}
}

func (l *link) setConn(conn *ws.Conn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}

// serve pumps the outbox into conn until the link is closed (nil) or the
// connection fails.
func (l *link) serve(conn *ws.Conn) error {
	readErr := make(chan error, 1)
	go func() { readErr <- l.read(conn) }()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case <-ping.C:
			if err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case data := <-l.outbox:
			if err := write(conn, data); err != nil {
				return err
			}
		}
	}
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// read routes acks until the connection fails.
func (l *link) read(conn *ws.Conn) error {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != "ack" {
			l.logger.Debug("Ignoring renderer message", "raw", string(message))
			continue
		}
		select {
		case l.acks <- ack:
		default:
			l.logger.Debug("Ack queue full, dropping", "for", ack.For)
		}
	}
}

// redial retries with exponential backoff and replays renderer state on
// the new connection. Nil when the link closed or attempts ran out.
func (l *link) redial() *ws.Conn {
	backoff := time.Second
	for attempt := 1; attempt <= maxRedials; attempt++ {
		select {
		case <-l.ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxBackoff)

		l.logger.Info("Reconnecting to renderer", "attempt", attempt)
		conn, err := l.dial()
		if err != nil {
			l.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			continue
		}
		if err := l.replayTo(conn); err != nil {
			l.logger.Warn("Failed to replay state after reconnect", "error", err)
			_ = conn.Close()
			continue
		}
		l.logger.Info("Renderer reconnected", "attempt", attempt)
		return conn
	}
	l.logger.Error("Renderer reconnect failed", "attempts", maxRedials)
	return nil
}

func (l *link) replayTo(conn *ws.Conn) error {
	if l.replay == nil {
		return nil
	}
	for _, msg := range l.replay() {
		if err := write(conn, msg); err != nil {
			return err
		}
	}
	return nil
}

// send queues data without blocking. False when the outbox is full.
func (l *link) send(data []byte) bool {
	select {
	case l.outbox <- data:
		return true
	default:
		l.logger.Warn("Renderer outbox full, dropping message")
		return false
	}
}

// drain discards everything still queued and returns how many messages
// that was.
func (l *link) drain() int {
	n := 0
	for {
		select {
		case <-l.outbox:
			n++
		default:
			return n
		}
	}
}

// request queues data and waits for the renderer to ack ackFor.
func (l *link) request(data []byte, ackFor string, timeout time.Duration) error {
	l.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-l.acks:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-l.ctx.Done():
			return fmt.Errorf("waiting for ack of %q: %w", ackFor, errLinkClosed)
		}
	}
}

// close sends a close frame and stops the supervisor. Safe to call twice.
func (l *link) close() error {
	if l.ctx.Err() != nil {
		return nil
	}

	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
	}

	l.cancel()
	l.wg.Wait()
	return nil
}
