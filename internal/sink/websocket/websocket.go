// Package websocket streams annotation operations to an out-of-process
// renderer. Sink calls never block the frame: messages are queued for a
// single writer goroutine and dropped if the queue is full.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/snar-ar/overlay/pkg/core"
	"github.com/snar-ar/overlay/pkg/streaming"
)

// Config holds WebSocket sink configuration.
type Config struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// Sink implements reconcile.Sink over a WebSocket.
type Sink struct {
	link    *link
	cfg     Config
	session string
	logger  *slog.Logger

	mu       sync.Mutex
	live     map[core.AnnotationHandle]streaming.AnnotationPayload
	viewport core.Viewport
	dirty    bool

	dropped atomic.Uint64
	resyncs atomic.Uint64
}

// New creates a sink. Call Start before the first frame.
func New(cfg Config, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		link:    newLink(logger),
		cfg:     cfg,
		session: uuid.NewString(),
		logger:  logger,
		live:    make(map[core.AnnotationHandle]streaming.AnnotationPayload),
	}
	s.link.replay = s.replay
	return s
}

// Session returns the id announced in session_start.
func (s *Sink) Session() string {
	return s.session
}

// Start connects and announces the session, waiting for the renderer's ack.
func (s *Sink) Start(viewport core.Viewport) error {
	s.mu.Lock()
	s.viewport = viewport
	s.mu.Unlock()

	if err := s.link.open(s.cfg.URL, s.cfg.Secret); err != nil {
		return err
	}
	s.mu.Lock()
	start := s.sessionStart()
	s.mu.Unlock()

	data, err := marshalEnvelope(streaming.TypeSessionStart, start)
	if err != nil {
		return err
	}
	return s.link.request(data, streaming.TypeSessionStart, ackTimeout)
}

// Close ends the session and disconnects.
func (s *Sink) Close() error {
	data, err := marshalEnvelope(streaming.TypeSessionEnd, streaming.SessionStartPayload{Session: s.session})
	if err == nil {
		if err := s.link.request(data, streaming.TypeSessionEnd, ackTimeout); err != nil {
			s.logger.Warn("Renderer did not acknowledge session end", "error", err)
		}
	}
	return s.link.close()
}

// Dropped returns how many messages could not be queued. Each drop forces
// a resync, so the renderer never keeps a widget the overlay retired.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Resyncs returns how many times renderer state was rebuilt in-session.
func (s *Sink) Resyncs() uint64 {
	return s.resyncs.Load()
}

func (s *Sink) Create(id core.PointID, x, y float64, text string, scale float64) core.AnnotationHandle {
	p := streaming.AnnotationPayload{
		Handle:    core.AnnotationHandle(uuid.NewString()),
		PointID:   id,
		ScreenX:   x,
		ScreenY:   y,
		Text:      text,
		TextScale: scale,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[p.Handle] = p
	s.deliver(streaming.TypeAnnotationCreate, p)
	return p.Handle
}

func (s *Sink) Update(h core.AnnotationHandle, x, y float64, text string, scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.live[h]
	p.Handle, p.ScreenX, p.ScreenY, p.Text, p.TextScale = h, x, y, text, scale
	s.live[h] = p

	p.PointID = 0
	s.deliver(streaming.TypeAnnotationUpdate, p)
}

func (s *Sink) Retire(h core.AnnotationHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, h)
	s.deliver(streaming.TypeAnnotationRetire, streaming.AnnotationPayload{Handle: h})
}

// deliver queues one delta. s.mu must be held and s.live must already
// reflect the operation, so a resync snapshot covers it.
func (s *Sink) deliver(msgType string, payload any) {
	if s.dirty {
		s.resync()
		return
	}

	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		s.logger.Error("Failed to encode annotation message", "type", msgType, "error", err)
		return
	}
	if !s.link.send(data) {
		s.dropped.Add(1)
		s.resync()
	}
}

// resync discards queued deltas and queues session_start followed by the
// live set. The renderer resets on session_start. If the snapshot does not
// fit the sink stays dirty and retries on the next operation. s.mu held.
func (s *Sink) resync() {
	s.dirty = true
	discarded := s.link.drain()

	for _, msg := range s.snapshot() {
		if !s.link.send(msg) {
			s.logger.Warn("Renderer resync did not fit the outbox", "live", len(s.live))
			return
		}
	}
	s.dirty = false
	s.resyncs.Add(1)
	s.logger.Info("Renderer state resynced", "discarded", discarded, "live", len(s.live))
}

// sessionStart needs s.mu held.
func (s *Sink) sessionStart() streaming.SessionStartPayload {
	return streaming.SessionStartPayload{Session: s.session, Viewport: s.viewport}
}

// replay rebuilds renderer state after a reconnect. Queued deltas are
// discarded because the snapshot already reflects them.
func (s *Sink) replay() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link.drain()
	s.dirty = false
	return s.snapshot()
}

// snapshot encodes session_start and one create per live widget, in
// PointID order. s.mu held.
func (s *Sink) snapshot() [][]byte {
	var out [][]byte
	if data, err := marshalEnvelope(streaming.TypeSessionStart, s.sessionStart()); err == nil {
		out = append(out, data)
	}

	live := make([]streaming.AnnotationPayload, 0, len(s.live))
	for _, p := range s.live {
		live = append(live, p)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].PointID < live[j].PointID })

	for _, p := range live {
		if data, err := marshalEnvelope(streaming.TypeAnnotationCreate, p); err == nil {
			out = append(out, data)
		}
	}
	return out
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
