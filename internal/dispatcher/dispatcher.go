// Package dispatcher routes host commands (frame ticks, surface resizes,
// pause and resume, point reloads) to their handlers.
package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/snar-ar/overlay/internal/dispatcher"

// Event is one host command line.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// ParseLine splits a host command line of the form "command arg1 arg2".
// Blank lines yield an empty command.
func ParseLine(line string) Event {
	e := Event{Timestamp: time.Now()}
	if fields := strings.Fields(line); len(fields) > 0 {
		e.Command = strings.ToLower(fields[0])
		e.Args = fields[1:]
	}
	return e
}

// HandlerFunc handles an event. Buffered handlers' results are discarded.
type HandlerFunc func(Event) (any, error)

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures a route at registration.
type Option func(*routeOptions)

type routeOptions struct {
	queue    int
	blocking bool
	logged   bool
}

// Buffered runs the handler on its own goroutine behind a queue of size n.
// Dispatch returns "queued" immediately.
func Buffered(n int) Option {
	return func(o *routeOptions) { o.queue = n }
}

// Blocking makes Dispatch wait for queue space instead of failing.
func Blocking() Option {
	return func(o *routeOptions) { o.blocking = true }
}

// Logged logs each dispatch at debug level and failures at error level.
func Logged() Option {
	return func(o *routeOptions) { o.logged = true }
}

type instruments struct {
	depth     metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
}

// Dispatcher maps command names to handlers. Register everything before
// the first Dispatch.
type Dispatcher struct {
	routes map[string]HandlerFunc
	logger Logger
	inst   instruments

	mu      sync.RWMutex
	queues  map[string]chan Event
	closed  bool
	workers sync.WaitGroup
}

// New creates a Dispatcher. Metrics go to the global OTel meter provider.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[string]HandlerFunc),
		queues: make(map[string]chan Event),
		logger: logger,
	}
	if err := d.instrument(otel.Meter(instrumentationName)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) instrument(m metric.Meter) error {
	var err error
	if d.inst.depth, err = m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Events waiting in a buffered route")); err != nil {
		return fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err = m.RegisterCallback(d.observeQueues, d.inst.depth); err != nil {
		return fmt.Errorf("registering queue callback: %w", err)
	}
	if d.inst.processed, err = m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Buffered events handled")); err != nil {
		return fmt.Errorf("creating processed counter: %w", err)
	}
	if d.inst.dropped, err = m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Events rejected because a route queue was full")); err != nil {
		return fmt.Errorf("creating dropped counter: %w", err)
	}
	return nil
}

func (d *Dispatcher) observeQueues(_ context.Context, o metric.Observer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for cmd, q := range d.queues {
		o.ObserveInt64(d.inst.depth, int64(len(q)),
			metric.WithAttributes(attribute.String("command", cmd)))
	}
	return nil
}

// Register routes command to h.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.queue > 0 {
		h = d.enqueue(command, o.queue, o.blocking, h)
	}
	if o.logged {
		h = d.logged(command, h)
	}
	d.routes[command] = h
}

// Dispatch hands e to its route.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.routes[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	return h(e)
}

func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.routes[command]
	return ok
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.routes))
	for cmd := range d.routes {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Close stops accepting buffered events and waits for queued ones to be
// handled. Dispatch must not be called concurrently with or after Close.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.workers.Wait()
}

// enqueue starts the route's worker and returns the producer side.
func (d *Dispatcher) enqueue(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	q := make(chan Event, size)
	d.mu.Lock()
	d.queues[command] = q
	d.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("command", command))

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range q {
			if _, err := h(e); err != nil {
				d.logger.Error("buffered event failed", "command", command, "error", err)
			}
			d.inst.processed.Add(context.Background(), 1, attrs)
		}
	}()

	if blocking {
		return func(e Event) (any, error) {
			q <- e
			return "queued", nil
		}
	}
	return func(e Event) (any, error) {
		select {
		case q <- e:
			return "queued", nil
		default:
			d.inst.dropped.Add(context.Background(), 1, attrs)
			return nil, fmt.Errorf("queue full: %s", command)
		}
	}
}

func (d *Dispatcher) logged(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)
		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
			return result, err
		}
		d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		return result, nil
	}
}
