// Package logsink logs every annotation operation. On its own it hands out
// handles and renders nothing; wrapped around another sink it adds logging
// to that sink's calls.
package logsink

import (
	"github.com/google/uuid"
	"github.com/snar-ar/overlay/internal/reconcile"
	"github.com/snar-ar/overlay/pkg/core"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
}

// Sink implements reconcile.Sink.
type Sink struct {
	inner  reconcile.Sink
	logger Logger
}

// New returns a standalone sink that logs creates and retires at info and
// updates at debug.
func New(logger Logger) *Sink {
	return &Sink{logger: logger}
}

// Wrap logs calls and forwards them to inner.
func Wrap(inner reconcile.Sink, logger Logger) *Sink {
	return &Sink{inner: inner, logger: logger}
}

func (s *Sink) Create(id core.PointID, x, y float64, text string, scale float64) core.AnnotationHandle {
	var h core.AnnotationHandle
	if s.inner != nil {
		h = s.inner.Create(id, x, y, text, scale)
	} else {
		h = core.AnnotationHandle(uuid.NewString())
	}
	s.logger.Info("annotation created", "point", id, "handle", h, "x", x, "y", y, "scale", scale, "text", text)
	return h
}

func (s *Sink) Update(h core.AnnotationHandle, x, y float64, text string, scale float64) {
	if s.inner != nil {
		s.inner.Update(h, x, y, text, scale)
	}
	s.logger.Debug("annotation updated", "handle", h, "x", x, "y", y, "scale", scale)
}

func (s *Sink) Retire(h core.AnnotationHandle) {
	if s.inner != nil {
		s.inner.Retire(h)
	}
	s.logger.Info("annotation retired", "handle", h)
}
