package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("handler error")
}

func textHandler(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(nil, textHandler(&a, slog.LevelInfo), nil, textHandler(&b, slog.LevelWarn))
	require.Len(t, multi.handlers, 2)

	log := slog.New(multi)
	log.Info("to a")
	log.Warn("to both")

	assert.Contains(t, a.String(), "to a")
	assert.NotContains(t, b.String(), "to a")
	assert.Contains(t, a.String(), "to both")
	assert.Contains(t, b.String(), "to both")
}

func TestMultiHandler_Enabled(t *testing.T) {
	ctx := context.Background()
	info := textHandler(&bytes.Buffer{}, slog.LevelInfo)
	debug := textHandler(&bytes.Buffer{}, slog.LevelDebug)

	assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelError))
	assert.False(t, NewMultiHandler(info).Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewMultiHandler(info, debug).Enabled(ctx, slog.LevelDebug))
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(textHandler(&buf, slog.LevelInfo))

	assert.Same(t, multi, multi.WithGroup(""))

	h := multi.WithAttrs([]slog.Attr{slog.String("component", "frame")}).WithGroup("poi")
	slog.New(h).Info("grouped", "id", "tower")

	assert.Contains(t, buf.String(), "component=frame")
	assert.Contains(t, buf.String(), "poi.id=tower")
}

func TestMultiHandler_FailureDoesNotStopDelivery(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(failingHandler{}, textHandler(&buf, slog.LevelInfo), failingHandler{})

	err := multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "reaches spy", 0))
	require.Error(t, err)
	assert.Equal(t, "handler error\nhandler error", err.Error())
	assert.Contains(t, buf.String(), "reaches spy")
}

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	frame := 7
	h := NewContextHandler(textHandler(&buf, slog.LevelInfo), func() []slog.Attr {
		if frame == 0 {
			return nil
		}
		return []slog.Attr{slog.Int("frame", frame)}
	})

	log := slog.New(h).With("component", "reconcile")
	log.Info("tick")
	frame = 0
	log.Info("idle")

	assert.Contains(t, buf.String(), "msg=tick component=reconcile frame=7")
	assert.Contains(t, buf.String(), "msg=idle component=reconcile\n")
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}
