package frame

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/snar-ar/overlay/internal/frame"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	processed metric.Int64Counter
	skipped   metric.Int64Counter
	created   metric.Int64Counter
	updated   metric.Int64Counter
	retired   metric.Int64Counter
	duration  metric.Float64Histogram
}

// newMetrics uses the global OTel meter (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := meter()
	out := &metrics{}

	var err error
	out.processed, err = m.Int64Counter(
		"overlay.frames.processed",
		metric.WithDescription("Frames that ran projection and reconciliation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	out.skipped, err = m.Int64Counter(
		"overlay.frames.skipped",
		metric.WithDescription("Frames skipped before projection"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	out.created, err = m.Int64Counter(
		"overlay.annotations.created",
		metric.WithDescription("Annotations created"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating created counter: %w", err)
	}

	out.updated, err = m.Int64Counter(
		"overlay.annotations.updated",
		metric.WithDescription("Annotations moved or restyled in place"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating updated counter: %w", err)
	}

	out.retired, err = m.Int64Counter(
		"overlay.annotations.retired",
		metric.WithDescription("Annotations retired"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating retired counter: %w", err)
	}

	out.duration, err = m.Float64Histogram(
		"overlay.frame.duration",
		metric.WithDescription("Frame processing time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return out, nil
}

func (m *metrics) record(ctx context.Context, r Report) {
	if r.Skipped != SkipNone {
		m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(r.Skipped))))
	} else {
		m.processed.Add(ctx, 1)
		m.duration.Record(ctx, float64(r.Duration)/float64(time.Millisecond))
	}
	if r.Result.Created > 0 {
		m.created.Add(ctx, int64(r.Result.Created))
	}
	if r.Result.Updated > 0 {
		m.updated.Add(ctx, int64(r.Result.Updated))
	}
	if r.Result.Retired > 0 {
		m.retired.Add(ctx, int64(r.Result.Retired))
	}
}
