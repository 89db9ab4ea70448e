package memory

import (
	"testing"

	"github.com/snar-ar/overlay/internal/reconcile"
	"github.com/snar-ar/overlay/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check.
var _ reconcile.Sink = (*Sink)(nil)

func TestSink_Lifecycle(t *testing.T) {
	s := New()

	h := s.Create(7, 10, 20, "Library (40 m)", 15)
	require.NotEmpty(t, h)

	w, ok := s.Widget(h)
	require.True(t, ok)
	assert.Equal(t, Widget{Handle: h, PointID: 7, ScreenX: 10, ScreenY: 20, Text: "Library (40 m)", TextScale: 15}, w)

	s.Update(h, 11, 21, "Library (39 m)", 15.1)
	w, _ = s.Widget(h)
	assert.Equal(t, 11.0, w.ScreenX)
	assert.Equal(t, "Library (39 m)", w.Text)
	assert.Equal(t, core.PointID(7), w.PointID)

	s.Retire(h)
	assert.Equal(t, 0, s.Len())

	ops := s.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, []string{OpCreate, OpUpdate, OpRetire}, []string{ops[0].Kind, ops[1].Kind, ops[2].Kind})
	assert.Empty(t, s.Ops())
	assert.Zero(t, s.Unknown())
}

func TestSink_UniqueHandles(t *testing.T) {
	s := New()
	seen := map[core.AnnotationHandle]bool{}
	for i := 0; i < 100; i++ {
		h := s.Create(core.PointID(i), 0, 0, "", 8)
		assert.False(t, seen[h])
		seen[h] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestSink_UnknownHandles(t *testing.T) {
	s := New()
	s.Update("nope", 1, 1, "", 8)
	s.Retire("nope")
	assert.Equal(t, 2, s.Unknown())
	assert.Equal(t, 0, s.Len())
}

func TestSink_WidgetsOrdered(t *testing.T) {
	s := New()
	s.Create(3, 0, 0, "c", 8)
	s.Create(1, 0, 0, "a", 8)
	s.Create(2, 0, 0, "b", 8)

	ws := s.Widgets()
	require.Len(t, ws, 3)
	assert.Equal(t, "a", ws[0].Text)
	assert.Equal(t, "c", ws[2].Text)
	assert.Equal(t, 3, s.Count(OpCreate))
}

func TestSink_WithReconciler(t *testing.T) {
	s := New()
	r := reconcile.New(s)

	r.Reconcile([]core.ProjectedPoint{{PointID: 1, Visible: true, ScreenX: 5, Text: "a", TextScale: 9}})
	r.Reconcile([]core.ProjectedPoint{{PointID: 2, Visible: true, ScreenX: 6, Text: "b", TextScale: 9}})

	ws := s.Widgets()
	require.Len(t, ws, 1)
	assert.Equal(t, core.PointID(2), ws[0].PointID)
	assert.Equal(t, r.Live()[2], ws[0].Handle)
}
