package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/geom"
	"github.com/matzehuels/photostudio/pkg/session"
)

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	blue  = color.NRGBA{B: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
)

// newPassport returns an editor with one passport document and a
// 1200x1200 layer on it.
func newPassport(t *testing.T, opts ...Option) (*Editor, document.Layer) {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	_, err = e.NewDocument("Passport Size")
	require.NoError(t, err)
	l, err := e.Upload(context.Background(), "portrait.png", pngBytes(t, 1200, 1200, blue))
	require.NoError(t, err)
	return e, l
}

func activeLayer(t *testing.T, e *Editor, id string) document.Layer {
	t.Helper()
	d, ok := e.Active()
	require.True(t, ok)
	l, ok := d.Layer(id)
	require.True(t, ok, "layer %s missing", id)
	return l
}

func TestNewDefaultDocument(t *testing.T) {
	e, err := New(WithDefaultDocument())
	require.NoError(t, err)

	d, ok := e.Active()
	require.True(t, ok)
	assert.Equal(t, "Untitled-1", d.Name)
	assert.Equal(t, 600, d.Width)
	assert.Equal(t, 600, d.Height)
	assert.Equal(t, ToolMove, e.UI().Tool)
}

func TestNewDocumentUnknownPreset(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	_, err = e.NewDocument("Billboard")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPreset), "err = %v", err)
	assert.Empty(t, e.Documents())
}

func TestUploadFitsAndSelects(t *testing.T) {
	e, l := newPassport(t)

	assert.Equal(t, "portrait.png", l.Name)
	assert.InDelta(t, 480, l.Width, 1e-9)
	assert.InDelta(t, 480, l.Height, 1e-9)
	assert.InDelta(t, 60, l.X, 1e-9)
	assert.InDelta(t, 60, l.Y, 1e-9)
	assert.Equal(t, 1.0, l.Opacity)
	assert.Equal(t, errors.Transparent, l.BgColor)

	d, _ := e.Active()
	assert.Equal(t, l.ID, d.SelectedLayerID)
	assert.Equal(t, StateSelected, e.State())
}

func TestUploadWithoutDocument(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	_, err = e.Upload(context.Background(), "a.png", pngBytes(t, 4, 4, blue))
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveDocument), "err = %v", err)
}

func TestUploadRejectsGarbage(t *testing.T) {
	e, err := New(WithDefaultDocument())
	require.NoError(t, err)
	_, err = e.Upload(context.Background(), "notes.txt", []byte("hello"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidImage), "err = %v", err)
	d, _ := e.Active()
	assert.Empty(t, d.Layers)
}

func TestClickSelectsTopmost(t *testing.T) {
	e, bottom := newPassport(t)
	top, err := e.Upload(context.Background(), "small.png", pngBytes(t, 100, 100, green))
	require.NoError(t, err)

	id, err := e.Click(300, 300)
	require.NoError(t, err)
	assert.Equal(t, top.ID, id)

	id, err = e.Click(100, 100)
	require.NoError(t, err)
	assert.Equal(t, bottom.ID, id)

	id, err = e.Click(5, 5)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, StateIdle, e.State())
}

func TestDragCommitsPositionOnly(t *testing.T) {
	e, l := newPassport(t)
	_, err := e.UpdateLayer(l.ID, document.Patch{Opacity: ptr(0.5)})
	require.NoError(t, err)

	require.NoError(t, e.BeginDrag(l.ID))
	assert.Equal(t, StateDragging, e.State())

	ok, err := e.EndDrag(100, 50)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateSelected, e.State())

	got := activeLayer(t, e, l.ID)
	assert.Equal(t, 100.0, got.X)
	assert.Equal(t, 50.0, got.Y)
	assert.Equal(t, l.Width, got.Width)
	assert.Equal(t, l.Height, got.Height)
	assert.Equal(t, 1.0, got.ScaleX)
	assert.Equal(t, 0.5, got.Opacity)
}

func TestDragPreconditions(t *testing.T) {
	e, l := newPassport(t)

	e.SetTool(ToolCrop)
	err := e.BeginDrag(l.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeToolInactive), "err = %v", err)

	e.SetTool(ToolMove)
	e.ClearSelection()
	err = e.BeginDrag(l.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeNoSelection), "err = %v", err)

	ok, err := e.EndDrag(1, 1)
	require.NoError(t, err)
	assert.False(t, ok, "release without a drag must not commit")
}

func TestToolSwitchEndsGesture(t *testing.T) {
	e, l := newPassport(t)
	require.NoError(t, e.BeginDrag(l.ID))
	e.SetTool(ToolText)

	ok, err := e.EndDrag(0, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, l.X, activeLayer(t, e, l.ID).X)
}

func TestTransformCommitsAtomically(t *testing.T) {
	e, l := newPassport(t)

	err := e.BeginTransform(l.ID, AnchorMiddleLeft)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidAnchor), "err = %v", err)

	require.NoError(t, e.BeginTransform(l.ID, AnchorBottomRight))
	assert.Equal(t, StateTransforming, e.State())

	ok, err := e.EndTransform(geom.Transform{X: 10, Y: 20, ScaleX: 2, ScaleY: 1.5, Rotation: 30})
	require.NoError(t, err)
	require.True(t, ok)

	got := activeLayer(t, e, l.ID)
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, 20.0, got.Y)
	assert.Equal(t, 2.0, got.ScaleX)
	assert.Equal(t, 2.0, got.ScaleY, "aspect ratio is kept")
	assert.Equal(t, 30.0, got.Rotation)
	assert.Equal(t, l.Width, got.Width)
}

func TestTransformLayerDeletedMidGesture(t *testing.T) {
	e, l := newPassport(t)
	require.NoError(t, e.BeginTransform(l.ID, AnchorTopLeft))
	require.True(t, e.DeleteLayer(l.ID))

	ok, err := e.EndTransform(geom.Identity())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScaleByKeepsCenter(t *testing.T) {
	e, l := newPassport(t)
	require.NoError(t, e.ScaleBy(0.5))

	got := activeLayer(t, e, l.ID)
	assert.Equal(t, 0.5, got.ScaleX)
	assert.Equal(t, 0.5, got.ScaleY)
	b := got.Bounds()
	assert.InDelta(t, 300, b.X+b.W/2, 1e-9)
	assert.InDelta(t, 300, b.Y+b.H/2, 1e-9)
}

func TestRotateByKeepsCenter(t *testing.T) {
	e, l := newPassport(t)
	require.NoError(t, e.RotateBy(90))

	got := activeLayer(t, e, l.ID)
	assert.Equal(t, 90.0, got.Rotation)
	b := got.Bounds()
	assert.InDelta(t, 300, b.X+b.W/2, 1e-6)
	assert.InDelta(t, 300, b.Y+b.H/2, 1e-6)
}

func TestNudge(t *testing.T) {
	e, l := newPassport(t)
	require.NoError(t, e.Nudge(5, -10))
	got := activeLayer(t, e, l.ID)
	assert.Equal(t, l.X+5, got.X)
	assert.Equal(t, l.Y-10, got.Y)

	e.ClearSelection()
	assert.True(t, errors.Is(e.Nudge(1, 1), errors.ErrCodeNoSelection))
}

func TestDeleteClearsSelection(t *testing.T) {
	e, l := newPassport(t)
	other, err := e.Upload(context.Background(), "b.png", pngBytes(t, 10, 10, green))
	require.NoError(t, err)

	require.NoError(t, e.SelectLayer(other.ID))
	require.True(t, e.DeleteLayer(l.ID))

	d, _ := e.Active()
	assert.Empty(t, d.SelectedLayerID)
	assert.Len(t, d.Layers, 1)
	assert.False(t, e.DeleteLayer(l.ID))
}

func TestToggles(t *testing.T) {
	e, l := newPassport(t)
	require.True(t, e.ToggleVisibility(l.ID))
	require.True(t, e.ToggleLock(l.ID))

	got := activeLayer(t, e, l.ID)
	assert.False(t, got.Visible)
	assert.True(t, got.Locked)
	assert.False(t, e.ToggleVisibility("missing"))
}

func TestCloseActiveDocument(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	first, err := e.NewDocument("Passport Size")
	require.NoError(t, err)
	second, err := e.NewDocument("A4 Print")
	require.NoError(t, err)

	assert.Equal(t, second.ID, e.ActiveID())
	require.True(t, e.CloseDocument(second.ID))
	assert.Empty(t, e.ActiveID())
	assert.Len(t, e.Documents(), 1)

	require.NoError(t, e.SetActive(first.ID))
	assert.Equal(t, first.ID, e.ActiveID())
	assert.True(t, errors.Is(e.SetActive(second.ID), errors.ErrCodeDocumentNotFound))
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	e, l := newPassport(t)
	d, _ := e.Active()
	d.Layers[0].X = 999

	assert.Equal(t, l.X, activeLayer(t, e, l.ID).X)
}

func TestSnapshotRestore(t *testing.T) {
	e, l := newPassport(t)
	snap := e.Snapshot(session.DefaultID)
	require.Len(t, snap.Documents, 1)

	fresh, err := New(WithStore(e.Store()))
	require.NoError(t, err)
	require.NoError(t, fresh.Restore(snap))

	assert.Equal(t, e.ActiveID(), fresh.ActiveID())
	got := activeLayer(t, fresh, l.ID)
	assert.Equal(t, l, got)
}

func TestRestoreRejectsEmptyDocument(t *testing.T) {
	e, l := newPassport(t)
	id := e.ActiveID()

	err := e.Restore(&session.Snapshot{ID: "broken", Documents: []*document.Document{nil}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	err = e.Restore(nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	assert.Equal(t, id, e.ActiveID())
	assert.Equal(t, l.ID, activeLayer(t, e, l.ID).ID)
}

func TestAddressedDocumentOperations(t *testing.T) {
	ctx := context.Background()
	e, first := newPassport(t)
	a := e.ActiveID()
	b, err := e.NewDocument("Passport Size")
	require.NoError(t, err)
	require.Equal(t, b.ID, e.ActiveID())

	l, err := e.UploadTo(ctx, a, "second.png", pngBytes(t, 100, 100, blue))
	require.NoError(t, err)
	assert.Equal(t, a, e.ActiveID())
	docA, _ := e.Document(a)
	docB, _ := e.Document(b.ID)
	assert.Len(t, docA.Layers, 2)
	assert.Empty(t, docB.Layers)

	ok, err := e.UpdateLayerIn(b.ID, l.ID, document.OpacityPatch(0.5))
	require.NoError(t, err)
	assert.False(t, ok, "layer of another document must not be patched")
	assert.Equal(t, b.ID, e.ActiveID())

	ok, err = e.Drag(a, l.ID, 7, 9)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7.0, activeLayer(t, e, l.ID).X)

	require.NoError(t, e.SelectLayerIn(a, first.ID))
	ok, err = e.Transform(a, first.ID, AnchorRotater, geom.Transform{X: 1, Y: 1, ScaleX: first.ScaleX, ScaleY: first.ScaleY, Rotation: 30})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30.0, activeLayer(t, e, first.ID).Rotation)

	_, err = e.UploadTo(ctx, "missing", "x.png", pngBytes(t, 10, 10, blue))
	assert.True(t, errors.Is(err, errors.ErrCodeDocumentNotFound))
	_, err = e.DeleteLayerIn("missing", l.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeDocumentNotFound))
	assert.Equal(t, a, e.ActiveID())

	ok, err = e.MoveLayerIn(a, l.ID, -1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.DeleteLayerIn(a, l.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func ptr[T any](v T) *T { return &v }
