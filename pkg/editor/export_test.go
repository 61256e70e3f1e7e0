package editor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/render"
)

// frameRecorder records the editor state observed while export waits for a
// frame.
type frameRecorder struct {
	e          *Editor
	calls      int
	selected   string
	exporting  bool
	onWait     func()
	waitResult error
}

func (p *frameRecorder) WaitFrame(ctx context.Context) error {
	p.calls++
	d, _ := p.e.Active()
	p.selected = d.SelectedLayerID
	p.exporting = p.e.UI().Exporting
	if p.onWait != nil {
		p.onWait()
	}
	return p.waitResult
}

func TestExportSelectedLayer(t *testing.T) {
	sink := &render.MemorySink{}
	rec := &frameRecorder{}
	e, l := newPassport(t, WithSink(sink), WithFrameSync(rec))
	rec.e = e

	res, err := e.Export(context.Background(), render.FormatPNG)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calls, "export waits exactly one frame")
	assert.Empty(t, rec.selected, "selection is hidden before capture")
	assert.True(t, rec.exporting)

	assert.Equal(t, render.LayerRoot(l.ID), res.Root)
	assert.Equal(t, 1920, res.Artifact.Width)
	assert.Equal(t, 1920, res.Artifact.Height)
	assert.Equal(t, "Untitled-1_export.png", res.Artifact.Name)

	d, _ := e.Active()
	assert.Equal(t, l.ID, d.SelectedLayerID, "selection is restored")
	assert.False(t, e.UI().Exporting)

	a, ok := sink.Last()
	require.True(t, ok)
	assert.Equal(t, res.Artifact.Name, a.Name)
}

func TestExportCanvas(t *testing.T) {
	sink := &render.MemorySink{}
	e, _ := newPassport(t, WithSink(sink))
	e.ClearSelection()

	res, err := e.Export(context.Background(), render.FormatJPEG)
	require.NoError(t, err)
	assert.True(t, res.Root.IsCanvas())
	assert.Equal(t, 2400, res.Artifact.Width)
	assert.Equal(t, 2400, res.Artifact.Height)
	assert.Equal(t, render.FormatJPEG, res.Artifact.Format)
	assert.Equal(t, "Untitled-1_export.jpeg", res.Artifact.Name)

	d, _ := e.Active()
	assert.Empty(t, d.SelectedLayerID)
}

func TestExportHiddenSelectionFallsBackToCanvas(t *testing.T) {
	e, l := newPassport(t, WithSink(&render.MemorySink{}))
	require.True(t, e.ToggleVisibility(l.ID))

	res, err := e.Export(context.Background(), render.FormatPNG)
	require.NoError(t, err)
	assert.True(t, res.Root.IsCanvas())
	assert.Equal(t, 2400, res.Artifact.Width)
}

func TestExportRestoresSelectionOnFailure(t *testing.T) {
	rec := &frameRecorder{waitResult: context.Canceled}
	e, l := newPassport(t, WithSink(&render.MemorySink{}), WithFrameSync(rec))
	rec.e = e

	_, err := e.Export(context.Background(), render.FormatPNG)
	require.ErrorIs(t, err, context.Canceled)

	d, _ := e.Active()
	assert.Equal(t, l.ID, d.SelectedLayerID)
	assert.False(t, e.UI().Exporting)
}

func TestExportOversizedLayer(t *testing.T) {
	sink := &render.MemorySink{}
	e, l := newPassport(t, WithSink(sink))
	huge := 1e7
	_, err := e.UpdateLayer(l.ID, document.Patch{ScaleX: &huge, ScaleY: &huge})
	require.NoError(t, err)

	_, err = e.Export(context.Background(), render.FormatPNG)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
	assert.Empty(t, sink.Artifacts())

	d, _ := e.Active()
	assert.Equal(t, l.ID, d.SelectedLayerID, "selection is restored")
	assert.False(t, e.UI().Exporting)
}

func TestExportDoesNotRestoreDeletedLayer(t *testing.T) {
	rec := &frameRecorder{}
	sink := &render.MemorySink{}
	e, l := newPassport(t, WithSink(sink), WithFrameSync(rec))
	rec.e = e
	rec.onWait = func() { e.DeleteLayer(l.ID) }

	res, err := e.Export(context.Background(), render.FormatPNG)
	require.NoError(t, err)
	assert.True(t, res.Root.IsCanvas(), "deleted root falls back to the canvas")

	d, _ := e.Active()
	assert.Empty(t, d.SelectedLayerID)
}

func TestExportKeepsNewerSelection(t *testing.T) {
	rec := &frameRecorder{}
	e, first := newPassport(t, WithSink(&render.MemorySink{}), WithFrameSync(rec))
	second, err := e.Upload(context.Background(), "b.png", pngBytes(t, 10, 10, green))
	require.NoError(t, err)
	require.NoError(t, e.SelectLayer(first.ID))
	rec.e = e
	rec.onWait = func() { require.NoError(t, e.SelectLayer(second.ID)) }

	_, err = e.Export(context.Background(), render.FormatPNG)
	require.NoError(t, err)

	d, _ := e.Active()
	assert.Equal(t, second.ID, d.SelectedLayerID)
}

func TestExportBusy(t *testing.T) {
	rec := &frameRecorder{}
	e, _ := newPassport(t, WithSink(&render.MemorySink{}), WithFrameSync(rec))
	rec.e = e
	var inner error
	rec.onWait = func() { _, inner = e.Export(context.Background(), render.FormatPNG) }

	_, err := e.Export(context.Background(), render.FormatPNG)
	require.NoError(t, err)
	assert.True(t, errors.Is(inner, errors.ErrCodeBusy), "inner = %v", inner)
}

func TestExportNoDocument(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	_, err = e.Export(context.Background(), render.FormatPNG)
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveDocument), "err = %v", err)
}

func TestExportLabel(t *testing.T) {
	e, _ := newPassport(t)
	assert.Equal(t, "Layer PNG", e.ExportLabel(render.FormatPNG))
	assert.Equal(t, "Save Selection", e.ExportLabel(render.FormatJPEG))

	e.ClearSelection()
	assert.Equal(t, "PNG (HD)", e.ExportLabel(render.FormatPNG))
	assert.Equal(t, "Save JPG", e.ExportLabel(render.FormatJPEG))
}

func TestFrameSignal(t *testing.T) {
	f := NewFrameSignal()
	f.Rendered() // stale frame from before the wait

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.WaitFrame(ctx), context.DeadlineExceeded, "stale frames do not count")

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan error, 1)
	go func() {
		defer wg.Done()
		done <- f.WaitFrame(context.Background())
	}()
	deadline := time.After(2 * time.Second)
	for {
		f.Rendered()
		select {
		case err := <-done:
			require.NoError(t, err)
			wg.Wait()
			return
		case <-deadline:
			t.Fatal("WaitFrame did not return")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
