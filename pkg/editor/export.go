package editor

import (
	"context"
	"time"

	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/observability"
	"github.com/matzehuels/photostudio/pkg/render"
)

// ExportResult describes a delivered export.
type ExportResult struct {
	// Path is where the sink put the artifact.
	Path     string
	Artifact render.Artifact
	// Root is what was rendered: the selected layer, or the whole canvas.
	Root render.Root
}

// ExportLabel returns the caption of the export button for f, which depends
// on whether a layer is selected.
func (e *Editor) ExportLabel(f render.Format) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	selected := false
	if d, ok := e.ws.Active(); ok {
		selected = d.SelectedLayerID != ""
	}
	switch {
	case f == render.FormatPNG && selected:
		return "Layer PNG"
	case f == render.FormatPNG:
		return "PNG (HD)"
	case selected:
		return "Save Selection"
	}
	return "Save JPG"
}

// Export renders the active document at render.PixelRatio and delivers it to
// the sink. With a layer selected only that layer is rendered.
//
// The selection overlay must not end up in the raster, so export clears the
// selection, waits for one frame to be drawn without it, captures, and then
// restores the selection. The selection is restored even when rendering
// fails, unless the user selected something else or the layer went away in
// the meantime.
func (e *Editor) Export(ctx context.Context, f render.Format) (*ExportResult, error) {
	e.mu.Lock()
	d, err := e.active()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.ui.Exporting {
		e.mu.Unlock()
		return nil, errors.New(errors.ErrCodeBusy, "an export is already running")
	}
	docID, selected := d.ID, d.SelectedLayerID
	root := render.CanvasRoot()
	if selected != "" {
		root = render.LayerRoot(selected)
	}
	d.SelectedLayerID = ""
	e.gesture = nil
	e.ui.Exporting = true
	e.mu.Unlock()
	defer e.restoreSelection(docID, selected)

	start := time.Now()
	observability.Export().OnExportStart(ctx, root.String(), string(f))
	res, err := e.export(ctx, docID, root, f)
	if err != nil {
		observability.Export().OnExportComplete(ctx, "", 0, 0, time.Since(start), err)
		e.logger.Error("export failed", "root", root, "format", f, "error", err)
		return nil, err
	}
	a := res.Artifact
	observability.Export().OnExportComplete(ctx, a.Name, a.Width, a.Height, time.Since(start), nil)
	e.logger.Info("exported", "file", res.Path, "size", sizeString(a.Width, a.Height), "duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (e *Editor) export(ctx context.Context, docID string, root render.Root, f render.Format) (*ExportResult, error) {
	if err := e.frames.WaitFrame(ctx); err != nil {
		return nil, err
	}

	e.mu.Lock()
	d, ok := e.ws.Document(docID)
	if !ok {
		e.mu.Unlock()
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document was closed during export")
	}
	snap := d.Clone()
	e.mu.Unlock()

	flat, err := render.Flatten(ctx, snap, root, render.PixelRatio, render.StoreLoader(e.store))
	if err != nil {
		return nil, err
	}
	a, err := render.NewArtifact(snap.Name, f, flat)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode export")
	}
	path, err := e.sink.Deliver(ctx, a)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "deliver export")
	}
	return &ExportResult{Path: path, Artifact: a, Root: flat.Root}, nil
}

func (e *Editor) restoreSelection(docID, layerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ui.Exporting = false
	if layerID == "" {
		return
	}
	d, ok := e.ws.Document(docID)
	if !ok || d.SelectedLayerID != "" {
		return
	}
	if _, ok := d.Layer(layerID); ok {
		d.SelectedLayerID = layerID
	}
}
