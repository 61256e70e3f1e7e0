package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/observability"
)

// MergedLayerName names the layer created by a merge.
const MergedLayerName = "AI Merged Photo"

// AIResult describes what an AI action did to the workspace.
type AIResult struct {
	// Applied is false when the service returned no image or the target
	// disappeared while the request was outstanding.
	Applied    bool       `json:"applied"`
	DocumentID string     `json:"document_id"`
	LayerID    string     `json:"layer_id,omitempty"`
	Bitmap     bitmap.Ref `json:"bitmap,omitempty"`
	// Reason explains why nothing was applied.
	Reason string `json:"reason,omitempty"`
}

// RunAI sends the selected layer's bitmap to the service and swaps the
// result in. Only the bitmap changes; position, size and adjustments stay.
// custom is the outfit description for genai.ModeDressChange and ignored
// otherwise.
func (e *Editor) RunAI(ctx context.Context, mode genai.Mode, custom string) (AIResult, error) {
	instruction, err := mode.Instruction(custom)
	if err != nil {
		return AIResult{}, err
	}

	e.mu.Lock()
	d, err := e.active()
	if err != nil {
		e.mu.Unlock()
		return AIResult{}, err
	}
	l, ok := d.Selected()
	if !ok {
		e.mu.Unlock()
		return AIResult{}, errors.New(errors.ErrCodeNoSelection, "please select a layer first")
	}
	if err := e.beginLoading(fmt.Sprintf("AI processing %s...", mode.Label())); err != nil {
		e.mu.Unlock()
		return AIResult{}, err
	}
	docID, layerID := d.ID, l.ID
	e.mu.Unlock()
	defer e.endLoading()

	res := AIResult{DocumentID: docID, LayerID: layerID}
	start := time.Now()
	observability.AI().OnAIStart(ctx, string(mode))
	res, err = e.runEdit(ctx, mode, instruction, l.Bitmap, res)
	observability.AI().OnAIComplete(ctx, string(mode), res.Applied, time.Since(start), err)
	return res, err
}

func (e *Editor) runEdit(ctx context.Context, mode genai.Mode, instruction string, src bitmap.Ref, res AIResult) (AIResult, error) {
	data, err := e.store.Get(ctx, src)
	if err != nil {
		return res, errors.Wrap(errors.ErrCodeInternal, err, "load layer bitmap")
	}
	img, err := e.ai.Edit(ctx, genai.EditRequest{Mode: mode, Image: genai.NewImage(data), Instruction: instruction})
	if err != nil {
		e.logger.Error("AI request failed", "mode", mode, "error", err)
		return res, err
	}
	if img == nil {
		e.logger.Warn("AI returned no image", "mode", mode)
		res.Reason = "the service returned no image"
		return res, nil
	}
	ref, err := e.storeResult(ctx, img)
	if err != nil {
		return res, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.ws.Document(res.DocumentID)
	if !ok {
		res.Reason = "document was closed"
		e.logger.Warn("AI result dropped", "mode", mode, "reason", res.Reason)
		return res, nil
	}
	applied, err := d.UpdateLayer(res.LayerID, document.BitmapPatch(ref))
	if err != nil {
		return res, err
	}
	if !applied {
		res.Reason = "layer was deleted"
		e.logger.Warn("AI result dropped", "mode", mode, "reason", res.Reason)
		return res, nil
	}
	res.Applied, res.Bitmap = true, ref
	e.logger.Info("AI edit applied", "mode", mode, "layer", res.LayerID, "bitmap", ref)
	return res, nil
}

// storeResult checks that the service returned a decodable image and stores
// it.
func (e *Editor) storeResult(ctx context.Context, img *genai.Image) (bitmap.Ref, error) {
	if _, err := bitmap.Decode(img.Data); err != nil {
		return "", errors.Wrap(errors.ErrCodeServiceFailure, err, "service returned an unreadable image")
	}
	ref, err := e.store.Put(ctx, img.Data)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "store bitmap")
	}
	return ref, nil
}

// beginLoading claims the single AI slot. Callers hold mu.
func (e *Editor) beginLoading(msg string) error {
	if e.ui.Loading {
		return errors.New(errors.ErrCodeBusy, "an AI request is already running: %s", e.ui.LoadingMessage)
	}
	e.ui.Loading = true
	e.ui.LoadingMessage = msg
	return nil
}

func (e *Editor) endLoading() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ui.Loading = false
	e.ui.LoadingMessage = ""
}

// =============================================================================
// Merge
// =============================================================================

// OpenMergeModal shows the two-photo merge dialog.
func (e *Editor) OpenMergeModal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ui.MergeModalOpen = true
}

// CloseMergeModal hides the merge dialog. Chosen photos are kept.
func (e *Editor) CloseMergeModal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ui.MergeModalOpen = false
}

// SetMergeSlot fills slot 1 or 2 with an encoded photo.
func (e *Editor) SetMergeSlot(slot int, data []byte) error {
	if slot != 1 && slot != 2 {
		return errors.New(errors.ErrCodeInvalidInput, "merge slot must be 1 or 2, got %d", slot)
	}
	if _, err := bitmap.Decode(data); err != nil {
		return err
	}
	img := genai.NewImage(data)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.merge[slot-1] = &img
	e.ui.MergeSlots[slot-1] = true
	return nil
}

// ClearMergeSlot empties slot 1 or 2.
func (e *Editor) ClearMergeSlot(slot int) {
	if slot != 1 && slot != 2 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.merge[slot-1] = nil
	e.ui.MergeSlots[slot-1] = false
}

// Merge asks the service to combine the two chosen portraits. On success the
// result becomes a new selected layer fit into 90% of the canvas, and the
// dialog closes with both slots cleared. On failure the slots are kept for a
// retry.
func (e *Editor) Merge(ctx context.Context) (AIResult, error) {
	e.mu.Lock()
	first, second := e.merge[0], e.merge[1]
	if first == nil || second == nil {
		e.mu.Unlock()
		return AIResult{}, errors.New(errors.ErrCodeMergeIncomplete, "please upload two photos to merge")
	}
	d, err := e.active()
	if err != nil {
		e.mu.Unlock()
		return AIResult{}, err
	}
	if err := e.beginLoading("AI merging photos side-by-side..."); err != nil {
		e.mu.Unlock()
		return AIResult{}, err
	}
	docID := d.ID
	e.mu.Unlock()
	defer e.endLoading()

	const op = "merge"
	start := time.Now()
	observability.AI().OnAIStart(ctx, op)
	res, err := e.runMerge(ctx, docID, *first, *second)
	observability.AI().OnAIComplete(ctx, op, res.Applied, time.Since(start), err)
	return res, err
}

func (e *Editor) runMerge(ctx context.Context, docID string, first, second genai.Image) (AIResult, error) {
	res := AIResult{DocumentID: docID}
	img, err := e.ai.Merge(ctx, genai.MergeRequest{First: first, Second: second})
	if err != nil {
		e.logger.Error("AI merge failed", "error", err)
		return res, err
	}
	if img == nil {
		e.logger.Warn("AI returned no image", "mode", "merge")
		res.Reason = "the service returned no image"
		return res, nil
	}
	info, err := bitmap.Decode(img.Data)
	if err != nil {
		return res, errors.Wrap(errors.ErrCodeServiceFailure, err, "service returned an unreadable image")
	}
	ref, err := e.store.Put(ctx, img.Data)
	if err != nil {
		return res, errors.Wrap(errors.ErrCodeInternal, err, "store bitmap")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.ws.Document(docID)
	if !ok {
		res.Reason = "document was closed"
		e.logger.Warn("AI result dropped", "mode", "merge", "reason", res.Reason)
		return res, nil
	}
	l, err := document.NewLayer(MergedLayerName, ref, info.Width, info.Height, d.Width, d.Height, document.MergeFit)
	if err != nil {
		return res, err
	}
	if err := d.AddLayer(l); err != nil {
		return res, err
	}
	if e.ws.ActiveID() == docID {
		e.gesture = nil
	}
	e.merge = [2]*genai.Image{}
	e.ui.MergeSlots = [2]bool{}
	e.ui.MergeModalOpen = false

	res.Applied, res.LayerID, res.Bitmap = true, l.ID, ref
	e.logger.Info("AI merge applied", "layer", l.ID, "size", sizeString(info.Width, info.Height))
	return res, nil
}
