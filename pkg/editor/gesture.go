package editor

import (
	"math"

	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/geom"
)

// Anchor is a transform handle.
type Anchor string

// Handles. Only the corners are enabled; edge handles would allow
// non-uniform stretching.
const (
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopRight     Anchor = "top-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomRight  Anchor = "bottom-right"
	AnchorTopCenter    Anchor = "top-center"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorMiddleLeft   Anchor = "middle-left"
	AnchorMiddleRight  Anchor = "middle-right"
	AnchorRotater      Anchor = "rotater"
)

// EnabledAnchors lists the handles a transform may start from.
var EnabledAnchors = []Anchor{AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight, AnchorRotater}

// Enabled reports whether a transform may start from a.
func (a Anchor) Enabled() bool {
	for _, e := range EnabledAnchors {
		if a == e {
			return true
		}
	}
	return false
}

type gestureKind int

const (
	gestureDrag gestureKind = iota
	gestureTransform
)

// gesture is a pointer interaction in progress on the selected layer.
type gesture struct {
	kind    gestureKind
	docID   string
	layerID string
	anchor  Anchor
	start   geom.Transform
}

// State returns the selection state of the active document.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

func (e *Editor) state() State {
	d, ok := e.ws.Active()
	if !ok || d.SelectedLayerID == "" {
		return StateIdle
	}
	if g := e.gesture; g != nil && g.docID == d.ID {
		if g.kind == gestureDrag {
			return StateDragging
		}
		return StateTransforming
	}
	return StateSelected
}

// SelectLayer selects a layer of the active document. An empty id clears
// the selection.
func (e *Editor) SelectLayer(id string) error {
	return e.SelectLayerIn("", id)
}

// SelectLayerIn is SelectLayer on the document docID, which becomes active.
func (e *Editor) SelectLayerIn(docID, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.target(docID)
	if err != nil {
		return err
	}
	if err := d.Select(id); err != nil {
		return err
	}
	e.gesture = nil
	return nil
}

// ClearSelection deselects in the active document.
func (e *Editor) ClearSelection() {
	e.SelectLayer("")
}

// Click handles a click at canvas point (x, y) of the active document: the
// topmost visible layer under the point becomes the selection, and a click
// on empty canvas clears it. It returns the selected layer id or "".
func (e *Editor) Click(x, y float64) (string, error) {
	return e.ClickIn("", x, y)
}

// ClickIn is Click on the document docID, which becomes active.
func (e *Editor) ClickIn(docID string, x, y float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.target(docID)
	if err != nil {
		return "", err
	}
	e.gesture = nil
	l, ok := d.LayerAt(x, y)
	if !ok {
		d.SelectedLayerID = ""
		return "", nil
	}
	d.SelectedLayerID = l.ID
	return l.ID, nil
}

// beginGesture checks the preconditions shared by drags and transforms.
// Callers hold mu.
func (e *Editor) beginGesture(kind gestureKind, layerID string, anchor Anchor) error {
	d, err := e.active()
	if err != nil {
		return err
	}
	if e.ui.Tool != ToolMove {
		return errors.New(errors.ErrCodeToolInactive, "layers can only be moved with the %s tool", ToolMove.Label())
	}
	if d.SelectedLayerID == "" || d.SelectedLayerID != layerID {
		return errors.New(errors.ErrCodeNoSelection, "select the layer before moving it")
	}
	l, ok := d.Layer(layerID)
	if !ok {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", layerID)
	}
	if !l.Visible {
		return errors.New(errors.ErrCodeNoSelection, "layer %q is hidden", l.Name)
	}
	e.gesture = &gesture{kind: kind, docID: d.ID, layerID: layerID, anchor: anchor, start: l.Transform()}
	return nil
}

// BeginDrag starts dragging the selected layer. The move tool must be active
// and layerID must be the selection.
func (e *Editor) BeginDrag(layerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beginGesture(gestureDrag, layerID, "")
}

// EndDrag releases the drag, committing only the new position. It reports
// false if no drag was in progress or the layer disappeared meanwhile.
func (e *Editor) EndDrag(x, y float64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, d := e.endGesture(gestureDrag)
	if g == nil {
		return false, nil
	}
	return d.UpdateLayer(g.layerID, document.MovePatch(x, y))
}

// BeginTransform starts a resize or rotate gesture on a corner handle or
// the rotation handle.
func (e *Editor) BeginTransform(layerID string, anchor Anchor) error {
	if !anchor.Enabled() {
		return errors.New(errors.ErrCodeInvalidAnchor, "handle %q is disabled; use a corner handle", anchor)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beginGesture(gestureTransform, layerID, anchor)
}

// EndTransform releases the transform and writes position, scale and
// rotation in a single patch. The aspect ratio of the layer is kept: the
// scale factor is taken from the larger change of the two axes and applied
// to both.
func (e *Editor) EndTransform(t geom.Transform) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, d := e.endGesture(gestureTransform)
	if g == nil {
		return false, nil
	}
	t.ScaleX, t.ScaleY = uniformScale(g.start, t)
	return d.UpdateLayer(g.layerID, document.TransformPatch(t))
}

// Drag performs a complete drag of layerID in the document docID to (x, y).
// The document becomes active and the gesture cannot interleave with other
// calls.
func (e *Editor) Drag(docID, layerID string, x, y float64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.target(docID); err != nil {
		return false, err
	}
	if err := e.beginGesture(gestureDrag, layerID, ""); err != nil {
		return false, err
	}
	g, d := e.endGesture(gestureDrag)
	return d.UpdateLayer(g.layerID, document.MovePatch(x, y))
}

// Transform performs a complete transform of layerID in the document docID
// from anchor, with the rules of EndTransform.
func (e *Editor) Transform(docID, layerID string, anchor Anchor, t geom.Transform) (bool, error) {
	if !anchor.Enabled() {
		return false, errors.New(errors.ErrCodeInvalidAnchor, "handle %q is disabled; use a corner handle", anchor)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.target(docID); err != nil {
		return false, err
	}
	if err := e.beginGesture(gestureTransform, layerID, anchor); err != nil {
		return false, err
	}
	g, d := e.endGesture(gestureTransform)
	t.ScaleX, t.ScaleY = uniformScale(g.start, t)
	return d.UpdateLayer(g.layerID, document.TransformPatch(t))
}

// endGesture finishes the current gesture of the given kind and returns it
// with its document, or nil if there is nothing to commit. Callers hold mu.
func (e *Editor) endGesture(kind gestureKind) (*gesture, *document.Document) {
	g := e.gesture
	e.gesture = nil
	if g == nil || g.kind != kind {
		return nil, nil
	}
	d, ok := e.ws.Document(g.docID)
	if !ok {
		return nil, nil
	}
	return g, d
}

// uniformScale returns scale factors that keep the start aspect ratio.
func uniformScale(start, proposed geom.Transform) (sx, sy float64) {
	if start.ScaleX == 0 || start.ScaleY == 0 {
		return proposed.ScaleX, proposed.ScaleY
	}
	fx := proposed.ScaleX / start.ScaleX
	fy := proposed.ScaleY / start.ScaleY
	f := fx
	if math.Abs(fy-1) > math.Abs(fx-1) {
		f = fy
	}
	if f == 0 {
		f = 1
	}
	return start.ScaleX * f, start.ScaleY * f
}

// =============================================================================
// Keyboard gestures
// =============================================================================

// Nudge moves the selected layer by (dx, dy) as a complete drag gesture.
func (e *Editor) Nudge(dx, dy float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.selectedForGesture(gestureDrag, "")
	if err != nil {
		return err
	}
	g, d := e.endGesture(gestureDrag)
	_, err = d.UpdateLayer(g.layerID, document.MovePatch(l.X+dx, l.Y+dy))
	return err
}

// ScaleBy scales the selected layer by factor about its center as a
// complete transform gesture.
func (e *Editor) ScaleBy(factor float64) error {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "scale factor must be positive")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.selectedForGesture(gestureTransform, AnchorBottomRight)
	if err != nil {
		return err
	}
	t := l.Transform()
	t.ScaleX *= factor
	t.ScaleY *= factor
	g, d := e.endGesture(gestureTransform)
	_, err = d.UpdateLayer(g.layerID, document.TransformPatch(keepCenter(l, t)))
	return err
}

// RotateBy rotates the selected layer by deg degrees about its center as a
// complete transform gesture.
func (e *Editor) RotateBy(deg float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.selectedForGesture(gestureTransform, AnchorRotater)
	if err != nil {
		return err
	}
	t := l.Transform()
	t.Rotation = math.Mod(t.Rotation+deg, 360)
	g, d := e.endGesture(gestureTransform)
	_, err = d.UpdateLayer(g.layerID, document.TransformPatch(keepCenter(l, t)))
	return err
}

// selectedForGesture begins a gesture on the current selection and returns
// the layer. Callers hold mu.
func (e *Editor) selectedForGesture(kind gestureKind, anchor Anchor) (document.Layer, error) {
	d, err := e.active()
	if err != nil {
		return document.Layer{}, err
	}
	if err := e.beginGesture(kind, d.SelectedLayerID, anchor); err != nil {
		return document.Layer{}, err
	}
	l, _ := d.Layer(d.SelectedLayerID)
	return l, nil
}

// keepCenter adjusts the position of t so the layer center stays where it
// is under the layer's current transform.
func keepCenter(l document.Layer, t geom.Transform) geom.Transform {
	cx, cy := l.Transform().Matrix().Apply(l.Width/2, l.Height/2)
	t.X, t.Y = 0, 0
	nx, ny := t.Matrix().Apply(l.Width/2, l.Height/2)
	t.X, t.Y = cx-nx, cy-ny
	return t
}
