package document

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/photostudio/pkg/errors"
)

// Document is a fixed-size canvas with an ordered layer stack.
type Document struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Layers []Layer `json:"layers"`

	// SelectedLayerID is empty when nothing is selected.
	SelectedLayerID string `json:"selected_layer_id,omitempty"`
}

// New creates an empty document with a fresh id.
func New(name string, width, height int) (*Document, error) {
	if err := errors.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive, got %dx%d", width, height)
	}
	return &Document{
		ID:     uuid.NewString(),
		Name:   name,
		Width:  width,
		Height: height,
		Layers: []Layer{},
	}, nil
}

// AddLayer appends l on top of the stack and selects it.
func (d *Document) AddLayer(l Layer) error {
	if l.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "layer has no id")
	}
	if l.Width <= 0 || l.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layer size must be positive")
	}
	if d.index(l.ID) >= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layer %s already exists", l.ID)
	}
	d.Layers = append(d.Layers, l)
	d.SelectedLayerID = l.ID
	return nil
}

// UpdateLayer applies p to the layer with the given id. It returns false
// without error if no such layer exists. An invalid patch is rejected as a
// whole and nothing is written.
func (d *Document) UpdateLayer(id string, p Patch) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	i := d.index(id)
	if i < 0 {
		return false, nil
	}
	p.apply(&d.Layers[i])
	return true, nil
}

// DeleteLayer removes the layer with the given id and reports whether it
// existed. The selection is cleared in every case, including when the deleted
// layer was not the selected one.
func (d *Document) DeleteLayer(id string) bool {
	d.SelectedLayerID = ""
	i := d.index(id)
	if i < 0 {
		return false
	}
	d.Layers = slices.Delete(d.Layers, i, i+1)
	return true
}

// Select sets the selection. An empty id clears it. Selecting an id that is
// not in the stack fails and leaves the selection unchanged.
func (d *Document) Select(id string) error {
	if id != "" && d.index(id) < 0 {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", id)
	}
	d.SelectedLayerID = id
	return nil
}

// Rename sets the document name.
func (d *Document) Rename(name string) error {
	if err := errors.ValidateDocumentName(name); err != nil {
		return err
	}
	d.Name = name
	return nil
}

// ResizeCanvas changes the canvas size. Layers keep their canvas positions.
func (d *Document) ResizeCanvas(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive, got %dx%d", width, height)
	}
	d.Width, d.Height = width, height
	return nil
}

// MoveLayer shifts a layer delta places in the stack. Positive values move
// it toward the top. The result is clamped to the stack bounds. It returns
// false if the layer does not exist or did not move.
func (d *Document) MoveLayer(id string, delta int) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	j := max(0, min(len(d.Layers)-1, i+delta))
	if i == j {
		return false
	}
	l := d.Layers[i]
	d.Layers = slices.Delete(d.Layers, i, i+1)
	d.Layers = slices.Insert(d.Layers, j, l)
	return true
}

// Layer returns a copy of the layer with the given id.
func (d *Document) Layer(id string) (Layer, bool) {
	i := d.index(id)
	if i < 0 {
		return Layer{}, false
	}
	return d.Layers[i], true
}

// Selected returns the selected layer, if any.
func (d *Document) Selected() (Layer, bool) {
	if d.SelectedLayerID == "" {
		return Layer{}, false
	}
	return d.Layer(d.SelectedLayerID)
}

// LayerAt returns the topmost visible layer whose box contains the canvas
// point (x, y).
func (d *Document) LayerAt(x, y float64) (Layer, bool) {
	for i := len(d.Layers) - 1; i >= 0; i-- {
		l := d.Layers[i]
		if l.Visible && l.Contains(x, y) {
			return l, true
		}
	}
	return Layer{}, false
}

// Clone returns a deep copy. Exports and snapshots work on clones so they
// never observe later edits.
func (d *Document) Clone() *Document {
	c := *d
	c.Layers = slices.Clone(d.Layers)
	if c.Layers == nil {
		c.Layers = []Layer{}
	}
	return &c
}

// Validate checks the structural invariants, for documents restored from
// storage.
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document has no id")
	}
	if d.Width <= 0 || d.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "document %s has invalid canvas size", d.ID)
	}
	seen := make(map[string]bool, len(d.Layers))
	for _, l := range d.Layers {
		if l.ID == "" || seen[l.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "document %s has a missing or duplicate layer id", d.ID)
		}
		if l.Width <= 0 || l.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "layer %s has invalid size", l.ID)
		}
		seen[l.ID] = true
	}
	if d.SelectedLayerID != "" && !seen[d.SelectedLayerID] {
		return errors.New(errors.ErrCodeInvalidInput, "document %s selects missing layer", d.ID)
	}
	return nil
}

func (d *Document) index(id string) int {
	return slices.IndexFunc(d.Layers, func(l Layer) bool { return l.ID == id })
}
