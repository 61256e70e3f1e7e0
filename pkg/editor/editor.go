package editor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/preset"
	"github.com/matzehuels/photostudio/pkg/render"
	"github.com/matzehuels/photostudio/pkg/session"
	"github.com/matzehuels/photostudio/pkg/workspace"
)

// Editor owns the workspace and UI state. It is safe for concurrent use.
type Editor struct {
	mu sync.Mutex

	ws      *workspace.Workspace
	ui      UIState
	gesture *gesture
	merge   [2]*genai.Image

	catalog *preset.Catalog
	store   bitmap.Store
	ai      genai.Service
	sink    render.Sink
	frames  FrameSync
	logger  *log.Logger

	defaultDoc bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithCatalog sets the preset catalog. Defaults to the built-in one.
func WithCatalog(c *preset.Catalog) Option {
	return func(e *Editor) { e.catalog = c }
}

// WithStore sets the bitmap store. Defaults to an in-memory store.
func WithStore(s bitmap.Store) Option {
	return func(e *Editor) { e.store = s }
}

// WithAI sets the generative-image service. Defaults to genai.Unavailable.
func WithAI(s genai.Service) Option {
	return func(e *Editor) { e.ai = s }
}

// WithSink sets where exports are delivered. Defaults to the working
// directory.
func WithSink(s render.Sink) Option {
	return func(e *Editor) { e.sink = s }
}

// WithFrameSync sets the frame source used by export. Defaults to
// ImmediateFrames.
func WithFrameSync(f FrameSync) Option {
	return func(e *Editor) { e.frames = f }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithDefaultDocument opens a document from the first page preset, as on
// first launch.
func WithDefaultDocument() Option {
	return func(e *Editor) { e.defaultDoc = true }
}

// New creates an editor.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		ws:      workspace.New(),
		ui:      UIState{Tool: ToolMove},
		catalog: preset.Default(),
		store:   bitmap.NewMemoryStore(),
		ai:      genai.Unavailable{},
		sink:    render.NewDirSink("."),
		frames:  ImmediateFrames{},
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.defaultDoc {
		if _, err := e.ws.CreateDocument(e.catalog.DefaultPage()); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Catalog returns the preset catalog.
func (e *Editor) Catalog() *preset.Catalog {
	return e.catalog
}

// Store returns the bitmap store.
func (e *Editor) Store() bitmap.Store {
	return e.store
}

// =============================================================================
// Documents
// =============================================================================

// NewDocument creates a document from the named page preset and makes it
// active.
func (e *Editor) NewDocument(presetName string) (*document.Document, error) {
	page, err := e.catalog.Page(presetName)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.ws.CreateDocument(page)
	if err != nil {
		return nil, err
	}
	e.gesture = nil
	e.logger.Debug("document created", "id", d.ID, "name", d.Name, "preset", page.Name)
	return d.Clone(), nil
}

// CloseDocument closes a document. Closing the active document leaves no
// document active.
func (e *Editor) CloseDocument(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ws.ActiveID() == id {
		e.gesture = nil
	}
	return e.ws.CloseDocument(id)
}

// SetActive switches the active document.
func (e *Editor) SetActive(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ws.SetActive(id); err != nil {
		return err
	}
	e.gesture = nil
	return nil
}

// RenameDocument renames a document.
func (e *Editor) RenameDocument(id, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.ws.Document(id)
	if !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	return d.Rename(name)
}

// Active returns a copy of the active document.
func (e *Editor) Active() (*document.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.ws.Active()
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Document returns a copy of a document.
func (e *Editor) Document(id string) (*document.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.ws.Document(id)
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Documents returns copies of all open documents.
func (e *Editor) Documents() []*document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cloneDocs()
}

func (e *Editor) cloneDocs() []*document.Document {
	docs := e.ws.Documents()
	for i, d := range docs {
		docs[i] = d.Clone()
	}
	return docs
}

// ActiveID returns the id of the active document, or "".
func (e *Editor) ActiveID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ws.ActiveID()
}

// active returns the active document or NO_ACTIVE_DOCUMENT. Callers hold mu.
func (e *Editor) active() (*document.Document, error) {
	d, ok := e.ws.Active()
	if !ok {
		return nil, errors.New(errors.ErrCodeNoActiveDocument, "open or create a document first")
	}
	return d, nil
}

// target returns the document an operation acts on. An empty docID is the
// active document; any other id is made active first. Callers hold mu.
func (e *Editor) target(docID string) (*document.Document, error) {
	if docID != "" && docID != e.ws.ActiveID() {
		if err := e.ws.SetActive(docID); err != nil {
			return nil, err
		}
		e.gesture = nil
	}
	return e.active()
}

// =============================================================================
// Layers
// =============================================================================

// Upload adds an image to the active document as a new top layer, fit into
// 80% of the canvas and selected. name is usually the source file name.
func (e *Editor) Upload(ctx context.Context, name string, data []byte) (document.Layer, error) {
	return e.UploadTo(ctx, "", name, data)
}

// UploadTo is Upload into the document docID, which becomes active.
func (e *Editor) UploadTo(ctx context.Context, docID, name string, data []byte) (document.Layer, error) {
	info, err := bitmap.Decode(data)
	if err != nil {
		return document.Layer{}, err
	}
	ref, err := e.store.Put(ctx, data)
	if err != nil {
		return document.Layer{}, errors.Wrap(errors.ErrCodeInternal, err, "store bitmap")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.target(docID)
	if err != nil {
		return document.Layer{}, err
	}
	l, err := document.NewLayer(name, ref, info.Width, info.Height, d.Width, d.Height, document.UploadFit)
	if err != nil {
		return document.Layer{}, err
	}
	if err := d.AddLayer(l); err != nil {
		return document.Layer{}, err
	}
	e.gesture = nil
	e.logger.Info("layer added", "name", name, "size", sizeString(info.Width, info.Height), "placed", sizeString(int(l.Width), int(l.Height)))
	return l, nil
}

// UpdateLayer patches a layer of the active document. It reports false if
// the layer no longer exists.
func (e *Editor) UpdateLayer(id string, p document.Patch) (bool, error) {
	return e.UpdateLayerIn("", id, p)
}

// UpdateLayerIn is UpdateLayer on the document docID, which becomes active.
func (e *Editor) UpdateLayerIn(docID, id string, p document.Patch) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.target(docID)
	if err != nil {
		return false, err
	}
	return d.UpdateLayer(id, p)
}

// ToggleVisibility flips a layer's visibility.
func (e *Editor) ToggleVisibility(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.active()
	if err != nil {
		return false
	}
	l, ok := d.Layer(id)
	if !ok {
		return false
	}
	ok, _ = d.UpdateLayer(id, document.VisiblePatch(!l.Visible))
	return ok
}

// ToggleLock flips a layer's lock flag. The flag is not enforced.
func (e *Editor) ToggleLock(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.active()
	if err != nil {
		return false
	}
	l, ok := d.Layer(id)
	if !ok {
		return false
	}
	ok, _ = d.UpdateLayer(id, document.LockedPatch(!l.Locked))
	return ok
}

// MoveLayer reorders a layer of the active document. Positive delta moves it
// up the stack.
func (e *Editor) MoveLayer(id string, delta int) bool {
	ok, _ := e.MoveLayerIn("", id, delta)
	return ok
}

// MoveLayerIn is MoveLayer on the document docID, which becomes active.
func (e *Editor) MoveLayerIn(docID, id string, delta int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.target(docID)
	if err != nil {
		return false, err
	}
	return d.MoveLayer(id, delta), nil
}

// DeleteLayer removes a layer of the active document. The selection is
// cleared whichever layer is deleted.
func (e *Editor) DeleteLayer(id string) bool {
	ok, _ := e.DeleteLayerIn("", id)
	return ok
}

// DeleteLayerIn is DeleteLayer on the document docID, which becomes active.
func (e *Editor) DeleteLayerIn(docID, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.target(docID); err != nil {
		return false, err
	}
	return e.deleteLayer(id), nil
}

func (e *Editor) deleteLayer(id string) bool {
	d, err := e.active()
	if err != nil {
		return false
	}
	e.gesture = nil
	return d.DeleteLayer(id)
}

// DeleteSelected removes the selected layer of the active document.
func (e *Editor) DeleteSelected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.active()
	if err != nil || d.SelectedLayerID == "" {
		return false
	}
	return e.deleteLayer(d.SelectedLayerID)
}

// =============================================================================
// UI state
// =============================================================================

// UI returns a copy of the UI state.
func (e *Editor) UI() UIState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ui
}

// SetTool switches the active tool. Switching ends any gesture in progress
// without committing it.
func (e *Editor) SetTool(t Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t != e.ui.Tool {
		e.gesture = nil
	}
	e.ui.Tool = t
}

// SetTextFocus records whether a text field has keyboard focus.
func (e *Editor) SetTextFocus(focused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ui.TextFocus = focused
}

// =============================================================================
// Sessions
// =============================================================================

// Snapshot captures the workspace for saving.
func (e *Editor) Snapshot(id string) *session.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &session.Snapshot{
		ID:        id,
		Documents: e.cloneDocs(),
		ActiveID:  e.ws.ActiveID(),
		SavedAt:   time.Now().UTC(),
	}
}

// Restore replaces the workspace with a saved snapshot. Bitmaps must already
// be in the editor's store.
func (e *Editor) Restore(snap *session.Snapshot) error {
	if snap == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no snapshot to restore")
	}
	docs := make([]*document.Document, len(snap.Documents))
	for i, d := range snap.Documents {
		if d == nil {
			return errors.New(errors.ErrCodeInvalidInput, "session %s has an empty document entry", snap.ID)
		}
		docs[i] = d.Clone()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ws.Restore(docs, snap.ActiveID); err != nil {
		return err
	}
	e.gesture = nil
	return nil
}

func sizeString(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
