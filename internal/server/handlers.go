package server

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/geom"
	"github.com/matzehuels/photostudio/pkg/render"
	"github.com/matzehuels/photostudio/pkg/session"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type documentsResponse struct {
	ActiveID  string               `json:"active_id,omitempty"`
	Documents []*document.Document `json:"documents"`
}

type createDocumentRequest struct {
	Preset string `json:"preset"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type uploadRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"` // data URL
}

type selectRequest struct {
	LayerID string `json:"layer_id"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type orderRequest struct {
	Delta int `json:"delta"`
}

type transformRequest struct {
	Anchor   editor.Anchor `json:"anchor"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	ScaleX   float64       `json:"scale_x"`
	ScaleY   float64       `json:"scale_y"`
	Rotation float64       `json:"rotation"`
}

type toolRequest struct {
	Tool string `json:"tool"`
}

type aiRequest struct {
	// Outfit is an outfit preset id for dress_change.
	Outfit string `json:"outfit,omitempty"`
	// Instruction is a custom outfit description for dress_change.
	Instruction string `json:"instruction,omitempty"`
}

type slotRequest struct {
	Image string `json:"image"` // data URL
}

type selectedResponse struct {
	LayerID string `json:"layer_id"`
}

// =============================================================================
// Catalog and bitmaps
// =============================================================================

func (s *Server) getPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ed.Catalog())
}

func (s *Server) getBitmap(w http.ResponseWriter, r *http.Request) {
	ref := bitmap.Ref(chi.URLParam(r, "ref"))
	data, err := s.ed.Store().Get(r.Context(), ref)
	if stderrors.Is(err, bitmap.ErrNotFound) {
		s.writeError(w, r, errors.New(errors.ErrCodeLayerNotFound, "bitmap %s not found", ref))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mime := "application/octet-stream"
	if info, err := bitmap.Decode(data); err == nil {
		mime = info.MimeType()
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}

// =============================================================================
// Documents
// =============================================================================

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, documentsResponse{ActiveID: s.ed.ActiveID(), Documents: s.ed.Documents()})
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Preset == "" {
		req.Preset = s.ed.Catalog().DefaultPage().Name
	}
	d, err := s.ed.NewDocument(req.Preset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	d, ok := s.ed.Document(chi.URLParam(r, "docID"))
	if !ok {
		s.writeError(w, r, errDocumentNotFound(r))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) renameDocument(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "docID")
	if err := s.ed.RenameDocument(id, req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getDocument(w, r)
}

func (s *Server) closeDocument(w http.ResponseWriter, r *http.Request) {
	if !s.ed.CloseDocument(chi.URLParam(r, "docID")) {
		s.writeError(w, r, errDocumentNotFound(r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) activateDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ed.SetActive(chi.URLParam(r, "docID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getDocument(w, r)
}

func errDocumentNotFound(r *http.Request) error {
	return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", chi.URLParam(r, "docID"))
}

// =============================================================================
// Layers
// =============================================================================

func (s *Server) selectLayer(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ed.SelectLayerIn(chi.URLParam(r, "docID"), req.LayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectedResponse{LayerID: req.LayerID})
}

func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.ed.ClickIn(chi.URLParam(r, "docID"), req.X, req.Y)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectedResponse{LayerID: id})
}

func (s *Server) uploadLayer(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, data, err := bitmap.ParseDataURL(req.Image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.ed.UploadTo(r.Context(), chi.URLParam(r, "docID"), req.Name, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) patchLayer(w http.ResponseWriter, r *http.Request) {
	var p document.Patch
	if err := decode(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.ed.UpdateLayerIn(chi.URLParam(r, "docID"), chi.URLParam(r, "layerID"), p)
	s.layerResult(w, r, ok, err)
}

func (s *Server) deleteLayer(w http.ResponseWriter, r *http.Request) {
	ok, err := s.ed.DeleteLayerIn(chi.URLParam(r, "docID"), chi.URLParam(r, "layerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, errLayerNotFound(r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderLayer(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.ed.MoveLayerIn(chi.URLParam(r, "docID"), chi.URLParam(r, "layerID"), req.Delta); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getDocument(w, r)
}

// dragLayer performs a complete drag gesture ending at (x, y).
func (s *Server) dragLayer(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.ed.Drag(chi.URLParam(r, "docID"), chi.URLParam(r, "layerID"), req.X, req.Y)
	s.layerResult(w, r, ok, err)
}

// transformLayer performs a complete corner or rotation gesture.
func (s *Server) transformLayer(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Anchor == "" {
		req.Anchor = editor.AnchorBottomRight
	}
	ok, err := s.ed.Transform(chi.URLParam(r, "docID"), chi.URLParam(r, "layerID"), req.Anchor, geom.Transform{
		X: req.X, Y: req.Y, ScaleX: req.ScaleX, ScaleY: req.ScaleY, Rotation: req.Rotation,
	})
	s.layerResult(w, r, ok, err)
}

// layerResult writes the updated layer after a patch.
func (s *Server) layerResult(w http.ResponseWriter, r *http.Request, ok bool, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "layerID")
	d, found := s.ed.Document(chi.URLParam(r, "docID"))
	if !ok || !found {
		s.writeError(w, r, errLayerNotFound(r))
		return
	}
	l, found := d.Layer(id)
	if !found {
		s.writeError(w, r, errLayerNotFound(r))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func errLayerNotFound(r *http.Request) error {
	return errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", chi.URLParam(r, "layerID"))
}

// =============================================================================
// UI state
// =============================================================================

func (s *Server) getUI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ed.UI())
}

func (s *Server) setTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := editor.ParseTool(req.Tool)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ed.SetTool(t)
	s.getUI(w, r)
}

// =============================================================================
// AI
// =============================================================================

func (s *Server) runAI(w http.ResponseWriter, r *http.Request) {
	mode, err := genai.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req aiRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	instruction := req.Instruction
	if mode == genai.ModeDressChange && instruction == "" && req.Outfit != "" {
		o, err := s.ed.Catalog().Outfit(req.Outfit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		instruction = o.Prompt
	}
	res, err := s.ed.RunAI(r.Context(), mode, instruction)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func mergeSlot(r *http.Request) (int, error) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || (slot != 1 && slot != 2) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "merge slot must be 1 or 2")
	}
	return slot, nil
}

func (s *Server) setMergeSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := mergeSlot(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req slotRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, data, err := bitmap.ParseDataURL(req.Image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ed.SetMergeSlot(slot, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getUI(w, r)
}

func (s *Server) clearMergeSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := mergeSlot(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ed.ClearMergeSlot(slot)
	s.getUI(w, r)
}

func (s *Server) merge(w http.ResponseWriter, r *http.Request) {
	res, err := s.ed.Merge(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// Export
// =============================================================================

// export renders the active document, or its selected layer, and returns the
// encoded image as an attachment.
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	f := render.FormatPNG
	if q := r.URL.Query().Get("format"); q != "" {
		var err error
		if f, err = render.ParseFormat(q); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	res, err := s.ed.Export(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a := res.Artifact
	w.Header().Set("Content-Type", a.Format.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	w.Header().Set("X-Export-Root", res.Root.String())
	w.Header().Set("X-Export-Size", fmt.Sprintf("%dx%d", a.Width, a.Height))
	_, _ = w.Write(a.Data)
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) sessionStore(w http.ResponseWriter, r *http.Request) (session.Store, bool) {
	if s.sessions == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "sessions are not enabled"))
		return nil, false
	}
	return s.sessions, true
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	store, ok := s.sessionStore(w, r)
	if !ok {
		return
	}
	sums, err := store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sums == nil {
		sums = []session.Summary{}
	}
	writeJSON(w, http.StatusOK, sums)
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request) {
	store, ok := s.sessionStore(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "sessionID")
	if err := session.ValidateID(id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "session %q", id))
		return
	}
	snap := s.ed.Snapshot(id)
	if err := store.Set(r.Context(), snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap.Summarize())
}

func (s *Server) restoreSession(w http.ResponseWriter, r *http.Request) {
	store, ok := s.sessionStore(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "sessionID")
	if err := session.ValidateID(id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "session %q", id))
		return
	}
	snap, err := store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snap == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return
	}
	if err := s.ed.Restore(snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.listDocuments(w, r)
}
