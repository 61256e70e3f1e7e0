// Package workspace holds the set of open documents and tracks which one is
// active.
//
// At most one document is active. Closing the active document leaves the
// workspace with no active document; no other document is promoted.
package workspace

import (
	"fmt"
	"slices"

	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/preset"
)

// Workspace is an ordered set of documents. It is not safe for concurrent
// use.
type Workspace struct {
	docs     []*document.Document
	activeID string
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{}
}

// CreateDocument adds an empty document sized to page, named after the
// current document count, and makes it active.
func (w *Workspace) CreateDocument(page preset.Page) (*document.Document, error) {
	d, err := document.New(fmt.Sprintf("Untitled-%d", len(w.docs)+1), page.Width, page.Height)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPreset, err, "page preset %q", page.Name)
	}
	w.docs = append(w.docs, d)
	w.activeID = d.ID
	return d, nil
}

// CloseDocument removes a document and reports whether it existed.
func (w *Workspace) CloseDocument(id string) bool {
	i := w.index(id)
	if i < 0 {
		return false
	}
	w.docs = slices.Delete(w.docs, i, i+1)
	if w.activeID == id {
		w.activeID = ""
	}
	return true
}

// SetActive makes the document with the given id active.
func (w *Workspace) SetActive(id string) error {
	if w.index(id) < 0 {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	w.activeID = id
	return nil
}

// Active returns the active document.
func (w *Workspace) Active() (*document.Document, bool) {
	if w.activeID == "" {
		return nil, false
	}
	return w.Document(w.activeID)
}

// ActiveID returns the id of the active document, or "".
func (w *Workspace) ActiveID() string {
	return w.activeID
}

// Document returns the document with the given id.
func (w *Workspace) Document(id string) (*document.Document, bool) {
	i := w.index(id)
	if i < 0 {
		return nil, false
	}
	return w.docs[i], true
}

// Documents returns the open documents in creation order.
func (w *Workspace) Documents() []*document.Document {
	return slices.Clone(w.docs)
}

// Len returns the number of open documents.
func (w *Workspace) Len() int {
	return len(w.docs)
}

// Restore replaces the workspace contents, e.g. from a saved session.
// Every document is validated first; on error the workspace is unchanged.
func (w *Workspace) Restore(docs []*document.Document, activeID string) error {
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		if d == nil {
			return errors.New(errors.ErrCodeInvalidInput, "document %d is empty", i)
		}
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate document id %s", d.ID)
		}
		seen[d.ID] = true
	}
	if activeID != "" && !seen[activeID] {
		activeID = ""
	}
	w.docs = slices.Clone(docs)
	w.activeID = activeID
	return nil
}

func (w *Workspace) index(id string) int {
	return slices.IndexFunc(w.docs, func(d *document.Document) bool { return d.ID == id })
}
