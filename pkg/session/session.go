// Package session saves and restores editor workspaces.
//
// A [Snapshot] captures every open document (layers reference bitmaps by
// content hash, so pixels live in the bitmap store, not here) plus the active
// document id. Backends:
//   - file: JSON files in a data directory, for the CLI
//   - redis: shared storage for multi-instance API servers
//
// # Usage
//
//	store, err := session.NewFileStore(cfg.SessionDir())
//	if err != nil {
//	    return err
//	}
//	err = store.Set(ctx, ed.Snapshot("default"))
//
//	snap, err := store.Get(ctx, "default")
//	if snap == nil {
//	    // Nothing saved yet
//	}
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"time"

	"github.com/matzehuels/photostudio/pkg/document"
)

// ErrInvalidID is returned for session ids that are not safe storage keys.
var ErrInvalidID = errors.New("invalid session id")

// DefaultID is the session the CLI uses when none is named.
const DefaultID = "default"

// Snapshot is a saved workspace.
type Snapshot struct {
	ID        string               `json:"id"`
	Documents []*document.Document `json:"documents"`
	ActiveID  string               `json:"active_id,omitempty"`
	SavedAt   time.Time            `json:"saved_at"`
}

// Summary describes a stored snapshot without its documents.
type Summary struct {
	ID        string    `json:"id"`
	Documents int       `json:"documents"`
	Layers    int       `json:"layers"`
	SavedAt   time.Time `json:"saved_at"`
}

// Summarize returns the summary of s. Empty document entries are not
// counted.
func (s *Snapshot) Summarize() Summary {
	docs, layers := 0, 0
	for _, d := range s.Documents {
		if d == nil {
			continue
		}
		docs++
		layers += len(d.Layers)
	}
	return Summary{ID: s.ID, Documents: docs, Layers: layers, SavedAt: s.SavedAt}
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a snapshot by ID.
	// Returns nil, nil if the snapshot doesn't exist.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Set stores a snapshot, replacing any previous one with the same ID.
	Set(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id string) error

	// List summarizes all stored snapshots.
	List(ctx context.Context) ([]Summary, error)

	// Close releases resources held by the store.
	Close() error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateID checks that id can be used as a storage key.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// GenerateID creates a random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
