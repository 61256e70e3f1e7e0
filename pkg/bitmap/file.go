package bitmap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps bitmaps as files in a directory.
// Files are content-addressed, so concurrent writers of the same bytes
// produce the same file.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create bitmap dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Put writes data unless a file for its hash already exists.
func (s *FileStore) Put(ctx context.Context, data []byte) (Ref, error) {
	ref := Hash(data)
	path := s.path(ref)
	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return ref, nil
}

// Get reads the file for ref.
func (s *FileStore) Get(ctx context.Context, ref Ref) ([]byte, error) {
	if !validRef(ref) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.path(ref))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// Delete removes the file for ref.
func (s *FileStore) Delete(ctx context.Context, ref Ref) error {
	if !validRef(ref) {
		return nil
	}
	err := os.Remove(s.path(ref))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Dir returns the base directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// path converts a ref to a file path.
// Uses the first 2 hex chars as subdirectory to avoid too many files in one dir.
func (s *FileStore) path(ref Ref) string {
	r := string(ref)
	return filepath.Join(s.dir, r[:2], r[2:]+".bin")
}

// validRef guards against refs that did not come from Hash; they would
// otherwise be joined into file paths.
func validRef(ref Ref) bool {
	if len(ref) != 64 {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

var _ Store = (*FileStore)(nil)
