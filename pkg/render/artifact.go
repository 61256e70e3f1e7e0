package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Artifact is an encoded export ready for delivery.
type Artifact struct {
	Name   string
	Format Format
	Width  int
	Height int
	Data   []byte
}

// NewArtifact encodes a flattened result and names it after the document.
func NewArtifact(docName string, f Format, res *Result) (Artifact, error) {
	data, err := EncodeBytes(res.Image, f)
	if err != nil {
		return Artifact{}, fmt.Errorf("encode %s: %w", f, err)
	}
	return Artifact{
		Name:   Filename(docName, f),
		Format: f,
		Width:  res.Width(),
		Height: res.Height(),
		Data:   data,
	}, nil
}

// Sink delivers artifacts, the equivalent of a browser download.
type Sink interface {
	// Deliver stores the artifact and returns where it went.
	Deliver(ctx context.Context, a Artifact) (string, error)
}

// DirSink writes artifacts into a directory.
type DirSink struct {
	Dir string
}

// NewDirSink creates a sink writing into dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Deliver writes the artifact as Dir/Name, replacing an existing file.
func (s *DirSink) Deliver(ctx context.Context, a Artifact) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(a.Name))
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// MemorySink keeps delivered artifacts in memory. It is safe for concurrent
// use.
type MemorySink struct {
	mu        sync.Mutex
	artifacts []Artifact
}

// Deliver records the artifact.
func (s *MemorySink) Deliver(ctx context.Context, a Artifact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, a)
	return a.Name, nil
}

// Artifacts returns everything delivered so far.
func (s *MemorySink) Artifacts() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Artifact(nil), s.artifacts...)
}

// Last returns the most recent artifact.
func (s *MemorySink) Last() (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.artifacts) == 0 {
		return Artifact{}, false
	}
	return s.artifacts[len(s.artifacts)-1], true
}

var (
	_ Sink = (*DirSink)(nil)
	_ Sink = (*MemorySink)(nil)
)
