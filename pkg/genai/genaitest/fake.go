// Package genaitest provides a scriptable genai.Service for tests.
package genaitest

import (
	"context"
	"sync"

	"github.com/matzehuels/photostudio/pkg/genai"
)

// Fake records requests and answers with the configured functions. A nil
// function returns (nil, nil), the "no image" answer.
type Fake struct {
	EditFunc  func(ctx context.Context, req genai.EditRequest) (*genai.Image, error)
	MergeFunc func(ctx context.Context, req genai.MergeRequest) (*genai.Image, error)

	mu     sync.Mutex
	edits  []genai.EditRequest
	merges []genai.MergeRequest
}

// Returning makes every call succeed with img.
func Returning(img *genai.Image) *Fake {
	return &Fake{
		EditFunc: func(context.Context, genai.EditRequest) (*genai.Image, error) { return img, nil },
		MergeFunc: func(context.Context, genai.MergeRequest) (*genai.Image, error) {
			return img, nil
		},
	}
}

// Failing makes every call fail with err.
func Failing(err error) *Fake {
	return &Fake{
		EditFunc:  func(context.Context, genai.EditRequest) (*genai.Image, error) { return nil, err },
		MergeFunc: func(context.Context, genai.MergeRequest) (*genai.Image, error) { return nil, err },
	}
}

// Edit implements genai.Service.
func (f *Fake) Edit(ctx context.Context, req genai.EditRequest) (*genai.Image, error) {
	f.mu.Lock()
	f.edits = append(f.edits, req)
	fn := f.EditFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, req)
}

// Merge implements genai.Service.
func (f *Fake) Merge(ctx context.Context, req genai.MergeRequest) (*genai.Image, error) {
	f.mu.Lock()
	f.merges = append(f.merges, req)
	fn := f.MergeFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, req)
}

// Edits returns the edit requests received so far.
func (f *Fake) Edits() []genai.EditRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]genai.EditRequest(nil), f.edits...)
}

// Merges returns the merge requests received so far.
func (f *Fake) Merges() []genai.MergeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]genai.MergeRequest(nil), f.merges...)
}

var _ genai.Service = (*Fake)(nil)
