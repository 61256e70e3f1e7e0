package editor

import "context"

// FrameSync lets the editor wait until the surface has drawn a frame.
type FrameSync interface {
	// WaitFrame blocks until a frame rendered after the call has been
	// committed, or ctx is done.
	WaitFrame(ctx context.Context) error
}

// ImmediateFrames is a FrameSync for headless use: there is no overlay on
// screen, so no frame needs to pass.
type ImmediateFrames struct{}

// WaitFrame returns immediately.
func (ImmediateFrames) WaitFrame(ctx context.Context) error {
	return ctx.Err()
}

// FrameSignal is a FrameSync driven by a render loop calling Rendered after
// each drawn frame.
type FrameSignal struct {
	ch chan struct{}
}

// NewFrameSignal creates a FrameSignal.
func NewFrameSignal() *FrameSignal {
	return &FrameSignal{ch: make(chan struct{}, 1)}
}

// Rendered reports a drawn frame. It never blocks.
func (f *FrameSignal) Rendered() {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

// WaitFrame discards a frame reported before the call and waits for the next.
func (f *FrameSignal) WaitFrame(ctx context.Context) error {
	select {
	case <-f.ch:
	default:
	}
	select {
	case <-f.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
