// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks and never depend on a
// specific backend. The CLI registers logging hooks at startup; tests and
// embedders can register their own.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExportHooks(&myExportHooks{})
//	    observability.SetAIHooks(&myAIHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Export().OnExportStart(ctx, "canvas", "png")
//	// ... flatten and encode ...
//	observability.Export().OnExportComplete(ctx, name, w, h, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from the export pipeline.
type ExportHooks interface {
	OnExportStart(ctx context.Context, root, format string)
	OnExportComplete(ctx context.Context, name string, width, height int, duration time.Duration, err error)
}

// =============================================================================
// AI Hooks
// =============================================================================

// AIHooks receives events from generative-image requests.
type AIHooks interface {
	// OnAIStart records a request for op ("bg_remove", "merge", ...).
	OnAIStart(ctx context.Context, op string)

	// OnAIComplete records the outcome. applied is false when the service
	// returned no image or the target disappeared meanwhile.
	OnAIComplete(ctx context.Context, op string, applied bool, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from outgoing HTTP calls.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExportStart(context.Context, string, string) {}
func (NoopExportHooks) OnExportComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopAIHooks is a no-op implementation of AIHooks.
type NoopAIHooks struct{}

func (NoopAIHooks) OnAIStart(context.Context, string)                                  {}
func (NoopAIHooks) OnAIComplete(context.Context, string, bool, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	exportHooks ExportHooks = NoopExportHooks{}
	aiHooks     AIHooks     = NoopAIHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetExportHooks registers custom export hooks.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// SetAIHooks registers custom AI hooks.
func SetAIHooks(h AIHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		aiHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// AI returns the registered AI hooks.
func AI() AIHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return aiHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	exportHooks = NoopExportHooks{}
	aiHooks = NoopAIHooks{}
	httpHooks = NoopHTTPHooks{}
}
