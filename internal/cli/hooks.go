package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/photostudio/pkg/observability"
)

// logHooks writes library events to the CLI logger at debug level. Failures
// are already reported by the caller, so they are not repeated here.
type logHooks struct {
	logger *log.Logger
}

// registerLogHooks installs logHooks for every observability event.
func registerLogHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetExportHooks(h)
	observability.SetAIHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *logHooks) OnExportStart(_ context.Context, root, format string) {
	h.logger.Debug("export started", "root", root, "format", format)
}

func (h *logHooks) OnExportComplete(_ context.Context, name string, width, height int, d time.Duration, err error) {
	if err != nil {
		return
	}
	h.logger.Debug("export finished", "file", name, "width", width, "height", height, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnAIStart(_ context.Context, op string) {
	h.logger.Debug("AI request", "op", op)
}

func (h *logHooks) OnAIComplete(_ context.Context, op string, applied bool, d time.Duration, err error) {
	if err != nil {
		return
	}
	h.logger.Debug("AI response", "op", op, "applied", applied, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "host", host, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "error", err)
}

var (
	_ observability.ExportHooks = (*logHooks)(nil)
	_ observability.AIHooks     = (*logHooks)(nil)
	_ observability.HTTPHooks   = (*logHooks)(nil)
)
