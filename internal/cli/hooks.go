package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ivm/pkg/observability"
)

// debugHooks logs install steps, manifest cache activity and HTTP requests
// at debug level.
type debugHooks struct {
	logger *log.Logger
}

// EnableDebugHooks registers hooks that log what the install pipeline, the
// manifest cache and the HTTP client are doing.
func (c *CLI) EnableDebugHooks() {
	h := &debugHooks{logger: c.Logger}
	observability.SetInstallHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *debugHooks) OnStepStart(_ context.Context, version, step string) {
	h.logger.Debug("step started", "version", version, "step", step)
}

func (h *debugHooks) OnStepComplete(_ context.Context, version, step string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("step failed", "version", version, "step", step, "duration", d.Round(time.Millisecond), "error", err)
		return
	}
	h.logger.Debug("step finished", "version", version, "step", step, "duration", d.Round(time.Millisecond))
}

func (h *debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache write", "type", keyType, "bytes", size)
}

func (h *debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}
