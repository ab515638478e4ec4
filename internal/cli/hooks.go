package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vup-linux/vuru/pkg/observability"
)

// registerDebugHooks routes resolver, cache and HTTP events into the
// logger at debug level. Called once from the root command when
// --verbose is set.
func registerDebugHooks(logger *log.Logger) {
	h := &debugHooks{logger: logger}
	observability.SetResolverHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// debugHooks implements all three hook interfaces over one logger.
type debugHooks struct {
	logger *log.Logger
}

func (h *debugHooks) OnClassify(_ context.Context, name, source string, depth int) {
	h.logger.Debug("classified", "package", name, "source", source, "depth", depth)
}

func (h *debugHooks) OnExpand(_ context.Context, name string, deps int) {
	h.logger.Debug("expanded", "package", name, "deps", deps)
}

func (h *debugHooks) OnComplete(_ context.Context, target string, resolved, missing int, duration time.Duration) {
	h.logger.Debug("resolution complete",
		"target", target,
		"resolved", resolved,
		"missing", missing,
		"duration", duration.Round(time.Millisecond))
}

func (h *debugHooks) OnHit(_ context.Context, key string) {
	h.logger.Debug("cache hit", "key", key)
}

func (h *debugHooks) OnMiss(_ context.Context, key string) {
	h.logger.Debug("cache miss", "key", key)
}

func (h *debugHooks) OnSet(_ context.Context, key string, size int) {
	h.logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *debugHooks) OnResponse(_ context.Context, method, url string, statusCode int, duration time.Duration) {
	h.logger.Debug("http response",
		"method", method,
		"url", url,
		"status", statusCode,
		"duration", duration.Round(time.Millisecond))
}

func (h *debugHooks) OnError(_ context.Context, method, url string, err error) {
	h.logger.Debug("http error", "method", method, "url", url, "error", err)
}
