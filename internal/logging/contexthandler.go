package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes computed at log time.
type ContextProvider func() []slog.Attr

// ServerContext reports the session id and the live match count on every
// record. active may be nil until the match manager exists.
func ServerContext(session string, active func() int) ContextProvider {
	return func() []slog.Attr {
		attrs := []slog.Attr{slog.String("session", session)}
		if active != nil {
			attrs = append(attrs, slog.Int("activeMatches", active()))
		}
		return attrs
	}
}

// ContextHandler wraps another handler and injects dynamic context attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
