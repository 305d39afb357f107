package logging

import (
	"context"
	"log/slog"
)

// HandlerMux fans out log records to multiple slog.Handlers.
type HandlerMux struct {
	Handlers []slog.Handler
}

func NewHandlerMux(handlers ...slog.Handler) *HandlerMux {
	return &HandlerMux{handlers}
}

// implements slog.Handler
var _ slog.Handler = &HandlerMux{}

func (h *HandlerMux) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.Handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *HandlerMux) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.Handlers {
		if err := handler.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (h *HandlerMux) WithAttrs(attrs []slog.Attr) slog.Handler {
	copy := HandlerMux{make([]slog.Handler, len(h.Handlers))}
	for i, handler := range h.Handlers {
		copy.Handlers[i] = handler.WithAttrs(attrs)
	}
	return &copy
}

func (h *HandlerMux) WithGroup(name string) slog.Handler {
	copy := HandlerMux{make([]slog.Handler, len(h.Handlers))}
	for i, handler := range h.Handlers {
		copy.Handlers[i] = handler.WithGroup(name)
	}
	return &copy
}
