package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes evaluated at log time, such as the
// dataset version or the number of open sessions.
type ContextProvider func() []slog.Attr

// sink is one log output with its own minimum level. Remote outputs
// usually run quieter than the console.
type sink struct {
	handler slog.Handler
	level   slog.Leveler
}

func (s sink) enabled(ctx context.Context, l slog.Level) bool {
	if s.level != nil && l < s.level.Level() {
		return false
	}
	return s.handler.Enabled(ctx, l)
}

// fanout delivers every record to each sink that accepts its level.
type fanout []sink

func newFanout(sinks ...sink) fanout {
	out := make(fanout, 0, len(sinks))
	for _, s := range sinks {
		if s.handler != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, s := range f {
		if s.enabled(ctx, l) {
			return true
		}
	}
	return false
}

// Handle keeps writing after a sink fails and returns the joined errors.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f {
		if !s.enabled(ctx, r.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, s := range f {
		out[i] = sink{handler: fn(s.handler), level: s.level}
	}
	return out
}

// liveAttrs appends the provider's attributes to each record just before
// it is written. The provider runs only for records that pass Enabled.
type liveAttrs struct {
	slog.Handler
	provide ContextProvider
}

func withLiveAttrs(h slog.Handler, provide ContextProvider) slog.Handler {
	if provide == nil {
		return h
	}
	return liveAttrs{Handler: h, provide: provide}
}

func (h liveAttrs) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.provide()...)
	return h.Handler.Handle(ctx, r)
}

func (h liveAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return liveAttrs{Handler: h.Handler.WithAttrs(attrs), provide: h.provide}
}

func (h liveAttrs) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return liveAttrs{Handler: h.Handler.WithGroup(name), provide: h.provide}
}
