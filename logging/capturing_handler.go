package logging

import (
	"context"
	"log/slog"
	"strings"
)

// CapturingHandler copies every record into a LogCollector, tagged with a
// step name, and forwards it to an underlying handler.
//
// Captured attribute keys are qualified with the open group path, so an
// attribute "method" logged under WithGroup("req") is stored as "req.method".
type CapturingHandler struct {
	underlying slog.Handler
	collector  *LogCollector
	step       string
	// attrs holds keys already qualified with the groups open when added.
	attrs  []slog.Attr
	groups []string
}

// NewCapturingHandler creates a CapturingHandler for step.
func NewCapturingHandler(underlying slog.Handler, collector *LogCollector, step string) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		collector:  collector,
		step:       step,
	}
}

// Enabled always returns true so that every level is captured. Records
// below the underlying handler's level are captured but not forwarded.
func (h *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle captures r and forwards it if the underlying handler accepts its level.
func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:       r.Time,
		Step:       h.step,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]interface{}, r.NumAttrs()+len(h.attrs)),
	}
	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = resolveValue(attr.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[h.qualify(a.Key)] = resolveValue(a.Value)
		return true
	})
	h.collector.Add(entry)

	if !h.underlying.Enabled(ctx, r.Level) {
		return nil
	}
	return h.underlying.Handle(ctx, r)
}

// WithAttrs must return a CapturingHandler, otherwise loggers derived with
// With() would stop capturing.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}

	return &CapturingHandler{
		underlying: h.underlying.WithAttrs(attrs),
		collector:  h.collector,
		step:       h.step,
		attrs:      merged,
		groups:     h.groups,
	}
}

// WithGroup must return a CapturingHandler for the same reason as WithAttrs.
func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &CapturingHandler{
		underlying: h.underlying.WithGroup(name),
		collector:  h.collector,
		step:       h.step,
		attrs:      h.attrs,
		groups:     groups,
	}
}

func (h *CapturingHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

// resolveValue converts a slog.Value into something JSON-serializable.
func resolveValue(v slog.Value) interface{} {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]interface{}, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = resolveValue(attr.Value)
		}
		return group
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}
