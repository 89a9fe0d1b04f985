// Copyright (c) 2025 BVK Chaitanya

package msgbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Handler is a slog.Handler that turns log records into bus events tagged
// with a source. Records are also passed to the next handler, if any.
type Handler struct {
	bus    *Bus
	source string
	next   slog.Handler

	level slog.Leveler

	prefix string
	attrs  []slog.Attr
}

// NewHandler returns a handler for a source. Records below level are
// dropped; nil level means slog.LevelInfo.
func NewHandler(bus *Bus, source string, level slog.Leveler, next slog.Handler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{
		bus:    bus,
		source: source,
		next:   next,
		level:  level,
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	if h.next != nil {
		nh.next = h.next.WithAttrs(attrs)
	}
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	if h.next != nil {
		nh.next = h.next.WithGroup(name)
	}
	return &nh
}

func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, p, ga)
		}
		return
	}
	fmt.Fprintf(sb, " %s%s=%v", prefix, a.Key, a.Value.Any())
}

// Format renders the record message followed by key=value attributes.
func (h *Handler) Format(r slog.Record) string {
	var sb strings.Builder
	sb.WriteString(r.Message)
	for _, a := range h.attrs {
		appendAttr(&sb, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, h.prefix, a)
		return true
	})
	return sb.String()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	at := r.Time
	if at.IsZero() {
		at = time.Now()
	}
	e := &Event{
		Source:  h.source,
		Level:   LevelOf(r.Level),
		Message: h.Format(r),
		Time:    at,
	}
	if err := h.bus.Send(e); err != nil && h.next != nil {
		wr := slog.NewRecord(time.Now(), slog.LevelWarn, "could not send log event to the collector", 0)
		wr.AddAttrs(slog.String("source", h.source), slog.Any("err", err))
		h.next.Handle(ctx, wr)
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}
