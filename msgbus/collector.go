// Copyright (c) 2025 BVK Chaitanya

package msgbus

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bvk/gridbot/logdir"
)

// Collector is the single consumer of the bus. It appends every event as a
// timestamped block to <dir>/<source>/<level>.log.
type Collector struct {
	dir string

	backends map[string]*logdir.Backend
}

func NewCollector(dir string) *Collector {
	return &Collector{
		dir:      dir,
		backends: make(map[string]*logdir.Backend),
	}
}

func (c *Collector) Close() {
	for k, b := range c.backends {
		b.Close()
		delete(c.backends, k)
	}
}

func (c *Collector) backend(source string, level Level) (*logdir.Backend, error) {
	key := source + "/" + level.String()
	if b, ok := c.backends[key]; ok {
		return b, nil
	}
	b, err := logdir.New(filepath.Join(c.dir, source), level.String())
	if err != nil {
		return nil, err
	}
	c.backends[key] = b
	return b, nil
}

// FormatBlock returns the block written for an event.
func FormatBlock(e *Event) string {
	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "=================================================  %s   ===============================================\n", e.Time.Local().Format("2006-01-02 15:04:05.000000 -07:00"))
	sb.WriteString(e.Message)
	if !strings.HasSuffix(e.Message, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Handle writes a single event.
func (c *Collector) Handle(e *Event) error {
	source := e.Source
	if source == "" || strings.ContainsAny(source, `/\`) || source == "." || source == ".." {
		source = "unknown"
	}
	b, err := c.backend(source, e.Level)
	if err != nil {
		return fmt.Errorf("could not open log file for %s/%s: %w", source, e.Level, err)
	}
	if _, err := b.Write([]byte(FormatBlock(e))); err != nil {
		return fmt.Errorf("could not write event to %s: %w", b.Path(), err)
	}
	return nil
}

// Run drains the bus till the context is canceled or the bus is closed.
func (c *Collector) Run(ctx context.Context, bus *Bus) error {
	events, err := bus.Events()
	if err != nil {
		return fmt.Errorf("could not get events channel: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.Handle(e); err != nil {
				slog.Error("could not write log event", "source", e.Source, "level", e.Level, "err", err)
			}
		}
	}
}
