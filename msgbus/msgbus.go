// Copyright (c) 2025 BVK Chaitanya

// Package msgbus carries log events from all workers to a single collector.
package msgbus

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/visvasity/topic"
)

type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// LevelOf maps slog levels to event levels. Debug records are reported as
// Info.
func LevelOf(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return Error
	case l >= slog.LevelWarn:
		return Warn
	}
	return Info
}

type Event struct {
	Source  string
	Level   Level
	Message string
	Time    time.Time
}

// Bus is a multi-producer, single-consumer event channel. Senders never
// block.
type Bus struct {
	mu     sync.RWMutex
	closed bool

	tp   *topic.Topic[*Event]
	recv *topic.Receiver[*Event]
}

// New creates a bus with its single consumer subscribed, so that no events
// are lost before the consumer starts reading.
func New() (*Bus, error) {
	tp := topic.New[*Event]()
	recv, err := topic.Subscribe(tp, 0 /* unlimited */, false /* includeRecent */)
	if err != nil {
		tp.Close()
		return nil, fmt.Errorf("could not subscribe to the events topic: %w", err)
	}
	b := &Bus{
		tp:   tp,
		recv: recv,
	}
	return b, nil
}

// Close closes the bus. Events sent after close are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.recv.Close()
	b.tp.Close()
}

// Send queues an event for the consumer. Returns os.ErrClosed if the bus is
// closed.
func (b *Bus) Send(e *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return os.ErrClosed
	}
	b.tp.Send(e)
	return nil
}

// Events returns the consumer's channel.
func (b *Bus) Events() (<-chan *Event, error) {
	return topic.ReceiveCh(b.recv)
}
