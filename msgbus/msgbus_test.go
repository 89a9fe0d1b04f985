// Copyright (c) 2025 BVK Chaitanya

package msgbus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCollectorHandle(t *testing.T) {
	dir := t.TempDir()
	c := NewCollector(dir)
	defer c.Close()

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []*Event{
		{Source: "trader", Level: Info, Message: "first", Time: at},
		{Source: "trader", Level: Info, Message: "second\n", Time: at},
		{Source: "sync", Level: Error, Message: "boom", Time: at},
		{Source: "../escape", Level: Warn, Message: "odd source", Time: at},
	}
	for _, e := range events {
		if err := c.Handle(e); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "trader", "info.log"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Count(text, "=====  ") != 2 || !strings.Contains(text, "\nfirst\n") || !strings.Contains(text, "\nsecond\n") {
		t.Fatalf("unexpected trader info log %q", text)
	}
	if _, err := os.Stat(filepath.Join(dir, "sync", "error.log")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "unknown", "warn.log")); err != nil {
		t.Fatal(err)
	}
}

func TestBusToCollector(t *testing.T) {
	bus, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	logger := slog.New(NewHandler(bus, "cleanup", nil, nil))
	logger.Info("placed orders", "count", 3)
	logger.With("market", "m1").Warn("skipped level", "price", 105)
	logger.Debug("not delivered")

	dir := t.TempDir()
	c := NewCollector(dir)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, bus) }()

	warnPath := filepath.Join(dir, "cleanup", "warn.log")
	deadline := time.Now().Add(5 * time.Second)
	for {
		data, _ := os.ReadFile(warnPath)
		if strings.Contains(string(data), "skipped level market=m1 price=105") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the warn log, has %q", data)
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	data, err := os.ReadFile(filepath.Join(dir, "cleanup", "info.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "placed orders count=3") || strings.Contains(string(data), "not delivered") {
		t.Fatalf("unexpected info log %q", data)
	}
}

func TestSendAfterClose(t *testing.T) {
	bus, err := New()
	if err != nil {
		t.Fatal(err)
	}
	bus.Close()
	bus.Close()

	if err := bus.Send(&Event{Source: "trader", Message: "late"}); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want os.ErrClosed, got %v", err)
	}

	// Logging through a closed bus must not fail or block.
	var sb strings.Builder
	next := slog.NewTextHandler(&sb, nil)
	logger := slog.New(NewHandler(bus, "trader", nil, next))
	logger.Error("still logged locally")
	if !strings.Contains(sb.String(), "could not send log event") || !strings.Contains(sb.String(), "still logged locally") {
		t.Fatalf("unexpected local log %q", sb.String())
	}
}
