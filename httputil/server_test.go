// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
)

func TestServerHandlers(t *testing.T) {
	ctx := context.Background()

	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1")}
	id, err := s.StartTCP(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port == 0 {
		t.Fatalf("listener port is not updated")
	}

	s.AddHandler("/hello", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "world")
	}))

	get := func(p string) (int, string) {
		resp, err := http.Get("http://" + addr.String() + p)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(data)
	}

	if code, body := get("/hello"); code != http.StatusOK || body != "world" {
		t.Fatalf("want 200/world, got %d/%q", code, body)
	}
	if !s.RemoveHandler("/hello") {
		t.Fatalf("handler was not removed")
	}
	if s.RemoveHandler("/hello") {
		t.Fatalf("handler was removed twice")
	}
	if code, _ := get("/hello"); code != http.StatusNotFound {
		t.Fatalf("want 404 after remove, got %d", code)
	}

	if err := s.Stop(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(id); err == nil {
		t.Fatalf("second stop must fail")
	}
}
