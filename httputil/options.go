// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// ReadyTimeout is the max time to wait for a new listener to serve its
	// first readiness check.
	ReadyTimeout time.Duration

	// ReadyRetryInterval is the wait between readiness checks.
	ReadyRetryInterval time.Duration

	// ReadHeaderTimeout is passed to every http.Server.
	ReadHeaderTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.ReadyTimeout == 0 {
		v.ReadyTimeout = 10 * time.Second
	}
	if v.ReadyRetryInterval == 0 {
		v.ReadyRetryInterval = 100 * time.Millisecond
	}
	if v.ReadHeaderTimeout == 0 {
		v.ReadHeaderTimeout = 5 * time.Second
	}
}

func (v *Options) Check() error {
	if v.ReadyRetryInterval > v.ReadyTimeout {
		return fmt.Errorf("ready retry interval %s exceeds the ready timeout %s: %w", v.ReadyRetryInterval, v.ReadyTimeout, os.ErrInvalid)
	}
	return nil
}
