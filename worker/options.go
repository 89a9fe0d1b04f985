// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// PollInterval is the spacing between signature status polls.
	PollInterval time.Duration

	// ConfirmRetries is the maximum number of signature status polls in each
	// of the processed and confirmed phases.
	ConfirmRetries int

	// MaxAttempts is the number of submissions allowed per cycle when an
	// attempt is abandoned due to a timeout or an expired blockhash.
	MaxAttempts int

	// ErrorBackoff is the wait time before the next cycle after a failed
	// cycle.
	ErrorBackoff time.Duration

	// IdleInterval is the wait time before the next cycle after a cycle that
	// submitted no transaction.
	IdleInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.PollInterval == 0 {
		v.PollInterval = time.Second
	}
	if v.ConfirmRetries == 0 {
		v.ConfirmRetries = 30
	}
	if v.MaxAttempts == 0 {
		v.MaxAttempts = 1
	}
	if v.ErrorBackoff == 0 {
		v.ErrorBackoff = time.Second
	}
	if v.IdleInterval == 0 {
		v.IdleInterval = time.Second
	}
}

func (v *Options) Check() error {
	if v.PollInterval < 0 || v.ErrorBackoff < 0 || v.IdleInterval < 0 {
		return fmt.Errorf("intervals cannot be negative: %w", os.ErrInvalid)
	}
	if v.ConfirmRetries < 0 || v.MaxAttempts < 0 {
		return fmt.Errorf("retry budgets cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
