// Copyright (c) 2025 BVK Chaitanya

package ladder

import (
	"fmt"
	"os"
)

type Options struct {
	// MaxOrdersPerCycle limits the number of levels acted upon in a single
	// transaction.
	MaxOrdersPerCycle int
}

func (v *Options) setDefaults() {
	if v.MaxOrdersPerCycle == 0 {
		v.MaxOrdersPerCycle = 5
	}
}

func (v *Options) Check() error {
	if v.MaxOrdersPerCycle < 0 {
		return fmt.Errorf("max orders per cycle cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
