package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// ErrInjectedFault is returned by calls failed on purpose.
var ErrInjectedFault = errors.New("simulated backend failure")

// RandomFaults fails each call with probability rate. Rates outside [0, 1]
// are clamped.
func RandomFaults(rate float64, seed int64) FaultInjector {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}

	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))

	return func(operation string) error {
		mu.Lock()
		roll := rng.Float64()
		mu.Unlock()

		if roll < rate {
			return fmt.Errorf("%s: %w", operation, ErrInjectedFault)
		}
		return nil
	}
}

// FailOperations always fails the named operations.
func FailOperations(operations ...string) FaultInjector {
	fail := make(map[string]bool, len(operations))
	for _, op := range operations {
		fail[op] = true
	}
	return func(operation string) error {
		if fail[operation] {
			return fmt.Errorf("%s: %w", operation, ErrInjectedFault)
		}
		return nil
	}
}
