package v1

import "time"

// Clock abstracts wall-clock access so tests can drive the cadence.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the minimal surface of time.Ticker the generator needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Rand abstracts the perturbation source for deterministic tests.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}
