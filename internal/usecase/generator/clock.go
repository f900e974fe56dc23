package generator

import (
	"math/rand"
	"time"

	generatorv1 "github.com/muhammadchandra19/tickstream/internal/domain/generator/v1"
)

type systemClock struct{}

type systemTicker struct {
	ticker *time.Ticker
}

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() generatorv1.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) NewTicker(d time.Duration) generatorv1.Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

func (t *systemTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *systemTicker) Stop() {
	t.ticker.Stop()
}

type systemRand struct {
	rand *rand.Rand
}

// SystemRand returns a Rand seeded from the current time.
func SystemRand() generatorv1.Rand {
	return &systemRand{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *systemRand) Float64() float64 {
	return r.rand.Float64()
}
