package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Dice is the source of every random outcome in the economy.
type Dice interface {
	// Gamma draws from a Gamma distribution with the given shape and scale.
	Gamma(shape, scale float64) float64
	// Coin reports a fair coin flip.
	Coin() bool
	// Between returns a uniform integer in [lo, hi].
	Between(lo, hi int64) int64
}

type randDice struct {
	mu  sync.Mutex
	src rand.Source
	rng *rand.Rand
}

// NewDice builds Dice over src. Draws are serialized, so the result is safe
// for concurrent use even though src is not.
func NewDice(src rand.Source) Dice {
	return &randDice{src: src, rng: rand.New(src)}
}

func NewClockDice() Dice {
	return NewDice(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}

func (d *randDice) Gamma(shape, scale float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := distuv.Gamma{Alpha: shape, Beta: 1 / scale, Src: d.src}
	return g.Rand()
}

func (d *randDice) Coin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Float64() < 0.5
}

func (d *randDice) Between(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo + d.rng.Int64N(hi-lo+1)
}
