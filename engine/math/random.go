package math

import (
	"golang.org/x/exp/rand"
)

// Random is a seeded generator. Each owner keeps its own so sequences stay
// reproducible in tests.
type Random struct {
	r *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{r: rand.New(rand.NewSource(seed))}
}

// Float32 returns a value in [0, 1).
func (r *Random) Float32() float32 {
	return r.r.Float32()
}

// Float32Range returns a value in [min, max).
func (r *Random) Float32Range(min, max float32) float32 {
	return min + r.r.Float32()*(max-min)
}

// Int32Range returns a value in [min, max].
func (r *Random) Int32Range(min, max int32) int32 {
	if max <= min {
		return min
	}
	return min + r.r.Int31n(max-min+1)
}

// Vec3Range returns a vector whose components are each in [min, max).
func (r *Random) Vec3Range(min, max float32) Vec3 {
	return Vec3{
		X: r.Float32Range(min, max),
		Y: r.Float32Range(min, max),
		Z: r.Float32Range(min, max),
	}
}
