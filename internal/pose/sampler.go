package pose

import (
	"math"
	"math/rand"
)

// Sampler draws Gaussian deviates for parameter perturbation.
// A Sampler is not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler seeded with seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Normal returns a sample of N(mean, stddev) using the Box-Muller transform.
// Both uniforms lie in (0,1] so the logarithm is always finite.
func (s *Sampler) Normal(mean, stddev float64) float64 {
	u1 := 1 - s.rng.Float64()
	u2 := 1 - s.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + stddev*z
}
