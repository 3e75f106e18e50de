package pose

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector is an ordered set of bounded parameters. The set of names and their
// bounds are fixed at construction; only the values change.
type Vector struct {
	defs   []Def
	values []float64
	index  map[string]int
}

// New creates a vector over defs with every value set to zero.
func New(defs []Def) *Vector {
	v := &Vector{
		defs:   append([]Def(nil), defs...),
		values: make([]float64, len(defs)),
		index:  make(map[string]int, len(defs)),
	}
	for i, d := range v.defs {
		v.index[d.Name] = i
	}
	return v
}

// Len returns the number of parameters.
func (v *Vector) Len() int { return len(v.values) }

// Name returns the name of parameter i.
func (v *Vector) Name(i int) string { return v.defs[i].Name }

// Min returns the lower bound of parameter i.
func (v *Vector) Min(i int) float64 { return v.defs[i].Min }

// Max returns the upper bound of parameter i.
func (v *Vector) Max(i int) float64 { return v.defs[i].Max }

// Get returns the value of parameter i.
func (v *Vector) Get(i int) float64 { return v.values[i] }

// Set stores a value for parameter i. The value is not clamped; callers
// that need bounds enforced go through Perturb.
func (v *Vector) Set(i int, value float64) { v.values[i] = value }

// Defs returns a copy of the parameter declarations.
func (v *Vector) Defs() []Def { return append([]Def(nil), v.defs...) }

// Names returns the parameter names in declaration order.
func (v *Vector) Names() []string {
	names := make([]string, len(v.defs))
	for i, d := range v.defs {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the index of the named parameter.
func (v *Vector) Lookup(name string) (int, bool) {
	i, ok := v.index[name]
	return i, ok
}

// Values returns a copy of the current values.
func (v *Vector) Values() []float64 {
	return append([]float64(nil), v.values...)
}

// SetValues replaces all values at once.
func (v *Vector) SetValues(values []float64) error {
	if len(values) != len(v.values) {
		return fmt.Errorf("%w: got %d values, want %d", ErrLengthMismatch, len(values), len(v.values))
	}
	copy(v.values, values)
	return nil
}

// Clone returns an independent copy sharing no state with v.
func (v *Vector) Clone() *Vector {
	c := New(v.defs)
	copy(c.values, v.values)
	return c
}

// Perturb moves every parameter to a sample of N(value, stddev*(max-min)),
// clamped into its bounds.
func (v *Vector) Perturb(s *Sampler, stddev float64) {
	for i := range v.values {
		v.perturb(i, s, stddev)
	}
}

// PerturbEach perturbs each parameter with its own relative deviation.
// Parameters missing from stddev do not move.
func (v *Vector) PerturbEach(s *Sampler, stddev map[string]float64) {
	for i, d := range v.defs {
		v.perturb(i, s, stddev[d.Name])
	}
}

func (v *Vector) perturb(i int, s *Sampler, stddev float64) {
	d := v.defs[i]
	if stddev == 0 {
		return
	}
	next := s.Normal(v.values[i], stddev*(d.Max-d.Min))
	v.values[i] = mgl64.Clamp(next, d.Min, d.Max)
}
