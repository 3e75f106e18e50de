// Package optimizer runs the randomized search that pulls a pose toward the
// reference silhouette.
//
// Each step either perturbs the current pose around its value, scaled by
// how badly each joint currently fits, or, every ResetInterval steps, snaps
// the current pose back to the best one seen. The reset clock counts steps
// only; finding a better pose does not restart it.
package optimizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/mudra/internal/fitness"
	"github.com/ayusman/mudra/internal/pose"
)

// DefaultResetInterval is the number of searching steps between resets.
const DefaultResetInterval = 100

// State is the optimizer's step state.
type State int

const (
	// Searching perturbs the current pose.
	Searching State = iota
	// Reset restores the best pose.
	Reset
)

// String returns the state name.
func (s State) String() string {
	if s == Reset {
		return "reset"
	}
	return "searching"
}

// Mode selects what drives the perturbation deviation.
type Mode int

const (
	// PerBone scales each parameter by its joint's error.
	PerBone Mode = iota
	// Global scales every parameter by the global error.
	Global
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "per-bone", "perbone":
		return PerBone, nil
	case "global":
		return Global, nil
	}
	return 0, fmt.Errorf("unknown optimizer mode %q", s)
}

// Evaluation is the score of one pose.
type Evaluation struct {
	Global float64
	Errors fitness.ErrorTable
}

// Objective scores a pose. Implementations render and compare it.
type Objective interface {
	Evaluate(v *pose.Vector) (*Evaluation, error)
}

// ObjectiveFunc adapts a function to Objective.
type ObjectiveFunc func(v *pose.Vector) (*Evaluation, error)

// Evaluate calls f(v).
func (f ObjectiveFunc) Evaluate(v *pose.Vector) (*Evaluation, error) { return f(v) }

// Config holds optimizer settings.
type Config struct {
	ResetInterval int
	Mode          Mode
	// Exponent is applied to the error before it is used as a deviation.
	Exponent float64
	Seed     int64
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		ResetInterval: DefaultResetInterval,
		Mode:          PerBone,
		Exponent:      1,
		Seed:          1,
	}
}

// Snapshot is a pose together with its error.
type Snapshot struct {
	Values []float64 `json:"values"`
	Error  float64   `json:"error"`
}

// StepResult describes one call to Step.
type StepResult struct {
	State    State
	Error    float64
	Improved bool
}

// Optimizer owns the current pose, the best snapshot and the latest error
// table. It is not safe for concurrent use.
type Optimizer struct {
	cfg     Config
	obj     Objective
	sampler *pose.Sampler

	current    *pose.Vector
	best       Snapshot
	errors     fitness.ErrorTable
	lastGlobal float64
	iterations int

	stats *runStats

	// OnImprove is called with the new best snapshot after an improvement.
	OnImprove func(Snapshot)
}

// New creates an optimizer starting from initial. The best snapshot starts
// as initial with an infinite error so the first evaluation always improves.
func New(cfg Config, initial *pose.Vector, obj Objective) *Optimizer {
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = DefaultResetInterval
	}
	if cfg.Exponent <= 0 {
		cfg.Exponent = 1
	}
	return &Optimizer{
		cfg:        cfg,
		obj:        obj,
		sampler:    pose.NewSampler(cfg.Seed),
		current:    initial.Clone(),
		best:       Snapshot{Values: initial.Values(), Error: math.Inf(1)},
		errors:     make(fitness.ErrorTable),
		lastGlobal: 1,
		stats:      newRunStats(statsWindow),
	}
}

// Prime evaluates the current pose without moving it.
func (o *Optimizer) Prime() (StepResult, error) {
	return o.evaluate(Searching)
}

// Step advances the search by one iteration.
//
// Algorithm:
//  1. If more than ResetInterval steps ran since the last reset, restore the
//     best pose and zero the counter.
//  2. Otherwise perturb the current pose and count the step.
//  3. Evaluate; keep the pose as best only if its error is strictly lower.
//  4. Store the new per-parameter errors for the next perturbation.
func (o *Optimizer) Step() (StepResult, error) {
	state := Searching
	if o.iterations > o.cfg.ResetInterval {
		state = Reset
		if err := o.current.SetValues(o.best.Values); err != nil {
			return StepResult{}, err
		}
		o.iterations = 0
		o.stats.resets++
	} else {
		o.perturb()
		o.iterations++
	}
	return o.evaluate(state)
}

func (o *Optimizer) perturb() {
	if o.cfg.Mode == Global {
		o.current.Perturb(o.sampler, math.Pow(o.lastGlobal, o.cfg.Exponent))
		return
	}
	stddev := make(map[string]float64, len(o.errors))
	for name, e := range o.errors {
		stddev[name] = math.Pow(e, o.cfg.Exponent)
	}
	o.current.PerturbEach(o.sampler, stddev)
}

func (o *Optimizer) evaluate(state State) (StepResult, error) {
	ev, err := o.obj.Evaluate(o.current)
	if err != nil {
		return StepResult{State: state}, fmt.Errorf("evaluate pose: %w", err)
	}

	res := StepResult{State: state, Error: ev.Global}
	o.stats.add(ev.Global)
	if ev.Global < o.best.Error {
		o.best = Snapshot{Values: o.current.Values(), Error: ev.Global}
		o.stats.improvements++
		res.Improved = true
		if o.OnImprove != nil {
			o.OnImprove(o.Best())
		}
	}

	o.lastGlobal = ev.Global
	o.errors = ev.Errors
	if o.errors == nil {
		o.errors = make(fitness.ErrorTable)
	}
	return res, nil
}

// Best returns a copy of the best snapshot.
func (o *Optimizer) Best() Snapshot {
	return Snapshot{Values: append([]float64(nil), o.best.Values...), Error: o.best.Error}
}

// BestVector returns the best pose as a vector carrying the current
// parameter table.
func (o *Optimizer) BestVector() (*pose.Vector, error) {
	v := o.current.Clone()
	if err := v.SetValues(o.best.Values); err != nil {
		return nil, fmt.Errorf("best pose: %w", err)
	}
	return v, nil
}

// Current returns a copy of the current pose.
func (o *Optimizer) Current() *pose.Vector { return o.current.Clone() }

// Errors returns a copy of the latest per-parameter error table.
func (o *Optimizer) Errors() fitness.ErrorTable { return o.errors.Clone() }

// Iterations returns the number of searching steps since the last reset.
func (o *Optimizer) Iterations() int { return o.iterations }

// State returns the state the next Step will run in.
func (o *Optimizer) State() State {
	if o.iterations > o.cfg.ResetInterval {
		return Reset
	}
	return Searching
}

// Config returns the optimizer settings.
func (o *Optimizer) Config() Config { return o.cfg }
