package optimizer

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/fitness"
	"github.com/ayusman/mudra/internal/pose"
)

// scripted returns errors from a list and records every evaluated pose.
type scripted struct {
	errs  []float64
	table fitness.ErrorTable
	seen  [][]float64
}

func (s *scripted) Evaluate(v *pose.Vector) (*Evaluation, error) {
	s.seen = append(s.seen, v.Values())
	e := s.errs[len(s.errs)-1]
	if len(s.seen) <= len(s.errs) {
		e = s.errs[len(s.seen)-1]
	}
	return &Evaluation{Global: e, Errors: s.table}, nil
}

func testDefs() []pose.Def {
	return []pose.Def{
		{Name: "A.x", Min: -45, Max: 45},
		{Name: "A.z", Min: -90, Max: 5},
		{Name: "B.y", Min: -15, Max: 10},
	}
}

func fullTable(e float64) fitness.ErrorTable {
	t := fitness.ErrorTable{}
	for _, d := range testDefs() {
		t[d.Name] = e
	}
	return t
}

func equalValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_InitialState(t *testing.T) {
	seed := pose.New(testDefs())
	seed.Set(0, 12)
	o := New(DefaultConfig(), seed, &scripted{errs: []float64{0.5}})

	best := o.Best()
	if !math.IsInf(best.Error, 1) {
		t.Errorf("initial best error = %v, want +Inf", best.Error)
	}
	if !equalValues(best.Values, seed.Values()) {
		t.Errorf("initial best = %v, want %v", best.Values, seed.Values())
	}
	if o.Iterations() != 0 || o.State() != Searching {
		t.Errorf("initial iterations/state = %d/%v", o.Iterations(), o.State())
	}
}

func TestPrime_ScoresSeedWithoutMoving(t *testing.T) {
	seed := pose.New(testDefs())
	seed.Set(1, -30)
	obj := &scripted{errs: []float64{0.4}, table: fullTable(1)}
	o := New(DefaultConfig(), seed, obj)

	res, err := o.Prime()
	if err != nil {
		t.Fatalf("Prime failed: %v", err)
	}
	if !res.Improved || o.Best().Error != 0.4 {
		t.Errorf("Prime result = %+v, best = %v", res, o.Best().Error)
	}
	if !equalValues(obj.seen[0], seed.Values()) {
		t.Errorf("Prime evaluated %v, want seed %v", obj.seen[0], seed.Values())
	}
	if o.Iterations() != 0 {
		t.Errorf("Prime counted an iteration")
	}
}

func TestStep_ResetAfterNonImprovingSteps(t *testing.T) {
	obj := &scripted{errs: []float64{0.5, 0.9}, table: fullTable(0.5)}
	o := New(DefaultConfig(), pose.New(testDefs()), obj)
	if _, err := o.Prime(); err != nil {
		t.Fatalf("Prime failed: %v", err)
	}
	best := o.Best()

	for i := 0; i < 101; i++ {
		res, err := o.Step()
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if res.State != Searching || res.Improved {
			t.Fatalf("step %d = %+v, want searching without improvement", i, res)
		}
	}
	if o.Iterations() != 101 || o.State() != Reset {
		t.Fatalf("after 101 steps iterations=%d state=%v", o.Iterations(), o.State())
	}
	if equalValues(o.Current().Values(), best.Values) {
		t.Fatal("expected the pose to drift during search")
	}

	res, err := o.Step()
	if err != nil {
		t.Fatalf("reset step failed: %v", err)
	}
	if res.State != Reset {
		t.Errorf("state = %v, want reset", res.State)
	}
	if o.Iterations() != 0 {
		t.Errorf("iterations = %d, want 0", o.Iterations())
	}
	if last := obj.seen[len(obj.seen)-1]; !equalValues(last, best.Values) {
		t.Errorf("reset evaluated %v, want best %v", last, best.Values)
	}
	if o.Stats().Resets != 1 {
		t.Errorf("resets = %d, want 1", o.Stats().Resets)
	}
}

func TestStep_ImprovementDoesNotResetCounter(t *testing.T) {
	errs := []float64{0.9}
	for i := 0; i < 50; i++ {
		errs = append(errs, 0.9-float64(i+1)*0.01)
	}
	obj := &scripted{errs: errs, table: fullTable(0.3)}
	o := New(DefaultConfig(), pose.New(testDefs()), obj)
	o.Prime()

	for i := 0; i < 50; i++ {
		res, err := o.Step()
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if !res.Improved {
			t.Fatalf("step %d should improve", i)
		}
	}
	if o.Iterations() != 50 {
		t.Errorf("iterations = %d, want 50", o.Iterations())
	}
	if got := o.Stats().Improvements; got != 51 {
		t.Errorf("improvements = %d, want 51", got)
	}
}

func TestStep_TiesAreNotImprovements(t *testing.T) {
	obj := &scripted{errs: []float64{0.25}, table: fullTable(0.5)}
	o := New(DefaultConfig(), pose.New(testDefs()), obj)

	var improved int
	o.OnImprove = func(Snapshot) { improved++ }
	o.Prime()
	for i := 0; i < 20; i++ {
		o.Step()
	}
	if improved != 1 {
		t.Errorf("OnImprove called %d times, want 1", improved)
	}
}

func TestStep_PerBoneZeroErrorDoesNotMove(t *testing.T) {
	table := fitness.ErrorTable{"A.x": 0.8, "A.z": 0, "B.y": 0}
	obj := &scripted{errs: []float64{0.5}, table: table}
	o := New(DefaultConfig(), pose.New(testDefs()), obj)
	o.Prime()
	for i := 0; i < 20; i++ {
		o.Step()
	}
	cur := o.Current()
	if cur.Get(1) != 0 || cur.Get(2) != 0 {
		t.Errorf("well fit joints moved: %v", cur.Values())
	}
	if cur.Get(0) == 0 {
		t.Error("poorly fit joint did not move")
	}
}

func TestStep_GlobalMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = Global
	obj := &scripted{errs: []float64{0.5}}
	o := New(cfg, pose.New(testDefs()), obj)
	o.Prime()
	o.Step()

	moved := 0
	for _, v := range o.Current().Values() {
		if v != 0 {
			moved++
		}
	}
	if moved != 3 {
		t.Errorf("global mode moved %d parameters, want 3", moved)
	}
}

func TestStep_ObjectiveError(t *testing.T) {
	boom := errors.New("render failed")
	o := New(DefaultConfig(), pose.New(testDefs()), ObjectiveFunc(func(*pose.Vector) (*Evaluation, error) {
		return nil, boom
	}))
	if _, err := o.Step(); !errors.Is(err, boom) {
		t.Errorf("Step error = %v, want %v", err, boom)
	}
	if !math.IsInf(o.Best().Error, 1) {
		t.Error("best changed after a failed evaluation")
	}
}

func TestBestVector(t *testing.T) {
	seed := pose.New(testDefs())
	seed.Set(2, 7)
	o := New(DefaultConfig(), seed, &scripted{errs: []float64{0.5}})

	t.Run("copies best values", func(t *testing.T) {
		v, err := o.BestVector()
		if err != nil {
			t.Fatalf("BestVector failed: %v", err)
		}
		if !equalValues(v.Values(), seed.Values()) {
			t.Errorf("BestVector = %v, want %v", v.Values(), seed.Values())
		}
		if v.Name(2) != "B.y" {
			t.Errorf("BestVector lost parameter names: %v", v.Names())
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		o.best.Values = o.best.Values[:1]
		v, err := o.BestVector()
		if !errors.Is(err, pose.ErrLengthMismatch) {
			t.Fatalf("BestVector error = %v, want ErrLengthMismatch", err)
		}
		if v != nil {
			t.Errorf("BestVector returned %v alongside an error", v.Values())
		}
	})
}

func TestStats_Window(t *testing.T) {
	o := New(DefaultConfig(), pose.New(testDefs()), &scripted{errs: []float64{0.5}})
	for i := 0; i < statsWindow+10; i++ {
		o.Step()
	}
	st := o.Stats()
	if st.Steps != statsWindow+10 {
		t.Errorf("steps = %d, want %d", st.Steps, statsWindow+10)
	}
	if st.RecentMean != 0.5 || st.RecentStdDev != 0 {
		t.Errorf("recent = %v ± %v, want 0.5 ± 0", st.RecentMean, st.RecentStdDev)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("global"); err != nil || m != Global {
		t.Errorf("ParseMode(global) = %v, %v", m, err)
	}
	if _, err := ParseMode("annealing"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
