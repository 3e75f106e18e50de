package tracker

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/fitness"
	"github.com/ayusman/mudra/internal/fixture"
	"github.com/ayusman/mudra/internal/optimizer"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/skin"
)

func newFingerPipeline(t *testing.T, reference *raster.Buffer) *Pipeline {
	t.Helper()
	p, err := NewPipeline(
		fixture.FingerSkinner(),
		fixture.FingerDefs(),
		raster.NewRenderer(fixture.Camera()),
		fitness.NewEvaluator(reference, fitness.Silhouette),
	)
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p
}

func TestPipeline_MatchingPoseScoresZero(t *testing.T) {
	target := []float64{0, -30, -45}
	p := newFingerPipeline(t, fixture.RenderPose(target))

	v := pose.New(fixture.FingerDefs())
	v.SetValues(target)
	ev, err := p.Evaluate(v)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ev.Global != 0 {
		t.Errorf("Global = %v, want 0", ev.Global)
	}
	for name, e := range ev.Errors {
		if e != 0 {
			t.Errorf("error[%s] = %v, want 0", name, e)
		}
	}
	if p.Last() == nil || p.Last().Result == nil {
		t.Error("expected last frame to be recorded")
	}
}

func TestPipeline_BentPoseScoresWorse(t *testing.T) {
	p := newFingerPipeline(t, fixture.RenderPose([]float64{0, 0, 0}))

	v := pose.New(fixture.FingerDefs())
	v.SetValues([]float64{0, -60, -90})
	ev, err := p.Evaluate(v)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ev.Global <= 0 {
		t.Errorf("Global = %v, want > 0", ev.Global)
	}
	if len(ev.Errors) != len(fixture.FingerDefs()) {
		t.Errorf("error table has %d entries, want %d", len(ev.Errors), len(fixture.FingerDefs()))
	}
	for name, e := range ev.Errors {
		if e < 0 || e > 1 {
			t.Errorf("error[%s] = %v, want in [0,1]", name, e)
		}
	}
}

func TestPipeline_UnknownJoint(t *testing.T) {
	_, err := NewPipeline(
		fixture.FingerSkinner(),
		[]pose.Def{{Name: "Finger-9-1_R.z", Min: -1, Max: 1}},
		fixture.Blank{Width: 4, Height: 4},
		fitness.NewEvaluator(raster.NewBuffer(4, 4), fitness.Silhouette),
	)
	if !errors.Is(err, skeleton.ErrUnknownJoint) {
		t.Errorf("NewPipeline error = %v, want ErrUnknownJoint", err)
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(*skin.Deformed) (*raster.Buffer, error) {
	return nil, errors.New("device lost")
}

func TestPipeline_RenderError(t *testing.T) {
	p, err := NewPipeline(
		fixture.FingerSkinner(),
		fixture.FingerDefs(),
		failingRenderer{},
		fitness.NewEvaluator(raster.NewBuffer(4, 4), fitness.Silhouette),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.Evaluate(pose.New(fixture.FingerDefs())); err == nil {
		t.Error("expected render error")
	}
}

func TestPipeline_OptimizerNeverWorsens(t *testing.T) {
	p := newFingerPipeline(t, fixture.RenderPose([]float64{5, -40, -60}))
	o := optimizer.New(optimizer.DefaultConfig(), pose.New(fixture.FingerDefs()), p)

	res, err := o.Prime()
	if err != nil {
		t.Fatalf("Prime failed: %v", err)
	}
	initial := res.Error
	if initial <= 0 {
		t.Fatalf("initial error = %v, want > 0", initial)
	}

	prev := initial
	for i := 0; i < 300; i++ {
		if _, err := o.Step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		best := o.Best().Error
		if best > prev {
			t.Fatalf("step %d: best error rose from %v to %v", i, prev, best)
		}
		prev = best
	}
	t.Logf("error %v -> %v after %d improvements", initial, prev, o.Stats().Improvements)
}
