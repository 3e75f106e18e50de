// Package app runs the pose search loop and exposes its progress to the
// server and the tray.
package app

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/fitness"
	"github.com/ayusman/mudra/internal/imageio"
	"github.com/ayusman/mudra/internal/optimizer"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
)

// DefaultFPS is the step rate used when Config.FPS is not set.
const DefaultFPS = 30

// ErrNoFrame is returned by Overlay before the first evaluation.
var ErrNoFrame = errors.New("no frame evaluated yet")

// Config holds configuration options for the application.
type Config struct {
	// Store is optional. Without it runs are not recorded.
	Store     *store.Store
	Pipeline  *tracker.Pipeline
	Optimizer optimizer.Config
	Initial   *pose.Vector
	// Camera is the view used to draw bone segments on overlays.
	Camera raster.Camera
	FPS    int
	// OutputPose is where SaveBest writes the best pose.
	OutputPose string
	// Model and Reference describe the run in the store.
	Model     string
	Reference string
}

// Status is a point in time view of the search.
type Status struct {
	RunID      string             `json:"run_id,omitempty"`
	Enabled    bool               `json:"enabled"`
	State      string             `json:"state"`
	Iterations int                `json:"iterations"`
	BestError  *float64           `json:"best_error"`
	LastError  *float64           `json:"last_error"`
	Stats      optimizer.Stats    `json:"stats"`
	Errors     fitness.ErrorTable `json:"errors"`
	BestPose   map[string]float64 `json:"best_pose"`
}

// App owns the optimizer and drives it from a ticker.
type App struct {
	config Config
	opt    *optimizer.Optimizer
	view   *raster.Renderer
	run    *store.Run

	// stepMu serializes every use of the optimizer and the pipeline.
	stepMu    sync.Mutex
	primed    bool
	lastError float64

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	done    chan struct{}

	onImprove []func(optimizer.Snapshot)
}

// New creates an App and, when a store is configured, records a new run.
func New(config Config) (*App, error) {
	if config.Pipeline == nil || config.Initial == nil {
		return nil, fmt.Errorf("app: pipeline and initial pose are required")
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}

	a := &App{
		config:    config,
		opt:       optimizer.New(config.Optimizer, config.Initial, config.Pipeline),
		view:      raster.NewRenderer(config.Camera),
		lastError: math.Inf(1),
	}
	a.opt.OnImprove = a.improved

	if config.Store != nil {
		a.run = &store.Run{
			ID:         uuid.New().String(),
			Model:      config.Model,
			Reference:  config.Reference,
			Mode:       modeName(config.Optimizer.Mode),
			Parameters: config.Initial.Names(),
		}
		if err := config.Store.Runs().Create(a.run); err != nil {
			return nil, fmt.Errorf("app: create run: %w", err)
		}
		if err := config.Store.SetSetting(store.SettingLastRun, a.run.ID); err != nil {
			log.Printf("Failed to remember run: %v", err)
		}
	}
	return a, nil
}

func modeName(m optimizer.Mode) string {
	if m == optimizer.Global {
		return "global"
	}
	return "per-bone"
}

// OnImprove registers fn to be called with every new best snapshot. It runs
// on the search goroutine and must not call back into the App.
func (a *App) OnImprove(fn func(optimizer.Snapshot)) {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()
	a.onImprove = append(a.onImprove, fn)
}

func (a *App) improved(s optimizer.Snapshot) {
	st := a.opt.Stats()
	log.Printf("improved: %.2f%% after %d steps", s.Error*100, st.Steps)
	for _, fn := range a.onImprove {
		fn(s)
	}
}

// SetEnabled pauses or resumes the search.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		if enabled {
			log.Println("Search resumed")
		} else {
			log.Println("Search paused")
		}
	}
	a.enabled = enabled
}

// IsEnabled returns whether the search is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// RunID returns the stored run's ID, or "" without a store.
func (a *App) RunID() string {
	if a.run == nil {
		return ""
	}
	return a.run.ID
}

// Start scores the seed pose and begins stepping at the configured rate.
func (a *App) Start() error {
	if _, err := a.Prime(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh != nil {
		return nil
	}
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runLoop(a.stopCh, a.done)

	log.Println("Search loop started")
	return nil
}

// Stop halts the loop and stores the final progress.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.stepMu.Lock()
	a.saveProgress()
	a.stepMu.Unlock()

	log.Println("Search loop stopped")
}

// Prime evaluates the seed pose once. Later calls do nothing.
func (a *App) Prime() (optimizer.StepResult, error) {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()
	if a.primed {
		return optimizer.StepResult{}, nil
	}
	res, err := a.opt.Prime()
	if err != nil {
		return res, err
	}
	a.primed = true
	a.after(res)
	return res, nil
}

// Step runs one optimizer iteration.
func (a *App) Step() (optimizer.StepResult, error) {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()
	res, err := a.opt.Step()
	if err != nil {
		return res, err
	}
	a.primed = true
	a.after(res)
	return res, nil
}

// after records the outcome of an evaluation. Callers hold stepMu.
func (a *App) after(res optimizer.StepResult) {
	a.lastError = res.Error
	if res.State == optimizer.Reset {
		log.Printf("reset to best pose (%.2f%%)", a.opt.Best().Error*100)
	}
	if !res.Improved && res.State != optimizer.Reset {
		return
	}
	if res.Improved {
		a.recordSnapshot()
	}
	a.saveProgress()
}

func (a *App) recordSnapshot() {
	if a.run == nil {
		return
	}
	best := a.opt.Best()
	snap := &store.Snapshot{
		RunID:      a.run.ID,
		Step:       a.opt.Stats().Steps,
		Error:      best.Error,
		Values:     best.Values,
		BoneErrors: a.opt.Errors(),
	}
	if err := a.config.Store.Snapshots().Add(snap); err != nil {
		log.Printf("Failed to store snapshot: %v", err)
	}
}

func (a *App) saveProgress() {
	if a.run == nil {
		return
	}
	st := a.opt.Stats()
	a.run.Steps = st.Steps
	a.run.Improvements = st.Improvements
	a.run.Resets = st.Resets
	if best := a.opt.Best().Error; !math.IsInf(best, 1) {
		a.run.BestError = &best
	}
	if err := a.config.Store.Runs().UpdateProgress(a.run); err != nil {
		log.Printf("Failed to update run: %v", err)
	}
}

// Best returns the best pose found so far.
func (a *App) Best() (*pose.Vector, error) {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()
	best, err := a.opt.BestVector()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return best, nil
}

// Status reports the search progress.
func (a *App) Status() Status {
	a.stepMu.Lock()
	best := a.opt.Best()
	st := Status{
		RunID:      a.RunID(),
		State:      a.opt.State().String(),
		Iterations: a.opt.Iterations(),
		BestError:  finite(best.Error),
		LastError:  finite(a.lastError),
		Stats:      a.opt.Stats(),
		Errors:     a.opt.Errors(),
		BestPose:   make(map[string]float64, len(best.Values)),
	}
	names := a.config.Initial.Names()
	a.stepMu.Unlock()

	for i, v := range best.Values {
		st.BestPose[names[i]] = v
	}
	st.Enabled = a.IsEnabled()
	return st
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// SaveBest writes the best pose to the configured output path and its render
// next to it as a PNG. It returns the pose path.
func (a *App) SaveBest() (string, error) {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()

	path := a.config.OutputPose
	if path == "" {
		return "", fmt.Errorf("app: no output path configured")
	}
	best, err := a.opt.BestVector()
	if err != nil {
		return "", fmt.Errorf("app: %w", err)
	}
	if err := best.Save(path); err != nil {
		return "", fmt.Errorf("app: save pose: %w", err)
	}

	frame, err := a.config.Pipeline.Render(best)
	if err != nil {
		return path, fmt.Errorf("app: render best pose: %w", err)
	}
	if err := imageio.Save(path+".png", frame.Rendered); err != nil {
		return path, fmt.Errorf("app: save render: %w", err)
	}
	log.Printf("Saved best pose to %s", path)
	return path, nil
}

// Overlay returns the last evaluated frame as a JPEG diagnostic image with
// the bone hierarchy drawn over it.
func (a *App) Overlay() ([]byte, error) {
	frame := a.config.Pipeline.Last()
	if frame == nil {
		return nil, ErrNoFrame
	}

	var segments []imageio.Segment
	for _, s := range frame.Geometry.BoneSegments() {
		x0, y0 := a.view.Project(frame.Geometry, s[0])
		x1, y1 := a.view.Project(frame.Geometry, s[1])
		segments = append(segments, imageio.Segment{
			From: image.Pt(int(x0), int(y0)),
			To:   image.Pt(int(x1), int(y1)),
		})
	}

	m, err := imageio.Overlay(frame.Rendered, a.config.Pipeline.Reference(), segments)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return imageio.EncodeJPEG(m)
}
