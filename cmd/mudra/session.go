package main

import (
	"fmt"
	"log"

	"github.com/ayusman/mudra/internal/asset"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/fitness"
	"github.com/ayusman/mudra/internal/fixture"
	"github.com/ayusman/mudra/internal/imageio"
	"github.com/ayusman/mudra/internal/optimizer"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/skin"
	"github.com/ayusman/mudra/internal/tracker"
)

// pluginTimeoutMs bounds a single plugin render.
const pluginTimeoutMs = 5000

// session is everything the search needs, built from the config.
type session struct {
	model     string
	pipeline  *tracker.Pipeline
	optimizer optimizer.Config
	initial   *pose.Vector
}

// newSession loads the model and reference and wires the evaluation
// pipeline. Without a model it falls back to the built-in finger rig.
func newSession(cfg *config.Config) (*session, error) {
	s := &session{model: cfg.Model}

	var skinner *skin.Skinner
	if cfg.Model != "" {
		m, err := asset.LoadGLTF(cfg.Model, cfg.Tagger())
		if err != nil {
			return nil, err
		}
		skinner, err = skin.NewSkinner(m.Skeleton, m.Mesh)
		if err != nil {
			return nil, fmt.Errorf("skin model: %w", err)
		}
		log.Printf("Loaded %s: %d joints, %d triangles", cfg.Model, m.Skeleton.Len(), m.Mesh.Triangles())
	} else {
		log.Println("No model configured, using the built-in finger rig")
		skinner = fixture.FingerSkinner()
		cfg.Parameters = builtinParameters(skinner.Skeleton(), cfg.Parameters)
		s.model = "builtin:finger"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}

	reference, err := imageio.LoadReference(cfg.Reference, cfg.Evaluator.Threshold, cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		return nil, err
	}
	mode, _ := cfg.EvaluatorMode()
	evaluator := fitness.NewEvaluator(reference, mode)

	s.pipeline, err = tracker.NewPipeline(skinner, cfg.Parameters, renderer, evaluator)
	if err != nil {
		return nil, err
	}

	s.initial = pose.New(cfg.Parameters)
	if cfg.SeedPose != "" {
		if err := s.initial.Load(cfg.SeedPose); err != nil {
			return nil, fmt.Errorf("seed pose: %w", err)
		}
	}

	s.optimizer, _ = cfg.OptimizerConfig()
	return s, nil
}

// builtinParameters keeps the configured parameters when every one of them
// drives a controllable joint of the built-in rig, and otherwise falls back
// to the rig's own parameters.
func builtinParameters(rig *skeleton.Skeleton, configured []pose.Def) []pose.Def {
	if len(configured) > 0 {
		_, err := skeleton.NewPoser(rig, configured)
		if err == nil {
			return configured
		}
		log.Printf("Configured parameters do not fit the built-in finger rig (%v), using its %d parameters instead",
			err, len(fixture.FingerDefs()))
	}
	return fixture.FingerDefs()
}

// newRenderer returns the built-in rasterizer or the configured plugin.
func newRenderer(cfg *config.Config) (tracker.Renderer, error) {
	if cfg.Render.Plugin == "" {
		return raster.NewRenderer(cfg.Render.Camera), nil
	}

	mgr := plugin.NewManager(cfg.PluginDir)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	p, err := mgr.Get(cfg.Render.Plugin)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", cfg.Render.Plugin, err)
	}
	log.Printf("Rendering with plugin %s %s", p.Manifest.Name, p.Manifest.Version)
	return plugin.NewRenderer(plugin.NewExecutor(pluginTimeoutMs), p, cfg.Render.Camera)
}
