// Package tracker wires pose building, skinning, rendering and scoring into
// a single objective for the optimizer.
package tracker

import (
	"fmt"
	"sync"

	"github.com/ayusman/mudra/internal/fitness"
	"github.com/ayusman/mudra/internal/optimizer"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/skin"
)

// Renderer turns labeled geometry into a single channel label image.
type Renderer interface {
	Render(g *skin.Deformed) (*raster.Buffer, error)
}

// Frame is the output of one evaluation.
type Frame struct {
	Geometry *skin.Deformed
	Rendered *raster.Buffer
	Result   *fitness.Result
}

// Pipeline evaluates poses by rendering them and comparing the render with
// the reference.
type Pipeline struct {
	poser     *skeleton.Poser
	skinner   *skin.Skinner
	renderer  Renderer
	evaluator *fitness.Evaluator
	names     []string

	mu   sync.RWMutex
	last *Frame
}

// NewPipeline creates a pipeline for the parameters in defs.
func NewPipeline(skinner *skin.Skinner, defs []pose.Def, renderer Renderer, evaluator *fitness.Evaluator) (*Pipeline, error) {
	poser, err := skeleton.NewPoser(skinner.Skeleton(), defs)
	if err != nil {
		return nil, fmt.Errorf("failed to bind parameters: %w", err)
	}
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return &Pipeline{
		poser:     poser,
		skinner:   skinner,
		renderer:  renderer,
		evaluator: evaluator,
		names:     names,
	}, nil
}

// Render builds, skins and renders v without scoring it.
func (p *Pipeline) Render(v *pose.Vector) (*Frame, error) {
	g := p.skinner.Deform(p.poser.Build(v))
	buf, err := p.renderer.Render(g)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return &Frame{Geometry: g, Rendered: buf}, nil
}

// Evaluate renders v and scores it against the reference.
func (p *Pipeline) Evaluate(v *pose.Vector) (*optimizer.Evaluation, error) {
	frame, err := p.Render(v)
	if err != nil {
		return nil, err
	}
	res, err := p.evaluator.Evaluate(frame.Rendered)
	if err != nil {
		return nil, err
	}
	frame.Result = res

	p.mu.Lock()
	p.last = frame
	p.mu.Unlock()

	return &optimizer.Evaluation{
		Global: res.Global,
		Errors: res.Table(p.names, p.poser),
	}, nil
}

// Last returns the most recent evaluated frame, or nil.
func (p *Pipeline) Last() *Frame {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Reference returns the reference buffer.
func (p *Pipeline) Reference() *raster.Buffer {
	return p.evaluator.Reference()
}

// BoneNames maps bone indices to joint names for reporting.
func (p *Pipeline) BoneNames() []string {
	s := p.skinner.Skeleton()
	names := make([]string, s.Len())
	for i := range names {
		names[i] = s.Joint(i).Name
	}
	return names
}
