package plugin

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skin"
)

// ErrRenderFailed is returned when a plugin reports a failed render.
var ErrRenderFailed = errors.New("plugin render failed")

// Renderer renders through an external plugin process.
type Renderer struct {
	exec   *Executor
	plugin *Plugin
	cam    raster.Camera
}

// NewRenderer creates a renderer that asks p to draw with cam.
func NewRenderer(exec *Executor, p *Plugin, cam raster.Camera) (*Renderer, error) {
	if !p.Manifest.Supports(CapabilityRender) {
		return nil, fmt.Errorf("plugin %s cannot render", p.Manifest.Name)
	}
	return &Renderer{exec: exec, plugin: p, cam: cam}, nil
}

// Render sends g to the plugin and returns the label image it produces.
func (r *Renderer) Render(g *skin.Deformed) (*raster.Buffer, error) {
	resp, err := r.exec.Execute(r.plugin, &Request{
		Action:   CapabilityRender,
		Camera:   r.cam,
		Geometry: NewGeometry(g),
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrRenderFailed, resp.Error)
	}
	if resp.Width != r.cam.Width || resp.Height != r.cam.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrRenderFailed, resp.Width, resp.Height, r.cam.Width, r.cam.Height)
	}
	return raster.FromPix(resp.Width, resp.Height, resp.Pix)
}
