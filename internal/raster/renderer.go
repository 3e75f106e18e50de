package raster

import (
	"errors"
	"math"

	"github.com/ayusman/mudra/internal/skin"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoGeometry is returned when there is nothing to draw.
var ErrNoGeometry = errors.New("no geometry to render")

// Camera configures the orthographic view used for label rendering.
type Camera struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	// Scale is pixels per model unit.
	Scale float64 `yaml:"scale" json:"scale"`
	// Rotation orients the model before projection, in degrees about x, y, z.
	Rotation [3]float64 `yaml:"rotation" json:"rotation"`
}

// DefaultCamera returns a 128x128 view.
func DefaultCamera() Camera {
	return Camera{
		Width:  128,
		Height: 128,
		Scale:  8,
	}
}

// Renderer draws the masked submesh of deformed geometry as a label image,
// centered on the region centroid. A Renderer is not safe for concurrent use.
type Renderer struct {
	cam  Camera
	view mgl64.Mat3
	zbuf []float64
	px   []float64
	py   []float64
	pz   []float64
}

// NewRenderer creates a renderer for cam.
func NewRenderer(cam Camera) *Renderer {
	rx := mgl64.Rotate3DX(mgl64.DegToRad(cam.Rotation[0]))
	ry := mgl64.Rotate3DY(mgl64.DegToRad(cam.Rotation[1]))
	rz := mgl64.Rotate3DZ(mgl64.DegToRad(cam.Rotation[2]))
	return &Renderer{
		cam:  cam,
		view: rz.Mul3(ry).Mul3(rx),
		zbuf: make([]float64, cam.Width*cam.Height),
	}
}

// Camera returns the renderer's camera.
func (r *Renderer) Camera() Camera { return r.cam }

// Render rasterizes g. Each pixel takes the label of the triangle corner with
// the largest barycentric weight, so labels never blend.
func (r *Renderer) Render(g *skin.Deformed) (*Buffer, error) {
	if g == nil || len(g.Positions) == 0 {
		return nil, ErrNoGeometry
	}
	out := NewBuffer(r.cam.Width, r.cam.Height)
	for i := range r.zbuf {
		r.zbuf[i] = math.Inf(-1)
	}
	r.project(g)

	for t := 0; t+2 < len(g.Indices); t += 3 {
		vi := [3]int{int(g.Indices[t]), int(g.Indices[t+1]), int(g.Indices[t+2])}
		labels := [3]uint8{g.Intensity(vi[0]), g.Intensity(vi[1]), g.Intensity(vi[2])}
		r.triangle(out, vi, labels)
	}
	return out, nil
}

// project maps positions to pixel space: x right, y down, larger z nearer.
func (r *Renderer) project(g *skin.Deformed) {
	n := len(g.Positions)
	if cap(r.px) < n {
		r.px = make([]float64, n)
		r.py = make([]float64, n)
		r.pz = make([]float64, n)
	}
	r.px, r.py, r.pz = r.px[:n], r.py[:n], r.pz[:n]

	cx := float64(r.cam.Width) / 2
	cy := float64(r.cam.Height) / 2
	for i, p := range g.Positions {
		v := r.view.Mul3x1(p.Sub(g.MaskCenter))
		r.px[i] = cx + v[0]*r.cam.Scale
		r.py[i] = cy - v[1]*r.cam.Scale
		r.pz[i] = v[2]
	}
}

// Project maps a model space point to pixel coordinates using the same view
// as Render, framed on g's region centroid.
func (r *Renderer) Project(g *skin.Deformed, p mgl64.Vec3) (x, y float64) {
	v := r.view.Mul3x1(p.Sub(g.MaskCenter))
	return float64(r.cam.Width)/2 + v[0]*r.cam.Scale, float64(r.cam.Height)/2 - v[1]*r.cam.Scale
}
