// Package plugin discovers external renderer processes and talks to them
// over stdin and stdout.
package plugin

import (
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skin"
	"github.com/go-gl/mathgl/mgl64"
)

// CapabilityRender marks a plugin that can render label images.
const CapabilityRender = "render"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Executable   string   `json:"executable"`
	Capabilities []string `json:"capabilities"`
}

// Supports reports whether the manifest lists capability.
func (m Manifest) Supports(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Geometry is labeled triangle geometry in model space.
type Geometry struct {
	Positions [][3]float64 `json:"positions"`
	// Labels holds one label intensity per vertex; 0 is unlabeled.
	Labels  []uint8    `json:"labels"`
	Indices []uint32   `json:"indices"`
	Center  [3]float64 `json:"center"`
}

// NewGeometry converts the masked submesh of g for transport.
func NewGeometry(g *skin.Deformed) *Geometry {
	out := &Geometry{
		Positions: make([][3]float64, len(g.Positions)),
		Labels:    make([]uint8, len(g.Positions)),
		Indices:   g.Indices,
		Center:    g.MaskCenter,
	}
	for i, p := range g.Positions {
		out.Positions[i] = p
		out.Labels[i] = g.Intensity(i)
	}
	return out
}

// Deformed rebuilds deformed geometry from the transported form.
func (g *Geometry) Deformed() *skin.Deformed {
	d := &skin.Deformed{
		Positions:  make([]mgl64.Vec3, len(g.Positions)),
		Labels:     make([]int, len(g.Positions)),
		Indices:    g.Indices,
		MaskCenter: g.Center,
	}
	for i, p := range g.Positions {
		d.Positions[i] = p
		d.Labels[i] = -1
		if i < len(g.Labels) {
			if bone, ok := skin.BoneOf(g.Labels[i]); ok {
				d.Labels[i] = bone
			}
		}
	}
	return d
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action   string        `json:"action"`
	Camera   raster.Camera `json:"camera"`
	Geometry *Geometry     `json:"geometry,omitempty"`
}

// Response is read from a plugin's stdout. Pix is row-major and base64
// encoded in JSON.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Pix     []byte `json:"pix,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
