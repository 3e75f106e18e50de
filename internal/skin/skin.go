// Package skin deforms a rest mesh with linear blend skinning and labels every
// vertex with its dominant bone.
package skin

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxLabel is the number of bones a label image can encode. Labels are stored
// as 255-bone so that 0 stays free for background.
const MaxLabel = 255

var (
	// ErrLabelRange is returned when a bone index cannot be encoded as a label.
	ErrLabelRange = errors.New("bone index exceeds label range")
	// ErrBadIndex is returned for influences or triangles that point outside the mesh.
	ErrBadIndex = errors.New("index out of range")
)

// Influence is one bone weight of a vertex.
type Influence struct {
	Bone   int
	Weight float64
}

// Vertex is a rest-pose vertex. Weights should sum to at most 1; any
// residual contributes no deformation.
type Vertex struct {
	Position   mgl64.Vec3
	Normal     mgl64.Vec3
	Influences []Influence
}

// Mesh is an indexed triangle mesh in bind pose.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Triangles returns the triangle count.
func (m *Mesh) Triangles() int { return len(m.Indices) / 3 }

// Skinner deforms a mesh for a fixed skeleton. Per-bone vertex lists and
// the region mask are computed once.
type Skinner struct {
	skel      *skeleton.Skeleton
	mesh      *Mesh
	boneVerts [][]int
	mask      []bool
	masked    []uint32
}

// NewSkinner validates m against s and precomputes per-bone data.
// The region mask covers vertices influenced by any joint tagged TagHand.
func NewSkinner(s *skeleton.Skeleton, m *Mesh) (*Skinner, error) {
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a triangle list", ErrBadIndex, len(m.Indices))
	}

	sk := &Skinner{
		skel:      s,
		mesh:      m,
		boneVerts: make([][]int, s.Len()),
		mask:      make([]bool, len(m.Vertices)),
	}
	for vi, v := range m.Vertices {
		for _, inf := range v.Influences {
			if inf.Bone < 0 || inf.Bone >= s.Len() {
				return nil, fmt.Errorf("%w: vertex %d references bone %d", ErrBadIndex, vi, inf.Bone)
			}
			if inf.Bone >= MaxLabel {
				return nil, fmt.Errorf("%w: vertex %d references bone %d", ErrLabelRange, vi, inf.Bone)
			}
			sk.boneVerts[inf.Bone] = append(sk.boneVerts[inf.Bone], vi)
			if s.Joint(inf.Bone).Has(skeleton.TagHand) {
				sk.mask[vi] = true
			}
		}
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		tri := m.Indices[t : t+3]
		for _, idx := range tri {
			if int(idx) >= len(m.Vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d", ErrBadIndex, t/3, idx)
			}
		}
		if sk.mask[tri[0]] || sk.mask[tri[1]] || sk.mask[tri[2]] {
			sk.masked = append(sk.masked, tri...)
		}
	}
	return sk, nil
}

// Skeleton returns the skeleton the skinner was built for.
func (s *Skinner) Skeleton() *skeleton.Skeleton { return s.skel }

// Mesh returns the rest mesh.
func (s *Skinner) Mesh() *Mesh { return s.mesh }

// Mask returns the static region mask, one entry per vertex.
func (s *Skinner) Mask() []bool { return append([]bool(nil), s.mask...) }

// MaskedIndices returns the triangles with at least one masked vertex.
func (s *Skinner) MaskedIndices() []uint32 { return append([]uint32(nil), s.masked...) }
