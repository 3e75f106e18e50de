package skin

import (
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/go-gl/mathgl/mgl64"
)

// Deformed is the skinned, labeled geometry for one pose.
type Deformed struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	// Labels holds the dominant bone per vertex, -1 for vertices without influences.
	Labels []int
	// BoneCenters is the mean deformed position of each bone's vertices.
	BoneCenters []mgl64.Vec3
	// BoneUsed reports which bones influence at least one vertex.
	BoneUsed []bool
	Mask     []bool
	// MaskCenter is the centroid of the masked vertices.
	MaskCenter mgl64.Vec3
	// Indices is the masked submesh to render.
	Indices []uint32
	// Parents mirrors the skeleton hierarchy for bone segment drawing.
	Parents []int
}

// Deform applies p to the rest mesh.
//
// Algorithm:
//  1. Blend skinning matrices per vertex in influence order.
//  2. Average deformed positions per bone to get bone centers.
//  3. Label each vertex with the nearest influencing bone center, the
//     lower bone index winning ties.
//  4. Average masked vertices to get the framing center.
func (s *Skinner) Deform(p *skeleton.Pose) *Deformed {
	n := len(s.mesh.Vertices)
	d := &Deformed{
		Positions:   make([]mgl64.Vec3, n),
		Normals:     make([]mgl64.Vec3, n),
		Labels:      make([]int, n),
		BoneCenters: make([]mgl64.Vec3, s.skel.Len()),
		BoneUsed:    make([]bool, s.skel.Len()),
		Mask:        s.mask,
		Indices:     s.masked,
		Parents:     make([]int, s.skel.Len()),
	}
	for i := range d.Parents {
		d.Parents[i] = s.skel.Joint(i).Parent
	}

	rot := make([]mgl64.Mat3, len(p.Skinning))
	for i, m := range p.Skinning {
		rot[i] = m.Mat3()
	}

	for vi, v := range s.mesh.Vertices {
		var pos, nrm mgl64.Vec3
		rest := v.Position.Vec4(1)
		for _, inf := range v.Influences {
			pos = pos.Add(p.Skinning[inf.Bone].Mul4x1(rest).Vec3().Mul(inf.Weight))
			nrm = nrm.Add(rot[inf.Bone].Mul3x1(v.Normal).Mul(inf.Weight))
		}
		d.Positions[vi] = pos
		d.Normals[vi] = nrm
	}

	for b, verts := range s.boneVerts {
		if len(verts) == 0 {
			continue
		}
		var sum mgl64.Vec3
		for _, vi := range verts {
			sum = sum.Add(d.Positions[vi])
		}
		d.BoneCenters[b] = sum.Mul(1 / float64(len(verts)))
		d.BoneUsed[b] = true
	}

	for vi, v := range s.mesh.Vertices {
		d.Labels[vi] = -1
		best := 0.0
		for j, inf := range v.Influences {
			diff := d.Positions[vi].Sub(d.BoneCenters[inf.Bone])
			dist := diff.Dot(diff)
			// Equal distances go to the lower bone index.
			if j == 0 || dist < best || (dist == best && inf.Bone < d.Labels[vi]) {
				best = dist
				d.Labels[vi] = inf.Bone
			}
		}
	}

	var (
		sum   mgl64.Vec3
		count int
	)
	for vi, m := range s.mask {
		if m {
			sum = sum.Add(d.Positions[vi])
			count++
		}
	}
	if count > 0 {
		d.MaskCenter = sum.Mul(1 / float64(count))
	}
	return d
}

// Intensity returns the label of vertex i encoded as 255-bone, or 0 when
// the vertex has no label.
func (d *Deformed) Intensity(i int) uint8 {
	return Intensity(d.Labels[i])
}

// Intensity encodes a bone label for a single channel image.
func Intensity(bone int) uint8 {
	if bone < 0 || bone >= MaxLabel {
		return 0
	}
	return uint8(MaxLabel - bone)
}

// BoneOf decodes a label intensity. ok is false for background.
func BoneOf(v uint8) (bone int, ok bool) {
	if v == 0 {
		return 0, false
	}
	return MaxLabel - int(v), true
}

// BoneSegments returns line segments from each used bone center to its
// nearest used ancestor's center.
func (d *Deformed) BoneSegments() [][2]mgl64.Vec3 {
	var segs [][2]mgl64.Vec3
	for b, used := range d.BoneUsed {
		if !used {
			continue
		}
		for p := d.Parents[b]; p >= 0; p = d.Parents[p] {
			if d.BoneUsed[p] {
				segs = append(segs, [2]mgl64.Vec3{d.BoneCenters[p], d.BoneCenters[b]})
				break
			}
		}
	}
	return segs
}
