package skeleton

import (
	"fmt"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/go-gl/mathgl/mgl64"
)

// Pose holds per-joint transforms for one parameter vector.
type Pose struct {
	Local    []mgl64.Mat4
	World    []mgl64.Mat4
	Skinning []mgl64.Mat4
}

type binding struct {
	param int
	joint int
	axis  int // 0=x 1=y 2=z
}

// Poser maps a parameter vector onto a skeleton. Parameter names are
// resolved to joints once, so a bad name fails at construction.
type Poser struct {
	skel     *Skeleton
	bindings []binding
	names    []string
}

// NewPoser resolves every parameter in defs against s. Each parameter must
// name a joint tagged TagControllable.
func NewPoser(s *Skeleton, defs []pose.Def) (*Poser, error) {
	p := &Poser{skel: s, names: make([]string, len(defs))}
	for i, d := range defs {
		joint, axis := pose.SplitName(d.Name)
		j, ok := s.Index(joint)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q", ErrUnknownJoint, d.Name)
		}
		if !s.Joint(j).Has(TagControllable) {
			return nil, fmt.Errorf("%w: parameter %q", ErrNotControllable, d.Name)
		}
		a, ok := axisIndex(axis)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q", ErrBadAxis, d.Name)
		}
		p.bindings = append(p.bindings, binding{param: i, joint: j, axis: a})
		p.names[i] = d.Name
	}
	return p, nil
}

func axisIndex(axis string) (int, bool) {
	switch axis {
	case "x":
		return 0, true
	case "y":
		return 1, true
	case "z":
		return 2, true
	}
	return 0, false
}

// Skeleton returns the skeleton the poser drives.
func (p *Poser) Skeleton() *Skeleton { return p.skel }

// JointOf returns the joint index a parameter name resolves to.
func (p *Poser) JointOf(name string) (int, bool) {
	for _, b := range p.bindings {
		if p.names[b.param] == name {
			return b.joint, true
		}
	}
	return 0, false
}

// Build computes local, world and skinning transforms for v.
// It does not modify the poser, so the same vector always yields the same pose.
//
// Algorithm:
//  1. Collect x/y/z degrees per joint from v.
//  2. local = bindLocal * Rz * Ry * Rx (x is applied first).
//  3. Walk joints parent-first: world = parentWorld * local.
//  4. skinning = world * offset.
func (p *Poser) Build(v *pose.Vector) *Pose {
	n := p.skel.Len()
	angles := make([][3]float64, n)
	driven := make([]bool, n)
	for _, b := range p.bindings {
		angles[b.joint][b.axis] = v.Get(b.param)
		driven[b.joint] = true
	}

	out := &Pose{
		Local:    make([]mgl64.Mat4, n),
		World:    make([]mgl64.Mat4, n),
		Skinning: make([]mgl64.Mat4, n),
	}
	for i, j := range p.skel.joints {
		out.Local[i] = j.BindLocal
		if driven[i] {
			out.Local[i] = j.BindLocal.Mul4(Rotation(angles[i]))
		}
	}
	for _, i := range p.skel.order {
		j := p.skel.joints[i]
		if j.Parent < 0 {
			out.World[i] = out.Local[i]
		} else {
			out.World[i] = out.World[j.Parent].Mul4(out.Local[i])
		}
		out.Skinning[i] = out.World[i].Mul4(j.Offset)
	}
	return out
}

// Rotation returns Rz * Ry * Rx for angles given in degrees.
func Rotation(deg [3]float64) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(deg[0]))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(deg[1]))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(deg[2]))
	return rz.Mul4(ry).Mul4(rx)
}

// BuildWorldTransforms resolves v against s and returns the resulting pose.
func BuildWorldTransforms(s *Skeleton, v *pose.Vector) (*Pose, error) {
	p, err := NewPoser(s, v.Defs())
	if err != nil {
		return nil, err
	}
	return p.Build(v), nil
}
