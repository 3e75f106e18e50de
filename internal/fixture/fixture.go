// Package fixture builds small synthetic rigs for tests and demos.
package fixture

import (
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/skin"
	"github.com/go-gl/mathgl/mgl64"
)

// Finger joint names.
const (
	Palm     = "Palm_R"
	Proximal = "Finger-2-1_R"
	Distal   = "Finger-2-2_R"
)

// FingerSkeleton returns a palm with a two segment finger pointing up +y,
// one unit per segment.
func FingerSkeleton() *skeleton.Skeleton {
	joints := []skeleton.Joint{
		{Name: Palm, Parent: -1, BindLocal: mgl64.Ident4(), Offset: mgl64.Ident4()},
		{Name: Proximal, Parent: 0, BindLocal: mgl64.Translate3D(0, 1, 0), Offset: mgl64.Translate3D(0, -1, 0)},
		{Name: Distal, Parent: 1, BindLocal: mgl64.Translate3D(0, 1, 0), Offset: mgl64.Translate3D(0, -2, 0)},
	}
	for i := range joints {
		joints[i].Tags = skeleton.TagRightHand(joints[i].Name)
	}
	s, err := skeleton.New(joints)
	if err != nil {
		panic(err)
	}
	return s
}

// FingerMesh returns a flat ribbon in the z=0 plane along the finger.
// Rows at joint heights blend the two adjacent bones equally.
func FingerMesh() *skin.Mesh {
	const halfWidth = 0.4
	rows := [][]skin.Influence{
		{{Bone: 0, Weight: 1}},
		{{Bone: 0, Weight: 0.5}, {Bone: 1, Weight: 0.5}},
		{{Bone: 1, Weight: 0.5}, {Bone: 2, Weight: 0.5}},
		{{Bone: 2, Weight: 1}},
	}

	m := &skin.Mesh{}
	for y, infl := range rows {
		for _, x := range []float64{-halfWidth, halfWidth} {
			m.Vertices = append(m.Vertices, skin.Vertex{
				Position:   mgl64.Vec3{x, float64(y), 0},
				Normal:     mgl64.Vec3{0, 0, 1},
				Influences: infl,
			})
		}
	}
	for y := 0; y+1 < len(rows); y++ {
		a := uint32(2 * y)
		m.Indices = append(m.Indices, a, a+1, a+3, a, a+3, a+2)
	}
	return m
}

// FingerDefs returns the finger's pose parameters.
func FingerDefs() []pose.Def {
	return []pose.Def{
		{Name: Proximal + ".y", Min: -15, Max: 10},
		{Name: Proximal + ".z", Min: -60, Max: 30},
		{Name: Distal + ".z", Min: -90, Max: 5},
	}
}

// FingerSkinner returns a skinner over the finger rig.
func FingerSkinner() *skin.Skinner {
	sk, err := skin.NewSkinner(FingerSkeleton(), FingerMesh())
	if err != nil {
		panic(err)
	}
	return sk
}

// Camera frames the finger in a 32x32 image.
func Camera() raster.Camera {
	return raster.Camera{Width: 32, Height: 32, Scale: 7}
}

// RenderPose renders the finger posed by values, in FingerDefs order.
func RenderPose(values []float64) *raster.Buffer {
	v := pose.New(FingerDefs())
	if err := v.SetValues(values); err != nil {
		panic(err)
	}
	sk := FingerSkinner()
	p, err := skeleton.BuildWorldTransforms(sk.Skeleton(), v)
	if err != nil {
		panic(err)
	}
	buf, err := raster.NewRenderer(Camera()).Render(sk.Deform(p))
	if err != nil {
		panic(err)
	}
	return buf
}

// TwoJointSkeleton returns a root and one child. Only the child is
// controllable and neither belongs to the hand region.
func TwoJointSkeleton() *skeleton.Skeleton {
	s, err := skeleton.New([]skeleton.Joint{
		{Name: "Root", Parent: -1, BindLocal: mgl64.Ident4(), Offset: mgl64.Ident4()},
		{Name: "Child", Parent: 0, BindLocal: mgl64.Translate3D(0, 1, 0), Offset: mgl64.Translate3D(0, -1, 0),
			Tags: skeleton.TagControllable},
	})
	if err != nil {
		panic(err)
	}
	return s
}

// Blank renders nothing: every pixel is background.
type Blank struct {
	Width, Height int
}

// Render returns an all-background buffer.
func (b Blank) Render(*skin.Deformed) (*raster.Buffer, error) {
	return raster.NewBuffer(b.Width, b.Height), nil
}
