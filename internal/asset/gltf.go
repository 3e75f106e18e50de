// Package asset loads skinned hand models from glTF files.
package asset

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/skin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	// ErrNoSkin is returned when a document holds no skin.
	ErrNoSkin = errors.New("document has no skin")
	// ErrNoMesh is returned when no mesh is bound to the skin.
	ErrNoMesh = errors.New("no mesh bound to skin")
)

// Model is a skeleton with its bind-pose mesh.
type Model struct {
	Skeleton *skeleton.Skeleton
	Mesh     *skin.Mesh
}

// LoadGLTF opens a .gltf or .glb file and converts its first skin.
// tagger assigns region tags to joints by name; nil uses skeleton.TagRightHand.
func LoadGLTF(path string, tagger func(string) skeleton.Tag) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	m, err := FromDocument(doc, tagger)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// FromDocument converts the first skin of doc and the mesh bound to it.
// Joint order follows the skin's joint list, so JOINTS_0 values index
// skeleton joints directly.
func FromDocument(doc *gltf.Document, tagger func(string) skeleton.Tag) (*Model, error) {
	if len(doc.Skins) == 0 {
		return nil, ErrNoSkin
	}
	if tagger == nil {
		tagger = skeleton.TagRightHand
	}

	joints, err := readJoints(doc, 0, tagger)
	if err != nil {
		return nil, err
	}
	skel, err := skeleton.New(joints)
	if err != nil {
		return nil, err
	}

	mesh, err := readMesh(doc, 0)
	if err != nil {
		return nil, err
	}
	return &Model{Skeleton: skel, Mesh: mesh}, nil
}

// readJoints builds joints for skin si. A joint's parent is its nearest
// ancestor that is also a joint; transforms of non-joint nodes in between
// are folded into the bind-local transform.
func readJoints(doc *gltf.Document, si int, tagger func(string) skeleton.Tag) ([]skeleton.Joint, error) {
	sk := doc.Skins[si]

	parent := make(map[uint32]uint32, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			parent[c] = uint32(i)
		}
	}
	jointOf := make(map[uint32]int, len(sk.Joints))
	for j, n := range sk.Joints {
		if int(n) >= len(doc.Nodes) {
			return nil, fmt.Errorf("skin joint %d references node %d", j, n)
		}
		jointOf[n] = j
	}

	offsets, err := readInverseBind(doc, sk)
	if err != nil {
		return nil, err
	}

	joints := make([]skeleton.Joint, len(sk.Joints))
	for j, n := range sk.Joints {
		node := doc.Nodes[n]
		local := nodeTransform(node)
		p := -1
		for cur, ok := parent[n]; ok; cur, ok = parent[cur] {
			if pj, isJoint := jointOf[cur]; isJoint {
				p = pj
				break
			}
			local = nodeTransform(doc.Nodes[cur]).Mul4(local)
		}

		name := node.Name
		if name == "" {
			name = fmt.Sprintf("joint%d", j)
		}
		joints[j] = skeleton.Joint{
			Name:      name,
			Parent:    p,
			BindLocal: local,
			Offset:    offsets[j],
			Tags:      tagger(name),
		}
	}
	return joints, nil
}

func readInverseBind(doc *gltf.Document, sk *gltf.Skin) ([]mgl64.Mat4, error) {
	out := make([]mgl64.Mat4, len(sk.Joints))
	for i := range out {
		out[i] = mgl64.Ident4()
	}
	if sk.InverseBindMatrices == nil {
		return out, nil
	}

	data, err := modeler.ReadAccessor(doc, doc.Accessors[*sk.InverseBindMatrices], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("inverse bind matrices have type %T", data)
	}
	for i := 0; i < len(out) && i < len(mats); i++ {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[i][c*4+r] = float64(mats[i][c][r])
			}
		}
	}
	return out, nil
}

// nodeTransform returns a node's local matrix. glTF stores either a
// column-major matrix or translation, rotation and scale.
func nodeTransform(n *gltf.Node) mgl64.Mat4 {
	var zero [16]float32
	if n.Matrix != zero && n.Matrix != gltf.DefaultMatrix {
		var m mgl64.Mat4
		for i, v := range n.Matrix {
			m[i] = float64(v)
		}
		return m
	}

	t := mgl64.Translate3D(float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2]))
	r := mgl64.Ident4()
	if q := n.Rotation; q != [4]float32{} {
		r = mgl64.Quat{
			W: float64(q[3]),
			V: mgl64.Vec3{float64(q[0]), float64(q[1]), float64(q[2])},
		}.Normalize().Mat4()
	}
	s := mgl64.Ident4()
	if sc := n.Scale; sc != [3]float32{} {
		s = mgl64.Scale3D(float64(sc[0]), float64(sc[1]), float64(sc[2]))
	}
	return t.Mul4(r).Mul4(s)
}
