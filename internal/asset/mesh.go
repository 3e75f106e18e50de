package asset

import (
	"fmt"

	"github.com/ayusman/mudra/internal/skin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// readMesh merges every triangle primitive of the first mesh node bound to
// skin si.
func readMesh(doc *gltf.Document, si int) (*skin.Mesh, error) {
	var mesh *gltf.Mesh
	for _, n := range doc.Nodes {
		if n.Mesh != nil && n.Skin != nil && int(*n.Skin) == si {
			mesh = doc.Meshes[*n.Mesh]
			break
		}
	}
	if mesh == nil {
		return nil, ErrNoMesh
	}

	out := &skin.Mesh{}
	for pi, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		if err := appendPrimitive(doc, prim, out); err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, pi, err)
		}
	}
	if len(out.Vertices) == 0 {
		return nil, ErrNoMesh
	}
	return out, nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, out *skin.Mesh) error {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("missing POSITION")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("failed to read normals: %w", err)
		}
	}

	var (
		joints  [][4]uint16
		weights [][4]float32
	)
	if idx, ok := prim.Attributes["JOINTS_0"]; ok {
		if joints, err = modeler.ReadJoints(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("failed to read joints: %w", err)
		}
	}
	if idx, ok := prim.Attributes["WEIGHTS_0"]; ok {
		if weights, err = modeler.ReadWeights(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("failed to read weights: %w", err)
		}
	}

	base := uint32(len(out.Vertices))
	for i, p := range positions {
		v := skin.Vertex{Position: mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}}
		if i < len(normals) {
			n := normals[i]
			v.Normal = mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
		}
		if i < len(joints) && i < len(weights) {
			for k := 0; k < 4; k++ {
				if weights[i][k] > 0 {
					v.Influences = append(v.Influences, skin.Influence{
						Bone:   int(joints[i][k]),
						Weight: float64(weights[i][k]),
					})
				}
			}
		}
		out.Vertices = append(out.Vertices, v)
	}

	if prim.Indices == nil {
		for i := range positions {
			out.Indices = append(out.Indices, base+uint32(i))
		}
		return nil
	}
	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	if err != nil {
		return fmt.Errorf("failed to read indices: %w", err)
	}
	for _, idx := range indices {
		out.Indices = append(out.Indices, base+idx)
	}
	return nil
}
