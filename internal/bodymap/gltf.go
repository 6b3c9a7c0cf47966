package bodymap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoGeometry is returned when a model contains no triangle primitives with
// positions.
var ErrNoGeometry = errors.New("bodymap: model has no triangle geometry")

// DecodeGLB parses a binary glTF model, bakes node transforms into world-space
// positions and normalises it to ModelHeight.
func DecodeGLB(key string, data []byte) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	mesh := &Mesh{Key: key}
	identity := mat.NewDiagDense(4, []float64{1, 1, 1, 1})
	for _, root := range sceneRoots(doc) {
		if err := collect(doc, root, identity, mesh, 0); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	if mesh.VertexCount() == 0 {
		return nil, fmt.Errorf("decode %s: %w", key, ErrNoGeometry)
	}
	mesh.Normalize(ModelHeight)
	return mesh, nil
}

func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}
	// No scenes: treat every node that is nobody's child as a root.
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

const maxNodeDepth = 64

func collect(doc *gltf.Document, idx int, parent mat.Matrix, out *Mesh, depth int) error {
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}
	node := doc.Nodes[idx]

	var world mat.Dense
	world.Mul(parent, localMatrix(node))

	if node.Mesh != nil {
		if *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("node %d references missing mesh %d", idx, *node.Mesh)
		}
		parts, err := readMesh(doc, doc.Meshes[*node.Mesh], &world)
		if err != nil {
			return err
		}
		out.Parts = append(out.Parts, parts...)
	}
	for _, c := range node.Children {
		if err := collect(doc, c, &world, out, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func readMesh(doc *gltf.Document, m *gltf.Mesh, world mat.Matrix) ([]Part, error) {
	var parts []Part
	for pi, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok || posIdx >= len(doc.Accessors) {
			continue
		}
		raw, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d positions: %w", m.Name, pi, err)
		}
		part := Part{Name: m.Name, Positions: make([]r3.Vec, len(raw))}
		for i, p := range raw {
			part.Positions[i] = transform(world, r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])})
		}
		if prim.Indices != nil && *prim.Indices < len(doc.Accessors) {
			indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d indices: %w", m.Name, pi, err)
			}
			part.Indices = indices
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// localMatrix returns the node's local transform, row-major. glTF stores an
// explicit matrix column-major; otherwise T * R * S. Decoded nodes carry the
// identity matrix when none was written, so only a non-identity matrix wins.
func localMatrix(n *gltf.Node) *mat.Dense {
	if explicit := n.MatrixOrDefault(); explicit != gltf.DefaultMatrix {
		m := mat.NewDense(4, 4, nil)
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				m.Set(r, c, explicit[c*4+r])
			}
		}
		return m
	}
	t := n.TranslationOrDefault()
	q := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	x, y, z, w := q[0], q[1], q[2], q[3]
	rot := [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
	m := mat.NewDense(4, 4, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, rot[r][c]*s[c])
		}
		m.Set(r, 3, t[r])
	}
	m.Set(3, 3, 1)
	return m
}

func transform(m mat.Matrix, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z + m.At(0, 3),
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z + m.At(1, 3),
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z + m.At(2, 3),
	}
}
