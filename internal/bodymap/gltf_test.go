package bodymap

import (
	"bytes"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

// zUpColumn is a thin triangle standing 1.8 tall along +Z, the way Z-up
// exporters lay a body out before their root rotation.
var zUpColumn = [][3]float32{{0, 0, 0}, {0.2, 0, 0}, {0, 0, 1.8}}

// yUpColumn is the same triangle already standing along +Y.
var yUpColumn = [][3]float32{{0, 0, 0}, {0.2, 0, 0}, {0, 1.8, 0}}

// xRotation turns +Z into +Y (a -90 degree turn about X).
var xRotation = [4]float64{-math.Sqrt2 / 2, 0, 0, math.Sqrt2 / 2}

type glbBuilder struct {
	doc *gltf.Document
}

func newGLB() *glbBuilder {
	return &glbBuilder{doc: gltf.NewDocument()}
}

// mesh adds a mesh with one triangle primitive and returns its index.
func (b *glbBuilder) mesh(positions [][3]float32, indices []uint32) int {
	prim := &gltf.Primitive{
		Mode:       gltf.PrimitiveTriangles,
		Attributes: gltf.PrimitiveAttributes{gltf.POSITION: modeler.WritePosition(b.doc, positions)},
	}
	if indices != nil {
		prim.Indices = gltf.Index(modeler.WriteIndices(b.doc, indices))
	}
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: "body", Primitives: []*gltf.Primitive{prim}})
	return len(b.doc.Meshes) - 1
}

// node appends n and returns its index.
func (b *glbBuilder) node(n *gltf.Node) int {
	b.doc.Nodes = append(b.doc.Nodes, n)
	return len(b.doc.Nodes) - 1
}

func (b *glbBuilder) root(idx ...int) {
	b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, idx...)
}

func (b *glbBuilder) encode(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gltf.NewEncoder(&buf).Encode(b.doc))
	return buf.Bytes()
}

func decodeBounds(t *testing.T, data []byte) (*Mesh, float64, float64, float64) {
	t.Helper()
	m, err := DecodeGLB("test", data)
	require.NoError(t, err)
	box, ok := m.Bounds()
	require.True(t, ok)
	return m, box.Max.X - box.Min.X, box.Max.Y - box.Min.Y, box.Max.Z - box.Min.Z
}

func TestDecodeGLBAppliesNodeRotationAndTranslation(t *testing.T) {
	b := newGLB()
	b.root(b.node(&gltf.Node{Mesh: gltf.Index(b.mesh(zUpColumn, nil)), Rotation: xRotation, Translation: [3]float64{0, 0, 3}}))

	m, dx, dy, dz := decodeBounds(t, b.encode(t))
	require.Len(t, m.Parts, 1)
	require.Nil(t, m.Parts[0].Indices)
	require.Equal(t, 1, m.Parts[0].TriangleCount())
	require.InDelta(t, ModelHeight, dy, tol)
	require.InDelta(t, 0.2, dx, tol)
	require.InDelta(t, 0, dz, tol, "rotated body must stand along Y")
}

func TestDecodeGLBTranslatesSiblingNodes(t *testing.T) {
	b := newGLB()
	mesh := b.mesh(yUpColumn, nil)
	b.root(
		b.node(&gltf.Node{Mesh: gltf.Index(mesh)}),
		b.node(&gltf.Node{Mesh: gltf.Index(mesh), Translation: [3]float64{1, 0, 0}}),
	)

	m, dx, dy, _ := decodeBounds(t, b.encode(t))
	require.Len(t, m.Parts, 2)
	require.Equal(t, 6, m.VertexCount())
	require.InDelta(t, ModelHeight, dy, tol)
	require.InDelta(t, 1.2, dx, tol)
}

func TestDecodeGLBUsesExplicitMatrix(t *testing.T) {
	b := newGLB()
	// Column-major form of the same Z-to-Y turn.
	matrix := [16]float64{
		1, 0, 0, 0,
		0, 0, -1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	}
	b.root(b.node(&gltf.Node{Mesh: gltf.Index(b.mesh(zUpColumn, nil)), Matrix: matrix}))

	_, dx, dy, dz := decodeBounds(t, b.encode(t))
	require.InDelta(t, ModelHeight, dy, tol)
	require.InDelta(t, 0.2, dx, tol)
	require.InDelta(t, 0, dz, tol)
}

func TestDecodeGLBChildInheritsParentTransform(t *testing.T) {
	b := newGLB()
	child := b.node(&gltf.Node{Mesh: gltf.Index(b.mesh(zUpColumn, nil))})
	b.root(b.node(&gltf.Node{Name: "Armature", Rotation: xRotation, Children: []int{child}}))

	_, _, dy, dz := decodeBounds(t, b.encode(t))
	require.InDelta(t, ModelHeight, dy, tol)
	require.InDelta(t, 0, dz, tol)
}

func TestDecodeGLBReadsIndicesAndSkipsNonTriangles(t *testing.T) {
	b := newGLB()
	quad := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 2, 0}, {1, 2, 0}}
	mesh := b.mesh(quad, []uint32{0, 1, 2, 2, 1, 3})
	lines := &gltf.Primitive{
		Mode:       gltf.PrimitiveLines,
		Attributes: gltf.PrimitiveAttributes{gltf.POSITION: modeler.WritePosition(b.doc, [][3]float32{{0, 0, 0}, {0, 9, 0}})},
	}
	b.doc.Meshes[mesh].Primitives = append(b.doc.Meshes[mesh].Primitives, lines)
	b.root(b.node(&gltf.Node{Mesh: gltf.Index(mesh)}))

	m, _, dy, _ := decodeBounds(t, b.encode(t))
	require.Len(t, m.Parts, 1)
	require.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, m.Parts[0].Indices)
	require.Equal(t, 2, m.Parts[0].TriangleCount())
	require.InDelta(t, ModelHeight, dy, tol, "the 9-unit line must not set the height")
}

func TestDecodeGLBWithoutTrianglesFails(t *testing.T) {
	b := newGLB()
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{{
		Mode:       gltf.PrimitiveLines,
		Attributes: gltf.PrimitiveAttributes{gltf.POSITION: modeler.WritePosition(b.doc, [][3]float32{{0, 0, 0}, {0, 1, 0}})},
	}}})
	b.root(b.node(&gltf.Node{Mesh: gltf.Index(0)}))

	_, err := DecodeGLB("lines", b.encode(t))
	require.ErrorIs(t, err, ErrNoGeometry)

	_, err = DecodeGLB("garbage", []byte("not a model"))
	require.Error(t, err)
}

func TestDecodeGLBNormalizesToModelHeight(t *testing.T) {
	b := newGLB()
	tall := [][3]float32{{4, 5, -2}, {4.4, 5, -2}, {4, 8.6, -2}}
	b.root(b.node(&gltf.Node{Mesh: gltf.Index(b.mesh(tall, nil))}))

	m, err := DecodeGLB("tall", b.encode(t))
	require.NoError(t, err)
	box, ok := m.Bounds()
	require.True(t, ok)
	require.InDelta(t, 0, box.Min.Y, tol, "feet at y=0")
	require.InDelta(t, ModelHeight, box.Max.Y, tol)
	require.InDelta(t, 0, (box.Min.X+box.Max.X)/2, tol)
	require.InDelta(t, 0, (box.Min.Z+box.Max.Z)/2, tol)
	require.InDelta(t, 0.2, box.Max.X-box.Min.X, tol, "scaled uniformly by 0.5")
}

func TestLocalMatrixDefaultsToIdentity(t *testing.T) {
	n := &gltf.Node{Matrix: gltf.DefaultMatrix, Rotation: gltf.DefaultRotation, Scale: gltf.DefaultScale}
	m := localMatrix(n)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := 0.0
			if r == c {
				want = 1
			}
			require.Equal(t, want, m.At(r, c))
		}
	}
}
