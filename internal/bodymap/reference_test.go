package bodymap

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"example.com/physique/internal/muscle"
)

var testRef = BodyReference{
	MinY:           0,
	MaxY:           1.8,
	Height:         1.8,
	TorsoHalfWidth: 0.2,
	TorsoHalfDepth: 0.1,
}

// at converts body-relative coordinates back to world space for testRef.
func at(nx, ny, nz float64) (x, y, z float64) {
	return nx * testRef.TorsoHalfWidth, ny * testRef.Height, nz * testRef.TorsoHalfDepth
}

func TestClassifyThresholdTable(t *testing.T) {
	cases := []struct {
		name       string
		nx, ny, nz float64
		want       muscle.ID
	}{
		{"head", 0, 0.95, 0.5, ""},
		{"shoulder joint front", 1.5, 0.80, 0.5, muscle.FrontDelts},
		{"shoulder joint back", -1.5, 0.80, -0.5, muscle.RearDelts},
		{"upper arm front", 1.2, 0.65, 0.3, muscle.Biceps},
		{"upper arm back", 1.2, 0.65, -0.3, muscle.Triceps},
		{"lower arm", 1.5, 0.45, 0, muscle.Forearms},
		{"hand", 1.5, 0.30, 0, ""},
		{"neck back", 0.5, 0.85, -0.5, muscle.Traps},
		{"upper chest", 0.5, 0.85, 0.5, muscle.Chest},
		{"neck side", 0.5, 0.85, 0.1, muscle.Traps},
		{"shoulder cap front", 1.2, 0.85, 0.1, muscle.FrontDelts},
		{"shoulder cap back", 1.2, 0.85, -0.1, muscle.RearDelts},
		{"pecs", 0.5, 0.72, 0.3, muscle.Chest},
		{"upper back", 0.5, 0.72, -0.3, muscle.UpperBack},
		{"lats", 0.9, 0.72, 0.1, muscle.Lats},
		{"chest seam", 0.5, 0.72, 0.1, muscle.Chest},
		{"back seam", 0.5, 0.72, -0.1, muscle.UpperBack},
		{"abs", 0.5, 0.55, 0.5, muscle.Abs},
		{"obliques front", 0.8, 0.55, 0.5, muscle.Obliques},
		{"lower back", 0.5, 0.55, -0.5, muscle.LowerBack},
		{"obliques back", 0.8, 0.55, -0.5, muscle.Obliques},
		{"waist side", 0.5, 0.55, 0, muscle.Abs},
		{"hips", 0.3, 0.45, -0.5, muscle.Glutes},
		{"thigh front", 0.3, 0.30, 0.2, muscle.Quads},
		{"thigh back", 0.3, 0.30, -0.2, muscle.Hamstrings},
		{"thigh side", 0.3, 0.30, 0, muscle.Hamstrings},
		{"shin", 0.3, 0.10, 0.2, muscle.Calves},
		{"foot", 0.3, 0.02, 0.2, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := testRef.Classify(at(tc.nx, tc.ny, tc.nz))
			require.Equal(t, tc.want, id)
			require.Equal(t, tc.want != "", ok)
		})
	}
}

func TestClassifyArmThresholdIsGraduated(t *testing.T) {
	// anx 1.3 is an arm at waist level but torso at shoulder level.
	id, _ := testRef.Classify(at(1.3, 0.58, 0.5))
	require.Equal(t, muscle.Forearms, id)

	id, _ = testRef.Classify(at(1.3, 0.79, 0.5))
	require.Equal(t, muscle.Chest, id)
}

func TestClassifyWithoutHeight(t *testing.T) {
	_, ok := BodyReference{}.Classify(0, 1, 0)
	require.False(t, ok)
}

// bodyMesh is a minimal normalised humanoid: a vertical extent of 1.8, a torso
// band 0.3 wide and 0.2 deep, T-pose arms and a chest and a face triangle.
func bodyMesh(key string) *Mesh {
	return &Mesh{Key: key, Parts: []Part{{
		Name: "body",
		Positions: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 0, Y: 1.8, Z: 0},
			{X: -0.15, Y: 0.99, Z: -0.1},
			{X: 0.15, Y: 0.99, Z: 0.1},
			{X: -0.8, Y: 1.4, Z: 0},
			{X: 0.8, Y: 1.4, Z: 0},
			// chest triangle
			{X: -0.1, Y: 1.2, Z: 0.1},
			{X: 0.1, Y: 1.2, Z: 0.1},
			{X: 0, Y: 1.4, Z: 0.1},
			// face triangle
			{X: -0.05, Y: 1.65, Z: 0.1},
			{X: 0.05, Y: 1.65, Z: 0.1},
			{X: 0, Y: 1.75, Z: 0.1},
		},
		Indices: []uint32{6, 7, 8, 9, 10, 11},
	}}}
}

func TestMeasureUsesTorsoBandOnly(t *testing.T) {
	ref := Measure(bodyMesh("male"))

	require.InDelta(t, 0, ref.MinY, 1e-9)
	require.InDelta(t, 1.8, ref.MaxY, 1e-9)
	require.InDelta(t, 1.8, ref.Height, 1e-9)
	require.InDelta(t, 0, ref.CenterX, 1e-9)
	require.InDelta(t, 0, ref.CenterZ, 1e-9)
	require.InDelta(t, 0.15, ref.TorsoHalfWidth, 1e-9)
	require.InDelta(t, 0.1, ref.TorsoHalfDepth, 1e-9)
}

func TestMeasureBandIsInclusive(t *testing.T) {
	m := bodyMesh("male")
	// ny == 0.50 exactly
	m.Parts[0].Positions = append(m.Parts[0].Positions, r3.Vec{X: 0.25, Y: 0.9, Z: 0})

	ref := Measure(m)
	require.InDelta(t, 0.2, ref.TorsoHalfWidth, 1e-9)
}

func TestMeasureFloorsHalfExtents(t *testing.T) {
	m := &Mesh{Parts: []Part{{Positions: []r3.Vec{{Y: 0}, {Y: 2}}}}}
	ref := Measure(m)
	require.Equal(t, 0.01, ref.TorsoHalfWidth)
	require.Equal(t, 0.01, ref.TorsoHalfDepth)

	ref = Measure(&Mesh{})
	require.Equal(t, 0.0, ref.Height)
	require.Equal(t, 0.01, ref.TorsoHalfWidth)
}

func TestNormalizeScalesCentresAndGrounds(t *testing.T) {
	m := &Mesh{Parts: []Part{{Positions: []r3.Vec{
		{X: 2, Y: 1, Z: -1},
		{X: 4, Y: 4.6, Z: 1},
	}}}}
	m.Normalize(ModelHeight)

	box, ok := m.Bounds()
	require.True(t, ok)
	require.InDelta(t, 0, box.Min.Y, 1e-9)
	require.InDelta(t, 1.8, box.Max.Y, 1e-9)
	require.InDelta(t, 0, (box.Min.X+box.Max.X)/2, 1e-9)
	require.InDelta(t, 0, (box.Min.Z+box.Max.Z)/2, 1e-9)
	require.InDelta(t, 1.0, box.Max.X-box.Min.X, 1e-9)
}

func TestClassifyMeshCachesPerVertex(t *testing.T) {
	c := Classify(bodyMesh("male"))
	require.Equal(t, 12, c.VertexCount())

	ids := c.Parts[0]
	require.Equal(t, muscle.Chest, ids[8])
	require.Equal(t, muscle.ID(""), ids[11])
	require.Equal(t, muscle.ID(""), ids[1])

	counts := c.Counts()
	require.Positive(t, counts[""])
	require.Positive(t, counts[muscle.Chest])
}

func TestVertexColor(t *testing.T) {
	scores := map[muscle.ID]int{muscle.Chest: 80, muscle.Abs: 5, muscle.Lats: 40}

	require.Equal(t, muscle.Skin, VertexColor("", scores))
	require.Equal(t, muscle.Skin, VertexColor(muscle.Abs, scores))
	require.Equal(t, muscle.Skin, VertexColor(muscle.Calves, scores))

	green, ok := muscle.BaseRGB(80)
	require.True(t, ok)
	require.Equal(t, green.Add(muscle.Tint(muscle.Chest)), VertexColor(muscle.Chest, scores))

	for _, ch := range VertexColor(muscle.Lats, scores) {
		require.GreaterOrEqual(t, ch, 0.0)
		require.LessOrEqual(t, ch, 1.0)
	}
}

func TestColorizeFollowsClassification(t *testing.T) {
	c := Classify(bodyMesh("male"))
	scores := map[muscle.ID]int{muscle.Chest: 90}

	colors := Colorize(c, scores)
	require.Len(t, colors, 1)
	require.Len(t, colors[0], 12)
	for i, id := range c.Parts[0] {
		require.Equal(t, VertexColor(id, scores), colors[0][i])
	}
}
