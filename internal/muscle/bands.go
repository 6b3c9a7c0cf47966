package muscle

// Band is a score classification bucket.
type Band struct {
	Name  string `json:"name"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Color string `json:"color"`
	Label string `json:"label"`
}

// Score bands, highest first. Lower bounds are inclusive.
var (
	BandGreen   = Band{Name: "green", Min: 70, Max: 100, Color: "#10B981", Label: "Consistent"}
	BandAmber   = Band{Name: "amber", Min: 35, Max: 69, Color: "#F59E0B", Label: "Moderate"}
	BandRed     = Band{Name: "red", Min: 10, Max: 34, Color: "#EF4444", Label: "Low"}
	BandNeutral = Band{Name: "neutral", Min: 0, Max: 9, Color: "#8B8095", Label: "Untrained"}
)

var bands = []Band{BandGreen, BandAmber, BandRed}

// Classify returns the band for score.
func Classify(score float64) Band {
	for _, b := range bands {
		if score >= float64(b.Min) {
			return b
		}
	}
	return BandNeutral
}

// Color returns the hex colour for score.
func Color(score float64) string { return Classify(score).Color }

// Label returns the display label for score.
func Label(score float64) string { return Classify(score).Label }

// RGB is a linear colour with channels in [0,1].
type RGB [3]float64

// Skin is the natural tone used for untrained or unclassified surface.
var Skin = RGB{0.22, 0.18, 0.25}

var bandRGB = map[string]RGB{
	BandGreen.Name: {0.063, 0.725, 0.506},
	BandAmber.Name: {0.961, 0.620, 0.043},
	BandRed.Name:   {0.937, 0.267, 0.267},
}

// BaseRGB returns the render colour for score. Untrained scores report false
// so callers can fall back to Skin.
func BaseRGB(score float64) (RGB, bool) {
	c, ok := bandRGB[Classify(score).Name]
	return c, ok
}

// Offsets keep neighbouring groups distinguishable on the mesh.
var tints = map[ID]RGB{
	Chest:      {0.05, -0.04, 0.08},
	Traps:      {0.08, 0.02, -0.06},
	FrontDelts: {-0.06, 0.06, 0.04},
	RearDelts:  {0.06, 0.02, -0.07},
	SideDelts:  {-0.04, 0.07, 0.0},
	Biceps:     {0.07, -0.05, 0.02},
	Triceps:    {-0.07, 0.04, 0.06},
	Forearms:   {0.04, 0.06, -0.07},
	Lats:       {-0.06, -0.04, 0.09},
	UpperBack:  {0.06, -0.07, 0.02},
	Abs:        {0.0, 0.08, -0.06},
	Obliques:   {-0.07, 0.02, 0.08},
	LowerBack:  {0.08, -0.02, -0.06},
	Glutes:     {-0.04, 0.07, -0.04},
	Quads:      {0.06, -0.07, 0.04},
	Hamstrings: {-0.07, 0.06, -0.02},
	Calves:     {0.04, -0.06, 0.07},
}

// Tint returns the additive hue offset for id.
func Tint(id ID) RGB { return tints[id] }

// Add returns c + o with every channel clamped to [0,1].
func (c RGB) Add(o RGB) RGB {
	var out RGB
	for i := range c {
		v := c[i] + o[i]
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[i] = v
	}
	return out
}
