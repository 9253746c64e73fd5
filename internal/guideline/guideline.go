package guideline

// Heading is a text line classified as a section title. Immutable once
// produced; headings are ordered by (page, vertical position).
type Heading struct {
	Page     int     `json:"page"` // 1-based
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
	X0       float64 `json:"x0"`
	Top      float64 `json:"y_top"`
	Bottom   float64 `json:"y_bottom"`
	Level    int     `json:"level"` // 1..Params.MaxLevels
}

// Section is the body text between one heading and the next heading of
// equal-or-higher level. The content string is owned by the section.
type Section struct {
	Heading string `json:"heading"`
	Page    int    `json:"page"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

// Params are the heading-detection policy knobs. They are configuration,
// not algorithmic requirements; defaults reproduce the reference behavior.
type Params struct {
	BoldThreshold float64  // min fraction of bold glyphs in a heading line
	BoldMarkers   []string // case-insensitive substrings marking bold faces
	HeaderFrac    float64  // page-height fraction treated as running header
	FooterFrac    float64  // page-height fraction treated as running footer
	MinLen        int      // heading text length bounds
	MaxLen        int
	MaxLevels     int // hierarchy depth to infer

	LineTol   float64 // baseline rounding tolerance for line clustering
	BandTol   float64 // min font-size difference between level bands
	LevelTol  float64 // slack when matching a heading to a band
	GapFactor float64 // required gap above a heading, in median line gaps
}

// DefaultParams returns the reference policy.
func DefaultParams() Params {
	return Params{
		BoldThreshold: 0.6,
		BoldMarkers:   []string{"bold", "semibold", "demi", "black", "heavy", "medium", "bd"},
		HeaderFrac:    0.08,
		FooterFrac:    0.08,
		MinLen:        2,
		MaxLen:        140,
		MaxLevels:     3,
		LineTol:       1.2,
		BandTol:       0.5,
		LevelTol:      0.25,
		GapFactor:     1.1,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.BoldThreshold <= 0 {
		p.BoldThreshold = d.BoldThreshold
	}
	if len(p.BoldMarkers) == 0 {
		p.BoldMarkers = d.BoldMarkers
	}
	if p.HeaderFrac <= 0 {
		p.HeaderFrac = d.HeaderFrac
	}
	if p.FooterFrac <= 0 {
		p.FooterFrac = d.FooterFrac
	}
	if p.MinLen <= 0 {
		p.MinLen = d.MinLen
	}
	if p.MaxLen <= 0 {
		p.MaxLen = d.MaxLen
	}
	if p.MaxLevels <= 0 {
		p.MaxLevels = d.MaxLevels
	}
	if p.LineTol <= 0 {
		p.LineTol = d.LineTol
	}
	if p.BandTol <= 0 {
		p.BandTol = d.BandTol
	}
	if p.LevelTol <= 0 {
		p.LevelTol = d.LevelTol
	}
	if p.GapFactor <= 0 {
		p.GapFactor = d.GapFactor
	}
	return p
}
