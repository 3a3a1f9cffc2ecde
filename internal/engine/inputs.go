package engine

import "github.com/vecnote/vecnote/internal/document"

// StyleInputs mirrors the style controls of the toolbar.
type StyleInputs struct {
	Stroke      string  `json:"stroke"`
	Fill        string  `json:"fill"`
	FillEnabled bool    `json:"fillEnabled"`
	StrokeWidth float64 `json:"strokeWidth"`
	Dash        string  `json:"dash"`
	Opacity     float64 `json:"opacity"`
}

// Style converts the control values into a shape style. A disabled fill is
// written as "none".
func (in StyleInputs) Style() document.Style {
	st := document.Style{
		Stroke:      in.Stroke,
		Fill:        in.Fill,
		StrokeWidth: in.StrokeWidth,
		Dash:        in.Dash,
		Opacity:     in.Opacity,
	}
	if !in.FillEnabled || st.Fill == "" {
		st.Fill = "none"
	}
	if st.Stroke == "" {
		st.Stroke = "#000000"
	}
	if st.StrokeWidth <= 0 {
		st.StrokeWidth = 1
	}
	if st.Opacity < 0 || st.Opacity > 1 {
		st.Opacity = 1
	}
	return st
}

// Inputs is the editor's read-only view of the form controls that feed new
// shapes: style, time range and text content.
type Inputs interface {
	Style() StyleInputs
	TimeRange() document.TimeRange
	Text() string
}

// StaticInputs is an Inputs backed by plain values. The wasm bridge updates
// it as the controls change.
type StaticInputs struct {
	Paint  StyleInputs        `json:"style"`
	Window document.TimeRange `json:"time"`
	Label  string             `json:"text"`
}

// DefaultInputs returns black 1-unit strokes, no fill, shown from 0 to 10.
func DefaultInputs() *StaticInputs {
	return &StaticInputs{
		Paint:  StyleInputs{Stroke: "#000000", Fill: "#ffffff", StrokeWidth: 1, Opacity: 1},
		Window: document.TimeRange{Start: 0, End: 10},
	}
}

func (s *StaticInputs) Style() StyleInputs             { return s.Paint }
func (s *StaticInputs) TimeRange() document.TimeRange { return s.Window }
func (s *StaticInputs) Text() string                  { return s.Label }
