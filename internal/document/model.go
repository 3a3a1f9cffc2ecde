package document

import (
	"strconv"
	"strings"

	"github.com/vecnote/vecnote/internal/geom"
	"github.com/vecnote/vecnote/internal/typeid"
)

// LayerCount is the number of fixed layers in a drawing.
const LayerCount = 4

// MinSize is the smallest width, height or radius a shape may shrink to.
const MinSize = 1.0

// DefaultFontSize is the font size given to new text.
const DefaultFontSize = 16.0

// DefaultBackground is used when a document carries no background.
const DefaultBackground = "#ffffff"

// Kind identifies a shape variant.
type Kind string

const (
	KindRect         Kind = "rect"
	KindCircle       Kind = "circle"
	KindLine         Kind = "line"
	KindPolygon      Kind = "polygon"
	KindPolyline     Kind = "polyline"
	KindPath         Kind = "path"
	KindCompoundPath Kind = "compound"
	KindText         Kind = "text"
	KindGroup        Kind = "g"
)

// Style holds the paint attributes of a shape. Empty strings and a zero
// stroke width mean "not set": the value is inherited from the parent group
// when rendering.
type Style struct {
	Stroke      string  `json:"stroke"`
	Fill        string  `json:"fill"`
	StrokeWidth float64 `json:"strokeWidth"`
	Dash        string  `json:"dash"`
	Opacity     float64 `json:"opacity"`
}

// DefaultStyle is a black 1-unit stroke with no fill.
func DefaultStyle() Style {
	return Style{Stroke: "#000000", Fill: "none", StrokeWidth: 1, Opacity: 1}
}

// Inherit fills unset fields from parent.
func (s Style) Inherit(parent Style) Style {
	if s.Stroke == "" {
		s.Stroke = parent.Stroke
	}
	if s.Fill == "" {
		s.Fill = parent.Fill
	}
	if s.StrokeWidth == 0 {
		s.StrokeWidth = parent.StrokeWidth
	}
	if s.Dash == "" {
		s.Dash = parent.Dash
	}
	return s
}

// DashArray parses the dash pattern ("5,5" or "5 5") into segment lengths.
// Invalid or empty patterns yield nil, meaning a solid line.
func (s Style) DashArray() []float64 {
	fields := strings.FieldsFunc(s.Dash, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil
	}
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// TimeRange is the inclusive window during which a shape is shown.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Overlaps reports whether the range is visible in the display window
// [start, end]. Ranges with End < Start are not rejected here; they simply
// fail the test for most windows.
func (t TimeRange) Overlaps(start, end float64) bool {
	return t.End >= start && t.Start <= end
}

// Union returns the smallest range covering both.
func (t TimeRange) Union(o TimeRange) TimeRange {
	return TimeRange{Start: min(t.Start, o.Start), End: max(t.End, o.End)}
}

// Geometry is implemented by every shape variant. Translate and Scale mutate
// in place; Scale works about the geometry's own centre.
type Geometry interface {
	Kind() Kind
	Bounds() geom.Rect
	Translate(dx, dy float64)
	Scale(factor float64)
	Clone() Geometry
	// Outline is the render path in content coordinates. Text has none.
	Outline() geom.Path
}

// VertexEditable is implemented by point-list shapes whose vertices can be
// dragged, inserted and deleted individually.
type VertexEditable interface {
	Geometry
	Vertices() []geom.Point
	SetVertices(pts []geom.Point)
	MinVertices() int
	ClosedOutline() bool
}

// Shape is one drawable entity. ID is an opaque handle, stable for the
// lifetime of the shape in a scene.
type Shape struct {
	ID       string
	Geometry Geometry
	Style    Style
	Layer    int
	Time     TimeRange
}

// New creates a shape with a fresh handle.
func New(g Geometry, style Style, layer int, tr TimeRange) *Shape {
	return &Shape{
		ID:       typeid.NewShapeID(),
		Geometry: g,
		Style:    style,
		Layer:    layer,
		Time:     tr,
	}
}

// Kind returns the variant tag of the shape.
func (s *Shape) Kind() Kind {
	return s.Geometry.Kind()
}

// Bounds returns the axis-aligned bounding box of the shape.
func (s *Shape) Bounds() geom.Rect {
	return s.Geometry.Bounds()
}

// SetLayer stamps the layer on the shape and, for groups, on every
// descendant.
func (s *Shape) SetLayer(layer int) {
	s.Layer = layer
	if g, ok := s.Geometry.(*Group); ok {
		for _, c := range g.Children {
			c.SetLayer(layer)
		}
	}
}

// Walk visits the shape and its descendants depth-first.
func (s *Shape) Walk(fn func(*Shape)) {
	fn(s)
	if g, ok := s.Geometry.(*Group); ok {
		for _, c := range g.Children {
			c.Walk(fn)
		}
	}
}

// Editable returns the vertex-editing view of the shape, if it has one.
// Closed smoothed paths and compound paths have none.
func (s *Shape) Editable() (VertexEditable, bool) {
	v, ok := s.Geometry.(VertexEditable)
	if !ok {
		return nil, false
	}
	if p, isPath := v.(*Path); isPath && p.Closed {
		return nil, false
	}
	return v, true
}

// Scalable reports whether wheel scaling applies to the shape. Compound
// (hole-carrying) paths are excluded.
func (s *Shape) Scalable() bool {
	return s.Kind() != KindCompoundPath
}

// TextContent returns the text carried by a text shape or by the first text
// child of a group (the bubble label).
func (s *Shape) TextContent() (string, bool) {
	switch g := s.Geometry.(type) {
	case *Text:
		return g.Content, true
	case *Group:
		if t := g.text(); t != nil {
			return t.Content, true
		}
	}
	return "", false
}
