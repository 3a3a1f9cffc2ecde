package document

// Anchor is the geometry of a shape captured at the start of a gesture.
// Deltas are always applied to the anchor, never accumulated on the live
// geometry, so a drag cannot drift.
type Anchor struct {
	geometry Geometry
	children []ChildAnchor
}

// ChildAnchor pairs a group child with its own anchor.
type ChildAnchor struct {
	Shape  *Shape
	Anchor Anchor
}

// Children returns the per-child anchors of a group anchor.
func (a Anchor) Children() []ChildAnchor {
	return a.children
}

// Geometry returns the captured geometry of a leaf anchor, nil for groups.
func (a Anchor) Geometry() Geometry {
	return a.geometry
}

// GetAnchor snapshots the geometry of s, recursing into groups.
func GetAnchor(s *Shape) Anchor {
	if g, ok := s.Geometry.(*Group); ok {
		a := Anchor{children: make([]ChildAnchor, len(g.Children))}
		for i, c := range g.Children {
			a.children[i] = ChildAnchor{Shape: c, Anchor: GetAnchor(c)}
		}
		return a
	}
	return Anchor{geometry: s.Geometry.Clone()}
}

// ApplyTranslation sets the geometry of s to its anchor moved by (dx, dy).
func ApplyTranslation(s *Shape, a Anchor, dx, dy float64) {
	if a.geometry == nil {
		for _, c := range a.children {
			ApplyTranslation(c.Shape, c.Anchor, dx, dy)
		}
		return
	}
	g := a.geometry.Clone()
	g.Translate(dx, dy)
	s.Geometry = g
}

// ApplyScale scales s in place about its own centre.
func ApplyScale(s *Shape, factor float64) {
	s.Geometry.Scale(factor)
}

// Duplicate deep-copies s, giving the copy and every descendant a fresh
// handle.
func Duplicate(s *Shape) *Shape {
	out := New(s.Geometry.Clone(), s.Style, s.Layer, s.Time)
	if g, ok := out.Geometry.(*Group); ok {
		for i, c := range g.Children {
			g.Children[i] = Duplicate(c)
		}
	}
	return out
}
