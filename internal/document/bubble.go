package document

import (
	"math"

	"github.com/vecnote/vecnote/internal/geom"
)

const (
	bubblePadding = 10.0
	bubbleTailMax = 20.0
)

// NewBubble builds a speech bubble spanning the two corners: a rectangle, a
// tail under its bottom edge and a centred label. The box grows to fit the
// label.
func NewBubble(a, b geom.Point, content string, style Style, layer int, tr TimeRange) *Shape {
	box := geom.RectFromPoints(a, b)
	center := box.Center()

	plain := Style{Opacity: 1}
	label := Style{Fill: style.Stroke, Stroke: "none", Opacity: 1}

	g := &Group{Children: []*Shape{
		New(&Rect{X: box.X, Y: box.Y, W: box.Width, H: box.Height}, plain, layer, tr),
		New(&Polygon{}, plain, layer, tr),
		New(&Text{X: center.X, Y: center.Y, Content: content, FontSize: DefaultFontSize, Centered: true}, label, layer, tr),
	}}
	FitBubble(g)
	return New(g, style, layer, tr)
}

// IsBubble reports whether the group has the rect and text children of a
// speech bubble.
func IsBubble(g *Group) bool {
	return g.first(KindRect) != nil && g.text() != nil
}

// FitBubble grows the bubble rectangle about its centre until the label fits
// with padding, then recentres the label and rebuilds the tail. Groups that
// are not bubbles are left alone.
func FitBubble(g *Group) {
	if !IsBubble(g) {
		return
	}
	r, ok := g.first(KindRect).(*Rect)
	if !ok {
		return
	}
	t := g.text()

	cx, cy := r.X+r.W/2, r.Y+r.H/2
	t.Centered = true
	t.X, t.Y = cx, cy
	label := t.Bounds()

	r.W = math.Max(r.W, label.Width+bubblePadding*2)
	r.H = math.Max(r.H, label.Height+bubblePadding*2)
	r.X = cx - r.W/2
	r.Y = cy - r.H/2

	if tail, ok := g.first(KindPolygon).(*Polygon); ok {
		tw := math.Min(bubbleTailMax, r.W)
		th := math.Min(bubbleTailMax, r.H)
		bottom := r.Y + r.H
		tail.Points = []geom.Point{
			{X: cx - tw/2, Y: bottom},
			{X: cx + tw/2, Y: bottom},
			{X: cx, Y: bottom + th},
		}
	}
}

// SetText replaces the label of a text shape or bubble, refitting bubbles.
// It reports whether the shape carries text.
func SetText(s *Shape, content string) bool {
	switch g := s.Geometry.(type) {
	case *Text:
		g.Content = content
		return true
	case *Group:
		t := g.text()
		if t == nil {
			return false
		}
		t.Content = content
		FitBubble(g)
		return true
	}
	return false
}
