package document

import (
	"math"
	"testing"

	"github.com/vecnote/vecnote/internal/geom"
)

func TestApplyTranslationUsesAnchor(t *testing.T) {
	s := New(&Rect{X: 10, Y: 10, W: 5, H: 5}, DefaultStyle(), 0, TimeRange{})
	a := GetAnchor(s)

	for _, d := range []float64{1, 2, 3, 4} {
		ApplyTranslation(s, a, d, d)
	}
	r := s.Geometry.(*Rect)
	if r.X != 14 || r.Y != 14 {
		t.Errorf("rect at (%v,%v), want (14,14)", r.X, r.Y)
	}
}

func TestApplyTranslationGroup(t *testing.T) {
	c1 := New(&Circle{CX: 0, CY: 0, R: 2}, Style{}, 0, TimeRange{})
	c2 := New(&Polyline{Points: []geom.Point{{X: 5, Y: 5}, {X: 6, Y: 6}}}, Style{}, 0, TimeRange{})
	g := New(&Group{Children: []*Shape{c1, c2}}, DefaultStyle(), 0, TimeRange{})

	a := GetAnchor(g)
	ApplyTranslation(g, a, 10, -10)
	ApplyTranslation(g, a, 20, -20)

	if c := c1.Geometry.(*Circle); c.CX != 20 || c.CY != -20 {
		t.Errorf("circle centre (%v,%v)", c.CX, c.CY)
	}
	if p := c2.Geometry.(*Polyline); p.Points[0] != geom.Pt(25, -15) {
		t.Errorf("polyline start %+v", p.Points[0])
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name   string
		geom   Geometry
		factor float64
		want   geom.Rect
	}{
		{"rect grows about centre", &Rect{X: 0, Y: 0, W: 10, H: 20}, 2, geom.Rect{X: -5, Y: -10, Width: 20, Height: 40}},
		{"rect floors at min size", &Rect{X: 0, Y: 0, W: 2, H: 2}, 0.1, geom.Rect{X: 0.5, Y: 0.5, Width: 1, Height: 1}},
		{"circle keeps centre", &Circle{CX: 5, CY: 5, R: 2}, 1.5, geom.Rect{X: 2, Y: 2, Width: 6, Height: 6}},
		{"line about midpoint", &Line{X1: 0, Y1: 0, X2: 10, Y2: 0}, 0.5, geom.Rect{X: 2.5, Y: 0, Width: 5, Height: 0}},
		{"polygon about bbox centre", &Polygon{Points: []geom.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}}}, 2, geom.Rect{X: -2, Y: -2, Width: 8, Height: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.geom, Style{}, 0, TimeRange{})
			ApplyScale(s, tt.factor)
			if got := s.Bounds(); got != tt.want {
				t.Errorf("bounds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScaleText(t *testing.T) {
	s := New(&Text{X: 0, Y: 0, Content: "ab", FontSize: 10}, Style{}, 0, TimeRange{})
	ApplyScale(s, 1.1)
	if fs := s.Geometry.(*Text).FontSize; math.Abs(fs-11) > 1e-9 {
		t.Errorf("font size = %v, want 11", fs)
	}
}

func TestGroupScaleSpreadsChildren(t *testing.T) {
	a := New(&Rect{X: 0, Y: 0, W: 10, H: 10}, Style{}, 0, TimeRange{})
	b := New(&Rect{X: 90, Y: 0, W: 10, H: 10}, Style{}, 0, TimeRange{})
	g := New(&Group{Children: []*Shape{a, b}}, Style{}, 0, TimeRange{})

	ApplyScale(g, 2)

	// Centre (50,5); child centres at 5 and 95 move to -40 and 140.
	if got := a.Bounds().Center(); got != geom.Pt(-40, 5) {
		t.Errorf("left centre = %+v", got)
	}
	if got := b.Bounds().Center(); got != geom.Pt(140, 5) {
		t.Errorf("right centre = %+v", got)
	}
	if w := a.Bounds().Width; w != 20 {
		t.Errorf("child width = %v, want 20", w)
	}
}

func TestDuplicateGivesFreshHandles(t *testing.T) {
	b := NewBubble(geom.Pt(0, 0), geom.Pt(50, 50), "x", DefaultStyle(), 0, TimeRange{})
	d := Duplicate(b)
	if d.ID == b.ID {
		t.Fatal("duplicate shares handle")
	}
	orig := b.Geometry.(*Group).Children
	for i, c := range d.Geometry.(*Group).Children {
		if c.ID == orig[i].ID {
			t.Errorf("child %d shares handle", i)
		}
		if c == orig[i] {
			t.Errorf("child %d shares storage", i)
		}
	}
	d.Geometry.Translate(5, 5)
	if b.Bounds() == d.Bounds() {
		t.Error("moving the duplicate moved the original")
	}
}

func TestBubbleFitsText(t *testing.T) {
	b := NewBubble(geom.Pt(0, 0), geom.Pt(4, 4), "a long label", DefaultStyle(), 0, TimeRange{})
	g := b.Geometry.(*Group)
	r := g.Children[0].Geometry.(*Rect)
	label := g.Children[2].Geometry.(*Text).Bounds()

	if r.W < label.Width+20 || r.H < label.Height+20 {
		t.Errorf("rect %+v does not fit label %+v", *r, label)
	}
	if c := r.Bounds().Center(); math.Abs(c.X-2) > 1e-9 || math.Abs(c.Y-2) > 1e-9 {
		t.Errorf("rect centre moved to %+v", c)
	}
	tail := g.Children[1].Geometry.(*Polygon)
	if len(tail.Points) != 3 || tail.Points[2].Y != r.Y+r.H+20 {
		t.Errorf("tail = %+v", tail.Points)
	}

	width := r.W
	if !SetText(b, "") {
		t.Fatal("bubble should carry text")
	}
	if r.W != width {
		t.Errorf("bubble shrank from %v to %v", width, r.W)
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	tests := []struct {
		tr         TimeRange
		start, end float64
		want       bool
	}{
		{TimeRange{Start: 0, End: 10}, 0, 10, true},
		{TimeRange{Start: 10, End: 20}, 0, 10, true},
		{TimeRange{Start: 11, End: 20}, 0, 10, false},
		{TimeRange{Start: 5, End: 2}, 3, 4, false},
	}
	for _, tt := range tests {
		if got := tt.tr.Overlaps(tt.start, tt.end); got != tt.want {
			t.Errorf("%+v.Overlaps(%v,%v) = %v, want %v", tt.tr, tt.start, tt.end, got, tt.want)
		}
	}
}
