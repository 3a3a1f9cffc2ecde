package document

import (
	"math"
	"slices"
	"unicode/utf8"

	"github.com/vecnote/vecnote/internal/geom"
)

// Text metrics used for layout without a font engine.
const (
	textAdvance = 0.6
	textAscent  = 0.8
)

// ellipseKappa is 4*(sqrt(2)-1)/3, the control point distance for a Bezier
// quarter circle.
const ellipseKappa = 0.5522847498

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

func (r *Rect) Kind() Kind { return KindRect }

func (r *Rect) Bounds() geom.Rect {
	return geom.Rect{X: r.X, Y: r.Y, Width: r.W, Height: r.H}
}

func (r *Rect) Translate(dx, dy float64) {
	r.X += dx
	r.Y += dy
}

func (r *Rect) Scale(factor float64) {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	r.W = math.Max(MinSize, r.W*factor)
	r.H = math.Max(MinSize, r.H*factor)
	r.X = cx - r.W/2
	r.Y = cy - r.H/2
}

func (r *Rect) Clone() Geometry {
	c := *r
	return &c
}

func (r *Rect) Outline() geom.Path {
	return geom.Polyline([]geom.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.W, Y: r.Y},
		{X: r.X + r.W, Y: r.Y + r.H},
		{X: r.X, Y: r.Y + r.H},
	}, true)
}

// Resize sets the size from the top-left corner, floored at MinSize.
func (r *Rect) Resize(w, h float64) {
	r.W = math.Max(MinSize, w)
	r.H = math.Max(MinSize, h)
}

// Circle is defined by its centre and radius.
type Circle struct {
	CX, CY, R float64
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) Bounds() geom.Rect {
	return geom.Rect{X: c.CX - c.R, Y: c.CY - c.R, Width: 2 * c.R, Height: 2 * c.R}
}

func (c *Circle) Translate(dx, dy float64) {
	c.CX += dx
	c.CY += dy
}

func (c *Circle) Scale(factor float64) {
	c.R = math.Max(MinSize, c.R*factor)
}

func (c *Circle) Clone() Geometry {
	cc := *c
	return &cc
}

func (c *Circle) Outline() geom.Path {
	r, k := c.R, c.R*ellipseKappa
	pt := func(x, y float64) geom.Point { return geom.Pt(c.CX+x, c.CY+y) }
	return geom.Path{
		{Op: geom.OpMove, Points: []geom.Point{pt(r, 0)}},
		{Op: geom.OpCubic, Points: []geom.Point{pt(r, k), pt(k, r), pt(0, r)}},
		{Op: geom.OpCubic, Points: []geom.Point{pt(-k, r), pt(-r, k), pt(-r, 0)}},
		{Op: geom.OpCubic, Points: []geom.Point{pt(-r, -k), pt(-k, -r), pt(0, -r)}},
		{Op: geom.OpCubic, Points: []geom.Point{pt(k, -r), pt(r, -k), pt(r, 0)}},
		{Op: geom.OpClose},
	}
}

// Line is a straight segment, optionally drawn with an arrow head at the
// end point.
type Line struct {
	X1, Y1, X2, Y2 float64
	Arrow          bool
}

func (l *Line) Kind() Kind { return KindLine }

func (l *Line) Bounds() geom.Rect {
	return geom.RectFromPoints(geom.Pt(l.X1, l.Y1), geom.Pt(l.X2, l.Y2))
}

func (l *Line) Translate(dx, dy float64) {
	l.X1 += dx
	l.Y1 += dy
	l.X2 += dx
	l.Y2 += dy
}

func (l *Line) Scale(factor float64) {
	cx, cy := (l.X1+l.X2)/2, (l.Y1+l.Y2)/2
	l.X1 = cx + (l.X1-cx)*factor
	l.Y1 = cy + (l.Y1-cy)*factor
	l.X2 = cx + (l.X2-cx)*factor
	l.Y2 = cy + (l.Y2-cy)*factor
}

func (l *Line) Clone() Geometry {
	c := *l
	return &c
}

func (l *Line) Outline() geom.Path {
	return geom.Polyline([]geom.Point{geom.Pt(l.X1, l.Y1), geom.Pt(l.X2, l.Y2)}, false)
}

// points is the shared storage of the point-list shapes.
type points []geom.Point

func (p points) bounds() geom.Rect { return geom.BoundingBox(p) }

func (p points) translate(dx, dy float64) {
	for i := range p {
		p[i] = p[i].Add(dx, dy)
	}
}

func (p points) scale(factor float64) {
	c := geom.BoundingBox(p).Center()
	for i := range p {
		p[i] = p[i].ScaleAbout(c.X, c.Y, factor)
	}
}

// Polygon is a closed straight-edged outline with at least three points.
type Polygon struct {
	Points []geom.Point
}

func (p *Polygon) Kind() Kind                   { return KindPolygon }
func (p *Polygon) Bounds() geom.Rect            { return points(p.Points).bounds() }
func (p *Polygon) Translate(dx, dy float64)     { points(p.Points).translate(dx, dy) }
func (p *Polygon) Scale(factor float64)         { points(p.Points).scale(factor) }
func (p *Polygon) Clone() Geometry              { return &Polygon{Points: slices.Clone(p.Points)} }
func (p *Polygon) Outline() geom.Path           { return geom.Polyline(p.Points, true) }
func (p *Polygon) Vertices() []geom.Point       { return p.Points }
func (p *Polygon) SetVertices(pts []geom.Point) { p.Points = pts }
func (p *Polygon) MinVertices() int             { return 3 }
func (p *Polygon) ClosedOutline() bool          { return true }

// Polyline is an open straight-edged outline with at least two points.
type Polyline struct {
	Points []geom.Point
}

func (p *Polyline) Kind() Kind                   { return KindPolyline }
func (p *Polyline) Bounds() geom.Rect            { return points(p.Points).bounds() }
func (p *Polyline) Translate(dx, dy float64)     { points(p.Points).translate(dx, dy) }
func (p *Polyline) Scale(factor float64)         { points(p.Points).scale(factor) }
func (p *Polyline) Clone() Geometry              { return &Polyline{Points: slices.Clone(p.Points)} }
func (p *Polyline) Outline() geom.Path           { return geom.Polyline(p.Points, false) }
func (p *Polyline) Vertices() []geom.Point       { return p.Points }
func (p *Polyline) SetVertices(pts []geom.Point) { p.Points = pts }
func (p *Polyline) MinVertices() int             { return 2 }
func (p *Polyline) ClosedOutline() bool          { return false }

// Path is a freehand outline through Points, drawn as a Catmull-Rom spline.
type Path struct {
	Points []geom.Point
	Closed bool
}

func (p *Path) Kind() Kind               { return KindPath }
func (p *Path) Bounds() geom.Rect        { return points(p.Points).bounds() }
func (p *Path) Translate(dx, dy float64) { points(p.Points).translate(dx, dy) }
func (p *Path) Scale(factor float64)     { points(p.Points).scale(factor) }

func (p *Path) Clone() Geometry {
	return &Path{Points: slices.Clone(p.Points), Closed: p.Closed}
}

func (p *Path) Outline() geom.Path {
	out := geom.CatmullRomSmooth(p.Points)
	if p.Closed && len(out) > 0 {
		out = append(out, geom.Command{Op: geom.OpClose})
	}
	return out
}

func (p *Path) Vertices() []geom.Point       { return p.Points }
func (p *Path) SetVertices(pts []geom.Point) { p.Points = pts }
func (p *Path) MinVertices() int             { return 2 }
func (p *Path) ClosedOutline() bool          { return p.Closed }

// CompoundPath is a set of closed outlines filled with the even-odd rule, so
// inner outlines punch holes in outer ones.
type CompoundPath struct {
	Subpaths []geom.Subpath
}

func (c *CompoundPath) Kind() Kind { return KindCompoundPath }

func (c *CompoundPath) all() []geom.Point {
	var pts []geom.Point
	for _, sp := range c.Subpaths {
		pts = append(pts, sp.Points...)
	}
	return pts
}

func (c *CompoundPath) Bounds() geom.Rect { return geom.BoundingBox(c.all()) }

func (c *CompoundPath) Translate(dx, dy float64) {
	for _, sp := range c.Subpaths {
		points(sp.Points).translate(dx, dy)
	}
}

func (c *CompoundPath) Scale(factor float64) {
	center := c.Bounds().Center()
	for _, sp := range c.Subpaths {
		for i := range sp.Points {
			sp.Points[i] = sp.Points[i].ScaleAbout(center.X, center.Y, factor)
		}
	}
}

func (c *CompoundPath) Clone() Geometry {
	out := &CompoundPath{Subpaths: make([]geom.Subpath, len(c.Subpaths))}
	for i, sp := range c.Subpaths {
		out.Subpaths[i] = geom.Subpath{Points: slices.Clone(sp.Points), Closed: sp.Closed}
	}
	return out
}

func (c *CompoundPath) Outline() geom.Path { return geom.CompoundPath(c.Subpaths) }

// Text is a single-line label. X, Y is the start of the baseline, or the
// centre of the label when Centered is set.
type Text struct {
	X, Y     float64
	Content  string
	FontSize float64
	Centered bool
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) size() float64 {
	if t.FontSize <= 0 {
		return DefaultFontSize
	}
	return t.FontSize
}

// Bounds approximates the label box from the rune count and font size.
func (t *Text) Bounds() geom.Rect {
	fs := t.size()
	w := float64(utf8.RuneCountInString(t.Content)) * fs * textAdvance
	if t.Centered {
		return geom.Rect{X: t.X - w/2, Y: t.Y - fs/2, Width: w, Height: fs}
	}
	return geom.Rect{X: t.X, Y: t.Y - fs*textAscent, Width: w, Height: fs}
}

func (t *Text) Translate(dx, dy float64) {
	t.X += dx
	t.Y += dy
}

func (t *Text) Scale(factor float64) {
	t.FontSize = t.size() * factor
}

func (t *Text) Clone() Geometry {
	c := *t
	return &c
}

func (t *Text) Outline() geom.Path { return nil }

// Group owns its children exclusively. Children are painted in order.
type Group struct {
	Children []*Shape
}

func (g *Group) Kind() Kind { return KindGroup }

func (g *Group) Bounds() geom.Rect {
	var box geom.Rect
	for i, c := range g.Children {
		if i == 0 {
			box = c.Bounds()
			continue
		}
		box = box.Union(c.Bounds())
	}
	return box
}

func (g *Group) Translate(dx, dy float64) {
	for _, c := range g.Children {
		c.Geometry.Translate(dx, dy)
	}
}

// Scale spreads children away from the group centre and scales each child
// about its own centre. Compound paths are only moved, never resized.
func (g *Group) Scale(factor float64) {
	if len(g.Children) == 0 {
		return
	}
	center := g.Bounds().Center()
	for _, c := range g.Children {
		cc := c.Bounds().Center()
		c.Geometry.Translate((cc.X-center.X)*(factor-1), (cc.Y-center.Y)*(factor-1))
		if c.Kind() != KindCompoundPath {
			c.Geometry.Scale(factor)
		}
	}
}

// Clone deep-copies the children. Copies keep the children's handles; use
// Shape.Duplicate for fresh ones.
func (g *Group) Clone() Geometry {
	out := &Group{Children: make([]*Shape, len(g.Children))}
	for i, c := range g.Children {
		cc := *c
		cc.Geometry = c.Geometry.Clone()
		out.Children[i] = &cc
	}
	return out
}

func (g *Group) Outline() geom.Path { return nil }

func (g *Group) text() *Text {
	for _, c := range g.Children {
		if t, ok := c.Geometry.(*Text); ok {
			return t
		}
	}
	return nil
}

func (g *Group) first(kind Kind) Geometry {
	for _, c := range g.Children {
		if c.Kind() == kind {
			return c.Geometry
		}
	}
	return nil
}

// arrowSize is the arrow head length and width in stroke widths.
const arrowSize = 6.0

// ArrowHead returns the filled triangle drawn at the end of an arrow, its tip
// on the end point. Zero-length lines have none.
func (l *Line) ArrowHead(strokeWidth float64) geom.Path {
	dx, dy := l.X2-l.X1, l.Y2-l.Y1
	length := math.Hypot(dx, dy)
	if !l.Arrow || length == 0 {
		return nil
	}
	if strokeWidth <= 0 {
		strokeWidth = 1
	}
	size := arrowSize * strokeWidth
	ux, uy := dx/length, dy/length
	baseX, baseY := l.X2-ux*size, l.Y2-uy*size
	half := size / 2
	return geom.Polyline([]geom.Point{
		{X: l.X2, Y: l.Y2},
		{X: baseX - uy*half, Y: baseY + ux*half},
		{X: baseX + uy*half, Y: baseY - ux*half},
	}, true)
}
