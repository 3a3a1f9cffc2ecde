// Package geom holds the stateless geometry used by the editor: points,
// axis-aligned boxes, segment distance, spline smoothing, path text and
// nearest-shape selection.
package geom

import "math"

// Point is a position in content space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Sub returns the vector from o to p.
func (p Point) Sub(o Point) (float64, float64) {
	return p.X - o.X, p.Y - o.Y
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// ScaleAbout scales p away from (cx, cy) by factor.
func (p Point) ScaleAbout(cx, cy, factor float64) Point {
	return Point{X: cx + (p.X-cx)*factor, Y: cy + (p.Y-cy)*factor}
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the box spanned by two corners in any order.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// Contains checks if a point is inside the rect (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Intersects reports whether the two boxes overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.X+r.Width >= o.X && r.X <= o.X+o.Width &&
		r.Y+r.Height >= o.Y && r.Y <= o.Y+o.Height
}

// Union returns the smallest rect containing both rects. Zero-area boxes
// (a horizontal line, a single point) still contribute their extent.
func (r Rect) Union(other Rect) Rect {
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// OuterDistance is the Euclidean distance from p to the box, 0 when p is
// inside or on an edge.
func (r Rect) OuterDistance(p Point) float64 {
	dx := max(r.X-p.X, 0, p.X-(r.X+r.Width))
	dy := max(r.Y-p.Y, 0, p.Y-(r.Y+r.Height))
	return math.Hypot(dx, dy)
}

// InnerDistance measures how far p sits from the nearest vertical and
// horizontal edges of the box. It is only meaningful when p is inside.
func (r Rect) InnerDistance(p Point) float64 {
	dx := max(r.X-p.X, p.X-(r.X+r.Width))
	dy := max(r.Y-p.Y, p.Y-(r.Y+r.Height))
	return math.Hypot(dx, dy)
}

// BoundingBox returns the box around a set of points. An empty set yields
// the zero Rect.
func BoundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// PointToSegmentDistance returns the distance from p to the segment a-b,
// projecting onto the segment and clamping to its ends. A degenerate segment
// (a == b) yields the plain point distance.
func PointToSegmentDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// PointInPolygon reports whether p lies inside the closed polygon using the
// even-odd ray casting rule.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i := 0; i < n; i++ {
		pi, pj := polygon[i], polygon[(i+1)%n]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// ClosestEdge returns the insertion index for a new vertex near p: the
// index just after the start of the closest edge. When closed is true the
// edge from the last point back to the first is considered as well.
func ClosestEdge(p Point, points []Point, closed bool) int {
	limit := len(points) - 1
	if closed {
		limit = len(points)
	}

	index := 0
	minDist := math.Inf(1)
	for i := 0; i < limit; i++ {
		a := points[i]
		b := points[(i+1)%len(points)]
		if d := PointToSegmentDistance(p, a, b); d < minDist {
			minDist = d
			index = i + 1
		}
	}
	return index
}
