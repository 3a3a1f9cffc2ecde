package geom

import "math"

// Matrix2D is an affine transform stored as [a, b, c, d, e, f]:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Identity()
	}
	inv := 1.0 / det
	return Matrix2D{
		m[3] * inv,
		-m[1] * inv,
		-m[2] * inv,
		m[0] * inv,
		(m[2]*m[5] - m[3]*m[4]) * inv,
		(m[1]*m[4] - m[0]*m[5]) * inv,
	}
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// Zoom limits for the viewport.
const (
	MinZoom = 0.1
	MaxZoom = 10
)

// Viewport is the pan/zoom transform between canvas (client) coordinates and
// content coordinates: client = content*Zoom + Pan.
type Viewport struct {
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

// NewViewport returns the unpanned, unzoomed viewport.
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// Matrix returns the content-to-client transform.
func (v Viewport) Matrix() Matrix2D {
	return Matrix2D{v.Zoom, 0, 0, v.Zoom, v.PanX, v.PanY}
}

// ClientToContent maps a canvas-relative pointer position into content space.
func (v Viewport) ClientToContent(p Point) Point {
	return v.Matrix().Invert().TransformPoint(p)
}

// PanBy shifts the view by a client-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}

// ZoomAt multiplies the zoom by factor, clamped to [MinZoom, MaxZoom], keeping
// the content point under the cursor fixed on screen.
func (v *Viewport) ZoomAt(content Point, factor float64) {
	prev := v.Zoom
	v.Zoom = math.Max(MinZoom, math.Min(MaxZoom, v.Zoom*factor))
	v.PanX = content.X*prev + v.PanX - v.Zoom*content.X
	v.PanY = content.Y*prev + v.PanY - v.Zoom*content.Y
}
