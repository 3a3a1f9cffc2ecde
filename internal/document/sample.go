package document

import "github.com/vecnote/vecnote/internal/geom"

// NewSampleDocument returns a small drawing that exercises every shape
// kind: a filled rectangle, a circle, a triangle, an arrow, a smoothed path,
// a label and a speech bubble, spread over two layers.
func NewSampleDocument() *Document {
	always := TimeRange{Start: 0, End: 100}

	rect := New(&Rect{X: 200, Y: 200, W: 200, H: 150},
		Style{Fill: "#e94560", Stroke: "#000000", StrokeWidth: 2, Opacity: 1}, 0, always)

	circle := New(&Circle{CX: 640, CY: 360, R: 80},
		Style{Fill: "#0f3460", Stroke: "#16213e", StrokeWidth: 2, Opacity: 1}, 0, always)

	triangle := New(&Polygon{Points: []geom.Point{{X: 900, Y: 350}, {X: 1000, Y: 200}, {X: 1100, Y: 350}}},
		Style{Fill: "#53d769", Stroke: "#2d6a4f", StrokeWidth: 2, Opacity: 1}, 0, always)

	arrow := New(&Line{X1: 420, Y1: 275, X2: 555, Y2: 340, Arrow: true},
		Style{Fill: "none", Stroke: "#000000", StrokeWidth: 3, Opacity: 1}, 1, always)

	scribble := New(&Path{Points: []geom.Point{{X: 200, Y: 500}, {X: 260, Y: 450}, {X: 330, Y: 520}, {X: 400, Y: 470}}},
		Style{Fill: "none", Stroke: "#f5a623", StrokeWidth: 4, Dash: "5,5", Opacity: 1}, 1, TimeRange{Start: 0, End: 50})

	label := New(&Text{X: 200, Y: 180, Content: "annotate me", FontSize: DefaultFontSize},
		Style{Fill: "#000000", Stroke: "none", Opacity: 1}, 1, always)

	bubble := NewBubble(geom.Pt(820, 460), geom.Pt(1020, 540), "hello",
		Style{Fill: "#ffffff", Stroke: "#8b0ba8", StrokeWidth: 2, Opacity: 1}, 1, TimeRange{Start: 50, End: 100})

	return FromShapes("#fafafa", []*Shape{rect, circle, triangle, arrow, scribble, label, bubble})
}
