package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/geom"
	"github.com/vecnote/vecnote/internal/scene"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	return NewEditor(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func addRect(t *testing.T, e *Editor, x, y, w, h float64) *document.Shape {
	t.Helper()
	s := document.New(&document.Rect{X: x, Y: y, W: w, H: h}, document.DefaultStyle(), e.ActiveLayer(),
		document.TimeRange{Start: 0, End: 10})
	if err := e.Store().Insert(s, e.ActiveLayer()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return s
}

func addPoints(t *testing.T, e *Editor, g document.Geometry) *document.Shape {
	t.Helper()
	s := document.New(g, document.DefaultStyle(), e.ActiveLayer(), document.TimeRange{Start: 0, End: 10})
	if err := e.Store().Insert(s, e.ActiveLayer()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return s
}

func pts(coords ...float64) []geom.Point {
	out := make([]geom.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, geom.Pt(coords[i], coords[i+1]))
	}
	return out
}

func rectOf(t *testing.T, s *document.Shape) *document.Rect {
	t.Helper()
	r, ok := s.Geometry.(*document.Rect)
	if !ok {
		t.Fatalf("shape %s is %s, want rect", s.ID, s.Kind())
	}
	return r
}

func TestMarqueeScenario(t *testing.T) {
	e := newTestEditor(t)
	a := addRect(t, e, 0, 0, 10, 10)
	b := addRect(t, e, 20, 20, 10, 10)
	addRect(t, e, 100, 100, 10, 10)

	// (0,35) is more than SelectThreshold from every shape.
	down(e, 0, 35)
	if e.Mode() != ModeMarqueeSelecting {
		t.Fatalf("mode = %s, want marquee", e.Mode())
	}
	move(e, 20, 20)
	up(e, 35, 0)

	got := e.Selection()
	if len(got) != 2 || got[0] != a.ID || got[1] != b.ID {
		t.Errorf("selection = %v, want [%s %s]", got, a.ID, b.ID)
	}
}

func TestVertexDeleteFloor(t *testing.T) {
	e := newTestEditor(t)
	tri := addPoints(t, e, &document.Polygon{Points: pts(0, 0, 10, 0, 5, 10)})
	line := addPoints(t, e, &document.Polyline{Points: pts(0, 0, 10, 0, 10, 10, 0, 10)})

	if err := e.DeleteVertex(tri.ID, 0); !errors.Is(err, ErrInsufficientVertices) {
		t.Errorf("triangle delete error = %v, want ErrInsufficientVertices", err)
	}
	if e.CanUndo() {
		t.Error("refused deletion recorded history")
	}

	for i := 0; i < 2; i++ {
		if err := e.DeleteVertex(line.ID, 0); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	if err := e.DeleteVertex(line.ID, 0); !errors.Is(err, ErrInsufficientVertices) {
		t.Errorf("third delete error = %v, want ErrInsufficientVertices", err)
	}
	if n := len(line.Geometry.(*document.Polyline).Points); n != 2 {
		t.Errorf("polyline has %d points, want 2", n)
	}
	if IsNotice(ErrInsufficientVertices) {
		t.Error("refused deletion should not be a notice")
	}
}

func TestPasteOffsetAccumulates(t *testing.T) {
	e := newTestEditor(t)
	orig := addRect(t, e, 0, 0, 10, 10)
	if err := e.Select(orig.ID, false); err != nil {
		t.Fatal(err)
	}
	if err := e.Copy(); err != nil {
		t.Fatal(err)
	}

	for i, want := range []float64{10, 20, 30} {
		if err := e.Paste(); err != nil {
			t.Fatalf("paste %d: %v", i, err)
		}
		layer := e.Store().Layer(0)
		r := rectOf(t, layer[len(layer)-1])
		if r.X != want || r.Y != want {
			t.Errorf("paste %d at (%v, %v), want (%v, %v)", i, r.X, r.Y, want, want)
		}
	}
	if rectOf(t, orig).X != 0 {
		t.Error("original moved")
	}

	// A new copy restarts the offset from the copied shapes.
	e.Select(orig.ID, false)
	e.Copy()
	e.Paste()
	layer := e.Store().Layer(0)
	if r := rectOf(t, layer[len(layer)-1]); r.X != 10 {
		t.Errorf("paste after new copy at x=%v, want 10", r.X)
	}
}

func TestPasteUsesActiveLayerAndFreshHandles(t *testing.T) {
	e := newTestEditor(t)
	orig := addRect(t, e, 0, 0, 10, 10)
	e.Select(orig.ID, false)
	e.Copy()
	if err := e.SetActiveLayer(2); err != nil {
		t.Fatal(err)
	}
	if err := e.Paste(); err != nil {
		t.Fatal(err)
	}
	pasted := e.Store().Layer(2)
	if len(pasted) != 1 {
		t.Fatalf("layer 2 has %d shapes, want 1", len(pasted))
	}
	if pasted[0].ID == orig.ID || pasted[0].Layer != 2 {
		t.Errorf("pasted shape id=%s layer=%d", pasted[0].ID, pasted[0].Layer)
	}
	if got := e.Selection(); len(got) != 1 || got[0] != pasted[0].ID {
		t.Errorf("selection = %v, want the pasted shape", got)
	}
}

func TestDeleteSelectionIsOneUndoStep(t *testing.T) {
	e := newTestEditor(t)
	a := addRect(t, e, 0, 0, 10, 10)
	b := addRect(t, e, 20, 0, 10, 10)
	e.Select(a.ID, false)
	e.Select(b.ID, true)

	if err := e.DeleteSelection(); err != nil {
		t.Fatal(err)
	}
	if e.Store().Len() != 0 || len(e.Selection()) != 0 {
		t.Fatalf("after delete: %d shapes, selection %v", e.Store().Len(), e.Selection())
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if e.Store().Len() != 2 {
		t.Errorf("after undo: %d shapes, want 2", e.Store().Len())
	}
	if e.CanUndo() || !e.CanRedo() {
		t.Errorf("CanUndo=%v CanRedo=%v", e.CanUndo(), e.CanRedo())
	}
}

func TestGroupAndUngroup(t *testing.T) {
	e := newTestEditor(t)
	addRect(t, e, 0, 0, 10, 10)
	addRect(t, e, 20, 0, 10, 10)
	addRect(t, e, 40, 0, 10, 10)

	e.SelectAll()
	if err := e.Group(); err != nil {
		t.Fatal(err)
	}
	if e.Store().Len() != 1 {
		t.Fatalf("after group: %d top-level shapes, want 1", e.Store().Len())
	}
	g := e.Store().Layer(0)[0]
	if g.Kind() != document.KindGroup || e.Primary() != g.ID {
		t.Fatalf("group kind=%s primary=%s", g.Kind(), e.Primary())
	}

	if err := e.Ungroup(); err != nil {
		t.Fatal(err)
	}
	layer := e.Store().Layer(0)
	if len(layer) != 3 || len(e.Selection()) != 0 {
		t.Fatalf("after ungroup: %d shapes, selection %v", len(layer), e.Selection())
	}
	for i, want := range []float64{0, 20, 40} {
		if x := rectOf(t, layer[i]).X; x != want {
			t.Errorf("shape %d x=%v, want %v", i, x, want)
		}
	}

	e.Select(layer[0].ID, false)
	if err := e.Ungroup(); !errors.Is(err, scene.ErrIncompatibleShapes) {
		t.Errorf("ungroup of a rect error = %v, want ErrIncompatibleShapes", err)
	}
}

func TestHolePathThroughEditor(t *testing.T) {
	e := newTestEditor(t)
	outer := addPoints(t, e, &document.Polygon{Points: pts(0, 0, 100, 0, 100, 100, 0, 100)})
	inner := addPoints(t, e, &document.Polygon{Points: pts(25, 25, 75, 25, 75, 75, 25, 75)})
	e.Select(outer.ID, false)
	e.Select(inner.ID, true)

	if err := e.ToHolePath(); err != nil {
		t.Fatal(err)
	}
	layer := e.Store().Layer(0)
	if len(layer) != 1 || layer[0].Kind() != document.KindCompoundPath {
		t.Fatalf("after merge: %d shapes", len(layer))
	}
	if err := e.FromHolePath(); err != nil {
		t.Fatal(err)
	}
	if n := e.Store().Len(); n != 2 || len(e.Selection()) != 2 {
		t.Errorf("after split: %d shapes, selection %v", n, e.Selection())
	}

	circle := addPoints(t, e, &document.Circle{CX: 10, CY: 10, R: 5})
	e.Select(circle.ID, true)
	if err := e.ToHolePath(); !errors.Is(err, scene.ErrIncompatibleShapes) {
		t.Errorf("circle merge error = %v, want ErrIncompatibleShapes", err)
	}
	if e.Store().Len() != 3 {
		t.Error("failed merge changed the scene")
	}
}

func TestStyleEditsAreUndoable(t *testing.T) {
	e := newTestEditor(t)
	s := addRect(t, e, 0, 0, 10, 10)
	e.Select(s.ID, false)

	steps := []func() error{
		func() error { return e.SetStroke("#ff0000") },
		func() error { return e.SetFill("#00ff00", true) },
		func() error { return e.SetStrokeWidth(3) },
		func() error { return e.SetDash("4 2") },
		func() error { return e.SetOpacity(1.5) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	want := document.Style{Stroke: "#ff0000", Fill: "#00ff00", StrokeWidth: 3, Dash: "4 2", Opacity: 1}
	if s.Style != want {
		t.Errorf("style = %+v, want %+v", s.Style, want)
	}

	if err := e.SetFill("#00ff00", false); err != nil {
		t.Fatal(err)
	}
	if s.Style.Fill != "none" {
		t.Errorf("disabled fill = %q, want none", s.Style.Fill)
	}

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Store().Layer(0)[0].Style.Fill; got != "#00ff00" {
		t.Errorf("fill after undo = %q, want #00ff00", got)
	}
	if err := e.SetStrokeWidth(0); err == nil {
		t.Error("zero stroke width accepted")
	}
}

func TestSetTextRefitsBubble(t *testing.T) {
	e := newTestEditor(t)
	b := document.NewBubble(geom.Pt(0, 0), geom.Pt(40, 30), "hi", document.DefaultStyle(), 0,
		document.TimeRange{Start: 0, End: 10})
	if err := e.Store().Insert(b, 0); err != nil {
		t.Fatal(err)
	}
	e.Select(b.ID, false)
	before := b.Bounds().Width

	if err := e.SetText("a much longer speech bubble label"); err != nil {
		t.Fatal(err)
	}
	props, ok := e.SelectionProperties()
	if !ok || !props.HasText || props.Text != "a much longer speech bubble label" {
		t.Fatalf("properties = %+v", props)
	}
	if b.Bounds().Width <= before {
		t.Errorf("bubble width %v did not grow from %v", b.Bounds().Width, before)
	}
}

func TestTimeRangeAndDisplayWindow(t *testing.T) {
	e := newTestEditor(t)
	s := addRect(t, e, 0, 0, 10, 10)
	e.Select(s.ID, false)

	if err := e.SetTimeRange(20, 30); err != nil {
		t.Fatal(err)
	}
	if len(e.Selection()) != 0 {
		t.Error("shape outside the display window stayed selected")
	}
	if id := e.HitTest(5, 5); id != "" {
		t.Errorf("HitTest found %s outside the window", id)
	}
	e.SetDisplayWindow(25, 40)
	if id := e.HitTest(5, 5); id != s.ID {
		t.Errorf("HitTest = %q, want %s", id, s.ID)
	}
}

func TestInvertedTimeRange(t *testing.T) {
	e := newTestEditor(t)
	s := addRect(t, e, 0, 0, 10, 10)
	e.Select(s.ID, false)

	if err := e.SetTimeRange(5, 2); err != nil {
		t.Fatalf("SetTimeRange(5, 2): %v", err)
	}
	if s.Time != (document.TimeRange{Start: 5, End: 2}) {
		t.Errorf("time = %+v, want stored as given", s.Time)
	}
	if !e.CanUndo() {
		t.Error("time range edit not recorded")
	}

	e.SetDisplayWindow(3, 4)
	if len(e.Store().Visible(3, 4)) != 0 {
		t.Error("inverted range shown in a window between its ends")
	}
	if id := e.HitTest(5, 5); id != "" {
		t.Errorf("HitTest found hidden shape %s", id)
	}
	if len(e.Selection()) != 0 {
		t.Error("hidden shape stayed selected")
	}

	e.SetDisplayWindow(0, 10)
	if id := e.HitTest(5, 5); id != s.ID {
		t.Errorf("HitTest = %q in a window covering both ends", id)
	}
}

func TestWheelScaleLeavesGroupedHolePathSize(t *testing.T) {
	e := newTestEditor(t)
	hole := addPoints(t, e, &document.CompoundPath{Subpaths: []geom.Subpath{
		{Points: pts(0, 0, 100, 0, 100, 100, 0, 100), Closed: true},
		{Points: pts(25, 25, 75, 25, 75, 75, 25, 75), Closed: true},
	}})
	r := addRect(t, e, 200, 0, 50, 50)
	e.Select(hole.ID, false)
	e.Select(r.ID, true)
	if err := e.Group(); err != nil {
		t.Fatalf("Group: %v", err)
	}

	before := hole.Bounds()
	if err := e.ScaleSelection(2); err != nil {
		t.Fatalf("ScaleSelection: %v", err)
	}

	after := hole.Bounds()
	if after.Width != before.Width || after.Height != before.Height {
		t.Errorf("hole path resized from %vx%v to %vx%v", before.Width, before.Height, after.Width, after.Height)
	}
	if got := rectOf(t, r); got.W != 100 || got.H != 100 {
		t.Errorf("rect = %vx%v, want 100x100", got.W, got.H)
	}
	if after.X == before.X {
		t.Error("hole path was not spread away from the group centre")
	}
}

func TestSetTextUpdatesEveryLabel(t *testing.T) {
	e := newTestEditor(t)
	a := addPoints(t, e, &document.Text{X: 0, Y: 0, Content: "a", FontSize: 16})
	b := addPoints(t, e, &document.Text{X: 50, Y: 50, Content: "b", FontSize: 16})
	r := addRect(t, e, 100, 100, 10, 10)
	e.SelectAll()

	if err := e.SetText("same"); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*document.Shape{a, b} {
		if got, _ := s.TextContent(); got != "same" {
			t.Errorf("text %s = %q, want same", s.ID, got)
		}
	}
	if _, ok := r.TextContent(); ok {
		t.Error("rect gained text")
	}
	if undo, _ := e.history.Depth(); undo != 1 {
		t.Errorf("undo depth = %d, want 1", undo)
	}
}

func TestLayerScoping(t *testing.T) {
	e := newTestEditor(t)
	if err := e.SetActiveLayer(1); err != nil {
		t.Fatal(err)
	}
	s := addRect(t, e, 0, 0, 10, 10)
	e.SetActiveLayer(0)

	if id := e.HitTest(5, 5); id != "" {
		t.Errorf("HitTest on inactive layer = %q", id)
	}
	if err := e.Select(s.ID, false); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("Select on inactive layer error = %v", err)
	}

	e.SetActiveLayer(1)
	e.Select(s.ID, false)
	if err := e.MoveSelectionToLayer(3); err != nil {
		t.Fatal(err)
	}
	if s.Layer != 3 || len(e.Selection()) != 0 {
		t.Errorf("after move: layer %d, selection %v", s.Layer, e.Selection())
	}

	if err := e.SetActiveLayer(4); !errors.Is(err, document.ErrInvalidLayer) {
		t.Errorf("SetActiveLayer(4) error = %v", err)
	}
	e.SetActiveLayer(3)
	e.SetLayerVisible(3, false)
	if id := e.HitTest(5, 5); id != "" {
		t.Errorf("HitTest on hidden layer = %q", id)
	}
	if !e.CanUndo() {
		t.Error("layer move not recorded")
	}
}

func TestBackgroundIsUndoable(t *testing.T) {
	e := newTestEditor(t)
	if err := e.SetBackground("#123456"); err != nil {
		t.Fatal(err)
	}
	if got := e.Render().Background; got != "#123456" {
		t.Errorf("background = %q", got)
	}
	e.Undo()
	if got := e.Store().Background(); got != document.DefaultBackground {
		t.Errorf("background after undo = %q", got)
	}
}

func TestLoadImportExport(t *testing.T) {
	e := newTestEditor(t)
	if err := e.LoadSample(); err != nil {
		t.Fatal(err)
	}
	if e.CanUndo() {
		t.Error("load recorded history")
	}
	data, err := e.Export()
	if err != nil {
		t.Fatal(err)
	}
	n := e.Store().Len()

	if err := e.Load([]byte(`{"elements": [{"type": "blob"}]}`)); err == nil {
		t.Fatal("bad document loaded")
	}
	if e.Store().Len() != n {
		t.Error("failed load changed the scene")
	}

	if err := e.Import(data, false); err != nil {
		t.Fatal(err)
	}
	if e.Store().Len() != 2*n {
		t.Errorf("after import: %d shapes, want %d", e.Store().Len(), 2*n)
	}
	e.Undo()
	if e.Store().Len() != n {
		t.Errorf("after undo: %d shapes, want %d", e.Store().Len(), n)
	}

	exported, err := e.Export()
	if err != nil {
		t.Fatal(err)
	}
	a, _ := document.Decode(data)
	b, _ := document.Decode(exported)
	if !document.Equal(a, b) {
		t.Error("export after import+undo differs from the loaded drawing")
	}
}

func TestRenderFlagsSelectionAndHandles(t *testing.T) {
	e := newTestEditor(t)
	s := addRect(t, e, 0, 0, 10, 10)
	e.Select(s.ID, false)

	f := e.Render()
	var paths, handles int
	for _, c := range f.Commands {
		switch c.Op {
		case OpPath:
			paths++
			if !c.Selected || c.ShapeID != s.ID {
				t.Errorf("path command %+v not flagged as selected", c)
			}
		case OpHandle:
			handles++
		}
	}
	if paths != 1 || handles != 1 {
		t.Errorf("paths=%d handles=%d, want 1 and 1", paths, handles)
	}
	if len(f.Transform) != 6 || f.Transform[0] != 1 {
		t.Errorf("transform = %v", f.Transform)
	}
}
