package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/geom"
)

// Tool is the drawing tool chosen in the toolbar.
type Tool string

const (
	ToolSelect   Tool = "select"
	ToolRect     Tool = "rect"
	ToolCircle   Tool = "circle"
	ToolLine     Tool = "line"
	ToolArrow    Tool = "arrow"
	ToolPolygon  Tool = "polygon"
	ToolPolyline Tool = "polyline"
	ToolPath     Tool = "path"
	ToolText     Tool = "text"
	ToolBubble   Tool = "bubble"
)

var ErrUnknownTool = errors.New("unknown tool")

// ParseTool validates a tool name.
func ParseTool(name string) (Tool, error) {
	t := Tool(name)
	switch t {
	case ToolSelect, ToolRect, ToolCircle, ToolLine, ToolArrow,
		ToolPolygon, ToolPolyline, ToolPath, ToolText, ToolBubble:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// collectsPoints reports whether the tool builds its shape from clicks.
func (t Tool) collectsPoints() bool {
	return t == ToolPolygon || t == ToolPolyline || t == ToolPath
}

// draggable reports whether the tool draws by press-drag-release.
func (t Tool) draggable() bool {
	return t == ToolRect || t == ToolCircle || t == ToolLine || t == ToolArrow || t == ToolBubble
}

// Mode is the interaction state. Exactly one is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeAuthoringPath
	ModeDragging
	ModeResizing
	ModeEditingVertex
	ModeMarqueeSelecting
	ModePanning
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDrawing:
		return "drawing"
	case ModeAuthoringPath:
		return "authoring-path"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModeEditingVertex:
		return "editing-vertex"
	case ModeMarqueeSelecting:
		return "marquee-selecting"
	case ModePanning:
		return "panning"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Button identifies a pointer button, numbered as in DOM events.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonAuxiliary Button = 1
	ButtonSecondary Button = 2
)

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Alt   bool `json:"alt"`
	Meta  bool `json:"meta"`
}

// PointerEvent is a pointer event in canvas (client) coordinates.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Modifiers
}

// WheelEvent is a wheel notch at a canvas position. Negative DeltaY scrolls
// up.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
	Modifiers
}

// KeyEvent is a key press, Key as in KeyboardEvent.key.
type KeyEvent struct {
	Key string `json:"key"`
	Modifiers
}

// gesture holds the state of the gesture in progress. Only the fields of the
// current mode are meaningful.
type gesture struct {
	origin geom.Point // content-space press position
	client geom.Point // last client position while panning
	moved  bool

	anchors []dragAnchor

	target      string // shape being resized or vertex-edited
	resizeStart document.Rect
	vertex      int
	vertexStart []geom.Point

	current  geom.Point // latest content position for previews
	additive bool

	points []geom.Point // authored points
	hover  geom.Point
	hasHov bool
}

// clickIntent is what the click that follows a press should do.
type clickIntent int

const (
	clickNone clickIntent = iota
	clickAddPoint
	clickInsertVertex
)

type dragAnchor struct {
	shape  *document.Shape
	anchor document.Anchor
}

func (e *Editor) content(x, y float64) geom.Point {
	return e.viewport.ClientToContent(geom.Pt(x, y))
}

// SetTool switches tools, abandoning any authoring and clearing the
// selection.
func (e *Editor) SetTool(t Tool) {
	e.Cancel()
	e.selection.Clear()
	e.tool = t
}

// Cancel abandons the gesture in progress without recording history. A
// drag, resize or vertex edit is rolled back to where it started.
func (e *Editor) Cancel() {
	switch e.mode {
	case ModeDragging:
		for _, a := range e.gesture.anchors {
			document.ApplyTranslation(a.shape, a.anchor, 0, 0)
		}
	case ModeResizing:
		if s, ok := e.store.Get(e.gesture.target); ok {
			if r, isRect := s.Geometry.(*document.Rect); isRect {
				*r = e.gesture.resizeStart
			}
		}
	case ModeEditingVertex:
		if s, ok := e.store.Get(e.gesture.target); ok {
			if v, editable := s.Editable(); editable {
				v.SetVertices(slices.Clone(e.gesture.vertexStart))
			}
		}
	}
	e.history.Abort()
	e.gesture = gesture{}
	e.mode = ModeIdle
}

// PointerDown starts a gesture according to the button, the handles under
// the pointer and the active tool.
func (e *Editor) PointerDown(ev PointerEvent) {
	e.intent = clickNone
	if e.mode == ModeAuthoringPath && e.tool.collectsPoints() && ev.Button == ButtonPrimary {
		// Points are collected on click.
		e.intent = clickAddPoint
		return
	}
	if e.mode != ModeIdle && e.mode != ModeAuthoringPath {
		e.Cancel()
	}

	if ev.Button == ButtonSecondary {
		e.mode = ModePanning
		e.gesture.client = geom.Pt(ev.X, ev.Y)
		return
	}

	p := e.content(ev.X, ev.Y)
	if e.beginHandleGesture(p) {
		return
	}

	if s, ok := e.single(); ok && ev.Shift && e.onBody(s, p) {
		if _, editable := s.Editable(); editable {
			e.intent = clickInsertVertex
			return
		}
	}

	if e.tool == ToolSelect || ev.Ctrl {
		e.selectAt(p, ev)
		return
	}

	switch {
	case e.tool.collectsPoints():
		if ev.Button == ButtonPrimary {
			e.intent = clickAddPoint
		}
	case e.tool == ToolText:
		if err := e.addText(p); err != nil {
			e.logger.Warn("add text", "error", err)
		}
	case e.tool.draggable():
		e.mode = ModeDrawing
		e.gesture = gesture{origin: p, current: p}
	}
}

// selectAt handles a select-mode press: pick and drag a nearby shape, start
// a marquee on empty canvas, otherwise deselect.
func (e *Editor) selectAt(p geom.Point, ev PointerEvent) {
	s, dist, ok := e.nearest(p)
	if ok && dist <= SelectThreshold {
		if ev.Shift {
			e.selection.Select(s.ID, true)
			return
		}
		if !e.selection.Contains(s.ID) {
			e.selection.Select(s.ID, false)
		}
		e.mode = ModeDragging
		e.gesture = gesture{origin: p}
		for _, sel := range e.selectedShapes() {
			e.gesture.anchors = append(e.gesture.anchors, dragAnchor{shape: sel, anchor: document.GetAnchor(sel)})
		}
		return
	}

	if ev.Button == ButtonPrimary && e.emptyCanvasAt(p) {
		if !ev.Shift {
			e.selection.Clear()
		}
		e.mode = ModeMarqueeSelecting
		e.gesture = gesture{origin: p, current: p, additive: ev.Shift}
		return
	}
	e.selection.Clear()
}

// emptyCanvasAt reports whether no visible shape on any layer covers p.
func (e *Editor) emptyCanvasAt(p geom.Point) bool {
	for _, s := range e.store.Visible(e.window.Start, e.window.End) {
		if s.Bounds().Contains(p) {
			return false
		}
	}
	return true
}

// onBody reports whether p lies on the painted body of a point-list shape:
// near its outline, or inside it when it is closed and filled.
func (e *Editor) onBody(s *document.Shape, p geom.Point) bool {
	v, ok := s.Editable()
	if !ok {
		return s.Bounds().Contains(p)
	}
	pts := v.Vertices()
	tolerance := max(s.Style.StrokeWidth/2, VertexHandleSize)
	n := len(pts)
	for i := 0; i+1 < n; i++ {
		if geom.PointToSegmentDistance(p, pts[i], pts[i+1]) <= tolerance {
			return true
		}
	}
	if v.ClosedOutline() && n > 2 {
		if geom.PointToSegmentDistance(p, pts[n-1], pts[0]) <= tolerance {
			return true
		}
		return s.Style.Fill != "none" && geom.PointInPolygon(p, pts)
	}
	return false
}

// handleAt finds the handle of the single selection under p: a vertex index
// (resize false) or the resize handle of a rect (resize true).
func (e *Editor) handleAt(p geom.Point) (s *document.Shape, vertex int, resize, ok bool) {
	s, single := e.single()
	if !single {
		return nil, 0, false, false
	}
	if r, isRect := s.Geometry.(*document.Rect); isRect {
		if resizeHandleRect(r).Contains(p) {
			return s, 0, true, true
		}
		return nil, 0, false, false
	}
	v, editable := s.Editable()
	if !editable {
		return nil, 0, false, false
	}
	pts := v.Vertices()
	for i := len(pts) - 1; i >= 0; i-- {
		if pts[i].Distance(p) <= VertexHandleSize {
			return s, i, false, true
		}
	}
	return nil, 0, false, false
}

func resizeHandleRect(r *document.Rect) geom.Rect {
	half := ResizeHandleSize / 2
	return geom.Rect{X: r.X + r.W - half, Y: r.Y + r.H - half, Width: ResizeHandleSize, Height: ResizeHandleSize}
}

func (e *Editor) beginHandleGesture(p geom.Point) bool {
	s, vertex, resize, ok := e.handleAt(p)
	if !ok {
		return false
	}
	e.gesture = gesture{origin: p, target: s.ID}
	if resize {
		e.mode = ModeResizing
		e.gesture.resizeStart = *s.Geometry.(*document.Rect)
		return true
	}
	v, _ := s.Editable()
	e.mode = ModeEditingVertex
	e.gesture.vertex = vertex
	e.gesture.vertexStart = slices.Clone(v.Vertices())
	return true
}

// PointerMove advances the current gesture. Continuous edits open their
// transaction on the first movement.
func (e *Editor) PointerMove(ev PointerEvent) {
	p := e.content(ev.X, ev.Y)
	g := &e.gesture
	dx, dy := p.X-g.origin.X, p.Y-g.origin.Y

	switch e.mode {
	case ModePanning:
		e.viewport.PanBy(ev.X-g.client.X, ev.Y-g.client.Y)
		g.client = geom.Pt(ev.X, ev.Y)

	case ModeResizing:
		s, ok := e.store.Get(g.target)
		if !ok {
			e.Cancel()
			return
		}
		e.beginGesture()
		r := s.Geometry.(*document.Rect)
		r.Resize(g.resizeStart.W+dx, g.resizeStart.H+dy)

	case ModeEditingVertex:
		s, ok := e.store.Get(g.target)
		if !ok {
			e.Cancel()
			return
		}
		v, editable := s.Editable()
		if !editable || g.vertex >= len(g.vertexStart) {
			e.Cancel()
			return
		}
		e.beginGesture()
		pts := slices.Clone(g.vertexStart)
		pts[g.vertex] = pts[g.vertex].Add(dx, dy)
		v.SetVertices(pts)

	case ModeDragging:
		e.beginGesture()
		for _, a := range g.anchors {
			document.ApplyTranslation(a.shape, a.anchor, dx, dy)
		}

	case ModeMarqueeSelecting, ModeDrawing:
		g.current = p

	case ModeAuthoringPath:
		g.hover, g.hasHov = p, true
	}
}

func (e *Editor) beginGesture() {
	if e.gesture.moved {
		return
	}
	e.gesture.moved = true
	if err := e.history.Begin(); err != nil {
		e.logger.Error("begin transaction", "error", err)
	}
}

// PointerUp finishes the current gesture.
func (e *Editor) PointerUp(ev PointerEvent) {
	p := e.content(ev.X, ev.Y)
	g := e.gesture

	switch e.mode {
	case ModeDragging, ModeResizing, ModeEditingVertex:
		if g.moved {
			if _, err := e.history.Commit(); err != nil {
				e.logger.Error("commit gesture", "error", err)
			}
		}

	case ModeMarqueeSelecting:
		e.finishMarquee(geom.RectFromPoints(g.origin, p), g.additive)

	case ModeDrawing:
		if err := e.finishDrawing(g.origin, p); err != nil {
			e.logger.Debug("drawing discarded", "tool", e.tool, "error", err)
		}

	case ModeAuthoringPath:
		return

	case ModePanning:
		if len(g.points) > 0 {
			e.mode = ModeAuthoringPath
			e.gesture = gesture{points: g.points}
			return
		}
	}

	e.gesture = gesture{}
	e.mode = ModeIdle
}

func (e *Editor) finishMarquee(box geom.Rect, additive bool) {
	if !e.store.LayerVisible(e.activeLayer) {
		return
	}
	for _, s := range e.store.ShapesInRect(e.activeLayer, box) {
		if !s.Time.Overlaps(e.window.Start, e.window.End) {
			continue
		}
		if additive {
			e.selection.Add(s.ID)
		} else {
			e.selection.Select(s.ID, true)
		}
	}
}

// Click adds a point while authoring a polygon, polyline or path, or with
// shift inserts a vertex into the selected point-list shape.
func (e *Editor) Click(ev PointerEvent) {
	intent := e.intent
	e.intent = clickNone
	if ev.Button != ButtonPrimary {
		return
	}
	p := e.content(ev.X, ev.Y)

	switch intent {
	case clickAddPoint:
		e.mode = ModeAuthoringPath
		e.gesture.points = append(e.gesture.points, p)
		e.gesture.hover, e.gesture.hasHov = p, true
		return
	case clickNone:
		return
	}

	s, ok := e.single()
	if !ok || !e.onBody(s, p) {
		return
	}
	if err := e.InsertVertex(s.ID, p); err != nil {
		e.logger.Debug("insert vertex", "error", err)
	}
}

// DoubleClick deletes the vertex under the pointer, or finishes the
// polygon, polyline or path being authored.
func (e *Editor) DoubleClick(ev PointerEvent) {
	p := e.content(ev.X, ev.Y)

	if s, vertex, resize, ok := e.handleAt(p); ok && !resize {
		if err := e.DeleteVertex(s.ID, vertex); err != nil {
			e.logger.Debug("delete vertex refused", "error", err)
		}
		e.mode = ModeIdle
		e.gesture = gesture{}
		return
	}

	if e.mode != ModeAuthoringPath || !e.tool.collectsPoints() {
		return
	}
	if err := e.finishAuthoring(); err != nil {
		e.logger.Debug("path not finished", "error", err)
	}
}

// Wheel scales the selection when shift is held over a selected shape and
// zooms about the pointer otherwise.
func (e *Editor) Wheel(ev WheelEvent) {
	p := e.content(ev.X, ev.Y)
	factor := WheelShrink
	if ev.DeltaY < 0 {
		factor = WheelGrow
	}

	if ev.Shift && e.overSelection(p) {
		if err := e.ScaleSelection(factor); err != nil {
			e.logger.Warn("scale selection", "error", err)
		}
		return
	}
	e.viewport.ZoomAt(p, factor)
}

func (e *Editor) overSelection(p geom.Point) bool {
	for _, s := range e.selectedShapes() {
		if s.Bounds().Contains(p) {
			return true
		}
	}
	return false
}

// settleGesture ends the gesture in progress before a keyboard command runs.
// A drag, resize or vertex edit that moved is kept as its own undo step;
// anything else is cancelled.
func (e *Editor) settleGesture() {
	switch e.mode {
	case ModeIdle:
		return
	case ModeDragging, ModeResizing, ModeEditingVertex:
		if e.gesture.moved {
			if _, err := e.history.Commit(); err != nil {
				e.logger.Error("commit gesture", "error", err)
			}
			e.gesture = gesture{}
			e.mode = ModeIdle
			return
		}
	}
	e.Cancel()
}

// KeyDown handles editing shortcuts and reports whether the key was used.
func (e *Editor) KeyDown(ev KeyEvent) (bool, error) {
	mod := ev.Ctrl || ev.Meta
	switch {
	case ev.Key == "Delete" || ev.Key == "Backspace":
		e.settleGesture()
		return true, e.DeleteSelection()
	case ev.Key == "Escape":
		e.Cancel()
		return true, nil
	case mod && (ev.Key == "c" || ev.Key == "C"):
		return true, e.Copy()
	case mod && (ev.Key == "v" || ev.Key == "V"):
		e.settleGesture()
		return true, e.Paste()
	case mod && (ev.Key == "z" || ev.Key == "Z") && ev.Shift:
		return true, e.Redo()
	case mod && (ev.Key == "z" || ev.Key == "Z"):
		return true, e.Undo()
	case mod && (ev.Key == "y" || ev.Key == "Y"):
		return true, e.Redo()
	}
	return false, nil
}

// --- Shape creation ---

func (e *Editor) newShape(g document.Geometry) *document.Shape {
	return document.New(g, e.inputs.Style().Style(), e.activeLayer, e.inputs.TimeRange())
}

// insertAndSelect adds a shape to the active layer as one undo step and
// makes it the selection.
func (e *Editor) insertAndSelect(s *document.Shape) error {
	err := e.transaction(func() error {
		return e.store.Insert(s, e.activeLayer)
	})
	if err != nil {
		return err
	}
	e.selection.Select(s.ID, false)
	return nil
}

func (e *Editor) labelText() string {
	if t := e.inputs.Text(); t != "" {
		return t
	}
	return DefaultText
}

func (e *Editor) addText(p geom.Point) error {
	s := e.newShape(&document.Text{X: p.X, Y: p.Y, Content: e.labelText(), FontSize: document.DefaultFontSize})
	return e.insertAndSelect(s)
}

// draftShape builds the shape a press-drag-release of the current tool
// would create.
func (e *Editor) draftShape(a, b geom.Point) *document.Shape {
	switch e.tool {
	case ToolRect:
		box := geom.RectFromPoints(a, b)
		return e.newShape(&document.Rect{X: box.X, Y: box.Y, W: box.Width, H: box.Height})
	case ToolCircle:
		return e.newShape(&document.Circle{CX: a.X, CY: a.Y, R: a.Distance(b)})
	case ToolLine, ToolArrow:
		s := e.newShape(&document.Line{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y, Arrow: e.tool == ToolArrow})
		s.Style.Fill = "none"
		return s
	case ToolBubble:
		return document.NewBubble(a, b, e.labelText(), e.inputs.Style().Style(), e.activeLayer, e.inputs.TimeRange())
	}
	return nil
}

// degenerate reports whether a drafted shape is too small to keep.
func degenerate(s *document.Shape) bool {
	switch g := s.Geometry.(type) {
	case *document.Rect:
		return g.W < document.MinSize || g.H < document.MinSize
	case *document.Circle:
		return g.R < document.MinSize
	case *document.Line:
		return g.Bounds().Width < document.MinSize && g.Bounds().Height < document.MinSize
	case *document.Group:
		if r, ok := g.Children[0].Geometry.(*document.Rect); ok {
			return r.W < document.MinSize || r.H < document.MinSize
		}
	}
	return false
}

func (e *Editor) finishDrawing(a, b geom.Point) error {
	s := e.draftShape(a, b)
	if s == nil {
		return nil
	}
	if degenerate(s) {
		return ErrDegenerateShape
	}
	return e.insertAndSelect(s)
}

// finishAuthoring turns the collected points into a shape once the tool's
// minimum is met. Consecutive duplicates, as produced by the clicks of a
// double-click, are collapsed first.
func (e *Editor) finishAuthoring() error {
	pts := slices.Compact(slices.Clone(e.gesture.points))
	minPoints := 2
	if e.tool == ToolPolygon {
		minPoints = 3
	}
	if len(pts) < minPoints {
		return ErrInsufficientVertices
	}

	var s *document.Shape
	switch e.tool {
	case ToolPolygon:
		s = e.newShape(&document.Polygon{Points: pts})
	case ToolPolyline:
		s = e.newShape(&document.Polyline{Points: pts})
		s.Style.Fill = "none"
	case ToolPath:
		s = e.newShape(&document.Path{Points: pts})
		s.Style.Fill = "none"
	}

	e.gesture = gesture{}
	e.mode = ModeIdle
	return e.insertAndSelect(s)
}

// --- Overlays ---

// overlayCommands draws what is not part of the scene: handles of the
// single selection, the marquee and gesture previews.
func (e *Editor) overlayCommands() []DrawCommand {
	var out []DrawCommand
	g := e.gesture

	switch e.mode {
	case ModeMarqueeSelecting:
		box := geom.RectFromPoints(g.origin, g.current)
		r := document.Rect{X: box.X, Y: box.Y, W: box.Width, H: box.Height}
		out = append(out, DrawCommand{
			Op: OpMarquee, Path: ToPathCommands(r.Outline()),
			Fill: "none", Stroke: "#3399ff", StrokeWidth: 1, Dash: []float64{4, 2}, Opacity: 1,
		})

	case ModeDrawing:
		if s := e.draftShape(g.origin, g.current); s != nil {
			sg := BuildSceneGraph([]*document.Shape{s}, nil)
			for _, cmd := range CompileDrawCommands(sg) {
				cmd.Op, cmd.ShapeID = OpPreview, ""
				out = append(out, cmd)
			}
		}

	case ModeAuthoringPath:
		pts := slices.Clone(g.points)
		if g.hasHov {
			pts = append(pts, g.hover)
		}
		if len(pts) > 0 {
			st := e.inputs.Style().Style()
			out = append(out, DrawCommand{
				Op: OpPreview, Path: ToPathCommands(geom.Polyline(pts, false)),
				Fill: "none", Stroke: st.Stroke, StrokeWidth: st.StrokeWidth, Opacity: 1,
			})
		}
	}

	s, ok := e.single()
	if !ok {
		return out
	}
	if r, isRect := s.Geometry.(*document.Rect); isRect {
		h := resizeHandleRect(r)
		hr := document.Rect{X: h.X, Y: h.Y, W: h.Width, H: h.Height}
		out = append(out, DrawCommand{
			Op: OpHandle, ShapeID: s.ID, Path: ToPathCommands(hr.Outline()),
			Fill: "#ffffff", Stroke: "#3399ff", StrokeWidth: 1, Opacity: 1,
		})
	} else if v, editable := s.Editable(); editable {
		for _, pt := range v.Vertices() {
			c := document.Circle{CX: pt.X, CY: pt.Y, R: VertexHandleSize}
			out = append(out, DrawCommand{
				Op: OpHandle, ShapeID: s.ID, Path: ToPathCommands(c.Outline()),
				Fill: "#ffffff", Stroke: "#3399ff", StrokeWidth: 1, Opacity: 1,
			})
		}
	}
	return out
}
