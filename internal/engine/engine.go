// Package engine implements the editor core: the selection and transform
// engine and the interaction state machine that drive the scene store and
// history, plus the render projection consumed by the frontend.
package engine

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/geom"
	"github.com/vecnote/vecnote/internal/history"
	"github.com/vecnote/vecnote/internal/scene"
)

// Editor tunables.
const (
	SelectThreshold  = 10.0
	PasteOffset      = 10.0
	ResizeHandleSize = 8.0
	VertexHandleSize = 5.0
	WheelGrow        = 1.1
	WheelShrink      = 0.9
	DefaultText      = "text"
)

var (
	ErrInsufficientVertices = errors.New("shape is at its minimum vertex count")
	ErrDegenerateShape      = errors.New("shape is below the minimum size")
	ErrNothingSelected      = errors.New("nothing selected")
)

// IsNotice reports whether err should be shown to the user. Refused vertex
// deletions and degenerate drawings are dropped silently.
func IsNotice(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrInsufficientVertices) &&
		!errors.Is(err, ErrDegenerateShape)
}

// Editor owns the whole editing state: the scene, its history, the
// selection, the viewport and whatever gesture is in progress. It is driven
// from a single goroutine; no method is safe for concurrent use.
type Editor struct {
	store   *scene.Store
	history *history.Manager
	inputs  Inputs
	logger  *slog.Logger

	viewport    geom.Viewport
	tool        Tool
	mode        Mode
	activeLayer int
	window      document.TimeRange

	selection Selection
	gesture   gesture
	intent    clickIntent

	clipboard  []document.Element
	pasteCount int
}

// Option configures an Editor.
type Option func(*Editor)

// WithInputs sets the form controls read when shapes are created.
func WithInputs(in Inputs) Option {
	return func(e *Editor) { e.inputs = in }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// NewEditor creates an editor with an empty scene and the select tool.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		store:    scene.New(),
		inputs:   DefaultInputs(),
		logger:   slog.Default(),
		viewport: geom.NewViewport(),
		tool:     ToolSelect,
		mode:     ModeIdle,
		window:   document.TimeRange{Start: 0, End: 10},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history = history.New(e)
	return e
}

// --- History target ---

// Capture serializes the scene for history.
func (e *Editor) Capture() ([]byte, error) {
	return e.store.Snapshot().Encode()
}

// Apply restores a captured scene. Selection and any gesture are dropped.
func (e *Editor) Apply(state []byte) error {
	doc, err := document.Decode(state)
	if err != nil {
		return err
	}
	e.resetInteraction()
	return e.store.Restore(doc)
}

// transaction runs fn as one undo step. When fn fails the store is expected
// to be untouched and nothing is recorded.
func (e *Editor) transaction(fn func() error) error {
	if err := e.history.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		e.history.Abort()
		return err
	}
	_, err := e.history.Commit()
	return err
}

// --- Documents ---

// Load replaces the scene with a document, clearing history. A document
// that fails to decode leaves the editor untouched.
func (e *Editor) Load(data []byte) error {
	doc, err := document.Decode(data)
	if err != nil {
		return err
	}
	shapes, err := doc.Shapes()
	if err != nil {
		return err
	}
	e.resetInteraction()
	e.store.Clear()
	e.store.SetBackground(doc.Background)
	e.store.Append(shapes)
	e.history.Clear()
	e.logger.Info("drawing loaded", "shapes", e.store.Len())
	return nil
}

// LoadSample loads the built-in sample drawing.
func (e *Editor) LoadSample() error {
	data, err := document.NewSampleDocument().Encode()
	if err != nil {
		return err
	}
	return e.Load(data)
}

// Import merges a document into the current layers as one undo step. With
// useBackground the document's background replaces the current one.
func (e *Editor) Import(data []byte, useBackground bool) error {
	doc, err := document.Decode(data)
	if err != nil {
		return err
	}
	shapes, err := doc.Shapes()
	if err != nil {
		return err
	}
	return e.transaction(func() error {
		e.store.Append(shapes)
		if useBackground {
			e.store.SetBackground(doc.Background)
		}
		e.logger.Info("drawing imported", "shapes", len(shapes))
		return nil
	})
}

// Export serializes the live scene in the flat document format.
func (e *Editor) Export() ([]byte, error) {
	return e.store.Snapshot().Encode()
}

// Document returns the live scene as a document.
func (e *Editor) Document() *document.Document {
	return e.store.Snapshot()
}

// --- Queries ---

// Store exposes the scene store for read access.
func (e *Editor) Store() *scene.Store {
	return e.store
}

// Viewport returns the current pan/zoom.
func (e *Editor) Viewport() geom.Viewport {
	return e.viewport
}

// Tool returns the active tool.
func (e *Editor) Tool() Tool {
	return e.tool
}

// Mode returns the interaction state.
func (e *Editor) Mode() Mode {
	return e.mode
}

// ActiveLayer returns the layer that receives new shapes and scopes
// selection.
func (e *Editor) ActiveLayer() int {
	return e.activeLayer
}

// Selection returns the selected handles in selection order.
func (e *Editor) Selection() []string {
	return e.selection.IDs()
}

// Primary returns the primary selected handle, or "".
func (e *Editor) Primary() string {
	return e.selection.Primary()
}

// CanUndo reports whether an undo step exists.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether a redo step exists.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// DisplayWindow returns the time window used for visibility.
func (e *Editor) DisplayWindow() document.TimeRange {
	return e.window
}

// selectedShapes resolves the selection, in selection order.
func (e *Editor) selectedShapes() []*document.Shape {
	var out []*document.Shape
	for _, id := range e.selection.IDs() {
		if s, ok := e.store.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// single returns the only selected shape.
func (e *Editor) single() (*document.Shape, bool) {
	id, ok := e.selection.Single()
	if !ok {
		return nil, false
	}
	return e.store.Get(id)
}

// pruneSelection drops handles whose shapes left the store, the active
// layer or the display window.
func (e *Editor) pruneSelection() {
	e.selection.Retain(func(id string) bool {
		layer, _, ok := e.store.IndexOf(id)
		if !ok || layer != e.activeLayer {
			return false
		}
		s, _ := e.store.Get(id)
		return s.Time.Overlaps(e.window.Start, e.window.End)
	})
}

// candidates are the shapes that can be hit or marquee-selected: visible
// shapes of the active layer, back to front.
func (e *Editor) candidates() []*document.Shape {
	if !e.store.LayerVisible(e.activeLayer) {
		return nil
	}
	var out []*document.Shape
	for _, s := range e.store.Layer(e.activeLayer) {
		if s.Time.Overlaps(e.window.Start, e.window.End) {
			out = append(out, s)
		}
	}
	return out
}

// nearest returns the candidate closest to p and its distance.
func (e *Editor) nearest(p geom.Point) (*document.Shape, float64, bool) {
	return geom.Nearest(p, e.candidates(), (*document.Shape).Bounds)
}

// HitTest returns the handle of the shape the select tool would pick at the
// canvas position, or "".
func (e *Editor) HitTest(x, y float64) string {
	s, dist, ok := e.nearest(e.viewport.ClientToContent(geom.Pt(x, y)))
	if !ok || dist > SelectThreshold {
		return ""
	}
	return s.ID
}

// SelectionBounds returns the box around the selection.
func (e *Editor) SelectionBounds() (geom.Rect, bool) {
	shapes := e.selectedShapes()
	if len(shapes) == 0 {
		return geom.Rect{}, false
	}
	box := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		box = box.Union(s.Bounds())
	}
	return box, true
}

// Render builds the frame for the current state: visible shapes in
// painter's order followed by gesture previews and handles.
func (e *Editor) Render() Frame {
	sg := BuildSceneGraph(e.store.Visible(e.window.Start, e.window.End), e.selection.Contains)
	commands := CompileDrawCommands(sg)
	commands = append(commands, e.overlayCommands()...)
	return Frame{
		Background: e.store.Background(),
		Transform:  e.viewport.Matrix().ToSlice(),
		Commands:   commands,
	}
}

// RenderJSON is Render serialized for the frontend.
func (e *Editor) RenderJSON() string {
	out, err := FrameToJSON(e.Render())
	if err != nil {
		e.logger.Error("encode frame", "error", err)
	}
	return out
}

// resetInteraction deselects and abandons any gesture.
func (e *Editor) resetInteraction() {
	e.selection.Clear()
	e.gesture = gesture{}
	e.intent = clickNone
	e.mode = ModeIdle
}

// orderedSelection returns the selected handles sorted by z-index.
func (e *Editor) orderedSelection() []string {
	ids := e.selection.IDs()
	slices.SortStableFunc(ids, func(a, b string) int {
		_, ia, _ := e.store.IndexOf(a)
		_, ib, _ := e.store.IndexOf(b)
		return ia - ib
	})
	return ids
}
