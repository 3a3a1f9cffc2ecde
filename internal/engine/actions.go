package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/geom"
	"github.com/vecnote/vecnote/internal/scene"
)

// --- Selection ---

// Select selects a shape of the active layer, toggling it when additive.
func (e *Editor) Select(id string, additive bool) error {
	s, ok := e.store.Get(id)
	if !ok || s.Layer != e.activeLayer {
		return fmt.Errorf("%w: %s", scene.ErrNotFound, id)
	}
	e.selection.Select(id, additive)
	return nil
}

// Deselect clears the selection.
func (e *Editor) Deselect() {
	e.selection.Clear()
}

// SelectAll selects every candidate shape of the active layer.
func (e *Editor) SelectAll() {
	e.selection.Clear()
	for _, s := range e.candidates() {
		e.selection.Add(s.ID)
	}
}

// Properties are the values of the primary selected shape, for binding the
// style, time and text controls.
type Properties struct {
	ID      string             `json:"id"`
	Kind    document.Kind      `json:"kind"`
	Style   document.Style     `json:"style"`
	Time    document.TimeRange `json:"time"`
	Text    string             `json:"text,omitempty"`
	HasText bool               `json:"hasText"`
	Count   int                `json:"count"`
}

// SelectionProperties describes the primary selected shape.
func (e *Editor) SelectionProperties() (Properties, bool) {
	s, ok := e.store.Get(e.selection.Primary())
	if !ok {
		return Properties{}, false
	}
	text, hasText := s.TextContent()
	return Properties{
		ID:      s.ID,
		Kind:    s.Kind(),
		Style:   s.Style,
		Time:    s.Time,
		Text:    text,
		HasText: hasText,
		Count:   e.selection.Len(),
	}, true
}

// --- Editing ---

// DeleteSelection removes every selected shape as one undo step.
func (e *Editor) DeleteSelection() error {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		return nil
	}
	err := e.transaction(func() error {
		e.store.RemoveMany(ids)
		return nil
	})
	e.selection.Clear()
	return err
}

// Copy puts the serialized selection on the clipboard in z-order and
// restarts the paste offset.
func (e *Editor) Copy() error {
	ids := e.orderedSelection()
	if len(ids) == 0 {
		return nil
	}
	e.clipboard = e.clipboard[:0]
	for _, id := range ids {
		if s, ok := e.store.Get(id); ok {
			e.clipboard = append(e.clipboard, document.Serialize(s))
		}
	}
	e.pasteCount = 0
	return nil
}

// Paste inserts copies of the clipboard into the active layer, each paste
// offset a further step from the copied shapes, and selects them.
func (e *Editor) Paste() error {
	if len(e.clipboard) == 0 {
		return nil
	}
	off := PasteOffset * float64(e.pasteCount+1)

	shapes := make([]*document.Shape, 0, len(e.clipboard))
	for _, el := range e.clipboard {
		s, err := document.Deserialize(el)
		if err != nil {
			return fmt.Errorf("paste: %w", err)
		}
		s.Geometry.Translate(off, off)
		s.SetLayer(e.activeLayer)
		shapes = append(shapes, s)
	}

	err := e.transaction(func() error {
		for _, s := range shapes {
			if err := e.store.Insert(s, e.activeLayer); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.pasteCount++
	e.selection.Clear()
	for _, s := range shapes {
		e.selection.Add(s.ID)
	}
	return nil
}

// Undo steps back one transaction. Any gesture in progress is abandoned.
func (e *Editor) Undo() error {
	e.Cancel()
	_, err := e.history.Undo()
	return err
}

// Redo re-applies the last undone transaction.
func (e *Editor) Redo() error {
	e.Cancel()
	_, err := e.history.Redo()
	return err
}

// BringToFront raises the selection to the top of its layer, keeping its
// relative order.
func (e *Editor) BringToFront() error {
	ids := e.orderedSelection()
	return e.transaction(func() error {
		for _, id := range ids {
			e.store.BringToFront(id)
		}
		return nil
	})
}

// SendToBack lowers the selection to the bottom of its layer, keeping its
// relative order.
func (e *Editor) SendToBack() error {
	ids := e.orderedSelection()
	slices.Reverse(ids)
	return e.transaction(func() error {
		for _, id := range ids {
			e.store.SendToBack(id)
		}
		return nil
	})
}

// Group wraps the selection in a group and selects it.
func (e *Editor) Group() error {
	var g *document.Shape
	err := e.transaction(func() (err error) {
		g, err = e.store.Group(e.orderedSelection())
		return err
	})
	if err != nil {
		return err
	}
	e.selection.Select(g.ID, false)
	return nil
}

// Ungroup dissolves every selected group and deselects.
func (e *Editor) Ungroup() error {
	var groups []string
	for _, s := range e.selectedShapes() {
		if s.Kind() == document.KindGroup {
			groups = append(groups, s.ID)
		}
	}
	if len(groups) == 0 {
		return fmt.Errorf("%w: no group selected", scene.ErrIncompatibleShapes)
	}
	err := e.transaction(func() error {
		for _, id := range groups {
			if _, err := e.store.Ungroup(id); err != nil {
				return err
			}
		}
		return nil
	})
	e.selection.Clear()
	return err
}

// ToHolePath merges the selected closed outlines into one even-odd path
// and selects it.
func (e *Editor) ToHolePath() error {
	var compound *document.Shape
	err := e.transaction(func() (err error) {
		compound, err = e.store.ToHolePath(e.orderedSelection())
		return err
	})
	if err != nil {
		return err
	}
	e.selection.Select(compound.ID, false)
	return nil
}

// FromHolePath splits the selected even-odd path back into polygons and
// selects them.
func (e *Editor) FromHolePath() error {
	s, ok := e.single()
	if !ok {
		return fmt.Errorf("%w: select one hole path", scene.ErrIncompatibleShapes)
	}
	var parts []*document.Shape
	err := e.transaction(func() (err error) {
		parts, err = e.store.FromHolePath(s.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.selection.Clear()
	for _, p := range parts {
		e.selection.Add(p.ID)
	}
	return nil
}

func (e *Editor) editable(id string) (document.VertexEditable, error) {
	s, ok := e.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", scene.ErrNotFound, id)
	}
	v, ok := s.Editable()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no editable vertices", scene.ErrIncompatibleShapes, s.Kind())
	}
	return v, nil
}

// DeleteVertex removes one vertex, refusing to go below the shape's
// minimum.
func (e *Editor) DeleteVertex(id string, index int) error {
	v, err := e.editable(id)
	if err != nil {
		return err
	}
	pts := v.Vertices()
	if index < 0 || index >= len(pts) {
		return fmt.Errorf("vertex %d out of range", index)
	}
	if len(pts) <= v.MinVertices() {
		return ErrInsufficientVertices
	}
	return e.transaction(func() error {
		v.SetVertices(slices.Delete(slices.Clone(pts), index, index+1))
		return nil
	})
}

// InsertVertex adds p to the closest edge of the shape.
func (e *Editor) InsertVertex(id string, p geom.Point) error {
	v, err := e.editable(id)
	if err != nil {
		return err
	}
	pts := v.Vertices()
	at := geom.ClosestEdge(p, pts, v.ClosedOutline())
	return e.transaction(func() error {
		v.SetVertices(slices.Insert(slices.Clone(pts), at, p))
		return nil
	})
}

// ScaleSelection scales each selected shape about its own centre as one
// undo step. Hole paths are left alone.
func (e *Editor) ScaleSelection(factor float64) error {
	var shapes []*document.Shape
	for _, s := range e.selectedShapes() {
		if s.Scalable() {
			shapes = append(shapes, s)
		}
	}
	if len(shapes) == 0 {
		return nil
	}
	return e.transaction(func() error {
		for _, s := range shapes {
			document.ApplyScale(s, factor)
		}
		return nil
	})
}

// Translate moves the selection by (dx, dy) as one undo step.
func (e *Editor) Translate(dx, dy float64) error {
	shapes := e.selectedShapes()
	if len(shapes) == 0 {
		return nil
	}
	return e.transaction(func() error {
		for _, s := range shapes {
			s.Geometry.Translate(dx, dy)
		}
		return nil
	})
}

// --- Layers and scene ---

// MoveSelectionToLayer moves the selection to the top of another layer and
// deselects.
func (e *Editor) MoveSelectionToLayer(layer int) error {
	ids := e.orderedSelection()
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	err := e.transaction(func() error {
		return e.store.MoveToLayer(ids, layer)
	})
	if err != nil {
		return err
	}
	e.selection.Clear()
	return nil
}

// SetActiveLayer changes the layer that receives new shapes and scopes
// selection. The selection is cleared.
func (e *Editor) SetActiveLayer(layer int) error {
	if layer < 0 || layer >= document.LayerCount {
		return fmt.Errorf("layer %d: %w", layer, document.ErrInvalidLayer)
	}
	e.Cancel()
	e.selection.Clear()
	e.activeLayer = layer
	return nil
}

// SetLayerVisible shows or hides a layer. Visibility is view state and is
// not recorded in history. Hiding the active layer deselects.
func (e *Editor) SetLayerVisible(layer int, visible bool) error {
	if layer < 0 || layer >= document.LayerCount {
		return fmt.Errorf("layer %d: %w", layer, document.ErrInvalidLayer)
	}
	e.store.SetLayerVisible(layer, visible)
	if !visible && layer == e.activeLayer {
		e.Cancel()
		e.selection.Clear()
	}
	return nil
}

// LayerVisible reports a layer's visibility flag.
func (e *Editor) LayerVisible(layer int) bool {
	return e.store.LayerVisible(layer)
}

// SetBackground changes the canvas colour as one undo step.
func (e *Editor) SetBackground(color string) error {
	return e.transaction(func() error {
		e.store.SetBackground(color)
		return nil
	})
}

// SetDisplayWindow sets the time window; shapes outside it are neither
// drawn nor selectable.
func (e *Editor) SetDisplayWindow(start, end float64) {
	e.window = document.TimeRange{Start: start, End: end}
	e.pruneSelection()
}

// --- Selection properties ---

// restyle applies fn to the style of every selected shape as one undo step.
func (e *Editor) restyle(fn func(*document.Style)) error {
	shapes := e.selectedShapes()
	if len(shapes) == 0 {
		return nil
	}
	return e.transaction(func() error {
		for _, s := range shapes {
			fn(&s.Style)
		}
		return nil
	})
}

func (e *Editor) SetStroke(color string) error {
	return e.restyle(func(st *document.Style) { st.Stroke = color })
}

// SetFill sets the fill colour, or "none" when the fill is disabled.
func (e *Editor) SetFill(color string, enabled bool) error {
	if !enabled || color == "" {
		color = "none"
	}
	return e.restyle(func(st *document.Style) { st.Fill = color })
}

func (e *Editor) SetStrokeWidth(width float64) error {
	if width <= 0 || math.IsNaN(width) {
		return fmt.Errorf("invalid stroke width %v", width)
	}
	return e.restyle(func(st *document.Style) { st.StrokeWidth = width })
}

// SetDash sets the dash pattern; an empty pattern draws solid strokes.
func (e *Editor) SetDash(dash string) error {
	return e.restyle(func(st *document.Style) { st.Dash = dash })
}

// SetOpacity sets the opacity, clamped to [0, 1].
func (e *Editor) SetOpacity(opacity float64) error {
	if math.IsNaN(opacity) {
		return fmt.Errorf("invalid opacity %v", opacity)
	}
	opacity = min(max(opacity, 0), 1)
	return e.restyle(func(st *document.Style) { st.Opacity = opacity })
}

// SetTimeRange sets the time range of the selection and of every
// descendant of selected groups. An end before the start is stored as
// given; such shapes only show in windows that overlap both ends.
func (e *Editor) SetTimeRange(start, end float64) error {
	shapes := e.selectedShapes()
	if len(shapes) == 0 {
		return nil
	}
	tr := document.TimeRange{Start: start, End: end}
	err := e.transaction(func() error {
		for _, s := range shapes {
			s.Walk(func(c *document.Shape) { c.Time = tr })
		}
		return nil
	})
	e.pruneSelection()
	return err
}

// SetText replaces the label of every selected text and bubble as one undo
// step.
func (e *Editor) SetText(content string) error {
	var labelled []*document.Shape
	for _, s := range e.selectedShapes() {
		if _, hasText := s.TextContent(); hasText {
			labelled = append(labelled, s)
		}
	}
	if len(labelled) == 0 {
		return nil
	}
	return e.transaction(func() error {
		for _, s := range labelled {
			document.SetText(s, content)
		}
		return nil
	})
}
