// Package scene owns the shapes of a drawing: four ordered layers of
// top-level shapes, their visibility flags and the background colour.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/geom"
)

var (
	ErrIncompatibleShapes = errors.New("incompatible shapes")
	ErrTooFewShapes       = errors.New("at least two shapes are required")
	ErrNotFound           = errors.New("shape not found")
)

// Store is the single owner of shape lifetime. Shapes are addressed by
// handle; a layer's slice order is its z-order, back to front.
type Store struct {
	layers     [document.LayerCount][]*document.Shape
	visible    [document.LayerCount]bool
	background string
}

// New returns an empty store with every layer visible.
func New() *Store {
	s := &Store{background: document.DefaultBackground}
	for i := range s.visible {
		s.visible[i] = true
	}
	return s
}

func validLayer(layer int) bool {
	return layer >= 0 && layer < document.LayerCount
}

func (s *Store) Background() string {
	return s.background
}

func (s *Store) SetBackground(color string) {
	s.background = color
}

// Layer returns the shapes of one layer, back to front. The slice is a copy.
func (s *Store) Layer(layer int) []*document.Shape {
	if !validLayer(layer) {
		return nil
	}
	return slices.Clone(s.layers[layer])
}

func (s *Store) LayerVisible(layer int) bool {
	return validLayer(layer) && s.visible[layer]
}

func (s *Store) SetLayerVisible(layer int, visible bool) {
	if validLayer(layer) {
		s.visible[layer] = visible
	}
}

// Shapes returns every top-level shape in paint order: layer 0 first.
func (s *Store) Shapes() []*document.Shape {
	var out []*document.Shape
	for _, l := range s.layers {
		out = append(out, l...)
	}
	return out
}

// Visible returns the shapes of visible layers whose time range overlaps
// the display window, in paint order.
func (s *Store) Visible(start, end float64) []*document.Shape {
	var out []*document.Shape
	for i, l := range s.layers {
		if !s.visible[i] {
			continue
		}
		for _, sh := range l {
			if sh.Time.Overlaps(start, end) {
				out = append(out, sh)
			}
		}
	}
	return out
}

// Len returns the number of top-level shapes.
func (s *Store) Len() int {
	n := 0
	for _, l := range s.layers {
		n += len(l)
	}
	return n
}

func (s *Store) locate(id string) (layer, index int, ok bool) {
	for li, l := range s.layers {
		for i, sh := range l {
			if sh.ID == id {
				return li, i, true
			}
		}
	}
	return 0, 0, false
}

// Get returns the top-level shape with the given handle.
func (s *Store) Get(id string) (*document.Shape, bool) {
	layer, index, ok := s.locate(id)
	if !ok {
		return nil, false
	}
	return s.layers[layer][index], true
}

// IndexOf returns the layer and z-index of a top-level shape.
func (s *Store) IndexOf(id string) (layer, index int, ok bool) {
	return s.locate(id)
}

// Insert appends a shape on top of a layer, stamping the layer on it and
// its descendants.
func (s *Store) Insert(sh *document.Shape, layer int) error {
	if !validLayer(layer) {
		return fmt.Errorf("insert into layer %d: %w", layer, document.ErrInvalidLayer)
	}
	return s.InsertAt(sh, layer, len(s.layers[layer]))
}

// InsertAt places a shape at index within a layer, clamping the index to
// the layer bounds.
func (s *Store) InsertAt(sh *document.Shape, layer, index int) error {
	if !validLayer(layer) {
		return fmt.Errorf("insert into layer %d: %w", layer, document.ErrInvalidLayer)
	}
	index = max(0, min(index, len(s.layers[layer])))
	sh.SetLayer(layer)
	s.layers[layer] = slices.Insert(s.layers[layer], index, sh)
	return nil
}

// Append inserts shapes on top of the layers they carry.
func (s *Store) Append(shapes []*document.Shape) {
	for _, sh := range shapes {
		layer := sh.Layer
		if !validLayer(layer) {
			layer = 0
		}
		s.layers[layer] = append(s.layers[layer], sh)
		sh.SetLayer(layer)
	}
}

// RemoveMany deletes the shapes with the given handles and returns those
// that were found.
func (s *Store) RemoveMany(ids []string) []*document.Shape {
	var removed []*document.Shape
	for _, id := range ids {
		layer, index, ok := s.locate(id)
		if !ok {
			continue
		}
		removed = append(removed, s.layers[layer][index])
		s.layers[layer] = slices.Delete(s.layers[layer], index, index+1)
	}
	return removed
}

// BringToFront moves a shape to the top of its own layer.
func (s *Store) BringToFront(id string) bool {
	layer, index, ok := s.locate(id)
	if !ok {
		return false
	}
	sh := s.layers[layer][index]
	l := slices.Delete(s.layers[layer], index, index+1)
	s.layers[layer] = append(l, sh)
	return true
}

// SendToBack moves a shape to the bottom of its own layer.
func (s *Store) SendToBack(id string) bool {
	layer, index, ok := s.locate(id)
	if !ok {
		return false
	}
	sh := s.layers[layer][index]
	l := slices.Delete(s.layers[layer], index, index+1)
	s.layers[layer] = slices.Insert(l, 0, sh)
	return true
}

// MoveToLayer moves the shapes, in the given order, on top of the target
// layer.
func (s *Store) MoveToLayer(ids []string, target int) error {
	if !validLayer(target) {
		return fmt.Errorf("move to layer %d: %w", target, document.ErrInvalidLayer)
	}
	for _, sh := range s.RemoveMany(ids) {
		sh.SetLayer(target)
		s.layers[target] = append(s.layers[target], sh)
	}
	return nil
}

type located struct {
	shape *document.Shape
	index int
}

// collect resolves handles that must all sit in one layer, returning them
// sorted by z-index.
func (s *Store) collect(ids []string) (int, []located, error) {
	if len(ids) < 2 {
		return 0, nil, ErrTooFewShapes
	}
	layer := -1
	var items []located
	for _, id := range ids {
		l, index, ok := s.locate(id)
		if !ok {
			return 0, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if layer >= 0 && l != layer {
			return 0, nil, fmt.Errorf("%w: shapes are on different layers", ErrIncompatibleShapes)
		}
		layer = l
		items = append(items, located{shape: s.layers[l][index], index: index})
	}
	slices.SortFunc(items, func(a, b located) int { return a.index - b.index })
	items = slices.CompactFunc(items, func(a, b located) bool { return a.shape == b.shape })
	if len(items) < 2 {
		return 0, nil, ErrTooFewShapes
	}
	return layer, items, nil
}

func (s *Store) replace(layer int, items []located, with ...*document.Shape) {
	at := items[0].index
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.shape.ID
	}
	s.RemoveMany(ids)
	for i, sh := range with {
		sh.SetLayer(layer)
		s.layers[layer] = slices.Insert(s.layers[layer], at+i, sh)
	}
}

func unionTime(items []located) document.TimeRange {
	tr := items[0].shape.Time
	for _, it := range items[1:] {
		tr = tr.Union(it.shape.Time)
	}
	return tr
}

// Group wraps two or more shapes of one layer in a new group placed at the
// lowest z-index among them. Children keep their relative z-order and the
// group covers the union of their time ranges.
func (s *Store) Group(ids []string) (*document.Shape, error) {
	layer, items, err := s.collect(ids)
	if err != nil {
		return nil, err
	}

	children := make([]*document.Shape, len(items))
	for i, it := range items {
		children[i] = it.shape
	}
	g := document.New(&document.Group{Children: children}, document.Style{Opacity: 1}, layer, unionTime(items))
	s.replace(layer, items, g)
	return g, nil
}

// Ungroup splices the children of a group back into its layer at the
// group's position. Children pick up paint attributes they were inheriting
// from the group.
func (s *Store) Ungroup(id string) ([]*document.Shape, error) {
	layer, index, ok := s.locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sh := s.layers[layer][index]
	g, isGroup := sh.Geometry.(*document.Group)
	if !isGroup {
		return nil, fmt.Errorf("%w: %s is not a group", ErrIncompatibleShapes, sh.Kind())
	}

	for _, c := range g.Children {
		c.Style = c.Style.Inherit(sh.Style)
		c.Style.Opacity *= sh.Style.Opacity
	}
	s.replace(layer, []located{{shape: sh, index: index}}, g.Children...)
	return g.Children, nil
}

// closedOutline returns the outline of a shape that can take part in an
// even-odd compound path.
func closedOutline(sh *document.Shape) ([]geom.Subpath, bool) {
	switch g := sh.Geometry.(type) {
	case *document.Polygon:
		return []geom.Subpath{{Points: slices.Clone(g.Points), Closed: true}}, true
	case *document.Rect:
		return []geom.Subpath{{Points: g.Outline().Vertices(), Closed: true}}, true
	case *document.Path:
		if !g.Closed || len(g.Points) < 3 {
			return nil, false
		}
		return []geom.Subpath{{Points: slices.Clone(g.Points), Closed: true}}, true
	case *document.CompoundPath:
		return g.Clone().(*document.CompoundPath).Subpaths, true
	}
	return nil, false
}

// ToHolePath merges closed outlines of one layer into a single even-odd
// compound path at the lowest z-index among them. Inner outlines become
// holes. It takes the style of the bottom-most input.
func (s *Store) ToHolePath(ids []string) (*document.Shape, error) {
	layer, items, err := s.collect(ids)
	if err != nil {
		return nil, err
	}

	var subpaths []geom.Subpath
	for _, it := range items {
		sp, ok := closedOutline(it.shape)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a closed outline", ErrIncompatibleShapes, it.shape.Kind())
		}
		subpaths = append(subpaths, sp...)
	}

	style := items[0].shape.Style
	compound := document.New(&document.CompoundPath{Subpaths: subpaths}, style, layer, unionTime(items))
	s.replace(layer, items, compound)
	return compound, nil
}

// FromHolePath splits a compound path into one polygon per outline, placed
// contiguously at the compound's z-index.
func (s *Store) FromHolePath(id string) ([]*document.Shape, error) {
	layer, index, ok := s.locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sh := s.layers[layer][index]
	cp, isCompound := sh.Geometry.(*document.CompoundPath)
	if !isCompound {
		return nil, fmt.Errorf("%w: %s is not a compound path", ErrIncompatibleShapes, sh.Kind())
	}

	parts := make([]*document.Shape, 0, len(cp.Subpaths))
	for i, sp := range cp.Subpaths {
		if len(sp.Points) < 3 {
			return nil, fmt.Errorf("%w: outline %d has %d points", ErrIncompatibleShapes, i, len(sp.Points))
		}
		poly := &document.Polygon{Points: slices.Clone(sp.Points)}
		parts = append(parts, document.New(poly, sh.Style, layer, sh.Time))
	}
	s.replace(layer, []located{{shape: sh, index: index}}, parts...)
	return parts, nil
}

// Snapshot serializes the whole scene.
func (s *Store) Snapshot() *document.Document {
	return document.FromShapes(s.background, s.Shapes())
}

// Restore replaces every shape and the background with the document's.
// The store is untouched if any element fails to decode.
func (s *Store) Restore(doc *document.Document) error {
	shapes, err := doc.Shapes()
	if err != nil {
		return err
	}
	s.Clear()
	s.background = doc.Background
	if s.background == "" {
		s.background = document.DefaultBackground
	}
	s.Append(shapes)
	return nil
}

// Clear removes every shape. Background and layer visibility are kept.
func (s *Store) Clear() {
	for i := range s.layers {
		s.layers[i] = nil
	}
}

// ShapesInRect returns the shapes of a layer whose bounding boxes intersect
// r, back to front.
func (s *Store) ShapesInRect(layer int, r geom.Rect) []*document.Shape {
	if !validLayer(layer) {
		return nil
	}
	var out []*document.Shape
	for _, sh := range s.layers[layer] {
		if sh.Bounds().Intersects(r) {
			out = append(out, sh)
		}
	}
	return out
}

