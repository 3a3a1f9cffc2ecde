package engine

import (
	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/geom"
)

// SceneGraph is the resolved, render-ready view of the visible shapes.
// It is rebuilt from the scene store whenever a frame is requested and never
// written back.
type SceneGraph struct {
	Roots []*SceneNode
}

// SceneNode is a shape with inherited paint attributes resolved.
type SceneNode struct {
	ID   string
	Kind document.Kind

	// Inherited/resolved properties
	Style    document.Style // opacity is the product along the ancestry
	Selected bool

	Children []*SceneNode

	// Render data
	Path      geom.Path // outline in content space
	EvenOdd   bool      // fill with the even-odd rule
	ArrowHead geom.Path // filled with the stroke colour
	Text      *document.Text

	// Hit testing
	Bounds geom.Rect
}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{}
}

// Walk visits nodes in painter's order, parents before children.
func (sg *SceneGraph) Walk(fn func(*SceneNode)) {
	var visit func(n *SceneNode)
	visit = func(n *SceneNode) {
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range sg.Roots {
		visit(r)
	}
}

// Paintable reports whether the node fills or strokes anything.
func (n *SceneNode) Paintable() bool {
	return len(n.Path) > 0 || n.Text != nil
}

