package engine

import (
	"github.com/vecnote/vecnote/internal/document"
)

// paintDefaults are the attributes a shape gets when neither it nor any
// ancestor sets them: black fill, no stroke, unit stroke width.
var paintDefaults = document.Style{Stroke: "none", Fill: "#000000", StrokeWidth: 1, Opacity: 1}

// BuildSceneGraph resolves shapes, given in painter's order, into a scene
// graph. selected reports which top-level handles are selected; selection
// propagates to every descendant of a selected group.
func BuildSceneGraph(shapes []*document.Shape, selected func(id string) bool) *SceneGraph {
	sg := NewSceneGraph()
	for _, s := range shapes {
		isSelected := selected != nil && selected(s.ID)
		sg.Roots = append(sg.Roots, buildNode(s, paintDefaults, isSelected))
	}
	return sg
}

// buildNode recursively builds a SceneNode from a shape.
func buildNode(s *document.Shape, inherited document.Style, selected bool) *SceneNode {
	style := s.Style.Inherit(inherited)
	style.Opacity = s.Style.Opacity * inherited.Opacity

	node := &SceneNode{
		ID:       s.ID,
		Kind:     s.Kind(),
		Style:    style,
		Selected: selected,
		Bounds:   s.Bounds(),
	}

	switch g := s.Geometry.(type) {
	case *document.Text:
		t := *g
		node.Text = &t
	case *document.Line:
		node.Path = g.Outline()
		node.ArrowHead = g.ArrowHead(style.StrokeWidth)
	case *document.CompoundPath:
		node.Path = g.Outline()
		node.EvenOdd = true
	case *document.Group:
		for _, c := range g.Children {
			node.Children = append(node.Children, buildNode(c, style, selected))
		}
	default:
		node.Path = s.Geometry.Outline()
	}

	return node
}
