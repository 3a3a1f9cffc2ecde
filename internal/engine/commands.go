package engine

import (
	"encoding/json"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/geom"
)

// Draw command operations.
const (
	OpPath    = "path"
	OpText    = "text"
	OpHandle  = "handle"
	OpMarquee = "marquee"
	OpPreview = "preview"
)

// PathCommand is a single path segment in Canvas2D order:
// ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []interface{}

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context
// after applying the frame transform.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path", "text", "handle", "marquee", "preview"
	ShapeID     string        `json:"shapeId,omitempty"`     // For hit correlation
	Path        []PathCommand `json:"path,omitempty"`        // Path data for path-like ops
	Fill        string        `json:"fill,omitempty"`        // Fill color, "none" for no fill
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color, "none" for no stroke
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width in content units
	Dash        []float64     `json:"dash,omitempty"`        // Line dash segments
	EvenOdd     bool          `json:"evenOdd,omitempty"`     // Use the even-odd fill rule
	Opacity     float64       `json:"opacity"`               // Global alpha
	Text        string        `json:"text,omitempty"`        // Label for "text" ops
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
	FontSize    float64       `json:"fontSize,omitempty"`
	Centered    bool          `json:"centered,omitempty"` // Label is centred on (x, y)
	Selected    bool          `json:"selected,omitempty"` // Shape is part of the selection
}

// Frame is everything the frontend needs to paint one frame.
type Frame struct {
	Background string        `json:"background"`
	Transform  []float64     `json:"transform"` // content-to-canvas [a, b, c, d, e, f]
	Commands   []DrawCommand `json:"commands"`
}

// ToPathCommands converts a path into Canvas2D path commands.
func ToPathCommands(p geom.Path) []PathCommand {
	out := make([]PathCommand, 0, len(p))
	for _, cmd := range p {
		pc := PathCommand{string(cmd.Op)}
		for _, pt := range cmd.Points {
			pc = append(pc, pt.X, pt.Y)
		}
		out = append(out, pc)
	}
	return out
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph) []DrawCommand {
	if sg == nil {
		return nil
	}

	var commands []DrawCommand
	sg.Walk(func(node *SceneNode) {
		compileNode(node, &commands)
	})
	return commands
}

// compileNode emits the commands of a single node, not its children.
func compileNode(node *SceneNode, commands *[]DrawCommand) {
	if !node.Paintable() {
		return
	}
	st := node.Style
	switch {
	case node.Text != nil:
		*commands = append(*commands, DrawCommand{
			Op:       OpText,
			ShapeID:  node.ID,
			Text:     node.Text.Content,
			X:        node.Text.X,
			Y:        node.Text.Y,
			FontSize: node.Text.FontSize,
			Centered: node.Text.Centered,
			Fill:     st.Fill,
			Stroke:   st.Stroke,
			Opacity:  st.Opacity,
			Selected: node.Selected,
		})
	default:
		*commands = append(*commands, DrawCommand{
			Op:          OpPath,
			ShapeID:     node.ID,
			Path:        ToPathCommands(node.Path),
			Fill:        fillFor(node),
			Stroke:      st.Stroke,
			StrokeWidth: st.StrokeWidth,
			Dash:        st.DashArray(),
			EvenOdd:     node.EvenOdd,
			Opacity:     st.Opacity,
			Selected:    node.Selected,
		})
	}

	if len(node.ArrowHead) > 0 {
		*commands = append(*commands, DrawCommand{
			Op:      OpPath,
			ShapeID: node.ID,
			Path:    ToPathCommands(node.ArrowHead),
			Fill:    st.Stroke,
			Stroke:  "none",
			Opacity: st.Opacity,
		})
	}
}

// fillFor returns the fill of a node; lines have an area of zero and are
// never filled.
func fillFor(node *SceneNode) string {
	if node.Kind == document.KindLine {
		return "none"
	}
	return node.Style.Fill
}

// FrameToJSON serializes a frame to JSON.
func FrameToJSON(f Frame) (string, error) {
	if f.Commands == nil {
		f.Commands = []DrawCommand{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}
