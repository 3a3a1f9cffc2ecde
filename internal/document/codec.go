package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vecnote/vecnote/internal/geom"
)

var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrUnknownKind     = errors.New("unknown element type")
	ErrMissingAttr     = errors.New("missing attribute")
	ErrInvalidLayer    = errors.New("invalid layer")
)

// Attribute names of the flat element format.
const (
	attrStroke      = "stroke"
	attrFill        = "fill"
	attrStrokeWidth = "stroke-width"
	attrDash        = "stroke-dasharray"
	attrOpacity     = "opacity"
	attrMarkerEnd   = "marker-end"
	attrFillRule    = "fill-rule"
	attrFontSize    = "font-size"
	attrTextAnchor  = "text-anchor"
	attrBaseline    = "dominant-baseline"

	arrowMarker = "url(#arrow)"
	evenOdd     = "evenodd"
)

// Scalar is a string in the flat format that older files may have written as
// a JSON number.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Scalar(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = Scalar(n.String())
	return nil
}

// Element is one shape in the flat document format.
type Element struct {
	Type     string            `json:"type"`
	Attrs    map[string]Scalar `json:"attrs"`
	Start    Scalar            `json:"start"`
	End      Scalar            `json:"end"`
	Layer    Scalar            `json:"layer"`
	Text     *string           `json:"text,omitempty"`
	Children []Element         `json:"children,omitempty"`
}

// Document is the exchanged drawing: background plus every element of every
// layer, back to front.
type Document struct {
	Background string    `json:"background"`
	Elements   []Element `json:"elements"`
}

// Decode parses a document. A bare array of elements (the legacy format) is
// accepted and gets the default background.
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	doc := &Document{}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc.Elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	} else if err := json.Unmarshal(trimmed, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Background == "" {
		doc.Background = DefaultBackground
	}
	if doc.Elements == nil {
		doc.Elements = []Element{}
	}
	return doc, nil
}

// Encode marshals the document. Attribute maps are written with sorted keys,
// so equal documents encode to equal bytes.
func (d *Document) Encode() ([]byte, error) {
	out := *d
	if out.Elements == nil {
		out.Elements = []Element{}
	}
	return json.Marshal(out)
}

// Equal compares two documents structurally.
func Equal(a, b *Document) bool {
	ea, errA := a.Encode()
	eb, errB := b.Encode()
	return errA == nil && errB == nil && bytes.Equal(ea, eb)
}

// FromShapes builds a document from shapes in paint order.
func FromShapes(background string, shapes []*Shape) *Document {
	doc := &Document{Background: background, Elements: make([]Element, 0, len(shapes))}
	for _, s := range shapes {
		doc.Elements = append(doc.Elements, Serialize(s))
	}
	return doc
}

// Shapes decodes every element into a shape with a fresh handle. Nothing is
// returned if any element fails.
func (d *Document) Shapes() ([]*Shape, error) {
	shapes := make([]*Shape, 0, len(d.Elements))
	for i, e := range d.Elements {
		s, err := Deserialize(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

func num(v float64) Scalar {
	return Scalar(geom.FormatNumber(v))
}

func formatPoints(pts []geom.Point) Scalar {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = geom.FormatNumber(p.X) + "," + geom.FormatNumber(p.Y)
	}
	return Scalar(strings.Join(parts, " "))
}

// Serialize converts a shape into its flat element.
func Serialize(s *Shape) Element {
	e := Element{
		Attrs: map[string]Scalar{},
		Start: num(s.Time.Start),
		End:   num(s.Time.End),
		Layer: Scalar(strconv.Itoa(s.Layer)),
	}

	switch g := s.Geometry.(type) {
	case *Rect:
		e.Type = "rect"
		e.Attrs["x"], e.Attrs["y"] = num(g.X), num(g.Y)
		e.Attrs["width"], e.Attrs["height"] = num(g.W), num(g.H)
	case *Circle:
		e.Type = "circle"
		e.Attrs["cx"], e.Attrs["cy"], e.Attrs["r"] = num(g.CX), num(g.CY), num(g.R)
	case *Line:
		e.Type = "line"
		e.Attrs["x1"], e.Attrs["y1"] = num(g.X1), num(g.Y1)
		e.Attrs["x2"], e.Attrs["y2"] = num(g.X2), num(g.Y2)
		if g.Arrow {
			e.Attrs[attrMarkerEnd] = arrowMarker
		}
	case *Polygon:
		e.Type = "polygon"
		e.Attrs["points"] = formatPoints(g.Points)
	case *Polyline:
		e.Type = "polyline"
		e.Attrs["points"] = formatPoints(g.Points)
	case *Path:
		e.Type = "path"
		e.Attrs["d"] = Scalar(g.Outline().String())
	case *CompoundPath:
		e.Type = "path"
		e.Attrs["d"] = Scalar(g.Outline().String())
		e.Attrs[attrFillRule] = evenOdd
	case *Text:
		e.Type = "text"
		e.Attrs["x"], e.Attrs["y"] = num(g.X), num(g.Y)
		e.Attrs[attrFontSize] = num(g.size())
		if g.Centered {
			e.Attrs[attrTextAnchor] = "middle"
			e.Attrs[attrBaseline] = "middle"
		}
		content := g.Content
		e.Text = &content
	case *Group:
		e.Type = "g"
		e.Children = make([]Element, len(g.Children))
		for i, c := range g.Children {
			e.Children[i] = Serialize(c)
		}
	}

	writeStyle(e.Attrs, s.Style)
	return e
}

func writeStyle(attrs map[string]Scalar, st Style) {
	if st.Stroke != "" {
		attrs[attrStroke] = Scalar(st.Stroke)
	}
	if st.Fill != "" {
		attrs[attrFill] = Scalar(st.Fill)
	}
	if st.StrokeWidth != 0 {
		attrs[attrStrokeWidth] = num(st.StrokeWidth)
	}
	if st.Dash != "" {
		attrs[attrDash] = Scalar(st.Dash)
	}
	if st.Opacity != 1 {
		attrs[attrOpacity] = num(st.Opacity)
	}
}

// attrReader pulls typed values out of an attribute map, remembering the
// first failure.
type attrReader struct {
	kind  string
	attrs map[string]Scalar
	err   error
}

func (r *attrReader) float(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, ok := r.attrs[name]
	if !ok || v == "" {
		r.err = fmt.Errorf("%w: %s.%s", ErrMissingAttr, r.kind, name)
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil {
		r.err = fmt.Errorf("%s.%s: invalid number %q", r.kind, name, v)
		return 0
	}
	return f
}

func (r *attrReader) optFloat(name string, def float64) float64 {
	if _, ok := r.attrs[name]; !ok {
		return def
	}
	return r.float(name)
}

func (r *attrReader) points(minCount int) []geom.Point {
	if r.err != nil {
		return nil
	}
	raw, ok := r.attrs["points"]
	if !ok {
		r.err = fmt.Errorf("%w: %s.points", ErrMissingAttr, r.kind)
		return nil
	}
	pts, err := parsePoints(string(raw))
	if err != nil {
		r.err = fmt.Errorf("%s.points: %w", r.kind, err)
		return nil
	}
	if len(pts) < minCount {
		r.err = fmt.Errorf("%s.points: need at least %d points, got %d", r.kind, minCount, len(pts))
		return nil
	}
	return pts
}

func parsePoints(s string) ([]geom.Point, error) {
	var pts []geom.Point
	for _, pair := range strings.Fields(s) {
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("invalid point %q", pair)
		}
		x, errX := strconv.ParseFloat(xs, 64)
		y, errY := strconv.ParseFloat(ys, 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid point %q", pair)
		}
		pts = append(pts, geom.Point{X: x, Y: y})
	}
	return pts, nil
}

func readStyle(r *attrReader) Style {
	st := Style{
		Stroke: string(r.attrs[attrStroke]),
		Fill:   string(r.attrs[attrFill]),
		Dash:   string(r.attrs[attrDash]),
	}
	st.StrokeWidth = r.optFloat(attrStrokeWidth, 0)
	st.Opacity = r.optFloat(attrOpacity, 1)
	return st
}

func parseScalar(s Scalar, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
}

func parseLayer(s Scalar, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil || math.IsNaN(f) {
		return def, nil
	}
	if f != math.Trunc(f) || f < 0 || f >= LayerCount {
		return 0, fmt.Errorf("%w: %s", ErrInvalidLayer, s)
	}
	return int(f), nil
}

// Deserialize converts a flat element into a shape with a fresh handle.
// A missing layer means layer 0; missing times mean 0.
func Deserialize(e Element) (*Shape, error) {
	return deserialize(e, 0, TimeRange{})
}

// Group children without their own layer or times take the parent's.
func deserialize(e Element, layer int, tr TimeRange) (*Shape, error) {
	var err error
	if layer, err = parseLayer(e.Layer, layer); err != nil {
		return nil, err
	}
	if tr.Start, err = parseScalar(e.Start, tr.Start); err != nil {
		return nil, fmt.Errorf("%s.start: %w", e.Type, err)
	}
	if tr.End, err = parseScalar(e.End, tr.End); err != nil {
		return nil, fmt.Errorf("%s.end: %w", e.Type, err)
	}

	r := &attrReader{kind: e.Type, attrs: e.Attrs}
	var g Geometry

	switch e.Type {
	case "rect":
		g = &Rect{X: r.float("x"), Y: r.float("y"), W: r.float("width"), H: r.float("height")}
	case "circle":
		g = &Circle{CX: r.float("cx"), CY: r.float("cy"), R: r.float("r")}
	case "line":
		_, arrow := e.Attrs[attrMarkerEnd]
		g = &Line{X1: r.float("x1"), Y1: r.float("y1"), X2: r.float("x2"), Y2: r.float("y2"), Arrow: arrow}
	case "polygon":
		g = &Polygon{Points: r.points(3)}
	case "polyline":
		g = &Polyline{Points: r.points(2)}
	case "path":
		g, err = decodePath(e.Attrs)
		if err != nil {
			return nil, err
		}
	case "text":
		t := &Text{X: r.float("x"), Y: r.float("y"), FontSize: r.optFloat(attrFontSize, DefaultFontSize)}
		t.Centered = e.Attrs[attrTextAnchor] == "middle"
		if e.Text != nil {
			t.Content = *e.Text
		}
		g = t
	case "g":
		grp := &Group{Children: make([]*Shape, 0, len(e.Children))}
		for i, ce := range e.Children {
			c, err := deserialize(ce, layer, tr)
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			c.SetLayer(layer)
			grp.Children = append(grp.Children, c)
		}
		g = grp
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Type)
	}

	style := readStyle(r)
	if r.err != nil {
		return nil, r.err
	}
	return New(g, style, layer, tr), nil
}

func decodePath(attrs map[string]Scalar) (Geometry, error) {
	d, ok := attrs["d"]
	if !ok {
		return nil, fmt.Errorf("%w: path.d", ErrMissingAttr)
	}
	if attrs[attrFillRule] == evenOdd {
		subpaths, err := geom.ParseCompoundPath(string(d))
		if err != nil {
			return nil, fmt.Errorf("path.d: %w", err)
		}
		return &CompoundPath{Subpaths: subpaths}, nil
	}
	p, err := geom.ParsePath(string(d))
	if err != nil {
		return nil, fmt.Errorf("path.d: %w", err)
	}
	closed := len(p) > 0 && p[len(p)-1].Op == geom.OpClose
	return &Path{Points: p.Vertices(), Closed: closed}, nil
}
