package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// Path operators understood by the editor.
const (
	OpMove  = 'M'
	OpLine  = 'L'
	OpCubic = 'C'
	OpClose = 'Z'
)

// Command is a single path segment. M and L carry one point, C carries two
// control points followed by the end point, Z carries none.
type Command struct {
	Op     byte
	Points []Point
}

// Path is an ordered list of commands.
type Path []Command

// End returns the point the command finishes on.
func (c Command) End() (Point, bool) {
	if len(c.Points) == 0 {
		return Point{}, false
	}
	return c.Points[len(c.Points)-1], true
}

// String renders the path as SVG path data, e.g. "M 0 0 C 1 2 3 4 5 6 Z".
func (p Path) String() string {
	var b strings.Builder
	for i, cmd := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(cmd.Op)
		for _, pt := range cmd.Points {
			b.WriteByte(' ')
			b.WriteString(FormatNumber(pt.X))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(pt.Y))
		}
	}
	return b.String()
}

// Vertices returns the on-curve points of the path: the target of every
// move, line and curve command. Control points are skipped.
func (p Path) Vertices() []Point {
	var pts []Point
	for _, cmd := range p {
		if end, ok := cmd.End(); ok {
			pts = append(pts, end)
		}
	}
	return pts
}

// Bounds returns the box around every point of the path, control points
// included.
func (p Path) Bounds() Rect {
	var all []Point
	for _, cmd := range p {
		all = append(all, cmd.Points...)
	}
	return BoundingBox(all)
}

// FormatNumber prints a coordinate with the shortest representation that
// parses back to the same float64.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CatmullRomSmooth builds a cubic Bezier path that passes through every input
// point. Tangents follow Catmull-Rom with the end points standing in for the
// missing neighbours. Fewer than two points yield an empty path.
func CatmullRomSmooth(points []Point) Path {
	if len(points) < 2 {
		return nil
	}

	path := make(Path, 0, len(points))
	path = append(path, Command{Op: OpMove, Points: []Point{points[0]}})
	for i := 0; i < len(points)-1; i++ {
		p0 := points[max(i-1, 0)]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[min(i+2, len(points)-1)]

		cp1 := Point{X: p1.X + (p2.X-p0.X)/6, Y: p1.Y + (p2.Y-p0.Y)/6}
		cp2 := Point{X: p2.X - (p3.X-p1.X)/6, Y: p2.Y - (p3.Y-p1.Y)/6}
		path = append(path, Command{Op: OpCubic, Points: []Point{cp1, cp2, p2}})
	}
	return path
}

// Polyline builds a straight-segment path through points, closed with Z when
// closed is set.
func Polyline(points []Point, closed bool) Path {
	if len(points) == 0 {
		return nil
	}
	path := make(Path, 0, len(points)+1)
	path = append(path, Command{Op: OpMove, Points: []Point{points[0]}})
	for _, p := range points[1:] {
		path = append(path, Command{Op: OpLine, Points: []Point{p}})
	}
	if closed {
		path = append(path, Command{Op: OpClose})
	}
	return path
}

// MalformedPathError reports path data outside the move/line/cubic/close
// grammar.
type MalformedPathError struct {
	Offset int
	Token  string
	Reason string
}

func (e *MalformedPathError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("malformed path at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed path at offset %d (%q): %s", e.Offset, e.Token, e.Reason)
}

type pathToken struct {
	offset int
	op     byte
	num    float64
	text   string
}

func tokenizePath(d string) ([]pathToken, error) {
	var tokens []pathToken
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == 'M' || c == 'L' || c == 'C' || c == 'Z' || c == 'z':
			op := c
			if op == 'z' {
				op = OpClose
			}
			tokens = append(tokens, pathToken{offset: i, op: op, text: string(c)})
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			start := i
			i++
			for i < len(d) {
				n := d[i]
				if (n >= '0' && n <= '9') || n == '.' {
					i++
					continue
				}
				if (n == 'e' || n == 'E') && i+1 < len(d) {
					i++
					if d[i] == '-' || d[i] == '+' {
						i++
					}
					continue
				}
				break
			}
			text := d[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &MalformedPathError{Offset: start, Token: text, Reason: "invalid number"}
			}
			tokens = append(tokens, pathToken{offset: start, num: v, text: text})
		default:
			return nil, &MalformedPathError{Offset: i, Token: string(c), Reason: "unsupported command"}
		}
	}
	return tokens, nil
}

// ParsePath parses path data written with absolute M, L, C and Z commands.
// Coordinate pairs repeated after M are read as line segments, as in SVG.
// Anything else fails with a *MalformedPathError.
func ParsePath(d string) (Path, error) {
	tokens, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &MalformedPathError{Reason: "empty path"}
	}

	var path Path
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.op == 0 {
			return nil, &MalformedPathError{Offset: tok.offset, Token: tok.text, Reason: "number without command"}
		}
		if len(path) == 0 && tok.op != OpMove {
			return nil, &MalformedPathError{Offset: tok.offset, Token: tok.text, Reason: "path must start with M"}
		}
		i++

		if tok.op == OpClose {
			path = append(path, Command{Op: OpClose})
			continue
		}

		arity := 2
		if tok.op == OpCubic {
			arity = 6
		}
		op := tok.op
		groups := 0
		for i < len(tokens) && tokens[i].op == 0 {
			if i+arity > len(tokens) {
				return nil, &MalformedPathError{Offset: tokens[i].offset, Token: tokens[i].text, Reason: "incomplete coordinates"}
			}
			pts := make([]Point, 0, arity/2)
			for k := 0; k < arity; k += 2 {
				x, y := tokens[i+k], tokens[i+k+1]
				if x.op != 0 || y.op != 0 {
					return nil, &MalformedPathError{Offset: x.offset, Token: x.text, Reason: "incomplete coordinates"}
				}
				pts = append(pts, Point{X: x.num, Y: y.num})
			}
			path = append(path, Command{Op: op, Points: pts})
			i += arity
			groups++
			if op == OpMove {
				op = OpLine
			}
		}
		if groups == 0 {
			return nil, &MalformedPathError{Offset: tok.offset, Token: tok.text, Reason: "missing coordinates"}
		}
	}
	return path, nil
}

// Subpath is one outline of a compound path.
type Subpath struct {
	Points []Point
	Closed bool
}

// ParseCompoundPath splits path data into its sub-outlines, one per move
// command. A closing point that repeats the first vertex is dropped.
func ParseCompoundPath(d string) ([]Subpath, error) {
	path, err := ParsePath(d)
	if err != nil {
		return nil, err
	}

	var subpaths []Subpath
	for _, cmd := range path {
		switch cmd.Op {
		case OpMove:
			subpaths = append(subpaths, Subpath{Points: []Point{cmd.Points[0]}})
		case OpClose:
			subpaths[len(subpaths)-1].Closed = true
		default:
			end, _ := cmd.End()
			cur := &subpaths[len(subpaths)-1]
			cur.Points = append(cur.Points, end)
		}
	}

	for i := range subpaths {
		sp := &subpaths[i]
		if sp.Closed && len(sp.Points) > 1 && sp.Points[0] == sp.Points[len(sp.Points)-1] {
			sp.Points = sp.Points[:len(sp.Points)-1]
		}
	}
	return subpaths, nil
}

// CompoundPath renders closed outlines as a single path, one M ... Z run per
// outline.
func CompoundPath(subpaths []Subpath) Path {
	var path Path
	for _, sp := range subpaths {
		path = append(path, Polyline(sp.Points, sp.Closed)...)
	}
	return path
}
