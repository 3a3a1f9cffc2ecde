// Package raster renders drawings to images for PNG export and library
// previews. It paints the same draw commands the editor sends to the
// browser, using gogpu/gg for paths and a bitmap font for labels.
package raster

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/engine"
	"github.com/vecnote/vecnote/internal/geom"
)

// MaxSize bounds either side of a rendered image.
const MaxSize = 4096

var ErrInvalidSize = errors.New("invalid image size")

// Options control a render.
type Options struct {
	Width, Height int
	// Window limits rendering to shapes visible in the time range. Nil
	// renders every shape.
	Window *document.TimeRange
	// Fit scales the drawing's bounds into the image with Padding around
	// them. Otherwise content coordinates map 1:1 to pixels.
	Fit     bool
	Padding float64
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 || o.Width > MaxSize || o.Height > MaxSize {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.Width, o.Height)
	}
	return nil
}

// Render paints the drawing onto a new image filled with its background.
func Render(doc *document.Document, opts Options) (image.Image, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	shapes, err := doc.Shapes()
	if err != nil {
		return nil, err
	}
	if opts.Window != nil {
		visible := shapes[:0]
		for _, s := range shapes {
			if s.Time.Overlaps(opts.Window.Start, opts.Window.End) {
				visible = append(visible, s)
			}
		}
		shapes = visible
	}

	c := newCanvas(opts.Width, opts.Height, doc.Background)
	defer c.close()
	if opts.Fit {
		c.fit(shapes, opts.Padding)
	}

	commands := engine.CompileDrawCommands(engine.BuildSceneGraph(shapes, nil))
	for _, cmd := range commands {
		switch cmd.Op {
		case engine.OpPath:
			if err := c.path(cmd); err != nil {
				return nil, fmt.Errorf("paint %s: %w", cmd.ShapeID, err)
			}
		case engine.OpText:
			if err := c.text(cmd); err != nil {
				return nil, fmt.Errorf("paint %s: %w", cmd.ShapeID, err)
			}
		}
	}
	return c.image()
}

// Thumbnail renders the whole drawing fitted into a w×h box, keeping its
// aspect ratio. It renders at twice the size and downsamples for smoother
// edges.
func Thumbnail(doc *document.Document, w, h int) (image.Image, error) {
	img, err := Render(doc, Options{Width: w * 2, Height: h * 2, Fit: true, Padding: 8})
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, w, h, imaging.Lanczos), nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// canvas is a gg context plus the content-to-pixel transform.
type canvas struct {
	dc *gg.Context
	m  geom.Matrix2D
}

func newCanvas(w, h int, background string) *canvas {
	dc := gg.NewContext(w, h)
	bg, ok := parseColor(background, 1)
	if !ok {
		bg = gg.Hex(document.DefaultBackground)
	}
	dc.ClearWithColor(bg)
	return &canvas{dc: dc, m: geom.Identity()}
}

func (c *canvas) close() {
	c.dc.Close()
}

// image flushes pending GPU work and returns the canvas pixels.
func (c *canvas) image() (image.Image, error) {
	if err := c.dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush canvas: %w", err)
	}
	return c.dc.Image(), nil
}

// fit scales and centres the union of the shapes' bounds in the image.
func (c *canvas) fit(shapes []*document.Shape, padding float64) {
	if len(shapes) == 0 {
		return
	}
	box := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		box = box.Union(s.Bounds())
	}
	w := float64(c.dc.Width()) - 2*padding
	h := float64(c.dc.Height()) - 2*padding
	if w <= 0 || h <= 0 || box.Width <= 0 || box.Height <= 0 {
		return
	}
	scale := math.Min(w/box.Width, h/box.Height)
	tx := (float64(c.dc.Width()) - box.Width*scale) / 2
	ty := (float64(c.dc.Height()) - box.Height*scale) / 2
	c.m = geom.Matrix2D{scale, 0, 0, scale, tx - box.X*scale, ty - box.Y*scale}
}

func (c *canvas) scale() float64 {
	return c.m[0]
}

func (c *canvas) pt(x, y float64) (float64, float64) {
	p := c.m.TransformPoint(geom.Pt(x, y))
	return p.X, p.Y
}

func (c *canvas) buildPath(cmds []engine.PathCommand) {
	c.dc.ClearPath()
	for _, pc := range cmds {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		args := make([]float64, 0, len(pc)-1)
		for _, v := range pc[1:] {
			f, _ := v.(float64)
			args = append(args, f)
		}
		switch {
		case op == "M" && len(args) == 2:
			c.dc.MoveTo(c.pt(args[0], args[1]))
		case op == "L" && len(args) == 2:
			c.dc.LineTo(c.pt(args[0], args[1]))
		case op == "C" && len(args) == 6:
			x1, y1 := c.pt(args[0], args[1])
			x2, y2 := c.pt(args[2], args[3])
			x, y := c.pt(args[4], args[5])
			c.dc.CubicTo(x1, y1, x2, y2, x, y)
		case op == "Z":
			c.dc.ClosePath()
		}
	}
}

func (c *canvas) path(cmd engine.DrawCommand) error {
	c.buildPath(cmd.Path)

	if fill, ok := parseColor(cmd.Fill, cmd.Opacity); ok {
		rule := gg.FillRuleNonZero
		if cmd.EvenOdd {
			rule = gg.FillRuleEvenOdd
		}
		c.dc.SetFillRule(rule)
		c.dc.SetColor(fill.Color())
		if err := c.dc.FillPreserve(); err != nil {
			return err
		}
	}

	stroke, ok := parseColor(cmd.Stroke, cmd.Opacity)
	if !ok || cmd.StrokeWidth <= 0 {
		c.dc.ClearPath()
		return nil
	}
	c.dc.SetColor(stroke.Color())
	c.dc.SetLineWidth(cmd.StrokeWidth * c.scale())
	dash := make([]float64, len(cmd.Dash))
	for i, d := range cmd.Dash {
		dash[i] = d * c.scale()
	}
	c.dc.SetDash(dash...)
	return c.dc.Stroke()
}

// text draws a label with the bitmap face. gg paints into its own pixmap,
// so the canvas is copied out, drawn on and wrapped in a fresh context to
// keep painter's order.
func (c *canvas) text(cmd engine.DrawCommand) error {
	col, ok := parseColor(cmd.Fill, cmd.Opacity)
	if !ok || cmd.Text == "" {
		return nil
	}
	src, err := c.image()
	if err != nil {
		return err
	}
	img := imaging.Clone(src)

	face := basicfont.Face7x13
	x, y := c.pt(cmd.X, cmd.Y)
	width := font.MeasureString(face, cmd.Text).Ceil()
	if cmd.Centered {
		m := face.Metrics()
		x -= float64(width) / 2
		y += float64(m.Ascent.Ceil()-m.Descent.Ceil()) / 2
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col.Color()),
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(cmd.Text)

	c.dc.Close()
	c.dc = gg.NewContextForImage(img)
	return nil
}

// parseColor reads a CSS hex colour or colour keyword. "none" and the empty
// string mean no paint.
func parseColor(s string, opacity float64) (gg.RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" || s == "transparent" {
		return gg.RGBA{}, false
	}
	var col gg.RGBA
	if strings.HasPrefix(s, "#") {
		col = gg.Hex(s)
	} else if named, ok := colornames.Map[s]; ok {
		col = gg.FromColor(named)
	} else {
		col = gg.RGB(0, 0, 0)
	}
	col.A *= min(max(opacity, 0), 1)
	return col, true
}
