package surface

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Canvas is the drawing API handed to redraw routines.
type Canvas interface {
	SetSourceRGB(r, g, b float64)
	Rectangle(x, y, width, height float64)
	Fill() error
	Paint() error
	MoveTo(x, y float64)
	RelMoveTo(dx, dy float64)
	CurrentPoint() (x, y float64, ok bool)
	SelectFontFace(family string, slant Slant, weight Weight)
	SetFontSize(size float64)
	ShowText(text string) error
}

type rect struct {
	x, y, w, h float64
}

// Context is a short-lived drawing context over an image. Coordinates are
// in pixels with the origin at the top-left; text is placed on its
// baseline at the current point.
type Context struct {
	dst   draw.Image
	fonts *FontSet

	source color.RGBA
	path   []rect

	point    fixed.Point26_6
	hasPoint bool

	family string
	slant  Slant
	weight Weight
	size   float64
}

var _ Canvas = (*Context)(nil)

// NewContext returns a context drawing into dst with faces from fonts.
// The source starts opaque black, the font at 10px in FamilyGo.
func NewContext(dst draw.Image, fonts *FontSet) *Context {
	return &Context{
		dst:    dst,
		fonts:  fonts,
		source: color.RGBA{A: 0xff},
		family: FamilyGo,
		size:   10,
	}
}

// SetSourceRGB sets an opaque source color from channels in [0, 1].
func (c *Context) SetSourceRGB(r, g, b float64) {
	c.source = color.RGBA{R: channel(r), G: channel(g), B: channel(b), A: 0xff}
}

func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(math.Round(v * 0xff))
}

// Source returns the current source color.
func (c *Context) Source() color.RGBA {
	return c.source
}

// Rectangle appends a rectangle to the current path.
func (c *Context) Rectangle(x, y, width, height float64) {
	c.path = append(c.path, rect{x: x, y: y, w: width, h: height})
}

// Fill paints the current path with the source color and clears it.
func (c *Context) Fill() error {
	defer func() { c.path = c.path[:0] }()
	if len(c.path) == 0 {
		return nil
	}

	b := c.dst.Bounds()
	if b.Empty() {
		return nil
	}
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, r := range c.path {
		x0 := float32(r.x - float64(b.Min.X))
		y0 := float32(r.y - float64(b.Min.Y))
		x1 := x0 + float32(r.w)
		y1 := y0 + float32(r.h)
		z.MoveTo(x0, y0)
		z.LineTo(x1, y0)
		z.LineTo(x1, y1)
		z.LineTo(x0, y1)
		z.ClosePath()
	}
	z.Draw(c.dst, b, image.NewUniform(c.source), image.Point{})
	return nil
}

// Paint fills the whole target with the source color.
func (c *Context) Paint() error {
	draw.Draw(c.dst, c.dst.Bounds(), image.NewUniform(c.source), image.Point{}, draw.Src)
	return nil
}

// MoveTo sets the current point.
func (c *Context) MoveTo(x, y float64) {
	c.point = fixed.Point26_6{X: toFixed(x), Y: toFixed(y)}
	c.hasPoint = true
}

// RelMoveTo offsets the current point. Without a current point the move
// is taken from the origin.
func (c *Context) RelMoveTo(dx, dy float64) {
	c.point = c.point.Add(fixed.Point26_6{X: toFixed(dx), Y: toFixed(dy)})
	c.hasPoint = true
}

// CurrentPoint reports the current point, if any.
func (c *Context) CurrentPoint() (x, y float64, ok bool) {
	return fromFixed(c.point.X), fromFixed(c.point.Y), c.hasPoint
}

// SelectFontFace chooses the family and style for subsequent text.
func (c *Context) SelectFontFace(family string, slant Slant, weight Weight) {
	c.family = family
	c.slant = slant
	c.weight = weight
}

// SetFontSize sets the font size in pixels.
func (c *Context) SetFontSize(size float64) {
	c.size = size
}

// ShowText draws text at the current point and advances it past the
// rendered glyphs.
func (c *Context) ShowText(text string) error {
	face, err := c.face()
	if err != nil {
		return err
	}
	d := font.Drawer{
		Dst:  c.dst,
		Src:  image.NewUniform(c.source),
		Face: face,
		Dot:  c.point,
	}
	d.DrawString(text)
	c.point = d.Dot
	c.hasPoint = true
	return nil
}

// TextAdvance measures text in the current font without drawing it.
func (c *Context) TextAdvance(text string) (float64, error) {
	face, err := c.face()
	if err != nil {
		return 0, err
	}
	return fromFixed(font.MeasureString(face, text)), nil
}

func (c *Context) face() (font.Face, error) {
	if c.fonts == nil {
		return nil, fmt.Errorf("context has no font set")
	}
	return c.fonts.Face(c.family, c.slant, c.weight, c.size)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
