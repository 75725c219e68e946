package redraw

import (
	"strings"
	"unicode/utf8"

	"github.com/1broseidon/xprobe/internal/surface"
)

// FontRotation cycles through Fonts, one step per rendered rune.
type FontRotation struct {
	Index int
	Fonts []string
}

// Glyph is one planned rune of a label.
type Glyph struct {
	Text      string
	FontIndex int
	Family    string
	Upper     bool
}

// next returns the index after i, wrapping to 0 after the last font.
func (r FontRotation) next(i int) int {
	if i+1 >= len(r.Fonts) {
		return 0
	}
	return i + 1
}

// Styles plans text from the current index without moving it.
func (r FontRotation) Styles(text string) []Glyph {
	if len(r.Fonts) == 0 {
		return nil
	}
	glyphs := make([]Glyph, 0, utf8.RuneCountInString(text))
	idx := r.Index
	for _, ch := range text {
		idx = r.next(idx)
		g := Glyph{Text: string(ch), FontIndex: idx, Family: r.Fonts[idx]}
		if idx%2 == 0 {
			g.Text = strings.ToUpper(g.Text)
			g.Upper = true
		}
		glyphs = append(glyphs, g)
	}
	return glyphs
}

// Advance plans text like Styles and leaves the rotation at the last
// index used, so the next frame continues where this one stopped.
func (r *FontRotation) Advance(text string) []Glyph {
	glyphs := r.Styles(text)
	if n := len(glyphs); n > 0 {
		r.Index = glyphs[n-1].FontIndex
	}
	return glyphs
}

// RGB is an opaque color with channels in [0, 1].
type RGB struct {
	R, G, B float64
}

// Label draws a line of rotating-font text on a flat background, with a
// footer line drawn as one text call per word.
type Label struct {
	Text       string
	Footer     []string
	Rotation   *FontRotation
	FontSize   float64
	FooterSize float64
	// Advance is the extra horizontal gap after each rune.
	Advance    float64
	Foreground RGB
	Background RGB
}

// Draw renders one frame. It fits DrawFunc.
func (l *Label) Draw(c surface.Canvas, width, height int) error {
	c.SetSourceRGB(l.Background.R, l.Background.G, l.Background.B)
	c.Rectangle(0, 0, float64(width), float64(height))
	if err := c.Fill(); err != nil {
		return err
	}

	c.SetSourceRGB(l.Foreground.R, l.Foreground.G, l.Foreground.B)
	c.MoveTo(0, float64(height)/2)
	if l.Rotation != nil {
		for _, g := range l.Rotation.Advance(l.Text) {
			c.SelectFontFace(g.Family, surface.SlantNormal, surface.WeightNormal)
			c.SetFontSize(l.FontSize)
			if err := c.ShowText(g.Text + " "); err != nil {
				return err
			}
			c.RelMoveTo(l.Advance, 0)
		}
	}

	if len(l.Footer) == 0 {
		return nil
	}
	c.MoveTo(0, 20)
	c.SetFontSize(l.FooterSize)
	for i, word := range l.Footer {
		if i < len(l.Footer)-1 {
			word += " "
		}
		if err := c.ShowText(word); err != nil {
			return err
		}
	}
	return nil
}
