// Package report renders probe results for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/1broseidon/xprobe/internal/x11"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const labelWidth = 18

// Writer renders sections to an output. On a terminal sections are boxed
// and colored; otherwise they are plain aligned text.
type Writer struct {
	out   io.Writer
	boxed bool
	width int

	title lipgloss.Style
	label lipgloss.Style
	ok    lipgloss.Style
	bad   lipgloss.Style
	dim   lipgloss.Style
	box   lipgloss.Style
}

// New returns a Writer for out.
func New(out io.Writer) *Writer {
	boxed := false
	width := 0
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		boxed = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = w
		}
	}

	r := lipgloss.NewRenderer(out)
	return &Writer{
		out:   out,
		boxed: boxed,
		width: width,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		label: r.NewStyle().Foreground(lipgloss.Color("248")).Width(labelWidth),
		ok:    r.NewStyle().Foreground(lipgloss.Color("42")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		dim:   r.NewStyle().Foreground(lipgloss.Color("241")),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

type section struct {
	w    *Writer
	name string
	b    strings.Builder
}

func (w *Writer) section(name string) *section {
	return &section{w: w, name: name}
}

func (s *section) row(label string, value any) {
	s.b.WriteString(s.w.label.Render(label))
	s.b.WriteString(fmt.Sprint(value))
	s.b.WriteByte('\n')
}

func (s *section) line(text string) {
	s.b.WriteString(text)
	s.b.WriteByte('\n')
}

func (s *section) flush() error {
	body := strings.TrimRight(s.b.String(), "\n")
	var out string
	if s.w.boxed {
		box := s.w.box
		if s.w.width > 4 {
			box = box.MaxWidth(s.w.width)
		}
		out = box.Render(s.w.title.Render(s.name) + "\n" + body)
	} else {
		out = s.w.title.Render(s.name) + "\n" + body
	}
	_, err := fmt.Fprintln(s.w.out, out)
	return err
}

// Screens renders the screens from the connection setup.
func (w *Writer) Screens(display string, screens []x11.ScreenInfo) error {
	s := w.section("Display " + display)
	for _, sc := range screens {
		s.row(fmt.Sprintf("screen %d", sc.Index), fmt.Sprintf("%dx%d root=0x%x", sc.Width, sc.Height, uint32(sc.Root)))
		s.row("  root depth", sc.RootDepth)
		s.row("  root visual", fmt.Sprintf("0x%x", uint32(sc.RootVisual)))
		s.row("  depths", joinBytes(sc.Depths))
	}
	return s.flush()
}

// Monitors renders RandR monitors and providers.
func (w *Writer) Monitors(monitors []x11.Monitor, providers []x11.Provider) error {
	s := w.section("Monitors")
	if len(monitors) == 0 {
		s.line(w.dim.Render("no active monitors"))
	}
	for _, m := range monitors {
		s.row(m.Name, fmt.Sprintf("%dx%d+%d+%d", m.Width, m.Height, m.X, m.Y))
	}
	if len(providers) > 0 {
		s.line("")
		s.line(w.title.Render("Providers"))
		for _, p := range providers {
			outputs := w.dim.Render("no outputs")
			if len(p.Outputs) > 0 {
				outputs = strings.Join(p.Outputs, ", ")
			}
			s.row(fmt.Sprintf("%s (%d)", p.Name, p.ID), outputs)
		}
	}
	return s.flush()
}

// WindowManager renders the EWMH root properties.
func (w *Writer) WindowManager(info x11.WMInfo) error {
	s := w.section("Window manager")
	if !info.Present() {
		s.line(w.dim.Render("no EWMH window manager"))
		return s.flush()
	}
	s.row("name", info.Name)
	s.row("desktop", fmt.Sprintf("%d of %d", info.CurrentDesktop+1, info.Desktops))
	s.row("clients", info.Clients)
	if info.ActiveWindow != 0 {
		s.row("active window", fmt.Sprintf("0x%x", uint32(info.ActiveWindow)))
	}
	return s.flush()
}

// Visual renders the visual choice and the descriptor the window uses.
func (w *Writer) Visual(choice x11.VisualChoice, root x11.VisualDescriptor) error {
	s := w.section("Visual")
	render := w.ok.Render("yes")
	if !choice.HasRender {
		render = w.dim.Render("missing")
	}
	s.row("RENDER", render)
	argb := w.dim.Render("none, using root visual")
	if choice.HasAlpha {
		argb = w.ok.Render(fmt.Sprintf("0x%x depth %d", uint32(choice.Visual), choice.Depth))
	}
	s.row("ARGB visual", argb)
	s.row("root visual", fmt.Sprintf("0x%x %s depth %d", uint32(root.VisualID), root.ClassName(), root.Depth))
	s.row("masks", fmt.Sprintf("r=%#06x g=%#06x b=%#06x", root.RedMask, root.GreenMask, root.BlueMask))
	s.row("bits per rgb", root.BitsPerRGB)
	s.row("colormap entries", root.ColormapEntries)
	if err := root.PixelFormat().Check(); err != nil {
		s.row("drawable", w.bad.Render(err.Error()))
	} else {
		s.row("drawable", w.ok.Render("yes"))
	}
	return s.flush()
}

// Probe renders a color probe result.
func (w *Writer) Probe(res *x11.ProbeResult) error {
	s := w.section("Color probe")
	a := res.Allocated
	s.row("colormap", fmt.Sprintf("0x%x", uint32(res.Colormap)))
	s.row("pixel", a.Pixel)
	s.row("allocated", w.ok.Render(fmt.Sprintf("rgb(%#04x, %#04x, %#04x)", a.Red, a.Green, a.Blue)))
	if res.RangeQueued > 0 {
		s.row("range query", fmt.Sprintf("%d pixels, %d colors", res.RangeQueued, res.RangeColors))
	}
	if len(res.PostFree) > 0 {
		c := res.PostFree[0]
		s.row("after free", w.dim.Render(fmt.Sprintf("rgb(%#04x, %#04x, %#04x)", c.Red, c.Green, c.Blue)))
	}
	return s.flush()
}

// FontEntry is one core font and its metrics, or why they are missing.
type FontEntry struct {
	Name    string
	Metrics x11.FontMetrics
	Err     error
}

// Fonts renders core font names with their metrics.
func (w *Writer) Fonts(pattern string, entries []FontEntry) error {
	s := w.section(fmt.Sprintf("Fonts matching %q", pattern))
	if len(entries) == 0 {
		s.line(w.dim.Render("no fonts"))
	}
	for _, e := range entries {
		if e.Err != nil {
			s.line(e.Name)
			s.line("  " + w.bad.Render(e.Err.Error()))
			continue
		}
		m := e.Metrics
		s.line(e.Name)
		s.line(w.dim.Render(fmt.Sprintf("  ascent=%d descent=%d max_advance=%d chars=%d..%d",
			m.Ascent, m.Descent, m.MaxAdvance, m.MinChar, m.MaxChar)))
	}
	return s.flush()
}

func joinBytes(bs []byte) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = fmt.Sprint(b)
	}
	return strings.Join(parts, " ")
}
