package x11

import (
	"fmt"

	"github.com/1broseidon/xprobe/internal/handle"
	"github.com/BurntSushi/xgb/xproto"
)

// Font is an opened core X font. Closing it needs the connection, so it
// keeps its own reference on the session.
type Font = handle.Dependent[xproto.Font, *Session]

// FontMetrics is the subset of QueryFont xprobe reports.
type FontMetrics struct {
	Ascent     int
	Descent    int
	MaxAdvance int
	MinChar    uint16
	MaxChar    uint16
}

// ListFonts returns up to max font names matching pattern.
func ListFonts(s *Session, pattern string, max int) ([]string, error) {
	reply, err := xproto.ListFonts(s.Conn(), uint16(max), uint16(len(pattern)), pattern).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to list fonts: %w", err)
	}
	names := make([]string, 0, len(reply.Names))
	for _, n := range reply.Names {
		names = append(names, n.Name)
	}
	return names, nil
}

// OpenFont opens a core font by name.
func OpenFont(session *handle.Shared[*Session], name string) (*Font, error) {
	conn := session.Get().Conn()
	fid, err := xproto.NewFontId(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate font id: %w", err)
	}
	if err := xproto.OpenFontChecked(conn, fid, uint16(len(name)), name).Check(); err != nil {
		return nil, fmt.Errorf("failed to open font %q: %w", name, err)
	}
	return handle.AcquireWith(fid, session, func(s *Session, fid xproto.Font) error {
		return xproto.CloseFontChecked(s.Conn(), fid).Check()
	}), nil
}

// QueryFont reads the metrics of an opened font.
func QueryFont(f *Font) (FontMetrics, error) {
	reply, err := xproto.QueryFont(f.Dep().Conn(), xproto.Fontable(f.Get())).Reply()
	if err != nil {
		return FontMetrics{}, fmt.Errorf("failed to query font: %w", err)
	}
	return FontMetrics{
		Ascent:     int(reply.FontAscent),
		Descent:    int(reply.FontDescent),
		MaxAdvance: int(reply.MaxBounds.CharacterWidth),
		MinChar:    reply.MinCharOrByte2,
		MaxChar:    reply.MaxCharOrByte2,
	}, nil
}
