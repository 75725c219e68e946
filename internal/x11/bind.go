package x11

import (
	"fmt"

	"github.com/1broseidon/xprobe/internal/handle"
	"github.com/1broseidon/xprobe/internal/surface"
)

// BindSurface binds a drawing surface to the window's drawable. The
// surface holds a session reference until it is closed.
func BindSurface(session *handle.Shared[*Session], w *Window, visual VisualDescriptor) (*surface.Surface, error) {
	ref := session.Clone()
	s := ref.Get()
	surf, err := surface.New(s.XUtil, w.ID, visual.PixelFormat(), w.Width, w.Height, ref)
	if err != nil {
		ref.Close()
		return nil, fmt.Errorf("failed to bind surface to window 0x%x: %w", uint32(w.ID), err)
	}
	s.logger.Debug("surface bound",
		"window", w.ID,
		"visual", visual.VisualID,
		"class", visual.ClassName(),
		"depth", visual.Depth)
	return surf, nil
}
