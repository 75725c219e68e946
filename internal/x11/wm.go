package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// WMInfo is what an EWMH window manager advertises on the root window.
// Fields stay zero when the property is missing.
type WMInfo struct {
	Name           string
	CurrentDesktop int
	Desktops       int
	ActiveWindow   xproto.Window
	Clients        int
}

// Present reports whether an EWMH window manager answered at all.
func (w WMInfo) Present() bool {
	return w.Name != ""
}

// FrameExtents are the decoration sizes a window manager put around a
// window.
type FrameExtents struct {
	Left, Right, Top, Bottom int
}

// WindowManager reads the EWMH root properties. A bare X server with no
// window manager is not an error.
func (s *Session) WindowManager() WMInfo {
	var info WMInfo

	name, err := ewmh.GetEwmhWM(s.XUtil)
	if err != nil {
		s.logger.Debug("no EWMH window manager", "error", err)
		return info
	}
	info.Name = name

	if desktop, err := ewmh.CurrentDesktopGet(s.XUtil); err == nil {
		info.CurrentDesktop = int(desktop)
	}
	if count, err := ewmh.NumberOfDesktopsGet(s.XUtil); err == nil {
		info.Desktops = int(count)
	}
	if active, err := ewmh.ActiveWindowGet(s.XUtil); err == nil {
		info.ActiveWindow = active
	}
	if clients, err := ewmh.ClientListGet(s.XUtil); err == nil {
		info.Clients = len(clients)
	}
	return info
}

// FrameExtents returns _NET_FRAME_EXTENTS for w, or false when the window
// manager has not set it (yet).
func (s *Session) FrameExtents(w *Window) (FrameExtents, bool) {
	extents, err := ewmh.FrameExtentsGet(s.XUtil, w.ID)
	if err != nil {
		return FrameExtents{}, false
	}
	return FrameExtents{
		Left:   int(extents.Left),
		Right:  int(extents.Right),
		Top:    int(extents.Top),
		Bottom: int(extents.Bottom),
	}, true
}
