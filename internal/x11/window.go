package x11

import (
	"fmt"

	"github.com/1broseidon/xprobe/internal/handle"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// DefaultEventMask is the minimum subscription the redraw loop needs.
const DefaultEventMask = xproto.EventMaskStructureNotify | xproto.EventMaskExposure | xproto.EventMaskKeyPress

// WindowOptions configures CreateWindow.
type WindowOptions struct {
	Width     int
	Height    int
	Title     string
	EventMask uint32 // OR'ed with DefaultEventMask
}

// Window is a mapped top-level window on the session's default screen.
type Window struct {
	ID        xproto.Window
	Width     int
	Height    int
	EventMask uint32

	// DeleteAtom is WM_DELETE_WINDOW, or 0 when it could not be interned.
	DeleteAtom xproto.Atom

	res       *handle.Dependent[xproto.Window, *Session]
	destroyed bool
}

var destroyWindowFn = func(s *Session, wid xproto.Window) {
	// Unchecked: the server may already have destroyed it.
	xproto.DestroyWindow(s.Conn(), wid)
}

// CreateWindow creates an InputOutput window at the parent's depth with
// the screen's default white background and black border, then maps it.
// There is no separate show step.
func CreateWindow(session *handle.Shared[*Session], opts WindowOptions) (*Window, error) {
	s := session.Get()
	conn := s.Conn()
	screen := s.Screen

	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", opts.Width, opts.Height)
	}
	mask := opts.EventMask | DefaultEventMask

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		s.Root,
		0, 0,
		uint16(opts.Width), uint16(opts.Height),
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwEventMask,
		// Value list order follows the bit positions of the mask (low to high).
		[]uint32{screen.WhitePixel, screen.BlackPixel, mask},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{
		ID:        wid,
		Width:     opts.Width,
		Height:    opts.Height,
		EventMask: mask,
	}
	w.res = handle.AcquireWith(wid, session, w.destroy)

	if opts.Title != "" {
		if err := icccm.WmNameSet(s.XUtil, wid, opts.Title); err != nil {
			s.logger.Warn("failed to set WM_NAME", "window", wid, "error", err)
		}
		if err := ewmh.WmNameSet(s.XUtil, wid, opts.Title); err != nil {
			s.logger.Warn("failed to set _NET_WM_NAME", "window", wid, "error", err)
		}
	}

	if atom, err := xprop.Atm(s.XUtil, "WM_DELETE_WINDOW"); err == nil {
		if err := icccm.WmProtocolsSet(s.XUtil, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
			s.logger.Warn("failed to set WM_PROTOCOLS", "window", wid, "error", err)
		} else {
			w.DeleteAtom = atom
		}
	} else {
		s.logger.Warn("failed to intern WM_DELETE_WINDOW", "error", err)
	}

	if err := xproto.MapWindowChecked(conn, wid).Check(); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to map window: %w", err)
	}

	s.logger.Debug("window mapped",
		"window", wid,
		"width", opts.Width,
		"height", opts.Height)
	return w, nil
}

func (w *Window) destroy(s *Session, wid xproto.Window) error {
	if !w.destroyed {
		destroyWindowFn(s, wid)
	}
	return nil
}

// Resized records a new size reported by the server.
func (w *Window) Resized(width, height int) {
	w.Width, w.Height = width, height
}

// MarkDestroyed records that the server already destroyed the window and
// releases the handle without sending DestroyWindow.
func (w *Window) MarkDestroyed() error {
	if w == nil {
		return nil
	}
	w.destroyed = true
	return w.Close()
}

// Close destroys the server window. It runs once.
func (w *Window) Close() error {
	if w == nil || w.res == nil {
		return nil
	}
	return w.res.Close()
}

// Closed reports whether Close has run.
func (w *Window) Closed() bool {
	return w == nil || w.res == nil || w.res.Released()
}
