// Package surface provides an offscreen BGRA drawing surface bound to an X
// window and a small path and text API over it.
package surface

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/1broseidon/xprobe/internal/handle"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xgraphics"
)

// ErrUnsupportedVisual is returned for visuals the surface cannot encode.
var ErrUnsupportedVisual = errors.New("unsupported visual")

// ErrSurfaceClosed is returned by operations on a closed surface.
var ErrSurfaceClosed = errors.New("surface closed")

// PixelFormat describes how the target visual packs pixels.
type PixelFormat struct {
	Depth     byte
	Direct    bool
	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
}

// Check reports whether the format is 8-bit-per-channel TrueColor, the only
// layout the BGRA backing image can be copied to unchanged.
func (f PixelFormat) Check() error {
	if !f.Direct {
		return fmt.Errorf("%w: not a direct-color visual", ErrUnsupportedVisual)
	}
	if f.Depth != 24 && f.Depth != 32 {
		return fmt.Errorf("%w: depth %d", ErrUnsupportedVisual, f.Depth)
	}
	if f.RedMask != 0xff0000 || f.GreenMask != 0xff00 || f.BlueMask != 0xff {
		return fmt.Errorf("%w: masks r=%#x g=%#x b=%#x", ErrUnsupportedVisual, f.RedMask, f.GreenMask, f.BlueMask)
	}
	return nil
}

var (
	newImage = func(xu *xgbutil.XUtil, w, h int) *xgraphics.Image {
		return xgraphics.New(xu, image.Rect(0, 0, w, h))
	}
	bindImage = func(img *xgraphics.Image, win xproto.Window) error {
		return img.XSurfaceSet(win)
	}
)

// Surface is a client-side image mirrored to a server pixmap that is the
// window's background. Flush pushes pending drawing to the window.
type Surface struct {
	xu    *xgbutil.XUtil
	win   xproto.Window
	img   *handle.Scoped[*xgraphics.Image]
	fonts *FontSet
	owner io.Closer

	width, height int
	closed        bool
}

// New creates a surface of w x h bound to win. owner is closed after the
// surface releases its pixmap; it usually holds the connection alive.
func New(xu *xgbutil.XUtil, win xproto.Window, format PixelFormat, w, h int, owner io.Closer) (*Surface, error) {
	if err := format.Check(); err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", w, h)
	}
	s := &Surface{
		xu:    xu,
		win:   win,
		fonts: NewFontSet(),
		owner: owner,
	}
	if err := s.SetSize(w, h); err != nil {
		return nil, err
	}
	return s, nil
}

// SetSize replaces the backing image with one of the new size. Content is
// not preserved; callers redraw after a resize.
func (s *Surface) SetSize(w, h int) error {
	if s.closed {
		return ErrSurfaceClosed
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", w, h)
	}
	if s.img != nil && w == s.width && h == s.height {
		return nil
	}

	img := newImage(s.xu, w, h)
	if err := bindImage(img, s.win); err != nil {
		img.Destroy()
		return fmt.Errorf("failed to bind %dx%d image to window 0x%x: %w", w, h, uint32(s.win), err)
	}
	if s.img != nil {
		s.img.Close()
	}
	s.img = handle.Acquire(img, func(img *xgraphics.Image) error {
		img.Destroy()
		return nil
	})
	s.width, s.height = w, h
	return nil
}

// Size returns the current surface size.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

// NewContext returns a drawing context over the current backing image.
// It is invalidated by SetSize.
func (s *Surface) NewContext() (*Context, error) {
	if s.closed {
		return nil, ErrSurfaceClosed
	}
	return NewContext(s.img.Get(), s.fonts), nil
}

// NewCanvas is NewContext behind the Canvas interface.
func (s *Surface) NewCanvas() (Canvas, error) {
	ctx, err := s.NewContext()
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

// Flush uploads the image to its pixmap and repaints the window from it.
func (s *Surface) Flush() error {
	if s.closed {
		return ErrSurfaceClosed
	}
	img := s.img.Get()
	img.XDraw()
	img.XPaint(s.win)
	return nil
}

// Close frees the pixmap and the font cache, then closes the owner.
func (s *Surface) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.img != nil {
		errs = append(errs, s.img.Close())
	}
	errs = append(errs, s.fonts.Close())
	if s.owner != nil {
		errs = append(errs, s.owner.Close())
	}
	return errors.Join(errs...)
}
