package x11

import (
	"errors"
	"fmt"

	"github.com/1broseidon/xprobe/internal/surface"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrVisualNotFound is returned when a visual id is not advertised by any
// screen. It is a setup failure, not something to retry.
var ErrVisualNotFound = errors.New("visual not found")

// VisualDescriptor is a server-advertised pixel layout.
type VisualDescriptor struct {
	VisualID        xproto.Visualid
	Class           byte
	Depth           byte
	BitsPerRGB      byte
	ColormapEntries uint16
	RedMask         uint32
	GreenMask       uint32
	BlueMask        uint32
}

// ClassName returns the protocol name of the visual class.
func (v VisualDescriptor) ClassName() string {
	switch v.Class {
	case xproto.VisualClassStaticGray:
		return "StaticGray"
	case xproto.VisualClassGrayScale:
		return "GrayScale"
	case xproto.VisualClassStaticColor:
		return "StaticColor"
	case xproto.VisualClassPseudoColor:
		return "PseudoColor"
	case xproto.VisualClassTrueColor:
		return "TrueColor"
	case xproto.VisualClassDirectColor:
		return "DirectColor"
	default:
		return fmt.Sprintf("class(%d)", v.Class)
	}
}

// PixelFormat converts the descriptor into what the rasterizer checks.
func (v VisualDescriptor) PixelFormat() surface.PixelFormat {
	return surface.PixelFormat{
		Depth:     v.Depth,
		Direct:    v.Class == xproto.VisualClassTrueColor || v.Class == xproto.VisualClassDirectColor,
		RedMask:   v.RedMask,
		GreenMask: v.GreenMask,
		BlueMask:  v.BlueMask,
	}
}

// VisualChoice is the outcome of ChooseVisual.
type VisualChoice struct {
	Depth    byte
	Visual   xproto.Visualid
	HasAlpha bool
	// HasRender is false when the RENDER extension was missing.
	HasRender bool
}

// ChooseVisual prefers a 32-bit ARGB visual advertised through RENDER and
// falls back to the screen's root visual and depth.
func ChooseVisual(s *Session) (VisualChoice, error) {
	fallback := VisualChoice{Depth: s.Screen.RootDepth, Visual: s.Screen.RootVisual}

	if err := render.Init(s.Conn()); err != nil {
		s.logger.Debug("render extension unavailable, using root visual", "error", err)
		return fallback, nil
	}
	fallback.HasRender = true

	formats, err := render.QueryPictFormats(s.Conn()).Reply()
	if err != nil {
		return VisualChoice{}, fmt.Errorf("failed to query picture formats: %w", err)
	}

	depth, visual, ok := chooseARGBVisual(formats, s.ScreenIndex)
	if !ok {
		return fallback, nil
	}
	return VisualChoice{Depth: depth, Visual: visual, HasAlpha: true, HasRender: true}, nil
}

const argbDepth = 32

func isARGB32(info render.Pictforminfo) bool {
	if info.Type != render.PictTypeDirect || info.Depth != argbDepth {
		return false
	}
	d := info.Direct
	if d.RedMask != 0xff || d.GreenMask != 0xff || d.BlueMask != 0xff || d.AlphaMask != 0xff {
		return false
	}
	return d.RedShift == 16 && d.GreenShift == 8 && d.BlueShift == 0 && d.AlphaShift == 24
}

func chooseARGBVisual(formats *render.QueryPictFormatsReply, screenIndex int) (byte, xproto.Visualid, bool) {
	if formats == nil {
		return 0, 0, false
	}

	var format *render.Pictforminfo
	for i := range formats.Formats {
		if isARGB32(formats.Formats[i]) {
			format = &formats.Formats[i]
			break
		}
	}
	if format == nil || screenIndex < 0 || screenIndex >= len(formats.Screens) {
		return 0, 0, false
	}

	for _, depth := range formats.Screens[screenIndex].Depths {
		for _, v := range depth.Visuals {
			if v.Format == format.Id {
				return format.Depth, v.Visual, true
			}
		}
	}
	return 0, 0, false
}

// FindVisualType scans every screen's depths for visualID.
func FindVisualType(setup *xproto.SetupInfo, visualID xproto.Visualid) (VisualDescriptor, bool) {
	for _, root := range setup.Roots {
		for _, depth := range root.AllowedDepths {
			for _, v := range depth.Visuals {
				if v.VisualId == visualID {
					return VisualDescriptor{
						VisualID:        v.VisualId,
						Class:           v.Class,
						Depth:           depth.Depth,
						BitsPerRGB:      v.BitsPerRgbValue,
						ColormapEntries: v.ColormapEntries,
						RedMask:         v.RedMask,
						GreenMask:       v.GreenMask,
						BlueMask:        v.BlueMask,
					}, true
				}
			}
		}
	}
	return VisualDescriptor{}, false
}

// LookupVisual is FindVisualType with the not-found case as an error.
func LookupVisual(s *Session, visualID xproto.Visualid) (VisualDescriptor, error) {
	v, ok := FindVisualType(s.Setup(), visualID)
	if !ok {
		return VisualDescriptor{}, fmt.Errorf("%w: 0x%x", ErrVisualNotFound, uint32(visualID))
	}
	return v, nil
}
