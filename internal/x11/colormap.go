package x11

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/xprobe/internal/handle"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrEmptyQuery is returned when the server answers a color query for an
// allocated pixel with no colors.
var ErrEmptyQuery = errors.New("color query returned no colors")

// AllocatedColor is a colormap entry as reported by the server.
type AllocatedColor struct {
	Pixel uint32
	Red   uint16
	Green uint16
	Blue  uint16
}

// ColorMismatchError means the server did not echo the exact requested
// channels. xprobe cannot trust rendering on such a server.
type ColorMismatchError struct {
	Requested AllocatedColor
	Allocated AllocatedColor
}

func (e *ColorMismatchError) Error() string {
	return fmt.Sprintf("allocated color mismatch: requested rgb(%#04x, %#04x, %#04x), got rgb(%#04x, %#04x, %#04x) at pixel %d",
		e.Requested.Red, e.Requested.Green, e.Requested.Blue,
		e.Allocated.Red, e.Allocated.Green, e.Allocated.Blue, e.Allocated.Pixel)
}

// maxQueryPixels is the most pixels one QueryColors request can carry
// without BIG-REQUESTS: a 16-bit length in 4-byte units minus the header.
const maxQueryPixels = 0xffff - 2

// ProbeOptions configures ProbeColors.
type ProbeOptions struct {
	Red, Green, Blue uint16
	// QueryRange bulk-queries pixels [0, QueryRange) on the default colormap.
	QueryRange int
}

// ProbeResult summarizes a probe run.
type ProbeResult struct {
	Colormap    xproto.Colormap
	Allocated   AllocatedColor
	RangeQueued int
	RangeColors int
	// PostFree is what the server reported after the pixel was freed.
	// Its contents are server-defined and only logged.
	PostFree []AllocatedColor
}

// colorServer is the slice of the protocol the probe needs.
type colorServer interface {
	DefaultColormap() xproto.Colormap
	CreateColormap() (xproto.Colormap, error)
	FreeColormap(cmap xproto.Colormap) error
	AllocColor(cmap xproto.Colormap, r, g, b uint16) (AllocatedColor, error)
	QueryColors(cmap xproto.Colormap, pixels []uint32) ([]AllocatedColor, error)
	FreeColors(cmap xproto.Colormap, pixels []uint32) error
}

// ProbeColors exercises colormap create/allocate/query/free on the root
// visual and checks the server echoes the exact channels requested.
func ProbeColors(s *Session, opts ProbeOptions) (*ProbeResult, error) {
	return runColorProbe(&xgbColorServer{s: s}, opts, s.logger)
}

func runColorProbe(srv colorServer, opts ProbeOptions, logger *slog.Logger) (*ProbeResult, error) {
	res := &ProbeResult{}

	if opts.QueryRange < 0 || opts.QueryRange > maxQueryPixels {
		return nil, fmt.Errorf("query range %d outside 0..%d", opts.QueryRange, maxQueryPixels)
	}
	if opts.QueryRange > 0 {
		pixels := make([]uint32, opts.QueryRange)
		for i := range pixels {
			pixels[i] = uint32(i)
		}
		colors, err := srv.QueryColors(srv.DefaultColormap(), pixels)
		if err != nil {
			return nil, fmt.Errorf("failed to query default colormap: %w", err)
		}
		res.RangeQueued = len(pixels)
		res.RangeColors = len(colors)
		logger.Debug("queried default colormap", "pixels", len(pixels), "colors", len(colors))
	}

	cmapID, err := srv.CreateColormap()
	if err != nil {
		return nil, fmt.Errorf("failed to create colormap: %w", err)
	}
	cmap := handle.Acquire(cmapID, srv.FreeColormap)
	defer cmap.Close()
	res.Colormap = cmapID

	got, err := srv.AllocColor(cmap.Get(), opts.Red, opts.Green, opts.Blue)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate color: %w", err)
	}
	pixel := handle.Acquire(got.Pixel, func(p uint32) error {
		return srv.FreeColors(cmap.Get(), []uint32{p})
	})
	defer pixel.Close()
	res.Allocated = got
	logger.Debug("allocated color",
		"pixel", got.Pixel,
		"red", got.Red,
		"green", got.Green,
		"blue", got.Blue)

	if got.Red != opts.Red || got.Green != opts.Green || got.Blue != opts.Blue {
		return nil, &ColorMismatchError{
			Requested: AllocatedColor{Red: opts.Red, Green: opts.Green, Blue: opts.Blue},
			Allocated: got,
		}
	}

	colors, err := srv.QueryColors(cmap.Get(), []uint32{got.Pixel})
	if err != nil {
		return nil, fmt.Errorf("failed to query allocated pixel: %w", err)
	}
	if len(colors) == 0 {
		return nil, fmt.Errorf("pixel %d: %w", got.Pixel, ErrEmptyQuery)
	}

	if err := pixel.Close(); err != nil {
		return nil, fmt.Errorf("failed to free pixel %d: %w", got.Pixel, err)
	}

	after, err := srv.QueryColors(cmap.Get(), []uint32{got.Pixel})
	if err != nil {
		logger.Debug("post-free query failed", "pixel", got.Pixel, "error", err)
	} else {
		res.PostFree = after
		logger.Debug("post-free query", "pixel", got.Pixel, "colors", after)
	}

	if err := cmap.Close(); err != nil {
		return nil, fmt.Errorf("failed to free colormap: %w", err)
	}
	return res, nil
}

type xgbColorServer struct {
	s *Session
}

func (x *xgbColorServer) DefaultColormap() xproto.Colormap {
	return x.s.Screen.DefaultColormap
}

func (x *xgbColorServer) CreateColormap() (xproto.Colormap, error) {
	conn := x.s.Conn()
	cmap, err := xproto.NewColormapId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, cmap, x.s.Root, x.s.Screen.RootVisual).Check()
	if err != nil {
		return 0, err
	}
	return cmap, nil
}

func (x *xgbColorServer) FreeColormap(cmap xproto.Colormap) error {
	return xproto.FreeColormapChecked(x.s.Conn(), cmap).Check()
}

func (x *xgbColorServer) AllocColor(cmap xproto.Colormap, r, g, b uint16) (AllocatedColor, error) {
	reply, err := xproto.AllocColor(x.s.Conn(), cmap, r, g, b).Reply()
	if err != nil {
		return AllocatedColor{}, err
	}
	return AllocatedColor{Pixel: reply.Pixel, Red: reply.Red, Green: reply.Green, Blue: reply.Blue}, nil
}

func (x *xgbColorServer) QueryColors(cmap xproto.Colormap, pixels []uint32) ([]AllocatedColor, error) {
	reply, err := xproto.QueryColors(x.s.Conn(), cmap, pixels).Reply()
	if err != nil {
		return nil, err
	}
	out := make([]AllocatedColor, 0, len(reply.Colors))
	for i, c := range reply.Colors {
		var pixel uint32
		if i < len(pixels) {
			pixel = pixels[i]
		}
		out = append(out, AllocatedColor{Pixel: pixel, Red: c.Red, Green: c.Green, Blue: c.Blue})
	}
	return out, nil
}

func (x *xgbColorServer) FreeColors(cmap xproto.Colormap, pixels []uint32) error {
	return xproto.FreeColorsChecked(x.s.Conn(), cmap, 0, pixels).Check()
}
