package surface

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xgraphics"
)

func TestPixelFormatCheck(t *testing.T) {
	tests := []struct {
		name    string
		format  PixelFormat
		wantErr bool
	}{
		{
			name:   "truecolor 24",
			format: PixelFormat{Depth: 24, Direct: true, RedMask: 0xff0000, GreenMask: 0xff00, BlueMask: 0xff},
		},
		{
			name:   "argb 32",
			format: PixelFormat{Depth: 32, Direct: true, RedMask: 0xff0000, GreenMask: 0xff00, BlueMask: 0xff},
		},
		{
			name:    "pseudocolor",
			format:  PixelFormat{Depth: 8},
			wantErr: true,
		},
		{
			name:    "rgb565",
			format:  PixelFormat{Depth: 16, Direct: true, RedMask: 0xf800, GreenMask: 0x7e0, BlueMask: 0x1f},
			wantErr: true,
		},
		{
			name:    "bgr order",
			format:  PixelFormat{Depth: 24, Direct: true, RedMask: 0xff, GreenMask: 0xff00, BlueMask: 0xff0000},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Check()
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedVisual) {
					t.Fatalf("Check() = %v, want ErrUnsupportedVisual", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Check() = %v, want nil", err)
			}
		})
	}
}

func TestSurfaceClose_NilIsNoop(t *testing.T) {
	var s *Surface
	if err := s.Close(); err != nil {
		t.Fatalf("Close() on nil surface = %v", err)
	}
}

func TestContextFill_PaintsRectangleOnly(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	ctx := NewContext(img, NewFontSet())

	ctx.SetSourceRGB(1, 1, 1)
	if err := ctx.Paint(); err != nil {
		t.Fatalf("Paint() error: %v", err)
	}

	ctx.SetSourceRGB(0.2, 0.4, 0.6)
	ctx.Rectangle(5, 5, 10, 10)
	if err := ctx.Fill(); err != nil {
		t.Fatalf("Fill() error: %v", err)
	}

	want := color.RGBA{R: 51, G: 102, B: 153, A: 0xff}
	if got := img.RGBAAt(10, 10); got != want {
		t.Fatalf("inside pixel = %v, want %v", got, want)
	}
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if got := img.RGBAAt(2, 2); got != white {
		t.Fatalf("outside pixel = %v, want %v", got, white)
	}
	if got := img.RGBAAt(17, 17); got != white {
		t.Fatalf("outside pixel = %v, want %v", got, white)
	}
}

func TestContextFill_ClearsPath(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	ctx := NewContext(img, NewFontSet())

	ctx.SetSourceRGB(1, 0, 0)
	ctx.Rectangle(0, 0, 4, 4)
	if err := ctx.Fill(); err != nil {
		t.Fatalf("Fill() error: %v", err)
	}
	ctx.SetSourceRGB(0, 0, 1)
	ctx.Rectangle(6, 6, 4, 4)
	if err := ctx.Fill(); err != nil {
		t.Fatalf("Fill() error: %v", err)
	}

	if got := img.RGBAAt(1, 1); got.R != 0xff || got.B != 0 {
		t.Fatalf("first rect repainted: %v", got)
	}
	if got := img.RGBAAt(8, 8); got.B != 0xff || got.R != 0 {
		t.Fatalf("second rect = %v, want blue", got)
	}
}

func TestContextShowText_AdvancesCurrentPoint(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 40))
	ctx := NewContext(img, NewFontSet())

	if _, _, ok := ctx.CurrentPoint(); ok {
		t.Fatalf("fresh context should have no current point")
	}

	ctx.SelectFontFace("Go Mono", SlantNormal, WeightNormal)
	ctx.SetFontSize(16)
	ctx.MoveTo(0, 20)

	want, err := ctx.TextAdvance("ab ")
	if err != nil {
		t.Fatalf("TextAdvance() error: %v", err)
	}
	if want <= 0 {
		t.Fatalf("TextAdvance() = %v, want > 0", want)
	}
	if err := ctx.ShowText("ab "); err != nil {
		t.Fatalf("ShowText() error: %v", err)
	}

	x, y, ok := ctx.CurrentPoint()
	if !ok {
		t.Fatalf("no current point after ShowText")
	}
	if x != want || y != 20 {
		t.Fatalf("CurrentPoint() = (%v, %v), want (%v, 20)", x, y, want)
	}

	ctx.RelMoveTo(5, 0)
	if x2, _, _ := ctx.CurrentPoint(); x2 != want+5 {
		t.Fatalf("after RelMoveTo x = %v, want %v", x2, want+5)
	}
}

func TestContextShowText_DrawsInk(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 30))
	ctx := NewContext(img, NewFontSet())
	ctx.SetSourceRGB(0, 0, 0)
	ctx.SetFontSize(20)
	ctx.MoveTo(2, 22)
	if err := ctx.ShowText("H"); err != nil {
		t.Fatalf("ShowText() error: %v", err)
	}

	inked := false
	for y := 0; y < 30 && !inked; y++ {
		for x := 0; x < 60; x++ {
			if img.RGBAAt(x, y).A != 0 {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Fatalf("ShowText drew nothing")
	}
}

func TestCanonicalFamily(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		wantExact bool
	}{
		{in: "Go", want: FamilyGo, wantExact: true},
		{in: "sans-serif", want: FamilyGo, wantExact: true},
		{in: " MonoSpace ", want: FamilyGoMono, wantExact: true},
		{in: "Go Smallcaps", want: FamilyGoSmallcaps, wantExact: true},
		{in: "Comic Sans", want: FamilyGo, wantExact: false},
		{in: "", want: FamilyGo, wantExact: false},
	}

	for _, tt := range tests {
		got, exact := CanonicalFamily(tt.in)
		if got != tt.want || exact != tt.wantExact {
			t.Fatalf("CanonicalFamily(%q) = (%q, %v), want (%q, %v)", tt.in, got, exact, tt.want, tt.wantExact)
		}
	}
}

func TestFontSetFace_CachesAndRejectsBadSize(t *testing.T) {
	fs := NewFontSet()
	defer fs.Close()

	a, err := fs.Face("monospace", SlantItalic, WeightBold, 12)
	if err != nil {
		t.Fatalf("Face() error: %v", err)
	}
	b, err := fs.Face("Go Mono", SlantOblique, WeightBold, 12)
	if err != nil {
		t.Fatalf("Face() error: %v", err)
	}
	if a != b {
		t.Fatalf("expected italic and oblique to share a cached face")
	}

	if _, err := fs.Face("Go", SlantNormal, WeightNormal, 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

var testFormat = PixelFormat{Depth: 24, Direct: true, RedMask: 0xff0000, GreenMask: 0xff00, BlueMask: 0xff}

type imageSeams struct {
	created []image.Rectangle
	binds   int
	bindErr error
}

func stubImageSeams(t *testing.T) *imageSeams {
	t.Helper()
	seams := &imageSeams{}
	origNew, origBind := newImage, bindImage
	newImage = func(_ *xgbutil.XUtil, w, h int) *xgraphics.Image {
		r := image.Rect(0, 0, w, h)
		seams.created = append(seams.created, r)
		return xgraphics.New(nil, r)
	}
	bindImage = func(*xgraphics.Image, xproto.Window) error {
		if seams.bindErr != nil {
			return seams.bindErr
		}
		seams.binds++
		return nil
	}
	t.Cleanup(func() { newImage, bindImage = origNew, origBind })
	return seams
}

type closeRecorder struct {
	closes  int
	onClose func()
}

func (c *closeRecorder) Close() error {
	c.closes++
	if c.onClose != nil {
		c.onClose()
	}
	return nil
}

func TestSurface_SetSize(t *testing.T) {
	seams := stubImageSeams(t)
	s, err := New(nil, 0x600001, testFormat, 80, 20, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	first := s.img.Get()

	if err := s.SetSize(80, 20); err != nil {
		t.Fatalf("SetSize() same size error: %v", err)
	}
	if seams.binds != 1 || s.img.Get() != first {
		t.Fatalf("same-size SetSize replaced the image (binds=%d)", seams.binds)
	}

	if err := s.SetSize(100, 40); err != nil {
		t.Fatalf("SetSize() error: %v", err)
	}
	if seams.binds != 2 {
		t.Fatalf("binds = %d, want 2", seams.binds)
	}
	if w, h := s.Size(); w != 100 || h != 40 {
		t.Fatalf("Size() = %dx%d, want 100x40", w, h)
	}
	if got := s.img.Get().Bounds(); got != image.Rect(0, 0, 100, 40) {
		t.Fatalf("image bounds = %v, want 100x40", got)
	}

	seams.bindErr = errors.New("BadMatch")
	current := s.img.Get()
	if err := s.SetSize(10, 10); err == nil {
		t.Fatalf("SetSize() with failing bind should error")
	}
	if s.img.Get() != current {
		t.Fatalf("failed SetSize replaced the bound image")
	}
	if w, h := s.Size(); w != 100 || h != 40 {
		t.Fatalf("Size() after failed SetSize = %dx%d, want 100x40", w, h)
	}
}

func TestSurface_CloseReleasesInOrderOnce(t *testing.T) {
	stubImageSeams(t)
	owner := &closeRecorder{}
	s, err := New(nil, 0x600001, testFormat, 40, 20, owner)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := s.fonts.Face(FamilyGo, SlantNormal, WeightNormal, 12); err != nil {
		t.Fatalf("Face() error: %v", err)
	}
	owner.onClose = func() {
		if !s.img.Released() {
			t.Fatalf("owner closed before the image was released")
		}
		if len(s.fonts.faces) != 0 {
			t.Fatalf("owner closed before the font faces were released")
		}
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if owner.closes != 1 {
		t.Fatalf("owner closes = %d, want 1", owner.closes)
	}
	if err := s.SetSize(10, 10); !errors.Is(err, ErrSurfaceClosed) {
		t.Fatalf("SetSize() after Close error = %v, want ErrSurfaceClosed", err)
	}
	if _, err := s.NewCanvas(); !errors.Is(err, ErrSurfaceClosed) {
		t.Fatalf("NewCanvas() after Close error = %v, want ErrSurfaceClosed", err)
	}
}

func TestNew_RejectsUnsupportedFormat(t *testing.T) {
	seams := stubImageSeams(t)
	owner := &closeRecorder{}
	_, err := New(nil, 0x600001, PixelFormat{Depth: 16, Direct: true}, 40, 20, owner)
	if !errors.Is(err, ErrUnsupportedVisual) {
		t.Fatalf("New() error = %v, want ErrUnsupportedVisual", err)
	}
	if len(seams.created) != 0 {
		t.Fatalf("images created = %d, want 0", len(seams.created))
	}
}
