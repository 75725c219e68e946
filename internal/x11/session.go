package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/1broseidon/xprobe/internal/handle"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// ErrConnectionClosed is returned when the server side of the connection
// goes away while waiting for events.
var ErrConnectionClosed = errors.New("X connection closed")

// Session is the process-wide connection to the X display. Every other
// X resource is scoped to its lifetime.
type Session struct {
	XUtil       *xgbutil.XUtil
	Root        xproto.Window
	Screen      *xproto.ScreenInfo
	ScreenIndex int
	Display     string

	logger *slog.Logger
}

// Open connects to the target display and returns the first shared
// reference to the session. The connection closes when the last
// reference is closed.
func Open(target DisplayTarget, logger *slog.Logger) (*handle.Shared[*Session], error) {
	if logger == nil {
		logger = slog.Default()
	}
	if target.XAuthority != "" && os.Getenv("XAUTHORITY") == "" {
		// xgb reads the cookie file location from the environment.
		if err := os.Setenv("XAUTHORITY", target.XAuthority); err != nil {
			return nil, fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}

	xu, err := xgbutil.NewConnDisplay(target.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to open display %q: %w", target.Display, err)
	}

	// Required before keysym names can be turned into keycodes.
	keybind.Initialize(xu)

	s := &Session{
		XUtil:       xu,
		Root:        xu.RootWin(),
		Screen:      xu.Screen(),
		ScreenIndex: xu.Conn().DefaultScreen,
		Display:     target.Display,
		logger:      logger,
	}
	logger.Debug("display opened",
		"display", target.Display,
		"screen", s.ScreenIndex,
		"root", s.Root)

	return handle.Share(s, func(s *Session) error {
		s.logger.Debug("closing display", "display", s.Display)
		s.XUtil.Conn().Close()
		return nil
	}), nil
}

// Conn returns the raw protocol connection.
func (s *Session) Conn() *xgb.Conn {
	return s.XUtil.Conn()
}

// Setup returns the connection setup block (screens, depths, visuals).
func (s *Session) Setup() *xproto.SetupInfo {
	return xproto.Setup(s.XUtil.Conn())
}

// Logger returns the session's logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Flush pushes buffered requests to the server by forcing a round trip.
func (s *Session) Flush() error {
	if _, err := xproto.GetInputFocus(s.XUtil.Conn()).Reply(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// ResolveKeycode turns a keysym name ("Escape") or a decimal keycode ("9")
// into the first keycode the server maps it to.
func (s *Session) ResolveKeycode(spec string) (xproto.Keycode, error) {
	if code, ok := parseKeycode(spec); ok {
		return code, nil
	}
	codes := keybind.StrToKeycodes(s.XUtil, spec)
	if len(codes) == 0 {
		return 0, fmt.Errorf("no keycode for key %q", spec)
	}
	return codes[0], nil
}
