package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/xprobe/internal/config"
	"github.com/1broseidon/xprobe/internal/redraw"
	"github.com/1broseidon/xprobe/internal/report"
	"github.com/1broseidon/xprobe/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

func runAll(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cf := addCommonFlags(fs)
	noWindow := fs.Bool("no-window", false, "Stop after the reports and probes")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xprobe run [--config PATH] [-v] [--no-window]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Report monitors, probe the colormap and visuals, then open the")
		fmt.Fprintln(os.Stderr, "redraw window until it is closed or the quit key is pressed.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	e, code, err := openEnv(cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return code
	}
	defer e.Close()

	out := report.New(os.Stdout)
	if err := reportMonitors(e, out); err != nil {
		e.logger.Warn("monitor enumeration failed", "error", err)
	}
	if err := probeColors(e, out); err != nil {
		e.logger.Error("color probe failed", "error", err)
		return 1
	}
	if err := reportVisual(e, out); err != nil {
		e.logger.Error("visual resolution failed", "error", err)
		return 1
	}
	if *noWindow {
		return 0
	}
	if err := showWindow(e); err != nil {
		e.logger.Error("redraw window failed", "error", err)
		return 1
	}
	return 0
}

func runWindow(args []string) int {
	fs := flag.NewFlagSet("window", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cf := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xprobe window [--config PATH] [-v]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open the redraw window. Keys and label come from the config.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	e, code, err := openEnv(cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return code
	}
	defer e.Close()

	if err := showWindow(e); err != nil {
		e.logger.Error("redraw window failed", "error", err)
		return 1
	}
	return 0
}

// showWindow creates the window, binds a surface to it and runs the
// redraw loop until the window goes away or the quit key is pressed.
func showWindow(e *env) error {
	s := e.session.Get()
	cfg := e.cfg

	visual, err := x11.LookupVisual(s, s.Screen.RootVisual)
	if err != nil {
		return err
	}

	quitKey, redrawKey, err := resolveKeys(s.ResolveKeycode, cfg.Keys)
	if err != nil {
		return err
	}

	label, err := newLabel(cfg.Label)
	if err != nil {
		return err
	}

	win, err := x11.CreateWindow(e.session, x11.WindowOptions{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Title:  cfg.Window.Title,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	surf, err := x11.BindSurface(e.session, win, visual)
	if err != nil {
		return err
	}
	defer surf.Close()

	loop, err := redraw.New(x11.NewEventSource(s, win.DeleteAtom), surf, redraw.Config{
		Window:         uint32(win.ID),
		Width:          win.Width,
		Height:         win.Height,
		QuitKey:        uint8(quitKey),
		RedrawKey:      uint8(redrawKey),
		Draw:           label.Draw,
		OnCloseRequest: win.Close,
		OnResize:       win.Resized,
		Logger:         e.logger,
	})
	if err != nil {
		return err
	}

	e.logger.Info("redraw loop started",
		"window", win.ID,
		"quit_keycode", quitKey,
		"redraw_keycode", redrawKey)
	if err := loop.Run(); err != nil {
		return err
	}
	if loop.WindowDestroyed() {
		if err := win.MarkDestroyed(); err != nil {
			e.logger.Warn("failed to release destroyed window", "window", win.ID, "error", err)
		}
	}
	if !win.Closed() {
		if ext, ok := s.FrameExtents(win); ok {
			e.logger.Debug("frame extents",
				"left", ext.Left,
				"right", ext.Right,
				"top", ext.Top,
				"bottom", ext.Bottom)
		}
	}
	e.logger.Info("redraw loop finished",
		"draws", loop.Draws(),
		"width", win.Width,
		"height", win.Height)
	return nil
}

// resolveKeys maps the configured key names to keycodes. Names can differ
// and still land on one keycode ("9" and "Escape"), which would leave the
// redraw key unreachable.
func resolveKeys(resolve func(string) (xproto.Keycode, error), keys config.KeysConfig) (quit, redraw xproto.Keycode, err error) {
	quit, err = resolve(keys.Quit)
	if err != nil {
		return 0, 0, fmt.Errorf("keys.quit: %w", err)
	}
	redraw, err = resolve(keys.Redraw)
	if err != nil {
		return 0, 0, fmt.Errorf("keys.redraw: %w", err)
	}
	if quit == redraw {
		return 0, 0, fmt.Errorf("keys.redraw: %q and keys.quit %q both map to keycode %d", keys.Redraw, keys.Quit, quit)
	}
	return quit, redraw, nil
}

func newLabel(cfg config.LabelConfig) (*redraw.Label, error) {
	fg, err := toRGB(cfg.Foreground)
	if err != nil {
		return nil, fmt.Errorf("label.foreground: %w", err)
	}
	bg, err := toRGB(cfg.Background)
	if err != nil {
		return nil, fmt.Errorf("label.background: %w", err)
	}
	return &redraw.Label{
		Text:       cfg.Text,
		Footer:     cfg.Footer,
		Rotation:   &redraw.FontRotation{Fonts: cfg.Fonts},
		FontSize:   cfg.FontSize,
		FooterSize: cfg.FooterSize,
		Advance:    cfg.Advance,
		Foreground: fg,
		Background: bg,
	}, nil
}

func toRGB(c config.Color) (redraw.RGB, error) {
	r, g, b, err := c.RGB()
	if err != nil {
		return redraw.RGB{}, err
	}
	return redraw.RGB{R: r, G: g, B: b}, nil
}
