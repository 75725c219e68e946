package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/xprobe/internal/report"
	"github.com/1broseidon/xprobe/internal/x11"
)

func reportMonitors(e *env, out *report.Writer) error {
	s := e.session.Get()
	if err := out.Screens(s.Display, s.Screens()); err != nil {
		return err
	}
	monitors, err := s.Monitors()
	if err != nil {
		return err
	}
	providers, err := s.Providers()
	if err != nil {
		// Older servers lack RandR 1.4 providers; monitors are still useful.
		e.logger.Debug("provider enumeration failed", "error", err)
	}
	if err := out.Monitors(monitors, providers); err != nil {
		return err
	}
	return out.WindowManager(s.WindowManager())
}

func probeColors(e *env, out *report.Writer) error {
	p := e.cfg.Probe
	res, err := x11.ProbeColors(e.session.Get(), x11.ProbeOptions{
		Red:        p.Red,
		Green:      p.Green,
		Blue:       p.Blue,
		QueryRange: p.QueryRange,
	})
	if err != nil {
		return err
	}
	return out.Probe(res)
}

func reportVisual(e *env, out *report.Writer) error {
	s := e.session.Get()
	choice, err := x11.ChooseVisual(s)
	if err != nil {
		return err
	}
	e.logger.Debug("visual chosen",
		"visual", choice.Visual,
		"depth", choice.Depth,
		"argb", choice.HasAlpha)

	root, err := x11.LookupVisual(s, s.Screen.RootVisual)
	if err != nil {
		return err
	}
	return out.Visual(choice, root)
}

func reportFonts(e *env, out *report.Writer, pattern string, max int) error {
	s := e.session.Get()
	names, err := x11.ListFonts(s, pattern, max)
	if err != nil {
		return err
	}

	entries := make([]report.FontEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, queryFontEntry(e, name))
	}
	return out.Fonts(pattern, entries)
}

func queryFontEntry(e *env, name string) report.FontEntry {
	entry := report.FontEntry{Name: name}
	f, err := x11.OpenFont(e.session, name)
	if err != nil {
		entry.Err = err
		return entry
	}
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("failed to close font", "font", name, "error", err)
		}
	}()
	entry.Metrics, entry.Err = x11.QueryFont(f)
	return entry
}

// runReport is the shared shape of the read-only subcommands.
func runReport(name, summary string, args []string, run func(e *env, out *report.Writer) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cf := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: xprobe %s [--config PATH] [-v]\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, summary)
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

	if err := run(e, report.New(os.Stdout)); err != nil {
		e.logger.Error(name+" failed", "error", err)
		return 1
	}
	return 0
}

func runMonitors(args []string) int {
	return runReport("monitors", "List screens, RandR monitors and providers, and the window manager.", args, reportMonitors)
}

func runColors(args []string) int {
	return runReport("colors", "Allocate, query and free a color on a fresh colormap.", args, probeColors)
}

func runVisual(args []string) int {
	return runReport("visual", "Show the preferred ARGB visual and the root visual.", args, reportVisual)
}

func runFonts(args []string) int {
	fs := flag.NewFlagSet("fonts", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cf := addCommonFlags(fs)
	pattern := fs.String("pattern", "", "Font name pattern (default: fonts.pattern)")
	max := fs.Int("max", 0, "Maximum fonts to list (default: fonts.max)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xprobe fonts [--config PATH] [-v] [--pattern P] [--max N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List core X fonts and query their metrics.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if *max < 0 || *max > 0xffff {
		fmt.Fprintln(os.Stderr, "--max must be in [0, 65535]")
		return 2
	}

	e, code, err := openEnv(cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return code
	}
	defer e.Close()

	p, n := e.cfg.Fonts.Pattern, e.cfg.Fonts.Max
	if *pattern != "" {
		p = *pattern
	}
	if *max > 0 {
		n = *max
	}
	if err := reportFonts(e, report.New(os.Stdout), p, n); err != nil {
		e.logger.Error("fonts failed", "error", err)
		return 1
	}
	return 0
}
