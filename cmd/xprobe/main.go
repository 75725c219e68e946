package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/1broseidon/xprobe/internal/config"
	"github.com/1broseidon/xprobe/internal/handle"
	"github.com/1broseidon/xprobe/internal/x11"
)

func main() {
	args := os.Args[1:]
	cmd := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "run":
		os.Exit(runAll(args))
	case "window":
		os.Exit(runWindow(args))
	case "monitors":
		os.Exit(runMonitors(args))
	case "colors":
		os.Exit(runColors(args))
	case "visual":
		os.Exit(runVisual(args))
	case "fonts":
		os.Exit(runFonts(args))
	case "config":
		os.Exit(runConfig(args))
	case "help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xprobe [command] [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Report, probe, then open the redraw window (default)")
	fmt.Fprintln(w, "  window              Open the redraw window only")
	fmt.Fprintln(w, "  monitors            List screens, monitors and RandR providers")
	fmt.Fprintln(w, "  colors              Run the colormap allocation probe")
	fmt.Fprintln(w, "  visual              Show the chosen and root visuals")
	fmt.Fprintln(w, "  fonts               List core X fonts with metrics")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "  config explain      Show where a config value comes from")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  --config PATH       Config file (default: ~/.config/xprobe/config.yaml)")
	fmt.Fprintln(w, "  -v                  Debug logging")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'xprobe <command> --help' for command-specific options.")
}

type commonFlags struct {
	configPath string
	verbose    bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.configPath, "config", "", "Config file path (default: ~/.config/xprobe/config.yaml)")
	fs.BoolVar(&cf.verbose, "v", false, "Debug logging")
	return cf
}

// parseArgs parses a subcommand's flags. ok is false when the caller
// should return code.
func parseArgs(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "%s: unexpected arguments: %s\n", fs.Name(), strings.Join(fs.Args(), " "))
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return config.LoadFromPath(path)
}

func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, cfg *config.Config, verbose bool) *slog.Logger {
	level := parseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// env is what every X subcommand starts from.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *handle.Shared[*x11.Session]
}

func (e *env) Close() error {
	return e.session.Close()
}

// openEnv loads config, builds the logger and opens the display. The
// returned code is meaningful only when err is non-nil.
func openEnv(cf *commonFlags) (*env, int, error) {
	res, err := loadConfig(cf.configPath)
	if err != nil {
		return nil, 1, err
	}
	logger := newLogger(os.Stderr, res.Config, cf.verbose)
	if res.File != "" {
		logger.Debug("config loaded", "path", res.File)
	}

	target, err := x11.ResolveDisplay(res.Config.Display, res.Config.XAuthority)
	if err != nil {
		return nil, 1, err
	}
	session, err := x11.Open(target, logger)
	if err != nil {
		return nil, 1, err
	}
	return &env{cfg: res.Config, logger: logger, session: session}, 0, nil
}
