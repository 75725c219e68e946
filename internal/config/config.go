package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WindowConfig controls the diagnostic window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// KeysConfig names the keys the redraw loop reacts to. Values are keysym
// names ("Escape", "space") or raw keycodes ("9").
type KeysConfig struct {
	Quit   string `yaml:"quit"`
	Redraw string `yaml:"redraw"`
}

// Color is a "#rrggbb" hex string.
type Color string

// LabelConfig is the content drawn into the window.
type LabelConfig struct {
	Text       string   `yaml:"text"`
	Footer     []string `yaml:"footer"`
	Fonts      []string `yaml:"fonts"`
	FontSize   float64  `yaml:"font_size"`
	FooterSize float64  `yaml:"footer_size"`
	Advance    float64  `yaml:"advance"`
	Foreground Color    `yaml:"foreground"`
	Background Color    `yaml:"background"`
}

// ProbeConfig configures the colormap allocation probe.
type ProbeConfig struct {
	Red        uint16 `yaml:"red"`
	Green      uint16 `yaml:"green"`
	Blue       uint16 `yaml:"blue"`
	QueryRange int    `yaml:"query_range"` // pixels [0, query_range) are bulk-queried
}

// FontsConfig configures the core font listing.
type FontsConfig struct {
	Pattern string `yaml:"pattern"`
	Max     int    `yaml:"max"`
}

// Config is the effective xprobe configuration.
type Config struct {
	Display    string       `yaml:"display,omitempty"`
	XAuthority string       `yaml:"xauthority,omitempty"`
	LogLevel   string       `yaml:"log_level"`
	Window     WindowConfig `yaml:"window"`
	Keys       KeysConfig   `yaml:"keys"`
	Label      LabelConfig  `yaml:"label"`
	Probe      ProbeConfig  `yaml:"probe"`
	Fonts      FontsConfig  `yaml:"fonts"`
}

// Largest pixel range the probe will query in one request. QueryColors
// carries a 16-bit length in 4-byte units, two of which are the header.
const MaxQueryRange = 0xffff - 2

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "xprobe",
		},
		Keys: KeysConfig{
			Quit:   "Escape",
			Redraw: "space",
		},
		Label: LabelConfig{
			Text:       "hello world",
			Footer:     []string{"hello", "world", "this", "is", "multiple", "calls"},
			Fonts:      []string{"Go", "Go Mono", "monospace", "Go Smallcaps"},
			FontSize:   20,
			FooterSize: 16,
			Advance:    5,
			Foreground: "#cc4db3",
			Background: "#ffffff",
		},
		Probe: ProbeConfig{
			Red:        0xcccc,
			Green:      0xbebe,
			Blue:       0x8181,
			QueryRange: 1024,
		},
		Fonts: FontsConfig{
			Pattern: "*",
			Max:     64,
		},
	}
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "xprobe", "config.yaml"), nil
}

// RGB parses the color into channel intensities in [0, 1].
func (c Color) RGB() (r, g, b float64, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(string(c)), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("color %q must be #rrggbb", string(c))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("color %q must be #rrggbb", string(c))
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255, nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Window.Width <= 0 || c.Window.Width > 0xffff {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("width must be in 1..65535")}
	}
	if c.Window.Height <= 0 || c.Window.Height > 0xffff {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be in 1..65535")}
	}
	if strings.TrimSpace(c.Keys.Quit) == "" {
		return &ValidationError{Path: "keys.quit", Err: fmt.Errorf("quit key is required")}
	}
	if strings.TrimSpace(c.Keys.Redraw) == "" {
		return &ValidationError{Path: "keys.redraw", Err: fmt.Errorf("redraw key is required")}
	}
	if c.Keys.Quit == c.Keys.Redraw {
		return &ValidationError{Path: "keys.redraw", Err: fmt.Errorf("redraw key must differ from quit key")}
	}
	if len(c.Label.Fonts) == 0 {
		return &ValidationError{Path: "label.fonts", Err: fmt.Errorf("fonts must not be empty")}
	}
	for i, name := range c.Label.Fonts {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: fmt.Sprintf("label.fonts[%d]", i), Err: fmt.Errorf("font family must not be empty")}
		}
	}
	if c.Label.FontSize <= 0 {
		return &ValidationError{Path: "label.font_size", Err: fmt.Errorf("font_size must be > 0")}
	}
	if c.Label.FooterSize <= 0 {
		return &ValidationError{Path: "label.footer_size", Err: fmt.Errorf("footer_size must be > 0")}
	}
	if c.Label.Advance < 0 {
		return &ValidationError{Path: "label.advance", Err: fmt.Errorf("advance must be >= 0")}
	}
	if _, _, _, err := c.Label.Foreground.RGB(); err != nil {
		return &ValidationError{Path: "label.foreground", Err: err}
	}
	if _, _, _, err := c.Label.Background.RGB(); err != nil {
		return &ValidationError{Path: "label.background", Err: err}
	}
	if c.Probe.QueryRange < 0 || c.Probe.QueryRange > MaxQueryRange {
		return &ValidationError{Path: "probe.query_range", Err: fmt.Errorf("query_range must be in 0..%d", MaxQueryRange)}
	}
	if c.Fonts.Max <= 0 || c.Fonts.Max > 0xffff {
		return &ValidationError{Path: "fonts.max", Err: fmt.Errorf("max must be in 1..65535")}
	}
	if strings.TrimSpace(c.Fonts.Pattern) == "" {
		return &ValidationError{Path: "fonts.pattern", Err: fmt.Errorf("pattern is required")}
	}
	return nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
