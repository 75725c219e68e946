package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents an active CRTC and the output driving it.
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Outputs []string
}

// Provider is a RandR provider (usually a GPU) and its outputs.
type Provider struct {
	ID      uint32
	Name    string
	Outputs []string
}

// ScreenInfo summarizes one screen from the connection setup.
type ScreenInfo struct {
	Index      int
	Root       xproto.Window
	Width      int
	Height     int
	RootDepth  byte
	RootVisual xproto.Visualid
	Depths     []byte
}

func (s *Session) initRandr() error {
	if err := randr.Init(s.Conn()); err != nil {
		return fmt.Errorf("randr init failed: %w", err)
	}
	return nil
}

// Monitors retrieves all active monitors using XRandR.
func (s *Session) Monitors() ([]Monitor, error) {
	if err := s.initRandr(); err != nil {
		return nil, err
	}

	resources, err := randr.GetScreenResources(s.Conn(), s.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(s.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			s.logger.Debug("skipping crtc", "crtc", crtc, "error", err)
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		names := s.outputNames(crtcInfo.Outputs, resources.ConfigTimestamp)
		name := fmt.Sprintf("Monitor%d", i)
		if len(names) > 0 {
			name = names[0]
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    name,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Outputs: names,
		})
	}

	return monitors, nil
}

// Providers lists RandR providers with the names of their outputs.
func (s *Session) Providers() ([]Provider, error) {
	if err := s.initRandr(); err != nil {
		return nil, err
	}

	reply, err := randr.GetProviders(s.Conn(), s.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get providers: %w", err)
	}

	providers := make([]Provider, 0, len(reply.Providers))
	for _, p := range reply.Providers {
		info, err := randr.GetProviderInfo(s.Conn(), p, reply.Timestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get provider %d info: %w", p, err)
		}
		providers = append(providers, Provider{
			ID:      uint32(p),
			Name:    string(info.Name),
			Outputs: s.outputNames(info.Outputs, reply.Timestamp),
		})
	}
	return providers, nil
}

func (s *Session) outputNames(outputs []randr.Output, ts xproto.Timestamp) []string {
	names := make([]string, 0, len(outputs))
	for _, output := range outputs {
		info, err := randr.GetOutputInfo(s.Conn(), output, ts).Reply()
		if err != nil {
			s.logger.Debug("skipping output", "output", output, "error", err)
			continue
		}
		names = append(names, string(info.Name))
	}
	return names
}

// Screens summarizes every screen advertised in the connection setup.
func (s *Session) Screens() []ScreenInfo {
	setup := s.Setup()
	screens := make([]ScreenInfo, 0, len(setup.Roots))
	for i, root := range setup.Roots {
		depths := make([]byte, 0, len(root.AllowedDepths))
		for _, d := range root.AllowedDepths {
			depths = append(depths, d.Depth)
		}
		screens = append(screens, ScreenInfo{
			Index:      i,
			Root:       root.Root,
			Width:      int(root.WidthInPixels),
			Height:     int(root.HeightInPixels),
			RootDepth:  root.RootDepth,
			RootVisual: root.RootVisual,
			Depths:     depths,
		})
	}
	return screens
}
