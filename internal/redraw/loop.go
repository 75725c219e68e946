package redraw

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/xprobe/internal/surface"
)

// State is the loop's position in its state machine.
type State int

const (
	StateWaitingForEvent State = iota
	StateDrainingQueuedEvents
	StateRedrawing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateWaitingForEvent:
		return "waiting"
	case StateDrainingQueuedEvents:
		return "draining"
	case StateRedrawing:
		return "redrawing"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventSource delivers window events.
type EventSource interface {
	// WaitForEvent blocks until an event is available.
	WaitForEvent() (Event, error)
	// PollForEvent returns a queued event, or false when none is queued.
	PollForEvent() (Event, bool, error)
	// Flush pushes pending requests to the server.
	Flush() error
}

// Surface is the drawing target kept in sync with the window size.
type Surface interface {
	Size() (int, int)
	SetSize(width, height int) error
	NewCanvas() (surface.Canvas, error)
	Flush() error
}

// DrawFunc renders one frame of width x height.
type DrawFunc func(c surface.Canvas, width, height int) error

// Config configures a Loop.
type Config struct {
	// Window is the id whose destroy notification ends the loop.
	Window uint32
	// Width and Height are the window's size at creation.
	Width  int
	Height int

	QuitKey   uint8
	RedrawKey uint8

	Draw DrawFunc
	// OnCloseRequest runs when the window manager asks to close the
	// window. It should destroy the window; the loop then ends on the
	// destroy notification. When nil the loop terminates directly.
	OnCloseRequest func() error
	// OnResize, when set, receives every size change of the window.
	OnResize func(width, height int)

	Logger *slog.Logger
}

// Loop repaints a window in response to its events.
type Loop struct {
	events  EventSource
	surface Surface
	cfg     Config
	logger  *slog.Logger

	state   State
	pending Event
	width     int
	height    int
	draws     int
	destroyed bool
}

func New(events EventSource, surf Surface, cfg Config) (*Loop, error) {
	if events == nil || surf == nil {
		return nil, errors.New("redraw: event source and surface are required")
	}
	if cfg.Draw == nil {
		return nil, errors.New("redraw: draw function is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = surf.Size()
	}
	return &Loop{
		events:  events,
		surface: surf,
		cfg:     cfg,
		logger:  logger,
		state:   StateWaitingForEvent,
		width:   w,
		height:  h,
	}, nil
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Size returns the most recently recorded window size.
func (l *Loop) Size() (int, int) { return l.width, l.height }

// Draws returns how many frames have been drawn.
func (l *Loop) Draws() int { return l.draws }

// WindowDestroyed reports whether the loop ended because the server
// destroyed the window.
func (l *Loop) WindowDestroyed() bool { return l.destroyed }

// Run processes events until the window is destroyed or the quit key is
// pressed, in which case it returns nil. Event source, surface and draw
// errors end the loop and are returned.
func (l *Loop) Run() error {
	for {
		switch l.state {
		case StateWaitingForEvent:
			if err := l.events.Flush(); err != nil {
				return l.fail(fmt.Errorf("failed to flush connection: %w", err))
			}
			ev, err := l.events.WaitForEvent()
			if err != nil {
				return l.fail(fmt.Errorf("failed to wait for event: %w", err))
			}
			l.pending = ev
			l.state = StateDrainingQueuedEvents

		case StateDrainingQueuedEvents:
			next, err := l.drain()
			if err != nil {
				return l.fail(err)
			}
			l.state = next

		case StateRedrawing:
			if err := l.redraw(); err != nil {
				return l.fail(err)
			}
			l.state = StateWaitingForEvent

		case StateTerminated:
			return nil

		default:
			return fmt.Errorf("redraw: invalid state %s", l.state)
		}
	}
}

func (l *Loop) fail(err error) error {
	l.state = StateTerminated
	return err
}

// drain applies the pending event and everything already queued behind
// it, then picks the next state.
func (l *Loop) drain() (State, error) {
	needsRedraw := false
	ev := l.pending
	for {
		redraw, stop, err := l.apply(ev)
		if err != nil {
			return StateTerminated, err
		}
		if stop {
			return StateTerminated, nil
		}
		needsRedraw = needsRedraw || redraw

		next, ok, err := l.events.PollForEvent()
		if err != nil {
			return StateTerminated, fmt.Errorf("failed to poll for event: %w", err)
		}
		if !ok {
			break
		}
		ev = next
	}
	if needsRedraw {
		return StateRedrawing, nil
	}
	return StateWaitingForEvent, nil
}

func (l *Loop) apply(ev Event) (redraw, stop bool, err error) {
	switch ev.Kind {
	case KindExpose:
		return true, false, nil

	case KindResize:
		if ev.Width != l.width || ev.Height != l.height {
			l.width, l.height = ev.Width, ev.Height
			if l.cfg.OnResize != nil {
				l.cfg.OnResize(ev.Width, ev.Height)
			}
		}
		if w, h := l.surface.Size(); w != ev.Width || h != ev.Height {
			if err := l.surface.SetSize(ev.Width, ev.Height); err != nil {
				return false, false, fmt.Errorf("failed to resize surface to %dx%d: %w", ev.Width, ev.Height, err)
			}
		}
		return true, false, nil

	case KindKeyPress:
		switch ev.Keycode {
		case l.cfg.QuitKey:
			l.logger.Debug("quit key pressed", "keycode", ev.Keycode)
			return false, true, nil
		case l.cfg.RedrawKey:
			return true, false, nil
		}
		return false, false, nil

	case KindDestroy:
		if ev.Window != l.cfg.Window {
			return false, false, nil
		}
		l.logger.Debug("window destroyed", "window", ev.Window)
		l.destroyed = true
		return false, true, nil

	case KindCloseRequest:
		if ev.Window != l.cfg.Window {
			return false, false, nil
		}
		if l.cfg.OnCloseRequest == nil {
			return false, true, nil
		}
		l.logger.Debug("close requested", "window", ev.Window)
		if err := l.cfg.OnCloseRequest(); err != nil {
			return false, false, fmt.Errorf("close hook failed: %w", err)
		}
		return false, false, nil

	case KindError:
		l.logger.Warn("X error event", "error", ev.Err)
		return false, false, nil
	}
	return false, false, nil
}

func (l *Loop) redraw() error {
	canvas, err := l.surface.NewCanvas()
	if err != nil {
		return fmt.Errorf("failed to create drawing context: %w", err)
	}
	if err := l.cfg.Draw(canvas, l.width, l.height); err != nil {
		return fmt.Errorf("draw failed: %w", err)
	}
	if err := l.surface.Flush(); err != nil {
		return fmt.Errorf("failed to flush surface: %w", err)
	}
	l.draws++
	return nil
}
