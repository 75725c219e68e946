// Package redraw runs the event-driven repaint state machine for a single
// window and holds the label draw routine.
package redraw

import "fmt"

// Kind tags an Event.
type Kind int

const (
	KindOther Kind = iota
	KindExpose
	KindResize
	KindKeyPress
	KindDestroy
	KindCloseRequest
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindExpose:
		return "expose"
	case KindResize:
		return "resize"
	case KindKeyPress:
		return "keypress"
	case KindDestroy:
		return "destroy"
	case KindCloseRequest:
		return "close-request"
	case KindError:
		return "error"
	default:
		return "other"
	}
}

// Event is a closed tagged variant. Only the fields relevant to Kind are
// set; build values with the constructors below.
type Event struct {
	Kind    Kind
	Window  uint32
	Width   int
	Height  int
	Keycode uint8
	Err     error
}

func Expose(window uint32) Event {
	return Event{Kind: KindExpose, Window: window}
}

func Resize(window uint32, width, height int) Event {
	return Event{Kind: KindResize, Window: window, Width: width, Height: height}
}

func KeyPress(window uint32, keycode uint8) Event {
	return Event{Kind: KindKeyPress, Window: window, Keycode: keycode}
}

func Destroy(window uint32) Event {
	return Event{Kind: KindDestroy, Window: window}
}

// CloseRequest is a window manager asking the window to close.
func CloseRequest(window uint32) Event {
	return Event{Kind: KindCloseRequest, Window: window}
}

// ErrorEvent carries an asynchronous protocol error.
func ErrorEvent(err error) Event {
	return Event{Kind: KindError, Err: err}
}

func Other() Event {
	return Event{Kind: KindOther}
}

func (e Event) String() string {
	switch e.Kind {
	case KindResize:
		return fmt.Sprintf("resize(0x%x %dx%d)", e.Window, e.Width, e.Height)
	case KindKeyPress:
		return fmt.Sprintf("keypress(0x%x code=%d)", e.Window, e.Keycode)
	case KindError:
		return fmt.Sprintf("error(%v)", e.Err)
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("%s(0x%x)", e.Kind, e.Window)
	}
}
