package x11

import (
	"fmt"

	"github.com/1broseidon/xprobe/internal/redraw"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// EventSource adapts the xgb event queue to the redraw loop.
type EventSource struct {
	session    *Session
	deleteAtom xproto.Atom
}

var _ redraw.EventSource = (*EventSource)(nil)

// NewEventSource reads events from the session's connection. deleteAtom
// is the WM_DELETE_WINDOW atom registered on the window, or 0.
func NewEventSource(s *Session, deleteAtom xproto.Atom) *EventSource {
	return &EventSource{session: s, deleteAtom: deleteAtom}
}

// WaitForEvent blocks until the server delivers an event or an error.
func (e *EventSource) WaitForEvent() (redraw.Event, error) {
	ev, xerr := e.session.Conn().WaitForEvent()
	if ev == nil && xerr == nil {
		return redraw.Event{}, ErrConnectionClosed
	}
	return translateEvent(ev, xerr, e.deleteAtom), nil
}

// PollForEvent returns an already-queued event without blocking.
func (e *EventSource) PollForEvent() (redraw.Event, bool, error) {
	ev, xerr := e.session.Conn().PollForEvent()
	if ev == nil && xerr == nil {
		return redraw.Event{}, false, nil
	}
	return translateEvent(ev, xerr, e.deleteAtom), true, nil
}

// Flush pushes buffered requests to the server.
func (e *EventSource) Flush() error {
	return e.session.Flush()
}

func translateEvent(ev xgb.Event, xerr xgb.Error, deleteAtom xproto.Atom) redraw.Event {
	if xerr != nil {
		return redraw.ErrorEvent(fmt.Errorf("x11: %s", xerr.Error()))
	}

	switch e := ev.(type) {
	case xproto.ExposeEvent:
		return redraw.Expose(uint32(e.Window))
	case xproto.ConfigureNotifyEvent:
		return redraw.Resize(uint32(e.Window), int(e.Width), int(e.Height))
	case xproto.KeyPressEvent:
		return redraw.KeyPress(uint32(e.Event), uint8(e.Detail))
	case xproto.DestroyNotifyEvent:
		return redraw.Destroy(uint32(e.Window))
	case xproto.ClientMessageEvent:
		if deleteAtom != 0 && e.Format == 32 && len(e.Data.Data32) > 0 &&
			xproto.Atom(e.Data.Data32[0]) == deleteAtom {
			return redraw.CloseRequest(uint32(e.Window))
		}
	}
	return redraw.Other()
}
