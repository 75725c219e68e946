package redraw

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/xprobe/internal/surface"
)

const testWindow = 0x200001

// fakeEvents serves batches of events: WaitForEvent returns the head of
// the next batch and PollForEvent the rest of it.
type fakeEvents struct {
	batches [][]Event
	queued  []Event
	taken   int
	flushes int
}

func (f *fakeEvents) WaitForEvent() (Event, error) {
	if len(f.batches) == 0 {
		return Event{}, errors.New("no more events")
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	f.queued = append([]Event(nil), batch[1:]...)
	f.taken++
	return batch[0], nil
}

func (f *fakeEvents) PollForEvent() (Event, bool, error) {
	if len(f.queued) == 0 {
		return Event{}, false, nil
	}
	ev := f.queued[0]
	f.queued = f.queued[1:]
	f.taken++
	return ev, true, nil
}

func (f *fakeEvents) Flush() error {
	f.flushes++
	return nil
}

func (f *fakeEvents) remaining() int {
	n := len(f.queued)
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type fakeSurface struct {
	width, height int
	resizes       int
	flushes       int
}

func (s *fakeSurface) Size() (int, int) { return s.width, s.height }

func (s *fakeSurface) SetSize(w, h int) error {
	s.width, s.height = w, h
	s.resizes++
	return nil
}

func (s *fakeSurface) NewCanvas() (surface.Canvas, error) { return &recordingCanvas{}, nil }

func (s *fakeSurface) Flush() error {
	s.flushes++
	return nil
}

type frame struct {
	width, height      int
	surfaceW, surfaceH int
}

func newTestLoop(t *testing.T, events *fakeEvents, surf *fakeSurface, frames *[]frame, mutate func(*Config)) *Loop {
	t.Helper()
	cfg := Config{
		Window:    testWindow,
		Width:     surf.width,
		Height:    surf.height,
		QuitKey:   9,
		RedrawKey: 65,
		Draw: func(c surface.Canvas, w, h int) error {
			sw, sh := surf.Size()
			*frames = append(*frames, frame{width: w, height: h, surfaceW: sw, surfaceH: sh})
			return nil
		},
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	loop, err := New(events, surf, cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return loop
}

func TestLoop_QuitKeyStopsWithoutConsumingFurtherEvents(t *testing.T) {
	events := &fakeEvents{batches: [][]Event{
		{Expose(testWindow)},
		{KeyPress(testWindow, 9), Expose(testWindow), Expose(testWindow)},
		{Expose(testWindow)},
	}}
	surf := &fakeSurface{width: 800, height: 600}
	var frames []frame
	loop := newTestLoop(t, events, surf, &frames, nil)

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if loop.State() != StateTerminated {
		t.Fatalf("State() = %s, want terminated", loop.State())
	}
	if events.taken != 2 {
		t.Fatalf("consumed %d events, want 2", events.taken)
	}
	if events.remaining() != 3 {
		t.Fatalf("remaining events = %d, want 3", events.remaining())
	}
	if len(frames) != 1 {
		t.Fatalf("draws = %d, want 1", len(frames))
	}
}

func TestLoop_ExposureBatchingDrawsOnce(t *testing.T) {
	batch := make([]Event, 0, 6)
	for i := 0; i < 5; i++ {
		batch = append(batch, Expose(testWindow))
	}
	batch = append(batch, KeyPress(testWindow, 42))
	events := &fakeEvents{batches: [][]Event{
		batch,
		{Destroy(testWindow)},
	}}
	surf := &fakeSurface{width: 100, height: 100}
	var frames []frame
	loop := newTestLoop(t, events, surf, &frames, nil)

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("draws = %d, want 1", len(frames))
	}
	if loop.Draws() != 1 || surf.flushes != 1 {
		t.Fatalf("Draws() = %d, surface flushes = %d, want 1 and 1", loop.Draws(), surf.flushes)
	}
	if events.flushes != 2 {
		t.Fatalf("connection flushes = %d, want one per wait (2)", events.flushes)
	}
}

func TestLoop_ResizeBeforeDraw(t *testing.T) {
	events := &fakeEvents{batches: [][]Event{
		{Resize(testWindow, 640, 480), Expose(testWindow), Resize(testWindow, 1024, 768)},
		{Resize(testWindow, 1024, 768)},
		{KeyPress(testWindow, 65)},
		{Resize(testWindow, 300, 200)},
		{Destroy(testWindow)},
	}}
	surf := &fakeSurface{width: 800, height: 600}
	var frames []frame
	loop := newTestLoop(t, events, surf, &frames, nil)

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []frame{
		{width: 1024, height: 768, surfaceW: 1024, surfaceH: 768},
		{width: 1024, height: 768, surfaceW: 1024, surfaceH: 768},
		{width: 1024, height: 768, surfaceW: 1024, surfaceH: 768},
		{width: 300, height: 200, surfaceW: 300, surfaceH: 200},
	}
	if len(frames) != len(want) {
		t.Fatalf("draws = %d, want %d (%+v)", len(frames), len(want), frames)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Fatalf("frame %d = %+v, want %+v", i, frames[i], want[i])
		}
	}
	// The same-size resize in the second batch must not touch the surface.
	if surf.resizes != 3 {
		t.Fatalf("surface resizes = %d, want 3", surf.resizes)
	}
	if w, h := loop.Size(); w != 300 || h != 200 {
		t.Fatalf("Size() = %dx%d, want 300x200", w, h)
	}
}

func TestLoop_ReportsSizeChangesAndDestroy(t *testing.T) {
	events := &fakeEvents{batches: [][]Event{
		{Resize(testWindow, 640, 480), Resize(testWindow, 640, 480)},
		{Resize(testWindow, 300, 200)},
		{Destroy(testWindow)},
	}}
	surf := &fakeSurface{width: 800, height: 600}
	var frames []frame
	var sizes [][2]int
	loop := newTestLoop(t, events, surf, &frames, func(cfg *Config) {
		cfg.OnResize = func(w, h int) { sizes = append(sizes, [2]int{w, h}) }
	})

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := [][2]int{{640, 480}, {300, 200}}
	if len(sizes) != len(want) || sizes[0] != want[0] || sizes[1] != want[1] {
		t.Fatalf("resize notifications = %v, want %v", sizes, want)
	}
	if !loop.WindowDestroyed() {
		t.Fatalf("WindowDestroyed() = false after destroy notification")
	}
}

func TestLoop_QuitKeyLeavesWindowAlive(t *testing.T) {
	events := &fakeEvents{batches: [][]Event{{KeyPress(testWindow, 9)}}}
	surf := &fakeSurface{width: 10, height: 10}
	var frames []frame
	loop := newTestLoop(t, events, surf, &frames, nil)

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if loop.WindowDestroyed() {
		t.Fatalf("WindowDestroyed() = true after quit key")
	}
}

func TestLoop_IgnoresOtherWindowsAndUnknownEvents(t *testing.T) {
	events := &fakeEvents{batches: [][]Event{
		{Destroy(0xdead), Other(), KeyPress(testWindow, 10)},
		{CloseRequest(0xdead)},
		{Destroy(testWindow)},
	}}
	surf := &fakeSurface{width: 10, height: 10}
	var frames []frame
	loop := newTestLoop(t, events, surf, &frames, nil)

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("draws = %d, want 0", len(frames))
	}
	if events.remaining() != 0 {
		t.Fatalf("loop stopped early, %d events left", events.remaining())
	}
}

func TestLoop_ErrorEventIsLoggedAndSkipped(t *testing.T) {
	var logs bytes.Buffer
	events := &fakeEvents{batches: [][]Event{
		{ErrorEvent(errors.New("BadDrawable")), Expose(testWindow)},
		{Destroy(testWindow)},
	}}
	surf := &fakeSurface{width: 10, height: 10}
	var frames []frame
	loop := newTestLoop(t, events, surf, &frames, func(cfg *Config) {
		cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	})

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("draws = %d, want 1", len(frames))
	}
	if !strings.Contains(logs.String(), "BadDrawable") {
		t.Fatalf("expected error to be logged, got %q", logs.String())
	}
}

func TestLoop_CloseRequestRunsHook(t *testing.T) {
	events := &fakeEvents{batches: [][]Event{
		{CloseRequest(testWindow)},
		{Destroy(testWindow)},
	}}
	surf := &fakeSurface{width: 10, height: 10}
	var frames []frame
	hookCalls := 0
	loop := newTestLoop(t, events, surf, &frames, func(cfg *Config) {
		cfg.OnCloseRequest = func() error {
			hookCalls++
			return nil
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if hookCalls != 1 {
		t.Fatalf("close hook calls = %d, want 1", hookCalls)
	}
	if events.remaining() != 0 {
		t.Fatalf("loop should end on the destroy notification")
	}
}

func TestLoop_CloseRequestWithoutHookTerminates(t *testing.T) {
	events := &fakeEvents{batches: [][]Event{
		{CloseRequest(testWindow)},
		{Expose(testWindow)},
	}}
	surf := &fakeSurface{width: 10, height: 10}
	var frames []frame
	loop := newTestLoop(t, events, surf, &frames, nil)

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if events.remaining() != 1 {
		t.Fatalf("remaining events = %d, want 1", events.remaining())
	}
}

func TestLoop_PropagatesDrawAndSourceErrors(t *testing.T) {
	errDraw := errors.New("draw exploded")

	t.Run("draw", func(t *testing.T) {
		events := &fakeEvents{batches: [][]Event{{Expose(testWindow)}}}
		surf := &fakeSurface{width: 10, height: 10}
		var frames []frame
		loop := newTestLoop(t, events, surf, &frames, func(cfg *Config) {
			cfg.Draw = func(surface.Canvas, int, int) error { return errDraw }
		})
		err := loop.Run()
		if !errors.Is(err, errDraw) {
			t.Fatalf("Run() = %v, want draw error", err)
		}
		if loop.State() != StateTerminated {
			t.Fatalf("State() = %s, want terminated", loop.State())
		}
	})

	t.Run("source", func(t *testing.T) {
		events := &fakeEvents{}
		surf := &fakeSurface{width: 10, height: 10}
		var frames []frame
		loop := newTestLoop(t, events, surf, &frames, nil)
		if err := loop.Run(); err == nil {
			t.Fatalf("expected error when the event source fails")
		}
	})
}

func TestNew_RequiresCollaborators(t *testing.T) {
	surf := &fakeSurface{width: 10, height: 10}
	if _, err := New(nil, surf, Config{Draw: func(surface.Canvas, int, int) error { return nil }}); err == nil {
		t.Fatalf("expected error for nil event source")
	}
	if _, err := New(&fakeEvents{}, surf, Config{}); err == nil {
		t.Fatalf("expected error for nil draw func")
	}
}

func TestNew_FallsBackToSurfaceSize(t *testing.T) {
	surf := &fakeSurface{width: 321, height: 123}
	loop, err := New(&fakeEvents{}, surf, Config{Draw: func(surface.Canvas, int, int) error { return nil }})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if w, h := loop.Size(); w != 321 || h != 123 {
		t.Fatalf("Size() = %dx%d, want 321x123", w, h)
	}
	if loop.State() != StateWaitingForEvent {
		t.Fatalf("initial state = %s, want waiting", loop.State())
	}
}
