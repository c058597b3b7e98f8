package snapshot

import (
	"strings"
	"testing"

	"github.com/1broseidon/stacktile/internal/winsys"
)

func TestCaptureRestore_RoundTrip(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{X: 123, Y: 45, Width: 640, Height: 480})
	b := sim.AddWindow(winsys.Rect{X: 300, Y: 200, Width: 800, Height: 600})
	w, _ := sim.Window(b)
	w.Maximized = winsys.MaximizeBoth
	sim.SetWindow(w)

	windows, _ := sim.Windows(0)
	store := Capture(windows)

	// Tile both windows somewhere else and mangle their state.
	_ = sim.MoveResize(a, winsys.Rect{X: 10, Y: 10, Width: 900, Height: 1000})
	_ = sim.MoveResize(b, winsys.Rect{X: 920, Y: 10, Width: 900, Height: 1000})
	_ = sim.SetMaximized(b, winsys.MaximizeNone)

	current, _ := sim.Windows(0)
	store.Restore(sim, current)

	got, _ := sim.Window(a)
	if got.Frame != (winsys.Rect{X: 123, Y: 45, Width: 640, Height: 480}) {
		t.Fatalf("window a not restored: %+v", got.Frame)
	}
	got, _ = sim.Window(b)
	if got.Frame != (winsys.Rect{X: 300, Y: 200, Width: 800, Height: 600}) {
		t.Fatalf("window b not restored: %+v", got.Frame)
	}
	if got.Maximized != winsys.MaximizeBoth {
		t.Fatalf("window b maximize state not restored: %v", got.Maximized)
	}
}

func TestRestore_OrderGeometryThenMaximizeThenFullscreen(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{X: 0, Y: 0, Width: 640, Height: 480})
	w, _ := sim.Window(a)
	w.Fullscreen = true
	w.Maximized = winsys.MaximizeHorizontal
	sim.SetWindow(w)

	windows, _ := sim.Windows(0)
	store := Capture(windows)

	w, _ = sim.Window(a)
	w.Fullscreen = false
	w.Maximized = winsys.MaximizeNone
	sim.SetWindow(w)
	sim.Journal = nil

	current, _ := sim.Windows(0)
	store.Restore(sim, current)

	var order []string
	for _, line := range sim.Journal {
		switch {
		case strings.HasPrefix(line, "move-resize 1"):
			order = append(order, "geometry")
		case strings.HasPrefix(line, "maximize 1"):
			order = append(order, "maximize")
		case strings.HasPrefix(line, "fullscreen 1"):
			order = append(order, "fullscreen")
		}
	}
	want := []string{"geometry", "maximize", "fullscreen"}
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Fatalf("expected restore order %v, got %v (journal %v)", want, order, sim.Journal)
	}
}

func TestRestore_SkipsWindowsWithoutEntry(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	tracked := sim.AddWindow(winsys.Rect{X: 10, Y: 10, Width: 640, Height: 480})

	windows, _ := sim.Windows(0)
	store := Capture(windows)

	// A window mapped after capture has no entry and must be untouched.
	stranger := sim.AddWindow(winsys.Rect{X: 500, Y: 500, Width: 320, Height: 240})
	_ = sim.MoveResize(tracked, winsys.Rect{X: 0, Y: 0, Width: 900, Height: 900})

	current, _ := sim.Windows(0)
	store.Restore(sim, current)

	got, _ := sim.Window(stranger)
	if got.Frame != (winsys.Rect{X: 500, Y: 500, Width: 320, Height: 240}) {
		t.Fatalf("untracked window was moved: %+v", got.Frame)
	}
	got, _ = sim.Window(tracked)
	if got.Frame.X != 10 {
		t.Fatalf("tracked window not restored: %+v", got.Frame)
	}
}

func TestRestore_ReRaisesFullscreenWindows(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	below := sim.AddWindow(winsys.Rect{Width: 640, Height: 480})
	w, _ := sim.Window(below)
	w.Fullscreen = true
	sim.SetWindow(w)
	above := sim.AddWindow(winsys.Rect{Width: 640, Height: 480})
	w, _ = sim.Window(above)
	w.Fullscreen = true
	sim.SetWindow(w)

	windows, _ := sim.Windows(0)
	store := Capture(windows)

	w, _ = sim.Window(below)
	w.Fullscreen = false
	sim.SetWindow(w)
	w, _ = sim.Window(above)
	w.Fullscreen = false
	sim.SetWindow(w)
	sim.Journal = nil

	current, _ := sim.Windows(0)
	store.Restore(sim, current)

	// Both re-enter fullscreen; the corrective raises must run in original
	// bottom-to-top order so the originally-topmost window ends on top.
	var raises []string
	for _, line := range sim.Journal {
		if strings.HasPrefix(line, "raise") {
			raises = append(raises, line)
		}
	}
	if len(raises) < 2 {
		t.Fatalf("expected corrective raises, journal: %v", sim.Journal)
	}
	if raises[len(raises)-1] != "raise 2" {
		t.Fatalf("expected window 2 raised last, got %v", raises)
	}
}

func TestCaptureSingle_TargetGeometryAndStackIndex(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{X: 1, Y: 1, Width: 100, Height: 100})
	b := sim.AddWindow(winsys.Rect{X: 2, Y: 2, Width: 100, Height: 100})

	windows, _ := sim.Windows(0)
	store := Capture(windows)

	fresh := sim.AddWindow(winsys.Rect{X: -9999, Y: -9999, Width: 1, Height: 1})
	w, _ := sim.Window(fresh)
	target := winsys.Rect{X: 920, Y: 10, Width: 900, Height: 500}
	store.CaptureSingle(w, &target)

	e, ok := store.Get(fresh)
	if !ok {
		t.Fatalf("no entry for inserted window")
	}
	if e.Frame != target {
		t.Fatalf("expected target geometry recorded, got %+v", e.Frame)
	}
	ea, _ := store.Get(a)
	eb, _ := store.Get(b)
	if e.StackIndex != eb.StackIndex+1 || eb.StackIndex != ea.StackIndex+1 {
		t.Fatalf("stack indices not monotonic: a=%d b=%d fresh=%d", ea.StackIndex, eb.StackIndex, e.StackIndex)
	}
}

func TestStore_RemoveAndClear(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	b := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})

	windows, _ := sim.Windows(0)
	store := Capture(windows)
	if store.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", store.Len())
	}

	store.Remove(a)
	if _, ok := store.Get(a); ok {
		t.Fatalf("entry for %d survived Remove", a)
	}
	store.Remove(a) // absent entry is a no-op
	if store.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.Len())
	}

	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("expected empty store after Clear, got %d", store.Len())
	}
	if _, ok := store.Get(b); ok {
		t.Fatalf("entry for %d survived Clear", b)
	}
}
