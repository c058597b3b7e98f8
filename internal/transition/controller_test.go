package transition

import (
	"strings"
	"testing"

	"github.com/1broseidon/stacktile/internal/winsys"
)

func journalIndex(journal []string, prefix string) int {
	for i, line := range journal {
		if strings.HasPrefix(line, prefix) {
			return i
		}
	}
	return -1
}

func TestApply_SuppressBeforeMutateBeforeReveal(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{X: 5, Y: 5, Width: 300, Height: 300})
	b := sim.AddWindow(winsys.Rect{X: 50, Y: 50, Width: 300, Height: 300})

	c := NewController(sim, sim, sim)
	c.Apply(Batch{Targets: []Target{
		{ID: a, Frame: winsys.Rect{X: 10, Y: 10, Width: 900, Height: 1000}},
		{ID: b, Frame: winsys.Rect{X: 920, Y: 10, Width: 900, Height: 1000}},
	}})

	// Nothing ran yet: everything is scheduled past the current frame.
	if got, _ := sim.Window(a); got.Frame.X != 5 {
		t.Fatalf("mutation ran before frame boundary: %+v", got.Frame)
	}
	if sim.InhibitCount() != 1 {
		t.Fatalf("expected inhibit count 1, got %d", sim.InhibitCount())
	}

	sim.StepFrame()

	if got, _ := sim.Window(a); got.Frame.X != 10 {
		t.Fatalf("expected window a placed, got %+v", got.Frame)
	}
	if sim.HiddenActorCount() != 2 {
		t.Fatalf("expected both actors hidden mid-transition, got %d", sim.HiddenActorCount())
	}

	hide := journalIndex(sim.Journal, "hide 1")
	move := journalIndex(sim.Journal, "move-resize 1")
	if hide < 0 || move < 0 || hide > move {
		t.Fatalf("suppression must precede mutation: hide=%d move=%d (%v)", hide, move, sim.Journal)
	}

	sim.StepFrame()

	if sim.HiddenActorCount() != 0 {
		t.Fatalf("expected all actors revealed, got %d hidden", sim.HiddenActorCount())
	}
	if sim.InhibitCount() != 0 {
		t.Fatalf("inhibit counter leaked: %d", sim.InhibitCount())
	}
	show := journalIndex(sim.Journal, "show 1")
	if show < move {
		t.Fatalf("reveal must follow mutation: show=%d move=%d", show, move)
	}
}

func TestApply_UnfullscreenAndUnmaximizeBeforePlacement(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{Width: 300, Height: 300})
	w, _ := sim.Window(a)
	w.Fullscreen = true
	w.Maximized = winsys.MaximizeBoth
	sim.SetWindow(w)

	c := NewController(sim, sim, sim)
	c.Apply(Batch{Targets: []Target{{ID: a, Frame: winsys.Rect{X: 10, Y: 10, Width: 900, Height: 900}}}})
	sim.Settle()

	fs := journalIndex(sim.Journal, "fullscreen 1 false")
	maxi := journalIndex(sim.Journal, "maximize 1 0")
	move := journalIndex(sim.Journal, "move-resize 1")
	if fs < 0 || maxi < 0 {
		t.Fatalf("expected fullscreen and maximize clears, journal: %v", sim.Journal)
	}
	if fs > move || maxi > move {
		t.Fatalf("state clears must precede geometry write: fs=%d max=%d move=%d", fs, maxi, move)
	}
	got, _ := sim.Window(a)
	if got.Fullscreen || got.Maximized != winsys.MaximizeNone {
		t.Fatalf("window state not cleared: %+v", got)
	}
}

func TestApply_VanishedWindowDoesNotAbortBatch(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{Width: 300, Height: 300})
	b := sim.AddWindow(winsys.Rect{Width: 300, Height: 300})

	c := NewController(sim, sim, sim)
	c.Apply(Batch{Targets: []Target{
		{ID: a, Frame: winsys.Rect{X: 10, Y: 10, Width: 900, Height: 900}},
		{ID: b, Frame: winsys.Rect{X: 920, Y: 10, Width: 900, Height: 900}},
	}})

	// The window closes between scheduling and execution.
	sim.DestroyWindow(a)
	sim.Settle()

	got, ok := sim.Window(b)
	if !ok || got.Frame.X != 920 {
		t.Fatalf("surviving window was not placed: %+v", got)
	}
	if sim.InhibitCount() != 0 {
		t.Fatalf("inhibit counter leaked after partial failure: %d", sim.InhibitCount())
	}
}

func TestApply_InsertedWindowKeptVisibleAndBackstopped(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	existing := sim.AddWindow(winsys.Rect{Width: 300, Height: 300})
	fresh := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})

	c := NewController(sim, sim, sim)
	target := winsys.Rect{X: 10, Y: 10, Width: 900, Height: 1000}
	c.Apply(Batch{
		Targets: []Target{
			{ID: fresh, Frame: target},
			{ID: existing, Frame: winsys.Rect{X: 920, Y: 10, Width: 900, Height: 1000}},
		},
		Inserted: fresh,
	})

	sim.StepFrame()
	if sim.HiddenActorCount() != 1 {
		t.Fatalf("inserted window must stay visible, got %d hidden actors", sim.HiddenActorCount())
	}
	if sim.PendingTimers() != 1 {
		t.Fatalf("expected one pending backstop, got %d", sim.PendingTimers())
	}

	// The client moves itself before the backstop fires; the backstop
	// re-asserts the tiled geometry.
	w, _ := sim.Window(fresh)
	w.Frame = winsys.Rect{X: 400, Y: 400, Width: 200, Height: 200}
	sim.SetWindow(w)
	sim.FireTimers()

	got, _ := sim.Window(fresh)
	if got.Frame != target {
		t.Fatalf("backstop did not re-apply target geometry: %+v", got.Frame)
	}

	sim.Settle()
	if sim.InhibitCount() != 0 || sim.PendingTimers() != 0 {
		t.Fatalf("leaked inhibit=%d timers=%d", sim.InhibitCount(), sim.PendingTimers())
	}
}

func TestApply_LaterInsertionSupersedesPendingBackstop(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	first := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	second := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})

	c := NewController(sim, sim, sim)
	c.Apply(Batch{
		Targets:  []Target{{ID: first, Frame: winsys.Rect{X: 10, Y: 10, Width: 500, Height: 500}}},
		Inserted: first,
	})
	sim.StepFrame()

	c.Apply(Batch{
		Targets:  []Target{{ID: second, Frame: winsys.Rect{X: 600, Y: 10, Width: 500, Height: 500}}},
		Inserted: second,
	})
	sim.StepFrame()

	// The first backstop was canceled; only the second remains.
	if sim.PendingTimers() != 1 {
		t.Fatalf("expected exactly one pending backstop, got %d", sim.PendingTimers())
	}
	sim.Settle()
}

func TestCancelPending_DropsBackstop(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	fresh := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})

	c := NewController(sim, sim, sim)
	c.Apply(Batch{
		Targets:  []Target{{ID: fresh, Frame: winsys.Rect{X: 10, Y: 10, Width: 500, Height: 500}}},
		Inserted: fresh,
	})
	sim.StepFrame()

	if sim.PendingTimers() != 1 {
		t.Fatalf("expected pending backstop, got %d", sim.PendingTimers())
	}
	c.CancelPending()
	if sim.PendingTimers() != 0 {
		t.Fatalf("backstop survived CancelPending: %d", sim.PendingTimers())
	}
	sim.Settle()
	if sim.InhibitCount() != 0 {
		t.Fatalf("inhibit counter leaked: %d", sim.InhibitCount())
	}
}

func TestApply_HideListCoversMutateOnlyBatches(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{Width: 300, Height: 300})
	b := sim.AddWindow(winsys.Rect{Width: 300, Height: 300})

	c := NewController(sim, sim, sim)
	c.Apply(Batch{
		Hide: []winsys.WindowID{a, b},
		Mutate: func() {
			_ = sim.MoveResize(a, winsys.Rect{X: 77, Y: 77, Width: 400, Height: 400})
		},
	})

	sim.StepFrame()
	if sim.HiddenActorCount() != 2 {
		t.Fatalf("expected both actors hidden during mutate-only batch, got %d", sim.HiddenActorCount())
	}
	if got, _ := sim.Window(a); got.Frame.X != 77 {
		t.Fatalf("mutate did not run: %+v", got.Frame)
	}

	sim.Settle()
	if sim.HiddenActorCount() != 0 || sim.InhibitCount() != 0 {
		t.Fatalf("leaked hidden=%d inhibit=%d", sim.HiddenActorCount(), sim.InhibitCount())
	}
}

func TestMoveWindow_SingleWindowPath(t *testing.T) {
	sim := winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
	a := sim.AddWindow(winsys.Rect{Width: 300, Height: 300})

	c := NewController(sim, sim, sim)
	c.MoveWindow(a, winsys.Rect{X: 42, Y: 24, Width: 640, Height: 480})
	sim.Settle()

	got, _ := sim.Window(a)
	if got.Frame != (winsys.Rect{X: 42, Y: 24, Width: 640, Height: 480}) {
		t.Fatalf("unexpected frame %+v", got.Frame)
	}
	if sim.InhibitCount() != 0 || sim.HiddenActorCount() != 0 {
		t.Fatalf("leaked inhibit=%d hidden=%d", sim.InhibitCount(), sim.HiddenActorCount())
	}
}
