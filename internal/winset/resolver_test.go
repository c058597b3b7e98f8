package winset

import (
	"testing"

	"github.com/1broseidon/stacktile/internal/winsys"
)

func newSim() *winsys.Sim {
	return winsys.NewSim(winsys.Rect{Width: 1920, Height: 1080})
}

func TestResolve_FiltersNonTileable(t *testing.T) {
	sim := newSim()
	normal := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})

	dialog := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	w, _ := sim.Window(dialog)
	w.Type = winsys.TypeDialog
	sim.SetWindow(w)

	sticky := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	w, _ = sim.Window(sticky)
	w.Sticky = true
	sim.SetWindow(w)

	frozen := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	w, _ = sim.Window(frozen)
	w.CanResize = false
	sim.SetWindow(w)

	hidden := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	w, _ = sim.Window(hidden)
	w.Hidden = true
	sim.SetWindow(w)

	otherMonitor := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	w, _ = sim.Window(otherMonitor)
	w.Monitor = 1
	sim.SetWindow(w)

	got, err := Resolve(sim, Query{Monitor: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != normal {
		t.Fatalf("expected only window %d, got %+v", normal, got)
	}
}

func TestResolve_HiddenCheckBypassedForNewWindow(t *testing.T) {
	sim := newSim()
	sim.AddWindow(winsys.Rect{Width: 100, Height: 100})

	fresh := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	w, _ := sim.Window(fresh)
	w.Hidden = true
	sim.SetWindow(w)

	got, err := Resolve(sim, Query{Monitor: 0, NewWindow: fresh})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != fresh {
		t.Fatalf("expected new window %d as master, got %d", fresh, got[0].ID)
	}
}

func TestResolve_MasterPriority(t *testing.T) {
	sim := newSim()
	a := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	b := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	c := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	sim.SetFocused(a)

	// CurrentMaster beats focus.
	got, err := Resolve(sim, Query{Monitor: 0, CurrentMaster: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != b {
		t.Fatalf("expected current master %d, got %d", b, got[0].ID)
	}

	// NewWindow beats CurrentMaster.
	got, err = Resolve(sim, Query{Monitor: 0, NewWindow: c, CurrentMaster: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != c {
		t.Fatalf("expected new window %d, got %d", c, got[0].ID)
	}

	// Focus is the fallback.
	got, err = Resolve(sim, Query{Monitor: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != a {
		t.Fatalf("expected focused window %d, got %d", a, got[0].ID)
	}
}

func TestResolve_StaleMasterFallsBackToFocus(t *testing.T) {
	sim := newSim()
	a := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	b := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	sim.SetFocused(b)

	// A master ID that no longer resolves to a candidate must never be
	// selected; focus wins instead.
	got, err := Resolve(sim, Query{Monitor: 0, CurrentMaster: 999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != b {
		t.Fatalf("expected focused window %d, got %d", b, got[0].ID)
	}
	if len(got) != 2 || got[1].ID != a {
		t.Fatalf("unexpected candidate order: %+v", got)
	}
}

func TestResolve_StackIsTopmostFirst(t *testing.T) {
	sim := newSim()
	a := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	b := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	c := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	d := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	sim.SetFocused(a)

	got, err := Resolve(sim, Query{Monitor: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Stacking bottom-to-top is a,b,c,d; a is master, so the stack must
	// come out d,c,b (topmost first).
	want := []winsys.WindowID{a, d, c, b}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %d, got %d (full: %+v)", i, id, got[i].ID, got)
		}
	}
}

func TestResolve_ExcludeDropsClosingWindow(t *testing.T) {
	sim := newSim()
	a := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	b := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	closing := sim.AddWindow(winsys.Rect{Width: 100, Height: 100})
	sim.SetFocused(closing)

	// The closing window is still enumerable and still focused, but must
	// not be selected as master or appear in the candidates at all. With
	// no master resolving, the list comes out topmost-first.
	got, err := Resolve(sim, Query{Monitor: 0, Exclude: closing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []winsys.WindowID{b, a}
	if len(got) != 2 || got[0].ID != want[0] || got[1].ID != want[1] {
		t.Fatalf("expected %v, got %+v", want, got)
	}
}

func TestResolve_EmptyWorkspace(t *testing.T) {
	sim := newSim()
	got, err := Resolve(sim, Query{Monitor: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}
