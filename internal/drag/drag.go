// Package drag tracks an in-progress window-move gesture over the tiled
// layout and turns a drop on another slot into a two-window swap request.
package drag

import (
	"log"
	"sync"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// Zone is one tiled slot a dragged window can be dropped on. Zones are
// transient: they are rebuilt every time a new layout is applied or a drag
// begins.
type Zone struct {
	Index  int
	Rect   winsys.Rect
	Window winsys.WindowID
}

// SwapRequester receives the swap once a drop lands on a foreign slot.
// The lifecycle coordinator implements it.
type SwapRequester interface {
	DragSwapRequested(indexA, indexB int)
}

// Highlighter renders the optional drop-target highlight. Implementations
// are host-specific; a nil highlighter disables the visual.
type Highlighter interface {
	HighlightZone(r winsys.Rect)
	ClearHighlight()
}

// session exists only between grab-begin and grab-end; exactly one may be
// active at a time and it is destroyed at grab end regardless of outcome.
type session struct {
	window        winsys.WindowID
	originalIndex int
	hoverIndex    int
}

// Tracker owns the drop zones and the single active drag session.
type Tracker struct {
	mu          sync.Mutex
	zones       []Zone
	active      *session
	requester   SwapRequester
	highlighter Highlighter
}

// NewTracker creates a drag tracker. highlighter may be nil.
func NewTracker(requester SwapRequester, highlighter Highlighter) *Tracker {
	return &Tracker{requester: requester, highlighter: highlighter}
}

// SetZones replaces the drop zones after a layout pass. An active session
// whose window no longer occupies a zone is torn down.
func (t *Tracker) SetZones(zones []Zone) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.zones = zones
	if t.active != nil && t.zoneOf(t.active.window) < 0 {
		t.teardownLocked()
	}
}

// Active reports whether a drag session is in progress.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}

// BeginGrab starts a session for a move grab on a tiled window. Grabs on
// windows outside the tracked slots are ignored. A grab that arrives while
// another session is active supersedes it.
func (t *Tracker) BeginGrab(id winsys.WindowID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.zoneOf(id)
	if idx < 0 {
		return
	}
	if t.active != nil {
		log.Printf("drag: grab on window %d supersedes active session on %d", id, t.active.window)
		t.teardownLocked()
	}
	t.active = &session{window: id, originalIndex: idx, hoverIndex: idx}
}

// WindowMoved updates the hovered slot from the dragged window's frame
// center and drives the drop-target highlight.
func (t *Tracker) WindowMoved(id winsys.WindowID, frame winsys.Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil || t.active.window != id {
		return
	}

	hover := -1
	cx, cy := frame.CenterX(), frame.CenterY()
	for _, z := range t.zones {
		if z.Rect.Contains(cx, cy) {
			hover = z.Index
			break
		}
	}
	if hover == t.active.hoverIndex {
		return
	}
	t.active.hoverIndex = hover

	if t.highlighter == nil {
		return
	}
	if hover < 0 || hover == t.active.originalIndex {
		t.highlighter.ClearHighlight()
		return
	}
	for _, z := range t.zones {
		if z.Index == hover {
			t.highlighter.HighlightZone(z.Rect)
			return
		}
	}
}

// EndGrab finishes the session. If the drop landed on a foreign slot the
// swap is requested; either way the session is destroyed.
func (t *Tracker) EndGrab(id winsys.WindowID) {
	t.mu.Lock()

	if t.active == nil || t.active.window != id {
		t.mu.Unlock()
		return
	}
	from := t.active.originalIndex
	to := t.active.hoverIndex
	t.teardownLocked()
	t.mu.Unlock()

	if to >= 0 && to != from {
		t.requester.DragSwapRequested(from, to)
	}
}

// Teardown destroys any active session and clears the highlight. Called
// when tiling is disabled.
func (t *Tracker) Teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.teardownLocked()
	t.zones = nil
}

func (t *Tracker) teardownLocked() {
	t.active = nil
	if t.highlighter != nil {
		t.highlighter.ClearHighlight()
	}
}

func (t *Tracker) zoneOf(id winsys.WindowID) int {
	for _, z := range t.zones {
		if z.Window == id {
			return z.Index
		}
	}
	return -1
}
