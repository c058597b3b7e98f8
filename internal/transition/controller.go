// Package transition makes a batch of geometry and state changes to many
// windows appear as a single visual update, synchronized to the
// compositor's redraw boundary, with no animated interpolation.
package transition

import (
	"log"
	"sync"
	"time"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// InsertSettleDelay is the bounded backstop for newly inserted windows: a
// window that is not fully mapped when its slot is computed may silently
// ignore the first geometry write, so the write is repeated once after
// this delay unless superseded.
const InsertSettleDelay = 250 * time.Millisecond

// Target describes the desired end state for one window in a batch.
type Target struct {
	ID         winsys.WindowID
	Frame      winsys.Rect
	Maximized  winsys.MaximizeState
	Fullscreen bool
}

// Batch is one atomic transition. Targets are mutated in order; Mutate, if
// set, runs after them inside the same frame callback (the disable path
// uses it for snapshot restoration). Hide lists additional windows whose
// visual representation is suppressed for the duration of the batch even
// though Mutate, not a Target, changes them. Inserted names a newly created
// window whose visual representation must not be hidden (it has nothing
// stale to show) and which receives the delayed backstop write.
type Batch struct {
	Targets  []Target
	Hide     []winsys.WindowID
	Inserted winsys.WindowID
	Mutate   func()
}

// affected returns every window the batch touches visually, targets first.
func (b Batch) affected() []winsys.WindowID {
	ids := make([]winsys.WindowID, 0, len(b.Targets)+len(b.Hide))
	for _, t := range b.Targets {
		ids = append(ids, t.ID)
	}
	ids = append(ids, b.Hide...)
	return ids
}

// Controller sequences the suppress / mutate / reveal protocol. All
// suppression happens before any mutation and all mutation before any
// reveal, enforced by the frame-callback chain rather than by locks.
type Controller struct {
	sys   winsys.WindowSystem
	comp  winsys.Compositor
	sched winsys.FrameScheduler

	mu           sync.Mutex
	cancelInsert winsys.CancelFunc
	insertToken  int
}

// NewController creates a transition controller.
func NewController(sys winsys.WindowSystem, comp winsys.Compositor, sched winsys.FrameScheduler) *Controller {
	return &Controller{sys: sys, comp: comp, sched: sched}
}

// Apply runs one atomic transition:
//
//  1. inhibit global animation (reference counted, nests safely)
//  2. on the next pre-redraw callback, suppress per-window animation and
//     hide every affected visual representation except the inserted one
//  3. perform the state changes, isolating per-window failures
//  4. on a subsequent pre-redraw callback, reveal everything, restore
//     per-window animation and release the inhibit
//
// Nothing executes immediately; scheduling past the current frame is what
// prevents one-frame flicker from intermediate states.
func (c *Controller) Apply(b Batch) {
	affected := b.affected()
	c.comp.InhibitAnimations()
	c.sched.RunBeforeFrame(func() {
		for _, id := range affected {
			c.comp.SuppressAnimation(id)
			if id != b.Inserted {
				c.comp.HideActor(id)
			}
		}

		for _, t := range b.Targets {
			c.applyTarget(t)
		}
		if b.Mutate != nil {
			b.Mutate()
		}
		if b.Inserted != 0 {
			c.scheduleInsertBackstop(b)
		}

		c.sched.RunBeforeFrame(func() {
			for _, id := range affected {
				c.comp.ShowActor(id)
				c.comp.RestoreAnimation(id)
			}
			c.comp.UninhibitAnimations()
		})
	})
}

// MoveWindow is the single-window path used by drag swaps: same protocol,
// one target, no state changes beyond geometry.
func (c *Controller) MoveWindow(id winsys.WindowID, frame winsys.Rect) {
	c.Apply(Batch{Targets: []Target{{ID: id, Frame: frame}}})
}

// applyTarget mutates one window toward its target state. A window that
// vanished between scheduling and execution, or that refuses a mutation,
// is logged and skipped; the rest of the batch still runs.
func (c *Controller) applyTarget(t Target) {
	w, ok := c.sys.Window(t.ID)
	if !ok {
		log.Printf("transition: window %d vanished before mutation", t.ID)
		return
	}

	if w.Fullscreen && !t.Fullscreen {
		if err := c.sys.SetFullscreen(t.ID, false); err != nil {
			log.Printf("transition: failed to unfullscreen window %d: %v", t.ID, err)
		}
	}
	if w.Maximized != winsys.MaximizeNone && t.Maximized == winsys.MaximizeNone {
		if err := c.sys.SetMaximized(t.ID, winsys.MaximizeNone); err != nil {
			log.Printf("transition: failed to unmaximize window %d: %v", t.ID, err)
		}
	}

	if err := c.sys.MoveResize(t.ID, t.Frame); err != nil {
		log.Printf("transition: failed to place window %d: %v", t.ID, err)
		return
	}

	if t.Maximized != winsys.MaximizeNone {
		if err := c.sys.SetMaximized(t.ID, t.Maximized); err != nil {
			log.Printf("transition: failed to maximize window %d: %v", t.ID, err)
		}
	}
	if t.Fullscreen {
		if err := c.sys.SetFullscreen(t.ID, true); err != nil {
			log.Printf("transition: failed to fullscreen window %d: %v", t.ID, err)
		}
	}
}

// scheduleInsertBackstop arms the single delayed re-write for a newly
// inserted window. At most one backstop is pending at a time; arming a new
// one cancels the previous, so a superseded insertion never acts on stale
// target geometry.
func (c *Controller) scheduleInsertBackstop(b Batch) {
	var frame winsys.Rect
	found := false
	for _, t := range b.Targets {
		if t.ID == b.Inserted {
			frame = t.Frame
			found = true
			break
		}
	}
	if !found {
		return
	}

	c.mu.Lock()
	if c.cancelInsert != nil {
		c.cancelInsert()
	}
	c.insertToken++
	token := c.insertToken
	id := b.Inserted
	c.cancelInsert = c.sched.RunAfterDelay(InsertSettleDelay, func() {
		c.mu.Lock()
		if token != c.insertToken {
			c.mu.Unlock()
			return
		}
		c.cancelInsert = nil
		c.mu.Unlock()

		if err := c.sys.MoveResize(id, frame); err != nil {
			log.Printf("transition: insert backstop for window %d failed: %v", id, err)
		}
	})
	c.mu.Unlock()
}

// CancelPending cancels the delayed insert backstop, if any. Called on
// every terminal transition so no deferred operation survives a disable.
func (c *Controller) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelInsert != nil {
		c.cancelInsert()
		c.cancelInsert = nil
	}
	c.insertToken++
}
