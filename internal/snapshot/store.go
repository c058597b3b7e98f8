// Package snapshot records the floating geometry and presentation state of
// windows before tiling, so disabling tiling can restore every window to
// exactly where the user left it.
package snapshot

import (
	"log"
	"sort"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// Entry captures what is needed to restore one window to its pre-tiling
// presentation and original front-to-back position. Entries are never
// mutated; they are replaced wholesale on re-capture and deleted when a
// window closes.
type Entry struct {
	Frame         winsys.Rect
	WasFullscreen bool
	WasMaximized  winsys.MaximizeState
	// StackIndex is the window's zero-based position in the bottom-to-top
	// stacking order at capture time.
	StackIndex int
}

// Store maps window identity to its floating snapshot. One store exists
// per tiled workspace and is cleared when tiling is disabled there.
type Store struct {
	entries map[winsys.WindowID]Entry
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{entries: make(map[winsys.WindowID]Entry)}
}

// Capture records the floating state of every window in the list, with
// StackIndex equal to each window's position in the input ordering
// (bottom-to-top). Existing entries are replaced wholesale.
func Capture(windows []winsys.Window) *Store {
	s := NewStore()
	for i, w := range windows {
		s.entries[w.ID] = Entry{
			Frame:         w.Frame,
			WasFullscreen: w.Fullscreen,
			WasMaximized:  w.Maximized,
			StackIndex:    i,
		}
	}
	return s
}

// CaptureSingle appends one entry above all existing stack indices. When
// target is non-nil it is recorded instead of the window's current frame:
// a freshly created window's initial geometry is unreliable, so its tiled
// destination doubles as the floating fallback.
func (s *Store) CaptureSingle(w winsys.Window, target *winsys.Rect) {
	frame := w.Frame
	if target != nil {
		frame = *target
	}
	maxIdx := -1
	for _, e := range s.entries {
		if e.StackIndex > maxIdx {
			maxIdx = e.StackIndex
		}
	}
	s.entries[w.ID] = Entry{
		Frame:         frame,
		WasFullscreen: w.Fullscreen,
		WasMaximized:  w.Maximized,
		StackIndex:    maxIdx + 1,
	}
}

// Get returns the entry for a window, if one exists.
func (s *Store) Get(id winsys.WindowID) (Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Remove deletes a window's entry. Removing an absent entry is a no-op.
func (s *Store) Remove(id winsys.WindowID) {
	delete(s.entries, id)
}

// Clear drops all entries.
func (s *Store) Clear() {
	s.entries = make(map[winsys.WindowID]Entry)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// IDs returns the stored window IDs in ascending StackIndex order.
func (s *Store) IDs() []winsys.WindowID {
	ids := make([]winsys.WindowID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.entries[ids[i]].StackIndex < s.entries[ids[j]].StackIndex
	})
	return ids
}

// Restore re-applies each listed window's snapshot. Windows without an
// entry are silently skipped; they were never tiled. State is re-applied
// as geometry, then maximize, then fullscreen, because re-entering
// fullscreen can auto-raise a window and must happen last. Previously
// fullscreen windows are then re-raised in original stacking order to
// correct the inversion that auto-raising introduces.
func (s *Store) Restore(sys winsys.WindowSystem, windows []winsys.Window) {
	type restored struct {
		id         winsys.WindowID
		stackIndex int
		fullscreen bool
	}
	var done []restored

	for _, w := range windows {
		e, ok := s.entries[w.ID]
		if !ok {
			continue
		}
		if err := sys.MoveResize(w.ID, e.Frame); err != nil {
			log.Printf("snapshot: failed to restore geometry of window %d: %v", w.ID, err)
			continue
		}
		if err := sys.SetMaximized(w.ID, e.WasMaximized); err != nil {
			log.Printf("snapshot: failed to restore maximize state of window %d: %v", w.ID, err)
		}
		if err := sys.SetFullscreen(w.ID, e.WasFullscreen); err != nil {
			log.Printf("snapshot: failed to restore fullscreen state of window %d: %v", w.ID, err)
		}
		done = append(done, restored{id: w.ID, stackIndex: e.StackIndex, fullscreen: e.WasFullscreen})
	}

	sort.Slice(done, func(i, j int) bool { return done[i].stackIndex < done[j].stackIndex })
	for _, r := range done {
		if !r.fullscreen {
			continue
		}
		if err := sys.Raise(r.id); err != nil {
			log.Printf("snapshot: failed to re-raise window %d: %v", r.id, err)
		}
	}
}
