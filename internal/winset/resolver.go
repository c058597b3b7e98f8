// Package winset resolves the ordered candidate list the layout engine
// tiles: it filters the host's window enumeration down to tileable windows
// on one monitor and decides which of them is the master.
package winset

import (
	"fmt"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// Query selects the monitor to resolve and carries the optional master
// hints. Zero window IDs mean "not supplied".
type Query struct {
	Monitor int
	// NewWindow is a just-created window that must become master and is
	// exempt from the hidden check (freshly mapped windows may report
	// transient hidden state).
	NewWindow winsys.WindowID
	// CurrentMaster preserves master identity across relayouts triggered
	// by non-master events, if the window is still in the candidate set.
	CurrentMaster winsys.WindowID
	// Exclude drops a window that is about to be destroyed but may still
	// appear in the host's enumeration.
	Exclude winsys.WindowID
}

// Resolve returns the tileable windows for the query, master first. The
// stack portion is ordered topmost-first so the most recently stacked
// window takes the first, visually most prominent stack slot.
func Resolve(ws winsys.WindowSystem, q Query) ([]winsys.Window, error) {
	workspace, err := ws.ActiveWorkspace()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active workspace: %w", err)
	}

	all, err := ws.Windows(workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}

	// all is bottom-to-top in stacking order.
	candidates := make([]winsys.Window, 0, len(all))
	for _, w := range all {
		if tileable(w, workspace, q) {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	masterIdx := -1
	if q.NewWindow != 0 {
		masterIdx = indexOf(candidates, q.NewWindow)
	}
	if masterIdx < 0 && q.CurrentMaster != 0 {
		masterIdx = indexOf(candidates, q.CurrentMaster)
	}
	if masterIdx < 0 {
		if focused, err := ws.FocusedWindow(); err == nil && focused != 0 {
			masterIdx = indexOf(candidates, focused)
		}
	}

	var master *winsys.Window
	stack := candidates
	if masterIdx >= 0 {
		m := candidates[masterIdx]
		master = &m
		stack = append(append([]winsys.Window{}, candidates[:masterIdx]...), candidates[masterIdx+1:]...)
	}

	// Reverse so the topmost stacked window comes first.
	out := make([]winsys.Window, 0, len(candidates))
	if master != nil {
		out = append(out, *master)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return out, nil
}

// tileable is the filtering predicate: normal type, on the active
// workspace and requested monitor, not sticky, movable and resizable, and
// not hidden or minimized. The hidden checks are bypassed for the
// just-created window.
func tileable(w winsys.Window, workspace int, q Query) bool {
	if w.ID == q.Exclude && q.Exclude != 0 {
		return false
	}
	if w.Type != winsys.TypeNormal {
		return false
	}
	if w.Sticky {
		return false
	}
	if w.Workspace != workspace {
		return false
	}
	if w.Monitor != q.Monitor {
		return false
	}
	if !w.CanMove || !w.CanResize {
		return false
	}
	if (w.Hidden || w.Minimized) && w.ID != q.NewWindow {
		return false
	}
	return true
}

func indexOf(windows []winsys.Window, id winsys.WindowID) int {
	for i, w := range windows {
		if w.ID == id {
			return i
		}
	}
	return -1
}
