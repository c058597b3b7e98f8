// Package engine is the window-lifecycle coordinator: the state machine
// that toggles tiling per workspace, keeps the layout consistent across
// window creation, destruction and drag-initiated reordering, and owns the
// floating snapshots that make disabling tiling lossless.
package engine

import (
	"fmt"
	"log"
	"sync"

	"github.com/1broseidon/stacktile/internal/config"
	"github.com/1broseidon/stacktile/internal/drag"
	"github.com/1broseidon/stacktile/internal/layout"
	"github.com/1broseidon/stacktile/internal/snapshot"
	"github.com/1broseidon/stacktile/internal/transition"
	"github.com/1broseidon/stacktile/internal/winset"
	"github.com/1broseidon/stacktile/internal/winsys"
)

// Params are the layout tunables read fresh on every pass.
type Params struct {
	MasterRatio    float64
	Gap            int
	MinStackWidth  int
	MinStackHeight int
}

// Settings supplies the tunables and persists ratio adjustments. The
// daemon backs it with the YAML config file; tests use an in-memory fake.
type Settings interface {
	TilingParams() (Params, error)
	SetMasterRatio(ratio float64) error
}

// Direction is a spatial navigation direction.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	}
	return "unknown"
}

// ParseDirection parses a direction name as used by the IPC and hotkey
// layers.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left":
		return DirLeft, nil
	case "right":
		return DirRight, nil
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// tilingState is the per-workspace tiling state. The engine holds one
// active instance; inactive workspaces keep a saved copy.
//
// Invariant: enabled == false implies snap is empty and order is nil.
type tilingState struct {
	enabled  bool
	snap     *snapshot.Store
	monitor  int
	masterID winsys.WindowID
	// order is the tracked tiled-window order, master first, matching
	// entries slot for slot.
	order    []winsys.WindowID
	entries  []layout.Entry
	overflow []winsys.WindowID
}

func newTilingState() *tilingState {
	return &tilingState{snap: snapshot.NewStore()}
}

// Status is a point-in-time summary for the IPC status surface.
type Status struct {
	Enabled     bool            `json:"enabled"`
	Workspace   int             `json:"workspace"`
	Monitor     int             `json:"monitor"`
	MasterRatio float64         `json:"master_ratio"`
	Master      winsys.WindowID `json:"master"`
	Tiled       int             `json:"tiled"`
	Overflow    int             `json:"overflow"`
}

// Engine coordinates the resolver, layout, snapshot store, transition
// controller and drag tracker. All entry points are serialized by one
// mutex; the host event loop delivers events one at a time, but the IPC
// server calls in from its own goroutines.
type Engine struct {
	sys      winsys.WindowSystem
	trans    *transition.Controller
	drag     *drag.Tracker
	settings Settings

	mu        sync.Mutex
	workspace int
	st        *tilingState
	saved     map[int]*tilingState
}

// New creates an engine bound to a window system. highlighter may be nil.
func New(sys winsys.WindowSystem, comp winsys.Compositor, sched winsys.FrameScheduler, settings Settings, highlighter drag.Highlighter) *Engine {
	e := &Engine{
		sys:      sys,
		trans:    transition.NewController(sys, comp, sched),
		settings: settings,
		st:       newTilingState(),
		saved:    make(map[int]*tilingState),
	}
	e.drag = drag.NewTracker(e, highlighter)
	if ws, err := sys.ActiveWorkspace(); err == nil {
		e.workspace = ws
	}
	return e
}

// Dispatch delivers one host event to the coordinator.
func (e *Engine) Dispatch(ev winsys.Event) {
	switch ev := ev.(type) {
	case winsys.WindowCreated:
		e.windowCreated(ev.Window)
	case winsys.WindowClosing:
		e.windowClosing(ev.ID)
	case winsys.WindowMoved:
		e.drag.WindowMoved(ev.ID, ev.Frame)
	case winsys.GrabBegin:
		if e.tiled() {
			e.drag.BeginGrab(ev.ID)
		}
	case winsys.GrabEnd:
		e.drag.EndGrab(ev.ID)
	case winsys.WorkspaceChanged:
		e.workspaceChanged(ev.Workspace)
	}
}

// Toggle flips the active workspace between Floating and Tiled. Toggling
// on with no tileable windows is a guarded no-op.
func (e *Engine) Toggle() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.enabled {
		return e.disableLocked()
	}
	return e.enableLocked()
}

func (e *Engine) enableLocked() error {
	params, err := e.settings.TilingParams()
	if err != nil {
		return fmt.Errorf("failed to read tiling settings: %w", err)
	}

	monitor := e.focusedMonitorLocked()
	resolved, err := winset.Resolve(e.sys, winset.Query{Monitor: monitor})
	if err != nil {
		return fmt.Errorf("failed to resolve window set: %w", err)
	}
	if len(resolved) == 0 {
		return nil
	}

	// Capture in stacking order so snapshot stack indices reflect the
	// pre-tiling bottom-to-top z-order, not the layout order.
	stacked, err := e.stackingOrderLocked(resolved)
	if err != nil {
		return err
	}

	st := newTilingState()
	st.enabled = true
	st.monitor = monitor
	st.masterID = resolved[0].ID
	st.snap = snapshot.Capture(stacked)
	e.st = st

	return e.applyLayoutLocked(resolved, params, 0)
}

func (e *Engine) disableLocked() error {
	st := e.st

	for _, id := range st.overflow {
		if err := e.sys.Unminimize(id); err != nil {
			log.Printf("engine: failed to unminimize overflow window %d: %v", id, err)
		}
	}

	current, err := e.sys.Windows(e.workspace)
	if err != nil {
		return fmt.Errorf("failed to enumerate windows for restore: %w", err)
	}

	e.trans.CancelPending()
	snap := st.snap
	sys := e.sys
	e.trans.Apply(transition.Batch{
		Hide: snap.IDs(),
		Mutate: func() {
			snap.Restore(sys, current)
		},
	})

	e.drag.Teardown()
	e.st = newTilingState()
	return nil
}

// windowCreated inserts a new window as master into an already-tiled
// workspace and records its snapshot against its target geometry.
func (e *Engine) windowCreated(w winsys.Window) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.st
	if !st.enabled {
		return
	}
	params, err := e.settings.TilingParams()
	if err != nil {
		log.Printf("engine: failed to read tiling settings: %v", err)
		return
	}

	resolved, err := winset.Resolve(e.sys, winset.Query{
		Monitor:       st.monitor,
		NewWindow:     w.ID,
		CurrentMaster: st.masterID,
	})
	if err != nil {
		log.Printf("engine: failed to resolve window set: %v", err)
		return
	}
	if len(resolved) == 0 || resolved[0].ID != w.ID {
		// Not tileable on this monitor; leave it floating.
		return
	}

	st.masterID = w.ID
	if err := e.applyLayoutLocked(resolved, params, w.ID); err != nil {
		log.Printf("engine: failed to insert window %d: %v", w.ID, err)
		return
	}
	if len(st.entries) > 0 && st.entries[0].Window == w.ID {
		target := st.entries[0].Rect
		st.snap.CaptureSingle(w, &target)
	}
}

// windowClosing removes a window from tracking and relayouts. If the
// master closed, the remembered master is cleared so the resolver picks a
// successor from the remaining candidates.
func (e *Engine) windowClosing(id winsys.WindowID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.st
	if !st.enabled {
		return
	}

	st.snap.Remove(id)
	if st.masterID == id {
		st.masterID = 0
	}
	st.order = removeID(st.order, id)
	st.overflow = removeID(st.overflow, id)

	params, err := e.settings.TilingParams()
	if err != nil {
		log.Printf("engine: failed to read tiling settings: %v", err)
		return
	}
	resolved, err := winset.Resolve(e.sys, winset.Query{
		Monitor:       st.monitor,
		CurrentMaster: st.masterID,
		Exclude:       id,
	})
	if err != nil {
		log.Printf("engine: failed to resolve window set: %v", err)
		return
	}
	if len(resolved) == 0 {
		st.entries = nil
		st.order = nil
		e.drag.SetZones(nil)
		return
	}
	st.masterID = resolved[0].ID
	if err := e.applyLayoutLocked(resolved, params, 0); err != nil {
		log.Printf("engine: failed to relayout after close of %d: %v", id, err)
	}
}

// workspaceChanged swaps the active tiling state for the target
// workspace's saved one. Pending insert backstops belong to the old
// workspace and are canceled rather than fired against it off-screen.
func (e *Engine) workspaceChanged(ws int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ws == e.workspace {
		return
	}
	e.trans.CancelPending()
	e.drag.Teardown()

	e.saved[e.workspace] = e.st
	next, ok := e.saved[ws]
	if !ok {
		next = newTilingState()
	}
	delete(e.saved, ws)
	e.st = next
	e.workspace = ws

	if next.enabled {
		e.drag.SetZones(zonesFor(next.entries))
	}
}

// DragSwapRequested swaps two tracked slots without a full relayout: the
// slot rectangles stay fixed and only the two windows trade places. An
// out-of-range index means the tracked order is stale; fall back to a full
// recomputation instead of failing the swap.
func (e *Engine) DragSwapRequested(a, b int) {
	e.mu.Lock()
	if !e.st.enabled {
		e.mu.Unlock()
		return
	}
	if a == b || a < 0 || b < 0 || a >= len(e.st.order) || b >= len(e.st.order) {
		log.Printf("engine: stale swap request (%d, %d) with %d slots, recomputing", a, b, len(e.st.order))
		if err := e.retileLocked(); err != nil {
			log.Printf("engine: fallback relayout failed: %v", err)
		}
		e.mu.Unlock()
		return
	}
	moves := e.swapSlotsLocked(a, b)
	e.mu.Unlock()

	for _, m := range moves {
		e.trans.MoveWindow(m.id, m.rect)
	}
}

type slotMove struct {
	id   winsys.WindowID
	rect winsys.Rect
}

// swapSlotsLocked exchanges the windows at two slot indices and returns
// the two geometry writes that realize the exchange.
func (e *Engine) swapSlotsLocked(a, b int) []slotMove {
	st := e.st
	st.order[a], st.order[b] = st.order[b], st.order[a]
	st.entries[a].Window, st.entries[b].Window = st.entries[b].Window, st.entries[a].Window
	if a == 0 || b == 0 {
		st.masterID = st.order[0]
	}
	e.drag.SetZones(zonesFor(st.entries))
	return []slotMove{
		{id: st.order[a], rect: st.entries[a].Rect},
		{id: st.order[b], rect: st.entries[b].Rect},
	}
}

// FocusDirection focuses the nearest tiled neighbor in a direction.
func (e *Engine) FocusDirection(d Direction) error {
	e.mu.Lock()
	if !e.st.enabled {
		e.mu.Unlock()
		return nil
	}
	from, err := e.sys.FocusedWindow()
	if err != nil || from == 0 {
		e.mu.Unlock()
		return err
	}
	target := e.neighborLocked(from, d)
	e.mu.Unlock()

	if target == 0 {
		return nil
	}
	return e.sys.Focus(target)
}

// SwapDirection swaps the focused window with its nearest tiled neighbor
// in a direction.
func (e *Engine) SwapDirection(d Direction) error {
	e.mu.Lock()
	st := e.st
	if !st.enabled {
		e.mu.Unlock()
		return nil
	}
	from, err := e.sys.FocusedWindow()
	if err != nil || from == 0 {
		e.mu.Unlock()
		return err
	}
	target := e.neighborLocked(from, d)
	if target == 0 {
		e.mu.Unlock()
		return nil
	}
	a, b := indexOf(st.order, from), indexOf(st.order, target)
	if a < 0 || b < 0 {
		e.mu.Unlock()
		return nil
	}
	moves := e.swapSlotsLocked(a, b)
	e.mu.Unlock()

	for _, m := range moves {
		e.trans.MoveWindow(m.id, m.rect)
	}
	return nil
}

// neighborLocked finds the nearest window whose center-to-center vector's
// dominant axis matches the direction. Without layout position data it
// falls back to stepping the tracked order.
func (e *Engine) neighborLocked(from winsys.WindowID, d Direction) winsys.WindowID {
	st := e.st
	var origin *layout.Entry
	for i := range st.entries {
		if st.entries[i].Window == from {
			origin = &st.entries[i]
			break
		}
	}
	if origin == nil {
		return e.stepOrderLocked(from, d)
	}

	cx, cy := origin.Rect.CenterX(), origin.Rect.CenterY()
	var best winsys.WindowID
	bestDist := 0
	for _, en := range st.entries {
		if en.Window == from {
			continue
		}
		dx := en.Rect.CenterX() - cx
		dy := en.Rect.CenterY() - cy
		if !matchesDirection(dx, dy, d) {
			continue
		}
		dist := dx*dx + dy*dy
		if best == 0 || dist < bestDist {
			best = en.Window
			bestDist = dist
		}
	}
	return best
}

// matchesDirection reports whether the vector points into the direction's
// 90° cone (dominant axis within 45° of the direction).
func matchesDirection(dx, dy int, d Direction) bool {
	ax, ay := abs(dx), abs(dy)
	switch d {
	case DirLeft:
		return dx < 0 && ax >= ay
	case DirRight:
		return dx > 0 && ax >= ay
	case DirUp:
		return dy < 0 && ay >= ax
	case DirDown:
		return dy > 0 && ay >= ax
	}
	return false
}

// stepOrderLocked is the index-stepping fallback: left/up walk toward the
// master, right/down away from it.
func (e *Engine) stepOrderLocked(from winsys.WindowID, d Direction) winsys.WindowID {
	idx := indexOf(e.st.order, from)
	if idx < 0 {
		return 0
	}
	switch d {
	case DirLeft, DirUp:
		idx--
	case DirRight, DirDown:
		idx++
	}
	if idx < 0 || idx >= len(e.st.order) {
		return 0
	}
	return e.st.order[idx]
}

// AdjustMasterRatio steps the master ratio by one increment, persists it
// and re-tiles if currently tiled.
func (e *Engine) AdjustMasterRatio(increase bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	params, err := e.settings.TilingParams()
	if err != nil {
		return fmt.Errorf("failed to read tiling settings: %w", err)
	}
	r := params.MasterRatio
	if increase {
		r += config.RatioStep
	} else {
		r -= config.RatioStep
	}
	return e.setRatioLocked(r)
}

// SetMasterRatio sets the master ratio to an absolute value, clamped into
// the working band.
func (e *Engine) SetMasterRatio(ratio float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setRatioLocked(ratio)
}

func (e *Engine) setRatioLocked(r float64) error {
	r = config.ClampRatio(r)
	if err := e.settings.SetMasterRatio(r); err != nil {
		return fmt.Errorf("failed to persist master ratio: %w", err)
	}
	if !e.st.enabled {
		return nil
	}
	return e.retileLocked()
}

// Retile recomputes and reapplies the layout for the active workspace, if
// tiled. Used after configuration reloads and as the stale-swap fallback.
func (e *Engine) Retile() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.retileLocked()
}

func (e *Engine) retileLocked() error {
	st := e.st
	if !st.enabled {
		return nil
	}
	params, err := e.settings.TilingParams()
	if err != nil {
		return fmt.Errorf("failed to read tiling settings: %w", err)
	}
	resolved, err := winset.Resolve(e.sys, winset.Query{
		Monitor:       st.monitor,
		CurrentMaster: st.masterID,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve window set: %w", err)
	}
	if len(resolved) == 0 {
		st.entries = nil
		st.order = nil
		e.drag.SetZones(nil)
		return nil
	}
	st.masterID = resolved[0].ID
	return e.applyLayoutLocked(resolved, params, 0)
}

// Status reports the engine's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		Enabled:   e.st.enabled,
		Workspace: e.workspace,
		Monitor:   e.st.monitor,
		Master:    e.st.masterID,
		Tiled:     len(e.st.order),
		Overflow:  len(e.st.overflow),
	}
	if params, err := e.settings.TilingParams(); err == nil {
		s.MasterRatio = params.MasterRatio
	}
	return s
}

// TrackedWindows lists every window the engine currently manages on the
// active workspace: tiled windows in slot order followed by overflow.
func (e *Engine) TrackedWindows() []winsys.WindowID {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]winsys.WindowID, 0, len(e.st.order)+len(e.st.overflow))
	ids = append(ids, e.st.order...)
	ids = append(ids, e.st.overflow...)
	return ids
}

// applyLayoutLocked computes placements for the resolved set and hands
// them to the transition controller as one atomic batch. Overflow windows
// are minimized inside the batch so they disappear in the same frame.
func (e *Engine) applyLayoutLocked(resolved []winsys.Window, p Params, inserted winsys.WindowID) error {
	st := e.st

	area, err := e.sys.WorkArea(st.monitor)
	if err != nil {
		return fmt.Errorf("failed to query work area of monitor %d: %w", st.monitor, err)
	}

	ids := make([]winsys.WindowID, len(resolved))
	for i, w := range resolved {
		ids[i] = w.ID
	}
	res := layout.Compute(ids, layout.Params{
		WorkArea:       area,
		MasterRatio:    p.MasterRatio,
		Gap:            p.Gap,
		MinStackWidth:  p.MinStackWidth,
		MinStackHeight: p.MinStackHeight,
	})

	targets := make([]transition.Target, 0, len(res.Entries))
	for _, en := range res.Entries {
		targets = append(targets, transition.Target{ID: en.Window, Frame: en.Rect})
	}
	batch := transition.Batch{Targets: targets, Inserted: inserted}
	if len(res.Skipped) > 0 {
		skipped := res.Skipped
		sys := e.sys
		batch.Mutate = func() {
			for _, id := range skipped {
				if err := sys.Minimize(id); err != nil {
					log.Printf("engine: failed to minimize overflow window %d: %v", id, err)
				}
			}
		}
	}
	e.trans.Apply(batch)

	st.entries = res.Entries
	st.order = make([]winsys.WindowID, len(res.Entries))
	for i, en := range res.Entries {
		st.order[i] = en.Window
	}
	for _, id := range res.Skipped {
		if indexOf(st.overflow, id) < 0 {
			st.overflow = append(st.overflow, id)
		}
	}
	e.drag.SetZones(zonesFor(st.entries))
	return nil
}

func (e *Engine) tiled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.enabled
}

// focusedMonitorLocked picks the monitor tiling operates on: the focused
// window's monitor, or the primary when nothing is focused.
func (e *Engine) focusedMonitorLocked() int {
	if id, err := e.sys.FocusedWindow(); err == nil && id != 0 {
		if w, ok := e.sys.Window(id); ok {
			return w.Monitor
		}
	}
	return 0
}

// stackingOrderLocked returns the resolved windows re-sorted into the
// host's bottom-to-top stacking order.
func (e *Engine) stackingOrderLocked(resolved []winsys.Window) ([]winsys.Window, error) {
	all, err := e.sys.Windows(e.workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}
	want := make(map[winsys.WindowID]bool, len(resolved))
	for _, w := range resolved {
		want[w.ID] = true
	}
	out := make([]winsys.Window, 0, len(resolved))
	for _, w := range all {
		if want[w.ID] {
			out = append(out, w)
		}
	}
	return out, nil
}

func zonesFor(entries []layout.Entry) []drag.Zone {
	zones := make([]drag.Zone, len(entries))
	for i, en := range entries {
		zones[i] = drag.Zone{Index: i, Rect: en.Rect, Window: en.Window}
	}
	return zones
}

func removeID(ids []winsys.WindowID, id winsys.WindowID) []winsys.WindowID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func indexOf(ids []winsys.WindowID, id winsys.WindowID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
