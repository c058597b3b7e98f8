package winsys

import (
	"fmt"
	"sort"
	"time"
)

// Sim is a deterministic in-memory WindowSystem, Compositor and
// FrameScheduler used by tests across the core packages. Frame callbacks
// and delayed callbacks never run on their own; tests pump them explicitly
// with StepFrame, FireTimers or Settle, which keeps multi-step transition
// sequences fully observable.
type Sim struct {
	windows   map[WindowID]*Window
	stacking  []WindowID // bottom to top
	focused   WindowID
	workspace int
	workAreas map[int]Rect
	nextID    WindowID

	inhibitCount int
	suppressed   map[WindowID]bool
	hiddenActors map[WindowID]bool

	frameQueue []func()
	timers     map[int]*simTimer
	nextTimer  int

	// Journal records every mutation and compositor call in order, for
	// asserting protocol ordering in tests.
	Journal []string
}

type simTimer struct {
	delay    time.Duration
	fn       func()
	canceled bool
}

// NewSim creates a simulator with a single monitor whose work area is area.
func NewSim(area Rect) *Sim {
	return &Sim{
		windows:      make(map[WindowID]*Window),
		workAreas:    map[int]Rect{0: area},
		nextID:       1,
		suppressed:   make(map[WindowID]bool),
		hiddenActors: make(map[WindowID]bool),
		timers:       make(map[int]*simTimer),
	}
}

// SetWorkArea sets the work area for a monitor.
func (s *Sim) SetWorkArea(monitor int, area Rect) {
	s.workAreas[monitor] = area
}

// AddWindow registers a new window at the top of the stacking order and
// returns its ID. The window is movable, resizable and of normal type
// unless the caller mutates it afterwards via SetWindow.
func (s *Sim) AddWindow(frame Rect) WindowID {
	id := s.nextID
	s.nextID++
	w := &Window{
		ID:        id,
		Type:      TypeNormal,
		Frame:     frame,
		Buffer:    frame,
		Workspace: s.workspace,
		CanMove:   true,
		CanResize: true,
	}
	s.windows[id] = w
	s.stacking = append(s.stacking, id)
	s.focused = id
	return id
}

// SetWindow replaces the stored state for a window. The window must exist.
func (s *Sim) SetWindow(w Window) {
	stored, ok := s.windows[w.ID]
	if !ok {
		panic(fmt.Sprintf("winsys: SetWindow for unknown window %d", w.ID))
	}
	*stored = w
}

// DestroyWindow removes a window entirely, as if its application closed it.
func (s *Sim) DestroyWindow(id WindowID) {
	delete(s.windows, id)
	for i, sid := range s.stacking {
		if sid == id {
			s.stacking = append(s.stacking[:i], s.stacking[i+1:]...)
			break
		}
	}
	if s.focused == id {
		s.focused = 0
		if n := len(s.stacking); n > 0 {
			s.focused = s.stacking[n-1]
		}
	}
}

// SetFocused marks a window as focused without raising it.
func (s *Sim) SetFocused(id WindowID) { s.focused = id }

// SetActiveWorkspace switches the simulated active workspace.
func (s *Sim) SetActiveWorkspace(ws int) { s.workspace = ws }

func (s *Sim) record(format string, args ...interface{}) {
	s.Journal = append(s.Journal, fmt.Sprintf(format, args...))
}

// Windows returns all windows on the workspace, bottom-to-top.
func (s *Sim) Windows(workspace int) ([]Window, error) {
	out := make([]Window, 0, len(s.stacking))
	for _, id := range s.stacking {
		w := s.windows[id]
		if w.Workspace == workspace || w.Sticky {
			out = append(out, *w)
		}
	}
	return out, nil
}

// Window looks up a window by ID.
func (s *Sim) Window(id WindowID) (Window, bool) {
	w, ok := s.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// ActiveWorkspace returns the current workspace index.
func (s *Sim) ActiveWorkspace() (int, error) { return s.workspace, nil }

// FocusedWindow returns the focused window ID, 0 if none.
func (s *Sim) FocusedWindow() (WindowID, error) { return s.focused, nil }

// WorkArea returns the work area for a monitor.
func (s *Sim) WorkArea(monitor int) (Rect, error) {
	area, ok := s.workAreas[monitor]
	if !ok {
		return Rect{}, fmt.Errorf("no work area for monitor %d", monitor)
	}
	return area, nil
}

func (s *Sim) mutable(id WindowID) (*Window, error) {
	w, ok := s.windows[id]
	if !ok {
		return nil, fmt.Errorf("window %d no longer exists", id)
	}
	return w, nil
}

// MoveResize sets a window's frame rectangle.
func (s *Sim) MoveResize(id WindowID, frame Rect) error {
	w, err := s.mutable(id)
	if err != nil {
		return err
	}
	if !w.CanMove || !w.CanResize {
		return fmt.Errorf("window %d disallows move/resize", id)
	}
	w.Frame = frame
	w.Buffer = frame
	s.record("move-resize %d %d,%d %dx%d", id, frame.X, frame.Y, frame.Width, frame.Height)
	return nil
}

// SetMaximized sets a window's maximize state.
func (s *Sim) SetMaximized(id WindowID, state MaximizeState) error {
	w, err := s.mutable(id)
	if err != nil {
		return err
	}
	w.Maximized = state
	s.record("maximize %d %d", id, state)
	return nil
}

// SetFullscreen toggles fullscreen. Entering fullscreen auto-raises the
// window, matching compositor behavior.
func (s *Sim) SetFullscreen(id WindowID, on bool) error {
	w, err := s.mutable(id)
	if err != nil {
		return err
	}
	w.Fullscreen = on
	s.record("fullscreen %d %v", id, on)
	if on {
		return s.Raise(id)
	}
	return nil
}

// Raise moves a window to the top of the stacking order.
func (s *Sim) Raise(id WindowID) error {
	if _, err := s.mutable(id); err != nil {
		return err
	}
	for i, sid := range s.stacking {
		if sid == id {
			s.stacking = append(s.stacking[:i], s.stacking[i+1:]...)
			s.stacking = append(s.stacking, id)
			break
		}
	}
	s.record("raise %d", id)
	return nil
}

// Minimize marks a window minimized.
func (s *Sim) Minimize(id WindowID) error {
	w, err := s.mutable(id)
	if err != nil {
		return err
	}
	w.Minimized = true
	s.record("minimize %d", id)
	return nil
}

// Unminimize clears a window's minimized state.
func (s *Sim) Unminimize(id WindowID) error {
	w, err := s.mutable(id)
	if err != nil {
		return err
	}
	w.Minimized = false
	s.record("unminimize %d", id)
	return nil
}

// Focus focuses and raises a window.
func (s *Sim) Focus(id WindowID) error {
	if _, err := s.mutable(id); err != nil {
		return err
	}
	s.focused = id
	s.record("focus %d", id)
	return s.Raise(id)
}

// InhibitAnimations increments the global animation inhibit counter.
func (s *Sim) InhibitAnimations() {
	s.inhibitCount++
	s.record("inhibit")
}

// UninhibitAnimations decrements the global animation inhibit counter.
func (s *Sim) UninhibitAnimations() {
	s.inhibitCount--
	s.record("uninhibit")
}

// InhibitCount returns the current inhibit nesting depth.
func (s *Sim) InhibitCount() int { return s.inhibitCount }

// SuppressAnimation disables implicit animation for one window.
func (s *Sim) SuppressAnimation(id WindowID) {
	s.suppressed[id] = true
	s.record("suppress %d", id)
}

// RestoreAnimation re-enables implicit animation for one window.
func (s *Sim) RestoreAnimation(id WindowID) {
	delete(s.suppressed, id)
	s.record("restore-anim %d", id)
}

// HideActor hides a window's visual representation.
func (s *Sim) HideActor(id WindowID) {
	s.hiddenActors[id] = true
	s.record("hide %d", id)
}

// ShowActor shows a window's visual representation.
func (s *Sim) ShowActor(id WindowID) {
	delete(s.hiddenActors, id)
	s.record("show %d", id)
}

// HiddenActorCount returns how many actors are currently hidden.
func (s *Sim) HiddenActorCount() int { return len(s.hiddenActors) }

// RunBeforeFrame queues fn for the next frame pump.
func (s *Sim) RunBeforeFrame(fn func()) {
	s.frameQueue = append(s.frameQueue, fn)
}

// RunAfterDelay registers a delayed callback and returns its cancel func.
func (s *Sim) RunAfterDelay(d time.Duration, fn func()) CancelFunc {
	s.nextTimer++
	key := s.nextTimer
	s.timers[key] = &simTimer{delay: d, fn: fn}
	return func() {
		if t, ok := s.timers[key]; ok {
			t.canceled = true
			delete(s.timers, key)
		}
	}
}

// PendingTimers returns the number of delayed callbacks not yet fired or
// canceled.
func (s *Sim) PendingTimers() int { return len(s.timers) }

// StepFrame runs exactly the callbacks queued before this call. Callbacks
// they schedule run on the next StepFrame, mirroring real frame boundaries.
func (s *Sim) StepFrame() {
	queue := s.frameQueue
	s.frameQueue = nil
	s.record("frame")
	for _, fn := range queue {
		fn()
	}
}

// FireTimers fires all pending delayed callbacks in registration order.
func (s *Sim) FireTimers() {
	keys := make([]int, 0, len(s.timers))
	for k := range s.timers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		t, ok := s.timers[k]
		if !ok || t.canceled {
			continue
		}
		delete(s.timers, k)
		t.fn()
	}
}

// Settle pumps frames and timers until nothing is pending.
func (s *Sim) Settle() {
	for len(s.frameQueue) > 0 || len(s.timers) > 0 {
		for len(s.frameQueue) > 0 {
			s.StepFrame()
		}
		s.FireTimers()
	}
}
