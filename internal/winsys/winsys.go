package winsys

import "time"

// WindowID is a stable window identifier assigned by the host window system.
// It survives restarts of the host shell but not of the window itself.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() int { return r.X + r.Width/2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() int { return r.Y + r.Height/2 }

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// WindowType classifies a top-level window.
type WindowType int

const (
	TypeNormal WindowType = iota
	TypeDialog
	TypeDock
	TypeMenu
	TypeTooltip
	TypeSplash
	TypeDesktop
)

// MaximizeState describes which axes of a window are maximized.
type MaximizeState int

const (
	MaximizeNone MaximizeState = iota
	MaximizeHorizontal
	MaximizeVertical
	MaximizeBoth
)

// Window contains metadata and geometry for a top-level window as reported
// by the host window system. The core never owns window lifetime; it only
// observes and commands windows through the WindowSystem interface.
type Window struct {
	ID         WindowID
	Title      string
	Class      string
	Type       WindowType
	Frame      Rect // outer frame, including decorations
	Buffer     Rect // client buffer, for shadow/decoration compensation
	Monitor    int
	Workspace  int
	Sticky     bool // on all workspaces
	Hidden     bool
	Minimized  bool
	Fullscreen bool
	Maximized  MaximizeState
	CanMove    bool
	CanResize  bool
}

// WindowSystem abstracts the host compositor's window query and mutation
// surface. All mutation calls are best-effort: a window may vanish between
// query and mutation, in which case the call returns an error that callers
// log and skip past.
type WindowSystem interface {
	// Windows enumerates all windows on the given workspace, bottom-to-top
	// in stacking order.
	Windows(workspace int) ([]Window, error)
	// Window looks up a single window by ID.
	Window(id WindowID) (Window, bool)
	ActiveWorkspace() (int, error)
	FocusedWindow() (WindowID, error)
	// WorkArea returns the tileable region of a monitor, excluding
	// host-reserved chrome such as panels and docks.
	WorkArea(monitor int) (Rect, error)

	MoveResize(id WindowID, frame Rect) error
	SetMaximized(id WindowID, state MaximizeState) error
	SetFullscreen(id WindowID, on bool) error
	Raise(id WindowID) error
	Minimize(id WindowID) error
	Unminimize(id WindowID) error
	Focus(id WindowID) error
}

// Compositor abstracts the host's animation and visual-representation
// controls used to make batched geometry changes appear atomic. Hosts
// without client-visible animation implement these as no-ops.
type Compositor interface {
	// InhibitAnimations suspends global animation. Calls nest; each inhibit
	// must be paired with exactly one UninhibitAnimations.
	InhibitAnimations()
	UninhibitAnimations()
	// SuppressAnimation disables implicit transitions on one window's
	// visual representation until RestoreAnimation is called.
	SuppressAnimation(id WindowID)
	RestoreAnimation(id WindowID)
	// HideActor and ShowActor toggle a window's visual representation
	// without unmapping the window itself.
	HideActor(id WindowID)
	ShowActor(id WindowID)
}

// CancelFunc cancels a pending scheduled callback. Safe to call after the
// callback has run or been canceled already.
type CancelFunc func()

// FrameScheduler is the only suspension surface the core uses. Multi-step
// transition sequences are expressed as chained callbacks on it, never as
// blocking waits.
type FrameScheduler interface {
	// RunBeforeFrame schedules fn to run after layout but before the next
	// frame is composited.
	RunBeforeFrame(fn func())
	// RunAfterDelay schedules fn after a fixed delay as a bounded backstop.
	RunAfterDelay(d time.Duration, fn func()) CancelFunc
}

// Event is a notification from the host window system, delivered to the
// lifecycle coordinator's Dispatch method.
type Event interface{ isEvent() }

// WindowCreated reports a newly mapped window.
type WindowCreated struct{ Window Window }

// WindowClosing reports a window about to be destroyed.
type WindowClosing struct{ ID WindowID }

// WindowMoved reports a position change of a tracked window.
type WindowMoved struct {
	ID    WindowID
	Frame Rect
}

// GrabBegin reports the start of a pointer move grab on a window.
type GrabBegin struct{ ID WindowID }

// GrabEnd reports the end of a pointer move grab.
type GrabEnd struct{ ID WindowID }

// WorkspaceChanged reports a switch of the active workspace.
type WorkspaceChanged struct{ Workspace int }

func (WindowCreated) isEvent()    {}
func (WindowClosing) isEvent()    {}
func (WindowMoved) isEvent()      {}
func (GrabBegin) isEvent()        {}
func (GrabEnd) isEvent()          {}
func (WorkspaceChanged) isEvent() {}
