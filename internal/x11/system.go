package x11

import (
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// frameInterval approximates a compositor frame on X11, where no frame
// clock is exposed to clients. Half a 60Hz refresh keeps batched mutations
// inside one visible repaint on common displays.
const frameInterval = 8 * time.Millisecond

// System adapts an X11 connection to the window-system surface the tiling
// engine drives. One System serves one X display.
type System struct {
	conn *Connection

	frameMu    sync.Mutex
	frameQueue []func()
	stopFrames chan struct{}
	stopOnce   sync.Once
}

// NewSystem wraps an established X11 connection and starts its frame clock.
func NewSystem(conn *Connection) *System {
	s := &System{
		conn:       conn,
		stopFrames: make(chan struct{}),
	}
	go s.runFrameClock()
	return s
}

// Stop halts the frame clock. Queued callbacks that have not run are
// dropped; callers drain pending transitions before stopping.
func (s *System) Stop() {
	s.stopOnce.Do(func() { close(s.stopFrames) })
}

// Windows enumerates the windows on the given workspace, bottom-to-top in
// stacking order. Sticky windows appear on every workspace.
func (s *System) Windows(workspace int) ([]winsys.Window, error) {
	clients, err := ewmh.ClientListStackingGet(s.conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get stacking client list: %w", err)
	}

	windows := make([]winsys.Window, 0, len(clients))
	for _, id := range clients {
		w, ok := s.windowInfo(id)
		if !ok {
			continue
		}
		if w.Workspace != workspace && !w.Sticky {
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Window looks up a single window by ID.
func (s *System) Window(id winsys.WindowID) (winsys.Window, bool) {
	return s.windowInfo(xproto.Window(id))
}

// ActiveWorkspace returns the current virtual desktop (_NET_CURRENT_DESKTOP).
func (s *System) ActiveWorkspace() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(s.conn.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// FocusedWindow returns the active window (_NET_ACTIVE_WINDOW).
func (s *System) FocusedWindow() (winsys.WindowID, error) {
	active, err := ewmh.ActiveWindowGet(s.conn.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get active window: %w", err)
	}
	return winsys.WindowID(active), nil
}

// WorkArea returns the tileable region of a monitor.
func (s *System) WorkArea(monitor int) (winsys.Rect, error) {
	return s.conn.WorkAreaFor(monitor)
}

// MoveResize places a window's outer frame at the given rectangle. The
// client window is resized to the frame minus its decoration extents so
// decorated windows land exactly on their slot.
func (s *System) MoveResize(id winsys.WindowID, frame winsys.Rect) error {
	win := xproto.Window(id)

	left, right, top, bottom := s.frameExtents(win)
	width := frame.Width - left - right
	height := frame.Height - top - bottom
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	// EWMH moveresize first for WM cooperation, direct configure as the
	// fallback for WMs that ignore the message.
	if err := ewmh.MoveresizeWindow(s.conn.XUtil, win, frame.X, frame.Y, width, height); err != nil {
		xwindow.New(s.conn.XUtil, win).MoveResize(frame.X, frame.Y, width, height)
	}
	return nil
}

// SetMaximized sets the maximization state of a window on both axes.
func (s *System) SetMaximized(id winsys.WindowID, state winsys.MaximizeState) error {
	win := xproto.Window(id)

	horz := state == winsys.MaximizeHorizontal || state == winsys.MaximizeBoth
	vert := state == winsys.MaximizeVertical || state == winsys.MaximizeBoth

	if err := ewmh.WmStateReq(s.conn.XUtil, win, stateAction(horz), "_NET_WM_STATE_MAXIMIZED_HORZ"); err != nil {
		return fmt.Errorf("failed to set horizontal maximize: %w", err)
	}
	if err := ewmh.WmStateReq(s.conn.XUtil, win, stateAction(vert), "_NET_WM_STATE_MAXIMIZED_VERT"); err != nil {
		return fmt.Errorf("failed to set vertical maximize: %w", err)
	}
	return nil
}

// SetFullscreen sets or clears _NET_WM_STATE_FULLSCREEN.
func (s *System) SetFullscreen(id winsys.WindowID, on bool) error {
	if err := ewmh.WmStateReq(s.conn.XUtil, xproto.Window(id), stateAction(on), "_NET_WM_STATE_FULLSCREEN"); err != nil {
		return fmt.Errorf("failed to set fullscreen: %w", err)
	}
	return nil
}

// Raise restacks a window above its siblings.
func (s *System) Raise(id winsys.WindowID) error {
	xwindow.New(s.conn.XUtil, xproto.Window(id)).Stack(xproto.StackModeAbove)
	return nil
}

// Minimize iconifies a window with a WM_CHANGE_STATE client message.
// We build the message manually because the xgbutil icccm helpers panic
// on this library version (uint vs int type assertion).
func (s *System) Minimize(id winsys.WindowID) error {
	atomReply, err := xproto.InternAtom(s.conn.XUtil.Conn(), false,
		uint16(len("WM_CHANGE_STATE")), "WM_CHANGE_STATE").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern WM_CHANGE_STATE: %w", err)
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(id),
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{icccm.StateIconic, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		s.conn.XUtil.Conn(),
		false,
		s.conn.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// Unminimize maps an iconified window, which deiconifies it per ICCCM.
func (s *System) Unminimize(id winsys.WindowID) error {
	return xproto.MapWindowChecked(s.conn.XUtil.Conn(), xproto.Window(id)).Check()
}

// Focus activates and raises a window using _NET_ACTIVE_WINDOW.
// Built manually for the same reason as Minimize.
func (s *System) Focus(id winsys.WindowID) error {
	atomReply, err := xproto.InternAtom(s.conn.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(id),
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		s.conn.XUtil.Conn(),
		false,
		s.conn.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// X11 exposes no client-visible animation machinery: a stacking WM repaints
// geometry changes synchronously, so the batching the engine does around
// these calls is already atomic per frame. The compositor surface is
// therefore a no-op on this backend.

func (s *System) InhibitAnimations()                   {}
func (s *System) UninhibitAnimations()                 {}
func (s *System) SuppressAnimation(id winsys.WindowID) {}
func (s *System) RestoreAnimation(id winsys.WindowID)  {}
func (s *System) HideActor(id winsys.WindowID)         {}
func (s *System) ShowActor(id winsys.WindowID)         {}

// RunBeforeFrame queues fn for the next frame-clock tick. Callbacks queued
// during a tick run on the following tick.
func (s *System) RunBeforeFrame(fn func()) {
	s.frameMu.Lock()
	s.frameQueue = append(s.frameQueue, fn)
	s.frameMu.Unlock()
}

// RunAfterDelay schedules fn on the frame clock after at least d.
func (s *System) RunAfterDelay(d time.Duration, fn func()) winsys.CancelFunc {
	var mu sync.Mutex
	canceled := false

	timer := time.AfterFunc(d, func() {
		s.RunBeforeFrame(func() {
			mu.Lock()
			c := canceled
			mu.Unlock()
			if !c {
				fn()
			}
		})
	})

	return func() {
		mu.Lock()
		canceled = true
		mu.Unlock()
		timer.Stop()
	}
}

func (s *System) runFrameClock() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopFrames:
			return
		case <-ticker.C:
			s.frameMu.Lock()
			queue := s.frameQueue
			s.frameQueue = nil
			s.frameMu.Unlock()

			for _, fn := range queue {
				fn()
			}
		}
	}
}

// windowInfo assembles the engine's view of one window from its EWMH and
// ICCCM properties. Returns false when the window vanished mid-query.
func (s *System) windowInfo(win xproto.Window) (winsys.Window, bool) {
	geom, err := xproto.GetGeometry(s.conn.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return winsys.Window{}, false
	}

	translate, err := xproto.TranslateCoordinates(s.conn.XUtil.Conn(), win, s.conn.Root, 0, 0).Reply()
	if err != nil {
		return winsys.Window{}, false
	}

	buffer := winsys.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}

	left, right, top, bottom := s.frameExtents(win)
	frame := winsys.Rect{
		X:      buffer.X - left,
		Y:      buffer.Y - top,
		Width:  buffer.Width + left + right,
		Height: buffer.Height + top + bottom,
	}

	w := winsys.Window{
		ID:        winsys.WindowID(win),
		Type:      s.windowType(win),
		Frame:     frame,
		Buffer:    buffer,
		Monitor:   s.conn.MonitorForWindow(win),
		CanMove:   true,
		CanResize: true,
	}

	if name, err := ewmh.WmNameGet(s.conn.XUtil, win); err == nil {
		w.Title = name
	}
	if class, err := icccm.WmClassGet(s.conn.XUtil, win); err == nil {
		w.Class = class.Class
	}

	// 0xFFFFFFFF means the window is on all desktops (sticky).
	if desktop, err := ewmh.WmDesktopGet(s.conn.XUtil, win); err == nil {
		if desktop == 0xFFFFFFFF {
			w.Sticky = true
		} else {
			w.Workspace = int(desktop)
		}
	}

	if states, err := ewmh.WmStateGet(s.conn.XUtil, win); err == nil {
		horz, vert := false, false
		for _, state := range states {
			switch state {
			case "_NET_WM_STATE_FULLSCREEN":
				w.Fullscreen = true
			case "_NET_WM_STATE_MAXIMIZED_HORZ":
				horz = true
			case "_NET_WM_STATE_MAXIMIZED_VERT":
				vert = true
			case "_NET_WM_STATE_HIDDEN":
				w.Minimized = true
				w.Hidden = true
			}
		}
		switch {
		case horz && vert:
			w.Maximized = winsys.MaximizeBoth
		case horz:
			w.Maximized = winsys.MaximizeHorizontal
		case vert:
			w.Maximized = winsys.MaximizeVertical
		}
	}

	if actions, err := ewmh.WmAllowedActionsGet(s.conn.XUtil, win); err == nil && len(actions) > 0 {
		w.CanMove, w.CanResize = false, false
		for _, a := range actions {
			switch a {
			case "_NET_WM_ACTION_MOVE":
				w.CanMove = true
			case "_NET_WM_ACTION_RESIZE":
				w.CanResize = true
			}
		}
	}

	return w, true
}

// windowType maps _NET_WM_WINDOW_TYPE onto the engine's classification.
// Windows with no type set are treated as normal per EWMH.
func (s *System) windowType(win xproto.Window) winsys.WindowType {
	types, err := ewmh.WmWindowTypeGet(s.conn.XUtil, win)
	if err != nil || len(types) == 0 {
		return winsys.TypeNormal
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return winsys.TypeNormal
		case "_NET_WM_WINDOW_TYPE_DIALOG":
			return winsys.TypeDialog
		case "_NET_WM_WINDOW_TYPE_DOCK":
			return winsys.TypeDock
		case "_NET_WM_WINDOW_TYPE_MENU", "_NET_WM_WINDOW_TYPE_DROPDOWN_MENU", "_NET_WM_WINDOW_TYPE_POPUP_MENU":
			return winsys.TypeMenu
		case "_NET_WM_WINDOW_TYPE_TOOLTIP", "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return winsys.TypeTooltip
		case "_NET_WM_WINDOW_TYPE_SPLASH":
			return winsys.TypeSplash
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			return winsys.TypeDesktop
		}
	}
	return winsys.TypeNormal
}

// frameExtents returns the window decoration sizes, zeros when unavailable.
func (s *System) frameExtents(win xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(s.conn.XUtil, win)
	if err != nil {
		return 0, 0, 0, 0
	}
	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom)
}

func stateAction(on bool) int {
	if on {
		return ewmh.StateAdd
	}
	return ewmh.StateRemove
}
