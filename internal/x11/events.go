package x11

import (
	"log"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// grabPollInterval is how often the watcher samples the pointer buttons
// while a move grab is in flight. X11 delivers no grab-end event to
// non-WM clients, so release is detected by polling.
const grabPollInterval = 40 * time.Millisecond

// EventSink receives translated window-system events.
type EventSink func(winsys.Event)

// EventPump listens on the root window and translates raw X11 events into
// the engine's event vocabulary.
type EventPump struct {
	sys  *System
	sink EventSink

	currentDesktopAtom xproto.Atom

	grabMu  sync.Mutex
	grabWin xproto.Window
}

// NewEventPump registers root-window listeners on the pump's connection.
// Events flow once the connection's EventLoop runs.
func NewEventPump(sys *System, sink EventSink) (*EventPump, error) {
	p := &EventPump{sys: sys, sink: sink}

	xu := sys.conn.XUtil
	root := sys.conn.Root

	atom, err := xprop.Atm(xu, "_NET_CURRENT_DESKTOP")
	if err != nil {
		return nil, err
	}
	p.currentDesktopAtom = atom

	if err := xwindow.New(xu, root).Listen(
		xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange,
	); err != nil {
		return nil, err
	}

	xevent.MapNotifyFun(p.onMapNotify).Connect(xu, root)
	xevent.DestroyNotifyFun(p.onDestroyNotify).Connect(xu, root)
	xevent.ConfigureNotifyFun(p.onConfigureNotify).Connect(xu, root)
	xevent.PropertyNotifyFun(p.onPropertyNotify).Connect(xu, root)

	return p, nil
}

func (p *EventPump) onMapNotify(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
	if ev.OverrideRedirect {
		return
	}

	w, ok := p.sys.windowInfo(ev.Window)
	if !ok {
		return
	}
	p.sink(winsys.WindowCreated{Window: w})
}

func (p *EventPump) onDestroyNotify(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	p.endGrabIf(ev.Window)
	p.sink(winsys.WindowClosing{ID: winsys.WindowID(ev.Window)})
}

// onConfigureNotify doubles as the move-grab detector: a window whose
// geometry changes while pointer button 1 is held is being dragged.
func (p *EventPump) onConfigureNotify(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
	if ev.OverrideRedirect || ev.Window == p.sys.conn.Root {
		return
	}

	w, ok := p.sys.windowInfo(ev.Window)
	if !ok {
		return
	}

	if p.buttonHeld() {
		p.beginGrabIf(ev.Window)
		p.sink(winsys.WindowMoved{ID: w.ID, Frame: w.Frame})
	}
}

func (p *EventPump) onPropertyNotify(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	if ev.Atom != p.currentDesktopAtom {
		return
	}

	ws, err := p.sys.ActiveWorkspace()
	if err != nil {
		log.Printf("Failed to read current desktop: %v", err)
		return
	}
	p.sink(winsys.WorkspaceChanged{Workspace: ws})
}

func (p *EventPump) buttonHeld() bool {
	pointer, err := xproto.QueryPointer(p.sys.conn.XUtil.Conn(), p.sys.conn.Root).Reply()
	if err != nil {
		return false
	}
	return pointer.Mask&xproto.ButtonMask1 != 0
}

// beginGrabIf opens a grab session for win and starts the release watcher.
// A second moving window while a grab is live is ignored; only one grab
// can exist per pointer.
func (p *EventPump) beginGrabIf(win xproto.Window) {
	p.grabMu.Lock()
	defer p.grabMu.Unlock()

	if p.grabWin != 0 {
		return
	}
	p.grabWin = win
	p.sink(winsys.GrabBegin{ID: winsys.WindowID(win)})

	go p.watchRelease(win)
}

// endGrabIf closes the grab session if win owns it.
func (p *EventPump) endGrabIf(win xproto.Window) {
	p.grabMu.Lock()
	defer p.grabMu.Unlock()

	if p.grabWin != win {
		return
	}
	p.grabWin = 0
	p.sink(winsys.GrabEnd{ID: winsys.WindowID(win)})
}

func (p *EventPump) watchRelease(win xproto.Window) {
	ticker := time.NewTicker(grabPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.grabMu.Lock()
		active := p.grabWin == win
		p.grabMu.Unlock()
		if !active {
			return
		}

		if !p.buttonHeld() {
			p.endGrabIf(win)
			return
		}
	}
}
