package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// highlightColor is the fill of the drop-target indicator.
const highlightColor = 0x3584e4

// highlightBorder is the indicator inset, so the fill reads as a frame
// around the slot rather than a solid flash.
const highlightBorder = 4

// Highlight renders the drop-target indicator during a drag as an
// override-redirect window above the stack. It implements the drag
// package's Highlighter.
type Highlight struct {
	conn *Connection
	win  *xwindow.Window
}

// NewHighlight creates the indicator window, initially unmapped.
func NewHighlight(conn *Connection) (*Highlight, error) {
	win, err := xwindow.Generate(conn.XUtil)
	if err != nil {
		return nil, err
	}

	err = win.CreateChecked(conn.Root, 0, 0, 1, 1,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		highlightColor, 1)
	if err != nil {
		return nil, err
	}

	return &Highlight{conn: conn, win: win}, nil
}

// HighlightZone shows the indicator over the given slot rectangle.
func (h *Highlight) HighlightZone(r winsys.Rect) {
	w := r.Width - 2*highlightBorder
	ht := r.Height - 2*highlightBorder
	if w < 1 || ht < 1 {
		h.ClearHighlight()
		return
	}

	h.win.MoveResize(r.X+highlightBorder, r.Y+highlightBorder, w, ht)
	h.win.Map()
	h.win.Stack(xproto.StackModeAbove)
}

// ClearHighlight hides the indicator.
func (h *Highlight) ClearHighlight() {
	h.win.Unmap()
}

// Destroy releases the indicator window.
func (h *Highlight) Destroy() {
	h.win.Destroy()
}
