package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// Monitor represents a physical display
type Monitor struct {
	ID   int
	Name string
	Rect winsys.Rect
}

// Monitors retrieves all active monitors using XRandR.
func (c *Connection) Monitors() ([]Monitor, error) {
	// Initialize RandR if not already done
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		if len(crtcInfo.Outputs) > 0 {
			outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
			if err == nil {
				outputName = string(outputInfo.Name)
			}
		}

		monitors = append(monitors, Monitor{
			ID:   i,
			Name: outputName,
			Rect: winsys.Rect{
				X:      int(crtcInfo.X),
				Y:      int(crtcInfo.Y),
				Width:  int(crtcInfo.Width),
				Height: int(crtcInfo.Height),
			},
		})
	}

	return monitors, nil
}

// WorkAreaFor returns the tileable region of one monitor with panel and
// dock reservations subtracted. Dock struts are preferred; the EWMH work
// area is the fallback for window managers that never publish struts.
func (c *Connection) WorkAreaFor(monitorID int) (winsys.Rect, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return winsys.Rect{}, err
	}
	if len(monitors) == 0 {
		return winsys.Rect{}, fmt.Errorf("no monitors found")
	}

	mon := monitors[0]
	for _, m := range monitors {
		if m.ID == monitorID {
			mon = m
			break
		}
	}

	area := mon.Rect
	if c.subtractDockStruts(&area) {
		return area, nil
	}

	// Fallback: intersect with the EWMH work area for the current desktop.
	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return area, nil
	}

	desktopIndex := 0
	if currentDesktop, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil {
		if int(currentDesktop) >= 0 && int(currentDesktop) < len(workArea) {
			desktopIndex = int(currentDesktop)
		}
	}

	wa := workArea[desktopIndex]
	if isect, ok := rectIntersection(area, winsys.Rect{
		X: int(wa.X), Y: int(wa.Y), Width: int(wa.Width), Height: int(wa.Height),
	}); ok {
		area = isect
	}

	return area, nil
}

// MonitorForWindow returns the ID of the monitor containing the window's
// center, or 0 when it cannot be determined.
func (c *Connection) MonitorForWindow(windowID xproto.Window) int {
	monitors, err := c.Monitors()
	if err != nil || len(monitors) == 0 {
		return 0
	}

	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0
	}

	centerX := int(translate.DstX) + int(geom.Width)/2
	centerY := int(translate.DstY) + int(geom.Height)/2

	for _, mon := range monitors {
		if mon.Rect.Contains(centerX, centerY) {
			return mon.ID
		}
	}
	return 0
}

// MonitorForPointer returns the ID of the monitor under the pointer.
func (c *Connection) MonitorForPointer() int {
	monitors, err := c.Monitors()
	if err != nil || len(monitors) == 0 {
		return 0
	}

	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0
	}

	for _, mon := range monitors {
		if mon.Rect.Contains(int(pointer.RootX), int(pointer.RootY)) {
			return mon.ID
		}
	}
	return 0
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

// subtractDockStruts shrinks area by every dock strut that overlaps it.
// Returns false when no dock published struts, so the caller can fall back
// to the EWMH work area.
func (c *Connection) subtractDockStruts(area *winsys.Rect) bool {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return false
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return false
	}

	var struts dockStruts
	for _, windowID := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
		if err != nil {
			continue
		}

		isDock := false
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DOCK" {
				isDock = true
				break
			}
		}
		if !isDock {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			accumulateStruts(*area, rootWidth, rootHeight, sp, &struts)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			sp := &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootHeight - 1),
				RightStartY:  0,
				RightEndY:    uint(rootHeight - 1),
				TopStartX:    0,
				TopEndX:      uint(rootWidth - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootWidth - 1),
			}
			accumulateStruts(*area, rootWidth, rootHeight, sp, &struts)
		}
	}

	if struts.left == 0 && struts.right == 0 && struts.top == 0 && struts.bottom == 0 {
		return false
	}

	area.X += struts.left
	area.Y += struts.top
	area.Width -= struts.left + struts.right
	area.Height -= struts.top + struts.bottom

	if area.Width < 1 {
		area.Width = 1
	}
	if area.Height < 1 {
		area.Height = 1
	}

	return true
}

// accumulateStruts records the largest overlap of each strut edge with the
// monitor rectangle.
func accumulateStruts(mon winsys.Rect, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *dockStruts) {
	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		strut := winsys.Rect{
			X: int(sp.TopStartX), Y: 0,
			Width: int(sp.TopEndX) + 1 - int(sp.TopStartX), Height: int(sp.Top),
		}
		if isect, ok := rectIntersection(mon, strut); ok {
			acc.top = maxInt(acc.top, isect.Height)
		}
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		strut := winsys.Rect{
			X: int(sp.BottomStartX), Y: rootHeight - int(sp.Bottom),
			Width: int(sp.BottomEndX) + 1 - int(sp.BottomStartX), Height: int(sp.Bottom),
		}
		if isect, ok := rectIntersection(mon, strut); ok {
			acc.bottom = maxInt(acc.bottom, isect.Height)
		}
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		strut := winsys.Rect{
			X: 0, Y: int(sp.LeftStartY),
			Width: int(sp.Left), Height: int(sp.LeftEndY) + 1 - int(sp.LeftStartY),
		}
		if isect, ok := rectIntersection(mon, strut); ok {
			acc.left = maxInt(acc.left, isect.Width)
		}
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		strut := winsys.Rect{
			X: rootWidth - int(sp.Right), Y: int(sp.RightStartY),
			Width: int(sp.Right), Height: int(sp.RightEndY) + 1 - int(sp.RightStartY),
		}
		if isect, ok := rectIntersection(mon, strut); ok {
			acc.right = maxInt(acc.right, isect.Width)
		}
	}
}

func rectIntersection(a, b winsys.Rect) (winsys.Rect, bool) {
	x1 := maxInt(a.X, b.X)
	y1 := maxInt(a.Y, b.Y)
	x2 := minInt(a.X+a.Width, b.X+b.Width)
	y2 := minInt(a.Y+a.Height, b.Y+b.Height)

	if x2 <= x1 || y2 <= y1 {
		return winsys.Rect{}, false
	}
	return winsys.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
