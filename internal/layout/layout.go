package layout

import (
	"github.com/1broseidon/stacktile/internal/winsys"
)

// Sizing floors and shrink behavior for the stack grid. The master column
// gives up width in fixed decrements until every stack slot clears the
// floors, down to its own floor.
const (
	DefaultMinStackWidth  = 500
	DefaultMinStackHeight = 350

	masterShrinkStep    = 50
	minMasterWidth      = 500
	maxShrinkIterations = 20
)

// Entry assigns a screen rectangle to one window.
type Entry struct {
	Window winsys.WindowID
	Rect   winsys.Rect
}

// Result is the outcome of one layout pass. Entries holds the master
// placement first, then the stack placements in input order. Skipped holds
// stack windows that did not fit at the minimum slot size, oldest first
// (the tail of the stack ordering). Results are transient and recomputed
// on every pass.
type Result struct {
	Entries []Entry
	Skipped []winsys.WindowID
}

// Params carries the inputs of a layout pass. MinStackWidth and
// MinStackHeight fall back to the package defaults when zero.
type Params struct {
	WorkArea       winsys.Rect
	MasterRatio    float64
	Gap            int
	MinStackWidth  int
	MinStackHeight int
}

// Compute produces master-stack placements for the ordered window list.
// windows[0] is the master and occupies the left column; the remainder
// tile in a grid to the right. Deterministic, no side effects. The caller
// is responsible for clamping MasterRatio to a practical band; Compute
// terminates and produces a layout for any ratio in (0,1).
func Compute(windows []winsys.WindowID, p Params) Result {
	n := len(windows)
	if n == 0 {
		return Result{}
	}

	area := p.WorkArea
	gap := p.Gap
	if n == 1 {
		return Result{Entries: []Entry{{
			Window: windows[0],
			Rect:   insetRect(area, gap),
		}}}
	}

	minW := p.MinStackWidth
	if minW <= 0 {
		minW = DefaultMinStackWidth
	}
	minH := p.MinStackHeight
	if minH <= 0 {
		minH = DefaultMinStackHeight
	}

	innerH := area.Height - 2*gap
	if innerH < 1 {
		innerH = 1
	}

	masterW := int(p.MasterRatio * float64(area.Width-3*gap))
	if masterW < 1 {
		masterW = 1
	}

	stackCount := n - 1
	var stackW, cols, rows, rowH int
	for iter := 0; ; iter++ {
		stackW = area.Width - masterW - 3*gap
		if stackW < 1 {
			stackW = 1
		}

		cols = (stackW + gap) / (minW + gap)
		if cols < 1 {
			cols = 1
		}
		if cols > stackCount {
			cols = stackCount
		}
		rows = ceilDiv(stackCount, cols)
		rowH = (innerH - (rows-1)*gap) / rows
		colW := (stackW - (cols-1)*gap) / cols

		if rowH >= minH && colW >= minW {
			break
		}
		if iter >= maxShrinkIterations || masterW-masterShrinkStep < minMasterWidth {
			break
		}
		masterW -= masterShrinkStep
	}

	// Capacity at the minimum height floor. Stack windows beyond it are
	// skipped, not squeezed.
	maxRows := (innerH + gap) / (minH + gap)
	if maxRows < 1 {
		maxRows = 1
	}

	var skipped []winsys.WindowID
	placed := stackCount
	if placed > maxRows*cols {
		placed = maxRows * cols
		// The stack ordering is topmost-first, so the oldest windows sit at
		// the tail; walk it backwards to report them oldest-first.
		for i := n - 1; i >= 1+placed; i-- {
			skipped = append(skipped, windows[i])
		}
		rows = ceilDiv(placed, cols)
		rowH = (innerH - (rows-1)*gap) / rows
	}
	if rowH < 1 {
		rowH = 1
	}

	entries := make([]Entry, 0, placed+1)
	entries = append(entries, Entry{
		Window: windows[0],
		Rect: winsys.Rect{
			X:      area.X + gap,
			Y:      area.Y + gap,
			Width:  masterW,
			Height: innerH,
		},
	})

	stackX := area.X + masterW + 2*gap
	next := 1
	remaining := placed
	for r := 0; r < rows && remaining > 0; r++ {
		// Approximately even distribution: no row is starved.
		cnt := ceilDiv(remaining, rows-r)
		remaining -= cnt

		colW := (stackW - (cnt-1)*gap) / cnt
		if colW < 1 {
			colW = 1
		}
		y := area.Y + gap + r*(rowH+gap)

		x := stackX
		for c := 0; c < cnt; c++ {
			w := colW
			if c == cnt-1 {
				// Last column absorbs the integer-division remainder so
				// the row always sums exactly to the stack width.
				w = stackW - c*(colW+gap)
			}
			entries = append(entries, Entry{
				Window: windows[next],
				Rect:   winsys.Rect{X: x, Y: y, Width: w, Height: rowH},
			})
			next++
			x += colW + gap
		}
	}

	return Result{Entries: entries, Skipped: skipped}
}

func insetRect(r winsys.Rect, gap int) winsys.Rect {
	out := winsys.Rect{
		X:      r.X + gap,
		Y:      r.Y + gap,
		Width:  r.Width - 2*gap,
		Height: r.Height - 2*gap,
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
