package layout

import (
	"reflect"
	"testing"

	"github.com/1broseidon/stacktile/internal/winsys"
)

func ids(n int) []winsys.WindowID {
	out := make([]winsys.WindowID, n)
	for i := range out {
		out[i] = winsys.WindowID(i + 1)
	}
	return out
}

func intersects(a, b winsys.Rect) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

func contains(outer, inner winsys.Rect) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.X+inner.Width <= outer.X+outer.Width &&
		inner.Y+inner.Height <= outer.Y+outer.Height
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil, Params{WorkArea: winsys.Rect{Width: 1920, Height: 1080}, MasterRatio: 0.5, Gap: 10})
	if len(res.Entries) != 0 || len(res.Skipped) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestCompute_SingleWindowFillsAreaMinusGap(t *testing.T) {
	area := winsys.Rect{X: 100, Y: 50, Width: 1920, Height: 1080}
	for _, ratio := range []float64{0.2, 0.5, 0.8} {
		res := Compute(ids(1), Params{WorkArea: area, MasterRatio: ratio, Gap: 12})
		if len(res.Entries) != 1 {
			t.Fatalf("ratio %v: expected 1 entry, got %d", ratio, len(res.Entries))
		}
		want := winsys.Rect{X: 112, Y: 62, Width: 1896, Height: 1056}
		if res.Entries[0].Rect != want {
			t.Fatalf("ratio %v: expected %+v, got %+v", ratio, want, res.Entries[0].Rect)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	p := Params{WorkArea: winsys.Rect{Width: 2560, Height: 1440}, MasterRatio: 0.55, Gap: 8}
	first := Compute(ids(6), p)
	for i := 0; i < 5; i++ {
		if got := Compute(ids(6), p); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestCompute_NonOverlapAndContainment(t *testing.T) {
	area := winsys.Rect{X: 0, Y: 0, Width: 3840, Height: 2160}
	for n := 1; n <= 8; n++ {
		res := Compute(ids(n), Params{WorkArea: area, MasterRatio: 0.5, Gap: 10})
		for i, e := range res.Entries {
			if !contains(area, e.Rect) {
				t.Fatalf("n=%d: entry %d %+v escapes work area", n, i, e.Rect)
			}
			for j := i + 1; j < len(res.Entries); j++ {
				if intersects(e.Rect, res.Entries[j].Rect) {
					t.Fatalf("n=%d: entries %d and %d overlap: %+v / %+v",
						n, i, j, e.Rect, res.Entries[j].Rect)
				}
			}
		}
	}
}

func TestCompute_ThreeWindowScenario(t *testing.T) {
	// masterW = floor(0.5 * (1920 - 30)) = 945, innerH = 1060.
	// stackW = 1920 - 945 - 30 = 945 -> one 500px-min column fits.
	// Two stack rows: rowH = floor((1060 - 10) / 2) = 525.
	area := winsys.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	res := Compute(ids(3), Params{WorkArea: area, MasterRatio: 0.5, Gap: 10})

	if len(res.Entries) != 3 || len(res.Skipped) != 0 {
		t.Fatalf("expected 3 entries and no skips, got %+v", res)
	}

	master := res.Entries[0].Rect
	if master != (winsys.Rect{X: 10, Y: 10, Width: 945, Height: 1060}) {
		t.Fatalf("unexpected master rect %+v", master)
	}

	top := res.Entries[1].Rect
	bottom := res.Entries[2].Rect
	if top != (winsys.Rect{X: 965, Y: 10, Width: 945, Height: 525}) {
		t.Fatalf("unexpected first stack rect %+v", top)
	}
	if bottom != (winsys.Rect{X: 965, Y: 545, Width: 945, Height: 525}) {
		t.Fatalf("unexpected second stack rect %+v", bottom)
	}
}

func TestCompute_OverflowSkipsOldestTail(t *testing.T) {
	// W=1200, ratio 0.5, gap 10: masterW starts at 585 and shrinks to its
	// 500px floor neighborhood; the stack keeps a single column. With
	// H=1000 the 350px height floor admits maxRows = (980+10)/360 = 2, so
	// capacity is K=2 stack slots. Feeding K+3 stack windows must skip
	// exactly the 3 at the tail of the ordering.
	area := winsys.Rect{X: 0, Y: 0, Width: 1200, Height: 1000}
	windows := ids(6) // 1 master + 5 stack
	res := Compute(windows, Params{WorkArea: area, MasterRatio: 0.5, Gap: 10})

	if len(res.Skipped) != 3 {
		t.Fatalf("expected 3 skipped windows, got %d (%v)", len(res.Skipped), res.Skipped)
	}
	want := []winsys.WindowID{6, 5, 4}
	if !reflect.DeepEqual(res.Skipped, want) {
		t.Fatalf("expected skipped %v (oldest-first tail), got %v", want, res.Skipped)
	}
	if len(res.Entries) != 3 { // master + K placed stack entries
		t.Fatalf("expected 3 placed entries, got %d", len(res.Entries))
	}
	for _, e := range res.Entries {
		for _, skipped := range res.Skipped {
			if e.Window == skipped {
				t.Fatalf("skipped window %d was also placed", skipped)
			}
		}
		if e.Rect.Height < DefaultMinStackHeight && e.Window != windows[0] {
			t.Fatalf("placed stack window %d below height floor: %+v", e.Window, e.Rect)
		}
	}
}

func TestCompute_EvenRowDistribution(t *testing.T) {
	// Two 500px-min columns fit to the right of master; three stack
	// windows must split 2/1 across the two rows, never 3/0.
	area := winsys.Rect{X: 0, Y: 0, Width: 2200, Height: 1000}
	res := Compute(ids(4), Params{WorkArea: area, MasterRatio: 0.5, Gap: 10})

	if len(res.Entries) != 4 || len(res.Skipped) != 0 {
		t.Fatalf("expected 4 entries and no skips, got %+v", res)
	}
	stack := res.Entries[1:]
	rowYs := map[int]int{}
	for _, e := range stack {
		rowYs[e.Rect.Y]++
	}
	if len(rowYs) != 2 {
		t.Fatalf("expected stack spread over 2 rows, got rows at %v", rowYs)
	}
	for y, count := range rowYs {
		if count != 1 && count != 2 {
			t.Fatalf("row at y=%d has %d windows, expected 1 or 2", y, count)
		}
	}
}

func TestCompute_RowWidthSumsToStackWidth(t *testing.T) {
	area := winsys.Rect{X: 0, Y: 0, Width: 2207, Height: 1000}
	res := Compute(ids(5), Params{WorkArea: area, MasterRatio: 0.47, Gap: 9})

	masterW := res.Entries[0].Rect.Width
	stackW := area.Width - masterW - 3*9
	byRow := map[int][]winsys.Rect{}
	for _, e := range res.Entries[1:] {
		byRow[e.Rect.Y] = append(byRow[e.Rect.Y], e.Rect)
	}
	for y, rects := range byRow {
		total := 0
		for _, r := range rects {
			total += r.Width
		}
		total += (len(rects) - 1) * 9
		if total != stackW {
			t.Fatalf("row y=%d sums to %d, want stack width %d", y, total, stackW)
		}
	}
}

func TestCompute_ExtremeRatiosTerminate(t *testing.T) {
	area := winsys.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	for _, ratio := range []float64{0.05, 0.35, 0.95} {
		res := Compute(ids(4), Params{WorkArea: area, MasterRatio: ratio, Gap: 10})
		if len(res.Entries) == 0 {
			t.Fatalf("ratio %v produced no entries", ratio)
		}
		for _, e := range res.Entries {
			if e.Rect.Width < 1 || e.Rect.Height < 1 {
				t.Fatalf("ratio %v produced degenerate rect %+v", ratio, e.Rect)
			}
		}
	}
}
