package hotkeys

import (
	"fmt"
	"log"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/stacktile/internal/config"
	"github.com/1broseidon/stacktile/internal/engine"
)

// Actions is the set of tiling operations hotkeys can trigger.
type Actions interface {
	Toggle() error
	AdjustMasterRatio(increase bool) error
	FocusDirection(d engine.Direction) error
	SwapDirection(d engine.Direction) error
}

// Handler manages global keyboard shortcuts.
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	actions Actions
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler bound to the given X connection.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window, actions Actions) *Handler {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    root,
		actions: actions,
	}
}

// RegisterAll registers every configured hotkey. A missing chord skips
// that binding; a chord that fails to grab is an error.
func (h *Handler) RegisterAll(hk config.Hotkeys) error {
	bindings := []struct {
		name  string
		chord string
		fn    func()
	}{
		{"toggle", hk.Toggle, func() {
			if err := h.actions.Toggle(); err != nil {
				log.Printf("Toggle tiling failed: %v", err)
			}
		}},
		{"ratio_grow", hk.RatioGrow, func() {
			if err := h.actions.AdjustMasterRatio(true); err != nil {
				log.Printf("Grow master failed: %v", err)
			}
		}},
		{"ratio_shrink", hk.RatioShrink, func() {
			if err := h.actions.AdjustMasterRatio(false); err != nil {
				log.Printf("Shrink master failed: %v", err)
			}
		}},
		{"focus_left", hk.FocusLeft, h.directional(h.actions.FocusDirection, engine.DirLeft)},
		{"focus_right", hk.FocusRight, h.directional(h.actions.FocusDirection, engine.DirRight)},
		{"focus_up", hk.FocusUp, h.directional(h.actions.FocusDirection, engine.DirUp)},
		{"focus_down", hk.FocusDown, h.directional(h.actions.FocusDirection, engine.DirDown)},
		{"swap_left", hk.SwapLeft, h.directional(h.actions.SwapDirection, engine.DirLeft)},
		{"swap_right", hk.SwapRight, h.directional(h.actions.SwapDirection, engine.DirRight)},
		{"swap_up", hk.SwapUp, h.directional(h.actions.SwapDirection, engine.DirUp)},
		{"swap_down", hk.SwapDown, h.directional(h.actions.SwapDirection, engine.DirDown)},
	}

	for _, b := range bindings {
		if b.chord == "" {
			continue
		}
		if err := h.registerFunc(b.chord, b.fn); err != nil {
			return fmt.Errorf("failed to register %s hotkey %q: %w", b.name, b.chord, err)
		}
		log.Printf("Registered hotkey %s: %s", b.name, b.chord)
	}

	return nil
}

func (h *Handler) directional(fn func(engine.Direction) error, d engine.Direction) func() {
	return func() {
		if err := fn(d); err != nil {
			log.Printf("Directional action %s failed: %v", d, err)
		}
	}
}

// registerFunc registers an arbitrary hotkey callback.
func (h *Handler) registerFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
