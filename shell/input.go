package shell

import (
	"github.com/mstarongithub/wayspace/focus"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// SurfaceUnder finds what should get pointer input at the global point. Layers above windows
// come first, then windows topmost first, then the layers below. An output showing a fullscreen
// window only offers that window
func (sh *Shell) SurfaceUnder(point generaldata.Vector2f) *seat.PointerFocus {
	if outputs := sh.space.OutputUnder(point); len(outputs) > 0 {
		o := outputs[0]
		if fs := window.FullscreenSurfaceOf(o).Get(); fs != nil {
			outGeo, _ := sh.space.OutputGeometry(o)
			return sh.windowFocus(fs, outGeo.Loc, point)
		}
	}

	if l, loc, ok := sh.space.LayerUnder(point, wl.LayerOverlay, wl.LayerTop); ok {
		return &seat.PointerFocus{Target: focus.LayerSurface(l), Location: loc}
	}
	if w, loc, ok := sh.space.ElementUnder(point); ok {
		return sh.windowFocus(w, loc, point)
	}
	if l, loc, ok := sh.space.LayerUnder(point, wl.LayerBottom, wl.LayerBackground); ok {
		return &seat.PointerFocus{Target: focus.LayerSurface(l), Location: loc}
	}
	return nil
}

// windowFocus targets a popup of w if one is under point, w itself otherwise
func (sh *Shell) windowFocus(w *window.Window, loc generaldata.Vector2i, point generaldata.Vector2f) *seat.PointerFocus {
	rel := point.Sub(loc.ToF())
	s, surfaceLoc, ok := w.SurfaceUnder(rel, window.SurfaceTypePopup)
	if ok {
		if p, found := sh.popups.ForSurface(s); found {
			popupLoc := loc.Add(surfaceLoc)
			if s != p.Surface() {
				popupLoc = loc.Add(sh.popups.OffsetToRoot(p))
			}
			return &seat.PointerFocus{Target: focus.Popup(p), Location: popupLoc}
		}
	}
	if !w.IsInInputRegion(rel) {
		return nil
	}
	return &seat.PointerFocus{Target: focus.Window(w), Location: loc}
}

// PointerMotion routes absolute motion, ev.Location is global
func (sh *Shell) PointerMotion(ev *wl.MotionEvent) {
	sh.seat.Pointer().Motion(sh.SurfaceUnder(ev.Location), ev)
}

// PointerButton routes a button event. Pressing without an active grab focuses what was clicked,
// clicking on nothing deactivates every window
func (sh *Shell) PointerButton(ev *wl.ButtonEvent) {
	ptr := sh.seat.Pointer()
	if ev.State == wl.ButtonPressed && !ptr.IsGrabbed() {
		sh.clickToFocus(ptr.CurrentLocation(), ev.Serial)
	}
	ptr.Button(ev)
}

func (sh *Shell) clickToFocus(point generaldata.Vector2f, serial wl.Serial) {
	kbd := sh.seat.Keyboard()

	if outputs := sh.space.OutputUnder(point); len(outputs) > 0 {
		if fs := window.FullscreenSurfaceOf(outputs[0]).Get(); fs != nil {
			sh.focusWindow(fs, serial)
			return
		}
	}
	if l, _, ok := sh.space.LayerUnder(point, wl.LayerOverlay, wl.LayerTop); ok {
		if l.CurrentState().KeyboardInteractivity != wl.KeyboardInteractivityNone {
			kbd.SetFocus(focus.LayerSurface(l), serial)
		}
		return
	}
	if w, _, ok := sh.space.ElementUnder(point); ok {
		sh.focusWindow(w, serial)
		return
	}
	if l, _, ok := sh.space.LayerUnder(point, wl.LayerBottom, wl.LayerBackground); ok &&
		l.CurrentState().KeyboardInteractivity != wl.KeyboardInteractivityNone {
		kbd.SetFocus(focus.LayerSurface(l), serial)
		return
	}

	logrus.Debugln("Click on empty space, deactivating windows")
	sh.space.DeactivateAll()
	kbd.SetFocus(focus.Target{}, serial)
}

func (sh *Shell) PointerAxis(frame wl.AxisFrame) {
	sh.seat.Pointer().Axis(frame)
}

// KeyboardKey routes a key event. filter may intercept compositor bindings
func (sh *Shell) KeyboardKey(key uint32, state wl.KeyState, serial wl.Serial, time uint32, filter seat.FilterFunc) {
	sh.seat.Keyboard().Input(key, state, serial, time, filter)
}
