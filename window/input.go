package window

import (
	"github.com/mstarongithub/wayspace/wl"
)

var (
	_ wl.PointerTarget  = (*Window)(nil)
	_ wl.KeyboardTarget = (*Window)(nil)
)

// Input targeted at the window goes to its root surface. X11 windows without an
// associated surface cannot receive anything yet
func (w *Window) target() wl.Surface {
	s := w.WlSurface()
	if s == nil || !s.Alive() {
		return nil
	}
	return s
}

func (w *Window) PointerEnter(ev *wl.MotionEvent) {
	if s := w.target(); s != nil {
		s.PointerEnter(ev)
	}
}

func (w *Window) PointerMotion(ev *wl.MotionEvent) {
	if s := w.target(); s != nil {
		s.PointerMotion(ev)
	}
}

func (w *Window) PointerRelativeMotion(ev *wl.RelativeMotionEvent) {
	if s := w.target(); s != nil {
		s.PointerRelativeMotion(ev)
	}
}

func (w *Window) PointerButton(ev *wl.ButtonEvent) {
	if s := w.target(); s != nil {
		s.PointerButton(ev)
	}
}

func (w *Window) PointerAxis(frame wl.AxisFrame) {
	if s := w.target(); s != nil {
		s.PointerAxis(frame)
	}
}

func (w *Window) PointerLeave(serial wl.Serial, time uint32) {
	if s := w.target(); s != nil {
		s.PointerLeave(serial, time)
	}
}

func (w *Window) KeyboardEnter(keys []uint32, serial wl.Serial) {
	if s := w.target(); s != nil {
		s.KeyboardEnter(keys, serial)
	}
}

func (w *Window) KeyboardLeave(serial wl.Serial) {
	if s := w.target(); s != nil {
		s.KeyboardLeave(serial)
	}
}

func (w *Window) KeyboardKey(key uint32, state wl.KeyState, serial wl.Serial, time uint32) {
	if s := w.target(); s != nil {
		s.KeyboardKey(key, state, serial, time)
	}
}

func (w *Window) KeyboardModifiers(mods wl.Modifiers, serial wl.Serial) {
	if s := w.target(); s != nil {
		s.KeyboardModifiers(mods, serial)
	}
}
