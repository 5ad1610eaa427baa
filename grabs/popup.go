package grabs

import (
	"github.com/mstarongithub/wayspace/focus"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// PopupGrab keeps keyboard and pointer input on a chain of popups of one client.
// Clicking anywhere outside of the client dismisses the whole chain
type PopupGrab struct {
	root   focus.Target
	popups []wl.Popup
	serial wl.Serial
	start  seat.GrabStartData
	seat   *seat.Seat
}

// NewPopupGrab starts a grab for popup, whose chain ends in root
func NewPopupGrab(s *seat.Seat, root focus.Target, popup wl.Popup, serial wl.Serial) *PopupGrab {
	start, ok := s.Pointer().GrabStartData()
	if !ok {
		start = seat.GrabStartData{Location: s.Pointer().CurrentLocation()}
		if f, focused := s.Pointer().CurrentFocus(); focused {
			start.Focus = &f
		}
	}
	return &PopupGrab{
		root:   root,
		popups: []wl.Popup{popup},
		serial: serial,
		start:  start,
		seat:   s,
	}
}

// Push adds a nested popup to the chain
func (g *PopupGrab) Push(popup wl.Popup, serial wl.Serial) {
	g.prune()
	g.popups = append(g.popups, popup)
	g.serial = serial
	g.focusKeyboard(serial)
}

func (g *PopupGrab) Root() focus.Target {
	return g.root
}

// Serial of the event the newest popup of the chain was grabbed with
func (g *PopupGrab) Serial() wl.Serial {
	return g.serial
}

func (g *PopupGrab) prune() {
	alive := g.popups[:0]
	for _, p := range g.popups {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	g.popups = alive
}

// HasEnded is true once every popup of the chain is gone
func (g *PopupGrab) HasEnded() bool {
	g.prune()
	return len(g.popups) == 0 || !g.root.Alive()
}

// CurrentTarget is the topmost popup, or the root once the chain is gone
func (g *PopupGrab) CurrentTarget() focus.Target {
	g.prune()
	if len(g.popups) == 0 {
		return g.root
	}
	return focus.Popup(g.popups[len(g.popups)-1])
}

// Contains checks if p is part of the chain
func (g *PopupGrab) Contains(p wl.Popup) bool {
	for _, c := range g.popups {
		if c == p {
			return true
		}
	}
	return false
}

// Dismiss closes every popup, newest first
func (g *PopupGrab) Dismiss() {
	for i := len(g.popups) - 1; i >= 0; i-- {
		if g.popups[i].Alive() {
			g.popups[i].SendPopupDone()
		}
	}
	g.popups = nil
}

func (g *PopupGrab) ownsTarget(f *seat.PointerFocus) bool {
	root := g.root.WlSurface()
	return f != nil && root != nil && f.Target.SameClientAs(root.Client())
}

// Install sets the keyboard and pointer grabs
func (g *PopupGrab) Install() {
	kbd := g.seat.Keyboard()
	kbd.SetGrab(&PopupKeyboardGrab{grab: g}, g.serial)
	g.focusKeyboard(g.serial)
	g.seat.Pointer().SetGrab(&PopupPointerGrab{grab: g}, g.serial, seat.FocusKeep)
}

func (g *PopupGrab) focusKeyboard(serial wl.Serial) {
	kbd := g.seat.Keyboard()
	if grab, ok := kbd.Grab().(*PopupKeyboardGrab); ok && grab.grab == g {
		kbd.SetFocusUngrabbed(g.CurrentTarget(), serial)
	}
}

// end removes both grabs and gives the keyboard back to the root
func (g *PopupGrab) end(serial wl.Serial) {
	logrus.WithField("root", g.root).Debugln("Popup grab ended")
	kbd := g.seat.Keyboard()
	if grab, ok := kbd.Grab().(*PopupKeyboardGrab); ok && grab.grab == g {
		kbd.UnsetGrab()
		if g.root.Alive() {
			kbd.SetFocus(g.root, serial)
		}
	}
	ptr := g.seat.Pointer()
	if grab, ok := ptr.Grab().(*PopupPointerGrab); ok && grab.grab == g {
		ptr.UnsetGrab()
	}
}

// PopupPointerGrab is the pointer side of a popup grab
type PopupPointerGrab struct {
	grab *PopupGrab
}

var _ seat.PointerGrab = (*PopupPointerGrab)(nil)

func (g *PopupPointerGrab) PopupGrab() *PopupGrab {
	return g.grab
}

func (g *PopupPointerGrab) Motion(h *seat.PointerInnerHandle, f *seat.PointerFocus, ev *wl.MotionEvent) {
	if g.grab.HasEnded() {
		h.Motion(f, ev)
		g.grab.end(ev.Serial)
		return
	}
	if g.grab.ownsTarget(f) {
		h.Motion(f, ev)
	} else {
		h.Motion(nil, ev)
	}
}

func (g *PopupPointerGrab) RelativeMotion(h *seat.PointerInnerHandle, _ *seat.PointerFocus, ev *wl.RelativeMotionEvent) {
	h.RelativeMotion(ev)
}

func (g *PopupPointerGrab) Button(h *seat.PointerInnerHandle, ev *wl.ButtonEvent) {
	if g.grab.HasEnded() {
		h.Button(ev)
		g.grab.end(ev.Serial)
		return
	}
	if ev.State == wl.ButtonPressed && h.CurrentFocus() == nil {
		g.grab.Dismiss()
		g.grab.end(ev.Serial)
		return
	}
	h.Button(ev)
}

func (g *PopupPointerGrab) Axis(h *seat.PointerInnerHandle, frame wl.AxisFrame) {
	h.Axis(frame)
}

func (g *PopupPointerGrab) StartData() seat.GrabStartData {
	return g.grab.start
}

func (g *PopupPointerGrab) Unset() {}

// PopupKeyboardGrab is the keyboard side of a popup grab.
// Keys go to the topmost popup, focus changes from outside are ignored
type PopupKeyboardGrab struct {
	grab *PopupGrab
}

var _ seat.KeyboardGrab = (*PopupKeyboardGrab)(nil)

func (g *PopupKeyboardGrab) Input(h *seat.KeyboardInnerHandle, key uint32, state wl.KeyState, serial wl.Serial, time uint32) {
	if g.grab.HasEnded() {
		h.UnsetGrab()
		h.SetFocus(g.grab.root, serial)
		h.Input(key, state, serial, time)
		return
	}
	if target := g.grab.CurrentTarget(); target != h.CurrentFocus() {
		h.SetFocus(target, serial)
	}
	h.Input(key, state, serial, time)
}

func (g *PopupKeyboardGrab) SetFocus(h *seat.KeyboardInnerHandle, target focus.Target, serial wl.Serial) {
	if g.grab.HasEnded() {
		h.UnsetGrab()
		h.SetFocus(target, serial)
	}
}

func (g *PopupKeyboardGrab) Unset() {}
