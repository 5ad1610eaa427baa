package seat

import (
	"sort"

	"github.com/mstarongithub/wayspace/focus"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// PointerFocus is a target together with the global location of its surface origin
type PointerFocus struct {
	Target   focus.Target
	Location generaldata.Vector2i
}

// What happens to the pointer focus when a grab is installed
type Focus int

const (
	// Keep the current focus
	FocusKeep = Focus(iota)
	// Send a leave to the current focus and keep the pointer unfocused until the grab ends
	FocusClear
)

// GrabStartData describes the input state a grab was started from
type GrabStartData struct {
	// Focus at the time the grab started, may be nil
	Focus    *PointerFocus
	Button   uint32
	Location generaldata.Vector2f
}

// PointerGrab takes over pointer event handling until it is unset.
// focus is the target under the pointer as computed by the caller, nil if there is none
type PointerGrab interface {
	Motion(h *PointerInnerHandle, focus *PointerFocus, ev *wl.MotionEvent)
	RelativeMotion(h *PointerInnerHandle, focus *PointerFocus, ev *wl.RelativeMotionEvent)
	Button(h *PointerInnerHandle, ev *wl.ButtonEvent)
	Axis(h *PointerInnerHandle, frame wl.AxisFrame)
	StartData() GrabStartData
	// Called once the grab got replaced or unset
	Unset()
}

type Pointer struct {
	serials  *wl.SerialCounter
	location generaldata.Vector2f
	// Where input currently goes
	focus *PointerFocus
	// Target under the pointer as last reported, restored once a grab ends
	pendingFocus *PointerFocus
	pressed      map[uint32]bool
	lastTime     uint32

	grab       PointerGrab
	grabSerial wl.Serial
}

func newPointer(serials *wl.SerialCounter) *Pointer {
	return &Pointer{
		serials: serials,
		pressed: map[uint32]bool{},
	}
}

func (p *Pointer) CurrentLocation() generaldata.Vector2f {
	return p.location
}

// CurrentFocus returns the target input is delivered to, if any
func (p *Pointer) CurrentFocus() (PointerFocus, bool) {
	if p.focus == nil {
		return PointerFocus{}, false
	}
	return *p.focus, true
}

// CurrentPressed returns the pressed buttons, ordered by code
func (p *Pointer) CurrentPressed() []uint32 {
	res := make([]uint32, 0, len(p.pressed))
	for b := range p.pressed {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (p *Pointer) IsGrabbed() bool {
	return p.grab != nil
}

// HasGrab checks if the active grab was started by the event with the given serial
func (p *Pointer) HasGrab(serial wl.Serial) bool {
	return p.grab != nil && p.grabSerial == serial
}

// GrabSerial is the serial the active grab was installed with
func (p *Pointer) GrabSerial() (wl.Serial, bool) {
	return p.grabSerial, p.grab != nil
}

// ClickGrabSerial is the serial of the press that started the implicit grab. Interactive
// grabs installed on top of it don't count
func (p *Pointer) ClickGrabSerial() (wl.Serial, bool) {
	if _, ok := p.grab.(*clickGrab); !ok {
		return 0, false
	}
	return p.grabSerial, true
}

// GrabStartData returns the start data of the active grab
func (p *Pointer) GrabStartData() (GrabStartData, bool) {
	if p.grab == nil {
		return GrabStartData{}, false
	}
	return p.grab.StartData(), true
}

// Grab returns the active grab, nil if there is none
func (p *Pointer) Grab() PointerGrab {
	return p.grab
}

// SetGrab installs grab, replacing any active one
func (p *Pointer) SetGrab(grab PointerGrab, serial wl.Serial, mode Focus) {
	if p.grab != nil {
		p.grab.Unset()
	}
	p.grab = grab
	p.grabSerial = serial
	logrus.WithField("serial", serial).Debugln("Pointer grab installed")
	if mode == FocusClear {
		h := &PointerInnerHandle{pointer: p}
		h.Motion(nil, &wl.MotionEvent{Location: p.location, Serial: serial, Time: p.lastTime})
	}
}

// UnsetGrab removes the active grab and gives focus back to whatever is under the pointer
func (p *Pointer) UnsetGrab() {
	if p.grab == nil {
		return
	}
	grab := p.grab
	p.grab = nil
	grab.Unset()
	logrus.Debugln("Pointer grab removed")
	h := &PointerInnerHandle{pointer: p}
	h.Motion(p.pendingFocus, &wl.MotionEvent{Location: p.location, Serial: p.serials.Next(), Time: p.lastTime})
}

// Motion handles absolute pointer motion. ev.Location is global.
// focus is the target under the new location, nil if there is none
func (p *Pointer) Motion(focus *PointerFocus, ev *wl.MotionEvent) {
	p.location = ev.Location
	p.lastTime = ev.Time
	p.pendingFocus = focus
	h := &PointerInnerHandle{pointer: p}
	if p.grab != nil {
		p.grab.Motion(h, focus, ev)
		return
	}
	h.Motion(focus, ev)
}

// RelativeMotion handles unaccelerated motion deltas, delivered alongside absolute motion
func (p *Pointer) RelativeMotion(focus *PointerFocus, ev *wl.RelativeMotionEvent) {
	h := &PointerInnerHandle{pointer: p}
	if p.grab != nil {
		p.grab.RelativeMotion(h, focus, ev)
		return
	}
	h.RelativeMotion(ev)
}

// Button handles a button press or release. A press without an active grab starts an
// implicit grab that keeps input on the pressed target until all buttons are released
func (p *Pointer) Button(ev *wl.ButtonEvent) {
	p.lastTime = ev.Time
	switch ev.State {
	case wl.ButtonPressed:
		p.pressed[ev.Button] = true
		if p.grab == nil {
			p.grab = &clickGrab{start: GrabStartData{
				Focus:    p.focus,
				Button:   ev.Button,
				Location: p.location,
			}}
			p.grabSerial = ev.Serial
		}
	case wl.ButtonReleased:
		delete(p.pressed, ev.Button)
	}
	h := &PointerInnerHandle{pointer: p}
	if p.grab != nil {
		p.grab.Button(h, ev)
		return
	}
	h.Button(ev)
}

func (p *Pointer) Axis(frame wl.AxisFrame) {
	p.lastTime = frame.Time
	h := &PointerInnerHandle{pointer: p}
	if p.grab != nil {
		p.grab.Axis(h, frame)
		return
	}
	h.Axis(frame)
}

// PointerInnerHandle is how grabs deliver events. It never consults the grab again
type PointerInnerHandle struct {
	pointer *Pointer
}

func (h *PointerInnerHandle) CurrentLocation() generaldata.Vector2f {
	return h.pointer.location
}

func (h *PointerInnerHandle) CurrentPressed() []uint32 {
	return h.pointer.CurrentPressed()
}

func (h *PointerInnerHandle) CurrentFocus() *PointerFocus {
	return h.pointer.focus
}

// Motion moves the focus to target and delivers the motion to it in surface local coordinates.
// A nil target makes the current focus leave
func (h *PointerInnerHandle) Motion(target *PointerFocus, ev *wl.MotionEvent) {
	p := h.pointer
	p.location = ev.Location

	if target != nil && !target.Target.Alive() {
		target = nil
	}
	old := p.focus
	changed := (old == nil) != (target == nil) || (old != nil && target != nil && old.Target != target.Target)
	if changed {
		if old != nil {
			old.Target.PointerLeave(ev.Serial, ev.Time)
		}
		if target != nil {
			focused := *target
			p.focus = &focused
			target.Target.PointerEnter(&wl.MotionEvent{
				Location: ev.Location.Sub(target.Location.ToF()),
				Serial:   ev.Serial,
				Time:     ev.Time,
			})
		} else {
			p.focus = nil
		}
		return
	}
	if target == nil {
		return
	}
	focused := *target
	p.focus = &focused
	target.Target.PointerMotion(&wl.MotionEvent{
		Location: ev.Location.Sub(target.Location.ToF()),
		Serial:   ev.Serial,
		Time:     ev.Time,
	})
}

func (h *PointerInnerHandle) RelativeMotion(ev *wl.RelativeMotionEvent) {
	if f := h.pointer.focus; f != nil {
		f.Target.PointerRelativeMotion(ev)
	}
}

func (h *PointerInnerHandle) Button(ev *wl.ButtonEvent) {
	if f := h.pointer.focus; f != nil {
		f.Target.PointerButton(ev)
	}
}

func (h *PointerInnerHandle) Axis(frame wl.AxisFrame) {
	if f := h.pointer.focus; f != nil {
		f.Target.PointerAxis(frame)
	}
}

// UnsetGrab ends the grab that owns this handle
func (h *PointerInnerHandle) UnsetGrab() {
	h.pointer.UnsetGrab()
}

// clickGrab keeps input on the target that was pressed on until every button is released
type clickGrab struct {
	start GrabStartData
}

func (g *clickGrab) Motion(h *PointerInnerHandle, _ *PointerFocus, ev *wl.MotionEvent) {
	h.Motion(g.start.Focus, ev)
}

func (g *clickGrab) RelativeMotion(h *PointerInnerHandle, _ *PointerFocus, ev *wl.RelativeMotionEvent) {
	h.RelativeMotion(ev)
}

func (g *clickGrab) Button(h *PointerInnerHandle, ev *wl.ButtonEvent) {
	h.Button(ev)
	if len(h.CurrentPressed()) == 0 {
		h.UnsetGrab()
	}
}

func (g *clickGrab) Axis(h *PointerInnerHandle, frame wl.AxisFrame) {
	h.Axis(frame)
}

func (g *clickGrab) StartData() GrabStartData {
	return g.start
}

func (g *clickGrab) Unset() {}
