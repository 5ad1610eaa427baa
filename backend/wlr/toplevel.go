package wlr

import (
	"image"
	"sync/atomic"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
	"github.com/swaywm/go-wlroots/wlroots"
)

// wlroots talks to the real clients, the core only needs something to compare them by
var lastClientID atomic.Uint32

// toplevel exposes an xdg toplevel owned by wlroots to the compositor core. It is both the
// wl.Toplevel and its root wl.Surface. Rendering happens in the wlroots scene graph, so the
// surface carries no content of its own
type toplevel struct {
	b       *Backend
	xdg     wlroots.XDGTopLevel
	surface wlroots.Surface

	id     wl.ObjectID
	client wl.ClientID
	alive  bool
	data   wl.SurfaceData

	pending     wl.ToplevelState
	lastSent    *wl.ToplevelState
	initialSent bool
	current     wl.ToplevelState
	// Configures wlroots applied that still need to be acked towards the core
	unacked []wl.ToplevelConfigure
	commits uint64
}

var (
	_ wl.Toplevel = (*toplevel)(nil)
	_ wl.Surface  = (*toplevel)(nil)
)

func newToplevel(b *Backend, xdg wlroots.XDGTopLevel) *toplevel {
	return &toplevel{
		b:       b,
		xdg:     xdg,
		surface: xdg.Base().Surface(),
		id:      wl.NextObjectID(),
		client:  wl.ClientID(lastClientID.Add(1)),
		alive:   true,
	}
}

func (t *toplevel) Surface() wl.Surface {
	return t
}

func (t *toplevel) Alive() bool {
	return t.alive
}

func (t *toplevel) Title() string {
	return t.xdg.Title()
}

func (t *toplevel) AppID() string {
	return t.xdg.AppID()
}

func (t *toplevel) WithPendingState(fn func(state *wl.ToplevelState)) {
	fn(&t.pending)
}

func (t *toplevel) CurrentState() wl.ToplevelState {
	return t.current
}

// SendConfigure hands the pending size and activation to wlroots. wlroots does its own
// configure bookkeeping with the client, the core sees the configure acked on the next frame
func (t *toplevel) SendConfigure() (wl.Serial, bool) {
	if !t.alive {
		return 0, false
	}
	if t.initialSent && t.lastSent != nil && sameState(*t.lastSent, t.pending) {
		return 0, false
	}
	state := t.pending
	if state.Size != nil {
		size := *state.Size
		state.Size = &size
		if !size.IsEmpty() {
			t.xdg.Base().TopLevelSetSize(uint32(size.W), uint32(size.H))
		}
	}
	t.xdg.SetActivated(state.States.Contains(wl.StateActivated))

	serial := t.b.serials.Next()
	t.lastSent = &state
	t.initialSent = true
	t.unacked = append(t.unacked, wl.ToplevelConfigure{Serial: serial, State: state})
	return serial, true
}

func (t *toplevel) InitialConfigureSent() bool {
	return t.initialSent
}

// flush acks every outstanding configure and reports a commit for it
// on the client's behalf. The client may not have drawn the new size yet, Geometry can still
// be the old one when the resize anchor is applied
func (t *toplevel) flush() {
	if len(t.unacked) == 0 || !t.alive {
		return
	}
	confs := t.unacked
	t.unacked = nil
	sh := t.b.state.Shell()
	for _, conf := range confs {
		sh.AckConfigure(t, conf)
	}
	t.current = confs[len(confs)-1].State
	t.commits++
	sh.Commit(t)
}

func (t *toplevel) Geometry() generaldata.Rect {
	box := t.xdg.Base().Geometry()
	return generaldata.NewRect(box.X, box.Y, box.Width, box.Height)
}

func (t *toplevel) MinSize() generaldata.Size {
	return generaldata.Size{}
}

func (t *toplevel) MaxSize() generaldata.Size {
	return generaldata.Size{}
}

func (t *toplevel) SendClose() {
	if t.alive {
		t.xdg.SendClose()
	}
}

func (t *toplevel) ID() wl.ObjectID {
	return t.id
}

func (t *toplevel) Client() wl.ClientID {
	return t.client
}

func (t *toplevel) Parent() wl.Surface {
	return nil
}

func (t *toplevel) IsSyncSubsurface() bool {
	return false
}

func (t *toplevel) Subsurfaces() []wl.Subsurface {
	return nil
}

func (t *toplevel) Popups() []wl.Popup {
	return nil
}

func (t *toplevel) BufferSize() generaldata.Size {
	return t.Geometry().Size
}

func (t *toplevel) Content() image.Image {
	return nil
}

func (t *toplevel) CommitCounter() uint64 {
	return t.commits
}

func (t *toplevel) InputRegionContains(p generaldata.Vector2f) bool {
	return t.Geometry().ContainsF(p)
}

func (t *toplevel) Data() *wl.SurfaceData {
	return &t.data
}

func (t *toplevel) EnterOutput(*output.Output) {}

func (t *toplevel) LeaveOutput(*output.Output) {}

// Frame callbacks are sent by the scene output
func (t *toplevel) SendFrameDone(time.Duration) {}

func (t *toplevel) TakePresentationFeedback() []wl.PresentationFeedback {
	return nil
}

func (t *toplevel) PointerEnter(ev *wl.MotionEvent) {
	t.b.seat.NotifyPointerEnter(t.surface, ev.Location.X, ev.Location.Y)
}

func (t *toplevel) PointerMotion(ev *wl.MotionEvent) {
	t.b.seat.NotifyPointerMotion(ev.Time, ev.Location.X, ev.Location.Y)
}

func (t *toplevel) PointerRelativeMotion(*wl.RelativeMotionEvent) {}

func (t *toplevel) PointerButton(ev *wl.ButtonEvent) {
	state := wlroots.ButtonStateReleased
	if ev.State == wl.ButtonPressed {
		state = wlroots.ButtonStatePressed
	}
	t.b.seat.NotifyPointerButton(ev.Time, ev.Button, state)
}

func (t *toplevel) PointerAxis(frame wl.AxisFrame) {
	source := axisSource(frame.Source)
	if frame.Vertical != 0 || frame.DiscreteVertical != 0 {
		t.b.seat.NotifyPointerAxis(frame.Time, wlroots.AxisOrientationVertical, frame.Vertical, frame.DiscreteVertical, source)
	}
	if frame.Horizontal != 0 || frame.DiscreteHorizontal != 0 {
		t.b.seat.NotifyPointerAxis(frame.Time, wlroots.AxisOrientationHorizontal, frame.Horizontal, frame.DiscreteHorizontal, source)
	}
}

func (t *toplevel) PointerLeave(wl.Serial, uint32) {
	t.b.seat.ClearPointerFocus()
}

func (t *toplevel) KeyboardEnter(_ []uint32, _ wl.Serial) {
	t.b.seat.NotifyKeyboardEnter(t.surface, t.b.seat.Keyboard())
}

// Entering another surface moves the wlroots keyboard focus away on its own
func (t *toplevel) KeyboardLeave(wl.Serial) {}

func (t *toplevel) KeyboardKey(key uint32, state wl.KeyState, _ wl.Serial, time uint32) {
	wlState := wlroots.KeyStateReleased
	if state == wl.KeyPressed {
		wlState = wlroots.KeyStatePressed
	}
	t.b.seat.NotifyKeyboardKey(time, key, wlState)
}

func (t *toplevel) KeyboardModifiers(wl.Modifiers, wl.Serial) {
	if t.b.keyboard != nil {
		t.b.seat.NotifyKeyboardModifiers(*t.b.keyboard)
	}
}

func (t *toplevel) String() string {
	return t.id.String()
}

func (t *toplevel) destroy() {
	logrus.WithField("toplevel", t).Debugln("wlroots toplevel gone")
	t.alive = false
	t.unacked = nil
}

func axisSource(s wl.AxisSource) wlroots.AxisSource {
	switch s {
	case wl.AxisSourceFinger:
		return wlroots.AxisSourceFinger
	case wl.AxisSourceContinuous:
		return wlroots.AxisSourceContinuous
	case wl.AxisSourceWheelTilt:
		return wlroots.AxisSourceWheelTilt
	}
	return wlroots.AxisSourceWheel
}

func sameState(a, b wl.ToplevelState) bool {
	if a.States != b.States || a.FullscreenOutput != b.FullscreenOutput || a.DecorationMode != b.DecorationMode {
		return false
	}
	if (a.Size == nil) != (b.Size == nil) {
		return false
	}
	return a.Size == nil || *a.Size == *b.Size
}
