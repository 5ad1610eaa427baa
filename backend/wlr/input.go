package wlr

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/render"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
	"github.com/swaywm/go-wlroots/wlroots"
	"github.com/swaywm/go-wlroots/xkb"
)

func (b *Backend) handleNewInput(dev wlroots.InputDevice) {
	switch dev.Type() {
	case wlroots.InputDeviceTypePointer:
		/* Pointer handling is all proxied through wlr_cursor */
		b.cursor.AttachInputDevice(dev)
	case wlroots.InputDeviceTypeKeyboard:
		b.handleNewKeyboard(dev)
	}

	/* There always is a cursor, even without pointer devices */
	caps := wlroots.SeatCapabilityPointer
	if len(b.keyboards) > 0 {
		caps |= wlroots.SeatCapabilityKeyboard
	}
	b.seat.SetCapabilities(caps)
}

func (b *Backend) handleNewKeyboard(dev wlroots.InputDevice) {
	keyboard := dev.Keyboard()

	/* Default keymap, e.g. layout "us" */
	context := xkb.NewContext(xkb.KeySymFlagNoFlags)
	keymap := context.KeyMap()
	keyboard.SetKeymap(keymap)
	keymap.Destroy()
	context.Destroy()
	keyboard.SetRepeatInfo(25, 600)

	keyboard.OnKey(b.handleKey)
	b.seat.SetKeyboard(dev)
	b.keyboards = append(b.keyboards, dev)
	logrus.WithField("keyboards", len(b.keyboards)).Debugln("New keyboard")
}

// handleKey hands the key to the core seat, bound combos are taken out on the way. Modifiers
// are tracked by the seat from the key codes, the raw keyboard is only remembered to forward
// its modifier state to clients
func (b *Backend) handleKey(keyboard wlroots.Keyboard, time uint32, keyCode uint32, _ bool, state wlroots.KeyState) {
	b.keyboard = &keyboard
	b.seat.SetKeyboard(keyboard.Base())

	wlState := wl.KeyReleased
	if state == wlroots.KeyStatePressed {
		wlState = wl.KeyPressed
	}
	b.state.Shell().KeyboardKey(keyCode, wlState, b.state.Seat().NextSerial(), time, b.binds.Filter())
}

func (b *Backend) handleCursorMotion(dev wlroots.InputDevice, time uint32, dx float64, dy float64) {
	/* The cursor doesn't move unless told to, it constrains the motion to the output layout */
	b.cursor.Move(dev, dx, dy)
	b.processCursorMotion(time)
}

func (b *Backend) handleCursorMotionAbsolute(dev wlroots.InputDevice, time uint32, x float64, y float64) {
	b.cursor.WarpAbsolute(dev, x, y)
	b.processCursorMotion(time)
}

func (b *Backend) processCursorMotion(time uint32) {
	b.state.Shell().PointerMotion(&wl.MotionEvent{
		Location: generaldata.Vector2f{X: b.cursor.X(), Y: b.cursor.Y()},
		Serial:   b.state.Seat().NextSerial(),
		Time:     time,
	})
	if _, focused := b.state.Seat().Pointer().CurrentFocus(); !focused {
		/* Nothing under the pointer, show the default image */
		b.cursor.SetXCursor(b.cursorMgr, "default")
		b.state.SetCursorStatus(render.CursorStatus{Kind: render.CursorDefault})
	}
}

func (b *Backend) handleCursorButton(_ wlroots.InputDevice, time uint32, button uint32, state wlroots.ButtonState) {
	wlState := wl.ButtonPressed
	if state == wlroots.ButtonStateReleased {
		wlState = wl.ButtonReleased
	}
	b.state.Shell().PointerButton(&wl.ButtonEvent{
		Serial: b.state.Seat().NextSerial(),
		Time:   time,
		Button: button,
		State:  wlState,
	})
}

func (b *Backend) handleCursorAxis(_ wlroots.InputDevice, time uint32, source wlroots.AxisSource, orientation wlroots.AxisOrientation, delta float64, deltaDiscrete int32) {
	frame := wl.AxisFrame{Source: axisSourceFromWlr(source), Time: time}
	if orientation == wlroots.AxisOrientationHorizontal {
		frame.Horizontal, frame.DiscreteHorizontal = delta, deltaDiscrete
	} else {
		frame.Vertical, frame.DiscreteVertical = delta, deltaDiscrete
	}
	b.state.Shell().PointerAxis(frame)
}

func (b *Backend) handleCursorFrame() {
	b.seat.NotifyPointerFrame()
}

func (b *Backend) handleSetCursorRequest(client wlroots.SeatClient, surface wlroots.Surface, _ uint32, hotspotX int32, hotspotY int32) {
	/* Any client can send this, only the one with pointer focus gets its way */
	if b.seat.PointerState().FocusedClient() != client {
		return
	}
	/* The image is drawn by wlroots, the core is told about it for inspection */
	b.cursor.SetSurface(surface, hotspotX, hotspotY)
	for _, t := range b.toplevels {
		if t.alive && t.surface == surface {
			b.state.SetCursorStatus(render.CursorStatus{
				Kind:    render.CursorSurface,
				Surface: t,
				Hotspot: generaldata.Vector2i{X: int(hotspotX), Y: int(hotspotY)},
			})
			return
		}
	}
}

func axisSourceFromWlr(s wlroots.AxisSource) wl.AxisSource {
	switch s {
	case wlroots.AxisSourceFinger:
		return wl.AxisSourceFinger
	case wlroots.AxisSourceContinuous:
		return wl.AxisSourceContinuous
	case wlroots.AxisSourceWheelTilt:
		return wl.AxisSourceWheelTilt
	}
	return wl.AxisSourceWheel
}
