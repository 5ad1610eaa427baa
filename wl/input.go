package wl

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
)

type ButtonState int

const (
	ButtonReleased = ButtonState(iota)
	ButtonPressed
)

type KeyState int

const (
	KeyReleased = KeyState(iota)
	KeyPressed
)

type AxisSource int

const (
	AxisSourceWheel = AxisSource(iota)
	AxisSourceFinger
	AxisSourceContinuous
	AxisSourceWheelTilt
)

// Linux input event codes for the mouse buttons
const (
	BtnLeft   = uint32(0x110)
	BtnRight  = uint32(0x111)
	BtnMiddle = uint32(0x112)
)

type (
	// Pointer motion. Location is global when handed to the seat and surface local once
	// delivered to a target
	MotionEvent struct {
		Location generaldata.Vector2f
		Serial   Serial
		Time     uint32
	}

	RelativeMotionEvent struct {
		Delta        generaldata.Vector2f
		DeltaUnaccel generaldata.Vector2f
		UTime        uint64
	}

	ButtonEvent struct {
		Serial Serial
		Time   uint32
		Button uint32
		State  ButtonState
	}

	// All scroll information belonging to one logical pointer frame
	AxisFrame struct {
		Source             AxisSource
		Time               uint32
		Horizontal         float64
		Vertical           float64
		DiscreteHorizontal int32
		DiscreteVertical   int32
		StopHorizontal     bool
		StopVertical       bool
	}

	Modifiers struct {
		Ctrl     bool
		Alt      bool
		Shift    bool
		Logo     bool
		CapsLock bool
		NumLock  bool
	}
)

// Something that can receive pointer events
type PointerTarget interface {
	PointerEnter(ev *MotionEvent)
	PointerMotion(ev *MotionEvent)
	PointerRelativeMotion(ev *RelativeMotionEvent)
	PointerButton(ev *ButtonEvent)
	PointerAxis(frame AxisFrame)
	PointerLeave(serial Serial, time uint32)
}

// Something that can receive keyboard events
type KeyboardTarget interface {
	KeyboardEnter(keys []uint32, serial Serial)
	KeyboardLeave(serial Serial)
	KeyboardKey(key uint32, state KeyState, serial Serial, time uint32)
	KeyboardModifiers(mods Modifiers, serial Serial)
}
