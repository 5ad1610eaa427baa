package seat

import (
	"sort"

	"github.com/mstarongithub/wayspace/focus"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// Linux input event codes of the modifier keys
const (
	KeyLeftShift  = uint32(42)
	KeyRightShift = uint32(54)
	KeyLeftCtrl   = uint32(29)
	KeyRightCtrl  = uint32(97)
	KeyLeftAlt    = uint32(56)
	KeyRightAlt   = uint32(100)
	KeyLeftMeta   = uint32(125)
	KeyRightMeta  = uint32(126)
	KeyCapsLock   = uint32(58)
	KeyNumLock    = uint32(69)
	KeyEsc        = uint32(1)
	KeyF1         = uint32(59)
)

// FilterFunc gets to see every key before it is forwarded.
// Returning true intercepts the key, neither the press nor the matching release reach a client
type FilterFunc func(key uint32, state wl.KeyState, mods wl.Modifiers) bool

// KeyboardGrab takes over keyboard event handling until it is unset
type KeyboardGrab interface {
	Input(h *KeyboardInnerHandle, key uint32, state wl.KeyState, serial wl.Serial, time uint32)
	SetFocus(h *KeyboardInnerHandle, target focus.Target, serial wl.Serial)
	Unset()
}

type Keyboard struct {
	focus       focus.Target
	pressed     map[uint32]bool
	intercepted map[uint32]bool
	mods        wl.Modifiers

	grab       KeyboardGrab
	grabSerial wl.Serial
}

func newKeyboard() *Keyboard {
	return &Keyboard{
		pressed:     map[uint32]bool{},
		intercepted: map[uint32]bool{},
	}
}

// CurrentFocus is the target keys go to, the zero target if there is none
func (k *Keyboard) CurrentFocus() focus.Target {
	return k.focus
}

func (k *Keyboard) Modifiers() wl.Modifiers {
	return k.mods
}

// PressedKeys returns the keys currently held down that were not intercepted, ordered by code
func (k *Keyboard) PressedKeys() []uint32 {
	res := make([]uint32, 0, len(k.pressed))
	for key := range k.pressed {
		if !k.intercepted[key] {
			res = append(res, key)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (k *Keyboard) IsGrabbed() bool {
	return k.grab != nil
}

// HasGrab checks if the active grab was started by the event with the given serial
func (k *Keyboard) HasGrab(serial wl.Serial) bool {
	return k.grab != nil && k.grabSerial == serial
}

// Grab returns the active grab, nil if there is none
func (k *Keyboard) Grab() KeyboardGrab {
	return k.grab
}

func (k *Keyboard) SetGrab(grab KeyboardGrab, serial wl.Serial) {
	if k.grab != nil {
		k.grab.Unset()
	}
	k.grab = grab
	k.grabSerial = serial
}

func (k *Keyboard) UnsetGrab() {
	if k.grab == nil {
		return
	}
	grab := k.grab
	k.grab = nil
	grab.Unset()
}

// SetFocus moves keyboard focus to target. While grabbed, the grab decides
func (k *Keyboard) SetFocus(target focus.Target, serial wl.Serial) {
	h := &KeyboardInnerHandle{keyboard: k}
	if k.grab != nil {
		k.grab.SetFocus(h, target, serial)
		return
	}
	h.SetFocus(target, serial)
}

// SetFocusUngrabbed moves focus without asking the active grab. Grabs use it to steer focus themselves
func (k *Keyboard) SetFocusUngrabbed(target focus.Target, serial wl.Serial) {
	(&KeyboardInnerHandle{keyboard: k}).SetFocus(target, serial)
}

// Input handles a key event from the backend. filter may be nil
func (k *Keyboard) Input(key uint32, state wl.KeyState, serial wl.Serial, time uint32, filter FilterFunc) {
	if state == wl.KeyPressed {
		k.pressed[key] = true
	} else {
		delete(k.pressed, key)
	}
	modsChanged := k.updateModifiers(key, state)

	if state == wl.KeyPressed && filter != nil && filter(key, state, k.mods) {
		logrus.WithField("key", key).Debugln("Key intercepted by compositor")
		k.intercepted[key] = true
		return
	}
	if state == wl.KeyReleased && k.intercepted[key] {
		delete(k.intercepted, key)
		return
	}

	h := &KeyboardInnerHandle{keyboard: k}
	if modsChanged && !k.focus.IsNone() {
		k.focus.KeyboardModifiers(k.mods, serial)
	}
	if k.grab != nil {
		k.grab.Input(h, key, state, serial, time)
		return
	}
	h.Input(key, state, serial, time)
}

func (k *Keyboard) updateModifiers(key uint32, state wl.KeyState) bool {
	old := k.mods
	held := func(a, b uint32) bool { return k.pressed[a] || k.pressed[b] }
	switch key {
	case KeyLeftShift, KeyRightShift:
		k.mods.Shift = held(KeyLeftShift, KeyRightShift)
	case KeyLeftCtrl, KeyRightCtrl:
		k.mods.Ctrl = held(KeyLeftCtrl, KeyRightCtrl)
	case KeyLeftAlt, KeyRightAlt:
		k.mods.Alt = held(KeyLeftAlt, KeyRightAlt)
	case KeyLeftMeta, KeyRightMeta:
		k.mods.Logo = held(KeyLeftMeta, KeyRightMeta)
	case KeyCapsLock:
		if state == wl.KeyPressed {
			k.mods.CapsLock = !k.mods.CapsLock
		}
	case KeyNumLock:
		if state == wl.KeyPressed {
			k.mods.NumLock = !k.mods.NumLock
		}
	}
	return old != k.mods
}

// KeyboardInnerHandle is how grabs deliver keyboard events
type KeyboardInnerHandle struct {
	keyboard *Keyboard
}

func (h *KeyboardInnerHandle) CurrentFocus() focus.Target {
	return h.keyboard.focus
}

func (h *KeyboardInnerHandle) Input(key uint32, state wl.KeyState, serial wl.Serial, time uint32) {
	if f := h.keyboard.focus; !f.IsNone() {
		f.KeyboardKey(key, state, serial, time)
	}
}

// SetFocus sends leave and enter if the focus changes
func (h *KeyboardInnerHandle) SetFocus(target focus.Target, serial wl.Serial) {
	k := h.keyboard
	if target == k.focus {
		return
	}
	if !k.focus.IsNone() {
		k.focus.KeyboardLeave(serial)
	}
	k.focus = target
	if !target.IsNone() {
		logrus.WithField("target", target).Debugln("Keyboard focus changed")
		target.KeyboardEnter(k.PressedKeys(), serial)
		target.KeyboardModifiers(k.mods, serial)
	}
}

func (h *KeyboardInnerHandle) UnsetGrab() {
	h.keyboard.UnsetGrab()
}
