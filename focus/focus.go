// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package focus contains the thing that receives pointer or keyboard input
package focus

import (
	"fmt"

	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
)

type Kind int

const (
	KindNone = Kind(iota)
	KindWindow
	KindLayerSurface
	KindPopup
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindWindow:
		return "window"
	case KindLayerSurface:
		return "layer-surface"
	case KindPopup:
		return "popup"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Target is either a window, a layer surface or a popup. The zero value is no target.
// Targets are comparable, two targets are equal if they point at the same object
type Target struct {
	kind   Kind
	window *window.Window
	layer  wl.LayerSurface
	popup  wl.Popup
}

var (
	_ wl.PointerTarget  = Target{}
	_ wl.KeyboardTarget = Target{}
)

func Window(w *window.Window) Target {
	if w == nil {
		return Target{}
	}
	return Target{kind: KindWindow, window: w}
}

func LayerSurface(l wl.LayerSurface) Target {
	if l == nil {
		return Target{}
	}
	return Target{kind: KindLayerSurface, layer: l}
}

func Popup(p wl.Popup) Target {
	if p == nil {
		return Target{}
	}
	return Target{kind: KindPopup, popup: p}
}

func (t Target) Kind() Kind {
	return t.kind
}

func (t Target) IsNone() bool {
	return t.kind == KindNone
}

func (t Target) Window() (*window.Window, bool) {
	return t.window, t.kind == KindWindow
}

func (t Target) LayerSurface() (wl.LayerSurface, bool) {
	return t.layer, t.kind == KindLayerSurface
}

func (t Target) Popup() (wl.Popup, bool) {
	return t.popup, t.kind == KindPopup
}

func (t Target) String() string {
	switch t.kind {
	case KindWindow:
		return t.window.String()
	case KindLayerSurface:
		return fmt.Sprintf("layer surface %q", t.layer.Namespace())
	case KindPopup:
		return fmt.Sprintf("popup %d", t.popup.Surface().ID())
	}
	return "none"
}

func (t Target) Alive() bool {
	switch t.kind {
	case KindWindow:
		return t.window.Alive()
	case KindLayerSurface:
		return t.layer.Alive()
	case KindPopup:
		return t.popup.Alive()
	}
	return false
}

// WlSurface is the root surface input goes to, nil if there is none
func (t Target) WlSurface() wl.Surface {
	switch t.kind {
	case KindWindow:
		return t.window.WlSurface()
	case KindLayerSurface:
		return t.layer.Surface()
	case KindPopup:
		return t.popup.Surface()
	}
	return nil
}

// SameClientAs checks if the target belongs to the given client
func (t Target) SameClientAs(client wl.ClientID) bool {
	s := t.WlSurface()
	return s != nil && s.Client() == client
}

// receiver resolves the object all input is handed to
func (t Target) receiver() receiver {
	switch t.kind {
	case KindWindow:
		return t.window
	case KindLayerSurface, KindPopup:
		if s := t.WlSurface(); s != nil && s.Alive() {
			return s
		}
	}
	return nil
}

type receiver interface {
	wl.PointerTarget
	wl.KeyboardTarget
}

func (t Target) PointerEnter(ev *wl.MotionEvent) {
	if r := t.receiver(); r != nil {
		r.PointerEnter(ev)
	}
}

func (t Target) PointerMotion(ev *wl.MotionEvent) {
	if r := t.receiver(); r != nil {
		r.PointerMotion(ev)
	}
}

func (t Target) PointerRelativeMotion(ev *wl.RelativeMotionEvent) {
	if r := t.receiver(); r != nil {
		r.PointerRelativeMotion(ev)
	}
}

func (t Target) PointerButton(ev *wl.ButtonEvent) {
	if r := t.receiver(); r != nil {
		r.PointerButton(ev)
	}
}

func (t Target) PointerAxis(frame wl.AxisFrame) {
	if r := t.receiver(); r != nil {
		r.PointerAxis(frame)
	}
}

func (t Target) PointerLeave(serial wl.Serial, time uint32) {
	if r := t.receiver(); r != nil {
		r.PointerLeave(serial, time)
	}
}

func (t Target) KeyboardEnter(keys []uint32, serial wl.Serial) {
	if r := t.receiver(); r != nil {
		r.KeyboardEnter(keys, serial)
	}
}

func (t Target) KeyboardLeave(serial wl.Serial) {
	if r := t.receiver(); r != nil {
		r.KeyboardLeave(serial)
	}
}

func (t Target) KeyboardKey(key uint32, state wl.KeyState, serial wl.Serial, time uint32) {
	if r := t.receiver(); r != nil {
		r.KeyboardKey(key, state, serial, time)
	}
}

func (t Target) KeyboardModifiers(mods wl.Modifiers, serial wl.Serial) {
	if r := t.receiver(); r != nil {
		r.KeyboardModifiers(mods, serial)
	}
}
