// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package grabs contains the interactive pointer grabs: moving and resizing windows and
// keeping input on a chain of popups
package grabs

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// MoveSurfaceGrab drags a window along with the pointer
type MoveSurfaceGrab struct {
	start           seat.GrabStartData
	window          *window.Window
	initialLocation generaldata.Vector2i
	space           *space.Space
	lastLocation    generaldata.Vector2i
}

var _ seat.PointerGrab = (*MoveSurfaceGrab)(nil)

func NewMoveSurfaceGrab(
	start seat.GrabStartData,
	w *window.Window,
	initialLocation generaldata.Vector2i,
	sp *space.Space,
) *MoveSurfaceGrab {
	return &MoveSurfaceGrab{
		start:           start,
		window:          w,
		initialLocation: initialLocation,
		space:           sp,
		lastLocation:    initialLocation,
	}
}

func (g *MoveSurfaceGrab) Window() *window.Window {
	return g.window
}

// Motion places the window relative to where the drag started. The moved window gets no
// motion events of its own while it is dragged
func (g *MoveSurfaceGrab) Motion(h *seat.PointerInnerHandle, _ *seat.PointerFocus, ev *wl.MotionEvent) {
	h.Motion(nil, ev)

	delta := ev.Location.Sub(g.start.Location)
	newLocation := g.initialLocation.ToF().Add(delta).Round()
	g.lastLocation = newLocation
	g.space.Map(g.window, newLocation, true)
}

func (g *MoveSurfaceGrab) RelativeMotion(h *seat.PointerInnerHandle, _ *seat.PointerFocus, ev *wl.RelativeMotionEvent) {
	h.RelativeMotion(ev)
}

func (g *MoveSurfaceGrab) Button(h *seat.PointerInnerHandle, ev *wl.ButtonEvent) {
	h.Button(ev)
	if len(h.CurrentPressed()) == 0 {
		logrus.WithFields(logrus.Fields{"window": g.window, "location": g.lastLocation}).
			Debugln("Move finished")
		h.UnsetGrab()
		if g.window.Alive() {
			g.window.ConfigureAt(g.lastLocation)
		}
	}
}

func (g *MoveSurfaceGrab) Axis(h *seat.PointerInnerHandle, frame wl.AxisFrame) {
	h.Axis(frame)
}

func (g *MoveSurfaceGrab) StartData() seat.GrabStartData {
	return g.start
}

func (g *MoveSurfaceGrab) Unset() {}
