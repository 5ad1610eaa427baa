// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package window implements the placeable unit of the compositor: a window that is either a
// native xdg toplevel or an X11 window managed for XWayland.
// Everything outside of this package treats both kinds the same; the kind is only ever
// inspected in here
package window

import (
	"fmt"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

type Kind int

const (
	KindWayland = Kind(iota)
	KindX11
)

func (k Kind) String() string {
	switch k {
	case KindWayland:
		return "wayland"
	case KindX11:
		return "x11"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Which surfaces of a window a lookup considers
type SurfaceType uint32

const (
	SurfaceTypeToplevel = SurfaceType(1 << iota)
	SurfaceTypeSubsurface
	SurfaceTypePopup
	SurfaceTypeAll = SurfaceTypeToplevel | SurfaceTypeSubsurface | SurfaceTypePopup
)

// Render order hints, higher is drawn on top
const (
	ZIndexShell   = 30
	ZIndexOverlay = 60
)

// Window is shared by reference between the space, grabs and the render pipeline.
// Two windows are the same if they are the same pointer
type Window struct {
	kind     Kind
	toplevel wl.Toplevel
	x11      wl.X11Surface

	// X11 windows have no protocol side state for these, so they are remembered here
	x11FullscreenOutput *output.Output
	x11Activated        bool
}

func NewWayland(t wl.Toplevel) *Window {
	return &Window{kind: KindWayland, toplevel: t}
}

func NewX11(x wl.X11Surface) *Window {
	return &Window{kind: KindX11, x11: x}
}

func (w *Window) Kind() Kind {
	return w.kind
}

// Wraps reports whether obj is the toplevel or X11 window behind w
func (w *Window) Wraps(obj any) bool {
	switch w.kind {
	case KindWayland:
		t, ok := obj.(wl.Toplevel)
		return ok && t == w.toplevel
	case KindX11:
		x, ok := obj.(wl.X11Surface)
		return ok && x == w.x11
	}
	return false
}

// SendInitialConfigure sends the first configure of a native window if that did not happen yet.
// X11 windows have no such handshake
func (w *Window) SendInitialConfigure() bool {
	switch w.kind {
	case KindWayland:
		if w.toplevel.InitialConfigureSent() {
			return false
		}
		_, sent := w.toplevel.SendConfigure()
		return sent
	}
	return false
}

// ShowsResizing reports whether the state the client last acked still has the resizing flag.
// X11 windows never show it, they are resized without an ack
func (w *Window) ShowsResizing() bool {
	switch w.kind {
	case KindWayland:
		return w.toplevel.CurrentState().States.Contains(wl.StateResizing)
	}
	return false
}

func (w *Window) String() string {
	return fmt.Sprintf("%s window %q", w.kind, w.Title())
}

func (w *Window) Title() string {
	switch w.kind {
	case KindWayland:
		return w.toplevel.Title()
	case KindX11:
		return w.x11.Title()
	}
	return ""
}

func (w *Window) Alive() bool {
	switch w.kind {
	case KindWayland:
		return w.toplevel.Alive()
	case KindX11:
		return w.x11.Alive()
	}
	return false
}

// WlSurface is the root surface of the window. X11 windows may not have one yet
func (w *Window) WlSurface() wl.Surface {
	switch w.kind {
	case KindWayland:
		return w.toplevel.Surface()
	case KindX11:
		return w.x11.Surface()
	}
	return nil
}

// SameClientAs checks if the window belongs to the given client
func (w *Window) SameClientAs(client wl.ClientID) bool {
	s := w.WlSurface()
	return s != nil && s.Client() == client
}

// Geometry is the visible window area relative to the window's location
func (w *Window) Geometry() generaldata.Rect {
	switch w.kind {
	case KindWayland:
		return w.toplevel.Geometry()
	case KindX11:
		return generaldata.Rect{Size: w.x11.Geometry().Size}
	}
	return generaldata.Rect{}
}

// BBox covers every pixel the window's surfaces occupy, relative to its location
func (w *Window) BBox() generaldata.Rect {
	switch w.kind {
	case KindWayland:
		return wl.BBoxFromSurfaceTree(w.toplevel.Surface(), generaldata.Vector2i{})
	case KindX11:
		if s := w.x11.Surface(); s != nil {
			return wl.BBoxFromSurfaceTree(s, generaldata.Vector2i{})
		}
		return generaldata.Rect{Size: w.x11.Geometry().Size}
	}
	return generaldata.Rect{}
}

// BBoxWithPopups extends BBox by the window's popups
func (w *Window) BBoxWithPopups() generaldata.Rect {
	bbox := w.BBox()
	w.withPopups(func(p wl.Popup, loc generaldata.Vector2i) {
		bbox = bbox.Merge(wl.BBoxFromSurfaceTree(p.Surface(), loc))
	})
	return bbox
}

func (w *Window) ZIndex() int {
	if w.kind == KindX11 && w.x11.OverrideRedirect() {
		return ZIndexOverlay
	}
	return ZIndexShell
}

// withPopups walks all popups of the window with their location relative to the window
func (w *Window) withPopups(fn func(p wl.Popup, loc generaldata.Vector2i)) {
	root := w.WlSurface()
	if root == nil {
		return
	}
	var walk func(parent wl.Surface, parentLoc generaldata.Vector2i)
	walk = func(parent wl.Surface, parentLoc generaldata.Vector2i) {
		for _, p := range parent.Popups() {
			if !p.Alive() {
				continue
			}
			loc := parentLoc.Add(p.Geometry().Loc)
			fn(p, loc)
			walk(p.Surface(), loc)
		}
	}
	walk(root, generaldata.Vector2i{})
}

// SurfaceUnder finds the topmost surface of the window at point, given relative to the window.
// Returns the surface with its location relative to the window
func (w *Window) SurfaceUnder(point generaldata.Vector2f, filter SurfaceType) (wl.Surface, generaldata.Vector2i, bool) {
	root := w.WlSurface()
	if root == nil {
		return nil, generaldata.Vector2i{}, false
	}

	if filter&SurfaceTypePopup != 0 && w.kind == KindWayland {
		type placed struct {
			popup wl.Popup
			loc   generaldata.Vector2i
		}
		popups := []placed{}
		w.withPopups(func(p wl.Popup, loc generaldata.Vector2i) {
			popups = append(popups, placed{p, loc})
		})
		for i := len(popups) - 1; i >= 0; i-- {
			if s, loc, ok := wl.UnderFromSurfaceTree(popups[i].popup.Surface(), point, popups[i].loc); ok {
				return s, loc, true
			}
		}
	}

	if filter&(SurfaceTypeToplevel|SurfaceTypeSubsurface) != 0 {
		s, loc, ok := wl.UnderFromSurfaceTree(root, point, generaldata.Vector2i{})
		if !ok {
			return nil, generaldata.Vector2i{}, false
		}
		if s == root && filter&SurfaceTypeToplevel == 0 {
			return nil, generaldata.Vector2i{}, false
		}
		if s != root && filter&SurfaceTypeSubsurface == 0 {
			return nil, generaldata.Vector2i{}, false
		}
		return s, loc, true
	}
	return nil, generaldata.Vector2i{}, false
}

// IsInInputRegion checks if point, relative to the window, hits any of its surfaces
func (w *Window) IsInInputRegion(point generaldata.Vector2f) bool {
	_, _, ok := w.SurfaceUnder(point, SurfaceTypeAll)
	return ok
}

// WithSurfaces walks every surface of the window, popups included, with its location relative to the window
func (w *Window) WithSurfaces(fn func(s wl.Surface, loc generaldata.Vector2i)) {
	root := w.WlSurface()
	if root == nil {
		return
	}
	wl.WithSurfaceTree(root, generaldata.Vector2i{}, fn)
	w.withPopups(func(p wl.Popup, loc generaldata.Vector2i) {
		wl.WithSurfaceTree(p.Surface(), loc, fn)
	})
}

// SendFrame fires the frame callbacks of every surface of the window for a frame shown on o
func (w *Window) SendFrame(o *output.Output, now time.Duration, throttle time.Duration, primary wl.PrimaryScanoutOutputFunc) {
	root := w.WlSurface()
	if root == nil {
		return
	}
	wl.SendFramesSurfaceTree(root, o, now, throttle, primary)
	w.withPopups(func(p wl.Popup, _ generaldata.Vector2i) {
		wl.SendFramesSurfaceTree(p.Surface(), o, now, throttle, primary)
	})
}

// TakePresentationFeedback moves pending presentation feedback of surfaces shown on the output into into
func (w *Window) TakePresentationFeedback(
	into *wl.OutputPresentationFeedback,
	primary wl.PrimaryScanoutOutputFunc,
	flags func(s wl.Surface) wl.PresentationKind,
) {
	root := w.WlSurface()
	if root == nil {
		return
	}
	wl.TakePresentationFeedbackSurfaceTree(root, into, primary, flags)
	w.withPopups(func(p wl.Popup, _ generaldata.Vector2i) {
		wl.TakePresentationFeedbackSurfaceTree(p.Surface(), into, primary, flags)
	})
}

// OutputEnter tells the window's surfaces they are now visible on o
func (w *Window) OutputEnter(o *output.Output) {
	if root := w.WlSurface(); root != nil {
		wl.OutputEnterSurfaceTree(root, o)
		w.withPopups(func(p wl.Popup, _ generaldata.Vector2i) {
			wl.OutputEnterSurfaceTree(p.Surface(), o)
		})
	}
}

// OutputLeave tells the window's surfaces they are no longer visible on o
func (w *Window) OutputLeave(o *output.Output) {
	if root := w.WlSurface(); root != nil {
		wl.OutputLeaveSurfaceTree(root, o)
		w.withPopups(func(p wl.Popup, _ generaldata.Vector2i) {
			wl.OutputLeaveSurfaceTree(p.Surface(), o)
		})
	}
}

// SetActivated changes the activated state. Returns whether anything changed
func (w *Window) SetActivated(activated bool) bool {
	switch w.kind {
	case KindWayland:
		changed := false
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			changed = state.States.Contains(wl.StateActivated) != activated
			if activated {
				state.States.Set(wl.StateActivated)
			} else {
				state.States.Unset(wl.StateActivated)
			}
		})
		// the initial configure carries it otherwise
		if changed && w.toplevel.InitialConfigureSent() {
			w.toplevel.SendConfigure()
		}
		return changed
	case KindX11:
		if err := w.x11.SetActivated(activated); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to change X11 activation")
			return false
		}
		changed := w.x11Activated != activated
		w.x11Activated = activated
		return changed
	}
	return false
}

// IsActivated reports the activated state as last requested by the compositor
func (w *Window) IsActivated() bool {
	switch w.kind {
	case KindWayland:
		activated := false
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			activated = state.States.Contains(wl.StateActivated)
		})
		return activated
	case KindX11:
		return w.x11Activated
	}
	return false
}
