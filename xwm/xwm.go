// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package xwm is the X11 window manager running on the display XWayland provides.
// X events are read on their own goroutine and handed to the event loop, where the
// shell decides what happens to the window
package xwm

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/mstarongithub/wayspace/eventloop"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	stateMaximizedVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaximizedHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateFullscreen    = "_NET_WM_STATE_FULLSCREEN"
	stateFocused       = "_NET_WM_STATE_FOCUSED"
)

// _NET_WM_MOVERESIZE directions
const (
	moveResizeTopLeft = iota
	moveResizeTop
	moveResizeTopRight
	moveResizeRight
	moveResizeBottomRight
	moveResizeBottom
	moveResizeBottomLeft
	moveResizeLeft
	moveResizeMove
	moveResizeSizeKeyboard
	moveResizeMoveKeyboard
	moveResizeCancel
)

// _NET_WM_STATE actions
const (
	stateRemove = iota
	stateAdd
	stateToggle
)

var supportedAtoms = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLOSE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_MOVERESIZE",
	"_NET_WM_STATE",
	stateMaximizedVert,
	stateMaximizedHorz,
	stateFullscreen,
	stateFocused,
}

// Handler decides what happens to X11 windows, it is implemented by the shell
type Handler interface {
	MapX11Window(x wl.X11Surface) *window.Window
	UnmapX11Window(x wl.X11Surface)
	X11ConfigureRequest(x wl.X11Surface, rect generaldata.Rect)
	X11MoveRequest(x wl.X11Surface)
	X11ResizeRequest(x wl.X11Surface, edges wl.Edges)
	X11MaximizeRequest(x wl.X11Surface, maximize bool)
	X11FullscreenRequest(x wl.X11Surface, fullscreen bool)
}

// windowInfo is what gets read from the server about a window before it is handed to the loop
type windowInfo struct {
	title    string
	geometry generaldata.Rect
	hints    *icccm.NormalHints
	states   []string
}

type WM struct {
	xu      *xgbutil.XUtil
	loop    *eventloop.Loop
	handler Handler
	req     requester

	// Only touched on the loop goroutine
	windows map[xproto.Window]*Window
}

func newWM(loop *eventloop.Loop, handler Handler, req requester) *WM {
	return &WM{
		loop:    loop,
		handler: handler,
		req:     req,
		windows: map[xproto.Window]*Window{},
	}
}

// Start connects to display, takes over window management on its root window and starts
// reading events
func Start(display string, loop *eventloop.Loop, handler Handler) (*WM, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to X display %q", display)
	}
	wm := newWM(loop, handler, xRequester{xu: xu})
	wm.xu = xu

	root := xu.RootWin()
	err = xproto.ChangeWindowAttributesChecked(xu.Conn(), root, xproto.CwEventMask, []uint32{
		xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify,
	}).Check()
	if err != nil {
		xu.Conn().Close()
		return nil, errors.Wrap(err, "another window manager is running")
	}
	if err := wm.announce(); err != nil {
		logrus.WithError(err).Warnln("Failed to announce EWMH support")
	}

	xevent.MapRequestFun(wm.onMapRequest).Connect(xu, root)
	xevent.MapNotifyFun(wm.onMapNotify).Connect(xu, root)
	xevent.ConfigureRequestFun(wm.onConfigureRequest).Connect(xu, root)
	xevent.ClientMessageFun(wm.onClientMessage).Connect(xu, root)

	go xevent.Main(xu)
	logrus.WithField("display", display).Infoln("X11 window manager started")
	return wm, nil
}

// announce sets up the EWMH supporting window so clients know a compliant WM runs
func (wm *WM) announce() error {
	check, err := xwindow.Generate(wm.xu)
	if err != nil {
		return err
	}
	if err := check.CreateChecked(wm.xu.RootWin(), -1, -1, 1, 1, 0); err != nil {
		return err
	}
	if err := ewmh.SupportingWmCheckSet(wm.xu, wm.xu.RootWin(), check.Id); err != nil {
		return err
	}
	if err := ewmh.SupportingWmCheckSet(wm.xu, check.Id, check.Id); err != nil {
		return err
	}
	if err := ewmh.WmNameSet(wm.xu, check.Id, "wayspace"); err != nil {
		return err
	}
	return ewmh.SupportedSet(wm.xu, supportedAtoms)
}

// Stop ends the event goroutine and closes the connection
func (wm *WM) Stop() {
	if wm.xu == nil {
		return
	}
	xevent.Quit(wm.xu)
	wm.xu.Conn().Close()
}

// Windows lists the known windows. Loop goroutine only
func (wm *WM) Windows() []*Window {
	res := make([]*Window, 0, len(wm.windows))
	for _, w := range wm.windows {
		res = append(res, w)
	}
	return res
}

// AssociateSurface gives the window XWayland announced with the surface id its wl_surface
func (wm *WM) AssociateSurface(id uint32, s wl.Surface) bool {
	for _, w := range wm.windows {
		if w.surfaceID == id {
			w.surface = s
			return true
		}
	}
	return false
}

func (wm *WM) post(fn func()) {
	if err := wm.loop.Post(fn); err != nil {
		logrus.WithError(err).Debugln("Dropping X11 event, event loop is gone")
	}
}

// readInfo queries everything needed to manage win. Runs on the X goroutine
func (wm *WM) readInfo(win xproto.Window) windowInfo {
	info := windowInfo{}
	info.title, _ = ewmh.WmNameGet(wm.xu, win)
	if info.title == "" {
		info.title, _ = icccm.WmNameGet(wm.xu, win)
	}
	if geo, err := xwindow.RawGeometry(wm.xu, xproto.Drawable(win)); err == nil {
		info.geometry = generaldata.NewRect(geo.X(), geo.Y(), geo.Width(), geo.Height())
	}
	info.hints, _ = icccm.WmNormalHintsGet(wm.xu, win)
	info.states, _ = ewmh.WmStateGet(wm.xu, win)
	return info
}

func (wm *WM) onMapRequest(xu *xgbutil.XUtil, ev xevent.MapRequestEvent) {
	win := ev.Window
	info := wm.readInfo(win)
	wm.watch(win)
	if err := xwindow.New(xu, win).Listen(xproto.EventMaskPropertyChange); err != nil {
		logrus.WithError(err).WithField("window", win).Debugln("Can't watch window properties")
	}
	xevent.PropertyNotifyFun(wm.onPropertyNotify).Connect(xu, win)
	xproto.MapWindow(xu.Conn(), win)
	wm.post(func() { wm.handleMap(win, info, false) })
}

// watch connects the callbacks for events xgbutil reports under the client window
func (wm *WM) watch(win xproto.Window) {
	xevent.Detach(wm.xu, win)
	xevent.UnmapNotifyFun(wm.onUnmapNotify).Connect(wm.xu, win)
	xevent.DestroyNotifyFun(wm.onDestroyNotify).Connect(wm.xu, win)
	xevent.ClientMessageFun(wm.onClientMessage).Connect(wm.xu, win)
}

func (wm *WM) onMapNotify(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
	if !ev.OverrideRedirect {
		return
	}
	win := ev.Window
	wm.watch(win)
	info := wm.readInfo(win)
	wm.post(func() { wm.handleMap(win, info, true) })
}

func (wm *WM) onUnmapNotify(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
	win := ev.Window
	wm.post(func() { wm.handleUnmap(win) })
}

func (wm *WM) onDestroyNotify(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	win := ev.Window
	xevent.Detach(xu, win)
	wm.post(func() { wm.handleDestroy(win) })
}

func (wm *WM) onConfigureRequest(xu *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
	win, mask := ev.Window, ev.ValueMask
	requested := generaldata.NewRect(int(ev.X), int(ev.Y), int(ev.Width), int(ev.Height))
	wm.post(func() { wm.handleConfigureRequest(win, mask, requested) })
}

func (wm *WM) onPropertyNotify(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	win := ev.Window
	switch name {
	case "WM_NAME", "_NET_WM_NAME":
		title, _ := ewmh.WmNameGet(xu, win)
		if title == "" {
			title, _ = icccm.WmNameGet(xu, win)
		}
		wm.post(func() {
			if w, ok := wm.windows[win]; ok {
				w.title = title
			}
		})
	case "WM_NORMAL_HINTS":
		hints, _ := icccm.WmNormalHintsGet(xu, win)
		wm.post(func() {
			if w, ok := wm.windows[win]; ok {
				w.minSize, w.maxSize = sizeLimits(hints)
			}
		})
	}
}

func (wm *WM) onClientMessage(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
	name, err := xprop.AtomName(xu, ev.Type)
	if err != nil {
		return
	}
	win := ev.Window
	data := append([]uint32(nil), ev.Data.Data32...)
	switch name {
	case "_NET_WM_STATE":
		if len(data) < 3 {
			return
		}
		props := []string{}
		for _, atom := range data[1:3] {
			if atom == 0 {
				continue
			}
			if prop, err := xprop.AtomName(xu, xproto.Atom(atom)); err == nil {
				props = append(props, prop)
			}
		}
		wm.post(func() { wm.handleStateRequest(win, data[0], props) })
	case "_NET_WM_MOVERESIZE":
		if len(data) < 3 {
			return
		}
		wm.post(func() { wm.handleMoveResize(win, data[2]) })
	case "_NET_ACTIVE_WINDOW":
		logrus.WithField("window", win).Debugln("Ignoring X11 activation request")
	case "WL_SURFACE_ID":
		if len(data) < 1 {
			return
		}
		wm.post(func() {
			if w, ok := wm.windows[win]; ok {
				w.surfaceID = data[0]
			}
		})
	}
}

// window returns the known window for win, creating it the first time it shows up
func (wm *WM) window(win xproto.Window) *Window {
	w, ok := wm.windows[win]
	if !ok {
		w = newWindow(win, wm.req)
		wm.windows[win] = w
	}
	return w
}

func (wm *WM) handleMap(win xproto.Window, info windowInfo, overrideRedirect bool) {
	w := wm.window(win)
	w.title = info.title
	w.overrideRedirect = overrideRedirect
	if !info.geometry.Size.IsEmpty() {
		w.geometry = info.geometry
	}
	w.minSize, w.maxSize = sizeLimits(info.hints)
	for _, s := range info.states {
		switch s {
		case stateMaximizedVert, stateMaximizedHorz:
			w.maximized = true
		case stateFullscreen:
			w.fullscreen = true
		}
	}
	logrus.WithFields(logrus.Fields{
		"window":            win,
		"title":             w.title,
		"override_redirect": overrideRedirect,
	}).Debugln("X11 window mapped")
	wm.handler.MapX11Window(w)
	if !overrideRedirect {
		if w.maximized {
			wm.handler.X11MaximizeRequest(w, true)
		}
		if w.fullscreen {
			wm.handler.X11FullscreenRequest(w, true)
		}
	}
}

func (wm *WM) handleUnmap(win xproto.Window) {
	if w, ok := wm.windows[win]; ok {
		wm.handler.UnmapX11Window(w)
	}
}

func (wm *WM) handleDestroy(win xproto.Window) {
	w, ok := wm.windows[win]
	if !ok {
		return
	}
	wm.handler.UnmapX11Window(w)
	w.alive = false
	delete(wm.windows, win)
}

func (wm *WM) handleConfigureRequest(win xproto.Window, mask uint16, requested generaldata.Rect) {
	w := wm.window(win)
	wm.handler.X11ConfigureRequest(w, mergeConfigure(w.geometry, mask, requested))
}

func (wm *WM) handleStateRequest(win xproto.Window, action uint32, props []string) {
	w, ok := wm.windows[win]
	if !ok {
		return
	}
	maximize, fullscreen := false, false
	for _, p := range props {
		switch p {
		case stateMaximizedVert, stateMaximizedHorz:
			maximize = true
		case stateFullscreen:
			fullscreen = true
		}
	}
	if maximize {
		wm.handler.X11MaximizeRequest(w, applyStateAction(action, w.maximized))
	}
	if fullscreen {
		wm.handler.X11FullscreenRequest(w, applyStateAction(action, w.fullscreen))
	}
}

func (wm *WM) handleMoveResize(win xproto.Window, direction uint32) {
	w, ok := wm.windows[win]
	if !ok {
		return
	}
	edges, move, ok := moveResizeEdges(direction)
	switch {
	case !ok:
		logrus.WithField("direction", direction).Debugln("Ignoring unsupported X11 move/resize")
	case move:
		wm.handler.X11MoveRequest(w)
	default:
		wm.handler.X11ResizeRequest(w, edges)
	}
}

// mergeConfigure applies the fields set in a ConfigureRequest value mask to cur
func mergeConfigure(cur generaldata.Rect, mask uint16, requested generaldata.Rect) generaldata.Rect {
	res := cur
	if mask&xproto.ConfigWindowX != 0 {
		res.Loc.X = requested.Loc.X
	}
	if mask&xproto.ConfigWindowY != 0 {
		res.Loc.Y = requested.Loc.Y
	}
	if mask&xproto.ConfigWindowWidth != 0 {
		res.Size.W = requested.Size.W
	}
	if mask&xproto.ConfigWindowHeight != 0 {
		res.Size.H = requested.Size.H
	}
	return res
}

// applyStateAction resolves a _NET_WM_STATE add, remove or toggle against the current value
func applyStateAction(action uint32, current bool) bool {
	switch action {
	case stateRemove:
		return false
	case stateAdd:
		return true
	case stateToggle:
		return !current
	}
	return current
}

// moveResizeEdges maps a _NET_WM_MOVERESIZE direction to resize edges. Keyboard driven
// and cancel requests are not supported
func moveResizeEdges(direction uint32) (edges wl.Edges, move bool, ok bool) {
	switch direction {
	case moveResizeTopLeft:
		return wl.EdgeTopLeft, false, true
	case moveResizeTop:
		return wl.EdgeTop, false, true
	case moveResizeTopRight:
		return wl.EdgeTopRight, false, true
	case moveResizeRight:
		return wl.EdgeRight, false, true
	case moveResizeBottomRight:
		return wl.EdgeBottomRight, false, true
	case moveResizeBottom:
		return wl.EdgeBottom, false, true
	case moveResizeBottomLeft:
		return wl.EdgeBottomLeft, false, true
	case moveResizeLeft:
		return wl.EdgeLeft, false, true
	case moveResizeMove:
		return wl.EdgeNone, true, true
	}
	return wl.EdgeNone, false, false
}

// xRequester talks to a real X server
type xRequester struct {
	xu *xgbutil.XUtil
}

func (r xRequester) moveResize(win xproto.Window, rect generaldata.Rect) error {
	xwindow.New(r.xu, win).MoveResize(rect.Loc.X, rect.Loc.Y, rect.Size.W, rect.Size.H)
	return nil
}

func (r xRequester) setStates(win xproto.Window, states []string) error {
	return ewmh.WmStateSet(r.xu, win, states)
}

func (r xRequester) focus(win xproto.Window) error {
	if err := ewmh.ActiveWindowSet(r.xu, win); err != nil {
		return err
	}
	return xproto.SetInputFocusChecked(r.xu.Conn(), xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime).Check()
}

// close sends WM_DELETE_WINDOW, clients not speaking the protocol get killed
func (r xRequester) close(win xproto.Window) error {
	protocols, _ := icccm.WmProtocolsGet(r.xu, win)
	for _, p := range protocols {
		if p != "WM_DELETE_WINDOW" {
			continue
		}
		wmProtocols, err := xprop.Atm(r.xu, "WM_PROTOCOLS")
		if err != nil {
			return err
		}
		wmDelete, err := xprop.Atm(r.xu, "WM_DELETE_WINDOW")
		if err != nil {
			return err
		}
		cm, err := xevent.NewClientMessage(32, win, wmProtocols, int(wmDelete), int(xproto.TimeCurrentTime))
		if err != nil {
			return err
		}
		return xproto.SendEventChecked(r.xu.Conn(), false, win, xproto.EventMaskNoEvent, string(cm.Bytes())).Check()
	}
	return xproto.KillClientChecked(r.xu.Conn(), uint32(win)).Check()
}
