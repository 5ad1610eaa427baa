package shell

import (
	"github.com/mstarongithub/wayspace/focus"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

func (sh *Shell) windowForX11(x wl.X11Surface) *window.Window {
	for _, w := range sh.windows {
		if w.Wraps(x) {
			return w
		}
	}
	return nil
}

// MapX11Window shows an X11 window that asked to be mapped. Override redirect windows like menus
// keep the place they picked and never get focus
func (sh *Shell) MapX11Window(x wl.X11Surface) *window.Window {
	w := sh.windowForX11(x)
	if w == nil {
		w = window.NewX11(x)
		sh.windows = append(sh.windows, w)
	}
	if x.OverrideRedirect() {
		sh.space.Map(w, x.Geometry().Loc, false)
		return w
	}

	loc := x.Geometry().Loc
	if loc == (generaldata.Vector2i{}) {
		loc = sh.placeNewWindow(w)
	}
	logrus.WithFields(logrus.Fields{"window": w, "location": loc}).Infoln("New X11 window")
	w.ConfigureAt(loc)
	sh.space.Map(w, loc, true)
	sh.seat.Keyboard().SetFocus(focus.Window(w), sh.seat.NextSerial())
	return w
}

// UnmapX11Window removes an X11 window from the space, it stays known until it is destroyed
func (sh *Shell) UnmapX11Window(x wl.X11Surface) {
	if w := sh.windowForX11(x); w != nil {
		sh.space.Unmap(w)
	}
}

// X11ConfigureRequest handles an X11 window asking for a new geometry. Unmapped windows
// get whatever they ask for, mapped ones only change their size
func (sh *Shell) X11ConfigureRequest(x wl.X11Surface, rect generaldata.Rect) {
	w := sh.windowForX11(x)
	loc, mapped := generaldata.Vector2i{}, false
	if w != nil {
		loc, mapped = sh.space.ElementLocation(w)
	}
	if !mapped || x.OverrideRedirect() {
		if err := x.Configure(rect); err != nil {
			logrus.WithError(err).WithField("window", x.WindowID()).Debugln("Configure of X11 window failed")
		}
		return
	}
	if w.IsMaximized() || w.IsFullscreen() {
		return
	}
	if err := x.Configure(generaldata.Rect{Loc: loc, Size: rect.Size}); err != nil {
		logrus.WithError(err).WithField("window", x.WindowID()).Debugln("Configure of X11 window failed")
	}
}

// x11GrabStart validates that the active pointer grab started on w. X11 clients have no serials,
// so the serial of the active grab is used
func (sh *Shell) x11GrabStart(w *window.Window) (seat.GrabStartData, wl.Serial, bool) {
	ptr := sh.seat.Pointer()
	serial, grabbed := ptr.GrabSerial()
	if !grabbed {
		return seat.GrabStartData{}, 0, false
	}
	start, _ := ptr.GrabStartData()
	if start.Focus == nil {
		return seat.GrabStartData{}, 0, false
	}
	if target, ok := start.Focus.Target.Window(); !ok || target != w {
		return seat.GrabStartData{}, 0, false
	}
	return start, serial, true
}

func (sh *Shell) X11MoveRequest(x wl.X11Surface) {
	w := sh.windowForX11(x)
	if w == nil || !w.Alive() {
		return
	}
	start, serial, ok := sh.x11GrabStart(w)
	if !ok {
		logrus.WithField("window", w).Debugln("Ignoring X11 move request without matching grab")
		return
	}
	sh.startMove(w, start, serial)
}

func (sh *Shell) X11ResizeRequest(x wl.X11Surface, edges wl.Edges) {
	w := sh.windowForX11(x)
	if w == nil || !w.Alive() {
		return
	}
	start, serial, ok := sh.x11GrabStart(w)
	if !ok {
		logrus.WithField("window", w).Debugln("Ignoring X11 resize request without matching grab")
		return
	}
	sh.startResize(w, start, serial, edges)
}

func (sh *Shell) X11MaximizeRequest(x wl.X11Surface, maximize bool) {
	w := sh.windowForX11(x)
	if w == nil {
		return
	}
	if maximize {
		sh.maximize(w)
	} else {
		sh.unmaximize(w)
	}
}

func (sh *Shell) X11FullscreenRequest(x wl.X11Surface, fullscreen bool) {
	w := sh.windowForX11(x)
	if w == nil {
		return
	}
	if fullscreen {
		sh.fullscreen(w, nil)
	} else {
		sh.unfullscreen(w)
	}
}
