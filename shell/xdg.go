package shell

import (
	"github.com/mstarongithub/wayspace/focus"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/grabs"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

func (sh *Shell) NewToplevel(t wl.Toplevel) {
	w := window.NewWayland(t)
	sh.windows = append(sh.windows, w)
	loc := sh.placeNewWindow(w)
	logrus.WithFields(logrus.Fields{"window": w, "location": loc}).Infoln("New toplevel")
	sh.space.Map(w, loc, true)
	sh.seat.Keyboard().SetFocus(focus.Window(w), sh.seat.NextSerial())
}

// checkGrab validates that serial belongs to the active pointer grab and that the grab started
// on a surface of client. Returns the grab's start data
func (sh *Shell) checkGrab(client wl.ClientID, serial wl.Serial) (seat.GrabStartData, bool) {
	ptr := sh.seat.Pointer()
	if !ptr.HasGrab(serial) {
		return seat.GrabStartData{}, false
	}
	start, ok := ptr.GrabStartData()
	if !ok || start.Focus == nil || !start.Focus.Target.SameClientAs(client) {
		return seat.GrabStartData{}, false
	}
	return start, true
}

func (sh *Shell) MoveRequest(t wl.Toplevel, serial wl.Serial) {
	w := sh.windowForToplevel(t)
	if w == nil || !w.Alive() {
		return
	}
	start, ok := sh.checkGrab(t.Surface().Client(), serial)
	if !ok {
		logrus.WithFields(logrus.Fields{"window": w, "serial": serial}).Debugln("Ignoring move request without matching grab")
		return
	}
	sh.startMove(w, start, serial)
}

func (sh *Shell) startMove(w *window.Window, start seat.GrabStartData, serial wl.Serial) {
	initial, ok := sh.space.ElementLocation(w)
	if !ok {
		return
	}
	if w.IsMaximized() {
		restore, known := sh.restore[w]
		var x11Restore *generaldata.Rect
		if known {
			// keep the pointer at the same relative spot of the restored window
			geo := w.Geometry()
			rel := start.Location.X - float64(initial.X)
			if geo.Size.W > 0 {
				rel = rel / float64(geo.Size.W) * float64(restore.Size.W)
			}
			initial = generaldata.Vector2f{X: start.Location.X - rel, Y: start.Location.Y}.Round()
			r := generaldata.Rect{Loc: initial, Size: restore.Size}
			x11Restore = &r
			delete(sh.restore, w)
		} else {
			initial = start.Location.Round()
		}
		w.Unmaximize(x11Restore)
		sh.space.Map(w, initial, true)
	}
	grab := grabs.NewMoveSurfaceGrab(start, w, initial, sh.space)
	sh.seat.Pointer().SetGrab(grab, serial, seat.FocusClear)
	logrus.WithField("window", w).Debugln("Move started")
}

func (sh *Shell) ResizeRequest(t wl.Toplevel, serial wl.Serial, edges wl.Edges) {
	w := sh.windowForToplevel(t)
	if w == nil || !w.Alive() {
		return
	}
	start, ok := sh.checkGrab(t.Surface().Client(), serial)
	if !ok {
		logrus.WithFields(logrus.Fields{"window": w, "serial": serial}).Debugln("Ignoring resize request without matching grab")
		return
	}
	sh.startResize(w, start, serial, edges)
}

func (sh *Shell) startResize(w *window.Window, start seat.GrabStartData, serial wl.Serial, edges wl.Edges) {
	loc, ok := sh.space.ElementLocation(w)
	if !ok {
		return
	}
	initialRect := generaldata.Rect{Loc: loc, Size: w.Geometry().Size}
	grab := grabs.NewResizeSurfaceGrab(start, w, edges, initialRect, sh.space, sh.resize)
	sh.seat.Pointer().SetGrab(grab, serial, seat.FocusClear)
	logrus.WithFields(logrus.Fields{"window": w, "edges": edges}).Debugln("Resize started")
}

func (sh *Shell) AckConfigure(s wl.Surface, conf wl.ToplevelConfigure) {
	w := sh.windowForSurface(s)
	if w == nil {
		return
	}
	sh.resize.AckConfigure(w, conf)
}

func (sh *Shell) MaximizeRequest(t wl.Toplevel) {
	if w := sh.windowForToplevel(t); w != nil {
		sh.maximize(w)
	}
}

func (sh *Shell) UnmaximizeRequest(t wl.Toplevel) {
	if w := sh.windowForToplevel(t); w != nil {
		sh.unmaximize(w)
	}
}

func (sh *Shell) FullscreenRequest(t wl.Toplevel, o *output.Output) {
	if w := sh.windowForToplevel(t); w != nil {
		sh.fullscreen(w, o)
	}
}

func (sh *Shell) UnfullscreenRequest(t wl.Toplevel) {
	if w := sh.windowForToplevel(t); w != nil {
		sh.unfullscreen(w)
	}
}

func (sh *Shell) rememberPlacement(w *window.Window) {
	if _, ok := sh.restore[w]; ok {
		return
	}
	if loc, ok := sh.space.ElementLocation(w); ok {
		sh.restore[w] = generaldata.Rect{Loc: loc, Size: w.Geometry().Size}
	}
}

// maximize fills the free area of the window's output
func (sh *Shell) maximize(w *window.Window) {
	o, ok := sh.outputFor(w)
	if !ok {
		logrus.WithField("window", w).Debugln("No output to maximize on")
		return
	}
	zone, _ := sh.space.NonExclusiveZone(o)
	sh.rememberPlacement(w)
	w.Maximize(zone)
	sh.space.Map(w, zone.Loc, true)
}

func (sh *Shell) unmaximize(w *window.Window) {
	restore, ok := sh.restore[w]
	if !ok {
		w.Unmaximize(nil)
		return
	}
	delete(sh.restore, w)
	w.Unmaximize(&restore)
	sh.space.Map(w, restore.Loc, false)
}

// fullscreen shows w exclusively on o, or on the window's own output if o is nil
func (sh *Shell) fullscreen(w *window.Window, o *output.Output) {
	if o == nil {
		var ok bool
		if o, ok = sh.outputFor(w); !ok {
			logrus.WithField("window", w).Debugln("No output to fullscreen on")
			return
		}
	}
	geo, ok := sh.space.OutputGeometry(o)
	if !ok {
		return
	}
	sh.rememberPlacement(w)
	w.Fullscreen(geo, o)
	window.FullscreenSurfaceOf(o).Set(w)
	sh.space.Map(w, geo.Loc, true)
	logrus.WithFields(logrus.Fields{"window": w, "output": o.Name()}).Debugln("Window went fullscreen")
}

func (sh *Shell) unfullscreen(w *window.Window) {
	o := w.Unfullscreen()
	if o == nil {
		return
	}
	fs := window.FullscreenSurfaceOf(o)
	if fs.Get() == w {
		fs.Clear()
	}
	// the fullscreen path left the output's buffers without the rest of the scene
	sh.backend.ResetBuffers(o)

	if restore, ok := sh.restore[w]; ok {
		delete(sh.restore, w)
		w.ConfigureRestored(restore)
		sh.space.Map(w, restore.Loc, false)
	}
}

func (sh *Shell) NewDecoration(t wl.Toplevel) {
	t.WithPendingState(func(state *wl.ToplevelState) {
		state.DecorationMode = wl.DecorationClientSide
	})
}

func (sh *Shell) RequestDecorationMode(t wl.Toplevel, mode wl.DecorationMode) {
	t.WithPendingState(func(state *wl.ToplevelState) {
		state.DecorationMode = mode
	})
	if t.InitialConfigureSent() {
		t.SendConfigure()
	}
}

func (sh *Shell) UnsetDecorationMode(t wl.Toplevel) {
	sh.RequestDecorationMode(t, wl.DecorationClientSide)
}
