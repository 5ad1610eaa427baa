package window

import (
	"math"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// SizeConstraints returns the declared minimum and maximum size. Zero means unconstrained
func (w *Window) SizeConstraints() (minSize, maxSize generaldata.Size) {
	switch w.kind {
	case KindWayland:
		return w.toplevel.MinSize(), w.toplevel.MaxSize()
	case KindX11:
		return w.x11.MinSize(), w.x11.MaxSize()
	}
	return
}

// ClampSize keeps size inside the window's constraints on each axis independently.
// A zero maximum is treated as no limit, the minimum is at least one pixel
func (w *Window) ClampSize(size generaldata.Size) generaldata.Size {
	minSize, maxSize := w.SizeConstraints()
	return ClampSize(size, minSize, maxSize)
}

func ClampSize(size, minSize, maxSize generaldata.Size) generaldata.Size {
	clamp := func(v, lo, hi int) int {
		lo = max(lo, 1)
		if hi == 0 {
			hi = math.MaxInt
		}
		return min(max(v, lo), hi)
	}
	return generaldata.Size{
		W: clamp(size.W, minSize.W, maxSize.W),
		H: clamp(size.H, minSize.H, maxSize.H),
	}
}

// ConfigureResizing asks the window to take size while an interactive resize is going on.
// loc is the window's current location, only X11 windows need it
func (w *Window) ConfigureResizing(loc generaldata.Vector2i, size generaldata.Size) {
	switch w.kind {
	case KindWayland:
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			state.States.Set(wl.StateResizing)
			state.Size = &size
		})
		w.toplevel.SendConfigure()
	case KindX11:
		if err := w.x11.Configure(generaldata.Rect{Loc: loc, Size: size}); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to configure X11 window")
		}
	}
}

// ConfigureResizeDone sends the final size of an interactive resize.
// Returns true if the window has to acknowledge it before the new geometry can be trusted
func (w *Window) ConfigureResizeDone(loc generaldata.Vector2i, size generaldata.Size) bool {
	switch w.kind {
	case KindWayland:
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			state.States.Unset(wl.StateResizing)
			state.Size = &size
		})
		w.toplevel.SendConfigure()
		return true
	case KindX11:
		if err := w.x11.Configure(generaldata.Rect{Loc: loc, Size: size}); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to configure X11 window")
		}
	}
	return false
}

// ConfigureAt tells windows that position themselves about their new location. Native windows
// don't know their position, so this is a no-op for them
func (w *Window) ConfigureAt(loc generaldata.Vector2i) {
	if w.kind != KindX11 {
		return
	}
	rect := generaldata.Rect{Loc: loc, Size: w.x11.Geometry().Size}
	if rect == w.x11.Geometry() {
		return
	}
	if err := w.x11.Configure(rect); err != nil {
		logrus.WithError(err).WithField("window", w).Warnln("Failed to configure X11 window")
	}
}

// ConfigureRestored puts windows that position themselves back to rect after fullscreen.
// Native windows pick their own size once the state is dropped
func (w *Window) ConfigureRestored(rect generaldata.Rect) {
	if w.kind != KindX11 || rect == w.x11.Geometry() {
		return
	}
	if err := w.x11.Configure(rect); err != nil {
		logrus.WithError(err).WithField("window", w).Warnln("Failed to configure X11 window")
	}
}

func (w *Window) IsMaximized() bool {
	switch w.kind {
	case KindWayland:
		return w.toplevel.CurrentState().States.Contains(wl.StateMaximized)
	case KindX11:
		return w.x11.IsMaximized()
	}
	return false
}

func (w *Window) IsFullscreen() bool {
	switch w.kind {
	case KindWayland:
		return w.toplevel.CurrentState().States.Contains(wl.StateFullscreen)
	case KindX11:
		return w.x11.IsFullscreen()
	}
	return false
}

// Maximize makes the window fill geo, in global coordinates
func (w *Window) Maximize(geo generaldata.Rect) {
	switch w.kind {
	case KindWayland:
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			state.States.Set(wl.StateMaximized)
			state.Size = &geo.Size
		})
		w.toplevel.SendConfigure()
	case KindX11:
		if err := w.x11.SetMaximized(true); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to maximize X11 window")
		}
		if err := w.x11.Configure(geo); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to configure X11 window")
		}
	}
}

// Unmaximize drops the maximized state and lets the window pick its size again.
// X11 windows get restore applied if given
func (w *Window) Unmaximize(restore *generaldata.Rect) {
	switch w.kind {
	case KindWayland:
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			state.States.Unset(wl.StateMaximized)
			state.Size = nil
		})
		w.toplevel.SendConfigure()
	case KindX11:
		if err := w.x11.SetMaximized(false); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to unmaximize X11 window")
		}
		if restore != nil {
			if err := w.x11.Configure(*restore); err != nil {
				logrus.WithError(err).WithField("window", w).Warnln("Failed to configure X11 window")
			}
		}
	}
}

// Fullscreen makes the window cover geo, the full area of o
func (w *Window) Fullscreen(geo generaldata.Rect, o *output.Output) {
	switch w.kind {
	case KindWayland:
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			state.States.Set(wl.StateFullscreen)
			state.Size = &geo.Size
			state.FullscreenOutput = o
		})
		w.toplevel.SendConfigure()
	case KindX11:
		w.x11FullscreenOutput = o
		if err := w.x11.SetFullscreen(true); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to fullscreen X11 window")
		}
		if err := w.x11.Configure(geo); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to configure X11 window")
		}
	}
}

// Unfullscreen drops the fullscreen state and returns the output the window was fullscreen on, if any
func (w *Window) Unfullscreen() *output.Output {
	switch w.kind {
	case KindWayland:
		var prev *output.Output
		w.toplevel.WithPendingState(func(state *wl.ToplevelState) {
			state.States.Unset(wl.StateFullscreen)
			state.Size = nil
			prev = state.FullscreenOutput
			state.FullscreenOutput = nil
		})
		if prev != nil {
			w.toplevel.SendConfigure()
		}
		return prev
	case KindX11:
		prev := w.x11FullscreenOutput
		w.x11FullscreenOutput = nil
		if err := w.x11.SetFullscreen(false); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to unfullscreen X11 window")
		}
		return prev
	}
	return nil
}

// Close asks the window to go away
func (w *Window) Close() {
	switch w.kind {
	case KindWayland:
		w.toplevel.SendClose()
	case KindX11:
		if err := w.x11.Close(); err != nil {
			logrus.WithError(err).WithField("window", w).Warnln("Failed to close X11 window")
		}
	}
}

// FullscreenSurface is attached to an output and names the window exclusively shown on it
type FullscreenSurface struct {
	window *Window
}

// FullscreenSurfaceOf returns the association of o, creating an empty one if needed
func FullscreenSurfaceOf(o *output.Output) *FullscreenSurface {
	return output.UserData(o, func() *FullscreenSurface { return &FullscreenSurface{} })
}

func (f *FullscreenSurface) Set(w *Window) {
	f.window = w
}

// Get returns the fullscreen window, or nil if there is none or it died
func (f *FullscreenSurface) Get() *Window {
	if f.window == nil || !f.window.Alive() {
		return nil
	}
	return f.window
}

// Clear removes the association and returns what was stored
func (f *FullscreenSurface) Clear() *Window {
	w := f.window
	f.window = nil
	return w
}
