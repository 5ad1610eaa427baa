package xwm

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
)

var ErrWindowGone = errors.New("x11 window is gone")

// requester sends the requests a managed window needs to the X server
type requester interface {
	moveResize(win xproto.Window, rect generaldata.Rect) error
	setStates(win xproto.Window, states []string) error
	focus(win xproto.Window) error
	close(win xproto.Window) error
}

// Window is an X11 client window as the compositor sees it. It is only touched
// from the event loop goroutine
type Window struct {
	id  xproto.Window
	req requester

	title            string
	overrideRedirect bool
	geometry         generaldata.Rect
	minSize          generaldata.Size
	maxSize          generaldata.Size

	maximized  bool
	fullscreen bool
	activated  bool
	alive      bool

	// Announced by XWayland with WL_SURFACE_ID, resolved once the surface exists
	surfaceID uint32
	surface   wl.Surface
}

var _ wl.X11Surface = (*Window)(nil)

func newWindow(id xproto.Window, req requester) *Window {
	return &Window{id: id, req: req, alive: true}
}

func (w *Window) WindowID() uint32 {
	return uint32(w.id)
}

func (w *Window) Surface() wl.Surface {
	if w.surface != nil && !w.surface.Alive() {
		return nil
	}
	return w.surface
}

func (w *Window) Alive() bool {
	return w.alive
}

func (w *Window) Title() string {
	return w.title
}

func (w *Window) OverrideRedirect() bool {
	return w.overrideRedirect
}

func (w *Window) Geometry() generaldata.Rect {
	return w.geometry
}

func (w *Window) MinSize() generaldata.Size {
	return w.minSize
}

func (w *Window) MaxSize() generaldata.Size {
	return w.maxSize
}

func (w *Window) Configure(rect generaldata.Rect) error {
	if !w.alive {
		return ErrWindowGone
	}
	if err := w.req.moveResize(w.id, rect); err != nil {
		return errors.Wrapf(err, "configuring window %d", w.id)
	}
	w.geometry = rect
	return nil
}

func (w *Window) SetActivated(activated bool) error {
	if !w.alive {
		return ErrWindowGone
	}
	if activated == w.activated {
		return nil
	}
	w.activated = activated
	if activated {
		if err := w.req.focus(w.id); err != nil {
			return errors.Wrapf(err, "focusing window %d", w.id)
		}
	}
	return w.publishStates()
}

func (w *Window) SetMaximized(maximized bool) error {
	if !w.alive {
		return ErrWindowGone
	}
	w.maximized = maximized
	return w.publishStates()
}

func (w *Window) SetFullscreen(fullscreen bool) error {
	if !w.alive {
		return ErrWindowGone
	}
	w.fullscreen = fullscreen
	return w.publishStates()
}

func (w *Window) IsMaximized() bool {
	return w.maximized
}

func (w *Window) IsFullscreen() bool {
	return w.fullscreen
}

func (w *Window) Activated() bool {
	return w.activated
}

// Close asks the client to close the window with WM_DELETE_WINDOW
func (w *Window) Close() error {
	if !w.alive {
		return ErrWindowGone
	}
	return w.req.close(w.id)
}

func (w *Window) publishStates() error {
	return errors.Wrapf(w.req.setStates(w.id, stateNames(w.maximized, w.fullscreen, w.activated)),
		"setting state of window %d", w.id)
}

// stateNames lists the _NET_WM_STATE atoms matching the window state
func stateNames(maximized, fullscreen, activated bool) []string {
	states := []string{}
	if maximized {
		states = append(states, stateMaximizedVert, stateMaximizedHorz)
	}
	if fullscreen {
		states = append(states, stateFullscreen)
	}
	if activated {
		states = append(states, stateFocused)
	}
	return states
}

// sizeLimits reads the minimum and maximum size out of WM_NORMAL_HINTS.
// A zero size means no limit
func sizeLimits(hints *icccm.NormalHints) (generaldata.Size, generaldata.Size) {
	var min, max generaldata.Size
	if hints == nil {
		return min, max
	}
	if hints.Flags&icccm.SizeHintPMinSize != 0 {
		min = generaldata.Size{W: int(hints.MinWidth), H: int(hints.MinHeight)}
	}
	if hints.Flags&icccm.SizeHintPMaxSize != 0 {
		max = generaldata.Size{W: int(hints.MaxWidth), H: int(hints.MaxHeight)}
	}
	if max.W >= 1<<15 {
		max.W = 0
	}
	if max.H >= 1<<15 {
		max.H = 0
	}
	return min, max
}
