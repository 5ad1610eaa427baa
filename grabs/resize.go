package grabs

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// ResizeSurfaceGrab resizes a window by dragging some of its edges
type ResizeSurfaceGrab struct {
	start       seat.GrabStartData
	window      *window.Window
	edges       wl.Edges
	initialRect generaldata.Rect
	lastSize    generaldata.Size

	space  *space.Space
	states *ResizeStates
}

var _ seat.PointerGrab = (*ResizeSurfaceGrab)(nil)

// NewResizeSurfaceGrab starts resizing w. initialRect is the window's location and geometry size.
// The window's resize state enters the resizing phase
func NewResizeSurfaceGrab(
	start seat.GrabStartData,
	w *window.Window,
	edges wl.Edges,
	initialRect generaldata.Rect,
	sp *space.Space,
	states *ResizeStates,
) *ResizeSurfaceGrab {
	if s := w.WlSurface(); s != nil {
		states.Get(s).Start(ResizeData{Edges: edges, InitialRect: initialRect})
	}
	return &ResizeSurfaceGrab{
		start:       start,
		window:      w,
		edges:       edges,
		initialRect: initialRect,
		lastSize:    initialRect.Size,
		space:       sp,
		states:      states,
	}
}

func (g *ResizeSurfaceGrab) Window() *window.Window {
	return g.window
}

func (g *ResizeSurfaceGrab) Edges() wl.Edges {
	return g.edges
}

// LastSize is the size the window was last asked to take
func (g *ResizeSurfaceGrab) LastSize() generaldata.Size {
	return g.lastSize
}

func (g *ResizeSurfaceGrab) Motion(h *seat.PointerInnerHandle, _ *seat.PointerFocus, ev *wl.MotionEvent) {
	h.Motion(nil, ev)

	if !g.window.Alive() {
		h.UnsetGrab()
		return
	}

	delta := ev.Location.Sub(g.start.Location)
	width, height := g.initialRect.Size.W, g.initialRect.Size.H
	if g.edges.Intersects(wl.EdgeLeft | wl.EdgeRight) {
		dx := delta.X
		if g.edges.Intersects(wl.EdgeLeft) {
			dx = -dx
		}
		width = int(float64(width) + dx)
	}
	if g.edges.Intersects(wl.EdgeTop | wl.EdgeBottom) {
		dy := delta.Y
		if g.edges.Intersects(wl.EdgeTop) {
			dy = -dy
		}
		height = int(float64(height) + dy)
	}

	g.lastSize = g.window.ClampSize(generaldata.Size{W: width, H: height})
	g.window.ConfigureResizing(g.location(), g.lastSize)
}

func (g *ResizeSurfaceGrab) location() generaldata.Vector2i {
	if loc, ok := g.space.ElementLocation(g.window); ok {
		return loc
	}
	return g.initialRect.Loc
}

func (g *ResizeSurfaceGrab) RelativeMotion(h *seat.PointerInnerHandle, _ *seat.PointerFocus, ev *wl.RelativeMotionEvent) {
	h.RelativeMotion(ev)
}

func (g *ResizeSurfaceGrab) Button(h *seat.PointerInnerHandle, ev *wl.ButtonEvent) {
	h.Button(ev)
	if len(h.CurrentPressed()) != 0 {
		return
	}
	h.UnsetGrab()
	if !g.window.Alive() {
		return
	}

	needsAck := g.window.ConfigureResizeDone(g.location(), g.lastSize)
	s := g.window.WlSurface()
	if s == nil {
		return
	}
	state := g.states.Get(s)
	if !state.Release(needsAck, ev.Serial) {
		logrus.WithFields(logrus.Fields{"window": g.window, "phase": state.Phase()}).
			Warnln("Resize released in an unexpected state, dropping it")
		return
	}
	logrus.WithFields(logrus.Fields{"window": g.window, "size": g.lastSize}).Debugln("Resize released")
}

func (g *ResizeSurfaceGrab) Axis(h *seat.PointerInnerHandle, frame wl.AxisFrame) {
	h.Axis(frame)
}

func (g *ResizeSurfaceGrab) StartData() seat.GrabStartData {
	return g.start
}

func (g *ResizeSurfaceGrab) Unset() {}
