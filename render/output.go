package render

import (
	"image/color"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
)

// Default interval frame callbacks of surfaces not primarily shown on an output are throttled to
const DefaultFrameThrottle = time.Second

// ClearColor is the background where nothing is drawn
var ClearColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// WindowElements builds the elements of w, front to back. Popups are above subsurfaces,
// subsurfaces above the toplevel. loc is w's logical render location relative to the output
func WindowElements(w *window.Window, loc generaldata.Vector2i, scale float64) []Element {
	back := []Element{}
	w.WithSurfaces(func(s wl.Surface, l generaldata.Vector2i) {
		if s.Alive() && !s.BufferSize().IsEmpty() {
			back = append(back, NewSurfaceElement(s, loc.Add(l).Scale(scale), scale))
		}
	})
	return reversed(back)
}

// LayerElements builds the elements of a layer surface and its popups, front to back
func LayerElements(l wl.LayerSurface, loc generaldata.Vector2i, scale float64) []Element {
	back := reversed(SurfaceTreeElements(l.Surface(), loc, scale))
	var walk func(parent wl.Surface, parentLoc generaldata.Vector2i)
	walk = func(parent wl.Surface, parentLoc generaldata.Vector2i) {
		for _, p := range parent.Popups() {
			if !p.Alive() {
				continue
			}
			pl := parentLoc.Add(p.Geometry().Loc)
			back = append(back, reversed(SurfaceTreeElements(p.Surface(), pl, scale))...)
			walk(p.Surface(), pl)
		}
	}
	walk(l.Surface(), loc)
	return reversed(back)
}

func layerElements(o *output.Output, layers ...wl.Layer) []Element {
	res := []Element{}
	lm := space.LayerMapFor(o)
	for _, layer := range layers {
		on := lm.LayersOn(layer)
		for i := len(on) - 1; i >= 0; i-- {
			geo, ok := lm.LayerGeometry(on[i])
			if !ok || !on[i].Alive() {
				continue
			}
			res = append(res, LayerElements(on[i], geo.Loc, o.Scale())...)
		}
	}
	return res
}

// OutputElements collects everything shown on o, front to back: custom elements first, then
// the overlay and top layers, the windows of sp and finally the bottom and background layers
func OutputElements(o *output.Output, sp *space.Space, custom []Element) []Element {
	res := append([]Element{}, custom...)
	outGeo, ok := sp.OutputGeometry(o)
	if !ok {
		return res
	}
	res = append(res, layerElements(o, wl.LayerOverlay, wl.LayerTop)...)

	windows := sp.Elements()
	for i := len(windows) - 1; i >= 0; i-- {
		w := windows[i]
		bbox, ok := sp.ElementBBox(w)
		if !ok || !bbox.Overlaps(outGeo) {
			continue
		}
		loc, _ := sp.ElementRenderLocation(w)
		res = append(res, WindowElements(w, loc.Sub(outGeo.Loc), o.Scale())...)
	}

	return append(res, layerElements(o, wl.LayerBottom, wl.LayerBackground)...)
}

// RenderOutput draws one frame of o. An output showing a fullscreen window only gets that
// window and the custom elements drawn, everything else of sp is skipped
func RenderOutput(
	o *output.Output,
	sp *space.Space,
	custom []Element,
	r Renderer,
	tracker *DamageTracker,
	age int,
	clear color.Color,
) (RenderResult, error) {
	if fs := window.FullscreenSurfaceOf(o).Get(); fs != nil {
		elements := append(append([]Element{}, custom...), WindowElements(fs, generaldata.Vector2i{}, o.Scale())...)
		return tracker.Render(r, age, elements, clear)
	}
	return tracker.Render(r, age, OutputElements(o, sp, custom), clear)
}

func onOutput(sp *space.Space, w *window.Window, o *output.Output) bool {
	for _, other := range sp.OutputsForElement(w) {
		if other == o {
			return true
		}
	}
	return false
}

func updatePrimaryOutput(s wl.Surface, o *output.Output, states RenderElementStates) {
	area := 0
	if st, ok := states.ElementState(s.ID()); ok {
		area = st.VisibleArea
	}
	data := s.Data()
	if data.UpdatePrimaryScanoutOutput(o, area) == o {
		data.PreferredScale = o.Scale()
	}
}

// PostRepaint runs after a frame of o was submitted. It updates which output drives each
// surface and sends frame callbacks, throttled for surfaces mainly shown elsewhere
func PostRepaint(o *output.Output, sp *space.Space, states RenderElementStates, now time.Duration, throttle time.Duration) {
	for _, w := range sp.Elements() {
		w.WithSurfaces(func(s wl.Surface, _ generaldata.Vector2i) {
			updatePrimaryOutput(s, o, states)
		})
		if onOutput(sp, w, o) {
			w.SendFrame(o, now, throttle, wl.SurfacePrimaryScanoutOutput)
		}
	}

	for _, l := range space.LayerMapFor(o).Layers() {
		if !l.Alive() {
			continue
		}
		wl.WithSurfaceTree(l.Surface(), generaldata.Vector2i{}, func(s wl.Surface, _ generaldata.Vector2i) {
			updatePrimaryOutput(s, o, states)
		})
		wl.SendFramesSurfaceTree(l.Surface(), o, now, throttle, wl.SurfacePrimaryScanoutOutput)
	}
}

func presentationFlags(states RenderElementStates) func(s wl.Surface) wl.PresentationKind {
	return func(s wl.Surface) wl.PresentationKind {
		if st, ok := states.ElementState(s.ID()); ok && st.Presentation == PresentationZeroCopy {
			return wl.PresentationZeroCopy
		}
		return 0
	}
}

// TakePresentationFeedback collects the feedback of every surface primarily shown on o
func TakePresentationFeedback(o *output.Output, sp *space.Space, states RenderElementStates) *wl.OutputPresentationFeedback {
	fb := wl.NewOutputPresentationFeedback(o)
	flags := presentationFlags(states)
	for _, w := range sp.Elements() {
		if onOutput(sp, w, o) {
			w.TakePresentationFeedback(fb, wl.SurfacePrimaryScanoutOutput, flags)
		}
	}
	for _, l := range space.LayerMapFor(o).Layers() {
		if l.Alive() {
			wl.TakePresentationFeedbackSurfaceTree(l.Surface(), fb, wl.SurfacePrimaryScanoutOutput, flags)
		}
	}
	return fb
}
