package space

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

type mappedLayer struct {
	surface wl.LayerSurface
	// Relative to the output
	geometry generaldata.Rect
}

// LayerMap holds the layer shell surfaces of one output and arranges them.
// All geometry is relative to the output's top left corner
type LayerMap struct {
	output *output.Output
	layers []*mappedLayer
	zone   generaldata.Rect
	// Output size of the last arrangement
	arrangedFor generaldata.Size
}

// LayerMapFor returns the layer map attached to o
func LayerMapFor(o *output.Output) *LayerMap {
	return output.UserData(o, func() *LayerMap {
		return &LayerMap{
			output: o,
			zone:   generaldata.Rect{Size: o.LogicalSize()},
		}
	})
}

func (m *LayerMap) find(l wl.LayerSurface) (int, *mappedLayer) {
	for i, ml := range m.layers {
		if ml.surface == l {
			return i, ml
		}
	}
	return -1, nil
}

// Map adds l to the output and rearranges all layers
func (m *LayerMap) Map(l wl.LayerSurface) {
	if _, ml := m.find(l); ml != nil {
		return
	}
	logrus.WithFields(logrus.Fields{"namespace": l.Namespace(), "output": m.output.Name()}).
		Debugln("Mapping layer surface")
	m.layers = append(m.layers, &mappedLayer{surface: l})
	wl.OutputEnterSurfaceTree(l.Surface(), m.output)
	m.Arrange()
}

func (m *LayerMap) Unmap(l wl.LayerSurface) {
	i, ml := m.find(l)
	if ml == nil {
		return
	}
	m.layers = append(m.layers[:i], m.layers[i+1:]...)
	if l.Alive() {
		wl.OutputLeaveSurfaceTree(l.Surface(), m.output)
	}
	m.Arrange()
}

// Layers returns every mapped layer surface in mapping order
func (m *LayerMap) Layers() []wl.LayerSurface {
	res := make([]wl.LayerSurface, 0, len(m.layers))
	for _, ml := range m.layers {
		res = append(res, ml.surface)
	}
	return res
}

// LayersOn returns the surfaces on one layer in mapping order
func (m *LayerMap) LayersOn(layer wl.Layer) []wl.LayerSurface {
	res := []wl.LayerSurface{}
	for _, ml := range m.layers {
		if ml.surface.CurrentState().Layer == layer {
			res = append(res, ml.surface)
		}
	}
	return res
}

func (m *LayerMap) LayerGeometry(l wl.LayerSurface) (generaldata.Rect, bool) {
	if _, ml := m.find(l); ml != nil {
		return ml.geometry, true
	}
	return generaldata.Rect{}, false
}

// LayerUnder finds the topmost surface on layer accepting input at point, relative to the output
func (m *LayerMap) LayerUnder(layer wl.Layer, point generaldata.Vector2f) (wl.LayerSurface, generaldata.Vector2i, bool) {
	for i := len(m.layers) - 1; i >= 0; i-- {
		ml := m.layers[i]
		if ml.surface.CurrentState().Layer != layer || !ml.surface.Alive() {
			continue
		}
		if _, _, ok := wl.UnderFromSurfaceTree(ml.surface.Surface(), point, ml.geometry.Loc); ok {
			return ml.surface, ml.geometry.Loc, true
		}
	}
	return nil, generaldata.Vector2i{}, false
}

// LayerForSurface finds the layer surface whose root surface is s
func (m *LayerMap) LayerForSurface(s wl.Surface) (wl.LayerSurface, bool) {
	for _, ml := range m.layers {
		if ml.surface.Surface() == s {
			return ml.surface, true
		}
	}
	return nil, false
}

// NonExclusiveZone is the part of the output no layer surface reserved
func (m *LayerMap) NonExclusiveZone() generaldata.Rect {
	return m.zone
}

// Arrange places every layer surface according to its anchors, margins and exclusive zone.
// Surfaces whose size changed get a new configure, unless they are still waiting for the initial one
func (m *LayerMap) Arrange() {
	outputRect := generaldata.Rect{Size: m.output.LogicalSize()}
	zone := outputRect
	m.arrangedFor = outputRect.Size

	for _, ml := range m.layers {
		state := ml.surface.CurrentState()
		source := zone
		if state.ExclusiveZone < 0 {
			source = outputRect
		}

		size := state.DesiredSize
		if size.W == 0 {
			size.W = source.Size.W / 2
		}
		if size.H == 0 {
			size.H = source.Size.H / 2
		}
		if state.Anchor&(wl.AnchorLeft|wl.AnchorRight) == wl.AnchorLeft|wl.AnchorRight {
			size.W = source.Size.W - state.Margin.Left - state.Margin.Right
		}
		if state.Anchor&(wl.AnchorTop|wl.AnchorBottom) == wl.AnchorTop|wl.AnchorBottom {
			size.H = source.Size.H - state.Margin.Top - state.Margin.Bottom
		}

		var loc generaldata.Vector2i
		switch {
		case state.Anchor&wl.AnchorLeft != 0:
			loc.X = source.Loc.X + state.Margin.Left
		case state.Anchor&wl.AnchorRight != 0:
			loc.X = source.Loc.X + source.Size.W - size.W - state.Margin.Right
		default:
			loc.X = source.Loc.X + source.Size.W/2 - size.W/2
		}
		switch {
		case state.Anchor&wl.AnchorTop != 0:
			loc.Y = source.Loc.Y + state.Margin.Top
		case state.Anchor&wl.AnchorBottom != 0:
			loc.Y = source.Loc.Y + source.Size.H - size.H - state.Margin.Bottom
		default:
			loc.Y = source.Loc.Y + source.Size.H/2 - size.H/2
		}

		if amount := state.ExclusiveZone; amount > 0 {
			horizontal := state.Anchor & (wl.AnchorLeft | wl.AnchorRight)
			vertical := state.Anchor & (wl.AnchorTop | wl.AnchorBottom)
			switch {
			case horizontal == wl.AnchorLeft:
				amount += state.Margin.Left + state.Margin.Right
				zone.Loc.X += amount
				zone.Size.W -= amount
			case vertical == wl.AnchorTop:
				amount += state.Margin.Top + state.Margin.Bottom
				zone.Loc.Y += amount
				zone.Size.H -= amount
			case horizontal == wl.AnchorRight:
				zone.Size.W -= amount + state.Margin.Left + state.Margin.Right
			case vertical == wl.AnchorBottom:
				zone.Size.H -= amount + state.Margin.Top + state.Margin.Bottom
			}
		}

		newGeometry := generaldata.Rect{Loc: loc, Size: size}
		sizeChanged := newGeometry.Size != ml.geometry.Size
		ml.geometry = newGeometry
		if sizeChanged && ml.surface.InitialConfigureSent() {
			ml.surface.SendConfigure(size)
		}
	}

	if zone != m.zone {
		logrus.WithFields(logrus.Fields{"output": m.output.Name(), "zone": zone}).
			Debugln("Non-exclusive zone changed")
	}
	m.zone = zone
}

// Refresh drops dead layer surfaces and rearranges if anything changed
func (m *LayerMap) Refresh() {
	changed := false
	alive := m.layers[:0]
	for _, ml := range m.layers {
		if ml.surface.Alive() {
			alive = append(alive, ml)
		} else {
			changed = true
		}
	}
	m.layers = alive
	if changed || m.arrangedFor != m.output.LogicalSize() {
		m.Arrange()
	}
}

// ConfiguredSize is the size the arrangement picked for l
func (m *LayerMap) ConfiguredSize(l wl.LayerSurface) generaldata.Size {
	if _, ml := m.find(l); ml != nil {
		return ml.geometry.Size
	}
	return generaldata.Size{}
}

// NonExclusiveZone returns the part of o windows may use in global coordinates,
// falling back to the full output geometry
func (s *Space) NonExclusiveZone(o *output.Output) (generaldata.Rect, bool) {
	geo, ok := s.OutputGeometry(o)
	if !ok {
		return generaldata.Rect{}, false
	}
	zone := LayerMapFor(o).NonExclusiveZone()
	if zone.IsEmpty() {
		return geo, true
	}
	return zone.Translate(geo.Loc), true
}

// LayerUnder looks for a layer surface on one of the given layers at point, topmost layer first.
// Returns the surface with its global location
func (s *Space) LayerUnder(point generaldata.Vector2f, layers ...wl.Layer) (wl.LayerSurface, generaldata.Vector2i, bool) {
	for _, o := range s.OutputUnder(point) {
		geo, _ := s.OutputGeometry(o)
		lm := LayerMapFor(o)
		for _, layer := range layers {
			if l, loc, ok := lm.LayerUnder(layer, point.Sub(geo.Loc.ToF())); ok {
				return l, loc.Add(geo.Loc), true
			}
		}
	}
	return nil, generaldata.Vector2i{}, false
}

// LayerForSurface finds the layer surface with root surface s on any output
func (s *Space) LayerForSurface(surface wl.Surface) (wl.LayerSurface, *output.Output, bool) {
	for _, o := range s.Outputs() {
		if l, ok := LayerMapFor(o).LayerForSurface(surface); ok {
			return l, o, true
		}
	}
	return nil, nil, false
}
