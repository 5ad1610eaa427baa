package shell

import (
	"github.com/mstarongithub/wayspace/focus"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/grabs"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// PopupManager tracks every popup so that popups can be resolved back to the
// window or layer surface they belong to
type PopupManager struct {
	popups []wl.Popup
}

func NewPopupManager() *PopupManager {
	return &PopupManager{}
}

func (m *PopupManager) Track(p wl.Popup) {
	m.popups = append(m.popups, p)
}

// ForSurface finds the popup whose surface tree contains s
func (m *PopupManager) ForSurface(s wl.Surface) (wl.Popup, bool) {
	for s != nil && s.Parent() != nil {
		s = s.Parent()
	}
	for _, p := range m.popups {
		if p.Surface() == s {
			return p, true
		}
	}
	return nil, false
}

// RootSurface follows the parents of p until it reaches a surface that is not a popup
func (m *PopupManager) RootSurface(p wl.Popup) wl.Surface {
	parent := p.Parent()
	for parent != nil {
		pp, ok := m.ForSurface(parent)
		if !ok {
			return parent
		}
		parent = pp.Parent()
	}
	return nil
}

// OffsetToRoot is the location of p's surface relative to its root surface
func (m *PopupManager) OffsetToRoot(p wl.Popup) generaldata.Vector2i {
	offset := p.Geometry().Loc
	parent := p.Parent()
	for parent != nil {
		pp, ok := m.ForSurface(parent)
		if !ok {
			break
		}
		offset = offset.Add(pp.Geometry().Loc)
		parent = pp.Parent()
	}
	return offset
}

func (m *PopupManager) Len() int {
	return len(m.popups)
}

// Refresh forgets dead popups
func (m *PopupManager) Refresh() {
	alive := m.popups[:0]
	for _, p := range m.popups {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	for i := len(alive); i < len(m.popups); i++ {
		m.popups[i] = nil
	}
	m.popups = alive
}

func (sh *Shell) NewPopup(p wl.Popup, positioner wl.PositionerState) {
	sh.popups.Track(p)
	geo := sh.unconstrain(p, positioner.Geometry())
	p.WithPendingState(func(state *wl.PopupState) {
		state.Geometry = geo
		state.Positioner = positioner
	})
}

func (sh *Shell) RepositionRequest(p wl.Popup, positioner wl.PositionerState, token uint32) {
	if !p.Alive() {
		return
	}
	geo := sh.unconstrain(p, positioner.Geometry())
	p.WithPendingState(func(state *wl.PopupState) {
		state.Geometry = geo
		state.Positioner = positioner
	})
	p.SendRepositioned(token)
	p.SendConfigure()
}

// rootTarget resolves the window or layer surface a popup chain hangs off
func (sh *Shell) rootTarget(root wl.Surface) (focus.Target, generaldata.Vector2i, bool) {
	if w := sh.windowForSurface(root); w != nil {
		loc, ok := sh.space.ElementRenderLocation(w)
		return focus.Window(w), loc, ok
	}
	if l, o, ok := sh.space.LayerForSurface(root); ok {
		outGeo, _ := sh.space.OutputGeometry(o)
		geo, _ := space.LayerMapFor(o).LayerGeometry(l)
		return focus.LayerSurface(l), outGeo.Loc.Add(geo.Loc), true
	}
	return focus.Target{}, generaldata.Vector2i{}, false
}

// unconstrain slides a popup back onto the output its root is shown on.
// geo is relative to the popup's parent
func (sh *Shell) unconstrain(p wl.Popup, geo generaldata.Rect) generaldata.Rect {
	root := sh.popups.RootSurface(p)
	_, rootLoc, ok := sh.rootTarget(root)
	if !ok {
		return geo
	}
	parentOffset := sh.popups.OffsetToRoot(p).Sub(p.Geometry().Loc)
	global := geo.Translate(rootLoc.Add(parentOffset))

	outputs := sh.space.OutputUnder(rootLoc.ToF())
	if len(outputs) == 0 {
		return geo
	}
	bounds, _ := sh.space.OutputGeometry(outputs[0])

	shift := generaldata.Vector2i{}
	if global.Right() > bounds.Right() {
		shift.X = bounds.Right() - global.Right()
	}
	if global.Loc.X+shift.X < bounds.Loc.X {
		shift.X = bounds.Loc.X - global.Loc.X
	}
	if global.Bottom() > bounds.Bottom() {
		shift.Y = bounds.Bottom() - global.Bottom()
	}
	if global.Loc.Y+shift.Y < bounds.Loc.Y {
		shift.Y = bounds.Loc.Y - global.Loc.Y
	}
	return geo.Translate(shift)
}

// PopupGrab lets a popup take keyboard and pointer until it is dismissed. A grab on top of an
// existing popup grab of the same chain extends it, anything else gets the popup dismissed
func (sh *Shell) PopupGrab(p wl.Popup, serial wl.Serial) {
	if !p.Alive() {
		return
	}
	root := sh.popups.RootSurface(p)
	target, _, ok := sh.rootTarget(root)
	if !ok {
		logrus.WithField("popup", p.Surface().ID()).Debugln("Popup grab without a known root, dismissing")
		p.SendPopupDone()
		return
	}

	ptr := sh.seat.Pointer()
	if current, ok := ptr.Grab().(*grabs.PopupPointerGrab); ok && !current.PopupGrab().HasEnded() {
		existing := current.PopupGrab()
		parent, parentIsPopup := sh.popups.ForSurface(p.Parent())
		chained := existing.Root() == target && (!parentIsPopup || existing.Contains(parent))
		if !chained || !serial.IsNoOlderThan(existing.Serial()) {
			logrus.WithField("serial", serial).Debugln("Popup grab conflicts with the active one, dismissing")
			p.SendPopupDone()
			return
		}
		existing.Push(p, serial)
		return
	}

	if ptr.IsGrabbed() && !ptr.HasGrab(serial) {
		logrus.WithField("serial", serial).Debugln("Popup grab with a stale serial, dismissing")
		p.SendPopupDone()
		return
	}
	if kbd := sh.seat.Keyboard(); kbd.IsGrabbed() && !kbd.HasGrab(serial) {
		p.SendPopupDone()
		return
	}

	grab := grabs.NewPopupGrab(sh.seat, target, p, serial)
	grab.Install()
	logrus.WithField("root", target).Debugln("Popup grab installed")
}
