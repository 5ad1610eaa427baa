package wl

import (
	"image"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
)

// A child surface placed relative to its parent
type Subsurface struct {
	Surface Surface
	// Offset relative to the parent surface
	Location generaldata.Vector2i
}

// Surface is a rectangular buffer-backed object a client draws into
type Surface interface {
	PointerTarget
	KeyboardTarget

	ID() ObjectID
	Client() ClientID
	Alive() bool

	// Parent is nil unless this is a subsurface
	Parent() Surface
	IsSyncSubsurface() bool
	Subsurfaces() []Subsurface
	// Popups whose parent is this surface
	Popups() []Popup

	// BufferSize is the logical size of the committed buffer, zero if none is attached
	BufferSize() generaldata.Size
	// Content of the committed buffer, nil if none is attached
	Content() image.Image
	// CommitCounter changes every time a new buffer got committed
	CommitCounter() uint64
	// InputRegionContains checks a surface local point against the input region
	InputRegionContains(p generaldata.Vector2f) bool

	// Compositor side bookkeeping attached to this surface
	Data() *SurfaceData

	EnterOutput(o *output.Output)
	LeaveOutput(o *output.Output)
	// SendFrameDone fires and drops all pending frame callbacks
	SendFrameDone(time time.Duration)
	// TakePresentationFeedback removes all pending presentation feedback objects
	TakePresentationFeedback() []PresentationFeedback
}

// Per-surface compositor state
type SurfaceData struct {
	primaryOutput      *output.Output
	primaryVisibleArea int

	// Fractional scale the client should render at
	PreferredScale float64

	lastFrameOutput *output.Output
	lastFrameAt     time.Duration
	frameSent       bool
}

// PrimaryScanoutOutput is the output whose refresh governs the surface's frame callbacks
func (d *SurfaceData) PrimaryScanoutOutput() *output.Output {
	return d.primaryOutput
}

// UpdatePrimaryScanoutOutput feeds the outcome of rendering o into the primary output bookkeeping.
// visibleArea is the number of physical pixels of the surface that ended up visible on o.
// Returns the primary output after the update
func (d *SurfaceData) UpdatePrimaryScanoutOutput(o *output.Output, visibleArea int) *output.Output {
	switch {
	case d.primaryOutput == o:
		if visibleArea <= 0 {
			d.primaryOutput = nil
			d.primaryVisibleArea = 0
		} else {
			d.primaryVisibleArea = visibleArea
		}
	case visibleArea <= 0:
	case d.primaryOutput == nil:
		d.primaryOutput = o
		d.primaryVisibleArea = visibleArea
	default:
		if preferOutput(d.primaryOutput, d.primaryVisibleArea, o, visibleArea) == o {
			d.primaryOutput = o
			d.primaryVisibleArea = visibleArea
		}
	}
	return d.primaryOutput
}

// Larger visible area wins, the faster output breaks ties
func preferOutput(current *output.Output, currentArea int, next *output.Output, nextArea int) *output.Output {
	if nextArea > currentArea {
		return next
	}
	if nextArea == currentArea && next.CurrentMode().Refresh > current.CurrentMode().Refresh {
		return next
	}
	return current
}

// WithSurfaceTree walks a surface and all of its subsurfaces, parents first.
// loc is the location of the root, fn receives each surface with its own location
func WithSurfaceTree(root Surface, loc generaldata.Vector2i, fn func(s Surface, loc generaldata.Vector2i)) {
	if root == nil {
		return
	}
	fn(root, loc)
	for _, sub := range root.Subsurfaces() {
		WithSurfaceTree(sub.Surface, loc.Add(sub.Location), fn)
	}
}

// UnderFromSurfaceTree returns the topmost surface of the tree whose input region contains point.
// The tree root is at loc. The returned location is the one of the found surface
func UnderFromSurfaceTree(root Surface, point generaldata.Vector2f, loc generaldata.Vector2i) (Surface, generaldata.Vector2i, bool) {
	if root == nil || !root.Alive() {
		return nil, generaldata.Vector2i{}, false
	}
	subs := root.Subsurfaces()
	for i := len(subs) - 1; i >= 0; i-- {
		if s, l, ok := UnderFromSurfaceTree(subs[i].Surface, point, loc.Add(subs[i].Location)); ok {
			return s, l, true
		}
	}
	local := point.Sub(loc.ToF())
	size := root.BufferSize()
	if !generaldata.NewRect(0, 0, size.W, size.H).ContainsF(local) {
		return nil, generaldata.Vector2i{}, false
	}
	if !root.InputRegionContains(local) {
		return nil, generaldata.Vector2i{}, false
	}
	return root, loc, true
}

// BBoxFromSurfaceTree is the bounding box of all surfaces of the tree with the root placed at loc
func BBoxFromSurfaceTree(root Surface, loc generaldata.Vector2i) generaldata.Rect {
	var bbox generaldata.Rect
	WithSurfaceTree(root, loc, func(s Surface, l generaldata.Vector2i) {
		size := s.BufferSize()
		if size.IsEmpty() {
			return
		}
		bbox = bbox.Merge(generaldata.Rect{Loc: l, Size: size})
	})
	return bbox
}

// OutputEnterSurfaceTree tells every surface of the tree it is now shown on o
func OutputEnterSurfaceTree(root Surface, o *output.Output) {
	WithSurfaceTree(root, generaldata.Vector2i{}, func(s Surface, _ generaldata.Vector2i) {
		s.EnterOutput(o)
	})
}

// OutputLeaveSurfaceTree tells every surface of the tree it is no longer shown on o
func OutputLeaveSurfaceTree(root Surface, o *output.Output) {
	WithSurfaceTree(root, generaldata.Vector2i{}, func(s Surface, _ generaldata.Vector2i) {
		s.LeaveOutput(o)
	})
}

// PrimaryScanoutOutputFunc decides which output drives a surface
type PrimaryScanoutOutputFunc func(s Surface) *output.Output

// SurfacePrimaryScanoutOutput is the default PrimaryScanoutOutputFunc
func SurfacePrimaryScanoutOutput(s Surface) *output.Output {
	return s.Data().PrimaryScanoutOutput()
}

// SendFramesSurfaceTree fires frame callbacks of the whole tree for a frame shown on o.
// Surfaces not primarily shown on o only get callbacks if throttle elapsed since the last
// ones were sent, or the last ones were sent for another output. A zero throttle never throttles
func SendFramesSurfaceTree(root Surface, o *output.Output, now time.Duration, throttle time.Duration, primary PrimaryScanoutOutputFunc) {
	WithSurfaceTree(root, generaldata.Vector2i{}, func(s Surface, _ generaldata.Vector2i) {
		data := s.Data()
		send := true
		if p := primary(s); p != o && data.frameSent {
			elapsed := now - data.lastFrameAt
			send = throttle <= 0 || elapsed >= throttle || data.lastFrameOutput != o
		}
		if !send {
			return
		}
		data.lastFrameOutput = o
		data.lastFrameAt = now
		data.frameSent = true
		s.SendFrameDone(now)
	})
}
