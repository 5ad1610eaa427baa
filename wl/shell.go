package wl

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
)

// State flags of a toplevel as sent in a configure
type ToplevelStates uint32

const (
	StateMaximized = ToplevelStates(1 << iota)
	StateFullscreen
	StateResizing
	StateActivated
)

func (s ToplevelStates) Contains(flag ToplevelStates) bool {
	return s&flag == flag
}

func (s *ToplevelStates) Set(flag ToplevelStates) {
	*s |= flag
}

func (s *ToplevelStates) Unset(flag ToplevelStates) {
	*s &^= flag
}

type DecorationMode int

const (
	DecorationUnset = DecorationMode(iota)
	DecorationClientSide
	DecorationServerSide
)

// The state of a toplevel, either pending (not yet sent), sent, or acked and committed
type ToplevelState struct {
	States ToplevelStates
	// Nil lets the client decide on its size
	Size             *generaldata.Size
	FullscreenOutput *output.Output
	DecorationMode   DecorationMode
}

// A configure the client acknowledged
type ToplevelConfigure struct {
	Serial Serial
	State  ToplevelState
}

// An xdg toplevel, i.e. a regular application window
type Toplevel interface {
	Surface() Surface
	Alive() bool

	Title() string
	AppID() string

	// WithPendingState mutates the state that gets sent with the next configure
	WithPendingState(fn func(state *ToplevelState))
	// CurrentState is the last state the client acked and committed
	CurrentState() ToplevelState
	// SendConfigure sends the pending state if it differs from the last one sent, or if no
	// initial configure went out yet. Returns the serial of the configure, false if nothing was sent
	SendConfigure() (Serial, bool)
	InitialConfigureSent() bool

	// Window geometry relative to the surface origin
	Geometry() generaldata.Rect
	MinSize() generaldata.Size
	MaxSize() generaldata.Size

	SendClose()
}

// Layer of a layer shell surface, bottom to top
type Layer int

const (
	LayerBackground = Layer(iota)
	LayerBottom
	LayerTop
	LayerOverlay
)

type Anchor uint32

const (
	AnchorTop = Anchor(1 << iota)
	AnchorBottom
	AnchorLeft
	AnchorRight
)

type Margins struct {
	Top, Right, Bottom, Left int
}

type KeyboardInteractivity int

const (
	KeyboardInteractivityNone = KeyboardInteractivity(iota)
	KeyboardInteractivityExclusive
	KeyboardInteractivityOnDemand
)

type LayerSurfaceState struct {
	Layer  Layer
	Anchor Anchor
	// Positive values reserve space from the anchored edge, -1 asks to ignore other zones
	ExclusiveZone         int
	Margin                Margins
	DesiredSize           generaldata.Size
	KeyboardInteractivity KeyboardInteractivity
}

// A wlr layer shell surface like a panel, wallpaper or notification
type LayerSurface interface {
	Surface() Surface
	Alive() bool
	Namespace() string
	CurrentState() LayerSurfaceState
	// SendConfigure tells the client the size it got
	SendConfigure(size generaldata.Size) Serial
	InitialConfigureSent() bool
	SendClose()
}

type PositionerAnchor int

const (
	PositionerAnchorNone = PositionerAnchor(iota)
	PositionerAnchorTop
	PositionerAnchorBottom
	PositionerAnchorLeft
	PositionerAnchorRight
	PositionerAnchorTopLeft
	PositionerAnchorBottomLeft
	PositionerAnchorTopRight
	PositionerAnchorBottomRight
)

func (a PositionerAnchor) hasTop() bool {
	return a == PositionerAnchorTop || a == PositionerAnchorTopLeft || a == PositionerAnchorTopRight
}

func (a PositionerAnchor) hasBottom() bool {
	return a == PositionerAnchorBottom || a == PositionerAnchorBottomLeft || a == PositionerAnchorBottomRight
}

func (a PositionerAnchor) hasLeft() bool {
	return a == PositionerAnchorLeft || a == PositionerAnchorTopLeft || a == PositionerAnchorBottomLeft
}

func (a PositionerAnchor) hasRight() bool {
	return a == PositionerAnchorRight || a == PositionerAnchorTopRight || a == PositionerAnchorBottomRight
}

// Positioner rules a client asked for when placing a popup
type PositionerState struct {
	Size       generaldata.Size
	AnchorRect generaldata.Rect
	Anchor     PositionerAnchor
	// Gravity uses the same values as Anchor
	Gravity PositionerAnchor
	Offset  generaldata.Vector2i
}

// Geometry places the popup relative to its parent without any constraint adjustment
func (p PositionerState) Geometry() generaldata.Rect {
	geo := generaldata.Rect{Loc: p.Offset, Size: p.Size}

	switch {
	case p.Anchor.hasTop():
		geo.Loc.Y += p.AnchorRect.Loc.Y
	case p.Anchor.hasBottom():
		geo.Loc.Y += p.AnchorRect.Bottom()
	default:
		geo.Loc.Y += p.AnchorRect.Loc.Y + p.AnchorRect.Size.H/2
	}
	switch {
	case p.Anchor.hasLeft():
		geo.Loc.X += p.AnchorRect.Loc.X
	case p.Anchor.hasRight():
		geo.Loc.X += p.AnchorRect.Right()
	default:
		geo.Loc.X += p.AnchorRect.Loc.X + p.AnchorRect.Size.W/2
	}

	switch {
	case p.Gravity.hasTop():
		geo.Loc.Y -= geo.Size.H
	case !p.Gravity.hasBottom():
		geo.Loc.Y -= geo.Size.H / 2
	}
	switch {
	case p.Gravity.hasLeft():
		geo.Loc.X -= geo.Size.W
	case !p.Gravity.hasRight():
		geo.Loc.X -= geo.Size.W / 2
	}
	return geo
}

type PopupState struct {
	// Placement relative to the parent surface
	Geometry   generaldata.Rect
	Positioner PositionerState
}

// An xdg popup or an input method popup
type Popup interface {
	Surface() Surface
	Alive() bool
	// Parent surface, may itself belong to a popup
	Parent() Surface
	WithPendingState(fn func(state *PopupState))
	// Geometry is the placement relative to the parent as last configured
	Geometry() generaldata.Rect
	SendConfigure() Serial
	InitialConfigureSent() bool
	SendRepositioned(token uint32)
	// SendPopupDone dismisses the popup
	SendPopupDone()
}

// A window managed over X11 on behalf of an XWayland client
type X11Surface interface {
	WindowID() uint32
	// Surface is nil until XWayland associated a wl_surface with the window
	Surface() Surface
	Alive() bool
	Title() string
	OverrideRedirect() bool

	// Geometry is the last configured rectangle in global coordinates
	Geometry() generaldata.Rect
	MinSize() generaldata.Size
	MaxSize() generaldata.Size

	Configure(rect generaldata.Rect) error
	SetActivated(activated bool) error
	SetMaximized(maximized bool) error
	SetFullscreen(fullscreen bool) error
	IsMaximized() bool
	IsFullscreen() bool
	Close() error
}
