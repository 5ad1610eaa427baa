package memwl

import (
	"image/color"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
)

// Popup is an in-process xdg popup
type Popup struct {
	surface     *Surface
	parent      *Surface
	pending     wl.PopupState
	current     wl.PopupState
	initialSent bool

	// Tokens of all repositioned events, oldest first
	Repositioned []uint32
	Dismissed    bool
	Configures   []wl.Serial
}

var _ wl.Popup = (*Popup)(nil)

// CreatePopup creates a popup for parent and announces it
func (c *Client) CreatePopup(parent *Surface, positioner wl.PositionerState) *Popup {
	p := &Popup{
		surface: c.CreateSurface(),
		parent:  parent,
	}
	p.pending.Positioner = positioner
	parent.popups = append(parent.popups, p)
	if h := c.display.getHandler(); h != nil {
		h.NewPopup(p, positioner)
	}
	return p
}

func (p *Popup) ClientSurface() *Surface {
	return p.surface
}

// AckAndCommit commits a buffer with the configured size
func (p *Popup) AckAndCommit() {
	p.surface.AttachColor(p.current.Geometry.Size, defaultColor(p.surface.id))
	p.surface.Commit()
}

func (p *Popup) RequestGrab(serial wl.Serial) {
	if h := p.surface.client.display.getHandler(); h != nil {
		h.PopupGrab(p, serial)
	}
}

func (p *Popup) RequestReposition(positioner wl.PositionerState, token uint32) {
	if h := p.surface.client.display.getHandler(); h != nil {
		h.RepositionRequest(p, positioner, token)
	}
}

func (p *Popup) Surface() wl.Surface {
	return p.surface
}

func (p *Popup) Alive() bool {
	return p.surface.alive && !p.Dismissed
}

func (p *Popup) Parent() wl.Surface {
	return p.parent
}

func (p *Popup) WithPendingState(fn func(state *wl.PopupState)) {
	fn(&p.pending)
}

func (p *Popup) Geometry() generaldata.Rect {
	return p.current.Geometry
}

func (p *Popup) SendConfigure() wl.Serial {
	serial := p.surface.client.display.Serials.Next()
	p.current = p.pending
	p.initialSent = true
	p.Configures = append(p.Configures, serial)
	return serial
}

func (p *Popup) InitialConfigureSent() bool {
	return p.initialSent
}

func (p *Popup) SendRepositioned(token uint32) {
	p.Repositioned = append(p.Repositioned, token)
}

func (p *Popup) SendPopupDone() {
	p.Dismissed = true
}

// LayerSurface is an in-process wlr layer surface
type LayerSurface struct {
	surface     *Surface
	namespace   string
	state       wl.LayerSurfaceState
	initialSent bool

	// Sizes of all configures sent, oldest first
	ConfiguredSizes []generaldata.Size
	Closed          bool
}

var _ wl.LayerSurface = (*LayerSurface)(nil)

// CreateLayerSurface creates a layer surface on o and announces it
func (c *Client) CreateLayerSurface(o *output.Output, namespace string, state wl.LayerSurfaceState) *LayerSurface {
	l := &LayerSurface{
		surface:   c.CreateSurface(),
		namespace: namespace,
		state:     state,
	}
	if h := c.display.getHandler(); h != nil {
		h.NewLayerSurface(l, o)
	}
	return l
}

func (l *LayerSurface) ClientSurface() *Surface {
	return l.surface
}

// SetState changes the double buffered state, applied right away
func (l *LayerSurface) SetState(state wl.LayerSurfaceState) {
	l.state = state
}

// AckAndCommit commits a buffer with the last configured size
func (l *LayerSurface) AckAndCommit() {
	size := l.state.DesiredSize
	if n := len(l.ConfiguredSizes); n > 0 && !l.ConfiguredSizes[n-1].IsEmpty() {
		size = l.ConfiguredSizes[n-1]
	}
	l.surface.AttachColor(size, defaultColor(l.surface.id))
	l.surface.Commit()
}

func (l *LayerSurface) Surface() wl.Surface {
	return l.surface
}

func (l *LayerSurface) Alive() bool {
	return l.surface.alive
}

func (l *LayerSurface) Namespace() string {
	return l.namespace
}

func (l *LayerSurface) CurrentState() wl.LayerSurfaceState {
	return l.state
}

func (l *LayerSurface) SendConfigure(size generaldata.Size) wl.Serial {
	l.initialSent = true
	l.ConfiguredSizes = append(l.ConfiguredSizes, size)
	return l.surface.client.display.Serials.Next()
}

func (l *LayerSurface) InitialConfigureSent() bool {
	return l.initialSent
}

func (l *LayerSurface) SendClose() {
	l.Closed = true
}

// Deterministic per-surface color so virtual windows can be told apart
func defaultColor(id wl.ObjectID) color.Color {
	palette := []color.RGBA{
		{R: 0xd0, G: 0x6c, B: 0x6c, A: 0xff},
		{R: 0x6c, G: 0xd0, B: 0x8a, A: 0xff},
		{R: 0x6c, G: 0x8e, B: 0xd0, A: 0xff},
		{R: 0xd0, G: 0xb8, B: 0x6c, A: 0xff},
		{R: 0xa8, G: 0x6c, B: 0xd0, A: 0xff},
	}
	return palette[int(id)%len(palette)]
}
