package memwl

import (
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// Toplevel is an in-process xdg toplevel
type Toplevel struct {
	surface *Surface
	title   string
	appID   string

	pending     wl.ToplevelState
	lastSent    *wl.ToplevelState
	initialSent bool
	// sent but not yet acked, oldest first
	unacked []wl.ToplevelConfigure
	acked   *wl.ToplevelConfigure
	current wl.ToplevelState

	geometry *generaldata.Rect
	minSize  generaldata.Size
	maxSize  generaldata.Size

	// Every configure sent to the client, oldest first
	Configures []wl.ToplevelConfigure
	Closed     bool
}

var _ wl.Toplevel = (*Toplevel)(nil)

// CreateToplevel creates a surface with the toplevel role and announces it
func (c *Client) CreateToplevel(title, appID string) *Toplevel {
	t := &Toplevel{
		surface: c.CreateSurface(),
		title:   title,
		appID:   appID,
	}
	t.surface.roleCommit = t.applyAcked
	if h := c.display.getHandler(); h != nil {
		h.NewToplevel(t)
	}
	return t
}

func (t *Toplevel) applyAcked() {
	if t.acked == nil {
		return
	}
	t.current = t.acked.State
	t.acked = nil
}

// ClientSurface is the concrete surface for client side calls
func (t *Toplevel) ClientSurface() *Surface {
	return t.surface
}

// LastConfigure is the newest configure the compositor sent
func (t *Toplevel) LastConfigure() (wl.ToplevelConfigure, bool) {
	if len(t.Configures) == 0 {
		return wl.ToplevelConfigure{}, false
	}
	return t.Configures[len(t.Configures)-1], true
}

// AckConfigure acknowledges the configure with the given serial and all older ones
func (t *Toplevel) AckConfigure(serial wl.Serial) {
	for i, c := range t.unacked {
		if c.Serial != serial {
			continue
		}
		conf := c
		t.acked = &conf
		t.unacked = t.unacked[i+1:]
		if h := t.surface.client.display.getHandler(); h != nil {
			h.AckConfigure(t.surface, conf)
		}
		return
	}
	logrus.WithField("serial", serial).Warnln("Client acked an unknown configure")
}

// HasUnackedConfigure reports whether the compositor sent something the client did not answer yet
func (t *Toplevel) HasUnackedConfigure() bool {
	return len(t.unacked) > 0
}

// AckAndCommit acks the newest configure and commits a buffer matching the configured size.
// If the configure leaves the size to the client, fallback is used
func (t *Toplevel) AckAndCommit(fallback generaldata.Size) {
	size := fallback
	if conf, ok := t.LastConfigure(); ok {
		t.AckConfigure(conf.Serial)
		if conf.State.Size != nil && !conf.State.Size.IsEmpty() {
			size = *conf.State.Size
		}
	}
	t.surface.AttachColor(size, defaultColor(t.surface.id))
	t.surface.Frame()
	t.surface.Commit()
}

func (t *Toplevel) SetGeometry(r *generaldata.Rect) {
	t.geometry = r
}

func (t *Toplevel) SetMinSize(s generaldata.Size) {
	t.minSize = s
}

func (t *Toplevel) SetMaxSize(s generaldata.Size) {
	t.maxSize = s
}

func (t *Toplevel) RequestMove(serial wl.Serial) {
	if h := t.surface.client.display.getHandler(); h != nil {
		h.MoveRequest(t, serial)
	}
}

func (t *Toplevel) RequestResize(serial wl.Serial, edges wl.Edges) {
	if h := t.surface.client.display.getHandler(); h != nil {
		h.ResizeRequest(t, serial, edges)
	}
}

func (t *Toplevel) RequestMaximize(maximize bool) {
	h := t.surface.client.display.getHandler()
	if h == nil {
		return
	}
	if maximize {
		h.MaximizeRequest(t)
	} else {
		h.UnmaximizeRequest(t)
	}
}

func (t *Toplevel) RequestFullscreen(fullscreen bool, o *output.Output) {
	h := t.surface.client.display.getHandler()
	if h == nil {
		return
	}
	if fullscreen {
		h.FullscreenRequest(t, o)
	} else {
		h.UnfullscreenRequest(t)
	}
}

// CreateDecoration binds an xdg decoration object for the toplevel
func (t *Toplevel) CreateDecoration() {
	if h := t.surface.client.display.getHandler(); h != nil {
		h.NewDecoration(t)
	}
}

func (t *Toplevel) RequestDecorationMode(mode wl.DecorationMode) {
	h := t.surface.client.display.getHandler()
	if h == nil {
		return
	}
	if mode == wl.DecorationUnset {
		h.UnsetDecorationMode(t)
	} else {
		h.RequestDecorationMode(t, mode)
	}
}

// RequestActivation asks to be focused using a token
func (t *Toplevel) RequestActivation(token string) {
	if h := t.surface.client.display.getHandler(); h != nil {
		h.RequestActivation(token, t.surface)
	}
}

func (t *Toplevel) Surface() wl.Surface {
	return t.surface
}

func (t *Toplevel) Alive() bool {
	return t.surface.alive
}

func (t *Toplevel) Title() string {
	return t.title
}

func (t *Toplevel) AppID() string {
	return t.appID
}

func (t *Toplevel) WithPendingState(fn func(state *wl.ToplevelState)) {
	fn(&t.pending)
}

// PendingState is what the next configure will carry
func (t *Toplevel) PendingState() wl.ToplevelState {
	return t.pending
}

func (t *Toplevel) CurrentState() wl.ToplevelState {
	return t.current
}

func (t *Toplevel) SendConfigure() (wl.Serial, bool) {
	if !t.surface.alive {
		return 0, false
	}
	if t.initialSent && t.lastSent != nil && statesEqual(*t.lastSent, t.pending) {
		return 0, false
	}
	serial := t.surface.client.display.Serials.Next()
	state := copyState(t.pending)
	t.lastSent = &state
	t.initialSent = true
	conf := wl.ToplevelConfigure{Serial: serial, State: copyState(state)}
	t.unacked = append(t.unacked, conf)
	t.Configures = append(t.Configures, conf)
	return serial, true
}

func (t *Toplevel) InitialConfigureSent() bool {
	return t.initialSent
}

func (t *Toplevel) Geometry() generaldata.Rect {
	if t.geometry != nil {
		return *t.geometry
	}
	return wl.BBoxFromSurfaceTree(t.surface, generaldata.Vector2i{})
}

func (t *Toplevel) MinSize() generaldata.Size {
	return t.minSize
}

func (t *Toplevel) MaxSize() generaldata.Size {
	return t.maxSize
}

func (t *Toplevel) SendClose() {
	t.Closed = true
}

func copyState(s wl.ToplevelState) wl.ToplevelState {
	res := s
	if s.Size != nil {
		size := *s.Size
		res.Size = &size
	}
	return res
}

func statesEqual(a, b wl.ToplevelState) bool {
	if a.States != b.States || a.FullscreenOutput != b.FullscreenOutput || a.DecorationMode != b.DecorationMode {
		return false
	}
	if (a.Size == nil) != (b.Size == nil) {
		return false
	}
	return a.Size == nil || *a.Size == *b.Size
}
