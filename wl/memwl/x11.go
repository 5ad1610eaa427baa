package memwl

import (
	"github.com/pkg/errors"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/wl"
)

var ErrWindowGone = errors.New("x11 window destroyed")

// X11Window stands in for a window managed over X11
type X11Window struct {
	id               uint32
	surface          *Surface
	title            string
	overrideRedirect bool
	alive            bool

	geometry   generaldata.Rect
	minSize    generaldata.Size
	maxSize    generaldata.Size
	activated  bool
	maximized  bool
	fullscreen bool

	// Every rectangle the window was configured to, oldest first
	Configures []generaldata.Rect
	Closed     bool
}

var _ wl.X11Surface = (*X11Window)(nil)

// CreateX11Window creates an X11 window backed by a surface of the client
func (c *Client) CreateX11Window(id uint32, title string, geometry generaldata.Rect) *X11Window {
	return &X11Window{
		id:       id,
		surface:  c.CreateSurface(),
		title:    title,
		alive:    true,
		geometry: geometry,
	}
}

func (x *X11Window) ClientSurface() *Surface {
	return x.surface
}

func (x *X11Window) SetOverrideRedirect(v bool) {
	x.overrideRedirect = v
}

func (x *X11Window) SetSizeHints(minSize, maxSize generaldata.Size) {
	x.minSize = minSize
	x.maxSize = maxSize
}

// CommitBuffer attaches a buffer matching the configured size and commits it
func (x *X11Window) CommitBuffer() {
	x.surface.AttachColor(x.geometry.Size, defaultColor(x.surface.id))
	x.surface.Commit()
}

func (x *X11Window) Destroy() {
	x.alive = false
	x.surface.Destroy()
}

func (x *X11Window) WindowID() uint32 {
	return x.id
}

func (x *X11Window) Surface() wl.Surface {
	if x.surface == nil {
		return nil
	}
	return x.surface
}

func (x *X11Window) Alive() bool {
	return x.alive
}

func (x *X11Window) Title() string {
	return x.title
}

func (x *X11Window) OverrideRedirect() bool {
	return x.overrideRedirect
}

func (x *X11Window) Geometry() generaldata.Rect {
	return x.geometry
}

func (x *X11Window) MinSize() generaldata.Size {
	return x.minSize
}

func (x *X11Window) MaxSize() generaldata.Size {
	return x.maxSize
}

func (x *X11Window) Configure(rect generaldata.Rect) error {
	if !x.alive {
		return ErrWindowGone
	}
	x.geometry = rect
	x.Configures = append(x.Configures, rect)
	return nil
}

func (x *X11Window) SetActivated(activated bool) error {
	if !x.alive {
		return ErrWindowGone
	}
	x.activated = activated
	return nil
}

func (x *X11Window) Activated() bool {
	return x.activated
}

func (x *X11Window) SetMaximized(maximized bool) error {
	if !x.alive {
		return ErrWindowGone
	}
	x.maximized = maximized
	return nil
}

func (x *X11Window) SetFullscreen(fullscreen bool) error {
	if !x.alive {
		return ErrWindowGone
	}
	x.fullscreen = fullscreen
	return nil
}

func (x *X11Window) IsMaximized() bool {
	return x.maximized
}

func (x *X11Window) IsFullscreen() bool {
	return x.fullscreen
}

func (x *X11Window) Close() error {
	x.Closed = true
	return nil
}
