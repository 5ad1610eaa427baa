package grabs

import (
	"testing"

	"github.com/mstarongithub/wayspace/focus"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitRouter forwards the requests the resize handshake depends on.
// Everything else is never called by these tests
type commitRouter struct {
	memwl.RequestHandler
	states  *ResizeStates
	space   *space.Space
	windows []*window.Window
}

func (r *commitRouter) windowFor(s wl.Surface) *window.Window {
	for _, w := range r.windows {
		if w.WlSurface() == s {
			return w
		}
	}
	return nil
}

func (r *commitRouter) NewToplevel(wl.Toplevel) {}

func (r *commitRouter) NewPopup(wl.Popup, wl.PositionerState) {}

func (r *commitRouter) Commit(s wl.Surface) {
	if w := r.windowFor(s); w != nil {
		r.states.HandleCommit(r.space, w)
	}
}

func (r *commitRouter) AckConfigure(s wl.Surface, conf wl.ToplevelConfigure) {
	if w := r.windowFor(s); w != nil {
		r.states.AckConfigure(w, conf)
	}
}

type fixture struct {
	display *memwl.Display
	client  *memwl.Client
	seat    *seat.Seat
	space   *space.Space
	states  *ResizeStates
	router  *commitRouter
}

func newFixture() *fixture {
	display := memwl.NewDisplay(nil)
	f := &fixture{
		display: display,
		client:  display.NewClient(),
		seat:    seat.New("seat0", display.Serials),
		space:   space.New(),
		states:  NewResizeStates(),
	}
	f.router = &commitRouter{states: f.states, space: f.space}
	return f
}

func (f *fixture) toplevel(t *testing.T, loc generaldata.Vector2i, size generaldata.Size) (*window.Window, *memwl.Toplevel) {
	t.Helper()
	tl := f.client.CreateToplevel("test", "test")
	tl.SendConfigure()
	tl.AckAndCommit(size)
	w := window.NewWayland(tl)
	f.router.windows = append(f.router.windows, w)
	f.display.SetHandler(f.router)
	f.space.Map(w, loc, true)
	return w, tl
}

func (f *fixture) move(x, y float64) {
	f.seat.Pointer().Motion(nil, &wl.MotionEvent{Location: generaldata.Vector2f{X: x, Y: y}, Serial: f.seat.NextSerial()})
}

func (f *fixture) press() wl.Serial {
	serial := f.seat.NextSerial()
	f.seat.Pointer().Button(&wl.ButtonEvent{Serial: serial, Button: wl.BtnLeft, State: wl.ButtonPressed})
	return serial
}

func (f *fixture) release() wl.Serial {
	serial := f.seat.NextSerial()
	f.seat.Pointer().Button(&wl.ButtonEvent{Serial: serial, Button: wl.BtnLeft, State: wl.ButtonReleased})
	return serial
}

func (f *fixture) startResize(w *window.Window, edges wl.Edges) *ResizeSurfaceGrab {
	serial := f.press()
	start, _ := f.seat.Pointer().GrabStartData()
	loc, _ := f.space.ElementLocation(w)
	grab := NewResizeSurfaceGrab(start, w, edges, generaldata.Rect{Loc: loc, Size: w.Geometry().Size}, f.space, f.states)
	f.seat.Pointer().SetGrab(grab, serial, seat.FocusClear)
	return grab
}

func TestMoveGrabScenario(t *testing.T) {
	f := newFixture()
	w, _ := f.toplevel(t, generaldata.Vector2i{X: 200, Y: 150}, generaldata.Size{W: 100, H: 100})

	f.move(50, 50)
	serial := f.press()
	start, ok := f.seat.Pointer().GrabStartData()
	require.True(t, ok)
	f.seat.Pointer().SetGrab(NewMoveSurfaceGrab(start, w, generaldata.Vector2i{X: 200, Y: 150}, f.space), serial, seat.FocusClear)

	f.move(60, 45)
	f.move(80, 20)
	loc, _ := f.space.ElementLocation(w)
	assert.Equal(t, generaldata.Vector2i{X: 230, Y: 120}, loc)

	f.release()
	assert.False(t, f.seat.Pointer().IsGrabbed())
	f.move(300, 300)
	loc, _ = f.space.ElementLocation(w)
	assert.Equal(t, generaldata.Vector2i{X: 230, Y: 120}, loc, "no movement after release")
}

func TestMoveGrabDoesNotAccumulate(t *testing.T) {
	f := newFixture()
	w, _ := f.toplevel(t, generaldata.Vector2i{X: 10, Y: 10}, generaldata.Size{W: 100, H: 100})
	f.move(0, 0)
	serial := f.press()
	start, _ := f.seat.Pointer().GrabStartData()
	f.seat.Pointer().SetGrab(NewMoveSurfaceGrab(start, w, generaldata.Vector2i{X: 10, Y: 10}, f.space), serial, seat.FocusClear)

	for i := 0; i < 100; i++ {
		f.move(float64(i)*0.3, -float64(i)*0.7)
	}
	f.move(12.4, -7.6)
	loc, _ := f.space.ElementLocation(w)
	assert.Equal(t, generaldata.Vector2i{X: 22, Y: 2}, loc)
}

func TestResizeGrabLeftEdgeScenario(t *testing.T) {
	f := newFixture()
	w, tl := f.toplevel(t, generaldata.Vector2i{X: 100, Y: 100}, generaldata.Size{W: 400, H: 300})

	f.move(100, 150)
	grab := f.startResize(w, wl.EdgeLeft)
	assert.Equal(t, ResizeResizing, f.states.Get(w.WlSurface()).Phase())

	f.move(50, 150)
	assert.Equal(t, generaldata.Size{W: 450, H: 300}, grab.LastSize())
	conf, ok := tl.LastConfigure()
	require.True(t, ok)
	assert.True(t, conf.State.States.Contains(wl.StateResizing))
	assert.Equal(t, generaldata.Size{W: 450, H: 300}, *conf.State.Size)

	tl.AckAndCommit(generaldata.Size{})
	loc, _ := f.space.ElementLocation(w)
	assert.Equal(t, generaldata.Vector2i{X: 50, Y: 100}, loc, "right edge stays where it was")

	releaseSerial := f.release()
	state := f.states.Get(w.WlSurface())
	require.Equal(t, ResizeWaitingForFinalAck, state.Phase())
	assert.Equal(t, releaseSerial, state.serial)
	final, _ := tl.LastConfigure()
	assert.False(t, final.State.States.Contains(wl.StateResizing))

	tl.AckAndCommit(generaldata.Size{})
	assert.Equal(t, ResizeIdle, state.Phase())
	loc, _ = f.space.ElementLocation(w)
	assert.Equal(t, generaldata.Vector2i{X: 50, Y: 100}, loc)
	assert.False(t, f.seat.Pointer().IsGrabbed())
}

func TestResizeRightEdgeKeepsLocation(t *testing.T) {
	f := newFixture()
	w, tl := f.toplevel(t, generaldata.Vector2i{X: 100, Y: 100}, generaldata.Size{W: 400, H: 300})
	f.move(500, 300)
	f.startResize(w, wl.EdgeBottomRight)
	f.move(530, 340)
	tl.AckAndCommit(generaldata.Size{})
	f.release()
	tl.AckAndCommit(generaldata.Size{})

	loc, _ := f.space.ElementLocation(w)
	assert.Equal(t, generaldata.Vector2i{X: 100, Y: 100}, loc)
	assert.Equal(t, generaldata.Size{W: 430, H: 340}, w.Geometry().Size)
}

func TestResizeClampsPerAxis(t *testing.T) {
	f := newFixture()
	w, tl := f.toplevel(t, generaldata.Vector2i{}, generaldata.Size{W: 200, H: 200})
	tl.SetMinSize(generaldata.Size{W: 50, H: 50})
	tl.SetMaxSize(generaldata.Size{W: 500})

	f.move(200, 200)
	grab := f.startResize(w, wl.EdgeBottomRight)
	for _, tc := range []struct {
		x, y float64
		want generaldata.Size
	}{
		{10000, 10000, generaldata.Size{W: 500, H: 10000}},
		{-10000, -10000, generaldata.Size{W: 50, H: 50}},
		{250, 150, generaldata.Size{W: 250, H: 150}},
	} {
		f.move(tc.x, tc.y)
		assert.Equal(t, tc.want, grab.LastSize())
	}
}

func TestResizeGrabEndsWhenWindowDies(t *testing.T) {
	f := newFixture()
	w, tl := f.toplevel(t, generaldata.Vector2i{}, generaldata.Size{W: 200, H: 200})
	f.move(200, 200)
	f.startResize(w, wl.EdgeRight)
	configures := len(tl.Configures)

	tl.ClientSurface().Destroy()
	f.move(250, 200)
	assert.False(t, f.seat.Pointer().IsGrabbed())
	assert.Len(t, tl.Configures, configures)
}

func TestResizeX11AnchorsAtCommit(t *testing.T) {
	f := newFixture()
	x := f.client.CreateX11Window(3, "xterm", generaldata.NewRect(100, 100, 400, 300))
	x.CommitBuffer()
	w := window.NewX11(x)
	f.router.windows = append(f.router.windows, w)
	f.display.SetHandler(f.router)
	f.space.Map(w, generaldata.Vector2i{X: 100, Y: 100}, false)

	f.move(100, 100)
	f.startResize(w, wl.EdgeTopLeft)
	f.move(80, 90)
	assert.Equal(t, generaldata.NewRect(100, 100, 420, 310), x.Geometry(), "motion keeps the location")

	x.CommitBuffer()
	loc, _ := f.space.ElementLocation(w)
	assert.Equal(t, generaldata.Vector2i{X: 80, Y: 90}, loc)
	assert.Equal(t, generaldata.NewRect(80, 90, 420, 310), x.Geometry())

	f.release()
	state := f.states.Get(w.WlSurface())
	assert.Equal(t, ResizeWaitingForCommit, state.Phase(), "no ack handshake for X11")
	x.CommitBuffer()
	assert.Equal(t, ResizeIdle, state.Phase())
}

func TestResizeStateMachine(t *testing.T) {
	data := ResizeData{Edges: wl.EdgeLeft, InitialRect: generaldata.NewRect(1, 2, 3, 4)}

	var s ResizeState
	_, ok := s.Commit()
	assert.False(t, ok, "idle never yields")

	s.Start(data)
	got, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, data, got)
	assert.Equal(t, ResizeResizing, s.Phase(), "commits during the drag keep resizing")

	require.True(t, s.Release(true, 10))
	_, ok = s.Commit()
	assert.False(t, ok, "waiting for the ack")
	assert.False(t, s.AckConfigure(9, true), "older serials don't count")
	assert.False(t, s.AckConfigure(11, false), "the surface must still show resizing")
	assert.True(t, s.AckConfigure(11, true))

	got, ok = s.Commit()
	require.True(t, ok)
	assert.Equal(t, data, got)
	assert.Equal(t, ResizeIdle, s.Phase())
	_, ok = s.Commit()
	assert.False(t, ok)

	assert.False(t, s.Release(true, 12), "releasing while idle is rejected")
}

func TestResizeStatesSlots(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	a := client.CreateSurface()
	b := client.CreateSurface()
	states := NewResizeStates()

	assert.Equal(t, ResizeIdle, states.Get(a).Phase())
	states.Get(a).Start(ResizeData{Edges: wl.EdgeTop})
	assert.Equal(t, ResizeResizing, states.Get(a).Phase())
	assert.Equal(t, ResizeIdle, states.Get(b).Phase())
	assert.Same(t, states.Get(a), states.Get(a))

	b.Destroy()
	states.Refresh()
	assert.Equal(t, 1, states.Len())
}

func TestPopupGrabDismissesOnOutsideClick(t *testing.T) {
	f := newFixture()
	w, tl := f.toplevel(t, generaldata.Vector2i{}, generaldata.Size{W: 200, H: 200})
	popup := f.client.CreatePopup(tl.ClientSurface(), wl.PositionerState{})
	popup.WithPendingState(func(state *wl.PopupState) { state.Geometry = generaldata.NewRect(10, 10, 50, 50) })
	popup.SendConfigure()
	popup.AckAndCommit()

	root := focus.Window(w)
	f.seat.Keyboard().SetFocus(root, f.seat.NextSerial())
	serial := f.press()
	f.release()

	grab := NewPopupGrab(f.seat, root, popup, serial)
	grab.Install()
	assert.Equal(t, focus.Popup(popup), f.seat.Keyboard().CurrentFocus())
	f.seat.Keyboard().SetFocus(root, f.seat.NextSerial())
	assert.Equal(t, focus.Popup(popup), f.seat.Keyboard().CurrentFocus(), "focus changes are ignored while grabbed")

	f.seat.Keyboard().Input(30, wl.KeyPressed, f.seat.NextSerial(), 0, nil)
	assert.Equal(t, 1, popup.ClientSurface().CountEvents(memwl.EventKeyboardKey))

	f.move(900, 900)
	f.press()
	assert.True(t, popup.Dismissed)
	assert.False(t, f.seat.Pointer().IsGrabbed())
	assert.False(t, f.seat.Keyboard().IsGrabbed())
	assert.Equal(t, root, f.seat.Keyboard().CurrentFocus())
}
