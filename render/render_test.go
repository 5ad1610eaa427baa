package render

import (
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{R: 0xff, A: 0xff}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func newBuffer(w, h int) *SoftwareRenderer {
	return NewSoftwareRenderer(image.NewRGBA(image.Rect(0, 0, w, h)))
}

func surfaceID(s wl.Surface) ElementID {
	return ElementID(fmt.Sprintf("surface-%d", uint32(s.ID())))
}

func newWindow(t *testing.T, client *memwl.Client, size generaldata.Size) (*window.Window, *memwl.Toplevel) {
	t.Helper()
	tl := client.CreateToplevel("test", "test")
	tl.SendConfigure()
	tl.AckAndCommit(size)
	return window.NewWayland(tl), tl
}

func TestDamageTrackerOnlyRedrawsChanges(t *testing.T) {
	img := solid(10, 10, red)
	r := newBuffer(100, 100)
	tracker := NewDamageTracker()

	el := NewImageElement("a", img, generaldata.NewRect(10, 10, 10, 10), 0)
	res, err := tracker.Render(r, 0, []Element{el}, ClearColor)
	require.NoError(t, err)
	assert.Equal(t, []generaldata.Rect{generaldata.NewRect(0, 0, 100, 100)}, res.Damage, "unknown buffer content is drawn in full")
	assert.Equal(t, red, r.Buffer().RGBAAt(15, 15))
	assert.Equal(t, ClearColor, r.Buffer().RGBAAt(50, 50))

	res, err = tracker.Render(r, 1, []Element{el}, ClearColor)
	require.NoError(t, err)
	assert.Nil(t, res.Damage, "nothing changed")

	moved := NewImageElement("a", img, generaldata.NewRect(30, 10, 10, 10), 0)
	res, err = tracker.Render(r, 1, []Element{moved}, ClearColor)
	require.NoError(t, err)
	assert.ElementsMatch(t, []generaldata.Rect{
		generaldata.NewRect(10, 10, 10, 10),
		generaldata.NewRect(30, 10, 10, 10),
	}, res.Damage)
	assert.Equal(t, ClearColor, r.Buffer().RGBAAt(15, 15))
	assert.Equal(t, red, r.Buffer().RGBAAt(35, 15))

	res, err = tracker.Render(r, 2, []Element{moved}, ClearColor)
	require.NoError(t, err)
	assert.ElementsMatch(t, []generaldata.Rect{
		generaldata.NewRect(10, 10, 10, 10),
		generaldata.NewRect(30, 10, 10, 10),
	}, res.Damage, "an older buffer also needs the damage of the frames it missed")

	res, err = tracker.Render(r, maxDamageHistory+2, []Element{moved}, ClearColor)
	require.NoError(t, err)
	assert.Equal(t, []generaldata.Rect{generaldata.NewRect(0, 0, 100, 100)}, res.Damage, "too old for the history")
}

func TestDamageTrackerCommitAndOrder(t *testing.T) {
	r := newBuffer(100, 100)
	tracker := NewDamageTracker()
	a := NewImageElement("a", solid(20, 20, red), generaldata.NewRect(0, 0, 20, 20), 0)
	b := NewImageElement("b", solid(20, 20, color.White), generaldata.NewRect(10, 10, 20, 20), 0)

	_, err := tracker.Render(r, 0, []Element{a, b}, ClearColor)
	require.NoError(t, err)

	res, err := tracker.Render(r, 1, []Element{b, a}, ClearColor)
	require.NoError(t, err)
	assert.ElementsMatch(t, []generaldata.Rect{a.Geometry(), b.Geometry()}, res.Damage, "restacking damages both")
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, r.Buffer().RGBAAt(15, 15), "b is on top now")

	recommitted := NewImageElement("a", solid(20, 20, red), a.Geometry(), 1)
	res, err = tracker.Render(r, 1, []Element{b, recommitted}, ClearColor)
	require.NoError(t, err)
	assert.Equal(t, []generaldata.Rect{a.Geometry()}, res.Damage)
}

func TestSoftwareRendererScalesIntoDamage(t *testing.T) {
	r := newBuffer(8, 8)
	err := r.DrawImage(solid(2, 2, red), generaldata.NewRect(0, 0, 4, 4), []generaldata.Rect{generaldata.NewRect(0, 0, 2, 4)})
	require.NoError(t, err)

	inside := r.Buffer().RGBAAt(1, 1)
	assert.GreaterOrEqual(t, inside.R, uint8(0xf0))
	assert.LessOrEqual(t, inside.G, uint8(0x0f))
	assert.Equal(t, color.RGBA{}, r.Buffer().RGBAAt(3, 1), "outside the damage stays untouched")

	assert.ErrorIs(t, NewSoftwareRenderer(nil).Clear(ClearColor, nil), ErrNoBuffer)
}

func TestRenderOutputFullscreenOnlyDrawsThatWindow(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	sp := space.New()
	o := output.New("virtual-1", output.Mode{Size: generaldata.Size{W: 200, H: 100}, Refresh: 60_000})
	sp.MapOutput(o, generaldata.Vector2i{})

	fs, _ := newWindow(t, client, generaldata.Size{W: 100, H: 100})
	other, _ := newWindow(t, client, generaldata.Size{W: 50, H: 50})
	sp.Map(fs, generaldata.Vector2i{X: 30, Y: 0}, false)
	sp.Map(other, generaldata.Vector2i{X: 150, Y: 0}, false)
	window.FullscreenSurfaceOf(o).Set(fs)

	tracker := NewDamageTracker()
	r := newBuffer(200, 100)
	res, err := RenderOutput(o, sp, nil, r, tracker, 0, ClearColor)
	require.NoError(t, err)
	st, ok := res.States.ElementState(fs.WlSurface().ID())
	require.True(t, ok)
	assert.Equal(t, 100*100, st.VisibleArea)
	_, ok = res.States.ElementState(other.WlSurface().ID())
	assert.False(t, ok, "the fullscreen path skips everything else")
	assert.Equal(t, ClearColor, r.Buffer().RGBAAt(110, 10), "drawn at the output origin")

	window.FullscreenSurfaceOf(o).Clear()
	res, err = RenderOutput(o, sp, nil, r, tracker, 0, ClearColor)
	require.NoError(t, err)
	st, ok = res.States.ElementState(other.WlSurface().ID())
	require.True(t, ok)
	assert.Equal(t, 50*50, st.VisibleArea)
}

func TestOutputElementsOrder(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	sp := space.New()
	o := output.New("virtual-1", output.Mode{Size: generaldata.Size{W: 1000, H: 800}, Refresh: 60_000})
	sp.MapOutput(o, generaldata.Vector2i{})

	bar := client.CreateLayerSurface(o, "bar", wl.LayerSurfaceState{
		Layer:         wl.LayerTop,
		Anchor:        wl.AnchorTop | wl.AnchorLeft | wl.AnchorRight,
		ExclusiveZone: 30,
		DesiredSize:   generaldata.Size{H: 30},
	})
	wallpaper := client.CreateLayerSurface(o, "wallpaper", wl.LayerSurfaceState{
		Layer:         wl.LayerBackground,
		Anchor:        wl.AnchorTop | wl.AnchorBottom | wl.AnchorLeft | wl.AnchorRight,
		ExclusiveZone: -1,
	})
	lm := space.LayerMapFor(o)
	lm.Map(wallpaper)
	lm.Map(bar)
	for _, l := range []*memwl.LayerSurface{bar, wallpaper} {
		l.SendConfigure(lm.ConfiguredSize(l))
		l.AckAndCommit()
	}

	w, _ := newWindow(t, client, generaldata.Size{W: 50, H: 50})
	sp.Map(w, generaldata.Vector2i{X: 10, Y: 40}, false)

	cursor := PointerElements(CursorStatus{Kind: CursorDefault}, generaldata.Vector2i{X: 5, Y: 5}, 1)
	ids := []ElementID{}
	for _, e := range OutputElements(o, sp, cursor) {
		ids = append(ids, e.ID())
	}
	assert.Equal(t, []ElementID{
		"default-cursor",
		surfaceID(bar.Surface()),
		surfaceID(w.WlSurface()),
		surfaceID(wallpaper.Surface()),
	}, ids)

	assert.Empty(t, PointerElements(CursorStatus{Kind: CursorHidden}, generaldata.Vector2i{}, 1))
}

func TestPostRepaintFramesAndFeedback(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	sp := space.New()
	o := output.New("virtual-1", output.Mode{Size: generaldata.Size{W: 200, H: 100}, Refresh: 60_000})
	scale := 2.0
	o.ChangeState(nil, &scale)
	sp.MapOutput(o, generaldata.Vector2i{})

	tl := client.CreateToplevel("test", "test")
	tl.SendConfigure()
	fb := tl.ClientSurface().Feedback()
	tl.AckAndCommit(generaldata.Size{W: 40, H: 40})
	w := window.NewWayland(tl)
	sp.Map(w, generaldata.Vector2i{}, true)

	offscreen, offTl := newWindow(t, client, generaldata.Size{W: 40, H: 40})
	sp.Map(offscreen, generaldata.Vector2i{X: 500, Y: 500}, false)

	res, err := RenderOutput(o, sp, nil, newBuffer(200, 100), NewDamageTracker(), 0, ClearColor)
	require.NoError(t, err)
	st, ok := res.States.ElementState(tl.Surface().ID())
	require.True(t, ok)
	assert.Equal(t, 80*80, st.VisibleArea, "visible area is counted in physical pixels")

	now := 16 * time.Millisecond
	PostRepaint(o, sp, res.States, now, DefaultFrameThrottle)
	s := tl.ClientSurface()
	assert.Same(t, o, s.Data().PrimaryScanoutOutput())
	assert.Equal(t, 2.0, s.Data().PreferredScale)
	assert.Equal(t, 1, s.FramesDone)
	assert.Equal(t, 0, offTl.ClientSurface().FramesDone)

	feedback := TakePresentationFeedback(o, sp, res.States)
	require.Equal(t, 1, feedback.Len())
	feedback.Presented(now, o.CurrentMode().Refresh, 0, wl.PresentationVsync)
	assert.True(t, fb.Done)
	assert.False(t, fb.Discard)
	assert.Equal(t, wl.PresentationVsync, fb.Kind)
	assert.Equal(t, 60_000, fb.Refresh)
	assert.Same(t, o, fb.Output)
}
