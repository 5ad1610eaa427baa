package space

import (
	"testing"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutput(name string, w, h int) *output.Output {
	return output.New(name, output.Mode{Size: generaldata.Size{W: w, H: h}, Refresh: 60_000})
}

func newWindow(t *testing.T, client *memwl.Client, size generaldata.Size) (*window.Window, *memwl.Toplevel) {
	t.Helper()
	tl := client.CreateToplevel("test", "test")
	tl.SendConfigure()
	tl.AckAndCommit(size)
	return window.NewWayland(tl), tl
}

func TestMapReportsLocation(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	s := New()
	for _, loc := range []generaldata.Vector2i{{X: 0, Y: 0}, {X: 200, Y: 150}, {X: -40, Y: 7}} {
		w, _ := newWindow(t, client, generaldata.Size{W: 100, H: 100})
		s.Map(w, loc, false)
		got, ok := s.ElementLocation(w)
		require.True(t, ok)
		assert.Equal(t, loc, got)
	}

	w := s.Elements()[0]
	s.Map(w, generaldata.Vector2i{X: 5, Y: 5}, false)
	assert.Len(t, s.Elements(), 3, "a window appears at most once")
	assert.Same(t, w, s.Elements()[2], "mapping again raises")
}

func TestMapActivateDeactivatesOthers(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	s := New()
	a, _ := newWindow(t, client, generaldata.Size{W: 10, H: 10})
	b, _ := newWindow(t, client, generaldata.Size{W: 10, H: 10})

	s.Map(a, generaldata.Vector2i{}, true)
	assert.True(t, a.IsActivated())
	s.Map(b, generaldata.Vector2i{}, true)
	assert.True(t, b.IsActivated())
	assert.False(t, a.IsActivated())

	s.Map(a, generaldata.Vector2i{X: 3}, false)
	assert.True(t, b.IsActivated(), "moving without activation keeps the active window")
}

func TestElementUnderPrefersTopmost(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	s := New()
	bottom, _ := newWindow(t, client, generaldata.Size{W: 100, H: 100})
	top, _ := newWindow(t, client, generaldata.Size{W: 100, H: 100})
	s.Map(bottom, generaldata.Vector2i{X: 0, Y: 0}, false)
	s.Map(top, generaldata.Vector2i{X: 50, Y: 50}, false)

	w, loc, ok := s.ElementUnder(generaldata.Vector2f{X: 60, Y: 60})
	require.True(t, ok)
	assert.Same(t, top, w)
	assert.Equal(t, generaldata.Vector2i{X: 50, Y: 50}, loc)

	w, _, ok = s.ElementUnder(generaldata.Vector2f{X: 10, Y: 10})
	require.True(t, ok)
	assert.Same(t, bottom, w)

	s.RaiseElement(bottom, false)
	w, _, _ = s.ElementUnder(generaldata.Vector2f{X: 60, Y: 60})
	assert.Same(t, bottom, w)

	_, _, ok = s.ElementUnder(generaldata.Vector2f{X: 500, Y: 500})
	assert.False(t, ok)
}

func TestElementsOrderedByZIndex(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	s := New()
	x := client.CreateX11Window(1, "menu", generaldata.NewRect(0, 0, 10, 10))
	x.SetOverrideRedirect(true)
	overlay := window.NewX11(x)
	shell, _ := newWindow(t, client, generaldata.Size{W: 10, H: 10})

	s.Map(overlay, generaldata.Vector2i{}, false)
	s.Map(shell, generaldata.Vector2i{}, false)
	assert.Equal(t, []*window.Window{shell, overlay}, s.Elements())
}

func TestRefreshDropsDeadWindowsAndTracksOutputs(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	s := New()
	left := newOutput("left", 800, 600)
	right := newOutput("right", 800, 600)
	s.MapOutput(left, generaldata.Vector2i{})
	s.MapOutput(right, generaldata.Vector2i{X: 800})

	w, tl := newWindow(t, client, generaldata.Size{W: 100, H: 100})
	s.Map(w, generaldata.Vector2i{X: 750, Y: 10}, false)
	assert.ElementsMatch(t, []*output.Output{left, right}, s.OutputsForElement(w))

	s.Refresh()
	assert.ElementsMatch(t, []*output.Output{left, right}, tl.ClientSurface().Outputs())

	s.Map(w, generaldata.Vector2i{X: 900, Y: 10}, false)
	s.Refresh()
	assert.Equal(t, []*output.Output{right}, tl.ClientSurface().Outputs())

	tl.ClientSurface().Destroy()
	_, ok := s.ElementLocation(w)
	assert.True(t, ok, "dead windows stay until refresh")
	s.Refresh()
	_, ok = s.ElementLocation(w)
	assert.False(t, ok)
	assert.Empty(t, s.Elements())
}

func TestUnmapLeavesOutputs(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	s := New()
	o := newOutput("virtual-1", 800, 600)
	s.MapOutput(o, generaldata.Vector2i{})
	w, tl := newWindow(t, client, generaldata.Size{W: 100, H: 100})
	s.Map(w, generaldata.Vector2i{}, false)
	s.Refresh()
	require.Len(t, tl.ClientSurface().Outputs(), 1)

	s.Unmap(w)
	assert.Empty(t, tl.ClientSurface().Outputs())
	assert.Empty(t, s.Elements())
}

func TestLayerArrangement(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	s := New()
	o := newOutput("virtual-1", 1000, 800)
	s.MapOutput(o, generaldata.Vector2i{X: 100})

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
	lm := LayerMapFor(o)
	lm.Map(bar)
	lm.Map(wallpaper)

	geo, ok := lm.LayerGeometry(bar)
	require.True(t, ok)
	assert.Equal(t, generaldata.NewRect(0, 0, 1000, 30), geo)
	geo, _ = lm.LayerGeometry(wallpaper)
	assert.Equal(t, generaldata.NewRect(0, 0, 1000, 800), geo, "ignoring exclusive zones covers the whole output")

	zone, ok := s.NonExclusiveZone(o)
	require.True(t, ok)
	assert.Equal(t, generaldata.NewRect(100, 30, 1000, 770), zone)

	bar.SendConfigure(lm.ConfiguredSize(bar))
	bar.AckAndCommit()
	l, loc, ok := s.LayerUnder(generaldata.Vector2f{X: 150, Y: 10}, wl.LayerOverlay, wl.LayerTop)
	require.True(t, ok)
	assert.Equal(t, bar, l)
	assert.Equal(t, generaldata.Vector2i{X: 100, Y: 0}, loc)

	found, foundOn, ok := s.LayerForSurface(bar.Surface())
	require.True(t, ok)
	assert.Equal(t, bar, found)
	assert.Same(t, o, foundOn)

	bar.ClientSurface().Destroy()
	s.Refresh()
	zone, _ = s.NonExclusiveZone(o)
	assert.Equal(t, generaldata.NewRect(100, 0, 1000, 800), zone)
}

func TestLayerReconfiguredOnResize(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	o := newOutput("virtual-1", 1000, 800)
	panel := client.CreateLayerSurface(o, "panel", wl.LayerSurfaceState{
		Layer:       wl.LayerTop,
		Anchor:      wl.AnchorBottom | wl.AnchorLeft | wl.AnchorRight,
		DesiredSize: generaldata.Size{H: 40},
	})
	lm := LayerMapFor(o)
	lm.Map(panel)
	assert.Empty(t, panel.ConfiguredSizes, "nothing is sent before the initial configure")
	panel.SendConfigure(lm.ConfiguredSize(panel))

	o.ChangeState(&output.Mode{Size: generaldata.Size{W: 1200, H: 800}, Refresh: 60_000}, nil)
	lm.Refresh()
	require.Len(t, panel.ConfiguredSizes, 2)
	assert.Equal(t, generaldata.Size{W: 1200, H: 40}, panel.ConfiguredSizes[1])
	geo, _ := lm.LayerGeometry(panel)
	assert.Equal(t, generaldata.NewRect(0, 760, 1200, 40), geo)
}
