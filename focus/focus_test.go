package focus

import (
	"testing"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/stretchr/testify/assert"
)

func TestDispatchReachesExactlyOneReceiver(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	tl := client.CreateToplevel("term", "term")
	popup := client.CreatePopup(tl.ClientSurface(), wl.PositionerState{})
	layer := client.CreateLayerSurface(nil, "bar", wl.LayerSurfaceState{Layer: wl.LayerTop})

	targets := []Target{
		Window(window.NewWayland(tl)),
		Popup(popup),
		LayerSurface(layer),
	}
	surfaces := []*memwl.Surface{tl.ClientSurface(), popup.ClientSurface(), layer.ClientSurface()}

	for i, target := range targets {
		target.PointerEnter(&wl.MotionEvent{Location: generaldata.Vector2f{X: 1, Y: 2}, Serial: wl.Serial(i + 1)})
		target.KeyboardKey(30, wl.KeyPressed, wl.Serial(i+1), 0)
		for j, s := range surfaces {
			want := 0
			if i == j {
				want = 1
			}
			assert.Equal(t, want, s.CountEvents(memwl.EventPointerEnter), "target %s surface %d", target, j)
			assert.Equal(t, want, s.CountEvents(memwl.EventKeyboardKey), "target %s surface %d", target, j)
		}
		for _, s := range surfaces {
			s.Events = nil
		}
	}
}

func TestNoneTarget(t *testing.T) {
	var target Target
	assert.True(t, target.IsNone())
	assert.False(t, target.Alive())
	assert.Nil(t, target.WlSurface())
	assert.True(t, Window(nil).IsNone())
	assert.NotPanics(t, func() {
		target.PointerButton(&wl.ButtonEvent{Button: wl.BtnLeft, State: wl.ButtonPressed})
		target.KeyboardLeave(1)
	})
}

func TestTargetsCompareByObject(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	w := window.NewWayland(client.CreateToplevel("a", "a"))
	other := window.NewWayland(client.CreateToplevel("b", "b"))

	assert.Equal(t, Window(w), Window(w))
	assert.True(t, Window(w) == Window(w))
	assert.False(t, Window(w) == Window(other))
	assert.True(t, Window(w).SameClientAs(client.ID()))
	assert.False(t, Window(w).SameClientAs(client.ID()+1))
}

func TestDeadTargetDropsInput(t *testing.T) {
	client := memwl.NewDisplay(nil).NewClient()
	layer := client.CreateLayerSurface(nil, "bar", wl.LayerSurfaceState{})
	target := LayerSurface(layer)
	layer.ClientSurface().Destroy()

	assert.False(t, target.Alive())
	target.PointerMotion(&wl.MotionEvent{})
	assert.Empty(t, layer.ClientSurface().Events)
}
