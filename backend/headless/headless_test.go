package headless

import (
	"image/color"
	"testing"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/eventloop"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/render"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*Backend, *compositor.State) {
	t.Helper()
	conf := config.Default()
	conf.Backend = config.BACKEND_HEADLESS
	conf.FullRedrawFrames = 3
	conf.Outputs = []config.OutputConfig{
		{Name: "left", Width: 200, Height: 100, Refresh: 60_000, Scale: 1},
		{Name: "right", Width: 200, Height: 100, Refresh: 60_000, Scale: 1},
	}
	require.NoError(t, conf.Validate())

	loop, err := eventloop.New()
	require.NoError(t, err)
	t.Cleanup(loop.Close)

	be, err := New(conf, loop)
	require.NoError(t, err)
	state := compositor.New(conf, be, loop, be.Serials())
	be.Attach(state)
	t.Cleanup(be.Close)
	return be, state
}

func TestOutputsArePlacedSideBySide(t *testing.T) {
	be, state := newBackend(t)
	outputs := be.Outputs()
	require.Len(t, outputs, 2)

	geo, ok := state.Space().OutputGeometry(outputs[1])
	require.True(t, ok)
	assert.Equal(t, generaldata.NewRect(200, 0, 200, 100), geo)
	assert.Equal(t, "seat0", be.SeatName())
}

func TestRenderFrameShowsVirtualWindow(t *testing.T) {
	be, state := newBackend(t)
	tl := be.CreateVirtualWindow("virtual", generaldata.Size{W: 50, H: 40})
	require.Len(t, state.Space().Elements(), 1)

	fb := tl.ClientSurface().Feedback()
	tl.ClientSurface().Frame()
	tl.ClientSurface().Commit()

	be.RenderFrame()

	img, err := be.Screenshot("left")
	require.NoError(t, err)
	assert.NotEqual(t, render.ClearColor, img.RGBAAt(30, 30), "window content")
	assert.Equal(t, render.ClearColor, img.RGBAAt(150, 80), "background")

	assert.True(t, fb.Done)
	assert.False(t, fb.Discard)
	assert.Same(t, be.Outputs()[0], fb.Output)
	assert.NotZero(t, fb.Kind&wl.PresentationVsync)
	assert.Equal(t, 60_000, fb.Refresh)
	assert.GreaterOrEqual(t, tl.ClientSurface().FramesDone, 1)

	_, err = be.Screenshot("middle")
	assert.ErrorIs(t, err, ErrUnknownOutput)
}

func TestVirtualWindowsAnswerConfigures(t *testing.T) {
	be, _ := newBackend(t)
	tl := be.CreateVirtualWindow("virtual", generaldata.Size{W: 50, H: 40})

	tl.RequestMaximize(true)
	assert.True(t, tl.HasUnackedConfigure())

	be.RenderFrame()
	assert.False(t, tl.HasUnackedConfigure())
	assert.Equal(t, generaldata.Size{W: 200, H: 100}, tl.Geometry().Size)
	assert.True(t, tl.CurrentState().States.Contains(wl.StateMaximized))
}

func TestResetBuffersForcesFullRedraws(t *testing.T) {
	be, _ := newBackend(t)
	left := be.Outputs()[0]

	ages := []int{}
	be.render = func(o *output.Output, sp *space.Space, custom []render.Element, r render.Renderer, tracker *render.DamageTracker, age int, clear color.Color) (render.RenderResult, error) {
		if o == left {
			ages = append(ages, age)
		}
		return render.RenderOutput(o, sp, custom, r, tracker, age, clear)
	}

	be.RenderFrame()
	be.RenderFrame()
	be.RenderFrame()
	assert.Equal(t, []int{0, 0, 2}, ages, "fresh buffers have no age")

	be.ResetBuffers(left)
	ages = nil
	be.RenderFrame()
	be.RenderFrame()
	be.RenderFrame()
	be.RenderFrame()
	assert.Equal(t, []int{0, 0, 0, 2}, ages)
}

func TestRenderErrors(t *testing.T) {
	be, state := newBackend(t)
	var fail error
	be.render = func(*output.Output, *space.Space, []render.Element, render.Renderer, *render.DamageTracker, int, color.Color) (render.RenderResult, error) {
		return render.RenderResult{}, fail
	}

	fail = errors.New("buffer busy")
	be.RenderFrame()
	assert.True(t, state.Running(), "recoverable errors only skip the frame")

	fail = backend.Fatal(errors.New("gpu gone"))
	be.RenderFrame()
	assert.False(t, state.Running())
}
