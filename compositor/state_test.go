package compositor

import (
	"encoding/json"
	"testing"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/common/ipc"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/eventloop"
	"github.com/mstarongithub/wayspace/focus"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/render"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopBackend struct{}

func (nopBackend) SeatName() string              { return "test-seat" }
func (nopBackend) ResetBuffers(*output.Output) {}
func (nopBackend) EarlyImport(wl.Surface)      {}

func newState(t *testing.T, conf *config.Config) (*State, *memwl.Display) {
	t.Helper()
	if conf == nil {
		conf = config.Default()
	}
	loop, err := eventloop.New()
	require.NoError(t, err)
	t.Cleanup(loop.Close)

	display := memwl.NewDisplay(nil)
	s := New(conf, nopBackend{}, loop, display.Serials)
	display.SetHandler(s.Shell())
	s.Space().MapOutput(output.New("virtual-1", output.Mode{Size: generaldata.Size{W: 800, H: 600}, Refresh: 60_000}), generaldata.Vector2i{})
	return s, display
}

func TestStateWiring(t *testing.T) {
	s, display := newState(t, nil)
	assert.Equal(t, "test-seat", s.Seat().Name())
	assert.Same(t, display.Serials, s.Serials())
	assert.True(t, s.Running())
}

func TestHandleError(t *testing.T) {
	s, _ := newState(t, nil)

	assert.False(t, s.HandleError(nil))
	assert.False(t, s.HandleError(errors.New("buffer busy")))
	assert.True(t, s.Running())

	assert.True(t, s.HandleError(errors.Wrap(backend.ErrContextLost, "rendering")))
	assert.False(t, s.Running())
}

func TestCursorStatusFallsBack(t *testing.T) {
	s, display := newState(t, nil)
	assert.Equal(t, render.CursorDefault, s.CursorStatus().Kind)

	surf := display.NewClient().CreateSurface()
	s.SetCursorStatus(render.CursorStatus{Kind: render.CursorSurface, Surface: surf, Hotspot: generaldata.Vector2i{X: 2, Y: 3}})
	assert.Equal(t, render.CursorSurface, s.CursorStatus().Kind)

	surf.Destroy()
	assert.Equal(t, render.CursorDefault, s.CursorStatus().Kind)
}

func TestInspect(t *testing.T) {
	s, display := newState(t, nil)
	tl := display.NewClient().CreateToplevel("editor", "org.example.editor")
	tl.ClientSurface().Commit()
	tl.AckAndCommit(generaldata.Size{W: 300, H: 200})

	out, err := s.Inspect("windows")
	require.NoError(t, err)
	var windows []ipc.WindowInfo
	require.NoError(t, json.Unmarshal([]byte(out), &windows))
	require.Len(t, windows, 1)
	assert.Equal(t, "editor", windows[0].Title)
	assert.Equal(t, "wayland", windows[0].Kind)
	assert.True(t, windows[0].Mapped)
	assert.True(t, windows[0].Activated)
	require.NotNil(t, windows[0].Geometry)
	assert.Equal(t, 300, windows[0].Geometry.Width)
	assert.Equal(t, "idle", windows[0].ResizePhase)

	out, err = s.Inspect("outputs")
	require.NoError(t, err)
	var outputs []ipc.OutputInfo
	require.NoError(t, json.Unmarshal([]byte(out), &outputs))
	require.Len(t, outputs, 1)
	assert.Equal(t, "virtual-1", outputs[0].Name)
	assert.Equal(t, ipc.Rect{Width: 800, Height: 600}, outputs[0].NonExclusiveZone)

	assert.Equal(t, "none", s.Grab().Pointer)

	_, err = s.Inspect("everything")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestBuildOutputResponse(t *testing.T) {
	left := output.New("left", output.Mode{Size: generaldata.Size{W: 800, H: 600}, Refresh: 60_000})
	right := output.New("right", output.Mode{Size: generaldata.Size{W: 1920, H: 1080}, Refresh: 144_000})
	outputs := []*output.Output{left, right}

	all := BuildOutputResponse(ipc.OutputRequest{}, outputs)
	assert.Equal(t, []string{"left", "right"}, all.Outputs)
	assert.Equal(t, 2, all.OutputsFound)
	assert.Nil(t, all.OutputModes)

	one := BuildOutputResponse(ipc.OutputRequest{IncludeModes: true, SpecifiesOutput: true, TargetOutput: "right"}, outputs)
	assert.Equal(t, []string{"right"}, one.Outputs)
	require.Len(t, one.OutputModes["right"], 1)
	assert.Equal(t, ipc.OutputMode{Width: 1920, Height: 1080, RefreshRate: 144_000, Preferred: true}, one.OutputModes["right"][0])

	none := BuildOutputResponse(ipc.OutputRequest{SpecifiesOutput: true, TargetOutput: "middle"}, outputs)
	assert.Equal(t, 0, none.OutputsFound)
}

func TestCloseFocused(t *testing.T) {
	s, display := newState(t, nil)
	s.CloseFocused()

	tl := display.NewClient().CreateToplevel("term", "foot")
	tl.ClientSurface().Commit()
	tl.AckAndCommit(generaldata.Size{W: 100, H: 100})
	w := s.Space().Elements()[0]
	s.Seat().Keyboard().SetFocus(focus.Window(w), s.Seat().NextSerial())

	s.CloseFocused()
	assert.True(t, tl.Closed)
}

func TestRunStopsFromPostedWork(t *testing.T) {
	s, _ := newState(t, nil)
	require.NoError(t, s.Loop().Post(s.Stop))
	assert.NoError(t, s.Run())
	assert.False(t, s.Running())
}
