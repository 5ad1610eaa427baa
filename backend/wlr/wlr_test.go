package wlr

import (
	"testing"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/stretchr/testify/assert"
	"github.com/swaywm/go-wlroots/wlroots"
)

func TestEdgesFromWlr(t *testing.T) {
	assert.Equal(t, wl.EdgeNone, edgesFromWlr(0))
	assert.Equal(t, wl.EdgeTopLeft, edgesFromWlr(wlroots.EdgeTop|wlroots.EdgeLeft))
	assert.Equal(t, wl.EdgeBottomRight, edgesFromWlr(wlroots.EdgeBottom|wlroots.EdgeRight))
}

func TestAxisSources(t *testing.T) {
	for _, s := range []wl.AxisSource{wl.AxisSourceWheel, wl.AxisSourceFinger, wl.AxisSourceContinuous, wl.AxisSourceWheelTilt} {
		assert.Equal(t, s, axisSourceFromWlr(axisSource(s)))
	}
}

func TestSameState(t *testing.T) {
	small := generaldata.Size{W: 100, H: 100}
	same := generaldata.Size{W: 100, H: 100}
	big := generaldata.Size{W: 200, H: 100}

	assert.True(t, sameState(wl.ToplevelState{}, wl.ToplevelState{}))
	assert.True(t, sameState(wl.ToplevelState{Size: &small}, wl.ToplevelState{Size: &same}))
	assert.False(t, sameState(wl.ToplevelState{Size: &small}, wl.ToplevelState{Size: &big}))
	assert.False(t, sameState(wl.ToplevelState{Size: &small}, wl.ToplevelState{}))
	assert.False(t, sameState(wl.ToplevelState{States: wl.StateActivated}, wl.ToplevelState{}))
}
