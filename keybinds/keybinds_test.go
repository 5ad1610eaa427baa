package keybinds

import (
	"os/exec"
	"testing"

	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingActions struct {
	spawned []string
	closed  int
	stopped int
}

func (a *recordingActions) Spawn(cmdline string) (*exec.Cmd, error) {
	a.spawned = append(a.spawned, cmdline)
	if cmdline == "" {
		return nil, errors.New("empty command")
	}
	return nil, nil
}

func (a *recordingActions) CloseFocused() {
	a.closed++
}

func (a *recordingActions) Stop() {
	a.stopped++
}

func TestCombo(t *testing.T) {
	assert.Equal(t, "ctrl+alt+t", Combo(20, wl.Modifiers{Alt: true, Ctrl: true}))
	assert.Equal(t, "enter", Combo(28, wl.Modifiers{}))
	assert.Equal(t, "", Combo(999, wl.Modifiers{}))
	assert.Equal(t, "ctrl+logo+q", normalizeCombo("Super + Ctrl + Q"))
}

func TestFilterRunsActions(t *testing.T) {
	actions := &recordingActions{}
	filter := New(config.Keybinds{
		"Alt+Q":      {"quit"},
		"logo+enter": {"run", "foot", "-e", "htop"},
		"ctrl+alt+c": {"close"},
	}, actions).Filter()

	alt := wl.Modifiers{Alt: true}
	assert.False(t, filter(16, wl.KeyPressed, wl.Modifiers{}), "unbound without modifier")
	assert.False(t, filter(16, wl.KeyReleased, alt), "releases never match")
	assert.Zero(t, actions.stopped)

	assert.True(t, filter(16, wl.KeyPressed, alt))
	assert.Equal(t, 1, actions.stopped)
	assert.True(t, filter(28, wl.KeyPressed, wl.Modifiers{Logo: true}))
	assert.Equal(t, []string{"foot -e htop"}, actions.spawned)
	assert.True(t, filter(46, wl.KeyPressed, wl.Modifiers{Ctrl: true, Alt: true}))
	assert.Equal(t, 1, actions.closed)
}

func TestBindingsAreNormalizedOnce(t *testing.T) {
	table := config.Keybinds{"Alt+Q": {"quit"}}
	b := New(table, &recordingActions{})
	table["alt+w"] = []string{"quit"}

	assert.Equal(t, map[string][]string{"alt+q": {"quit"}}, b.binds)
}

func TestRunErrors(t *testing.T) {
	b := New(nil, &recordingActions{})
	assert.Error(t, b.Run([]string{"dance"}))
	assert.Error(t, b.Run(nil))
	assert.Error(t, b.Run([]string{"run"}))

	actions := &recordingActions{}
	filter := New(config.Keybinds{"alt+r": {"run"}}, actions).Filter()
	assert.True(t, filter(19, wl.KeyPressed, wl.Modifiers{Alt: true}), "failing actions still swallow the key")
}

func TestFilterThroughSeat(t *testing.T) {
	actions := &recordingActions{}
	filter := New(config.Keybinds{"alt+q": {"quit"}}, actions).Filter()
	s := seat.New("seat0", nil)
	kb := s.Keyboard()

	kb.Input(seat.KeyLeftAlt, wl.KeyPressed, s.NextSerial(), 0, filter)
	require.Zero(t, actions.stopped)
	kb.Input(16, wl.KeyPressed, s.NextSerial(), 0, filter)
	assert.Equal(t, 1, actions.stopped)
	kb.Input(16, wl.KeyReleased, s.NextSerial(), 0, filter)
	assert.Equal(t, 1, actions.stopped)
}
