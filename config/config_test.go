package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	conf := Default()
	require.NoError(t, conf.Validate())
	assert.Equal(t, 16*time.Millisecond, conf.RepaintInterval)
	assert.Equal(t, 4, conf.FullRedrawFrames)
	assert.Equal(t, "seat0", conf.SeatName)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
start_type = "none"
backend = "headless"
log_level = "debug"
repaint_interval = "20ms"
full_redraw_frames = 2

[xwayland]
enabled = true
display = ":5"

[[outputs]]
name = "left"
width = 800
height = 600
refresh = 60000
scale = 1.0

[[outputs]]
name = "right"
width = 1024
height = 768
refresh = 75000
scale = 2.0
`)
	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, START_NONE, conf.StartType)
	assert.Equal(t, BACKEND_HEADLESS, conf.Backend)
	assert.Equal(t, 20*time.Millisecond, conf.RepaintInterval)
	assert.Equal(t, 2, conf.FullRedrawFrames)
	assert.True(t, conf.XWayland.Enabled)
	assert.Equal(t, ":5", conf.XWayland.Display)
	require.Len(t, conf.Outputs, 2)
	assert.Equal(t, "right", conf.Outputs[1].Name)
	assert.Equal(t, 2.0, conf.Outputs[1].Scale)
	// Untouched keys keep their defaults
	assert.Equal(t, time.Second, conf.FrameThrottle)
	assert.Equal(t, "seat0", conf.SeatName)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "config.toml", "seat_name = \"from-file\"\n")
	t.Setenv("WAYSPACE_SEAT_NAME", "from-env")
	t.Setenv("WAYSPACE_START_TYPE", "command")
	t.Setenv("WAYSPACE_START_COMMAND", "foot")
	t.Setenv("WAYSPACE_XWAYLAND_ENABLED", "true")
	t.Setenv("WAYSPACE_ACTIVATION_TIMEOUT", "3s")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.SeatName)
	assert.Equal(t, START_SINGLE_COMMAND, conf.StartType)
	assert.Equal(t, "foot", conf.StartCommand)
	assert.True(t, conf.XWayland.Enabled)
	assert.Equal(t, 3*time.Second, conf.ActivationTimeout)
}

func TestMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestKeybinds(t *testing.T) {
	binds := writeFile(t, "keybinds.yaml", `
"alt+enter": [run, foot]
"alt+q": [close]
`)
	path := writeFile(t, "config.toml", "keybinds_file = \""+binds+"\"\n")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Keybinds{
		"alt+enter": {"run", "foot"},
		"alt+q":     {"close"},
	}, conf.Keybinds)

	empty := writeFile(t, "bad.yaml", "\"alt+x\": []\n")
	_, err = LoadKeybinds(empty)
	assert.Error(t, err)
}

func TestStartTypeText(t *testing.T) {
	for text, want := range map[string]StartType{
		"repl":    START_REPL,
		"Command": START_SINGLE_COMMAND,
		"2":       START_NONE,
	} {
		var st StartType
		require.NoError(t, st.UnmarshalText([]byte(text)), text)
		assert.Equal(t, want, st, text)
	}
	var st StartType
	assert.Error(t, st.UnmarshalText([]byte("7")))
	assert.Error(t, st.UnmarshalText([]byte("sometimes")))
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"command without command": func(c *Config) { c.StartType = START_SINGLE_COMMAND },
		"unknown backend":         func(c *Config) { c.Backend = "x11" },
		"bad log level":           func(c *Config) { c.LogLevel = "loud" },
		"empty seat":              func(c *Config) { c.SeatName = "" },
		"zero repaint":            func(c *Config) { c.RepaintInterval = 0 },
		"negative redraws":        func(c *Config) { c.FullRedrawFrames = -1 },
		"zero activation timeout": func(c *Config) { c.ActivationTimeout = 0 },
		"empty output":            func(c *Config) { c.Outputs[0].Width = 0 },
		"zero scale":              func(c *Config) { c.Outputs[0].Scale = 0 },
		"duplicate output": func(c *Config) {
			c.Outputs = append(c.Outputs, c.Outputs[0])
		},
		"headless without outputs": func(c *Config) {
			c.Backend = BACKEND_HEADLESS
			c.Outputs = nil
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			conf := Default()
			mutate(conf)
			assert.Error(t, conf.Validate())
		})
	}
}
