// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Prefix of all environment overrides, e.g. WAYSPACE_SEAT_NAME
const EnvPrefix = "WAYSPACE"

// Paths relative to the xdg config dirs
const (
	DefaultConfigFile   = "wayspace/config.toml"
	DefaultKeybindsFile = "wayspace/keybinds.yaml"
)

type StartType int

const (
	// Tells wayspace to start a repl in parallel for interacting with it
	START_REPL = StartType(iota)
	// Tells wayspace to execute a specific command on startup
	START_SINGLE_COMMAND
	// Tells wayspace to start without any specific targets
	// Note: Good luck interacting with it :3
	START_NONE
)

// UnmarshalText accepts both the names and the plain numbers
func (t *StartType) UnmarshalText(text []byte) error {
	switch s := strings.ToLower(strings.TrimSpace(string(text))); s {
	case "repl":
		*t = START_REPL
	case "command", "single_command":
		*t = START_SINGLE_COMMAND
	case "none":
		*t = START_NONE
	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < int(START_REPL) || n > int(START_NONE) {
			return errors.Errorf("unknown start type %q", s)
		}
		*t = StartType(n)
	}
	return nil
}

func (t StartType) String() string {
	switch t {
	case START_REPL:
		return "repl"
	case START_SINGLE_COMMAND:
		return "command"
	case START_NONE:
		return "none"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

type BackendType string

const (
	BACKEND_WLROOTS  = BackendType("wlroots")
	BACKEND_HEADLESS = BackendType("headless")
)

// A virtual output of the headless backend
type OutputConfig struct {
	Name   string `toml:"name"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// In millihertz
	Refresh int     `toml:"refresh"`
	Scale   float64 `toml:"scale"`
}

type XWaylandConfig struct {
	Enabled bool `envconfig:"ENABLED" toml:"enabled"`
	// X11 display the window manager connects to. Empty means $DISPLAY
	Display string `envconfig:"DISPLAY" toml:"display"`
}

// Keybinds maps a key combination to whatever should happen when it is pressed.
// The compositor core never looks into it, the backend does
type Keybinds map[string][]string

type Config struct {
	StartType StartType `envconfig:"START_TYPE" toml:"start_type"`
	// What command to execute on start. Only matters if StartType is set to START_SINGLE_COMMAND
	StartCommand string `envconfig:"START_COMMAND" toml:"start_command"`

	Backend  BackendType `envconfig:"BACKEND" toml:"backend"`
	LogLevel string      `envconfig:"LOG_LEVEL" toml:"log_level"`
	SeatName string      `envconfig:"SEAT_NAME" toml:"seat_name"`

	// Time between two repaints of the headless backend
	RepaintInterval time.Duration `envconfig:"REPAINT_INTERVAL" toml:"repaint_interval"`
	// Surfaces not visible for longer than this still get a frame callback now and then
	FrameThrottle time.Duration `envconfig:"FRAME_THROTTLE" toml:"frame_throttle"`
	// How many frames get drawn in full after the buffers were reset
	FullRedrawFrames int `envconfig:"FULL_REDRAW_FRAMES" toml:"full_redraw_frames"`
	// Activation tokens older than this are ignored
	ActivationTimeout time.Duration `envconfig:"ACTIVATION_TIMEOUT" toml:"activation_timeout"`

	Outputs  []OutputConfig `ignored:"true" toml:"outputs"`
	XWayland XWaylandConfig `envconfig:"XWAYLAND" toml:"xwayland"`

	KeybindsFile string   `envconfig:"KEYBINDS_FILE" toml:"keybinds_file"`
	Keybinds     Keybinds `ignored:"true" toml:"-"`
}

func Default() *Config {
	return &Config{
		StartType:         START_REPL,
		Backend:           BACKEND_WLROOTS,
		LogLevel:          "info",
		SeatName:          "seat0",
		RepaintInterval:   16 * time.Millisecond,
		FrameThrottle:     time.Second,
		FullRedrawFrames:  4,
		ActivationTimeout: 10 * time.Second,
		Outputs: []OutputConfig{
			{Name: "HEADLESS-1", Width: 1280, Height: 800, Refresh: 60_000, Scale: 1},
		},
		Keybinds: Keybinds{},
	}
}

// Load builds the config from the defaults, the toml file at path and the environment, in that order.
// An empty path looks for the file in the xdg config dirs and is fine with not finding one
func Load(path string) (*Config, error) {
	conf := Default()

	if path == "" {
		found, err := xdg.SearchConfigFile(DefaultConfigFile)
		if err != nil {
			logrus.WithField("file", DefaultConfigFile).Debugln("No config file found, using defaults")
		}
		path = found
	}
	if path != "" {
		if err := conf.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, conf); err != nil {
		return nil, errors.Wrap(err, "reading environment overrides")
	}

	keybindsPath := conf.KeybindsFile
	if keybindsPath == "" {
		keybindsPath, _ = xdg.SearchConfigFile(DefaultKeybindsFile)
	}
	if keybindsPath != "" {
		binds, err := LoadKeybinds(keybindsPath)
		if err != nil {
			return nil, err
		}
		conf.Keybinds = binds
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	if err = toml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	logrus.WithField("file", path).Debugln("Loaded config file")
	return nil
}

// LoadKeybinds reads a yaml file of the form `combo: [action, args...]`
func LoadKeybinds(path string) (Keybinds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading keybinds file %s", path)
	}
	binds := Keybinds{}
	if err = yaml.Unmarshal(data, &binds); err != nil {
		return nil, errors.Wrapf(err, "parsing keybinds file %s", path)
	}
	for combo, action := range binds {
		if len(action) == 0 {
			return nil, errors.Errorf("keybind %q has no action", combo)
		}
	}
	return binds, nil
}

func (c *Config) Validate() error {
	if c.StartType < START_REPL || c.StartType > START_NONE {
		return errors.Errorf("unknown start type %d", c.StartType)
	}
	if c.StartType == START_SINGLE_COMMAND && strings.TrimSpace(c.StartCommand) == "" {
		return errors.New("start type command needs a start_command")
	}
	switch c.Backend {
	case BACKEND_WLROOTS, BACKEND_HEADLESS:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "bad log_level")
	}
	if c.SeatName == "" {
		return errors.New("seat_name must not be empty")
	}
	if c.RepaintInterval <= 0 {
		return errors.New("repaint_interval must be positive")
	}
	if c.FrameThrottle < 0 {
		return errors.New("frame_throttle must not be negative")
	}
	if c.FullRedrawFrames < 0 {
		return errors.New("full_redraw_frames must not be negative")
	}
	if c.ActivationTimeout <= 0 {
		return errors.New("activation_timeout must be positive")
	}
	names := map[string]bool{}
	for i, o := range c.Outputs {
		if o.Name == "" {
			return errors.Errorf("output %d has no name", i)
		}
		if names[o.Name] {
			return errors.Errorf("output %s is configured twice", o.Name)
		}
		names[o.Name] = true
		if o.Width <= 0 || o.Height <= 0 {
			return errors.Errorf("output %s has an invalid size %dx%d", o.Name, o.Width, o.Height)
		}
		if o.Refresh < 0 {
			return errors.Errorf("output %s has a negative refresh rate", o.Name)
		}
		if o.Scale <= 0 {
			return errors.Errorf("output %s needs a positive scale", o.Name)
		}
	}
	if c.Backend == BACKEND_HEADLESS && len(c.Outputs) == 0 {
		return errors.New("the headless backend needs at least one output")
	}
	return nil
}

// Level is the logrus level to use. Validate makes sure this can't fail
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
