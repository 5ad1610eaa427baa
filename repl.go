package main

import (
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mstarongithub/wayspace/compositor"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/repl"
	"github.com/mstarongithub/wayspace/util"
	"github.com/mstarongithub/wayspace/util/wrappers"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// How long the repl waits for the compositor to answer a command
const commandTimeout = 5 * time.Second

var errNoVirtualWindows = errors.New("only the headless backend has virtual windows")

// virtualBackend is what the headless backend offers on top of the compositor
type virtualBackend interface {
	CreateVirtualWindow(title string, size generaldata.Size) *memwl.Toplevel
	Screenshot(name string) (*image.RGBA, error)
}

// commands answers repl input. Everything touching compositor state runs on the loop goroutine
type commands struct {
	state   *compositor.State
	virtual virtualBackend
	timeout time.Duration
}

type reply struct {
	out string
	err error
}

// onLoop runs fn on the compositor's loop and waits for its answer
func (c *commands) onLoop(fn func() (string, error)) (string, error) {
	res := make(chan reply, 1)
	err := c.state.Loop().Post(func() {
		out, err := fn()
		res <- reply{out: out, err: err}
	})
	if err != nil {
		return "", errors.Wrap(err, "compositor is gone")
	}
	select {
	case r := <-res:
		return r.out, r.err
	case <-time.After(c.timeout):
		return "", errors.New("compositor did not answer in time")
	}
}

// register adds the compositor's commands to r. Failing commands are answered, not returned,
// so the repl keeps running
func (c *commands) register(r *repl.Repl) error {
	return r.Register(
		repl.Command{Name: "run", Usage: "<cmd>", Run: c.run},
		repl.Command{Name: "inspect", Usage: "windows|outputs|cursor|grab|keybinds", Run: c.inspect},
		repl.Command{Name: "virtual", Usage: "<w> <h>", Run: c.virtualWindow},
		repl.Command{Name: "screenshot", Usage: "<output> <file>", Run: c.screenshot},
		repl.Command{Name: "quit", Run: c.quit},
	)
}

func (c *commands) run(args []string) (string, error) {
	cmdline := strings.Join(args, " ")
	return c.onLoop(func() (string, error) {
		if _, err := c.state.Spawn(cmdline); err != nil {
			return "", err
		}
		return "Running " + args[0], nil
	})
}

func (c *commands) inspect(args []string) (string, error) {
	var target string
	util.Unpack(args, &target)
	return c.onLoop(func() (string, error) {
		return c.state.Inspect(target)
	})
}

func (c *commands) quit([]string) (string, error) {
	if _, err := c.onLoop(func() (string, error) {
		c.state.Stop()
		return "", nil
	}); err != nil {
		logrus.WithError(err).Warnln("Stopping the compositor failed")
	}
	return "Quitting", repl.ErrStop
}

func (c *commands) virtualWindow(args []string) (string, error) {
	if c.virtual == nil {
		return "", errNoVirtualWindows
	}
	var w, h string
	util.Unpack(args, &w, &h)
	width, err := strconv.Atoi(w)
	if err != nil {
		return "", errors.Wrap(err, "width")
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return "", errors.Wrap(err, "height")
	}
	if width <= 0 || height <= 0 {
		return "", errors.Errorf("size %dx%d is empty", width, height)
	}
	return c.onLoop(func() (string, error) {
		tl := c.virtual.CreateVirtualWindow("virtual", generaldata.Size{W: width, H: height})
		return "Created virtual window " + tl.Surface().ID().String(), nil
	})
}

func (c *commands) screenshot(args []string) (string, error) {
	if c.virtual == nil {
		return "", errNoVirtualWindows
	}
	var name, path string
	util.Unpack(args, &name, &path)
	if name == "" || path == "" {
		return "", errors.New("usage: screenshot <output> <file>")
	}
	var img *image.RGBA
	_, err := c.onLoop(func() (string, error) {
		var err error
		img, err = c.virtual.Screenshot(name)
		return "", err
	})
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating screenshot file")
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", errors.Wrap(err, "encoding screenshot")
	}
	return "Saved " + name + " to " + path, nil
}

func replRunner(c *commands) {
	// The repl closes its own wrappers around stdin and stdout, not the streams themselves
	in, out := wrappers.Stdio()
	commandRepl := repl.New(in, out)
	if err := c.register(commandRepl); err != nil {
		logrus.WithError(err).Errorln("Setting up repl commands")
		return
	}
	logrus.Debugln("Starting repl")
	if err := commandRepl.Run(); err != nil {
		logrus.WithError(err).Warnln("Repl stopped")
	}
}
