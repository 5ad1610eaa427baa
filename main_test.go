package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mstarongithub/wayspace/backend/headless"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/eventloop"
	"github.com/mstarongithub/wayspace/repl"
	"github.com/mstarongithub/wayspace/util/wrappers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConsole struct {
	*commands
	repl *repl.Repl
}

func newCommands(t *testing.T) (*testConsole, *headless.Backend) {
	t.Helper()
	conf := config.Default()
	conf.Backend = config.BACKEND_HEADLESS
	conf.Outputs = []config.OutputConfig{{Name: "left", Width: 200, Height: 100, Refresh: 60_000, Scale: 1}}
	require.NoError(t, conf.Validate())

	loop, err := eventloop.New()
	require.NoError(t, err)
	t.Cleanup(loop.Close)
	be, err := headless.New(conf, loop)
	require.NoError(t, err)
	state := compositor.New(conf, be, loop, be.Serials())
	be.Attach(state)
	t.Cleanup(be.Close)
	c := &testConsole{commands: &commands{state: state, virtual: be, timeout: time.Second}}
	c.repl = repl.New(io.NopCloser(strings.NewReader("")), wrappers.NewWriterWrapper(io.Discard))
	require.NoError(t, c.register(c.repl))
	return c, be
}

// send answers input while the test goroutine keeps the loop turning
func send(t *testing.T, c *testConsole, input string) (string, error) {
	t.Helper()
	done := make(chan reply, 1)
	go func() {
		out, err := c.repl.Execute(input)
		done <- reply{out: out, err: err}
	}()
	for {
		select {
		case r := <-done:
			return r.out, r.err
		default:
			require.NoError(t, c.state.Dispatch(5*time.Millisecond))
		}
	}
}

func TestInspectCommands(t *testing.T) {
	c, _ := newCommands(t)

	out, err := send(t, c, "inspect outputs")
	require.NoError(t, err)
	assert.Contains(t, out, `"left"`)

	out, err = send(t, c, "inspect nonsense")
	require.NoError(t, err, "command errors are answered")
	assert.Contains(t, out, "Error: ")

	out, err = send(t, c, "dance")
	require.NoError(t, err)
	assert.Equal(t, `Unknown command "dance", try help`, out)

	out, err = send(t, c, "   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestVirtualWindowCommand(t *testing.T) {
	c, _ := newCommands(t)

	out, err := send(t, c, "virtual 50 40")
	require.NoError(t, err)
	assert.Contains(t, out, "Created virtual window")

	out, err = send(t, c, "inspect windows")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "virtual"`)

	out, _ = send(t, c, "virtual 0 40")
	assert.Equal(t, "Error: size 0x40 is empty", out)
	out, _ = send(t, c, "virtual wide 40")
	assert.Contains(t, out, "Error: width")
}

func TestVirtualCommandsNeedHeadless(t *testing.T) {
	c, _ := newCommands(t)
	c.virtual = nil

	out, err := send(t, c, "virtual 50 40")
	require.NoError(t, err)
	assert.Equal(t, "Error: "+errNoVirtualWindows.Error(), out)

	out, _ = send(t, c, "screenshot left shot.png")
	assert.Equal(t, "Error: "+errNoVirtualWindows.Error(), out)
}

func TestScreenshotCommand(t *testing.T) {
	c, be := newCommands(t)
	be.RenderFrame()
	path := filepath.Join(t.TempDir(), "shot.png")

	out, err := send(t, c, "screenshot left "+path)
	require.NoError(t, err)
	assert.Equal(t, "Saved left to "+path, out)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	out, _ = send(t, c, "screenshot left")
	assert.Equal(t, "Error: usage: screenshot <output> <file>", out)
}

func TestHelpNamesEveryCommand(t *testing.T) {
	c, _ := newCommands(t)
	out, err := send(t, c, "help")
	require.NoError(t, err)
	for _, name := range []string{"run <cmd>", "inspect", "virtual <w> <h>", "screenshot <output> <file>", "quit"} {
		assert.Contains(t, out, name)
	}
}

func TestQuitStopsCompositor(t *testing.T) {
	c, _ := newCommands(t)
	require.True(t, c.state.Running())

	out, err := send(t, c, "quit")
	assert.ErrorIs(t, err, repl.ErrStop)
	assert.Equal(t, "Quitting", out)
	assert.False(t, c.state.Running())
}

func TestOutputRequest(t *testing.T) {
	req, err := outputRequest("outputs", "")
	require.NoError(t, err)
	assert.False(t, req.SpecifiesOutput)

	req, err = outputRequest("modes", "left")
	require.NoError(t, err)
	assert.True(t, req.IncludeModes)
	assert.Equal(t, "left", req.TargetOutput)

	_, err = outputRequest("modes", "")
	assert.Error(t, err)
	_, err = outputRequest("explode", "")
	assert.Error(t, err)

	req, err = outputRequest("none", "")
	assert.NoError(t, err)
	assert.Nil(t, req)
}
