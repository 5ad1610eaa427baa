// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package wlr runs the compositor on real hardware through wlroots. wlroots owns the wire
// protocol, the renderer and the input devices; windows, focus and grabs are decided by the
// compositor core. The core's event loop is driven from the output frame callbacks, so all of
// it runs on the wlroots thread
package wlr

import (
	"fmt"
	"os"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/keybinds"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/swaywm/go-wlroots/wlroots"
)

type wlrOutput struct {
	wlr    wlroots.Output
	output *output.Output
}

type Backend struct {
	conf    *config.Config
	serials *wl.SerialCounter
	state   *compositor.State

	display     wlroots.Display
	backend     wlroots.Backend
	renderer    wlroots.Renderer
	allocator   wlroots.Allocator
	scene       wlroots.Scene
	sceneLayout wlroots.SceneOutputLayout

	xdgShell  wlroots.XDGShell
	toplevels []*toplevel

	cursor    wlroots.Cursor
	cursorMgr wlroots.XCursorManager

	seat      wlroots.Seat
	keyboards []wlroots.InputDevice
	// Last keyboard that sent a key, modifiers are forwarded from it
	keyboard *wlroots.Keyboard
	binds    *keybinds.Bindings

	outputLayout wlroots.OutputLayout
	outputs      []*wlrOutput
	nextOutputX  int

	socket string
}

var _ backend.Backend = (*Backend)(nil)

// ForwardLogs sends wlroots log messages to logrus
func ForwardLogs() {
	wlroots.OnLog(wlroots.LogImportanceError, func(importance wlroots.LogImportance, msg string) {
		switch importance {
		case wlroots.LogImportanceDebug:
			logrus.Debugln(msg)
		case wlroots.LogImportanceInfo:
			logrus.Infoln(msg)
		case wlroots.LogImportanceError:
			logrus.Errorln(msg)
		case wlroots.LogImportanceSilent:
			return
		}
	})
}

// New creates the wlroots display, picks a hardware backend and sets up the scene graph.
// Nothing is shown before Start
func New(conf *config.Config) (*Backend, error) {
	b := &Backend{conf: conf, serials: &wl.SerialCounter{}}
	var err error

	b.display = wlroots.NewDisplay()
	/* The autocreate option picks the most suitable backend for the environment, e.g. an X11
	 * window if an X11 server is running */
	b.backend, err = b.display.BackendAutocreate()
	if err != nil {
		return nil, errors.Wrap(err, "creating wlroots backend")
	}
	b.renderer, err = b.backend.RendererAutoCreate()
	if err != nil {
		return nil, errors.Wrap(err, "creating renderer")
	}
	b.renderer.InitDisplay(b.display)
	b.allocator, err = b.backend.AllocatorAutocreate(b.renderer)
	if err != nil {
		return nil, errors.Wrap(err, "creating allocator")
	}

	b.display.CompositorCreate(5, b.renderer)
	b.display.SubCompositorCreate()
	b.display.DataDeviceManagerCreate()

	b.outputLayout = wlroots.NewOutputLayout()
	b.scene = wlroots.NewScene()
	b.sceneLayout = b.scene.AttachOutputLayout(b.outputLayout)

	b.xdgShell = b.display.XDGShellCreate(3)

	b.cursor = wlroots.NewCursor()
	b.cursor.AttachOutputLayout(b.outputLayout)
	b.cursorMgr = wlroots.NewXCursorManager("", 24)
	b.cursorMgr.Load(1)

	b.seat = b.display.SeatCreate(conf.SeatName)
	return b, nil
}

func (b *Backend) SeatName() string {
	return b.conf.SeatName
}

// ResetBuffers has nothing to drop, the scene graph tracks damage itself
func (b *Backend) ResetBuffers(o *output.Output) {
	logrus.WithField("output", o).Debugln("Buffer reset requested, scene output handles damage itself")
}

// EarlyImport has nothing to do, wlroots imports buffers on commit
func (b *Backend) EarlyImport(wl.Surface) {}

// Serials is the counter shared by the seat and the toplevel configures
func (b *Backend) Serials() *wl.SerialCounter {
	return b.serials
}

// Attach hooks the wlroots events up to the compositor
func (b *Backend) Attach(state *compositor.State) {
	b.state = state
	b.binds = keybinds.New(b.conf.Keybinds, state)

	b.backend.OnNewOutput(b.handleNewOutput)
	b.backend.OnNewInput(b.handleNewInput)
	b.xdgShell.OnNewSurface(b.handleNewXDGSurface)

	b.cursor.OnMotion(b.handleCursorMotion)
	b.cursor.OnMotionAbsolute(b.handleCursorMotionAbsolute)
	b.cursor.OnButton(b.handleCursorButton)
	b.cursor.OnAxis(b.handleCursorAxis)
	b.cursor.OnFrame(b.handleCursorFrame)
	b.seat.OnSetCursorRequest(b.handleSetCursorRequest)
}

// Start opens the wayland socket and starts the hardware backend, which enumerates outputs
// and inputs. WAYLAND_DISPLAY is exported for spawned clients
func (b *Backend) Start() error {
	if b.state == nil {
		return errors.New("backend started before being attached")
	}
	socket, err := b.display.AddSocketAuto()
	if err != nil {
		b.backend.Destroy()
		return errors.Wrap(err, "adding wayland socket")
	}
	b.socket = socket
	if err = b.backend.Start(); err != nil {
		b.backend.Destroy()
		b.display.Destroy()
		return errors.Wrap(err, "starting wlroots backend")
	}
	if res := os.Getenv("WAYLAND_DISPLAY"); res != "" {
		logrus.WithField("WAYLAND_DISPLAY", res).Debugln("Wayland display already set, overwriting")
	}
	if err = os.Setenv("WAYLAND_DISPLAY", socket); err != nil {
		return errors.Wrap(err, "exporting WAYLAND_DISPLAY")
	}
	logrus.WithField("WAYLAND_DISPLAY", socket).Infoln("Running Wayland compositor")
	return nil
}

func (b *Backend) SocketName() string {
	return b.socket
}

// Run blocks in the wlroots event loop until the compositor stops, then tears everything down
func (b *Backend) Run() error {
	b.display.Run()

	b.display.DestroyClients()
	b.scene.Tree().Node().Destroy()
	b.cursorMgr.Destroy()
	b.outputLayout.Destroy()
	b.display.Destroy()
	return nil
}

// Stop ends Run. Must be called on the wlroots thread, everything else posts state.Stop
func (b *Backend) Stop() {
	b.display.Terminate()
}

// Outputs lists the outputs wlroots announced so far
func (b *Backend) Outputs() []*output.Output {
	res := make([]*output.Output, 0, len(b.outputs))
	for _, o := range b.outputs {
		res = append(res, o.output)
	}
	return res
}

func (b *Backend) handleNewOutput(o wlroots.Output) {
	logrus.WithField("name", o.Name()).Debugln("New output added")

	/* Use our allocator and renderer for this output. Must be done once, before committing */
	o.InitRender(b.allocator, b.renderer)

	oState := wlroots.NewOutputState()
	oState.StateInit()
	oState.StateSetEnabled(true)
	mode, err := o.PrefferedMode()
	if err == nil {
		oState.SetMode(mode)
	}
	o.CommitState(oState)
	oState.Finish()

	out := output.New(o.Name(), modeFromWlr(mode, err == nil))
	for _, m := range o.Modes() {
		out.AddMode(output.Mode{
			Size:    generaldata.Size{W: int(m.Width()), H: int(m.Height())},
			Refresh: int(m.Refresh()),
		}, m.Preferred())
	}
	if oc, ok := b.outputConfig(o.Name()); ok {
		scale := oc.Scale
		out.ChangeState(nil, &scale)
	}
	entry := &wlrOutput{wlr: o, output: out}
	b.outputs = append(b.outputs, entry)

	o.OnFrame(b.handleFrame)
	o.OnRequestState(func(o wlroots.Output, state wlroots.OutputState) {
		logrus.WithField("output", o.Name()).Debugln("New state request for output")
		o.CommitState(state)
	})
	o.OnDestroy(func(o wlroots.Output) {
		logrus.WithField("name", o.Name()).Debugln("Output getting destroyed")
		b.removeOutput(o)
	})

	/* Outputs are arranged left to right in the order they appear, the space mirrors it */
	lOutput := b.outputLayout.AddOutputAuto(o)
	sceneOutput := b.scene.NewOutput(o)
	b.sceneLayout.AddOutput(lOutput, sceneOutput)
	b.state.Space().MapOutput(out, generaldata.Vector2i{X: b.nextOutputX})
	b.nextOutputX += out.LogicalSize().W

	if err := o.SetTitle(fmt.Sprintf("wayspace - %s", o.Name())); err != nil {
		logrus.WithError(err).Debugln("Can't set output title")
	}
}

func (b *Backend) outputConfig(name string) (config.OutputConfig, bool) {
	for _, oc := range b.conf.Outputs {
		if oc.Name == name {
			return oc, true
		}
	}
	return config.OutputConfig{}, false
}

func (b *Backend) removeOutput(o wlroots.Output) {
	kept := b.outputs[:0]
	for _, entry := range b.outputs {
		if entry.wlr == o {
			b.state.Space().UnmapOutput(entry.output)
			continue
		}
		kept = append(kept, entry)
	}
	b.outputs = kept
}

func modeFromWlr(mode wlroots.OutputMode, ok bool) output.Mode {
	if !ok {
		return output.Mode{}
	}
	return output.Mode{
		Size:    generaldata.Size{W: int(mode.Width()), H: int(mode.Height())},
		Refresh: int(mode.Refresh()),
	}
}

// handleFrame runs every time an output is ready to show a frame. The core gets to process
// everything that queued up before the scene is committed
func (b *Backend) handleFrame(o wlroots.Output) {
	if err := b.state.Dispatch(0); err != nil {
		logrus.WithError(err).Errorln("Event loop failed")
		b.state.Stop()
	}
	if !b.state.Running() {
		b.Stop()
		return
	}
	b.flushToplevels()
	b.syncScene()

	sOut, err := b.scene.SceneOutput(o)
	if err != nil {
		return
	}
	sOut.Commit()
	sOut.SendFrameDone(time.Now())
}

// flushToplevels acks what was configured since the last frame and forgets dead toplevels
func (b *Backend) flushToplevels() {
	alive := b.toplevels[:0]
	for _, t := range b.toplevels {
		if !t.alive {
			continue
		}
		t.flush()
		alive = append(alive, t)
	}
	b.toplevels = alive
}

// syncScene moves the scene nodes to where the space has the windows and keeps the stacking order
func (b *Backend) syncScene() {
	for _, w := range b.state.Space().Elements() {
		/* Only windows wlroots knows about have a scene node */
		t, ok := w.WlSurface().(*toplevel)
		if !ok || !t.alive {
			continue
		}
		loc, mapped := b.state.Space().ElementRenderLocation(w)
		if !mapped {
			continue
		}
		node := t.xdg.Base().SceneTree().Node()
		node.SetPosition(float64(loc.X), float64(loc.Y))
		node.RaiseToTop()
	}
}

func (b *Backend) handleNewXDGSurface(xdgSurface wlroots.XDGSurface) {
	logrus.WithField("surface", xdgSurface).Debugln("New surface inbound")

	if xdgSurface.Role() == wlroots.XDGSurfaceRolePopup {
		parent := xdgSurface.Popup().Parent()
		if parent.Nil() {
			logrus.WithField("surface", xdgSurface).Warnln("Popup without parent, ignoring it")
			return
		}
		xdgSurface.SetData(parent.XDGSurface().SceneTree().NewXDGSurface(xdgSurface))
		return
	}
	if xdgSurface.Role() != wlroots.XDGSurfaceRoleTopLevel {
		logrus.WithField("role", xdgSurface.Role()).Warnln("Unknown xdg surface role, ignoring it")
		return
	}

	xdgSurface.SetData(b.scene.Tree().NewXDGSurface(xdgSurface.TopLevel().Base()))

	var t *toplevel
	xdgSurface.OnMap(func(s wlroots.XDGSurface) {
		/* A remapped toplevel comes back as a new window */
		t = newToplevel(b, s.TopLevel())
		b.toplevels = append(b.toplevels, t)
		b.state.Shell().NewToplevel(t)
		t.SendConfigure()
	})
	xdgSurface.OnUnmap(func(wlroots.XDGSurface) {
		if t != nil {
			t.destroy()
			t = nil
		}
	})
	xdgSurface.OnDestroy(func(wlroots.XDGSurface) {
		if t != nil {
			t.destroy()
			t = nil
		}
	})

	/* The serial the client sent can't be checked against wlroots' own serials, the press
	 * holding the click grab stands in for it */
	xdg := xdgSurface.TopLevel()
	xdg.OnRequestMove(func(_ wlroots.SeatClient, _ uint32) {
		if serial, ok := b.interactiveSerial(t); ok {
			b.state.Shell().MoveRequest(t, serial)
		}
	})
	xdg.OnRequestResize(func(_ wlroots.SeatClient, _ uint32, edges wlroots.Edges) {
		if serial, ok := b.interactiveSerial(t); ok {
			b.state.Shell().ResizeRequest(t, serial, edgesFromWlr(edges))
		}
	})
}

// interactiveSerial is the serial a move or resize request of t is checked with.
// Without a held button there is nothing to start from and the request is dropped
func (b *Backend) interactiveSerial(t *toplevel) (wl.Serial, bool) {
	if t == nil {
		return 0, false
	}
	serial, ok := b.state.Seat().Pointer().ClickGrabSerial()
	if !ok {
		logrus.WithField("toplevel", t).Debugln("Interactive request without a click grab, dropping it")
	}
	return serial, ok
}

func edgesFromWlr(e wlroots.Edges) wl.Edges {
	res := wl.EdgeNone
	if e&wlroots.EdgeTop != 0 {
		res |= wl.EdgeTop
	}
	if e&wlroots.EdgeBottom != 0 {
		res |= wl.EdgeBottom
	}
	if e&wlroots.EdgeLeft != 0 {
		res |= wl.EdgeLeft
	}
	if e&wlroots.EdgeRight != 0 {
		res |= wl.EdgeRight
	}
	return res
}
