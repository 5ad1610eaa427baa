// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package headless is a backend without any hardware. Outputs are in-memory framebuffers drawn
// by the software renderer on a timer, clients are in-process virtual windows
package headless

import (
	"image"
	"image/color"
	"os"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/eventloop"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/render"
	"github.com/mstarongithub/wayspace/socket"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrUnknownOutput = errors.New("unknown output")

type renderFunc func(
	o *output.Output,
	sp *space.Space,
	custom []render.Element,
	r render.Renderer,
	tracker *render.DamageTracker,
	age int,
	clear color.Color,
) (render.RenderResult, error)

type virtualOutput struct {
	output    *output.Output
	swapchain *swapchain
	renderer  *render.SoftwareRenderer
	tracker   *render.DamageTracker
	// Frames left that have to be drawn in full
	fullRedraw int
	front      *image.RGBA
	seq        uint64
}

type Backend struct {
	conf    *config.Config
	loop    *eventloop.Loop
	serials *wl.SerialCounter
	display *memwl.Display
	outputs []*virtualOutput

	state  *compositor.State
	timer  *eventloop.Timer
	render renderFunc

	virtualClient *memwl.Client
	virtuals      []*memwl.Toplevel
}

var _ backend.Backend = (*Backend)(nil)

// New creates the outputs from the config. The backend does nothing until attached to a compositor
func New(conf *config.Config, loop *eventloop.Loop) (*Backend, error) {
	if len(conf.Outputs) == 0 {
		return nil, errors.New("headless backend without outputs")
	}
	serials := &wl.SerialCounter{}
	b := &Backend{
		conf:    conf,
		loop:    loop,
		serials: serials,
		display: memwl.NewDisplay(serials),
		render:  render.RenderOutput,
	}
	for _, oc := range conf.Outputs {
		o := output.New(oc.Name, output.Mode{
			Size:    generaldata.Size{W: oc.Width, H: oc.Height},
			Refresh: oc.Refresh,
		})
		scale := oc.Scale
		o.ChangeState(nil, &scale)
		o.SetDescription("Headless virtual output")
		b.outputs = append(b.outputs, &virtualOutput{
			output:    o,
			swapchain: newSwapchain(o.CurrentMode().Size),
			renderer:  render.NewSoftwareRenderer(nil),
			tracker:   render.NewDamageTracker(),
		})
		logrus.WithField("output", o).Debugln("Created virtual output")
	}
	return b, nil
}

func (b *Backend) SeatName() string {
	return b.conf.SeatName
}

// ResetBuffers makes the next frames of o get drawn in full
func (b *Backend) ResetBuffers(o *output.Output) {
	for _, vo := range b.outputs {
		if vo.output == o {
			vo.fullRedraw = b.conf.FullRedrawFrames
			vo.swapchain.reset()
		}
	}
}

// EarlyImport has nothing to do, buffers already live in memory
func (b *Backend) EarlyImport(wl.Surface) {}

// Serials is the counter shared by the virtual clients and the seat
func (b *Backend) Serials() *wl.SerialCounter {
	return b.serials
}

func (b *Backend) Display() *memwl.Display {
	return b.display
}

func (b *Backend) Outputs() []*output.Output {
	res := make([]*output.Output, 0, len(b.outputs))
	for _, vo := range b.outputs {
		res = append(res, vo.output)
	}
	return res
}

// Attach connects the backend to the compositor: client requests go to its shell, the outputs
// are placed next to each other and the repaint timer starts
func (b *Backend) Attach(state *compositor.State) {
	b.state = state
	b.display.SetHandler(state.Shell())

	x := 0
	for _, vo := range b.outputs {
		state.Space().MapOutput(vo.output, generaldata.Vector2i{X: x})
		x += vo.output.LogicalSize().W
	}

	interval := b.conf.RepaintInterval
	b.timer = b.loop.AddTimer(interval, func(time.Time) time.Duration {
		b.RenderFrame()
		if !state.Running() {
			return 0
		}
		return interval
	})
}

// Listen accepts clients on the socket. This backend only speaks to in-process clients,
// so connections are turned away
func (b *Backend) Listen(l *socket.Listener) error {
	return l.Register(b.loop, func(conn *os.File) {
		logrus.WithField("socket", l.Name()).Warnln("Headless backend can't serve wire protocol clients, closing connection")
		conn.Close()
	})
}

// RenderFrame lets the virtual clients answer their configures and draws every output once
func (b *Backend) RenderFrame() {
	if b.state == nil {
		return
	}
	b.pumpVirtualClients()
	for _, vo := range b.outputs {
		if err := b.renderOutput(vo); err != nil {
			if b.state.HandleError(err) {
				return
			}
		}
	}
}

func (b *Backend) renderOutput(vo *virtualOutput) error {
	sl, age := vo.swapchain.acquire()
	if vo.fullRedraw > 0 {
		vo.fullRedraw--
		age = 0
	}
	vo.renderer.Bind(sl.buf)

	sp := b.state.Space()
	o := vo.output
	outGeo, ok := sp.OutputGeometry(o)
	if !ok {
		return nil
	}

	var custom []render.Element
	ptr := b.state.Seat().Pointer().CurrentLocation()
	if outGeo.ContainsF(ptr) {
		rel := ptr.Sub(outGeo.Loc.ToF()).Round()
		custom = render.PointerElements(b.state.CursorStatus(), rel, o.Scale())
	}

	res, err := b.render(o, sp, custom, vo.renderer, vo.tracker, age, render.ClearColor)
	if err != nil {
		return errors.Wrapf(err, "rendering %s", o.Name())
	}
	vo.swapchain.submit(sl)
	vo.front = sl.buf
	vo.seq++

	now := b.state.Clock()
	render.PostRepaint(o, sp, res.States, now, b.conf.FrameThrottle)
	if res.Damage != nil {
		fb := render.TakePresentationFeedback(o, sp, res.States)
		fb.Presented(now, o.CurrentMode().Refresh, vo.seq, wl.PresentationVsync)
	}
	return nil
}

// CreateVirtualWindow opens an in-process window that behaves like a simple client
func (b *Backend) CreateVirtualWindow(title string, size generaldata.Size) *memwl.Toplevel {
	if b.virtualClient == nil {
		b.virtualClient = b.display.NewClient()
	}
	tl := b.virtualClient.CreateToplevel(title, "wayspace.virtual")
	tl.ClientSurface().Commit()
	tl.AckAndCommit(size)
	b.virtuals = append(b.virtuals, tl)
	logrus.WithFields(logrus.Fields{
		"title": title,
		"size":  size,
	}).Infoln("Created virtual window")
	return tl
}

// pumpVirtualClients acks outstanding configures and drops dead windows
func (b *Backend) pumpVirtualClients() {
	alive := b.virtuals[:0]
	for _, tl := range b.virtuals {
		if !tl.Alive() {
			continue
		}
		if tl.HasUnackedConfigure() {
			tl.AckAndCommit(tl.Geometry().Size)
		}
		alive = append(alive, tl)
	}
	b.virtuals = alive
}

// Screenshot copies the last frame drawn for the named output
func (b *Backend) Screenshot(name string) (*image.RGBA, error) {
	for _, vo := range b.outputs {
		if vo.output.Name() != name {
			continue
		}
		if vo.front == nil {
			return nil, errors.Errorf("nothing drawn on %s yet", name)
		}
		img := image.NewRGBA(vo.front.Bounds())
		copy(img.Pix, vo.front.Pix)
		return img, nil
	}
	return nil, errors.Wrapf(ErrUnknownOutput, "%q", name)
}

// Close stops repainting and disconnects the virtual clients
func (b *Backend) Close() {
	if b.timer != nil {
		b.timer.Stop()
	}
	for _, c := range b.display.Clients() {
		c.Disconnect()
	}
}
